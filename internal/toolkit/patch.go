package toolkit

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/nextlevelbuilder/agentd/internal/apperr"
	"github.com/nextlevelbuilder/agentd/internal/config"
	"github.com/nextlevelbuilder/agentd/internal/patchinspect"
)

// PatchStats summarizes the effect of an applied patch.
type PatchStats struct {
	Added    int  `json:"added"`
	Removed  int  `json:"removed"`
	Modified int  `json:"modified"`
	DryRun   bool `json:"dryRun"`
}

var statLineRe = regexp.MustCompile(`^\s*(\S+)\s*\|\s*\d+\s*(\+*)(-*)`)

// ApplyPatchTool implements fs.apply_patch (spec component C5). Runs the
// patch inspector first; the whole patch fails on its first violation.
// Dry-run applies via "git apply --check". Grounded on the teacher's
// exec.CommandContext shell-out idiom used throughout internal/tools for
// invoking external binaries rather than reimplementing their logic.
func ApplyPatchTool(ctx context.Context, ws *config.Workspace, args map[string]interface{}) *Result {
	if ws.Tier == config.TierRead {
		return ErrorResult(string(apperr.CodeForbiddenPath) + ": fs.apply_patch requires write tier")
	}
	patch, _ := args["patchUnified"].(string)
	if patch == "" {
		return ErrorResult(string(apperr.CodeInvalidPath) + ": patchUnified is required")
	}
	dryRun, _ := args["dryRun"].(bool)

	if _, err := patchinspect.Inspect(patch, wsGuard(ws), nil); err != nil {
		return errResultFromApperr(err)
	}

	gitArgs := []string{"apply", "--numstat"}
	if dryRun {
		gitArgs = append(gitArgs, "--check")
	} else {
		// --numstat alone only reports; --apply makes git also apply.
		gitArgs = append(gitArgs, "--apply")
	}

	cmd := exec.CommandContext(ctx, "git", gitArgs...)
	cmd.Dir = ws.Root
	cmd.Stdin = bytes.NewBufferString(patch)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return ErrorResult(string(apperr.CodePatchFailed) + ": " + stderr.String())
	}

	stats := parseNumstat(stdout.String())
	stats.DryRun = dryRun
	return Ok(stats)
}

// parseNumstat parses "git apply --numstat" output: lines of
// "added\tremoved\tpath".
func parseNumstat(out string) *PatchStats {
	stats := &PatchStats{}
	for _, line := range splitLines(out) {
		fields := splitTabs(line)
		if len(fields) != 3 {
			continue
		}
		added, aErr := strconv.Atoi(fields[0])
		removed, rErr := strconv.Atoi(fields[1])
		if aErr != nil || rErr != nil {
			// "-" indicates a binary file; count it as modified.
			stats.Modified++
			continue
		}
		switch {
		case added > 0 && removed == 0:
			stats.Added++
		case removed > 0 && added == 0:
			stats.Removed++
		default:
			stats.Modified++
		}
	}
	return stats
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func splitTabs(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\t' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
