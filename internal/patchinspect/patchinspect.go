// Package patchinspect implements the patch inspector (spec component C3):
// it extracts every file path referenced by a unified diff's headers and
// validates each one through the path guard before any bytes are written.
// Grounded directly on spec.md's header grammar; the teacher has no
// equivalent component, since it never applies patches to a workspace.
package patchinspect

import (
	"bufio"
	"strings"

	"github.com/nextlevelbuilder/agentd/internal/apperr"
	"github.com/nextlevelbuilder/agentd/internal/pathguard"
)

const devNull = "/dev/null"

var (
	gitDiffPrefix = "diff --git "
	oldFilePrefix = "--- "
	newFilePrefix = "+++ "
)

// ExtractPaths scans the body of a unified diff and returns every distinct
// path referenced by a "diff --git a/X b/Y", "--- a/X", or "+++ b/Y"
// header, in first-seen order. /dev/null headers (new/deleted files) are
// ignored. The a/ and b/ prefixes git conventionally adds are stripped.
func ExtractPaths(diff string) []string {
	seen := make(map[string]bool)
	var paths []string

	add := func(p string) {
		if p == "" || p == devNull || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	scanner := bufio.NewScanner(strings.NewReader(diff))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, gitDiffPrefix):
			rest := strings.TrimPrefix(line, gitDiffPrefix)
			a, b, ok := splitGitDiffHeader(rest)
			if ok {
				add(stripAB(a))
				add(stripAB(b))
			}
		case strings.HasPrefix(line, oldFilePrefix):
			add(stripAB(trimTimestamp(strings.TrimPrefix(line, oldFilePrefix))))
		case strings.HasPrefix(line, newFilePrefix):
			add(stripAB(trimTimestamp(strings.TrimPrefix(line, newFilePrefix))))
		}
	}
	return paths
}

// splitGitDiffHeader splits the "a/X b/Y" remainder of a "diff --git" line.
// Paths containing spaces are ambiguous in this format; we split on the
// last " b/" occurrence, which handles the common case without a quoted
// path parser.
func splitGitDiffHeader(rest string) (a, b string, ok bool) {
	idx := strings.LastIndex(rest, " b/")
	if idx < 0 {
		return "", "", false
	}
	a = rest[:idx]
	b = rest[idx+1:]
	return a, b, true
}

// trimTimestamp strips a trailing tab-separated timestamp some diff
// producers append to --- / +++ lines (e.g. "a/foo.go\t2024-01-01 ...").
func trimTimestamp(s string) string {
	if idx := strings.IndexByte(s, '\t'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimRight(s, "\r\n")
}

func stripAB(p string) string {
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		return p[2:]
	}
	return p
}

// Inspect extracts every path referenced by diff and resolves each one
// through the path guard. It fails closed on the first violation: no
// bytes from the patch should be applied if any referenced path is
// rejected.
func Inspect(diff string, ws pathguard.Workspace, globalDeny []string) ([]*pathguard.Resolved, error) {
	paths := ExtractPaths(diff)
	if len(paths) == 0 {
		return nil, apperr.New(apperr.CodePatchFailed, "patch contains no recognizable file headers")
	}

	resolved := make([]*pathguard.Resolved, 0, len(paths))
	for _, p := range paths {
		r, err := pathguard.Resolve(p, ws, globalDeny)
		if err != nil {
			// Propagate the path guard's own code (e.g. FORBIDDEN_PATH) —
			// PATCH_FAILED is reserved for apply/corrupt-patch failure,
			// not path rejection.
			if ae, ok := apperr.As(err); ok {
				return nil, ae
			}
			return nil, apperr.Newf(apperr.CodePatchFailed, "patch references a forbidden path: %s", p).
				WithDetails(map[string]string{"path": p})
		}
		resolved = append(resolved, r)
	}
	return resolved, nil
}
