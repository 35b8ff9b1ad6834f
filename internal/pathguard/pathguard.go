// Package pathguard implements the workspace-scoped path guard (spec
// component C1): it canonicalises, normalises, and pattern-matches every
// path before any filesystem operation touches it.
//
// Grounded on the teacher's internal/tools/filesystem.go resolvePath /
// isPathInside, adapted per spec section 4.1 step 1 to NOT resolve
// symlinks — resolving one here could leak its target name into the
// rejection message. A symlink whose name is within the workspace passes
// the guard and is only caught at the OS layer if it points outside.
package pathguard

import (
	"path/filepath"
	"strings"

	"github.com/nextlevelbuilder/agentd/internal/apperr"
)

// Resolved is the outcome of a successful path resolution.
type Resolved struct {
	Absolute string
	Relative string
}

// Workspace is the subset of workspace data the guard needs.
type Workspace struct {
	Root         string
	DenyPatterns []string
}

// Resolve canonicalises inputPath against workspace.Root, rejects
// traversal outside the root, and matches it against the combined
// built-in, global, and workspace deny glob lists in that order.
func Resolve(inputPath string, ws Workspace, globalDeny []string) (*Resolved, error) {
	if inputPath == "" {
		return nil, apperr.New(apperr.CodeInvalidPath, "path must not be empty")
	}

	normalized := normalize(inputPath)

	var absolute string
	if filepath.IsAbs(normalized) {
		absolute = filepath.Clean(normalized)
	} else {
		absolute = filepath.Clean(filepath.Join(workspaceRoot(ws), normalized))
	}

	relative, err := filepath.Rel(workspaceRoot(ws), absolute)
	if err != nil {
		return nil, apperr.New(apperr.CodeForbiddenPath, "path escapes workspace root")
	}
	relative = filepath.ToSlash(relative)

	if relative == ".." || strings.HasPrefix(relative, "../") || filepath.IsAbs(relative) {
		return nil, apperr.Newf(apperr.CodeForbiddenPath, "path %q escapes workspace root", inputPath)
	}

	if pattern, denied := matchDeny(absolute, relative, ws.DenyPatterns, globalDeny); denied {
		return nil, apperr.Newf(apperr.CodeForbiddenPath, "path %q is denied by policy", inputPath).
			WithDetails(map[string]string{"pattern": pattern})
	}

	return &Resolved{Absolute: absolute, Relative: relative}, nil
}

func workspaceRoot(ws Workspace) string {
	return filepath.Clean(ws.Root)
}

// normalize collapses "./" and "//" and strips trailing separators, but
// never touches symlinks.
func normalize(p string) string {
	p = filepath.ToSlash(p)
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return filepath.FromSlash(p)
}

// matchDeny checks absolute and relative against built-in, global, and
// workspace deny patterns, in that order, returning the first matching
// pattern. A pattern rooted with a leading "/" is matched against the
// absolute path; otherwise it is matched against the relative path.
func matchDeny(absolute, relative string, workspaceDeny, globalDeny []string) (string, bool) {
	layers := [][]string{defaultDenyGlobs, globalDeny, workspaceDeny}
	absSlash := filepath.ToSlash(absolute)

	for _, layer := range layers {
		for _, pattern := range layer {
			if pattern == "" {
				continue
			}
			if strings.HasPrefix(pattern, "/") {
				if globMatch(pattern, absSlash) {
					return pattern, true
				}
				continue
			}
			if globMatch(pattern, relative) {
				return pattern, true
			}
		}
	}
	return "", false
}
