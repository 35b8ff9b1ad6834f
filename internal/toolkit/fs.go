package toolkit

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nextlevelbuilder/agentd/internal/apperr"
	"github.com/nextlevelbuilder/agentd/internal/config"
	"github.com/nextlevelbuilder/agentd/internal/pathguard"
)

const (
	listEntryCap    = 1000
	defaultMaxDepth = 10
	defaultMaxBytes = 200_000
)

// wsGuard adapts a config.Workspace to the pathguard.Workspace shape.
func wsGuard(ws *config.Workspace) pathguard.Workspace {
	return pathguard.Workspace{Root: ws.Root, DenyPatterns: ws.DenyPatterns}
}

// FSEntry describes a single directory entry returned by fs.list.
type FSEntry struct {
	RelativePath string `json:"relativePath"`
	Kind         string `json:"kind"`
	Size         int64  `json:"size,omitempty"`
	ModifiedTs   int64  `json:"modifiedTs"`
}

// FSListResult is the fs.list payload.
type FSListResult struct {
	Entries           []FSEntry `json:"entries"`
	Truncated         bool      `json:"truncated"`
	TruncatedByPolicy bool      `json:"truncatedByPolicy"`
}

// ListTool implements fs.list (spec component C5), grounded on the
// teacher's ReadFileTool/resolvePath shape, generalised to directory
// enumeration with the spec's entry and depth caps.
func ListTool(ctx context.Context, ws *config.Workspace, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	if path == "" {
		path = "."
	}
	recursive, _ := args["recursive"].(bool)
	maxDepth := defaultMaxDepth
	if v, ok := args["maxDepth"].(float64); ok && v > 0 {
		maxDepth = int(v)
	}

	resolved, err := pathguard.Resolve(path, wsGuard(ws), nil)
	if err != nil {
		return errResultFromApperr(err)
	}

	info, err := os.Stat(resolved.Absolute)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrorResult(string(apperr.CodePathNotFound) + ": " + path)
		}
		return ErrorResult(string(apperr.CodeInternalError) + ": " + err.Error())
	}
	if !info.IsDir() {
		return ErrorResult(string(apperr.CodeInvalidPath) + ": not a directory: " + path)
	}

	out := &FSListResult{}
	if recursive {
		walkRecursive(resolved.Absolute, ws, 0, maxDepth, out)
	} else {
		walkOnce(resolved.Absolute, ws, out)
	}
	sort.Slice(out.Entries, func(i, j int) bool { return out.Entries[i].RelativePath < out.Entries[j].RelativePath })
	return Ok(out)
}

func walkOnce(absDir string, ws *config.Workspace, out *FSListResult) {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return
	}
	for _, de := range entries {
		if len(out.Entries) >= listEntryCap {
			out.Truncated = true
			return
		}
		full := filepath.Join(absDir, de.Name())
		rel, err := filepath.Rel(ws.Root, full)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if _, err := pathguard.Resolve(rel, wsGuard(ws), nil); err != nil {
			out.TruncatedByPolicy = true
			continue
		}
		appendEntry(out, de, rel)
	}
}

func walkRecursive(absDir string, ws *config.Workspace, depth, maxDepth int, out *FSListResult) {
	if depth > maxDepth || len(out.Entries) >= listEntryCap {
		if len(out.Entries) >= listEntryCap {
			out.Truncated = true
		}
		return
	}
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return
	}
	for _, de := range entries {
		if len(out.Entries) >= listEntryCap {
			out.Truncated = true
			return
		}
		full := filepath.Join(absDir, de.Name())
		rel, err := filepath.Rel(ws.Root, full)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if _, err := pathguard.Resolve(rel, wsGuard(ws), nil); err != nil {
			out.TruncatedByPolicy = true
			continue
		}
		appendEntry(out, de, rel)
		if de.IsDir() {
			walkRecursive(full, ws, depth+1, maxDepth, out)
		}
	}
}

func appendEntry(out *FSListResult, de os.DirEntry, rel string) {
	info, err := de.Info()
	if err != nil {
		return
	}
	kind := "file"
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		kind = "symlink"
	case de.IsDir():
		kind = "dir"
	}
	entry := FSEntry{
		RelativePath: rel,
		Kind:         kind,
		ModifiedTs:   info.ModTime().UnixMilli(),
	}
	if kind == "file" {
		entry.Size = info.Size()
	}
	out.Entries = append(out.Entries, entry)
}

// FSReadResult is the fs.read payload.
type FSReadResult struct {
	Content   string `json:"content"`
	Encoding  string `json:"encoding"`
	Size      int64  `json:"size"`
	Truncated bool   `json:"truncated"`
}

// ReadTool implements fs.read (spec component C5).
func ReadTool(ctx context.Context, ws *config.Workspace, args map[string]interface{}) *Result {
	path, _ := args["path"].(string)
	if path == "" {
		return ErrorResult(string(apperr.CodeInvalidPath) + ": path is required")
	}
	maxBytes := int64(defaultMaxBytes)
	if v, ok := args["maxBytes"].(float64); ok && v > 0 {
		maxBytes = int64(v)
	}
	offset := int64(0)
	if v, ok := args["offset"].(float64); ok && v >= 0 {
		offset = int64(v)
	}

	resolved, err := pathguard.Resolve(path, wsGuard(ws), nil)
	if err != nil {
		return errResultFromApperr(err)
	}

	info, err := os.Stat(resolved.Absolute)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrorResult(string(apperr.CodePathNotFound) + ": " + path)
		}
		return ErrorResult(string(apperr.CodeInternalError) + ": " + err.Error())
	}
	if !info.Mode().IsRegular() {
		return ErrorResult(string(apperr.CodeInvalidPath) + ": not a regular file: " + path)
	}

	f, err := os.Open(resolved.Absolute)
	if err != nil {
		return ErrorResult(string(apperr.CodeInternalError) + ": " + err.Error())
	}
	defer f.Close()

	size := info.Size()
	toRead := size - offset
	if toRead < 0 {
		toRead = 0
	}
	if toRead > maxBytes {
		toRead = maxBytes
	}
	buf := make([]byte, toRead)
	n, err := f.ReadAt(buf, offset)
	if err != nil && n == 0 && toRead > 0 {
		return ErrorResult(string(apperr.CodeInternalError) + ": " + err.Error())
	}
	buf = buf[:n]

	out := &FSReadResult{
		Size:      size,
		Truncated: offset+int64(n) < size,
	}
	if utf8.Valid(buf) && !strings.ContainsRune(string(buf), utf8.RuneError) {
		out.Content = string(buf)
		out.Encoding = "utf-8"
	} else {
		out.Content = base64.StdEncoding.EncodeToString(buf)
		out.Encoding = "base64"
	}
	return Ok(out)
}

func errResultFromApperr(err error) *Result {
	if ae, ok := apperr.As(err); ok {
		return ErrorResult(string(ae.Code) + ": " + ae.Message)
	}
	return ErrorResult(err.Error())
}
