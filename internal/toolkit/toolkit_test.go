package toolkit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nextlevelbuilder/agentd/internal/config"
)

func tempWorkspace(t *testing.T, tier config.Tier) *config.Workspace {
	t.Helper()
	dir := t.TempDir()
	return &config.Workspace{Name: "test", Path: dir, Tier: tier, Root: dir}
}

func TestRegistry_DispatchUnknownTool(t *testing.T) {
	r := NewCatalogue(config.CommandsConfig{})
	ws := tempWorkspace(t, config.TierExec)
	res := r.Dispatch(context.Background(), "fs.nonexistent", ws, nil)
	if !res.IsError {
		t.Fatal("expected error for unknown tool")
	}
}

func TestRegistry_TierEnforcement(t *testing.T) {
	r := NewCatalogue(config.CommandsConfig{})
	ws := tempWorkspace(t, config.TierRead)
	res := r.Dispatch(context.Background(), "cmd.run", ws, map[string]interface{}{"command": "echo hi"})
	if !res.IsError {
		t.Fatal("expected read-tier workspace to be denied cmd.run (requires exec)")
	}
}

func TestRegistry_TierMonotonicity(t *testing.T) {
	tiers := []config.Tier{config.TierRead, config.TierWrite, config.TierExec}
	for i, t1 := range tiers {
		for j, t2 := range tiers {
			want := i >= j
			if got := t1.AtLeast(t2); got != want {
				t.Errorf("%s.AtLeast(%s) = %v, want %v", t1, t2, got, want)
			}
		}
	}
}

func TestListTool_NonRecursive(t *testing.T) {
	ws := tempWorkspace(t, config.TierRead)
	os.WriteFile(filepath.Join(ws.Root, "a.txt"), []byte("hello"), 0o644)
	os.Mkdir(filepath.Join(ws.Root, "sub"), 0o755)

	res := ListTool(context.Background(), ws, map[string]interface{}{"path": "."})
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	list := res.Data.(*FSListResult)
	if len(list.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(list.Entries), list.Entries)
	}
}

func TestListTool_SkipsDeniedEntriesSilently(t *testing.T) {
	ws := tempWorkspace(t, config.TierRead)
	os.WriteFile(filepath.Join(ws.Root, ".env"), []byte("SECRET=1"), 0o644)
	os.WriteFile(filepath.Join(ws.Root, "ok.txt"), []byte("fine"), 0o644)

	res := ListTool(context.Background(), ws, map[string]interface{}{"path": "."})
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	list := res.Data.(*FSListResult)
	if len(list.Entries) != 1 || list.Entries[0].RelativePath != "ok.txt" {
		t.Fatalf("expected only ok.txt visible, got %+v", list.Entries)
	}
	if !list.TruncatedByPolicy {
		t.Fatal("expected truncatedByPolicy=true when an entry was policy-denied")
	}
}

func TestReadTool_UTF8(t *testing.T) {
	ws := tempWorkspace(t, config.TierRead)
	os.WriteFile(filepath.Join(ws.Root, "hello.txt"), []byte("hello world"), 0o644)

	res := ReadTool(context.Background(), ws, map[string]interface{}{"path": "hello.txt"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	rd := res.Data.(*FSReadResult)
	if rd.Encoding != "utf-8" || rd.Content != "hello world" {
		t.Fatalf("unexpected result: %+v", rd)
	}
}

func TestReadTool_BinaryFallsBackToBase64(t *testing.T) {
	ws := tempWorkspace(t, config.TierRead)
	os.WriteFile(filepath.Join(ws.Root, "bin.dat"), []byte{0xff, 0xfe, 0x00, 0x01, 0x80}, 0o644)

	res := ReadTool(context.Background(), ws, map[string]interface{}{"path": "bin.dat"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	rd := res.Data.(*FSReadResult)
	if rd.Encoding != "base64" {
		t.Fatalf("expected base64 encoding for binary content, got %q", rd.Encoding)
	}
}

func TestReadTool_TruncatedReporting(t *testing.T) {
	ws := tempWorkspace(t, config.TierRead)
	os.WriteFile(filepath.Join(ws.Root, "big.txt"), []byte("0123456789"), 0o644)

	res := ReadTool(context.Background(), ws, map[string]interface{}{"path": "big.txt", "maxBytes": float64(5)})
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	rd := res.Data.(*FSReadResult)
	if !rd.Truncated || rd.Content != "01234" || rd.Size != 10 {
		t.Fatalf("unexpected result: %+v", rd)
	}
}

func TestApplyPatchTool_BlockedOnReadTier(t *testing.T) {
	ws := tempWorkspace(t, config.TierRead)
	res := ApplyPatchTool(context.Background(), ws, map[string]interface{}{"patchUnified": "diff --git a/x b/x\n"})
	if !res.IsError {
		t.Fatal("expected read-tier workspace to be denied fs.apply_patch")
	}
}

func TestVCSTools_RequireAllowVcs(t *testing.T) {
	ws := tempWorkspace(t, config.TierWrite)
	ws.AllowVcs = false
	res := StatusTool(context.Background(), ws, nil)
	if !res.IsError {
		t.Fatal("expected vcs.status to fail when allowVcs is false")
	}
}
