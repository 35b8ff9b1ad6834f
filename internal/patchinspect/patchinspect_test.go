package patchinspect

import (
	"testing"

	"github.com/nextlevelbuilder/agentd/internal/apperr"
	"github.com/nextlevelbuilder/agentd/internal/pathguard"
)

const samplePatch = `diff --git a/src/main.go b/src/main.go
index 1234567..89abcde 100644
--- a/src/main.go
+++ b/src/main.go
@@ -1,3 +1,4 @@
 package main
+
 func main() {}
`

const newFilePatch = `diff --git a/README.md b/README.md
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/README.md
`

const deletedFilePatch = `diff --git a/old.txt b/old.txt
deleted file mode 100644
index e69de29..0000000
--- a/old.txt
+++ /dev/null
`

func TestExtractPaths_SingleFile(t *testing.T) {
	paths := ExtractPaths(samplePatch)
	if len(paths) != 1 || paths[0] != "src/main.go" {
		t.Fatalf("unexpected paths: %v", paths)
	}
}

func TestExtractPaths_NewFileIgnoresDevNull(t *testing.T) {
	paths := ExtractPaths(newFilePatch)
	if len(paths) != 1 || paths[0] != "README.md" {
		t.Fatalf("unexpected paths: %v", paths)
	}
}

func TestExtractPaths_DeletedFileIgnoresDevNull(t *testing.T) {
	paths := ExtractPaths(deletedFilePatch)
	if len(paths) != 1 || paths[0] != "old.txt" {
		t.Fatalf("unexpected paths: %v", paths)
	}
}

func TestExtractPaths_MultipleFilesDeduped(t *testing.T) {
	combined := samplePatch + newFilePatch
	paths := ExtractPaths(combined)
	if len(paths) != 2 {
		t.Fatalf("expected 2 distinct paths, got %v", paths)
	}
}

func TestInspect_RejectsForbiddenPath(t *testing.T) {
	patch := `diff --git a/.env b/.env
--- a/.env
+++ b/.env
@@ -1 +1 @@
-A=1
+A=2
`
	ws := pathguard.Workspace{Root: "/home/u/proj"}
	_, err := Inspect(patch, ws, nil)
	ae, ok := apperr.As(err)
	if !ok || ae.Code != apperr.CodeForbiddenPath {
		t.Fatalf("expected FORBIDDEN_PATH propagated from the path guard, got %v", err)
	}
}

func TestInspect_AllowsCleanPatch(t *testing.T) {
	ws := pathguard.Workspace{Root: "/home/u/proj"}
	resolved, err := Inspect(samplePatch, ws, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved) != 1 || resolved[0].Relative != "src/main.go" {
		t.Fatalf("unexpected resolution: %+v", resolved)
	}
}

func TestInspect_NoHeadersFails(t *testing.T) {
	_, err := Inspect("not a diff at all", pathguard.Workspace{Root: "/home/u/proj"}, nil)
	ae, ok := apperr.As(err)
	if !ok || ae.Code != apperr.CodePatchFailed {
		t.Fatalf("expected PATCH_FAILED for headerless input, got %v", err)
	}
}

func TestInspect_OneViolationFailsWholePatch(t *testing.T) {
	patch := samplePatch + `diff --git a/.git/config b/.git/config
--- a/.git/config
+++ b/.git/config
@@ -1 +1 @@
-x
+y
`
	_, err := Inspect(patch, pathguard.Workspace{Root: "/home/u/proj"}, nil)
	if err == nil {
		t.Fatal("expected the whole patch to fail when any referenced path is forbidden")
	}
}
