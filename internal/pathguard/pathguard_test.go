package pathguard

import (
	"testing"

	"github.com/nextlevelbuilder/agentd/internal/apperr"
)

func ws(root string, deny ...string) Workspace {
	return Workspace{Root: root, DenyPatterns: deny}
}

func TestResolve_Traversal(t *testing.T) {
	_, err := Resolve("../../../etc/passwd", ws("/home/u/proj"), nil)
	ae, ok := apperr.As(err)
	if !ok || ae.Code != apperr.CodeForbiddenPath {
		t.Fatalf("expected FORBIDDEN_PATH, got %v", err)
	}
}

func TestResolve_DefaultDenyDotenv(t *testing.T) {
	_, err := Resolve(".env", ws("/home/u/proj"), nil)
	ae, ok := apperr.As(err)
	if !ok || ae.Code != apperr.CodeForbiddenPath {
		t.Fatalf("expected FORBIDDEN_PATH for .env, got %v", err)
	}
}

func TestResolve_GitInternalsDeniedHooksAllowed(t *testing.T) {
	if _, err := Resolve(".git/config", ws("/home/u/proj"), nil); err == nil {
		t.Fatal("expected .git/config to be denied")
	}
	r, err := Resolve(".git/hooks/pre-commit", ws("/home/u/proj"), nil)
	if err != nil {
		t.Fatalf(".git/hooks/pre-commit should be allowed, got %v", err)
	}
	if r.Relative != ".git/hooks/pre-commit" {
		t.Fatalf("unexpected relative path: %q", r.Relative)
	}
}

func TestResolve_WithinWorkspace(t *testing.T) {
	r, err := Resolve("src/main.go", ws("/home/u/proj"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Absolute != "/home/u/proj/src/main.go" {
		t.Fatalf("unexpected absolute: %q", r.Absolute)
	}
	if r.Relative != "src/main.go" {
		t.Fatalf("unexpected relative: %q", r.Relative)
	}
}

func TestResolve_AbsoluteInputMustStayUnderRoot(t *testing.T) {
	if _, err := Resolve("/home/u/proj/ok.txt", ws("/home/u/proj"), nil); err != nil {
		t.Fatalf("expected path under root to be allowed, got %v", err)
	}
	if _, err := Resolve("/etc/passwd", ws("/home/u/proj"), nil); err == nil {
		t.Fatal("expected absolute path outside root to be denied")
	}
}

func TestResolve_WorkspaceDenyPattern(t *testing.T) {
	_, err := Resolve("build/output.bin", ws("/home/u/proj", "build/**"), nil)
	ae, ok := apperr.As(err)
	if !ok || ae.Code != apperr.CodeForbiddenPath {
		t.Fatalf("expected workspace deny to trigger FORBIDDEN_PATH, got %v", err)
	}
}

func TestResolve_GlobalDenyPattern(t *testing.T) {
	_, err := Resolve("dist/bundle.js", ws("/home/u/proj"), []string{"dist/**"})
	if err == nil {
		t.Fatal("expected global deny to trigger rejection")
	}
}

func TestGlobMatch_DoubleStarAnyDepth(t *testing.T) {
	cases := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"**/.env", ".env", true},
		{"**/.env", "a/b/.env", true},
		{"**/.env", "a/.envrc", false},
		{"*.pem", "id.pem", true},
		{"*.pem", "a/id.pem", false},
		{"secrets/**", "secrets/a/b.txt", true},
		{"secrets/**", "secrets", false},
	}
	for _, c := range cases {
		if got := globMatch(c.pattern, c.name); got != c.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", c.pattern, c.name, got, c.want)
		}
	}
}
