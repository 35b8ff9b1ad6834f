package cmdpolicy

import "testing"

func TestValidate_DefaultAllow(t *testing.T) {
	d := Validate("git", []string{"status"}, nil, nil)
	if !d.Allowed {
		t.Fatalf("expected git status to be allowed, got %+v", d)
	}
}

func TestValidate_ShellEscapeAlwaysDenied(t *testing.T) {
	d := Validate("ls", []string{";", "sh"}, []string{".*"}, nil)
	if d.Allowed {
		t.Fatal("expected shell-escape command to be denied regardless of allow list")
	}
}

func TestValidate_AllowDenyPrecedence(t *testing.T) {
	d := Validate("mytool", nil, []string{"^mytool"}, []string{"^mytool"})
	if d.Allowed {
		t.Fatal("expected deny to win over allow when both match")
	}
}

func TestValidate_UserAllowOverridesOtherwiseDeny(t *testing.T) {
	d := Validate("customrunner", []string{"run"}, []string{"^customrunner run$"}, nil)
	if !d.Allowed {
		t.Fatalf("expected user allow to permit custom command, got %+v", d)
	}
}

func TestValidate_NotInAllowlist(t *testing.T) {
	d := Validate("some-random-binary", nil, nil, nil)
	if d.Allowed {
		t.Fatal("expected unknown command to be denied")
	}
	if d.Reason != "not in allowlist" {
		t.Fatalf("unexpected reason: %q", d.Reason)
	}
}

func TestValidate_InvalidUserRegexSkipped(t *testing.T) {
	// "(" is an invalid regex; it must be skipped, not block evaluation
	// of other rules or other layers.
	d := Validate("git", []string{"status"}, []string{"("}, []string{"("})
	if !d.Allowed {
		t.Fatalf("expected invalid regexes to be skipped, falling through to default allow, got %+v", d)
	}
}

func TestValidate_AlwaysDenyBeatsUserAllow(t *testing.T) {
	d := Validate("sudo", []string{"reboot"}, []string{".*"}, nil)
	if d.Allowed {
		t.Fatal("expected sudo to be denied even with a catch-all user allow")
	}
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"git status", []string{"git", "status"}},
		{`echo "hello world"`, []string{"echo", "hello world"}},
		{`echo 'it''s'`, []string{"echo", "it", "s"}},
		{`echo \$HOME`, []string{"echo", "$HOME"}},
		{"  a   b  ", []string{"a", "b"}},
	}
	for _, c := range cases {
		got := Tokenize(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("Tokenize(%q) = %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("Tokenize(%q)[%d] = %q, want %q", c.in, i, got[i], c.want[i])
			}
		}
	}
}
