package exec

import (
	"context"
	"testing"
	"time"
)

func TestRun_CapturesStdout(t *testing.T) {
	out, err := Run(context.Background(), Request{
		Command:   "echo",
		Args:      []string{"hello"},
		Cwd:       ".",
		UserAllow: []string{"^echo\\b"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", out.ExitCode)
	}
	if out.Stdout != "hello\n" {
		t.Fatalf("unexpected stdout: %q", out.Stdout)
	}
}

func TestRun_DeniedCommandNeverSpawns(t *testing.T) {
	_, err := Run(context.Background(), Request{
		Command: "sudo",
		Args:    []string{"reboot"},
	})
	if err == nil {
		t.Fatal("expected sudo to be denied before spawning")
	}
}

func TestRun_TimeoutProducesExitCode124(t *testing.T) {
	out, err := Run(context.Background(), Request{
		Command:   "sleep",
		Args:      []string{"5"},
		Cwd:       ".",
		Timeout:   50 * time.Millisecond,
		UserAllow: []string{"^sleep\\b"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.TimedOut {
		t.Fatal("expected TimedOut=true")
	}
	if out.ExitCode != timeoutExitCode {
		t.Fatalf("expected exit code %d, got %d", timeoutExitCode, out.ExitCode)
	}
}

func TestBoundedBuffer_TruncatesOverflow(t *testing.T) {
	b := newBoundedBuffer(8)
	b.Write([]byte("0123456789"))
	got := b.String()
	if len(got) == 0 {
		t.Fatal("expected non-empty buffer")
	}
	if got[:8] != "01234567" {
		t.Fatalf("expected first 8 bytes preserved, got %q", got)
	}
}
