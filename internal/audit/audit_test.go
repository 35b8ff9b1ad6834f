package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRecord_WritesOneLinePerEntry(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, "run-1")

	if err := r.Record(Entry{Tool: "fs.list", SessionID: "sess-1"}); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := r.Record(Entry{Tool: "fs.read", SessionID: "sess-1"}); err != nil {
		t.Fatalf("second record: %v", err)
	}

	path := filepath.Join(dir, "audit", "run-1.jsonl")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var e1, e2 Entry
	if err := json.Unmarshal([]byte(lines[0]), &e1); err != nil {
		t.Fatalf("unmarshal line 1: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &e2); err != nil {
		t.Fatalf("unmarshal line 2: %v", err)
	}
	if e1.Tool != "fs.list" || e2.Tool != "fs.read" {
		t.Fatalf("unexpected tool fields: %q, %q", e1.Tool, e2.Tool)
	}
	if e1.RunID != "run-1" || e2.RunID != "run-1" {
		t.Fatalf("expected runId to be stamped on both entries")
	}
	if e1.Timestamp.IsZero() || e2.Timestamp.IsZero() {
		t.Fatal("expected timestamps to be assigned at insertion")
	}
}

func TestRecord_AccumulatesAcrossManyAppends(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, "run-2")

	const n = 50
	for i := 0; i < n; i++ {
		if err := r.Record(Entry{Tool: "cmd.run"}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	path := filepath.Join(dir, "audit", "run-2.jsonl")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	count := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		count++
	}
	if count != n {
		t.Fatalf("expected %d lines, got %d", n, count)
	}

	if got := len(r.Entries()); got != n {
		t.Fatalf("expected in-memory buffer to hold %d entries, got %d", n, got)
	}
}

func TestRecord_DefaultsTypeToToolCall(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, "run-4")
	if err := r.Record(Entry{Tool: "fs.list"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	entries := r.Entries()
	if entries[0].Type != EntryToolCall {
		t.Fatalf("expected default type %q, got %q", EntryToolCall, entries[0].Type)
	}
}

func TestRecord_PreservesExplicitApprovalType(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, "run-5")
	if err := r.Record(Entry{Type: EntryApprovalRequest, Tool: "cmd.run"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	entries := r.Entries()
	if entries[0].Type != EntryApprovalRequest {
		t.Fatalf("expected type %q, got %q", EntryApprovalRequest, entries[0].Type)
	}
}

func TestRecorder_NeverReturnsAuthorizationError(t *testing.T) {
	// The recorder is a pure observer: Record's only failure mode is an
	// I/O error, never a rejection of the entry's content.
	dir := t.TempDir()
	r := NewRecorder(dir, "run-3")
	if err := r.Record(Entry{Tool: "cmd.run", IsError: true, Result: "COMMAND_DENIED: sudo is always denied"}); err != nil {
		t.Fatalf("recording an error-shaped entry must not itself fail: %v", err)
	}
}
