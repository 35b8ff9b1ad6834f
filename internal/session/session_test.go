package session

import "testing"

func TestConstantTimeEqual_CorrectToken(t *testing.T) {
	if !constantTimeEqual("abc123", "abc123") {
		t.Fatal("expected equal tokens to compare equal")
	}
}

func TestConstantTimeEqual_WrongSameLength(t *testing.T) {
	if constantTimeEqual("abc124", "abc123") {
		t.Fatal("expected same-length wrong token to fail")
	}
}

func TestConstantTimeEqual_UnequalLengthShortCircuits(t *testing.T) {
	if constantTimeEqual("abc", "abc123") {
		t.Fatal("expected unequal-length comparison to fail")
	}
}

func TestSeq_StrictlyIncreasing(t *testing.T) {
	c := &Client{}
	var prev uint64
	for i := 0; i < 100; i++ {
		next := c.nextSeq()
		if next <= prev {
			t.Fatalf("seq did not strictly increase: prev=%d next=%d", prev, next)
		}
		prev = next
	}
}

func TestSplitErrorCode_RecognizesCodePrefix(t *testing.T) {
	code, msg := splitErrorCode("FORBIDDEN_PATH: path escapes workspace root")
	if code != "FORBIDDEN_PATH" || msg != "path escapes workspace root" {
		t.Fatalf("unexpected split: code=%q msg=%q", code, msg)
	}
}

func TestSplitErrorCode_FallsBackWithoutPrefix(t *testing.T) {
	code, msg := splitErrorCode("something went wrong")
	if code != "INTERNAL_ERROR" || msg != "something went wrong" {
		t.Fatalf("unexpected fallback: code=%q msg=%q", code, msg)
	}
}
