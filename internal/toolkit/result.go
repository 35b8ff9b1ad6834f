// Package toolkit implements the tool registry and dispatcher (spec
// component C4) plus the filesystem tools (C5) and VCS tools (C6) built
// on top of it. Grounded on the teacher's internal/tools package, with
// its LLM-tracing fields (ForLLM/ForUser/Usage/Provider/Model) trimmed
// since this daemon's tool results travel over the wire protocol, not
// into a model context window.
package toolkit

import "encoding/json"

// Result is the unified return value from a tool call.
type Result struct {
	Data    interface{} `json:"data,omitempty"`
	IsError bool        `json:"isError"`
	Error   string      `json:"error,omitempty"`
	// Details carries structured context for an error result — e.g. the
	// pending-approval record accompanying an APPROVAL_REQUIRED error.
	Details interface{} `json:"details,omitempty"`
}

// Ok wraps a successful tool payload.
func Ok(data interface{}) *Result {
	return &Result{Data: data}
}

// ErrorResult wraps a failed tool call with a plain message.
func ErrorResult(message string) *Result {
	return &Result{IsError: true, Error: message}
}

// ErrorResultWithDetails wraps a failed tool call with a plain message
// plus structured details carried alongside it.
func ErrorResultWithDetails(message string, details interface{}) *Result {
	return &Result{IsError: true, Error: message, Details: details}
}

// MarshalJSON lets a *Result be embedded directly as a response frame's
// "result" field.
func (r *Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal((*alias)(r))
}
