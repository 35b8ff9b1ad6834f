// Package protocol defines the wire-level constants shared by the daemon
// and any client: the frame shapes, method/event names, error codes, and
// protocol version used over the session WebSocket.
package protocol

// ProtocolVersion is the integer protocol version negotiated at connect
// time. A client detecting a mismatch must abort.
const ProtocolVersion = 1

// Frame type discriminators.
const (
	FrameRequest  = "req"
	FrameResponse = "res"
	FrameEvent    = "event"
)

// RPC method names.
const (
	MethodConnect        = "connect"
	MethodToolsList      = "tools.list"
	MethodToolsCall      = "tools.call"
	MethodPing           = "ping"
	MethodApprovalsList  = "approvals.list"
	MethodApprovalsDecide = "approvals.decide"
)

// methodsRequiringAuth lists methods that must only be served on an
// authenticated session. connect is deliberately absent.
var methodsRequiringAuth = map[string]bool{
	MethodToolsList:       true,
	MethodToolsCall:       true,
	MethodPing:            true,
	MethodApprovalsList:   true,
	MethodApprovalsDecide: true,
}

// RequiresAuth reports whether a method must only be served on an
// authenticated session.
func RequiresAuth(method string) bool {
	return methodsRequiringAuth[method]
}

// Event names pushed from server to client.
const (
	EventTool     = "tool"
	EventTick     = "tick"
	EventApproval = "approval"
)

// Approval event phases, carried in the event payload's "phase" field.
const (
	ApprovalPhaseRequested = "requested"
	ApprovalPhaseResolved  = "resolved"
	ApprovalPhaseTimedOut  = "timedOut"
)

// Tool event phases, carried in the event payload's "phase" field.
const (
	ToolPhaseStart  = "start"
	ToolPhaseResult = "result"
)
