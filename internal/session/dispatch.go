// Package session implements the bidirectional session protocol (spec
// component C8): frame decoding, constant-time token auth, per-session
// event fan-out with a monotonic seq counter, and the 30s tick keepalive.
// Grounded on the teacher's internal/gateway/server.go client registry
// (registerClient/unregisterClient/BroadcastEvent) and its
// snapshot-then-send-without-lock pattern; the Client/frame read-write
// loop is new code since the teacher's gateway client lives outside the
// retrieved file set, written in the same idiom as server.go.
package session

import (
	"context"

	"github.com/nextlevelbuilder/agentd/internal/config"
	"github.com/nextlevelbuilder/agentd/internal/toolkit"
)

// ToolInfo is the shape of one entry in a tools.list response.
type ToolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Tier        config.Tier            `json:"tier"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Dispatcher is implemented by the daemon layer: it owns the tool
// registry, the approval gate, and the audit recorder. The session layer
// only knows how to frame requests and fan out events; it never makes an
// authorization decision itself.
type Dispatcher interface {
	// Workspace resolves the workspace a newly authenticated session
	// should be bound to.
	Workspace(name string) (*config.Workspace, bool)

	// ListTools returns the tool descriptors visible at ws's tier.
	ListTools(ws *config.Workspace) []ToolInfo

	// CallTool runs the named tool, including any approval gate and
	// audit recording. sessionID and toolCallID identify the call for
	// audit correlation.
	CallTool(ctx context.Context, sessionID, toolCallID string, ws *config.Workspace, name string, args map[string]interface{}) *toolkit.Result

	// ListApprovals returns the session's still-pending approvals.
	ListApprovals(sessionID string) []*toolkit.PendingApproval

	// DecideApproval resolves a pending approval for the session. It
	// reports false if id does not name a still-pending approval.
	DecideApproval(sessionID, id string, decision toolkit.ApprovalDecision) bool

	// EndSession releases the RunContext bound to sessionID. Called when
	// the underlying connection closes.
	EndSession(sessionID string)
}
