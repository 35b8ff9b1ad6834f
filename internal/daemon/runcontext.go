package daemon

import (
	"sync"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/agentd/internal/audit"
	"github.com/nextlevelbuilder/agentd/internal/config"
	"github.com/nextlevelbuilder/agentd/internal/toolkit"
)

// RunContext is the per-session mutable state spec section 3 names: an
// opaque runId, the bound workspace, turn/tool-call counters, the
// pending-approval table, and the audit recorder. It is created on the
// session's first tools.call, not when the session authenticates, and
// discarded on disconnect.
type RunContext struct {
	RunID     string
	Workspace *config.Workspace

	mu        sync.Mutex
	turns     int
	toolCalls int

	Approvals *toolkit.ApprovalTable
	Audit     *audit.Recorder
}

func newRunContext(ws *config.Workspace, auditDir string) *RunContext {
	runID := uuid.NewString()
	return &RunContext{
		RunID:     runID,
		Workspace: ws,
		Approvals: toolkit.NewApprovalTable(),
		Audit:     audit.NewRecorder(auditDir, runID),
	}
}

func (rc *RunContext) incrToolCalls() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.toolCalls++
	return rc.toolCalls
}

func (rc *RunContext) incrTurns() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.turns++
	return rc.turns
}
