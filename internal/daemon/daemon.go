// Package daemon wires the tool registry, approval gate, and audit
// recorder together behind the session.Dispatcher seam, and hosts the
// loopback HTTP/WebSocket listener. Grounded on the teacher's
// internal/gateway.Server (client registry, checkOrigin, BuildMux,
// graceful Start/Shutdown), trimmed of every managed-mode HTTP API and
// chat-channel concern that this daemon has no use for.
package daemon

import (
	"context"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/nextlevelbuilder/agentd/internal/apperr"
	"github.com/nextlevelbuilder/agentd/internal/audit"
	"github.com/nextlevelbuilder/agentd/internal/config"
	"github.com/nextlevelbuilder/agentd/internal/session"
	"github.com/nextlevelbuilder/agentd/internal/toolkit"
	"github.com/nextlevelbuilder/agentd/pkg/protocol"
)

const defaultApprovalTimeout = 300 * time.Second

// Daemon implements session.Dispatcher, owning the tool registry and one
// RunContext per connected session.
type Daemon struct {
	cfg       *config.Config
	registry  *toolkit.Registry
	auditDir  string
	hub       *session.Hub

	mu   sync.Mutex
	runs map[string]*RunContext
}

// New builds a Daemon bound to cfg, registering the closed tool
// catalogue. auditDir is the base directory for audit logs: each run's
// JSONL file is written to <auditDir>/audit/<runId>.jsonl (serve passes
// the configuration directory). hub is used to push approval
// events to the originating session; it may be nil in tests that never
// exercise gated tools.
func New(cfg *config.Config, auditDir string, hub *session.Hub) *Daemon {
	return &Daemon{
		cfg:      cfg,
		registry: toolkit.NewCatalogue(cfg.Commands),
		auditDir: auditDir,
		hub:      hub,
		runs:     make(map[string]*RunContext),
	}
}

// Workspace implements session.Dispatcher.
func (d *Daemon) Workspace(name string) (*config.Workspace, bool) {
	return d.cfg.FindWorkspace(name)
}

// ListTools implements session.Dispatcher, returning only the tools a
// workspace's tier can reach.
func (d *Daemon) ListTools(ws *config.Workspace) []session.ToolInfo {
	descs := d.registry.List()
	out := make([]session.ToolInfo, 0, len(descs))
	for _, t := range descs {
		if !ws.Tier.AtLeast(t.Tier) {
			continue
		}
		out = append(out, session.ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			Tier:        t.Tier,
			Parameters:  t.Parameters,
		})
	}
	return out
}

func (d *Daemon) runContext(sessionID string, ws *config.Workspace) *RunContext {
	d.mu.Lock()
	defer d.mu.Unlock()
	rc, ok := d.runs[sessionID]
	if !ok {
		rc = newRunContext(ws, d.auditDir)
		rc.Approvals.SetOnTimeout(func(pa *toolkit.PendingApproval) {
			d.onApprovalTimeout(rc, sessionID, pa)
		})
		d.runs[sessionID] = rc
		slog.Info("run started", "runId", rc.RunID, "workspace", ws.Name)
	}
	return rc
}

// onApprovalTimeout fires from the ApprovalTable's reaper once a pending
// approval's deadline passes unresolved: it audits the timeout and
// notifies the session so a listening client learns its gated call will
// never unblock rather than waiting forever on a record that already
// disappeared from approvals.list.
func (d *Daemon) onApprovalTimeout(rc *RunContext, sessionID string, pa *toolkit.PendingApproval) {
	rc.Audit.Record(audit.Entry{
		Type:      audit.EntryApprovalTimeout,
		SessionID: sessionID,
		Result:    map[string]interface{}{"id": pa.ID, "kind": pa.Kind, "tool": pa.Details["tool"]},
	})
	if d.hub != nil {
		d.hub.SendTo(sessionID, protocol.EventApproval, map[string]interface{}{
			"phase": protocol.ApprovalPhaseTimedOut,
			"id":    pa.ID,
			"kind":  pa.Kind,
		})
	}
}

// EndSession implements session.Dispatcher.
func (d *Daemon) EndSession(sessionID string) {
	d.mu.Lock()
	rc, ok := d.runs[sessionID]
	delete(d.runs, sessionID)
	d.mu.Unlock()
	if ok {
		slog.Info("run ended", "runId", rc.RunID)
	}
}

// ListApprovals implements session.Dispatcher.
func (d *Daemon) ListApprovals(sessionID string) []*toolkit.PendingApproval {
	d.mu.Lock()
	rc, ok := d.runs[sessionID]
	d.mu.Unlock()
	if !ok {
		return nil
	}
	return rc.Approvals.List()
}

// DecideApproval implements session.Dispatcher.
func (d *Daemon) DecideApproval(sessionID, id string, decision toolkit.ApprovalDecision) bool {
	d.mu.Lock()
	rc, ok := d.runs[sessionID]
	d.mu.Unlock()
	if !ok {
		return false
	}
	resolved := rc.Approvals.Resolve(id, decision)
	if resolved {
		rc.Audit.Record(audit.Entry{
			Type:      audit.EntryApprovalResolved,
			SessionID: sessionID,
			Result:    map[string]interface{}{"id": id, "decision": decision},
		})
		if d.hub != nil {
			d.hub.SendTo(sessionID, protocol.EventApproval, map[string]interface{}{
				"phase":    protocol.ApprovalPhaseResolved,
				"id":       id,
				"decision": decision,
			})
		}
	}
	return resolved
}

// CallTool implements session.Dispatcher: tier check, approval gate,
// dispatch, audit.
func (d *Daemon) CallTool(ctx context.Context, sessionID, toolCallID string, ws *config.Workspace, name string, args map[string]interface{}) *toolkit.Result {
	rc := d.runContext(sessionID, ws)
	rc.incrToolCalls()

	// Matches spec.md's dispatch algorithm verbatim: INTERNAL_ERROR if the
	// tool is absent from the catalogue, FORBIDDEN_PATH if the session's
	// tier is lower than the tool requires.
	desc, ok := d.registry.Get(name)
	if !ok {
		result := toolkit.ErrorResult(string(apperr.CodeInternalError) + ": unknown tool " + name)
		d.record(rc, sessionID, toolCallID, name, args, result)
		return result
	}

	if !ws.Tier.AtLeast(desc.Tier) {
		result := toolkit.ErrorResult(string(apperr.CodeForbiddenPath) + ": workspace tier " +
			string(ws.Tier) + " does not meet required tier " + string(desc.Tier) + " for " + name)
		d.record(rc, sessionID, toolCallID, name, args, result)
		return result
	}

	if desc.RequiresApproval {
		if result := d.gate(rc, sessionID, desc, name, args); result != nil {
			d.record(rc, sessionID, toolCallID, name, args, result)
			return result
		}
	}

	result := d.registry.Dispatch(ctx, name, ws, args)
	d.record(rc, sessionID, toolCallID, name, args, result)
	return result
}

// gate enforces the fail-closed approval policy (spec section 9's Open
// Question, resolved in favor of fail-closed per DESIGN.md): when the
// daemon's approvals configuration requires approval for this tool's kind
// and no auto-approve pattern matches, a pending approval is created and
// APPROVAL_REQUIRED is returned immediately as the response. A decision
// submitted through approvals.decide resolves and audits that pending
// record only; gate does not consult earlier decisions, so a retried call
// is gated again with a new pending approval. Returns nil when the call
// may proceed.
func (d *Daemon) gate(rc *RunContext, sessionID string, desc toolkit.ToolDescriptor, name string, args map[string]interface{}) *toolkit.Result {
	required := false
	switch desc.ApprovalKind {
	case toolkit.ApprovalExec:
		required = d.cfg.Approvals.RequireExecApproval
	case toolkit.ApprovalWrite, toolkit.ApprovalPatch:
		required = d.cfg.Approvals.RequireWriteApproval
	}
	if !required {
		return nil
	}

	for _, pattern := range d.cfg.Approvals.AutoApprovePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue // invalid user pattern is skipped, never fatal
		}
		if re.MatchString(name) {
			return nil
		}
	}

	timeout := time.Duration(d.cfg.Approvals.ApprovalTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultApprovalTimeout
	}
	pa, _ := rc.Approvals.Create(desc.ApprovalKind, "approval required for "+name, map[string]interface{}{
		"tool": name,
		"args": args,
	}, timeout)

	rc.Audit.Record(audit.Entry{
		Type:      audit.EntryApprovalRequest,
		SessionID: sessionID,
		Tool:      name,
		Args:      args,
		Result:    map[string]interface{}{"id": pa.ID, "kind": pa.Kind, "timeoutAt": pa.TimeoutAt},
	})

	if d.hub != nil {
		d.hub.SendTo(sessionID, protocol.EventApproval, map[string]interface{}{
			"phase":     protocol.ApprovalPhaseRequested,
			"id":        pa.ID,
			"kind":      pa.Kind,
			"tool":      name,
			"timeoutAt": pa.TimeoutAt,
		})
	}

	return toolkit.ErrorResultWithDetails(string(apperr.CodeApprovalReq)+": "+pa.Description, pa)
}

func (d *Daemon) record(rc *RunContext, sessionID, toolCallID, name string, args map[string]interface{}, result *toolkit.Result) {
	entry := audit.Entry{
		Type:       audit.EntryToolCall,
		SessionID:  sessionID,
		ToolCallID: toolCallID,
		Tool:       name,
		Args:       args,
		Result:     result.Data,
		IsError:    result.IsError,
	}
	if result.IsError {
		entry.Result = result.Error
	}
	if err := rc.Audit.Record(entry); err != nil {
		slog.Warn("audit write failed", "runId", rc.RunID, "error", err)
	}
}
