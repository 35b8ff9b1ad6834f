package toolkit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/agentd/internal/apperr"
)

// ApprovalKind classifies a gated operation (spec section 3's Pending
// Approval kind enum).
type ApprovalKind string

const (
	ApprovalWrite ApprovalKind = "write"
	ApprovalExec  ApprovalKind = "exec"
	ApprovalPatch ApprovalKind = "patch"
)

// ApprovalDecision is the human operator's resolution of a pending
// approval.
type ApprovalDecision string

const (
	DecisionApproved ApprovalDecision = "approved"
	DecisionDenied   ApprovalDecision = "denied"
)

// PendingApproval is a gated operation awaiting a decision. Grounded on
// the teacher's ExecApprovalManager (internal/tools/shell.go) and the
// approval-decision record shape from the Buckley/si approval store
// examples, narrowed to the RunContext-scoped table spec section 3
// describes: no persistence, resolved or timed out within one run.
type PendingApproval struct {
	ID          string
	Kind        ApprovalKind
	Description string
	Details     map[string]interface{}
	CreatedAt   time.Time
	TimeoutAt   time.Time
}

// ApprovalTable is the RunContext's mutable mapping of pending approval
// ids to their wait channels. A short-duration lock guards membership;
// the lock is never held across the blocking wait in Await, per spec
// section 9's design note. Every pending approval is additionally backed
// by a time.AfterFunc reaper (spec.md line 178: "when [the timeout is]
// crossed, the pending record is removed and the gated operation fails
// with APPROVAL_TIMEOUT") so a record is removed even when nothing ever
// calls Await on it — the non-blocking gate flow in internal/daemon
// never does.
type ApprovalTable struct {
	mu        sync.Mutex
	pending   map[string]*PendingApproval
	waiters   map[string]chan ApprovalDecision
	timers    map[string]*time.Timer
	onTimeout func(*PendingApproval)
}

// NewApprovalTable builds an empty table.
func NewApprovalTable() *ApprovalTable {
	return &ApprovalTable{
		pending: make(map[string]*PendingApproval),
		waiters: make(map[string]chan ApprovalDecision),
		timers:  make(map[string]*time.Timer),
	}
}

// SetOnTimeout registers a callback invoked (outside the table's lock)
// whenever a pending approval's reaper fires. The daemon uses this to
// push a timedOut approval event and write an audit entry.
func (t *ApprovalTable) SetOnTimeout(fn func(*PendingApproval)) {
	t.mu.Lock()
	t.onTimeout = fn
	t.mu.Unlock()
}

// Create registers a new pending approval with the given timeout and
// returns it along with the channel its eventual decision arrives on. A
// reaper timer is armed immediately so the record is removed at its
// deadline even if no caller ever awaits the decision.
func (t *ApprovalTable) Create(kind ApprovalKind, description string, details map[string]interface{}, timeout time.Duration) (*PendingApproval, <-chan ApprovalDecision) {
	now := time.Now()
	pa := &PendingApproval{
		ID:          uuid.NewString(),
		Kind:        kind,
		Description: description,
		Details:     details,
		CreatedAt:   now,
		TimeoutAt:   now.Add(timeout),
	}
	ch := make(chan ApprovalDecision, 1)

	t.mu.Lock()
	t.pending[pa.ID] = pa
	t.waiters[pa.ID] = ch
	t.timers[pa.ID] = time.AfterFunc(timeout, func() { t.expire(pa) })
	t.mu.Unlock()

	return pa, ch
}

// Resolve delivers a decision to a still-pending approval. It reports
// false if id is unknown (already resolved or timed out).
func (t *ApprovalTable) Resolve(id string, decision ApprovalDecision) bool {
	t.mu.Lock()
	ch, ok := t.waiters[id]
	if ok {
		delete(t.pending, id)
		delete(t.waiters, id)
		if timer, ok := t.timers[id]; ok {
			timer.Stop()
			delete(t.timers, id)
		}
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	ch <- decision
	close(ch)
	return true
}

// List returns a snapshot of every still-pending approval.
func (t *ApprovalTable) List() []*PendingApproval {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*PendingApproval, 0, len(t.pending))
	for _, pa := range t.pending {
		out = append(out, pa)
	}
	return out
}

func (t *ApprovalTable) remove(id string) {
	t.mu.Lock()
	delete(t.pending, id)
	delete(t.waiters, id)
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
	t.mu.Unlock()
}

// expire is the reaper fired by the per-approval time.AfterFunc armed in
// Create. It removes the record only if it is still pending (a decision
// may have already raced it) and, if so, closes the waiter channel
// without a value and reports the expiry to onTimeout.
func (t *ApprovalTable) expire(pa *PendingApproval) {
	t.mu.Lock()
	ch, ok := t.waiters[pa.ID]
	if ok {
		delete(t.pending, pa.ID)
		delete(t.waiters, pa.ID)
		delete(t.timers, pa.ID)
	}
	onTimeout := t.onTimeout
	t.mu.Unlock()

	if !ok {
		return
	}
	close(ch)
	if onTimeout != nil {
		onTimeout(pa)
	}
}

// Await blocks until a decision arrives, the approval's own timeout
// elapses, or ctx is cancelled — whichever happens first. On timeout the
// pending record is removed atomically and APPROVAL_TIMEOUT is returned;
// on ctx cancellation (client disconnect) the record is likewise removed.
func (t *ApprovalTable) Await(ctx context.Context, pa *PendingApproval, ch <-chan ApprovalDecision) (ApprovalDecision, error) {
	timer := time.NewTimer(time.Until(pa.TimeoutAt))
	defer timer.Stop()

	select {
	case decision, ok := <-ch:
		if !ok {
			return "", apperr.New(apperr.CodeApprovalTimeout, "approval channel closed without a decision")
		}
		return decision, nil
	case <-timer.C:
		t.remove(pa.ID)
		return "", apperr.New(apperr.CodeApprovalTimeout, "approval timed out")
	case <-ctx.Done():
		t.remove(pa.ID)
		return "", ctx.Err()
	}
}
