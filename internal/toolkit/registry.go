package toolkit

import (
	"context"
	"sort"
	"sync"

	"github.com/nextlevelbuilder/agentd/internal/apperr"
	"github.com/nextlevelbuilder/agentd/internal/config"
)

// Handler executes a single tool call against a resolved workspace.
type Handler func(ctx context.Context, ws *config.Workspace, args map[string]interface{}) *Result

// ToolDescriptor describes one entry in the closed tool catalogue.
type ToolDescriptor struct {
	Name        string
	Description string
	Tier        config.Tier
	// RequiresApproval marks a tool whose side effects must be gated by a
	// PendingApproval when the bound workspace's configuration requires
	// it (internal/daemon enforces the fail-closed policy; this flag only
	// identifies which tools are gateable).
	RequiresApproval bool
	// ApprovalKind classifies a gateable tool's pending-approval record
	// (spec section 3's Pending Approval kind ∈ {write, exec, patch}).
	ApprovalKind ApprovalKind
	Parameters   map[string]interface{}
	Handler      Handler
}

// Registry is the closed, compile-time table of tools the daemon exposes.
// Grounded on the teacher's policy.go tool lookup, but flattened: there is
// no dynamic tool-group/profile DSL, only the spec's fixed eight-tool
// catalogue gated by the read < write < exec tier lattice.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ToolDescriptor
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ToolDescriptor)}
}

// Register adds a tool descriptor. Panics on duplicate names since the
// catalogue is built once at startup from a fixed list.
func (r *Registry) Register(d ToolDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[d.Name]; exists {
		panic("toolkit: duplicate tool registered: " + d.Name)
	}
	r.tools[d.Name] = d
}

// List returns all descriptors sorted by name, for the tools.list method.
func (r *Registry) List() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDescriptor, 0, len(r.tools))
	for _, d := range r.tools {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the descriptor for name, or (false) if it is not in the
// catalogue.
func (r *Registry) Get(name string) (ToolDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.tools[name]
	return d, ok
}

// Dispatch looks up name, enforces the workspace's tier against the
// tool's required tier, then invokes its handler.
func (r *Registry) Dispatch(ctx context.Context, name string, ws *config.Workspace, args map[string]interface{}) *Result {
	d, ok := r.Get(name)
	if !ok {
		return ErrorResult(string(apperr.CodeInternalError) + ": unknown tool " + name)
	}
	if !ws.Tier.AtLeast(d.Tier) {
		return ErrorResult(string(apperr.CodeForbiddenPath) + ": workspace tier " + string(ws.Tier) +
			" does not meet required tier " + string(d.Tier) + " for " + name)
	}
	return d.Handler(ctx, ws, args)
}
