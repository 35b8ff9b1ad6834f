package toolkit

import "github.com/nextlevelbuilder/agentd/internal/config"

// NewCatalogue builds the closed, eight-tool catalogue the daemon exposes
// (spec section 4.3), registered once at process start and never mutated
// thereafter. commands layers the configured user allow/deny lists on
// top of cmd.run's built-in command policy.
func NewCatalogue(commands config.CommandsConfig) *Registry {
	r := NewRegistry()

	r.Register(ToolDescriptor{
		Name:        "fs.list",
		Description: "List entries in a workspace-relative directory, optionally recursive with a depth cap.",
		Tier:        config.TierRead,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path":      map[string]interface{}{"type": "string"},
				"recursive": map[string]interface{}{"type": "boolean"},
				"maxDepth":  map[string]interface{}{"type": "integer"},
			},
		},
		Handler: ListTool,
	})

	r.Register(ToolDescriptor{
		Name:        "fs.read",
		Description: "Read a bounded slice of a file; UTF-8 when valid, otherwise base64.",
		Tier:        config.TierRead,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path":     map[string]interface{}{"type": "string"},
				"maxBytes": map[string]interface{}{"type": "integer"},
				"offset":   map[string]interface{}{"type": "integer"},
			},
			"required": []string{"path"},
		},
		Handler: ReadTool,
	})

	r.Register(ToolDescriptor{
		Name:        "fs.apply_patch",
		Description: "Apply a unified diff to the workspace; supports a dry-run check.",
		Tier:        config.TierWrite,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"patchUnified": map[string]interface{}{"type": "string"},
				"dryRun":       map[string]interface{}{"type": "boolean"},
			},
			"required": []string{"patchUnified"},
		},
		RequiresApproval: true,
		ApprovalKind:     ApprovalPatch,
		Handler:          ApplyPatchTool,
	})

	r.Register(ToolDescriptor{
		Name:        "vcs.status",
		Description: "Report branch, ahead/behind counts, and file statuses.",
		Tier:        config.TierRead,
		Parameters:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
		Handler:     StatusTool,
	})

	r.Register(ToolDescriptor{
		Name:        "vcs.diff",
		Description: "Return the working or staged diff, optionally path-limited.",
		Tier:        config.TierRead,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"staged": map[string]interface{}{"type": "boolean"},
				"path":   map[string]interface{}{"type": "string"},
			},
		},
		Handler: DiffTool,
	})

	r.Register(ToolDescriptor{
		Name:        "vcs.checkout",
		Description: "Switch branch, optionally creating it.",
		Tier:        config.TierWrite,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"branch": map[string]interface{}{"type": "string"},
				"create": map[string]interface{}{"type": "boolean"},
			},
			"required": []string{"branch"},
		},
		RequiresApproval: true,
		ApprovalKind:     ApprovalWrite,
		Handler:          CheckoutTool,
	})

	r.Register(ToolDescriptor{
		Name:        "vcs.commit",
		Description: "Stage chosen files (or all changes) and commit with a message.",
		Tier:        config.TierWrite,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"message": map[string]interface{}{"type": "string"},
				"files":   map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			},
			"required": []string{"message"},
		},
		RequiresApproval: true,
		ApprovalKind:     ApprovalWrite,
		Handler:          CommitTool,
	})

	r.Register(ToolDescriptor{
		Name:        "cmd.run",
		Description: "Spawn an allowlisted command and capture its output.",
		Tier:        config.TierExec,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"command":   map[string]interface{}{"type": "string"},
				"args":      map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				"cwd":       map[string]interface{}{"type": "string"},
				"env":       map[string]interface{}{"type": "object"},
				"timeoutMs": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"command"},
		},
		RequiresApproval: true,
		ApprovalKind:     ApprovalExec,
		Handler:          NewRunTool(commands),
	})

	return r
}
