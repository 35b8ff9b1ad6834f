package toolkit

import (
	"context"
	"time"

	"github.com/nextlevelbuilder/agentd/internal/apperr"
	"github.com/nextlevelbuilder/agentd/internal/cmdpolicy"
	"github.com/nextlevelbuilder/agentd/internal/config"
	"github.com/nextlevelbuilder/agentd/internal/exec"
	"github.com/nextlevelbuilder/agentd/internal/pathguard"
)

// NewRunTool binds the user-supplied command allow/deny lists from the
// daemon's CommandsConfig (spec section 6's `commands: {allow, deny}`)
// into a Handler, so cmd.run layers them on top of the built-in policy
// exactly as internal/cmdpolicy's 5-layer decision order expects.
func NewRunTool(commands config.CommandsConfig) Handler {
	return func(ctx context.Context, ws *config.Workspace, args map[string]interface{}) *Result {
		return runTool(ctx, ws, args, commands)
	}
}

// RunTool implements cmd.run (spec component C7) with no user allow/deny
// overlay: only the built-in command policy applies. The catalogue
// registers NewRunTool instead.
func RunTool(ctx context.Context, ws *config.Workspace, args map[string]interface{}) *Result {
	return runTool(ctx, ws, args, config.CommandsConfig{})
}

func runTool(ctx context.Context, ws *config.Workspace, args map[string]interface{}, commands config.CommandsConfig) *Result {
	commandStr, _ := args["command"].(string)
	if commandStr == "" {
		return ErrorResult(string(apperr.CodeInvalidPath) + ": command is required")
	}

	tokens := cmdpolicy.Tokenize(commandStr)
	if len(tokens) == 0 {
		return ErrorResult(string(apperr.CodeInvalidPath) + ": command is empty after tokenizing")
	}
	command, cmdArgs := tokens[0], tokens[1:]

	if extra, ok := args["args"].([]interface{}); ok {
		for _, a := range extra {
			if s, ok := a.(string); ok {
				cmdArgs = append(cmdArgs, s)
			}
		}
	}

	cwd := ws.Root
	if requested, ok := args["cwd"].(string); ok && requested != "" {
		resolved, err := pathguard.Resolve(requested, wsGuard(ws), nil)
		if err != nil {
			return errResultFromApperr(err)
		}
		cwd = resolved.Absolute
	}

	var env []string
	if raw, ok := args["env"].(map[string]interface{}); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				env = append(env, k+"="+s)
			}
		}
	}

	timeout := time.Duration(0)
	if v, ok := args["timeoutMs"].(float64); ok && v > 0 {
		timeout = time.Duration(v) * time.Millisecond
	}

	outcome, err := exec.Run(ctx, exec.Request{
		Command:   command,
		Args:      cmdArgs,
		Cwd:       cwd,
		Env:       env,
		Timeout:   timeout,
		UserAllow: commands.Allow,
		UserDeny:  commands.Deny,
	})
	if err != nil {
		return errResultFromApperr(err)
	}
	return Ok(outcome)
}
