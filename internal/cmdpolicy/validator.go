// Package cmdpolicy implements the command allow/deny engine (spec
// component C2): it decides whether a proposed subprocess is safe to
// spawn. Grounded on the teacher's internal/tools/shell.go deny-pattern
// table and internal/tools/policy.go layered-evaluation shape, but
// restructured into the spec's strict 5-layer decision order.
package cmdpolicy

import (
	"regexp"
	"strings"

	"github.com/nextlevelbuilder/agentd/internal/apperr"
)

// Decision is the outcome of validating a command line.
type Decision struct {
	Allowed bool
	Reason  string
	Pattern string
}

// Validate decides whether command+args may be spawned, applying layers
// in this order: always-deny, user deny, user allow, built-in default
// allow, otherwise deny. A match in an earlier layer always wins.
func Validate(command string, args []string, userAllow, userDeny []string) Decision {
	line := reconstitute(command, args)

	// Layer 1: always-deny, non-overridable.
	if p := MatchAlwaysDeny(line); p != nil {
		return Decision{Allowed: false, Reason: "matches built-in deny pattern", Pattern: p.String()}
	}

	// Layer 2: user deny list.
	if p, ok := matchAny(line, userDeny); ok {
		return Decision{Allowed: false, Reason: "matches user deny pattern", Pattern: p}
	}

	// Layer 3: user allow list.
	if p, ok := matchAny(line, userAllow); ok {
		return Decision{Allowed: true, Reason: "matches user allow pattern", Pattern: p}
	}

	// Layer 4: built-in default allow list.
	if MatchDefaultAllow(line) {
		return Decision{Allowed: true, Reason: "matches built-in default allow list"}
	}

	// Layer 5: otherwise deny.
	return Decision{Allowed: false, Reason: "not in allowlist"}
}

// ValidateErr is Validate wrapped to produce the spec's closed error code
// directly, for callers that just want a pass/fail.
func ValidateErr(command string, args []string, userAllow, userDeny []string) error {
	d := Validate(command, args, userAllow, userDeny)
	if d.Allowed {
		return nil
	}
	return apperr.Newf(apperr.CodeCommandDenied, "command denied: %s", d.Reason).
		WithDetails(map[string]string{"command": reconstitute(command, args), "pattern": d.Pattern})
}

func reconstitute(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	return command + " " + strings.Join(args, " ")
}

// matchAny evaluates a list of user-supplied regex strings, skipping any
// that fail to compile (invalid user regexes must never block other
// rules from being considered). Returns the first matching pattern.
func matchAny(line string, patterns []string) (string, bool) {
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		if re.MatchString(line) {
			return p, true
		}
	}
	return "", false
}
