package cmdpolicy

import "regexp"

// alwaysDenyPatterns are built-in, non-overridable deny patterns (spec
// section 4.2 step 1). Grouped and commented the way the teacher's
// internal/tools/shell.go groups its defaultDenyPatterns table.
var alwaysDenyPatterns = []*regexp.Regexp{
	// ── Destructive filesystem operations ──
	regexp.MustCompile(`\brm\s+-rf\s+/\s*$`),
	regexp.MustCompile(`\brm\s+-rf\s+~`),
	regexp.MustCompile(`\brm\b.*--no-preserve-root`),
	regexp.MustCompile(`\bmkfs(\.\w+)?\b`),
	regexp.MustCompile(`\bdd\b.*\bof=/dev/`),

	// ── Data exfiltration ──
	regexp.MustCompile(`\bcurl\b.*(-d\s*@|--data\s*@)`),
	regexp.MustCompile(`\bwget\b.*--post-file`),
	regexp.MustCompile(`\bscp\b.*@`),
	regexp.MustCompile(`\brsync\b.*::`),
	regexp.MustCompile(`\brsync\b.*@.*:`),

	// ── Privilege escalation ──
	regexp.MustCompile(`\bsudo\b`),
	regexp.MustCompile(`\bsu\b`),
	regexp.MustCompile(`\bdoas\b`),

	// ── Scheduled tasks ──
	regexp.MustCompile(`\bcrontab\b`),
	regexp.MustCompile(`\bat\s+\S`),

	// ── Service control ──
	regexp.MustCompile(`\bsystemctl\s+(start|stop|restart|enable|disable)\b`),
	regexp.MustCompile(`\bservice\s+\S+\s+(start|stop|restart)\b`),
	regexp.MustCompile(`\blaunchctl\s+(load|unload|kickstart)\b`),

	// ── System package install/remove ──
	regexp.MustCompile(`\bapt(-get)?\s+(install|remove|purge)\b`),
	regexp.MustCompile(`\byum\s+(install|remove)\b`),
	regexp.MustCompile(`\bdnf\s+(install|remove)\b`),
	regexp.MustCompile(`\bbrew\s+(install|uninstall|remove)\b`),

	// ── Shell-escape patterns ──
	regexp.MustCompile(`;\s*sh\b`),
	regexp.MustCompile(`\|\s*sh\b`),
	regexp.MustCompile("`[^`]*`"),
	regexp.MustCompile(`\$\([^)]*\)`),

	// ── Environment mutation ──
	regexp.MustCompile(`^\s*export\s+\w+\s*=`),
	regexp.MustCompile(`^\s*env\s+\w+\s*=.*[;&|]`),

	// ── Dangerous inline interpreter invocations ──
	regexp.MustCompile(`\b(python[23]?|node|ruby|perl)\b.*\s(-c|-e)\s.*\b(os|subprocess|socket|child_process)\b`),
}

// MatchAlwaysDeny returns the first always-deny pattern that matches the
// command line, or nil if none match.
func MatchAlwaysDeny(commandLine string) *regexp.Regexp {
	for _, p := range alwaysDenyPatterns {
		if p.MatchString(commandLine) {
			return p
		}
	}
	return nil
}

// defaultAllowPatterns is the built-in default allow list (spec section
// 4.2 step 4): version flags, read-only package-manager subcommands,
// common build/test runners, linters/formatters, type checkers, read-only
// VCS subcommands, and read-only file viewers.
var defaultAllowPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\S+\s+(--version|-v|-V|version)\s*$`),
	regexp.MustCompile(`^(npm|yarn|pnpm)\s+(list|ls|outdated|view|info)\b`),
	regexp.MustCompile(`^pip\s+(list|show|freeze)\b`),
	regexp.MustCompile(`^(go)\s+(build|test|vet|fmt|generate|list|doc)\b`),
	regexp.MustCompile(`^(npm|yarn|pnpm)\s+(run\s+)?(build|test)\b`),
	regexp.MustCompile(`^(pytest|jest|mocha|cargo\s+test)\b`),
	regexp.MustCompile(`^(eslint|prettier|black|gofmt|goimports|golangci-lint|ruff|flake8)\b`),
	regexp.MustCompile(`^(mypy|tsc|pyright)\b`),
	regexp.MustCompile(`^git\s+(status|log|diff|show|branch|tag|remote|ls-files)\b`),
	regexp.MustCompile(`^(ls|cat|head|tail|wc|grep|rg|fd|find)\b`),
}

// MatchDefaultAllow reports whether the command line matches a built-in
// default-allow pattern.
func MatchDefaultAllow(commandLine string) bool {
	for _, p := range defaultAllowPatterns {
		if p.MatchString(commandLine) {
			return true
		}
	}
	return false
}
