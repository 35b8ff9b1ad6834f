package pathguard

// defaultDenyGlobs are the built-in default deny patterns the path guard
// ships unconditionally — unchangeable by user config. Grouped and
// commented the way the teacher's internal/tools/shell.go groups its
// defaultDenyPatterns table.
var defaultDenyGlobs = []string{
	// ── VCS internals (hooks remain accessible) ──
	"**/.git/config",
	"**/.git/credentials",
	"**/.git/objects/**",
	"**/.git/refs/**",

	// ── SSH material ──
	"**/.ssh/**",
	"**/id_rsa*",
	"**/id_ed25519*",
	"**/id_ecdsa*",

	// ── Cloud credentials ──
	"**/.aws/**",

	// ── Dotenv files ──
	"**/.env",
	"**/.env.*",

	// ── Secret stores ──
	"**/secrets/**",
	"**/.secrets/**",

	// ── Private keys ──
	"**/*.pem",
	"**/*.key",

	// ── Generic credential files ──
	"**/credentials*",
	"**/password*",
	"**/token*",

	// ── Package-manager rc files ──
	"**/.npmrc",
	"**/.pypirc",

	// ── OS metadata ──
	"**/.DS_Store",
	"**/Thumbs.db",
}
