package cmdpolicy

import "strings"

// Tokenize splits a user-provided command string into tokens: it splits
// on whitespace, treats '...' and "..." as single tokens (either quote
// transparent to the other), honors \x as an escape producing the literal
// x, and collapses runs of whitespace. Grounded on the same small-
// tokeniser idiom the teacher and the other-examples goclaw shell tool
// both use for splitting a raw command line before validation.
func Tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	hasCur := false

	flush := func() {
		if hasCur {
			tokens = append(tokens, cur.String())
			cur.Reset()
			hasCur = false
		}
	}

	runes := []rune(s)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
			i++
		case c == '\'' || c == '"':
			flush()
			quote := c
			i++
			hasCur = true
			for i < len(runes) && runes[i] != quote {
				cur.WriteRune(runes[i])
				i++
			}
			if i < len(runes) {
				i++ // consume closing quote
			}
			flush()
		case c == '\\' && i+1 < len(runes):
			cur.WriteRune(runes[i+1])
			hasCur = true
			i += 2
		default:
			cur.WriteRune(c)
			hasCur = true
			i++
		}
	}
	flush()
	return tokens
}
