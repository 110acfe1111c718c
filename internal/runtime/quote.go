package runtime

import "strings"

// ShellQuote quotes s for a POSIX shell. Strings made only of ASCII
// letters, digits and "/._-" are returned unchanged; the empty string
// becomes ''; everything else is single-quoted with embedded single
// quotes written as '\''.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if isShellSafe(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '/', c == '.', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}
