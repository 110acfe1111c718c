// Package naming derives tmux session, container and compose project names
// from durable session identifiers.
//
// Every function here is pure and total: empty ids and titles still
// produce a usable (if short) name.
package naming

import (
	"strings"
	"unicode"
)

const (
	// SessionPrefix marks tmux sessions owned by aoe-ctl.
	SessionPrefix = "aoe_"

	// ContainerPrefix is used for directly managed sandbox containers.
	ContainerPrefix = "aoe-sandbox"

	// ComposePrefix is used for docker compose project names.
	ComposePrefix = "aoe"

	shortIDLen  = 8
	maxTitleLen = 20
)

// ShortID returns the first eight characters of id, or id itself when shorter.
func ShortID(id string) string {
	runes := []rune(id)
	if len(runes) <= shortIDLen {
		return id
	}
	return string(runes[:shortIDLen])
}

// SanitizeTitle replaces every character that is not a letter, digit,
// '-' or '_' with '_' and truncates the result to 20 characters.
func SanitizeTitle(title string) string {
	var sb strings.Builder
	n := 0
	for _, r := range title {
		if n == maxTitleLen {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
		n++
	}
	return sb.String()
}

// SessionName returns the tmux session name for a session.
func SessionName(id, title string) string {
	return SessionPrefix + SanitizeTitle(title) + "_" + ShortID(id)
}

// SandboxName joins prefix and the short form of id with a dash.
func SandboxName(prefix, id string) string {
	return prefix + "-" + ShortID(id)
}

// ContainerName returns the name of the direct sandbox container.
func ContainerName(id string) string {
	return SandboxName(ContainerPrefix, id)
}

// ComposeProject returns the compose project name for a session.
func ComposeProject(id string) string {
	return SandboxName(ComposePrefix, id)
}

// IsManagedSession reports whether a tmux session name carries the aoe prefix.
func IsManagedSession(name string) bool {
	return strings.HasPrefix(name, SessionPrefix)
}
