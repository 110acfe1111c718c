package status

import (
	"strings"
	"sync"
)

// tailLines is the number of trailing pane lines the classifier inspects.
const tailLines = 10

// Profile is the ordered pattern set for one tool. All patterns are
// matched as lower-case substrings of the inspected text; PromptSuffixes
// must match at the very end of it.
type Profile struct {
	Error          []string `toml:"error"`
	Running        []string `toml:"running"`
	Waiting        []string `toml:"waiting"`
	PromptSuffixes []string `toml:"prompt_suffixes"`
}

// Classify evaluates content against the profile in priority order:
// error, running, waiting, idle.
func (p Profile) Classify(content string) Status {
	for _, pattern := range p.Error {
		if strings.Contains(content, pattern) {
			return Error
		}
	}
	for _, pattern := range p.Running {
		if strings.Contains(content, pattern) {
			return Running
		}
	}
	for _, pattern := range p.Waiting {
		if strings.Contains(content, pattern) {
			return Waiting
		}
	}
	for _, suffix := range p.PromptSuffixes {
		if strings.HasSuffix(content, suffix) {
			return Waiting
		}
	}
	return Idle
}

// ErrorMarkers are shared by every built-in profile.
var ErrorMarkers = []string{"error:", "failed:", "exception:", "traceback", "panic:"}

var (
	ClaudeProfile = Profile{
		Error: ErrorMarkers,
		Running: []string{
			"thinking", "processing", "working on", "analyzing",
			"generating", "writing", "reading", "searching",
		},
		Waiting: []string{
			"waiting for your input", "what would you like", "how can i help",
			"ready for your", "> ", "claude>",
		},
	}

	GeminiProfile = Profile{
		Error:   ErrorMarkers,
		Running: []string{"generating", "thinking", "processing"},
		Waiting: []string{"gemini>", "> ", "enter your", "type your"},
	}

	GenericProfile = Profile{
		Error:          ErrorMarkers,
		Running:        []string{"running", "processing", "loading", "thinking"},
		PromptSuffixes: []string{"$ ", "> ", "# "},
	}

	ShellProfile = Profile{
		Error: ErrorMarkers,
		Running: []string{
			"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏", "...", "───",
		},
		PromptSuffixes: []string{"$ ", "> ", "# ", "% "},
	}
)

// Classifier maps tool identifiers to profiles. Unknown tools fall back
// to the shell profile. A Classifier is safe for concurrent use.
type Classifier struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	fallback Profile
}

// NewClassifier returns a classifier with only the shell fallback profile.
func NewClassifier() *Classifier {
	return &Classifier{
		profiles: make(map[string]Profile),
		fallback: ShellProfile,
	}
}

// DefaultClassifier returns a classifier preloaded with the built-in tools.
func DefaultClassifier() *Classifier {
	c := NewClassifier()
	c.Register("claude", ClaudeProfile)
	c.Register("gemini", GeminiProfile)
	c.Register("opencode", GenericProfile)
	c.Register("codex", GenericProfile)
	return c
}

// Register installs or replaces the profile for tool. Patterns are
// lower-cased so they match the normalized pane text.
func (c *Classifier) Register(tool string, p Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[tool] = normalize(p)
}

// Profile returns the profile used for tool.
func (c *Classifier) Profile(tool string) Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if p, ok := c.profiles[tool]; ok {
		return p
	}
	return c.fallback
}

// Classify returns the status for captured pane content produced by tool.
func (c *Classifier) Classify(content, tool string) Status {
	return c.Profile(tool).Classify(Tail(content))
}

// Tail returns the last ten lines of content joined by newlines and
// lower-cased. A trailing newline does not count as an extra empty line
// and carriage returns before a newline are dropped.
func Tail(content string) string {
	lines := splitLines(content)
	if len(lines) > tailLines {
		lines = lines[len(lines)-tailLines:]
	}
	return strings.ToLower(strings.Join(lines, "\n"))
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func normalize(p Profile) Profile {
	return Profile{
		Error:          lowerAll(p.Error),
		Running:        lowerAll(p.Running),
		Waiting:        lowerAll(p.Waiting),
		PromptSuffixes: lowerAll(p.PromptSuffixes),
	}
}

func lowerAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
