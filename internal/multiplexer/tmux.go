package multiplexer

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/naming"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/status"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/system"
)

// statusCaptureLines is how much scrollback DetectStatus inspects.
const statusCaptureLines = 50

// Session is a handle on one agent's tmux session.
type Session struct {
	ID    string
	Title string

	name  string
	exec  system.CommandExecutor
	cache SessionCache

	// getenv reads the environment; replaced in tests.
	getenv func(string) string
}

// NewSession returns a handle for the session identified by id and title.
// cache may be nil.
func NewSession(id, title string, exec system.CommandExecutor, cache SessionCache) *Session {
	return &Session{
		ID:     id,
		Title:  title,
		name:   naming.SessionName(id, title),
		exec:   exec,
		cache:  cache,
		getenv: os.Getenv,
	}
}

// SessionFromName returns a handle for an existing tmux session name that
// has no known id or title, such as an aoe_ session found by listing.
func SessionFromName(name string, exec system.CommandExecutor, cache SessionCache) *Session {
	return &Session{
		name:   name,
		exec:   exec,
		cache:  cache,
		getenv: os.Getenv,
	}
}

// Name returns the tmux session name.
func (s *Session) Name() string {
	return s.name
}

// target is the exact-match session target. A bare name lets tmux fall
// back to prefix matching, which would reach aoe_proj_abcdefgh through
// aoe_proj_abc.
func (s *Session) target() string {
	return "=" + s.name
}

// paneTarget is target for pane commands, which take a target-pane.
func (s *Session) paneTarget() string {
	return s.target() + ":"
}

// Exists reports whether the tmux session is live. Errors read as absent.
func (s *Session) Exists(ctx context.Context) bool {
	if s.cache != nil {
		if exists, ok := s.cache.Lookup(s.name); ok {
			return exists
		}
	}
	result, err := s.exec.Run(ctx, tmuxBinary, "has-session", "-t", s.target())
	return err == nil && result.Success()
}

func (s *Session) refresh(ctx context.Context) {
	if s.cache != nil {
		s.cache.Refresh(ctx)
	}
}

// run executes a tmux subcommand, mapping failures to AoeErrors.
func (s *Session) run(ctx context.Context, op string, args ...string) error {
	result, err := s.exec.Run(ctx, tmuxBinary, args...)
	if err != nil {
		return errors.IOError(op, err)
	}
	if !result.Success() {
		return errors.CommandFailed(op, strings.TrimSpace(string(result.Stderr)))
	}
	return nil
}

// Create starts a detached session in workingDir. An empty command runs
// the user's shell. It does nothing when the session already exists.
func (s *Session) Create(ctx context.Context, workingDir, command string) error {
	if s.Exists(ctx) {
		logging.Debug("tmux session already exists", "session", s.name)
		return nil
	}

	args := []string{"new-session", "-d", "-s", s.name, "-c", workingDir}
	if command != "" {
		args = append(args, command)
	}
	logging.Debug("creating tmux session", "session", s.name, "dir", workingDir)
	if err := s.run(ctx, "tmux new-session", args...); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

// Kill terminates the session. It does nothing when the session is absent.
func (s *Session) Kill(ctx context.Context) error {
	if !s.Exists(ctx) {
		return nil
	}
	logging.Debug("killing tmux session", "session", s.name)
	if err := s.run(ctx, "tmux kill-session", "kill-session", "-t", s.target()); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

// Attach connects the caller's terminal to the session, switching the
// client instead when already running inside tmux.
func (s *Session) Attach(ctx context.Context) error {
	if !s.Exists(ctx) {
		return errors.SessionNotFound(s.name)
	}

	if s.getenv("TMUX") != "" {
		if err := s.exec.ExecuteInteractive(ctx, tmuxBinary, "switch-client", "-t", s.target()); err != nil {
			return errors.New(errors.ExitCommandFailed, "failed to switch to tmux session")
		}
		return nil
	}
	if err := s.exec.ExecuteInteractive(ctx, tmuxBinary, "attach-session", "-t", s.target()); err != nil {
		return errors.New(errors.ExitCommandFailed, "failed to attach to tmux session")
	}
	return nil
}

// CapturePane returns the last n lines of the pane, or "" when the session
// is gone or tmux fails.
func (s *Session) CapturePane(ctx context.Context, n int) string {
	if !s.Exists(ctx) {
		return ""
	}
	result, err := s.exec.Run(ctx, tmuxBinary, "capture-pane", "-t", s.paneTarget(), "-p", "-S", "-"+strconv.Itoa(n))
	if err != nil || !result.Success() {
		return ""
	}
	return string(result.Stdout)
}

// DetectStatus classifies the recent pane output of tool.
func (s *Session) DetectStatus(ctx context.Context, tool string, classifier *status.Classifier) status.Status {
	if classifier == nil {
		classifier = status.DefaultClassifier()
	}
	return classifier.Classify(s.CapturePane(ctx, statusCaptureLines), tool)
}
