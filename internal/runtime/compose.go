package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/naming"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/progress"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/system"
)

const (
	// OverlayDirName is the app-dir subdirectory holding generated overlays.
	OverlayDirName = "compose-overlays"

	overlaySuffix = ".override.yaml"
)

// ComposeConfig selects the user's compose files and the service that
// hosts the agent.
type ComposeConfig struct {
	ComposeFiles []string `toml:"compose_files" json:"compose_files"`
	AgentService string   `toml:"agent_service" json:"agent_service"`
}

// ComposeEngine runs a sandbox as one service of a docker compose project.
// The user's compose files are extended with a generated overlay that
// replaces the agent service's command with an idle TTY.
type ComposeEngine struct {
	ProjectName  string
	ComposeFiles []string
	OverlayPath  string
	AgentService string
	Image        string

	exec system.CommandExecutor
	fs   system.FileSystem
}

// NewComposeEngine derives the compose project for sessionID. Relative
// compose files are resolved against projectPath; the overlay lives under
// appDir/compose-overlays and cannot escape that directory.
func NewComposeEngine(exec system.CommandExecutor, fsys system.FileSystem, sessionID, projectPath string, cfg ComposeConfig, appDir, image string) (*ComposeEngine, error) {
	project := naming.ComposeProject(sessionID)

	files := make([]string, 0, len(cfg.ComposeFiles))
	for _, f := range cfg.ComposeFiles {
		if filepath.IsAbs(f) {
			files = append(files, f)
			continue
		}
		files = append(files, filepath.Join(projectPath, f))
	}

	overlayPath, err := securejoin.SecureJoin(filepath.Join(appDir, OverlayDirName), project+overlaySuffix)
	if err != nil {
		return nil, errors.IOError("resolve overlay path", err)
	}

	return &ComposeEngine{
		ProjectName:  project,
		ComposeFiles: files,
		OverlayPath:  overlayPath,
		AgentService: cfg.AgentService,
		Image:        image,
		exec:         exec,
		fs:           fsys,
	}, nil
}

// Name returns the runtime identifier
func (e *ComposeEngine) Name() string {
	return "compose"
}

// BaseArgs returns the argument prefix shared by every compose command.
// The overlay is always the last -f so it overrides the user's files.
func (e *ComposeEngine) BaseArgs() []string {
	args := []string{"compose"}
	for _, f := range e.ComposeFiles {
		args = append(args, "-f", f)
	}
	return append(args, "-f", e.OverlayPath, "-p", e.ProjectName)
}

// baseCommand is BaseArgs as a shell string with every value quoted.
func (e *ComposeEngine) baseCommand() string {
	parts := []string{"docker", "compose"}
	for _, f := range e.ComposeFiles {
		parts = append(parts, "-f", ShellQuote(f))
	}
	parts = append(parts, "-f", ShellQuote(e.OverlayPath), "-p", ShellQuote(e.ProjectName))
	return strings.Join(parts, " ")
}

func (e *ComposeEngine) args(extra ...string) []string {
	return append(e.BaseArgs(), extra...)
}

// GenerateOverlay writes the overlay for cfg atomically: the YAML goes to
// a temporary sibling first and is renamed over the final path.
func (e *ComposeEngine) GenerateOverlay(cfg *ContainerConfig, image string) error {
	dir := filepath.Dir(e.OverlayPath)
	if err := e.fs.MkdirAll(dir, 0755); err != nil {
		return errors.OverlayWriteFailed(dir, err)
	}

	data, err := BuildOverlay(e.AgentService, cfg, image)
	if err != nil {
		return errors.OverlayWriteFailed(e.OverlayPath, err)
	}

	tmpPath := e.OverlayPath + ".tmp"
	if err := e.fs.WriteFile(tmpPath, data, 0644); err != nil {
		return errors.OverlayWriteFailed(tmpPath, err)
	}
	if err := e.fs.Rename(tmpPath, e.OverlayPath); err != nil {
		_ = e.fs.Remove(tmpPath)
		return errors.OverlayWriteFailed(e.OverlayPath, err)
	}

	logging.Debug("wrote compose overlay", "path", e.OverlayPath, "service", e.AgentService)
	return nil
}

// CleanupOverlay deletes the overlay file. A missing file is not an error.
func (e *ComposeEngine) CleanupOverlay() error {
	if !e.fs.Exists(e.OverlayPath) {
		return nil
	}
	if err := e.fs.Remove(e.OverlayPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.IOError(fmt.Sprintf("remove overlay %s", e.OverlayPath), err)
	}
	return nil
}

// CheckComposeAvailable verifies that docker compose v2 can be invoked.
func CheckComposeAvailable(ctx context.Context, exec system.CommandExecutor) error {
	result, err := exec.Run(ctx, "docker", "compose", "version")
	if err != nil || !result.Success() {
		logging.Debug("docker compose probe failed", "error", err)
		return errors.RuntimeNotInstalled("docker compose")
	}
	return nil
}

// Up starts the compose project in the background.
func (e *ComposeEngine) Up(ctx context.Context, sink progress.Sink) error {
	return e.runCompose(ctx, "docker compose up", e.args("up", "-d"), sink)
}

// Down stops and removes the compose project, and its named volumes when
// removeVolumes is set. Failures are logged and swallowed.
func (e *ComposeEngine) Down(ctx context.Context, removeVolumes bool, sink progress.Sink) {
	args := e.args("down")
	if removeVolumes {
		args = append(args, "--volumes")
	}
	if err := e.runCompose(ctx, "docker compose down", args, sink); err != nil {
		logging.Warn("docker compose down failed", "project", e.ProjectName, "error", err)
	}
}

// runCompose runs a compose command. With a sink, stderr is streamed to it
// line by line; without one, output is captured and inspected on exit.
func (e *ComposeEngine) runCompose(ctx context.Context, label string, args []string, sink progress.Sink) error {
	logging.Debug("running docker", "args", args)

	var (
		result *system.Result
		err    error
	)
	if sink != nil {
		progress.Emit(sink, progress.StepStarted(progress.SourceCompose, label))
		result, err = e.exec.RunStreaming(ctx, func(line string) {
			sink.Send(progress.Output(progress.SourceCompose, line))
		}, "docker", args...)
	} else {
		result, err = e.exec.Run(ctx, "docker", args...)
	}
	if err != nil {
		return errors.IOError(label, err)
	}
	if !result.Success() {
		return errors.CommandFailed(label, strings.TrimSpace(string(result.Stderr)))
	}
	return nil
}

// IsRunning reports whether the agent service has a running container.
func (e *ComposeEngine) IsRunning(ctx context.Context) bool {
	return e.psHasService(ctx, e.args("ps", "--format", "json", "--status", "running", e.AgentService))
}

// Exists reports whether the agent service has a container in any state.
func (e *ComposeEngine) Exists(ctx context.Context) bool {
	return e.psHasService(ctx, e.args("ps", "--format", "json", e.AgentService))
}

func (e *ComposeEngine) psHasService(ctx context.Context, args []string) bool {
	result, err := e.exec.Run(ctx, "docker", args...)
	if err != nil || !result.Success() {
		return false
	}
	return ParsePSHasService(string(result.Stdout), e.AgentService)
}

// ExecCommand returns the interactive exec command for tmux embedding.
// options are inserted unquoted; quoting them is the caller's job.
func (e *ComposeEngine) ExecCommand(options string) string {
	if options != "" {
		return fmt.Sprintf("%s exec %s %s", e.baseCommand(), options, e.AgentService)
	}
	return fmt.Sprintf("%s exec %s", e.baseCommand(), e.AgentService)
}

// Exec runs argv in the agent service without a TTY.
func (e *ComposeEngine) Exec(ctx context.Context, argv []string) (*ExecResult, error) {
	args := e.args(append([]string{"exec", "-T", e.AgentService}, argv...)...)
	result, err := e.exec.Run(ctx, "docker", args...)
	if err != nil {
		return nil, errors.IOError("docker compose exec", err)
	}
	return &ExecResult{
		ExitCode: result.ExitCode,
		Stdout:   string(result.Stdout),
		Stderr:   string(result.Stderr),
	}, nil
}

// Create writes the overlay, brings the project up and returns the agent
// container id, or the project name when the id cannot be determined.
func (e *ComposeEngine) Create(ctx context.Context, cfg *ContainerConfig, sink progress.Sink) (string, error) {
	if err := e.GenerateOverlay(cfg, e.Image); err != nil {
		return "", err
	}
	if err := e.Up(ctx, sink); err != nil {
		return "", err
	}

	result, err := e.exec.Run(ctx, "docker", e.args("ps", "-q", e.AgentService)...)
	if err == nil && result.Success() {
		if id := strings.TrimSpace(string(result.Stdout)); id != "" {
			return strings.SplitN(id, "\n", 2)[0], nil
		}
	}
	return e.ProjectName, nil
}

// Stop brings the project down, keeping named volumes.
func (e *ComposeEngine) Stop(ctx context.Context) {
	e.Down(ctx, false, nil)
}

// Remove brings the project down and deletes the overlay. force also
// removes named volumes.
func (e *ComposeEngine) Remove(ctx context.Context, force bool) error {
	e.Down(ctx, force, nil)
	return e.CleanupOverlay()
}

var _ Runtime = (*ComposeEngine)(nil)
