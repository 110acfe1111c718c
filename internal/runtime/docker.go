package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/naming"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/progress"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/system"
)

// DockerContainer runs a sandbox as a single `docker run` container named
// after the session.
type DockerContainer struct {
	// ContainerName is aoe-sandbox-<short id>.
	ContainerName string

	// Image is the sandbox image passed to docker run.
	Image string

	// Command is the container CLI to invoke.
	Command string

	exec system.CommandExecutor
}

// NewDockerContainer returns the direct container backend for sessionID.
func NewDockerContainer(exec system.CommandExecutor, sessionID, image string) *DockerContainer {
	return &DockerContainer{
		ContainerName: naming.ContainerName(sessionID),
		Image:         image,
		Command:       "docker",
		exec:          exec,
	}
}

// Name returns the runtime identifier
func (r *DockerContainer) Name() string {
	return r.Command
}

// runCmd executes a docker command and returns its stdout.
func (r *DockerContainer) runCmd(ctx context.Context, args ...string) (string, error) {
	logging.Debug("running docker", "args", args)

	result, err := r.exec.Run(ctx, r.Command, args...)
	if err != nil {
		return "", errors.IOError(fmt.Sprintf("%s %s", r.Command, args[0]), err)
	}
	if !result.Success() {
		return "", errors.CommandFailed(fmt.Sprintf("%s %s", r.Command, args[0]), strings.TrimSpace(string(result.Stderr)))
	}
	return string(result.Stdout), nil
}

// CheckDockerAvailable verifies that the docker daemon can be reached.
func CheckDockerAvailable(ctx context.Context, exec system.CommandExecutor) error {
	result, err := exec.Run(ctx, "docker", "version")
	if err != nil || !result.Success() {
		logging.Debug("docker probe failed", "error", err)
		return errors.RuntimeNotInstalled("docker")
	}
	return nil
}

// RunArgs returns the docker run argument list for cfg.
func (r *DockerContainer) RunArgs(cfg *ContainerConfig) []string {
	args := []string{"run", "-d", "--name", r.ContainerName}
	if cfg.WorkingDir != "" {
		args = append(args, "-w", cfg.WorkingDir)
	}
	for _, v := range cfg.Volumes {
		args = append(args, "-v", v.Spec())
	}
	for _, v := range cfg.AnonymousVolumes {
		args = append(args, "-v", v)
	}
	for _, e := range cfg.Environment {
		args = append(args, "-e", e.Key+"="+e.Value)
	}
	if cfg.CPULimit != "" {
		args = append(args, "--cpus", cfg.CPULimit)
	}
	if cfg.MemoryLimit != "" {
		args = append(args, "--memory", cfg.MemoryLimit)
	}
	return append(args, r.Image, "sleep", "infinity")
}

// Create starts a detached container that idles until exec'd into.
func (r *DockerContainer) Create(ctx context.Context, cfg *ContainerConfig, sink progress.Sink) (string, error) {
	logging.Debug("creating container", "name", r.ContainerName, "image", r.Image)
	progress.Emit(sink, progress.StepStarted(progress.SourceSystem, "docker run"))

	out, err := r.runCmd(ctx, r.RunArgs(cfg)...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (r *DockerContainer) inspectRunning(ctx context.Context) (string, bool) {
	out, err := r.runCmd(ctx, "container", "inspect", "-f", "{{.State.Running}}", r.ContainerName)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(out), true
}

// Exists reports whether the container exists in any state.
func (r *DockerContainer) Exists(ctx context.Context) bool {
	_, ok := r.inspectRunning(ctx)
	return ok
}

// IsRunning checks if the container is currently running
func (r *DockerContainer) IsRunning(ctx context.Context) bool {
	state, ok := r.inspectRunning(ctx)
	return ok && state == "true"
}

// Stop stops the container. Failures are logged.
func (r *DockerContainer) Stop(ctx context.Context) {
	logging.Debug("stopping container", "container", r.ContainerName)
	if _, err := r.runCmd(ctx, "stop", r.ContainerName); err != nil {
		logging.Warn("failed to stop container", "container", r.ContainerName, "error", err)
	}
}

// Remove deletes the container; force also removes it while running.
func (r *DockerContainer) Remove(ctx context.Context, force bool) error {
	logging.Debug("removing container", "container", r.ContainerName, "force", force)
	args := []string{"rm"}
	if force {
		args = append(args, "-f")
	}
	_, err := r.runCmd(ctx, append(args, r.ContainerName)...)
	return err
}

// Exec runs argv in the container without a TTY.
func (r *DockerContainer) Exec(ctx context.Context, argv []string) (*ExecResult, error) {
	args := append([]string{"exec", r.ContainerName}, argv...)
	result, err := r.exec.Run(ctx, r.Command, args...)
	if err != nil {
		return nil, errors.IOError("docker exec", err)
	}
	return &ExecResult{
		ExitCode: result.ExitCode,
		Stdout:   string(result.Stdout),
		Stderr:   string(result.Stderr),
	}, nil
}

// ExecCommand returns the interactive exec command for tmux embedding.
func (r *DockerContainer) ExecCommand(options string) string {
	parts := []string{r.Command, "exec", "-it"}
	if options != "" {
		parts = append(parts, options)
	}
	return strings.Join(append(parts, ShellQuote(r.ContainerName)), " ")
}

var _ Runtime = (*DockerContainer)(nil)
