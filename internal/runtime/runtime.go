// Package runtime defines the container sandbox interface for aoe-ctl.
// Two backends exist: a directly managed docker container and a docker
// compose project extended with a generated overlay file.
package runtime

import (
	"context"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/progress"
)

// VolumeMount is a host path bound into the sandbox.
type VolumeMount struct {
	HostPath      string
	ContainerPath string
	ReadOnly      bool
}

// Spec renders the mount in docker's host:container[:ro] form.
func (v VolumeMount) Spec() string {
	s := v.HostPath + ":" + v.ContainerPath
	if v.ReadOnly {
		s += ":ro"
	}
	return s
}

// EnvVar is a single environment variable for the sandbox.
type EnvVar struct {
	Key   string
	Value string
}

// ContainerConfig describes the sandbox to materialize. Order of Volumes,
// AnonymousVolumes and Environment is preserved. Runtimes never modify it.
type ContainerConfig struct {
	WorkingDir       string
	Volumes          []VolumeMount
	AnonymousVolumes []string
	Environment      []EnvVar
	// CPULimit and MemoryLimit are passed through verbatim; empty means unset.
	CPULimit    string
	MemoryLimit string
}

// HasLimits reports whether any resource limit is set.
func (c *ContainerConfig) HasLimits() bool {
	return c.CPULimit != "" || c.MemoryLimit != ""
}

// ExecResult holds the result of executing a command in a container
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runtime is the interface that sandbox backends implement. Instances hold
// only derived names and paths and can be rebuilt from the session id at
// any time.
type Runtime interface {
	// Name returns the backend identifier ("docker" or "compose").
	Name() string

	// Exists reports whether the sandbox exists in any state. Failures to
	// query are reported as false.
	Exists(ctx context.Context) bool

	// IsRunning reports whether the sandbox is currently running. Failures
	// to query are reported as false.
	IsRunning(ctx context.Context) bool

	// Create materializes and starts the sandbox and returns its container id.
	// Progress events are sent to sink when it is non-nil.
	Create(ctx context.Context, cfg *ContainerConfig, sink progress.Sink) (string, error)

	// Stop stops the sandbox. Failures are logged, never returned.
	Stop(ctx context.Context)

	// Remove deletes the sandbox. force also removes running containers
	// and, for compose, named volumes.
	Remove(ctx context.Context, force bool) error

	// Exec runs argv inside the sandbox without a TTY.
	Exec(ctx context.Context, argv []string) (*ExecResult, error)

	// ExecCommand returns a shell command string that opens an interactive
	// exec into the sandbox, suitable as a tmux pane command. options are
	// inserted verbatim after "exec".
	ExecCommand(options string) string
}
