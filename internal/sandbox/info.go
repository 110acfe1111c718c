package sandbox

import (
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/runtime"
)

// Info describes the container sandbox attached to a session.
type Info struct {
	Enabled     bool       `json:"enabled"`
	ContainerID string     `json:"container_id,omitempty"`
	Image       string     `json:"image"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`

	// ContainerName is the docker container name, or the compose project
	// name in compose mode.
	ContainerName string `json:"container_name"`

	// ExtraEnvKeys are host variables passed through by name;
	// ExtraEnvValues are literal assignments.
	ExtraEnvKeys   []string          `json:"extra_env_keys,omitempty"`
	ExtraEnvValues map[string]string `json:"extra_env_values,omitempty"`

	CustomInstruction string `json:"custom_instruction,omitempty"`

	Mode    runtime.Mode           `json:"mode,omitempty"`
	Compose *runtime.ComposeConfig `json:"compose,omitempty"`
}

// Record is the durable description of one session. Everything else
// (tmux name, container name, overlay path) is derived from it.
type Record struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ProjectPath string    `json:"project_path"`
	Tool        string    `json:"tool"`
	Command     []string  `json:"command,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Sandbox     *Info     `json:"sandbox,omitempty"`
}

// IsSandboxed reports whether the session runs inside a container.
func (r *Record) IsSandboxed() bool {
	return r.Sandbox != nil && r.Sandbox.Enabled
}
