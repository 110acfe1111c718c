package runtime

import (
	"context"
	"fmt"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/system"
)

// Mode identifies which sandbox backend to use
type Mode string

const (
	ModeDocker  Mode = "docker"
	ModeCompose Mode = "compose"
)

// Options holds everything needed to rebuild a session's runtime.
type Options struct {
	Mode        Mode
	SessionID   string
	ProjectPath string
	AppDir      string
	Image       string
	Compose     ComposeConfig

	// Exec and FS default to the system implementations when nil.
	Exec system.CommandExecutor
	FS   system.FileSystem
}

// New builds the runtime variant selected by opts.Mode. The choice is made
// once here; callers only see the Runtime interface.
func New(opts Options) (Runtime, error) {
	exec := opts.Exec
	if exec == nil {
		exec = system.DefaultExecutor()
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = system.DefaultFS()
	}

	logging.Debug("selecting sandbox runtime", "mode", opts.Mode, "session", opts.SessionID)

	switch opts.Mode {
	case ModeDocker, "":
		return NewDockerContainer(exec, opts.SessionID, opts.Image), nil
	case ModeCompose:
		engine, err := NewComposeEngine(exec, fsys, opts.SessionID, opts.ProjectPath, opts.Compose, opts.AppDir, opts.Image)
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, errors.ValidationError(fmt.Sprintf("unknown sandbox mode: %s", opts.Mode))
	}
}

// CheckAvailable runs the availability probe for mode.
func CheckAvailable(ctx context.Context, mode Mode, exec system.CommandExecutor) error {
	if mode == ModeCompose {
		return CheckComposeAvailable(ctx, exec)
	}
	return CheckDockerAvailable(ctx, exec)
}
