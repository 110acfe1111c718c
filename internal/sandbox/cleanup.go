package sandbox

import (
	"context"
	"fmt"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/runtime"
)

// CleanupOptions configures session teardown.
type CleanupOptions struct {
	// KillSession kills the tmux session.
	KillSession bool

	// DestroySandbox stops and removes the container or compose project,
	// including the compose overlay.
	DestroySandbox bool

	// Force removes a running container and, in compose mode, the
	// project's volumes.
	Force bool

	// DeleteRecord removes the session record.
	DeleteRecord bool
}

// DefaultCleanupOptions returns options that tear everything down while
// keeping compose volumes.
func DefaultCleanupOptions() CleanupOptions {
	return CleanupOptions{
		KillSession:    true,
		DestroySandbox: true,
		DeleteRecord:   true,
	}
}

// CleanupResult lists the non-fatal problems met during teardown.
type CleanupResult struct {
	Warnings []string
}

func (r *CleanupResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Cleanup tears down the resources of rec. Teardown never fails: every
// problem is logged and reported in the result.
func (m *Manager) Cleanup(ctx context.Context, rec *Record, opts CleanupOptions) *CleanupResult {
	result := &CleanupResult{}
	logging.Debug("cleaning up session", "id", rec.ID, "options", fmt.Sprintf("%+v", opts))

	if opts.KillSession {
		if err := m.Session(rec).Kill(ctx); err != nil {
			logging.Warn("failed to kill tmux session", "id", rec.ID, "error", err)
			result.warn("failed to kill tmux session: %v", err)
			result.warn("session removed but may still be running in tmux")
		}
	}

	if opts.DestroySandbox && rec.IsSandboxed() {
		m.destroySandbox(ctx, rec, opts.Force, result)
	}

	if opts.DeleteRecord {
		if err := m.store.Delete(rec.ID); err != nil {
			logging.Warn("failed to remove session record", "id", rec.ID, "error", err)
			result.warn("failed to remove session record: %v", err)
		}
	}

	return result
}

// overlayCleaner is implemented by runtimes that own a generated file.
type overlayCleaner interface {
	CleanupOverlay() error
}

func (m *Manager) destroySandbox(ctx context.Context, rec *Record, force bool, result *CleanupResult) {
	rt, err := m.Runtime(rec)
	if err != nil {
		logging.Warn("cannot rebuild sandbox runtime", "id", rec.ID, "error", err)
		result.warn("failed to tear down sandbox: %v", err)
		return
	}

	compose := rec.Sandbox.Mode == runtime.ModeCompose

	if !rt.Exists(ctx) {
		logging.Debug("sandbox already gone", "name", rec.Sandbox.ContainerName)
		// The compose overlay can outlive the project.
		if cleaner, ok := rt.(overlayCleaner); ok {
			if err := cleaner.CleanupOverlay(); err != nil {
				logging.Warn("failed to remove compose overlay", "name", rec.Sandbox.ContainerName, "error", err)
				result.warn("failed to remove compose overlay: %v", err)
			}
		}
		return
	}

	// Compose Remove already brings the project down.
	if !compose && rt.IsRunning(ctx) {
		rt.Stop(ctx)
	}
	if err := rt.Remove(ctx, force); err != nil {
		logging.Warn("failed to remove sandbox", "name", rec.Sandbox.ContainerName, "error", err)
		result.warn("failed to remove sandbox %s: %v", rec.Sandbox.ContainerName, err)
	}
}
