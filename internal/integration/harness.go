package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/system"
)

// EnvVar enables the integration tests when set to "1".
const EnvVar = "AOE_INTEGRATION_TESTS"

const probeTimeout = 10 * time.Second

// Harness provides utilities for integration testing with real containers.
type Harness struct {
	t          *testing.T
	appDir     string
	projectDir string
	exec       system.CommandExecutor
	runtimes   []runtime.Runtime // Track created sandboxes for cleanup
}

// NewHarness creates a new test harness. It skips the test unless EnvVar
// is "1" and the docker daemon is reachable.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	if os.Getenv(EnvVar) != "1" {
		t.Skipf("integration tests disabled (set %s=1 to enable)", EnvVar)
	}

	exec := system.DefaultExecutor()
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := runtime.CheckDockerAvailable(ctx, exec); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	tempDir := t.TempDir()
	h := &Harness{
		t:          t,
		appDir:     filepath.Join(tempDir, "app"),
		projectDir: filepath.Join(tempDir, "project"),
		exec:       exec,
	}
	for _, dir := range []string{h.appDir, h.projectDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	t.Cleanup(h.Cleanup)
	return h
}

// AppDir returns the temporary application directory.
func (h *Harness) AppDir() string {
	return h.appDir
}

// ProjectDir returns the temporary project directory.
func (h *Harness) ProjectDir() string {
	return h.projectDir
}

// Exec returns the real command executor.
func (h *Harness) Exec() system.CommandExecutor {
	return h.exec
}

// SessionID returns a fresh session id whose short form is unique.
func (h *Harness) SessionID() string {
	return uuid.NewString()
}

// Docker returns a tracked direct container runtime for id.
func (h *Harness) Docker(id, image string) *runtime.DockerContainer {
	c := runtime.NewDockerContainer(h.exec, id, image)
	h.Track(c)
	return c
}

// Compose returns a tracked compose runtime for id rooted at the project dir.
func (h *Harness) Compose(id string, cfg runtime.ComposeConfig, image string) *runtime.ComposeEngine {
	h.t.Helper()
	e, err := runtime.NewComposeEngine(h.exec, system.DefaultFS(), id, h.projectDir, cfg, h.appDir, image)
	if err != nil {
		h.t.Fatalf("NewComposeEngine: %v", err)
	}
	h.Track(e)
	return e
}

// WriteProjectFile writes content to name inside the project dir.
func (h *Harness) WriteProjectFile(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.projectDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		h.t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// Track registers rt for removal on cleanup.
func (h *Harness) Track(rt runtime.Runtime) {
	h.runtimes = append(h.runtimes, rt)
}

// Cleanup force-removes every tracked sandbox.
func (h *Harness) Cleanup() {
	ctx := context.Background()
	for _, rt := range h.runtimes {
		if !rt.Exists(ctx) {
			continue
		}
		if err := rt.Remove(ctx, true); err != nil {
			h.t.Logf("Warning: failed to remove sandbox: %v", err)
		}
	}
}

// WorkspaceConfig returns a container config that only sets the working
// directory.
func WorkspaceConfig() *runtime.ContainerConfig {
	return &runtime.ContainerConfig{WorkingDir: "/workspace"}
}
