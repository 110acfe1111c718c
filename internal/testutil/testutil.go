// Package testutil provides test utilities shared by command tests
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/sandbox"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/system"
)

// TestEnv holds the test environment
type TestEnv struct {
	T *testing.T

	TmpDir     string
	AppDir     string
	ProjectDir string

	Exec *system.MockExecutor
	App  *app.App
}

// NewTestEnv creates a test environment whose commands go to a
// MockExecutor. The app becomes app.Default until the test ends. Every
// tmux session starts out absent.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return NewTestEnvWithConfig(t, config.Default())
}

// NewTestEnvWithConfig is NewTestEnv with a custom configuration.
func NewTestEnvWithConfig(t *testing.T, cfg *config.Config) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()
	env := &TestEnv{
		T:          t,
		TmpDir:     tmpDir,
		AppDir:     filepath.Join(tmpDir, "app"),
		ProjectDir: filepath.Join(tmpDir, "project"),
		Exec:       system.NewMockExecutor(),
	}
	for _, dir := range []string{env.AppDir, env.ProjectDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
	env.Exec.AddFailure("has-session", "can't find session", 1)

	testApp, err := app.New(
		app.WithAppDir(env.AppDir),
		app.WithConfig(cfg),
		app.WithExecutor(env.Exec),
	)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	env.App = testApp

	originalDefault := app.Default
	app.SetDefault(testApp)
	t.Cleanup(func() { app.SetDefault(originalDefault) })

	return env
}

// AddRecord saves rec, pointing it at the project dir when it has none.
func (e *TestEnv) AddRecord(rec *sandbox.Record) *sandbox.Record {
	e.T.Helper()
	if rec.ProjectPath == "" {
		rec.ProjectPath = e.ProjectDir
	}
	if err := e.App.Manager.Store().Save(rec); err != nil {
		e.T.Fatalf("Failed to save session record: %v", err)
	}
	return rec
}

// GetRecord loads the record for id, or nil when there is none.
func (e *TestEnv) GetRecord(id string) *sandbox.Record {
	rec, err := e.App.Manager.Store().Load(id)
	if err != nil {
		return nil
	}
	return rec
}

// SessionAlive makes every has-session query succeed.
func (e *TestEnv) SessionAlive() {
	e.Exec.AddResponse("has-session", "")
}
