package sandbox

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/multiplexer"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/naming"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/progress"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/status"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/system"
)

// Manager wires sessions, sandboxes and the record store together.
type Manager struct {
	appDir     string
	cfg        *config.Config
	exec       system.CommandExecutor
	fs         system.FileSystem
	cache      multiplexer.SessionCache
	classifier *status.Classifier
	store      *Store

	// Replaced in tests.
	newRuntime func(rec *Record) (runtime.Runtime, error)
	lookupEnv  func(string) (string, bool)
	now        func() time.Time
}

// NewManager returns a manager for appDir. exec, fsys and cache may be
// nil; the system defaults are used and existence checks go to tmux.
func NewManager(appDir string, cfg *config.Config, exec system.CommandExecutor, fsys system.FileSystem, cache multiplexer.SessionCache) *Manager {
	if cfg == nil {
		cfg = config.Default()
	}
	if exec == nil {
		exec = system.DefaultExecutor()
	}
	if fsys == nil {
		fsys = system.DefaultFS()
	}
	m := &Manager{
		appDir:     appDir,
		cfg:        cfg,
		exec:       exec,
		fs:         fsys,
		cache:      cache,
		classifier: cfg.Classifier(),
		store:      NewStore(appDir, fsys),
		now:        time.Now,
	}
	m.newRuntime = m.buildRuntime
	return m
}

// Store returns the session record store.
func (m *Manager) Store() *Store {
	return m.store
}

// Classifier returns the status classifier built from the configuration.
func (m *Manager) Classifier() *status.Classifier {
	return m.classifier
}

// Session returns the tmux handle for rec.
func (m *Manager) Session(rec *Record) *multiplexer.Session {
	return multiplexer.NewSession(rec.ID, rec.Title, m.exec, m.cache)
}

// Runtime rebuilds the sandbox runtime for rec.
func (m *Manager) Runtime(rec *Record) (runtime.Runtime, error) {
	if !rec.IsSandboxed() {
		return nil, errors.ValidationError(fmt.Sprintf("session %s is not sandboxed", rec.ID))
	}
	return m.newRuntime(rec)
}

func (m *Manager) buildRuntime(rec *Record) (runtime.Runtime, error) {
	opts := runtime.Options{
		Mode:        rec.Sandbox.Mode,
		SessionID:   rec.ID,
		ProjectPath: rec.ProjectPath,
		AppDir:      m.appDir,
		Image:       rec.Sandbox.Image,
		Exec:        m.exec,
		FS:          m.fs,
	}
	if rec.Sandbox.Compose != nil {
		opts.Compose = *rec.Sandbox.Compose
	}
	return runtime.New(opts)
}

// Status classifies what the session's agent is doing.
func (m *Manager) Status(ctx context.Context, rec *Record) status.Status {
	return m.Session(rec).DetectStatus(ctx, rec.Tool, m.classifier)
}

// Launch creates the sandbox (when requested) and the tmux session whose
// pane runs the agent, then saves the session record. A sandbox created
// here is removed again if the tmux session cannot be started.
func (m *Manager) Launch(ctx context.Context, opts LaunchOptions, sink progress.Sink) (*LaunchResult, error) {
	rec, err := m.newRecord(opts)
	if err != nil {
		return nil, err
	}
	logging.Debug("launching session", "id", rec.ID, "title", rec.Title, "sandbox", opts.Sandbox)

	paneCmd := shellquote.Join(rec.Command...)

	var rt runtime.Runtime
	var created bool
	if opts.Sandbox {
		rt, created, err = m.startSandbox(ctx, rec, opts, sink)
		if err != nil {
			return nil, err
		}
		paneCmd = rt.ExecCommand(m.cfg.Sandbox.ExecOptions) + " " + paneCmd
	}

	session := m.Session(rec)
	progress.Emit(sink, progress.StepStarted(progress.SourceSystem, "tmux new-session"))
	if err := session.Create(ctx, rec.ProjectPath, paneCmd); err != nil {
		if created {
			logging.Debug("removing sandbox after failed session start", "id", rec.ID)
			if rmErr := rt.Remove(ctx, true); rmErr != nil {
				logging.Warn("failed to remove sandbox", "id", rec.ID, "error", rmErr)
			}
		}
		return nil, err
	}

	if err := m.store.Save(rec); err != nil {
		return nil, err
	}

	return &LaunchResult{
		SessionName: session.Name(),
		PaneCommand: paneCmd,
		Record:      rec,
	}, nil
}

func (m *Manager) newRecord(opts LaunchOptions) (*Record, error) {
	if opts.ProjectPath == "" {
		return nil, errors.ValidationError("project path is required")
	}
	projectPath, err := filepath.Abs(opts.ProjectPath)
	if err != nil {
		return nil, errors.IOError("invalid project path", err)
	}
	info, err := m.fs.Stat(projectPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.ValidationError(fmt.Sprintf("project path does not exist: %s", projectPath))
		}
		return nil, errors.IOError("failed to stat project path", err)
	}
	if !info.IsDir() {
		return nil, errors.ValidationError(fmt.Sprintf("project path is not a directory: %s", projectPath))
	}

	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	title := opts.Title
	if title == "" {
		title = filepath.Base(projectPath)
	}
	tool := opts.Tool
	if tool == "" {
		tool = m.cfg.Session.DefaultTool
	}
	command := opts.Command
	if len(command) == 0 {
		command = []string{tool}
	}

	return &Record{
		ID:          id,
		Title:       title,
		ProjectPath: projectPath,
		Tool:        tool,
		Command:     command,
		CreatedAt:   m.now().UTC(),
	}, nil
}

// startSandbox fills in rec.Sandbox and makes sure its container is up.
// created reports whether the container was created by this call.
func (m *Manager) startSandbox(ctx context.Context, rec *Record, opts LaunchOptions, sink progress.Sink) (rt runtime.Runtime, created bool, err error) {
	sb := &m.cfg.Sandbox

	mode := opts.Mode
	if mode == "" {
		mode = runtime.Mode(sb.Mode)
	}
	image := opts.Image
	if image == "" {
		image = sb.Image
	}

	info := &Info{Enabled: true, Image: image, Mode: mode}
	if mode == runtime.ModeCompose {
		compose := sb.Compose
		info.Compose = &compose
		info.ContainerName = naming.ComposeProject(rec.ID)
	} else {
		info.ContainerName = naming.ContainerName(rec.ID)
	}
	info.ExtraEnvKeys, info.ExtraEnvValues = splitEnvironment(sb.Environment)
	rec.Sandbox = info

	if err := runtime.CheckAvailable(ctx, mode, m.exec); err != nil {
		return nil, false, err
	}

	rt, err = m.Runtime(rec)
	if err != nil {
		return nil, false, err
	}
	created, err = m.ensureRunning(ctx, rec, rt, sink)
	if err != nil {
		return nil, false, err
	}
	return rt, created, nil
}

// Up starts the sandbox of an existing session and saves the updated
// record. A running sandbox is left alone.
func (m *Manager) Up(ctx context.Context, rec *Record, sink progress.Sink) error {
	rt, err := m.Runtime(rec)
	if err != nil {
		return err
	}
	if err := runtime.CheckAvailable(ctx, rec.Sandbox.Mode, m.exec); err != nil {
		return err
	}
	if _, err := m.ensureRunning(ctx, rec, rt, sink); err != nil {
		return err
	}
	return m.store.Save(rec)
}

// ensureRunning reuses a running sandbox, replaces a stopped one and
// otherwise creates it, recording the container id on rec. It reports
// whether a container was created.
func (m *Manager) ensureRunning(ctx context.Context, rec *Record, rt runtime.Runtime, sink progress.Sink) (bool, error) {
	info := rec.Sandbox
	if rt.IsRunning(ctx) {
		logging.Debug("sandbox already running", "name", info.ContainerName)
		return false, nil
	}
	if rt.Exists(ctx) {
		logging.Debug("replacing stopped sandbox", "name", info.ContainerName)
		if err := rt.Remove(ctx, true); err != nil {
			return false, err
		}
	}

	containerID, err := rt.Create(ctx, m.cfg.Sandbox.ContainerConfig(rec.ProjectPath, m.lookupEnv), sink)
	if err != nil {
		return false, err
	}
	createdAt := m.now().UTC()
	info.ContainerID = containerID
	info.CreatedAt = &createdAt
	return true, nil
}

// Down stops and removes the sandbox of rec, keeping the tmux session and
// the record. force also removes compose volumes.
func (m *Manager) Down(ctx context.Context, rec *Record, force bool) *CleanupResult {
	return m.Cleanup(ctx, rec, CleanupOptions{DestroySandbox: true, Force: force})
}

// splitEnvironment separates pass-through names from literal assignments.
func splitEnvironment(entries []string) ([]string, map[string]string) {
	var keys []string
	var values map[string]string
	for _, entry := range entries {
		key, value, literal := strings.Cut(entry, "=")
		if !literal {
			keys = append(keys, key)
			continue
		}
		if values == nil {
			values = make(map[string]string)
		}
		values[key] = value
	}
	return keys, values
}
