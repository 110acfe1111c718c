package sandbox

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/progress"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/status"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/system"
)

const (
	testAppDir  = "/home/u/.config/agent-of-empires"
	testProject = "/home/u/proj"
	testID      = "abcd1234-5678-90ab-cdef-000000000000"
)

type testEnv struct {
	exec    *system.MockExecutor
	fs      *system.MockFS
	rt      *runtime.MockRuntime
	manager *Manager
}

// newTestEnv returns a manager whose sandbox is a MockRuntime and whose
// tmux sessions do not exist yet.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	exec := system.NewMockExecutor()
	exec.AddFailure("has-session", "can't find session", 1)
	mockFS := system.NewMockFS()
	mockFS.AddDir(testProject)

	cfg := config.Default()
	cfg.Sandbox.ExecOptions = "-w /workspace"

	rt := runtime.NewMockRuntime()
	m := NewManager(testAppDir, cfg, exec, mockFS, nil)
	m.newRuntime = func(*Record) (runtime.Runtime, error) { return rt, nil }
	m.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	m.lookupEnv = func(string) (string, bool) { return "", false }

	return &testEnv{exec: exec, fs: mockFS, rt: rt, manager: m}
}

func TestLaunch_Plain(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.manager.Launch(context.Background(), LaunchOptions{
		ID:          testID,
		ProjectPath: testProject,
	}, nil)
	if err != nil {
		t.Fatalf("Launch error: %v", err)
	}

	if result.SessionName != "aoe_proj_abcd1234" {
		t.Errorf("SessionName = %q", result.SessionName)
	}
	if result.PaneCommand != "claude" {
		t.Errorf("PaneCommand = %q", result.PaneCommand)
	}
	if !env.exec.Ran("tmux new-session -d -s aoe_proj_abcd1234 -c /home/u/proj claude") {
		t.Errorf("commands = %v", env.exec.CommandLines())
	}
	if len(env.rt.GetCalls()) != 0 {
		t.Errorf("runtime should not be used: %v", env.rt.GetCalls())
	}

	rec, err := env.manager.Store().Load(testID)
	if err != nil {
		t.Fatalf("record not saved: %v", err)
	}
	if rec.Title != "proj" || rec.Tool != "claude" || rec.IsSandboxed() {
		t.Errorf("record = %+v", rec)
	}
}

func TestLaunch_GeneratesID(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.manager.Launch(context.Background(), LaunchOptions{ProjectPath: testProject, Title: "x"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Record.ID) != 36 {
		t.Errorf("generated id = %q, want a UUID", result.Record.ID)
	}
}

func TestLaunch_Sandboxed(t *testing.T) {
	env := newTestEnv(t)
	env.manager.cfg.Sandbox.Environment = []string{"TERM=xterm-256color", "API_KEY"}

	var events []progress.Event
	sink := progress.FuncSink(func(ev progress.Event) { events = append(events, ev) })

	result, err := env.manager.Launch(context.Background(), LaunchOptions{
		ID:          testID,
		Title:       "My Project",
		ProjectPath: testProject,
		Command:     []string{"claude", "--message", "fix bug"},
		Sandbox:     true,
	}, sink)
	if err != nil {
		t.Fatalf("Launch error: %v", err)
	}

	wantPane := "mock exec -w /workspace claude --message 'fix bug'"
	if result.PaneCommand != wantPane {
		t.Errorf("PaneCommand = %q, want %q", result.PaneCommand, wantPane)
	}

	if len(env.rt.GetCallsFor("Create")) != 1 {
		t.Fatalf("Create calls = %v", env.rt.GetCalls())
	}
	cfg := env.rt.CreatedWith
	if cfg.WorkingDir != "/workspace" || cfg.Volumes[0].HostPath != testProject {
		t.Errorf("container config = %+v", cfg)
	}

	info := result.Record.Sandbox
	if info.ContainerID != "mock-container-id" || info.ContainerName != "aoe-sandbox-abcd1234" {
		t.Errorf("sandbox info = %+v", info)
	}
	if info.Image != config.DefaultImage || info.Mode != runtime.ModeDocker {
		t.Errorf("sandbox info = %+v", info)
	}
	if len(info.ExtraEnvKeys) != 1 || info.ExtraEnvKeys[0] != "API_KEY" || info.ExtraEnvValues["TERM"] != "xterm-256color" {
		t.Errorf("env split = %v / %v", info.ExtraEnvKeys, info.ExtraEnvValues)
	}
	if info.CreatedAt == nil {
		t.Error("CreatedAt should be set")
	}

	if !env.exec.Ran("docker version") {
		t.Error("availability probe should run")
	}
	if len(events) < 2 {
		t.Errorf("events = %+v", events)
	}
}

func TestLaunch_ComposeOverrides(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.manager.Launch(context.Background(), LaunchOptions{
		ID:          testID,
		ProjectPath: testProject,
		Sandbox:     true,
		Mode:        runtime.ModeCompose,
		Image:       "ubuntu:24.04",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	info := result.Record.Sandbox
	if info.Mode != runtime.ModeCompose || info.ContainerName != "aoe-abcd1234" || info.Image != "ubuntu:24.04" {
		t.Errorf("sandbox info = %+v", info)
	}
	if info.Compose == nil || info.Compose.AgentService != config.DefaultAgentService {
		t.Errorf("compose config = %+v", info.Compose)
	}
	if !env.exec.Ran("docker compose version") {
		t.Error("compose availability probe should run")
	}
}

func TestLaunch_RuntimeUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.exec.AddFailure("docker version", "Cannot connect to the Docker daemon", 1)

	_, err := env.manager.Launch(context.Background(), LaunchOptions{ID: testID, ProjectPath: testProject, Sandbox: true}, nil)
	if !errors.Is(err, errors.ErrRuntimeNotInstalled) {
		t.Fatalf("Launch error = %v, want RuntimeNotInstalled", err)
	}
	if env.exec.Ran("new-session") {
		t.Error("tmux session should not be created")
	}
}

func TestLaunch_ReusesRunningSandbox(t *testing.T) {
	env := newTestEnv(t)
	env.rt.Present, env.rt.Running = true, true

	if _, err := env.manager.Launch(context.Background(), LaunchOptions{ID: testID, ProjectPath: testProject, Sandbox: true}, nil); err != nil {
		t.Fatal(err)
	}
	if len(env.rt.GetCallsFor("Create")) != 0 {
		t.Error("running sandbox should be reused")
	}
}

func TestLaunch_ReplacesStoppedSandbox(t *testing.T) {
	env := newTestEnv(t)
	env.rt.Present = true

	if _, err := env.manager.Launch(context.Background(), LaunchOptions{ID: testID, ProjectPath: testProject, Sandbox: true}, nil); err != nil {
		t.Fatal(err)
	}
	removes := env.rt.GetCallsFor("Remove")
	if len(removes) != 1 || removes[0].Args[0] != true {
		t.Errorf("Remove calls = %v", removes)
	}
	if len(env.rt.GetCallsFor("Create")) != 1 {
		t.Error("stopped sandbox should be recreated")
	}
}

func TestLaunch_CreateFailure(t *testing.T) {
	env := newTestEnv(t)
	env.rt.SetError("Create", errors.CommandFailed("docker run", "no such image"))

	_, err := env.manager.Launch(context.Background(), LaunchOptions{ID: testID, ProjectPath: testProject, Sandbox: true}, nil)
	if !errors.Is(err, errors.ErrCommandFailed) {
		t.Fatalf("Launch error = %v", err)
	}
	if env.exec.Ran("new-session") {
		t.Error("tmux session should not be created")
	}
	if _, err := env.manager.Store().Load(testID); !errors.Is(err, errors.ErrSessionNotFound) {
		t.Error("record should not be saved")
	}
}

func TestLaunch_TmuxFailureRemovesSandbox(t *testing.T) {
	env := newTestEnv(t)
	env.exec.AddFailure("new-session", "server exited unexpectedly", 1)

	_, err := env.manager.Launch(context.Background(), LaunchOptions{ID: testID, ProjectPath: testProject, Sandbox: true}, nil)
	if !errors.Is(err, errors.ErrCommandFailed) {
		t.Fatalf("Launch error = %v", err)
	}
	if len(env.rt.GetCallsFor("Remove")) != 1 {
		t.Errorf("sandbox should be removed, calls = %v", env.rt.GetCalls())
	}
}

func TestLaunch_TmuxFailureKeepsReusedSandbox(t *testing.T) {
	env := newTestEnv(t)
	env.rt.Present, env.rt.Running = true, true
	env.exec.AddFailure("new-session", "server exited unexpectedly", 1)

	_, err := env.manager.Launch(context.Background(), LaunchOptions{ID: testID, ProjectPath: testProject, Sandbox: true}, nil)
	if !errors.Is(err, errors.ErrCommandFailed) {
		t.Fatalf("Launch error = %v", err)
	}
	if calls := env.rt.GetCallsFor("Remove"); len(calls) != 0 {
		t.Errorf("sandbox not created by this launch was removed: %v", calls)
	}
	if !env.rt.Running {
		t.Error("reused sandbox should still be running")
	}
}

func TestLaunch_InvalidProjectPath(t *testing.T) {
	env := newTestEnv(t)
	env.fs.AddFile("/home/u/file.txt", []byte("x"), 0644)

	for _, path := range []string{"", "/does/not/exist", "/home/u/file.txt"} {
		if _, err := env.manager.Launch(context.Background(), LaunchOptions{ProjectPath: path}, nil); err == nil {
			t.Errorf("Launch(%q) should fail", path)
		}
	}
}

func TestRuntime_NotSandboxed(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.manager.Runtime(&Record{ID: testID}); err == nil {
		t.Error("Runtime should fail for a plain session")
	}
}

func TestBuildRuntime_FromRecord(t *testing.T) {
	m := NewManager(t.TempDir(), nil, system.NewMockExecutor(), system.NewMockFS(), nil)

	rt, err := m.Runtime(&Record{ID: testID, ProjectPath: testProject, Sandbox: &Info{Enabled: true, Mode: runtime.ModeDocker, Image: "img"}})
	if err != nil {
		t.Fatal(err)
	}
	if dc, ok := rt.(*runtime.DockerContainer); !ok || dc.ContainerName != "aoe-sandbox-abcd1234" {
		t.Errorf("runtime = %#v", rt)
	}

	rt, err = m.Runtime(&Record{ID: testID, ProjectPath: testProject, Sandbox: &Info{
		Enabled: true, Mode: runtime.ModeCompose, Image: "img",
		Compose: &runtime.ComposeConfig{ComposeFiles: []string{"docker-compose.yml"}, AgentService: "aoe-agent"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if ce, ok := rt.(*runtime.ComposeEngine); !ok || ce.ProjectName != "aoe-abcd1234" {
		t.Errorf("runtime = %#v", rt)
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	env.exec.AddResponse("has-session", "")
	env.exec.AddResponse("capture-pane", "Thinking...\n")

	rec := &Record{ID: testID, Title: "proj", Tool: "claude"}
	if got := env.manager.Status(context.Background(), rec); got != status.Running {
		t.Errorf("Status() = %v, want Running", got)
	}
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()

	sandboxed := func() *Record {
		return &Record{ID: testID, Title: "proj", Sandbox: &Info{Enabled: true, ContainerName: "aoe-sandbox-abcd1234"}}
	}

	t.Run("full teardown", func(t *testing.T) {
		env := newTestEnv(t)
		env.exec.AddResponse("has-session", "")
		env.rt.Present, env.rt.Running = true, true
		rec := sandboxed()
		if err := env.manager.Store().Save(rec); err != nil {
			t.Fatal(err)
		}

		result := env.manager.Cleanup(ctx, rec, DefaultCleanupOptions())

		if len(result.Warnings) != 0 {
			t.Errorf("warnings = %v", result.Warnings)
		}
		if !env.exec.Ran("kill-session") {
			t.Error("tmux session should be killed")
		}
		if len(env.rt.GetCallsFor("Stop")) != 1 || len(env.rt.GetCallsFor("Remove")) != 1 {
			t.Errorf("runtime calls = %v", env.rt.GetCalls())
		}
		if _, err := env.manager.Store().Load(testID); !errors.Is(err, errors.ErrSessionNotFound) {
			t.Error("record should be deleted")
		}
	})

	t.Run("kill failure is a warning", func(t *testing.T) {
		env := newTestEnv(t)
		env.exec.AddResponse("has-session", "")
		env.exec.AddFailure("kill-session", "lost server", 1)
		env.rt.Present = true

		result := env.manager.Cleanup(ctx, sandboxed(), DefaultCleanupOptions())

		if len(result.Warnings) != 2 || !strings.Contains(result.Warnings[1], "may still be running in tmux") {
			t.Errorf("warnings = %v", result.Warnings)
		}
		if len(env.rt.GetCallsFor("Remove")) != 1 {
			t.Error("sandbox teardown should continue after a kill failure")
		}
	})

	t.Run("remove failure is a warning", func(t *testing.T) {
		env := newTestEnv(t)
		env.rt.Present = true
		env.rt.SetError("Remove", fmt.Errorf("device busy"))

		result := env.manager.Cleanup(ctx, sandboxed(), DefaultCleanupOptions())

		if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "device busy") {
			t.Errorf("warnings = %v", result.Warnings)
		}
	})

	t.Run("absent sandbox still cleans up", func(t *testing.T) {
		env := newTestEnv(t)

		result := env.manager.Cleanup(ctx, sandboxed(), DefaultCleanupOptions())

		if len(result.Warnings) != 0 {
			t.Errorf("warnings = %v", result.Warnings)
		}
		if len(env.rt.GetCallsFor("Stop")) != 0 {
			t.Error("absent sandbox should not be stopped")
		}
	})

	t.Run("plain session skips runtime", func(t *testing.T) {
		env := newTestEnv(t)
		env.manager.Cleanup(ctx, &Record{ID: testID, Title: "proj"}, DefaultCleanupOptions())
		if len(env.rt.GetCalls()) != 0 {
			t.Errorf("runtime calls = %v", env.rt.GetCalls())
		}
	})
}

func TestCleanup_RuntimeCommands(t *testing.T) {
	ctx := context.Background()

	composeRecord := func() *Record {
		return &Record{ID: testID, Title: "proj", ProjectPath: testProject, Sandbox: &Info{
			Enabled:       true,
			ContainerName: "aoe-abcd1234",
			Mode:          runtime.ModeCompose,
			Compose:       &runtime.ComposeConfig{ComposeFiles: []string{"docker-compose.yml"}, AgentService: "aoe-agent"},
		}}
	}
	countLines := func(exec *system.MockExecutor, substr string) int {
		n := 0
		for _, line := range exec.CommandLines() {
			if strings.Contains(line, substr) {
				n++
			}
		}
		return n
	}

	t.Run("running compose project is brought down once", func(t *testing.T) {
		env := newTestEnv(t)
		env.manager.newRuntime = env.manager.buildRuntime
		env.exec.AddResponse("ps --format json", `{"Service":"aoe-agent","State":"running"}`+"\n")

		result := env.manager.Cleanup(ctx, composeRecord(), CleanupOptions{DestroySandbox: true})

		if len(result.Warnings) != 0 {
			t.Errorf("warnings = %v", result.Warnings)
		}
		if n := countLines(env.exec, " down"); n != 1 {
			t.Errorf("compose down ran %d times, commands = %v", n, env.exec.CommandLines())
		}
	})

	t.Run("absent compose project only removes the overlay", func(t *testing.T) {
		env := newTestEnv(t)
		env.manager.newRuntime = env.manager.buildRuntime
		rec := composeRecord()
		rt, err := env.manager.Runtime(rec)
		if err != nil {
			t.Fatal(err)
		}
		overlay := rt.(*runtime.ComposeEngine).OverlayPath
		env.fs.AddFile(overlay, []byte("services: {}\n"), 0644)

		result := env.manager.Cleanup(ctx, rec, CleanupOptions{DestroySandbox: true})

		if len(result.Warnings) != 0 {
			t.Errorf("warnings = %v", result.Warnings)
		}
		if env.fs.Exists(overlay) {
			t.Error("overlay should be removed")
		}
		if n := countLines(env.exec, " down"); n != 0 {
			t.Errorf("compose down should not run, commands = %v", env.exec.CommandLines())
		}
	})

	t.Run("absent container is not removed", func(t *testing.T) {
		env := newTestEnv(t)
		env.manager.newRuntime = env.manager.buildRuntime
		env.exec.AddFailure("container inspect", "No such container", 1)
		rec := &Record{ID: testID, Title: "proj", ProjectPath: testProject, Sandbox: &Info{
			Enabled: true, ContainerName: "aoe-sandbox-abcd1234", Mode: runtime.ModeDocker,
		}}

		result := env.manager.Cleanup(ctx, rec, CleanupOptions{DestroySandbox: true})

		if len(result.Warnings) != 0 {
			t.Errorf("warnings = %v", result.Warnings)
		}
		if env.exec.Ran("docker rm") || env.exec.Ran("docker stop") {
			t.Errorf("commands = %v", env.exec.CommandLines())
		}
	})

	t.Run("running container is stopped then removed", func(t *testing.T) {
		env := newTestEnv(t)
		env.manager.newRuntime = env.manager.buildRuntime
		env.exec.AddResponse("container inspect", "true\n")
		rec := &Record{ID: testID, Title: "proj", ProjectPath: testProject, Sandbox: &Info{
			Enabled: true, ContainerName: "aoe-sandbox-abcd1234", Mode: runtime.ModeDocker,
		}}

		env.manager.Cleanup(ctx, rec, CleanupOptions{DestroySandbox: true, Force: true})

		if !env.exec.Ran("docker stop aoe-sandbox-abcd1234") || !env.exec.Ran("docker rm -f aoe-sandbox-abcd1234") {
			t.Errorf("commands = %v", env.exec.CommandLines())
		}
	})
}

func TestSplitEnvironment(t *testing.T) {
	keys, values := splitEnvironment([]string{"A=1", "B", "C=x=y", "D"})
	if strings.Join(keys, ",") != "B,D" {
		t.Errorf("keys = %v", keys)
	}
	if values["A"] != "1" || values["C"] != "x=y" || len(values) != 2 {
		t.Errorf("values = %v", values)
	}

	keys, values = splitEnvironment(nil)
	if keys != nil || values != nil {
		t.Errorf("empty input = %v, %v", keys, values)
	}
}

func TestUp(t *testing.T) {
	env := newTestEnv(t)
	rec := &Record{ID: testID, Title: "proj", ProjectPath: testProject, Sandbox: &Info{Enabled: true, Mode: runtime.ModeDocker}}

	if err := env.manager.Up(context.Background(), rec, nil); err != nil {
		t.Fatalf("Up error: %v", err)
	}
	if len(env.rt.GetCallsFor("Create")) != 1 {
		t.Errorf("Create calls = %v", env.rt.GetCalls())
	}
	saved, err := env.manager.Store().Load(testID)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Sandbox.ContainerID != "mock-container-id" || saved.Sandbox.CreatedAt == nil {
		t.Errorf("saved sandbox = %+v", saved.Sandbox)
	}

	if err := env.manager.Up(context.Background(), rec, nil); err != nil {
		t.Fatal(err)
	}
	if len(env.rt.GetCallsFor("Create")) != 1 {
		t.Error("running sandbox should not be recreated")
	}
}

func TestUp_PlainSession(t *testing.T) {
	env := newTestEnv(t)
	if err := env.manager.Up(context.Background(), &Record{ID: testID}, nil); err == nil {
		t.Error("Up should fail for a plain session")
	}
}

func TestDown_KeepsSessionAndRecord(t *testing.T) {
	env := newTestEnv(t)
	env.exec.AddResponse("has-session", "")
	env.rt.Present, env.rt.Running = true, true
	rec := &Record{ID: testID, Title: "proj", Sandbox: &Info{Enabled: true}}
	if err := env.manager.Store().Save(rec); err != nil {
		t.Fatal(err)
	}

	result := env.manager.Down(context.Background(), rec, true)

	if len(result.Warnings) != 0 {
		t.Errorf("warnings = %v", result.Warnings)
	}
	removes := env.rt.GetCallsFor("Remove")
	if len(removes) != 1 || removes[0].Args[0] != true {
		t.Errorf("Remove calls = %v", removes)
	}
	if env.exec.Ran("kill-session") {
		t.Error("tmux session should be kept")
	}
	if _, err := env.manager.Store().Load(testID); err != nil {
		t.Errorf("record should be kept: %v", err)
	}
}
