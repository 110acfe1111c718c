//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/progress"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/runtime"
)

const composeFixture = `services:
  web:
    image: nginx:alpine
  aoe-agent:
    image: alpine:latest
    depends_on:
      - web
`

func TestComposeEngine_Lifecycle(t *testing.T) {
	h := NewHarness(t)
	ctx := context.Background()
	if err := runtime.CheckComposeAvailable(ctx, h.Exec()); err != nil {
		t.Skipf("docker compose not available: %v", err)
	}

	h.WriteProjectFile("docker-compose.yml", composeFixture)
	e := h.Compose(h.SessionID(), runtime.ComposeConfig{
		ComposeFiles: []string{"docker-compose.yml"},
		AgentService: "aoe-agent",
	}, testImage)

	if err := e.GenerateOverlay(WorkspaceConfig(), testImage); err != nil {
		t.Fatalf("GenerateOverlay: %v", err)
	}
	if _, err := os.Stat(e.OverlayPath); err != nil {
		t.Fatalf("overlay not written: %v", err)
	}

	events := make(chan progress.Event, 256)
	if err := e.Up(ctx, progress.NewChanSink(events)); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if len(events) == 0 {
		t.Error("Up should emit progress events")
	}

	if !e.IsRunning(ctx) || !e.Exists(ctx) {
		t.Fatal("agent service should be running after up")
	}

	e.Down(ctx, true, nil)
	if e.Exists(ctx) {
		t.Error("agent service should be gone after down")
	}

	if err := e.CleanupOverlay(); err != nil {
		t.Fatalf("CleanupOverlay: %v", err)
	}
	if _, err := os.Stat(e.OverlayPath); !os.IsNotExist(err) {
		t.Error("overlay should be removed")
	}
}
