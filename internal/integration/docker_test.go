//go:build integration

package integration

import (
	"context"
	"strings"
	"testing"
)

const testImage = "alpine:latest"

func TestDockerContainer_Lifecycle(t *testing.T) {
	h := NewHarness(t)
	ctx := context.Background()
	c := h.Docker(h.SessionID(), testImage)

	if c.Exists(ctx) {
		t.Fatal("container should not exist before create")
	}

	id, err := c.Create(ctx, WorkspaceConfig(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Error("Create should return a container id")
	}
	if !c.Exists(ctx) || !c.IsRunning(ctx) {
		t.Fatal("container should be running after create")
	}

	result, err := c.Exec(ctx, []string{"pwd"})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "/workspace" {
		t.Errorf("pwd = %q", result.Stdout)
	}

	c.Stop(ctx)
	if !c.Exists(ctx) || c.IsRunning(ctx) {
		t.Fatal("stopped container should exist but not run")
	}

	if err := c.Remove(ctx, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if c.Exists(ctx) {
		t.Error("container should be gone after remove")
	}
}

func TestDockerContainer_ForceRemove(t *testing.T) {
	h := NewHarness(t)
	ctx := context.Background()
	c := h.Docker(h.SessionID(), testImage)

	if _, err := c.Create(ctx, WorkspaceConfig(), nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !c.IsRunning(ctx) {
		t.Fatal("container should be running")
	}

	if err := c.Remove(ctx, true); err != nil {
		t.Fatalf("Remove(force): %v", err)
	}
	if c.Exists(ctx) {
		t.Error("container should be gone after force remove")
	}
}
