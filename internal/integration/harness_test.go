package integration

import "testing"

func TestNewHarness_SkipsWhenDisabled(t *testing.T) {
	t.Setenv(EnvVar, "")

	t.Run("disabled", func(t *testing.T) {
		NewHarness(t)
		t.Error("NewHarness should skip when integration tests are disabled")
	})
}

func TestWorkspaceConfig(t *testing.T) {
	cfg := WorkspaceConfig()
	if cfg.WorkingDir != "/workspace" {
		t.Errorf("WorkingDir = %q", cfg.WorkingDir)
	}
	if cfg.HasLimits() || len(cfg.Volumes) != 0 {
		t.Errorf("config should be minimal: %+v", cfg)
	}
}
