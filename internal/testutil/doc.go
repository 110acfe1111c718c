// Package testutil provides test fixtures and a mock application
// environment for command tests.
//
// NewTestEnv builds an app.App over a MockExecutor and temporary app and
// project directories and installs it as app.Default for the test:
//
//	env := testutil.NewTestEnv(t)
//	env.SessionAlive()
//	env.Exec.AddResponse("capture-pane", "Thinking...\n")
//
// # Fixtures
//
// Fixtures are embedded using go:embed:
//
//	fixtures/sandboxed_record.json
//	fixtures/compose_config.toml
//
//	rec, err := testutil.SandboxedRecord()
//	cfg, err := testutil.ComposeConfig()
package testutil
