// Package runtime provides the container sandbox backends for aoe-ctl.
//
// Supported backends:
//   - docker: a single `docker run -d ... sleep infinity` container named
//     aoe-sandbox-<short id>
//   - compose: the agent service of a docker compose project aoe-<short id>,
//     extended with a generated overlay file
//
// The backend is chosen once, by New, from the session's configuration.
// Everything after that goes through the Runtime interface.
//
// # Runtime Interface
//
//   - Create, Stop, Remove: sandbox lifecycle
//   - Exists, IsRunning: infallible state queries (query failures read as false)
//   - Exec: non-interactive command execution with captured output
//   - ExecCommand: shell string for an interactive exec, used as a tmux pane command
//
// # Compose Overlays
//
// The overlay for project P lives at <app-dir>/compose-overlays/P.override.yaml.
// It is written to a temporary sibling and renamed into place, so readers
// never observe a partial file. The overlay is always passed as the last -f
// argument so it overrides the user's definition of the agent service.
//
// # Failure Policy
//
// Creation failures are returned. Teardown failures (compose down, docker
// stop) are logged at warning level and swallowed.
//
// # Mock Runtime
//
// For testing, use NewMockRuntime() to create a mock implementation that can
// be configured with state and injected errors and used to verify calls.
package runtime
