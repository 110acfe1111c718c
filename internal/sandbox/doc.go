// Package sandbox provides session and sandbox lifecycle management for aoe-ctl.
//
// # Manager
//
// Manager ties a tmux session, an optional container sandbox and a session
// record together:
//
//	m := sandbox.NewManager(appDir, cfg, nil, nil, multiplexer.NewListCache(exec))
//
//	result, err := m.Launch(ctx, sandbox.LaunchOptions{
//	    ProjectPath: "/path/to/project",
//	    Tool:        "claude",
//	    Sandbox:     true,
//	}, sink)
//
// # Launch Flow
//
// Manager.Launch:
//  1. Validates the project path and fills in id, title and tool defaults
//  2. Probes docker (or docker compose) availability
//  3. Creates the container, or the compose overlay and project
//  4. Builds the pane command: the runtime's interactive exec command
//     followed by the shell-quoted agent argv
//  5. Creates the tmux session with that pane command
//  6. Saves the session record under <app-dir>/sessions
//
// If the tmux session cannot be created, a sandbox started in step 3 is
// removed again.
//
// # Cleanup
//
// Manager.Cleanup kills the tmux session, stops and removes the sandbox,
// removes the compose overlay and deletes the record. None of these steps
// abort the others; failures come back as warnings.
package sandbox
