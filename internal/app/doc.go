// Package app provides the application context for aoe-ctl.
//
// The App struct holds the shared dependencies of every command: the
// application directory, the loaded configuration, the command executor
// and filesystem, the tmux session cache and the session manager built
// from them.
//
//	// Production usage
//	a, err := app.New(app.WithAppDir(dir))
//
//	// Testing with mocks
//	a, err := app.New(
//	    app.WithAppDir(t.TempDir()),
//	    app.WithConfig(config.Default()),
//	    app.WithExecutor(mockExec),
//	)
//	app.SetDefault(a)
//
// LockSession takes a per-session flock under <app-dir>/locks so that two
// aoe-ctl processes never run lifecycle operations on one session at the
// same time.
package app
