// Package app provides the application context for aoe-ctl.
// It allows dependency injection for testing.
package app

import (
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/multiplexer"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/sandbox"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/system"
)

// App holds the application dependencies
type App struct {
	// AppDir is the application directory holding config.toml, session
	// records, compose overlays and locks.
	AppDir string

	// Config is the loaded configuration
	Config *config.Config

	Exec system.CommandExecutor
	FS   system.FileSystem

	// Cache is the shared tmux session listing.
	Cache *multiplexer.ListCache

	// Manager runs the session and sandbox flows.
	Manager *sandbox.Manager
}

// Option is a function that configures the App
type Option func(*App)

// WithAppDir sets a custom application directory
func WithAppDir(dir string) Option {
	return func(a *App) {
		a.AppDir = dir
	}
}

// WithConfig sets a configuration instead of loading config.toml
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithExecutor sets a custom command executor
func WithExecutor(exec system.CommandExecutor) Option {
	return func(a *App) {
		a.Exec = exec
	}
}

// WithFS sets a custom filesystem
func WithFS(fsys system.FileSystem) Option {
	return func(a *App) {
		a.FS = fsys
	}
}

// New creates a new App with the given options. The application directory
// defaults to config.AppDir and the configuration is loaded from it unless
// WithConfig is given.
func New(opts ...Option) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}

	if a.AppDir == "" {
		dir, err := config.AppDir()
		if err != nil {
			return nil, err
		}
		a.AppDir = dir
	}
	if a.Config == nil {
		cfg, err := config.Load(a.AppDir)
		if err != nil {
			return nil, err
		}
		a.Config = cfg
	}
	if a.Exec == nil {
		a.Exec = system.DefaultExecutor()
	}
	if a.FS == nil {
		a.FS = system.DefaultFS()
	}

	a.Cache = multiplexer.NewListCache(a.Exec)
	a.Manager = sandbox.NewManager(a.AppDir, a.Config, a.Exec, a.FS, a.Cache)
	return a, nil
}

// Default is the application instance used by the CLI. It is nil until
// the CLI builds one.
var Default *App

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault clears the default application instance
func ResetDefault() {
	Default = nil
}
