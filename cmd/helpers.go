package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/progress"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/sandbox"
)

var (
	stepStyle   = lipgloss.NewStyle().Bold(true)
	outputStyle = lipgloss.NewStyle().Faint(true)
)

// getApp returns the application context, building it from the
// --app-dir flag on first use.
func getApp() (*app.App, error) {
	if app.Default != nil {
		return app.Default, nil
	}
	a, err := app.New(app.WithAppDir(appDirFlag))
	if err != nil {
		return nil, err
	}
	app.SetDefault(a)
	return a, nil
}

// resolveSession loads the record named by identifier (id, id prefix or
// title).
func resolveSession(identifier string) (*app.App, *sandbox.Record, error) {
	a, err := getApp()
	if err != nil {
		return nil, nil, err
	}
	rec, err := a.Manager.Store().Resolve(identifier)
	if err != nil {
		return nil, nil, err
	}
	return a, rec, nil
}

// withSessionLock runs fn while holding the lock for session id.
func withSessionLock(ctx context.Context, a *app.App, id string, fn func() error) error {
	lock, err := a.LockSession(ctx, id)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.Debug("failed to release session lock", "id", id, "error", err)
		}
	}()
	return fn()
}

// progressSink prints step labels and dimmed command output to w.
func progressSink(w io.Writer) progress.Sink {
	return progress.FuncSink(func(ev progress.Event) {
		switch ev.Kind {
		case progress.KindStepStarted:
			fmt.Fprintln(w, stepStyle.Render("→ "+ev.Text))
		case progress.KindOutput:
			fmt.Fprintln(w, outputStyle.Render("  "+ev.Text))
		}
	})
}

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		logWarning("%s", w)
	}
}
