package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/multiplexer"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/naming"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/sandbox"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/tui"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Interactive session picker",
	Long: `Opens an interactive TUI listing the live aoe_ tmux sessions.

Use arrow keys or j/k to navigate, / to filter.

Actions:
  Enter  - Attach to selected session
  d      - Remove selected session (tmux session, sandbox and record)
  q/Esc  - Quit`,
	RunE: runPick,
}

var pickPlain bool

func init() {
	pickCmd.Flags().BoolVar(&pickPlain, "plain", false, "Print the session list instead of opening the picker")
	rootCmd.AddCommand(pickCmd)
}

// pickerEntries pairs every live aoe_ tmux session with its record.
func pickerEntries(cmd *cobra.Command, a *app.App) ([]*tui.Entry, map[string]*sandbox.Record, error) {
	records, err := a.Manager.Store().List()
	if err != nil {
		return nil, nil, err
	}
	byName := make(map[string]*sandbox.Record, len(records))
	for _, rec := range records {
		byName[naming.SessionName(rec.ID, rec.Title)] = rec
	}

	var entries []*tui.Entry
	for _, name := range a.Cache.ListSessions(cmd.Context()) {
		if !naming.IsManagedSession(name) {
			continue
		}
		entry := &tui.Entry{SessionName: name}
		if rec, ok := byName[name]; ok {
			entry.ID = rec.ID
			entry.Title = rec.Title
			entry.Tool = rec.Tool
			entry.Sandboxed = rec.IsSandboxed()
			entry.Status = a.Manager.Status(cmd.Context(), rec)
		} else {
			entry.Status = multiplexer.SessionFromName(name, a.Exec, a.Cache).DetectStatus(cmd.Context(), "", a.Manager.Classifier())
		}
		entries = append(entries, entry)
	}
	return entries, byName, nil
}

func runPick(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}

	logging.Debug("picker mode started")

	entries, records, err := pickerEntries(cmd, a)
	if err != nil {
		return err
	}

	if pickPlain {
		fmt.Fprint(cmd.OutOrStdout(), tui.SimplePicker(entries))
		return nil
	}

	if len(entries) == 0 {
		logInfo("No sessions running. Start one with: aoe-ctl new <dir>")
		return nil
	}

	result, err := tui.RunPicker(entries)
	if err != nil {
		return fmt.Errorf("picker error: %w", err)
	}

	logging.Debug("picker result", "action", result.Action)

	switch result.Action {
	case tui.ActionAttach:
		if result.Entry != nil {
			return multiplexer.SessionFromName(result.Entry.SessionName, a.Exec, a.Cache).Attach(cmd.Context())
		}

	case tui.ActionKill:
		if result.Entry == nil {
			return nil
		}
		if rec, ok := records[result.Entry.SessionName]; ok {
			return removeSession(cmd, a, rec, sandbox.DefaultCleanupOptions())
		}
		if err := multiplexer.SessionFromName(result.Entry.SessionName, a.Exec, a.Cache).Kill(cmd.Context()); err != nil {
			return err
		}
		logSuccess("Killed tmux session %s", result.Entry.SessionName)

	case tui.ActionQuit:
		// Just exit cleanly
	}

	return nil
}
