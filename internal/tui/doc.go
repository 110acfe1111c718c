// Package tui provides terminal user interface components for aoe-ctl.
//
// The session picker lists the live aoe_ tmux sessions with their
// classified status and returns what the user chose:
//
//	result, err := tui.RunPicker(entries)
//	switch result.Action {
//	case tui.ActionAttach:
//	    // attach to result.Entry.SessionName
//	case tui.ActionKill:
//	    // tear down result.Entry
//	case tui.ActionQuit:
//	}
//
// Keys: Enter attaches, d kills, / filters, q or Esc quits. The picker
// is built on bubbletea and the bubbles list; StatusStyle gives the
// lipgloss colour for each status and is shared with the status command.
package tui
