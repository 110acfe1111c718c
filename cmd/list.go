package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/naming"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all sessions",
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

type listRow struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Session string `json:"session"`
	Tool    string `json:"tool"`
	Sandbox string `json:"sandbox,omitempty"`
	Alive   bool   `json:"alive"`
	Status  string `json:"status"`
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}

	records, err := a.Manager.Store().List()
	if err != nil {
		return err
	}

	// one list-sessions call serves every existence check below
	a.Cache.Refresh(cmd.Context())

	rows := make([]listRow, 0, len(records))
	for _, rec := range records {
		session := a.Manager.Session(rec)
		row := listRow{
			ID:      rec.ID,
			Title:   rec.Title,
			Session: session.Name(),
			Tool:    rec.Tool,
			Status:  "stopped",
		}
		if rec.IsSandboxed() {
			row.Sandbox = rec.Sandbox.ContainerName
		}
		if session.Exists(cmd.Context()) {
			row.Alive = true
			row.Status = a.Manager.Status(cmd.Context(), rec).String()
		}
		rows = append(rows, row)
	}

	if jsonOutput {
		return printJSON(cmd, rows)
	}

	if len(rows) == 0 {
		logInfo("No sessions found. Start one with: aoe-ctl new <dir>")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTOOL\tSANDBOX\tSTATUS")
	fmt.Fprintln(w, "--\t-----\t----\t-------\t------")
	for _, row := range rows {
		sb := row.Sandbox
		if sb == "" {
			sb = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", naming.ShortID(row.ID), row.Title, row.Tool, sb, row.Status)
	}
	return w.Flush()
}
