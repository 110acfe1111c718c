package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/sandbox"
)

var removeCmd = &cobra.Command{
	Use:     "remove <session>",
	Aliases: []string{"rm"},
	Short:   "Remove a session and its sandbox",
	Long: `Kill the tmux session, tear down the sandbox (including the compose
overlay) and delete the session record.

Teardown never fails: problems are reported as warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

var (
	removeKeepSandbox bool
	removeVolumes     bool
)

func init() {
	removeCmd.Flags().BoolVar(&removeKeepSandbox, "keep-sandbox", false, "Keep the sandbox running")
	removeCmd.Flags().BoolVar(&removeVolumes, "volumes", false, "Also remove compose volumes and running containers")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, rec, err := resolveSession(args[0])
	if err != nil {
		return err
	}

	opts := sandbox.DefaultCleanupOptions()
	opts.DestroySandbox = !removeKeepSandbox
	opts.Force = removeVolumes

	return removeSession(cmd, a, rec, opts)
}

func removeSession(cmd *cobra.Command, a *app.App, rec *sandbox.Record, opts sandbox.CleanupOptions) error {
	logging.Debug("removing session", "id", rec.ID, "title", rec.Title)
	logInfo("Removing session %s...", rec.Title)

	var result *sandbox.CleanupResult
	err := withSessionLock(cmd.Context(), a, rec.ID, func() error {
		result = a.Manager.Cleanup(cmd.Context(), rec, opts)
		return nil
	})
	if err != nil {
		return err
	}

	printWarnings(result.Warnings)
	logSuccess("Removed session %s", rec.Title)
	return nil
}
