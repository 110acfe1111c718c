package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	appDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "aoe-ctl",
	Short: "Agent of Empires session and sandbox CLI",
	Long: `aoe-ctl manages long-running AI coding agent sessions.

Each session is a tmux session named aoe_<title>_<short id>, optionally
running its agent inside a sandbox:
  - docker: a single container named aoe-sandbox-<short id>
  - compose: a docker compose project aoe-<short id> with a generated overlay`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose, jsonOutput, os.Stderr)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs and results in JSON format")
	rootCmd.PersistentFlags().StringVar(&appDirFlag, "app-dir", "", "Application directory (default $AOE_HOME or ~/.config/agent-of-empires)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
)
