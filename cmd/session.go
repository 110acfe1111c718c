package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/tui"
)

var attachCmd = &cobra.Command{
	Use:   "attach <session>",
	Short: "Attach to a session's tmux session",
	Long: `Attach to the tmux session of <session> (id, id prefix or title).

Inside tmux the current client is switched instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runAttach,
}

var killCmd = &cobra.Command{
	Use:   "kill <session>",
	Short: "Kill a session's tmux session",
	Long:  "Kill the tmux session of <session>. The sandbox and the session record are kept.",
	Args:  cobra.ExactArgs(1),
	RunE:  runKill,
}

var captureCmd = &cobra.Command{
	Use:   "capture <session>",
	Short: "Print the last lines of a session's pane",
	Args:  cobra.ExactArgs(1),
	RunE:  runCapture,
}

var statusCmd = &cobra.Command{
	Use:   "status <session>",
	Short: "Show what a session's agent is doing",
	Long: `Classify the agent's activity from its pane as idle, waiting, running or error.

--tool overrides the tool profile stored with the session.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

var existsCmd = &cobra.Command{
	Use:   "exists <session>",
	Short: "Exit 0 if the session's tmux session exists",
	Args:  cobra.ExactArgs(1),
	RunE:  runExists,
}

var (
	captureLines int
	statusTool   string
)

func init() {
	captureCmd.Flags().IntVarP(&captureLines, "lines", "n", 50, "Number of lines to capture")
	statusCmd.Flags().StringVar(&statusTool, "tool", "", "Tool profile to classify with")
	rootCmd.AddCommand(attachCmd, killCmd, captureCmd, statusCmd, existsCmd)
}

func runAttach(cmd *cobra.Command, args []string) error {
	a, rec, err := resolveSession(args[0])
	if err != nil {
		return err
	}
	return a.Manager.Session(rec).Attach(cmd.Context())
}

func runKill(cmd *cobra.Command, args []string) error {
	a, rec, err := resolveSession(args[0])
	if err != nil {
		return err
	}
	session := a.Manager.Session(rec)
	err = withSessionLock(cmd.Context(), a, rec.ID, func() error {
		return session.Kill(cmd.Context())
	})
	if err != nil {
		return err
	}
	logSuccess("Killed tmux session %s", session.Name())
	return nil
}

func runCapture(cmd *cobra.Command, args []string) error {
	if captureLines <= 0 {
		return errors.ValidationError("--lines must be positive")
	}
	a, rec, err := resolveSession(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), a.Manager.Session(rec).CapturePane(cmd.Context(), captureLines))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, rec, err := resolveSession(args[0])
	if err != nil {
		return err
	}

	session := a.Manager.Session(rec)
	if !session.Exists(cmd.Context()) {
		return errors.SessionNotFound(session.Name())
	}

	tool := rec.Tool
	if statusTool != "" {
		tool = statusTool
	}
	st := session.DetectStatus(cmd.Context(), tool, a.Manager.Classifier())

	if jsonOutput {
		return printJSON(cmd, map[string]string{
			"id":      rec.ID,
			"session": session.Name(),
			"tool":    tool,
			"status":  st.String(),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", tui.StatusStyle(st).Render(st.Icon()+" "+st.String()), session.Name())
	return nil
}

func runExists(cmd *cobra.Command, args []string) error {
	a, rec, err := resolveSession(args[0])
	if err != nil {
		return err
	}
	session := a.Manager.Session(rec)
	if !session.Exists(cmd.Context()) {
		return errors.SessionNotFound(session.Name())
	}
	fmt.Fprintln(cmd.OutOrStdout(), session.Name())
	return nil
}
