package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/naming"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/sandbox"
)

var newCmd = &cobra.Command{
	Use:   "new <dir> [-- <agent command>]",
	Short: "Start a new agent session",
	Long: `Start a new agent session rooted at <dir>.

The agent runs in a detached tmux session. With --sandbox it runs inside a
docker container (or a compose project with --compose) that mounts <dir>
at /workspace. Arguments after -- replace the default agent command.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNew,
}

var (
	newID      string
	newTitle   string
	newTool    string
	newSandbox bool
	newImage   string
	newCompose bool
)

func init() {
	newCmd.Flags().StringVar(&newID, "id", "", "Session id (default: generated UUID)")
	newCmd.Flags().StringVarP(&newTitle, "title", "t", "", "Session title (default: directory name)")
	newCmd.Flags().StringVar(&newTool, "tool", "", "Agent tool (default from config)")
	newCmd.Flags().BoolVarP(&newSandbox, "sandbox", "s", false, "Run the agent in a sandbox")
	newCmd.Flags().StringVar(&newImage, "image", "", "Sandbox image (default from config)")
	newCmd.Flags().BoolVar(&newCompose, "compose", false, "Use a docker compose sandbox")
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}

	opts := sandbox.LaunchOptions{
		ID:          newID,
		Title:       newTitle,
		ProjectPath: args[0],
		Tool:        newTool,
		Sandbox:     newSandbox || newCompose || a.Config.Sandbox.Enabled,
		Image:       newImage,
	}
	if dash := cmd.ArgsLenAtDash(); dash == 0 {
		return errors.ValidationError("usage: aoe-ctl new <dir> [-- <agent command>]")
	} else if dash > 0 {
		opts.Command = args[dash:]
	}
	if newCompose {
		opts.Mode = runtime.ModeCompose
	}

	logging.Debug("starting session", "dir", opts.ProjectPath, "sandbox", opts.Sandbox)

	var result *sandbox.LaunchResult
	launch := func() error {
		sink := progressSink(cmd.ErrOrStderr())
		if jsonOutput {
			sink = nil
		}
		result, err = a.Manager.Launch(cmd.Context(), opts, sink)
		return err
	}
	if opts.ID != "" {
		err = withSessionLock(cmd.Context(), a, opts.ID, launch)
	} else {
		err = launch()
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd, result.Record)
	}

	rec := result.Record
	logSuccess("Started session %s", result.SessionName)
	fmt.Fprintf(cmd.OutOrStdout(), "  ID:      %s\n", rec.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "  Title:   %s\n", rec.Title)
	fmt.Fprintf(cmd.OutOrStdout(), "  Project: %s\n", rec.ProjectPath)
	if rec.IsSandboxed() {
		fmt.Fprintf(cmd.OutOrStdout(), "  Sandbox: %s (%s, %s)\n", rec.Sandbox.ContainerName, rec.Sandbox.Mode, rec.Sandbox.Image)
	}
	logInfo("Attach with: aoe-ctl attach %s", naming.ShortID(rec.ID))
	return nil
}
