package cmd

import (
	"fmt"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/sandbox"
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Manage session sandboxes",
}

var sandboxUpCmd = &cobra.Command{
	Use:   "up <session>",
	Short: "Start a session's sandbox",
	Args:  cobra.ExactArgs(1),
	RunE:  runSandboxUp,
}

var sandboxDownCmd = &cobra.Command{
	Use:   "down <session>",
	Short: "Stop and remove a session's sandbox",
	Args:  cobra.ExactArgs(1),
	RunE:  runSandboxDown,
}

var sandboxPsCmd = &cobra.Command{
	Use:   "ps <session>",
	Short: "Show whether a session's sandbox exists and is running",
	Args:  cobra.ExactArgs(1),
	RunE:  runSandboxPs,
}

var sandboxExecCmd = &cobra.Command{
	Use:   "exec <session> -- <command>",
	Short: "Execute a command in a session's sandbox",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSandboxExec,
}

var sandboxOverlayCmd = &cobra.Command{
	Use:   "overlay <session>",
	Short: "Print the compose overlay for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSandboxOverlay,
}

var sandboxCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the sandbox runtime is available",
	Args:  cobra.NoArgs,
	RunE:  runSandboxCheck,
}

var (
	downVolumes bool
	checkMode   string
)

func init() {
	sandboxDownCmd.Flags().BoolVar(&downVolumes, "volumes", false, "Also remove compose volumes and running containers")
	sandboxCheckCmd.Flags().StringVar(&checkMode, "mode", "", "Runtime to check: docker or compose (default from config)")
	sandboxCmd.AddCommand(sandboxUpCmd, sandboxDownCmd, sandboxPsCmd, sandboxExecCmd, sandboxOverlayCmd, sandboxCheckCmd)
	rootCmd.AddCommand(sandboxCmd)
}

// resolveSandboxed resolves identifier and rejects plain sessions.
func resolveSandboxed(identifier string) (*app.App, *sandbox.Record, runtime.Runtime, error) {
	a, rec, err := resolveSession(identifier)
	if err != nil {
		return nil, nil, nil, err
	}
	rt, err := a.Manager.Runtime(rec)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, rec, rt, nil
}

func runSandboxUp(cmd *cobra.Command, args []string) error {
	a, rec, err := resolveSession(args[0])
	if err != nil {
		return err
	}
	err = withSessionLock(cmd.Context(), a, rec.ID, func() error {
		return a.Manager.Up(cmd.Context(), rec, progressSink(cmd.ErrOrStderr()))
	})
	if err != nil {
		return err
	}
	logSuccess("Sandbox %s is running", rec.Sandbox.ContainerName)
	return nil
}

func runSandboxDown(cmd *cobra.Command, args []string) error {
	a, rec, err := resolveSession(args[0])
	if err != nil {
		return err
	}
	if !rec.IsSandboxed() {
		return errors.ValidationError(fmt.Sprintf("session %s is not sandboxed", rec.ID))
	}

	var result *sandbox.CleanupResult
	err = withSessionLock(cmd.Context(), a, rec.ID, func() error {
		result = a.Manager.Down(cmd.Context(), rec, downVolumes)
		return nil
	})
	if err != nil {
		return err
	}
	printWarnings(result.Warnings)
	logSuccess("Removed sandbox %s", rec.Sandbox.ContainerName)
	return nil
}

func runSandboxPs(cmd *cobra.Command, args []string) error {
	_, rec, rt, err := resolveSandboxed(args[0])
	if err != nil {
		return err
	}

	exists := rt.Exists(cmd.Context())
	running := exists && rt.IsRunning(cmd.Context())

	if jsonOutput {
		return printJSON(cmd, map[string]any{
			"name":    rec.Sandbox.ContainerName,
			"runtime": rt.Name(),
			"exists":  exists,
			"running": running,
		})
	}

	state := "absent"
	switch {
	case running:
		state = "running"
	case exists:
		state = "stopped"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", rec.Sandbox.ContainerName, rt.Name(), state)
	return nil
}

func runSandboxExec(cmd *cobra.Command, args []string) error {
	dash := cmd.ArgsLenAtDash()
	if dash != 1 || len(args) < 2 {
		return errors.ValidationError("usage: aoe-ctl sandbox exec <session> -- <command>")
	}
	argv := args[dash:]

	_, rec, rt, err := resolveSandboxed(args[0])
	if err != nil {
		return err
	}
	if !rt.IsRunning(cmd.Context()) {
		return errors.ValidationError(fmt.Sprintf("sandbox %s is not running; start it with: aoe-ctl sandbox up %s", rec.Sandbox.ContainerName, args[0]))
	}

	logging.Debug("executing in sandbox", "name", rec.Sandbox.ContainerName, "command", shellquote.Join(argv...))

	result, err := rt.Exec(cmd.Context(), argv)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), result.Stdout)
	fmt.Fprint(cmd.ErrOrStderr(), result.Stderr)
	if result.ExitCode != 0 {
		return errors.CommandFailed(shellquote.Join(argv...), fmt.Sprintf("exit status %d", result.ExitCode))
	}
	return nil
}

func runSandboxOverlay(cmd *cobra.Command, args []string) error {
	a, rec, err := resolveSession(args[0])
	if err != nil {
		return err
	}
	if !rec.IsSandboxed() || rec.Sandbox.Mode != runtime.ModeCompose || rec.Sandbox.Compose == nil {
		return errors.ValidationError(fmt.Sprintf("session %s does not use a compose sandbox", rec.ID))
	}

	cfg := a.Config.Sandbox.ContainerConfig(rec.ProjectPath, nil)
	data, err := runtime.BuildOverlay(rec.Sandbox.Compose.AgentService, cfg, rec.Sandbox.Image)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runSandboxCheck(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	mode := runtime.Mode(checkMode)
	if mode == "" {
		mode = runtime.Mode(a.Config.Sandbox.Mode)
	}
	if mode != runtime.ModeDocker && mode != runtime.ModeCompose {
		return errors.ValidationError(fmt.Sprintf("unknown sandbox mode: %s", mode))
	}
	if err := runtime.CheckAvailable(cmd.Context(), mode, a.Exec); err != nil {
		return err
	}
	logSuccess("%s is available", mode)
	return nil
}
