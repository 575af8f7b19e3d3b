package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phanxgames/edition"
)

// ScriptOptions holds flags of the script command.
type ScriptOptions struct {
	*RootOptions
	captureFlags
}

// NewScriptCommand creates the script command.
func NewScriptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScriptOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "script <script.json>",
		Short: "Run a JSON render script",
		Long: `Run the render jobs of a JSON script one after another.

Example script:
  {"steps": [
    {"action": "render_set", "set": "kat.1"},
    {"action": "pick", "count": 10, "offset": 1, "archive": "picks"},
    {"action": "render_all", "limit": 1, "animFrames": 60}
  ]}`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], cmd)
		},
	}
	addCaptureFlags(cmd, &opts.captureFlags)
	return cmd
}

func runScript(opts *ScriptOptions, path string, cmd *cobra.Command) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read script", err)
	}
	script, err := edition.LoadRenderScript(data)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid script", err)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	s, err := newSession(ctx, opts.RootOptions, &opts.captureFlags, commandLine(cmd))
	if err != nil {
		return err
	}
	s.logger.Info("running script", "path", path, "steps", script.Len())

	err = s.drive(ctx,
		func(ctx context.Context) error { return script.Run(ctx, s.renderer) },
		nil,
		script)
	if err != nil {
		return s.finish(ctx, WrapExitError(ExitFailure, "script failed", err))
	}
	p := printer{format: opts.Format, w: cmd.OutOrStdout()}
	if perr := p.result(map[string]any{"run_id": s.runID, "steps": script.Len()}, func(w io.Writer) {
		fmt.Fprintf(w, "script finished: %d steps (run %s)\n", script.Len(), s.runID)
	}); perr != nil {
		return s.finish(ctx, perr)
	}
	return s.finish(ctx, nil)
}
