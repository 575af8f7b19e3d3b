package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phanxgames/edition"
	"github.com/phanxgames/edition/ebitenhost"
	"github.com/phanxgames/edition/internal/sketch"
)

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	var seq int
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Open a window showing the sketch",
		Long: `Open a window showing the sketch with its animation running.

Keys: left/right step sequence numbers, space toggles the animation,
R resets it, Esc quits.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(rootOpts, seq, cmd)
		},
	}
	cmd.Flags().IntVar(&seq, "seq", 1, "sequence number shown first")
	return cmd
}

func runPreview(opts *RootOptions, seq int, cmd *cobra.Command) error {
	defs, err := loadDefinitions(opts)
	if err != nil {
		return err
	}
	mgr, err := defs.NewManager()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid property sets", err)
	}
	anim, err := edition.NewParamAnimator(mgr.Store(), defs.Animation, nil, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid animation", err)
	}
	if err := mgr.SelectSequenceNumber(seq); err != nil {
		return WrapExitError(ExitCommandError, "select failed", err)
	}

	rec := edition.NewRecorder(&edition.MemorySink{}, nil)
	renderer := edition.NewRenderer(mgr, rec, edition.WithAnimator(anim), edition.WithRenderSettings(defs.Render))
	loop := edition.NewLoop(rec.Clock(), anim)
	loop.Start()
	defer loop.Stop()

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sk := sketch.New(defs.Render.Width, defs.Render.Height)
	canvas := ebitenhost.NewCanvas(defs.Render.Width, defs.Render.Height)
	defer canvas.Dispose()
	host := ebitenhost.New(ctx, renderer, canvas, func(c *ebitenhost.Canvas) error {
		c.WriteRGBA(sk.Draw(mgr.Store()))
		return nil
	}, ebitenhost.Config{
		Title:             "edition preview",
		Animator:          anim,
		Transition:        []string{sketch.PathRadius, sketch.PathRotation, sketch.PathHue, sketch.PathBackgroundHue},
		TransitionSeconds: 0.4,
		TransitionEase:    "out-quad",
	})
	return ebitenhost.Run(host)
}
