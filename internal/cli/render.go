package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/phanxgames/edition"
)

// RenderOptions holds flags of the render command.
type RenderOptions struct {
	*RootOptions
	captureFlags

	Set          string
	From, To     int
	All          bool
	List         []int
	PickCount    int
	PickStep     int
	PickOffset   int
	Limit        int
	AnimFrames   int
	Archive      string
	SkipRendered bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render sequence numbers into archive chunks",
		Long: `Render sequence numbers with the demo sketch and record one image (or
--anim-frames frames) plus a metadata snapshot per sequence number.

Exactly one selection is required:
  --set NAME           every sequence number of a set
  --from A --to B      an inclusive range (reversed ranges are swapped)
  --all                every set; --limit applies per set
  --list 1,5,9         explicit sequence numbers
  --pick-count N       N evenly spaced sequence numbers
  --pick-step N        every Nth sequence number

Example:
  edition render --set kat.1 --out ./out
  edition render --all --limit 2 --anim-frames 60 --s3 --manifest runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, cmd)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.Set, "set", "", "render a property set")
	fs.IntVar(&opts.From, "from", 0, "first sequence number of a range")
	fs.IntVar(&opts.To, "to", 0, "last sequence number of a range")
	fs.BoolVar(&opts.All, "all", false, "render all sets")
	fs.IntSliceVar(&opts.List, "list", nil, "render these sequence numbers")
	fs.IntVar(&opts.PickCount, "pick-count", 0, "render N evenly spaced sequence numbers")
	fs.IntVar(&opts.PickStep, "pick-step", 0, "render every Nth sequence number")
	fs.IntVar(&opts.PickOffset, "pick-offset", 1, "first sequence number for --pick-count/--pick-step")
	fs.IntVar(&opts.Limit, "limit", 0, "stop after N sequence numbers (per set with --all)")
	fs.IntVar(&opts.AnimFrames, "anim-frames", 0, "animation frames per sequence number (0 = stills)")
	fs.StringVar(&opts.Archive, "archive", "", "chunk name prefix (default: start time)")
	fs.BoolVar(&opts.SkipRendered, "skip-rendered", false, "skip sequence numbers the manifest lists as rendered")
	addCaptureFlags(cmd, &opts.captureFlags)
	cmd.MarkFlagsMutuallyExclusive("set", "all", "list", "pick-count", "pick-step")

	return cmd
}

// selection expands the selection flags into sequence numbers.
func (o *RenderOptions) selection(r *edition.Renderer) ([]int, error) {
	total := r.Manager().Total()
	switch {
	case o.Set != "":
		return r.SetList(o.Set)
	case o.All:
		return r.AllSetsList(o.Limit), nil
	case len(o.List) > 0:
		for _, n := range o.List {
			if n < 1 || n > total {
				return nil, fmt.Errorf("--list %d of 1..%d: %w", n, total, edition.ErrSequenceRange)
			}
		}
		return o.List, nil
	case o.PickCount > 0:
		return edition.PickCount(o.PickCount, total, o.PickOffset), nil
	case o.PickStep > 0:
		return edition.PickStep(o.PickStep, total, o.PickOffset, true), nil
	case o.From > 0 || o.To > 0:
		return rangeList(o.From, o.To, total), nil
	}
	return nil, fmt.Errorf("nothing to render: use --set, --from/--to, --all, --list, --pick-count or --pick-step")
}

// rangeList expands --from/--to. A missing --from starts at 1 and a missing
// --to ends at the last sequence number.
func rangeList(from, to, total int) []int {
	if from <= 0 {
		from = 1
	}
	if to <= 0 {
		to = total
	}
	return edition.SeqRange(from, to)
}

func runRender(opts *RenderOptions, cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx, opts.RootOptions, &opts.captureFlags, commandLine(cmd))
	if err != nil {
		return err
	}

	list, err := opts.selection(s.renderer)
	if err != nil {
		return s.finish(ctx, WrapExitError(ExitCommandError, "invalid selection", err))
	}
	if opts.SkipRendered {
		if s.manifest == nil {
			return s.finish(ctx, WrapExitError(ExitCommandError, "--skip-rendered needs --manifest", nil))
		}
		done, err := s.manifest.Rendered(ctx)
		if err != nil {
			return s.finish(ctx, WrapExitError(ExitCommandError, "failed to read manifest", err))
		}
		list = slices.DeleteFunc(list, func(seq int) bool {
			_, found := slices.BinarySearch(done, seq)
			return found
		})
	}
	if len(list) == 0 {
		s.logger.Info("nothing to render")
		return s.finish(ctx, nil)
	}

	renderOpts := edition.RenderOptions{Limit: opts.Limit, AnimFrames: opts.AnimFrames, Archive: opts.Archive}
	if opts.All {
		renderOpts.Limit = 0 // already applied per set
	}
	s.logger.Info("rendering", "items", len(list), "first", list[0], "last", list[len(list)-1])

	err = s.drive(ctx,
		func(ctx context.Context) error { return s.renderer.RenderList(ctx, list, renderOpts) },
		func(ctx context.Context) error {
			_, err := s.renderer.Begin(ctx, list, renderOpts)
			return err
		},
		nil)
	if err != nil {
		return s.finish(ctx, WrapExitError(ExitFailure, "render failed", err))
	}
	p := printer{format: opts.Format, w: cmd.OutOrStdout()}
	st := s.renderer.State()
	if perr := p.result(map[string]any{"run_id": s.runID, "completed": st.Completed, "queued": st.Total}, func(w io.Writer) {
		fmt.Fprintf(w, "rendered %d/%d sequence numbers (run %s)\n", st.Completed, st.Total, s.runID)
	}); perr != nil {
		return s.finish(ctx, perr)
	}
	return s.finish(ctx, nil)
}

// commandLine renders the command and its explicitly set flags, e.g.
// "edition render --set=kat.1".
func commandLine(cmd *cobra.Command) string {
	parts := []string{cmd.CommandPath()}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		parts = append(parts, "--"+f.Name+"="+f.Value.String())
	})
	parts = append(parts, cmd.Flags().Args()...)
	return strings.Join(parts, " ")
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
