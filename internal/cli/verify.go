package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/phanxgames/edition"
)

// VerifyOptions holds flags of the verify command.
type VerifyOptions struct {
	*RootOptions
	From, To   int
	AnimFrames int
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <chunk.tar>...",
		Short: "Check archive chunks for readable, complete output",
		Long: `Read every entry of the given chunks: PNG images must decode and
metadata must be valid JSON. With --from/--to, also report sequence numbers
missing an image (or --anim-frames frames) or a metadata entry.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args, cmd)
		},
	}
	cmd.Flags().IntVar(&opts.From, "from", 0, "first expected sequence number")
	cmd.Flags().IntVar(&opts.To, "to", 0, "last expected sequence number")
	cmd.Flags().IntVar(&opts.AnimFrames, "anim-frames", 0, "expected animation frames per sequence number")
	return cmd
}

type verifyResult struct {
	Chunks   int      `json:"chunks"`
	Entries  int      `json:"entries"`
	Items    int      `json:"items"`
	Problems []string `json:"problems,omitempty"`
	Missing  []int    `json:"missing,omitempty"`
}

func runVerify(opts *VerifyOptions, paths []string, cmd *cobra.Command) error {
	folders := edition.DefaultFolders()
	if opts.Definitions != "" {
		defs, err := loadDefinitions(opts.RootOptions)
		if err != nil {
			return err
		}
		folders = defs.Render.Folders
	}
	v := edition.NewVerifier(folders)
	for _, path := range paths {
		if err := v.AddFile(path); err != nil {
			return WrapExitError(ExitCommandError, "unreadable chunk", err)
		}
	}
	rep := v.Report()
	res := verifyResult{
		Chunks:   rep.Chunks,
		Entries:  rep.Entries,
		Items:    len(rep.Metadata),
		Problems: rep.Problems,
	}
	if opts.From > 0 || opts.To > 0 {
		res.Missing = rep.Missing(edition.SeqRange(opts.From, opts.To), opts.AnimFrames)
	}

	p := printer{format: opts.Format, w: cmd.OutOrStdout()}
	err := p.result(res, func(w io.Writer) {
		fmt.Fprintf(w, "%d chunks, %d entries, %d items\n", res.Chunks, res.Entries, res.Items)
		for _, problem := range res.Problems {
			fmt.Fprintf(w, "problem: %s\n", problem)
		}
		for _, seq := range res.Missing {
			fmt.Fprintf(w, "missing: %04d\n", seq)
		}
	})
	if err != nil {
		return err
	}
	if len(res.Problems) > 0 || len(res.Missing) > 0 {
		return WrapExitError(ExitFailure, fmt.Sprintf("verification failed: %d problems, %d missing", len(res.Problems), len(res.Missing)), nil)
	}
	return nil
}
