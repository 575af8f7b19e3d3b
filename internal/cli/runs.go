package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/phanxgames/edition/manifest"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		path  string
		limit int
	)
	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "List render runs recorded in a manifest",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Open(path)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open manifest", err)
			}
			defer func() { _ = m.Close() }()
			runs, err := m.Runs(cmdContext(cmd), limit)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read manifest", err)
			}
			p := printer{format: rootOpts.Format, w: cmd.OutOrStdout()}
			return p.result(runs, func(w io.Writer) {
				for _, r := range runs {
					fmt.Fprintf(w, "%s  %-8s  %4d items  %s  %s\n",
						r.ID, r.Status, r.Items, r.StartedAt.Local().Format(time.DateTime), r.Command)
					if r.Error != "" {
						fmt.Fprintf(w, "    error: %s\n", r.Error)
					}
				}
			})
		},
	}
	cmd.Flags().StringVar(&path, "manifest", "", "SQLite manifest path (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}
