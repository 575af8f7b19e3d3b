package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewSetsCommand creates the sets command.
func NewSetsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "sets",
		Short:         "List property sets and their sequence-number ranges",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSets(rootOpts, cmd)
		},
	}
}

type setRow struct {
	Name  string `json:"name"`
	First int    `json:"first"`
	Last  int    `json:"last"`
	Count int    `json:"count"`
}

func runSets(opts *RootOptions, cmd *cobra.Command) error {
	defs, err := loadDefinitions(opts)
	if err != nil {
		return err
	}
	mgr, err := defs.NewManager()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid property sets", err)
	}
	rows := make([]setRow, 0, len(mgr.Ranges()))
	for _, r := range mgr.Ranges() {
		rows = append(rows, setRow{Name: r.Name, First: r.First, Last: r.Last, Count: r.Count})
	}
	p := printer{format: opts.Format, w: cmd.OutOrStdout()}
	return p.result(rows, func(w io.Writer) {
		fmt.Fprintf(w, "%-12s %6s %6s %6s\n", "SET", "FIRST", "LAST", "COUNT")
		for _, r := range rows {
			fmt.Fprintf(w, "%-12s %6d %6d %6d\n", r.Name, r.First, r.Last, r.Count)
		}
		fmt.Fprintf(w, "%d sequence numbers\n", mgr.Total())
	})
}
