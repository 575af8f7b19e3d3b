package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

// NewParamsCommand creates the params command.
func NewParamsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "params <seq>",
		Short: "Print the parameter values of a sequence number",
		Long: `Select a sequence number and print the resulting parameter tree, exactly
as it is written to the metadata entry of a render.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := strconv.Atoi(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid sequence number", err)
			}
			return runParams(rootOpts, seq, cmd)
		},
	}
}

func runParams(opts *RootOptions, seq int, cmd *cobra.Command) error {
	defs, err := loadDefinitions(opts)
	if err != nil {
		return err
	}
	mgr, err := defs.NewManager()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid property sets", err)
	}
	if seq < 1 || seq > mgr.Total() {
		return WrapExitError(ExitCommandError, fmt.Sprintf("sequence number %d out of range 1..%d", seq, mgr.Total()), nil)
	}
	if err := mgr.SelectSequenceNumber(seq); err != nil {
		return WrapExitError(ExitFailure, "select failed", err)
	}
	st := mgr.State()
	snapshot := mgr.Store().Snapshot()
	p := printer{format: opts.Format, w: cmd.OutOrStdout()}
	return p.result(map[string]any{
		"seq":    seq,
		"set":    st.SetName,
		"local":  st.LocalIndex,
		"params": snapshot,
	}, func(w io.Writer) {
		fmt.Fprintf(w, "#%04d %s[%d]\n", seq, st.SetName, st.LocalIndex)
		data, _ := json.MarshalIndent(snapshot, "", "    ")
		fmt.Fprintln(w, string(data))
	})
}
