package cli

import (
	"bytes"
	_ "embed"

	"github.com/phanxgames/edition"
)

//go:embed default.yaml
var defaultDefinitions []byte

// loadDefinitions reads --definitions, or the built-in demo when unset.
func loadDefinitions(opts *RootOptions) (*edition.Definitions, error) {
	var (
		defs *edition.Definitions
		err  error
	)
	if opts.Definitions == "" {
		defs, err = edition.LoadDefinitions(bytes.NewReader(defaultDefinitions))
	} else {
		defs, err = edition.LoadDefinitionsFile(opts.Definitions)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load definitions", err)
	}
	if err := defs.Check(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid definitions", err)
	}
	return defs, nil
}
