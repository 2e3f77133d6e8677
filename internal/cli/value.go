package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tplcheck/internal/param"
)

// ValueOptions selects how a value argument is decoded.
type ValueOptions struct {
	YAML bool
}

func (o *ValueOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.YAML, "yaml", false, "decode the value as YAML instead of JSON")
}

// decode parses a command-line value using the $var/$fn/$array marker conventions.
func (o *ValueOptions) decode(arg string) (param.Value, error) {
	if o.YAML {
		return param.DecodeYAML([]byte(arg))
	}
	return param.DecodeJSON([]byte(arg))
}
