package options

import (
	"github.com/spf13/cobra"
)

// LogOptions overrides the configured log settings.
type LogOptions struct {
	Level   string
	Verbose bool
}

func AddLogArgs(cmd *cobra.Command, o *LogOptions) {
	cmd.Flags().StringVar(&o.Level, "log-level", "",
		"Log level: debug, info, warn or error. Overrides the config file.")
	cmd.Flags().BoolVarP(&o.Verbose, "verbose", "v", false,
		"Log at debug level with the development encoder.")
}
