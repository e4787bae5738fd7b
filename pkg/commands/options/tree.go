package options

import (
	"github.com/spf13/cobra"
)

// TreeOptions shape how much of the tree is printed.
type TreeOptions struct {
	ExpandAll bool
	Depth     int
}

func AddTreeArgs(cmd *cobra.Command, o *TreeOptions) {
	cmd.Flags().BoolVar(&o.ExpandAll, "expand-all", false,
		"Expand every node before printing, not just the saved expansion.")
	cmd.Flags().IntVar(&o.Depth, "depth", 0,
		"With --expand-all, stop expanding below this depth. 0 means no limit.")
}
