package options

import (
	"github.com/spf13/cobra"
)

// IDOptions
type IDOptions struct {
	ShowID bool
}

func AddShowIDArgs(cmd *cobra.Command, o *IDOptions) {
	cmd.Flags().BoolVarP(&o.ShowID, "show-id", "k", false,
		"Show the GUID of each project and folder.")
}

// ParentOptions names the folder an entity goes under.
type ParentOptions struct {
	Parent string
}

func AddParentArg(cmd *cobra.Command, o *ParentOptions) {
	cmd.Flags().StringVarP(&o.Parent, "parent", "p", "",
		`Folder to place it under, by GUID or name path like "Shared/Tools". Empty means the solution root.`)
}
