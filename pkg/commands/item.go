package commands

import (
	"context"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/sln/pkg/runner/item"
	"tableflip.dev/sln/pkg/workspace"
)

func addItem(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Group loose files under solution folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addItemAdd(cmd)
	addItemRemove(cmd)

	topLevel.AddCommand(cmd)
}

func addItemAdd(topLevel *cobra.Command) {
	wf := &workspaceFlags{}

	cmd := &cobra.Command{
		Use:   "add <folder> <path>",
		Short: "Add a file to a solution folder",
		Example: `
sln item add Docs README.md
`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: folderThenFileCompletions(wf),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wf.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := item.Add{
					Workspace: ws,
					Folder:    args[0],
					Path:      args[1],
					JSON:      oo.JSON,
				}
				return s.Do(ctx)
			})
		},
	}

	addWorkspaceFlags(cmd, wf)
	base.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}

func addItemRemove(topLevel *cobra.Command) {
	wf := &workspaceFlags{}

	cmd := &cobra.Command{
		Use:     "remove <folder> <path>",
		Aliases: []string{"rm"},
		Short:   "Remove a file from a solution folder",
		Long:    base.Wrap80("Remove a file from a solution folder. The file itself stays on disk."),
		Example: `
sln item remove Docs README.md
`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: folderThenFileCompletions(wf),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wf.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := item.Remove{
					Workspace: ws,
					Folder:    args[0],
					Path:      args[1],
					JSON:      oo.JSON,
				}
				return s.Do(ctx)
			})
		},
	}

	addWorkspaceFlags(cmd, wf)
	base.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}
