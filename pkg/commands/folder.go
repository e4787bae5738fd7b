package commands

import (
	"context"
	"errors"
	"strings"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/sln/pkg/commands/options"
	"tableflip.dev/sln/pkg/runner/folder"
	"tableflip.dev/sln/pkg/workspace"
)

func addFolder(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Add, remove or rename solution folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addFolderAdd(cmd)
	addFolderRemove(cmd)
	addFolderRename(cmd)

	topLevel.AddCommand(cmd)
}

func addFolderAdd(topLevel *cobra.Command) {
	wf := &workspaceFlags{}
	po := &options.ParentOptions{}
	var name string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a solution folder",
		Example: `
sln folder add Tests
sln folder add Tools --parent Shared
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a folder name")
			}
			name = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return wf.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := folder.Add{
					Workspace: ws,
					Name:      name,
					Parent:    po.Parent,
					JSON:      oo.JSON,
				}
				return s.Do(ctx)
			})
		},
	}

	addWorkspaceFlags(cmd, wf)
	options.AddParentArg(cmd, po)
	_ = cmd.RegisterFlagCompletionFunc("parent", folderFlagCompletions(wf))
	base.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}

func addFolderRemove(topLevel *cobra.Command) {
	wf := &workspaceFlags{}

	cmd := &cobra.Command{
		Use:     "remove <folder>",
		Aliases: []string{"rm"},
		Short:   "Remove a solution folder and everything nested in it",
		Example: `
sln folder remove Shared/Tools
sln folder rm {6F2C3B1E-0D2A-4C5B-9E4F-1A2B3C4D5E6F}
`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: folderCompletions(wf),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wf.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := folder.Remove{
					Workspace: ws,
					Folder:    args[0],
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

func addFolderRename(topLevel *cobra.Command) {
	wf := &workspaceFlags{}

	cmd := &cobra.Command{
		Use:   "rename <folder> <name>",
		Short: "Rename a solution folder",
		Example: `
sln folder rename Shared/Tools Utilities
`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: folderCompletions(wf),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wf.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := folder.Rename{
					Workspace: ws,
					Folder:    args[0],
					Name:      args[1],
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
