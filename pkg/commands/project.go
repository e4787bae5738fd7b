package commands

import (
	"context"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/sln/pkg/commands/options"
	"tableflip.dev/sln/pkg/runner/project"
	"tableflip.dev/sln/pkg/workspace"
)

var projectKinds = []string{
	"csharp", "csharp-sdk", "vb", "vb-sdk", "fsharp", "fsharp-sdk",
	"cpp", "website", "shared", "database", "docker",
}

func addProject(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Add, remove or move projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addProjectAdd(cmd)
	addProjectRemove(cmd)
	addProjectMove(cmd)

	topLevel.AddCommand(cmd)
}

func addProjectAdd(topLevel *cobra.Command) {
	wf := &workspaceFlags{}
	po := &options.ParentOptions{}
	var (
		name string
		kind string
	)

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Add an existing project file to the solution",
		Long: base.Wrap80("Add an existing project file to the solution. The kind is guessed " +
			"from the file extension unless --kind is given."),
		Example: `
sln project add src/Core/Core.csproj
sln project add src/Legacy/Legacy.vbproj --parent Shared --name OldCore
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wf.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := project.Add{
					Workspace: ws,
					Path:      args[0],
					Name:      name,
					Kind:      kind,
					Parent:    po.Parent,
					JSON:      oo.JSON,
				}
				return s.Do(ctx)
			})
		},
	}

	addWorkspaceFlags(cmd, wf)
	options.AddParentArg(cmd, po)
	cmd.Flags().StringVar(&name, "name", "", "Project name. Defaults to the file name.")
	cmd.Flags().StringVar(&kind, "kind", "", "Project kind, one of "+joinKinds()+".")
	_ = cmd.RegisterFlagCompletionFunc("kind", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return projectKinds, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("parent", folderFlagCompletions(wf))
	base.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}

func addProjectRemove(topLevel *cobra.Command) {
	wf := &workspaceFlags{}

	cmd := &cobra.Command{
		Use:     "remove <project>",
		Aliases: []string{"rm"},
		Short:   "Remove a project from the solution",
		Example: `
sln project remove Shared/Core
`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: projectCompletions(wf),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wf.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := project.Remove{
					Workspace: ws,
					Project:   args[0],
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

func addProjectMove(topLevel *cobra.Command) {
	wf := &workspaceFlags{}
	po := &options.ParentOptions{}

	cmd := &cobra.Command{
		Use:   "move <project-or-folder>",
		Short: "Move a project or folder under another folder",
		Long:  base.Wrap80("Move a project or folder under another folder. Without --parent it moves to the solution root."),
		Example: `
sln project move App --parent Shared
sln project move Shared/Tools
`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: entityCompletions(wf),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wf.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := project.Move{
					Workspace: ws,
					Entity:    args[0],
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

func joinKinds() string {
	out := ""
	for i, k := range projectKinds {
		switch {
		case i == 0:
		case i == len(projectKinds)-1:
			out += " or "
		default:
			out += ", "
		}
		out += k
	}
	return out
}
