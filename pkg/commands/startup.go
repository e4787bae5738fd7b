package commands

import (
	"context"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/sln/pkg/runner/startup"
	"tableflip.dev/sln/pkg/workspace"
)

func addStartup(topLevel *cobra.Command) {
	wf := &workspaceFlags{}

	cmd := &cobra.Command{
		Use:   "startup",
		Short: "Show or choose the startup project",
		Long: base.Wrap80("Show or choose the startup project. The choice is kept in the " +
			"solution's .sln.user file next to the solution."),
		Example: `
sln startup
sln startup set App
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wf.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := startup.Get{Workspace: ws, JSON: oo.JSON}
				return s.Do(ctx)
			})
		},
	}

	addWorkspaceFlags(cmd, wf)
	base.AddOutputArg(cmd, oo)

	addStartupGet(cmd)
	addStartupSet(cmd)

	topLevel.AddCommand(cmd)
}

func addStartupGet(topLevel *cobra.Command) {
	wf := &workspaceFlags{}

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the startup project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wf.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := startup.Get{Workspace: ws, JSON: oo.JSON}
				return s.Do(ctx)
			})
		},
	}

	addWorkspaceFlags(cmd, wf)
	base.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}

func addStartupSet(topLevel *cobra.Command) {
	wf := &workspaceFlags{}

	cmd := &cobra.Command{
		Use:               "set <project>",
		Short:             "Choose the startup project",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: projectCompletions(wf),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wf.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := startup.Set{Workspace: ws, Project: args[0], JSON: oo.JSON}
				return s.Do(ctx)
			})
		},
	}

	addWorkspaceFlags(cmd, wf)
	base.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}
