package commands

import (
	"context"
	"os/signal"
	"syscall"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/sln/pkg/runner/watch"
	"tableflip.dev/sln/pkg/workspace"
)

func addWatch(topLevel *cobra.Command) {
	wf := &workspaceFlags{}
	var tree bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print solution changes as they happen",
		Long: base.Wrap80("Watch the solution and print each reload, edit and file change " +
			"until interrupted. --tree adds tree rebuilds and expansion changes."),
		Example: `
sln watch
sln watch --tree --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return wf.withWorkspaceContext(ctx, cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := watch.Watch{
					Workspace: ws,
					Tree:      tree,
					JSON:      oo.JSON,
				}
				return s.Do(ctx)
			})
		},
	}

	addWorkspaceFlags(cmd, wf)
	cmd.Flags().BoolVar(&tree, "tree", false, "Also print tree rebuilds and expansion changes.")
	base.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}
