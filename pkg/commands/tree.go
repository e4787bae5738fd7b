package commands

import (
	"context"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/sln/pkg/commands/options"
	"tableflip.dev/sln/pkg/runner/tree"
	"tableflip.dev/sln/pkg/workspace"
)

func addTree(topLevel *cobra.Command) {
	wf := &workspaceFlags{}
	to := &options.TreeOptions{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the solution tree",
		Long: base.Wrap80("Print the solution tree with the expansion saved by earlier sessions. " +
			"--expand-all opens every node for this run only; the saved expansion is left alone."),
		Example: `
sln tree
sln tree --expand-all --depth 2
sln tree -s ./src/App.sln --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf.readOnly = to.ExpandAll
			return wf.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := tree.Tree{
					Workspace: ws,
					ExpandAll: to.ExpandAll,
					Depth:     to.Depth,
					ShowID:    io.ShowID,
					JSON:      oo.JSON,
				}
				return s.Do(ctx)
			})
		},
	}

	addWorkspaceFlags(cmd, wf)
	options.AddTreeArgs(cmd, to)
	options.AddShowIDArgs(cmd, io)
	base.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}
