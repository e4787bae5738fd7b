package commands

import (
	"context"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/sln/pkg/runner/info"
	"tableflip.dev/sln/pkg/workspace"
)

func addInfo(topLevel *cobra.Command) {
	wf := &workspaceFlags{}

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Details about the solution and where state is stored.",
		Example: `
sln info
sln info -s ./src --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return wf.withWorkspace(cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				s := info.Info{
					Config:    ws.Config,
					Workspace: ws,
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
