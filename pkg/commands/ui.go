package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tableflip.dev/sln/pkg/runner/ui"
	"tableflip.dev/sln/pkg/workspace"
)

func addUI(topLevel *cobra.Command) {
	// Logs would draw over the alternate screen.
	wf := &workspaceFlags{quietLevel: "error"}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the text-based tree browser",
		Example: `
sln ui
sln ui -s ./src/App.sln
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
			defer stop()
			return wf.withWorkspaceContext(ctx, cmd, func(ctx context.Context, ws *workspace.Workspace) error {
				i := ui.UI{Workspace: ws}
				return i.Do(ctx)
			})
		},
	}

	addWorkspaceFlags(cmd, wf)

	topLevel.AddCommand(cmd)
}
