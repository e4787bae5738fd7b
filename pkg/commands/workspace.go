package commands

import (
	"context"

	"github.com/spf13/cobra"

	"tableflip.dev/sln/pkg/commands/options"
	"tableflip.dev/sln/pkg/logging"
	"tableflip.dev/sln/pkg/store"
	"tableflip.dev/sln/pkg/workspace"
)

// workspaceFlags are the flags every command that opens a solution shares.
type workspaceFlags struct {
	so options.SolutionOptions
	lo options.LogOptions

	// readOnly keeps expansion changes out of the view state.
	readOnly bool
	// quietLevel replaces the configured log level unless one is given on
	// the command line.
	quietLevel string
}

func addWorkspaceFlags(cmd *cobra.Command, wf *workspaceFlags) {
	options.AddSolutionArg(cmd, &wf.so)
	options.AddLogArgs(cmd, &wf.lo)
	_ = cmd.RegisterFlagCompletionFunc("solution", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"sln"}, cobra.ShellCompDirectiveFilterFileExt
	})
}

func (wf *workspaceFlags) config() (*store.Config, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	if wf.quietLevel != "" {
		cfg.LogLevel = wf.quietLevel
	}
	if wf.lo.Level != "" {
		cfg.LogLevel = wf.lo.Level
	}
	if wf.lo.Verbose {
		cfg.LogLevel = "debug"
		cfg.LogDevelopment = true
	}
	return cfg, nil
}

// open loads the config and logger, then the selected solution.
func (wf *workspaceFlags) open(ctx context.Context) (*workspace.Workspace, error) {
	cfg, err := wf.config()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return nil, err
	}
	path, err := wf.so.Resolve()
	if err != nil {
		return nil, err
	}

	opts := workspace.Options{Log: log}
	if wf.readOnly {
		vs, err := store.OpenViewState(cfg.StatePath)
		if err != nil {
			return nil, err
		}
		opts.ViewState = store.ReadOnly(vs)
	}
	return workspace.Open(ctx, path, cfg, opts)
}

// withWorkspace opens the solution, runs fn and closes it again.
func (wf *workspaceFlags) withWorkspace(cmd *cobra.Command, fn func(context.Context, *workspace.Workspace) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return wf.withWorkspaceContext(ctx, cmd, fn)
}

func (wf *workspaceFlags) withWorkspaceContext(ctx context.Context, cmd *cobra.Command, fn func(context.Context, *workspace.Workspace) error) error {
	ws, err := wf.open(ctx)
	if err != nil {
		return oo.HandleError(err)
	}
	defer ws.Close()

	cmd.SilenceUsage = true
	return oo.HandleError(fn(ctx, ws))
}
