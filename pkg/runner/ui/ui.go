package ui

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/mattn/go-isatty"

	"tableflip.dev/sln/pkg/tui/browser"
	"tableflip.dev/sln/pkg/workspace"
)

// UI runs the tree browser until the user quits.
type UI struct {
	Workspace *workspace.Workspace
}

// ErrNoTerminal is returned when stdin or stdout is not a terminal.
var ErrNoTerminal = errors.New("ui needs an interactive terminal, try 'sln tree' instead")

func (d *UI) Do(ctx context.Context) error {
	if d.Workspace == nil {
		return errors.New("can not open ui, no workspace")
	}
	if !Interactive() {
		return ErrNoTerminal
	}

	m := browser.New(ctx, d.Workspace.Tree)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Interactive reports whether both stdin and stdout are terminals.
func Interactive() bool {
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
