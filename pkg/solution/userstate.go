package solution

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"tableflip.dev/sln/pkg/slnfile"
)

const (
	userStateHeader   = "Microsoft Visual Studio Solution User Options File, Format Version 12.00"
	explorerSection   = "SolutionExplorer"
	startupProjectKey = "StartupProject"
)

func userStateSkeleton() string {
	return userStateHeader + "\r\nGlobal\r\nEndGlobal\r\n"
}

func (m *Model) readUserState() (string, bool, error) {
	data, err := os.ReadFile(m.UserStatePath())
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("solution: read user state: %w", err)
	}
	return string(data), true, nil
}

// StartupProject returns the id of the startup project, or "" when none is
// recorded.
func (m *Model) StartupProject() (string, error) {
	text, ok, err := m.readUserState()
	if err != nil || !ok {
		return "", err
	}
	value, _, err := m.editor.GlobalValue(text, explorerSection, startupProjectKey)
	if err != nil {
		return "", fmt.Errorf("solution: user state: %w", err)
	}
	return slnfile.NormalizeGUID(value), nil
}

// SetStartupProject records id as the startup project. The user-state file
// is created on first write.
func (m *Model) SetStartupProject(ctx context.Context, id string) error {
	p := m.Project(id)
	if p == nil {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}

	m.editMu.Lock()
	defer m.editMu.Unlock()
	text, ok, err := m.readUserState()
	if err != nil {
		return err
	}
	base := text
	if !ok {
		text = userStateSkeleton()
	}
	res, err := m.editor.SetGlobalValue(text, explorerSection, startupProjectKey, p.ID())
	if err != nil {
		return fmt.Errorf("solution: user state: %w", err)
	}
	if !res.Changed {
		return nil
	}
	if err := writeIfUnchanged(m.UserStatePath(), base, res.Text); err != nil {
		return fmt.Errorf("solution: set startup project: %w", err)
	}
	m.log.Info("solution: startup project set", zap.String("project", p.Name()))
	m.events.Emit(Event{Type: EventStartupChanged, Entity: p.Entity()})
	return nil
}
