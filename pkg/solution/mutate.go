package solution

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"tableflip.dev/sln/pkg/slnedit"
	"tableflip.dev/sln/pkg/slnfile"
)

// Result describes an applied edit.
type Result struct {
	Changed bool
	// ID is the entity the edit created or targeted.
	ID string
	// Removed lists every entity id the edit deleted.
	Removed []string
}

func resultOf(r slnedit.Result) Result {
	return Result{Changed: r.Changed, ID: r.ID, Removed: r.Removed}
}

// apply runs one read-modify-write cycle against the solution file. The
// edit sees the text currently on disk; if the file changes before the new
// text is written, nothing is written and ErrConcurrentModification is
// returned.
func (m *Model) apply(ctx context.Context, op string, edit func(text string) (slnedit.Result, error)) (slnedit.Result, error) {
	m.editMu.Lock()
	defer m.editMu.Unlock()
	if m.isClosed() {
		return slnedit.Result{}, ErrClosed
	}

	text, err := m.readText()
	if err != nil {
		return slnedit.Result{}, err
	}
	res, err := edit(text)
	if err != nil {
		return slnedit.Result{}, fmt.Errorf("solution: %s: %w", op, err)
	}
	if !res.Changed {
		m.log.Warn("solution: edit changed nothing", zap.String("op", op))
		return res, nil
	}
	if err := writeIfUnchanged(m.path, text, res.Text); err != nil {
		return slnedit.Result{}, fmt.Errorf("solution: %s: %w", op, err)
	}
	m.log.Info("solution: edited", zap.String("op", op), zap.String("id", res.ID))
	if err := m.Reload(ctx); err != nil {
		return res, fmt.Errorf("solution: %s: reload: %w", op, err)
	}
	return res, nil
}

// writeIfUnchanged replaces path with next when its content still hashes
// like base. A missing file counts as empty.
func writeIfUnchanged(path, base, next string) error {
	current, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("recheck %s: %w", path, err)
	}
	if sha256.Sum256(current) != sha256.Sum256([]byte(base)) {
		return ErrConcurrentModification
	}
	return writeFile(path, []byte(next))
}

func writeFile(path string, data []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// AddFolder creates a grouping folder under parentID, or at the root.
func (m *Model) AddFolder(ctx context.Context, name, parentID string) (Result, error) {
	res, err := m.apply(ctx, "add folder", func(text string) (slnedit.Result, error) {
		return m.editor.AddFolder(text, name, parentID)
	})
	return resultOf(res), err
}

// RenameFolder renames a grouping folder.
func (m *Model) RenameFolder(ctx context.Context, id, name string) (Result, error) {
	res, err := m.apply(ctx, "rename folder", func(text string) (slnedit.Result, error) {
		return m.editor.RenameFolder(text, id, name)
	})
	return resultOf(res), err
}

// RemoveFolder removes a folder and everything below it. The project
// command, when set, is told about every removed project; its failures come
// back as a *PartialError after the edit has been written.
func (m *Model) RemoveFolder(ctx context.Context, id string) (Result, error) {
	var projects []string
	res, err := m.apply(ctx, "remove folder", func(text string) (slnedit.Result, error) {
		r, err := m.editor.RemoveFolder(text, id)
		if err != nil || !r.Changed {
			return r, err
		}
		projects = m.projectPaths(text, r.Removed)
		return r, nil
	})
	if err != nil || !res.Changed {
		return resultOf(res), err
	}
	return resultOf(res), m.notifyRemoved(ctx, "remove folder", projects)
}

// AddProject declares a project file under parentID, or at the root.
func (m *Model) AddProject(ctx context.Context, kind slnfile.Kind, name, path, parentID string) (Result, error) {
	res, err := m.apply(ctx, "add project", func(text string) (slnedit.Result, error) {
		return m.editor.AddProject(text, kind, name, path, parentID)
	})
	if err != nil || !res.Changed || m.projectCmd == nil {
		return resultOf(res), err
	}
	partial := &PartialError{Op: "add project", Total: 2}
	projectPath := m.absolute(path)
	if err := m.projectCmd.ProjectAdded(ctx, m.path, projectPath); err != nil {
		partial.add("notify "+projectPath, &CollaboratorError{Collaborator: "project command", Op: "added", Err: err})
	}
	return resultOf(res), partial.orNil()
}

// RemoveProject removes one project.
func (m *Model) RemoveProject(ctx context.Context, id string) (Result, error) {
	var projects []string
	res, err := m.apply(ctx, "remove project", func(text string) (slnedit.Result, error) {
		r, err := m.editor.RemoveProject(text, id)
		if err != nil || !r.Changed {
			return r, err
		}
		projects = m.projectPaths(text, r.Removed)
		return r, nil
	})
	if err != nil || !res.Changed {
		return resultOf(res), err
	}
	return resultOf(res), m.notifyRemoved(ctx, "remove project", projects)
}

// MoveEntity re-parents an entity under parentID, or to the root.
func (m *Model) MoveEntity(ctx context.Context, id, parentID string) (Result, error) {
	res, err := m.apply(ctx, "move", func(text string) (slnedit.Result, error) {
		return m.editor.MoveEntity(text, id, parentID)
	})
	return resultOf(res), err
}

// AddItem groups a file under a folder.
func (m *Model) AddItem(ctx context.Context, folderID, path string) (Result, error) {
	res, err := m.apply(ctx, "add item", func(text string) (slnedit.Result, error) {
		return m.editor.AddItem(text, folderID, path)
	})
	return resultOf(res), err
}

// RemoveItem drops a file from a folder.
func (m *Model) RemoveItem(ctx context.Context, folderID, path string) (Result, error) {
	res, err := m.apply(ctx, "remove item", func(text string) (slnedit.Result, error) {
		return m.editor.RemoveItem(text, folderID, path)
	})
	return resultOf(res), err
}

func (m *Model) absolute(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(m.Dir(), filepath.FromSlash(path))
}

// projectPaths returns the project file paths of the real projects among ids
// as declared in text.
func (m *Model) projectPaths(text string, ids []string) []string {
	doc, err := slnfile.Parse(text, m.Dir())
	if err != nil {
		return nil
	}
	var out []string
	for _, id := range ids {
		if e := doc.EntityByID(id); e != nil && !e.IsFolder() {
			out = append(out, e.Location)
		}
	}
	return out
}

func (m *Model) notifyRemoved(ctx context.Context, op string, projects []string) error {
	if m.projectCmd == nil || len(projects) == 0 {
		return nil
	}
	partial := &PartialError{Op: op, Total: 1 + len(projects)}
	for _, p := range projects {
		if err := m.projectCmd.ProjectRemoved(ctx, m.path, p); err != nil {
			m.log.Warn("solution: project command failed", zap.String("project", p), zap.Error(err))
			partial.add("notify "+p, &CollaboratorError{Collaborator: "project command", Op: "removed", Err: err})
		}
	}
	return partial.orNil()
}

// AddPackage adds a package reference to a project.
func (m *Model) AddPackage(ctx context.Context, projectID, name, version string) error {
	p, err := m.packageTarget(projectID)
	if err != nil {
		return err
	}
	if err := m.packages.AddPackage(ctx, p.Path(), name, version); err != nil {
		return &CollaboratorError{Collaborator: "packages", Op: "add " + name, Err: err}
	}
	return nil
}

// RemovePackage removes a package reference from a project.
func (m *Model) RemovePackage(ctx context.Context, projectID, name string) error {
	p, err := m.packageTarget(projectID)
	if err != nil {
		return err
	}
	if err := m.packages.RemovePackage(ctx, p.Path(), name); err != nil {
		return &CollaboratorError{Collaborator: "packages", Op: "remove " + name, Err: err}
	}
	return nil
}

func (m *Model) packageTarget(projectID string) (*ProjectModel, error) {
	if m.packages == nil {
		return nil, errors.New("solution: no package operations configured")
	}
	p := m.Project(projectID)
	if p == nil {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}
	return p, nil
}

// RenameFile renames a file on disk. Folders that group the file are
// updated, and the rename provider is told.
func (m *Model) RenameFile(ctx context.Context, oldPath, newPath string) error {
	oldPath, newPath = m.absolute(oldPath), m.absolute(newPath)
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("solution: rename: %w", err)
	}

	partial := &PartialError{Op: "rename file", Total: 1}
	for _, f := range m.Document().Folders() {
		folder := m.Folder(f.ID)
		if folder == nil || !containsPath(folder.Items(), oldPath) {
			continue
		}
		partial.Total++
		_, err := m.apply(ctx, "regroup renamed file", func(text string) (slnedit.Result, error) {
			removed, err := m.editor.RemoveItem(text, f.ID, oldPath)
			if err != nil || !removed.Changed {
				return removed, err
			}
			added, err := m.editor.AddItem(removed.Text, f.ID, newPath)
			if err != nil {
				return slnedit.Result{}, err
			}
			added.Changed = true
			return added, nil
		})
		if err != nil {
			partial.add("update folder "+f.Name, err)
		}
	}
	if m.renamer != nil {
		partial.Total++
		if err := m.renamer.FileRenamed(ctx, oldPath, newPath); err != nil {
			partial.add("notify rename provider", &CollaboratorError{Collaborator: "rename provider", Op: "file renamed", Err: err})
		}
	}
	return partial.orNil()
}

func containsPath(paths []string, p string) bool {
	for _, candidate := range paths {
		if filepath.Clean(candidate) == p {
			return true
		}
	}
	return false
}

// Text returns the solution text currently on disk.
func (m *Model) Text() (string, error) {
	return m.readText()
}
