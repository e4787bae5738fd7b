package solution

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tableflip.dev/sln/pkg/slnfile"
)

// ProjectModel is the live view of one real project. It is disposed when
// the project leaves the solution or the model closes.
type ProjectModel struct {
	mu       sync.RWMutex
	entity   *slnfile.Entity
	disposed bool
}

func newProjectModel(e *slnfile.Entity) *ProjectModel {
	return &ProjectModel{entity: e}
}

func (p *ProjectModel) setEntity(e *slnfile.Entity) {
	p.mu.Lock()
	p.entity = e
	p.mu.Unlock()
}

func (p *ProjectModel) dispose() {
	p.mu.Lock()
	p.disposed = true
	p.mu.Unlock()
}

// Entity is the project's current declaration.
func (p *ProjectModel) Entity() *slnfile.Entity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.entity
}

// Disposed reports whether the model has been dropped.
func (p *ProjectModel) Disposed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.disposed
}

func (p *ProjectModel) ID() string         { return p.Entity().ID }
func (p *ProjectModel) Name() string       { return p.Entity().Name }
func (p *ProjectModel) Kind() slnfile.Kind { return p.Entity().Kind() }

// Path is the absolute project file path.
func (p *ProjectModel) Path() string { return p.Entity().Location }

// Dir is the directory holding the project file.
func (p *ProjectModel) Dir() string { return filepath.Dir(p.Path()) }

// Dependency categories.
const (
	CategoryPackages   = "packages"
	CategoryProjects   = "projects"
	CategoryAssemblies = "assemblies"
)

// Dependency is one reference declared by a project file.
type Dependency struct {
	Category string
	Name     string
	Version  string
	// Path is set for project references.
	Path string
}

// Dependencies reads the PackageReference, ProjectReference and Reference
// items of the project file in document order.
func (p *ProjectModel) Dependencies(ctx context.Context) ([]Dependency, error) {
	if p.Disposed() {
		return nil, ErrClosed
	}
	f, err := os.Open(p.Path())
	if err != nil {
		return nil, fmt.Errorf("solution: open project: %w", err)
	}
	defer f.Close()
	deps, err := readDependencies(ctx, f, p.Dir())
	if err != nil {
		return nil, fmt.Errorf("solution: read %s: %w", p.Path(), err)
	}
	return deps, nil
}

func readDependencies(ctx context.Context, r io.Reader, dir string) ([]Dependency, error) {
	dec := xml.NewDecoder(r)
	var deps []Dependency
	// open tracks a reference element whose Version may arrive as a child.
	var open *Dependency
	var inVersion bool
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return deps, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if open != nil && t.Name.Local == "Version" {
				inVersion = true
				continue
			}
			dep, ok := referenceOf(t, dir)
			if !ok {
				continue
			}
			deps = append(deps, dep)
			open = &deps[len(deps)-1]
		case xml.CharData:
			if inVersion && open != nil {
				open.Version += strings.TrimSpace(string(t))
			}
		case xml.EndElement:
			switch {
			case t.Name.Local == "Version":
				inVersion = false
			case open != nil && isReference(t.Name.Local):
				open = nil
			}
		}
	}
}

func isReference(local string) bool {
	switch local {
	case "PackageReference", "ProjectReference", "Reference":
		return true
	}
	return false
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

func referenceOf(el xml.StartElement, dir string) (Dependency, bool) {
	include := attr(el, "Include")
	if include == "" {
		return Dependency{}, false
	}
	switch el.Name.Local {
	case "PackageReference":
		return Dependency{Category: CategoryPackages, Name: include, Version: attr(el, "Version")}, true
	case "ProjectReference":
		path := slnfile.ResolvePath(dir, include)
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return Dependency{Category: CategoryProjects, Name: name, Path: path}, true
	case "Reference":
		// Assembly references may carry a strong name: "Name, Version=..., ...".
		name, rest, _ := strings.Cut(include, ",")
		dep := Dependency{Category: CategoryAssemblies, Name: strings.TrimSpace(name)}
		for _, part := range strings.Split(rest, ",") {
			if k, v, ok := strings.Cut(strings.TrimSpace(part), "="); ok && k == "Version" {
				dep.Version = v
			}
		}
		return dep, true
	}
	return Dependency{}, false
}

// FolderModel is the live view of one grouping folder.
type FolderModel struct {
	mu       sync.RWMutex
	entity   *slnfile.Entity
	base     string
	disposed bool
}

func newFolderModel(e *slnfile.Entity, base string) *FolderModel {
	return &FolderModel{entity: e, base: base}
}

func (f *FolderModel) setEntity(e *slnfile.Entity) {
	f.mu.Lock()
	f.entity = e
	f.mu.Unlock()
}

func (f *FolderModel) dispose() {
	f.mu.Lock()
	f.disposed = true
	f.mu.Unlock()
}

// Entity is the folder's current declaration.
func (f *FolderModel) Entity() *slnfile.Entity {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.entity
}

// Disposed reports whether the model has been dropped.
func (f *FolderModel) Disposed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.disposed
}

func (f *FolderModel) ID() string   { return f.Entity().ID }
func (f *FolderModel) Name() string { return f.Entity().Name }

// Items lists the folder's grouped files as absolute paths.
func (f *FolderModel) Items() []string {
	items := f.Entity().Items()
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, slnfile.ResolvePath(f.base, it))
	}
	return out
}

// Dependencies lists the references declared by a project.
func (m *Model) Dependencies(ctx context.Context, projectID string) ([]Dependency, error) {
	p := m.Project(projectID)
	if p == nil {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}
	return p.Dependencies(ctx)
}

// Resolve finds an entity by GUID or by its slash-separated name path from
// the root, e.g. "Shared/Tools/CLI". Names compare case-insensitively.
func (m *Model) Resolve(ref string) (*slnfile.Entity, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrNotFound)
	}
	forest := m.Forest()
	if slnfile.ValidGUID(ref) {
		if e := forest.Entity(ref); e != nil {
			return e, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}

	var found *slnfile.Entity
	parent := ""
	for _, name := range strings.FieldsFunc(ref, func(r rune) bool { return r == '/' || r == '\\' }) {
		found = nil
		for _, e := range forest.Children(parent) {
			if strings.EqualFold(e.Name, name) {
				found = e
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		parent = found.ID
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return found, nil
}

// ResolveFolder is Resolve restricted to grouping folders.
func (m *Model) ResolveFolder(ref string) (*slnfile.Entity, error) {
	e, err := m.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if !e.IsFolder() {
		return nil, fmt.Errorf("%w: %s is a project, not a folder", ErrNotFound, ref)
	}
	return e, nil
}

// ResolveProject is Resolve restricted to real projects.
func (m *Model) ResolveProject(ref string) (*slnfile.Entity, error) {
	e, err := m.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if e.IsFolder() {
		return nil, fmt.Errorf("%w: %s is a folder, not a project", ErrNotFound, ref)
	}
	return e, nil
}

// ParentRef resolves an optional parent folder reference; "" is the root.
func (m *Model) ParentRef(ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", nil
	}
	e, err := m.ResolveFolder(ref)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}
