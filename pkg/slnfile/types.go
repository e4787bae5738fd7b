// Package slnfile parses and serializes Visual Studio solution files.
package slnfile

import (
	"path/filepath"
	"strings"
)

// Phase says whether a section is applied before or after its owner loads.
type Phase int

const (
	// PhasePre marks preProject / preSolution sections.
	PhasePre Phase = iota
	// PhasePost marks postProject / postSolution sections.
	PhasePost
)

// ProjectToken renders the phase as it appears in a ProjectSection header.
func (p Phase) ProjectToken() string {
	if p == PhasePost {
		return "postProject"
	}
	return "preProject"
}

// SolutionToken renders the phase as it appears in a GlobalSection header.
func (p Phase) SolutionToken() string {
	if p == PhasePost {
		return "postSolution"
	}
	return "preSolution"
}

// Item is a single `key = value` row inside a section.
type Item struct {
	Key   string
	Value string
}

// Section is a named block of ordered key/value rows. Duplicate keys are kept.
type Section struct {
	Name  string
	Phase Phase
	Items []Item
}

// Value returns the value of the last row with the given key.
func (s *Section) Value(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	for i := len(s.Items) - 1; i >= 0; i-- {
		if s.Items[i].Key == key {
			return s.Items[i].Value, true
		}
	}
	return "", false
}

// Entity is one Project(...) block: a real project or a grouping folder.
type Entity struct {
	TypeID string
	Name   string
	// Location is absolute for projects and equal to Name for folders.
	Location string
	// RawLocation is the location exactly as written in the file.
	RawLocation string
	ID          string
	Sections    []Section
}

// Kind reports the registered kind of the entity's type id.
func (e *Entity) Kind() Kind {
	return KindOf(e.TypeID)
}

// IsFolder reports whether the entity is a grouping folder.
func (e *Entity) IsFolder() bool {
	return e.Kind() == KindFolder
}

// Section returns the entity-local section with the given name.
func (e *Entity) Section(name string) *Section {
	for i := range e.Sections {
		if e.Sections[i].Name == name {
			return &e.Sections[i]
		}
	}
	return nil
}

// Items lists the SolutionItems of a grouping folder in file order.
func (e *Entity) Items() []string {
	sec := e.Section(SolutionItemsSection)
	if sec == nil {
		return nil
	}
	out := make([]string, 0, len(sec.Items))
	for _, it := range sec.Items {
		out = append(out, it.Key)
	}
	return out
}

// Edge places ChildID inside the grouping folder ParentID.
type Edge struct {
	ChildID  string
	ParentID string
}

// Document is the parsed form of a solution file.
type Document struct {
	FormatVersion      string
	ToolVersion        string
	MinimumToolVersion string
	Entities           []*Entity
	GlobalSections     []Section
	Edges              []Edge

	// Path is the solution file path when known; BasePath is its directory.
	Path     string
	BasePath string
}

const (
	// NestedProjectsSection holds child = parent rows.
	NestedProjectsSection = "NestedProjects"
	// SolutionItemsSection holds the files grouped under a folder.
	SolutionItemsSection = "SolutionItems"
	// ProjectConfigurationSection maps project ids to build configurations.
	ProjectConfigurationSection = "ProjectConfigurationPlatforms"
)

// EntityByID finds an entity by id. GUIDs compare case-insensitively.
func (d *Document) EntityByID(id string) *Entity {
	if d == nil {
		return nil
	}
	for _, e := range d.Entities {
		if SameGUID(e.ID, id) {
			return e
		}
	}
	return nil
}

// FoldersByName returns every grouping folder with the given name in file order.
func (d *Document) FoldersByName(name string) []*Entity {
	var out []*Entity
	for _, e := range d.Folders() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Folders lists grouping folders in file order.
func (d *Document) Folders() []*Entity {
	if d == nil {
		return nil
	}
	var out []*Entity
	for _, e := range d.Entities {
		if e.IsFolder() {
			out = append(out, e)
		}
	}
	return out
}

// Projects lists real projects in file order.
func (d *Document) Projects() []*Entity {
	if d == nil {
		return nil
	}
	var out []*Entity
	for _, e := range d.Entities {
		if !e.IsFolder() {
			out = append(out, e)
		}
	}
	return out
}

// GlobalSection returns the first global section with the given name.
func (d *Document) GlobalSection(name string) *Section {
	if d == nil {
		return nil
	}
	for i := range d.GlobalSections {
		if d.GlobalSections[i].Name == name {
			return &d.GlobalSections[i]
		}
	}
	return nil
}

// ParentOf returns the parent id of an entity, or "" when it is a root.
func (d *Document) ParentOf(id string) string {
	if d == nil {
		return ""
	}
	for _, edge := range d.Edges {
		if SameGUID(edge.ChildID, id) {
			return edge.ParentID
		}
	}
	return ""
}

// RelativePath expresses abs relative to base with forward slashes, which is
// how paths are written into the file regardless of the host separator.
func RelativePath(base, abs string) string {
	if base == "" || !filepath.IsAbs(abs) {
		return filepath.ToSlash(abs)
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// ResolvePath turns a location written in the file into an absolute host path.
func ResolvePath(base, raw string) string {
	normalized := filepath.FromSlash(strings.ReplaceAll(raw, `\`, "/"))
	if filepath.IsAbs(normalized) || base == "" {
		return filepath.Clean(normalized)
	}
	return filepath.Join(base, normalized)
}
