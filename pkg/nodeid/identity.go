// Package nodeid names tree nodes with opaque, compact tokens. An Identity is
// one of a closed set of node kinds; Encode turns it into a token that is safe
// to pass through any plain-text channel, and Decode turns it back.
package nodeid

import (
	"time"

	"github.com/google/uuid"
)

// Kind enumerates the node kinds.
type Kind uint8

const (
	KindRoot Kind = iota + 1
	KindProject
	KindDirectory
	KindFile
	KindGroupingFolder
	KindGroupedItem
	KindDependencyContainer
	KindDependencyCategory
	KindDependency
	KindTransient
)

var kindNames = map[Kind]string{
	KindRoot:                "root",
	KindProject:             "project",
	KindDirectory:           "directory",
	KindFile:                "file",
	KindGroupingFolder:      "folder",
	KindGroupedItem:         "item",
	KindDependencyContainer: "dependencies",
	KindDependencyCategory:  "dependency-category",
	KindDependency:          "dependency",
	KindTransient:           "transient",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Identity is implemented only by the types in this package.
type Identity interface {
	Kind() Kind
	parts() []string
}

// Root is the solution itself.
type Root struct {
	Solution string
}

// Project is a real project entity.
type Project struct {
	Solution  string
	ProjectID string
	Path      string
}

// Directory is a directory on disk below a project.
type Directory struct {
	ProjectID string
	Path      string
}

// File is a file on disk below a project.
type File struct {
	ProjectID string
	Path      string
}

// GroupingFolder is a solution folder.
type GroupingFolder struct {
	Solution string
	FolderID string
}

// GroupedItem is a file grouped under a solution folder.
type GroupedItem struct {
	FolderID string
	Path     string
}

// DependencyContainer holds the dependencies of a project.
type DependencyContainer struct {
	ProjectID string
}

// DependencyCategory groups dependencies, e.g. packages or projects.
type DependencyCategory struct {
	ProjectID string
	Category  string
}

// Dependency is one package, project or assembly reference.
type Dependency struct {
	ProjectID string
	Category  string
	Name      string
	Version   string
}

// Transient is a placeholder for a node that does not exist yet, such as a
// folder being named. Two transients never share a token.
type Transient struct {
	// Parent is the token of the node the placeholder sits under.
	Parent  string
	Purpose string
	Created time.Time
	Nonce   string
}

func (Root) Kind() Kind                { return KindRoot }
func (Project) Kind() Kind             { return KindProject }
func (Directory) Kind() Kind           { return KindDirectory }
func (File) Kind() Kind                { return KindFile }
func (GroupingFolder) Kind() Kind      { return KindGroupingFolder }
func (GroupedItem) Kind() Kind         { return KindGroupedItem }
func (DependencyContainer) Kind() Kind { return KindDependencyContainer }
func (DependencyCategory) Kind() Kind  { return KindDependencyCategory }
func (Dependency) Kind() Kind          { return KindDependency }
func (Transient) Kind() Kind           { return KindTransient }

func (r Root) parts() []string                { return []string{r.Solution} }
func (p Project) parts() []string             { return []string{p.Solution, p.ProjectID, p.Path} }
func (d Directory) parts() []string           { return []string{d.ProjectID, d.Path} }
func (f File) parts() []string                { return []string{f.ProjectID, f.Path} }
func (g GroupingFolder) parts() []string      { return []string{g.Solution, g.FolderID} }
func (g GroupedItem) parts() []string         { return []string{g.FolderID, g.Path} }
func (d DependencyContainer) parts() []string { return []string{d.ProjectID} }
func (d DependencyCategory) parts() []string  { return []string{d.ProjectID, d.Category} }
func (d Dependency) parts() []string {
	return []string{d.ProjectID, d.Category, d.Name, d.Version}
}

// Transient carries a timestamp as well, so its parts are encoded separately.
func (t Transient) parts() []string { return []string{t.Parent, t.Purpose, t.Nonce} }

// builders rebuild an identity from its decoded parts, keyed by kind. The
// slice length is checked against arity before the builder runs.
var builders = map[Kind]struct {
	arity int
	build func(p []string) Identity
}{
	KindRoot:                {1, func(p []string) Identity { return Root{Solution: p[0]} }},
	KindProject:             {3, func(p []string) Identity { return Project{Solution: p[0], ProjectID: p[1], Path: p[2]} }},
	KindDirectory:           {2, func(p []string) Identity { return Directory{ProjectID: p[0], Path: p[1]} }},
	KindFile:                {2, func(p []string) Identity { return File{ProjectID: p[0], Path: p[1]} }},
	KindGroupingFolder:      {2, func(p []string) Identity { return GroupingFolder{Solution: p[0], FolderID: p[1]} }},
	KindGroupedItem:         {2, func(p []string) Identity { return GroupedItem{FolderID: p[0], Path: p[1]} }},
	KindDependencyContainer: {1, func(p []string) Identity { return DependencyContainer{ProjectID: p[0]} }},
	KindDependencyCategory:  {2, func(p []string) Identity { return DependencyCategory{ProjectID: p[0], Category: p[1]} }},
	KindDependency: {4, func(p []string) Identity {
		return Dependency{ProjectID: p[0], Category: p[1], Name: p[2], Version: p[3]}
	}},
	KindTransient: {3, func(p []string) Identity { return Transient{Parent: p[0], Purpose: p[1], Nonce: p[2]} }},
}

// NewTransient creates a placeholder under parent.
func NewTransient(parent Identity, purpose string) (Transient, error) {
	token, err := Encode(parent)
	if err != nil {
		return Transient{}, err
	}
	return Transient{
		Parent:  token,
		Purpose: purpose,
		Created: time.Now().UTC(),
		Nonce:   uuid.NewString(),
	}, nil
}

// ParentIdentity decodes the placeholder's parent.
func (t Transient) ParentIdentity() (Identity, error) {
	return Decode(t.Parent)
}
