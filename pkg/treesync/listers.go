package treesync

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tableflip.dev/sln/pkg/solution"
)

// Entry is one directory entry.
type Entry struct {
	Name string
	Path string
	Dir  bool
}

// DirectoryLister lists the entries of a directory below a project.
type DirectoryLister interface {
	List(ctx context.Context, dir string) ([]Entry, error)
}

// DependencyLister lists the references of a project. *solution.Model
// implements it.
type DependencyLister interface {
	Dependencies(ctx context.Context, projectID string) ([]solution.Dependency, error)
}

// DefaultExclude hides build output and tool directories.
var DefaultExclude = []string{"bin", "obj", ".vs", ".git", ".idea", "node_modules"}

// OSLister reads directories from disk. Entries whose base name matches one
// of the Exclude glob patterns are skipped; a nil Exclude uses
// DefaultExclude.
type OSLister struct {
	Exclude []string
}

func (l OSLister) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	exclude := l.Exclude
	if exclude == nil {
		exclude = DefaultExclude
	}
	out := make([]Entry, 0, len(des))
	for _, de := range des {
		if excluded(exclude, de.Name()) {
			continue
		}
		out = append(out, Entry{
			Name: de.Name(),
			Path: filepath.Join(dir, de.Name()),
			Dir:  de.IsDir(),
		})
	}
	return out, nil
}

func excluded(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// sortEntries puts directories first, then orders by name ignoring case.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Dir != entries[j].Dir {
			return entries[i].Dir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
}
