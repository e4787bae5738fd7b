package hierarchy

import (
	"strings"

	"tableflip.dev/sln/pkg/slnfile"
)

// Changes lists the entities that appeared or disappeared between two
// documents, split by entity kind so owners can build the right sub-model.
type Changes struct {
	AddedFolders    []*slnfile.Entity
	RemovedFolders  []*slnfile.Entity
	AddedProjects   []*slnfile.Entity
	RemovedProjects []*slnfile.Entity
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.AddedFolders) == 0 && len(c.RemovedFolders) == 0 &&
		len(c.AddedProjects) == 0 && len(c.RemovedProjects) == 0
}

type entityKey struct {
	typeID   string
	location string
}

func keyOf(e *slnfile.Entity) entityKey {
	return entityKey{
		typeID:   slnfile.NormalizeGUID(e.TypeID),
		location: strings.ToLower(e.Location),
	}
}

// Diff compares entity sets keyed by (type id, location). Ids are not part
// of the key because some edits regenerate an entity without keeping its id.
func Diff(old, next *slnfile.Document) Changes {
	var changes Changes
	oldSet := make(map[entityKey]bool)
	if old != nil {
		for _, e := range old.Entities {
			oldSet[keyOf(e)] = true
		}
	}
	newSet := make(map[entityKey]bool)
	if next != nil {
		for _, e := range next.Entities {
			newSet[keyOf(e)] = true
			if oldSet[keyOf(e)] {
				continue
			}
			if e.IsFolder() {
				changes.AddedFolders = append(changes.AddedFolders, e)
			} else {
				changes.AddedProjects = append(changes.AddedProjects, e)
			}
		}
	}
	if old != nil {
		for _, e := range old.Entities {
			if newSet[keyOf(e)] {
				continue
			}
			if e.IsFolder() {
				changes.RemovedFolders = append(changes.RemovedFolders, e)
			} else {
				changes.RemovedProjects = append(changes.RemovedProjects, e)
			}
		}
	}
	return changes
}
