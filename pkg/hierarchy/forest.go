// Package hierarchy derives the folder forest of a solution document and
// diffs successive documents.
package hierarchy

import (
	"tableflip.dev/sln/pkg/slnfile"
)

// RootID keys the synthetic bucket of unparented entities.
const RootID = ""

// Forest maps each parent id to its ordered children. Entities are kept in
// file order within a bucket. The forest only stores ids and never links
// entities to each other directly.
type Forest struct {
	byID     map[string]*slnfile.Entity
	children map[string][]*slnfile.Entity
	parent   map[string]string
}

// Build derives the forest of doc. Edges whose child or parent is unknown are
// dropped, and so is any edge that would close a cycle; the affected child
// then sits in the root bucket.
func Build(doc *slnfile.Document) *Forest {
	f := &Forest{
		byID:     make(map[string]*slnfile.Entity),
		children: make(map[string][]*slnfile.Entity),
		parent:   make(map[string]string),
	}
	if doc == nil {
		return f
	}
	for _, e := range doc.Entities {
		key := slnfile.NormalizeGUID(e.ID)
		if key == "" {
			continue
		}
		if _, dup := f.byID[key]; !dup {
			f.byID[key] = e
		}
	}

	for _, edge := range doc.Edges {
		child := slnfile.NormalizeGUID(edge.ChildID)
		parent := slnfile.NormalizeGUID(edge.ParentID)
		if _, ok := f.byID[child]; !ok {
			continue
		}
		if _, ok := f.byID[parent]; !ok {
			continue
		}
		if _, assigned := f.parent[child]; assigned {
			continue
		}
		if child == parent || f.isAncestor(child, parent) {
			continue
		}
		f.parent[child] = parent
	}

	for _, e := range doc.Entities {
		key := slnfile.NormalizeGUID(e.ID)
		if f.byID[key] != e {
			continue
		}
		p := f.parent[key]
		f.children[p] = append(f.children[p], e)
	}
	return f
}

// isAncestor reports whether candidate appears on the parent chain of id.
func (f *Forest) isAncestor(candidate, id string) bool {
	seen := map[string]bool{}
	for cur := id; cur != ""; cur = f.parent[cur] {
		if cur == candidate {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
	return false
}

// Roots returns the entities without a parent.
func (f *Forest) Roots() []*slnfile.Entity {
	return f.Children(RootID)
}

// Children returns the direct children of a folder id.
func (f *Forest) Children(id string) []*slnfile.Entity {
	if f == nil {
		return nil
	}
	return f.children[slnfile.NormalizeGUID(id)]
}

// Parent returns the parent id of id, or RootID.
func (f *Forest) Parent(id string) string {
	if f == nil {
		return RootID
	}
	return f.parent[slnfile.NormalizeGUID(id)]
}

// Entity looks an entity up by id.
func (f *Forest) Entity(id string) *slnfile.Entity {
	if f == nil {
		return nil
	}
	return f.byID[slnfile.NormalizeGUID(id)]
}

// Contains reports whether id names an entity in the forest.
func (f *Forest) Contains(id string) bool {
	return f.Entity(id) != nil
}

// Descendants lists every entity below id in depth-first pre-order. The walk
// keeps a visited set so malformed input cannot make it loop.
func (f *Forest) Descendants(id string) []*slnfile.Entity {
	if f == nil {
		return nil
	}
	var out []*slnfile.Entity
	visited := map[string]bool{slnfile.NormalizeGUID(id): true}
	var walk func(string)
	walk = func(parent string) {
		for _, child := range f.children[parent] {
			key := slnfile.NormalizeGUID(child.ID)
			if visited[key] {
				continue
			}
			visited[key] = true
			out = append(out, child)
			walk(key)
		}
	}
	walk(slnfile.NormalizeGUID(id))
	return out
}

// Path returns the ancestor folders of id from the root down.
func (f *Forest) Path(id string) []*slnfile.Entity {
	var chain []*slnfile.Entity
	seen := map[string]bool{}
	for cur := f.Parent(id); cur != RootID && !seen[cur]; cur = f.Parent(cur) {
		seen[cur] = true
		if e := f.Entity(cur); e != nil {
			chain = append([]*slnfile.Entity{e}, chain...)
		}
	}
	return chain
}
