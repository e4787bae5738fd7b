package treesync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"tableflip.dev/sln/pkg/nodeid"
)

// Placeholder purposes.
const (
	PurposeFolder    = "folder"
	PurposeFile      = "file"
	PurposeDirectory = "directory"
)

type transient struct {
	parent string
	node   *Node
}

func (t *transient) created() int64 {
	return t.node.ID.(nodeid.Transient).Created.UnixNano()
}

// allowed lists the purposes a placeholder may have under each parent kind.
var allowed = map[nodeid.Kind][]string{
	nodeid.KindRoot:           {PurposeFolder},
	nodeid.KindGroupingFolder: {PurposeFolder},
	nodeid.KindProject:        {PurposeFile, PurposeDirectory},
	nodeid.KindDirectory:      {PurposeFile, PurposeDirectory},
}

func purposeAllowed(k nodeid.Kind, purpose string) bool {
	for _, p := range allowed[k] {
		if p == purpose {
			return true
		}
	}
	return false
}

// BeginCreate puts a placeholder for a new folder, file or directory at the
// top of a node's children, expanding the node first. The placeholder's
// token is returned.
func (c *Controller) BeginCreate(ctx context.Context, parentToken, purpose string) (string, error) {
	c.mu.Lock()
	parent, ok := c.index[parentToken]
	if !ok {
		c.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownNode, parentToken)
	}
	if !purposeAllowed(parent.Kind, purpose) {
		c.mu.Unlock()
		return "", fmt.Errorf("treesync: cannot create a %s under a %s", purpose, parent.Kind)
	}
	open := parent.State == Expanded
	c.mu.Unlock()

	if !open {
		if err := c.Expand(ctx, parentToken); err != nil {
			return "", err
		}
	}

	c.mu.Lock()
	parent, ok = c.index[parentToken]
	if !ok {
		c.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownNode, parentToken)
	}
	if parent.State != Expanded {
		c.mu.Unlock()
		return "", fmt.Errorf("treesync: %s is %s", parent.Label, parent.State)
	}
	id, err := nodeid.NewTransient(parent.ID, purpose)
	if err != nil {
		c.mu.Unlock()
		return "", fmt.Errorf("treesync: %w", err)
	}
	n := newNode(id, "", "", false)
	c.transients[n.Token] = &transient{parent: parentToken, node: n}
	c.index[n.Token] = n
	parent.Children = append([]*Node{n}, parent.Children...)
	c.mu.Unlock()

	c.changes.Emit(Change{Kind: ChangeNode, Token: parentToken, State: Expanded})
	return n.Token, nil
}

// Cancel drops a placeholder.
func (c *Controller) Cancel(token string) error {
	c.mu.Lock()
	t, ok := c.transients[token]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownNode, token)
	}
	c.removeTransientLocked(token, t)
	c.mu.Unlock()

	c.changes.Emit(Change{Kind: ChangeNode, Token: t.parent})
	return nil
}

// Commit turns a placeholder into the real thing: a solution folder under a
// solution or folder node, or a file or directory on disk under a project or
// directory node. The token of the created node is returned. On failure the
// placeholder stays so the name can be corrected.
func (c *Controller) Commit(ctx context.Context, token, name string) (string, error) {
	c.mu.Lock()
	t, ok := c.transients[token]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNode, token)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("treesync: name required")
	}

	tid := t.node.ID.(nodeid.Transient)
	parentID, err := tid.ParentIdentity()
	if err != nil {
		return "", fmt.Errorf("treesync: placeholder parent: %w", err)
	}

	var created nodeid.Identity
	changed := map[string]bool{}
	switch p := parentID.(type) {
	case nodeid.Root:
		created, err = c.commitFolder(ctx, name, "")
	case nodeid.GroupingFolder:
		created, err = c.commitFolder(ctx, name, p.FolderID)
	case nodeid.Project:
		created, err = createOnDisk(p.ProjectID, filepath.Dir(p.Path), name, tid.Purpose)
	case nodeid.Directory:
		created, err = createOnDisk(p.ProjectID, p.Path, name, tid.Purpose)
	default:
		err = fmt.Errorf("treesync: cannot create under a %s", parentID.Kind())
	}
	if err != nil {
		return "", err
	}
	switch id := created.(type) {
	case nodeid.File:
		changed[id.Path] = true
	case nodeid.Directory:
		changed[id.Path] = true
	}

	c.mu.Lock()
	if t, ok := c.transients[token]; ok {
		c.removeTransientLocked(token, t)
	}
	c.rebuildLocked(ctx, &rebuild{changed: changed})
	c.persistLocked()
	c.mu.Unlock()
	c.changes.Emit(Change{Kind: ChangeTree})

	out, err := nodeid.Encode(created)
	if err != nil {
		return "", fmt.Errorf("treesync: %w", err)
	}
	c.log.Info("treesync: created", zap.String("kind", created.Kind().String()), zap.String("name", name))
	return out, nil
}

func (c *Controller) commitFolder(ctx context.Context, name, parentID string) (nodeid.Identity, error) {
	res, err := c.model.AddFolder(ctx, name, parentID)
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		return nil, fmt.Errorf("treesync: folder %q not created: the name is taken or invalid", name)
	}
	return nodeid.GroupingFolder{Solution: c.model.Path(), FolderID: res.ID}, nil
}

func createOnDisk(projectID, dir, name, purpose string) (nodeid.Identity, error) {
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("treesync: invalid name %q", name)
	}
	path := filepath.Join(dir, name)
	if purpose == PurposeDirectory {
		if err := os.Mkdir(path, 0o755); err != nil {
			return nil, fmt.Errorf("treesync: create directory: %w", err)
		}
		return nodeid.Directory{ProjectID: projectID, Path: path}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("treesync: create file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("treesync: create file: %w", err)
	}
	return nodeid.File{ProjectID: projectID, Path: path}, nil
}

func (c *Controller) removeTransientLocked(token string, t *transient) {
	delete(c.transients, token)
	delete(c.index, token)
	if parent, ok := c.index[t.parent]; ok {
		for i, k := range parent.Children {
			if k.Token == token {
				parent.Children = append(parent.Children[:i:i], parent.Children[i+1:]...)
				break
			}
		}
	}
}

// transientsUnder returns the placeholders of a parent, newest first, and
// indexes them.
func (c *Controller) transientsUnder(parent string, index map[string]*Node) []*Node {
	var ts []*transient
	for _, t := range c.transients {
		if t.parent == parent {
			ts = append(ts, t)
		}
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].created() > ts[j].created() })
	out := make([]*Node, 0, len(ts))
	for _, t := range ts {
		index[t.node.Token] = t.node
		out = append(out, t.node)
	}
	return out
}

// pruneTransientsLocked drops placeholders whose parent is gone or closed.
func (c *Controller) pruneTransientsLocked() {
	for tok, t := range c.transients {
		if parent, ok := c.index[t.parent]; ok && parent.State.open() {
			continue
		}
		delete(c.transients, tok)
		delete(c.index, tok)
	}
}

func (c *Controller) dropTransientsBelowLocked(n *Node) {
	n.Walk(func(d *Node) {
		if t, ok := c.transients[d.Token]; ok {
			c.removeTransientLocked(d.Token, t)
		}
	})
}
