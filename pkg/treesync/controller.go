// Package treesync keeps a lazily loaded tree view of a solution in step with
// the solution model and the files below it. Nodes are named by nodeid
// tokens; the set of expanded tokens survives rebuilds and restarts.
package treesync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/sln/pkg/logging"
	"tableflip.dev/sln/pkg/nodeid"
	"tableflip.dev/sln/pkg/notify"
	"tableflip.dev/sln/pkg/solution"
	"tableflip.dev/sln/pkg/store"
)

// ErrUnknownNode is returned for a token that names no node of the tree.
var ErrUnknownNode = errors.New("treesync: unknown node")

// Options configures a Controller. Zero values get defaults.
type Options struct {
	// Directories defaults to OSLister{}.
	Directories DirectoryLister
	// Dependencies defaults to the solution model.
	Dependencies DependencyLister
	// ViewState persists the expanded set; nil keeps it in memory only.
	ViewState store.ViewState
	// Watcher receives a watch for every expanded directory-backed node.
	Watcher store.Watcher
	// Workspace keys the persisted state. Defaults to the solution path.
	Workspace string

	Debounce       time.Duration
	RapidThreshold int
	RapidWindow    time.Duration

	Now func() time.Time
	Log *zap.Logger
}

// Subscription is a registered change handler.
type Subscription = notify.Subscription

// Controller owns the tree of one solution model.
type Controller struct {
	model *solution.Model
	opts  Options
	log   *zap.Logger

	changes notify.Hub[Change]

	mu         sync.Mutex
	root       *Node
	index      map[string]*Node
	transients map[string]*transient
	watched    map[string]string

	// trigger state, see notify.go
	nmu       sync.Mutex
	pending   map[string]struct{}
	triggered bool
	timer     *time.Timer
	hits      []time.Time
	snapshot  map[string]bool
	closed    bool
}

// New creates a controller for model. Call Load before reading the tree.
func New(model *solution.Model, opts Options) *Controller {
	if opts.Directories == nil {
		opts.Directories = OSLister{}
	}
	if opts.Dependencies == nil {
		opts.Dependencies = model
	}
	if opts.Workspace == "" {
		opts.Workspace = model.Path()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 150 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		model:      model,
		opts:       opts,
		log:        logging.OrNop(opts.Log).With(zap.String("workspace", opts.Workspace)),
		index:      make(map[string]*Node),
		transients: make(map[string]*transient),
		watched:    make(map[string]string),
		pending:    make(map[string]struct{}),
	}
}

// Load builds the tree and restores the persisted expanded set. Tokens that
// no longer name a node are dropped from storage.
func (c *Controller) Load(ctx context.Context) error {
	var want map[string]bool
	if c.opts.ViewState != nil {
		tokens, err := c.opts.ViewState.LoadExpanded(c.opts.Workspace)
		if err != nil {
			c.log.Warn("treesync: view state unreadable, starting fresh", zap.Error(err))
		}
		if tokens != nil {
			want = make(map[string]bool, len(tokens))
			for _, tok := range tokens {
				id, err := nodeid.Decode(tok)
				if err != nil || id.Kind() == nodeid.KindTransient {
					continue
				}
				want[tok] = true
			}
		}
	}

	c.mu.Lock()
	c.rebuildLocked(ctx, &rebuild{want: want})
	if want != nil {
		kept := len(c.expandedLocked())
		if dropped := len(want) - kept; dropped > 0 {
			c.log.Debug("treesync: dropped stale expanded tokens", zap.Int("count", dropped))
		}
	}
	c.persistLocked()
	c.mu.Unlock()

	c.changes.Emit(Change{Kind: ChangeTree})
	return nil
}

// Roots returns a copy of the top of the tree: the solution node.
func (c *Controller) Roots() []*Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.root == nil {
		return nil
	}
	return []*Node{c.root.clone()}
}

// Find returns a copy of the node named by token.
func (c *Controller) Find(token string) (*Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.index[token]
	if !ok {
		return nil, false
	}
	return n.clone(), true
}

// Expanded returns the persisted expansion set: the tokens of expanded nodes
// that are visible from the root, sorted.
func (c *Controller) Expanded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expandedLocked()
}

// Subscribe registers fn for tree changes.
func (c *Controller) Subscribe(fn func(Change)) *Subscription {
	return c.changes.Subscribe(fn)
}

// Expand loads the children of a node and opens it. Expanding an open node
// does nothing.
func (c *Controller) Expand(ctx context.Context, token string) error {
	c.mu.Lock()
	n, ok := c.index[token]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownNode, token)
	}
	if n.State.open() {
		c.mu.Unlock()
		return nil
	}
	if !n.Expandable && !virtual(n.Kind) {
		c.mu.Unlock()
		return nil
	}
	n.State = Expanding
	target := n.rebase()
	c.mu.Unlock()
	c.changes.Emit(Change{Kind: ChangeNode, Token: token, State: Expanding})

	kids, err := c.children(ctx, target)

	c.mu.Lock()
	n, ok = c.index[token]
	if !ok || n.State != Expanding {
		// A rebuild or collapse overtook the load.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		n.State = Collapsed
		c.mu.Unlock()
		c.changes.Emit(Change{Kind: ChangeNode, Token: token, State: Collapsed})
		return err
	}
	for _, old := range n.Children {
		old.Walk(func(d *Node) {
			if d.Kind != nodeid.KindTransient {
				delete(c.index, d.Token)
			}
		})
	}
	n.State, n.Loaded = Expanded, true
	n.Children = append(c.transientsUnder(token, c.index), kids...)
	for _, k := range kids {
		c.index[k.Token] = k
	}
	c.syncWatchesLocked()
	c.persistLocked()
	c.mu.Unlock()

	c.changes.Emit(Change{Kind: ChangeNode, Token: token, State: Expanded})
	return nil
}

// Collapse closes a node. Its loaded children are kept; its watch and any
// placeholders below it are dropped.
func (c *Controller) Collapse(token string) error {
	c.mu.Lock()
	n, ok := c.index[token]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownNode, token)
	}
	if n.State == Collapsed {
		c.mu.Unlock()
		return nil
	}
	n.State = Collapsing
	c.syncWatchesLocked()
	c.dropTransientsBelowLocked(n)
	n.State = Collapsed
	c.persistLocked()
	c.mu.Unlock()

	c.changes.Emit(Change{Kind: ChangeNode, Token: token, State: Collapsed})
	return nil
}

// Refresh rebuilds the tree and re-lists every expanded node.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.rebuildLocked(ctx, &rebuild{all: true})
	c.persistLocked()
	c.mu.Unlock()
	c.changes.Emit(Change{Kind: ChangeTree})
	return nil
}

// Close stops pending rebuilds, removes every watch and drops every
// subscription.
func (c *Controller) Close() error {
	c.nmu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.nmu.Unlock()

	c.mu.Lock()
	var err error
	if c.opts.Watcher != nil {
		for tok, dir := range c.watched {
			if rerr := c.opts.Watcher.Remove(dir); rerr != nil {
				err = rerr
			}
			delete(c.watched, tok)
		}
	}
	c.mu.Unlock()
	c.changes.CloseAll()
	return err
}

// rebuildLocked replaces the tree with a fresh one merged against the
// current one.
func (c *Controller) rebuildLocked(ctx context.Context, r *rebuild) {
	r.prev = c.index
	r.index = make(map[string]*Node)
	root := c.rootNode()
	c.materialize(ctx, root, r)
	c.root, c.index = root, r.index
	c.pruneTransientsLocked()
	c.syncWatchesLocked()
}

// visibleLocked calls fn for every node reachable from the root through
// open nodes.
func (c *Controller) visibleLocked(fn func(*Node)) {
	var walk func(*Node)
	walk = func(n *Node) {
		fn(n)
		if !n.State.open() {
			return
		}
		for _, k := range n.Children {
			walk(k)
		}
	}
	if c.root != nil {
		walk(c.root)
	}
}

func (c *Controller) expandedLocked() []string {
	var out []string
	c.visibleLocked(func(n *Node) {
		if n.State.persisted() && n.Kind != nodeid.KindTransient {
			out = append(out, n.Token)
		}
	})
	sort.Strings(out)
	return out
}

func (c *Controller) persistLocked() {
	if c.opts.ViewState == nil {
		return
	}
	if err := c.opts.ViewState.SaveExpanded(c.opts.Workspace, c.expandedLocked()); err != nil {
		c.log.Warn("treesync: save view state", zap.Error(err))
	}
}

// syncWatchesLocked makes the watch set match the open directory-backed
// nodes.
func (c *Controller) syncWatchesLocked() {
	if c.opts.Watcher == nil {
		return
	}
	want := map[string]string{}
	c.visibleLocked(func(n *Node) {
		if !n.State.open() {
			return
		}
		if dir := watchDir(n); dir != "" {
			want[n.Token] = dir
		}
	})
	for tok, dir := range c.watched {
		if want[tok] == dir {
			continue
		}
		if err := c.opts.Watcher.Remove(dir); err != nil {
			c.log.Debug("treesync: unwatch", zap.String("path", dir), zap.Error(err))
		}
		delete(c.watched, tok)
	}
	for tok, dir := range want {
		if _, ok := c.watched[tok]; ok {
			continue
		}
		if err := c.opts.Watcher.Add(dir); err != nil {
			c.log.Warn("treesync: watch", zap.String("path", dir), zap.Error(err))
			continue
		}
		c.watched[tok] = dir
	}
}
