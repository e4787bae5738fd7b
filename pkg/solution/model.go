// Package solution owns one solution file: its parsed document, the folder
// forest, a sub-model per entity, and every edit made through the tool.
package solution

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/sln/pkg/hierarchy"
	"tableflip.dev/sln/pkg/logging"
	"tableflip.dev/sln/pkg/notify"
	"tableflip.dev/sln/pkg/slnedit"
	"tableflip.dev/sln/pkg/slnfile"
	"tableflip.dev/sln/pkg/store"
)

// Option configures Open.
type Option func(*Model)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Model) { m.log = logging.OrNop(log) }
}

// WithWatcher makes the model watch the solution directory through w. The
// model reads w's events; other owners may Add and Remove paths on it and
// receive the changes as EventFilesChanged. The model does not close w.
func WithWatcher(w store.Watcher) Option {
	return func(m *Model) { m.watcher = w }
}

// WithWatchDelay sets the coalescing window of the default watcher.
func WithWatchDelay(d time.Duration) Option {
	return func(m *Model) { m.watchDelay = d }
}

// WithProjectCommand sets the collaborator told about added and removed projects.
func WithProjectCommand(c ExternalProjectCommand) Option {
	return func(m *Model) { m.projectCmd = c }
}

// WithPackages sets the package collaborator.
func WithPackages(p PackageOperations) Option {
	return func(m *Model) { m.packages = p }
}

// WithRenameProvider sets the collaborator told about renamed files.
func WithRenameProvider(r RenameProvider) Option {
	return func(m *Model) { m.renamer = r }
}

// Model is the live view of one solution file.
type Model struct {
	path       string
	log        *zap.Logger
	editor     slnedit.Editor
	watcher    store.Watcher
	ownWatcher bool
	watchDelay time.Duration

	projectCmd ExternalProjectCommand
	packages   PackageOperations
	renamer    RenameProvider

	events notify.Hub[Event]

	// editMu serializes edits so each one reads the text the previous wrote.
	editMu sync.Mutex
	// reloadMu keeps diff and install of one reload together.
	reloadMu sync.Mutex

	mu       sync.RWMutex
	doc      *slnfile.Document
	forest   *hierarchy.Forest
	projects map[string]*ProjectModel
	folders  map[string]*FolderModel
	closed   bool

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Open reads and parses the solution at path. A parse error is returned and
// no model is created.
func Open(ctx context.Context, path string, opts ...Option) (*Model, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("solution: resolve %s: %w", path, err)
	}
	m := &Model{
		path:       abs,
		log:        zap.NewNop(),
		editor:     slnedit.Editor{BasePath: filepath.Dir(abs)},
		watchDelay: 150 * time.Millisecond,
		projects:   make(map[string]*ProjectModel),
		folders:    make(map[string]*FolderModel),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(zap.String("solution", abs))

	doc, err := slnfile.ParseFile(abs)
	if err != nil {
		return nil, err
	}
	m.install(doc)

	if m.watcher == nil {
		w, err := store.NewWatcher(m.watchDelay, m.log)
		if err != nil {
			return nil, fmt.Errorf("solution: %w", err)
		}
		m.watcher, m.ownWatcher = w, true
	}
	if err := m.watcher.Add(m.Dir()); err != nil {
		m.closeWatcher()
		return nil, fmt.Errorf("solution: %w", err)
	}
	m.wg.Add(1)
	go m.watch()

	m.log.Debug("solution: opened",
		zap.Int("projects", len(doc.Projects())),
		zap.Int("folders", len(doc.Folders())))
	return m, nil
}

// Path is the absolute solution file path.
func (m *Model) Path() string { return m.path }

// Dir is the directory holding the solution file.
func (m *Model) Dir() string { return filepath.Dir(m.path) }

// UserStatePath is the companion user-state file.
func (m *Model) UserStatePath() string { return m.path + ".user" }

// Watcher is the watcher the model reads from.
func (m *Model) Watcher() store.Watcher { return m.watcher }

// Document returns the current document. Treat it as read-only.
func (m *Model) Document() *slnfile.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc
}

// Forest returns the folder forest of the current document.
func (m *Model) Forest() *hierarchy.Forest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.forest
}

// Project returns the sub-model of a real project.
func (m *Model) Project(id string) *ProjectModel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.projects[slnfile.NormalizeGUID(id)]
}

// Folder returns the sub-model of a grouping folder.
func (m *Model) Folder(id string) *FolderModel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.folders[slnfile.NormalizeGUID(id)]
}

// Subscribe registers fn for model events.
func (m *Model) Subscribe(fn func(Event)) *Subscription {
	return m.events.Subscribe(fn)
}

// Close stops watching, disposes every sub-model and drops every
// subscription.
func (m *Model) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		for _, p := range m.projects {
			p.dispose()
		}
		for _, f := range m.folders {
			f.dispose()
		}
		m.projects, m.folders = map[string]*ProjectModel{}, map[string]*FolderModel{}
		m.mu.Unlock()

		close(m.done)
		if m.watcher != nil && !m.ownWatcher {
			if rerr := m.watcher.Remove(m.Dir()); rerr != nil {
				m.log.Warn("solution: unwatch", zap.Error(rerr))
			}
		}
		err = m.closeWatcher()
		m.wg.Wait()
		m.events.CloseAll()
	})
	return err
}

func (m *Model) closeWatcher() error {
	if m.ownWatcher && m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}

func (m *Model) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *Model) watch() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case ev, ok := <-m.watcher.Events():
			if !ok {
				return
			}
			m.Notify(context.Background(), ev.Paths...)
		}
	}
}

// Notify handles changed paths: a change to the solution file reloads it,
// a change to the user-state file is announced, and every batch is passed
// on as EventFilesChanged.
func (m *Model) Notify(ctx context.Context, paths ...string) {
	if m.isClosed() || len(paths) == 0 {
		return
	}
	for _, p := range paths {
		switch filepath.Clean(p) {
		case m.path:
			if err := m.Reload(ctx); err != nil {
				m.log.Warn("solution: reload after change", zap.Error(err))
			}
		case m.UserStatePath():
			m.events.Emit(Event{Type: EventStartupChanged})
		}
	}
	m.events.Emit(Event{Type: EventFilesChanged, Paths: paths})
}

// Reload re-parses the file and replaces the document. Entities that appear
// or disappear are announced before EventReloaded. On a parse error the
// current document stays and EventReloadFailed is emitted.
func (m *Model) Reload(ctx context.Context) error {
	if m.isClosed() {
		return ErrClosed
	}
	changes, err := m.reparse()
	if err != nil {
		m.log.Warn("solution: keeping last good document", zap.Error(err))
		m.events.Emit(Event{Type: EventReloadFailed, Err: err})
		return err
	}

	for _, e := range changes.RemovedFolders {
		m.events.Emit(Event{Type: EventFolderRemoved, Entity: e})
	}
	for _, e := range changes.RemovedProjects {
		m.events.Emit(Event{Type: EventProjectRemoved, Entity: e})
	}
	for _, e := range changes.AddedFolders {
		m.events.Emit(Event{Type: EventFolderAdded, Entity: e})
	}
	for _, e := range changes.AddedProjects {
		m.events.Emit(Event{Type: EventProjectAdded, Entity: e})
	}
	m.events.Emit(Event{Type: EventReloaded})
	return nil
}

func (m *Model) reparse() (hierarchy.Changes, error) {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()
	doc, err := slnfile.ParseFile(m.path)
	if err != nil {
		return hierarchy.Changes{}, err
	}
	changes := hierarchy.Diff(m.Document(), doc)
	m.install(doc)
	return changes, nil
}

// entityKey matches entities across documents the same way hierarchy.Diff does.
func entityKey(e *slnfile.Entity) string {
	return slnfile.NormalizeGUID(e.TypeID) + "|" + strings.ToLower(e.Location)
}

// matchSubModels pairs the sub-models in old, keyed by normalized id, with
// the entities of a new document. An entity takes the model with its own id
// first; one whose id changed takes a leftover model with the same
// (type, location). Models nobody took are returned for disposal.
func matchSubModels[T interface{ Entity() *slnfile.Entity }](old map[string]T, next []*slnfile.Entity) (map[*slnfile.Entity]T, []T) {
	pending := make(map[string]T, len(old))
	for id, v := range old {
		pending[id] = v
	}
	matched := make(map[*slnfile.Entity]T, len(next))
	var unmatched []*slnfile.Entity
	for _, e := range next {
		id := slnfile.NormalizeGUID(e.ID)
		if v, ok := pending[id]; ok {
			delete(pending, id)
			matched[e] = v
			continue
		}
		unmatched = append(unmatched, e)
	}

	byKey := make(map[string][]string)
	for id, v := range pending {
		k := entityKey(v.Entity())
		byKey[k] = append(byKey[k], id)
	}
	for k := range byKey {
		sort.Strings(byKey[k])
	}
	for _, e := range unmatched {
		k := entityKey(e)
		ids := byKey[k]
		if len(ids) == 0 {
			continue
		}
		byKey[k] = ids[1:]
		matched[e] = pending[ids[0]]
		delete(pending, ids[0])
	}

	leftover := make([]T, 0, len(pending))
	for _, v := range pending {
		leftover = append(leftover, v)
	}
	return matched, leftover
}

// install swaps in doc. Sub-models of entities that survive keep their
// identity; the rest are disposed and new ones built. Only the first
// declaration of a duplicated id gets a sub-model.
func (m *Model) install(doc *slnfile.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(doc.Entities))
	var folderEntities, projectEntities []*slnfile.Entity
	for _, e := range doc.Entities {
		id := slnfile.NormalizeGUID(e.ID)
		if seen[id] {
			continue
		}
		seen[id] = true
		if e.IsFolder() {
			folderEntities = append(folderEntities, e)
		} else {
			projectEntities = append(projectEntities, e)
		}
	}

	reusedFolders, staleFolders := matchSubModels(m.folders, folderEntities)
	folders := make(map[string]*FolderModel, len(folderEntities))
	for _, e := range folderEntities {
		f, ok := reusedFolders[e]
		if ok {
			f.setEntity(e)
		} else {
			f = newFolderModel(e, doc.BasePath)
		}
		folders[slnfile.NormalizeGUID(e.ID)] = f
	}

	reusedProjects, staleProjects := matchSubModels(m.projects, projectEntities)
	projects := make(map[string]*ProjectModel, len(projectEntities))
	for _, e := range projectEntities {
		p, ok := reusedProjects[e]
		if ok {
			p.setEntity(e)
		} else {
			p = newProjectModel(e)
		}
		projects[slnfile.NormalizeGUID(e.ID)] = p
	}

	for _, f := range staleFolders {
		f.dispose()
	}
	for _, p := range staleProjects {
		p.dispose()
	}

	m.doc = doc
	m.forest = hierarchy.Build(doc)
	m.projects = projects
	m.folders = folders
}

func (m *Model) readText() (string, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return "", fmt.Errorf("solution: read %s: %w", m.path, err)
	}
	return string(data), nil
}
