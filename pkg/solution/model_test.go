package solution

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/sln/pkg/slnedit"
	"tableflip.dev/sln/pkg/slnfile"
	"tableflip.dev/sln/pkg/slntest"
	"tableflip.dev/sln/pkg/store"
)

type fakeWatcher struct {
	mu      sync.Mutex
	added   []string
	removed []string
	events  chan store.Event
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan store.Event)}
}

func (w *fakeWatcher) Add(p string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.added = append(w.added, p)
	return nil
}

func (w *fakeWatcher) Remove(p string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removed = append(w.removed, p)
	return nil
}

func (w *fakeWatcher) Events() <-chan store.Event { return w.events }
func (w *fakeWatcher) Close() error               { return nil }

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeProjectCommand struct {
	mu      sync.Mutex
	added   []string
	removed []string
	fail    error
}

func (c *fakeProjectCommand) ProjectAdded(_ context.Context, _, project string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.added = append(c.added, project)
	return c.fail
}

func (c *fakeProjectCommand) ProjectRemoved(_ context.Context, _, project string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, project)
	return c.fail
}

type fakePackages struct {
	calls []string
	fail  error
}

func (p *fakePackages) AddPackage(_ context.Context, project, name, version string) error {
	p.calls = append(p.calls, "add "+filepath.Base(project)+" "+name+" "+version)
	return p.fail
}

func (p *fakePackages) RemovePackage(_ context.Context, project, name string) error {
	p.calls = append(p.calls, "remove "+filepath.Base(project)+" "+name)
	return p.fail
}

type fakeRenamer struct {
	from, to string
}

func (r *fakeRenamer) FileRenamed(_ context.Context, from, to string) error {
	r.from, r.to = from, to
	return nil
}

func openSample(t *testing.T, opts ...Option) (*Model, *fakeWatcher) {
	t.Helper()
	w := newFakeWatcher()
	path := slntest.WriteSolution(t, t.TempDir(), slntest.Sample)
	m, err := Open(context.Background(), path, append([]Option{WithWatcher(w)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, w
}

func TestOpen(t *testing.T) {
	m, w := openSample(t)

	assert.Len(t, m.Document().Entities, 6)
	assert.Equal(t, []string{m.Dir()}, w.added)
	require.NotNil(t, m.Project(strings.ToLower(slntest.CoreID)))
	assert.Equal(t, "Core", m.Project(slntest.CoreID).Name())
	assert.Equal(t, filepath.Join(m.Dir(), "src", "Core", "Core.csproj"), m.Project(slntest.CoreID).Path())
	assert.Nil(t, m.Project(slntest.SharedID), "folders are not projects")
	require.NotNil(t, m.Folder(slntest.DocsID))
	assert.Equal(t, []string{filepath.Join(m.Dir(), "README.md")}, m.Folder(slntest.DocsID).Items())
	assert.Len(t, m.Forest().Roots(), 3)
}

func TestOpenParseError(t *testing.T) {
	dir := t.TempDir()
	path := slntest.WriteSolution(t, dir, "Microsoft Visual Studio Solution File, Format Version 12.00\r\nProject(\"{X}\") = \"Broken\"\r\n")
	m, err := Open(context.Background(), path, WithWatcher(newFakeWatcher()))
	assert.Nil(t, m)
	var perr *slnfile.ParseError
	assert.True(t, errors.As(err, &perr), "expected ParseError, got %v", err)
}

func TestReloadAnnouncesChangesInOrder(t *testing.T) {
	m, _ := openSample(t)
	core := m.Project(slntest.CoreID)
	docs := m.Folder(slntest.DocsID)

	var rec recorder
	m.Subscribe(rec.record)
	require.NoError(t, os.WriteFile(m.Path(), []byte(slntest.Minimal), 0o644))
	require.NoError(t, m.Reload(context.Background()))

	want := []EventType{
		EventFolderRemoved, EventFolderRemoved,
		EventProjectRemoved, EventProjectRemoved, EventProjectRemoved,
		EventReloaded,
	}
	if diff := cmp.Diff(want, rec.types()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	assert.True(t, core.Disposed())
	assert.False(t, docs.Disposed(), "surviving folder keeps its sub-model")
	assert.Same(t, docs, m.Folder(slntest.DocsID))
	assert.Len(t, m.Document().Entities, 1)
}

const (
	frontID    = "{A0000000-0000-0000-0000-000000000001}"
	backID     = "{A0000000-0000-0000-0000-000000000002}"
	frontTests = "{B0000000-0000-0000-0000-000000000001}"
	backTests  = "{B0000000-0000-0000-0000-000000000002}"
)

func sameNamedFolders(backTestsID string) string {
	folder := func(name, id string) string {
		return `Project("` + slntest.FolderType + `") = "` + name + `", "` + name + `", "` + id + `"` + "\r\nEndProject\r\n"
	}
	return "Microsoft Visual Studio Solution File, Format Version 12.00\r\n" +
		folder("Front", frontID) +
		folder("Back", backID) +
		folder("Tests", frontTests) +
		folder("Tests", backTestsID) +
		"Global\r\n" +
		"\tGlobalSection(NestedProjects) = preSolution\r\n" +
		"\t\t" + frontTests + " = " + frontID + "\r\n" +
		"\t\t" + backTestsID + " = " + backID + "\r\n" +
		"\tEndGlobalSection\r\n" +
		"EndGlobal\r\n"
}

func TestReloadKeepsSameNamedFoldersApart(t *testing.T) {
	path := slntest.WriteSolution(t, t.TempDir(), sameNamedFolders(backTests))
	m, err := Open(context.Background(), path, WithWatcher(newFakeWatcher()))
	require.NoError(t, err)
	defer m.Close()

	front := m.Folder(frontTests)
	back := m.Folder(backTests)
	require.NotNil(t, front)
	require.NotNil(t, back)
	require.NotSame(t, front, back)

	res, err := m.RemoveFolder(context.Background(), backTests)
	require.NoError(t, err)
	require.True(t, res.Changed)

	assert.Same(t, front, m.Folder(frontTests), "surviving folder keeps its sub-model")
	assert.False(t, front.Disposed())
	assert.True(t, back.Disposed(), "removed folder's sub-model is disposed")
	assert.Nil(t, m.Folder(backTests))
}

func TestReloadCarriesSubModelAcrossIDChange(t *testing.T) {
	path := slntest.WriteSolution(t, t.TempDir(), sameNamedFolders(backTests))
	m, err := Open(context.Background(), path, WithWatcher(newFakeWatcher()))
	require.NoError(t, err)
	defer m.Close()

	front := m.Folder(frontTests)
	back := m.Folder(backTests)
	renumbered := "{B0000000-0000-0000-0000-000000000003}"
	require.NoError(t, os.WriteFile(path, []byte(sameNamedFolders(renumbered)), 0o644))
	require.NoError(t, m.Reload(context.Background()))

	assert.Same(t, front, m.Folder(frontTests))
	assert.Same(t, back, m.Folder(renumbered), "same type and location take over the old sub-model")
	assert.False(t, back.Disposed())
	assert.Equal(t, renumbered, back.ID())
	assert.Nil(t, m.Folder(backTests))
}

func TestReloadFailureKeepsLastGoodDocument(t *testing.T) {
	m, _ := openSample(t)
	before := m.Document()

	var rec recorder
	m.Subscribe(rec.record)
	require.NoError(t, os.WriteFile(m.Path(), []byte("Microsoft Visual Studio Solution File, Format Version 12.00\r\nGlobal\r\n\tGlobalSection(NestedProjects)\r\nEndGlobal\r\n"), 0o644))
	err := m.Reload(context.Background())
	require.Error(t, err)

	assert.Same(t, before, m.Document())
	require.Len(t, rec.events, 1)
	assert.Equal(t, EventReloadFailed, rec.events[0].Type)
	assert.Error(t, rec.events[0].Err)
}

func TestMutationsWriteAndReload(t *testing.T) {
	m, _ := openSample(t)
	ctx := context.Background()

	var rec recorder
	m.Subscribe(rec.record)
	res, err := m.AddFolder(ctx, "Tests", slntest.SharedID)
	require.NoError(t, err)
	require.True(t, res.Changed)

	folder := m.Folder(res.ID)
	require.NotNil(t, folder)
	assert.Equal(t, "Tests", folder.Name())
	assert.True(t, slnfile.SameGUID(slntest.SharedID, m.Forest().Parent(res.ID)))
	assert.Equal(t, []EventType{EventFolderAdded, EventReloaded}, rec.types())

	text, err := m.Text()
	require.NoError(t, err)
	assert.Contains(t, text, `"Tests", "Tests", "`+res.ID+`"`)

	res, err = m.RenameFolder(ctx, res.ID, "Specs")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Len(t, m.Document().FoldersByName("Specs"), 1)

	res, err = m.MoveEntity(ctx, slntest.AppID, slntest.DocsID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, slnfile.SameGUID(slntest.DocsID, m.Forest().Parent(slntest.AppID)))
}

func TestNoOpMutationLeavesFileAlone(t *testing.T) {
	m, _ := openSample(t)
	before, err := m.Text()
	require.NoError(t, err)

	var rec recorder
	m.Subscribe(rec.record)
	res, err := m.RemoveFolder(context.Background(), "{DEADBEEF-0000-0000-0000-000000000000}")
	require.NoError(t, err)
	assert.False(t, res.Changed)

	after, err := m.Text()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, rec.events)
}

func TestConcurrentModificationIsRejected(t *testing.T) {
	m, _ := openSample(t)
	_, err := m.apply(context.Background(), "race", func(text string) (slnedit.Result, error) {
		require.NoError(t, os.WriteFile(m.Path(), []byte(slntest.Minimal), 0o644))
		return slnedit.Result{Text: text + "# extra\r\n", Changed: true}, nil
	})
	assert.ErrorIs(t, err, ErrConcurrentModification)

	text, err := m.Text()
	require.NoError(t, err)
	assert.Equal(t, slntest.Minimal, text)
}

func TestRemoveFolderReportsPartialFailure(t *testing.T) {
	cmd := &fakeProjectCommand{fail: errors.New("boom")}
	m, _ := openSample(t, WithProjectCommand(cmd))
	core := m.Project(slntest.CoreID)

	res, err := m.RemoveFolder(context.Background(), slntest.SharedID)
	require.Error(t, err)
	assert.True(t, res.Changed)
	assert.Len(t, res.Removed, 4)

	var partial *PartialError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, 3, partial.Total)
	assert.Len(t, partial.Failed, 2)

	var collab *CollaboratorError
	require.True(t, errors.As(err, &collab))
	assert.Equal(t, "project command", collab.Collaborator)

	// The edit itself was applied.
	assert.Nil(t, m.Document().EntityByID(slntest.SharedID))
	assert.True(t, core.Disposed())
	assert.ElementsMatch(t, []string{
		filepath.Join(m.Dir(), "src", "Core", "Core.csproj"),
		filepath.Join(m.Dir(), "src", "CLI", "CLI.csproj"),
	}, cmd.removed)
}

func TestAddProjectNotifiesCommand(t *testing.T) {
	cmd := &fakeProjectCommand{}
	m, _ := openSample(t, WithProjectCommand(cmd))

	res, err := m.AddProject(context.Background(), slnfile.KindGeneric, "", "src/Lib/Lib.csproj", "")
	require.NoError(t, err)
	require.True(t, res.Changed)
	p := m.Project(res.ID)
	require.NotNil(t, p)
	assert.Equal(t, "Lib", p.Name())
	assert.Equal(t, []string{filepath.Join(m.Dir(), "src", "Lib", "Lib.csproj")}, cmd.added)

	_, err = m.RemoveProject(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Nil(t, m.Project(res.ID))
	assert.True(t, p.Disposed())
	assert.Equal(t, cmd.added, cmd.removed)
}

func TestItems(t *testing.T) {
	m, _ := openSample(t)
	ctx := context.Background()

	res, err := m.AddItem(ctx, slntest.DocsID, filepath.Join(m.Dir(), "docs", "guide.md"))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Contains(t, m.Folder(slntest.DocsID).Items(), filepath.Join(m.Dir(), "docs", "guide.md"))

	res, err = m.RemoveItem(ctx, slntest.DocsID, "docs/guide.md")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, []string{filepath.Join(m.Dir(), "README.md")}, m.Folder(slntest.DocsID).Items())
}

func TestRenameFileRegroupsItems(t *testing.T) {
	renamer := &fakeRenamer{}
	m, _ := openSample(t, WithRenameProvider(renamer))
	oldPath := filepath.Join(m.Dir(), "README.md")
	newPath := filepath.Join(m.Dir(), "GUIDE.md")
	require.NoError(t, os.WriteFile(oldPath, []byte("# hi\n"), 0o644))

	require.NoError(t, m.RenameFile(context.Background(), "README.md", "GUIDE.md"))

	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, newPath)
	assert.Equal(t, []string{newPath}, m.Folder(slntest.DocsID).Items())
	assert.Equal(t, oldPath, renamer.from)
	assert.Equal(t, newPath, renamer.to)
}

func TestPackagesGoThroughCollaborator(t *testing.T) {
	pkgs := &fakePackages{}
	m, _ := openSample(t, WithPackages(pkgs))
	ctx := context.Background()

	require.NoError(t, m.AddPackage(ctx, slntest.AppID, "Serilog", "3.1.1"))
	require.NoError(t, m.RemovePackage(ctx, slntest.AppID, "Serilog"))
	assert.Equal(t, []string{"add App.csproj Serilog 3.1.1", "remove App.csproj Serilog"}, pkgs.calls)

	assert.ErrorIs(t, m.AddPackage(ctx, slntest.SharedID, "Serilog", ""), ErrNotFound)

	pkgs.fail = errors.New("restore failed")
	err := m.AddPackage(ctx, slntest.AppID, "Serilog", "")
	var collab *CollaboratorError
	require.True(t, errors.As(err, &collab))
	assert.Equal(t, "packages", collab.Collaborator)
	assert.ErrorIs(t, err, pkgs.fail)
}

func TestPackagesWithoutCollaborator(t *testing.T) {
	m, _ := openSample(t)
	assert.Error(t, m.AddPackage(context.Background(), slntest.AppID, "Serilog", ""))
}

func TestStartupProject(t *testing.T) {
	m, _ := openSample(t)
	ctx := context.Background()

	id, err := m.StartupProject()
	require.NoError(t, err)
	assert.Empty(t, id)

	var rec recorder
	m.Subscribe(rec.record)
	require.NoError(t, m.SetStartupProject(ctx, strings.ToLower(slntest.AppID)))
	id, err = m.StartupProject()
	require.NoError(t, err)
	assert.Equal(t, slntest.AppID, id)
	assert.Equal(t, []EventType{EventStartupChanged}, rec.types())

	data, err := os.ReadFile(m.UserStatePath())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), userStateHeader))

	// Setting the same project again writes nothing.
	require.NoError(t, m.SetStartupProject(ctx, slntest.AppID))
	assert.Len(t, rec.events, 1)

	require.NoError(t, m.SetStartupProject(ctx, slntest.CoreID))
	id, err = m.StartupProject()
	require.NoError(t, err)
	assert.Equal(t, slntest.CoreID, id)

	assert.ErrorIs(t, m.SetStartupProject(ctx, slntest.DocsID), ErrNotFound)
}

func TestDependencies(t *testing.T) {
	m, _ := openSample(t)
	deps, err := m.Dependencies(context.Background(), slntest.AppID)
	require.NoError(t, err)
	want := []Dependency{
		{Category: CategoryPackages, Name: "Newtonsoft.Json", Version: "13.0.3"},
		{Category: CategoryProjects, Name: "Core", Path: filepath.Join(m.Dir(), "src", "Core", "Core.csproj")},
	}
	if diff := cmp.Diff(want, deps); diff != "" {
		t.Errorf("dependencies (-want +got):\n%s", diff)
	}

	_, err = m.Dependencies(context.Background(), slntest.DocsID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadDependenciesVariants(t *testing.T) {
	project := `<Project>
  <ItemGroup>
    <PackageReference Include="Serilog">
      <Version>3.1.1</Version>
    </PackageReference>
    <Reference Include="System.Data, Version=4.0.0.0, Culture=neutral" />
    <Compile Include="Program.cs" />
  </ItemGroup>
</Project>`
	deps, err := readDependencies(context.Background(), strings.NewReader(project), "/repo")
	require.NoError(t, err)
	want := []Dependency{
		{Category: CategoryPackages, Name: "Serilog", Version: "3.1.1"},
		{Category: CategoryAssemblies, Name: "System.Data", Version: "4.0.0.0"},
	}
	if diff := cmp.Diff(want, deps); diff != "" {
		t.Errorf("dependencies (-want +got):\n%s", diff)
	}
}

func TestNotify(t *testing.T) {
	m, _ := openSample(t)
	var rec recorder
	m.Subscribe(rec.record)

	m.Notify(context.Background(), filepath.Join(m.Dir(), "src", "App", "Program.cs"))
	m.Notify(context.Background(), m.UserStatePath())
	assert.Equal(t, []EventType{EventFilesChanged, EventStartupChanged, EventFilesChanged}, rec.types())

	require.NoError(t, os.WriteFile(m.Path(), []byte(slntest.Minimal), 0o644))
	m.Notify(context.Background(), m.Path())
	types := rec.types()
	assert.Equal(t, EventReloaded, types[len(types)-2])
	assert.Equal(t, EventFilesChanged, types[len(types)-1])
}

func TestCloseDisposesAndUnwatches(t *testing.T) {
	m, w := openSample(t)
	core := m.Project(slntest.CoreID)
	docs := m.Folder(slntest.DocsID)

	var rec recorder
	m.Subscribe(rec.record)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.True(t, core.Disposed())
	assert.True(t, docs.Disposed())
	assert.Equal(t, []string{m.Dir()}, w.removed)

	_, err := m.AddFolder(context.Background(), "Late", "")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Reload(context.Background()), ErrClosed)
	m.Notify(context.Background(), m.Path())
	assert.Empty(t, rec.events)

	_, err = core.Dependencies(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestResolve(t *testing.T) {
	m, _ := openSample(t)

	tests := map[string]string{
		"Shared":           slntest.SharedID,
		"shared/tools/cli": slntest.CLIID,
		`Shared\Core`:      slntest.CoreID,
		"App":              slntest.AppID,
		slntest.ToolsID:    slntest.ToolsID,
	}
	for ref, want := range tests {
		t.Run(ref, func(t *testing.T) {
			e, err := m.Resolve(ref)
			require.NoError(t, err)
			assert.Equal(t, want, e.ID)
		})
	}

	for _, ref := range []string{"", "Core", "Shared/Missing", "{00000000-0000-0000-0000-000000000001}"} {
		_, err := m.Resolve(ref)
		assert.ErrorIs(t, err, ErrNotFound, ref)
	}
}

func TestResolveByKind(t *testing.T) {
	m, _ := openSample(t)

	_, err := m.ResolveFolder("App")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.ResolveProject("Shared")
	assert.ErrorIs(t, err, ErrNotFound)

	e, err := m.ResolveProject("Shared/Core")
	require.NoError(t, err)
	assert.Equal(t, slntest.CoreID, e.ID)

	parent, err := m.ParentRef("  ")
	require.NoError(t, err)
	assert.Empty(t, parent)
	parent, err = m.ParentRef("shared/tools")
	require.NoError(t, err)
	assert.Equal(t, slntest.ToolsID, parent)
}
