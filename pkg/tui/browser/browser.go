// Package browser is the Bubble Tea tree browser for an open solution.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/sln/pkg/nodeid"
	"tableflip.dev/sln/pkg/treesync"
	"tableflip.dev/sln/pkg/tui/theme"
)

// Tree is the part of the tree controller the browser drives.
type Tree interface {
	Roots() []*treesync.Node
	Expand(ctx context.Context, token string) error
	Collapse(token string) error
	Refresh(ctx context.Context) error
	BeginCreate(ctx context.Context, parentToken, purpose string) (string, error)
	Commit(ctx context.Context, token, name string) (string, error)
	Cancel(token string) error
	Subscribe(fn func(treesync.Change)) *treesync.Subscription
}

const helpLine = "j/k move  l expand  h collapse  n new  N new dir  r refresh  q quit"

// row is one visible tree node; it is the list item the delegate renders.
type row struct {
	node   *treesync.Node
	depth  int
	parent int
}

func (r row) FilterValue() string { return r.node.Label }

// Model contains UI state.
type Model struct {
	ctx   context.Context
	tree  Tree
	theme theme.Theme

	rows []row
	list list.Model

	width  int
	height int

	status string
	failed bool

	// naming is the placeholder token whose name is being typed.
	naming string
	input  textinput.Model

	changes chan struct{}
	done    chan struct{}
	sub     *treesync.Subscription
	once    *sync.Once
}

type changeMsg struct{}

// New creates a browser over tree and subscribes to its changes. Close
// releases the subscription.
func New(ctx context.Context, tree Tree) Model {
	th := theme.Default()

	l := list.New([]list.Item{}, rowDelegate{theme: th}, 80, 20)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	ti := textinput.New()
	ti.Placeholder = "name"
	ti.CharLimit = 256
	ti.Prompt = ""
	ti.VirtualCursor = true
	ti.Styles.Cursor.Color = lipgloss.Color("218")
	ti.Styles.Cursor.Shape = tea.CursorBlock

	m := Model{
		ctx:     ctx,
		tree:    tree,
		theme:   th,
		list:    l,
		input:   ti,
		status:  helpLine,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		once:    &sync.Once{},
	}
	changes := m.changes
	m.sub = tree.Subscribe(func(treesync.Change) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	m.reload("")
	return m
}

// Close stops listening for tree changes.
func (m Model) Close() {
	m.once.Do(func() {
		m.sub.Close()
		close(m.done)
	})
}

// Init waits for the first tree change.
func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m Model) waitForChange() tea.Cmd {
	changes, done := m.changes, m.done
	return func() tea.Msg {
		select {
		case <-changes:
			return changeMsg{}
		case <-done:
			return nil
		}
	}
}

// reload flattens the visible tree and keeps the cursor on token, or on the
// row it was on when token is empty or gone.
func (m *Model) reload(token string) {
	if token == "" {
		if cur := m.current(); cur != nil {
			token = cur.node.Token
		}
	}
	m.rows = m.rows[:0]
	for _, r := range m.tree.Roots() {
		m.flatten(r, 0, -1)
	}
	items := make([]list.Item, 0, len(m.rows))
	for _, r := range m.rows {
		items = append(items, r)
	}
	m.list.SetItems(items)
	for i, r := range m.rows {
		if r.node.Token == token {
			m.list.Select(i)
			return
		}
	}
	m.clamp()
}

func (m *Model) flatten(n *treesync.Node, depth, parent int) {
	m.rows = append(m.rows, row{node: n, depth: depth, parent: parent})
	if n.State != treesync.Expanded && n.State != treesync.Expanding {
		return
	}
	self := len(m.rows) - 1
	for _, c := range n.Children {
		m.flatten(c, depth+1, self)
	}
}

func (m *Model) current() *row {
	i := m.list.Index()
	if i < 0 || i >= len(m.rows) {
		return nil
	}
	return &m.rows[i]
}

func (m *Model) clamp() {
	if i := m.list.Index(); i >= len(m.rows) {
		m.list.Select(len(m.rows) - 1)
	}
	if m.list.Index() < 0 {
		m.list.Select(0)
	}
}

// resize gives the list the rows between title and footer.
func (m *Model) resize() {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	m.list.SetSize(m.width, h)
}

func (m *Model) setStatus(s string) {
	m.status, m.failed = s, false
}

func (m *Model) setError(err error) {
	m.status, m.failed = "ERR: "+err.Error(), true
}

// Update handles messages and keybindings.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
	case changeMsg:
		m.reload("")
		return m, m.waitForChange()
	case tea.KeyPressMsg:
		if m.naming != "" {
			cmd := m.handleNaming(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}
	if m.naming != "" {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "j", "down":
		m.list.CursorDown()
	case "k", "up":
		m.list.CursorUp()
	case "g", "home":
		m.list.Select(0)
	case "G", "end":
		m.list.Select(len(m.rows) - 1)
	case "l", "right", "enter":
		m.expand()
	case "h", "left":
		m.collapse()
	case "r":
		if err := m.tree.Refresh(m.ctx); err != nil {
			m.setError(err)
		} else {
			m.setStatus("refreshed")
		}
		m.reload("")
	case "n", "N":
		cmd := m.begin(msg.String() == "N")
		return m, cmd
	case "esc":
		m.setStatus(helpLine)
	}
	return m, nil
}

// expand opens the selected node, or steps into it when already open.
func (m *Model) expand() {
	cur := m.current()
	if cur == nil || !cur.node.Expandable {
		return
	}
	if cur.node.State == treesync.Expanded {
		if len(cur.node.Children) > 0 {
			m.list.CursorDown()
		}
		return
	}
	token := cur.node.Token
	if err := m.tree.Expand(m.ctx, token); err != nil {
		m.setError(err)
	}
	m.reload(token)
}

// collapse closes the selected node, or moves to its parent when it is
// already closed.
func (m *Model) collapse() {
	cur := m.current()
	if cur == nil {
		return
	}
	if cur.node.State == treesync.Expanded || cur.node.State == treesync.Expanding {
		token := cur.node.Token
		if err := m.tree.Collapse(token); err != nil {
			m.setError(err)
		}
		m.reload(token)
		return
	}
	if cur.parent >= 0 {
		m.list.Select(cur.parent)
	}
}

// begin starts a placeholder under the selected node, or under its parent
// when the selected node can not hold new children.
func (m *Model) begin(directory bool) tea.Cmd {
	cur := m.current()
	if cur == nil {
		return nil
	}
	target := cur
	if purposeFor(target.node.Kind, directory) == "" && target.parent >= 0 {
		target = &m.rows[target.parent]
	}
	purpose := purposeFor(target.node.Kind, directory)
	if purpose == "" {
		m.setError(fmt.Errorf("can not create anything under %s", target.node.Label))
		return nil
	}
	token, err := m.tree.BeginCreate(m.ctx, target.node.Token, purpose)
	if err != nil {
		m.setError(err)
		return nil
	}
	m.naming = token
	m.input.Reset()
	m.input.Placeholder = purpose + " name"
	m.setStatus(fmt.Sprintf("new %s: type a name, enter to create, esc to cancel", purpose))
	m.reload(token)
	return tea.Batch(m.input.Focus(), textinput.Blink)
}

func purposeFor(k nodeid.Kind, directory bool) string {
	switch k {
	case nodeid.KindRoot, nodeid.KindGroupingFolder:
		if directory {
			return ""
		}
		return treesync.PurposeFolder
	case nodeid.KindProject, nodeid.KindDirectory:
		if directory {
			return treesync.PurposeDirectory
		}
		return treesync.PurposeFile
	}
	return ""
}

func (m *Model) handleNaming(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		token, err := m.tree.Commit(m.ctx, m.naming, name)
		if err != nil {
			// The placeholder stays so the name can be fixed.
			m.setError(err)
			return nil
		}
		m.endNaming()
		m.setStatus("created " + name)
		m.reload(token)
		return nil
	case "esc", "ctrl+c":
		if err := m.tree.Cancel(m.naming); err != nil {
			m.setError(err)
		} else {
			m.setStatus(helpLine)
		}
		m.endNaming()
		m.reload("")
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) endNaming() {
	m.naming = ""
	m.input.Reset()
	m.input.Blur()
}
