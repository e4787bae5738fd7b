package browser

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/reflow/truncate"

	"tableflip.dev/sln/pkg/nodeid"
	"tableflip.dev/sln/pkg/treesync"
	"tableflip.dev/sln/pkg/tui/theme"
)

// View renders the tree window with a title and a status line.
func (m Model) View() string {
	var b strings.Builder

	title := "Solution Explorer"
	if len(m.rows) > 0 {
		title += "  " + m.rows[0].node.Label
	}
	b.WriteString(m.theme.Panel.Title.Render(fit(title, m.width)))
	b.WriteString("\n")

	l := m.list
	d := rowDelegate{theme: m.theme, width: m.width, naming: m.naming}
	if m.naming != "" {
		d.input = m.input.View()
	}
	l.SetDelegate(d)
	b.WriteString(l.View())
	b.WriteString("\n")

	style := m.theme.Footer.Status
	if m.failed {
		style = m.theme.Footer.Error
	}
	b.WriteString(style.Render(fit(m.status, m.width)))
	return b.String()
}

// rowDelegate draws one tree row per list item.
type rowDelegate struct {
	theme  theme.Theme
	width  int
	naming string
	input  string
}

func (rowDelegate) Height() int                         { return 1 }
func (rowDelegate) Spacing() int                        { return 0 }
func (rowDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d rowDelegate) Render(w io.Writer, l list.Model, index int, item list.Item) {
	r, ok := item.(row)
	if !ok {
		return
	}
	fmt.Fprint(w, d.render(r, index == l.Index()))
}

func (d rowDelegate) render(r row, selected bool) string {
	n := r.node

	marker := " "
	switch {
	case n.State == treesync.Expanded:
		marker = "▾"
	case n.State == treesync.Expanding:
		marker = "…"
	case n.Expandable:
		marker = "▸"
	}

	label := n.Label
	if n.Kind == nodeid.KindTransient {
		label = "<new>"
		if n.Token == d.naming {
			label = d.input
		}
	}

	prefix := strings.Repeat("  ", r.depth) + marker + " "
	room := 0
	if d.width > 0 {
		room = d.width - lipgloss.Width(prefix)
		if room < 1 {
			room = 1
		}
	}
	label = fit(label, room)
	if selected && n.Token != d.naming {
		return d.theme.Tree.Marker.Render(prefix) + d.theme.Tree.Selected.Render(label)
	}
	return d.theme.Tree.Marker.Render(prefix) + d.kindStyle(n.Kind).Render(label)
}

func (d rowDelegate) kindStyle(k nodeid.Kind) lipgloss.Style {
	t := d.theme.Tree
	switch k {
	case nodeid.KindRoot:
		return t.Solution
	case nodeid.KindGroupingFolder:
		return t.Folder
	case nodeid.KindProject:
		return t.Project
	case nodeid.KindDirectory:
		return t.Directory
	case nodeid.KindDependencyContainer, nodeid.KindDependencyCategory, nodeid.KindDependency:
		return t.Dependency
	case nodeid.KindTransient:
		return t.Placeholder
	}
	return t.File
}

// fit truncates s to width columns; zero means no limit.
func fit(s string, width int) string {
	if width <= 0 {
		return s
	}
	return truncate.StringWithTail(s, uint(width), "…")
}
