// Package printers renders solution trees and edit results for humans.
package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/sln/pkg/nodeid"
	"tableflip.dev/sln/pkg/solution"
	"tableflip.dev/sln/pkg/treesync"
)

type PrettyPrint struct {
	ShowID bool
	// Out defaults to color.Output.
	Out io.Writer
}

const indent = "  "

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

// Tree prints nodes and the children of every expanded node.
func (pp *PrettyPrint) Tree(nodes ...*treesync.Node) {
	for _, n := range nodes {
		pp.node(n, 0)
	}
}

func (pp *PrettyPrint) node(n *treesync.Node, depth int) {
	w := pp.out()
	_, _ = fmt.Fprint(w, strings.Repeat(indent, depth))

	marker := " "
	if n.Expandable {
		marker = "▸"
		if n.State == treesync.Expanded {
			marker = "▾"
		}
	}
	faint := color.New(color.Faint)
	_, _ = faint.Fprint(w, marker+" ")
	_, _ = kindColor(n.Kind).Fprint(w, label(n))

	if pp.ShowID {
		if id := entityID(n.ID); id != "" {
			y := color.New(color.FgHiYellow, color.Italic, color.Faint)
			_, _ = y.Fprint(w, "  "+id)
		}
	}
	_, _ = fmt.Fprintln(w, "")

	if n.State != treesync.Expanded {
		return
	}
	for _, c := range n.Children {
		pp.node(c, depth+1)
	}
}

func label(n *treesync.Node) string {
	if n.Kind == nodeid.KindTransient {
		return "<new>"
	}
	return n.Label
}

func kindColor(k nodeid.Kind) *color.Color {
	switch k {
	case nodeid.KindRoot:
		return color.New(color.Bold)
	case nodeid.KindGroupingFolder:
		return color.New(color.FgHiBlue)
	case nodeid.KindProject:
		return color.New(color.FgHiGreen, color.Bold)
	case nodeid.KindDirectory:
		return color.New(color.FgBlue)
	case nodeid.KindDependencyContainer, nodeid.KindDependencyCategory:
		return color.New(color.FgMagenta)
	case nodeid.KindDependency:
		return color.New(color.FgHiMagenta, color.Faint)
	default:
		return color.New()
	}
}

func entityID(id nodeid.Identity) string {
	switch v := id.(type) {
	case nodeid.GroupingFolder:
		return v.FolderID
	case nodeid.Project:
		return v.ProjectID
	}
	return ""
}

// Result reports an applied edit.
func (pp *PrettyPrint) Result(what string, res solution.Result) {
	w := pp.out()
	if !res.Changed {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprintf(w, "no change: %s\n", what)
		return
	}
	ok := color.New(color.FgGreen)
	_, _ = ok.Fprint(w, "✓ ")
	_, _ = fmt.Fprint(w, what)
	if res.ID != "" {
		y := color.New(color.FgHiYellow, color.Faint)
		_, _ = y.Fprint(w, "  "+res.ID)
	}
	_, _ = fmt.Fprintln(w, "")
	if len(res.Removed) > 1 {
		f := color.New(color.Faint)
		_, _ = f.Fprintf(w, "  removed %d entities\n", len(res.Removed))
	}
}

// Table prints rows under a bold header.
func (pp *PrettyPrint) Table(header []string, rows ...[]string) {
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	cells := make([]interface{}, 0, len(header))
	for _, h := range header {
		cells = append(cells, bold.Sprint(h))
	}
	tbl.AddRow(cells...)
	for _, r := range rows {
		cells = cells[:0]
		for _, c := range r {
			cells = append(cells, c)
		}
		tbl.AddRow(cells...)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
}
