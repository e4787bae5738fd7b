// Package watch follows a solution and reports what changes until stopped.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/sln/pkg/printers"
	"tableflip.dev/sln/pkg/solution"
	"tableflip.dev/sln/pkg/treesync"
	"tableflip.dev/sln/pkg/workspace"
)

// Watch prints model events, and tree rebuilds when Tree is set.
type Watch struct {
	Workspace *workspace.Workspace
	Tree      bool
	JSON      bool
	// Out defaults to color.Output.
	Out io.Writer
	Now func() time.Time

	mu sync.Mutex
}

type eventJSON struct {
	Time   time.Time `json:"time"`
	Event  string    `json:"event"`
	Name   string    `json:"name,omitempty"`
	ID     string    `json:"id,omitempty"`
	Paths  []string  `json:"paths,omitempty"`
	Error  string    `json:"error,omitempty"`
	Tokens int       `json:"expanded,omitempty"`
}

func (n *Watch) Do(ctx context.Context) error {
	if n.Workspace == nil {
		return errors.New("can not watch, no workspace")
	}
	if n.Now == nil {
		n.Now = time.Now
	}
	ws := n.Workspace

	sub := ws.Model.Subscribe(n.modelEvent)
	defer sub.Close()
	if n.Tree {
		tsub := ws.Tree.Subscribe(n.treeChange)
		defer tsub.Close()
	}

	pp := printers.PrettyPrint{Out: n.Out}
	if !n.JSON {
		pp.Title(fmt.Sprintf("watching %s", ws.Path))
	}
	<-ctx.Done()
	return nil
}

func (n *Watch) modelEvent(e solution.Event) {
	out := eventJSON{Time: n.Now(), Event: e.Type.String(), Paths: e.Paths}
	if e.Entity != nil {
		out.Name, out.ID = e.Entity.Name, e.Entity.ID
	}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}
	n.print(out)
}

func (n *Watch) treeChange(c treesync.Change) {
	if c.Kind != treesync.ChangeTree {
		return
	}
	n.print(eventJSON{Time: n.Now(), Event: "tree-rebuilt", Tokens: len(n.Workspace.Tree.Expanded())})
}

func (n *Watch) print(e eventJSON) {
	n.mu.Lock()
	defer n.mu.Unlock()

	pp := printers.PrettyPrint{Out: n.Out}
	if n.JSON {
		_ = pp.JSONLine(e)
		return
	}
	w := n.Out
	if w == nil {
		w = color.Output
	}
	faint := color.New(color.Faint)
	_, _ = faint.Fprint(w, e.Time.Format("15:04:05.000")+" ")
	_, _ = eventColor(e).Fprint(w, e.Event)
	switch {
	case e.Error != "":
		_, _ = fmt.Fprintf(w, " %s", e.Error)
	case e.Name != "":
		_, _ = fmt.Fprintf(w, " %s %s", e.Name, e.ID)
	case len(e.Paths) > 0:
		_, _ = fmt.Fprintf(w, " %s", strings.Join(e.Paths, ", "))
	case e.Tokens > 0:
		_, _ = fmt.Fprintf(w, " (%d expanded)", e.Tokens)
	}
	_, _ = fmt.Fprintln(w, "")
}

func eventColor(e eventJSON) *color.Color {
	switch {
	case e.Error != "":
		return color.New(color.FgRed, color.Bold)
	case strings.HasSuffix(e.Event, "-added"):
		return color.New(color.FgGreen)
	case strings.HasSuffix(e.Event, "-removed"):
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}
