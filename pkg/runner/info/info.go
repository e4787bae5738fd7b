// Package info reports configuration and a summary of the solution.
package info

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"tableflip.dev/sln/pkg/printers"
	"tableflip.dev/sln/pkg/slnfile"
	"tableflip.dev/sln/pkg/store"
	"tableflip.dev/sln/pkg/workspace"
)

type Info struct {
	Config    *store.Config
	Workspace *workspace.Workspace
	JSON      bool
}

type projectJSON struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Folder string `json:"folder,omitempty"`
	Path   string `json:"path"`
}

type infoJSON struct {
	ConfigPath string        `json:"configPath,omitempty"`
	StatePath  string        `json:"statePath"`
	Solution   string        `json:"solution"`
	Startup    string        `json:"startup,omitempty"`
	Folders    int           `json:"folders"`
	Projects   []projectJSON `json:"projects"`
}

func (n *Info) Do(ctx context.Context) error {
	if n.Config == nil {
		var err error
		if n.Config, err = store.LoadConfig(); err != nil {
			return err
		}
	}
	if n.Workspace == nil {
		return errors.New("can not show info, no workspace")
	}
	m := n.Workspace.Model
	doc := m.Document()
	forest := m.Forest()

	out := infoJSON{
		ConfigPath: os.Getenv("SLN_CONFIG_PATH"),
		StatePath:  n.Config.StatePath,
		Solution:   m.Path(),
		Folders:    len(doc.Folders()),
	}
	if id, err := m.StartupProject(); err == nil && id != "" {
		if p := m.Project(id); p != nil {
			out.Startup = p.Name()
		}
	}
	for _, p := range doc.Projects() {
		var chain []string
		for _, f := range forest.Path(p.ID) {
			chain = append(chain, f.Name)
		}
		out.Projects = append(out.Projects, projectJSON{
			Name:   p.Name,
			ID:     p.ID,
			Kind:   p.Kind().String(),
			Folder: strings.Join(chain, "/"),
			Path:   slnfile.RelativePath(m.Dir(), p.Location),
		})
	}
	sort.Slice(out.Projects, func(i, j int) bool {
		return strings.ToLower(out.Projects[i].Name) < strings.ToLower(out.Projects[j].Name)
	})

	pp := printers.PrettyPrint{}
	if n.JSON {
		return pp.JSON(out)
	}

	if out.ConfigPath != "" {
		fmt.Fprintln(color.Output, "SLN_CONFIG_PATH found on env, using", out.ConfigPath)
	} else {
		fmt.Fprintln(color.Output, "SLN_CONFIG_PATH env var not set")
	}
	fmt.Fprintln(color.Output, "State path:", out.StatePath)
	fmt.Fprintln(color.Output, "Solution:  ", out.Solution)
	if out.Startup != "" {
		fmt.Fprintln(color.Output, "Startup:   ", out.Startup)
	}
	pp.NewLine()

	pp.Title(fmt.Sprintf("%d projects, %d folders", len(out.Projects), out.Folders))
	rows := make([][]string, 0, len(out.Projects))
	for _, p := range out.Projects {
		rows = append(rows, []string{p.Name, p.Kind, p.Folder, p.Path})
	}
	pp.Table([]string{"Project", "Kind", "Folder", "Path"}, rows...)
	return nil
}
