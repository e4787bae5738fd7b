package printers

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"tableflip.dev/sln/pkg/nodeid"
	"tableflip.dev/sln/pkg/solution"
	"tableflip.dev/sln/pkg/treesync"
)

func init() {
	color.NoColor = true
}

func TestTreePrintsExpandedChildrenOnly(t *testing.T) {
	core := &treesync.Node{
		Label:      "Core",
		Kind:       nodeid.KindProject,
		ID:         nodeid.Project{Solution: "/s.sln", ProjectID: "{22222222-2222-2222-2222-222222222222}"},
		Expandable: true,
		State:      treesync.Collapsed,
		Children:   []*treesync.Node{{Label: "hidden", Kind: nodeid.KindFile}},
	}
	shared := &treesync.Node{
		Label:      "Shared",
		Kind:       nodeid.KindGroupingFolder,
		ID:         nodeid.GroupingFolder{Solution: "/s.sln", FolderID: "{11111111-1111-1111-1111-111111111111}"},
		Expandable: true,
		State:      treesync.Expanded,
		Children:   []*treesync.Node{core},
	}
	root := &treesync.Node{
		Label:      "Solution 'S' (1 project)",
		Kind:       nodeid.KindRoot,
		Expandable: true,
		State:      treesync.Expanded,
		Children:   []*treesync.Node{shared, {Label: "notes.txt", Kind: nodeid.KindGroupedItem}},
	}

	var buf bytes.Buffer
	pp := PrettyPrint{Out: &buf}
	pp.Tree(root)
	assert.Equal(t, ""+
		"▾ Solution 'S' (1 project)\n"+
		"  ▾ Shared\n"+
		"    ▸ Core\n"+
		"    notes.txt\n", buf.String())

	buf.Reset()
	pp.ShowID = true
	pp.Tree(shared)
	assert.Contains(t, buf.String(), "Shared  {11111111-1111-1111-1111-111111111111}")
	assert.Contains(t, buf.String(), "Core  {22222222-2222-2222-2222-222222222222}")
}

func TestResult(t *testing.T) {
	var buf bytes.Buffer
	pp := PrettyPrint{Out: &buf}

	pp.Result("add folder Tests", solution.Result{Changed: true, ID: "{AB}"})
	pp.Result("remove item a.txt", solution.Result{})
	pp.Result("remove folder Shared", solution.Result{Changed: true, Removed: []string{"{A}", "{B}", "{C}"}})

	assert.Equal(t, ""+
		"✓ add folder Tests  {AB}\n"+
		"no change: remove item a.txt\n"+
		"✓ remove folder Shared\n"+
		"  removed 3 entities\n", buf.String())
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	pp := PrettyPrint{Out: &buf}
	pp.Table([]string{"Name", "Kind"}, []string{"Core", "csharp"})
	assert.Contains(t, buf.String(), "Name")
	assert.Contains(t, buf.String(), "Core  csharp")
}
