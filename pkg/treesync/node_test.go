package treesync

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"tableflip.dev/sln/pkg/nodeid"
)

func TestSummarizeHidesCollapsedChildren(t *testing.T) {
	project := newNode(nodeid.Project{Solution: "/s/S.sln", ProjectID: "{A}", Path: "/s/A/A.csproj"}, "A", "/s/A/A.csproj", true)
	project.Children = []*Node{newNode(nodeid.File{ProjectID: "{A}", Path: "/s/A/x.cs"}, "x.cs", "/s/A/x.cs", false)}
	root := newNode(nodeid.Root{Solution: "/s/S.sln"}, "Solution 'S' (1 project)", "/s/S.sln", true)
	root.State = Expanded
	root.Children = []*Node{project}

	want := Summary{
		Token:      root.Token,
		Label:      "Solution 'S' (1 project)",
		Kind:       "root",
		Path:       "/s/S.sln",
		State:      "expanded",
		Expandable: true,
		Children: []Summary{{
			Token:      project.Token,
			Label:      "A",
			Kind:       "project",
			Path:       "/s/A/A.csproj",
			State:      "collapsed",
			Expandable: true,
		}},
	}
	if diff := cmp.Diff(want, Summarize(root)); diff != "" {
		t.Errorf("summary (-want +got):\n%s", diff)
	}
}
