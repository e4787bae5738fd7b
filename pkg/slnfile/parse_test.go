package slnfile

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/sln/pkg/slntest"
)

func TestParseSample(t *testing.T) {
	base := filepath.FromSlash("/repo")
	doc, err := Parse(slntest.Sample, base)
	require.NoError(t, err)

	assert.Equal(t, "12.00", doc.FormatVersion)
	assert.Equal(t, "17.0.31903.59", doc.ToolVersion)
	assert.Equal(t, "10.0.40219.1", doc.MinimumToolVersion)
	require.Len(t, doc.Entities, 6)

	names := make([]string, 0, len(doc.Entities))
	for _, e := range doc.Entities {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Shared", "Core", "Tools", "CLI", "Docs", "App"}, names)

	shared := doc.EntityByID(slntest.SharedID)
	require.NotNil(t, shared)
	assert.True(t, shared.IsFolder())
	assert.Equal(t, "Shared", shared.Location)

	core := doc.EntityByID(strings.ToLower(slntest.CoreID))
	require.NotNil(t, core)
	assert.Equal(t, KindCSharpSDK, core.Kind())
	assert.Equal(t, filepath.Join(base, "src", "Core", "Core.csproj"), core.Location)
	assert.Equal(t, `src\Core\Core.csproj`, core.RawLocation)

	docs := doc.EntityByID(slntest.DocsID)
	require.NotNil(t, docs)
	assert.Equal(t, []string{"README.md"}, docs.Items())

	assert.Equal(t, []Edge{
		{ChildID: slntest.CoreID, ParentID: slntest.SharedID},
		{ChildID: slntest.ToolsID, ParentID: slntest.SharedID},
		{ChildID: slntest.CLIID, ParentID: slntest.ToolsID},
	}, doc.Edges)

	cfg := doc.GlobalSection(ProjectConfigurationSection)
	require.NotNil(t, cfg)
	assert.Equal(t, PhasePost, cfg.Phase)
	assert.Len(t, cfg.Items, 4)
}

func TestParseLineEndings(t *testing.T) {
	crlf, err := Parse(slntest.Sample, "/repo")
	require.NoError(t, err)
	lf, err := Parse(strings.ReplaceAll(slntest.Sample, "\r\n", "\n"), "/repo")
	require.NoError(t, err)
	if diff := cmp.Diff(crlf, lf); diff != "" {
		t.Fatalf("CRLF and LF parse differently (-crlf +lf):\n%s", diff)
	}
}

func TestParseUnknownTypeIsGeneric(t *testing.T) {
	text := strings.Join([]string{
		"Microsoft Visual Studio Solution File, Format Version 12.00",
		`Project("{ABCDEF00-0000-0000-0000-000000000000}") = "Odd", "odd\Odd.proj", "{AAAAAAAA-0000-0000-0000-000000000000}"`,
		"EndProject",
	}, "\n")
	doc, err := Parse(text, "/repo")
	require.NoError(t, err)
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, KindGeneric, doc.Entities[0].Kind())
	assert.False(t, doc.Entities[0].IsFolder())
}

func TestParseMalformedOpeners(t *testing.T) {
	cases := map[string]string{
		"project": `Project("{X}") = "Broken"`,
		"section": "Project(\"{X}\") = \"A\", \"A\", \"{B}\"\n\tProjectSection(SolutionItems) = sideways\nEndProject",
		"global":  "Global\n\tGlobalSection(NestedProjects)\nEndGlobal",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("Microsoft Visual Studio Solution File, Format Version 12.00\n"+body, "/repo")
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "expected ParseError, got %v", err)
			assert.Greater(t, perr.Line, 1)
		})
	}
}

func TestParseUnterminatedBlocks(t *testing.T) {
	text := strings.Join([]string{
		"Microsoft Visual Studio Solution File, Format Version 12.00",
		`Project("` + slntest.FolderType + `") = "Docs", "Docs", "` + slntest.DocsID + `"`,
		"\tProjectSection(SolutionItems) = preProject",
		"\t\ta.md = a.md",
	}, "\n")
	doc, err := Parse(text, "/repo")
	require.NoError(t, err)
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, []string{"a.md"}, doc.Entities[0].Items())
}

func TestParseSectionClosedByOwnerTerminator(t *testing.T) {
	text := strings.Join([]string{
		`Project("` + slntest.FolderType + `") = "Docs", "Docs", "` + slntest.DocsID + `"`,
		"\tProjectSection(SolutionItems) = preProject",
		"\t\ta.md = a.md",
		"EndProject",
		`Project("` + slntest.FolderType + `") = "More", "More", "` + slntest.SharedID + `"`,
		"EndProject",
	}, "\n")
	doc, err := Parse(text, "/repo")
	require.NoError(t, err)
	require.Len(t, doc.Entities, 2)
	assert.Equal(t, "More", doc.Entities[1].Name)
}

func TestParseIgnoresUnknownLeadingLines(t *testing.T) {
	text := "some future metadata\n" + slntest.Minimal
	doc, err := Parse(text, "/repo")
	require.NoError(t, err)
	assert.Equal(t, "12.00", doc.FormatVersion)
	assert.Len(t, doc.Entities, 1)
}

func TestParseKeepsDuplicateRows(t *testing.T) {
	text := strings.Join([]string{
		"Global",
		"\tGlobalSection(NestedProjects) = preSolution",
		"\t\t{A} = {B}",
		"\t\t{A} = {C}",
		"\tEndGlobalSection",
		"EndGlobal",
	}, "\n")
	doc, err := Parse(text, "/repo")
	require.NoError(t, err)
	assert.Len(t, doc.Edges, 2)
	assert.Len(t, doc.GlobalSection(NestedProjectsSection).Items, 2)
}

func TestFormatRoundTrip(t *testing.T) {
	for name, text := range map[string]string{"sample": slntest.Sample, "minimal": slntest.Minimal} {
		t.Run(name, func(t *testing.T) {
			doc, err := Parse(text, "/repo")
			require.NoError(t, err)
			again, err := Parse(doc.Format(), "/repo")
			require.NoError(t, err)
			if diff := cmp.Diff(doc, again, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("round trip changed the document (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRelativePathUsesForwardSlashes(t *testing.T) {
	base := filepath.FromSlash("/repo")
	abs := filepath.Join(base, "docs", "guide.md")
	assert.Equal(t, "docs/guide.md", RelativePath(base, abs))
	assert.Equal(t, "a/b.md", RelativePath(base, "a/b.md"))
}

func TestGUIDHelpers(t *testing.T) {
	id := NewGUID()
	assert.True(t, strings.HasPrefix(id, "{") && strings.HasSuffix(id, "}"))
	assert.Equal(t, strings.ToUpper(id), id)
	assert.True(t, ValidGUID(id))
	assert.True(t, SameGUID(strings.ToLower(id), id))
	assert.False(t, SameGUID("", ""))
	assert.Equal(t, KindFolder, KindOf(strings.ToLower(slntest.FolderType)))
}
