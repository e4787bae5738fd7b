// Package slntest holds solution fixtures shared by tests.
package slntest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Well-known ids used by Sample.
const (
	SharedID = "{11111111-1111-1111-1111-111111111111}"
	CoreID   = "{22222222-2222-2222-2222-222222222222}"
	DocsID   = "{33333333-3333-3333-3333-333333333333}"
	ToolsID  = "{44444444-4444-4444-4444-444444444444}"
	CLIID    = "{55555555-5555-5555-5555-555555555555}"
	AppID    = "{66666666-6666-6666-6666-666666666666}"

	FolderType = "{2150E333-8FDC-42A3-9474-1A3956D46DE8}"
	CSharpType = "{9A19103F-16F7-4668-BE54-9A1E7A4F7556}"
)

// Sample is a small solution: folder Shared holds project Core and folder
// Tools, Tools holds project CLI, folder Docs holds one item and project App
// sits at the root.
var Sample = lines(
	"",
	"Microsoft Visual Studio Solution File, Format Version 12.00",
	"# Visual Studio Version 17",
	"VisualStudioVersion = 17.0.31903.59",
	"MinimumVisualStudioVersion = 10.0.40219.1",
	`Project("`+FolderType+`") = "Shared", "Shared", "`+SharedID+`"`,
	"EndProject",
	`Project("`+CSharpType+`") = "Core", "src\Core\Core.csproj", "`+CoreID+`"`,
	"EndProject",
	`Project("`+FolderType+`") = "Tools", "Tools", "`+ToolsID+`"`,
	"EndProject",
	`Project("`+CSharpType+`") = "CLI", "src\CLI\CLI.csproj", "`+CLIID+`"`,
	"EndProject",
	`Project("`+FolderType+`") = "Docs", "Docs", "`+DocsID+`"`,
	"\tProjectSection(SolutionItems) = preProject",
	"\t\tREADME.md = README.md",
	"\tEndProjectSection",
	"EndProject",
	`Project("`+CSharpType+`") = "App", "src\App\App.csproj", "`+AppID+`"`,
	"EndProject",
	"Global",
	"\tGlobalSection(SolutionConfigurationPlatforms) = preSolution",
	"\t\tDebug|Any CPU = Debug|Any CPU",
	"\t\tRelease|Any CPU = Release|Any CPU",
	"\tEndGlobalSection",
	"\tGlobalSection(ProjectConfigurationPlatforms) = postSolution",
	"\t\t"+CoreID+".Debug|Any CPU.ActiveCfg = Debug|Any CPU",
	"\t\t"+CoreID+".Debug|Any CPU.Build.0 = Debug|Any CPU",
	"\t\t"+CLIID+".Debug|Any CPU.ActiveCfg = Debug|Any CPU",
	"\t\t"+AppID+".Debug|Any CPU.ActiveCfg = Debug|Any CPU",
	"\tEndGlobalSection",
	"\tGlobalSection(NestedProjects) = preSolution",
	"\t\t"+CoreID+" = "+SharedID,
	"\t\t"+ToolsID+" = "+SharedID,
	"\t\t"+CLIID+" = "+ToolsID,
	"\tEndGlobalSection",
	"EndGlobal",
)

// Minimal is a solution with one folder and nothing else.
var Minimal = lines(
	"Microsoft Visual Studio Solution File, Format Version 12.00",
	`Project("`+FolderType+`") = "Docs", "Docs", "`+DocsID+`"`,
	"EndProject",
	"Global",
	"EndGlobal",
)

func lines(in ...string) string {
	return strings.Join(in, "\r\n") + "\r\n"
}

// WriteSolution writes text to dir/name.sln along with the project
// directories Sample references, and returns the solution path.
func WriteSolution(t *testing.T, dir, text string) string {
	t.Helper()
	for _, p := range []string{"src/Core", "src/CLI", "src/App"} {
		projectDir := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(projectDir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", projectDir, err)
		}
		name := filepath.Base(projectDir) + ".csproj"
		if err := os.WriteFile(filepath.Join(projectDir, name), []byte(ProjectFile), 0o644); err != nil {
			t.Fatalf("write project: %v", err)
		}
	}
	path := filepath.Join(dir, "Sample.sln")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write solution: %v", err)
	}
	return path
}

// ProjectFile is an SDK-style project with one package and one project reference.
const ProjectFile = `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
  </PropertyGroup>
  <ItemGroup>
    <PackageReference Include="Newtonsoft.Json" Version="13.0.3" />
    <ProjectReference Include="..\Core\Core.csproj" />
  </ItemGroup>
</Project>
`
