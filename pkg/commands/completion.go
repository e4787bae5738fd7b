package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/sln/pkg/hierarchy"
	"tableflip.dev/sln/pkg/slnfile"
)

type completionFunc func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective)

// entityRefs lists the name paths of the entities in the selected solution
// that match keep and start with prefix. Completion reads the file directly
// so no watcher or view state is touched.
func entityRefs(wf *workspaceFlags, prefix string, keep func(*slnfile.Entity) bool) []string {
	path, err := wf.so.Resolve()
	if err != nil {
		return nil
	}
	doc, err := slnfile.ParseFile(path)
	if err != nil {
		return nil
	}
	forest := hierarchy.Build(doc)

	var refs []string
	for _, e := range doc.Entities {
		if !keep(e) {
			continue
		}
		var chain []string
		for _, a := range forest.Path(e.ID) {
			chain = append(chain, a.Name)
		}
		ref := strings.Join(append(chain, e.Name), "/")
		if !strings.HasPrefix(strings.ToLower(ref), strings.ToLower(prefix)) {
			continue
		}
		if strings.ContainsAny(ref, " \t") {
			ref = strconv.Quote(ref)
		}
		refs = append(refs, ref)
	}
	return refs
}

func isFolder(e *slnfile.Entity) bool  { return e.IsFolder() }
func isProject(e *slnfile.Entity) bool { return !e.IsFolder() }
func isEntity(*slnfile.Entity) bool    { return true }

func completeFirst(wf *workspaceFlags, keep func(*slnfile.Entity) bool) completionFunc {
	return func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return entityRefs(wf, toComplete, keep), cobra.ShellCompDirectiveNoFileComp
	}
}

func folderCompletions(wf *workspaceFlags) completionFunc  { return completeFirst(wf, isFolder) }
func projectCompletions(wf *workspaceFlags) completionFunc { return completeFirst(wf, isProject) }
func entityCompletions(wf *workspaceFlags) completionFunc  { return completeFirst(wf, isEntity) }

func folderFlagCompletions(wf *workspaceFlags) completionFunc {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return entityRefs(wf, toComplete, isFolder), cobra.ShellCompDirectiveNoFileComp
	}
}

// folderThenFileCompletions completes a folder, then falls back to the
// shell's file completion for the path.
func folderThenFileCompletions(wf *workspaceFlags) completionFunc {
	return func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		switch len(args) {
		case 0:
			return entityRefs(wf, toComplete, isFolder), cobra.ShellCompDirectiveNoFileComp
		case 1:
			return nil, cobra.ShellCompDirectiveDefault
		default:
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
	}
}
