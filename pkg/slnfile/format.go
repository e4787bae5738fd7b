package slnfile

import (
	"fmt"
	"strings"
)

// DefaultFormatVersion is written when a document carries none.
const DefaultFormatVersion = "12.00"

// HeaderPrefix opens every solution file.
const HeaderPrefix = "Microsoft Visual Studio Solution File, Format Version "

// Format renders the document in canonical form with CRLF line endings.
// Parsing the output yields a structurally identical document.
func (d *Document) Format() string {
	var b strings.Builder
	w := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\r\n")
	}

	version := d.FormatVersion
	if version == "" {
		version = DefaultFormatVersion
	}
	b.WriteString("\r\n")
	w("%s%s", HeaderPrefix, version)
	if d.ToolVersion != "" {
		if major, _, _ := strings.Cut(d.ToolVersion, "."); major != "" {
			w("# Visual Studio Version %s", major)
		}
		w("%s = %s", toolVersionKey, d.ToolVersion)
	}
	if d.MinimumToolVersion != "" {
		w("%s = %s", minToolVersionKey, d.MinimumToolVersion)
	}

	for _, e := range d.Entities {
		w(`Project("%s") = "%s", "%s", "%s"`, e.TypeID, e.Name, d.rawLocation(e), e.ID)
		for _, sec := range e.Sections {
			w("\tProjectSection(%s) = %s", sec.Name, sec.Phase.ProjectToken())
			for _, it := range sec.Items {
				w("\t\t%s = %s", it.Key, it.Value)
			}
			w("\tEndProjectSection")
		}
		w("EndProject")
	}

	w("Global")
	for _, sec := range d.GlobalSections {
		w("\tGlobalSection(%s) = %s", sec.Name, sec.Phase.SolutionToken())
		for _, it := range sec.Items {
			w("\t\t%s = %s", it.Key, it.Value)
		}
		w("\tEndGlobalSection")
	}
	w("EndGlobal")
	return b.String()
}

func (d *Document) rawLocation(e *Entity) string {
	if e.RawLocation != "" {
		return e.RawLocation
	}
	if e.IsFolder() {
		return e.Name
	}
	return RelativePath(d.BasePath, e.Location)
}
