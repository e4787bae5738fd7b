package slnfile

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind is the closed set of project type ids the tool understands.
// Unregistered type ids map to KindGeneric and are never rejected.
type Kind int

const (
	KindGeneric Kind = iota
	KindFolder
	KindCSharp
	KindCSharpSDK
	KindVisualBasic
	KindVisualBasicSDK
	KindFSharp
	KindFSharpSDK
	KindCpp
	KindWebSite
	KindShared
	KindDatabase
	KindDocker
)

var kindTypeIDs = map[Kind]string{
	KindFolder:         "{2150E333-8FDC-42A3-9474-1A3956D46DE8}",
	KindCSharp:         "{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}",
	KindCSharpSDK:      "{9A19103F-16F7-4668-BE54-9A1E7A4F7556}",
	KindVisualBasic:    "{F184B08F-C81C-45F6-A57F-5ABD9991F28F}",
	KindVisualBasicSDK: "{778DAE3C-4631-46EA-AA77-85C1314464D9}",
	KindFSharp:         "{F2A71F9B-5D33-465A-A702-920D77279786}",
	KindFSharpSDK:      "{6EC3EE1D-3C4E-46DD-8F32-0CC8E7565705}",
	KindCpp:            "{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}",
	KindWebSite:        "{E24C65DC-7377-472B-9ABA-BC803B73C61A}",
	KindShared:         "{D954291E-2A0B-460D-934E-DC6B0785DB48}",
	KindDatabase:       "{00D1A9C2-B5F0-4AF3-8072-F6C62B433612}",
	KindDocker:         "{E53339B2-1760-4266-BCC7-CA923CBCF16C}",
}

var kindNames = map[Kind]string{
	KindGeneric:        "project",
	KindFolder:         "folder",
	KindCSharp:         "csharp",
	KindCSharpSDK:      "csharp-sdk",
	KindVisualBasic:    "vb",
	KindVisualBasicSDK: "vb-sdk",
	KindFSharp:         "fsharp",
	KindFSharpSDK:      "fsharp-sdk",
	KindCpp:            "cpp",
	KindWebSite:        "website",
	KindShared:         "shared",
	KindDatabase:       "database",
	KindDocker:         "docker",
}

// String returns the short name used on the command line.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindGeneric]
}

// TypeID returns the registered GUID for the kind. KindGeneric has none and
// borrows the SDK-style C# id, which is what tooling writes for new projects.
func (k Kind) TypeID() string {
	if id, ok := kindTypeIDs[k]; ok {
		return id
	}
	return kindTypeIDs[KindCSharpSDK]
}

// KindOf maps a type id to its Kind, falling back to KindGeneric.
func KindOf(typeID string) Kind {
	for kind, id := range kindTypeIDs {
		if SameGUID(id, typeID) {
			return kind
		}
	}
	return KindGeneric
}

// ParseKind converts a command-line kind name.
func ParseKind(raw string) (Kind, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return KindCSharpSDK, nil
	}
	for kind, name := range kindNames {
		if name == raw {
			return kind, nil
		}
	}
	return KindGeneric, fmt.Errorf("slnfile: unknown project kind %q", raw)
}

// KindForExtension guesses the kind from a project file extension.
func KindForExtension(path string) Kind {
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".csproj"):
		return KindCSharpSDK
	case strings.HasSuffix(strings.ToLower(path), ".vbproj"):
		return KindVisualBasicSDK
	case strings.HasSuffix(strings.ToLower(path), ".fsproj"):
		return KindFSharpSDK
	case strings.HasSuffix(strings.ToLower(path), ".vcxproj"):
		return KindCpp
	case strings.HasSuffix(strings.ToLower(path), ".shproj"):
		return KindShared
	case strings.HasSuffix(strings.ToLower(path), ".sqlproj"):
		return KindDatabase
	case strings.HasSuffix(strings.ToLower(path), ".dcproj"):
		return KindDocker
	default:
		return KindGeneric
	}
}

// NewGUID returns a fresh brace-delimited uppercase GUID.
func NewGUID() string {
	return "{" + strings.ToUpper(uuid.NewString()) + "}"
}

// NormalizeGUID trims, upper-cases and wraps a GUID in braces.
func NormalizeGUID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "{")
	id = strings.TrimSuffix(id, "}")
	if id == "" {
		return ""
	}
	return "{" + strings.ToUpper(id) + "}"
}

// SameGUID compares two GUIDs ignoring case and braces.
func SameGUID(a, b string) bool {
	return NormalizeGUID(a) == NormalizeGUID(b) && NormalizeGUID(a) != ""
}

// ValidGUID reports whether id parses as a GUID.
func ValidGUID(id string) bool {
	_, err := uuid.Parse(strings.Trim(strings.TrimSpace(id), "{}"))
	return err == nil
}
