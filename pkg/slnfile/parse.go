package slnfile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	projectLine = regexp.MustCompile(`^Project\("([^"]*)"\)\s*=\s*"([^"]*)"\s*,\s*"([^"]*)"\s*,\s*"([^"]*)"\s*$`)
	sectionLine = regexp.MustCompile(`^(Project|Global)Section\(([^)]*)\)\s*=\s*(pre|post)(Project|Solution)\s*$`)
)

const (
	formatVersionMarker = "Format Version "
	toolVersionKey      = "VisualStudioVersion"
	minToolVersionKey   = "MinimumVisualStudioVersion"
)

// ParseFile reads and parses the solution at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("slnfile: read %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	doc, err := Parse(string(data), filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	doc.Path = abs
	return doc, nil
}

// Parse converts solution text into a Document. Project locations are
// resolved against basePath. Only malformed block openers are errors;
// unknown lines are skipped and unterminated blocks run to end of input.
func Parse(text string, basePath string) (*Document, error) {
	p := &parser{lines: splitLines(text)}
	doc := &Document{BasePath: basePath}
	if err := p.parse(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

type parser struct {
	lines []string
	pos   int
}

// next returns the next non-blank trimmed line and its 1-based number.
func (p *parser) next() (string, int, bool) {
	for p.pos < len(p.lines) {
		line := strings.TrimSpace(p.lines[p.pos])
		p.pos++
		if line == "" {
			continue
		}
		return line, p.pos, true
	}
	return "", 0, false
}

// peek returns the next non-blank line without consuming it.
func (p *parser) peek() string {
	for i := p.pos; i < len(p.lines); i++ {
		if line := strings.TrimSpace(p.lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func (p *parser) parse(doc *Document) error {
	seenEntity := false
	for {
		line, num, ok := p.next()
		if !ok {
			return nil
		}
		switch {
		case strings.HasPrefix(line, "Project("):
			seenEntity = true
			entity, err := p.parseEntity(line, num, doc.BasePath)
			if err != nil {
				return err
			}
			doc.Entities = append(doc.Entities, entity)
		case line == "Global":
			seenEntity = true
			if err := p.parseGlobal(doc); err != nil {
				return err
			}
		case !seenEntity:
			p.parseHeader(doc, line)
		}
	}
}

func (p *parser) parseHeader(doc *Document, line string) {
	if idx := strings.Index(line, formatVersionMarker); idx >= 0 && doc.FormatVersion == "" {
		doc.FormatVersion = strings.TrimSpace(line[idx+len(formatVersionMarker):])
		return
	}
	key, value, ok := splitItem(line)
	if !ok {
		return
	}
	switch key {
	case toolVersionKey:
		doc.ToolVersion = value
	case minToolVersionKey:
		doc.MinimumToolVersion = value
	}
}

func (p *parser) parseEntity(line string, num int, basePath string) (*Entity, error) {
	m := projectLine.FindStringSubmatch(line)
	if m == nil {
		return nil, &ParseError{Line: num, Text: line, Reason: "malformed project declaration"}
	}
	entity := &Entity{
		TypeID:      NormalizeGUID(m[1]),
		Name:        m[2],
		RawLocation: m[3],
		ID:          NormalizeGUID(m[4]),
	}
	if entity.IsFolder() {
		entity.Location = entity.Name
	} else {
		entity.Location = ResolvePath(basePath, entity.RawLocation)
	}

	for {
		line, num, ok := p.next()
		if !ok || line == "EndProject" {
			return entity, nil
		}
		if strings.HasPrefix(line, "ProjectSection(") {
			sec, err := p.parseSection(line, num, "EndProjectSection", "EndProject")
			if err != nil {
				return nil, err
			}
			entity.Sections = append(entity.Sections, sec)
		}
	}
}

func (p *parser) parseGlobal(doc *Document) error {
	for {
		line, num, ok := p.next()
		if !ok || line == "EndGlobal" {
			return nil
		}
		if !strings.HasPrefix(line, "GlobalSection(") {
			continue
		}
		sec, err := p.parseSection(line, num, "EndGlobalSection", "EndGlobal")
		if err != nil {
			return err
		}
		if sec.Name == NestedProjectsSection {
			for _, it := range sec.Items {
				doc.Edges = append(doc.Edges, Edge{
					ChildID:  NormalizeGUID(it.Key),
					ParentID: NormalizeGUID(it.Value),
				})
			}
		}
		doc.GlobalSections = append(doc.GlobalSections, sec)
	}
}

// parseSection reads rows until terminator. Reaching the owner's terminator
// also ends the section; that line is left for the owner to consume.
func (p *parser) parseSection(line string, num int, terminator, ownerTerminator string) (Section, error) {
	m := sectionLine.FindStringSubmatch(line)
	if m == nil {
		return Section{}, &ParseError{Line: num, Text: line, Reason: "malformed section declaration"}
	}
	sec := Section{Name: strings.TrimSpace(m[2]), Phase: PhasePre}
	if m[3] == "post" {
		sec.Phase = PhasePost
	}
	for {
		if p.peek() == ownerTerminator {
			return sec, nil
		}
		line, _, ok := p.next()
		if !ok || line == terminator {
			return sec, nil
		}
		if key, value, ok := splitItem(line); ok {
			sec.Items = append(sec.Items, Item{Key: key, Value: value})
		}
	}
}

func splitItem(line string) (string, string, bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

func splitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
