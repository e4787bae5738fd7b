package slnedit

import (
	"regexp"
	"strings"

	"tableflip.dev/sln/pkg/slnfile"
)

var (
	projectLine = regexp.MustCompile(`^Project\("([^"]*)"\)\s*=\s*"([^"]*)"\s*,\s*"([^"]*)"\s*,\s*"([^"]*)"`)
	sectionLine = regexp.MustCompile(`^(Project|Global)Section\(([^)]*)\)\s*=`)
)

// row is one physical line and the terminator it carried.
type row struct {
	text string
	eol  string
}

// buffer edits the text line by line. Untouched rows keep their bytes,
// including their own line terminator.
type buffer struct {
	rows []row
	eol  string
}

func newBuffer(text string) *buffer {
	b := &buffer{eol: "\n"}
	if strings.Contains(text, "\r\n") {
		b.eol = "\r\n"
	}
	parts := strings.Split(text, "\n")
	for i, part := range parts {
		r := row{text: part}
		if i < len(parts)-1 {
			r.eol = "\n"
			if strings.HasSuffix(part, "\r") {
				r.text = strings.TrimSuffix(part, "\r")
				r.eol = "\r\n"
			}
		}
		b.rows = append(b.rows, r)
	}
	return b
}

func (b *buffer) String() string {
	var sb strings.Builder
	for _, r := range b.rows {
		sb.WriteString(r.text)
		sb.WriteString(r.eol)
	}
	return sb.String()
}

func (b *buffer) trimmed(i int) string {
	return strings.TrimSpace(b.rows[i].text)
}

func (b *buffer) insert(at int, lines ...string) {
	added := make([]row, 0, len(lines))
	for _, l := range lines {
		added = append(added, row{text: l, eol: b.eol})
	}
	b.rows = append(b.rows[:at], append(added, b.rows[at:]...)...)
}

// appendLines adds lines at the end of the text, keeping a final newline.
func (b *buffer) appendLines(lines ...string) int {
	last := len(b.rows) - 1
	if last >= 0 && b.rows[last].eol == "" && b.rows[last].text == "" {
		b.insert(last, lines...)
		return last
	}
	if last >= 0 && b.rows[last].eol == "" {
		b.rows[last].eol = b.eol
	}
	at := len(b.rows)
	b.insert(at, lines...)
	return at
}

func (b *buffer) remove(from, to int) {
	b.rows = append(b.rows[:from], b.rows[to+1:]...)
}

func (b *buffer) indexOf(from int, match func(string) bool) int {
	for i := from; i < len(b.rows); i++ {
		if match(b.trimmed(i)) {
			return i
		}
	}
	return -1
}

// projectRow finds the Project(...) line declaring id.
func (b *buffer) projectRow(id string) int {
	return b.indexOf(0, func(line string) bool {
		m := projectLine.FindStringSubmatch(line)
		return m != nil && slnfile.SameGUID(m[4], id)
	})
}

// blockEnd returns the EndProject row closing the block opened at start. An
// unterminated block stops before the next block opener or at end of input.
func (b *buffer) blockEnd(start int) (int, bool) {
	for i := start + 1; i < len(b.rows); i++ {
		line := b.trimmed(i)
		switch {
		case line == "EndProject":
			return i, true
		case strings.HasPrefix(line, "Project(") || line == "Global":
			return i - 1, false
		}
	}
	return b.lastContentRow(), false
}

func (b *buffer) lastContentRow() int {
	last := len(b.rows) - 1
	if last > 0 && b.rows[last].eol == "" && b.rows[last].text == "" {
		return last - 1
	}
	return last
}

// removeBlock deletes the Project block for id and reports whether it existed.
func (b *buffer) removeBlock(id string) bool {
	start := b.projectRow(id)
	if start < 0 {
		return false
	}
	end, _ := b.blockEnd(start)
	b.remove(start, end)
	return true
}

// sectionIn finds a named section between from and to (inclusive) and
// returns its header row and terminator row.
func (b *buffer) sectionIn(from, to int, scope, name, terminator string) (int, int) {
	for i := from; i <= to && i < len(b.rows); i++ {
		m := sectionLine.FindStringSubmatch(b.trimmed(i))
		if m == nil || m[1] != scope || strings.TrimSpace(m[2]) != name {
			continue
		}
		for j := i + 1; j <= to && j < len(b.rows); j++ {
			if b.trimmed(j) == terminator {
				return i, j
			}
		}
		return i, -1
	}
	return -1, -1
}

// itemsBlock is the SolutionItems section of a folder. close is the row new
// items go before: the EndProjectSection row, or the block terminator when
// the section was never closed.
type itemsBlock struct {
	open, close int
	terminated  bool
}

func (b *buffer) itemsSection(start int) (itemsBlock, bool) {
	if start < 0 {
		return itemsBlock{}, false
	}
	end, blockTerminated := b.blockEnd(start)
	s, e := b.sectionIn(start+1, end, "Project", slnfile.SolutionItemsSection, "EndProjectSection")
	switch {
	case s < 0:
		return itemsBlock{}, false
	case e >= 0:
		return itemsBlock{open: s, close: e, terminated: true}, true
	case blockTerminated:
		return itemsBlock{open: s, close: end}, true
	default:
		return itemsBlock{open: s, close: end + 1}, true
	}
}

func (b *buffer) global() (int, int) {
	start := b.indexOf(0, func(l string) bool { return l == "Global" })
	if start < 0 {
		return -1, -1
	}
	end := b.indexOf(start+1, func(l string) bool { return l == "EndGlobal" })
	return start, end
}

// ensureGlobal returns the Global/EndGlobal rows, creating the block at the
// end of the text when missing.
func (b *buffer) ensureGlobal() (int, int) {
	start, end := b.global()
	if start >= 0 && end >= 0 {
		return start, end
	}
	if start >= 0 {
		at := b.lastContentRow() + 1
		b.insert(at, "EndGlobal")
		return start, at
	}
	at := b.appendLines("Global", "EndGlobal")
	return at, at + 1
}

// globalSections lists every global section with the given name.
func (b *buffer) globalSections(name string) [][2]int {
	start, end := b.global()
	if start < 0 {
		return nil
	}
	if end < 0 {
		end = len(b.rows) - 1
	}
	var out [][2]int
	for from := start + 1; from <= end; {
		s, e := b.sectionIn(from, end, "Global", name, "EndGlobalSection")
		if s < 0 || e < 0 {
			break
		}
		out = append(out, [2]int{s, e})
		from = e + 1
	}
	return out
}

// ensureGlobalSection returns the header and terminator rows of a global
// section, creating it just before EndGlobal when absent.
func (b *buffer) ensureGlobalSection(name string) (int, int) {
	if found := b.globalSections(name); len(found) > 0 {
		return found[0][0], found[0][1]
	}
	_, end := b.ensureGlobal()
	b.insert(end, "\tGlobalSection("+name+") = preSolution", "\tEndGlobalSection")
	return end, end + 1
}

// stripGlobalRows removes rows of the named global sections for which drop
// returns true. Sections left empty are removed too.
func (b *buffer) stripGlobalRows(name string, drop func(key, value string) bool) bool {
	changed := false
	spans := b.globalSections(name)
	// Walk backwards so earlier spans keep their row numbers.
	for i := len(spans) - 1; i >= 0; i-- {
		start, end := spans[i][0], spans[i][1]
		removed := 0
		for r := end - 1; r > start; r-- {
			key, value, ok := splitItem(b.trimmed(r))
			if ok && drop(key, value) {
				b.remove(r, r)
				removed++
			}
		}
		if removed == 0 {
			continue
		}
		changed = true
		if end-removed == start+1 {
			b.remove(start, start+1)
		}
	}
	return changed
}

func splitItem(line string) (string, string, bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}
