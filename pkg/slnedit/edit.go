// Package slnedit rewrites solution text in place. Every operation takes the
// current text and returns new text; rows an operation does not touch keep
// their bytes and line endings. Operations that find nothing to do return
// the input unchanged with Changed set to false.
package slnedit

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"tableflip.dev/sln/pkg/hierarchy"
	"tableflip.dev/sln/pkg/slnfile"
)

// Result is the outcome of one edit.
type Result struct {
	Text    string
	Changed bool
	// ID is the entity created or targeted by the edit.
	ID string
	// Removed lists every entity id the edit deleted, the target first.
	Removed []string
}

func unchanged(text string) Result {
	return Result{Text: text}
}

// Editor applies edits to the text of a solution stored in BasePath. Paths
// passed to it may be absolute or relative to BasePath; they are written
// relative, with forward slashes.
type Editor struct {
	BasePath string
}

func (ed Editor) parse(text string) (*slnfile.Document, error) {
	doc, err := slnfile.Parse(text, ed.BasePath)
	if err != nil {
		return nil, fmt.Errorf("slnedit: %w", err)
	}
	return doc, nil
}

func (ed Editor) relative(p string) string {
	rel := slnfile.RelativePath(ed.BasePath, p)
	rel = strings.ReplaceAll(rel, `\`, "/")
	return strings.TrimPrefix(path.Clean(rel), "./")
}

func projectDecl(typeID, name, location, id string) string {
	return fmt.Sprintf(`Project("%s") = "%s", "%s", "%s"`, typeID, name, location, id)
}

func validName(name string) bool {
	return strings.TrimSpace(name) != "" && !strings.ContainsAny(name, "\"\r\n")
}

func siblingFolderNamed(f *hierarchy.Forest, parentID, name string) bool {
	for _, e := range f.Children(parentID) {
		if e.IsFolder() && strings.EqualFold(e.Name, name) {
			return true
		}
	}
	return false
}

// insertEntity writes a Project block before Global, or at the end of the
// text when there is no Global block.
func insertEntity(b *buffer, lines ...string) {
	if start, _ := b.global(); start >= 0 {
		b.insert(start, lines...)
		return
	}
	b.appendLines(lines...)
}

func nestRow(b *buffer, childID, parentID string) {
	_, end := b.ensureGlobalSection(slnfile.NestedProjectsSection)
	b.insert(end, "\t\t"+childID+" = "+parentID)
}

func stripNesting(b *buffer, ids map[string]bool) bool {
	return b.stripGlobalRows(slnfile.NestedProjectsSection, func(key, value string) bool {
		return ids[slnfile.NormalizeGUID(key)] || ids[slnfile.NormalizeGUID(value)]
	})
}

func stripConfigurations(b *buffer, ids map[string]bool) bool {
	return b.stripGlobalRows(slnfile.ProjectConfigurationSection, func(key, _ string) bool {
		dot := strings.Index(key, ".")
		if dot < 0 {
			return false
		}
		return ids[slnfile.NormalizeGUID(key[:dot])]
	})
}

// AddFolder creates a grouping folder under parentID, or at the root when
// parentID is empty. It does nothing when the parent is not a folder or a
// sibling folder already carries the name.
func (ed Editor) AddFolder(text, name, parentID string) (Result, error) {
	doc, err := ed.parse(text)
	if err != nil {
		return Result{}, err
	}
	if !validName(name) {
		return unchanged(text), nil
	}
	if parentID != "" {
		parent := doc.EntityByID(parentID)
		if parent == nil || !parent.IsFolder() {
			return unchanged(text), nil
		}
		parentID = parent.ID
	}
	if siblingFolderNamed(hierarchy.Build(doc), parentID, name) {
		return unchanged(text), nil
	}

	id := slnfile.NewGUID()
	b := newBuffer(text)
	insertEntity(b, projectDecl(slnfile.KindFolder.TypeID(), name, name, id), "EndProject")
	if parentID != "" {
		nestRow(b, id, parentID)
	}
	return Result{Text: b.String(), Changed: true, ID: id}, nil
}

// RemoveFolder deletes a folder and everything nested below it, along with
// every nesting row and configuration row that names a removed entity.
func (ed Editor) RemoveFolder(text, id string) (Result, error) {
	doc, err := ed.parse(text)
	if err != nil {
		return Result{}, err
	}
	folder := doc.EntityByID(id)
	if folder == nil || !folder.IsFolder() {
		return unchanged(text), nil
	}

	removed := []string{folder.ID}
	for _, e := range hierarchy.Build(doc).Descendants(folder.ID) {
		removed = append(removed, e.ID)
	}
	return ed.removeEntities(text, removed), nil
}

// RemoveProject deletes a project block and its nesting and configuration rows.
func (ed Editor) RemoveProject(text, id string) (Result, error) {
	doc, err := ed.parse(text)
	if err != nil {
		return Result{}, err
	}
	project := doc.EntityByID(id)
	if project == nil || project.IsFolder() {
		return unchanged(text), nil
	}
	return ed.removeEntities(text, []string{project.ID}), nil
}

func (ed Editor) removeEntities(text string, ids []string) Result {
	b := newBuffer(text)
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[slnfile.NormalizeGUID(id)] = true
		// Duplicate declarations of one id are all removed.
		for b.removeBlock(id) {
		}
	}
	stripNesting(b, set)
	stripConfigurations(b, set)
	return Result{Text: b.String(), Changed: true, ID: ids[0], Removed: ids}
}

// RenameFolder changes a folder's name. Only the declaring line changes.
func (ed Editor) RenameFolder(text, id, newName string) (Result, error) {
	doc, err := ed.parse(text)
	if err != nil {
		return Result{}, err
	}
	folder := doc.EntityByID(id)
	if folder == nil || !folder.IsFolder() || !validName(newName) || folder.Name == newName {
		return unchanged(text), nil
	}
	if !strings.EqualFold(folder.Name, newName) &&
		siblingFolderNamed(hierarchy.Build(doc), doc.ParentOf(folder.ID), newName) {
		return unchanged(text), nil
	}

	b := newBuffer(text)
	for i := range b.rows {
		raw := b.rows[i].text
		body := strings.TrimLeft(raw, " \t")
		indent := raw[:len(raw)-len(body)]
		m := projectLine.FindStringSubmatchIndex(body)
		if m == nil {
			continue
		}
		typeID, name, location, rowID := body[m[2]:m[3]], body[m[4]:m[5]], body[m[6]:m[7]], body[m[8]:m[9]]
		if !slnfile.SameGUID(typeID, slnfile.KindFolder.TypeID()) || name != folder.Name || !slnfile.SameGUID(rowID, folder.ID) {
			continue
		}
		var sb strings.Builder
		sb.WriteString(indent)
		sb.WriteString(body[:m[4]])
		sb.WriteString(newName)
		sb.WriteString(body[m[5]:m[6]])
		if location == folder.Name {
			sb.WriteString(newName)
		} else {
			sb.WriteString(location)
		}
		sb.WriteString(body[m[7]:])
		b.rows[i].text = sb.String()
		return Result{Text: b.String(), Changed: true, ID: folder.ID}, nil
	}
	return unchanged(text), nil
}

// ErrInvalidItem is returned for item paths the SolutionItems syntax cannot
// hold.
var ErrInvalidItem = errors.New("slnedit: item path cannot contain '='")

// AddItem groups a file under a folder. The SolutionItems section is created
// when the folder has none.
func (ed Editor) AddItem(text, folderID, file string) (Result, error) {
	doc, err := ed.parse(text)
	if err != nil {
		return Result{}, err
	}
	folder := doc.EntityByID(folderID)
	if folder == nil || !folder.IsFolder() || strings.TrimSpace(file) == "" {
		return unchanged(text), nil
	}
	rel := ed.relative(file)
	if strings.Contains(rel, "=") {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidItem, rel)
	}
	for _, item := range folder.Items() {
		if ed.relative(item) == rel {
			return unchanged(text), nil
		}
	}

	b := newBuffer(text)
	start := b.projectRow(folder.ID)
	itemRow := "\t\t" + rel + " = " + rel
	if sec, ok := b.itemsSection(start); ok {
		b.insert(sec.close, itemRow)
	} else {
		end, terminated := b.blockEnd(start)
		at := end
		if !terminated {
			at = end + 1
		}
		b.insert(at, "\tProjectSection("+slnfile.SolutionItemsSection+") = preProject", itemRow, "\tEndProjectSection")
	}
	return Result{Text: b.String(), Changed: true, ID: folder.ID}, nil
}

// RemoveItem drops a file from a folder. Removing the last item removes the
// SolutionItems section as well.
func (ed Editor) RemoveItem(text, folderID, file string) (Result, error) {
	doc, err := ed.parse(text)
	if err != nil {
		return Result{}, err
	}
	folder := doc.EntityByID(folderID)
	if folder == nil || !folder.IsFolder() {
		return unchanged(text), nil
	}
	rel := ed.relative(file)

	b := newBuffer(text)
	sec, ok := b.itemsSection(b.projectRow(folder.ID))
	if !ok {
		return unchanged(text), nil
	}
	removed := 0
	for r := sec.close - 1; r > sec.open; r-- {
		key, _, ok := splitItem(b.trimmed(r))
		if ok && ed.relative(key) == rel {
			b.remove(r, r)
			removed++
		}
	}
	if removed == 0 {
		return unchanged(text), nil
	}
	if sec.close-removed == sec.open+1 {
		if sec.terminated {
			b.remove(sec.open, sec.open+1)
		} else {
			b.remove(sec.open, sec.open)
		}
	}
	return Result{Text: b.String(), Changed: true, ID: folder.ID}, nil
}

// AddProject declares a project file under parentID, or at the root. The
// project gets a configuration row for every solution configuration.
// KindGeneric picks the kind from the file extension; an empty name is taken
// from the file name.
func (ed Editor) AddProject(text string, kind slnfile.Kind, name, file, parentID string) (Result, error) {
	doc, err := ed.parse(text)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(file) == "" || kind == slnfile.KindFolder {
		return unchanged(text), nil
	}
	if name == "" {
		base := path.Base(ed.relative(file))
		name = strings.TrimSuffix(base, path.Ext(base))
	}
	if !validName(name) {
		return unchanged(text), nil
	}
	rel := ed.relative(file)
	for _, p := range doc.Projects() {
		if ed.relative(slnfile.RelativePath(ed.BasePath, p.Location)) == rel {
			return unchanged(text), nil
		}
	}
	if parentID != "" {
		parent := doc.EntityByID(parentID)
		if parent == nil || !parent.IsFolder() {
			return unchanged(text), nil
		}
		parentID = parent.ID
	}
	if kind == slnfile.KindGeneric {
		kind = slnfile.KindForExtension(rel)
	}
	typeID := kind.TypeID()

	id := slnfile.NewGUID()
	b := newBuffer(text)
	insertEntity(b, projectDecl(typeID, name, rel, id), "EndProject")
	if configs := doc.GlobalSection("SolutionConfigurationPlatforms"); configs != nil && len(configs.Items) > 0 {
		_, end := b.ensureGlobalSection(slnfile.ProjectConfigurationSection)
		var rows []string
		for _, cfg := range configs.Items {
			rows = append(rows,
				"\t\t"+id+"."+cfg.Key+".ActiveCfg = "+cfg.Value,
				"\t\t"+id+"."+cfg.Key+".Build.0 = "+cfg.Value,
			)
		}
		b.insert(end, rows...)
	}
	if parentID != "" {
		nestRow(b, id, parentID)
	}
	return Result{Text: b.String(), Changed: true, ID: id}, nil
}

// MoveEntity re-parents an entity under the folder parentID, or to the root
// when parentID is empty. Moves that would nest a folder inside itself are
// refused.
func (ed Editor) MoveEntity(text, id, parentID string) (Result, error) {
	doc, err := ed.parse(text)
	if err != nil {
		return Result{}, err
	}
	entity := doc.EntityByID(id)
	if entity == nil {
		return unchanged(text), nil
	}
	forest := hierarchy.Build(doc)
	if parentID != "" {
		parent := doc.EntityByID(parentID)
		if parent == nil || !parent.IsFolder() || slnfile.SameGUID(parent.ID, entity.ID) {
			return unchanged(text), nil
		}
		for _, d := range forest.Descendants(entity.ID) {
			if slnfile.SameGUID(d.ID, parent.ID) {
				return unchanged(text), nil
			}
		}
		parentID = parent.ID
	}
	if slnfile.NormalizeGUID(forest.Parent(entity.ID)) == slnfile.NormalizeGUID(parentID) {
		return unchanged(text), nil
	}

	b := newBuffer(text)
	key := slnfile.NormalizeGUID(entity.ID)
	b.stripGlobalRows(slnfile.NestedProjectsSection, func(child, _ string) bool {
		return slnfile.NormalizeGUID(child) == key
	})
	if parentID != "" {
		nestRow(b, entity.ID, parentID)
	}
	return Result{Text: b.String(), Changed: true, ID: entity.ID}, nil
}

// GlobalValue reads key from the first global section called section.
func (ed Editor) GlobalValue(text, section, key string) (string, bool, error) {
	doc, err := ed.parse(text)
	if err != nil {
		return "", false, err
	}
	value, ok := doc.GlobalSection(section).Value(key)
	return value, ok, nil
}

// SetGlobalValue writes key = value into a global section, replacing the
// last existing row for key. The section and Global block are created when
// missing.
func (ed Editor) SetGlobalValue(text, section, key, value string) (Result, error) {
	doc, err := ed.parse(text)
	if err != nil {
		return Result{}, err
	}
	if current, ok := doc.GlobalSection(section).Value(key); ok && current == value {
		return unchanged(text), nil
	}

	b := newBuffer(text)
	start, end := b.ensureGlobalSection(section)
	for r := end - 1; r > start; r-- {
		k, _, ok := splitItem(b.trimmed(r))
		if ok && k == key {
			raw := b.rows[r].text
			indent := raw[:len(raw)-len(strings.TrimLeft(raw, " \t"))]
			b.rows[r].text = indent + key + " = " + value
			return Result{Text: b.String(), Changed: true}, nil
		}
	}
	b.insert(end, "\t\t"+key+" = "+value)
	return Result{Text: b.String(), Changed: true}, nil
}
