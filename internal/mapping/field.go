package mapping

import (
	"fmt"

	"golang.org/x/net/html"

	"mapping-editor/internal/dom"
)

// Category determines the attribute shape of a field and whether it can
// produce a derived completion file.
type Category string

const (
	CategorySource       Category = "source"
	CategoryRemplacement Category = "remplacement"
	CategoryPhonetic     Category = "phonetic"
	CategoryFixedValue   Category = "fixed_value"
)

// Categories lists the known categories in menu order.
var Categories = []Category{CategorySource, CategoryRemplacement, CategoryPhonetic, CategoryFixedValue}

// PhoneticToggles are the switch names of a phonetic field.
var PhoneticToggles = []string{"soundex", "metaphone", "metaphone3"}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Generatable reports whether fields of this category produce a completion file.
func (c Category) Generatable() bool {
	return c == CategoryRemplacement || c == CategoryPhonetic
}

// Marker classes projected onto the fragments.
const (
	ClassBlocked  = "blocked"
	ClassModify   = "modify"
	ClassVisible  = "visible"
	ClassFlash    = "select-flash"
	ClassDisabled = "disabled"
)

const (
	attrKey      = "data-source"
	attrCategory = "data-category"
	attrField    = "data-field"
	attrBaseline = "data-original-value"
)

// Input is one editable control of a field together with the value it had
// when the field was rendered. Detail panel controls come first, then the
// quick-edit controls of the summary row.
type Input struct {
	Field    string
	Node     *html.Node
	Baseline string
	// Unlocked inputs can be edited without entering modify mode.
	Unlocked bool
}

func (in *Input) Value() string { return dom.Value(in.Node) }

func (in *Input) Set(v string) bool { return dom.SetValue(in.Node, v) }

// Restore puts the baseline value back.
func (in *Input) Restore() { dom.SetValue(in.Node, in.Baseline) }

// Field pairs the summary row and the detail panel of one mapping field.
type Field struct {
	Key      string
	Category Category
	Summary  *html.Node
	Detail   *html.Node
	Inputs   []*Input
}

// NewField builds a field from its two fragments. Both must carry the same
// non-empty key.
func NewField(summary, detail *html.Node) (*Field, error) {
	if summary == nil || detail == nil {
		return nil, ErrUnpaired
	}
	key := dom.Attr(detail, attrKey)
	if key == "" {
		return nil, fmt.Errorf("detail panel has no %s attribute", attrKey)
	}
	if rowKey := dom.Attr(summary, attrKey); rowKey != key {
		return nil, fmt.Errorf("%w: row %q, detail %q", ErrUnpaired, rowKey, key)
	}
	f := &Field{
		Key:      key,
		Category: Category(dom.Attr(detail, attrCategory)),
		Summary:  summary,
		Detail:   detail,
	}
	f.Inputs = collectInputs(detail, false)
	f.Inputs = append(f.Inputs, collectInputs(summary, true)...)
	return f, nil
}

// collectInputs binds every control under root to the data-field of its own
// element or nearest enclosing cell. Summary row controls are quick edits and
// start unlocked.
func collectInputs(root *html.Node, unlocked bool) []*Input {
	var inputs []*Input
	for _, n := range dom.FindAll(root, dom.Element("input", "select", "textarea")) {
		name := dom.Attr(n, attrField)
		if name == "" {
			if cell := dom.Closest(n, func(p *html.Node) bool { return dom.Attr(p, attrField) != "" }); cell != nil && dom.Contains(root, cell) {
				name = dom.Attr(cell, attrField)
			}
		}
		if name == "" {
			continue
		}
		baseline, ok := dom.LookupAttr(n, attrBaseline)
		if !ok {
			baseline = dom.Value(n)
		}
		inputs = append(inputs, &Input{Field: name, Node: n, Baseline: baseline, Unlocked: unlocked})
	}
	return inputs
}

// Input returns the first control bound to the named attribute, or nil.
func (f *Field) Input(name string) *Input {
	for _, in := range f.Inputs {
		if in.Field == name {
			return in
		}
	}
	return nil
}

// Value returns the current value of the named control and whether it exists.
func (f *Field) Value(name string) (string, bool) {
	in := f.Input(name)
	if in == nil {
		return "", false
	}
	return in.Value(), true
}

// Revert restores every control to its baseline snapshot.
func (f *Field) Revert() {
	for _, in := range f.Inputs {
		in.Restore()
	}
}

// OriginalColumn returns the source column a derived field is computed from.
func (f *Field) OriginalColumn() string {
	cell := dom.Find(f.Detail, dom.WithAttr(attrField, "original_field"))
	if cell == nil {
		return ""
	}
	if v, ok := dom.LookupAttr(cell, attrBaseline); ok && v != "" {
		return v
	}
	return dom.Text(cell)
}

// FilenameSelect returns the completion filename selector, or nil.
func (f *Field) FilenameSelect() *html.Node {
	cell := dom.Find(f.Detail, dom.WithAttr(attrField, "filename"))
	if cell == nil {
		return nil
	}
	if dom.Element("select")(cell) {
		return cell
	}
	return dom.Find(cell, dom.Element("select"))
}

// Description is the free text carried by the summary row.
func (f *Field) Description() string {
	if v, ok := f.Value("description"); ok {
		return v
	}
	cell := dom.Find(f.Summary, dom.WithAttr(attrField, "description"))
	if cell == nil {
		return ""
	}
	if in := dom.Find(cell, dom.Element("input", "textarea")); in != nil {
		return dom.Value(in)
	}
	return dom.Text(cell)
}

// Phonetic returns the state of the three phonetic switches.
func (f *Field) Phonetic() map[string]bool {
	out := make(map[string]bool, len(PhoneticToggles))
	for _, t := range PhoneticToggles {
		v, _ := f.Value(t)
		out[t] = v == "true"
	}
	return out
}

// Unlock marks the value cells of the field as editable outside modify mode.
func (f *Field) Unlock(cell string) {
	for _, n := range dom.FindAll(f.Summary, dom.WithClass(ClassDisabled)) {
		if dom.HasClass(n, "fixed-value") || dom.Attr(n, attrField) == cell {
			dom.RemoveClass(n, ClassDisabled)
		}
	}
	for _, n := range dom.FindAll(f.Detail, dom.WithClass(ClassDisabled)) {
		if dom.HasClass(n, "fixed-value") || dom.Attr(n, attrField) == cell {
			dom.RemoveClass(n, ClassDisabled)
		}
	}
	for _, in := range f.Inputs {
		if in.Field == cell {
			in.Unlocked = true
		}
	}
}

// cloneAfter copies both fragments next to the originals and renames the
// copy to key.
func (f *Field) cloneAfter(key string) (*Field, error) {
	summary := dom.CloneAfter(f.Summary)
	detail := dom.CloneAfter(f.Detail)
	for _, marker := range []string{ClassModify, ClassVisible, ClassFlash} {
		dom.RemoveClass(detail, marker)
		for _, n := range dom.FindAll(detail, dom.WithClass(marker)) {
			dom.RemoveClass(n, marker)
		}
	}
	dom.RemoveAttr(detail, "style")
	dom.SetAttr(summary, attrKey, key)
	dom.SetAttr(detail, attrKey, key)
	for _, n := range dom.FindAll(summary, dom.WithAttr(attrKey, f.Key)) {
		dom.SetAttr(n, attrKey, key)
	}
	for _, n := range dom.FindAll(summary, dom.And(dom.Element("div"), dom.WithAttr(attrField, "name"))) {
		dom.SetText(n, key)
	}

	clone, err := NewField(summary, detail)
	if err != nil {
		dom.Detach(summary)
		dom.Detach(detail)
		return nil, err
	}
	if len(clone.Inputs) == len(f.Inputs) {
		for i, in := range f.Inputs {
			clone.Inputs[i].Unlocked = in.Unlocked
		}
	}
	if name := clone.Input("name"); name != nil {
		name.Set(key)
		name.Baseline = key
		dom.SetAttr(name.Node, attrBaseline, key)
	}
	return clone, nil
}
