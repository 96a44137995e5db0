package mapping

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"mapping-editor/internal/dom"
)

// Registry is the ordered set of mapping fields of one editor. It owns the two
// containers the fragments live in, so rendering them is a pure projection of
// registry state. A Registry is not safe for concurrent use; the editor
// serializes access.
type Registry struct {
	order   []string
	fields  map[string]*Field
	rows    *html.Node
	details *html.Node
	lock    Lock
}

func NewRegistry() *Registry {
	return &Registry{
		fields:  make(map[string]*Field),
		rows:    newContainer("container wrapper-fields"),
		details: newContainer("mapping-preview-hidden-container-modif"),
	}
}

func newContainer(class string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
}

// Load fills an empty registry from rendered containers. Top-level elements
// carrying a key are paired by key; an unpaired or repeated key rejects the
// whole load.
func (r *Registry) Load(rowsHTML, detailsHTML string) error {
	if len(r.order) > 0 {
		return fmt.Errorf("load: registry is not empty")
	}
	rows, err := keyedElements(rowsHTML)
	if err != nil {
		return fmt.Errorf("load rows: %w", err)
	}
	details, err := keyedElements(detailsHTML)
	if err != nil {
		return fmt.Errorf("load details: %w", err)
	}
	if len(rows) != len(details) {
		return fmt.Errorf("load: %w: %d rows, %d details", ErrUnpaired, len(rows), len(details))
	}

	byKey := make(map[string]*html.Node, len(details))
	for _, d := range details {
		key := dom.Attr(d, attrKey)
		if _, dup := byKey[key]; dup {
			return fmt.Errorf("load: %w: %q", ErrFieldExists, key)
		}
		byKey[key] = d
	}

	fields := make([]*Field, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		key := dom.Attr(row, attrKey)
		if seen[key] {
			return fmt.Errorf("load: %w: %q", ErrFieldExists, key)
		}
		seen[key] = true
		f, err := NewField(row, byKey[key])
		if err != nil {
			return fmt.Errorf("load %q: %w", key, err)
		}
		fields = append(fields, f)
	}
	for _, f := range fields {
		r.attach(f)
	}
	r.project()
	return nil
}

func keyedElements(src string) ([]*html.Node, error) {
	if src == "" {
		return nil, nil
	}
	nodes, err := dom.ParseFragment(src)
	if err != nil {
		return nil, err
	}
	var out []*html.Node
	for _, n := range nodes {
		if dom.Attr(n, attrKey) != "" {
			out = append(out, n)
		}
	}
	return out, nil
}

// Keys returns the field keys in document order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Lookup returns the field registered under key.
func (r *Registry) Lookup(key string) (*Field, bool) {
	f, ok := r.fields[key]
	return f, ok
}

// Fields returns the fields in document order.
func (r *Registry) Fields() []*Field {
	out := make([]*Field, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.fields[k])
	}
	return out
}

func (r *Registry) Len() int { return len(r.order) }

// Append adds a freshly parsed field at the end of both containers.
func (r *Registry) Append(f *Field) error {
	if f == nil || f.Summary == nil || f.Detail == nil {
		return ErrUnpaired
	}
	if _, exists := r.fields[f.Key]; exists {
		return fmt.Errorf("%w: %q", ErrFieldExists, f.Key)
	}
	r.attach(f)
	r.project()
	return nil
}

func (r *Registry) attach(f *Field) {
	dom.Detach(f.Summary)
	dom.Detach(f.Detail)
	r.rows.AppendChild(f.Summary)
	r.details.AppendChild(f.Detail)
	r.order = append(r.order, f.Key)
	r.fields[f.Key] = f
}

// Duplicate clones the field under a fresh unique key, right after the
// original in document order.
func (r *Registry) Duplicate(key string) (*Field, error) {
	src, ok := r.fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, key)
	}
	newKey := r.UniqueName(key)
	clone, err := src.cloneAfter(newKey)
	if err != nil {
		return nil, fmt.Errorf("duplicate %q: %w", key, err)
	}

	idx := r.index(key)
	r.order = append(r.order, "")
	copy(r.order[idx+2:], r.order[idx+1:])
	r.order[idx+1] = newKey
	r.fields[newKey] = clone
	r.project()
	return clone, nil
}

// Remove drops both fragments of key. It reports whether the field existed.
// Removing the field under edit releases the lock.
func (r *Registry) Remove(key string) (*Field, bool) {
	f, ok := r.fields[key]
	if !ok {
		return nil, false
	}
	dom.Detach(f.Summary)
	dom.Detach(f.Detail)
	delete(r.fields, key)
	if idx := r.index(key); idx >= 0 {
		r.order = append(r.order[:idx], r.order[idx+1:]...)
	}
	if editing, ok := r.lock.Editing(); ok && editing == key {
		r.lock = Lock{}
	}
	r.project()
	return f, true
}

// UniqueName returns base_copy, base_copy2, base_copy3... whichever is free first.
func (r *Registry) UniqueName(base string) string {
	name := base + "_copy"
	for i := 2; r.exists(name); i++ {
		name = base + "_copy" + strconv.Itoa(i)
	}
	return name
}

func (r *Registry) exists(key string) bool {
	_, ok := r.fields[key]
	return ok
}

func (r *Registry) index(key string) int {
	for i, k := range r.order {
		if k == key {
			return i
		}
	}
	return -1
}

// Render returns the HTML of the rows container and the details container.
func (r *Registry) Render() (rows string, details string, err error) {
	rows, err = dom.Render(r.rows)
	if err != nil {
		return "", "", err
	}
	details, err = dom.Render(r.details)
	if err != nil {
		return "", "", err
	}
	return rows, details, nil
}
