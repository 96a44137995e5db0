// Package dom holds the small set of node helpers the editor needs to work on
// server-rendered HTML fragments: parsing, rendering, attribute and class
// markers, deep cloning and form-control values.
package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses an HTML snippet in a <body> context and returns its
// top-level element nodes. Text and comment nodes at the top level are dropped.
func ParseFragment(src string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	elems := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			elems = append(elems, n)
		}
	}
	return elems, nil
}

// FirstElement parses src and returns its first top-level element.
func FirstElement(src string) (*html.Node, error) {
	elems, err := ParseFragment(src)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("parse fragment: no element found")
	}
	return elems[0], nil
}

// Render serializes the given nodes one after another.
func Render(nodes ...*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render: %w", err)
		}
	}
	return buf.String(), nil
}

// Attr returns the value of key on n, or "" when absent.
func Attr(n *html.Node, key string) string {
	v, _ := LookupAttr(n, key)
	return v
}

// LookupAttr returns the value of key on n and whether it is present.
func LookupAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets key to val on n, adding the attribute if needed.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes key from n.
func RemoveAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	return strings.Fields(Attr(n, "class"))
}

func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	SetAttr(n, "class", strings.TrimSpace(Attr(n, "class")+" "+class))
}

func RemoveClass(n *html.Node, class string) {
	if !HasClass(n, class) {
		return
	}
	var kept []string
	for _, c := range Classes(n) {
		if c != class {
			kept = append(kept, c)
		}
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// SetClass adds or removes class depending on on.
func SetClass(n *html.Node, class string, on bool) {
	if on {
		AddClass(n, class)
	} else {
		RemoveClass(n, class)
	}
}

// Predicate selects nodes during a search.
type Predicate func(*html.Node) bool

// Element matches element nodes, optionally restricted to the given tags.
func Element(tags ...string) Predicate {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		if len(tags) == 0 {
			return true
		}
		for _, t := range tags {
			if n.Data == t {
				return true
			}
		}
		return false
	}
}

// WithAttr matches element nodes whose key attribute equals val.
func WithAttr(key, val string) Predicate {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		v, ok := LookupAttr(n, key)
		return ok && v == val
	}
}

// WithClass matches element nodes carrying class.
func WithClass(class string) Predicate {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && HasClass(n, class)
	}
}

// And combines predicates.
func And(preds ...Predicate) Predicate {
	return func(n *html.Node) bool {
		for _, p := range preds {
			if !p(n) {
				return false
			}
		}
		return true
	}
}

// FindAll returns every descendant of root (root excluded) matching pred, in
// document order.
func FindAll(root *html.Node, pred Predicate) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if pred(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// Find returns the first descendant of root matching pred, or nil.
func Find(root *html.Node, pred Predicate) *html.Node {
	if root == nil {
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if pred(c) {
			return c
		}
		if found := Find(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// Closest returns the nearest ancestor of n (n excluded) matching pred.
func Closest(n *html.Node, pred Predicate) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if pred(p) {
			return p
		}
	}
	return nil
}

// Contains reports whether n is ancestor or n itself.
func Contains(ancestor, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// Text returns the concatenated, trimmed text content of n.
func Text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return strings.TrimSpace(sb.String())
}

// SetText replaces all children of n with a single text node.
func SetText(n *html.Node, s string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// Clone returns a detached deep copy of n.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// CloneAfter deep-copies n and inserts the copy as n's next sibling when n is
// attached to a parent.
func CloneAfter(n *html.Node) *html.Node {
	c := Clone(n)
	if n.Parent != nil {
		n.Parent.InsertBefore(c, n.NextSibling)
	}
	return c
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
