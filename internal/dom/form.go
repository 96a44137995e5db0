package dom

import (
	"golang.org/x/net/html"
)

// IsCheckbox reports whether n is an <input type="checkbox">.
func IsCheckbox(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == "input" && Attr(n, "type") == "checkbox"
}

// Value returns the current value of a form control. Checkboxes yield
// "true"/"false", selects yield the selected option (or the first one).
func Value(n *html.Node) string {
	if n == nil {
		return ""
	}
	switch n.Data {
	case "select":
		opts := FindAll(n, Element("option"))
		for _, o := range opts {
			if _, ok := LookupAttr(o, "selected"); ok {
				return optionValue(o)
			}
		}
		if len(opts) > 0 {
			return optionValue(opts[0])
		}
		return ""
	case "textarea":
		return Text(n)
	case "input":
		if IsCheckbox(n) {
			if _, ok := LookupAttr(n, "checked"); ok {
				return "true"
			}
			return "false"
		}
	}
	return Attr(n, "value")
}

// SetValue writes v into a form control. Selects only accept values matching
// an existing option; it reports whether the value was applied.
func SetValue(n *html.Node, v string) bool {
	if n == nil {
		return false
	}
	switch n.Data {
	case "select":
		return selectOption(n, v)
	case "textarea":
		SetText(n, v)
		return true
	case "input":
		if IsCheckbox(n) {
			if v == "true" || v == "on" || v == "checked" {
				SetAttr(n, "checked", "")
			} else {
				RemoveAttr(n, "checked")
			}
			return true
		}
	}
	SetAttr(n, "value", v)
	return true
}

// Options lists the option values of a select, in order.
func Options(sel *html.Node) []string {
	opts := FindAll(sel, Element("option"))
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, optionValue(o))
	}
	return out
}

// SelectOrCreateOption appends an option for v when missing, then selects it.
func SelectOrCreateOption(sel *html.Node, v string) {
	for _, existing := range Options(sel) {
		if existing == v {
			selectOption(sel, v)
			return
		}
	}
	opt := &html.Node{Type: html.ElementNode, Data: "option", Attr: []html.Attribute{{Key: "value", Val: v}}}
	opt.AppendChild(&html.Node{Type: html.TextNode, Data: v})
	sel.AppendChild(opt)
	selectOption(sel, v)
}

func selectOption(sel *html.Node, v string) bool {
	opts := FindAll(sel, Element("option"))
	var match *html.Node
	for _, o := range opts {
		if optionValue(o) == v {
			match = o
			break
		}
	}
	if match == nil {
		return false
	}
	for _, o := range opts {
		RemoveAttr(o, "selected")
	}
	SetAttr(match, "selected", "")
	return true
}

func optionValue(o *html.Node) string {
	if v, ok := LookupAttr(o, "value"); ok {
		return v
	}
	return Text(o)
}
