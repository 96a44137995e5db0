package editor

import (
	"mapping-editor/internal/dom"
	"mapping-editor/internal/mapping"
)

// FieldView is a detached snapshot of one field.
type FieldView struct {
	Key         string            `json:"key"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Values      map[string]string `json:"values"`
	Baseline    map[string]string `json:"baseline"`
	Filename    string            `json:"filename,omitempty"`
	Blocked     bool              `json:"blocked"`
	Modify      bool              `json:"modify"`
	Visible     bool              `json:"visible"`
	Flash       bool              `json:"flash"`
}

// PageView is the rendered projection of an editor.
type PageView struct {
	ID          string `json:"id"`
	MappingName string `json:"mapping_name"`
	RowsHTML    string `json:"rows_html"`
	DetailsHTML string `json:"details_html"`
	Editing     string `json:"editing,omitempty"`
	Visible     string `json:"visible,omitempty"`
}

func viewOf(f *mapping.Field) FieldView {
	v := FieldView{
		Key:         f.Key,
		Category:    string(f.Category),
		Description: f.Description(),
		Values:      make(map[string]string, len(f.Inputs)),
		Baseline:    make(map[string]string, len(f.Inputs)),
		Blocked:     dom.HasClass(f.Detail, mapping.ClassBlocked),
		Modify:      dom.HasClass(f.Detail, mapping.ClassModify),
		Visible:     dom.HasClass(f.Detail, mapping.ClassVisible),
	}
	for _, in := range f.Inputs {
		if _, seen := v.Values[in.Field]; seen {
			continue
		}
		v.Values[in.Field] = in.Value()
		v.Baseline[in.Field] = in.Baseline
	}
	if sel := f.FilenameSelect(); sel != nil {
		v.Filename = dom.Value(sel)
		v.Flash = dom.HasClass(sel, mapping.ClassFlash)
	}
	return v
}
