package mapping

// exporter serializes one field of a given category.
type exporter func(f *Field) map[string]any

var exporters = map[Category]exporter{
	CategorySource:       exportSource,
	CategoryRemplacement: exportRemplacement,
	CategoryPhonetic:     exportPhonetic,
	CategoryFixedValue:   exportFixedValue,
}

// ExportField serializes a single field. Fields of unknown category are not
// exportable.
func ExportField(f *Field) (map[string]any, bool) {
	fn, ok := exporters[f.Category]
	if !ok {
		return nil, false
	}
	return fn(f), true
}

// ExportAll serializes every field keyed by its key. Unknown categories are
// skipped silently.
func (r *Registry) ExportAll() map[string]map[string]any {
	out := make(map[string]map[string]any, len(r.order))
	for _, f := range r.Fields() {
		if attrs, ok := ExportField(f); ok {
			out[f.Key] = attrs
		}
	}
	return out
}

func valueOrNil(f *Field, name string) any {
	if v, ok := f.Value(name); ok {
		return v
	}
	return nil
}

func originalOrNil(f *Field) any {
	if v := f.OriginalColumn(); v != "" {
		return v
	}
	return nil
}

func exportSource(f *Field) map[string]any {
	return map[string]any{
		"category":     string(f.Category),
		"source_field": originalOrNil(f),
		"name":         valueOrNil(f, "name"),
		"type":         valueOrNil(f, "type"),
		"mapped":       valueOrNil(f, "mapped"),
		"analyzer":     valueOrNil(f, "analyzer"),
		"description":  f.Description(),
	}
}

func exportRemplacement(f *Field) map[string]any {
	return map[string]any{
		"category":         string(f.Category),
		"type_completion":  valueOrNil(f, "type"),
		"original_field":   originalOrNil(f),
		"name":             valueOrNil(f, "name"),
		"keep_original":    valueOrNil(f, "keep_original"),
		"filename":         valueOrNil(f, "filename"),
		"use_first_column": valueOrNil(f, "use_first_column"),
		"description":      f.Description(),
	}
}

func exportPhonetic(f *Field) map[string]any {
	return map[string]any{
		"category":        string(f.Category),
		"original_field":  originalOrNil(f),
		"type_completion": "phonetic",
		"name":            valueOrNil(f, "name"),
		"filename":        valueOrNil(f, "filename"),
		"phonetic":        f.Phonetic(),
		"description":     f.Description(),
	}
}

func exportFixedValue(f *Field) map[string]any {
	return map[string]any{
		"category":    string(f.Category),
		"name":        valueOrNil(f, "name"),
		"value":       valueOrNil(f, "value"),
		"description": f.Description(),
	}
}
