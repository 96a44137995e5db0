package editor

import (
	"fmt"
	"strings"

	"mapping-editor/internal/mapping"
)

const (
	// NoSource is the source column offered for fields that read no column.
	NoSource = "No Source"
	// PlaceholderName names a field added without a source column.
	PlaceholderName = "To be defined"
)

// AddRequest describes a field to create.
type AddRequest struct {
	Category       string `json:"category"`
	SourceField    string `json:"source_field"`
	Name           string `json:"name,omitempty"`
	TypeCompletion string `json:"type_completion,omitempty"`
	Value          string `json:"value,omitempty"`
}

type payloadBuilder func(req AddRequest) map[string]any

var payloadBuilders = map[mapping.Category]payloadBuilder{
	mapping.CategorySource: func(req AddRequest) map[string]any {
		return map[string]any{
			"mapped":   true,
			"type":     "text",
			"analyzer": "standard",
		}
	},
	mapping.CategoryRemplacement: func(req AddRequest) map[string]any {
		tc := req.TypeCompletion
		if tc == "" {
			tc = "remplacement"
		}
		return map[string]any{
			"type_completion":  tc,
			"original_field":   req.SourceField,
			"column_names":     []string{req.SourceField, req.SourceField + "_new"},
			"keep_original":    true,
			"use_first_column": false,
		}
	},
	mapping.CategoryPhonetic: func(req AddRequest) map[string]any {
		phonetic := make(map[string]bool, len(mapping.PhoneticToggles))
		for _, t := range mapping.PhoneticToggles {
			phonetic[t] = false
		}
		return map[string]any{
			"type_completion": "phonetic",
			"original_field":  req.SourceField,
			"column_names":    []string{req.SourceField},
			"phonetic":        phonetic,
		}
	},
	mapping.CategoryFixedValue: func(req AddRequest) map[string]any {
		return map[string]any{"value": req.Value}
	},
}

// buildPayload returns the creation payload for req and whether it is a
// sentinel "No Source" field. The caller holds e.mu.
func (e *Editor) buildPayload(req AddRequest) (map[string]any, bool, error) {
	noSource := req.SourceField == NoSource
	if noSource {
		req.Category = string(mapping.CategoryFixedValue)
	}
	category := mapping.Category(req.Category)
	build, ok := payloadBuilders[category]
	if !ok {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownCategory, req.Category)
	}

	name := strings.TrimSpace(req.Name)
	switch {
	case noSource && name == "":
		name = PlaceholderName
		if _, taken := e.registry.Lookup(name); taken {
			name = e.registry.UniqueName(name)
		}
	case name == "":
		name = req.SourceField + "_" + req.Category
	}
	if _, taken := e.registry.Lookup(name); taken {
		return nil, false, fmt.Errorf("%w: %q", mapping.ErrFieldExists, name)
	}

	payload := build(req)
	payload["name"] = name
	payload["category"] = req.Category
	if !noSource && category != mapping.CategoryFixedValue {
		payload["source_field"] = req.SourceField
	}
	return payload, noSource, nil
}
