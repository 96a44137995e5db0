package editor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mapping-editor/internal/collab"
	"mapping-editor/internal/dom"
	"mapping-editor/internal/journal"
	"mapping-editor/internal/mapping"
)

// GenerateOutcome reports the generated filename and whether it was applied
// to the field. A response that arrives after the field was deleted or after
// a newer request was issued is not applied.
type GenerateOutcome struct {
	Filename string `json:"filename"`
	Applied  bool   `json:"applied"`
}

// Generate asks the generation service for the completion file of key and
// selects it in the field's filename selector.
func (e *Editor) Generate(ctx context.Context, key string) (GenerateOutcome, error) {
	e.mu.Lock()
	category, req, token, err := e.prepareGenerate(key)
	e.mu.Unlock()
	if err != nil {
		return GenerateOutcome{}, err
	}

	filename, err := e.collab.Generate(ctx, category, req)

	e.mu.Lock()
	defer e.mu.Unlock()
	current := e.tokens[key] == token
	if current {
		delete(e.tokens, key)
	}
	if err != nil {
		e.recordLocked("generate", key, journal.StatusError, map[string]any{"error": err.Error()})
		return GenerateOutcome{}, err
	}

	out := GenerateOutcome{Filename: filename}
	f, ok := e.registry.Lookup(key)
	if !ok || !current {
		e.log.Debug("dropping stale generation response", zap.String("field", key), zap.String("filename", filename))
		e.recordLocked("generate", key, journal.StatusStale, map[string]any{"filename": filename})
		return out, nil
	}
	sel := f.FilenameSelect()
	if sel == nil {
		return out, nil
	}
	dom.SelectOrCreateOption(sel, filename)
	dom.AddClass(sel, mapping.ClassFlash)
	out.Applied = true
	e.recordLocked("generate", key, journal.StatusOK, map[string]any{"filename": filename})
	return out, nil
}

// prepareGenerate validates key, clears the previous flash cue and issues a
// fresh request token. The caller holds e.mu.
func (e *Editor) prepareGenerate(key string) (string, collab.GenerateRequest, string, error) {
	var req collab.GenerateRequest
	if e.closed {
		return "", req, "", ErrClosed
	}
	f, ok := e.registry.Lookup(key)
	if !ok {
		return "", req, "", fmt.Errorf("%w: %q", mapping.ErrFieldNotFound, key)
	}
	if !f.Category.Generatable() {
		return "", req, "", fmt.Errorf("%w: %q is %s", ErrNotGeneratable, key, f.Category)
	}
	sel := f.FilenameSelect()
	if sel == nil {
		return "", req, "", fmt.Errorf("%w: %q has no filename selector", ErrNotGeneratable, key)
	}
	if e.encodedFilepath == "" {
		return "", req, "", ErrNoDataFile
	}
	dom.RemoveClass(sel, mapping.ClassFlash)

	req = collab.GenerateRequest{
		EncodedFilepath: e.encodedFilepath,
		OriginalField:   f.OriginalColumn(),
		Filename:        dom.Value(sel),
	}
	if f.Category == mapping.CategoryPhonetic {
		req.Phonetic = f.Phonetic()
	}
	token := uuid.NewString()
	e.tokens[key] = token
	return string(f.Category), req, token, nil
}
