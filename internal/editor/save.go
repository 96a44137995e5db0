package editor

import (
	"context"

	"go.uber.org/zap"

	"mapping-editor/internal/collab"
	"mapping-editor/internal/journal"
)

// Export serializes every field with a known category, keyed by field key.
func (e *Editor) Export() map[string]map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.ExportAll()
}

// Save sends the whole mapping to the save service. asNew saves a new file
// even when the editor was opened on an existing one. Failures come back in
// the result; the only error is ErrClosed.
func (e *Editor) Save(ctx context.Context, asNew bool) (collab.SaveResult, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return collab.SaveResult{}, ErrClosed
	}
	req := collab.SaveRequest{
		MappingName:         e.mappingName,
		EncodedDataFilepath: e.encodedFilepath,
		Mapping:             e.registry.ExportAll(),
	}
	if !asNew && e.fileID != "" {
		id := e.fileID
		req.FileID = &id
	}
	e.mu.Unlock()

	res := e.collab.Save(ctx, req)

	status := journal.StatusOK
	detail := map[string]any{"fields": len(req.Mapping), "as_new": asNew}
	if res.Success {
		if res.NewFile != "" {
			detail["new_file"] = res.NewFile
		}
		e.log.Info("mapping saved", zap.String("mapping", req.MappingName), zap.Int("fields", len(req.Mapping)))
	} else {
		status = journal.StatusError
		detail["error"] = res.Error
		e.log.Warn("mapping save failed", zap.String("mapping", req.MappingName), zap.String("error", res.Error))
	}
	e.record("save", "", status, detail)
	return res, nil
}
