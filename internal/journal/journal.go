// Package journal records editor activity: fields added, duplicated and
// deleted, completion files generated, mappings saved.
package journal

import "time"

// Outcome of a journaled action.
const (
	StatusOK    = "ok"
	StatusError = "error"
	StatusStale = "stale"
)

// Entry is one journaled editor action.
type Entry struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Action    string         `json:"action"`
	Field     string         `json:"field,omitempty"`
	Status    string         `json:"status"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Recorder accepts entries without blocking the caller.
type Recorder interface {
	Record(Entry)
}

// Noop discards every entry. It is used when the journal is disabled.
type Noop struct{}

func (Noop) Record(Entry) {}
