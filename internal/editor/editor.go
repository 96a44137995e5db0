// Package editor is one mapping file editing session: the field registry, its
// HTML projection, the edit lock, hover disclosure, and the generation and
// save protocols. Every mutation happens under the editor mutex; collaborator
// calls run outside it and re-check their target when they return.
package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"mapping-editor/internal/collab"
	"mapping-editor/internal/dom"
	"mapping-editor/internal/journal"
	"mapping-editor/internal/logger"
	"mapping-editor/internal/mapping"
)

// DefaultHideDelay is the grace period before a disclosed panel is hidden.
const DefaultHideDelay = 100 * time.Millisecond

// Collaborator is the set of remote services the editor depends on.
type Collaborator interface {
	FetchMenu(ctx context.Context, encodedFilepath, category string) (string, error)
	CreateField(ctx context.Context, payload map[string]any) (*collab.FieldFragments, error)
	Generate(ctx context.Context, category string, req collab.GenerateRequest) (string, error)
	Save(ctx context.Context, req collab.SaveRequest) collab.SaveResult
	DownloadURL(filename string) string
}

// Options configure a new editor.
type Options struct {
	ID              string
	MappingName     string
	FileID          string
	EncodedFilepath string
	HideDelay       time.Duration
	Scheduler       Scheduler
	Journal         journal.Recorder
}

type Editor struct {
	mu sync.Mutex

	id              string
	mappingName     string
	fileID          string
	encodedFilepath string

	registry *mapping.Registry
	hover    hoverState
	tokens   map[string]string
	filters  *lru.Cache[string, *vm.Program]
	closed   bool

	collab    Collaborator
	events    *Delegator
	scheduler Scheduler
	hideDelay time.Duration
	journal   journal.Recorder
	log       *zap.Logger
}

// New creates an empty editor bound to c.
func New(c Collaborator, opts Options) *Editor {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.HideDelay <= 0 {
		opts.HideDelay = DefaultHideDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = clockScheduler{}
	}
	if opts.Journal == nil {
		opts.Journal = journal.Noop{}
	}
	e := &Editor{
		id:              opts.ID,
		mappingName:     opts.MappingName,
		fileID:          opts.FileID,
		encodedFilepath: opts.EncodedFilepath,
		registry:        mapping.NewRegistry(),
		tokens:          make(map[string]string),
		filters:         newFilterCache(),
		collab:          c,
		events:          NewDelegator(),
		scheduler:       opts.Scheduler,
		hideDelay:       opts.HideDelay,
		journal:         opts.Journal,
		log:             logger.With(zap.String("session", opts.ID)),
	}
	e.bindEvents()
	return e
}

func (e *Editor) ID() string { return e.id }

// Events returns the delegator interactions are dispatched through.
func (e *Editor) Events() *Delegator { return e.events }

// Dispatch routes one interaction to its handler.
func (e *Editor) Dispatch(ctx context.Context, ev Event) (any, error) {
	return e.events.Dispatch(ctx, ev)
}

// Load fills the editor from an already rendered page: the summary rows
// container and the detail panels container.
func (e *Editor) Load(rowsHTML, detailsHTML string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.registry.Load(rowsHTML, detailsHTML); err != nil {
		return err
	}
	e.log.Debug("page loaded", zap.Int("fields", e.registry.Len()))
	return nil
}

// Close cancels any pending timer. A closed editor rejects further work.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelHide()
	e.closed = true
}

func (e *Editor) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// SetMappingName changes the display name sent on save.
func (e *Editor) SetMappingName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mappingName = name
}

// Keys returns the field keys in document order.
func (e *Editor) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Keys()
}

// Lookup returns a snapshot of one field.
func (e *Editor) Lookup(key string) (FieldView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.registry.Lookup(key)
	if !ok {
		return FieldView{}, false
	}
	return viewOf(f), true
}

// Fields returns snapshots of every field in document order.
func (e *Editor) Fields() []FieldView {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]FieldView, 0, e.registry.Len())
	for _, f := range e.registry.Fields() {
		out = append(out, viewOf(f))
	}
	return out
}

// Editing returns the key of the field under edit, if any.
func (e *Editor) Editing() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Lock().Editing()
}

// Render returns the current projection of both containers.
func (e *Editor) Render() (PageView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, details, err := e.registry.Render()
	if err != nil {
		return PageView{}, fmt.Errorf("render: %w", err)
	}
	editing, _ := e.registry.Lock().Editing()
	return PageView{
		ID:          e.id,
		MappingName: e.mappingName,
		RowsHTML:    rows,
		DetailsHTML: details,
		Editing:     editing,
		Visible:     e.hover.visible,
	}, nil
}

// OpenAddMenu fetches the drop-menu fragment for adding a field of category.
func (e *Editor) OpenAddMenu(ctx context.Context, category string) (string, error) {
	if !mapping.Category(category).Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	e.mu.Lock()
	path := e.encodedFilepath
	e.mu.Unlock()
	return e.collab.FetchMenu(ctx, path, category)
}

// AddField asks the creation service for a new field and appends it. Nothing
// is inserted unless both fragments parse and the key is still free.
func (e *Editor) AddField(ctx context.Context, req AddRequest) (FieldView, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return FieldView{}, ErrClosed
	}
	payload, noSource, err := e.buildPayload(req)
	e.mu.Unlock()
	if err != nil {
		return FieldView{}, err
	}

	name := fmt.Sprint(payload["name"])
	frags, err := e.collab.CreateField(ctx, payload)
	if err != nil {
		e.record("add", name, journal.StatusError, map[string]any{"error": err.Error()})
		return FieldView{}, err
	}

	f, err := fieldFromFragments(frags)
	if err != nil {
		e.record("add", name, journal.StatusError, map[string]any{"error": err.Error()})
		return FieldView{}, err
	}
	if noSource {
		f.Unlock("value")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return FieldView{}, ErrClosed
	}
	if err := e.registry.Append(f); err != nil {
		e.recordLocked("add", f.Key, journal.StatusError, map[string]any{"error": err.Error()})
		return FieldView{}, err
	}
	e.recordLocked("add", f.Key, journal.StatusOK, map[string]any{"category": string(f.Category)})
	e.log.Info("field added", zap.String("field", f.Key), zap.String("category", string(f.Category)))
	return viewOf(f), nil
}

func fieldFromFragments(frags *collab.FieldFragments) (*mapping.Field, error) {
	summary, err := dom.FirstElement(frags.RowHTML)
	if err != nil {
		return nil, fmt.Errorf("parse row fragment: %w", err)
	}
	detail, err := dom.FirstElement(frags.DetailsHTML)
	if err != nil {
		return nil, fmt.Errorf("parse details fragment: %w", err)
	}
	return mapping.NewField(summary, detail)
}

// DuplicateField clones key under the next free _copy name, right after it.
func (e *Editor) DuplicateField(key string) (FieldView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return FieldView{}, ErrClosed
	}
	if editing, ok := e.registry.Lock().Editing(); ok {
		return FieldView{}, fmt.Errorf("%w: %q", mapping.ErrLocked, editing)
	}
	clone, err := e.registry.Duplicate(key)
	if err != nil {
		return FieldView{}, err
	}
	e.recordLocked("duplicate", clone.Key, journal.StatusOK, map[string]any{"source": key})
	return viewOf(clone), nil
}

// DeleteField removes key. It reports whether the field existed.
func (e *Editor) DeleteField(key string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false, ErrClosed
	}
	if _, ok := e.registry.Remove(key); !ok {
		return false, nil
	}
	if e.hover.visible == key {
		e.cancelHide()
		e.hover = hoverState{seq: e.hover.seq}
	}
	delete(e.tokens, key)
	e.recordLocked("delete", key, journal.StatusOK, nil)
	return true, nil
}

// Modify toggles editing on key: it enters edit mode when nothing is being
// edited and accepts when key is already under edit.
func (e *Editor) Modify(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if editing, ok := e.registry.Lock().Editing(); ok && editing == key {
		_, err := e.registry.Accept()
		return err
	}
	return e.registry.BeginEdit(key)
}

// Accept keeps the edited values and releases the lock.
func (e *Editor) Accept() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", ErrClosed
	}
	return e.registry.Accept()
}

// Revert restores the edited field to its baseline and releases the lock.
func (e *Editor) Revert() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", ErrClosed
	}
	return e.registry.Revert()
}

// SetValue changes one detail control of key.
func (e *Editor) SetValue(key, field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return e.registry.SetValue(key, field, value)
}

// DownloadURL returns the link to the completion file selected on key.
func (e *Editor) DownloadURL(key string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.registry.Lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %q", mapping.ErrFieldNotFound, key)
	}
	sel := f.FilenameSelect()
	if sel == nil || dom.Value(sel) == "" {
		return "", fmt.Errorf("%w: %q has no completion file", ErrNotGeneratable, key)
	}
	return e.collab.DownloadURL(dom.Value(sel)), nil
}

func (e *Editor) record(action, field, status string, detail map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recordLocked(action, field, status, detail)
}

func (e *Editor) recordLocked(action, field, status string, detail map[string]any) {
	e.journal.Record(journal.Entry{
		ID:        uuid.NewString(),
		SessionID: e.id,
		Action:    action,
		Field:     field,
		Status:    status,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
}
