// Package session keeps one editor per open mapping file.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mapping-editor/internal/editor"
	"mapping-editor/internal/journal"
	"mapping-editor/internal/logger"
)

var ErrNotFound = errors.New("session not found")

// OpenRequest describes the mapping file a new session edits. RowsHTML and
// DetailsHTML hold the already rendered containers of an existing mapping;
// both are empty for a new one.
type OpenRequest struct {
	MappingName     string `json:"mapping_name"`
	FileID          string `json:"file_id"`
	EncodedFilepath string `json:"encoded_filepath"`
	RowsHTML        string `json:"rows_html"`
	DetailsHTML     string `json:"details_html"`
}

// Session is one open editor.
type Session struct {
	ID        string
	Editor    *editor.Editor
	CreatedAt time.Time
	lastSeen  atomic.Int64
}

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

// LastSeen is the time of the last lookup of the session.
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Info is the listing view of a session.
type Info struct {
	ID        string    `json:"id"`
	Fields    int       `json:"fields"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// Manager owns the open sessions.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	collab    editor.Collaborator
	journal   journal.Recorder
	hideDelay time.Duration
	scheduler editor.Scheduler
	now       func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

func WithJournal(j journal.Recorder) Option {
	return func(m *Manager) { m.journal = j }
}

func WithHideDelay(d time.Duration) Option {
	return func(m *Manager) { m.hideDelay = d }
}

// WithScheduler replaces the clock that runs hover timers.
func WithScheduler(s editor.Scheduler) Option {
	return func(m *Manager) { m.scheduler = s }
}

func NewManager(c editor.Collaborator, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		collab:   c,
		journal:  journal.Noop{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Create opens a session, loading the given containers if any.
func (m *Manager) Create(req OpenRequest) (*Session, error) {
	id := uuid.NewString()
	ed := editor.New(m.collab, editor.Options{
		ID:              id,
		MappingName:     req.MappingName,
		FileID:          req.FileID,
		EncodedFilepath: req.EncodedFilepath,
		HideDelay:       m.hideDelay,
		Scheduler:       m.scheduler,
		Journal:         m.journal,
	})
	if err := ed.Load(req.RowsHTML, req.DetailsHTML); err != nil {
		ed.Close()
		return nil, fmt.Errorf("open session: %w", err)
	}

	now := m.now()
	s := &Session{ID: id, Editor: ed, CreatedAt: now}
	s.touch(now)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	logger.Info("session opened",
		zap.String("session", id),
		zap.String("mapping", req.MappingName),
		zap.Int("fields", len(ed.Keys())),
	)
	return s, nil
}

// Get returns the session and marks it as seen.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.touch(m.now())
	return s, nil
}

// Close closes and forgets one session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Editor.Close()
	logger.Info("session closed", zap.String("session", id))
	return nil
}

// List returns every open session, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, Info{
			ID:        s.ID,
			Fields:    len(s.Editor.Keys()),
			CreatedAt: s.CreatedAt,
			LastSeen:  s.LastSeen(),
		})
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseIdle closes sessions not seen for longer than maxIdle and returns how
// many were closed.
func (m *Manager) CloseIdle(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range idle {
		s.Editor.Close()
	}
	if len(idle) > 0 {
		logger.Info("idle sessions closed", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Editor.Close()
	}
}
