package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mapping-editor/internal/logger"
	"mapping-editor/internal/store"
)

var columns = []string{"id", "session_id", "action", "field", "status", "detail", "created_at"}

// Buffer collects entries in memory and periodically flushes them to the
// _editor_events table in a batch insert.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	store   *store.Store
	maxSize int
	ticker  *time.Ticker
	done    chan struct{}
	stopped sync.Once
}

// NewBuffer creates a buffer that flushes on a timer or when full.
func NewBuffer(s *store.Store, maxSize int, flushInterval time.Duration) *Buffer {
	b := &Buffer{
		store:   s,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	b.ticker = time.NewTicker(flushInterval)
	go b.run()
	return b
}

func (b *Buffer) run() {
	for {
		select {
		case <-b.done:
			return
		case <-b.ticker.C:
			b.Flush()
		}
	}
}

// Record adds an entry to the buffer. If the buffer is full, a flush is
// triggered asynchronously.
func (b *Buffer) Record(e Entry) {
	b.mu.Lock()
	b.entries = append(b.entries, e)
	shouldFlush := len(b.entries) >= b.maxSize
	b.mu.Unlock()
	if shouldFlush {
		go b.Flush()
	}
}

// Flush writes all buffered entries in a single batch insert.
func (b *Buffer) Flush() {
	b.mu.Lock()
	if len(b.entries) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.entries
	b.entries = nil
	b.mu.Unlock()

	if err := b.insert(context.Background(), batch); err != nil {
		logger.Error("journal flush failed", zap.Int("entries", len(batch)), zap.Error(err))
	}
}

func (b *Buffer) insert(ctx context.Context, batch []Entry) error {
	tx, err := b.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if stmt := b.store.Dialect.SyncCommitOff(); stmt != "" {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("set sync commit: %w", err)
		}
	}

	pb := b.store.Dialect.NewParamBuilder()
	placeholders := make([]string, 0, len(batch))
	for _, e := range batch {
		var detail any
		if e.Detail != nil {
			raw, err := json.Marshal(e.Detail)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("encode detail of %s: %w", e.ID, err)
			}
			detail = string(raw)
		}
		var field any
		if e.Field != "" {
			field = e.Field
		}
		ph := []string{
			pb.Add(e.ID),
			pb.Add(e.SessionID),
			pb.Add(e.Action),
			pb.Add(field),
			pb.Add(e.Status),
			pb.Add(detail),
			pb.Add(b.store.Dialect.TimeParam(e.CreatedAt)),
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
	}

	sqlStr := fmt.Sprintf("INSERT INTO _editor_events (%s) VALUES %s", strings.Join(columns, ","), strings.Join(placeholders, ","))
	if _, err := tx.ExecContext(ctx, sqlStr, pb.Params()...); err != nil {
		tx.Rollback()
		return fmt.Errorf("insert: %w", b.store.Dialect.MapError(err))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Stop halts the background ticker and flushes remaining entries.
func (b *Buffer) Stop() {
	b.stopped.Do(func() {
		b.ticker.Stop()
		close(b.done)
		b.Flush()
	})
}
