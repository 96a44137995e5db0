package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mapping-editor/internal/logger"
	"mapping-editor/internal/store"
)

// Filter narrows a journal listing. Zero values match everything.
type Filter struct {
	SessionID string
	Action    string
	Status    string
	Limit     int
}

// List returns journal entries, newest first.
func List(ctx context.Context, s *store.Store, f Filter) ([]Entry, error) {
	pb := s.Dialect.NewParamBuilder()
	var conditions []string
	if f.SessionID != "" {
		conditions = append(conditions, "session_id = "+pb.Add(f.SessionID))
	}
	if f.Action != "" {
		conditions = append(conditions, "action = "+pb.Add(f.Action))
	}
	if f.Status != "" {
		conditions = append(conditions, "status = "+pb.Add(f.Status))
	}
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	sqlStr := "SELECT " + strings.Join(columns, ", ") + " FROM _editor_events"
	if len(conditions) > 0 {
		sqlStr += " WHERE " + strings.Join(conditions, " AND ")
	}
	sqlStr += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT %d", limit)

	rows, err := store.QueryRows(ctx, s.DB, sqlStr, pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, entryFromRow(row))
	}
	return out, nil
}

func entryFromRow(row map[string]any) Entry {
	e := Entry{
		ID:        asString(row["id"]),
		SessionID: asString(row["session_id"]),
		Action:    asString(row["action"]),
		Field:     asString(row["field"]),
		Status:    asString(row["status"]),
	}
	if t, ok := row["created_at"].(time.Time); ok {
		e.CreatedAt = t.UTC()
	}
	switch d := row["detail"].(type) {
	case string:
		_ = json.Unmarshal([]byte(d), &e.Detail)
	case map[string]any:
		e.Detail = d
	}
	return e
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// Cleanup deletes entries older than retentionDays.
func Cleanup(ctx context.Context, db *sql.DB, dialect store.Dialect, retentionDays int) {
	pb := dialect.NewParamBuilder()
	where := dialect.RetentionExpr("created_at", pb, retentionDays)
	n, err := store.Exec(ctx, db, "DELETE FROM _editor_events WHERE "+where, pb.Params()...)
	if err != nil {
		logger.Error("journal cleanup failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("journal cleanup", zap.Int64("deleted", n))
	}
}
