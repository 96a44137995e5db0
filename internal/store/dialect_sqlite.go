package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// sqliteTimeLayout matches datetime('now') so text comparisons order correctly.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) Placeholder(index int) string {
	return fmt.Sprintf("?%d", index)
}

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder { return newParamList(d) }

func (d *SQLiteDialect) JournalTableSQL() string { return sqliteJournalTableSQL }

func (d *SQLiteDialect) TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?1", tableName,
	).Scan(&n)
	return n > 0, err
}

func (d *SQLiteDialect) TimeParam(t time.Time) any {
	return t.UTC().Format(sqliteTimeLayout)
}

func (d *SQLiteDialect) RetentionExpr(col string, pb ParamBuilder, days int) string {
	return fmt.Sprintf("%s < datetime('now', %s)", col, pb.Add(fmt.Sprintf("-%d days", days)))
}

func (d *SQLiteDialect) SyncCommitOff() string { return "" }

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

const sqliteJournalTableSQL = `
CREATE TABLE IF NOT EXISTS _editor_events (
    id          TEXT PRIMARY KEY,
    session_id  TEXT NOT NULL,
    action      TEXT NOT NULL,
    field       TEXT,
    status      TEXT NOT NULL,
    detail      TEXT,
    created_at  TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_editor_events_session ON _editor_events(session_id, created_at);
`
