package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) NewParamBuilder() ParamBuilder { return newParamList(d) }

func (d *PostgresDialect) JournalTableSQL() string { return pgJournalTableSQL }

func (d *PostgresDialect) TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = $1 AND table_schema = 'public')`,
		tableName,
	).Scan(&exists)
	return exists, err
}

func (d *PostgresDialect) TimeParam(t time.Time) any { return t.UTC() }

func (d *PostgresDialect) RetentionExpr(col string, pb ParamBuilder, days int) string {
	return fmt.Sprintf("%s < now() - make_interval(days => %s)", col, pb.Add(days))
}

func (d *PostgresDialect) SyncCommitOff() string {
	return "SET LOCAL synchronous_commit = off"
}

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	// pgx reports unique_violation as SQLSTATE 23505
	if strings.Contains(err.Error(), "SQLSTATE 23505") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

const pgJournalTableSQL = `
CREATE TABLE IF NOT EXISTS _editor_events (
    id          UUID PRIMARY KEY,
    session_id  TEXT NOT NULL,
    action      TEXT NOT NULL,
    field       TEXT,
    status      TEXT NOT NULL,
    detail      JSONB,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_editor_events_session ON _editor_events(session_id, created_at);
`
