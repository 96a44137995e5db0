package store

import (
	"context"
	"database/sql"
	"time"
)

// Dialect covers the SQL that differs between the journal backends.
type Dialect interface {
	Name() string
	// DriverName is the database/sql driver: "pgx" or "sqlite".
	DriverName() string
	// Placeholder renders the 1-based parameter index.
	Placeholder(index int) string
	NewParamBuilder() ParamBuilder
	JournalTableSQL() string
	TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error)
	// TimeParam encodes a timestamp the way created_at is stored.
	TimeParam(t time.Time) any
	// RetentionExpr is a WHERE clause matching rows of col older than days.
	RetentionExpr(col string, pb ParamBuilder, days int) string
	// SyncCommitOff is run first in journal batch transactions when non-empty.
	SyncCommitOff() string
	// MapError wraps constraint failures in ErrUniqueViolation.
	MapError(err error) error
}

// ParamBuilder collects query arguments and hands back the placeholder each
// one binds to.
type ParamBuilder interface {
	Add(v any) string
	Params() []any
}

// NewDialect returns the dialect for driver; anything but "postgres" is sqlite.
func NewDialect(driver string) Dialect {
	if driver == "postgres" {
		return &PostgresDialect{}
	}
	return &SQLiteDialect{}
}

type paramList struct {
	params      []any
	placeholder func(int) string
}

func newParamList(d Dialect) *paramList {
	return &paramList{placeholder: d.Placeholder}
}

func (p *paramList) Add(v any) string {
	p.params = append(p.params, v)
	return p.placeholder(len(p.params))
}

func (p *paramList) Params() []any { return p.params }
