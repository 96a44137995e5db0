package store

import (
	"context"
	"fmt"
	"strings"
)

// Bootstrap creates the editor tables if they do not exist.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, stmt := range splitStatements(s.Dialect.JournalTableSQL()) {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap journal table: %w", err)
		}
	}
	return nil
}

func splitStatements(ddl string) []string {
	var out []string
	for _, stmt := range strings.Split(ddl, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
