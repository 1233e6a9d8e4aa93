package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Statements returns the schema DDL of dialect d, one statement per entry.
func Statements(d Dialect) ([]string, error) {
	raw, err := schemaFS.ReadFile("schema/" + string(d) + ".sql")
	if err != nil {
		return nil, fmt.Errorf("read %s schema: %w", d, err)
	}

	var out []string
	for _, stmt := range strings.Split(string(raw), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out, nil
}

// Migrate creates every missing table. It is safe to run on each start.
func (db *DB) Migrate(ctx context.Context) error {
	stmts, err := Statements(db.dialect)
	if err != nil {
		return err
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	log.Info().Str("dialect", string(db.dialect)).Int("statements", len(stmts)).Msg("schema up to date")
	return nil
}
