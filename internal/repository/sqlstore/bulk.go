package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Chunks splits rows into consecutive slices of at most size rows.
func Chunks(rows [][]any, size int) [][][]any {
	if size <= 0 {
		size = defaultBatchSize
	}
	var out [][][]any
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}

func flatten(rows [][]any) []any {
	n := 0
	for _, r := range rows {
		n += len(r)
	}
	args := make([]any, 0, n)
	for _, r := range rows {
		args = append(args, r...)
	}
	return args
}

// InsertBatches writes rows in multi-row INSERT statements of BatchSize rows.
func (db *DB) InsertBatches(ctx context.Context, tx *sqlx.Tx, table string, cols []string, rows [][]any) (int, error) {
	return db.execBatches(ctx, tx, rows, func(n int) string {
		return InsertStatement(table, cols, n)
	})
}

// UpsertBatches is InsertBatches with the dialect's conflict clause.
func (db *DB) UpsertBatches(ctx context.Context, tx *sqlx.Tx, table string, cols, keys, update []string, rows [][]any) (int, error) {
	return db.execBatches(ctx, tx, rows, func(n int) string {
		return db.dialect.UpsertStatement(table, cols, keys, update, n)
	})
}

func (db *DB) execBatches(ctx context.Context, tx *sqlx.Tx, rows [][]any, build func(n int) string) (int, error) {
	written := 0
	for i, chunk := range Chunks(rows, db.batchSize) {
		query := db.dialect.Rebind(build(len(chunk)))
		if _, err := tx.ExecContext(ctx, query, flatten(chunk)...); err != nil {
			return written, fmt.Errorf("batch %d: %w", i+1, err)
		}
		written += len(chunk)
	}
	return written, nil
}

// ReplaceAll empties table and inserts rows in one transaction. A failure
// leaves the previous contents untouched.
func (db *DB) ReplaceAll(ctx context.Context, table string, cols []string, rows [][]any) (int, error) {
	var written int
	err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		n, err := db.InsertBatches(ctx, tx, table, cols, rows)
		if err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
		written = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}
