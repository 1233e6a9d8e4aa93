package sqlstore

import (
	"strings"

	"github.com/jmoiron/sqlx"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) Dialect {
	if driver == "mysql" {
		return DialectMySQL
	}
	return DialectPostgres
}

func (d Dialect) bindType() int {
	if d == DialectMySQL {
		return sqlx.QUESTION
	}
	return sqlx.DOLLAR
}

// Rebind converts '?' placeholders to the dialect's bind style.
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(d.bindType(), query)
}

// Now is the dialect's current timestamp expression.
func (d Dialect) Now() string {
	if d == DialectMySQL {
		return "CURRENT_TIMESTAMP(6)"
	}
	return "NOW()"
}

// InsertStatement builds a multi-row INSERT for rows tuples of cols, with
// '?' placeholders.
func InsertStatement(table string, cols []string, rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")

	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tuple)
	}
	return b.String()
}

// UpsertStatement extends InsertStatement with the dialect's conflict
// clause. keys name the unique columns (ignored by MySQL, which resolves
// the conflict through the table's unique index); update names the columns
// overwritten on conflict.
func (d Dialect) UpsertStatement(table string, cols, keys, update []string, rows int) string {
	insert := InsertStatement(table, cols, rows)

	sets := make([]string, len(update))
	for i, c := range update {
		if d == DialectMySQL {
			sets[i] = c + " = VALUES(" + c + ")"
		} else {
			sets[i] = c + " = EXCLUDED." + c
		}
	}

	if d == DialectMySQL {
		if len(sets) == 0 {
			return strings.Replace(insert, "INSERT INTO", "INSERT IGNORE INTO", 1)
		}
		return insert + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}

	conflict := " ON CONFLICT (" + strings.Join(keys, ", ") + ")"
	if len(sets) == 0 {
		return insert + conflict + " DO NOTHING"
	}
	return insert + conflict + " DO UPDATE SET " + strings.Join(sets, ", ")
}

// Contains returns a case-insensitive LIKE argument matching s anywhere.
func Contains(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
