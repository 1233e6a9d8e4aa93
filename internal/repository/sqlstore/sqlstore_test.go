package sqlstore

import (
	"strings"
	"testing"

	"github.com/andresuchdata/erpsync/internal/config"
)

func TestInsertStatement(t *testing.T) {
	got := InsertStatement("rotations", []string{"sku", "warehouse", "rot30"}, 2)
	want := "INSERT INTO rotations (sku, warehouse, rot30) VALUES (?, ?, ?), (?, ?, ?)"
	if got != want {
		t.Fatalf("InsertStatement = %q, expected %q", got, want)
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	if got := DialectPostgres.Rebind(q); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Fatalf("postgres rebind = %q", got)
	}
	if got := DialectMySQL.Rebind(q); got != q {
		t.Fatalf("mysql rebind = %q", got)
	}
}

func TestUpsertStatement(t *testing.T) {
	cols := []string{"sku", "name"}

	pg := DialectPostgres.UpsertStatement("products", cols, []string{"sku"}, []string{"name"}, 1)
	if pg != "INSERT INTO products (sku, name) VALUES (?, ?) ON CONFLICT (sku) DO UPDATE SET name = EXCLUDED.name" {
		t.Fatalf("postgres upsert = %q", pg)
	}

	my := DialectMySQL.UpsertStatement("products", cols, []string{"sku"}, []string{"name"}, 1)
	if my != "INSERT INTO products (sku, name) VALUES (?, ?) ON DUPLICATE KEY UPDATE name = VALUES(name)" {
		t.Fatalf("mysql upsert = %q", my)
	}

	if got := DialectPostgres.UpsertStatement("products", cols, []string{"sku"}, nil, 1); !strings.HasSuffix(got, "ON CONFLICT (sku) DO NOTHING") {
		t.Fatalf("postgres insert-or-ignore = %q", got)
	}
	if got := DialectMySQL.UpsertStatement("products", cols, []string{"sku"}, nil, 1); !strings.HasPrefix(got, "INSERT IGNORE INTO products") {
		t.Fatalf("mysql insert-or-ignore = %q", got)
	}
}

func TestChunks(t *testing.T) {
	rows := make([][]any, 2501)
	chunks := Chunks(rows, 1000)
	if len(chunks) != 3 || len(chunks[0]) != 1000 || len(chunks[2]) != 501 {
		t.Fatalf("unexpected chunking: %d chunks", len(chunks))
	}
	if Chunks(nil, 1000) != nil {
		t.Fatal("expected no chunks for no rows")
	}
}

func TestFlatten(t *testing.T) {
	args := flatten([][]any{{"a", 1}, {"b", 2}})
	if len(args) != 4 || args[2] != "b" || args[3] != 2 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestDSN(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "erp"}
	driver, dsn, err := DSN(cfg)
	if err != nil || driver != "postgres" || dsn != "host=db port=5432 user=u password=p dbname=erp sslmode=disable" {
		t.Fatalf("postgres DSN = %q %q %v", driver, dsn, err)
	}

	cfg.Driver = "pgx"
	if driver, _, _ := DSN(cfg); driver != "pgx" {
		t.Fatalf("expected pgx driver, got %q", driver)
	}

	cfg.Driver, cfg.Port = "mysql", "3306"
	driver, dsn, err = DSN(cfg)
	if err != nil || driver != "mysql" {
		t.Fatalf("mysql DSN error: %v", err)
	}
	if !strings.HasPrefix(dsn, "u:p@tcp(db:3306)/erp?") || !strings.Contains(dsn, "parseTime=true") {
		t.Fatalf("unexpected mysql dsn %q", dsn)
	}

	cfg.Driver = "oracle"
	if _, _, err := DSN(cfg); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestStatements(t *testing.T) {
	for _, d := range []Dialect{DialectPostgres, DialectMySQL} {
		stmts, err := Statements(d)
		if err != nil {
			t.Fatalf("%s: %v", d, err)
		}
		var tables int
		for _, s := range stmts {
			if strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS") {
				tables++
			}
		}
		if tables != 14 {
			t.Fatalf("%s: expected 14 tables, got %d", d, tables)
		}
	}
}

func TestDialectFor(t *testing.T) {
	if DialectFor("mysql") != DialectMySQL || DialectFor("pgx") != DialectPostgres || DialectFor("postgres") != DialectPostgres {
		t.Fatal("unexpected dialect mapping")
	}
}
