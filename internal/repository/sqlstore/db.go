// Package sqlstore holds the sqlx connection wrapper shared by every
// repository, plus the dialect helpers that let the same queries run on
// PostgreSQL and MySQL.
package sqlstore

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/andresuchdata/erpsync/internal/config"
)

const (
	defaultBatchSize = 1000
	maxConcurrentTx  = 10
)

type DB struct {
	*sqlx.DB
	sem       *semaphore.Weighted
	dialect   Dialect
	batchSize int
}

// NewDB opens a connection pool for the configured driver: "postgres"
// (lib/pq), "pgx" (pgx stdlib) or "mysql".
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	driver, dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	log.Info().Str("driver", driver).Str("host", cfg.Host).Str("database", cfg.DBName).Msg("database connected")
	return Wrap(db, cfg.BatchSize), nil
}

// Wrap adopts an already opened sqlx handle.
func Wrap(db *sqlx.DB, batchSize int) *DB {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &DB{
		DB:        db,
		sem:       semaphore.NewWeighted(maxConcurrentTx),
		dialect:   DialectFor(db.DriverName()),
		batchSize: batchSize,
	}
}

// DSN returns the sql driver name and data source for cfg.
func DSN(cfg *config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case "", "postgres", "pgx":
		driver := cfg.Driver
		if driver == "" {
			driver = "postgres"
		}
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return driver, fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode), nil
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return "mysql", mc.FormatDSN(), nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Dialect returns the SQL dialect of the underlying driver.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// BatchSize is the number of rows written per multi-row insert.
func (db *DB) BatchSize() int {
	return db.batchSize
}

// WithTx executes a function within a transaction
func (db *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}
