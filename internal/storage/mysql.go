// Package storage holds the database adapters: the MySQL destination store for
// derived tables and run history, and the Postgres source store.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLClient is the destination store. It replaces derived tables, serves
// reads of tables already filled, and keeps the aggregation run history.
type MySQLClient struct {
	db             *sql.DB
	storageTimeout time.Duration
	batchSize      int
}

// NewMySQLClient wires a sql.DB; pass a configured instance from main.
// storageTimeout bounds a single table replacement; zero means no bound.
func NewMySQLClient(db *sql.DB, storageTimeout time.Duration) *MySQLClient {
	return &MySQLClient{db: db, storageTimeout: storageTimeout, batchSize: defaultBatchSize}
}

// OpenMySQL opens and pings a MySQL pool for dsn. Timestamps are always
// parsed into time.Time in UTC.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// Ping reports whether the destination store is reachable.
func (c *MySQLClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *MySQLClient) Close() error {
	return c.db.Close()
}
