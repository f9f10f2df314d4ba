package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads raw chain data from the source database.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// OpenPostgres creates and pings a pool for url.
func OpenPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

// Query runs query against the source and returns its rows as table content.
func (s *PostgresSource) Query(ctx context.Context, table models.LogicalTable, query string, args ...any) (*models.TableData, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query source for %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	data := &models.TableData{Table: table, Columns: make([]string, len(fields)), Rows: [][]any{}}
	for i, f := range fields {
		data.Columns[i] = f.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read source row for %s: %w", table, err)
		}
		data.Rows = append(data.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source rows for %s: %w", table, err)
	}
	return data, nil
}

// Ping reports whether the source is reachable.
func (s *PostgresSource) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresSource) Close() {
	s.pool.Close()
}
