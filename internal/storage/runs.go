package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dhima/filplus-aggregator/internal/models"
)

const defaultRunsLimit = 20

const createRunsTable = `
CREATE TABLE IF NOT EXISTS aggregation_runs (
	id             CHAR(36)     NOT NULL PRIMARY KEY,
	status         VARCHAR(16)  NOT NULL,
	started_at     DATETIME(3)  NOT NULL,
	finished_at    DATETIME(3)  NOT NULL,
	executed_count INT          NOT NULL,
	skipped_count  INT          NOT NULL,
	error_message  TEXT         NULL,
	INDEX idx_aggregation_runs_started_at (started_at),
	INDEX idx_aggregation_runs_status (status, started_at)
)`

// EnsureRunsTable creates aggregation_runs when it does not exist yet.
func (c *MySQLClient) EnsureRunsTable(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, createRunsTable); err != nil {
		return fmt.Errorf("create aggregation_runs: %w", err)
	}
	return nil
}

// RecordRun appends a finished cycle to aggregation_runs.
func (c *MySQLClient) RecordRun(ctx context.Context, run models.AggregationRun) error {
	var errMsg sql.NullString
	if run.ErrorMessage != nil {
		errMsg = sql.NullString{String: *run.ErrorMessage, Valid: true}
	}

	if _, err := c.db.ExecContext(
		ctx,
		`INSERT INTO aggregation_runs (id, status, started_at, finished_at, executed_count, skipped_count, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Status,
		run.StartedAt,
		run.FinishedAt,
		run.ExecutedCount,
		run.SkippedCount,
		errMsg,
	); err != nil {
		return fmt.Errorf("insert aggregation run: %w", err)
	}
	return nil
}

// ListRuns returns recorded runs, newest first.
func (c *MySQLClient) ListRuns(ctx context.Context, query models.ListRunsQuery) ([]models.AggregationRun, error) {
	criteria := make([]string, 0, 1)
	args := make([]interface{}, 0, 2)

	if query.Status != "" {
		criteria = append(criteria, "status = ?")
		args = append(args, query.Status)
	}

	where := ""
	if len(criteria) > 0 {
		where = "WHERE " + strings.Join(criteria, " AND ")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, status, started_at, finished_at, executed_count, skipped_count, error_message
		FROM aggregation_runs
		%s
		ORDER BY started_at DESC
		LIMIT ?`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("query aggregation runs: %w", err)
	}
	defer rows.Close()

	runs := make([]models.AggregationRun, 0)
	for rows.Next() {
		var r models.AggregationRun
		var errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.Status, &r.StartedAt, &r.FinishedAt, &r.ExecutedCount, &r.SkippedCount, &errMsg); err != nil {
			return nil, fmt.Errorf("scan aggregation run: %w", err)
		}
		if errMsg.Valid {
			msg := errMsg.String
			r.ErrorMessage = &msg
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregation runs: %w", err)
	}
	return runs, nil
}
