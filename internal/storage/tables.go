package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/dhima/filplus-aggregator/internal/models"
)

const defaultBatchSize = 500

var identPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// PhysicalName maps a logical table to its snake_case SQL table name, e.g.
// ProviderIPNIReporting becomes provider_ipni_reporting.
func PhysicalName(table models.LogicalTable) string {
	runes := []rune(string(table))
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return "`" + name + "`", nil
}

// buildInsert renders one multi-row INSERT for rows and returns its arguments.
func buildInsert(table string, columns []string, rows [][]any) (string, []any, error) {
	quotedTable, err := quoteIdent(table)
	if err != nil {
		return "", nil, err
	}
	quotedCols := make([]string, len(columns))
	for i, col := range columns {
		if quotedCols[i], err = quoteIdent(col); err != nil {
			return "", nil, err
		}
	}

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("row %d of %s has %d values, want %d", i, table, len(row), len(columns))
		}
		values = append(values, placeholder)
		args = append(args, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quotedTable, strings.Join(quotedCols, ", "), strings.Join(values, ", "))
	return query, args, nil
}

// ReplaceTables deletes and re-inserts every given table inside one
// transaction, so a failure leaves all of them as they were.
//
// The write is detached from ctx cancellation: a cycle cancelled mid-write
// still commits or rolls back cleanly. storageTimeout, when set, bounds it.
func (c *MySQLClient) ReplaceTables(ctx context.Context, tables ...models.TableData) (err error) {
	if len(tables) == 0 {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	if c.storageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.storageTimeout)
		defer cancel()
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, t := range tables {
		if err = c.replaceTable(ctx, tx, t); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (c *MySQLClient) replaceTable(ctx context.Context, tx *sql.Tx, data models.TableData) error {
	name := PhysicalName(data.Table)
	quoted, err := quoteIdent(name)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+quoted); err != nil {
		return fmt.Errorf("clear %s: %w", name, err)
	}

	for start := 0; start < len(data.Rows); start += c.batchSize {
		end := min(start+c.batchSize, len(data.Rows))
		query, args, err := buildInsert(name, data.Columns, data.Rows[start:end])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", name, err)
		}
	}
	return nil
}

// Query runs a read against tables already filled in this store.
func (c *MySQLClient) Query(ctx context.Context, table models.LogicalTable, query string, args ...any) (*models.TableData, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query for %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns for %s: %w", table, err)
	}

	data := &models.TableData{Table: table, Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row for %s: %w", table, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		data.Rows = append(data.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows for %s: %w", table, err)
	}
	return data, nil
}
