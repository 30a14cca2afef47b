// Package sql moves view content in and out of databases using
// database/sql. Query results fill reactive collections in a single
// mutation, and a view's current content can be written back to a table
// inside one transaction.
package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lguimbarda/min-view/view/core"
)

// Scanner is a function that scans a row into a value.
type Scanner[T any] func(*sql.Rows) (T, error)

// Binder converts a value to statement arguments.
type Binder[T any] func(T) []any

// Querier is implemented by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Query executes a query and scans every row.
func Query[T any](ctx context.Context, db Querier, query string, scanner Scanner[T], args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		value, err := scanner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out), err)
		}
		out = append(out, value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Fill appends the query results to coll with a single Add, so views over
// coll recompute once. It returns the number of rows added. Errors returned
// by coll's subscribers are returned alongside the count.
func Fill[T any](ctx context.Context, coll *core.Collection[T], db Querier, query string, scanner Scanner[T], args ...any) (int, error) {
	items, err := Query(ctx, db, query, scanner, args...)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}
	return len(items), coll.Add(items...)
}

// Refresh replaces coll's content with the query results in a single
// Reset.
func Refresh[T any](ctx context.Context, coll *core.Collection[T], db Querier, query string, scanner Scanner[T], args ...any) error {
	items, err := Query(ctx, db, query, scanner, args...)
	if err != nil {
		return err
	}
	return coll.Reset(items...)
}

// Load creates a collection holding the query results.
func Load[T any](ctx context.Context, db Querier, query string, scanner Scanner[T], args ...any) (*core.Collection[T], error) {
	items, err := Query(ctx, db, query, scanner, args...)
	if err != nil {
		return nil, err
	}
	return core.NewCollection(items...), nil
}

// Transaction executes fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
// Otherwise, it is committed.
func Transaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Snapshot inserts every item currently in src using stmt, inside one
// transaction. A view source is materialized first. It returns the number
// of rows affected.
func Snapshot[T any](ctx context.Context, db *sql.DB, src core.Source[T], stmt string, bind Binder[T]) (int64, error) {
	return Replace(ctx, db, src, "", stmt, bind)
}

// Replace runs purge, when not empty, then inserts every item currently in
// src, inside one transaction. Either the table ends up holding exactly
// the snapshot or it is left untouched.
func Replace[T any](ctx context.Context, db *sql.DB, src core.Source[T], purge, stmt string, bind Binder[T]) (int64, error) {
	items := src.Items()
	var affected int64
	err := Transaction(ctx, db, func(tx *sql.Tx) error {
		if purge != "" {
			if _, err := tx.ExecContext(ctx, purge); err != nil {
				return fmt.Errorf("purge: %w", err)
			}
		}
		prepared, err := tx.PrepareContext(ctx, stmt)
		if err != nil {
			return err
		}
		defer prepared.Close()

		for i, item := range items {
			result, err := prepared.ExecContext(ctx, bind(item)...)
			if err != nil {
				return fmt.Errorf("insert item %d: %w", i, err)
			}
			n, _ := result.RowsAffected()
			affected += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// ScanMap scans a row into a map keyed by column name. Byte slices are
// converted to strings.
func ScanMap(rows *sql.Rows) (map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(cols))
	valuePtrs := make([]any, len(cols))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}
	result := make(map[string]any, len(cols))
	for i, col := range cols {
		if b, ok := values[i].([]byte); ok {
			result[col] = string(b)
			continue
		}
		result[col] = values[i]
	}
	return result, nil
}
