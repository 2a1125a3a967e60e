package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"daily_judge/internal/common"
)

// Collection tables. Every table has the same shape:
// (id TEXT PRIMARY KEY, data JSONB NOT NULL, created_at, updated_at).
const (
	TableUsers       = "users"
	TableProblems    = "problems"
	TableCourses     = "courses"
	TableStats       = "user_problem_stats"
	TableCredentials = "credentials"
)

var Tables = []string{TableUsers, TableProblems, TableCourses, TableStats, TableCredentials}

// documents stores JSON documents keyed by id in one PostgreSQL table.
type documents struct {
	db    *sql.DB
	table string
}

func (d documents) get(ctx context.Context, id string, dst any) error {
	var data []byte
	err := d.db.QueryRowContext(ctx, `SELECT data FROM `+d.table+` WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, dst)
}

func (d documents) insert(ctx context.Context, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx, `INSERT INTO `+d.table+` (id, data) VALUES ($1, $2)`, id, data)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("%s %q already exists: %w", d.table, id, common.ErrConflict)
		}
		return err
	}
	return nil
}

// insertIfAbsent writes v unless a document with id exists and reports
// whether it wrote.
func (d documents) insertIfAbsent(ctx context.Context, id string, v any) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO `+d.table+` (id, data) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, id, data)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (d documents) put(ctx context.Context, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO `+d.table+` (id, data) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`, id, data)
	return err
}

func (d documents) exists(ctx context.Context, id string) (bool, error) {
	var found bool
	err := d.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+d.table+` WHERE id = $1)`, id).Scan(&found)
	return found, err
}

// queryDocuments decodes every document matched by the trailing SQL clause
// (WHERE / ORDER BY) into a slice of T.
func queryDocuments[T any](ctx context.Context, d documents, clause string, args ...any) ([]T, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT data FROM `+d.table+` `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", d.table, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
