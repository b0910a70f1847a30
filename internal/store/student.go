package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type studentRepo struct {
	db *sql.DB
}

func (r *studentRepo) Upsert(ctx context.Context, id, name string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, name, balance_cents, created_at) VALUES (?, ?, 0, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		id, name, time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}
	return nil
}

func (r *studentRepo) Get(ctx context.Context, id string) (*Student, error) {
	var s Student
	var created int64
	query, args := studentSelect().Where(entsql.EQ("id", id)).Query()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Name, &s.BalanceCents, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("student %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query student: %w", err)
	}
	s.CreatedAt = time.UnixMilli(created).UTC()
	return &s, nil
}

func (r *studentRepo) TopUp(ctx context.Context, id string, cents int64) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE students SET balance_cents = balance_cents + ? WHERE id = ? RETURNING balance_cents`,
		cents, id,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("student %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("top up: %w", err)
	}
	return balance, nil
}

func (r *studentRepo) List(ctx context.Context) ([]Student, error) {
	query, args := studentSelect().OrderBy("id").Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var out []Student
	for rows.Next() {
		var s Student
		var created int64
		if err := rows.Scan(&s.ID, &s.Name, &s.BalanceCents, &created); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		s.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func studentSelect() *entsql.Selector {
	return builder.Select("id", "name", "balance_cents", "created_at").From(builder.Table(studentsTable.Name))
}
