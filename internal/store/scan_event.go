package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter hands out the global monotonic sequence that orders scan
// events across sources. The mutex serializes within the process; the
// RETURNING clause makes the increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

type scanEventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *scanEventRepo) Append(ctx context.Context, data ScanEventData) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	query, args := builder.Insert(scanEventsTable.Name).
		Columns("sequence", "created_at", "source", "session_id", "status", "result", "error").
		Values(seq, time.Now().UTC().UnixMilli(), data.Source, int64(data.SessionID), data.Status, data.Result, data.Error).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save scan event: %w", err)
	}
	return nil
}

func (r *scanEventRepo) Query(ctx context.Context, opts QueryOpts) ([]ScanEvent, error) {
	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("created_at", opts.To.UnixMilli()))
	}

	sel := builder.Select("sequence", "created_at", "source", "session_id", "status", "result", "error").
		From(builder.Table(scanEventsTable.Name)).
		OrderBy("sequence")
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scan events: %w", err)
	}
	defer rows.Close()

	var out []ScanEvent
	for rows.Next() {
		var e ScanEvent
		var created, session int64
		if err := rows.Scan(&e.Sequence, &created, &e.Source, &session, &e.Status, &e.Result, &e.Error); err != nil {
			return nil, fmt.Errorf("scan scan event: %w", err)
		}
		e.Timestamp = time.UnixMilli(created).UTC()
		e.SessionID = uint64(session)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *scanEventRepo) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args := builder.Delete(scanEventsTable.Name).
		Where(entsql.LT("created_at", cutoff.UTC().UnixMilli())).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune scan events: %w", err)
	}
	return res.RowsAffected()
}
