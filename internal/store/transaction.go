package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type transactionRepo struct {
	db *sql.DB
}

func (r *transactionRepo) Record(ctx context.Context, p Purchase) (*Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin purchase: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM students WHERE id = ?`, p.StudentID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("student %q: %w", p.StudentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query balance: %w", err)
	}

	t := &Transaction{
		ID:        p.ID,
		StudentID: p.StudentID,
		VendorID:  p.VendorID,
		Date:      p.Date.UTC().Truncate(time.Millisecond),
	}
	err = tx.QueryRowContext(ctx, `SELECT name FROM vendors WHERE id = ?`, p.VendorID).Scan(&t.VendorName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vendor %q: %w", p.VendorID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query vendor: %w", err)
	}

	for _, line := range p.Lines {
		item := TransactionItem{ProductID: line.ProductID, Quantity: line.Quantity}
		var stock int
		err := tx.QueryRowContext(ctx,
			`SELECT name, price_cents, stock FROM products WHERE id = ? AND vendor_id = ?`,
			line.ProductID, p.VendorID,
		).Scan(&item.Name, &item.PriceCents, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %q: %w", line.ProductID, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("query product: %w", err)
		}
		if stock < line.Quantity {
			return nil, fmt.Errorf("%w: %s has %d left", ErrOutOfStock, item.Name, stock)
		}
		t.Items = append(t.Items, item)
		t.TotalCents += item.PriceCents * int64(item.Quantity)
	}
	if t.TotalCents > balance {
		return nil, fmt.Errorf("%w: balance %d, total %d", ErrInsufficientFunds, balance, t.TotalCents)
	}

	for _, item := range t.Items {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ? WHERE id = ?`, item.Quantity, item.ProductID,
		); err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE students SET balance_cents = balance_cents - ? WHERE id = ?`, t.TotalCents, p.StudentID,
	); err != nil {
		return nil, fmt.Errorf("debit balance: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, student_id, vendor_id, vendor_name, total_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.StudentID, t.VendorID, t.VendorName, t.TotalCents, t.Date.UnixMilli(),
	); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	for i, item := range t.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transaction_items (transaction_id, position, product_id, name, quantity, price_cents)
			VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, i, item.ProductID, item.Name, item.Quantity, item.PriceCents,
		); err != nil {
			return nil, fmt.Errorf("insert transaction item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit purchase: %w", err)
	}
	return t, nil
}

func (r *transactionRepo) Get(ctx context.Context, id string) (*Transaction, error) {
	var t Transaction
	var created int64
	query, args := transactionSelect().Where(entsql.EQ("id", id)).Query()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.StudentID, &t.VendorID, &t.VendorName, &t.TotalCents, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query transaction: %w", err)
	}
	t.Date = time.UnixMilli(created).UTC()

	items, err := r.items(ctx, []string{t.ID})
	if err != nil {
		return nil, err
	}
	t.Items = items[t.ID]
	return &t, nil
}

func (r *transactionRepo) List(ctx context.Context, q TransactionQuery) ([]Transaction, error) {
	sel := transactionSelect().OrderBy(entsql.Desc("created_at"), "id")
	if q.StudentID != "" {
		sel.Where(entsql.EQ("student_id", q.StudentID))
	}
	if q.Limit > 0 {
		sel.Limit(q.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	var out []Transaction
	var ids []string
	for rows.Next() {
		var t Transaction
		var created int64
		if err := rows.Scan(&t.ID, &t.StudentID, &t.VendorID, &t.VendorName, &t.TotalCents, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date = time.UnixMilli(created).UTC()
		out = append(out, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (r *transactionRepo) items(ctx context.Context, ids []string) (map[string][]TransactionItem, error) {
	out := make(map[string][]TransactionItem, len(ids))
	for _, id := range ids {
		query, args := builder.Select("product_id", "name", "quantity", "price_cents").
			From(builder.Table(transactionItemsTable.Name)).
			Where(entsql.EQ("transaction_id", id)).
			OrderBy("position").
			Query()
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("query transaction items: %w", err)
		}
		for rows.Next() {
			var it TransactionItem
			if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.PriceCents); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan transaction item: %w", err)
			}
			out[id] = append(out[id], it)
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate transaction items: %w", err)
		}
	}
	return out, nil
}

func transactionSelect() *entsql.Selector {
	return builder.Select("id", "student_id", "vendor_id", "vendor_name", "total_cents", "created_at").
		From(builder.Table(transactionsTable.Name))
}
