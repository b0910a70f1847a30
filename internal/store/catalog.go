package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abhisek/tapcart/internal/catalog"
)

type catalogRepo struct {
	db *sql.DB
}

func (r *catalogRepo) Sync(ctx context.Context, vendors []catalog.Vendor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog sync: %w", err)
	}
	defer tx.Rollback()

	for vi, v := range vendors {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO vendors (id, name, description, image, image_hint, telegram_chat_id, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				image = excluded.image,
				image_hint = excluded.image_hint,
				telegram_chat_id = excluded.telegram_chat_id,
				position = excluded.position`,
			v.ID, v.Name, v.Description, v.Image, v.ImageHint, v.TelegramChatID, vi)
		if err != nil {
			return fmt.Errorf("upsert vendor %s: %w", v.ID, err)
		}

		for pi, p := range v.Products {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO products (id, vendor_id, name, price_cents, stock, image, image_hint, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					vendor_id = excluded.vendor_id,
					name = excluded.name,
					price_cents = excluded.price_cents,
					stock = excluded.stock,
					image = excluded.image,
					image_hint = excluded.image_hint,
					position = excluded.position`,
				p.ID, v.ID, p.Name, p.PriceCents, p.Stock, p.Image, p.ImageHint, pi)
			if err != nil {
				return fmt.Errorf("upsert product %s: %w", p.ID, err)
			}
		}
	}
	return tx.Commit()
}

func (r *catalogRepo) Vendors(ctx context.Context) ([]catalog.Vendor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, image, image_hint, telegram_chat_id
		FROM vendors ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("query vendors: %w", err)
	}
	var vendors []catalog.Vendor
	for rows.Next() {
		var v catalog.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Description, &v.Image, &v.ImageHint, &v.TelegramChatID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendors: %w", err)
	}

	for i := range vendors {
		vendors[i].Products, err = r.products(ctx, vendors[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return vendors, nil
}

func (r *catalogRepo) Vendor(ctx context.Context, id string) (catalog.Vendor, error) {
	var v catalog.Vendor
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, image, image_hint, telegram_chat_id
		FROM vendors WHERE id = ?`, id,
	).Scan(&v.ID, &v.Name, &v.Description, &v.Image, &v.ImageHint, &v.TelegramChatID)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Vendor{}, fmt.Errorf("vendor %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return catalog.Vendor{}, fmt.Errorf("query vendor: %w", err)
	}
	v.Products, err = r.products(ctx, id)
	if err != nil {
		return catalog.Vendor{}, err
	}
	return v, nil
}

func (r *catalogRepo) products(ctx context.Context, vendorID string) ([]catalog.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, vendor_id, name, price_cents, stock, image, image_hint
		FROM products WHERE vendor_id = ? ORDER BY position, id`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.VendorID, &p.Name, &p.PriceCents, &p.Stock, &p.Image, &p.ImageHint); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
