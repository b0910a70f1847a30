package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entannotation "entgo.io/ent/dialect/entsql"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	vendorsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Default: ""},
		{Name: "image", Type: field.TypeString, Default: ""},
		{Name: "image_hint", Type: field.TypeString, Default: ""},
		{Name: "telegram_chat_id", Type: field.TypeInt64, Default: 0},
		{Name: "position", Type: field.TypeInt, Default: 0},
	}
	vendorsTable = &schema.Table{
		Name:       "vendors",
		Columns:    vendorsColumns,
		PrimaryKey: []*schema.Column{vendorsColumns[0]},
	}

	productsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "vendor_id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "price_cents", Type: field.TypeInt64},
		{Name: "stock", Type: field.TypeInt},
		{Name: "image", Type: field.TypeString, Default: ""},
		{Name: "image_hint", Type: field.TypeString, Default: ""},
		{Name: "position", Type: field.TypeInt, Default: 0},
	}
	productsTable = &schema.Table{
		Name:       "products",
		Columns:    productsColumns,
		PrimaryKey: []*schema.Column{productsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "products_vendors_products",
			Columns:    []*schema.Column{productsColumns[1]},
			RefColumns: []*schema.Column{vendorsColumns[0]},
			OnDelete:   schema.Cascade,
		}},
		Indexes: []*schema.Index{{
			Name:    "products_vendor",
			Columns: []*schema.Column{productsColumns[1], productsColumns[7]},
		}},
		Annotation: &entannotation.Annotation{Checks: map[string]string{
			"products_price_nonneg": "price_cents >= 0",
			"products_stock_nonneg": "stock >= 0",
		}},
	}

	studentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString, Default: ""},
		{Name: "balance_cents", Type: field.TypeInt64, Default: 0},
		{Name: "created_at", Type: field.TypeInt64},
	}
	studentsTable = &schema.Table{
		Name:       "students",
		Columns:    studentsColumns,
		PrimaryKey: []*schema.Column{studentsColumns[0]},
		Annotation: &entannotation.Annotation{Checks: map[string]string{
			"students_balance_nonneg": "balance_cents >= 0",
		}},
	}

	transactionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "student_id", Type: field.TypeString},
		{Name: "vendor_id", Type: field.TypeString},
		{Name: "vendor_name", Type: field.TypeString},
		{Name: "total_cents", Type: field.TypeInt64},
		{Name: "created_at", Type: field.TypeInt64},
	}
	transactionsTable = &schema.Table{
		Name:       "transactions",
		Columns:    transactionsColumns,
		PrimaryKey: []*schema.Column{transactionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "transactions_students_transactions",
			Columns:    []*schema.Column{transactionsColumns[1]},
			RefColumns: []*schema.Column{studentsColumns[0]},
			OnDelete:   schema.NoAction,
		}},
		Indexes: []*schema.Index{
			{Name: "transactions_created", Columns: []*schema.Column{transactionsColumns[5]}},
			{Name: "transactions_student", Columns: []*schema.Column{transactionsColumns[1], transactionsColumns[5]}},
		},
	}

	transactionItemsColumns = []*schema.Column{
		{Name: "transaction_id", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt},
		{Name: "product_id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "quantity", Type: field.TypeInt},
		{Name: "price_cents", Type: field.TypeInt64},
	}
	transactionItemsTable = &schema.Table{
		Name:       "transaction_items",
		Columns:    transactionItemsColumns,
		PrimaryKey: []*schema.Column{transactionItemsColumns[0], transactionItemsColumns[1]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "transaction_items_transactions_items",
			Columns:    []*schema.Column{transactionItemsColumns[0]},
			RefColumns: []*schema.Column{transactionsColumns[0]},
			OnDelete:   schema.Cascade,
		}},
		Annotation: &entannotation.Annotation{Checks: map[string]string{
			"transaction_items_quantity_pos": "quantity > 0",
		}},
	}

	scanEventsColumns = []*schema.Column{
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "source", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeInt64},
		{Name: "status", Type: field.TypeString},
		{Name: "result", Type: field.TypeString, Default: ""},
		{Name: "error", Type: field.TypeString, Default: ""},
	}
	scanEventsTable = &schema.Table{
		Name:       "scan_events",
		Columns:    scanEventsColumns,
		PrimaryKey: []*schema.Column{scanEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "scan_events_created", Columns: []*schema.Column{scanEventsColumns[1]}},
		},
	}

	globalSequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	globalSequenceTable = &schema.Table{
		Name:       "global_sequence",
		Columns:    globalSequenceColumns,
		PrimaryKey: []*schema.Column{globalSequenceColumns[0]},
		Annotation: &entannotation.Annotation{Checks: map[string]string{
			"global_sequence_singleton": "id = 1",
		}},
	}

	// tables lists every table in dependency order.
	tables = []*schema.Table{
		vendorsTable,
		productsTable,
		studentsTable,
		transactionsTable,
		transactionItemsTable,
		scanEventsTable,
		globalSequenceTable,
	}
)

func init() {
	productsTable.ForeignKeys[0].RefTable = vendorsTable
	transactionsTable.ForeignKeys[0].RefTable = studentsTable
	transactionItemsTable.ForeignKeys[0].RefTable = transactionsTable
}

// migrate brings the database schema up to date and seeds the singleton
// sequence row. Columns and indexes are never dropped.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv, schema.WithForeignKeys(true))
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	query, args := builder.Insert(globalSequenceTable.Name).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()
	if err := drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("seed sequence: %w", err)
	}
	return nil
}
