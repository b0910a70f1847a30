package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/tapcart/internal/catalog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testVendors = []catalog.Vendor{
	{
		ID:             "cafe",
		Name:           "Campus Cafe",
		TelegramChatID: 42,
		Products: []catalog.Product{
			{ID: "latte", VendorID: "cafe", Name: "Latte", PriceCents: 350, Stock: 10},
			{ID: "bagel", VendorID: "cafe", Name: "Bagel", PriceCents: 200, Stock: 1},
		},
	},
	{
		ID:   "grill",
		Name: "Quad Grill",
		Products: []catalog.Product{
			{ID: "fries", VendorID: "grill", Name: "Fries", PriceCents: 300, Stock: 5},
		},
	},
}

// seededStore returns a store with testVendors and student S1 holding $10.
func seededStore(t *testing.T) *Store {
	t.Helper()
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.CatalogRepo().Sync(ctx, testVendors); err != nil {
		t.Fatalf("sync catalog: %v", err)
	}
	if err := s.StudentRepo().Upsert(ctx, "S1", "Ada"); err != nil {
		t.Fatalf("upsert student: %v", err)
	}
	if _, err := s.StudentRepo().TopUp(ctx, "S1", 1000); err != nil {
		t.Fatalf("top up: %v", err)
	}
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpenFileDatabaseUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tapcart.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	ctx := context.Background()
	if err := s.StudentRepo().Upsert(ctx, "S1", "Ada"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.ScanEventRepo().Append(ctx, ScanEventData{Source: "nfc", SessionID: 1, Status: "success", Result: "S1"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Reopening migrates an up-to-date schema without touching rows or the sequence.
	s.Close()
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.StudentRepo().Get(ctx, "S1"); err != nil {
		t.Errorf("student lost across reopen: %v", err)
	}
	if err := s.ScanEventRepo().Append(ctx, ScanEventData{Source: "camera", SessionID: 2, Status: "success", Result: "S1"}); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	events, err := s.ScanEventRepo().Query(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 || events[0].Sequence != 1 || events[1].Sequence != 2 {
		t.Errorf("events after reopen = %+v, want sequences 1 and 2", events)
	}
}

func TestSchemaCreatesEveryTable(t *testing.T) {
	s := openTestStore(t)
	for _, table := range tables {
		var n int
		err := s.DB().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table.Name).Scan(&n)
		if err != nil {
			t.Fatalf("lookup %s: %v", table.Name, err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table.Name)
		}
	}

	var next int64
	if err := s.DB().QueryRow("SELECT next_val FROM global_sequence WHERE id = 1").Scan(&next); err != nil {
		t.Fatalf("sequence row: %v", err)
	}
	if next != 1 {
		t.Errorf("next_val = %d, want 1", next)
	}
}

func TestSchemaRejectsNegativeStock(t *testing.T) {
	s := seededStore(t)
	_, err := s.DB().Exec("UPDATE products SET stock = -1 WHERE id = 'latte'")
	if err == nil {
		t.Fatal("negative stock accepted")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	drv := entsql.OpenDB(dialect.SQLite, s.DB())
	if err := migrate(ctx, drv); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	v, err := s.CatalogRepo().Vendor(ctx, "cafe")
	if err != nil {
		t.Fatalf("vendor after migrate: %v", err)
	}
	if len(v.Products) != 2 {
		t.Errorf("products after migrate = %d, want 2", len(v.Products))
	}
}

func TestCatalogSyncAndLoad(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	repo := s.CatalogRepo()

	vendors, err := repo.Vendors(ctx)
	if err != nil {
		t.Fatalf("vendors: %v", err)
	}
	if len(vendors) != 2 || vendors[0].ID != "cafe" || vendors[1].ID != "grill" {
		t.Fatalf("vendors = %+v", vendors)
	}
	if got := len(vendors[0].Products); got != 2 {
		t.Fatalf("cafe products = %d, want 2", got)
	}
	if vendors[0].Products[0].ID != "latte" {
		t.Errorf("first product = %s, want latte", vendors[0].Products[0].ID)
	}
	if vendors[0].TelegramChatID != 42 {
		t.Errorf("telegram chat = %d, want 42", vendors[0].TelegramChatID)
	}

	// Re-sync updates in place.
	changed := []catalog.Vendor{testVendors[0]}
	changed[0].Name = "Cafe 2"
	if err := repo.Sync(ctx, changed); err != nil {
		t.Fatalf("resync: %v", err)
	}
	v, err := repo.Vendor(ctx, "cafe")
	if err != nil {
		t.Fatalf("vendor: %v", err)
	}
	if v.Name != "Cafe 2" {
		t.Errorf("name = %q, want Cafe 2", v.Name)
	}

	if _, err := repo.Vendor(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing vendor err = %v, want ErrNotFound", err)
	}
}

func TestStudentTopUp(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	repo := s.StudentRepo()

	bal, err := repo.TopUp(ctx, "S1", 250)
	if err != nil {
		t.Fatalf("top up: %v", err)
	}
	if bal != 1250 {
		t.Errorf("balance = %d, want 1250", bal)
	}

	if _, err := repo.TopUp(ctx, "nobody", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown student err = %v", err)
	}

	// Upsert keeps the balance.
	if err := repo.Upsert(ctx, "S1", "Ada L."); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	st, err := repo.Get(ctx, "S1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.Name != "Ada L." || st.BalanceCents != 1250 {
		t.Errorf("student = %+v", st)
	}
}

func TestRecordPurchase(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tx, err := s.TransactionRepo().Record(ctx, Purchase{
		ID:        "t1",
		StudentID: "S1",
		VendorID:  "cafe",
		Date:      now,
		Lines:     []PurchaseLine{{ProductID: "latte", Quantity: 2}, {ProductID: "bagel", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if tx.TotalCents != 900 {
		t.Errorf("total = %d, want 900", tx.TotalCents)
	}
	if tx.VendorName != "Campus Cafe" {
		t.Errorf("vendor name = %q", tx.VendorName)
	}

	st, _ := s.StudentRepo().Get(ctx, "S1")
	if st.BalanceCents != 100 {
		t.Errorf("balance = %d, want 100", st.BalanceCents)
	}
	v, _ := s.CatalogRepo().Vendor(ctx, "cafe")
	if v.Products[0].Stock != 8 || v.Products[1].Stock != 0 {
		t.Errorf("stock = %d/%d, want 8/0", v.Products[0].Stock, v.Products[1].Stock)
	}

	got, err := s.TransactionRepo().Get(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Date.Equal(now) {
		t.Errorf("date = %v, want %v", got.Date, now)
	}
	if len(got.Items) != 2 || got.Items[0].Name != "Latte" || got.Items[0].Quantity != 2 {
		t.Errorf("items = %+v", got.Items)
	}
}

func TestRecordPurchaseFailuresChangeNothing(t *testing.T) {
	tests := []struct {
		name    string
		p       Purchase
		wantErr error
	}{
		{"unknown student", Purchase{ID: "x", StudentID: "S9", VendorID: "cafe", Lines: []PurchaseLine{{"latte", 1}}}, ErrNotFound},
		{"out of stock", Purchase{ID: "x", StudentID: "S1", VendorID: "cafe", Lines: []PurchaseLine{{"bagel", 2}}}, ErrOutOfStock},
		{"insufficient funds", Purchase{ID: "x", StudentID: "S1", VendorID: "cafe", Lines: []PurchaseLine{{"latte", 3}, {"bagel", 1}}}, ErrInsufficientFunds},
		{"other vendor's product", Purchase{ID: "x", StudentID: "S1", VendorID: "cafe", Lines: []PurchaseLine{{"fries", 1}}}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seededStore(t)
			ctx := context.Background()
			tt.p.Date = time.Now()

			_, err := s.TransactionRepo().Record(ctx, tt.p)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}

			st, _ := s.StudentRepo().Get(ctx, "S1")
			if st.BalanceCents != 1000 {
				t.Errorf("balance = %d, want 1000", st.BalanceCents)
			}
			list, _ := s.TransactionRepo().List(ctx, TransactionQuery{})
			if len(list) != 0 {
				t.Errorf("transactions = %d, want 0", len(list))
			}
		})
	}
}

func TestListTransactions(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	repo := s.TransactionRepo()
	if err := s.StudentRepo().Upsert(ctx, "S2", "Grace"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.StudentRepo().TopUp(ctx, "S2", 1000); err != nil {
		t.Fatal(err)
	}

	base := time.Now().UTC()
	for i, student := range []string{"S1", "S2", "S1"} {
		_, err := repo.Record(ctx, Purchase{
			ID:        fmt.Sprintf("t%d", i),
			StudentID: student,
			VendorID:  "grill",
			Date:      base.Add(time.Duration(i) * time.Minute),
			Lines:     []PurchaseLine{{ProductID: "fries", Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	all, err := repo.List(ctx, TransactionQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "t2" {
		t.Fatalf("list = %+v", all)
	}
	if len(all[0].Items) != 1 {
		t.Errorf("items not loaded: %+v", all[0])
	}

	mine, _ := repo.List(ctx, TransactionQuery{StudentID: "S1", Limit: 1})
	if len(mine) != 1 || mine[0].ID != "t2" {
		t.Errorf("filtered list = %+v", mine)
	}
}

func TestScanEventsAppendQueryPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.ScanEventRepo()

	for i := 0; i < 5; i++ {
		err := repo.Append(ctx, ScanEventData{Source: "nfc", SessionID: uint64(i + 1), Status: "success", Result: "S1"})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := repo.Query(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for i, e := range events {
		if e.Sequence != int64(i+1) {
			t.Errorf("seq[%d] = %d, want %d", i, e.Sequence, i+1)
		}
	}

	page, _ := repo.Query(ctx, QueryOpts{After: 2, Limit: 2})
	if len(page) != 2 || page[0].Sequence != 3 {
		t.Errorf("page = %+v", page)
	}

	n, err := repo.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 5 {
		t.Errorf("pruned = %d, want 5", n)
	}

	// Sequence keeps increasing after a prune.
	if err := repo.Append(ctx, ScanEventData{Source: "camera", Status: "error"}); err != nil {
		t.Fatal(err)
	}
	events, _ = repo.Query(ctx, QueryOpts{})
	if len(events) != 1 || events[0].Sequence != 6 {
		t.Errorf("after prune = %+v", events)
	}
}

func TestReset(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	if err := s.ScanEventRepo().Append(ctx, ScanEventData{Source: "nfc", Status: "success"}); err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	vendors, _ := s.CatalogRepo().Vendors(ctx)
	students, _ := s.StudentRepo().List(ctx)
	events, _ := s.ScanEventRepo().Query(ctx, QueryOpts{})
	if len(vendors)+len(students)+len(events) != 0 {
		t.Errorf("left behind %d vendors, %d students, %d events", len(vendors), len(students), len(events))
	}
}
