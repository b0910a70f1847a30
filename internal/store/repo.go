package store

import (
	"context"
	"time"

	"github.com/abhisek/tapcart/internal/catalog"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// CatalogRepo persists vendors and their products.
type CatalogRepo interface {
	// Sync upserts vendors and products, overwriting stock with the given values.
	Sync(ctx context.Context, vendors []catalog.Vendor) error

	// Vendors returns every vendor with its products, in catalog order.
	Vendors(ctx context.Context) ([]catalog.Vendor, error)

	// Vendor returns one vendor or ErrNotFound.
	Vendor(ctx context.Context, id string) (catalog.Vendor, error)
}

// Student is a prepaid campus account keyed by the identifier printed or
// encoded on the student card.
type Student struct {
	ID           string
	Name         string
	BalanceCents int64
	CreatedAt    time.Time
}

// StudentRepo manages student accounts.
type StudentRepo interface {
	// Upsert creates the student or updates the name, leaving the balance alone.
	Upsert(ctx context.Context, id, name string) error

	// Get returns the student or ErrNotFound.
	Get(ctx context.Context, id string) (*Student, error)

	// TopUp adds cents to the balance and returns the new balance.
	TopUp(ctx context.Context, id string, cents int64) (int64, error)

	// List returns every student ordered by ID.
	List(ctx context.Context) ([]Student, error)
}

// TransactionItem is one purchased line, frozen at sale time.
type TransactionItem struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"priceCents"`
}

// Transaction is a completed purchase.
type Transaction struct {
	ID         string            `json:"id"`
	StudentID  string            `json:"studentId"`
	VendorID   string            `json:"vendorId"`
	VendorName string            `json:"vendorName"`
	Date       time.Time         `json:"date"`
	Items      []TransactionItem `json:"items"`
	TotalCents int64             `json:"totalCents"`
}

// PurchaseLine asks for a quantity of one product.
type PurchaseLine struct {
	ProductID string
	Quantity  int
}

// Purchase is a checkout request. Names and prices are read from the
// products table, not trusted from the caller.
type Purchase struct {
	ID        string
	StudentID string
	VendorID  string
	Date      time.Time
	Lines     []PurchaseLine
}

// TransactionQuery filters transaction listings.
type TransactionQuery struct {
	StudentID string
	Limit     int
}

// TransactionRepo records and lists purchases.
type TransactionRepo interface {
	// Record debits the student, decrements stock and stores the transaction
	// atomically. It fails with ErrNotFound, ErrInsufficientFunds or
	// ErrOutOfStock and then changes nothing.
	Record(ctx context.Context, p Purchase) (*Transaction, error)

	// Get returns one transaction or ErrNotFound.
	Get(ctx context.Context, id string) (*Transaction, error)

	// List returns transactions newest first.
	List(ctx context.Context, q TransactionQuery) ([]Transaction, error)
}

// ScanEventData is a terminal scan outcome to log.
type ScanEventData struct {
	Source    string // "camera", "nfc" or "manual"
	SessionID uint64
	Status    string
	Result    string
	Error     string
}

// ScanEvent is a logged scan outcome.
type ScanEvent struct {
	Sequence  int64
	Timestamp time.Time
	ScanEventData
}

// ScanEventRepo is the append-only scan event log.
type ScanEventRepo interface {
	// Append records an outcome under the next global sequence number.
	Append(ctx context.Context, data ScanEventData) error

	// Query returns events ordered by sequence.
	Query(ctx context.Context, opts QueryOpts) ([]ScanEvent, error)

	// Prune deletes events recorded before cutoff and returns how many went.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
