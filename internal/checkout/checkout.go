// Package checkout turns a scanned student identifier and a cart into a
// recorded purchase.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/tapcart/internal/cart"
	"github.com/abhisek/tapcart/internal/notify"
	"github.com/abhisek/tapcart/internal/store"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrUnknownStudent    = errors.New("no student account for this ID")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrOutOfStock        = errors.New("not enough stock")
)

const receiptTimeout = 10 * time.Second

// Service performs checkouts.
type Service struct {
	students     store.StudentRepo
	transactions store.TransactionRepo
	receipts     notify.ReceiptSender
	log          logrus.FieldLogger

	now   func() time.Time
	newID func() string

	pending sync.WaitGroup
}

// NewService creates a Service. A nil sender disables receipts.
func NewService(students store.StudentRepo, transactions store.TransactionRepo, receipts notify.ReceiptSender, log logrus.FieldLogger) *Service {
	if receipts == nil {
		receipts = notify.Nop{}
	}
	return &Service{
		students:     students,
		transactions: transactions,
		receipts:     receipts,
		log:          log.WithField("component", "checkout"),
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
	}
}

// Checkout charges the student identified by identifier for the cart. On
// success the cart is cleared and a receipt is sent to the vendor in the
// background; receipt failures are only logged.
func (s *Service) Checkout(ctx context.Context, identifier string, c *cart.Cart) (*store.Transaction, error) {
	id := strings.TrimSpace(identifier)
	if c == nil || c.Empty() {
		return nil, ErrEmptyCart
	}
	if id == "" {
		return nil, ErrUnknownStudent
	}

	if _, err := s.students.Get(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStudent, id)
		}
		return nil, err
	}

	vendor := c.Vendor()
	p := store.Purchase{
		ID:        s.newID(),
		StudentID: id,
		VendorID:  vendor.ID,
		Date:      s.now(),
	}
	for _, it := range c.Items() {
		p.Lines = append(p.Lines, store.PurchaseLine{ProductID: it.Product.ID, Quantity: it.Quantity})
	}

	tx, err := s.transactions.Record(ctx, p)
	switch {
	case errors.Is(err, store.ErrInsufficientFunds):
		return nil, fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	case errors.Is(err, store.ErrOutOfStock):
		return nil, fmt.Errorf("%w: %w", ErrOutOfStock, err)
	case err != nil:
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"transaction": tx.ID,
		"vendor":      tx.VendorID,
		"total_cents": tx.TotalCents,
	}).Info("checkout complete")

	c.Clear()
	if vendor.TelegramChatID != 0 {
		s.sendReceipt(vendor.TelegramChatID, tx)
	}
	return tx, nil
}

func (s *Service) sendReceipt(chatID int64, tx *store.Transaction) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), receiptTimeout)
		defer cancel()
		if err := s.receipts.SendReceipt(ctx, chatID, tx); err != nil {
			s.log.WithError(err).WithField("transaction", tx.ID).Warn("receipt not delivered")
		}
	}()
}

// Close waits for in-flight receipts.
func (s *Service) Close() {
	s.pending.Wait()
}
