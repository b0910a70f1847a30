// Package api serves the storefront over JSON HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/tapcart/internal/cart"
	"github.com/abhisek/tapcart/internal/catalog"
	"github.com/abhisek/tapcart/internal/checkout"
	"github.com/abhisek/tapcart/internal/store"
)

// Checkouter is the part of checkout.Service the API needs.
type Checkouter interface {
	Checkout(ctx context.Context, identifier string, c *cart.Cart) (*store.Transaction, error)
}

// Server holds the handler dependencies.
type Server struct {
	catalog      store.CatalogRepo
	students     store.StudentRepo
	transactions store.TransactionRepo
	checkout     Checkouter
	maxQuantity  int
	log          logrus.FieldLogger
}

// Deps are the collaborators of a Server.
type Deps struct {
	Catalog      store.CatalogRepo
	Students     store.StudentRepo
	Transactions store.TransactionRepo
	Checkout     Checkouter
	MaxQuantity  int
	Log          logrus.FieldLogger
}

// NewServer creates a Server.
func NewServer(d Deps) *Server {
	return &Server{
		catalog:      d.Catalog,
		students:     d.Students,
		transactions: d.Transactions,
		checkout:     d.Checkout,
		maxQuantity:  d.MaxQuantity,
		log:          d.Log.WithField("component", "api"),
	}
}

// Router returns the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/vendors", s.listVendors).Methods("GET")
	api.HandleFunc("/vendors/{id}", s.getVendor).Methods("GET")
	api.HandleFunc("/transactions", s.listTransactions).Methods("GET")
	api.HandleFunc("/students/{id}", s.getStudent).Methods("GET")
	api.HandleFunc("/checkout", s.postCheckout).Methods("POST")
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := s.catalog.Vendors(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if vendors == nil {
		vendors = []catalog.Vendor{}
	}
	writeJSON(w, http.StatusOK, vendors)
}

func (s *Server) getVendor(w http.ResponseWriter, r *http.Request) {
	v, err := s.catalog.Vendor(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := store.TransactionQuery{Limit: 50, StudentID: r.URL.Query().Get("student")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		q.Limit = n
	}
	txs, err := s.transactions.List(r.Context(), q)
	if err != nil {
		s.fail(w, err)
		return
	}
	if txs == nil {
		txs = []store.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

type studentResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	BalanceCents int64               `json:"balanceCents"`
	Recent       []store.Transaction `json:"recent"`
}

func (s *Server) getStudent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	st, err := s.students.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	recent, err := s.transactions.List(r.Context(), store.TransactionQuery{StudentID: id, Limit: 10})
	if err != nil {
		s.fail(w, err)
		return
	}
	if recent == nil {
		recent = []store.Transaction{}
	}
	writeJSON(w, http.StatusOK, studentResponse{ID: st.ID, Name: st.Name, BalanceCents: st.BalanceCents, Recent: recent})
}

type checkoutRequest struct {
	VendorID   string `json:"vendorId"`
	Identifier string `json:"identifier"`
	Items      []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

func (s *Server) postCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	vendor, err := s.catalog.Vendor(r.Context(), req.VendorID)
	if err != nil {
		s.fail(w, err)
		return
	}
	c := cart.New(vendor, s.maxQuantity)
	for _, it := range req.Items {
		p, err := vendor.Product(it.ProductID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if it.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("quantity for %s must be positive", p.ID))
			return
		}
		if c.Quantity(p.ID) > 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s listed more than once", p.ID))
			return
		}
		// The cart clamps; an order is taken as sent or not at all.
		got, err := c.SetQuantity(p, it.Quantity)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if got != it.Quantity {
			if it.Quantity > p.Stock {
				writeError(w, http.StatusConflict, fmt.Sprintf("%s: %s has %d left", checkout.ErrOutOfStock, p.Name, p.Stock))
			} else {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("quantity for %s exceeds the per-item limit of %d", p.ID, c.Limit(p)))
			}
			return
		}
	}

	tx, err := s.checkout.Checkout(r.Context(), req.Identifier, c)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// fail maps domain errors to status codes and hides everything else.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, checkout.ErrUnknownStudent):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, checkout.ErrInsufficientFunds.Error())
	case errors.Is(err, checkout.ErrOutOfStock):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
