package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tapcart/internal/catalog"
	"github.com/abhisek/tapcart/internal/checkout"
	"github.com/abhisek/tapcart/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	vendors := []catalog.Vendor{{
		ID:   "cafe",
		Name: "Campus Cafe",
		Products: []catalog.Product{
			{ID: "latte", VendorID: "cafe", Name: "Latte", PriceCents: 350, Stock: 3},
		},
	}}
	require.NoError(t, st.CatalogRepo().Sync(ctx, vendors))
	require.NoError(t, st.StudentRepo().Upsert(ctx, "S1", "Ada"))
	_, err = st.StudentRepo().TopUp(ctx, "S1", 1000)
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := checkout.NewService(st.StudentRepo(), st.TransactionRepo(), nil, log)
	t.Cleanup(svc.Close)

	srv := NewServer(Deps{
		Catalog:      st.CatalogRepo(),
		Students:     st.StudentRepo(),
		Transactions: st.TransactionRepo(),
		Checkout:     svc,
		MaxQuantity:  100,
		Log:          log,
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, st
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postCheckout(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url+"/api/checkout", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestVendors(t *testing.T) {
	ts, _ := newTestServer(t)

	var vendors []catalog.Vendor
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/vendors", &vendors))
	require.Len(t, vendors, 1)
	assert.Equal(t, "Latte", vendors[0].Products[0].Name)

	var v catalog.Vendor
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/vendors/cafe", &v))
	assert.Equal(t, "Campus Cafe", v.Name)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/vendors/nope", nil))
}

func TestCheckoutFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	code, body := postCheckout(t, ts.URL, `{"vendorId":"cafe","identifier":"S1","items":[{"productId":"latte","quantity":2}]}`)
	require.Equal(t, http.StatusCreated, code, "body: %v", body)
	assert.EqualValues(t, 700, body["totalCents"])

	var student struct {
		BalanceCents int64               `json:"balanceCents"`
		Recent       []store.Transaction `json:"recent"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/students/S1", &student))
	assert.Equal(t, int64(300), student.BalanceCents)
	require.Len(t, student.Recent, 1)
	assert.Equal(t, "Latte", student.Recent[0].Items[0].Name)

	var txs []store.Transaction
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/transactions?limit=5", &txs))
	assert.Len(t, txs, 1)
}

func TestCheckoutErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"unknown vendor", `{"vendorId":"x","identifier":"S1","items":[]}`, http.StatusNotFound},
		{"unknown product", `{"vendorId":"cafe","identifier":"S1","items":[{"productId":"mocha","quantity":1}]}`, http.StatusBadRequest},
		{"empty cart", `{"vendorId":"cafe","identifier":"S1","items":[]}`, http.StatusBadRequest},
		{"unknown student", `{"vendorId":"cafe","identifier":"S9","items":[{"productId":"latte","quantity":1}]}`, http.StatusNotFound},
		{"insufficient funds", `{"vendorId":"cafe","identifier":"S1","items":[{"productId":"latte","quantity":3}]}`, http.StatusPaymentRequired},
		{"quantity above stock", `{"vendorId":"cafe","identifier":"S1","items":[{"productId":"latte","quantity":5}]}`, http.StatusConflict},
		{"zero quantity", `{"vendorId":"cafe","identifier":"S1","items":[{"productId":"latte","quantity":0}]}`, http.StatusBadRequest},
		{"negative quantity", `{"vendorId":"cafe","identifier":"S1","items":[{"productId":"latte","quantity":-2}]}`, http.StatusBadRequest},
		{"duplicate line", `{"vendorId":"cafe","identifier":"S1","items":[{"productId":"latte","quantity":1},{"productId":"latte","quantity":1}]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t)
			code, body := postCheckout(t, ts.URL, tt.body)
			assert.Equal(t, tt.want, code, "body: %v", body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCheckoutRejectsOverStockWithoutCharging(t *testing.T) {
	ts, st := newTestServer(t)

	code, body := postCheckout(t, ts.URL, `{"vendorId":"cafe","identifier":"S1","items":[{"productId":"latte","quantity":5}]}`)
	require.Equal(t, http.StatusConflict, code, "body: %v", body)
	assert.Contains(t, body["error"], "3 left")

	s, err := st.StudentRepo().Get(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), s.BalanceCents)
	v, err := st.CatalogRepo().Vendor(context.Background(), "cafe")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Products[0].Stock)
}

func TestTransactionsBadLimit(t *testing.T) {
	ts, _ := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/transactions?limit=-1", nil))
}
