package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kartverse/shopfront/internal/domain/cart"
	"github.com/kartverse/shopfront/internal/domain/checkout"
	"github.com/kartverse/shopfront/internal/domain/order"
	"github.com/kartverse/shopfront/internal/domain/product"
	"github.com/kartverse/shopfront/internal/session"
)

// --- Mock implementations ---

type stubCatalog struct {
	bySlug map[string]product.Product
}

func (s *stubCatalog) List(_ context.Context, f product.Filter) ([]product.Product, error) {
	var out []product.Product
	for _, p := range s.bySlug {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.OnlyAvailable && !p.Available {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubCatalog) GetBySlug(_ context.Context, slug string) (*product.Product, error) {
	p, ok := s.bySlug[slug]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (s *stubCatalog) GetBySlugs(_ context.Context, slugs []string) ([]product.Product, error) {
	var out []product.Product
	for _, slug := range slugs {
		if p, ok := s.bySlug[slug]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubCatalog) ListCategories(_ context.Context) ([]product.Category, error) {
	return []product.Category{{Slug: "mugs", Name: "Mugs"}}, nil
}

// memOrderRepo mirrors the compare-and-set semantics of the real repository.
type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*order.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*order.Order)}
}

func (m *memOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrderRepo) UpdateStatus(_ context.Context, id string, from, to order.Status) error {
	if !from.CanTransition(to) {
		return order.ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != from {
		return order.ErrInvalidTransition
	}
	o.Status = to
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Send(context.Context, string, string, []string) error { return nil }

// --- Test server ---

type testServer struct {
	srv    *httptest.Server
	client *http.Client
	orders *memOrderRepo
}

func newTestServer(t *testing.T, products ...product.Product) *testServer {
	t.Helper()

	bySlug := make(map[string]product.Product, len(products))
	for _, p := range products {
		bySlug[p.Slug] = p
	}
	catalog := &stubCatalog{bySlug: bySlug}

	carts := cart.NewManager(session.NewMemoryStore(), catalog)
	orders := newMemOrderRepo()
	coordinator := checkout.NewCoordinator(
		carts, orders, nopNotifier{}, []string{"admin@example.com"}, zap.NewNop(),
	)

	h := New(Config{}, catalog, carts, coordinator, orders, zap.NewNop())
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testServer{
		srv:    srv,
		client: &http.Client{Jar: jar},
		orders: orders,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func pricedProduct(slug, price string) product.Product {
	return product.Product{
		Slug:      slug,
		Name:      slug,
		Price:     decimal.NewNullDecimal(decimal.RequireFromString(price)),
		Category:  "mugs",
		Available: true,
	}
}

func validCheckoutForm() map[string]string {
	return map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
		"phone":      "+1234567890",
	}
}

// --- Tests ---

func TestGetProduct(t *testing.T) {
	ts := newTestServer(t, pricedProduct("gopher-mug", "12.50"))

	resp, body := ts.do(t, http.MethodGet, "/api/products/gopher-mug", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var p struct {
		Slug  string   `json:"slug"`
		Price *float64 `json:"price"`
	}
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "gopher-mug", p.Slug)
	require.NotNil(t, p.Price)
	assert.InDelta(t, 12.50, *p.Price, 0.001)
}

func TestGetProduct_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/api/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPutCartItem_InvalidQuantity(t *testing.T) {
	ts := newTestServer(t, pricedProduct("gopher-mug", "12.50"))

	for _, qty := range []int{0, -3, 1000} {
		resp, _ := ts.do(t, http.MethodPut, "/api/cart/items/gopher-mug",
			map[string]int{"quantity": qty})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "quantity %d", qty)
	}
}

func TestCartFlow(t *testing.T) {
	ts := newTestServer(t, pricedProduct("gopher-mug", "12.50"))

	resp, body := ts.do(t, http.MethodPut, "/api/cart/items/gopher-mug",
		map[string]int{"quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var mut struct {
		Items int `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &mut))
	assert.Equal(t, 1, mut.Items)

	resp, body = ts.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary struct {
		Entries map[string]int `json:"entries"`
		Lines   []struct {
			Slug      string  `json:"slug"`
			Quantity  int     `json:"quantity"`
			LineTotal float64 `json:"line_total"`
		} `json:"lines"`
		Total float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, map[string]int{"gopher-mug": 2}, summary.Entries)
	require.Len(t, summary.Lines, 1)
	assert.InDelta(t, 25.0, summary.Lines[0].LineTotal, 0.001)
	assert.InDelta(t, 25.0, summary.Total, 0.001)
}

func TestDeleteCartItem_AbsentIsWarning(t *testing.T) {
	ts := newTestServer(t, pricedProduct("gopher-mug", "12.50"))

	_, _ = ts.do(t, http.MethodPut, "/api/cart/items/gopher-mug", map[string]int{"quantity": 1})

	resp, body := ts.do(t, http.MethodDelete, "/api/cart/items/not-in-cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var mut struct {
		Items   int    `json:"items"`
		Warning string `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(body, &mut))
	assert.NotEmpty(t, mut.Warning)
	assert.Equal(t, 1, mut.Items)
}

func TestCheckout_EmptyCart(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPost, "/api/checkout", validCheckoutForm())
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCheckout_InvalidForm(t *testing.T) {
	ts := newTestServer(t, pricedProduct("gopher-mug", "12.50"))
	_, _ = ts.do(t, http.MethodPut, "/api/cart/items/gopher-mug", map[string]int{"quantity": 1})

	form := validCheckoutForm()
	form["email"] = "bogus"

	resp, body := ts.do(t, http.MethodPost, "/api/checkout", form)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var errResp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Contains(t, errResp.Fields, "email")
}

func TestCheckout_Success(t *testing.T) {
	ts := newTestServer(t, pricedProduct("gopher-mug", "12.50"))
	_, _ = ts.do(t, http.MethodPut, "/api/cart/items/gopher-mug", map[string]int{"quantity": 2})

	resp, body := ts.do(t, http.MethodPost, "/api/checkout", validCheckoutForm())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var res struct {
		OrderID string `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	require.NotEmpty(t, res.OrderID)

	o, err := ts.orders.GetByID(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusWaiting, o.Status)
	assert.True(t, decimal.RequireFromString("25.00").Equal(o.Price))

	// The cart is cleared after the commit.
	resp, body = ts.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary struct {
		Entries map[string]int `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Empty(t, summary.Entries)
}

func TestPatchOrderStatus(t *testing.T) {
	ts := newTestServer(t, pricedProduct("gopher-mug", "12.50"))
	_, _ = ts.do(t, http.MethodPut, "/api/cart/items/gopher-mug", map[string]int{"quantity": 1})

	_, body := ts.do(t, http.MethodPost, "/api/checkout", validCheckoutForm())
	var res struct {
		OrderID string `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(body, &res))

	path := fmt.Sprintf("/api/orders/%s/status", res.OrderID)

	resp, _ := ts.do(t, http.MethodPatch, path, map[string]string{"status": "processing"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// waiting is behind us now; moving backwards is rejected.
	resp, _ = ts.do(t, http.MethodPatch, path, map[string]string{"status": "waiting"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPatch, path, map[string]string{"status": "done"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// done is terminal.
	resp, _ = ts.do(t, http.MethodPatch, path, map[string]string{"status": "canceled"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPatchOrderStatus_UnknownStatus(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPatch, "/api/orders/some-id/status",
		map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPatchOrderStatus_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPatch, "/api/orders/unknown/status",
		map[string]string{"status": "processing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
