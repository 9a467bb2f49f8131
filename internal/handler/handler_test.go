package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbasket/storefront/internal/domain/order"
	"github.com/greenbasket/storefront/internal/domain/product"
	"github.com/greenbasket/storefront/internal/domain/promo"
	"github.com/greenbasket/storefront/internal/domain/shipping"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products []product.Product
	byID     map[string]*product.Product
	listErr  error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return m.products, m.listErr
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

type mockOrderRepo struct {
	lastOrder *order.Order
	byID      map[string]*order.Order
	list      []order.Order
	listTotal int
	summary   *order.Summary
	recent    []order.RecentOrder
	err       error
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.lastOrder = o
	return m.err
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) List(_ context.Context, _ order.ListFilter) ([]order.Order, int, error) {
	return m.list, m.listTotal, m.err
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status order.Status) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Status = status
	return o, nil
}

func (m *mockOrderRepo) Summary(_ context.Context) (*order.Summary, error) {
	return m.summary, m.err
}

func (m *mockOrderRepo) Recent(_ context.Context, _ int) ([]order.RecentOrder, error) {
	return m.recent, m.err
}

type mockPromoValidator struct {
	discount *promo.Discount
	err      error
}

func (m *mockPromoValidator) Validate(_ context.Context, _, _ string, _ decimal.Decimal) (*promo.Discount, error) {
	return m.discount, m.err
}

// --- Helpers ---

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

func newRouter(products *mockProductRepo, orders *mockOrderRepo, pv promo.Validator) http.Handler {
	svc := order.NewService(orders, pv, shipping.DefaultPolicy())
	return New(Config{Environment: "test"}, products, svc).Routes()
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func seedProducts() *mockProductRepo {
	honey := product.Product{
		ID:            "honey-500",
		Name:          "Forest Honey",
		Price:         decimal.NewFromInt(550),
		OriginalPrice: decimal.NewFromInt(650),
		Image:         "/images/honey.jpg",
		Category:      "honey",
		InStock:       true,
	}
	rice := product.Product{
		ID:       "rice-1000",
		Name:     "Red Rice",
		Price:    decimal.NewFromInt(145),
		Image:    "https://cdn.example.com/rice.jpg",
		Category: "grains",
		InStock:  true,
	}
	return &mockProductRepo{
		products: []product.Product{honey, rice},
		byID: map[string]*product.Product{
			honey.ID: &honey,
			rice.ID:  &rice,
		},
	}
}

const validOrderBody = `{
	"items": [
		{"product": {"id": "honey-500", "name": "Forest Honey", "price": 550, "category": "honey"}, "quantity": 1},
		{"product": {"id": "ghee-250", "name": "Cow Ghee", "price": 680, "category": "dairy"}, "quantity": 2}
	],
	"total": 1910,
	"customer": {"name": "Nusrat Jahan", "email": "nusrat@example.com"}
}`

// --- Tests ---

func TestHealthBanner(t *testing.T) {
	router := newRouter(seedProducts(), &mockOrderRepo{}, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Storefront API is running!", env.Message)
	assert.Contains(t, w.Body.String(), `"environment":"test"`)
}

func TestListProducts(t *testing.T) {
	router := newRouter(seedProducts(), &mockOrderRepo{}, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodGet, "/api/products", "")

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	var products []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &products))
	require.Len(t, products, 2)
	assert.Equal(t, "honey-500", products[0]["id"])
	assert.Equal(t, float64(650), products[0]["originalPrice"])
	assert.Equal(t, true, products[0]["inStock"])
	// No original price: the field is omitted entirely.
	assert.NotContains(t, products[1], "originalPrice")
}

func TestListProducts_FilterByIDs(t *testing.T) {
	router := newRouter(seedProducts(), &mockOrderRepo{}, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodGet, "/api/products?ids=rice-1000,%20unknown,", "")

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	var products []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "rice-1000", products[0]["id"])
}

func TestGetProduct_NotFound(t *testing.T) {
	router := newRouter(seedProducts(), &mockOrderRepo{}, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodGet, "/api/products/nope", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Product not found", env.Message)
}

func TestGetProduct_ImageBaseURL(t *testing.T) {
	svc := order.NewService(&mockOrderRepo{}, &mockPromoValidator{}, shipping.DefaultPolicy())
	router := New(Config{ImageBaseURL: "https://cdn.greenbasket.example"}, seedProducts(), svc).Routes()

	_, env := doRequest(t, router, http.MethodGet, "/api/products/honey-500", "")

	var p map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "https://cdn.greenbasket.example/images/honey.jpg", p["image"])

	// Absolute URLs pass through untouched.
	_, env = doRequest(t, router, http.MethodGet, "/api/products/rice-1000", "")
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "https://cdn.example.com/rice.jpg", p["image"])
}

func TestCreateOrder(t *testing.T) {
	repo := &mockOrderRepo{}
	router := newRouter(seedProducts(), repo, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodPost, "/api/orders", validOrderBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Order created successfully", env.Message)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data["orderId"])
	assert.Regexp(t, `^MM\d{6}[0-9a-f]{6}$`, data["orderNumber"])
	assert.Equal(t, float64(1910), data["total"])
	assert.Equal(t, "pending", data["status"])

	require.NotNil(t, repo.lastOrder)
	assert.Len(t, repo.lastOrder.Items, 2)
}

func TestCreateOrder_InvalidBody(t *testing.T) {
	router := newRouter(seedProducts(), &mockOrderRepo{}, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodPost, "/api/orders", `{"items": [`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestCreateOrder_ValidationErrors(t *testing.T) {
	router := newRouter(seedProducts(), &mockOrderRepo{}, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodPost, "/api/orders", `{"items": [], "total": 0, "customer": {}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation error", env.Message)
	assert.Contains(t, env.Errors, "order must contain at least one item")
	assert.Contains(t, env.Errors, "order total must be greater than 0")
	assert.Contains(t, env.Errors, "customer name and email are required")
}

func TestCreateOrder_InvalidPromoCode(t *testing.T) {
	router := newRouter(seedProducts(), &mockOrderRepo{}, &mockPromoValidator{err: promo.ErrInvalidCode})

	body := strings.Replace(validOrderBody, `"customer"`, `"promoCode": "BOGUS", "customer"`, 1)
	w, env := doRequest(t, router, http.MethodPost, "/api/orders", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid promo code", env.Message)
}

func TestGetOrder(t *testing.T) {
	id := "6aa9e247-5b41-4be0-a721-68fcb0954d36"
	repo := &mockOrderRepo{byID: map[string]*order.Order{
		id: {
			ID:          id,
			OrderNumber: "MM123456abcdef",
			Items: []order.Item{
				{Product: order.ProductSnapshot{ID: "honey-500", Name: "Forest Honey", Price: decimal.NewFromInt(550)}, Quantity: 1},
			},
			Total:         decimal.NewFromInt(550),
			Customer:      order.Customer{Name: "Nusrat Jahan", Email: "nusrat@example.com"},
			Status:        order.StatusPending,
			PaymentMethod: order.PaymentCOD,
		},
	}}
	router := newRouter(seedProducts(), repo, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodGet, "/api/orders/"+id, "")

	assert.Equal(t, http.StatusOK, w.Code)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "MM123456abcdef", data["orderNumber"])
	assert.Equal(t, "cod", data["paymentMethod"])
}

func TestGetOrder_InvalidID(t *testing.T) {
	router := newRouter(seedProducts(), &mockOrderRepo{}, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodGet, "/api/orders/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid order ID", env.Message)
}

func TestGetOrder_NotFound(t *testing.T) {
	router := newRouter(seedProducts(), &mockOrderRepo{byID: map[string]*order.Order{}}, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodGet, "/api/orders/6aa9e247-5b41-4be0-a721-68fcb0954d36", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Order not found", env.Message)
}

func TestListOrders(t *testing.T) {
	repo := &mockOrderRepo{
		list: []order.Order{
			{ID: "a", OrderNumber: "MM000001aaaaaa", Total: decimal.NewFromInt(550), Status: order.StatusPending},
			{ID: "b", OrderNumber: "MM000002bbbbbb", Total: decimal.NewFromInt(680), Status: order.StatusShipped},
		},
		listTotal: 25,
	}
	router := newRouter(seedProducts(), repo, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodGet, "/api/orders?page=2&limit=10&status=pending", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Orders     []map[string]any `json:"orders"`
		Pagination struct {
			CurrentPage int  `json:"currentPage"`
			TotalPages  int  `json:"totalPages"`
			TotalOrders int  `json:"totalOrders"`
			HasNextPage bool `json:"hasNextPage"`
			HasPrevPage bool `json:"hasPrevPage"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.Orders, 2)
	assert.Equal(t, 2, data.Pagination.CurrentPage)
	assert.Equal(t, 3, data.Pagination.TotalPages)
	assert.Equal(t, 25, data.Pagination.TotalOrders)
	assert.True(t, data.Pagination.HasNextPage)
	assert.True(t, data.Pagination.HasPrevPage)
}

func TestUpdateOrderStatus(t *testing.T) {
	id := "6aa9e247-5b41-4be0-a721-68fcb0954d36"
	repo := &mockOrderRepo{byID: map[string]*order.Order{
		id: {ID: id, OrderNumber: "MM123456abcdef", Status: order.StatusPending},
	}}
	router := newRouter(seedProducts(), repo, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodPut, "/api/orders/"+id+"/status", `{"status": "shipped"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Order status updated successfully", env.Message)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "shipped", data["status"])
}

func TestUpdateOrderStatus_InvalidValue(t *testing.T) {
	router := newRouter(seedProducts(), &mockOrderRepo{}, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodPut,
		"/api/orders/6aa9e247-5b41-4be0-a721-68fcb0954d36/status", `{"status": "teleported"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid status value", env.Message)
}

func TestOrderStats(t *testing.T) {
	repo := &mockOrderRepo{
		summary: &order.Summary{
			TotalOrders:     12,
			PendingOrders:   3,
			CompletedOrders: 7,
			TotalRevenue:    decimal.NewFromInt(15400),
		},
		recent: []order.RecentOrder{
			{OrderNumber: "MM000001aaaaaa", CustomerName: "Nusrat Jahan", Total: decimal.NewFromInt(550), Status: order.StatusPending},
		},
	}
	router := newRouter(seedProducts(), repo, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodGet, "/api/orders/stats/summary", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Summary struct {
			TotalOrders     int     `json:"totalOrders"`
			PendingOrders   int     `json:"pendingOrders"`
			CompletedOrders int     `json:"completedOrders"`
			TotalRevenue    float64 `json:"totalRevenue"`
		} `json:"summary"`
		RecentOrders []map[string]any `json:"recentOrders"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 12, data.Summary.TotalOrders)
	assert.Equal(t, float64(15400), data.Summary.TotalRevenue)
	require.Len(t, data.RecentOrders, 1)
	assert.Equal(t, "Nusrat Jahan", data.RecentOrders[0]["customerName"])
}

func TestUnknownRoute(t *testing.T) {
	router := newRouter(seedProducts(), &mockOrderRepo{}, &mockPromoValidator{})

	w, env := doRequest(t, router, http.MethodGet, "/api/nothing-here", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "API endpoint not found", env.Message)
}
