package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/licores/internal/adapters/export/xlsx"
	"github.com/phenrril/licores/internal/adapters/notify"
	"github.com/phenrril/licores/internal/adapters/repo/snapshot"
	"github.com/phenrril/licores/internal/domain"
	"github.com/phenrril/licores/internal/usecase"
)

const testPassword = "demo123"

type testEnv struct {
	handler  http.Handler
	products *usecase.ProductUC
	token    string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store := snapshot.NewMemory()
	broker := notify.NewBroker()
	env := &testEnv{products: &usecase.ProductUC{Store: store, Notifier: broker}}
	env.handler = New(
		env.products,
		&usecase.CustomerUC{Store: store},
		&usecase.OrderUC{Store: store, Notifier: broker},
		&usecase.InvoiceUC{Store: store, Notifier: broker},
		&usecase.SalesUC{Store: store},
		broker,
		AuthOptions{Secret: []byte("secreto-de-prueba"), DemoPassword: testPassword, Staff: map[string]string{"admin@licores.com": RoleAdmin}},
		nil,
	)
	res := env.do(t, "POST", "/api/auth/login", map[string]string{"email": "Admin@Licores.com", "password": testPassword})
	require.Equal(t, 200, res.Code, res.Body.String())
	var body struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	assert.Equal(t, RoleAdmin, body.Role)
	env.token = body.Token
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func (e *testEnv) createProduct(t *testing.T, sku string, price float64, main int) domain.Product {
	t.Helper()
	rec := e.do(t, "POST", "/api/products", usecase.ProductInput{SKU: sku, Name: "Producto " + sku, Category: "Whisky", Price: price, ReorderThreshold: 5, Stock: domain.Stock{Main: main}})
	require.Equal(t, 201, rec.Code, rec.Body.String())
	var p domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestHealthzAndRequestID(t *testing.T) {
	env := newEnv(t)
	env.token = ""
	rec := env.do(t, "GET", "/healthz", nil)
	assert.Equal(t, 200, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestAPIRequiresSession(t *testing.T) {
	env := newEnv(t)
	env.token = ""
	for _, path := range []string{"/api/products", "/api/orders", "/api/invoices", "/api/reports/sales", "/api/auth/me"} {
		rec := env.do(t, "GET", path, nil)
		assert.Equal(t, 401, rec.Code, path)
	}
	env.token = "no.es.valido"
	rec := env.do(t, "GET", "/api/products", nil)
	assert.Equal(t, 401, rec.Code)
	assert.Equal(t, "sesión requerida", errorOf(t, rec))
}

func TestLogin(t *testing.T) {
	env := newEnv(t)
	rec := env.do(t, "POST", "/api/auth/login", map[string]string{"email": "x@y.com", "password": "otra"})
	assert.Equal(t, 401, rec.Code)
	rec = env.do(t, "POST", "/api/auth/login", map[string]string{"email": " ", "password": testPassword})
	assert.Equal(t, 422, rec.Code)
	rec = env.do(t, "GET", "/api/auth/login", nil)
	assert.Equal(t, 405, rec.Code)

	rec = env.do(t, "POST", "/api/auth/login", map[string]string{"email": "cliente@bar.com", "password": testPassword})
	require.Equal(t, 200, rec.Code)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	env.token = body.Token
	me := env.do(t, "GET", "/api/auth/me", nil)
	require.Equal(t, 200, me.Code)
	var sess Session
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &sess))
	assert.Equal(t, "cliente@bar.com", sess.Email)
	assert.Equal(t, RoleCustomer, sess.Role)
}

func TestPlaceOrderFlow(t *testing.T) {
	env := newEnv(t)
	p := env.createProduct(t, "WHI-001", 50, 120)

	rec := env.do(t, "POST", "/api/orders", usecase.PlaceOrderInput{
		Customer:  usecase.CustomerInput{Name: "Bar Central", Email: "bar@central.com", Address: "San Martín 100"},
		Items:     []usecase.LineInput{{ProductID: p.ID, Quantity: 2}},
		Warehouse: domain.WarehouseMain,
	})
	require.Equal(t, 201, rec.Code, rec.Body.String())
	var placed struct {
		Order   domain.Order   `json:"order"`
		Invoice domain.Invoice `json:"invoice"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	assert.Equal(t, "ORD-001", placed.Order.Number)
	assert.InDelta(t, 119.0, placed.Invoice.Total, 1e-9)

	rec = env.do(t, "GET", "/api/orders/"+placed.Order.ID.String()+"/invoice", nil)
	require.Equal(t, 200, rec.Code)

	rec = env.do(t, "GET", "/api/invoices/"+placed.Invoice.ID.String()+"/xlsx", nil)
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "INV-001.xlsx")
	assert.NotZero(t, rec.Body.Len())

	rec = env.do(t, "POST", "/api/orders/"+placed.Order.ID.String()+"/status", usecase.StatusInput{Status: domain.OrderStatusShipped})
	assert.Equal(t, 422, rec.Code)

	rec = env.do(t, "POST", "/api/orders/"+placed.Order.ID.String()+"/status", usecase.StatusInput{Status: domain.OrderStatusCancelled})
	require.Equal(t, 200, rec.Code)
	rec = env.do(t, "GET", "/api/products/"+p.ID.String(), nil)
	require.Equal(t, 200, rec.Code)
	var after domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.Equal(t, 120, after.Stock.Main)

	rec = env.do(t, "PATCH", "/api/orders/"+placed.Order.ID.String()+"/status", usecase.StatusInput{Status: domain.OrderStatusPending})
	assert.Equal(t, 422, rec.Code)

	rec = env.do(t, "GET", "/api/invoices?status=cancelled", nil)
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "INV-001")
}

func TestErrorMapping(t *testing.T) {
	env := newEnv(t)
	p := env.createProduct(t, "VOD-001", 20, 15)
	customer := usecase.CustomerInput{Name: "Kiosco", Email: "k@k.com", Address: "Mitre 5"}

	rec := env.do(t, "POST", "/api/orders", usecase.PlaceOrderInput{Customer: customer, Items: []usecase.LineInput{{ProductID: p.ID, Quantity: 200}}, Warehouse: domain.WarehouseMain})
	assert.Equal(t, 409, rec.Code)
	assert.Contains(t, errorOf(t, rec), "stock insuficiente")

	rec = env.do(t, "POST", "/api/orders", usecase.PlaceOrderInput{Customer: customer, Items: []usecase.LineInput{{ProductID: uuid.New(), Quantity: 1}}, Warehouse: domain.WarehouseMain})
	assert.Equal(t, 404, rec.Code)

	rec = env.do(t, "POST", "/api/orders", usecase.PlaceOrderInput{Customer: usecase.CustomerInput{Name: "Sin", Email: "sin@d.com"}, Items: []usecase.LineInput{{ProductID: p.ID, Quantity: 1}}, Warehouse: domain.WarehouseMain})
	assert.Equal(t, 422, rec.Code)

	rec = env.do(t, "POST", "/api/products", usecase.ProductInput{SKU: "vod-001", Name: "Duplicado"})
	assert.Equal(t, 409, rec.Code)

	rec = env.do(t, "GET", "/api/orders/no-es-un-id", nil)
	assert.Equal(t, 400, rec.Code)
	assert.Equal(t, "id inválido", errorOf(t, rec))

	rec = env.do(t, "GET", "/api/invoices/"+uuid.NewString(), nil)
	assert.Equal(t, 404, rec.Code)

	req := httptest.NewRequest("POST", "/api/customers", bytes.NewBufferString("{roto"))
	req.Header.Set("Authorization", "Bearer "+env.token)
	out := httptest.NewRecorder()
	env.handler.ServeHTTP(out, req)
	assert.Equal(t, 400, out.Code)

	rec = env.do(t, "DELETE", "/api/orders", nil)
	assert.Equal(t, 405, rec.Code)

	var check domain.Product
	rec = env.do(t, "GET", "/api/products/"+p.ID.String(), nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &check))
	assert.Equal(t, 15, check.Stock.Main)
}

func TestStatusForHidesInternalErrors(t *testing.T) {
	assert.Equal(t, 500, statusFor(errors.New("pq: connection refused")))
	assert.Equal(t, 404, statusFor(fmt.Errorf("buscar: %w", domain.NewNotFound("pedido", uuid.New()))))

	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest("GET", "/x", nil), errors.New("detalle interno"))
	assert.Equal(t, 500, rec.Code)
	assert.JSONEq(t, `{"error":"error interno"}`, rec.Body.String())
}

func TestTransferAndStockEndpoints(t *testing.T) {
	env := newEnv(t)
	p := env.createProduct(t, "RON-001", 27, 3)
	rec := env.do(t, "POST", "/api/products/"+p.ID.String()+"/adjust", usecase.AdjustInput{Warehouse: domain.Warehouse1, Quantity: 25, Reason: "conteo"})
	require.Equal(t, 200, rec.Code, rec.Body.String())

	rec = env.do(t, "POST", "/api/transfers", usecase.TransferInput{ProductID: p.ID, From: domain.Warehouse1, To: domain.Warehouse2, Quantity: 10})
	require.Equal(t, 200, rec.Code, rec.Body.String())
	var moved domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moved))
	assert.Equal(t, 15, moved.Stock.Warehouse1)
	assert.Equal(t, 10, moved.Stock.Warehouse2)

	rec = env.do(t, "GET", "/api/products/"+p.ID.String()+"/movements?limit=10", nil)
	require.Equal(t, 200, rec.Code)
	var moves struct {
		Items []domain.StockMovement `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moves))
	assert.Len(t, moves.Items, 3)

	rec = env.do(t, "GET", "/api/products/low-stock", nil)
	require.Equal(t, 200, rec.Code)
	assert.NotContains(t, rec.Body.String(), "RON-001")

	rec = env.do(t, "GET", "/api/reports/stock.xlsx", nil)
	require.Equal(t, 200, rec.Code)
	rows, err := xlsx.ReadStock(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 15, rows[0].Stock.Warehouse1)
}

func TestImportStockSheet(t *testing.T) {
	env := newEnv(t)
	p := env.createProduct(t, "GIN-001", 31, 10)

	var sheet bytes.Buffer
	require.NoError(t, xlsx.WriteStock(&sheet, []domain.Product{
		{SKU: "GIN-001", Name: "Gin London Dry", Category: "Gin", Price: 32, ReorderThreshold: 4, Stock: domain.Stock{Main: 7}},
		{SKU: "TEQ-001", Name: "Tequila", Category: "Tequila", Price: 34, ReorderThreshold: 2, Stock: domain.Stock{Main: 5}},
	}))
	req := httptest.NewRequest("POST", "/api/products/import", bytes.NewReader(sheet.Bytes()))
	req.Header.Set("Authorization", "Bearer "+env.token)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code, rec.Body.String())

	var rep usecase.ImportReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 1, rep.Created)
	assert.Equal(t, 1, rep.Updated)

	got := env.do(t, "GET", "/api/products/"+p.ID.String(), nil)
	var updated domain.Product
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &updated))
	assert.Equal(t, 7, updated.Stock.Main)
	assert.Equal(t, "Gin London Dry", updated.Name)
}

func TestSalesReport(t *testing.T) {
	env := newEnv(t)
	p := env.createProduct(t, "CER-001", 29, 50)
	rec := env.do(t, "POST", "/api/orders", usecase.PlaceOrderInput{
		Customer:  usecase.CustomerInput{Name: "Bar", Email: "bar@x.com", Address: "Calle 1"},
		Items:     []usecase.LineInput{{ProductID: p.ID, Quantity: 2}},
		Warehouse: domain.WarehouseMain,
	})
	require.Equal(t, 201, rec.Code)

	rec = env.do(t, "GET", "/api/reports/sales", nil)
	require.Equal(t, 200, rec.Code)
	var s usecase.SalesSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, 1, s.OrdersCount)
	assert.InDelta(t, 58.0, s.Revenue, 1e-9)

	rec = env.do(t, "GET", "/api/reports/sales?from=ayer", nil)
	assert.Equal(t, 400, rec.Code)

	rec = env.do(t, "GET", "/api/reports/sales?format=xlsx", nil)
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
}

func TestRecoveryReturns500(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), RequestID, Recovery, Logging)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 500, rec.Code)
}
