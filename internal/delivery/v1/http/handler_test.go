package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/DRSN-tech/ordering-backend/internal/cfg"
	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/internal/infrastructure/notify"
	"github.com/DRSN-tech/ordering-backend/internal/metrics"
	"github.com/DRSN-tech/ordering-backend/internal/repository/inmem"
	"github.com/DRSN-tech/ordering-backend/internal/repository/memory"
	"github.com/DRSN-tech/ordering-backend/internal/usecase"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
	"github.com/DRSN-tech/ordering-backend/pkg/retry"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = retry.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

type envelope struct {
	Success      bool            `json:"success"`
	ErrorMessage *string         `json:"errorMessage"`
	Data         json.RawMessage `json:"data"`
}

type api struct {
	t       *testing.T
	handler http.Handler
	store   *inmem.Store
}

func newAPI(t *testing.T) *api {
	t.Helper()

	log := logger.NewNop()
	m := metrics.New("ordering-test")

	store := inmem.NewStore()
	cache, err := memory.NewCacheRepo(memory.Config{Capacity: 1000, NumShards: 4, TTL: time.Minute, EvictionPercentage: 10})
	require.NoError(t, err)

	dispatcher := notify.NewDispatcher(notify.NewLogSink(log), 64, log, m)
	dispatcher.Start()
	t.Cleanup(func() { _ = dispatcher.Stop(context.Background()) })

	catUC := usecase.NewCategoryUC(store.Categories(), store, cache, m, dispatcher, log)
	prUC := usecase.NewProductUC(store.Products(), store.Categories(), store, cache, m, dispatcher, log)
	ordUC := usecase.NewOrderUC(store.Orders(), store.Products(), store, cache, m, dispatcher, log)

	return &api{t: t, handler: newTestRouter(catUC, prUC, ordUC, log, m), store: store}
}

func newTestRouter(catUC usecase.CategoryUC, prUC usecase.ProductUC, ordUC usecase.OrderUC, log logger.Logger, m *metrics.Metrics) http.Handler {
	mux := chi.NewRouter()
	router := NewRouter(mux, &cfg.HTTPConfig{AllowedOrigins: []string{"*"}}, m, log)
	router.Init(catUC, prUC, ordUC, NewExecutor(testPolicy, log), nil)

	return mux
}

func (a *api) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Code != http.StatusNoContent {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}

	return rec, env
}

func field[T any](t *testing.T, raw json.RawMessage, key string) T {
	t.Helper()

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))

	var v T
	require.NoError(t, json.Unmarshal(m[key], &v), string(raw))
	return v
}

func errMsg(env envelope) string {
	if env.ErrorMessage == nil {
		return ""
	}
	return *env.ErrorMessage
}

// seed создаёт категорию Pizza, продукт Margherita за 10.00 и заказ на две штуки.
func (a *api) seed() (categoryID, productID, orderID int64) {
	a.t.Helper()

	rec, env := a.do(http.MethodPost, "/api/v1/categories", map[string]any{"name": "Pizza"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	categoryID = field[CategoryView](a.t, env.Data, "category").ID

	rec, env = a.do(http.MethodPost, "/api/v1/products", map[string]any{"categoryId": categoryID, "name": "Margherita", "price": 10.00})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	productID = field[ProductView](a.t, env.Data, "product").ID

	rec, env = a.do(http.MethodPost, "/api/v1/orders", `{"lines":[{"productId":`+strconv.FormatInt(productID, 10)+`,"quantity":2,"unitPrice":"10.00"}]}`)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	orderID = field[OrderView](a.t, env.Data, "order").ID

	return categoryID, productID, orderID
}

func TestScenarioCreateAndReadOrder(t *testing.T) {
	a := newAPI(t)
	_, productID, orderID := a.seed()

	rec, env := a.do(http.MethodGet, "/api/v1/orders/"+strconv.FormatInt(orderID, 10), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Nil(t, env.ErrorMessage)

	order := field[OrderView](t, env.Data, "order")
	assert.Equal(t, "20.00", order.TotalPrice)
	assert.Equal(t, "open", order.Status)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, productID, order.Lines[0].ProductID)
	assert.Equal(t, "Margherita", order.Lines[0].ProductName)
	assert.Equal(t, "10.00", order.Lines[0].UnitPrice)
	assert.Equal(t, int64(2), order.Lines[0].Quantity)
}

func TestScenarioStatusLifecycle(t *testing.T) {
	a := newAPI(t)
	_, _, orderID := a.seed()
	path := "/api/v1/orders/" + strconv.FormatInt(orderID, 10)

	rec, env := a.do(http.MethodPut, path, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "approved", field[OrderView](t, env.Data, "order").Status)

	rec, env = a.do(http.MethodPut, path, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "status already up to date", errMsg(env))

	rec, _ = a.do(http.MethodPut, path, map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = a.do(http.MethodPut, path, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cannot change a cancelled order", errMsg(env))

	rec, env = a.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	order := field[OrderView](t, env.Data, "order")
	assert.Equal(t, "cancelled", order.Status)
	assert.Equal(t, "20.00", order.TotalPrice)
}

func TestScenarioBlockedDeletes(t *testing.T) {
	a := newAPI(t)

	rec, env := a.do(http.MethodPost, "/api/v1/categories", map[string]any{"name": "Pizza"})
	require.Equal(t, http.StatusCreated, rec.Code)
	categoryID := field[CategoryView](t, env.Data, "category").ID

	rec, env = a.do(http.MethodPost, "/api/v1/products", map[string]any{"categoryId": categoryID, "name": "Margherita", "price": "10.00"})
	require.Equal(t, http.StatusCreated, rec.Code)
	productID := field[ProductView](t, env.Data, "product").ID

	catPath := "/api/v1/categories/" + strconv.FormatInt(categoryID, 10)
	rec, env = a.do(http.MethodDelete, catPath, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "category has linked products and cannot be deleted", errMsg(env))

	rec, _ = a.do(http.MethodDelete, "/api/v1/products/"+strconv.FormatInt(productID, 10), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec, _ = a.do(http.MethodDelete, catPath, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = a.do(http.MethodGet, catPath, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "category not found", errMsg(env))
}

func TestProductInOrderCannotBeDeleted(t *testing.T) {
	a := newAPI(t)
	_, productID, orderID := a.seed()
	path := "/api/v1/products/" + strconv.FormatInt(productID, 10)

	rec, env := a.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "product is linked to orders and cannot be deleted", errMsg(env))

	rec, env = a.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	product := field[ProductView](t, env.Data, "product")
	assert.Equal(t, []int64{orderID}, product.OrderIDs)
	require.NotNil(t, product.Category)
	assert.Equal(t, "Pizza", product.Category.Name)
}

func TestValidationFailures(t *testing.T) {
	a := newAPI(t)
	categoryID, productID, _ := a.seed()
	cat := strconv.FormatInt(categoryID, 10)
	pr := strconv.FormatInt(productID, 10)

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		message string
	}{
		{name: "category name missing", method: http.MethodPost, path: "/api/v1/categories", body: `{}`, message: "the name field is required"},
		{name: "category name not a string", method: http.MethodPost, path: "/api/v1/categories", body: `{"name":42}`, message: "the name field must be a string"},
		{name: "category name duplicate", method: http.MethodPost, path: "/api/v1/categories", body: `{"name":"Pizza"}`, message: "the name has already been taken"},
		{name: "body is not an object", method: http.MethodPost, path: "/api/v1/categories", body: `[1,2]`, message: "the body must be a JSON object"},
		{name: "product category unknown", method: http.MethodPost, path: "/api/v1/products", body: `{"categoryId":999,"name":"Pepperoni","price":"12.00"}`, message: "the selected categoryId is invalid"},
		{name: "product category not integer", method: http.MethodPost, path: "/api/v1/products", body: `{"categoryId":"one","name":"Pepperoni","price":"12.00"}`, message: "the categoryId field must be an integer"},
		{name: "product price negative", method: http.MethodPost, path: "/api/v1/products", body: `{"categoryId":` + cat + `,"name":"Pepperoni","price":-1}`, message: "the price field must be at least 0"},
		{name: "product price not numeric", method: http.MethodPost, path: "/api/v1/products", body: `{"categoryId":` + cat + `,"name":"Pepperoni","price":"cheap"}`, message: "the price field must be a number"},
		{name: "order without lines", method: http.MethodPost, path: "/api/v1/orders", body: `{"lines":[]}`, message: "the lines field is required"},
		{name: "order lines not a list", method: http.MethodPost, path: "/api/v1/orders", body: `{"lines":"x"}`, message: "the lines field must be an array"},
		{name: "order quantity zero", method: http.MethodPost, path: "/api/v1/orders", body: `{"lines":[{"productId":` + pr + `,"quantity":0,"unitPrice":"1.00"}]}`, message: "the lines.0.quantity field must be at least 1"},
		{name: "order quantity fractional", method: http.MethodPost, path: "/api/v1/orders", body: `{"lines":[{"productId":` + pr + `,"quantity":1.5,"unitPrice":"1.00"}]}`, message: "the lines.0.quantity field must be an integer"},
		{name: "order product unknown", method: http.MethodPost, path: "/api/v1/orders", body: `{"lines":[{"productId":999,"quantity":1,"unitPrice":"1.00"}]}`, message: "the selected lines.0.productId is invalid"},
		{name: "unknown status", method: http.MethodPut, path: "/api/v1/orders/1", body: `{"status":"shipped"}`, message: "the selected status is invalid"},
		{name: "unknown sort field", method: http.MethodGet, path: "/api/v1/products?sortBy=password", message: "the selected sortBy is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := a.do(tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, errMsg(env))
			assert.Equal(t, "null", string(env.Data))
		})
	}
}

func TestNotFound(t *testing.T) {
	a := newAPI(t)

	for _, path := range []string{"/api/v1/categories/77", "/api/v1/products/abc", "/api/v1/orders/-1", "/api/v1/unknown"} {
		rec, env := a.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.False(t, env.Success, path)
	}
}

func TestListEnvelopeAndMenuAlias(t *testing.T) {
	a := newAPI(t)
	a.seed()

	for _, path := range []string{"/api/v1/categories?itemsPerPage=0&page=-3", "/api/v1/menu"} {
		rec, env := a.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		categories := field[[]CategoryView](t, env.Data, "categories")
		require.Len(t, categories, 1)
		require.Len(t, categories[0].Products, 1)
		assert.Equal(t, "10.00", categories[0].Products[0].Price)

		assert.Equal(t, 1, field[int](t, env.Data, "lastPage"))
		assert.Equal(t, int64(1), field[int64](t, env.Data, "totalItems"))
		assert.Equal(t, FilterView{ItemsPerPage: 10, SortBy: "id", SortDirection: "asc", Page: 1}, field[FilterView](t, env.Data, "filter"))
	}
}

func TestReadThroughServesCachedPayload(t *testing.T) {
	a := newAPI(t)
	_, _, orderID := a.seed()
	path := "/api/v1/orders/" + strconv.FormatInt(orderID, 10)

	before := a.store.Reads()
	first, _ := a.do(http.MethodGet, path, nil)
	afterFirst := a.store.Reads()
	second, _ := a.do(http.MethodGet, path, nil)

	assert.Equal(t, int64(1), afterFirst-before)
	assert.Equal(t, afterFirst, a.store.Reads())
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestPartialProductUpdate(t *testing.T) {
	a := newAPI(t)
	_, productID, _ := a.seed()
	path := "/api/v1/products/" + strconv.FormatInt(productID, 10)

	rec, env := a.do(http.MethodPut, path, map[string]any{"price": "12.5"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	product := field[ProductView](t, env.Data, "product")
	assert.Equal(t, "Margherita", product.Name)
	assert.Equal(t, "12.50", product.Price)
}

// flakyCategories падает transientFailures раз, затем отдаёт пустую страницу.
type flakyCategories struct {
	usecase.CategoryUC
	transientFailures int
	calls             int
}

func (f *flakyCategories) List(_ context.Context, page domain.PageRequest) (*domain.Page[domain.Category], error) {
	f.calls++
	if f.calls <= f.transientFailures {
		return nil, errors.New("connection reset by peer")
	}
	return domain.NewPage[domain.Category](nil, 0, page), nil
}

func TestRetryRecoversFromTransientFailures(t *testing.T) {
	uc := &flakyCategories{transientFailures: 2}
	h := newTestRouter(uc, nil, nil, logger.NewNop(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, uc.calls)
}

func TestRetryGivesUpWithGenericMessage(t *testing.T) {
	uc := &flakyCategories{transientFailures: 10}
	h := newTestRouter(uc, nil, nil, logger.NewNop(), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 3, uc.calls)
	assert.JSONEq(t, `{"success":false,"errorMessage":"something went wrong, try again later","data":null}`, rec.Body.String())
}

func TestMetricsAndHealthRoutes(t *testing.T) {
	a := newAPI(t)

	rec, env := a.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	a.do(http.MethodGet, "/api/v1/categories", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	out := httptest.NewRecorder()
	a.handler.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)
	assert.Contains(t, out.Body.String(), `http_requests_total`)
	assert.Contains(t, out.Body.String(), `/api/v1/categories`)
}
