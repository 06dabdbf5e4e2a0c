package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/internal/repository/inmem"
	"github.com/DRSN-tech/ordering-backend/internal/repository/memory"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []published
}

func (n *recordingNotifier) Publish(_ context.Context, channel string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, published{channel: channel, payload: payload})
}

func (n *recordingNotifier) channels() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.channel)
	}
	return out
}

type countingObserver struct {
	hits, misses int
}

func (o *countingObserver) ObserveCache(_ string, hit bool) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

// failingCache имитирует недоступный бэкенд кэша.
type failingCache struct{}

var errCacheDown = errors.New("cache is down")

func (failingCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errCacheDown }
func (failingCache) Set(context.Context, string, string, []byte) error { return errCacheDown }
func (failingCache) FlushTag(context.Context, string) error            { return errCacheDown }
func (failingCache) Delete(context.Context, string, string) error      { return errCacheDown }

type fixture struct {
	store      *inmem.Store
	cache      CacheRepository
	notifier   *recordingNotifier
	observer   *countingObserver
	categories *CategoryUseCase
	products   *ProductUseCase
	orders     *OrderUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cache, err := memory.NewCacheRepo(memory.Config{Capacity: 1000, NumShards: 4, TTL: time.Minute, EvictionPercentage: 10})
	require.NoError(t, err)

	return newFixtureWithCache(cache)
}

func newFixtureWithCache(cache CacheRepository) *fixture {
	store := inmem.NewStore()
	notifier := &recordingNotifier{}
	observer := &countingObserver{}
	log := logger.NewNop()

	return &fixture{
		store:      store,
		cache:      cache,
		notifier:   notifier,
		observer:   observer,
		categories: NewCategoryUC(store.Categories(), store, cache, observer, notifier, log),
		products:   NewProductUC(store.Products(), store.Categories(), store, cache, observer, notifier, log),
		orders:     NewOrderUC(store.Orders(), store.Products(), store, cache, observer, notifier, log),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func money(s string) *decimal.Decimal {
	return ptr(decimal.RequireFromString(s))
}

func (f *fixture) seedMenu(t *testing.T) (*domain.Category, *domain.Product) {
	t.Helper()
	ctx := context.Background()

	cat, err := f.categories.Create(ctx, &CreateCategoryReq{Name: ptr("Pizza")})
	require.NoError(t, err)

	pr, err := f.products.Create(ctx, &CreateProductReq{
		CategoryID: ptr(cat.ID),
		Name:       ptr("Margherita"),
		Price:      money("10.00"),
	})
	require.NoError(t, err)

	return cat, pr
}

func validationField(t *testing.T, err error) string {
	t.Helper()

	var vErr *e.ValidationError
	require.True(t, errors.As(err, &vErr), "expected validation error, got %v", err)
	return vErr.Field
}

func TestCreateCategoryValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *CreateCategoryReq
		message string
	}{
		{"missing", &CreateCategoryReq{}, "the name field is required"},
		{"empty", &CreateCategoryReq{Name: ptr("")}, "the name field is required"},
		{"too long", &CreateCategoryReq{Name: ptr(strings.Repeat("a", 256))}, "the name field must not be greater than 255 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.categories.Create(ctx, tt.req)
			var vErr *e.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, "name", vErr.Field)
			assert.Equal(t, tt.message, vErr.Message)
		})
	}

	_, err := f.categories.Create(ctx, &CreateCategoryReq{Name: ptr(strings.Repeat("é", 255))})
	assert.NoError(t, err)
}

func TestCategoryNameUniquenessIsCaseSensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.categories.Create(ctx, &CreateCategoryReq{Name: ptr("Pizza")})
	require.NoError(t, err)

	_, err = f.categories.Create(ctx, &CreateCategoryReq{Name: ptr("PIZZA")})
	require.NoError(t, err)

	_, err = f.categories.Create(ctx, &CreateCategoryReq{Name: ptr("Pizza")})
	assert.Equal(t, "name", validationField(t, err))
}

func TestUpdateCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat, _ := f.seedMenu(t)

	_, err := f.categories.Create(ctx, &CreateCategoryReq{Name: ptr("Drinks")})
	require.NoError(t, err)

	_, err = f.categories.Update(ctx, &UpdateCategoryReq{ID: cat.ID, Name: ptr("Drinks")})
	assert.Equal(t, "name", validationField(t, err))

	updated, err := f.categories.Update(ctx, &UpdateCategoryReq{ID: cat.ID, Name: ptr("Pizzas")})
	require.NoError(t, err)
	assert.Equal(t, "Pizzas", updated.Name)
	assert.Len(t, updated.Products, 1)

	// ключ элемента перезаписан новым значением
	got, err := f.categories.Get(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pizzas", got.Name)

	_, err = f.categories.Update(ctx, &UpdateCategoryReq{ID: 999, Name: ptr("Nope")})
	assert.ErrorIs(t, err, e.ErrCategoryNotFound)
}

func TestDeleteCategoryBlockedByProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat, pr := f.seedMenu(t)

	err := f.categories.Delete(ctx, cat.ID)
	require.ErrorIs(t, err, e.ErrCategoryHasProducts)
	assert.True(t, e.IsConflict(err))

	got, err := f.categories.Get(ctx, cat.ID)
	require.NoError(t, err)
	assert.Len(t, got.Products, 1)

	require.NoError(t, f.products.Delete(ctx, pr.ID))
	require.NoError(t, f.categories.Delete(ctx, cat.ID))

	_, err = f.categories.Get(ctx, cat.ID)
	assert.ErrorIs(t, err, e.ErrCategoryNotFound)

	assert.ErrorIs(t, f.categories.Delete(ctx, cat.ID), e.ErrCategoryNotFound)
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat, _ := f.seedMenu(t)

	tests := []struct {
		name  string
		req   *CreateProductReq
		field string
	}{
		{"missing category", &CreateProductReq{Name: ptr("Calzone"), Price: money("1")}, "categoryId"},
		{"unknown category", &CreateProductReq{CategoryID: ptr(int64(999)), Name: ptr("Calzone"), Price: money("1")}, "categoryId"},
		{"missing name", &CreateProductReq{CategoryID: ptr(cat.ID), Price: money("1")}, "name"},
		{"duplicate name", &CreateProductReq{CategoryID: ptr(cat.ID), Name: ptr("Margherita"), Price: money("1")}, "name"},
		{"missing price", &CreateProductReq{CategoryID: ptr(cat.ID), Name: ptr("Calzone")}, "price"},
		{"negative price", &CreateProductReq{CategoryID: ptr(cat.ID), Name: ptr("Calzone"), Price: money("-0.01")}, "price"},
		{"too precise price", &CreateProductReq{CategoryID: ptr(cat.ID), Name: ptr("Calzone"), Price: money("1.001")}, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.products.Create(ctx, tt.req)
			assert.Equal(t, tt.field, validationField(t, err))
		})
	}

	free, err := f.products.Create(ctx, &CreateProductReq{CategoryID: ptr(cat.ID), Name: ptr("Water"), Price: money("0")})
	require.NoError(t, err)
	assert.True(t, free.Price.IsZero())
}

func TestUpdateProductPartially(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, pr := f.seedMenu(t)

	updated, err := f.products.Update(ctx, &UpdateProductReq{ID: pr.ID, Price: money("12.50")})
	require.NoError(t, err)
	assert.Equal(t, "Margherita", updated.Name)
	assert.True(t, decimal.RequireFromString("12.5").Equal(updated.Price))
	require.NotNil(t, updated.Category)
	assert.Equal(t, "Pizza", updated.Category.Name)

	_, err = f.products.Update(ctx, &UpdateProductReq{ID: pr.ID, CategoryID: ptr(int64(77))})
	assert.Equal(t, "categoryId", validationField(t, err))
}

func TestCreateOrderComputesTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat, pr := f.seedMenu(t)

	other, err := f.products.Create(ctx, &CreateProductReq{CategoryID: ptr(cat.ID), Name: ptr("Pepperoni"), Price: money("13.90")})
	require.NoError(t, err)

	order, err := f.orders.Create(ctx, &CreateOrderReq{Lines: []OrderLineReq{
		{ProductID: ptr(pr.ID), Quantity: ptr(int64(2)), UnitPrice: money("10.00")},
		{ProductID: ptr(other.ID), Quantity: ptr(int64(3)), UnitPrice: money("0.10")},
	}})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusOpen, order.Status)
	assert.Equal(t, "20.30", order.TotalPrice.StringFixed(2))
	require.Len(t, order.Lines, 2)
	assert.Equal(t, "Margherita", order.Lines[0].ProductName)

	// цена позиции фиксируется на момент создания
	_, err = f.products.Update(ctx, &UpdateProductReq{ID: pr.ID, Price: money("99.00")})
	require.NoError(t, err)
	got, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", got.Lines[0].UnitPrice.StringFixed(2))
	assert.True(t, got.TotalPrice.Equal(order.TotalPrice))
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, pr := f.seedMenu(t)

	tests := []struct {
		name  string
		lines []OrderLineReq
		field string
	}{
		{"no lines", nil, "lines"},
		{"missing product", []OrderLineReq{{Quantity: ptr(int64(1)), UnitPrice: money("1")}}, "lines.0.productId"},
		{"unknown product", []OrderLineReq{
			{ProductID: ptr(pr.ID), Quantity: ptr(int64(1)), UnitPrice: money("1")},
			{ProductID: ptr(int64(404)), Quantity: ptr(int64(1)), UnitPrice: money("1")},
		}, "lines.1.productId"},
		{"zero quantity", []OrderLineReq{{ProductID: ptr(pr.ID), Quantity: ptr(int64(0)), UnitPrice: money("1")}}, "lines.0.quantity"},
		{"negative price", []OrderLineReq{{ProductID: ptr(pr.ID), Quantity: ptr(int64(1)), UnitPrice: money("-1")}}, "lines.0.unitPrice"},
		{"missing price", []OrderLineReq{{ProductID: ptr(pr.ID), Quantity: ptr(int64(1))}}, "lines.0.unitPrice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.Create(ctx, &CreateOrderReq{Lines: tt.lines})
			assert.Equal(t, tt.field, validationField(t, err))
		})
	}

	page, err := f.orders.List(ctx, domain.NewPageRequest(0, 0, "", ""))
	require.NoError(t, err)
	assert.Zero(t, page.TotalItems)
}

func TestUpdateOrderStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, pr := f.seedMenu(t)

	order, err := f.orders.Create(ctx, &CreateOrderReq{Lines: []OrderLineReq{
		{ProductID: ptr(pr.ID), Quantity: ptr(int64(2)), UnitPrice: money("10.00")},
	}})
	require.NoError(t, err)

	update := func(status string) (*domain.Order, error) {
		return f.orders.UpdateStatus(ctx, &UpdateOrderStatusReq{ID: order.ID, Status: ptr(status)})
	}

	approved, err := update("approved")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusApproved, approved.Status)
	assert.True(t, approved.TotalPrice.Equal(order.TotalPrice))

	_, err = update("approved")
	assert.ErrorIs(t, err, e.ErrStatusUpToDate)

	_, err = update("cancelled")
	require.NoError(t, err)

	_, err = update("completed")
	assert.ErrorIs(t, err, e.ErrCancelledOrder)

	got, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)

	_, err = update("shipped")
	assert.Equal(t, "status", validationField(t, err))

	_, err = f.orders.UpdateStatus(ctx, &UpdateOrderStatusReq{ID: 999, Status: ptr("approved")})
	assert.ErrorIs(t, err, e.ErrOrderNotFound)
}

func TestReadThroughCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedMenu(t)

	page := domain.NewPageRequest(10, 1, "id", "asc")

	before := f.store.Reads()
	first, err := f.products.List(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, before+1, f.store.Reads())

	second, err := f.products.List(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, before+1, f.store.Reads())

	firstRaw, err := json.Marshal(first)
	require.NoError(t, err)
	secondRaw, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstRaw, secondRaw)

	raw, ok, err := f.cache.Get(ctx, listKey(TagProducts, page))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), "Margherita")

	assert.Equal(t, 1, f.observer.hits)
}

func TestNotFoundIsNotCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orders.Get(ctx, 1)
	require.ErrorIs(t, err, e.ErrOrderNotFound)

	_, ok, err := f.cache.Get(ctx, itemKey(TagOrders, 1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheInvalidationPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat, _ := f.seedMenu(t)

	page := domain.NewPageRequest(10, 1, "id", "asc")
	listed, err := f.categories.List(ctx, page)
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)

	// create сбрасывает весь тег: новая категория видна в списке сразу
	_, err = f.categories.Create(ctx, &CreateCategoryReq{Name: ptr("Drinks")})
	require.NoError(t, err)
	listed, err = f.categories.List(ctx, page)
	require.NoError(t, err)
	require.Len(t, listed.Items, 2)

	// update перезаписывает только ключ элемента: список остаётся прежним до TTL
	_, err = f.categories.Update(ctx, &UpdateCategoryReq{ID: cat.ID, Name: ptr("Pizzas")})
	require.NoError(t, err)
	listed, err = f.categories.List(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, "Pizza", listed.Items[0].Name)

	// delete удаляет только ключ элемента: удалённая категория остаётся в списке до TTL
	drinks := listed.Items[1]
	require.NoError(t, f.categories.Delete(ctx, drinks.ID))
	listed, err = f.categories.List(ctx, page)
	require.NoError(t, err)
	assert.Len(t, listed.Items, 2)

	_, err = f.categories.Get(ctx, drinks.ID)
	assert.ErrorIs(t, err, e.ErrCategoryNotFound)
}

func TestCacheFailureFallsBackToStore(t *testing.T) {
	f := newFixtureWithCache(failingCache{})
	ctx := context.Background()

	cat, err := f.categories.Create(ctx, &CreateCategoryReq{Name: ptr("Pizza")})
	require.NoError(t, err)

	got, err := f.categories.Get(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pizza", got.Name)

	require.NoError(t, f.categories.Delete(ctx, cat.ID))
}

func TestNotificationsPerOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat, pr := f.seedMenu(t)

	_, err := f.categories.Update(ctx, &UpdateCategoryReq{ID: cat.ID, Name: ptr("Pizzas")})
	require.NoError(t, err)
	_, err = f.products.List(ctx, domain.NewPageRequest(0, 0, "", ""))
	require.NoError(t, err)
	order, err := f.orders.Create(ctx, &CreateOrderReq{Lines: []OrderLineReq{
		{ProductID: ptr(pr.ID), Quantity: ptr(int64(1)), UnitPrice: money("10")},
	}})
	require.NoError(t, err)
	_, err = f.orders.UpdateStatus(ctx, &UpdateOrderStatusReq{ID: order.ID, Status: ptr("approved")})
	require.NoError(t, err)

	// отказы и удаления не публикуются
	_, _ = f.orders.UpdateStatus(ctx, &UpdateOrderStatusReq{ID: order.ID, Status: ptr("approved")})
	_, _ = f.orders.Get(ctx, order.ID)

	assert.Equal(t, []string{
		ChannelCreatingCategory,
		ChannelCreatingProduct,
		ChannelUpdatingCategory,
		ChannelListingProducts,
		ChannelCreatingOrder,
		ChannelUpdatingOrder,
	}, f.notifier.channels())
}

func TestListRejectsUnknownSortField(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.List(context.Background(), domain.NewPageRequest(10, 1, "name", "asc"))
	assert.Equal(t, "sortBy", validationField(t, err))
}
