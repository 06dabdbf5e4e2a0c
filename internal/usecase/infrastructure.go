package usecase

import "context"

// CacheRepository: хранилище кэша с группировкой ключей по тегам.
// ok=false означает промах; ошибка: недоступность бэкенда.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, tag, key string, value []byte) error
	FlushTag(ctx context.Context, tag string) error
	Delete(ctx context.Context, tag, key string) error
}

// Notifier публикует событие в канал без ожидания доставки. Ошибки не возвращаются.
type Notifier interface {
	Publish(ctx context.Context, channel string, payload any)
}

// CacheObserver получает результат каждого чтения из кэша.
type CacheObserver interface {
	ObserveCache(tag string, hit bool)
}

const (
	TagCategories = "categories"
	TagProducts   = "products"
	TagOrders     = "orders"
)

const (
	ChannelCreatingCategory  = "creating-category"
	ChannelUpdatingCategory  = "updating-category"
	ChannelListingCategories = "listing-categories"

	ChannelCreatingProduct = "creating-product"
	ChannelUpdatingProduct = "updating-product"
	ChannelListingProducts = "listing-products"

	ChannelCreatingOrder = "creating-order"
	ChannelUpdatingOrder = "updating-order"
	ChannelListingOrders = "listing-orders"
)
