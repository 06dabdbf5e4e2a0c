package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
)

// cacheAside: read-through обвязка над CacheRepository.
// Ошибки кэша логируются и никогда не доходят до вызывающего.
type cacheAside struct {
	repo     CacheRepository
	observer CacheObserver
	logger   logger.Logger
}

func newCacheAside(repo CacheRepository, observer CacheObserver, logger logger.Logger) *cacheAside {
	return &cacheAside{repo: repo, observer: observer, logger: logger}
}

func listKey(tag string, page domain.PageRequest) string {
	return fmt.Sprintf("%s::list::%d::%s::%s::%d", tag, page.ItemsPerPage, page.SortBy, page.SortDirection, page.Page)
}

func itemKey(tag string, id int64) string {
	return fmt.Sprintf("%s::item::%d", tag, id)
}

// remember возвращает значение из кэша, а при промахе вызывает fetch и сохраняет результат.
// Ошибки fetch не кэшируются.
func remember[T any](ctx context.Context, c *cacheAside, tag, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	raw, ok, err := c.repo.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warnf("cache read failed, falling back to store. key: %s, error: %v", key, err)
	case ok:
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			c.observe(tag, true)
			return cached, nil
		}
		c.logger.Warnf("cache entry is corrupted, refetching. key: %s", key)
	}
	c.observe(tag, false)

	value, err := fetch(ctx)
	if err != nil {
		return value, err
	}

	c.put(ctx, tag, key, value)
	return value, nil
}

// put перезаписывает один ключ.
func (c *cacheAside) put(ctx context.Context, tag, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warnf("failed to encode cache entry. key: %s, error: %v", key, err)
		return
	}

	if err := c.repo.Set(ctx, tag, key, raw); err != nil {
		c.logger.Warnf("failed to write cache entry. key: %s, error: %v", key, err)
	}
}

// flush сбрасывает все ключи тега.
func (c *cacheAside) flush(ctx context.Context, tag string) {
	if err := c.repo.FlushTag(ctx, tag); err != nil {
		c.logger.Warnf("failed to flush cache tag. tag: %s, error: %v", tag, err)
	}
}

// forget удаляет один ключ. Списки тега остаются до истечения TTL.
func (c *cacheAside) forget(ctx context.Context, tag, key string) {
	if err := c.repo.Delete(ctx, tag, key); err != nil {
		c.logger.Warnf("failed to delete cache entry. key: %s, error: %v", key, err)
	}
}

func (c *cacheAside) observe(tag string, hit bool) {
	if c.observer != nil {
		c.observer.ObserveCache(tag, hit)
	}
}
