// Package memory: кэш в памяти процесса на sturdyc для CACHE_DRIVER=memory и тестов.
package memory

import (
	"context"
	"strings"
	"time"

	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/viccon/sturdyc"
)

type Config struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
}

func (c Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return e.Wrap("cache capacity must be greater than 0", e.ErrIncorrectEnvVariable)
	case c.NumShards <= 0:
		return e.Wrap("cache shards must be greater than 0", e.ErrIncorrectEnvVariable)
	case c.TTL <= 0:
		return e.Wrap("cache ttl must be greater than 0", e.ErrIncorrectEnvVariable)
	case c.EvictionPercentage < 1 || c.EvictionPercentage > 100:
		return e.Wrap("cache eviction percentage must be between 1 and 100", e.ErrIncorrectEnvVariable)
	}

	return nil
}

// CacheRepo хранит сериализованные значения. Тег: префикс ключа "<tag>::",
// поэтому сброс тега удаляет все ключи с этим префиксом.
type CacheRepo struct {
	client *sturdyc.Client[[]byte]
}

func NewCacheRepo(cfg Config) (*CacheRepo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &CacheRepo{
		client: sturdyc.New[[]byte](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage),
	}, nil
}

func (c *CacheRepo) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := c.client.Get(key)
	return value, ok, nil
}

func (c *CacheRepo) Set(_ context.Context, _, key string, value []byte) error {
	c.client.Set(key, value)
	return nil
}

func (c *CacheRepo) FlushTag(_ context.Context, tag string) error {
	prefix := tag + "::"
	for _, key := range c.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			c.client.Delete(key)
		}
	}

	return nil
}

func (c *CacheRepo) Delete(_ context.Context, _, key string) error {
	c.client.Delete(key)
	return nil
}

// Size возвращает количество записей в кэше.
func (c *CacheRepo) Size() int {
	return c.client.Size()
}
