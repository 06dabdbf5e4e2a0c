package redis

import (
	"context"
	"errors"
	"time"

	"github.com/DRSN-tech/ordering-backend/pkg/clients"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// CacheRepo: кэш поверх Redis. Ключи тега хранятся в множестве tag:<tag>,
// чтобы сбрасывать тег целиком без SCAN по всей базе.
type CacheRepo struct {
	client *clients.RedisClient
	ttl    time.Duration
}

func NewCacheRepo(client *clients.RedisClient, ttl time.Duration) *CacheRepo {
	return &CacheRepo{
		client: client,
		ttl:    ttl,
	}
}

// Get возвращает значение по ключу. Отсутствие ключа: промах, а не ошибка.
func (c *CacheRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, false, nil
		}
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, true, nil
}

// Set атомарно записывает значение с TTL и добавляет ключ в множество тега.
func (c *CacheRepo) Set(ctx context.Context, tag, key string, value []byte) error {
	tagKey := c.tagKey(tag)

	pipeline := c.client.Client.TxPipeline()
	pipeline.Set(ctx, key, value, c.ttl)
	pipeline.SAdd(ctx, tagKey, key)
	pipeline.Expire(ctx, tagKey, c.ttl)

	if _, err := pipeline.Exec(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// FlushTag удаляет все ключи тега и само множество.
func (c *CacheRepo) FlushTag(ctx context.Context, tag string) error {
	tagKey := c.tagKey(tag)

	keys, err := c.client.Client.SMembers(ctx, tagKey).Result()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Del(ctx, append(keys, tagKey)...).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Delete удаляет один ключ и убирает его из множества тега.
func (c *CacheRepo) Delete(ctx context.Context, tag, key string) error {
	pipeline := c.client.Client.TxPipeline()
	pipeline.Del(ctx, key)
	pipeline.SRem(ctx, c.tagKey(tag), key)

	if _, err := pipeline.Exec(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// tagKey возвращает Redis-ключ множества тега
func (c *CacheRepo) tagKey(tag string) string {
	return "tag:" + tag
}
