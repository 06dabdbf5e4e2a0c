package notify

import (
	"context"
	"encoding/json"

	"github.com/DRSN-tech/ordering-backend/pkg/clients"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/jimlawless/whereami"
)

// RedisSink публикует JSON-конверт в Redis pub/sub канал с именем события.
type RedisSink struct {
	client *clients.RedisClient
}

func NewRedisSink(client *clients.RedisClient) *RedisSink {
	return &RedisSink{client: client}
}

func (s *RedisSink) Send(ctx context.Context, ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := s.client.Client.Publish(ctx, ev.Channel, data).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
