package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event: конверт уведомления. Payload сериализуется в момент публикации,
// поэтому последующие изменения сущности на событие не влияют.
type Event struct {
	ID         uuid.UUID       `json:"eventId"`
	Channel    string          `json:"channel"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

func NewEvent(channel string, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:         uuid.New(),
		Channel:    channel,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// Sink доставляет событие во внешний транспорт.
type Sink interface {
	Send(ctx context.Context, ev *Event) error
}

// Observer получает исход каждой публикации: published, dropped или failed.
type Observer interface {
	ObserveNotification(channel, outcome string)
}

const (
	OutcomePublished = "published"
	OutcomeDropped   = "dropped"
	OutcomeFailed    = "failed"
)
