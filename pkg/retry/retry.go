// Package retry реализует ограниченный повтор операции с экспоненциальной задержкой.
package retry

import (
	"context"
	"time"

	"github.com/DRSN-tech/ordering-backend/pkg/jitter"
)

// Policy задаёт количество попыток и границы задержки между ними.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    float64
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 50 * time.Millisecond,
		MaxDelay:  time.Second,
		Jitter:    jitter.DefaultJitter,
	}
}

// Retrier повторяет операцию, пока она не выполнится, не вернёт постоянную ошибку
// или не закончатся попытки.
type Retrier struct {
	policy      Policy
	isPermanent func(error) bool
	onFailure   func(attempt int, err error)
}

// New создаёт Retrier. isPermanent отмечает ошибки, которые повторять бессмысленно,
// onFailure вызывается после каждой неудачной попытки (может быть nil).
func New(policy Policy, isPermanent func(error) bool, onFailure func(attempt int, err error)) *Retrier {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if isPermanent == nil {
		isPermanent = func(error) bool { return false }
	}

	return &Retrier{
		policy:      policy,
		isPermanent: isPermanent,
		onFailure:   onFailure,
	}
}

// Do выполняет op и возвращает ошибку последней попытки.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < r.policy.Attempts; attempt++ {
		err = op(ctx)
		if err == nil || r.isPermanent(err) {
			return err
		}

		if r.onFailure != nil {
			r.onFailure(attempt+1, err)
		}

		if attempt == r.policy.Attempts-1 {
			break
		}

		delay := jitter.ExponentialBackoff(r.policy.BaseDelay, r.policy.MaxDelay, attempt, r.policy.Jitter)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return err
		}
	}

	return err
}
