package http

import (
	"context"

	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
	"github.com/DRSN-tech/ordering-backend/pkg/retry"
)

// Executor выполняет операцию обработчика с ограниченным числом повторов.
// Ошибки валидации, not found и конфликты не повторяются.
// Каждая неудачная попытка пишется в лог apis со всей цепочкой ошибки.
type Executor struct {
	policy retry.Policy
	logger logger.Logger
}

func NewExecutor(policy retry.Policy, logger logger.Logger) *Executor {
	return &Executor{
		policy: policy,
		logger: logger.Named("apis"),
	}
}

func (x *Executor) Run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	retrier := retry.New(x.policy, e.IsPermanent, func(attempt int, err error) {
		x.logger.Errorf(err, "operation failed. op: %s, attempt: %d/%d", op, attempt, x.policy.Attempts)
	})

	return retrier.Do(ctx, fn)
}
