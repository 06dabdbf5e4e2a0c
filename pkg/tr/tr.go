package tr

import (
	"context"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn возвращает текущую транзакцию из контекста, а если её нет: пул.
// Репозитории выполняют запросы только через него, чтобы участвовать
// в транзакции, открытой менеджером в usecase.
func Conn(ctx context.Context, pool *pgxpool.Pool) trmpgx.Tr {
	return trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, pool)
}
