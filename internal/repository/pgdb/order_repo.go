package pgdb

import (
	"context"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/tr"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

var orderColumns = map[string]string{
	"id":         "id",
	"status":     "status",
	"totalPrice": "total_price",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

const orderFields = `id, status, total_price::text, created_at, updated_at`

// OrderRepo реализует репозиторий заказов поверх PostgreSQL.
type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Create вставляет заказ и его позиции одним батчем. Вызывается внутри транзакции.
func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	conn := tr.Conn(ctx, o.pool)

	query := `
		INSERT INTO orders (status, total_price)
		VALUES ($1, $2::text::numeric)
		RETURNING ` + orderFields + `;
	`

	var model converter.OrderModel
	if err := conn.QueryRow(ctx, query, string(order.Status), order.TotalPrice.String()).
		Scan(&model.ID, &model.Status, &model.TotalPrice, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapError(err, nil))
	}

	created, err := toOrder(&model)
	if err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for _, l := range order.Lines {
		batch.Queue(`
			INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5::text::numeric);
		`, created.ID, l.ProductID, l.ProductName, l.Quantity, l.UnitPrice.String())
	}

	br := conn.SendBatch(ctx, batch)
	for range order.Lines {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return nil, e.Wrap(whereami.WhereAmI(), mapError(err, nil))
		}
	}
	if err := br.Close(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.withLines(ctx, conn, created)
}

func (o *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return o.get(ctx, id, "")
}

// GetForUpdate блокирует строку заказа до конца текущей транзакции.
func (o *OrderRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return o.get(ctx, id, "FOR UPDATE")
}

func (o *OrderRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Order, int64, error) {
	order, err := orderBy(orderColumns, page.SortBy, page.Descending(), "")
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	conn := tr.Conn(ctx, o.pool)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		SELECT ` + orderFields + `
		FROM orders
		` + order + `
		LIMIT $1 OFFSET $2;
	`

	rows, err := conn.Query(ctx, query, page.ItemsPerPage, page.Offset())
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	items := make([]domain.Order, 0, page.ItemsPerPage)
	ids := make([]int64, 0, page.ItemsPerPage)
	for rows.Next() {
		var model converter.OrderModel
		if err := rows.Scan(&model.ID, &model.Status, &model.TotalPrice, &model.CreatedAt, &model.UpdatedAt); err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}

		item, err := toOrder(&model)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *item)
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	lines, err := linesByOrder(ctx, conn, ids)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	for i := range items {
		if ls, ok := lines[items[i].ID]; ok {
			items[i].Lines = ls
		}
	}

	return items, total, nil
}

func (o *OrderRepo) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	conn := tr.Conn(ctx, o.pool)

	query := `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + orderFields + `;
	`

	var model converter.OrderModel
	if err := conn.QueryRow(ctx, query, id, string(status)).
		Scan(&model.ID, &model.Status, &model.TotalPrice, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapError(err, e.ErrOrderNotFound))
	}

	updated, err := toOrder(&model)
	if err != nil {
		return nil, err
	}

	return o.withLines(ctx, conn, updated)
}

func (o *OrderRepo) get(ctx context.Context, id int64, lock string) (*domain.Order, error) {
	conn := tr.Conn(ctx, o.pool)

	query := `
		SELECT ` + orderFields + `
		FROM orders
		WHERE id = $1
		` + lock + `;
	`

	var model converter.OrderModel
	if err := conn.QueryRow(ctx, query, id).
		Scan(&model.ID, &model.Status, &model.TotalPrice, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapError(err, e.ErrOrderNotFound))
	}

	order, err := toOrder(&model)
	if err != nil {
		return nil, err
	}

	return o.withLines(ctx, conn, order)
}

func (o *OrderRepo) withLines(ctx context.Context, conn trmpgx.Tr, order *domain.Order) (*domain.Order, error) {
	lines, err := linesByOrder(ctx, conn, []int64{order.ID})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if ls, ok := lines[order.ID]; ok {
		order.Lines = ls
	}

	return order, nil
}

// linesByOrder читает позиции заказов в порядке вставки.
func linesByOrder(ctx context.Context, conn trmpgx.Tr, orderIDs []int64) (map[int64][]domain.OrderLine, error) {
	result := make(map[int64][]domain.OrderLine, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT order_id, product_id, product_name, quantity, unit_price::text
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY id;
	`

	rows, err := conn.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var model converter.OrderLineModel
		if err := rows.Scan(&model.OrderID, &model.ProductID, &model.ProductName, &model.Quantity, &model.UnitPrice); err != nil {
			return nil, err
		}

		line, err := converter.OrderLineToEntity(&model)
		if err != nil {
			return nil, err
		}
		result[line.OrderID] = append(result[line.OrderID], line)
	}

	return result, rows.Err()
}

func toOrder(model *converter.OrderModel) (*domain.Order, error) {
	order, err := converter.OrderToEntity(model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return order, nil
}
