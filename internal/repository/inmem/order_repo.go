package inmem

import (
	"cmp"
	"context"
	"maps"
	"slices"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/jimlawless/whereami"
)

type OrderRepo struct {
	s *Store
}

var orderOrder = map[string]func(a, b domain.Order) int{
	"id":         func(a, b domain.Order) int { return cmp.Compare(a.ID, b.ID) },
	"status":     func(a, b domain.Order) int { return cmp.Compare(a.Status, b.Status) },
	"totalPrice": func(a, b domain.Order) int { return a.TotalPrice.Cmp(b.TotalPrice) },
	"createdAt":  func(a, b domain.Order) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updatedAt":  func(a, b domain.Order) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	defer o.s.lock(ctx)()

	for _, l := range order.Lines {
		if _, ok := o.s.products[l.ProductID]; !ok {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrReferencedEntity)
		}
	}

	o.s.orderSeq++
	now := o.s.now()
	row := domain.Order{
		ID:         o.s.orderSeq,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.s.orders[row.ID] = row

	for _, l := range order.Lines {
		l.OrderID = row.ID
		o.s.lines = append(o.s.lines, l)
	}

	return o.withLines(row), nil
}

func (o *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	defer o.s.lock(ctx)()
	o.s.reads.Add(1)

	row, ok := o.s.orders[id]
	if !ok {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrOrderNotFound)
	}

	return o.withLines(row), nil
}

// GetForUpdate в памяти совпадает с GetByID: транзакция и так держит всё хранилище.
func (o *OrderRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return o.GetByID(ctx, id)
}

func (o *OrderRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Order, int64, error) {
	defer o.s.lock(ctx)()
	o.s.reads.Add(1)

	order, ok := orderOrder[page.SortBy]
	if !ok {
		return nil, 0, e.Wrap(whereami.WhereAmI(), e.NewValidationError("sortBy", "the selected sortBy is invalid"))
	}

	all := make([]domain.Order, 0, len(o.s.orders))
	for _, id := range slices.Sorted(maps.Keys(o.s.orders)) {
		all = append(all, o.s.orders[id])
	}

	pageRows := paginate(all, page, order)
	items := make([]domain.Order, 0, len(pageRows))
	for _, row := range pageRows {
		items = append(items, *o.withLines(row))
	}

	return items, int64(len(all)), nil
}

func (o *OrderRepo) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	defer o.s.lock(ctx)()

	row, ok := o.s.orders[id]
	if !ok {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrOrderNotFound)
	}

	row.Status = status
	row.UpdatedAt = o.s.now()
	o.s.orders[id] = row

	return o.withLines(row), nil
}

func (o *OrderRepo) withLines(row domain.Order) *domain.Order {
	lines := make([]domain.OrderLine, 0)
	for _, l := range o.s.lines {
		if l.OrderID == row.ID {
			lines = append(lines, l)
		}
	}
	row.Lines = lines

	return &row
}
