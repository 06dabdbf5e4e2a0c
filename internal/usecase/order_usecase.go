package usecase

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
)

// OrderUseCase управляет заказами и жизненным циклом их статуса.
type OrderUseCase struct {
	orderRepo   OrderRepository
	productRepo ProductRepository
	trm         TxManager
	cache       *cacheAside
	notifier    Notifier
	logger      logger.Logger
}

func NewOrderUC(
	orderRepo OrderRepository,
	productRepo ProductRepository,
	trm TxManager,
	cacheRepo CacheRepository,
	observer CacheObserver,
	notifier Notifier,
	logger logger.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		trm:         trm,
		cache:       newCacheAside(cacheRepo, observer, logger),
		notifier:    notifier,
		logger:      logger,
	}
}

// Create сохраняет заказ в статусе open вместе со всеми позициями в одной транзакции.
// Цена позиции берётся из запроса, а не из текущей цены продукта.
func (o *OrderUseCase) Create(ctx context.Context, req *CreateOrderReq) (*domain.Order, error) {
	const op = "OrderUseCase.Create"

	if err := validateLines(req.Lines); err != nil {
		return nil, e.Wrap(op, err)
	}

	var created *domain.Order
	err := o.trm.Do(ctx, func(ctx context.Context) error {
		ids := make([]int64, 0, len(req.Lines))
		for _, l := range req.Lines {
			ids = append(ids, *l.ProductID)
		}

		names, err := o.productRepo.Names(ctx, ids)
		if err != nil {
			return err
		}

		lines := make([]domain.OrderLine, 0, len(req.Lines))
		for i, l := range req.Lines {
			name, ok := names[*l.ProductID]
			if !ok {
				return selectedInvalid(fmt.Sprintf("lines.%d.productId", i))
			}
			lines = append(lines, domain.OrderLine{
				ProductID:   *l.ProductID,
				ProductName: name,
				Quantity:    *l.Quantity,
				UnitPrice:   *l.UnitPrice,
			})
		}

		created, err = o.orderRepo.Create(ctx, domain.NewOrder(lines))
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	o.cache.flush(ctx, TagOrders)
	o.notifier.Publish(ctx, ChannelCreatingOrder, created)

	return created, nil
}

func (o *OrderUseCase) Get(ctx context.Context, id int64) (*domain.Order, error) {
	const op = "OrderUseCase.Get"

	order, err := remember(ctx, o.cache, TagOrders, itemKey(TagOrders, id),
		func(ctx context.Context) (*domain.Order, error) {
			return o.orderRepo.GetByID(ctx, id)
		},
	)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return order, nil
}

func (o *OrderUseCase) List(ctx context.Context, page domain.PageRequest) (*domain.Page[domain.Order], error) {
	const op = "OrderUseCase.List"

	if err := page.Validate(domain.OrderSortFields); err != nil {
		return nil, e.Wrap(op, err)
	}

	res, err := remember(ctx, o.cache, TagOrders, listKey(TagOrders, page),
		func(ctx context.Context) (*domain.Page[domain.Order], error) {
			items, total, err := o.orderRepo.List(ctx, page)
			if err != nil {
				return nil, err
			}
			return domain.NewPage(items, total, page), nil
		},
	)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	o.notifier.Publish(ctx, ChannelListingOrders, res)

	return res, nil
}

// UpdateStatus переводит заказ в новый статус. Строка заказа блокируется на время транзакции,
// поэтому параллельные переходы одного заказа выполняются последовательно.
func (o *OrderUseCase) UpdateStatus(ctx context.Context, req *UpdateOrderStatusReq) (*domain.Order, error) {
	const op = "OrderUseCase.UpdateStatus"

	if err := firstInvalid(
		check("status", req.Status, required("status"), orderStatus("status")),
	); err != nil {
		return nil, e.Wrap(op, err)
	}
	requested, _ := domain.ParseOrderStatus(*req.Status)

	var updated *domain.Order
	err := o.trm.Do(ctx, func(ctx context.Context) error {
		current, err := o.orderRepo.GetForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}

		if err := current.ChangeStatus(requested); err != nil {
			return err
		}

		updated, err = o.orderRepo.UpdateStatus(ctx, current.ID, current.Status)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	o.cache.put(ctx, TagOrders, itemKey(TagOrders, updated.ID), updated)
	o.notifier.Publish(ctx, ChannelUpdatingOrder, updated)

	return updated, nil
}

func validateLines(lines []OrderLineReq) error {
	if len(lines) == 0 {
		return e.NewValidationError("lines", "the lines field is required")
	}

	for i, l := range lines {
		field := func(name string) string {
			return fmt.Sprintf("lines.%d.%s", i, name)
		}

		if err := firstInvalid(
			check(field("productId"), l.ProductID, present(field("productId"))),
			check(field("quantity"), l.Quantity, present(field("quantity")), atLeastOne(field("quantity"))),
			check(field("unitPrice"), l.UnitPrice, present(field("unitPrice")), amount(field("unitPrice"))),
		); err != nil {
			return err
		}
	}

	return nil
}
