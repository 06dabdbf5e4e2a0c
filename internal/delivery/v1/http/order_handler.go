package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/internal/usecase"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
)

type OrderHandler struct {
	orderUC usecase.OrderUC
	exec    *Executor
	logger  logger.Logger
}

func NewOrderHandler(orderUC usecase.OrderUC, exec *Executor, logger logger.Logger) *OrderHandler {
	return &OrderHandler{orderUC: orderUC, exec: exec, logger: logger}
}

// listOrders
//
//	@Summary		Список заказов
//	@Description	Заказы с позициями. Ответ кэшируется на 60 секунд.
//	@Tags			orders
//	@Produce		json
//	@Param			itemsPerPage	query		int		false	"Элементов на странице"	default(10)
//	@Param			sortBy			query		string	false	"Поле сортировки"		Enums(id, status, totalPrice, createdAt, updatedAt)
//	@Param			sortDirection	query		string	false	"Направление"			Enums(asc, desc)
//	@Param			page			query		int		false	"Номер страницы"		default(1)
//	@Success		200				{object}	Response
//	@Failure		422				{object}	Response
//	@Router			/orders [get]
func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	page := pageRequest(r)

	var res *domain.Page[domain.Order]
	err := h.exec.Run(r.Context(), "OrderHandler.list", func(ctx context.Context) error {
		var err error
		res, err = h.orderUC.List(ctx, page)
		return err
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, listView("orders", res, NewOrderView))
}

// createOrder
//
//	@Summary		Создание заказа
//	@Description	Заказ создаётся в статусе open, totalPrice считается по позициям.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		object{lines=[]object{productId=int,quantity=int,unitPrice=string}}	true	"Позиции заказа"
//	@Success		201		{object}	Response
//	@Failure		422		{object}	Response	"Ошибка валидации"
//	@Router			/orders [post]
func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeOrder(w, r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	var created *domain.Order
	err = h.exec.Run(r.Context(), "OrderHandler.create", func(ctx context.Context) error {
		var err error
		created, err = h.orderUC.Create(ctx, req)
		return err
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, map[string]any{"order": NewOrderView(created)})
}

// getOrder
//
//	@Summary	Заказ с позициями
//	@Tags		orders
//	@Produce	json
//	@Param		id	path		int	true	"ID заказа"
//	@Success	200	{object}	Response
//	@Failure	404	{object}	Response
//	@Router		/orders/{id} [get]
func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, e.ErrOrderNotFound)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	var order *domain.Order
	err = h.exec.Run(r.Context(), "OrderHandler.get", func(ctx context.Context) error {
		var err error
		order, err = h.orderUC.Get(ctx, id)
		return err
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]any{"order": NewOrderView(order)})
}

// updateOrderStatus
//
//	@Summary		Смена статуса заказа
//	@Description	open → approved → completed; cancelled из open, approved и completed. Остальные переходы отклоняются с 400.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"ID заказа"
//	@Param			body	body		object{status=string}	true	"Новый статус"
//	@Success		200		{object}	Response
//	@Failure		400		{object}	Response	"Переход запрещён"
//	@Failure		404		{object}	Response
//	@Failure		422		{object}	Response	"Неизвестный статус"
//	@Router			/orders/{id} [put]
func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, e.ErrOrderNotFound)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	body, err := decodeBody(w, r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	status, err := body.String("status")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	var updated *domain.Order
	err = h.exec.Run(r.Context(), "OrderHandler.updateStatus", func(ctx context.Context) error {
		var err error
		updated, err = h.orderUC.UpdateStatus(ctx, &usecase.UpdateOrderStatusReq{ID: id, Status: status})
		return err
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]any{"order": NewOrderView(updated)})
}

func decodeOrder(w http.ResponseWriter, r *http.Request) (*usecase.CreateOrderReq, error) {
	body, err := decodeBody(w, r)
	if err != nil {
		return nil, err
	}

	items, err := body.Objects("lines")
	if err != nil {
		return nil, err
	}

	lines := make([]usecase.OrderLineReq, 0, len(items))
	for i, item := range items {
		field := func(name string) string {
			return fmt.Sprintf("lines.%d.%s", i, name)
		}

		productID, err := item.intAs("productId", field("productId"))
		if err != nil {
			return nil, err
		}
		quantity, err := item.intAs("quantity", field("quantity"))
		if err != nil {
			return nil, err
		}
		unitPrice, err := item.decimalAs("unitPrice", field("unitPrice"))
		if err != nil {
			return nil, err
		}

		lines = append(lines, usecase.OrderLineReq{
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		})
	}

	return &usecase.CreateOrderReq{Lines: lines}, nil
}
