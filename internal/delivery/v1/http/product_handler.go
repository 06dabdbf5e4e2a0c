package http

import (
	"context"
	"net/http"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/internal/usecase"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
)

type ProductHandler struct {
	productUC usecase.ProductUC
	exec      *Executor
	logger    logger.Logger
}

func NewProductHandler(productUC usecase.ProductUC, exec *Executor, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUC: productUC, exec: exec, logger: logger}
}

// listProducts
//
//	@Summary		Список продуктов
//	@Description	Продукты с категориями. Ответ кэшируется на 60 секунд.
//	@Tags			products
//	@Produce		json
//	@Param			itemsPerPage	query		int		false	"Элементов на странице"	default(10)
//	@Param			sortBy			query		string	false	"Поле сортировки"		Enums(id, name, price, categoryId, createdAt, updatedAt)
//	@Param			sortDirection	query		string	false	"Направление"			Enums(asc, desc)
//	@Param			page			query		int		false	"Номер страницы"		default(1)
//	@Success		200				{object}	Response
//	@Failure		422				{object}	Response
//	@Router			/products [get]
func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	page := pageRequest(r)

	var res *domain.Page[domain.Product]
	err := h.exec.Run(r.Context(), "ProductHandler.list", func(ctx context.Context) error {
		var err error
		res, err = h.productUC.List(ctx, page)
		return err
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, listView("products", res, NewProductView))
}

// createProduct
//
//	@Summary	Создание продукта
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		body	body		object{categoryId=int,name=string,price=string}	true	"Продукт"
//	@Success	201		{object}	Response
//	@Failure	422		{object}	Response	"Ошибка валидации"
//	@Router		/products [post]
func (h *ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProduct(w, r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	var created *domain.Product
	err = h.exec.Run(r.Context(), "ProductHandler.create", func(ctx context.Context) error {
		var err error
		created, err = h.productUC.Create(ctx, &usecase.CreateProductReq{
			CategoryID: req.CategoryID,
			Name:       req.Name,
			Price:      req.Price,
		})
		return err
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, map[string]any{"product": NewProductView(created)})
}

// getProduct
//
//	@Summary		Продукт
//	@Description	Продукт с категорией и идентификаторами заказов, в которых он встречается.
//	@Tags			products
//	@Produce		json
//	@Param			id	path		int	true	"ID продукта"
//	@Success		200	{object}	Response
//	@Failure		404	{object}	Response
//	@Router			/products/{id} [get]
func (h *ProductHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, e.ErrProductNotFound)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	var product *domain.Product
	err = h.exec.Run(r.Context(), "ProductHandler.get", func(ctx context.Context) error {
		var err error
		product, err = h.productUC.Get(ctx, id)
		return err
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]any{"product": NewProductView(product)})
}

// updateProduct
//
//	@Summary	Изменение продукта
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int												true	"ID продукта"
//	@Param		body	body		object{categoryId=int,name=string,price=string}	true	"Изменения"
//	@Success	200		{object}	Response
//	@Failure	404		{object}	Response
//	@Failure	422		{object}	Response
//	@Router		/products/{id} [put]
func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, e.ErrProductNotFound)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	req, err := decodeProduct(w, r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	var updated *domain.Product
	err = h.exec.Run(r.Context(), "ProductHandler.update", func(ctx context.Context) error {
		var err error
		updated, err = h.productUC.Update(ctx, &usecase.UpdateProductReq{
			ID:         id,
			CategoryID: req.CategoryID,
			Name:       req.Name,
			Price:      req.Price,
		})
		return err
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]any{"product": NewProductView(updated)})
}

// deleteProduct
//
//	@Summary		Удаление продукта
//	@Description	Продукт, который есть в заказах, удалить нельзя.
//	@Tags			products
//	@Param			id	path	int	true	"ID продукта"
//	@Success		204
//	@Failure		400	{object}	Response	"Продукт есть в заказах"
//	@Failure		404	{object}	Response
//	@Router			/products/{id} [delete]
func (h *ProductHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, e.ErrProductNotFound)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	err = h.exec.Run(r.Context(), "ProductHandler.delete", func(ctx context.Context) error {
		return h.productUC.Delete(ctx, id)
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteNoContent(w)
}

// decodeProduct читает поля продукта в порядке проверки: categoryId, name, price.
func decodeProduct(w http.ResponseWriter, r *http.Request) (*usecase.CreateProductReq, error) {
	body, err := decodeBody(w, r)
	if err != nil {
		return nil, err
	}

	categoryID, err := body.Int("categoryId")
	if err != nil {
		return nil, err
	}
	name, err := body.String("name")
	if err != nil {
		return nil, err
	}
	price, err := body.Decimal("price")
	if err != nil {
		return nil, err
	}

	return &usecase.CreateProductReq{CategoryID: categoryID, Name: name, Price: price}, nil
}
