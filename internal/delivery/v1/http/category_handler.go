package http

import (
	"context"
	"net/http"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/internal/usecase"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
)

type CategoryHandler struct {
	categoryUC usecase.CategoryUC
	exec       *Executor
	logger     logger.Logger
}

func NewCategoryHandler(categoryUC usecase.CategoryUC, exec *Executor, logger logger.Logger) *CategoryHandler {
	return &CategoryHandler{categoryUC: categoryUC, exec: exec, logger: logger}
}

// listCategories
//
//	@Summary		Список категорий
//	@Description	Категории с продуктами. Ответ кэшируется на 60 секунд.
//	@Tags			categories
//	@Produce		json
//	@Param			itemsPerPage	query		int		false	"Элементов на странице"	default(10)
//	@Param			sortBy			query		string	false	"Поле сортировки"		Enums(id, name, createdAt, updatedAt)
//	@Param			sortDirection	query		string	false	"Направление"			Enums(asc, desc)
//	@Param			page			query		int		false	"Номер страницы"		default(1)
//	@Success		200				{object}	Response
//	@Failure		422				{object}	Response	"Недопустимое поле сортировки"
//	@Failure		500				{object}	Response
//	@Router			/categories [get]
func (h *CategoryHandler) list(w http.ResponseWriter, r *http.Request) {
	page := pageRequest(r)

	var res *domain.Page[domain.Category]
	err := h.exec.Run(r.Context(), "CategoryHandler.list", func(ctx context.Context) error {
		var err error
		res, err = h.categoryUC.List(ctx, page)
		return err
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, listView("categories", res, NewCategoryView))
}

// createCategory
//
//	@Summary		Создание категории
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			body	body		object{name=string}	true	"Категория"
//	@Success		201		{object}	Response
//	@Failure		422		{object}	Response	"Ошибка валидации"
//	@Failure		500		{object}	Response
//	@Router			/categories [post]
func (h *CategoryHandler) create(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	name, err := body.String("name")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	var created *domain.Category
	err = h.exec.Run(r.Context(), "CategoryHandler.create", func(ctx context.Context) error {
		var err error
		created, err = h.categoryUC.Create(ctx, &usecase.CreateCategoryReq{Name: name})
		return err
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, map[string]any{"category": NewCategoryView(created)})
}

// getCategory
//
//	@Summary	Категория с продуктами
//	@Tags		categories
//	@Produce	json
//	@Param		id	path		int	true	"ID категории"
//	@Success	200	{object}	Response
//	@Failure	404	{object}	Response
//	@Router		/categories/{id} [get]
func (h *CategoryHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, e.ErrCategoryNotFound)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	var category *domain.Category
	err = h.exec.Run(r.Context(), "CategoryHandler.get", func(ctx context.Context) error {
		var err error
		category, err = h.categoryUC.Get(ctx, id)
		return err
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]any{"category": NewCategoryView(category)})
}

// updateCategory
//
//	@Summary		Изменение категории
//	@Description	Частичное обновление: непереданные поля не меняются.
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"ID категории"
//	@Param			body	body		object{name=string}	true	"Изменения"
//	@Success		200		{object}	Response
//	@Failure		404		{object}	Response
//	@Failure		422		{object}	Response
//	@Router			/categories/{id} [put]
func (h *CategoryHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, e.ErrCategoryNotFound)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	body, err := decodeBody(w, r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	name, err := body.String("name")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	var updated *domain.Category
	err = h.exec.Run(r.Context(), "CategoryHandler.update", func(ctx context.Context) error {
		var err error
		updated, err = h.categoryUC.Update(ctx, &usecase.UpdateCategoryReq{ID: id, Name: name})
		return err
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]any{"category": NewCategoryView(updated)})
}

// deleteCategory
//
//	@Summary		Удаление категории
//	@Description	Категорию с продуктами удалить нельзя.
//	@Tags			categories
//	@Param			id	path	int	true	"ID категории"
//	@Success		204
//	@Failure		400	{object}	Response	"У категории есть продукты"
//	@Failure		404	{object}	Response
//	@Router			/categories/{id} [delete]
func (h *CategoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, e.ErrCategoryNotFound)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	err = h.exec.Run(r.Context(), "CategoryHandler.delete", func(ctx context.Context) error {
		return h.categoryUC.Delete(ctx, id)
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteNoContent(w)
}
