package domain

import (
	"slices"

	"github.com/DRSN-tech/ordering-backend/pkg/e"
)

const (
	DefaultItemsPerPage = 10
	MaxItemsPerPage     = 100
	DefaultSortBy       = "id"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// SortFields: allow-list полей сортировки сущности.
type SortFields []string

func (f SortFields) Contains(field string) bool {
	return slices.Contains(f, field)
}

// PageRequest: параметры постраничного чтения.
type PageRequest struct {
	ItemsPerPage  int    `json:"itemsPerPage"`
	SortBy        string `json:"sortBy"`
	SortDirection string `json:"sortDirection"`
	Page          int    `json:"page"`
}

// NewPageRequest нормализует параметры: пустые значения заменяются значениями по умолчанию,
// itemsPerPage < 1 → 10, itemsPerPage > 100 → 100, page < 1 → 1.
func NewPageRequest(itemsPerPage, page int, sortBy, sortDirection string) PageRequest {
	switch {
	case itemsPerPage < 1:
		itemsPerPage = DefaultItemsPerPage
	case itemsPerPage > MaxItemsPerPage:
		itemsPerPage = MaxItemsPerPage
	}
	if page < 1 {
		page = 1
	}
	if sortBy == "" {
		sortBy = DefaultSortBy
	}
	if sortDirection == "" {
		sortDirection = SortAsc
	}

	return PageRequest{
		ItemsPerPage:  itemsPerPage,
		SortBy:        sortBy,
		SortDirection: sortDirection,
		Page:          page,
	}
}

// Validate проверяет поле и направление сортировки по allow-list сущности.
func (p PageRequest) Validate(allowed SortFields) error {
	if !allowed.Contains(p.SortBy) {
		return e.NewValidationError("sortBy", "the selected sortBy is invalid")
	}
	if p.SortDirection != SortAsc && p.SortDirection != SortDesc {
		return e.NewValidationError("sortDirection", "the selected sortDirection is invalid")
	}

	return nil
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.ItemsPerPage
}

func (p PageRequest) Descending() bool {
	return p.SortDirection == SortDesc
}

// Page: страница результатов вместе с запросом, по которому она получена.
type Page[T any] struct {
	Items      []T         `json:"items"`
	TotalItems int64       `json:"totalItems"`
	Request    PageRequest `json:"request"`
}

func NewPage[T any](items []T, total int64, req PageRequest) *Page[T] {
	if items == nil {
		items = []T{}
	}

	return &Page[T]{Items: items, TotalItems: total, Request: req}
}

// LastPage: номер последней страницы, минимум 1.
func (p *Page[T]) LastPage() int {
	if p.TotalItems == 0 || p.Request.ItemsPerPage < 1 {
		return 1
	}

	per := int64(p.Request.ItemsPerPage)
	return int((p.TotalItems + per - 1) / per)
}
