package http

import (
	"time"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Денежные значения отдаются строкой с двумя знаками: "10.00".
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type CategoryView struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Products  []ProductView `json:"products"`
}

// CategoryRef: категория внутри продукта, без вложенных продуктов.
type CategoryRef struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProductView struct {
	ID         int64        `json:"id"`
	CategoryID int64        `json:"categoryId"`
	Name       string       `json:"name"`
	Price      string       `json:"price" example:"10.00"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
	Category   *CategoryRef `json:"category,omitempty"`
	OrderIDs   []int64      `json:"orderIds,omitempty"`
}

type OrderView struct {
	ID         int64           `json:"id"`
	Status     string          `json:"status" example:"open"`
	TotalPrice string          `json:"totalPrice" example:"20.00"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Lines      []OrderLineView `json:"lines"`
}

type OrderLineView struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unitPrice" example:"10.00"`
	Subtotal    string `json:"subtotal" example:"20.00"`
}

type FilterView struct {
	ItemsPerPage  int    `json:"itemsPerPage"`
	SortBy        string `json:"sortBy"`
	SortDirection string `json:"sortDirection"`
	Page          int    `json:"page"`
}

func NewCategoryView(c *domain.Category) CategoryView {
	products := make([]ProductView, 0, len(c.Products))
	for i := range c.Products {
		products = append(products, NewProductView(&c.Products[i]))
	}

	return CategoryView{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Products:  products,
	}
}

func NewProductView(p *domain.Product) ProductView {
	view := ProductView{
		ID:         p.ID,
		CategoryID: p.CategoryID,
		Name:       p.Name,
		Price:      money(p.Price),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		OrderIDs:   p.OrderIDs,
	}
	if p.Category != nil {
		view.Category = &CategoryRef{
			ID:        p.Category.ID,
			Name:      p.Category.Name,
			CreatedAt: p.Category.CreatedAt,
			UpdatedAt: p.Category.UpdatedAt,
		}
	}

	return view
}

func NewOrderView(o *domain.Order) OrderView {
	lines := make([]OrderLineView, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineView{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   money(l.UnitPrice),
			Subtotal:    money(l.Subtotal()),
		})
	}

	return OrderView{
		ID:         o.ID,
		Status:     string(o.Status),
		TotalPrice: money(o.TotalPrice),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
		Lines:      lines,
	}
}

// listView собирает data списка: {<key>: [...], lastPage, totalItems, filter}.
func listView[T, V any](key string, page *domain.Page[T], view func(*T) V) map[string]any {
	items := make([]V, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, view(&page.Items[i]))
	}

	return map[string]any{
		key:          items,
		"lastPage":   page.LastPage(),
		"totalItems": page.TotalItems,
		"filter": FilterView{
			ItemsPerPage:  page.Request.ItemsPerPage,
			SortBy:        page.Request.SortBy,
			SortDirection: page.Request.SortDirection,
			Page:          page.Request.Page,
		},
	}
}
