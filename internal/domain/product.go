package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает продукт меню.
// Category и OrderIDs заполняются только при чтении одного продукта (OrderIDs) или списков (Category).
type Product struct {
	ID         int64           `json:"id"`
	CategoryID int64           `json:"categoryId"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Category   *Category       `json:"category,omitempty"`
	OrderIDs   []int64         `json:"orderIds,omitempty"`
}

func NewProduct(categoryID int64, name string, price decimal.Decimal) *Product {
	return &Product{
		CategoryID: categoryID,
		Name:       name,
		Price:      price,
	}
}

var ProductSortFields = SortFields{"id", "name", "price", "categoryId", "createdAt", "updatedAt"}
