package usecase

import "github.com/shopspring/decimal"

// Поля запросов: указатели: nil означает, что поле не передано.

type CreateCategoryReq struct {
	Name *string
}

type UpdateCategoryReq struct {
	ID   int64
	Name *string
}

type CreateProductReq struct {
	CategoryID *int64
	Name       *string
	Price      *decimal.Decimal
}

type UpdateProductReq struct {
	ID         int64
	CategoryID *int64
	Name       *string
	Price      *decimal.Decimal
}

type CreateOrderReq struct {
	Lines []OrderLineReq
}

type OrderLineReq struct {
	ProductID *int64
	Quantity  *int64
	UnitPrice *decimal.Decimal
}

type UpdateOrderStatusReq struct {
	ID     int64
	Status *string
}
