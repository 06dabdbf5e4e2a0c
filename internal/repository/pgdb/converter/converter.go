package converter

import (
	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/shopspring/decimal"
)

func CategoryToEntity(model *CategoryModel) *domain.Category {
	return &domain.Category{
		ID:        model.ID,
		Name:      model.Name,
		CreatedAt: model.CreatedAt.UTC(),
		UpdatedAt: model.UpdatedAt.UTC(),
		Products:  []domain.Product{},
	}
}

func ProductToEntity(model *ProductModel) (*domain.Product, error) {
	price, err := decimal.NewFromString(model.Price)
	if err != nil {
		return nil, err
	}

	return &domain.Product{
		ID:         model.ID,
		CategoryID: model.CategoryID,
		Name:       model.Name,
		Price:      price,
		CreatedAt:  model.CreatedAt.UTC(),
		UpdatedAt:  model.UpdatedAt.UTC(),
	}, nil
}

func OrderToEntity(model *OrderModel) (*domain.Order, error) {
	total, err := decimal.NewFromString(model.TotalPrice)
	if err != nil {
		return nil, err
	}

	return &domain.Order{
		ID:         model.ID,
		Status:     domain.OrderStatus(model.Status),
		TotalPrice: total,
		CreatedAt:  model.CreatedAt.UTC(),
		UpdatedAt:  model.UpdatedAt.UTC(),
		Lines:      []domain.OrderLine{},
	}, nil
}

func OrderLineToEntity(model *OrderLineModel) (domain.OrderLine, error) {
	price, err := decimal.NewFromString(model.UnitPrice)
	if err != nil {
		return domain.OrderLine{}, err
	}

	return domain.OrderLine{
		OrderID:     model.OrderID,
		ProductID:   model.ProductID,
		ProductName: model.ProductName,
		Quantity:    model.Quantity,
		UnitPrice:   price,
	}, nil
}
