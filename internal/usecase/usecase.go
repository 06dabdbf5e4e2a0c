package usecase

import (
	"context"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
)

type CategoryUC interface {
	Create(ctx context.Context, req *CreateCategoryReq) (*domain.Category, error)
	Update(ctx context.Context, req *UpdateCategoryReq) (*domain.Category, error)
	Get(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context, page domain.PageRequest) (*domain.Page[domain.Category], error)
	Delete(ctx context.Context, id int64) error
}

type ProductUC interface {
	Create(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	Update(ctx context.Context, req *UpdateProductReq) (*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, page domain.PageRequest) (*domain.Page[domain.Product], error)
	Delete(ctx context.Context, id int64) error
}

type OrderUC interface {
	Create(ctx context.Context, req *CreateOrderReq) (*domain.Order, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, page domain.PageRequest) (*domain.Page[domain.Order], error)
	UpdateStatus(ctx context.Context, req *UpdateOrderStatusReq) (*domain.Order, error)
}
