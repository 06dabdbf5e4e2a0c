package usecase

import (
	"context"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
)

// TxManager выполняет fn в одной транзакции. Репозитории, вызванные с ctx из fn,
// работают внутри неё.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) (*domain.Category, error)
	// GetByID возвращает категорию вместе с её продуктами.
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	// List возвращает страницу категорий с продуктами и общее количество категорий.
	List(ctx context.Context, page domain.PageRequest) ([]domain.Category, int64, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	// NameTaken проверяет уникальность имени (с учётом регистра), исключая категорию excludeID.
	NameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	HasProducts(ctx context.Context, id int64) (bool, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	// GetByID возвращает продукт с категорией и идентификаторами заказов, в которых он встречается.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// List возвращает страницу продуктов с категориями.
	List(ctx context.Context, page domain.PageRequest) ([]domain.Product, int64, error)
	Delete(ctx context.Context, id int64) error
	NameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	// Names возвращает имена существующих продуктов из ids. Отсутствующих id в результате нет.
	Names(ctx context.Context, ids []int64) (map[int64]string, error)
	HasOrderLines(ctx context.Context, id int64) (bool, error)
}

type OrderRepository interface {
	// Create сохраняет заказ и все его позиции.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// GetForUpdate читает заказ с блокировкой строки до конца транзакции.
	GetForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, page domain.PageRequest) ([]domain.Order, int64, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
}
