package inmem

import (
	"cmp"
	"context"
	"maps"
	"slices"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/jimlawless/whereami"
)

type ProductRepo struct {
	s *Store
}

var productOrder = map[string]func(a, b domain.Product) int{
	"id":         func(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) },
	"name":       func(a, b domain.Product) int { return cmp.Compare(a.Name, b.Name) },
	"price":      func(a, b domain.Product) int { return a.Price.Cmp(b.Price) },
	"categoryId": func(a, b domain.Product) int { return cmp.Compare(a.CategoryID, b.CategoryID) },
	"createdAt":  func(a, b domain.Product) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updatedAt":  func(a, b domain.Product) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	defer p.s.lock(ctx)()

	if err := p.checkRow(product, 0); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	p.s.productSeq++
	now := p.s.now()
	row := domain.Product{
		ID:         p.s.productSeq,
		CategoryID: product.CategoryID,
		Name:       product.Name,
		Price:      product.Price,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	p.s.products[row.ID] = row

	return &row, nil
}

func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	defer p.s.lock(ctx)()

	row, ok := p.s.products[product.ID]
	if !ok {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}
	if err := p.checkRow(product, product.ID); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	row.CategoryID = product.CategoryID
	row.Name = product.Name
	row.Price = product.Price
	row.UpdatedAt = p.s.now()
	p.s.products[row.ID] = row

	return &row, nil
}

func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	defer p.s.lock(ctx)()
	p.s.reads.Add(1)

	row, ok := p.s.products[id]
	if !ok {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	row.Category = p.category(row.CategoryID)
	row.OrderIDs = p.orderIDs(id)

	return &row, nil
}

func (p *ProductRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Product, int64, error) {
	defer p.s.lock(ctx)()
	p.s.reads.Add(1)

	order, ok := productOrder[page.SortBy]
	if !ok {
		return nil, 0, e.Wrap(whereami.WhereAmI(), e.NewValidationError("sortBy", "the selected sortBy is invalid"))
	}

	all := make([]domain.Product, 0, len(p.s.products))
	for _, id := range slices.Sorted(maps.Keys(p.s.products)) {
		all = append(all, p.s.products[id])
	}

	pageRows := paginate(all, page, order)
	items := make([]domain.Product, 0, len(pageRows))
	for _, row := range pageRows {
		row.Category = p.category(row.CategoryID)
		items = append(items, row)
	}

	return items, int64(len(all)), nil
}

func (p *ProductRepo) Delete(ctx context.Context, id int64) error {
	defer p.s.lock(ctx)()

	if _, ok := p.s.products[id]; !ok {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}
	if len(p.orderIDs(id)) > 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductHasOrders)
	}

	delete(p.s.products, id)
	return nil
}

func (p *ProductRepo) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	defer p.s.lock(ctx)()

	return p.nameTaken(name, excludeID), nil
}

func (p *ProductRepo) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	defer p.s.lock(ctx)()

	names := make(map[int64]string, len(ids))
	for _, id := range ids {
		if row, ok := p.s.products[id]; ok {
			names[id] = row.Name
		}
	}

	return names, nil
}

func (p *ProductRepo) HasOrderLines(ctx context.Context, id int64) (bool, error) {
	defer p.s.lock(ctx)()

	return len(p.orderIDs(id)) > 0, nil
}

// checkRow повторяет ограничения таблицы products: FK на категорию и уникальное имя.
func (p *ProductRepo) checkRow(product *domain.Product, excludeID int64) error {
	if _, ok := p.s.categories[product.CategoryID]; !ok {
		return e.ErrReferencedEntity
	}
	if p.nameTaken(product.Name, excludeID) {
		return e.NewValidationError("name", "the name has already been taken")
	}

	return nil
}

func (p *ProductRepo) nameTaken(name string, excludeID int64) bool {
	for _, row := range p.s.products {
		if row.Name == name && row.ID != excludeID {
			return true
		}
	}

	return false
}

func (p *ProductRepo) category(id int64) *domain.Category {
	row, ok := p.s.categories[id]
	if !ok {
		return nil
	}

	return &row
}

// orderIDs возвращает идентификаторы заказов с этим продуктом, без повторов и по возрастанию.
func (p *ProductRepo) orderIDs(productID int64) []int64 {
	ids := make([]int64, 0)
	for _, l := range p.s.lines {
		if l.ProductID == productID {
			ids = append(ids, l.OrderID)
		}
	}
	slices.Sort(ids)

	return slices.Compact(ids)
}
