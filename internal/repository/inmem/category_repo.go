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

type CategoryRepo struct {
	s *Store
}

var categoryOrder = map[string]func(a, b domain.Category) int{
	"id":        func(a, b domain.Category) int { return cmp.Compare(a.ID, b.ID) },
	"name":      func(a, b domain.Category) int { return cmp.Compare(a.Name, b.Name) },
	"createdAt": func(a, b domain.Category) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updatedAt": func(a, b domain.Category) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

func (c *CategoryRepo) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	defer c.s.lock(ctx)()

	if c.nameTaken(category.Name, 0) {
		return nil, e.Wrap(whereami.WhereAmI(), e.NewValidationError("name", "the name has already been taken"))
	}

	c.s.categorySeq++
	now := c.s.now()
	row := domain.Category{
		ID:        c.s.categorySeq,
		Name:      category.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.s.categories[row.ID] = row

	return c.withProducts(row), nil
}

func (c *CategoryRepo) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	defer c.s.lock(ctx)()

	row, ok := c.s.categories[category.ID]
	if !ok {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrCategoryNotFound)
	}
	if c.nameTaken(category.Name, category.ID) {
		return nil, e.Wrap(whereami.WhereAmI(), e.NewValidationError("name", "the name has already been taken"))
	}

	row.Name = category.Name
	row.UpdatedAt = c.s.now()
	c.s.categories[row.ID] = row

	return c.withProducts(row), nil
}

func (c *CategoryRepo) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	defer c.s.lock(ctx)()
	c.s.reads.Add(1)

	row, ok := c.s.categories[id]
	if !ok {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrCategoryNotFound)
	}

	return c.withProducts(row), nil
}

func (c *CategoryRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Category, int64, error) {
	defer c.s.lock(ctx)()
	c.s.reads.Add(1)

	order, ok := categoryOrder[page.SortBy]
	if !ok {
		return nil, 0, e.Wrap(whereami.WhereAmI(), e.NewValidationError("sortBy", "the selected sortBy is invalid"))
	}

	all := make([]domain.Category, 0, len(c.s.categories))
	for _, id := range slices.Sorted(maps.Keys(c.s.categories)) {
		all = append(all, c.s.categories[id])
	}

	pageRows := paginate(all, page, order)
	items := make([]domain.Category, 0, len(pageRows))
	for _, row := range pageRows {
		items = append(items, *c.withProducts(row))
	}

	return items, int64(len(all)), nil
}

func (c *CategoryRepo) Delete(ctx context.Context, id int64) error {
	defer c.s.lock(ctx)()

	if _, ok := c.s.categories[id]; !ok {
		return e.Wrap(whereami.WhereAmI(), e.ErrCategoryNotFound)
	}
	for _, p := range c.s.products {
		if p.CategoryID == id {
			return e.Wrap(whereami.WhereAmI(), e.ErrCategoryHasProducts)
		}
	}

	delete(c.s.categories, id)
	return nil
}

func (c *CategoryRepo) Exists(ctx context.Context, id int64) (bool, error) {
	defer c.s.lock(ctx)()

	_, ok := c.s.categories[id]
	return ok, nil
}

func (c *CategoryRepo) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	defer c.s.lock(ctx)()

	return c.nameTaken(name, excludeID), nil
}

func (c *CategoryRepo) HasProducts(ctx context.Context, id int64) (bool, error) {
	defer c.s.lock(ctx)()

	for _, p := range c.s.products {
		if p.CategoryID == id {
			return true, nil
		}
	}

	return false, nil
}

func (c *CategoryRepo) nameTaken(name string, excludeID int64) bool {
	for _, row := range c.s.categories {
		if row.Name == name && row.ID != excludeID {
			return true
		}
	}

	return false
}

// withProducts возвращает копию категории с её продуктами, отсортированными по id.
func (c *CategoryRepo) withProducts(row domain.Category) *domain.Category {
	products := make([]domain.Product, 0)
	for _, id := range slices.Sorted(maps.Keys(c.s.products)) {
		if p := c.s.products[id]; p.CategoryID == row.ID {
			products = append(products, p)
		}
	}
	row.Products = products

	return &row
}
