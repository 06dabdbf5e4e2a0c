package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

var categoryColumns = map[string]string{
	"id":        "id",
	"name":      "name",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// CategoryRepo реализует репозиторий категорий поверх PostgreSQL.
type CategoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

func (c *CategoryRepo) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO categories(name) VALUES ($1)
		RETURNING id, name, created_at, updated_at;
	`

	var model converter.CategoryModel
	if err := tr.Conn(ctx, c.pool).QueryRow(ctx, query, category.Name).
		Scan(&model.ID, &model.Name, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapError(err, nil))
	}

	return converter.CategoryToEntity(&model), nil
}

func (c *CategoryRepo) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		UPDATE categories SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, created_at, updated_at;
	`

	var model converter.CategoryModel
	if err := tr.Conn(ctx, c.pool).QueryRow(ctx, query, category.ID, category.Name).
		Scan(&model.ID, &model.Name, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapError(err, e.ErrCategoryNotFound))
	}

	return c.withProducts(ctx, converter.CategoryToEntity(&model))
}

func (c *CategoryRepo) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM categories
		WHERE id = $1;
	`

	var model converter.CategoryModel
	if err := tr.Conn(ctx, c.pool).QueryRow(ctx, query, id).
		Scan(&model.ID, &model.Name, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapError(err, e.ErrCategoryNotFound))
	}

	return c.withProducts(ctx, converter.CategoryToEntity(&model))
}

func (c *CategoryRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Category, int64, error) {
	order, err := orderBy(categoryColumns, page.SortBy, page.Descending(), "")
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	conn := tr.Conn(ctx, c.pool)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		SELECT id, name, created_at, updated_at
		FROM categories
		` + order + `
		LIMIT $1 OFFSET $2;
	`

	rows, err := conn.Query(ctx, query, page.ItemsPerPage, page.Offset())
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	items := make([]domain.Category, 0, page.ItemsPerPage)
	ids := make([]int64, 0, page.ItemsPerPage)
	for rows.Next() {
		var model converter.CategoryModel
		if err := rows.Scan(&model.ID, &model.Name, &model.CreatedAt, &model.UpdatedAt); err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}
		items = append(items, *converter.CategoryToEntity(&model))
		ids = append(ids, model.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	products, err := productsByCategory(ctx, conn, ids)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	for i := range items {
		if ps, ok := products[items[i].ID]; ok {
			items[i].Products = ps
		}
	}

	return items, total, nil
}

func (c *CategoryRepo) Delete(ctx context.Context, id int64) error {
	tag, err := tr.Conn(ctx, c.pool).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if errors.Is(mapError(err, nil), e.ErrReferencedEntity) {
			return e.Wrap(whereami.WhereAmI(), e.ErrCategoryHasProducts)
		}
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrCategoryNotFound)
	}

	return nil
}

func (c *CategoryRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := tr.Conn(ctx, c.pool).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, id).
		Scan(&exists); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

func (c *CategoryRepo) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var taken bool
	if err := tr.Conn(ctx, c.pool).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE name = $1 AND id <> $2)`, name, excludeID,
	).Scan(&taken); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return taken, nil
}

func (c *CategoryRepo) HasProducts(ctx context.Context, id int64) (bool, error) {
	var has bool
	if err := tr.Conn(ctx, c.pool).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE category_id = $1)`, id).
		Scan(&has); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return has, nil
}

func (c *CategoryRepo) withProducts(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	products, err := productsByCategory(ctx, tr.Conn(ctx, c.pool), []int64{category.ID})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if ps, ok := products[category.ID]; ok {
		category.Products = ps
	}

	return category, nil
}
