package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/tr"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

var productColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"price":      "price",
	"categoryId": "category_id",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

const productFields = `id, category_id, name, price::text, created_at, updated_at`

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO products (category_id, name, price)
		VALUES ($1, $2, $3::text::numeric)
		RETURNING ` + productFields + `;
	`

	var model converter.ProductModel
	if err := tr.Conn(ctx, p.pool).QueryRow(ctx, query, product.CategoryID, product.Name, product.Price.String()).
		Scan(&model.ID, &model.CategoryID, &model.Name, &model.Price, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapError(err, nil))
	}

	return toProduct(&model)
}

func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		UPDATE products
		SET category_id = $2, name = $3, price = $4::text::numeric, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productFields + `;
	`

	var model converter.ProductModel
	if err := tr.Conn(ctx, p.pool).QueryRow(ctx, query, product.ID, product.CategoryID, product.Name, product.Price.String()).
		Scan(&model.ID, &model.CategoryID, &model.Name, &model.Price, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapError(err, e.ErrProductNotFound))
	}

	return toProduct(&model)
}

// GetByID возвращает продукт с категорией и отсортированными id заказов.
func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	conn := tr.Conn(ctx, p.pool)

	query := `
		SELECT pr.id, pr.category_id, pr.name, pr.price::text, pr.created_at, pr.updated_at,
		       cat.id, cat.name, cat.created_at, cat.updated_at
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE pr.id = $1;
	`

	var model converter.ProductModel
	var catModel converter.CategoryModel
	if err := conn.QueryRow(ctx, query, id).Scan(
		&model.ID, &model.CategoryID, &model.Name, &model.Price, &model.CreatedAt, &model.UpdatedAt,
		&catModel.ID, &catModel.Name, &catModel.CreatedAt, &catModel.UpdatedAt,
	); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapError(err, e.ErrProductNotFound))
	}

	product, err := toProduct(&model)
	if err != nil {
		return nil, err
	}
	product.Category = categoryRef(&catModel)

	rows, err := conn.Query(ctx, `SELECT DISTINCT order_id FROM order_lines WHERE product_id = $1 ORDER BY order_id`, id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	product.OrderIDs = make([]int64, 0)
	for rows.Next() {
		var orderID int64
		if err := rows.Scan(&orderID); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		product.OrderIDs = append(product.OrderIDs, orderID)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}

func (p *ProductRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Product, int64, error) {
	order, err := orderBy(productColumns, page.SortBy, page.Descending(), "")
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	outerOrder, err := orderBy(productColumns, page.SortBy, page.Descending(), "page.")
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	conn := tr.Conn(ctx, p.pool)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		WITH page AS (
			SELECT ` + productFields + `
			FROM products
			` + order + `
			LIMIT $1 OFFSET $2
		)
		SELECT page.*, cat.id, cat.name, cat.created_at, cat.updated_at
		FROM page
		JOIN categories cat ON page.category_id = cat.id
		` + outerOrder + `;
	`

	rows, err := conn.Query(ctx, query, page.ItemsPerPage, page.Offset())
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	items := make([]domain.Product, 0, page.ItemsPerPage)
	for rows.Next() {
		var model converter.ProductModel
		var catModel converter.CategoryModel
		if err := rows.Scan(
			&model.ID, &model.CategoryID, &model.Name, &model.Price, &model.CreatedAt, &model.UpdatedAt,
			&catModel.ID, &catModel.Name, &catModel.CreatedAt, &catModel.UpdatedAt,
		); err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}

		product, err := toProduct(&model)
		if err != nil {
			return nil, 0, err
		}
		product.Category = categoryRef(&catModel)
		items = append(items, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return items, total, nil
}

func (p *ProductRepo) Delete(ctx context.Context, id int64) error {
	tag, err := tr.Conn(ctx, p.pool).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(mapError(err, nil), e.ErrReferencedEntity) {
			return e.Wrap(whereami.WhereAmI(), e.ErrProductHasOrders)
		}
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

func (p *ProductRepo) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var taken bool
	if err := tr.Conn(ctx, p.pool).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE name = $1 AND id <> $2)`, name, excludeID,
	).Scan(&taken); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return taken, nil
}

// Names возвращает имена продуктов по их идентификаторам.
func (p *ProductRepo) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	rows, err := tr.Conn(ctx, p.pool).Query(ctx, `SELECT id, name FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	names := make(map[int64]string, len(ids))
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return names, nil
}

func (p *ProductRepo) HasOrderLines(ctx context.Context, id int64) (bool, error) {
	var has bool
	if err := tr.Conn(ctx, p.pool).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM order_lines WHERE product_id = $1)`, id).
		Scan(&has); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return has, nil
}

// productsByCategory читает продукты указанных категорий, сгруппированные по category_id и отсортированные по id.
func productsByCategory(ctx context.Context, conn trmpgx.Tr, categoryIDs []int64) (map[int64][]domain.Product, error) {
	result := make(map[int64][]domain.Product, len(categoryIDs))
	if len(categoryIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT ` + productFields + `
		FROM products
		WHERE category_id = ANY($1)
		ORDER BY id;
	`

	rows, err := conn.Query(ctx, query, categoryIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var model converter.ProductModel
		if err := rows.Scan(&model.ID, &model.CategoryID, &model.Name, &model.Price, &model.CreatedAt, &model.UpdatedAt); err != nil {
			return nil, err
		}

		product, err := toProduct(&model)
		if err != nil {
			return nil, err
		}
		result[product.CategoryID] = append(result[product.CategoryID], *product)
	}

	return result, rows.Err()
}

func toProduct(model *converter.ProductModel) (*domain.Product, error) {
	product, err := converter.ProductToEntity(model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}

// categoryRef: категория без вложенных продуктов, как она отдаётся внутри продукта.
func categoryRef(model *converter.CategoryModel) *domain.Category {
	category := converter.CategoryToEntity(model)
	category.Products = nil

	return category
}
