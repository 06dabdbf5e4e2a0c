package usecase

import (
	"context"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
)

// ProductUseCase реализует бизнес-логику продуктов меню.
type ProductUseCase struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	trm          TxManager
	cache        *cacheAside
	notifier     Notifier
	logger       logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	trm TxManager,
	cacheRepo CacheRepository,
	observer CacheObserver,
	notifier Notifier,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		trm:          trm,
		cache:        newCacheAside(cacheRepo, observer, logger),
		notifier:     notifier,
		logger:       logger,
	}
}

// Create создаёт продукт в существующей категории.
func (p *ProductUseCase) Create(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.Create"

	if err := firstInvalid(
		check("categoryId", req.CategoryID, present("categoryId")),
		check("name", req.Name, required("name"), nameLength("name")),
		check("price", req.Price, present("price"), amount("price")),
	); err != nil {
		return nil, e.Wrap(op, err)
	}

	var created *domain.Product
	err := p.trm.Do(ctx, func(ctx context.Context) error {
		if err := p.ensureCategory(ctx, *req.CategoryID); err != nil {
			return err
		}
		if err := p.ensureNameFree(ctx, *req.Name, 0); err != nil {
			return err
		}

		var err error
		created, err = p.productRepo.Create(ctx, domain.NewProduct(*req.CategoryID, *req.Name, *req.Price))
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.cache.flush(ctx, TagProducts)
	p.notifier.Publish(ctx, ChannelCreatingProduct, created)

	return created, nil
}

// Update частично обновляет продукт и перезаписывает его ключ в кэше.
func (p *ProductUseCase) Update(ctx context.Context, req *UpdateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.Update"

	if err := firstInvalid(
		check("name", req.Name, notEmptyIfSet("name"), nameLength("name")),
		check("price", req.Price, amount("price")),
	); err != nil {
		return nil, e.Wrap(op, err)
	}

	var updated *domain.Product
	err := p.trm.Do(ctx, func(ctx context.Context) error {
		current, err := p.productRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		changed := false
		if req.CategoryID != nil && *req.CategoryID != current.CategoryID {
			if err := p.ensureCategory(ctx, *req.CategoryID); err != nil {
				return err
			}
			current.CategoryID = *req.CategoryID
			changed = true
		}
		if req.Name != nil && *req.Name != current.Name {
			if err := p.ensureNameFree(ctx, *req.Name, current.ID); err != nil {
				return err
			}
			current.Name = *req.Name
			changed = true
		}
		if req.Price != nil && !req.Price.Equal(current.Price) {
			current.Price = *req.Price
			changed = true
		}

		if changed {
			if _, err := p.productRepo.Update(ctx, current); err != nil {
				return err
			}
		}

		updated, err = p.productRepo.GetByID(ctx, req.ID)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.cache.put(ctx, TagProducts, itemKey(TagProducts, updated.ID), updated)
	p.notifier.Publish(ctx, ChannelUpdatingProduct, updated)

	return updated, nil
}

// Get возвращает продукт с категорией и заказами через кэш.
func (p *ProductUseCase) Get(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "ProductUseCase.Get"

	product, err := remember(ctx, p.cache, TagProducts, itemKey(TagProducts, id),
		func(ctx context.Context) (*domain.Product, error) {
			return p.productRepo.GetByID(ctx, id)
		},
	)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return product, nil
}

func (p *ProductUseCase) List(ctx context.Context, page domain.PageRequest) (*domain.Page[domain.Product], error) {
	const op = "ProductUseCase.List"

	if err := page.Validate(domain.ProductSortFields); err != nil {
		return nil, e.Wrap(op, err)
	}

	res, err := remember(ctx, p.cache, TagProducts, listKey(TagProducts, page),
		func(ctx context.Context) (*domain.Page[domain.Product], error) {
			items, total, err := p.productRepo.List(ctx, page)
			if err != nil {
				return nil, err
			}
			return domain.NewPage(items, total, page), nil
		},
	)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.notifier.Publish(ctx, ChannelListingProducts, res)

	return res, nil
}

// Delete удаляет продукт, если он не встречается ни в одном заказе.
func (p *ProductUseCase) Delete(ctx context.Context, id int64) error {
	const op = "ProductUseCase.Delete"

	err := p.trm.Do(ctx, func(ctx context.Context) error {
		if _, err := p.productRepo.GetByID(ctx, id); err != nil {
			return err
		}

		hasOrders, err := p.productRepo.HasOrderLines(ctx, id)
		if err != nil {
			return err
		}
		if hasOrders {
			return e.ErrProductHasOrders
		}

		return p.productRepo.Delete(ctx, id)
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	p.cache.forget(ctx, TagProducts, itemKey(TagProducts, id))

	return nil
}

func (p *ProductUseCase) ensureCategory(ctx context.Context, id int64) error {
	exists, err := p.categoryRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return selectedInvalid("categoryId")
	}

	return nil
}

func (p *ProductUseCase) ensureNameFree(ctx context.Context, name string, excludeID int64) error {
	taken, err := p.productRepo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return nameTaken("name")
	}

	return nil
}
