package usecase

import (
	"context"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
)

// CategoryUseCase реализует бизнес-логику категорий меню.
type CategoryUseCase struct {
	categoryRepo CategoryRepository
	trm          TxManager
	cache        *cacheAside
	notifier     Notifier
	logger       logger.Logger
}

func NewCategoryUC(
	categoryRepo CategoryRepository,
	trm TxManager,
	cacheRepo CacheRepository,
	observer CacheObserver,
	notifier Notifier,
	logger logger.Logger,
) *CategoryUseCase {
	return &CategoryUseCase{
		categoryRepo: categoryRepo,
		trm:          trm,
		cache:        newCacheAside(cacheRepo, observer, logger),
		notifier:     notifier,
		logger:       logger,
	}
}

// Create создаёт категорию с уникальным именем.
// После создания сбрасывается весь тег categories.
func (c *CategoryUseCase) Create(ctx context.Context, req *CreateCategoryReq) (*domain.Category, error) {
	const op = "CategoryUseCase.Create"

	if err := firstInvalid(
		check("name", req.Name, required("name"), nameLength("name")),
	); err != nil {
		return nil, e.Wrap(op, err)
	}

	var created *domain.Category
	err := c.trm.Do(ctx, func(ctx context.Context) error {
		if err := c.ensureNameFree(ctx, *req.Name, 0); err != nil {
			return err
		}

		var err error
		created, err = c.categoryRepo.Create(ctx, domain.NewCategory(*req.Name))
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.cache.flush(ctx, TagCategories)
	c.notifier.Publish(ctx, ChannelCreatingCategory, created)

	return created, nil
}

// Update частично обновляет категорию и перезаписывает её ключ в кэше.
func (c *CategoryUseCase) Update(ctx context.Context, req *UpdateCategoryReq) (*domain.Category, error) {
	const op = "CategoryUseCase.Update"

	if err := firstInvalid(
		check("name", req.Name, notEmptyIfSet("name"), nameLength("name")),
	); err != nil {
		return nil, e.Wrap(op, err)
	}

	var updated *domain.Category
	err := c.trm.Do(ctx, func(ctx context.Context) error {
		current, err := c.categoryRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		if req.Name != nil && *req.Name != current.Name {
			if err := c.ensureNameFree(ctx, *req.Name, current.ID); err != nil {
				return err
			}
			current.Name = *req.Name

			if _, err := c.categoryRepo.Update(ctx, current); err != nil {
				return err
			}
		}

		updated, err = c.categoryRepo.GetByID(ctx, req.ID)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.cache.put(ctx, TagCategories, itemKey(TagCategories, updated.ID), updated)
	c.notifier.Publish(ctx, ChannelUpdatingCategory, updated)

	return updated, nil
}

// Get возвращает категорию с продуктами через кэш.
func (c *CategoryUseCase) Get(ctx context.Context, id int64) (*domain.Category, error) {
	const op = "CategoryUseCase.Get"

	category, err := remember(ctx, c.cache, TagCategories, itemKey(TagCategories, id),
		func(ctx context.Context) (*domain.Category, error) {
			return c.categoryRepo.GetByID(ctx, id)
		},
	)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return category, nil
}

// List возвращает страницу категорий через кэш и публикует её в listing-categories.
func (c *CategoryUseCase) List(ctx context.Context, page domain.PageRequest) (*domain.Page[domain.Category], error) {
	const op = "CategoryUseCase.List"

	if err := page.Validate(domain.CategorySortFields); err != nil {
		return nil, e.Wrap(op, err)
	}

	res, err := remember(ctx, c.cache, TagCategories, listKey(TagCategories, page),
		func(ctx context.Context) (*domain.Page[domain.Category], error) {
			items, total, err := c.categoryRepo.List(ctx, page)
			if err != nil {
				return nil, err
			}
			return domain.NewPage(items, total, page), nil
		},
	)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.notifier.Publish(ctx, ChannelListingCategories, res)

	return res, nil
}

// Delete удаляет категорию, если у неё нет продуктов.
func (c *CategoryUseCase) Delete(ctx context.Context, id int64) error {
	const op = "CategoryUseCase.Delete"

	err := c.trm.Do(ctx, func(ctx context.Context) error {
		exists, err := c.categoryRepo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return e.ErrCategoryNotFound
		}

		hasProducts, err := c.categoryRepo.HasProducts(ctx, id)
		if err != nil {
			return err
		}
		if hasProducts {
			return e.ErrCategoryHasProducts
		}

		return c.categoryRepo.Delete(ctx, id)
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	c.cache.forget(ctx, TagCategories, itemKey(TagCategories, id))

	return nil
}

func (c *CategoryUseCase) ensureNameFree(ctx context.Context, name string, excludeID int64) error {
	taken, err := c.categoryRepo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return nameTaken("name")
	}

	return nil
}
