package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/cachekey"
	"github.com/fekuna/omnipos-stock-service/internal/category"
	"github.com/fekuna/omnipos-stock-service/internal/category/dto"
	"github.com/fekuna/omnipos-stock-service/internal/invalidation"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/readcache"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type categoryUseCase struct {
	repo        category.Repository
	invalidator invalidation.Invalidator
	cache       *readcache.ReadThrough
	logger      logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, invalidator invalidation.Invalidator, cache *readcache.ReadThrough, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:        repo,
		invalidator: invalidator,
		cache:       cache,
		logger:      log,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryRequest) (*model.Category, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		parent, err := uc.repo.FindByID(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, apperr.NotFound("parent category")
		}
	}

	now := time.Now()
	cat := &model.Category{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ParentID:    input.ParentID,
		Name:        input.Name,
		Description: input.Description,
		SortOrder:   input.SortOrder,
		IsActive:    true,
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, err
	}
	uc.invalidator.Invalidate(ctx, nil)

	logger.FromContext(ctx, uc.logger).Info("category created", zap.String("category_id", cat.ID))
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperr.NotFound("category")
	}
	return cat, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context) ([]model.Category, error) {
	return readcache.Fetch(ctx, uc.cache, cachekey.Categories(), func(ctx context.Context) ([]model.Category, error) {
		active := true
		flat, _, err := uc.repo.FindAll(ctx, &dto.CategoryFilters{IsActive: &active})
		if err != nil {
			return nil, err
		}
		return buildTree(flat), nil
	})
}

// buildTree nests categories under their parents, keeping the input order.
// A category whose parent is missing from the set is treated as a root.
func buildTree(flat []model.Category) []model.Category {
	present := make(map[string]bool, len(flat))
	for _, c := range flat {
		present[c.ID] = true
	}
	children := map[string][]model.Category{}
	for _, c := range flat {
		if c.ParentID != nil && present[*c.ParentID] {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}

	var attach func(c model.Category, depth int) model.Category
	attach = func(c model.Category, depth int) model.Category {
		if depth > len(flat) {
			return c
		}
		for _, child := range children[c.ID] {
			c.Children = append(c.Children, attach(child, depth+1))
		}
		return c
	}

	roots := []model.Category{}
	for _, c := range flat {
		if c.ParentID == nil || !present[*c.ParentID] {
			roots = append(roots, attach(c, 0))
		}
	}
	return roots
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, id string, input *dto.UpdateCategoryRequest) (*model.Category, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperr.NotFound("category")
	}

	if input.ParentID != nil {
		if *input.ParentID == "" {
			cat.ParentID = nil
		} else {
			if err := uc.checkParent(ctx, id, *input.ParentID); err != nil {
				return nil, err
			}
			parentID := *input.ParentID
			cat.ParentID = &parentID
		}
	}
	if input.Name != nil {
		cat.Name = *input.Name
	}
	if input.Description != nil {
		cat.Description = input.Description
	}
	if input.SortOrder != nil {
		cat.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		cat.IsActive = *input.IsActive
	}
	cat.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	uc.invalidator.Invalidate(ctx, nil)
	return cat, nil
}

// checkParent rejects a parent that is missing, the category itself, or one
// of its descendants.
func (uc *categoryUseCase) checkParent(ctx context.Context, id, parentID string) error {
	seen := map[string]bool{}
	for current := parentID; current != ""; {
		if current == id {
			return apperr.Validation("category cannot be its own ancestor")
		}
		if seen[current] {
			return nil
		}
		seen[current] = true

		parent, err := uc.repo.FindByID(ctx, current)
		if err != nil {
			return err
		}
		if parent == nil {
			if current == parentID {
				return apperr.NotFound("parent category")
			}
			return nil
		}
		current = ""
		if parent.ParentID != nil {
			current = *parent.ParentID
		}
	}
	return nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id string) error {
	deleted, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("category")
	}
	uc.invalidator.Invalidate(ctx, nil)

	logger.FromContext(ctx, uc.logger).Info("category deleted", zap.String("category_id", id))
	return nil
}
