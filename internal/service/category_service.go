package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"coursehub-backend/internal/authorization"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
	"coursehub-backend/pkg/logger"
	"coursehub-backend/pkg/utils"
	"coursehub-backend/pkg/validator"
)

// CategoryService manages the category tree and tag list that the
// authoring form picks from.
type CategoryService struct {
	categoryRepo repository.CategoryRepository
	tagRepo      repository.TagRepository
	search       *SearchService
}

func NewCategoryService(categoryRepo repository.CategoryRepository, tagRepo repository.TagRepository, search *SearchService) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		tagRepo:      tagRepo,
		search:       search,
	}
}

func (s *CategoryService) CreateCategory(ctx context.Context, actor Actor, req models.CreateCategoryRequest) (*models.Category, error) {
	if s == nil || s.categoryRepo == nil {
		return nil, errors.New("category service is not configured")
	}
	if !actor.Can(authorization.PermissionManageCatalog) {
		return nil, ErrForbidden
	}

	name := validator.NormalizeSpaces(req.Name)
	if name == "" {
		return nil, newValidationError("category name is required")
	}
	slug := utils.GenerateSlug(name)
	if req.ParentID != nil {
		parent, err := s.categoryRepo.GetByID(*req.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newValidationError("parent category does not exist")
			}
			return nil, err
		}
		if parent.ParentID != nil {
			return nil, newValidationError("sub-categories cannot be nested further")
		}
		slug = parent.Slug + "-" + slug
	}

	exists, err := s.categoryRepo.ExistsBySlug(slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check category existence: %w", err)
	}
	if exists {
		return nil, newValidationError("category with this name already exists")
	}

	category := &models.Category{Name: name, Slug: slug, ParentID: req.ParentID, Order: req.Order}
	if err := s.categoryRepo.Create(category); err != nil {
		if isDuplicateKeyError(err) {
			return nil, newValidationError("category with this name already exists")
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.invalidate(ctx)
	logger.Info("Category created", map[string]interface{}{"category_id": category.ID, "slug": slug})
	return category, nil
}

// EnsureTag returns the tag with the given name, creating it when missing.
func (s *CategoryService) EnsureTag(ctx context.Context, actor Actor, req models.CreateTagRequest) (*models.Tag, error) {
	if s == nil || s.tagRepo == nil {
		return nil, errors.New("category service is not configured")
	}
	if !actor.Can(authorization.PermissionAuthorCourses) && !actor.Can(authorization.PermissionManageCatalog) {
		return nil, ErrForbidden
	}

	name := validator.NormalizeSpaces(req.Name)
	slug := utils.GenerateSlug(name)
	if slug == "" {
		return nil, newValidationError("tag name is required")
	}

	existing, err := s.tagRepo.GetBySlug(slug)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tag := &models.Tag{Name: strings.ToLower(name), Slug: slug}
	if err := s.tagRepo.Create(tag); err != nil {
		if isDuplicateKeyError(err) {
			return s.tagRepo.GetBySlug(slug)
		}
		return nil, err
	}
	s.invalidate(ctx)
	return tag, nil
}

// EnsureCategories creates missing top level categories by name. Used by
// the seed on first start.
func (s *CategoryService) EnsureCategories(names []string) (int, error) {
	if s == nil || s.categoryRepo == nil {
		return 0, errors.New("category service is not configured")
	}
	created := 0
	for i, name := range names {
		slug := utils.GenerateSlug(name)
		if slug == "" {
			continue
		}
		exists, err := s.categoryRepo.ExistsBySlug(slug)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		if err := s.categoryRepo.Create(&models.Category{Name: name, Slug: slug, Order: i}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *CategoryService) invalidate(ctx context.Context) {
	if s.search == nil {
		return
	}
	if err := s.search.Invalidate(ctx); err != nil {
		logger.Warn("Failed to invalidate search cache", map[string]interface{}{"error": err.Error()})
	}
}
