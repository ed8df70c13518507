package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"coursehub-backend/internal/models"
)

const maxSearchLimit = 20

type CategoryRepository interface {
	Create(category *models.Category) error
	GetByID(id uint) (*models.Category, error)
	GetBySlug(slug string) (*models.Category, error)
	ExistsBySlug(slug string) (bool, error)
	Search(query string, parentID *uint, limit int) ([]models.Category, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(category *models.Category) error {
	if r == nil || r.db == nil {
		return errors.New("category repository is not initialised")
	}
	return r.db.Create(category).Error
}

func (r *categoryRepository) GetByID(id uint) (*models.Category, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("category repository is not initialised")
	}
	var category models.Category
	if err := r.db.First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) GetBySlug(slug string) (*models.Category, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("category repository is not initialised")
	}
	var category models.Category
	if err := r.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) ExistsBySlug(slug string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("category repository is not initialised")
	}
	var count int64
	err := r.db.Model(&models.Category{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// Search lists categories whose name contains query. A nil parentID returns
// top-level categories; a non-nil one returns its sub-categories.
func (r *categoryRepository) Search(query string, parentID *uint, limit int) ([]models.Category, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("category repository is not initialised")
	}
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	db := r.db.Model(&models.Category{})
	if parentID == nil {
		db = db.Where("parent_id IS NULL")
	} else {
		db = db.Where("parent_id = ?", *parentID)
	}
	if cleaned := strings.ToLower(strings.TrimSpace(query)); cleaned != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+cleaned+"%")
	}

	var categories []models.Category
	err := db.Order(`"order" ASC, name ASC`).Limit(limit).Find(&categories).Error
	return categories, err
}
