package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"coursehub-backend/internal/models"
)

type TagRepository interface {
	Create(tag *models.Tag) error
	GetBySlug(slug string) (*models.Tag, error)
	GetByIDs(ids []uint) ([]models.Tag, error)
	Search(query string, limit int) ([]models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(tag *models.Tag) error {
	if r == nil || r.db == nil {
		return errors.New("tag repository is not initialised")
	}
	return r.db.Create(tag).Error
}

func (r *tagRepository) GetBySlug(slug string) (*models.Tag, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tag repository is not initialised")
	}
	var tag models.Tag
	if err := r.db.Where("slug = ?", slug).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) GetByIDs(ids []uint) ([]models.Tag, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tag repository is not initialised")
	}
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	var tags []models.Tag
	if err := r.db.Where("id IN ?", ids).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) Search(query string, limit int) ([]models.Tag, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tag repository is not initialised")
	}
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	db := r.db.Model(&models.Tag{})
	if cleaned := strings.ToLower(strings.TrimSpace(query)); cleaned != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+cleaned+"%")
	}
	var tags []models.Tag
	err := db.Order("name ASC").Limit(limit).Find(&tags).Error
	return tags, err
}
