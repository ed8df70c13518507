package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"coursehub-backend/internal/authorization"
	"coursehub-backend/internal/models"
)

type InstructorRepository interface {
	GetProfile(userID uint) (*models.InstructorProfile, error)
	Search(query string, limit int) ([]models.InstructorSummary, error)
}

type instructorRepository struct {
	db *gorm.DB
}

func NewInstructorRepository(db *gorm.DB) InstructorRepository {
	return &instructorRepository{db: db}
}

func (r *instructorRepository) GetProfile(userID uint) (*models.InstructorProfile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("instructor repository is not initialised")
	}
	var profile models.InstructorProfile
	if err := r.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Search matches instructors by first name, last name or headline.
func (r *instructorRepository) Search(query string, limit int) ([]models.InstructorSummary, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("instructor repository is not initialised")
	}
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	type row struct {
		ID        uint
		FirstName string
		LastName  string
		Headline  string
	}

	db := r.db.Table("users").
		Select("users.id, users.first_name, users.last_name, instructor_profiles.headline").
		Joins("LEFT JOIN instructor_profiles ON instructor_profiles.user_id = users.id AND instructor_profiles.deleted_at IS NULL").
		Where("users.deleted_at IS NULL AND users.role = ?", authorization.RoleInstructor)

	if cleaned := strings.ToLower(strings.TrimSpace(query)); cleaned != "" {
		pattern := "%" + cleaned + "%"
		db = db.Where(
			"(LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(instructor_profiles.headline) LIKE ?)",
			pattern, pattern, pattern,
		)
	}

	var rows []row
	if err := db.Order("users.first_name ASC, users.last_name ASC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]models.InstructorSummary, 0, len(rows))
	for _, item := range rows {
		result = append(result, models.InstructorSummary{
			ID:       item.ID,
			Name:     strings.TrimSpace(item.FirstName + " " + item.LastName),
			Headline: item.Headline,
		})
	}
	return result, nil
}
