package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coursehub-backend/internal/models"
)

type EnrollmentRepository interface {
	Grant(enrollments []models.Enrollment) error
	IsEnrolled(userID, courseID uint) (bool, error)
	EnrolledCourseIDs(userID uint, courseIDs []uint) (map[uint]bool, error)
	ListByUser(userID uint) ([]models.Enrollment, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// Grant inserts the enrollments, skipping pairs that already exist so a
// replayed webhook is harmless.
func (r *enrollmentRepository) Grant(enrollments []models.Enrollment) error {
	if r == nil || r.db == nil {
		return errors.New("enrollment repository is not initialised")
	}
	if len(enrollments) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&enrollments).Error
}

func (r *enrollmentRepository) IsEnrolled(userID, courseID uint) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("enrollment repository is not initialised")
	}
	var count int64
	err := r.db.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (r *enrollmentRepository) EnrolledCourseIDs(userID uint, courseIDs []uint) (map[uint]bool, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("enrollment repository is not initialised")
	}
	result := make(map[uint]bool, len(courseIDs))
	if len(courseIDs) == 0 {
		return result, nil
	}
	var ids []uint
	err := r.db.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id IN ?", userID, courseIDs).
		Pluck("course_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *enrollmentRepository) ListByUser(userID uint) ([]models.Enrollment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("enrollment repository is not initialised")
	}
	var enrollments []models.Enrollment
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&enrollments).Error
	return enrollments, err
}
