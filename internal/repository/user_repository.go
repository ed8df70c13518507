package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"coursehub-backend/internal/authorization"
	"coursehub-backend/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	CreateInstructor(user *models.User, profile *models.InstructorProfile) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByIDs(ids []uint) ([]models.User, error)
	GetByVerificationHash(hash string, now time.Time) (*models.User, error)
	EmailExists(email string) (bool, error)
	MarkVerified(id uint, at time.Time) error
	DeleteUnverifiedBefore(cutoff time.Time) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepository) Create(user *models.User) error {
	if r == nil || r.db == nil {
		return errors.New("user repository is not initialised")
	}
	if user == nil {
		return errors.New("user is required")
	}
	user.Email = normalizeEmail(user.Email)
	return r.db.Create(user).Error
}

// CreateInstructor stores the account and its instructor profile together.
func (r *userRepository) CreateInstructor(user *models.User, profile *models.InstructorProfile) error {
	if r == nil || r.db == nil {
		return errors.New("user repository is not initialised")
	}
	if user == nil || profile == nil {
		return errors.New("user and profile are required")
	}
	user.Email = normalizeEmail(user.Email)
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		return tx.Create(profile).Error
	})
}

func (r *userRepository) GetByID(id uint) (*models.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repository is not initialised")
	}
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repository is not initialised")
	}
	var user models.User
	if err := r.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ids []uint) ([]models.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repository is not initialised")
	}
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) GetByVerificationHash(hash string, now time.Time) (*models.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repository is not initialised")
	}
	if strings.TrimSpace(hash) == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	err := r.db.Where("verification_token_hash = ? AND verification_expires_at > ?", hash, now).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) EmailExists(email string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("user repository is not initialised")
	}
	var count int64
	if err := r.db.Model(&models.User{}).Where("email = ?", normalizeEmail(email)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) MarkVerified(id uint, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("user repository is not initialised")
	}
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"email_verified":          true,
		"email_verified_at":       at,
		"status":                  models.UserStatusActive,
		"verification_token_hash": "",
		"verification_expires_at": nil,
	}).Error
}

// DeleteUnverifiedBefore removes instructor accounts that never confirmed
// their email and were created before cutoff.
func (r *userRepository) DeleteUnverifiedBefore(cutoff time.Time) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("user repository is not initialised")
	}
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		err := tx.Model(&models.User{}).
			Where("email_verified = ? AND role = ? AND created_at < ?", false, authorization.RoleInstructor, cutoff).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Unscoped().Where("user_id IN ?", ids).Delete(&models.InstructorProfile{}).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Where("id IN ?", ids).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}
