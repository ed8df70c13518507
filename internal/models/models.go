package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"coursehub-backend/internal/authorization"
)

const (
	UserStatusActive  = "active"
	UserStatusPending = "pending"
)

type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	FirstName string                 `gorm:"not null" json:"first_name"`
	LastName  string                 `gorm:"not null" json:"last_name"`
	Email     string                 `gorm:"uniqueIndex;not null" json:"email"`
	Password  string                 `gorm:"not null" json:"-"`
	Role      authorization.UserRole `gorm:"type:varchar(32);default:'student'" json:"role"`
	Status    string                 `gorm:"type:varchar(32);default:'active'" json:"status"`

	EmailVerified         bool       `gorm:"not null;default:false" json:"email_verified"`
	EmailVerifiedAt       *time.Time `json:"email_verified_at,omitempty"`
	VerificationTokenHash string     `gorm:"index" json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// InstructorProfile holds what an instructor filled in during signup.
type InstructorProfile struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint   `gorm:"not null;uniqueIndex" json:"user_id"`
	Phone  string `json:"phone"`

	Headline          string     `json:"headline"`
	YearsOfExperience int        `gorm:"not null;default:0" json:"years_of_experience"`
	ExpertiseAreas    StringList `gorm:"type:text" json:"expertise_areas"`
	CurrentCompany    string     `json:"current_company"`

	CourseTopics       StringList `gorm:"type:text" json:"course_topics"`
	TargetAudience     string     `json:"target_audience"`
	PreferredFormat    string     `json:"preferred_format"`
	HasExistingContent bool       `gorm:"not null;default:false" json:"has_existing_content"`

	Bio      string     `json:"bio"`
	Skills   StringList `gorm:"type:text" json:"skills"`
	Website  string     `json:"website"`
	LinkedIn string     `json:"linkedin"`
	Twitter  string     `json:"twitter"`
	YouTube  string     `json:"youtube"`

	User *User `gorm:"-" json:"user,omitempty"`
}

type Category struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string `gorm:"not null" json:"name"`
	Slug     string `gorm:"uniqueIndex;not null" json:"slug"`
	ParentID *uint  `gorm:"index" json:"parent_id,omitempty"`
	Order    int    `gorm:"default:0" json:"order"`
}

type Tag struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name string `gorm:"uniqueIndex;not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
}

const (
	EnrollmentSourceFree   = "free"
	EnrollmentSourceStripe = "stripe"
	EnrollmentSourceAdmin  = "admin"
)

// Enrollment grants a user access to a course.
type Enrollment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID   uint `gorm:"not null;uniqueIndex:idx_enrollments_user_course,priority:1" json:"user_id"`
	CourseID uint `gorm:"not null;index;uniqueIndex:idx_enrollments_user_course,priority:2" json:"course_id"`

	Source         string `gorm:"type:varchar(32);not null" json:"source"`
	PaidCents      int64  `gorm:"not null;default:0" json:"paid_cents"`
	Currency       string `gorm:"type:varchar(8)" json:"currency,omitempty"`
	PaymentSession string `gorm:"index" json:"payment_session,omitempty"`
}

// StringList is stored as a JSON array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(value interface{}) error {
	var decoded []string
	if err := scanJSON(value, &decoded); err != nil {
		return err
	}
	*l = decoded
	return nil
}

func scanJSON(value interface{}, dest interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSON column: %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
