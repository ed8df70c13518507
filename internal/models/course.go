package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

const (
	CourseStatusDraft     = "DRAFT"
	CourseStatusPublished = "PUBLISHED"
)

const (
	CourseLevelBeginner     = "BEGINNER"
	CourseLevelIntermediate = "INTERMEDIATE"
	CourseLevelAdvanced     = "ADVANCED"
	CourseLevelAll          = "ALL_LEVELS"
)

// Course is the persisted course together with its curriculum, which is
// loaded and replaced as a whole through the course repository.
type Course struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	InstructorID  uint   `gorm:"not null;index" json:"instructor_id"`
	Title         string `gorm:"not null" json:"title"`
	Subtitle      string `json:"subtitle"`
	Slug          string `gorm:"not null;uniqueIndex:idx_courses_slug,where:deleted_at IS NULL" json:"slug"`
	CategoryID    uint   `gorm:"not null;index" json:"category_id"`
	SubCategoryID *uint  `gorm:"index" json:"sub_category_id,omitempty"`
	Language      string `gorm:"type:varchar(32)" json:"language"`
	Level         string `gorm:"type:varchar(32)" json:"level"`

	Description      string     `json:"description"`
	ThumbnailURL     string     `json:"thumbnail_url"`
	TrailerURL       string     `json:"trailer_url"`
	LearningOutcomes StringList `gorm:"type:text" json:"learning_outcomes"`
	Requirements     StringList `gorm:"type:text" json:"requirements"`
	TargetAudience   StringList `gorm:"type:text" json:"target_audience"`

	PriceCents             int64      `gorm:"not null;default:0" json:"price_cents"`
	DiscountPriceCents     *int64     `json:"discount_price_cents,omitempty"`
	Currency               string     `gorm:"type:varchar(8);default:'usd'" json:"currency"`
	Status                 string     `gorm:"type:varchar(16);not null;default:'DRAFT';index" json:"status"`
	WelcomeMessage         string     `json:"welcome_message"`
	CongratulationsMessage string     `json:"congratulations_message"`
	PublishedAt            *time.Time `json:"published_at,omitempty"`

	Tags       []Tag          `gorm:"many2many:course_tags;" json:"tags"`
	Modules    []CourseModule `gorm:"-" json:"modules"`
	Category   *Category      `gorm:"-" json:"category,omitempty"`
	Instructor *User          `gorm:"-" json:"instructor,omitempty"`
}

// EffectivePriceCents is what a buyer pays.
func (c Course) EffectivePriceCents() int64 {
	if c.DiscountPriceCents != nil && *c.DiscountPriceCents < c.PriceCents {
		return *c.DiscountPriceCents
	}
	return c.PriceCents
}

// IsFree reports whether the course can be enrolled in without payment.
func (c Course) IsFree() bool {
	return c.EffectivePriceCents() <= 0
}

type CourseModule struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CourseID uint   `gorm:"not null;index" json:"course_id"`
	Position int    `gorm:"not null;default:0" json:"position"`
	Title    string `gorm:"not null" json:"title"`

	Lessons []CourseLesson `gorm:"-" json:"lessons"`
}

type CourseLesson struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ModuleID    uint            `gorm:"not null;index" json:"module_id"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Title       string          `gorm:"not null" json:"title"`
	ContentType string          `gorm:"type:varchar(16)" json:"content_type"`
	ContentURL  string          `json:"content_url,omitempty"`
	Video       *LessonAsset    `gorm:"type:text;serializer:json" json:"video,omitempty"`
	Files       LessonAssetList `gorm:"type:text" json:"files"`
	Notes       string          `json:"notes,omitempty"`
	Description string          `json:"description,omitempty"`

	Quiz *LessonQuiz `gorm:"-" json:"quiz,omitempty"`
}

// LessonAsset is an uploaded file linked to a lesson.
type LessonAsset struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	MimeType        string `json:"mime_type,omitempty"`
	Size            int64  `json:"size,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// LessonAssetList is stored as a JSON array.
type LessonAssetList []LessonAsset

func (l LessonAssetList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]LessonAsset(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *LessonAssetList) Scan(value interface{}) error {
	var decoded []LessonAsset
	if err := scanJSON(value, &decoded); err != nil {
		return err
	}
	*l = decoded
	return nil
}

type LessonQuiz struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	LessonID        uint   `gorm:"not null;uniqueIndex" json:"lesson_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes int    `gorm:"not null;default:0" json:"duration_minutes"`
	PassingScore    int    `gorm:"not null;default:0" json:"passing_score"`
	AttemptsAllowed int    `gorm:"not null;default:0" json:"attempts_allowed"`

	Questions []QuizQuestion `gorm:"-" json:"questions"`
}

type QuizQuestion struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	QuizID   uint   `gorm:"not null;index" json:"quiz_id"`
	Position int    `gorm:"not null;default:0" json:"position"`
	Text     string `gorm:"not null" json:"text"`
	Type     string `gorm:"type:varchar(32);not null" json:"type"`
	Points   int    `gorm:"not null;default:1" json:"points"`

	Options []QuizOption `gorm:"-" json:"options"`
}

type QuizOption struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Position   int    `gorm:"not null;default:0" json:"position"`
	Text       string `json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
}
