package models

import (
	"time"

	"coursehub-backend/internal/curriculum"
	"coursehub-backend/internal/wizard"
)

// Course authoring wizard steps.
const (
	CourseStepBasic      = "basic"
	CourseStepAdvanced   = "advanced"
	CourseStepCurriculum = "curriculum"
	CourseStepPublish    = "publish"
)

type CourseBasicInfo struct {
	Title         string `json:"title" validate:"required,max=120"`
	Subtitle      string `json:"subtitle" validate:"max=200"`
	Slug          string `json:"slug" validate:"required,slug,max=120"`
	CategoryID    uint   `json:"category_id" validate:"required"`
	SubCategoryID *uint  `json:"sub_category_id,omitempty"`
	TagIDs        []uint `json:"tag_ids" validate:"max=10"`
	Language      string `json:"language" validate:"required,max=32"`
	Level         string `json:"level" validate:"required,course_level"`
}

type CourseAdvancedInfo struct {
	Description      string   `json:"description" validate:"required"`
	ThumbnailURL     string   `json:"thumbnail_url" validate:"omitempty,http_url"`
	TrailerURL       string   `json:"trailer_url" validate:"omitempty,http_url"`
	LearningOutcomes []string `json:"learning_outcomes" validate:"min=1,max=20,dive,required,max=200"`
	Requirements     []string `json:"requirements" validate:"max=20,dive,required,max=200"`
	TargetAudience   []string `json:"target_audience" validate:"max=20,dive,required,max=200"`
}

type CoursePublishSettings struct {
	PriceCents             int64  `json:"price_cents" validate:"gte=0"`
	DiscountPriceCents     *int64 `json:"discount_price_cents,omitempty" validate:"omitempty,gte=0"`
	Currency               string `json:"currency" validate:"required,len=3"`
	Status                 string `json:"status" validate:"required,oneof=DRAFT PUBLISHED"`
	WelcomeMessage         string `json:"welcome_message" validate:"max=2000"`
	CongratulationsMessage string `json:"congratulations_message" validate:"max=2000"`
}

// CourseDraft is the state of one course authoring session. It is stored as
// a raw JSON snapshot and is never migrated.
type CourseDraft struct {
	ID         string                `json:"id"`
	OwnerID    uint                  `json:"owner_id"`
	CourseID   *uint                 `json:"course_id,omitempty"`
	Cursor     wizard.Cursor         `json:"cursor"`
	Basic      CourseBasicInfo       `json:"basic"`
	Advanced   CourseAdvancedInfo    `json:"advanced"`
	Curriculum curriculum.Curriculum `json:"curriculum"`
	Publish    CoursePublishSettings `json:"publish"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// IsUpdate reports whether publishing updates an existing course.
func (d *CourseDraft) IsUpdate() bool {
	return d != nil && d.CourseID != nil && *d.CourseID != 0
}

// CurriculumResponse is returned by curriculum edits.
type CurriculumResponse struct {
	Curriculum curriculum.Curriculum `json:"curriculum"`
	Notices    []curriculum.Notice   `json:"notices"`
	Issues     []curriculum.Issue    `json:"issues"`
	Position   int                   `json:"position,omitempty"`
}

// Instructor signup wizard steps.
const (
	SignupStepPersonal     = "personal"
	SignupStepProfessional = "professional"
	SignupStepCourseIntent = "course_intent"
	SignupStepAdditional   = "additional"
)

type SignupPersonal struct {
	FirstName string `json:"first_name" validate:"required,max=80,no_html"`
	LastName  string `json:"last_name" validate:"required,max=80,no_html"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
	// Password is hashed as soon as it is received and never stored in clear.
	Password  string `json:"password,omitempty" validate:"-"`
}

type SignupProfessional struct {
	Headline          string   `json:"headline" validate:"required,max=160"`
	YearsOfExperience int      `json:"years_of_experience" validate:"gte=0,lte=70"`
	ExpertiseAreas    []string `json:"expertise_areas" validate:"min=1,max=10,dive,required,max=80"`
	CurrentCompany    string   `json:"current_company" validate:"max=120"`
}

type SignupCourseIntent struct {
	Topics             []string `json:"topics" validate:"min=1,max=10,dive,required,max=80"`
	TargetAudience     string   `json:"target_audience" validate:"required,max=500"`
	PreferredFormat    string   `json:"preferred_format" validate:"required,oneof=video article mixed"`
	HasExistingContent bool     `json:"has_existing_content"`
}

type SignupAdditional struct {
	Bio      string   `json:"bio" validate:"max=2000"`
	Skills   []string `json:"skills" validate:"max=20,dive,required,max=60"`
	Website  string   `json:"website" validate:"omitempty,http_url"`
	LinkedIn string   `json:"linkedin" validate:"omitempty,http_url"`
	Twitter  string   `json:"twitter" validate:"omitempty,http_url"`
	YouTube  string   `json:"youtube" validate:"omitempty,http_url"`
}

// InstructorSignupDraft is an anonymous signup session.
type InstructorSignupDraft struct {
	ID           string             `json:"id"`
	Cursor       wizard.Cursor      `json:"cursor"`
	Personal     SignupPersonal     `json:"personal"`
	Professional SignupProfessional `json:"professional"`
	CourseIntent SignupCourseIntent `json:"course_intent"`
	Additional   SignupAdditional   `json:"additional"`
	PasswordHash string             `json:"password_hash,omitempty"`
	HasPassword  bool               `json:"has_password"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Routes returned after signup.
const (
	SignupRouteVerifyEmail = "verify-email"
	SignupRouteHome        = "home"
)

type SignupResult struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Route  string `json:"route"`
}
