package models

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

const (
	CourseSortNewest    = "newest"
	CourseSortPriceAsc  = "price_asc"
	CourseSortPriceDesc = "price_desc"
	CourseSortTitle     = "title"

	PriceFilterFree = "free"
	PriceFilterPaid = "paid"
)

// CourseFilter is the query of the public catalog.
type CourseFilter struct {
	CategoryID    uint   `form:"category_id"`
	SubCategoryID uint   `form:"sub_category_id"`
	Tag           string `form:"tag"`
	Level         string `form:"level"`
	Language      string `form:"language"`
	Price         string `form:"price"`
	InstructorID  uint   `form:"instructor_id"`
	Search        string `form:"search"`
	Sort          string `form:"sort"`
	Page          int    `form:"page"`
	Limit         int    `form:"limit"`
}

// CourseSummary is a catalog card.
type CourseSummary struct {
	ID                 uint   `json:"id"`
	Title              string `json:"title"`
	Subtitle           string `json:"subtitle"`
	Slug               string `json:"slug"`
	ThumbnailURL       string `json:"thumbnail_url"`
	Level              string `json:"level"`
	Language           string `json:"language"`
	PriceCents         int64  `json:"price_cents"`
	DiscountPriceCents *int64 `json:"discount_price_cents,omitempty"`
	Currency           string `json:"currency"`
	CategoryID         uint   `json:"category_id"`
	InstructorID       uint   `json:"instructor_id"`
	InstructorName     string `json:"instructor_name"`
}

type CourseListResponse struct {
	Items []CourseSummary `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type SlugAvailability struct {
	Slug       string `json:"slug"`
	Available  bool   `json:"available"`
	Suggestion string `json:"suggestion,omitempty"`
}

// InstructorSummary is returned by the instructor search.
type InstructorSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Headline string `json:"headline"`
}

type AddCartItemRequest struct {
	CourseID uint `json:"course_id" binding:"required"`
}

type CartItem struct {
	CourseID           uint   `json:"course_id"`
	Title              string `json:"title"`
	Slug               string `json:"slug"`
	ThumbnailURL       string `json:"thumbnail_url"`
	PriceCents         int64  `json:"price_cents"`
	DiscountPriceCents *int64 `json:"discount_price_cents,omitempty"`
}

type CartView struct {
	Items      []CartItem `json:"items"`
	TotalCents int64      `json:"total_cents"`
	Currency   string     `json:"currency"`
}

type CheckoutResponse struct {
	SessionID   string `json:"session_id,omitempty"`
	CheckoutURL string `json:"checkout_url,omitempty"`
	Enrolled    []uint `json:"enrolled,omitempty"`
}

type VideoUploadRequest struct {
	Title string `json:"title" binding:"required,max=200"`
}

// VideoUploadTicket lets the client upload a video straight to the CDN
// with a resumable upload.
type VideoUploadTicket struct {
	Endpoint    string `json:"endpoint"`
	VideoID     string `json:"video_id"`
	LibraryID   string `json:"library_id"`
	Signature   string `json:"signature"`
	ExpiresAt   int64  `json:"expires_at"`
	Title       string `json:"title"`
	PlaybackURL string `json:"playback_url,omitempty"`
}

type CreateCategoryRequest struct {
	Name     string `json:"name" binding:"required,max=80"`
	ParentID *uint  `json:"parent_id"`
	Order    int    `json:"order"`
}

type CreateTagRequest struct {
	Name string `json:"name" binding:"required,max=40"`
}
