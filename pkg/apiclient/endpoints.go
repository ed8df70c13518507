package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"coursehub-backend/internal/curriculum"
	"coursehub-backend/internal/models"
)

// DraftView is a course draft as the wizard endpoints return it.
type DraftView struct {
	models.CourseDraft
	Steps  []string           `json:"steps"`
	Issues []curriculum.Issue `json:"issues"`
}

// SignupView is an instructor signup draft as the wizard endpoints return it.
type SignupView struct {
	models.InstructorSignupDraft
	Steps []string `json:"steps"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	req := c.request(ctx).SetBody(models.LoginRequest{Email: email, Password: password})
	if err := c.do(req, http.MethodPost, "/auth/login", &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(c.request(ctx), http.MethodGet, "/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Catalog

func (c *Client) ListCourses(ctx context.Context, filter url.Values) (*models.CourseListResponse, error) {
	var out models.CourseListResponse
	req := c.request(ctx).SetQueryParamsFromValues(filter)
	if err := c.do(req, http.MethodGet, "/courses", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCourse(ctx context.Context, slug string) (*models.Course, error) {
	var out models.Course
	req := c.request(ctx).SetPathParam("slug", slug)
	if err := c.do(req, http.MethodGet, "/courses/{slug}", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CheckSlug(ctx context.Context, slug string, excludeCourseID uint) (*models.SlugAvailability, error) {
	var out models.SlugAvailability
	req := c.request(ctx).SetQueryParam("slug", slug)
	if excludeCourseID != 0 {
		req.SetQueryParam("exclude", strconv.FormatUint(uint64(excludeCourseID), 10))
	}
	if err := c.do(req, http.MethodGet, "/courses/slug-availability", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchCategories(ctx context.Context, query string) ([]models.Category, error) {
	var out []models.Category
	req := c.request(ctx).SetQueryParam("search", query)
	if err := c.do(req, http.MethodGet, "/categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchTags(ctx context.Context, query string) ([]models.Tag, error) {
	var out []models.Tag
	req := c.request(ctx).SetQueryParam("search", query)
	if err := c.do(req, http.MethodGet, "/tags", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchInstructors(ctx context.Context, query string) ([]models.InstructorSummary, error) {
	var out []models.InstructorSummary
	req := c.request(ctx).SetQueryParam("search", query)
	if err := c.do(req, http.MethodGet, "/instructors", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Course drafts

func (c *Client) draft(ctx context.Context, method, path, id string, body interface{}) (*DraftView, error) {
	var out DraftView
	req := c.request(ctx).SetPathParam("id", id)
	if body != nil {
		req.SetBody(body)
	}
	if err := c.do(req, method, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StartDraft(ctx context.Context) (*DraftView, error) {
	var out DraftView
	if err := c.do(c.request(ctx), http.MethodPost, "/course-drafts", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditCourse opens a draft prefilled from an existing course.
func (c *Client) EditCourse(ctx context.Context, courseID uint) (*DraftView, error) {
	return c.draft(ctx, http.MethodPost, "/course-drafts/from-course/{id}", strconv.FormatUint(uint64(courseID), 10), nil)
}

func (c *Client) GetDraft(ctx context.Context, id string) (*DraftView, error) {
	return c.draft(ctx, http.MethodGet, "/course-drafts/{id}", id, nil)
}

func (c *Client) DiscardDraft(ctx context.Context, id string) error {
	req := c.request(ctx).SetPathParam("id", id)
	return c.do(req, http.MethodDelete, "/course-drafts/{id}", nil)
}

func (c *Client) SaveBasic(ctx context.Context, id string, info models.CourseBasicInfo) (*DraftView, error) {
	return c.draft(ctx, http.MethodPut, "/course-drafts/{id}/basic", id, info)
}

func (c *Client) SaveAdvanced(ctx context.Context, id string, info models.CourseAdvancedInfo) (*DraftView, error) {
	return c.draft(ctx, http.MethodPut, "/course-drafts/{id}/advanced", id, info)
}

func (c *Client) SavePublishSettings(ctx context.Context, id string, settings models.CoursePublishSettings) (*DraftView, error) {
	return c.draft(ctx, http.MethodPut, "/course-drafts/{id}/publish-settings", id, settings)
}

func (c *Client) DraftNext(ctx context.Context, id string) (*DraftView, error) {
	return c.draft(ctx, http.MethodPost, "/course-drafts/{id}/next", id, nil)
}

func (c *Client) DraftBack(ctx context.Context, id string) (*DraftView, error) {
	return c.draft(ctx, http.MethodPost, "/course-drafts/{id}/back", id, nil)
}

func (c *Client) DraftGoto(ctx context.Context, id, step string) (*DraftView, error) {
	return c.draft(ctx, http.MethodPost, "/course-drafts/{id}/goto", id, map[string]string{"step": step})
}

func (c *Client) ApplyCurriculum(ctx context.Context, id string, op curriculum.Operation) (*models.CurriculumResponse, error) {
	var out models.CurriculumResponse
	req := c.request(ctx).SetPathParam("id", id).SetBody(op)
	if err := c.do(req, http.MethodPost, "/course-drafts/{id}/curriculum/ops", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PublishDraft(ctx context.Context, id string) (*models.Course, error) {
	var out models.Course
	req := c.request(ctx).SetPathParam("id", id)
	if err := c.do(req, http.MethodPost, "/course-drafts/{id}/publish", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Instructor signup

func (c *Client) signup(ctx context.Context, method, path, id string, body interface{}) (*SignupView, error) {
	var out SignupView
	req := c.request(ctx).SetPathParam("id", id)
	if body != nil {
		req.SetBody(body)
	}
	if err := c.do(req, method, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StartSignup(ctx context.Context) (*SignupView, error) {
	var out SignupView
	if err := c.do(c.request(ctx), http.MethodPost, "/instructor-signup", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSignup(ctx context.Context, id string) (*SignupView, error) {
	return c.signup(ctx, http.MethodGet, "/instructor-signup/{id}", id, nil)
}

// SaveSignupStep stores the payload of one step, e.g. models.SignupPersonal
// for the personal step.
func (c *Client) SaveSignupStep(ctx context.Context, id, step string, payload interface{}) (*SignupView, error) {
	return c.signup(ctx, http.MethodPut, "/instructor-signup/{id}/"+url.PathEscape(step), id, payload)
}

func (c *Client) SignupNext(ctx context.Context, id string) (*SignupView, error) {
	return c.signup(ctx, http.MethodPost, "/instructor-signup/{id}/next", id, nil)
}

func (c *Client) SignupBack(ctx context.Context, id string) (*SignupView, error) {
	return c.signup(ctx, http.MethodPost, "/instructor-signup/{id}/back", id, nil)
}

func (c *Client) SubmitSignup(ctx context.Context, id string) (*models.SignupResult, error) {
	var out models.SignupResult
	req := c.request(ctx).SetPathParam("id", id)
	if err := c.do(req, http.MethodPost, "/instructor-signup/{id}/submit", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cart and checkout

func (c *Client) Cart(ctx context.Context) (*models.CartView, error) {
	var out models.CartView
	if err := c.do(c.request(ctx), http.MethodGet, "/cart", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddToCart(ctx context.Context, courseID uint) (*models.CartView, error) {
	var out models.CartView
	req := c.request(ctx).SetBody(models.AddCartItemRequest{CourseID: courseID})
	if err := c.do(req, http.MethodPost, "/cart/items", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveFromCart(ctx context.Context, courseID uint) (*models.CartView, error) {
	var out models.CartView
	req := c.request(ctx).SetPathParam("courseID", strconv.FormatUint(uint64(courseID), 10))
	if err := c.do(req, http.MethodDelete, "/cart/items/{courseID}", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Checkout(ctx context.Context) (*models.CheckoutResponse, error) {
	var out models.CheckoutResponse
	if err := c.do(c.request(ctx), http.MethodPost, "/checkout", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Uploads

// UploadFile sends a local file as multipart form data. kind is one of
// image, document or video.
func (c *Client) UploadFile(ctx context.Context, kind, path string) (*curriculum.Attachment, error) {
	var out curriculum.Attachment
	req := c.request(ctx).
		SetFile("file", path).
		SetFormData(map[string]string{"kind": kind})
	if err := c.do(req, http.MethodPost, "/uploads/files", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateVideoUpload asks for resumable upload credentials at the video CDN.
func (c *Client) CreateVideoUpload(ctx context.Context, title string) (*models.VideoUploadTicket, error) {
	var out models.VideoUploadTicket
	req := c.request(ctx).SetBody(models.VideoUploadRequest{Title: title})
	if err := c.do(req, http.MethodPost, "/uploads/videos", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
