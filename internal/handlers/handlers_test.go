package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"coursehub-backend/internal/authorization"
	"coursehub-backend/internal/curriculum"
	"coursehub-backend/internal/middleware"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
	"coursehub-backend/internal/service"
	"coursehub-backend/internal/wizard"
	"coursehub-backend/pkg/cache"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.InstructorProfile{},
		&models.Category{},
		&models.Tag{},
		&models.Course{},
		&models.CourseModule{},
		&models.CourseLesson{},
		&models.LessonQuiz{},
		&models.QuizQuestion{},
		&models.QuizOption{},
		&models.Enrollment{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	users := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	categories := repository.NewCategoryRepository(db)
	tags := repository.NewTagRepository(db)
	store := cache.NewMemoryCache()

	auth := service.NewAuthService(users, "test-secret", time.Hour)
	courses := service.NewCourseService(courseRepo, tags, categories, users)
	drafts := service.NewCourseDraftService(store, courseRepo, categories, courses, time.Hour, "usd")

	authHandler := NewAuthHandler(auth)
	courseHandler := NewCourseHandler(courses)
	draftHandler := NewCourseDraftHandler(drafts)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", authHandler.Login)
	v1.GET("/auth/me", middleware.AuthMiddleware(auth), authHandler.Me)
	v1.GET("/courses/slug-availability", courseHandler.SlugAvailability)

	group := v1.Group("/course-drafts")
	group.Use(middleware.AuthMiddleware(auth), middleware.RequirePermission(authorization.PermissionAuthorCourses))
	group.POST("", draftHandler.Start)
	group.GET("/:id", draftHandler.Get)
	group.POST("/:id/next", draftHandler.Next)
	group.POST("/:id/curriculum/ops", draftHandler.ApplyCurriculum)

	return &testServer{router: router, db: db, auth: auth}
}

func (s *testServer) createUser(t *testing.T, email, password string, role authorization.UserRole) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{
		FirstName:     "Test",
		LastName:      "User",
		Email:         email,
		Password:      string(hash),
		Role:          role,
		Status:        models.UserStatusActive,
		EmailVerified: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with %d: %s", rec.Code, rec.Body.String())
	}
	var auth models.AuthResponse
	decodeData(t, rec, &auth)
	if auth.Token == "" {
		t.Fatalf("expected token in login response")
	}
	return auth.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success envelope, got %s", rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
}

func TestLoginAndMe(t *testing.T) {
	srv := newTestServer(t)
	srv.createUser(t, "ada@example.com", "s3cret-pass", authorization.RoleInstructor)

	rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ada@example.com", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Success || env.Message == "" {
		t.Fatalf("expected failure envelope with message, got %+v", env)
	}

	token := srv.login(t, "ada@example.com", "s3cret-pass")

	rec = srv.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /auth/me, got %d: %s", rec.Code, rec.Body.String())
	}
	var user models.User
	decodeData(t, rec, &user)
	if user.Email != "ada@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "not-an-email"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCourseDraftsRequireAuthorPermission(t *testing.T) {
	srv := newTestServer(t)
	srv.createUser(t, "student@example.com", "s3cret-pass", authorization.RoleStudent)
	token := srv.login(t, "student@example.com", "s3cret-pass")

	rec := srv.do(t, http.MethodPost, "/api/v1/course-drafts", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for students, got %d", rec.Code)
	}
}

func TestCourseDraftWizardFlow(t *testing.T) {
	srv := newTestServer(t)
	srv.createUser(t, "author@example.com", "s3cret-pass", authorization.RoleInstructor)
	token := srv.login(t, "author@example.com", "s3cret-pass")

	rec := srv.do(t, http.MethodPost, "/api/v1/course-drafts", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var draft struct {
		ID     string        `json:"id"`
		Cursor wizard.Cursor `json:"cursor"`
		Steps  []string      `json:"steps"`
	}
	decodeData(t, rec, &draft)
	if draft.ID == "" || len(draft.Steps) != 4 {
		t.Fatalf("unexpected draft: %+v", draft)
	}

	// An empty basic step blocks the wizard and reports the missing fields.
	rec = srv.do(t, http.MethodPost, "/api/v1/course-drafts/"+draft.ID+"/next", token, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	var fields map[string]string
	if err := json.Unmarshal(env.Data, &fields); err != nil {
		t.Fatalf("failed to decode field errors: %v", err)
	}
	if _, ok := fields["basic.title"]; !ok {
		t.Fatalf("expected basic.title error, got %v", fields)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/course-drafts/missing", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown draft, got %d", rec.Code)
	}
}

func TestApplyCurriculumOperations(t *testing.T) {
	srv := newTestServer(t)
	srv.createUser(t, "author@example.com", "s3cret-pass", authorization.RoleInstructor)
	token := srv.login(t, "author@example.com", "s3cret-pass")

	rec := srv.do(t, http.MethodPost, "/api/v1/course-drafts", token, nil)
	var draft struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &draft)
	opsPath := "/api/v1/course-drafts/" + draft.ID + "/curriculum/ops"

	rec = srv.do(t, http.MethodPost, opsPath, token, curriculum.Operation{Kind: curriculum.OpAddModule})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Curriculum struct {
			Modules []curriculum.Module `json:"modules"`
		} `json:"curriculum"`
		Position int `json:"position"`
	}
	decodeData(t, rec, &result)
	if len(result.Curriculum.Modules) != 2 || result.Position != 2 {
		t.Fatalf("expected second module at position 2, got %+v", result)
	}

	rec = srv.do(t, http.MethodPost, opsPath, token, curriculum.Operation{Kind: curriculum.OpDeleteModule, Module: 2})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 without confirmation, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPost, opsPath, token, curriculum.Operation{Kind: curriculum.OpDeleteModule, Module: 9, Confirmed: true})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown module, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPost, opsPath, token, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when op is missing, got %d", rec.Code)
	}
}

func TestSlugAvailabilityRejectsBadExclude(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/api/v1/courses/slug-availability?slug=go-basics&exclude=abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrDraftNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{curriculum.ErrConfirmationRequired, http.StatusConflict},
		{wizard.ErrAtLastStep, http.StatusConflict},
		{curriculum.ErrInvalidValue, http.StatusBadRequest},
		{service.ErrUploadTooLarge, http.StatusRequestEntityTooLarge},
		{service.ErrUploadTypeForbidden, http.StatusUnsupportedMediaType},
		{service.ErrCheckoutDisabled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		writeError(c, tc.err)

		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Success {
			t.Fatalf("%v: expected failure envelope", tc.err)
		}
		if tc.status == http.StatusInternalServerError && env.Message != "internal server error" {
			t.Fatalf("internal errors must not leak detail, got %q", env.Message)
		}
	}
}

func TestWriteErrorFieldErrors(t *testing.T) {
	fields := wizard.FieldErrors{}
	fields.Add("basic.title", "is required")

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	writeError(c, &wizard.StepError{Step: "basic", Err: fields})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Message != "step basic is incomplete" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}
