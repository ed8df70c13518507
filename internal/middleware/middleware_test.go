package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"coursehub-backend/internal/authorization"
	"coursehub-backend/internal/config"
	"coursehub-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubTokens map[string]*service.Claims

func (s stubTokens) ValidateToken(token string) (*service.Claims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

var tokens = stubTokens{
	"instructor": {UserID: 7, Role: authorization.RoleInstructor},
	"student":    {UserID: 9, Role: authorization.RoleStudent},
}

func actorRouter(middlewares ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	handlers := append(middlewares, func(c *gin.Context) {
		actor := CurrentActor(c)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "role": actor.Role})
	})
	router.GET("/", handlers...)
	return router
}

func serve(router http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	router := actorRouter(AuthMiddleware(tokens))

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Basic abc", http.StatusUnauthorized},
		{"Bearer nope", http.StatusUnauthorized},
		{"Bearer instructor", http.StatusOK},
		{"bearer student", http.StatusOK},
	}
	for _, tc := range cases {
		rec := serve(router, tc.header)
		if rec.Code != tc.status {
			t.Fatalf("%q: expected %d, got %d", tc.header, tc.status, rec.Code)
		}
		if tc.status != http.StatusOK {
			var body map[string]interface{}
			json.Unmarshal(rec.Body.Bytes(), &body)
			if body["success"] != false || body["message"] == "" {
				t.Fatalf("%q: expected an error envelope, got %s", tc.header, rec.Body.String())
			}
		}
	}

	rec := serve(router, "Bearer instructor")
	var body struct {
		ID   uint   `json:"id"`
		Role string `json:"role"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.ID != 7 || body.Role != "instructor" {
		t.Fatalf("unexpected actor %+v", body)
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	router := actorRouter(OptionalAuthMiddleware(tokens))

	if rec := serve(router, ""); rec.Code != http.StatusOK || rec.Body.String() != `{"id":0,"role":""}` {
		t.Fatalf("anonymous request should pass, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := serve(router, "Bearer nope"); rec.Code != http.StatusOK {
		t.Fatalf("bad token should be ignored, got %d", rec.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	router := actorRouter(AuthMiddleware(tokens), RequirePermission(authorization.PermissionAuthorCourses))

	if rec := serve(router, "Bearer student"); rec.Code != http.StatusForbidden {
		t.Fatalf("student should be forbidden, got %d", rec.Code)
	}
	if rec := serve(router, "Bearer instructor"); rec.Code != http.StatusOK {
		t.Fatalf("instructor should pass, got %d", rec.Code)
	}
}

func TestSearchRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager := NewRateLimitManager(ctx)
	defer manager.Shutdown()

	cfg := &config.Config{SearchRateLimitRPS: 0.001, SearchRateBurst: 2}
	router := actorRouter(SearchRateLimitMiddleware(manager, cfg))

	for i := 0; i < 2; i++ {
		if rec := serve(router, ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i, rec.Code)
		}
	}
	rec := serve(router, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected a Retry-After header")
	}

	unlimited := actorRouter(SearchRateLimitMiddleware(manager, &config.Config{}))
	for i := 0; i < 5; i++ {
		if rec := serve(unlimited, ""); rec.Code != http.StatusOK {
			t.Fatalf("disabled limiter should pass, got %d", rec.Code)
		}
	}
}

func TestRateLimitManagerCleanup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager := NewRateLimitManager(ctx)
	defer manager.Shutdown()

	manager.Limiter(BucketUpload, "10.0.0.1", rate.Limit(1), 1)
	manager.Limiter(BucketUpload, "10.0.0.2", rate.Limit(1), 1)
	if manager.Limiter(BucketUpload, "10.0.0.3", rate.Inf, 1) != nil {
		t.Fatal("an unlimited bucket should not allocate a limiter")
	}
	if manager.size(BucketUpload) != 2 {
		t.Fatalf("expected two limiters, got %d", manager.size(BucketUpload))
	}

	manager.cleanup(time.Now().Add(time.Hour))
	if manager.size(BucketUpload) != 0 {
		t.Fatalf("idle limiters should be dropped, got %d", manager.size(BucketUpload))
	}
}

func TestWindowLimit(t *testing.T) {
	if WindowLimit(0, 60) != rate.Inf {
		t.Fatal("zero requests disables the limit")
	}
	if got := WindowLimit(120, 60); got != rate.Limit(2) {
		t.Fatalf("expected 2/s, got %v", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	router := actorRouter(RequestIDMiddleware())

	rec := serve(router, "")
	if len(rec.Header().Get(requestIDHeader)) != 36 {
		t.Fatalf("expected a generated uuid, got %q", rec.Header().Get(requestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Header().Get(requestIDHeader) != "abc-123" {
		t.Fatalf("expected the incoming id to be kept, got %q", rec.Header().Get(requestIDHeader))
	}
}
