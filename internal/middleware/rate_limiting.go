package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"coursehub-backend/internal/config"
	"coursehub-backend/pkg/response"
)

func limitBucket(manager *RateLimitManager, bucket string, limit rate.Limit, burst int, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if shouldBypassRateLimit(c.Request) {
			c.Next()
			return
		}

		limiter := manager.Limiter(bucket, c.ClientIP(), limit, burst)
		if limiter == nil {
			c.Next()
			return
		}

		if !limiter.Allow() {
			if limit > 0 {
				retry := int(1/float64(limit)) + 1
				c.Header("Retry-After", strconv.Itoa(retry))
			}
			response.Abort(c, http.StatusTooManyRequests, message)
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware limits the overall request rate per IP.
func RateLimitMiddleware(manager *RateLimitManager, cfg *config.Config) gin.HandlerFunc {
	burst := cfg.RateLimitRequests
	return limitBucket(manager, BucketGeneral, WindowLimit(cfg.RateLimitRequests, cfg.RateLimitWindow), burst,
		"too many requests, please try again later")
}

// SearchRateLimitMiddleware protects the search-as-you-type endpoints. The
// client debounces keystrokes; this catches the ones that do not.
func SearchRateLimitMiddleware(manager *RateLimitManager, cfg *config.Config) gin.HandlerFunc {
	limit := rate.Inf
	if cfg.SearchRateLimitRPS > 0 {
		limit = rate.Limit(cfg.SearchRateLimitRPS)
	}
	return limitBucket(manager, BucketSearch, limit, cfg.SearchRateBurst, "search rate limit exceeded")
}

// UploadRateLimitMiddleware limits file uploads and video upload tickets per IP.
func UploadRateLimitMiddleware(manager *RateLimitManager, cfg *config.Config) gin.HandlerFunc {
	return limitBucket(manager, BucketUpload, WindowLimit(cfg.UploadRateRequests, cfg.UploadRateWindow), cfg.UploadRateRequests,
		"upload rate limit exceeded, please try again later")
}

func shouldBypassRateLimit(r *http.Request) bool {
	if r == nil || r.URL == nil {
		return false
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}

	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/uploads/"):
		return true
	case path == "/ping", path == "/metrics":
		return true
	}
	return false
}
