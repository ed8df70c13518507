package app

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coursehub-backend/internal/authorization"
	"coursehub-backend/internal/middleware"
	"coursehub-backend/pkg/logger"
	"coursehub-backend/pkg/response"
)

func (a *Application) initRouter() {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(logger.GinLogger())
	router.Use(middleware.SecurityHeadersMiddleware(a.mediaSources()...))
	if a.cfg.EnableMetrics {
		router.Use(middleware.MetricsMiddleware())
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RateLimitMiddleware(a.limits, a.cfg))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	if a.cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if a.store.Name() == "disk" {
		uploads := router.Group(a.cfg.UploadPublicPath)
		uploads.Use(middleware.UploadsProtection())
		uploads.Static("/", a.cfg.UploadDir)
	}

	h := a.handlers
	auth := middleware.AuthMiddleware(a.services.Auth)
	author := middleware.RequirePermission(authorization.PermissionAuthorCourses)
	searchLimit := middleware.SearchRateLimitMiddleware(a.limits, a.cfg)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", h.Auth.Login)
		v1.GET("/auth/verify-email", h.Auth.VerifyEmail)
		v1.GET("/auth/me", auth, h.Auth.Me)

		v1.GET("/courses", h.Course.List)
		v1.GET("/courses/slug-availability", h.Course.SlugAvailability)
		v1.GET("/courses/:slug", middleware.OptionalAuthMiddleware(a.services.Auth), h.Course.GetBySlug)

		v1.GET("/categories", searchLimit, h.Search.Categories)
		v1.GET("/tags", searchLimit, h.Search.Tags)
		v1.GET("/instructors", searchLimit, h.Search.Instructors)

		catalog := v1.Group("")
		catalog.Use(auth, middleware.RequirePermission(authorization.PermissionManageCatalog))
		{
			catalog.POST("/categories", h.Category.CreateCategory)
			catalog.POST("/tags", h.Category.CreateTag)
		}

		signup := v1.Group("/instructor-signup")
		{
			signup.POST("", h.Signup.Start)
			signup.GET("/:id", h.Signup.Get)
			signup.POST("/:id/next", h.Signup.Next)
			signup.POST("/:id/back", h.Signup.Back)
			signup.POST("/:id/submit", h.Signup.Submit)
			signup.GET("/:id/:step", h.Signup.GetStep)
			signup.PUT("/:id/:step", h.Signup.SaveStep)
		}

		drafts := v1.Group("/course-drafts")
		drafts.Use(auth, author)
		{
			drafts.POST("", h.Drafts.Start)
			drafts.POST("/from-course/:id", h.Drafts.StartFromCourse)
			drafts.GET("/:id", h.Drafts.Get)
			drafts.DELETE("/:id", h.Drafts.Discard)
			drafts.PUT("/:id/basic", h.Drafts.SaveBasic)
			drafts.PUT("/:id/advanced", h.Drafts.SaveAdvanced)
			drafts.PUT("/:id/publish-settings", h.Drafts.SavePublishSettings)
			drafts.POST("/:id/next", h.Drafts.Next)
			drafts.POST("/:id/back", h.Drafts.Back)
			drafts.POST("/:id/goto", h.Drafts.Goto)
			drafts.POST("/:id/curriculum/ops", h.Drafts.ApplyCurriculum)
			drafts.POST("/:id/publish", h.Drafts.Publish)
		}

		cart := v1.Group("/cart")
		cart.Use(auth)
		{
			cart.GET("", h.Cart.View)
			cart.POST("/items", h.Cart.Add)
			cart.DELETE("/items/:courseID", h.Cart.Remove)
		}
		v1.POST("/checkout", auth, h.Cart.Checkout)
		v1.POST("/checkout/webhook", h.Cart.Webhook)

		uploads := v1.Group("/uploads")
		uploads.Use(auth, author, middleware.UploadRateLimitMiddleware(a.limits, a.cfg))
		{
			uploads.POST("/files", h.Upload.UploadFile)
			uploads.POST("/videos", h.Upload.CreateVideoUpload)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, "not found", nil)
	})

	a.router = router
}

// mediaSources lists origins outside the API that serve lesson media.
func (a *Application) mediaSources() []string {
	var sources []string
	if a.cfg.VideoCDNEnabled() {
		sources = append(sources, a.cfg.VideoCDNPlayerBase)
	}
	if a.store != nil && a.store.Name() == "minio" && a.cfg.MinIOPublicURL != "" {
		sources = append(sources, a.cfg.MinIOPublicURL)
	}
	return sources
}
