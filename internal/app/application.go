package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"coursehub-backend/internal/background"
	"coursehub-backend/internal/config"
	"coursehub-backend/internal/handlers"
	"coursehub-backend/internal/middleware"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/payments"
	"coursehub-backend/internal/payments/stripe"
	"coursehub-backend/internal/repository"
	"coursehub-backend/internal/seed"
	"coursehub-backend/internal/service"
	"coursehub-backend/internal/storage"
	"coursehub-backend/pkg/cache"
	"coursehub-backend/pkg/logger"
)

type Options struct {
	// SkipSeed leaves the category table untouched on start.
	SkipSeed bool
}

type Application struct {
	cfg     *config.Config
	options Options

	db        *gorm.DB
	cache     *cache.Cache
	store     storage.Store
	scheduler *background.Scheduler
	limits    *middleware.RateLimitManager

	repositories repositoryContainer
	services     serviceContainer
	handlers     handlerContainer

	router *gin.Engine
	server *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

type repositoryContainer struct {
	User       repository.UserRepository
	Instructor repository.InstructorRepository
	Category   repository.CategoryRepository
	Tag        repository.TagRepository
	Course     repository.CourseRepository
	Enrollment repository.EnrollmentRepository
}

type serviceContainer struct {
	Auth       *service.AuthService
	Email      *service.EmailService
	Search     *service.SearchService
	Category   *service.CategoryService
	Course     *service.CourseService
	Drafts     *service.CourseDraftService
	Instructor *service.InstructorService
	Cart       *service.CartService
	Checkout   *service.CheckoutService
	Upload     *service.UploadService
	Video      *service.VideoService
}

type handlerContainer struct {
	Auth     *handlers.AuthHandler
	Course   *handlers.CourseHandler
	Search   *handlers.SearchHandler
	Category *handlers.CategoryHandler
	Drafts   *handlers.CourseDraftHandler
	Signup   *handlers.InstructorSignupHandler
	Cart     *handlers.CartHandler
	Upload   *handlers.UploadHandler
}

func New(cfg *config.Config, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		cfg:     cfg,
		options: opts,
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := app.initDatabase(); err != nil {
		cancel()
		return nil, err
	}
	if err := app.runMigrations(); err != nil {
		cancel()
		return nil, err
	}
	if err := app.initInfrastructure(); err != nil {
		cancel()
		return nil, err
	}

	app.initRepositories()
	if err := app.initServices(); err != nil {
		cancel()
		return nil, err
	}

	if !opts.SkipSeed {
		seed.EnsureDefaultCategories(app.services.Category)
	}

	if err := app.initScheduler(); err != nil {
		cancel()
		return nil, err
	}

	app.initHandlers()
	app.initRouter()

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return app, nil
}

func (a *Application) Run() error {
	logger.Info("Server starting", map[string]interface{}{
		"port":        a.cfg.Port,
		"environment": a.cfg.Environment,
		"storage":     a.store.Name(),
		"checkout":    a.services.Checkout.Enabled(),
		"video_cdn":   a.services.Video.Enabled(),
	})

	return a.server.ListenAndServe()
}

func (a *Application) Shutdown(ctx context.Context) error {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(ctx); err != nil {
			logger.Error(err, "Background jobs did not finish in time", nil)
		}
	}

	if a.limits != nil {
		a.limits.Shutdown()
	}
	a.cancel()

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Error(err, "Failed to close cache connection", nil)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	return nil
}

func (a *Application) Router() *gin.Engine {
	return a.router
}

func (a *Application) initDatabase() error {
	logger.Info("Connecting to database", nil)

	db, err := gorm.Open(postgres.Open(a.cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.NewGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	a.db = db
	return nil
}

func (a *Application) runMigrations() error {
	if a.db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	logger.Info("Running database migrations", nil)

	if err := a.db.AutoMigrate(
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
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_courses_published ON courses(published_at DESC) WHERE status = 'PUBLISHED' AND deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_courses_title_lower ON courses(lower(title))",
		"CREATE INDEX IF NOT EXISTS idx_users_unverified ON users(created_at) WHERE email_verified = false",
	}
	for _, stmt := range statements {
		if err := a.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	logger.Info("Database migration completed", nil)
	return nil
}

// initInfrastructure connects the cache and picks the object store.
func (a *Application) initInfrastructure() error {
	cacheService, err := cache.NewCache(a.cfg.RedisURL, a.cfg.EnableRedis)
	if err != nil {
		logger.Warn("Redis unavailable, keeping drafts in memory", map[string]interface{}{
			"error": err.Error(),
		})
		cacheService = cache.NewMemoryCache()
	}
	a.cache = cacheService

	if a.cfg.MinIOEnabled() {
		store, err := storage.NewMinIOStore(a.ctx, storage.MinIOConfig{
			Endpoint:  a.cfg.MinIOEndpoint,
			AccessKey: a.cfg.MinIOAccessKey,
			SecretKey: a.cfg.MinIOSecretKey,
			Bucket:    a.cfg.MinIOBucket,
			UseSSL:    a.cfg.MinIOUseSSL,
			PublicURL: a.cfg.MinIOPublicURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize object storage: %w", err)
		}
		a.store = store
	} else {
		store, err := storage.NewDiskStore(a.cfg.UploadDir, a.cfg.UploadPublicPath)
		if err != nil {
			return fmt.Errorf("failed to initialize upload directory: %w", err)
		}
		a.store = store
	}

	a.limits = middleware.NewRateLimitManager(a.ctx)
	a.scheduler = background.NewScheduler(background.SchedulerConfig{Workers: 4, QueueSize: 256})
	return nil
}

func (a *Application) initRepositories() {
	a.repositories = repositoryContainer{
		User:       repository.NewUserRepository(a.db),
		Instructor: repository.NewInstructorRepository(a.db),
		Category:   repository.NewCategoryRepository(a.db),
		Tag:        repository.NewTagRepository(a.db),
		Course:     repository.NewCourseRepository(a.db),
		Enrollment: repository.NewEnrollmentRepository(a.db),
	}
}

func (a *Application) paymentProvider() (payments.Provider, error) {
	if !a.cfg.EnableStripeCheckout {
		return nil, nil
	}
	provider, err := stripe.NewProvider(a.cfg.StripeSecretKey, a.cfg.StripeAPIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stripe: %w", err)
	}
	return provider, nil
}

func (a *Application) initServices() error {
	repos := a.repositories

	provider, err := a.paymentProvider()
	if err != nil {
		return err
	}

	search := service.NewSearchService(repos.Category, repos.Tag, repos.Instructor, a.cache, a.cfg.SearchCacheTTL)
	courses := service.NewCourseService(repos.Course, repos.Tag, repos.Category, repos.User)
	email := service.NewEmailService(a.cfg)
	cart := service.NewCartService(a.cache, repos.Course, repos.Enrollment, a.cfg.CartTTL, a.cfg.CheckoutCurrency)

	a.services = serviceContainer{
		Auth:     service.NewAuthService(repos.User, a.cfg.JWTSecret, a.cfg.JWTLifetime),
		Email:    email,
		Search:   search,
		Category: service.NewCategoryService(repos.Category, repos.Tag, search),
		Course:   courses,
		Drafts:   service.NewCourseDraftService(a.cache, repos.Course, repos.Category, courses, a.cfg.DraftTTL, a.cfg.CheckoutCurrency),
		Instructor: service.NewInstructorService(a.cache, repos.User, email, a.scheduler, service.InstructorSignupConfig{
			DraftTTL:          a.cfg.DraftTTL,
			VerificationTTL:   a.cfg.VerificationTokenTTL,
			RequireVerify:     a.cfg.RequireEmailVerification,
			PublicURL:         a.cfg.PublicURL,
			UnverifiedAccount: a.cfg.UnverifiedAccountTTL,
		}),
		Cart: cart,
		Checkout: service.NewCheckoutService(cart, repos.Course, repos.Enrollment, repos.User, provider, service.CheckoutConfig{
			SuccessURL:    a.cfg.CheckoutSuccessURL,
			CancelURL:     a.cfg.CheckoutCancelURL,
			Currency:      a.cfg.CheckoutCurrency,
			WebhookSecret: a.cfg.StripeWebhookSecret,
		}),
		Upload: service.NewUploadService(a.store, a.cfg.MaxUploadSize, a.cfg.MaxVideoSize),
		Video: service.NewVideoService(service.VideoCDNConfig{
			BaseURL:    a.cfg.VideoCDNBaseURL,
			UploadURL:  a.cfg.VideoCDNUploadURL,
			PlayerBase: a.cfg.VideoCDNPlayerBase,
			LibraryID:  a.cfg.VideoCDNLibraryID,
			APIKey:     a.cfg.VideoCDNAPIKey,
			TicketTTL:  a.cfg.VideoUploadTTL,
		}),
	}
	return nil
}

// initScheduler starts the worker pool and registers the nightly cleanup of
// instructor accounts that never confirmed their email.
func (a *Application) initScheduler() error {
	a.scheduler.Start(a.ctx)

	if !a.cfg.RequireEmailVerification {
		return nil
	}
	cleanup := background.Job{
		Name:        "cleanup-unverified-instructors",
		Timeout:     5 * time.Minute,
		RetryPolicy: background.RetryPolicy{MaxRetries: 2, Backoff: time.Minute},
		Run: func(ctx context.Context) error {
			_, err := a.services.Instructor.CleanupUnverified(ctx)
			return err
		},
	}
	if err := a.scheduler.Every(a.cfg.CleanupSchedule, cleanup); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	return nil
}

func (a *Application) initHandlers() {
	s := a.services
	a.handlers = handlerContainer{
		Auth:     handlers.NewAuthHandler(s.Auth),
		Course:   handlers.NewCourseHandler(s.Course),
		Search:   handlers.NewSearchHandler(s.Search),
		Category: handlers.NewCategoryHandler(s.Category),
		Drafts:   handlers.NewCourseDraftHandler(s.Drafts),
		Signup:   handlers.NewInstructorSignupHandler(s.Instructor),
		Cart:     handlers.NewCartHandler(s.Cart, s.Checkout),
		Upload:   handlers.NewUploadHandler(s.Upload, s.Video),
	}
}
