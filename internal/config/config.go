package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DatabaseURL string

	// Redis
	EnableRedis bool
	RedisURL    string

	// JWT
	JWTSecret   string
	JWTLifetime time.Duration

	// Server
	Port        string
	Environment string
	PublicURL   string

	// CORS
	CORSOrigins []string

	// Upload
	UploadDir        string
	UploadPublicPath string
	MaxUploadSize    int64
	MaxVideoSize     int64

	// Object storage
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIOPublicURL string

	// Video CDN
	VideoCDNBaseURL    string
	VideoCDNUploadURL  string
	VideoCDNLibraryID  string
	VideoCDNAPIKey     string
	VideoUploadTTL     time.Duration
	VideoCDNPlayerBase string

	// Payments
	StripeSecretKey      string
	StripeWebhookSecret  string
	StripeAPIBaseURL     string
	CheckoutSuccessURL   string
	CheckoutCancelURL    string
	CheckoutCurrency     string
	EnableStripeCheckout bool

	// Email
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	SMTPFrom       string
	SendGridAPIKey string

	// Rate Limiting
	RateLimitRequests  int
	RateLimitWindow    int
	SearchRateLimitRPS float64
	SearchRateBurst    int
	UploadRateRequests int
	UploadRateWindow   int

	// Drafts and search
	DraftTTL             time.Duration
	CartTTL              time.Duration
	SearchCacheTTL       time.Duration
	SearchDebounce       time.Duration
	VerificationTokenTTL time.Duration
	UnverifiedAccountTTL time.Duration
	CleanupSchedule      string

	// Features
	EnableEmail              bool
	EnableMetrics            bool
	RequireEmailVerification bool
}

func New() *Config {
	c := &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "coursehub"),
		DBPassword: getEnv("DB_PASSWORD", "coursehub"),
		DBName:     getEnv("DB_NAME", "coursehub"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		EnableRedis: getEnvAsBool("ENABLE_REDIS", true),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),

		// JWT
		JWTSecret:   getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-this-in-production"),
		JWTLifetime: getEnvAsDuration("JWT_LIFETIME", 72*time.Hour),

		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:3000"), "/"),

		// CORS
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080")),

		// Upload
		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		UploadPublicPath: getEnv("UPLOAD_PUBLIC_PATH", "/uploads"),
		MaxUploadSize:    int64(getEnvAsInt("MAX_UPLOAD_SIZE_MB", 10)) * 1024 * 1024,
		MaxVideoSize:     int64(getEnvAsInt("MAX_VIDEO_SIZE_MB", 2048)) * 1024 * 1024,

		// Object storage
		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "course-assets"),
		MinIOUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		MinIOPublicURL: strings.TrimRight(getEnv("MINIO_PUBLIC_URL", ""), "/"),

		// Video CDN
		VideoCDNBaseURL:    strings.TrimRight(getEnv("VIDEO_CDN_BASE_URL", "https://video.bunnycdn.com"), "/"),
		VideoCDNUploadURL:  getEnv("VIDEO_CDN_UPLOAD_URL", "https://video.bunnycdn.com/tusupload"),
		VideoCDNLibraryID:  getEnv("VIDEO_CDN_LIBRARY_ID", ""),
		VideoCDNAPIKey:     getEnv("VIDEO_CDN_API_KEY", ""),
		VideoUploadTTL:     getEnvAsDuration("VIDEO_UPLOAD_TTL", 6*time.Hour),
		VideoCDNPlayerBase: strings.TrimRight(getEnv("VIDEO_CDN_PLAYER_URL", "https://iframe.mediadelivery.net/embed"), "/"),

		// Payments
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeAPIBaseURL:    getEnv("STRIPE_API_BASE_URL", "https://api.stripe.com"),
		CheckoutSuccessURL:  getEnv("CHECKOUT_SUCCESS_URL", ""),
		CheckoutCancelURL:   getEnv("CHECKOUT_CANCEL_URL", ""),
		CheckoutCurrency:    strings.ToLower(getEnv("CHECKOUT_CURRENCY", "usd")),

		// Email
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:       getEnv("SMTP_FROM", "noreply@coursehub.local"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		// Rate Limiting
		RateLimitRequests:  getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:    getEnvAsInt("RATE_LIMIT_WINDOW", 60),
		SearchRateLimitRPS: getEnvAsFloat("SEARCH_RATE_LIMIT_RPS", 5),
		SearchRateBurst:    getEnvAsInt("SEARCH_RATE_LIMIT_BURST", 10),
		UploadRateRequests: getEnvAsInt("UPLOAD_RATE_LIMIT_REQUESTS", 20),
		UploadRateWindow:   getEnvAsInt("UPLOAD_RATE_LIMIT_WINDOW", 300),

		// Drafts and search
		DraftTTL:             getEnvAsDuration("DRAFT_TTL", 7*24*time.Hour),
		CartTTL:              getEnvAsDuration("CART_TTL", 30*24*time.Hour),
		SearchCacheTTL:       getEnvAsDuration("SEARCH_CACHE_TTL", 5*time.Minute),
		SearchDebounce:       getEnvAsDuration("SEARCH_DEBOUNCE", 350*time.Millisecond),
		VerificationTokenTTL: getEnvAsDuration("VERIFICATION_TOKEN_TTL", 48*time.Hour),
		UnverifiedAccountTTL: getEnvAsDuration("UNVERIFIED_ACCOUNT_TTL", 14*24*time.Hour),
		CleanupSchedule:      getEnv("CLEANUP_SCHEDULE", "0 3 * * *"),

		// Features
		EnableEmail:   getEnvAsBool("ENABLE_EMAIL", false),
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}

	c.RequireEmailVerification = getEnvAsBool("REQUIRE_EMAIL_VERIFICATION", c.EnableEmail)
	c.EnableStripeCheckout = getEnvAsBool("ENABLE_STRIPE_CHECKOUT", c.StripeSecretKey != "")

	if c.CheckoutSuccessURL == "" {
		c.CheckoutSuccessURL = c.PublicURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	}
	if c.CheckoutCancelURL == "" {
		c.CheckoutCancelURL = c.PublicURL + "/cart"
	}

	// Build DSN
	c.DatabaseURL = getEnv("DATABASE_URL", fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	))

	return c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var value float64
	if _, err := fmt.Sscanf(valueStr, "%g", &value); err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true" || valueStr == "1"
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// MinIOEnabled reports whether uploads go to object storage instead of disk.
func (c *Config) MinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

// VideoCDNEnabled reports whether the video CDN credentials are present.
func (c *Config) VideoCDNEnabled() bool {
	return c.VideoCDNLibraryID != "" && c.VideoCDNAPIKey != ""
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
