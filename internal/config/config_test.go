package config

import (
	"os"
	"testing"
	"time"
)

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	original, existed := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset %s: %v", key, err)
	}
	t.Cleanup(func() {
		if !existed {
			_ = os.Unsetenv(key)
			return
		}
		_ = os.Setenv(key, original)
	})
}

func TestDraftDefaults(t *testing.T) {
	unsetEnv(t, "DRAFT_TTL")
	unsetEnv(t, "SEARCH_DEBOUNCE")
	unsetEnv(t, "SEARCH_CACHE_TTL")

	cfg := New()
	if cfg.DraftTTL != 7*24*time.Hour {
		t.Fatalf("expected 7 day draft ttl, got %v", cfg.DraftTTL)
	}
	if cfg.SearchDebounce != 350*time.Millisecond {
		t.Fatalf("expected 350ms debounce, got %v", cfg.SearchDebounce)
	}
	if cfg.SearchCacheTTL != 5*time.Minute {
		t.Fatalf("expected 5 minute search cache, got %v", cfg.SearchCacheTTL)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("DRAFT_TTL", "a week")

	cfg := New()
	if cfg.DraftTTL != 7*24*time.Hour {
		t.Fatalf("expected default ttl for invalid value, got %v", cfg.DraftTTL)
	}
}

func TestEmailVerificationFollowsEmailToggle(t *testing.T) {
	unsetEnv(t, "REQUIRE_EMAIL_VERIFICATION")
	t.Setenv("ENABLE_EMAIL", "true")

	if cfg := New(); !cfg.RequireEmailVerification {
		t.Fatalf("expected verification to be required when email is enabled")
	}

	t.Setenv("REQUIRE_EMAIL_VERIFICATION", "false")
	if cfg := New(); cfg.RequireEmailVerification {
		t.Fatalf("expected explicit disable to win")
	}
}

func TestStripeCheckoutAutoEnablesWithSecret(t *testing.T) {
	unsetEnv(t, "ENABLE_STRIPE_CHECKOUT")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("PUBLIC_URL", "https://learn.example.com/")
	unsetEnv(t, "CHECKOUT_CANCEL_URL")

	cfg := New()
	if !cfg.EnableStripeCheckout {
		t.Fatalf("expected checkout to auto-enable with a secret key")
	}
	if cfg.CheckoutCancelURL != "https://learn.example.com/cart" {
		t.Fatalf("unexpected cancel url %q", cfg.CheckoutCancelURL)
	}
}

func TestCORSOriginsAreTrimmed(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://a.example.com , ,https://b.example.com")

	cfg := New()
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestMinIOEnabledNeedsCredentials(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	unsetEnv(t, "MINIO_ACCESS_KEY")
	unsetEnv(t, "MINIO_SECRET_KEY")

	if New().MinIOEnabled() {
		t.Fatalf("expected minio to stay disabled without credentials")
	}
}
