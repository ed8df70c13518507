package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"coursehub-backend/internal/authorization"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/wizard"
	"coursehub-backend/pkg/cache"
)

func newSignupFixture(requireVerify bool, users ...models.User) (*InstructorService, *mockUserRepo, *recordingScheduler, *recordingMailer) {
	repo := newMockUserRepo(users...)
	scheduler := &recordingScheduler{}
	mailer := &recordingMailer{}
	svc := NewInstructorService(cache.NewMemoryCache(), repo, mailer, scheduler, InstructorSignupConfig{
		RequireVerify: requireVerify,
		PublicURL:     "https://coursehub.test/",
	})
	return svc, repo, scheduler, mailer
}

func fillSignup(t *testing.T, svc *InstructorService, id string) {
	t.Helper()
	ctx := context.Background()

	steps := []func() error{
		func() error {
			_, err := svc.SavePersonal(ctx, id, models.SignupPersonal{
				FirstName: "Ada", LastName: "Lovelace", Email: " Ada@Example.com ", Password: "s3cret-pass",
			})
			return err
		},
		func() error {
			_, err := svc.SaveProfessional(ctx, id, models.SignupProfessional{
				Headline: "Engineer", YearsOfExperience: 10, ExpertiseAreas: []string{"Go"},
			})
			return err
		},
		func() error {
			_, err := svc.SaveCourseIntent(ctx, id, models.SignupCourseIntent{
				Topics: []string{"Concurrency"}, TargetAudience: "Backend developers", PreferredFormat: "Video",
			})
			return err
		},
	}
	for i, save := range steps {
		if err := save(); err != nil {
			t.Fatalf("save step %d: %v", i, err)
		}
		if _, err := svc.Next(ctx, id); err != nil {
			t.Fatalf("next from step %d: %v", i, err)
		}
	}
	if _, err := svc.SaveAdditional(ctx, id, models.SignupAdditional{Bio: "<b>Hi</b>", Website: "https://ada.dev"}); err != nil {
		t.Fatalf("save additional: %v", err)
	}
}

func TestSavePersonalHashesPassword(t *testing.T) {
	svc, _, _, _ := newSignupFixture(true)
	ctx := context.Background()
	draft, _ := svc.Start(ctx)

	if _, err := svc.SavePersonal(ctx, draft.ID, models.SignupPersonal{Password: "short"}); err == nil {
		t.Fatal("expected short password to be rejected")
	}

	public, err := svc.SavePersonal(ctx, draft.ID, models.SignupPersonal{Email: "a@b.co", Password: "long-enough"})
	if err != nil {
		t.Fatalf("SavePersonal: %v", err)
	}
	if public.PasswordHash != "" || public.Personal.Password != "" {
		t.Fatal("password material must not be returned")
	}
	if !public.HasPassword {
		t.Fatal("expected HasPassword to be set")
	}

	stored, err := svc.load(ctx, draft.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("long-enough")) != nil {
		t.Fatal("stored hash does not match the password")
	}

	// Saving again without a password keeps the previous hash.
	svc.SavePersonal(ctx, draft.ID, models.SignupPersonal{Email: "a@b.co"})
	again, _ := svc.load(ctx, draft.ID)
	if again.PasswordHash != stored.PasswordHash {
		t.Fatal("password hash was dropped")
	}
}

func TestPersonalStepRejectsRegisteredEmail(t *testing.T) {
	svc, _, _, _ := newSignupFixture(true, models.User{ID: 1, Email: "ada@example.com"})
	ctx := context.Background()
	draft, _ := svc.Start(ctx)

	svc.SavePersonal(ctx, draft.ID, models.SignupPersonal{
		FirstName: "Ada", LastName: "L", Email: "ADA@example.com", Password: "long-enough",
	})
	_, err := svc.Next(ctx, draft.ID)
	fields, ok := wizard.AsFieldErrors(err)
	if !ok || fields["personal.email"] != "is already registered" {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestSubmitWithVerification(t *testing.T) {
	svc, repo, scheduler, mailer := newSignupFixture(true)
	ctx := context.Background()
	draft, _ := svc.Start(ctx)
	fillSignup(t, svc, draft.ID)

	result, err := svc.Submit(ctx, draft.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Route != models.SignupRouteVerifyEmail {
		t.Fatalf("expected verify-email route, got %s", result.Route)
	}

	user := repo.users[result.UserID]
	if user.Role != authorization.RoleInstructor || user.Status != models.UserStatusPending || user.EmailVerified {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email was not normalized: %q", user.Email)
	}
	if user.VerificationTokenHash == "" || user.VerificationExpiresAt == nil {
		t.Fatal("expected a verification token")
	}
	profile := repo.profiles[result.UserID]
	if profile == nil || profile.PreferredFormat != "video" || profile.Bio != "Hi" {
		t.Fatalf("unexpected profile %+v", profile)
	}

	if len(scheduler.jobs) != 1 {
		t.Fatalf("expected one queued email, got %d", len(scheduler.jobs))
	}
	job := scheduler.jobs[0]
	if job.RetryPolicy.MaxRetries == 0 {
		t.Fatal("verification email should be retried")
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if len(mailer.sent) != 1 || !strings.Contains(mailer.sent[0].Text, "https://coursehub.test/verify-email?token=") {
		t.Fatalf("unexpected email %+v", mailer.sent)
	}

	if _, err := svc.Get(ctx, draft.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("submitted draft should be removed, got %v", err)
	}
}

func TestSubmitWithoutVerification(t *testing.T) {
	svc, repo, scheduler, _ := newSignupFixture(false)
	ctx := context.Background()
	draft, _ := svc.Start(ctx)
	fillSignup(t, svc, draft.ID)

	result, err := svc.Submit(ctx, draft.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Route != models.SignupRouteHome {
		t.Fatalf("expected home route, got %s", result.Route)
	}
	if !repo.users[result.UserID].EmailVerified {
		t.Fatal("user should be verified right away")
	}
	if len(scheduler.jobs) != 0 {
		t.Fatal("no email expected")
	}
}

func TestVerifyEmailFlow(t *testing.T) {
	svc, repo, scheduler, mailer := newSignupFixture(true)
	ctx := context.Background()
	draft, _ := svc.Start(ctx)
	fillSignup(t, svc, draft.ID)
	result, err := svc.Submit(ctx, draft.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	scheduler.jobs[0].Run(ctx)

	link := mailer.sent[0].Text
	start := strings.Index(link, "token=") + len("token=")
	token := strings.Fields(link[start:])[0]

	auth := NewAuthService(repo, "secret", time.Hour)
	if _, _, err := auth.Login(models.LoginRequest{Email: "ada@example.com", Password: "s3cret-pass"}); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}

	if _, err := auth.VerifyEmail("bogus"); !errors.Is(err, ErrInvalidVerification) {
		t.Fatalf("expected ErrInvalidVerification, got %v", err)
	}
	user, err := auth.VerifyEmail(token)
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if user.ID != result.UserID || !repo.users[user.ID].EmailVerified {
		t.Fatal("user was not verified")
	}

	jwtToken, _, err := auth.Login(models.LoginRequest{Email: "ada@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := auth.ValidateToken(jwtToken)
	if err != nil || claims.UserID != user.ID || claims.Role != authorization.RoleInstructor {
		t.Fatalf("unexpected claims %+v, %v", claims, err)
	}
}

func TestCleanupUnverified(t *testing.T) {
	svc, repo, _, _ := newSignupFixture(true)
	repo.deleted = 3
	now := time.Date(2026, 3, 20, 3, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	deleted, err := svc.CleanupUnverified(context.Background())
	if err != nil || deleted != 3 {
		t.Fatalf("unexpected result %d, %v", deleted, err)
	}
	if !repo.deleteSince.Equal(now.Add(-14 * 24 * time.Hour)) {
		t.Fatalf("unexpected cutoff %v", repo.deleteSince)
	}
}
