package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"coursehub-backend/internal/authorization"
	"coursehub-backend/internal/background"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
	"coursehub-backend/internal/wizard"
	"coursehub-backend/pkg/cache"
	"coursehub-backend/pkg/logger"
	"coursehub-backend/pkg/validator"
)

const signupKeyPrefix = "draft:instructor:"

// JobScheduler queues work outside the request. *background.Scheduler
// satisfies it.
type JobScheduler interface {
	Schedule(job background.Job) error
}

// InstructorSignupConfig tunes the signup flow.
type InstructorSignupConfig struct {
	DraftTTL          time.Duration
	VerificationTTL   time.Duration
	RequireVerify     bool
	PublicURL         string
	UnverifiedAccount time.Duration
}

type InstructorService struct {
	store     DraftStore
	users     repository.UserRepository
	mailer    Mailer
	scheduler JobScheduler
	config    InstructorSignupConfig
	flow      *wizard.Flow[*models.InstructorSignupDraft]
	now       func() time.Time
	locks     keyLocks
}

func NewInstructorService(store DraftStore, users repository.UserRepository, mailer Mailer, scheduler JobScheduler, cfg InstructorSignupConfig) *InstructorService {
	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = 7 * 24 * time.Hour
	}
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = 48 * time.Hour
	}
	if cfg.UnverifiedAccount <= 0 {
		cfg.UnverifiedAccount = 14 * 24 * time.Hour
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	s := &InstructorService{
		store:     store,
		users:     users,
		mailer:    mailer,
		scheduler: scheduler,
		config:    cfg,
		now:       time.Now,
	}
	s.flow = wizard.New(
		wizard.Step[*models.InstructorSignupDraft]{Name: models.SignupStepPersonal, Validate: s.validatePersonal},
		wizard.Step[*models.InstructorSignupDraft]{Name: models.SignupStepProfessional, Validate: func(d *models.InstructorSignupDraft) error {
			return signupStepErr(d.Professional, models.SignupStepProfessional)
		}},
		wizard.Step[*models.InstructorSignupDraft]{Name: models.SignupStepCourseIntent, Validate: func(d *models.InstructorSignupDraft) error {
			return signupStepErr(d.CourseIntent, models.SignupStepCourseIntent)
		}},
		wizard.Step[*models.InstructorSignupDraft]{Name: models.SignupStepAdditional, Validate: func(d *models.InstructorSignupDraft) error {
			return signupStepErr(d.Additional, models.SignupStepAdditional)
		}},
	)
	return s
}

func (s *InstructorService) Steps() []string {
	return s.flow.Steps()
}

// Start opens an anonymous signup session.
func (s *InstructorService) Start(ctx context.Context) (*models.InstructorSignupDraft, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("instructor service is not configured")
	}
	draft := &models.InstructorSignupDraft{
		ID:        uuid.NewString(),
		Cursor:    s.flow.Start(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}
	return public(draft), nil
}

func (s *InstructorService) Get(ctx context.Context, id string) (*models.InstructorSignupDraft, error) {
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return public(draft), nil
}

// SavePersonal stores the personal step. A new password is checked and
// hashed right away so the draft never holds it in clear.
func (s *InstructorService) SavePersonal(ctx context.Context, id string, personal models.SignupPersonal) (*models.InstructorSignupDraft, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if personal.Password != "" {
		if ok, message := validator.ValidatePassword(personal.Password); !ok {
			return public(draft), wizard.FieldErrors{"personal.password": message}
		}
		if len(personal.Password) > 72 {
			return public(draft), wizard.FieldErrors{"personal.password": "must not exceed 72 characters"}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(personal.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		draft.PasswordHash = string(hash)
		draft.HasPassword = true
	}

	personal.Password = ""
	personal.FirstName = validator.NormalizeSpaces(personal.FirstName)
	personal.LastName = validator.NormalizeSpaces(personal.LastName)
	personal.Email = strings.ToLower(strings.TrimSpace(personal.Email))
	personal.Phone = strings.TrimSpace(personal.Phone)
	draft.Personal = personal

	return public(draft), s.save(ctx, draft)
}

func (s *InstructorService) SaveProfessional(ctx context.Context, id string, professional models.SignupProfessional) (*models.InstructorSignupDraft, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	professional.Headline = validator.NormalizeSpaces(professional.Headline)
	professional.CurrentCompany = validator.NormalizeSpaces(professional.CurrentCompany)
	professional.ExpertiseAreas = cleanList(professional.ExpertiseAreas)
	draft.Professional = professional
	return public(draft), s.save(ctx, draft)
}

func (s *InstructorService) SaveCourseIntent(ctx context.Context, id string, intent models.SignupCourseIntent) (*models.InstructorSignupDraft, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	intent.Topics = cleanList(intent.Topics)
	intent.TargetAudience = strings.TrimSpace(intent.TargetAudience)
	intent.PreferredFormat = strings.ToLower(strings.TrimSpace(intent.PreferredFormat))
	draft.CourseIntent = intent
	return public(draft), s.save(ctx, draft)
}

func (s *InstructorService) SaveAdditional(ctx context.Context, id string, additional models.SignupAdditional) (*models.InstructorSignupDraft, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	additional.Bio = strings.TrimSpace(validator.SanitizeString(additional.Bio))
	additional.Skills = cleanList(additional.Skills)
	additional.Website = strings.TrimSpace(additional.Website)
	additional.LinkedIn = strings.TrimSpace(additional.LinkedIn)
	additional.Twitter = strings.TrimSpace(additional.Twitter)
	additional.YouTube = strings.TrimSpace(additional.YouTube)
	draft.Additional = additional
	return public(draft), s.save(ctx, draft)
}

func (s *InstructorService) Next(ctx context.Context, id string) (*models.InstructorSignupDraft, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	cursor, err := s.flow.Next(draft.Cursor, draft)
	if err != nil {
		return public(draft), err
	}
	draft.Cursor = cursor
	return public(draft), s.save(ctx, draft)
}

func (s *InstructorService) Back(ctx context.Context, id string) (*models.InstructorSignupDraft, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	cursor, err := s.flow.Back(draft.Cursor)
	if err != nil {
		return public(draft), err
	}
	draft.Cursor = cursor
	return public(draft), s.save(ctx, draft)
}

// Submit creates the instructor account. The result tells the client to
// show the email verification screen or go home.
func (s *InstructorService) Submit(ctx context.Context, id string) (*models.SignupResult, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.users == nil {
		return nil, errors.New("user repository is not configured")
	}

	var result *models.SignupResult
	err = s.flow.Submit(ctx, draft.Cursor, draft, func(ctx context.Context, d *models.InstructorSignupDraft) error {
		created, err := s.createAccount(ctx, d)
		if err != nil {
			return err
		}
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, signupKeyPrefix+id); err != nil {
		logger.Warn("Failed to delete signup draft", map[string]interface{}{"draft_id": id, "error": err.Error()})
	}
	return result, nil
}

func (s *InstructorService) createAccount(ctx context.Context, d *models.InstructorSignupDraft) (*models.SignupResult, error) {
	now := s.now().UTC()
	user := &models.User{
		FirstName: d.Personal.FirstName,
		LastName:  d.Personal.LastName,
		Email:     d.Personal.Email,
		Password:  d.PasswordHash,
		Role:      authorization.RoleInstructor,
		Status:    models.UserStatusActive,
	}

	var token string
	if s.config.RequireVerify {
		raw, hash, err := newVerificationToken()
		if err != nil {
			return nil, err
		}
		expires := now.Add(s.config.VerificationTTL)
		token = raw
		user.Status = models.UserStatusPending
		user.VerificationTokenHash = hash
		user.VerificationExpiresAt = &expires
	} else {
		user.EmailVerified = true
		user.EmailVerifiedAt = &now
	}

	profile := &models.InstructorProfile{
		Phone:              d.Personal.Phone,
		Headline:           d.Professional.Headline,
		YearsOfExperience:  d.Professional.YearsOfExperience,
		ExpertiseAreas:     models.StringList(d.Professional.ExpertiseAreas),
		CurrentCompany:     d.Professional.CurrentCompany,
		CourseTopics:       models.StringList(d.CourseIntent.Topics),
		TargetAudience:     d.CourseIntent.TargetAudience,
		PreferredFormat:    d.CourseIntent.PreferredFormat,
		HasExistingContent: d.CourseIntent.HasExistingContent,
		Bio:                d.Additional.Bio,
		Skills:             models.StringList(d.Additional.Skills),
		Website:            d.Additional.Website,
		LinkedIn:           d.Additional.LinkedIn,
		Twitter:            d.Additional.Twitter,
		YouTube:            d.Additional.YouTube,
	}

	if err := s.users.CreateInstructor(user, profile); err != nil {
		if isDuplicateKeyError(err) {
			return nil, wizard.FieldErrors{"personal.email": "is already registered"}
		}
		return nil, err
	}

	logger.Info("Instructor account created", map[string]interface{}{
		"user_id":             user.ID,
		"verification_needed": s.config.RequireVerify,
	})

	if !s.config.RequireVerify {
		return &models.SignupResult{UserID: user.ID, Email: user.Email, Route: models.SignupRouteHome}, nil
	}

	s.queueVerificationEmail(user, token)
	return &models.SignupResult{UserID: user.ID, Email: user.Email, Route: models.SignupRouteVerifyEmail}, nil
}

func (s *InstructorService) queueVerificationEmail(user *models.User, token string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.config.PublicURL, url.QueryEscape(token))
	message := verificationEmail(user.Email, user.FullName(), link)

	send := func(ctx context.Context) error {
		if s.mailer == nil || !s.mailer.Enabled() {
			logger.Warn("Verification email skipped, email is not configured", map[string]interface{}{"user_id": user.ID})
			return nil
		}
		return s.mailer.Send(ctx, message)
	}

	if s.scheduler == nil {
		if err := send(context.Background()); err != nil {
			logger.Error(err, "Failed to send verification email", map[string]interface{}{"user_id": user.ID})
		}
		return
	}

	err := s.scheduler.Schedule(background.Job{
		Name:        fmt.Sprintf("verification-email:%d", user.ID),
		Run:         send,
		Timeout:     30 * time.Second,
		RetryPolicy: background.RetryPolicy{MaxRetries: 3, Backoff: 30 * time.Second},
	})
	if err != nil {
		logger.Error(err, "Failed to queue verification email", map[string]interface{}{"user_id": user.ID})
	}
}

// CleanupUnverified removes instructor accounts that never confirmed their
// email within the configured window.
func (s *InstructorService) CleanupUnverified(ctx context.Context) (int64, error) {
	if s == nil || s.users == nil {
		return 0, errors.New("instructor service is not configured")
	}
	cutoff := s.now().UTC().Add(-s.config.UnverifiedAccount)
	deleted, err := s.users.DeleteUnverifiedBefore(cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logger.Info("Removed unverified instructor accounts", map[string]interface{}{"count": deleted, "cutoff": cutoff})
	}
	return deleted, nil
}

func (s *InstructorService) validatePersonal(d *models.InstructorSignupDraft) error {
	fields, err := stepFields(d.Personal, models.SignupStepPersonal)
	if err != nil {
		return err
	}
	if d.PasswordHash == "" {
		fields.Add("personal.password", "is required")
	}
	if _, invalid := fields["personal.email"]; !invalid && s.users != nil {
		exists, err := s.users.EmailExists(d.Personal.Email)
		if err != nil {
			return err
		}
		if exists {
			fields.Add("personal.email", "is already registered")
		}
	}
	return fields.Err()
}

func signupStepErr(value interface{}, prefix string) error {
	fields, err := stepFields(value, prefix)
	if err != nil {
		return err
	}
	return fields.Err()
}

func (s *InstructorService) load(ctx context.Context, id string) (*models.InstructorSignupDraft, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("instructor service is not configured")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrDraftNotFound
	}
	var draft models.InstructorSignupDraft
	if err := s.store.Get(ctx, signupKeyPrefix+id, &draft); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	if err := s.flow.Check(draft.Cursor); err != nil {
		draft.Cursor = s.flow.Start()
	}
	return &draft, nil
}

func (s *InstructorService) save(ctx context.Context, draft *models.InstructorSignupDraft) error {
	draft.UpdatedAt = s.now().UTC()
	return s.store.Set(ctx, signupKeyPrefix+draft.ID, draft, s.config.DraftTTL)
}

// public hides the password hash from API responses.
func public(draft *models.InstructorSignupDraft) *models.InstructorSignupDraft {
	if draft == nil {
		return nil
	}
	out := *draft
	out.PasswordHash = ""
	return &out
}

func newVerificationToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw := hex.EncodeToString(buf)
	return raw, hashToken(raw), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}
