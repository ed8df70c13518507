package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursehub-backend/internal/authorization"
	"coursehub-backend/internal/curriculum"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
	"coursehub-backend/internal/wizard"
	"coursehub-backend/pkg/cache"
	"coursehub-backend/pkg/lang"
	"coursehub-backend/pkg/logger"
	"coursehub-backend/pkg/utils"
	"coursehub-backend/pkg/validator"
)

const courseDraftKeyPrefix = "draft:course:"

// DraftStore keeps drafts as JSON snapshots. *cache.Cache satisfies it.
type DraftStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
}

// CoursePublisher persists a finished draft and loads existing courses back
// into the wizard.
type CoursePublisher interface {
	SaveFromDraft(ctx context.Context, draft *models.CourseDraft) (*models.Course, error)
	LoadDraftSource(ctx context.Context, actor Actor, courseID uint) (*models.CourseDraft, error)
}

type CourseDraftService struct {
	store      DraftStore
	courses    repository.CourseRepository
	categories repository.CategoryRepository
	publisher  CoursePublisher
	ttl        time.Duration
	currency   string
	flow       *wizard.Flow[*models.CourseDraft]
	now        func() time.Time
	locks      keyLocks
}

func NewCourseDraftService(
	store DraftStore,
	courses repository.CourseRepository,
	categories repository.CategoryRepository,
	publisher CoursePublisher,
	ttl time.Duration,
	currency string,
) *CourseDraftService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	s := &CourseDraftService{
		store:      store,
		courses:    courses,
		categories: categories,
		publisher:  publisher,
		ttl:        ttl,
		currency:   strings.ToLower(strings.TrimSpace(currency)),
		now:        time.Now,
	}
	s.flow = wizard.New(
		wizard.Step[*models.CourseDraft]{Name: models.CourseStepBasic, Validate: s.validateBasic},
		wizard.Step[*models.CourseDraft]{Name: models.CourseStepAdvanced, Validate: validateAdvanced},
		wizard.Step[*models.CourseDraft]{Name: models.CourseStepCurriculum, Validate: validateCurriculum},
		wizard.Step[*models.CourseDraft]{Name: models.CourseStepPublish, Validate: validatePublish},
	)
	return s
}

// Steps lists the wizard steps in order.
func (s *CourseDraftService) Steps() []string {
	return s.flow.Steps()
}

// Start opens a new authoring session seeded with one module and one lesson.
func (s *CourseDraftService) Start(ctx context.Context, actor Actor) (*models.CourseDraft, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("course draft service is not configured")
	}
	if !actor.Can(authorization.PermissionAuthorCourses) {
		return nil, ErrForbidden
	}

	now := s.now().UTC()
	draft := &models.CourseDraft{
		ID:         uuid.NewString(),
		OwnerID:    actor.ID,
		Cursor:     s.flow.Start(),
		Curriculum: curriculum.Seed(),
		Publish: models.CoursePublishSettings{
			Currency: s.currency,
			Status:   models.CourseStatusDraft,
		},
		CreatedAt: now,
	}
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}

	logger.Info("Course draft started", map[string]interface{}{"draft_id": draft.ID, "user_id": actor.ID})
	return draft, nil
}

// StartFromCourse opens an authoring session that updates an existing course.
func (s *CourseDraftService) StartFromCourse(ctx context.Context, actor Actor, courseID uint) (*models.CourseDraft, error) {
	if s == nil || s.store == nil || s.publisher == nil {
		return nil, errors.New("course draft service is not configured")
	}
	if !actor.Can(authorization.PermissionAuthorCourses) {
		return nil, ErrForbidden
	}

	draft, err := s.publisher.LoadDraftSource(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	draft.ID = uuid.NewString()
	draft.Cursor = s.flow.Start()
	draft.CreatedAt = s.now().UTC()
	if draft.Publish.Currency == "" {
		draft.Publish.Currency = s.currency
	}

	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}

	logger.Info("Course draft opened for editing", map[string]interface{}{
		"draft_id":  draft.ID,
		"course_id": courseID,
		"user_id":   actor.ID,
	})
	return draft, nil
}

func (s *CourseDraftService) Get(ctx context.Context, actor Actor, id string) (*models.CourseDraft, error) {
	return s.load(ctx, actor, id)
}

// Discard drops the draft without publishing it.
func (s *CourseDraftService) Discard(ctx context.Context, actor Actor, id string) error {
	defer s.locks.Lock(id)()
	if _, err := s.load(ctx, actor, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, courseDraftKeyPrefix+id)
}

// SaveBasic replaces the basic info slice. Nothing is validated until Next.
func (s *CourseDraftService) SaveBasic(ctx context.Context, actor Actor, id string, basic models.CourseBasicInfo) (*models.CourseDraft, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	basic.Title = validator.NormalizeSpaces(basic.Title)
	basic.Subtitle = validator.NormalizeSpaces(basic.Subtitle)
	basic.Language = strings.TrimSpace(basic.Language)
	if code, err := lang.Normalize(basic.Language); err == nil {
		basic.Language = code
	}
	basic.Level = strings.ToUpper(strings.TrimSpace(basic.Level))
	if strings.TrimSpace(basic.Slug) == "" {
		basic.Slug = utils.GenerateSlug(basic.Title)
	} else {
		basic.Slug = utils.GenerateSlug(basic.Slug)
	}
	basic.TagIDs = uniqueIDs(basic.TagIDs)

	draft.Basic = basic
	return draft, s.save(ctx, draft)
}

func (s *CourseDraftService) SaveAdvanced(ctx context.Context, actor Actor, id string, advanced models.CourseAdvancedInfo) (*models.CourseDraft, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	advanced.Description = strings.TrimSpace(validator.SanitizeHTML(advanced.Description))
	advanced.ThumbnailURL = strings.TrimSpace(advanced.ThumbnailURL)
	advanced.TrailerURL = strings.TrimSpace(advanced.TrailerURL)
	advanced.LearningOutcomes = cleanList(advanced.LearningOutcomes)
	advanced.Requirements = cleanList(advanced.Requirements)
	advanced.TargetAudience = cleanList(advanced.TargetAudience)

	draft.Advanced = advanced
	return draft, s.save(ctx, draft)
}

func (s *CourseDraftService) SavePublish(ctx context.Context, actor Actor, id string, settings models.CoursePublishSettings) (*models.CourseDraft, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	settings.Currency = strings.ToLower(strings.TrimSpace(settings.Currency))
	if settings.Currency == "" {
		settings.Currency = s.currency
	}
	settings.Status = strings.ToUpper(strings.TrimSpace(settings.Status))
	if settings.Status == "" {
		settings.Status = models.CourseStatusDraft
	}
	settings.WelcomeMessage = strings.TrimSpace(settings.WelcomeMessage)
	settings.CongratulationsMessage = strings.TrimSpace(settings.CongratulationsMessage)

	draft.Publish = settings
	return draft, s.save(ctx, draft)
}

// Next validates the current step and advances. On failure the draft is
// returned unchanged together with the validation error.
func (s *CourseDraftService) Next(ctx context.Context, actor Actor, id string) (*models.CourseDraft, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	cursor, err := s.flow.Next(draft.Cursor, draft)
	if err != nil {
		return draft, err
	}
	draft.Cursor = cursor
	return draft, s.save(ctx, draft)
}

// Back moves one step back without validating.
func (s *CourseDraftService) Back(ctx context.Context, actor Actor, id string) (*models.CourseDraft, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	cursor, err := s.flow.Back(draft.Cursor)
	if err != nil {
		return draft, err
	}
	draft.Cursor = cursor
	return draft, s.save(ctx, draft)
}

// Goto jumps back to an earlier step, as the review screen does.
func (s *CourseDraftService) Goto(ctx context.Context, actor Actor, id, step string) (*models.CourseDraft, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	cursor, err := s.flow.Goto(draft.Cursor, step)
	if err != nil {
		return draft, err
	}
	draft.Cursor = cursor
	return draft, s.save(ctx, draft)
}

// ApplyCurriculum runs one curriculum edit against the draft. Rejected edits
// leave the stored draft untouched and are reported through the notices.
func (s *CourseDraftService) ApplyCurriculum(ctx context.Context, actor Actor, id string, op curriculum.Operation) (*models.CurriculumResponse, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	result, err := draft.Curriculum.Apply(op)
	if err != nil {
		return nil, err
	}

	if !curriculum.Rejected(result.Notices) {
		draft.Curriculum = result.Curriculum
		if err := s.save(ctx, draft); err != nil {
			return nil, err
		}
	}

	return &models.CurriculumResponse{
		Curriculum: draft.Curriculum,
		Notices:    result.Notices,
		Issues:     draft.Curriculum.Validate(),
		Position:   result.Position,
	}, nil
}

// Publish submits the whole draft in one call. On success the draft is
// removed; on failure it stays on the publish step.
func (s *CourseDraftService) Publish(ctx context.Context, actor Actor, id string) (*models.Course, error) {
	defer s.locks.Lock(id)()
	draft, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if s.publisher == nil {
		return nil, errors.New("course publisher is not configured")
	}

	var course *models.Course
	err = s.flow.Submit(ctx, draft.Cursor, draft, func(ctx context.Context, d *models.CourseDraft) error {
		saved, err := s.publisher.SaveFromDraft(ctx, d)
		if err != nil {
			return err
		}
		course = saved
		return nil
	})
	if err != nil {
		if !IsValidationError(err) {
			if _, ok := wizard.AsFieldErrors(err); !ok && !errors.Is(err, wizard.ErrNotTerminal) {
				logger.Error(err, "Failed to publish course draft", map[string]interface{}{"draft_id": id, "user_id": actor.ID})
			}
		}
		return nil, err
	}

	if err := s.store.Delete(ctx, courseDraftKeyPrefix+id); err != nil {
		logger.Warn("Failed to delete published course draft", map[string]interface{}{"draft_id": id, "error": err.Error()})
	}

	logger.Info("Course draft published", map[string]interface{}{
		"draft_id":  id,
		"course_id": course.ID,
		"status":    course.Status,
		"user_id":   actor.ID,
	})
	return course, nil
}

func (s *CourseDraftService) load(ctx context.Context, actor Actor, id string) (*models.CourseDraft, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("course draft service is not configured")
	}
	if actor.ID == 0 {
		return nil, ErrForbidden
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrDraftNotFound
	}

	var draft models.CourseDraft
	if err := s.store.Get(ctx, courseDraftKeyPrefix+id, &draft); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	if !actor.Owns(draft.OwnerID) {
		return nil, ErrForbidden
	}
	if err := s.flow.Check(draft.Cursor); err != nil {
		draft.Cursor = s.flow.Start()
	}
	return &draft, nil
}

func (s *CourseDraftService) save(ctx context.Context, draft *models.CourseDraft) error {
	draft.UpdatedAt = s.now().UTC()
	return s.store.Set(ctx, courseDraftKeyPrefix+draft.ID, draft, s.ttl)
}

func (s *CourseDraftService) validateBasic(draft *models.CourseDraft) error {
	fields, err := stepFields(draft.Basic, models.CourseStepBasic)
	if err != nil {
		return err
	}

	if _, invalid := fields["basic.slug"]; !invalid && draft.Basic.Slug != "" && s.courses != nil {
		var exclude uint
		if draft.IsUpdate() {
			exclude = *draft.CourseID
		}
		taken, err := s.courses.SlugExists(draft.Basic.Slug, exclude)
		if err != nil {
			return err
		}
		if taken {
			fields.Add("basic.slug", "is already taken")
		}
	}

	if draft.Basic.CategoryID != 0 && s.categories != nil {
		if _, err := s.categories.GetByID(draft.Basic.CategoryID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			fields.Add("basic.category_id", "does not exist")
		}
		if sub := draft.Basic.SubCategoryID; sub != nil && *sub != 0 {
			category, err := s.categories.GetByID(*sub)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				fields.Add("basic.sub_category_id", "does not exist")
			case err != nil:
				return err
			case category.ParentID == nil || *category.ParentID != draft.Basic.CategoryID:
				fields.Add("basic.sub_category_id", "does not belong to the selected category")
			}
		}
	}

	if draft.Basic.Language != "" {
		if _, err := lang.Normalize(draft.Basic.Language); err != nil {
			fields.Add("basic.language", "must be a language code such as en or pt-BR")
		}
	}

	return fields.Err()
}

func validateAdvanced(draft *models.CourseDraft) error {
	fields, err := stepFields(draft.Advanced, models.CourseStepAdvanced)
	if err != nil {
		return err
	}
	return fields.Err()
}

func validateCurriculum(draft *models.CourseDraft) error {
	fields := wizard.FieldErrors{}
	for _, issue := range draft.Curriculum.Validate() {
		if !issue.Blocking {
			continue
		}
		path := models.CourseStepCurriculum
		if issue.Path != "" {
			path += "." + issue.Path
		}
		fields.Add(path, issue.Message)
	}
	return fields.Err()
}

func validatePublish(draft *models.CourseDraft) error {
	fields, err := stepFields(draft.Publish, models.CourseStepPublish)
	if err != nil {
		return err
	}
	if discount := draft.Publish.DiscountPriceCents; discount != nil && *discount >= draft.Publish.PriceCents {
		fields.Add("publish.discount_price_cents", "must be lower than the price")
	}
	return fields.Err()
}

// stepFields validates a step struct and always returns a usable FieldErrors
// so callers can add their own checks.
func stepFields(value interface{}, prefix string) (wizard.FieldErrors, error) {
	err := wizard.FromValidator(validator.Validate(value), prefix)
	if err == nil {
		return wizard.FieldErrors{}, nil
	}
	fields, ok := wizard.AsFieldErrors(err)
	if !ok {
		return nil, err
	}
	return fields, nil
}

func cleanList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := validator.NormalizeSpaces(value); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
