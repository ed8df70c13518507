package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"coursehub-backend/internal/curriculum"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
	"coursehub-backend/internal/wizard"
	"coursehub-backend/pkg/lang"
	"coursehub-backend/pkg/logger"
	"coursehub-backend/pkg/utils"
)

type CourseService struct {
	courseRepo   repository.CourseRepository
	tagRepo      repository.TagRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
	now          func() time.Time
}

func NewCourseService(
	courseRepo repository.CourseRepository,
	tagRepo repository.TagRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
) *CourseService {
	return &CourseService{
		courseRepo:   courseRepo,
		tagRepo:      tagRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		now:          time.Now,
	}
}

// List returns published catalog cards.
func (s *CourseService) List(filter models.CourseFilter) (*models.CourseListResponse, error) {
	if s == nil || s.courseRepo == nil {
		return nil, errors.New("course service is not configured")
	}
	if filter.Price != "" && filter.Price != models.PriceFilterFree && filter.Price != models.PriceFilterPaid {
		return nil, newValidationError("price must be %q or %q", models.PriceFilterFree, models.PriceFilterPaid)
	}
	if filter.Language != "" {
		code, err := lang.Normalize(filter.Language)
		if err != nil {
			return nil, newValidationError("unknown language %q", filter.Language)
		}
		filter.Language = code
	}

	courses, total, err := s.courseRepo.ListPublished(filter)
	if err != nil {
		return nil, err
	}

	names, err := s.instructorNames(courses)
	if err != nil {
		return nil, err
	}

	items := make([]models.CourseSummary, 0, len(courses))
	for _, course := range courses {
		items = append(items, models.CourseSummary{
			ID:                 course.ID,
			Title:              course.Title,
			Subtitle:           course.Subtitle,
			Slug:               course.Slug,
			ThumbnailURL:       course.ThumbnailURL,
			Level:              course.Level,
			Language:           course.Language,
			PriceCents:         course.PriceCents,
			DiscountPriceCents: course.DiscountPriceCents,
			Currency:           course.Currency,
			CategoryID:         course.CategoryID,
			InstructorID:       course.InstructorID,
			InstructorName:     names[course.InstructorID],
		})
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	return &models.CourseListResponse{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *CourseService) instructorNames(courses []models.Course) (map[uint]string, error) {
	names := make(map[uint]string)
	if s.userRepo == nil || len(courses) == 0 {
		return names, nil
	}
	ids := make([]uint, 0, len(courses))
	for _, course := range courses {
		ids = append(ids, course.InstructorID)
	}
	users, err := s.userRepo.GetByIDs(uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		names[user.ID] = user.FullName()
	}
	return names, nil
}

// GetBySlug returns the course with its full curriculum. Unpublished courses
// are only visible to their owner; quiz answers are hidden from everyone else.
func (s *CourseService) GetBySlug(ctx context.Context, actor Actor, slug string) (*models.Course, error) {
	if s == nil || s.courseRepo == nil {
		return nil, errors.New("course service is not configured")
	}

	course, err := s.courseRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	owner := actor.Owns(course.InstructorID)
	if course.Status != models.CourseStatusPublished && !owner {
		return nil, gorm.ErrRecordNotFound
	}

	if err := s.loadRelations(course); err != nil {
		return nil, err
	}
	if !owner {
		stripAnswers(course.Modules)
	}
	return course, nil
}

func (s *CourseService) loadRelations(course *models.Course) error {
	structure, err := s.courseRepo.ListStructure([]uint{course.ID})
	if err != nil {
		return err
	}
	course.Modules = structure[course.ID]
	if course.Modules == nil {
		course.Modules = []models.CourseModule{}
	}

	if s.categoryRepo != nil && course.CategoryID != 0 {
		category, err := s.categoryRepo.GetByID(course.CategoryID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		course.Category = category
	}
	if s.userRepo != nil {
		instructor, err := s.userRepo.GetByID(course.InstructorID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		course.Instructor = instructor
	}
	return nil
}

// CheckSlug reports whether slug is free, suggesting an alternative when it
// is not. excludeID lets a course keep its own slug while being edited.
func (s *CourseService) CheckSlug(slug string, excludeID uint) (*models.SlugAvailability, error) {
	if s == nil || s.courseRepo == nil {
		return nil, errors.New("course service is not configured")
	}
	normalized := utils.GenerateSlug(slug)
	if normalized == "" {
		return nil, newValidationError("slug is required")
	}

	taken, err := s.courseRepo.SlugExists(normalized, excludeID)
	if err != nil {
		return nil, err
	}
	result := &models.SlugAvailability{Slug: normalized, Available: !taken}
	if !taken {
		return result, nil
	}

	suggestion, err := utils.SuggestSlug(normalized, func(candidate string) (bool, error) {
		return s.courseRepo.SlugExists(candidate, excludeID)
	})
	if err != nil {
		return nil, err
	}
	result.Suggestion = suggestion
	return result, nil
}

// SaveFromDraft creates or updates the course described by the draft,
// replacing its curriculum in the same transaction.
func (s *CourseService) SaveFromDraft(ctx context.Context, draft *models.CourseDraft) (*models.Course, error) {
	if s == nil || s.courseRepo == nil {
		return nil, errors.New("course service is not configured")
	}
	if draft == nil {
		return nil, errors.New("draft is required")
	}

	course := &models.Course{}
	if draft.IsUpdate() {
		existing, err := s.courseRepo.GetByID(*draft.CourseID)
		if err != nil {
			return nil, err
		}
		course = existing
	} else {
		course.InstructorID = draft.OwnerID
	}

	var tags []models.Tag
	if s.tagRepo != nil && len(draft.Basic.TagIDs) > 0 {
		found, err := s.tagRepo.GetByIDs(draft.Basic.TagIDs)
		if err != nil {
			return nil, err
		}
		tags = found
	}

	applyDraft(course, draft, tags, s.now().UTC())

	if err := s.courseRepo.SaveWithStructure(course); err != nil {
		if isDuplicateKeyError(err) {
			return nil, wizard.FieldErrors{"basic.slug": "is already taken"}
		}
		return nil, err
	}

	logger.Info("Course saved from draft", map[string]interface{}{
		"course_id": course.ID,
		"draft_id":  draft.ID,
		"update":    draft.IsUpdate(),
		"status":    course.Status,
	})

	return course, nil
}

func applyDraft(course *models.Course, draft *models.CourseDraft, tags []models.Tag, now time.Time) {
	basic, advanced, publish := draft.Basic, draft.Advanced, draft.Publish

	course.Title = basic.Title
	course.Subtitle = basic.Subtitle
	course.Slug = basic.Slug
	course.CategoryID = basic.CategoryID
	course.SubCategoryID = basic.SubCategoryID
	course.Language = basic.Language
	course.Level = basic.Level
	course.Tags = tags

	course.Description = advanced.Description
	course.ThumbnailURL = advanced.ThumbnailURL
	course.TrailerURL = advanced.TrailerURL
	course.LearningOutcomes = models.StringList(advanced.LearningOutcomes)
	course.Requirements = models.StringList(advanced.Requirements)
	course.TargetAudience = models.StringList(advanced.TargetAudience)

	course.PriceCents = publish.PriceCents
	course.DiscountPriceCents = publish.DiscountPriceCents
	course.Currency = strings.ToLower(publish.Currency)
	course.Status = publish.Status
	course.WelcomeMessage = publish.WelcomeMessage
	course.CongratulationsMessage = publish.CongratulationsMessage
	if course.Status == models.CourseStatusPublished && course.PublishedAt == nil {
		course.PublishedAt = &now
	}

	course.Modules = structureFromPayload(draft.Curriculum.Payload())
}

// LoadDraftSource turns an existing course into draft slices for editing.
func (s *CourseService) LoadDraftSource(ctx context.Context, actor Actor, courseID uint) (*models.CourseDraft, error) {
	if s == nil || s.courseRepo == nil {
		return nil, errors.New("course service is not configured")
	}
	course, err := s.courseRepo.GetByID(courseID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(course.InstructorID) {
		return nil, ErrForbidden
	}

	structure, err := s.courseRepo.ListStructure([]uint{course.ID})
	if err != nil {
		return nil, err
	}

	tagIDs := make([]uint, 0, len(course.Tags))
	for _, tag := range course.Tags {
		tagIDs = append(tagIDs, tag.ID)
	}

	id := course.ID
	return &models.CourseDraft{
		OwnerID:  course.InstructorID,
		CourseID: &id,
		Basic: models.CourseBasicInfo{
			Title:         course.Title,
			Subtitle:      course.Subtitle,
			Slug:          course.Slug,
			CategoryID:    course.CategoryID,
			SubCategoryID: course.SubCategoryID,
			TagIDs:        tagIDs,
			Language:      course.Language,
			Level:         course.Level,
		},
		Advanced: models.CourseAdvancedInfo{
			Description:      course.Description,
			ThumbnailURL:     course.ThumbnailURL,
			TrailerURL:       course.TrailerURL,
			LearningOutcomes: []string(course.LearningOutcomes),
			Requirements:     []string(course.Requirements),
			TargetAudience:   []string(course.TargetAudience),
		},
		Curriculum: curriculum.FromPayload(payloadFromStructure(structure[course.ID])),
		Publish: models.CoursePublishSettings{
			PriceCents:             course.PriceCents,
			DiscountPriceCents:     course.DiscountPriceCents,
			Currency:               course.Currency,
			Status:                 course.Status,
			WelcomeMessage:         course.WelcomeMessage,
			CongratulationsMessage: course.CongratulationsMessage,
		},
	}, nil
}
