package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
	"coursehub-backend/pkg/cache"
)

const (
	cartKeyPrefix = "cart:"
	maxCartItems  = 50
)

type CartService struct {
	store      DraftStore
	courseRepo repository.CourseRepository
	enrollRepo repository.EnrollmentRepository
	ttl        time.Duration
	currency   string
	locks      keyLocks
}

func NewCartService(store DraftStore, courseRepo repository.CourseRepository, enrollRepo repository.EnrollmentRepository, ttl time.Duration, currency string) *CartService {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &CartService{
		store:      store,
		courseRepo: courseRepo,
		enrollRepo: enrollRepo,
		ttl:        ttl,
		currency:   currency,
	}
}

func cartKey(userID uint) string {
	return fmt.Sprintf("%s%d", cartKeyPrefix, userID)
}

func (s *CartService) ids(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := s.store.Get(ctx, cartKey(userID), &ids); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return []uint{}, nil
		}
		return nil, err
	}
	return ids, nil
}

// View lists the cart. Courses that were unpublished since they were added
// are dropped silently.
func (s *CartService) View(ctx context.Context, actor Actor) (*models.CartView, error) {
	if s == nil || s.store == nil || s.courseRepo == nil {
		return nil, errors.New("cart service is not configured")
	}
	if actor.ID == 0 {
		return nil, ErrForbidden
	}

	ids, err := s.ids(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	courses, err := s.courseRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Course, len(courses))
	for _, course := range courses {
		byID[course.ID] = course
	}

	view := &models.CartView{Items: []models.CartItem{}, Currency: s.currency}
	for _, id := range ids {
		course, ok := byID[id]
		if !ok || course.Status != models.CourseStatusPublished {
			continue
		}
		view.Items = append(view.Items, models.CartItem{
			CourseID:           course.ID,
			Title:              course.Title,
			Slug:               course.Slug,
			ThumbnailURL:       course.ThumbnailURL,
			PriceCents:         course.PriceCents,
			DiscountPriceCents: course.DiscountPriceCents,
		})
		view.TotalCents += course.EffectivePriceCents()
		if course.Currency != "" {
			view.Currency = course.Currency
		}
	}
	return view, nil
}

// Add puts a published course in the cart. Adding a course twice is a no-op.
func (s *CartService) Add(ctx context.Context, actor Actor, courseID uint) (*models.CartView, error) {
	if s == nil || s.store == nil || s.courseRepo == nil {
		return nil, errors.New("cart service is not configured")
	}
	if actor.ID == 0 {
		return nil, ErrForbidden
	}

	course, err := s.courseRepo.GetByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newValidationError("course is not available")
		}
		return nil, err
	}
	if course.Status != models.CourseStatusPublished {
		return nil, newValidationError("course is not available")
	}
	if course.InstructorID == actor.ID {
		return nil, newValidationError("you cannot buy your own course")
	}
	if s.enrollRepo != nil {
		enrolled, err := s.enrollRepo.IsEnrolled(actor.ID, courseID)
		if err != nil {
			return nil, err
		}
		if enrolled {
			return nil, newValidationError("you are already enrolled in this course")
		}
	}

	if err := s.addID(ctx, actor.ID, courseID); err != nil {
		return nil, err
	}
	return s.View(ctx, actor)
}

func (s *CartService) addID(ctx context.Context, userID, courseID uint) error {
	defer s.locks.Lock(cartKey(userID))()

	ids, err := s.ids(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == courseID {
			return nil
		}
	}
	if len(ids) >= maxCartItems {
		return newValidationError("cart cannot hold more than %d courses", maxCartItems)
	}
	return s.store.Set(ctx, cartKey(userID), append(ids, courseID), s.ttl)
}

func (s *CartService) Remove(ctx context.Context, actor Actor, courseID uint) (*models.CartView, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("cart service is not configured")
	}
	if actor.ID == 0 {
		return nil, ErrForbidden
	}
	if err := s.RemoveCourses(ctx, actor.ID, []uint{courseID}); err != nil {
		return nil, err
	}
	return s.View(ctx, actor)
}

// Clear empties the cart of userID.
func (s *CartService) Clear(ctx context.Context, userID uint) error {
	if s == nil || s.store == nil {
		return errors.New("cart service is not configured")
	}
	return s.store.Delete(ctx, cartKey(userID))
}

// RemoveCourses drops the given courses from the cart of userID.
func (s *CartService) RemoveCourses(ctx context.Context, userID uint, courseIDs []uint) error {
	if s == nil || s.store == nil {
		return errors.New("cart service is not configured")
	}
	defer s.locks.Lock(cartKey(userID))()

	drop := make(map[uint]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		drop[id] = struct{}{}
	}
	ids, err := s.ids(ctx, userID)
	if err != nil {
		return err
	}
	kept := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		return s.store.Delete(ctx, cartKey(userID))
	}
	return s.store.Set(ctx, cartKey(userID), kept, s.ttl)
}
