package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
	"coursehub-backend/pkg/cache"
	"coursehub-backend/pkg/logger"
)

const (
	searchKeyPrefix = "search:"
	searchLimit     = 20
	maxQueryLength  = 80
)

// SearchService backs the search-as-you-type pickers of the authoring and
// signup forms. Results are cached for a short while.
type SearchService struct {
	categoryRepo   repository.CategoryRepository
	tagRepo        repository.TagRepository
	instructorRepo repository.InstructorRepository
	cache          *cache.Cache
	ttl            time.Duration
}

func NewSearchService(
	categoryRepo repository.CategoryRepository,
	tagRepo repository.TagRepository,
	instructorRepo repository.InstructorRepository,
	cacheService *cache.Cache,
	ttl time.Duration,
) *SearchService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SearchService{
		categoryRepo:   categoryRepo,
		tagRepo:        tagRepo,
		instructorRepo: instructorRepo,
		cache:          cacheService,
		ttl:            ttl,
	}
}

func normalizeQuery(query string) string {
	cleaned := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if runes := []rune(cleaned); len(runes) > maxQueryLength {
		cleaned = string(runes[:maxQueryLength])
	}
	return cleaned
}

func (s *SearchService) Categories(ctx context.Context, query string, parentID *uint) ([]models.Category, error) {
	if s == nil || s.categoryRepo == nil {
		return nil, errors.New("search service is not configured")
	}
	query = normalizeQuery(query)
	parent := "root"
	if parentID != nil {
		parent = fmt.Sprintf("%d", *parentID)
	}
	key := fmt.Sprintf("%scategories:%s:%s", searchKeyPrefix, parent, query)

	return cached(ctx, s, key, func() ([]models.Category, error) {
		return s.categoryRepo.Search(query, parentID, searchLimit)
	})
}

func (s *SearchService) Tags(ctx context.Context, query string) ([]models.Tag, error) {
	if s == nil || s.tagRepo == nil {
		return nil, errors.New("search service is not configured")
	}
	query = normalizeQuery(query)
	return cached(ctx, s, searchKeyPrefix+"tags:"+query, func() ([]models.Tag, error) {
		return s.tagRepo.Search(query, searchLimit)
	})
}

func (s *SearchService) Instructors(ctx context.Context, query string) ([]models.InstructorSummary, error) {
	if s == nil || s.instructorRepo == nil {
		return nil, errors.New("search service is not configured")
	}
	query = normalizeQuery(query)
	return cached(ctx, s, searchKeyPrefix+"instructors:"+query, func() ([]models.InstructorSummary, error) {
		return s.instructorRepo.Search(query, searchLimit)
	})
}

// Invalidate drops every cached search result.
func (s *SearchService) Invalidate(ctx context.Context) error {
	if s == nil || s.cache == nil {
		return nil
	}
	return s.cache.DeletePattern(ctx, searchKeyPrefix+"*")
}

func cached[T any](ctx context.Context, s *SearchService, key string, load func() ([]T, error)) ([]T, error) {
	if s.cache != nil {
		var hit []T
		err := s.cache.Get(ctx, key, &hit)
		if err == nil {
			return hit, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			logger.Warn("Search cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	result, err := load()
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []T{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
			logger.Warn("Search cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return result, nil
}
