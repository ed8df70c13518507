package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"coursehub-backend/internal/background"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/payments"
)

type mockCourseRepo struct {
	courses   map[uint]*models.Course
	structure map[uint][]models.CourseModule
	nextID    uint
	saveErr   error
}

func newMockCourseRepo(courses ...models.Course) *mockCourseRepo {
	repo := &mockCourseRepo{
		courses:   map[uint]*models.Course{},
		structure: map[uint][]models.CourseModule{},
		nextID:    100,
	}
	for i := range courses {
		course := courses[i]
		repo.courses[course.ID] = &course
	}
	return repo
}

func (m *mockCourseRepo) Create(course *models.Course) error {
	m.nextID++
	course.ID = m.nextID
	stored := *course
	m.courses[course.ID] = &stored
	return nil
}

func (m *mockCourseRepo) Update(course *models.Course) error {
	stored := *course
	m.courses[course.ID] = &stored
	return nil
}

func (m *mockCourseRepo) GetByID(id uint) (*models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *course
	return &copy, nil
}

func (m *mockCourseRepo) GetBySlug(slug string) (*models.Course, error) {
	for _, course := range m.courses {
		if course.Slug == slug {
			copy := *course
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByIDs(ids []uint) ([]models.Course, error) {
	var result []models.Course
	for _, id := range ids {
		if course, ok := m.courses[id]; ok {
			result = append(result, *course)
		}
	}
	return result, nil
}

func (m *mockCourseRepo) SlugExists(slug string, excludeID uint) (bool, error) {
	for _, course := range m.courses {
		if course.Slug == slug && course.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCourseRepo) ListPublished(filter models.CourseFilter) ([]models.Course, int64, error) {
	var result []models.Course
	for _, course := range m.courses {
		if course.Status == models.CourseStatusPublished {
			result = append(result, *course)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockCourseRepo) SaveWithStructure(course *models.Course) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	modules := course.Modules
	if course.ID == 0 {
		if err := m.Create(course); err != nil {
			return err
		}
	} else if err := m.Update(course); err != nil {
		return err
	}
	m.structure[course.ID] = modules
	return nil
}

func (m *mockCourseRepo) ReplaceStructure(courseID uint, modules []models.CourseModule) error {
	m.structure[courseID] = modules
	return nil
}

func (m *mockCourseRepo) ListStructure(courseIDs []uint) (map[uint][]models.CourseModule, error) {
	result := make(map[uint][]models.CourseModule, len(courseIDs))
	for _, id := range courseIDs {
		result[id] = m.structure[id]
	}
	return result, nil
}

type mockCategoryRepo struct {
	categories map[uint]*models.Category
}

func newMockCategoryRepo(categories ...models.Category) *mockCategoryRepo {
	repo := &mockCategoryRepo{categories: map[uint]*models.Category{}}
	for i := range categories {
		category := categories[i]
		repo.categories[category.ID] = &category
	}
	return repo
}

func (m *mockCategoryRepo) Create(category *models.Category) error {
	category.ID = uint(len(m.categories) + 1)
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepo) GetByID(id uint) (*models.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return category, nil
}

func (m *mockCategoryRepo) GetBySlug(slug string) (*models.Category, error) {
	for _, category := range m.categories {
		if category.Slug == slug {
			return category, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCategoryRepo) ExistsBySlug(slug string) (bool, error) {
	_, err := m.GetBySlug(slug)
	return err == nil, nil
}

func (m *mockCategoryRepo) Search(query string, parentID *uint, limit int) ([]models.Category, error) {
	return nil, nil
}

type mockUserRepo struct {
	users       map[uint]*models.User
	profiles    map[uint]*models.InstructorProfile
	createErr   error
	deleted     int64
	deleteSince time.Time
}

func newMockUserRepo(users ...models.User) *mockUserRepo {
	repo := &mockUserRepo{users: map[uint]*models.User{}, profiles: map[uint]*models.InstructorProfile{}}
	for i := range users {
		user := users[i]
		repo.users[user.ID] = &user
	}
	return repo
}

func (m *mockUserRepo) Create(user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = uint(len(m.users) + 1)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) CreateInstructor(user *models.User, profile *models.InstructorProfile) error {
	if err := m.Create(user); err != nil {
		return err
	}
	profile.UserID = user.ID
	m.profiles[user.ID] = profile
	return nil
}

func (m *mockUserRepo) GetByID(id uint) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *mockUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByIDs(ids []uint) ([]models.User, error) {
	var result []models.User
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (m *mockUserRepo) GetByVerificationHash(hash string, now time.Time) (*models.User, error) {
	for _, user := range m.users {
		if user.VerificationTokenHash == hash && user.VerificationExpiresAt != nil && user.VerificationExpiresAt.After(now) {
			copy := *user
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) EmailExists(email string) (bool, error) {
	_, err := m.GetByEmail(email)
	return err == nil, nil
}

func (m *mockUserRepo) MarkVerified(id uint, at time.Time) error {
	user, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.EmailVerified = true
	user.EmailVerifiedAt = &at
	user.Status = models.UserStatusActive
	user.VerificationTokenHash = ""
	user.VerificationExpiresAt = nil
	return nil
}

func (m *mockUserRepo) DeleteUnverifiedBefore(cutoff time.Time) (int64, error) {
	m.deleteSince = cutoff
	return m.deleted, nil
}

type mockEnrollmentRepo struct {
	granted []models.Enrollment
}

func (m *mockEnrollmentRepo) Grant(enrollments []models.Enrollment) error {
	for _, enrollment := range enrollments {
		enrolled, _ := m.IsEnrolled(enrollment.UserID, enrollment.CourseID)
		if !enrolled {
			m.granted = append(m.granted, enrollment)
		}
	}
	return nil
}

func (m *mockEnrollmentRepo) IsEnrolled(userID, courseID uint) (bool, error) {
	for _, enrollment := range m.granted {
		if enrollment.UserID == userID && enrollment.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) EnrolledCourseIDs(userID uint, courseIDs []uint) (map[uint]bool, error) {
	result := map[uint]bool{}
	for _, id := range courseIDs {
		result[id], _ = m.IsEnrolled(userID, id)
	}
	return result, nil
}

func (m *mockEnrollmentRepo) ListByUser(userID uint) ([]models.Enrollment, error) {
	var result []models.Enrollment
	for _, enrollment := range m.granted {
		if enrollment.UserID == userID {
			result = append(result, enrollment)
		}
	}
	return result, nil
}

type mockProvider struct {
	params  payments.CheckoutParams
	session *payments.Session
	err     error
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, params payments.CheckoutParams) (*payments.Session, error) {
	m.params = params
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func (m *mockProvider) GetCheckoutSession(ctx context.Context, id string) (*payments.SessionDetails, error) {
	return &payments.SessionDetails{ID: id}, nil
}

type recordingScheduler struct {
	mu   sync.Mutex
	jobs []background.Job
}

func (r *recordingScheduler) Schedule(job background.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return nil
}

type recordingMailer struct {
	sent []EmailMessage
}

func (r *recordingMailer) Enabled() bool { return true }

func (r *recordingMailer) Send(ctx context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	return nil
}
