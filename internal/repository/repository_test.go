package repository

import (
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"coursehub-backend/internal/authorization"
	"coursehub-backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	err = db.AutoMigrate(
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
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func sampleStructure() []models.CourseModule {
	return []models.CourseModule{
		{
			Position: 1,
			Title:    "Getting started",
			Lessons: []models.CourseLesson{
				{Position: 1, Title: "Welcome", ContentType: "VIDEO", Video: &models.LessonAsset{Name: "intro.mp4", URL: "https://cdn.example.com/intro.mp4"}},
				{
					Position:    3,
					Title:       "Check yourself",
					ContentType: "QUIZ",
					Quiz: &models.LessonQuiz{
						Title:        "Basics",
						PassingScore: 70,
						Questions: []models.QuizQuestion{
							{
								Position: 1,
								Text:     "Is Go compiled?",
								Type:     "TRUE_FALSE",
								Points:   1,
								Options: []models.QuizOption{
									{Position: 1, Text: "true", IsCorrect: true},
									{Position: 2, Text: "false"},
								},
							},
						},
					},
				},
			},
		},
		{
			Position: 2,
			Title:    "Deep dive",
			Lessons: []models.CourseLesson{
				{Position: 1, Title: "Reading", ContentType: "ARTICLE", Files: models.LessonAssetList{{Name: "notes.pdf", URL: "https://cdn.example.com/notes.pdf"}}},
			},
		},
	}
}

func TestCourseRepositorySaveWithStructureRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewCourseRepository(db)
	tags := NewTagRepository(db)

	tag := &models.Tag{Name: "Go", Slug: "go"}
	if err := tags.Create(tag); err != nil {
		t.Fatalf("create tag: %v", err)
	}

	course := &models.Course{
		InstructorID: 1,
		Title:        "Go in practice",
		Slug:         "go-in-practice",
		CategoryID:   1,
		Status:       models.CourseStatusDraft,
		Tags:         []models.Tag{*tag},
		Modules:      sampleStructure(),
	}
	if err := repo.SaveWithStructure(course); err != nil {
		t.Fatalf("save: %v", err)
	}
	if course.ID == 0 {
		t.Fatalf("expected course id to be assigned")
	}

	structure, err := repo.ListStructure([]uint{course.ID})
	if err != nil {
		t.Fatalf("list structure: %v", err)
	}
	modules := structure[course.ID]
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	if modules[0].Title != "Getting started" || len(modules[0].Lessons) != 2 {
		t.Fatalf("unexpected first module %+v", modules[0])
	}
	quizLesson := modules[0].Lessons[1]
	if quizLesson.Position != 3 {
		t.Fatalf("expected lesson position to be preserved, got %d", quizLesson.Position)
	}
	if quizLesson.Quiz == nil || len(quizLesson.Quiz.Questions) != 1 {
		t.Fatalf("expected quiz with one question, got %+v", quizLesson.Quiz)
	}
	options := quizLesson.Quiz.Questions[0].Options
	if len(options) != 2 || !options[0].IsCorrect || options[1].IsCorrect {
		t.Fatalf("unexpected options %+v", options)
	}
	if modules[0].Lessons[0].Video == nil || modules[0].Lessons[0].Video.Name != "intro.mp4" {
		t.Fatalf("expected video asset to round trip")
	}
	if len(modules[1].Lessons[0].Files) != 1 {
		t.Fatalf("expected file assets to round trip")
	}

	stored, err := repo.GetBySlug("go-in-practice")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if len(stored.Tags) != 1 || stored.Tags[0].Slug != "go" {
		t.Fatalf("expected tag association, got %+v", stored.Tags)
	}
}

func TestCourseRepositoryReplaceStructureDropsOldRows(t *testing.T) {
	db := newTestDB(t)
	repo := NewCourseRepository(db)

	course := &models.Course{InstructorID: 1, Title: "Course", Slug: "course", CategoryID: 1, Modules: sampleStructure()}
	if err := repo.SaveWithStructure(course); err != nil {
		t.Fatalf("save: %v", err)
	}

	replacement := []models.CourseModule{{Position: 1, Title: "Only", Lessons: []models.CourseLesson{{Position: 1, Title: "One", ContentType: "ARTICLE"}}}}
	if err := repo.ReplaceStructure(course.ID, replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}

	structure, err := repo.ListStructure([]uint{course.ID})
	if err != nil {
		t.Fatalf("list structure: %v", err)
	}
	if len(structure[course.ID]) != 1 || structure[course.ID][0].Title != "Only" {
		t.Fatalf("unexpected structure after replace: %+v", structure[course.ID])
	}

	var options, quizzes int64
	db.Unscoped().Model(&models.QuizOption{}).Count(&options)
	db.Unscoped().Model(&models.LessonQuiz{}).Count(&quizzes)
	if options != 0 || quizzes != 0 {
		t.Fatalf("expected quiz rows to be removed, got %d quizzes and %d options", quizzes, options)
	}
}

func TestCourseRepositorySlugExists(t *testing.T) {
	db := newTestDB(t)
	repo := NewCourseRepository(db)

	course := &models.Course{InstructorID: 1, Title: "Course", Slug: "taken", CategoryID: 1}
	if err := repo.Create(course); err != nil {
		t.Fatalf("create: %v", err)
	}

	exists, err := repo.SlugExists("taken", 0)
	if err != nil || !exists {
		t.Fatalf("expected slug to exist, got %v (%v)", exists, err)
	}
	exists, err = repo.SlugExists("taken", course.ID)
	if err != nil || exists {
		t.Fatalf("expected own slug to be excluded, got %v (%v)", exists, err)
	}
}

func TestCourseRepositoryListPublishedFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewCourseRepository(db)

	discount := int64(0)
	courses := []models.Course{
		{InstructorID: 1, Title: "Go basics", Slug: "go-basics", CategoryID: 1, Level: models.CourseLevelBeginner, PriceCents: 0, Status: models.CourseStatusPublished},
		{InstructorID: 1, Title: "Advanced Go", Slug: "advanced-go", CategoryID: 1, Level: models.CourseLevelAdvanced, PriceCents: 4900, Status: models.CourseStatusPublished},
		{InstructorID: 2, Title: "Rust intro", Slug: "rust-intro", CategoryID: 2, PriceCents: 2900, DiscountPriceCents: &discount, Status: models.CourseStatusPublished},
		{InstructorID: 2, Title: "Go drafts", Slug: "go-drafts", CategoryID: 1, Status: models.CourseStatusDraft},
	}
	for idx := range courses {
		if err := repo.Create(&courses[idx]); err != nil {
			t.Fatalf("create %s: %v", courses[idx].Slug, err)
		}
	}

	items, total, err := repo.ListPublished(models.CourseFilter{CategoryID: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 published courses in category, got %d", total)
	}

	_, total, _ = repo.ListPublished(models.CourseFilter{Price: models.PriceFilterFree})
	if total != 2 {
		t.Fatalf("expected free filter to include discounted-to-zero course, got %d", total)
	}

	items, _, _ = repo.ListPublished(models.CourseFilter{Search: "GO", Sort: models.CourseSortPriceDesc})
	if len(items) != 2 || items[0].Slug != "advanced-go" {
		t.Fatalf("unexpected search result order %+v", items)
	}

	items, total, _ = repo.ListPublished(models.CourseFilter{Limit: 1, Page: 2, Sort: models.CourseSortTitle})
	if total != 3 || len(items) != 1 || items[0].Slug != "go-basics" {
		t.Fatalf("unexpected page %+v (total %d)", items, total)
	}
}

func TestUserRepositoryCreateInstructorAndVerify(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	instructors := NewInstructorRepository(db)

	expires := time.Now().Add(time.Hour)
	user := &models.User{
		FirstName:             "Ada",
		LastName:              "Lovelace",
		Email:                 " Ada@Example.com ",
		Password:              "hash",
		Role:                  authorization.RoleInstructor,
		Status:                models.UserStatusPending,
		VerificationTokenHash: "abc",
		VerificationExpiresAt: &expires,
	}
	profile := &models.InstructorProfile{Headline: "Mathematician", CourseTopics: models.StringList{"algorithms"}}
	if err := users.CreateInstructor(user, profile); err != nil {
		t.Fatalf("create instructor: %v", err)
	}
	if profile.UserID != user.ID {
		t.Fatalf("expected profile to reference user")
	}

	exists, err := users.EmailExists("ADA@example.com")
	if err != nil || !exists {
		t.Fatalf("expected email lookup to be case insensitive")
	}

	found, err := users.GetByVerificationHash("abc", time.Now())
	if err != nil || found.ID != user.ID {
		t.Fatalf("expected user by verification hash, got %v", err)
	}
	if _, err := users.GetByVerificationHash("abc", expires.Add(time.Minute)); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	if err := users.MarkVerified(user.ID, time.Now()); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	verified, _ := users.GetByID(user.ID)
	if !verified.EmailVerified || verified.Status != models.UserStatusActive || verified.VerificationTokenHash != "" {
		t.Fatalf("unexpected verified user %+v", verified)
	}

	results, err := instructors.Search("math", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Ada Lovelace" {
		t.Fatalf("unexpected search results %+v", results)
	}
}

func TestUserRepositoryDeleteUnverifiedBefore(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)

	stale := &models.User{FirstName: "Old", LastName: "Account", Email: "old@example.com", Password: "x", Role: authorization.RoleInstructor}
	if err := users.CreateInstructor(stale, &models.InstructorProfile{}); err != nil {
		t.Fatalf("create: %v", err)
	}
	db.Model(&models.User{}).Where("id = ?", stale.ID).Update("created_at", time.Now().Add(-30*24*time.Hour))

	fresh := &models.User{FirstName: "New", LastName: "Account", Email: "new@example.com", Password: "x", Role: authorization.RoleInstructor}
	if err := users.CreateInstructor(fresh, &models.InstructorProfile{}); err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := users.DeleteUnverifiedBefore(time.Now().Add(-14 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected one stale account removed, got %d", deleted)
	}
	if _, err := users.GetByID(fresh.ID); err != nil {
		t.Fatalf("expected fresh account to survive: %v", err)
	}
}

func TestEnrollmentRepositoryGrantIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewEnrollmentRepository(db)

	grant := []models.Enrollment{{UserID: 1, CourseID: 10, Source: models.EnrollmentSourceFree}}
	if err := repo.Grant(grant); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := repo.Grant([]models.Enrollment{{UserID: 1, CourseID: 10, Source: models.EnrollmentSourceStripe}}); err != nil {
		t.Fatalf("second grant: %v", err)
	}

	enrolled, err := repo.EnrolledCourseIDs(1, []uint{10, 11})
	if err != nil {
		t.Fatalf("enrolled ids: %v", err)
	}
	if !enrolled[10] || enrolled[11] {
		t.Fatalf("unexpected enrollment map %v", enrolled)
	}

	list, _ := repo.ListByUser(1)
	if len(list) != 1 {
		t.Fatalf("expected a single enrollment, got %d", len(list))
	}
}

func TestCategoryAndTagSearch(t *testing.T) {
	db := newTestDB(t)
	categories := NewCategoryRepository(db)
	tags := NewTagRepository(db)

	parent := &models.Category{Name: "Development", Slug: "development"}
	if err := categories.Create(parent); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if err := categories.Create(&models.Category{Name: "Web Development", Slug: "web-development", ParentID: &parent.ID}); err != nil {
		t.Fatalf("create sub-category: %v", err)
	}
	if err := categories.Create(&models.Category{Name: "Design", Slug: "design"}); err != nil {
		t.Fatalf("create category: %v", err)
	}

	top, err := categories.Search("dev", nil, 10)
	if err != nil || len(top) != 1 || top[0].Slug != "development" {
		t.Fatalf("unexpected top-level search %+v (%v)", top, err)
	}
	subs, err := categories.Search("", &parent.ID, 10)
	if err != nil || len(subs) != 1 || subs[0].Slug != "web-development" {
		t.Fatalf("unexpected sub-category search %+v (%v)", subs, err)
	}

	for _, name := range []string{"Go", "Golang", "Rust"} {
		if err := tags.Create(&models.Tag{Name: name, Slug: strings.ToLower(name)}); err != nil {
			t.Fatalf("create tag: %v", err)
		}
	}
	found, err := tags.Search("go", 10)
	if err != nil || len(found) != 2 {
		t.Fatalf("expected 2 tags, got %+v (%v)", found, err)
	}
}
