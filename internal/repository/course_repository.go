package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"coursehub-backend/internal/models"
)

const maxCourseListLimit = 50

type CourseRepository interface {
	Create(course *models.Course) error
	Update(course *models.Course) error
	GetByID(id uint) (*models.Course, error)
	GetBySlug(slug string) (*models.Course, error)
	GetByIDs(ids []uint) ([]models.Course, error)
	SlugExists(slug string, excludeID uint) (bool, error)
	ListPublished(filter models.CourseFilter) ([]models.Course, int64, error)
	SaveWithStructure(course *models.Course) error
	ReplaceStructure(courseID uint, modules []models.CourseModule) error
	ListStructure(courseIDs []uint) (map[uint][]models.CourseModule, error)
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(course *models.Course) error {
	if r == nil || r.db == nil {
		return errors.New("course repository is not initialised")
	}
	if course == nil {
		return errors.New("course is required")
	}
	return r.db.Create(course).Error
}

func (r *courseRepository) Update(course *models.Course) error {
	if r == nil || r.db == nil {
		return errors.New("course repository is not initialised")
	}
	if course == nil {
		return errors.New("course is required")
	}
	return r.db.Omit("Tags").Save(course).Error
}

func (r *courseRepository) GetByID(id uint) (*models.Course, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("course repository is not initialised")
	}
	var course models.Course
	if err := r.db.Preload("Tags").First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) GetBySlug(slug string) (*models.Course, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("course repository is not initialised")
	}
	cleaned := strings.TrimSpace(slug)
	if cleaned == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var course models.Course
	if err := r.db.Preload("Tags").Where("slug = ?", cleaned).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) GetByIDs(ids []uint) ([]models.Course, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("course repository is not initialised")
	}
	if len(ids) == 0 {
		return []models.Course{}, nil
	}
	var courses []models.Course
	if err := r.db.Where("id IN ?", ids).Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) SlugExists(slug string, excludeID uint) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("course repository is not initialised")
	}
	query := r.db.Model(&models.Course{}).Where("slug = ?", strings.TrimSpace(slug))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *courseRepository) ListPublished(filter models.CourseFilter) ([]models.Course, int64, error) {
	if r == nil || r.db == nil {
		return nil, 0, errors.New("course repository is not initialised")
	}

	page, limit := normalizePage(filter.Page, filter.Limit)

	var total int64
	if err := r.filtered(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []models.Course
	err := r.filtered(filter).
		Preload("Tags").
		Order(courseOrder(filter.Sort)).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&courses).Error
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *courseRepository) filtered(filter models.CourseFilter) *gorm.DB {
	query := r.db.Model(&models.Course{}).Where("courses.status = ?", models.CourseStatusPublished)

	if filter.CategoryID != 0 {
		query = query.Where("courses.category_id = ?", filter.CategoryID)
	}
	if filter.SubCategoryID != 0 {
		query = query.Where("courses.sub_category_id = ?", filter.SubCategoryID)
	}
	if filter.InstructorID != 0 {
		query = query.Where("courses.instructor_id = ?", filter.InstructorID)
	}
	if level := strings.TrimSpace(filter.Level); level != "" {
		query = query.Where("courses.level = ?", strings.ToUpper(level))
	}
	if language := strings.TrimSpace(filter.Language); language != "" {
		query = query.Where("LOWER(courses.language) = ?", strings.ToLower(language))
	}

	switch filter.Price {
	case models.PriceFilterFree:
		query = query.Where("(courses.price_cents <= 0 OR (courses.discount_price_cents IS NOT NULL AND courses.discount_price_cents <= 0))")
	case models.PriceFilterPaid:
		query = query.Where("courses.price_cents > 0 AND (courses.discount_price_cents IS NULL OR courses.discount_price_cents > 0)")
	}

	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		query = query.Joins("JOIN course_tags ON course_tags.course_id = courses.id").
			Joins("JOIN tags ON tags.id = course_tags.tag_id").
			Where("tags.slug = ?", strings.ToLower(tag))
	}

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("(LOWER(courses.title) LIKE ? OR LOWER(courses.subtitle) LIKE ?)", pattern, pattern)
	}

	return query
}

func courseOrder(sort string) string {
	switch sort {
	case models.CourseSortPriceAsc:
		return "courses.price_cents ASC, courses.id ASC"
	case models.CourseSortPriceDesc:
		return "courses.price_cents DESC, courses.id DESC"
	case models.CourseSortTitle:
		return "courses.title ASC, courses.id ASC"
	default:
		return "courses.created_at DESC, courses.id DESC"
	}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > maxCourseListLimit {
		limit = maxCourseListLimit
	}
	return page, limit
}

// SaveWithStructure creates or updates the course, its tags and its
// curriculum in one transaction.
func (r *courseRepository) SaveWithStructure(course *models.Course) error {
	if r == nil || r.db == nil {
		return errors.New("course repository is not initialised")
	}
	if course == nil {
		return errors.New("course is required")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		tags := course.Tags
		if course.ID == 0 {
			if err := tx.Omit("Tags").Create(course).Error; err != nil {
				return err
			}
		} else if err := tx.Omit("Tags").Save(course).Error; err != nil {
			return err
		}
		if err := tx.Model(course).Association("Tags").Replace(tags); err != nil {
			return err
		}
		return replaceStructure(tx, course.ID, course.Modules)
	})
}

func (r *courseRepository) ReplaceStructure(courseID uint, modules []models.CourseModule) error {
	if r == nil || r.db == nil {
		return errors.New("course repository is not initialised")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return replaceStructure(tx, courseID, modules)
	})
}

func replaceStructure(tx *gorm.DB, courseID uint, modules []models.CourseModule) error {
	if courseID == 0 {
		return errors.New("course id is required")
	}
	if err := deleteStructure(tx, courseID); err != nil {
		return err
	}

	for idx := range modules {
		module := modules[idx]
		module.ID = 0
		module.CourseID = courseID
		if err := tx.Create(&module).Error; err != nil {
			return err
		}
		for lessonIdx := range module.Lessons {
			lesson := module.Lessons[lessonIdx]
			lesson.ID = 0
			lesson.ModuleID = module.ID
			if err := tx.Create(&lesson).Error; err != nil {
				return err
			}
			if lesson.Quiz == nil {
				continue
			}
			if err := createQuiz(tx, lesson.ID, *lesson.Quiz); err != nil {
				return err
			}
		}
	}
	return nil
}

func createQuiz(tx *gorm.DB, lessonID uint, quiz models.LessonQuiz) error {
	quiz.ID = 0
	quiz.LessonID = lessonID
	if err := tx.Create(&quiz).Error; err != nil {
		return err
	}
	for idx := range quiz.Questions {
		question := quiz.Questions[idx]
		question.ID = 0
		question.QuizID = quiz.ID
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		for optIdx := range question.Options {
			option := question.Options[optIdx]
			option.ID = 0
			option.QuestionID = question.ID
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteStructure(tx *gorm.DB, courseID uint) error {
	var moduleIDs, lessonIDs, quizIDs, questionIDs []uint

	if err := tx.Model(&models.CourseModule{}).Where("course_id = ?", courseID).Pluck("id", &moduleIDs).Error; err != nil {
		return err
	}
	if len(moduleIDs) == 0 {
		return nil
	}
	if err := tx.Model(&models.CourseLesson{}).Where("module_id IN ?", moduleIDs).Pluck("id", &lessonIDs).Error; err != nil {
		return err
	}
	if len(lessonIDs) > 0 {
		if err := tx.Model(&models.LessonQuiz{}).Where("lesson_id IN ?", lessonIDs).Pluck("id", &quizIDs).Error; err != nil {
			return err
		}
	}
	if len(quizIDs) > 0 {
		if err := tx.Model(&models.QuizQuestion{}).Where("quiz_id IN ?", quizIDs).Pluck("id", &questionIDs).Error; err != nil {
			return err
		}
	}

	if len(questionIDs) > 0 {
		if err := tx.Unscoped().Where("question_id IN ?", questionIDs).Delete(&models.QuizOption{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("id IN ?", questionIDs).Delete(&models.QuizQuestion{}).Error; err != nil {
			return err
		}
	}
	if len(quizIDs) > 0 {
		if err := tx.Unscoped().Where("id IN ?", quizIDs).Delete(&models.LessonQuiz{}).Error; err != nil {
			return err
		}
	}
	if len(lessonIDs) > 0 {
		if err := tx.Unscoped().Where("id IN ?", lessonIDs).Delete(&models.CourseLesson{}).Error; err != nil {
			return err
		}
	}
	return tx.Unscoped().Where("id IN ?", moduleIDs).Delete(&models.CourseModule{}).Error
}

func (r *courseRepository) ListStructure(courseIDs []uint) (map[uint][]models.CourseModule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("course repository is not initialised")
	}
	result := make(map[uint][]models.CourseModule, len(courseIDs))
	if len(courseIDs) == 0 {
		return result, nil
	}

	var modules []models.CourseModule
	if err := r.db.Where("course_id IN ?", courseIDs).Order("course_id ASC, position ASC").Find(&modules).Error; err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return result, nil
	}
	moduleIDs := make([]uint, 0, len(modules))
	for _, module := range modules {
		moduleIDs = append(moduleIDs, module.ID)
	}

	var lessons []models.CourseLesson
	if err := r.db.Where("module_id IN ?", moduleIDs).Order("module_id ASC, position ASC").Find(&lessons).Error; err != nil {
		return nil, err
	}
	lessonIDs := make([]uint, 0, len(lessons))
	for _, lesson := range lessons {
		lessonIDs = append(lessonIDs, lesson.ID)
	}

	quizzes, err := r.listQuizzes(lessonIDs)
	if err != nil {
		return nil, err
	}

	lessonsByModule := make(map[uint][]models.CourseLesson, len(moduleIDs))
	for _, lesson := range lessons {
		if quiz, ok := quizzes[lesson.ID]; ok {
			quiz := quiz
			lesson.Quiz = &quiz
		}
		lessonsByModule[lesson.ModuleID] = append(lessonsByModule[lesson.ModuleID], lesson)
	}
	for _, module := range modules {
		module.Lessons = lessonsByModule[module.ID]
		result[module.CourseID] = append(result[module.CourseID], module)
	}
	return result, nil
}

func (r *courseRepository) listQuizzes(lessonIDs []uint) (map[uint]models.LessonQuiz, error) {
	result := make(map[uint]models.LessonQuiz)
	if len(lessonIDs) == 0 {
		return result, nil
	}

	var quizzes []models.LessonQuiz
	if err := r.db.Where("lesson_id IN ?", lessonIDs).Find(&quizzes).Error; err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return result, nil
	}
	quizIDs := make([]uint, 0, len(quizzes))
	for _, quiz := range quizzes {
		quizIDs = append(quizIDs, quiz.ID)
	}

	var questions []models.QuizQuestion
	if err := r.db.Where("quiz_id IN ?", quizIDs).Order("quiz_id ASC, position ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	questionIDs := make([]uint, 0, len(questions))
	for _, question := range questions {
		questionIDs = append(questionIDs, question.ID)
	}

	optionsByQuestion := make(map[uint][]models.QuizOption, len(questionIDs))
	if len(questionIDs) > 0 {
		var options []models.QuizOption
		if err := r.db.Where("question_id IN ?", questionIDs).Order("question_id ASC, position ASC").Find(&options).Error; err != nil {
			return nil, err
		}
		for _, option := range options {
			optionsByQuestion[option.QuestionID] = append(optionsByQuestion[option.QuestionID], option)
		}
	}

	questionsByQuiz := make(map[uint][]models.QuizQuestion, len(quizIDs))
	for _, question := range questions {
		question.Options = optionsByQuestion[question.ID]
		questionsByQuiz[question.QuizID] = append(questionsByQuiz[question.QuizID], question)
	}
	for _, quiz := range quizzes {
		quiz.Questions = questionsByQuiz[quiz.ID]
		result[quiz.LessonID] = quiz
	}
	return result, nil
}
