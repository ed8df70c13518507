package service

import (
	"coursehub-backend/internal/curriculum"
	"coursehub-backend/internal/models"
)

func assetFromAttachment(a *curriculum.Attachment) *models.LessonAsset {
	if a == nil {
		return nil
	}
	return &models.LessonAsset{
		Name:            a.Name,
		URL:             a.URL,
		MimeType:        a.MimeType,
		Size:            a.Size,
		DurationSeconds: a.DurationSeconds,
	}
}

func attachmentFromAsset(a *models.LessonAsset) *curriculum.Attachment {
	if a == nil {
		return nil
	}
	return &curriculum.Attachment{
		Name:            a.Name,
		URL:             a.URL,
		MimeType:        a.MimeType,
		Size:            a.Size,
		DurationSeconds: a.DurationSeconds,
	}
}

// structureFromPayload converts the curriculum payload into course rows.
func structureFromPayload(payload []curriculum.ModulePayload) []models.CourseModule {
	modules := make([]models.CourseModule, 0, len(payload))
	for _, module := range payload {
		lessons := make([]models.CourseLesson, 0, len(module.Lessons))
		for _, lesson := range module.Lessons {
			files := make(models.LessonAssetList, 0, len(lesson.Files))
			for i := range lesson.Files {
				files = append(files, *assetFromAttachment(&lesson.Files[i]))
			}
			row := models.CourseLesson{
				Position:    lesson.Position,
				Title:       lesson.Title,
				ContentType: string(lesson.Type),
				ContentURL:  lesson.ContentURL,
				Video:       assetFromAttachment(lesson.Video),
				Files:       files,
				Notes:       lesson.Notes,
				Description: lesson.Description,
			}
			if lesson.Quiz != nil {
				row.Quiz = quizFromPayload(*lesson.Quiz)
			}
			lessons = append(lessons, row)
		}
		modules = append(modules, models.CourseModule{
			Position: module.Position,
			Title:    module.Title,
			Lessons:  lessons,
		})
	}
	return modules
}

func quizFromPayload(quiz curriculum.Quiz) *models.LessonQuiz {
	questions := make([]models.QuizQuestion, 0, len(quiz.Questions))
	for _, question := range quiz.Questions {
		options := make([]models.QuizOption, 0, len(question.Options))
		for _, option := range question.Options {
			options = append(options, models.QuizOption{
				Position:  option.Position,
				Text:      option.Text,
				IsCorrect: option.IsCorrect,
			})
		}
		questions = append(questions, models.QuizQuestion{
			Position: question.Position,
			Text:     question.Text,
			Type:     string(question.Type),
			Points:   question.Points,
			Options:  options,
		})
	}
	return &models.LessonQuiz{
		Title:           quiz.Title,
		Description:     quiz.Description,
		DurationMinutes: quiz.DurationMinutes,
		PassingScore:    quiz.PassingScore,
		AttemptsAllowed: quiz.AttemptsAllowed,
		Questions:       questions,
	}
}

// payloadFromStructure is the inverse of structureFromPayload.
func payloadFromStructure(modules []models.CourseModule) []curriculum.ModulePayload {
	payload := make([]curriculum.ModulePayload, 0, len(modules))
	for _, module := range modules {
		lessons := make([]curriculum.LessonPayload, 0, len(module.Lessons))
		for _, lesson := range module.Lessons {
			files := make([]curriculum.Attachment, 0, len(lesson.Files))
			for i := range lesson.Files {
				files = append(files, *attachmentFromAsset(&lesson.Files[i]))
			}
			item := curriculum.LessonPayload{
				Position:    lesson.Position,
				Title:       lesson.Title,
				Type:        curriculum.ContentType(lesson.ContentType),
				ContentURL:  lesson.ContentURL,
				Video:       attachmentFromAsset(lesson.Video),
				Files:       files,
				Notes:       lesson.Notes,
				Description: lesson.Description,
			}
			if lesson.Quiz != nil {
				item.Quiz = payloadQuiz(*lesson.Quiz)
			}
			lessons = append(lessons, item)
		}
		payload = append(payload, curriculum.ModulePayload{
			Position: module.Position,
			Title:    module.Title,
			Lessons:  lessons,
		})
	}
	return payload
}

func payloadQuiz(quiz models.LessonQuiz) *curriculum.Quiz {
	questions := make([]curriculum.Question, 0, len(quiz.Questions))
	for _, question := range quiz.Questions {
		options := make([]curriculum.Option, 0, len(question.Options))
		for _, option := range question.Options {
			options = append(options, curriculum.Option{
				Position:  option.Position,
				Text:      option.Text,
				IsCorrect: option.IsCorrect,
			})
		}
		questions = append(questions, curriculum.Question{
			Position: question.Position,
			Text:     question.Text,
			Type:     curriculum.QuestionType(question.Type),
			Points:   question.Points,
			Options:  options,
		})
	}
	return &curriculum.Quiz{
		Title:           quiz.Title,
		Description:     quiz.Description,
		DurationMinutes: quiz.DurationMinutes,
		PassingScore:    quiz.PassingScore,
		AttemptsAllowed: quiz.AttemptsAllowed,
		Questions:       questions,
	}
}

// stripAnswers hides correct answers from anyone who cannot edit the course.
func stripAnswers(modules []models.CourseModule) {
	for m := range modules {
		for l := range modules[m].Lessons {
			quiz := modules[m].Lessons[l].Quiz
			if quiz == nil {
				continue
			}
			for q := range quiz.Questions {
				for o := range quiz.Questions[q].Options {
					quiz.Questions[q].Options[o].IsCorrect = false
				}
			}
		}
	}
}
