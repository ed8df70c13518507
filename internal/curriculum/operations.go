package curriculum

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

func defaultModuleTitle(position int) string {
	return fmt.Sprintf("Module %d", position)
}

func defaultLessonTitle(position int) string {
	return fmt.Sprintf("Lesson %d", position)
}

// AddModule appends a module holding one fresh lesson and returns its position.
func (c Curriculum) AddModule() (Curriculum, int) {
	position := nextPosition(c.modules, func(m Module) int { return m.Position })
	modules := append(slices.Clone(c.modules), newModule(position))
	return Curriculum{modules: modules}, position
}

// DeleteModule removes a module with everything nested in it. Remaining
// modules keep their positions.
func (c Curriculum) DeleteModule(position int, confirmed bool) (Curriculum, error) {
	idx := moduleIndex(c.modules, position)
	if idx < 0 {
		return c, notFound("module %d", position)
	}
	if !confirmed {
		return c, ErrConfirmationRequired
	}
	return Curriculum{modules: slices.Delete(slices.Clone(c.modules), idx, idx+1)}, nil
}

// UpdateModuleTitle replaces the title of a module.
func (c Curriculum) UpdateModuleTitle(position int, title string) (Curriculum, error) {
	return c.updateModule(position, func(module *Module) error {
		module.Title = title
		return nil
	})
}

// AddLesson appends a lesson with no content type to the module and returns
// its position.
func (c Curriculum) AddLesson(module int) (Curriculum, int, error) {
	var position int
	next, err := c.updateModule(module, func(m *Module) error {
		position = nextPosition(m.Lessons, func(l Lesson) int { return l.Position })
		m.Lessons = append(slices.Clone(m.Lessons), newLesson(position))
		return nil
	})
	if err != nil {
		return c, 0, err
	}
	return next, position, nil
}

// DeleteLesson removes a lesson. Sibling lessons keep their positions.
func (c Curriculum) DeleteLesson(ref LessonRef, confirmed bool) (Curriculum, error) {
	if _, ok := c.lesson(ref); !ok {
		return c, notFound("lesson %d in module %d", ref.Lesson, ref.Module)
	}
	if !confirmed {
		return c, ErrConfirmationRequired
	}
	return c.updateModule(ref.Module, func(module *Module) error {
		idx := lessonIndex(module.Lessons, ref.Lesson)
		module.Lessons = slices.Delete(slices.Clone(module.Lessons), idx, idx+1)
		return nil
	})
}

// SetLessonType picks the content type of a lesson. Choosing QUIZ attaches a
// quiz; choosing anything else parks an attached quiz so a lesson of another
// type never carries one. Switching back to QUIZ restores the parked quiz.
func (c Curriculum) SetLessonType(ref LessonRef, contentType ContentType) (Curriculum, []Notice, error) {
	parsed, ok := ParseContentType(string(contentType))
	if !ok {
		return c, nil, invalidValue("unknown lesson type %q", contentType)
	}
	contentType = parsed

	var notices []Notice
	next, err := c.updateLesson(ref, func(lesson *Lesson) error {
		lesson.Type = contentType
		lesson.LessonTypeSelection = false

		if contentType == ContentTypeQuiz {
			if lesson.Quiz != nil {
				return nil
			}
			if lesson.ParkedQuiz != nil {
				lesson.Quiz = lesson.ParkedQuiz
				lesson.ParkedQuiz = nil
				notices = append(notices, warning(CodeQuizRestored, ref.path(), "previous quiz restored"))
				return nil
			}
			lesson.Quiz = &Quiz{Questions: []Question{}}
			return nil
		}

		if lesson.Quiz != nil {
			lesson.ParkedQuiz = lesson.Quiz
			lesson.Quiz = nil
			notices = append(notices, warning(CodeQuizParked, ref.path(), "quiz removed from lesson; switch back to QUIZ to restore it"))
		}
		return nil
	})
	if err != nil {
		return c, nil, err
	}
	return next, notices, nil
}

// UpdateLessonField replaces one of the free-text lesson fields.
func (c Curriculum) UpdateLessonField(ref LessonRef, field LessonField, value string) (Curriculum, error) {
	switch field {
	case LessonFieldTitle, LessonFieldNotes, LessonFieldDescription:
	default:
		return c, invalidValue("unknown lesson field %q", field)
	}
	return c.updateLesson(ref, func(lesson *Lesson) error {
		switch field {
		case LessonFieldTitle:
			lesson.Title = value
		case LessonFieldNotes:
			lesson.Notes = value
		case LessonFieldDescription:
			lesson.Description = value
		}
		return nil
	})
}

// AttachLessonContent links an upload to a lesson. Videos replace the lesson
// video; anything else is added to the lesson files.
func (c Curriculum) AttachLessonContent(ref LessonRef, upload Attachment) (Curriculum, []Notice, error) {
	upload.Name = strings.TrimSpace(upload.Name)
	upload.URL = strings.TrimSpace(upload.URL)
	if upload.URL == "" {
		return c, nil, invalidValue("upload url is required")
	}
	if upload.Name == "" {
		return c, nil, invalidValue("upload name is required")
	}

	var notices []Notice
	next, err := c.updateLesson(ref, func(lesson *Lesson) error {
		if upload.IsVideo() {
			if lesson.Video != nil && lesson.Video.URL != upload.URL {
				notices = append(notices, warning(CodeVideoReplaced, ref.path(), "video %q replaced by %q", lesson.Video.Name, upload.Name))
			}
			video := upload
			lesson.Video = &video
			lesson.ContentURL = upload.URL
			return nil
		}

		files := slices.Clone(lesson.Files)
		if idx := slices.IndexFunc(files, func(f Attachment) bool { return f.Name == upload.Name }); idx >= 0 {
			files[idx] = upload
			notices = append(notices, warning(CodeFileAlreadyAdded, ref.path(), "file %q was already attached and has been replaced", upload.Name))
		} else {
			files = append(files, upload)
		}
		lesson.Files = files
		return nil
	})
	if err != nil {
		return c, nil, err
	}
	return next, notices, nil
}

// RemoveLessonContent clears the lesson video, one file (by name), the
// description or the notes.
func (c Curriculum) RemoveLessonContent(ref LessonRef, kind ContentKind, name string) (Curriculum, error) {
	return c.updateLesson(ref, func(lesson *Lesson) error {
		switch kind {
		case ContentKindVideo:
			lesson.Video = nil
			lesson.ContentURL = ""
		case ContentKindFile:
			idx := slices.IndexFunc(lesson.Files, func(f Attachment) bool { return f.Name == name })
			if idx < 0 {
				return notFound("file %q", name)
			}
			lesson.Files = slices.Delete(slices.Clone(lesson.Files), idx, idx+1)
		case ContentKindDescription:
			lesson.Description = ""
		case ContentKindNotes:
			lesson.Notes = ""
		default:
			return invalidValue("unknown content kind %q", kind)
		}
		return nil
	})
}

// AddQuizQuestion appends a question with seeded options and returns its
// position. TRUE_FALSE questions get the options "true" and "false"; choice
// questions get four empty options.
func (c Curriculum) AddQuizQuestion(ref LessonRef, questionType QuestionType) (Curriculum, int, error) {
	parsed, ok := ParseQuestionType(string(questionType))
	if !ok {
		return c, 0, invalidValue("unknown question type %q", questionType)
	}
	questionType = parsed

	var position int
	next, err := c.updateQuiz(ref, func(quiz *Quiz) error {
		position = nextPosition(quiz.Questions, func(q Question) int { return q.Position })
		quiz.Questions = append(slices.Clone(quiz.Questions), Question{
			Position: position,
			Type:     questionType,
			Points:   defaultQuestionScore,
			Options:  seedOptions(questionType),
		})
		return nil
	})
	if err != nil {
		return c, 0, err
	}
	return next, position, nil
}

func seedOptions(questionType QuestionType) []Option {
	if questionType == QuestionTypeTrueFalse {
		return []Option{
			{Position: 1, Text: "true"},
			{Position: 2, Text: "false"},
		}
	}
	options := make([]Option, 0, choiceOptionCount)
	for i := 1; i <= choiceOptionCount; i++ {
		options = append(options, Option{Position: i})
	}
	return options
}

// DeleteQuizQuestion removes a question. Sibling questions keep their positions.
func (c Curriculum) DeleteQuizQuestion(ref QuestionRef) (Curriculum, error) {
	return c.updateQuiz(ref.LessonRef, func(quiz *Quiz) error {
		idx := questionIndex(quiz.Questions, ref.Question)
		if idx < 0 {
			return notFound("question %d", ref.Question)
		}
		quiz.Questions = slices.Delete(slices.Clone(quiz.Questions), idx, idx+1)
		return nil
	})
}

// UpdateQuizField sets one quiz-level field. Numeric fields take a decimal string.
func (c Curriculum) UpdateQuizField(ref LessonRef, field QuizField, value string) (Curriculum, error) {
	var number int
	switch field {
	case QuizFieldTitle, QuizFieldDescription:
	case QuizFieldDuration, QuizFieldAttemptsAllowed, QuizFieldPassingScore:
		parsed, err := parseCount(string(field), value)
		if err != nil {
			return c, err
		}
		if field == QuizFieldPassingScore && parsed > 100 {
			return c, invalidValue("passing_score must be between 0 and 100")
		}
		number = parsed
	default:
		return c, invalidValue("unknown quiz field %q", field)
	}

	return c.updateQuiz(ref, func(quiz *Quiz) error {
		switch field {
		case QuizFieldTitle:
			quiz.Title = value
		case QuizFieldDescription:
			quiz.Description = value
		case QuizFieldDuration:
			quiz.DurationMinutes = number
		case QuizFieldPassingScore:
			quiz.PassingScore = number
		case QuizFieldAttemptsAllowed:
			quiz.AttemptsAllowed = number
		}
		return nil
	})
}

// UpdateQuestionField sets the text or the points of a question.
func (c Curriculum) UpdateQuestionField(ref QuestionRef, field QuestionField, value string) (Curriculum, error) {
	var points int
	switch field {
	case QuestionFieldText:
	case QuestionFieldPoints:
		parsed, err := parseCount(string(field), value)
		if err != nil {
			return c, err
		}
		points = parsed
	default:
		return c, invalidValue("unknown question field %q", field)
	}

	return c.updateQuestion(ref, func(question *Question) error {
		if field == QuestionFieldText {
			question.Text = value
		} else {
			question.Points = points
		}
		return nil
	})
}

// SetOptionText replaces the text of an option. A text equal to a sibling's
// (ignoring case and surrounding spaces) is still applied and reported as a
// warning.
func (c Curriculum) SetOptionText(ref OptionRef, value string) (Curriculum, []Notice, error) {
	var notices []Notice
	next, err := c.updateQuestion(ref.QuestionRef, func(question *Question) error {
		idx := optionIndex(question.Options, ref.Option)
		if idx < 0 {
			return notFound("option %d", ref.Option)
		}
		options := slices.Clone(question.Options)
		options[idx].Text = value
		question.Options = options

		if duplicateOptionText(options, idx) {
			notices = append(notices, warning(CodeDuplicateOption, ref.path(), "option text %q is already used by another option", strings.TrimSpace(value)))
		}
		return nil
	})
	if err != nil {
		return c, nil, err
	}
	return next, notices, nil
}

func normalizeOptionText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func duplicateOptionText(options []Option, idx int) bool {
	text := normalizeOptionText(options[idx].Text)
	if text == "" {
		return false
	}
	for i, option := range options {
		if i != idx && normalizeOptionText(option.Text) == text {
			return true
		}
	}
	return false
}

// ToggleOptionCorrect flips the correct flag of an option. Marking one more
// option correct than the question type allows is refused and leaves the
// curriculum unchanged.
func (c Curriculum) ToggleOptionCorrect(ref OptionRef) (Curriculum, []Notice, error) {
	question, ok := c.question(ref.QuestionRef)
	if !ok {
		lesson, hasLesson := c.lesson(ref.LessonRef)
		switch {
		case !hasLesson:
			return c, nil, notFound("lesson %d in module %d", ref.Lesson, ref.Module)
		case lesson.Quiz == nil:
			return c, nil, ErrNoQuiz
		}
		return c, nil, notFound("question %d", ref.Question)
	}
	idx := optionIndex(question.Options, ref.Option)
	if idx < 0 {
		return c, nil, notFound("option %d", ref.Option)
	}

	if !question.Options[idx].IsCorrect {
		limit := question.Type.MaxCorrect()
		if countCorrect(question.Options) >= limit {
			var message string
			if limit == 1 {
				message = "only one option can be marked correct for this question type"
			} else {
				message = fmt.Sprintf("at most %d options can be marked correct", limit)
			}
			return c, []Notice{rejected(CodeCorrectLimit, ref.path(), "%s", message)}, nil
		}
	}

	next, err := c.updateQuestion(ref.QuestionRef, func(q *Question) error {
		options := slices.Clone(q.Options)
		options[idx].IsCorrect = !options[idx].IsCorrect
		q.Options = options
		return nil
	})
	if err != nil {
		return c, nil, err
	}
	return next, nil, nil
}

func countCorrect(options []Option) int {
	count := 0
	for _, option := range options {
		if option.IsCorrect {
			count++
		}
	}
	return count
}

func parseCount(field, value string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, invalidValue("%s must be a whole number", field)
	}
	if parsed < 0 {
		return 0, invalidValue("%s must not be negative", field)
	}
	return parsed, nil
}

// UpdateLessonTitle replaces the title of a lesson.
func (c Curriculum) UpdateLessonTitle(ref LessonRef, title string) (Curriculum, error) {
	return c.UpdateLessonField(ref, LessonFieldTitle, title)
}
