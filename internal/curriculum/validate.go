package curriculum

import (
	"fmt"
	"strings"
)

// Issue describes a problem that is checked before the curriculum is
// published. Blocking issues keep the authoring wizard on the curriculum step.
type Issue struct {
	Path     string `json:"path"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Blocking bool   `json:"blocking"`
}

const (
	IssueEmpty             = "empty_curriculum"
	IssueMissingTitle      = "missing_title"
	IssueNoLessons         = "no_lessons"
	IssueTypeNotChosen     = "lesson_type_not_chosen"
	IssueMissingQuiz       = "missing_quiz"
	IssueStrayQuiz         = "quiz_on_non_quiz_lesson"
	IssueNoQuestions       = "no_questions"
	IssueMissingText       = "missing_text"
	IssueNoCorrectOption   = "no_correct_option"
	IssueTooManyCorrect    = "too_many_correct_options"
	IssueOptionCount       = "option_count"
	IssueDuplicatePosition = "duplicate_position"
	IssueMissingVideo      = "missing_video"
)

// Blocking reports whether any issue prevents publishing.
func Blocking(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Blocking {
			return true
		}
	}
	return false
}

type issueCollector struct {
	issues []Issue
}

func (ic *issueCollector) block(path, code, format string, args ...interface{}) {
	ic.issues = append(ic.issues, Issue{Path: path, Code: code, Message: fmt.Sprintf(format, args...), Blocking: true})
}

func (ic *issueCollector) warn(path, code, format string, args ...interface{}) {
	ic.issues = append(ic.issues, Issue{Path: path, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the whole tree and returns every issue found, in tree order.
func (c Curriculum) Validate() []Issue {
	ic := &issueCollector{}

	if len(c.modules) == 0 {
		ic.block("modules", IssueEmpty, "add at least one module")
		return ic.issues
	}

	checkPositions(ic, "modules", c.modules, func(m Module) int { return m.Position })

	for _, module := range c.modules {
		modulePath := fmt.Sprintf("modules[%d]", module.Position)
		if strings.TrimSpace(module.Title) == "" {
			ic.block(modulePath+".title", IssueMissingTitle, "module title is required")
		}
		if len(module.Lessons) == 0 {
			ic.block(modulePath+".lessons", IssueNoLessons, "module %d has no lessons", module.Position)
			continue
		}
		checkPositions(ic, modulePath+".lessons", module.Lessons, func(l Lesson) int { return l.Position })

		for _, lesson := range module.Lessons {
			validateLesson(ic, LessonRef{Module: module.Position, Lesson: lesson.Position}, lesson)
		}
	}

	return ic.issues
}

func validateLesson(ic *issueCollector, ref LessonRef, lesson Lesson) {
	path := ref.path()
	if strings.TrimSpace(lesson.Title) == "" {
		ic.block(path+".title", IssueMissingTitle, "lesson title is required")
	}

	switch lesson.Type {
	case ContentTypeUnset:
		ic.block(path+".type", IssueTypeNotChosen, "choose a type for lesson %d", ref.Lesson)
	case ContentTypeVideo:
		if lesson.ContentURL == "" {
			ic.warn(path+".content_url", IssueMissingVideo, "lesson %d has no video yet", ref.Lesson)
		}
	case ContentTypeQuiz:
		if lesson.Quiz == nil {
			ic.block(path+".quiz", IssueMissingQuiz, "quiz lesson %d has no quiz", ref.Lesson)
			return
		}
		validateQuiz(ic, ref, *lesson.Quiz)
		return
	}

	if lesson.Quiz != nil {
		ic.block(path+".quiz", IssueStrayQuiz, "lesson %d is not a quiz but carries one", ref.Lesson)
	}
}

func validateQuiz(ic *issueCollector, ref LessonRef, quiz Quiz) {
	quizPath := ref.path() + ".quiz"
	if len(quiz.Questions) == 0 {
		ic.block(quizPath+".questions", IssueNoQuestions, "add at least one question")
		return
	}
	checkPositions(ic, quizPath+".questions", quiz.Questions, func(q Question) int { return q.Position })

	for _, question := range quiz.Questions {
		qref := QuestionRef{LessonRef: ref, Question: question.Position}
		path := qref.path()

		if strings.TrimSpace(question.Text) == "" {
			ic.block(path+".text", IssueMissingText, "question text is required")
		}

		if question.Type == QuestionTypeTrueFalse && len(question.Options) != trueFalseOptionCount {
			ic.block(path+".options", IssueOptionCount, "true/false questions need exactly %d options", trueFalseOptionCount)
		}
		checkPositions(ic, path+".options", question.Options, func(o Option) int { return o.Position })

		correct := 0
		for idx, option := range question.Options {
			optionPath := OptionRef{QuestionRef: qref, Option: option.Position}.path()
			if strings.TrimSpace(option.Text) == "" {
				ic.block(optionPath+".text", IssueMissingText, "option text is required")
			} else if duplicateOptionText(question.Options, idx) {
				ic.warn(optionPath+".text", CodeDuplicateOption, "option text %q is repeated", strings.TrimSpace(option.Text))
			}
			if option.IsCorrect {
				correct++
			}
		}

		switch {
		case correct == 0:
			ic.block(path+".options", IssueNoCorrectOption, "mark at least one option as correct")
		case correct > question.Type.MaxCorrect():
			ic.block(path+".options", IssueTooManyCorrect, "at most %d options can be correct", question.Type.MaxCorrect())
		}
	}
}

func checkPositions[T any](ic *issueCollector, path string, items []T, position func(T) int) {
	seen := make(map[int]struct{}, len(items))
	for _, item := range items {
		p := position(item)
		if _, ok := seen[p]; ok || p < 1 {
			ic.block(path, IssueDuplicatePosition, "position %d is used more than once or is not positive", p)
			continue
		}
		seen[p] = struct{}{}
	}
}
