// Package curriculum holds the nested course curriculum (modules, lessons,
// quizzes, questions and options) and the copy-on-write operations that edit it.
package curriculum

import "strings"

// ContentType is the kind of content a lesson delivers. The zero value means
// the author has not picked a type yet.
type ContentType string

const (
	ContentTypeUnset   ContentType = ""
	ContentTypeVideo   ContentType = "VIDEO"
	ContentTypeArticle ContentType = "ARTICLE"
	ContentTypeQuiz    ContentType = "QUIZ"
)

// ParseContentType normalises user input into a ContentType.
func ParseContentType(value string) (ContentType, bool) {
	switch ContentType(strings.ToUpper(strings.TrimSpace(value))) {
	case ContentTypeVideo:
		return ContentTypeVideo, true
	case ContentTypeArticle:
		return ContentTypeArticle, true
	case ContentTypeQuiz:
		return ContentTypeQuiz, true
	}
	return ContentTypeUnset, false
}

// QuestionType controls how many options may be marked correct.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
)

// ParseQuestionType normalises user input into a QuestionType.
func ParseQuestionType(value string) (QuestionType, bool) {
	switch QuestionType(strings.ToUpper(strings.TrimSpace(value))) {
	case QuestionTypeMultipleChoice:
		return QuestionTypeMultipleChoice, true
	case QuestionTypeSingleChoice:
		return QuestionTypeSingleChoice, true
	case QuestionTypeTrueFalse:
		return QuestionTypeTrueFalse, true
	}
	return "", false
}

// MaxCorrect returns the number of options that may be marked correct at once.
func (t QuestionType) MaxCorrect() int {
	if t == QuestionTypeMultipleChoice {
		return 3
	}
	return 1
}

const (
	choiceOptionCount    = 4
	trueFalseOptionCount = 2
	defaultQuestionScore = 1
)

// Option is one answer of a quiz question.
type Option struct {
	Position  int    `json:"position"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question belongs to a quiz. Its options are seeded on creation and their
// count never changes afterwards.
type Question struct {
	Position int          `json:"position"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Points   int          `json:"points"`
	Options  []Option     `json:"options"`
}

// Quiz is attached to lessons of type QUIZ.
type Quiz struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"duration_minutes"`
	PassingScore    int        `json:"passing_score"`
	AttemptsAllowed int        `json:"attempts_allowed"`
	Questions       []Question `json:"questions"`
}

// Attachment is the result of an upload that was linked to a lesson.
type Attachment struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	MimeType        string `json:"mime_type,omitempty"`
	Size            int64  `json:"size,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// IsVideo reports whether the attachment should be treated as the lesson video.
func (a Attachment) IsVideo() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.MimeType)), "video/")
}

// Lesson is a single unit inside a module.
type Lesson struct {
	Position            int          `json:"position"`
	Title               string       `json:"title"`
	Type                ContentType  `json:"type"`
	LessonTypeSelection bool         `json:"lesson_type_selection"`
	ContentURL          string       `json:"content_url,omitempty"`
	Video               *Attachment  `json:"video,omitempty"`
	Files               []Attachment `json:"files,omitempty"`
	Notes               string       `json:"notes,omitempty"`
	Description         string       `json:"description,omitempty"`
	Quiz                *Quiz        `json:"quiz,omitempty"`

	// ParkedQuiz keeps the quiz of a lesson that was switched away from QUIZ so
	// that switching back restores it. It is never part of the course payload.
	ParkedQuiz *Quiz `json:"parked_quiz,omitempty"`
}

// Module groups lessons.
type Module struct {
	Position int      `json:"position"`
	Title    string   `json:"title"`
	Lessons  []Lesson `json:"lessons"`
}

// LessonRef addresses a lesson by its module and lesson positions.
type LessonRef struct {
	Module int `json:"module"`
	Lesson int `json:"lesson"`
}

// QuestionRef addresses a quiz question.
type QuestionRef struct {
	LessonRef
	Question int `json:"question"`
}

// OptionRef addresses a question option.
type OptionRef struct {
	QuestionRef
	Option int `json:"option"`
}

// LessonField names the free-text lesson fields.
type LessonField string

const (
	LessonFieldTitle       LessonField = "title"
	LessonFieldNotes       LessonField = "notes"
	LessonFieldDescription LessonField = "description"
)

// QuizField names the scalar quiz fields.
type QuizField string

const (
	QuizFieldTitle           QuizField = "title"
	QuizFieldDescription     QuizField = "description"
	QuizFieldDuration        QuizField = "duration"
	QuizFieldPassingScore    QuizField = "passing_score"
	QuizFieldAttemptsAllowed QuizField = "attempts_allowed"
)

// QuestionField names the scalar question fields.
type QuestionField string

const (
	QuestionFieldText   QuestionField = "text"
	QuestionFieldPoints QuestionField = "points"
)

// ContentKind names what removeLessonContent clears.
type ContentKind string

const (
	ContentKindVideo       ContentKind = "video"
	ContentKindFile        ContentKind = "file"
	ContentKindDescription ContentKind = "description"
	ContentKindNotes       ContentKind = "notes"
)
