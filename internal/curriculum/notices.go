package curriculum

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a reference points at a missing node.
	ErrNotFound = errors.New("curriculum: node not found")
	// ErrConfirmationRequired is returned by deletes that were not confirmed.
	ErrConfirmationRequired = errors.New("curriculum: deletion requires confirmation")
	// ErrNoQuiz is returned by quiz operations on lessons without a quiz.
	ErrNoQuiz = errors.New("curriculum: lesson has no quiz")
	// ErrInvalidValue is returned for malformed operation input.
	ErrInvalidValue = errors.New("curriculum: invalid value")
)

func notFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func invalidValue(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidValue, fmt.Sprintf(format, args...))
}

// NoticeLevel tells whether a notice accompanied an applied or a refused change.
type NoticeLevel string

const (
	// NoticeWarning marks an edit that was applied but breaks a soft rule.
	NoticeWarning NoticeLevel = "warning"
	// NoticeRejected marks an edit that was refused; the tree is unchanged.
	NoticeRejected NoticeLevel = "rejected"
)

const (
	CodeDuplicateOption  = "duplicate_option_text"
	CodeCorrectLimit     = "correct_option_limit"
	CodeQuizParked       = "quiz_parked"
	CodeQuizRestored     = "quiz_restored"
	CodeVideoReplaced    = "video_replaced"
	CodeFileAlreadyAdded = "file_already_attached"
)

// Notice is a user-facing message produced by an operation.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Path    string      `json:"path,omitempty"`
}

func warning(code, path, format string, args ...interface{}) Notice {
	return Notice{Level: NoticeWarning, Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}

func rejected(code, path, format string, args ...interface{}) Notice {
	return Notice{Level: NoticeRejected, Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Rejected reports whether any notice refused the change.
func Rejected(notices []Notice) bool {
	for _, notice := range notices {
		if notice.Level == NoticeRejected {
			return true
		}
	}
	return false
}

func (r LessonRef) path() string {
	return fmt.Sprintf("modules[%d].lessons[%d]", r.Module, r.Lesson)
}

func (r QuestionRef) path() string {
	return fmt.Sprintf("%s.quiz.questions[%d]", r.LessonRef.path(), r.Question)
}

func (r OptionRef) path() string {
	return fmt.Sprintf("%s.options[%d]", r.QuestionRef.path(), r.Option)
}
