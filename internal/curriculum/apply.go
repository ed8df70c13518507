package curriculum

import "fmt"

// OperationKind names a curriculum edit.
type OperationKind string

const (
	OpAddModule           OperationKind = "add_module"
	OpDeleteModule        OperationKind = "delete_module"
	OpUpdateModuleTitle   OperationKind = "update_module_title"
	OpAddLesson           OperationKind = "add_lesson"
	OpDeleteLesson        OperationKind = "delete_lesson"
	OpSetLessonType       OperationKind = "set_lesson_type"
	OpUpdateLessonField   OperationKind = "update_lesson_field"
	OpAttachLessonContent OperationKind = "attach_lesson_content"
	OpRemoveLessonContent OperationKind = "remove_lesson_content"
	OpAddQuizQuestion     OperationKind = "add_quiz_question"
	OpDeleteQuizQuestion  OperationKind = "delete_quiz_question"
	OpUpdateQuizField     OperationKind = "update_quiz_field"
	OpUpdateQuestionField OperationKind = "update_question_field"
	OpSetOptionText       OperationKind = "set_option_text"
	OpToggleOptionCorrect OperationKind = "toggle_option_correct"
)

// Known reports whether k is one of the operations Apply understands.
func (k OperationKind) Known() bool {
	switch k {
	case OpAddModule, OpDeleteModule, OpUpdateModuleTitle,
		OpAddLesson, OpDeleteLesson, OpSetLessonType, OpUpdateLessonField,
		OpAttachLessonContent, OpRemoveLessonContent,
		OpAddQuizQuestion, OpDeleteQuizQuestion, OpUpdateQuizField, OpUpdateQuestionField,
		OpSetOptionText, OpToggleOptionCorrect:
		return true
	}
	return false
}

// Operation is the wire form of a curriculum edit. Which fields are read
// depends on Kind.
type Operation struct {
	Kind      OperationKind `json:"op" binding:"required"`
	Module    int           `json:"module,omitempty"`
	Lesson    int           `json:"lesson,omitempty"`
	Question  int           `json:"question,omitempty"`
	Option    int           `json:"option,omitempty"`
	Type      string        `json:"type,omitempty"`
	Field     string        `json:"field,omitempty"`
	Value     string        `json:"value,omitempty"`
	Content   ContentKind   `json:"content,omitempty"`
	Name      string        `json:"name,omitempty"`
	Upload    *Attachment   `json:"upload,omitempty"`
	Confirmed bool          `json:"confirmed,omitempty"`
}

func (op Operation) lessonRef() LessonRef {
	return LessonRef{Module: op.Module, Lesson: op.Lesson}
}

func (op Operation) questionRef() QuestionRef {
	return QuestionRef{LessonRef: op.lessonRef(), Question: op.Question}
}

func (op Operation) optionRef() OptionRef {
	return OptionRef{QuestionRef: op.questionRef(), Option: op.Option}
}

// Result is the outcome of Apply. Position is set by operations that create
// a node.
type Result struct {
	Curriculum Curriculum `json:"curriculum"`
	Notices    []Notice   `json:"notices"`
	Position   int        `json:"position,omitempty"`
}

// Apply dispatches op to the matching method. On error the returned result
// carries the receiver unchanged.
func (c Curriculum) Apply(op Operation) (Result, error) {
	result, err := c.apply(op)
	if err != nil {
		result = Result{Curriculum: c}
	}
	if result.Notices == nil {
		result.Notices = []Notice{}
	}
	observeOperation(op.Kind, result.Notices, err)
	return result, err
}

func (c Curriculum) apply(op Operation) (Result, error) {
	var (
		next     Curriculum
		notices  []Notice
		position int
		err      error
	)

	switch op.Kind {
	case OpAddModule:
		next, position = c.AddModule()
	case OpDeleteModule:
		next, err = c.DeleteModule(op.Module, op.Confirmed)
	case OpUpdateModuleTitle:
		next, err = c.UpdateModuleTitle(op.Module, op.Value)
	case OpAddLesson:
		next, position, err = c.AddLesson(op.Module)
	case OpDeleteLesson:
		next, err = c.DeleteLesson(op.lessonRef(), op.Confirmed)
	case OpSetLessonType:
		contentType, ok := ParseContentType(op.Type)
		if !ok {
			return Result{}, invalidValue("unknown lesson type %q", op.Type)
		}
		next, notices, err = c.SetLessonType(op.lessonRef(), contentType)
	case OpUpdateLessonField:
		next, err = c.UpdateLessonField(op.lessonRef(), LessonField(op.Field), op.Value)
	case OpAttachLessonContent:
		if op.Upload == nil {
			return Result{}, invalidValue("upload is required")
		}
		next, notices, err = c.AttachLessonContent(op.lessonRef(), *op.Upload)
	case OpRemoveLessonContent:
		next, err = c.RemoveLessonContent(op.lessonRef(), op.Content, op.Name)
	case OpAddQuizQuestion:
		questionType, ok := ParseQuestionType(op.Type)
		if !ok {
			return Result{}, invalidValue("unknown question type %q", op.Type)
		}
		next, position, err = c.AddQuizQuestion(op.lessonRef(), questionType)
	case OpDeleteQuizQuestion:
		next, err = c.DeleteQuizQuestion(op.questionRef())
	case OpUpdateQuizField:
		next, err = c.UpdateQuizField(op.lessonRef(), QuizField(op.Field), op.Value)
	case OpUpdateQuestionField:
		next, err = c.UpdateQuestionField(op.questionRef(), QuestionField(op.Field), op.Value)
	case OpSetOptionText:
		next, notices, err = c.SetOptionText(op.optionRef(), op.Value)
	case OpToggleOptionCorrect:
		next, notices, err = c.ToggleOptionCorrect(op.optionRef())
	default:
		return Result{}, fmt.Errorf("%w: unknown operation %q", ErrInvalidValue, op.Kind)
	}
	if err != nil {
		return Result{}, err
	}

	return Result{Curriculum: next, Notices: notices, Position: position}, nil
}
