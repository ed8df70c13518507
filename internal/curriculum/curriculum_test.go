package curriculum

import (
	"encoding/json"
	"errors"
	"testing"
)

func mustAddLesson(t *testing.T, c Curriculum, module int) (Curriculum, int) {
	t.Helper()
	next, position, err := c.AddLesson(module)
	if err != nil {
		t.Fatalf("add lesson: %v", err)
	}
	return next, position
}

func mustSetType(t *testing.T, c Curriculum, ref LessonRef, contentType ContentType) (Curriculum, []Notice) {
	t.Helper()
	next, notices, err := c.SetLessonType(ref, contentType)
	if err != nil {
		t.Fatalf("set lesson type: %v", err)
	}
	return next, notices
}

func mustAddQuestion(t *testing.T, c Curriculum, ref LessonRef, questionType QuestionType) (Curriculum, int) {
	t.Helper()
	next, position, err := c.AddQuizQuestion(ref, questionType)
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	return next, position
}

func mustToggle(t *testing.T, c Curriculum, ref OptionRef) (Curriculum, []Notice) {
	t.Helper()
	next, notices, err := c.ToggleOptionCorrect(ref)
	if err != nil {
		t.Fatalf("toggle option: %v", err)
	}
	return next, notices
}

func quizCurriculum(t *testing.T, questionType QuestionType) (Curriculum, QuestionRef) {
	t.Helper()
	ref := LessonRef{Module: 1, Lesson: 1}
	c, _ := mustSetType(t, Seed(), ref, ContentTypeQuiz)
	c, position := mustAddQuestion(t, c, ref, questionType)
	return c, QuestionRef{LessonRef: ref, Question: position}
}

func correctOptions(t *testing.T, c Curriculum, ref QuestionRef) []int {
	t.Helper()
	question, ok := c.Question(ref)
	if !ok {
		t.Fatalf("question %+v not found", ref)
	}
	var positions []int
	for _, option := range question.Options {
		if option.IsCorrect {
			positions = append(positions, option.Position)
		}
	}
	return positions
}

func lessonPositions(t *testing.T, c Curriculum, module int) []int {
	t.Helper()
	m, ok := c.Module(module)
	if !ok {
		t.Fatalf("module %d not found", module)
	}
	positions := make([]int, 0, len(m.Lessons))
	for _, lesson := range m.Lessons {
		positions = append(positions, lesson.Position)
	}
	return positions
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSeed(t *testing.T) {
	c := Seed()
	if c.Len() != 1 {
		t.Fatalf("expected one module, got %d", c.Len())
	}
	lesson, ok := c.Lesson(LessonRef{Module: 1, Lesson: 1})
	if !ok {
		t.Fatalf("expected seeded lesson at 1/1")
	}
	if lesson.Type != ContentTypeUnset || !lesson.LessonTypeSelection {
		t.Fatalf("expected unset lesson type awaiting selection, got %+v", lesson)
	}
	if lesson.Quiz != nil {
		t.Fatalf("seeded lesson must not carry a quiz")
	}
}

func TestAddModuleOnEmptyCurriculum(t *testing.T) {
	c, first := New(nil).AddModule()
	if first != 1 {
		t.Fatalf("expected first module at position 1, got %d", first)
	}

	edited, err := c.UpdateLessonTitle(LessonRef{Module: 1, Lesson: 1}, "Welcome")
	if err != nil {
		t.Fatalf("update lesson title: %v", err)
	}
	edited, _ = mustAddLesson(t, edited, 1)

	next, second := edited.AddModule()
	if second != 2 {
		t.Fatalf("expected second module at position 2, got %d", second)
	}
	module, _ := next.Module(2)
	if len(module.Lessons) != 1 || module.Lessons[0].Title != "Lesson 1" {
		t.Fatalf("expected fresh default lesson in module 2, got %+v", module.Lessons)
	}
	if module.Title != "Module 2" {
		t.Fatalf("unexpected default title %q", module.Title)
	}
	if got := lessonPositions(t, next, 1); !equalInts(got, []int{1, 2}) {
		t.Fatalf("module 1 lessons changed: %v", got)
	}
}

func TestInsertedPositionsFollowMaximum(t *testing.T) {
	c := Seed()
	c, _ = c.AddModule()
	c, _ = c.AddModule()

	c, err := c.DeleteModule(2, true)
	if err != nil {
		t.Fatalf("delete module: %v", err)
	}
	c, position := c.AddModule()
	if position != 4 {
		t.Fatalf("expected module position 4 after deleting 2 of [1 2 3], got %d", position)
	}

	c, _ = mustAddLesson(t, c, 1)
	c, _ = mustAddLesson(t, c, 1)
	c, err = c.DeleteLesson(LessonRef{Module: 1, Lesson: 3}, true)
	if err != nil {
		t.Fatalf("delete lesson: %v", err)
	}
	c, lesson := mustAddLesson(t, c, 1)
	if lesson != 3 {
		t.Fatalf("expected lesson position 3 after deleting the highest, got %d", lesson)
	}

	ref := LessonRef{Module: 1, Lesson: 2}
	c, _ = mustSetType(t, c, ref, ContentTypeQuiz)
	for want := 1; want <= 3; want++ {
		var got int
		c, got = mustAddQuestion(t, c, ref, QuestionTypeSingleChoice)
		if got != want {
			t.Fatalf("expected question position %d, got %d", want, got)
		}
	}
	c, err = c.DeleteQuizQuestion(QuestionRef{LessonRef: ref, Question: 1})
	if err != nil {
		t.Fatalf("delete question: %v", err)
	}
	if _, got := mustAddQuestion(t, c, ref, QuestionTypeSingleChoice); got != 4 {
		t.Fatalf("expected question position 4, got %d", got)
	}
}

func TestDeleteDoesNotRenumber(t *testing.T) {
	c := Seed()
	c, _ = c.AddModule()
	c, _ = c.AddModule()
	for i := 0; i < 3; i++ {
		c, _ = mustAddLesson(t, c, 3)
	}

	c, err := c.DeleteModule(2, true)
	if err != nil {
		t.Fatalf("delete module: %v", err)
	}
	modules := c.Modules()
	if len(modules) != 2 || modules[0].Position != 1 || modules[1].Position != 3 {
		t.Fatalf("expected modules [1 3], got %+v", modules)
	}

	c, err = c.DeleteLesson(LessonRef{Module: 3, Lesson: 2}, true)
	if err != nil {
		t.Fatalf("delete lesson: %v", err)
	}
	if got := lessonPositions(t, c, 3); !equalInts(got, []int{1, 3, 4}) {
		t.Fatalf("expected lessons [1 3 4], got %v", got)
	}

	ref := LessonRef{Module: 3, Lesson: 3}
	c, _ = mustSetType(t, c, ref, ContentTypeQuiz)
	c, _ = mustAddQuestion(t, c, ref, QuestionTypeTrueFalse)
	c, _ = mustAddQuestion(t, c, ref, QuestionTypeTrueFalse)
	c, _ = mustAddQuestion(t, c, ref, QuestionTypeTrueFalse)
	c, err = c.DeleteQuizQuestion(QuestionRef{LessonRef: ref, Question: 2})
	if err != nil {
		t.Fatalf("delete question: %v", err)
	}
	lesson, _ := c.Lesson(ref)
	if len(lesson.Quiz.Questions) != 2 || lesson.Quiz.Questions[0].Position != 1 || lesson.Quiz.Questions[1].Position != 3 {
		t.Fatalf("expected questions [1 3], got %+v", lesson.Quiz.Questions)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	c, _ := Seed().AddModule()

	next, err := c.DeleteModule(2, false)
	if !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if next.Len() != 2 {
		t.Fatalf("declined delete must leave the tree untouched")
	}

	if _, err := c.DeleteLesson(LessonRef{Module: 1, Lesson: 1}, false); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error for lesson, got %v", err)
	}
	if _, err := c.DeleteModule(9, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown module, got %v", err)
	}
	if _, err := c.DeleteLesson(LessonRef{Module: 1, Lesson: 9}, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found before confirmation check, got %v", err)
	}
}

func TestMultipleChoiceCorrectCap(t *testing.T) {
	c, qref := quizCurriculum(t, QuestionTypeMultipleChoice)
	for option := 1; option <= 3; option++ {
		var notices []Notice
		c, notices = mustToggle(t, c, OptionRef{QuestionRef: qref, Option: option})
		if len(notices) != 0 {
			t.Fatalf("unexpected notices toggling option %d: %+v", option, notices)
		}
	}

	next, notices := mustToggle(t, c, OptionRef{QuestionRef: qref, Option: 4})
	if !Rejected(notices) || notices[0].Code != CodeCorrectLimit {
		t.Fatalf("expected rejected correct-limit notice, got %+v", notices)
	}
	if got := correctOptions(t, next, qref); !equalInts(got, []int{1, 2, 3}) {
		t.Fatalf("expected options [1 2 3] correct, got %v", got)
	}

	// Unmarking is always allowed and frees a slot.
	next, _ = mustToggle(t, next, OptionRef{QuestionRef: qref, Option: 2})
	next, notices = mustToggle(t, next, OptionRef{QuestionRef: qref, Option: 4})
	if len(notices) != 0 {
		t.Fatalf("unexpected notices: %+v", notices)
	}
	if got := correctOptions(t, next, qref); !equalInts(got, []int{1, 3, 4}) {
		t.Fatalf("expected options [1 3 4] correct, got %v", got)
	}
}

func TestSingleAnswerCorrectCap(t *testing.T) {
	for _, questionType := range []QuestionType{QuestionTypeSingleChoice, QuestionTypeTrueFalse} {
		t.Run(string(questionType), func(t *testing.T) {
			c, qref := quizCurriculum(t, questionType)
			c, _ = mustToggle(t, c, OptionRef{QuestionRef: qref, Option: 2})

			next, notices := mustToggle(t, c, OptionRef{QuestionRef: qref, Option: 1})
			if !Rejected(notices) {
				t.Fatalf("expected rejection, got %+v", notices)
			}
			if got := correctOptions(t, next, qref); !equalInts(got, []int{2}) {
				t.Fatalf("expected only option 2 correct, got %v", got)
			}
		})
	}
}

func TestToggleWithoutQuiz(t *testing.T) {
	ref := OptionRef{QuestionRef: QuestionRef{LessonRef: LessonRef{Module: 1, Lesson: 1}, Question: 1}, Option: 1}
	if _, _, err := Seed().ToggleOptionCorrect(ref); !errors.Is(err, ErrNoQuiz) {
		t.Fatalf("expected ErrNoQuiz, got %v", err)
	}
}

func TestDuplicateOptionTextWarns(t *testing.T) {
	c, qref := quizCurriculum(t, QuestionTypeSingleChoice)
	c, notices, err := c.SetOptionText(OptionRef{QuestionRef: qref, Option: 1}, "Goroutine")
	if err != nil || len(notices) != 0 {
		t.Fatalf("unexpected result: %v %+v", err, notices)
	}

	next, notices, err := c.SetOptionText(OptionRef{QuestionRef: qref, Option: 3}, "  goroutine ")
	if err != nil {
		t.Fatalf("set option text: %v", err)
	}
	if len(notices) != 1 || notices[0].Level != NoticeWarning || notices[0].Code != CodeDuplicateOption {
		t.Fatalf("expected duplicate warning, got %+v", notices)
	}
	question, _ := next.Question(qref)
	if question.Options[2].Text != "  goroutine " {
		t.Fatalf("expected text to be applied, got %q", question.Options[2].Text)
	}

	// Empty options are not duplicates of each other.
	if _, notices, _ := next.SetOptionText(OptionRef{QuestionRef: qref, Option: 4}, ""); len(notices) != 0 {
		t.Fatalf("unexpected notices for empty text: %+v", notices)
	}
}

func TestSetLessonType(t *testing.T) {
	ref := LessonRef{Module: 1, Lesson: 1}

	quiz, _ := mustSetType(t, Seed(), ref, ContentTypeQuiz)
	lesson, _ := quiz.Lesson(ref)
	if lesson.Quiz == nil || lesson.Quiz.Questions == nil || len(lesson.Quiz.Questions) != 0 {
		t.Fatalf("expected empty quiz, got %+v", lesson.Quiz)
	}
	if lesson.LessonTypeSelection {
		t.Fatalf("type selection flag should be cleared")
	}

	for _, contentType := range []ContentType{ContentTypeVideo, ContentTypeArticle} {
		next, notices := mustSetType(t, Seed(), ref, contentType)
		lesson, _ := next.Lesson(ref)
		if lesson.Quiz != nil || len(notices) != 0 {
			t.Fatalf("%s lesson without prior quiz must stay quiz-free: %+v %+v", contentType, lesson.Quiz, notices)
		}
	}

	if _, _, err := Seed().SetLessonType(ref, ContentType("PODCAST")); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected invalid value, got %v", err)
	}
}

func TestSwitchingAwayFromQuizParksIt(t *testing.T) {
	c, qref := quizCurriculum(t, QuestionTypeTrueFalse)
	ref := qref.LessonRef

	video, notices := mustSetType(t, c, ref, ContentTypeVideo)
	if len(notices) != 1 || notices[0].Code != CodeQuizParked {
		t.Fatalf("expected parked notice, got %+v", notices)
	}
	lesson, _ := video.Lesson(ref)
	if lesson.Quiz != nil || lesson.ParkedQuiz == nil {
		t.Fatalf("expected quiz to be parked, got %+v", lesson)
	}
	if payload := video.Payload(); payload[0].Lessons[0].Quiz != nil {
		t.Fatalf("parked quiz must not reach the payload")
	}
	if _, err := video.UpdateQuizField(ref, QuizFieldTitle, "x"); !errors.Is(err, ErrNoQuiz) {
		t.Fatalf("expected ErrNoQuiz on a video lesson, got %v", err)
	}

	restored, notices := mustSetType(t, video, ref, ContentTypeQuiz)
	if len(notices) != 1 || notices[0].Code != CodeQuizRestored {
		t.Fatalf("expected restored notice, got %+v", notices)
	}
	lesson, _ = restored.Lesson(ref)
	if lesson.Quiz == nil || len(lesson.Quiz.Questions) != 1 || lesson.ParkedQuiz != nil {
		t.Fatalf("expected quiz with one question restored, got %+v", lesson)
	}
}

func TestMutatorsStoreCanonicalTypes(t *testing.T) {
	ref := LessonRef{Module: 1, Lesson: 1}

	c, _ := mustSetType(t, Seed(), ref, ContentType("quiz"))
	lesson, _ := c.Lesson(ref)
	if lesson.Type != ContentTypeQuiz || lesson.Quiz == nil {
		t.Fatalf("expected a QUIZ lesson with a quiz, got type %q quiz %+v", lesson.Type, lesson.Quiz)
	}

	c, position := mustAddQuestion(t, c, ref, QuestionType(" true_false "))
	q, _ := c.Question(QuestionRef{LessonRef: ref, Question: position})
	if q.Type != QuestionTypeTrueFalse {
		t.Fatalf("expected TRUE_FALSE, got %q", q.Type)
	}
	if len(q.Options) != 2 || q.Options[0].Text != "true" {
		t.Fatalf("expected true/false options, got %+v", q.Options)
	}
}

func TestTrueFalseScenario(t *testing.T) {
	c := Seed()
	c, position := mustAddLesson(t, c, 1)
	if position != 2 {
		t.Fatalf("expected lesson at position 2, got %d", position)
	}
	if got := lessonPositions(t, c, 1); !equalInts(got, []int{1, 2}) {
		t.Fatalf("expected lessons [1 2], got %v", got)
	}

	ref := LessonRef{Module: 1, Lesson: 2}
	c, _ = mustSetType(t, c, ref, ContentTypeQuiz)
	lesson, _ := c.Lesson(ref)
	if lesson.Quiz == nil || len(lesson.Quiz.Questions) != 0 {
		t.Fatalf("expected quiz with no questions")
	}

	c, question := mustAddQuestion(t, c, ref, QuestionTypeTrueFalse)
	if question != 1 {
		t.Fatalf("expected question at position 1, got %d", question)
	}
	q, _ := c.Question(QuestionRef{LessonRef: ref, Question: 1})
	if len(q.Options) != 2 || q.Options[0].Text != "true" || q.Options[1].Text != "false" {
		t.Fatalf("unexpected options %+v", q.Options)
	}
	for _, option := range q.Options {
		if option.IsCorrect {
			t.Fatalf("seeded options must not be correct")
		}
	}
	if q.Points != 1 {
		t.Fatalf("expected default points 1, got %d", q.Points)
	}
}

func TestChoiceQuestionsStartWithFourEmptyOptions(t *testing.T) {
	c, qref := quizCurriculum(t, QuestionTypeMultipleChoice)
	q, _ := c.Question(qref)
	if len(q.Options) != 4 {
		t.Fatalf("expected 4 options, got %d", len(q.Options))
	}
	for i, option := range q.Options {
		if option.Position != i+1 || option.Text != "" {
			t.Fatalf("unexpected option %+v", option)
		}
	}
}

func TestEditsCopyOnlyThePath(t *testing.T) {
	c, _ := Seed().AddModule()
	before, _ := json.Marshal(c)

	next, err := c.UpdateLessonField(LessonRef{Module: 1, Lesson: 1}, LessonFieldNotes, "read chapter 2")
	if err != nil {
		t.Fatalf("update lesson field: %v", err)
	}

	after, _ := json.Marshal(c)
	if string(before) != string(after) {
		t.Fatalf("receiver was modified")
	}
	if &next.modules[1].Lessons[0] != &c.modules[1].Lessons[0] {
		t.Fatalf("untouched module should share its lessons")
	}
	if &next.modules[0].Lessons[0] == &c.modules[0].Lessons[0] {
		t.Fatalf("edited module should own a new lessons slice")
	}
	lesson, _ := next.Lesson(LessonRef{Module: 1, Lesson: 1})
	if lesson.Notes != "read chapter 2" {
		t.Fatalf("unexpected notes %q", lesson.Notes)
	}
}

func TestAttachLessonContent(t *testing.T) {
	ref := LessonRef{Module: 1, Lesson: 1}
	c, _ := mustSetType(t, Seed(), ref, ContentTypeVideo)

	video := Attachment{Name: "intro.mp4", URL: "https://cdn.example.com/intro", MimeType: "video/mp4"}
	c, notices, err := c.AttachLessonContent(ref, video)
	if err != nil || len(notices) != 0 {
		t.Fatalf("unexpected result: %v %+v", err, notices)
	}
	c, notices, _ = c.AttachLessonContent(ref, Attachment{Name: "take2.mp4", URL: "https://cdn.example.com/take2", MimeType: "video/mp4"})
	if len(notices) != 1 || notices[0].Code != CodeVideoReplaced {
		t.Fatalf("expected replaced warning, got %+v", notices)
	}
	lesson, _ := c.Lesson(ref)
	if lesson.ContentURL != "https://cdn.example.com/take2" {
		t.Fatalf("unexpected content url %q", lesson.ContentURL)
	}

	pdf := Attachment{Name: "slides.pdf", URL: "/uploads/slides.pdf", MimeType: "application/pdf"}
	c, _, _ = c.AttachLessonContent(ref, pdf)
	c, _, _ = c.AttachLessonContent(ref, Attachment{Name: "notes.txt", URL: "/uploads/notes.txt", MimeType: "text/plain"})
	c, notices, _ = c.AttachLessonContent(ref, pdf)
	if len(notices) != 1 || notices[0].Code != CodeFileAlreadyAdded {
		t.Fatalf("expected already attached warning, got %+v", notices)
	}
	lesson, _ = c.Lesson(ref)
	if len(lesson.Files) != 2 {
		t.Fatalf("expected 2 files, got %+v", lesson.Files)
	}

	c, err = c.RemoveLessonContent(ref, ContentKindFile, "slides.pdf")
	if err != nil {
		t.Fatalf("remove file: %v", err)
	}
	c, err = c.RemoveLessonContent(ref, ContentKindVideo, "")
	if err != nil {
		t.Fatalf("remove video: %v", err)
	}
	lesson, _ = c.Lesson(ref)
	if lesson.ContentURL != "" || lesson.Video != nil || len(lesson.Files) != 1 || lesson.Files[0].Name != "notes.txt" {
		t.Fatalf("unexpected lesson after removals: %+v", lesson)
	}
	if _, err := c.RemoveLessonContent(ref, ContentKindFile, "missing.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateQuizFieldValues(t *testing.T) {
	c, qref := quizCurriculum(t, QuestionTypeSingleChoice)
	ref := qref.LessonRef

	c, err := c.UpdateQuizField(ref, QuizFieldPassingScore, "80")
	if err != nil {
		t.Fatalf("update passing score: %v", err)
	}
	c, err = c.UpdateQuizField(ref, QuizFieldDuration, " 15 ")
	if err != nil {
		t.Fatalf("update duration: %v", err)
	}
	lesson, _ := c.Lesson(ref)
	if lesson.Quiz.PassingScore != 80 || lesson.Quiz.DurationMinutes != 15 {
		t.Fatalf("unexpected quiz %+v", lesson.Quiz)
	}

	for _, tc := range []struct {
		field QuizField
		value string
	}{
		{QuizFieldPassingScore, "101"},
		{QuizFieldAttemptsAllowed, "-1"},
		{QuizFieldDuration, "ten"},
		{QuizField("color"), "red"},
	} {
		if _, err := c.UpdateQuizField(ref, tc.field, tc.value); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("expected invalid value for %s=%q, got %v", tc.field, tc.value, err)
		}
	}

	c, err = c.UpdateQuestionField(qref, QuestionFieldPoints, "5")
	if err != nil {
		t.Fatalf("update points: %v", err)
	}
	q, _ := c.Question(qref)
	if q.Points != 5 {
		t.Fatalf("expected 5 points, got %d", q.Points)
	}
}

func TestValidate(t *testing.T) {
	issues := Seed().Validate()
	if !Blocking(issues) {
		t.Fatalf("seeded curriculum must not be publishable")
	}
	if issues[0].Code != IssueTypeNotChosen {
		t.Fatalf("expected lesson type issue, got %+v", issues)
	}

	c, qref := quizCurriculum(t, QuestionTypeSingleChoice)
	var err error
	c, err = c.UpdateQuestionField(qref, QuestionFieldText, "Which keyword starts a goroutine?")
	if err != nil {
		t.Fatalf("update question: %v", err)
	}
	for i, text := range []string{"go", "defer", "select", "chan"} {
		c, _, err = c.SetOptionText(OptionRef{QuestionRef: qref, Option: i + 1}, text)
		if err != nil {
			t.Fatalf("set option text: %v", err)
		}
	}
	if issues := c.Validate(); len(issues) != 1 || issues[0].Code != IssueNoCorrectOption {
		t.Fatalf("expected missing correct option issue, got %+v", issues)
	}

	c, _ = mustToggle(t, c, OptionRef{QuestionRef: qref, Option: 1})
	if issues := c.Validate(); Blocking(issues) {
		t.Fatalf("expected publishable curriculum, got %+v", issues)
	}

	c, _, _ = c.SetOptionText(OptionRef{QuestionRef: qref, Option: 4}, "GO")
	issues = c.Validate()
	if Blocking(issues) || len(issues) != 2 {
		t.Fatalf("expected two non-blocking duplicate warnings, got %+v", issues)
	}

	if issues := New(nil).Validate(); len(issues) != 1 || issues[0].Code != IssueEmpty {
		t.Fatalf("expected empty curriculum issue, got %+v", issues)
	}
}

func TestApply(t *testing.T) {
	c := Seed()

	result, err := c.Apply(Operation{Kind: OpAddLesson, Module: 1})
	if err != nil {
		t.Fatalf("apply add lesson: %v", err)
	}
	if result.Position != 2 {
		t.Fatalf("expected position 2, got %d", result.Position)
	}

	result, err = result.Curriculum.Apply(Operation{Kind: OpSetLessonType, Module: 1, Lesson: 2, Type: "quiz"})
	if err != nil {
		t.Fatalf("apply set type: %v", err)
	}
	result, err = result.Curriculum.Apply(Operation{Kind: OpAddQuizQuestion, Module: 1, Lesson: 2, Type: "TRUE_FALSE"})
	if err != nil {
		t.Fatalf("apply add question: %v", err)
	}
	toggled, err := result.Curriculum.Apply(Operation{Kind: OpToggleOptionCorrect, Module: 1, Lesson: 2, Question: 1, Option: 1})
	if err != nil {
		t.Fatalf("apply toggle: %v", err)
	}
	rejectedResult, err := toggled.Curriculum.Apply(Operation{Kind: OpToggleOptionCorrect, Module: 1, Lesson: 2, Question: 1, Option: 2})
	if err != nil {
		t.Fatalf("apply second toggle: %v", err)
	}
	if !Rejected(rejectedResult.Notices) {
		t.Fatalf("expected rejected notice, got %+v", rejectedResult.Notices)
	}

	failed, err := toggled.Curriculum.Apply(Operation{Kind: OpDeleteModule, Module: 1})
	if !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if failed.Curriculum.Len() != 1 || failed.Notices == nil {
		t.Fatalf("failed apply should return the receiver and empty notices")
	}

	if _, err := c.Apply(Operation{Kind: "rename_everything"}); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected invalid value for unknown op, got %v", err)
	}
	if _, err := c.Apply(Operation{Kind: OpAttachLessonContent, Module: 1, Lesson: 1}); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected invalid value without upload, got %v", err)
	}
}

func TestSnapshotKeepsAuthoringState(t *testing.T) {
	c, qref := quizCurriculum(t, QuestionTypeSingleChoice)
	c, _ = mustSetType(t, c, qref.LessonRef, ContentTypeArticle)
	c, _ = mustAddLesson(t, c, 1)

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored Curriculum
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	lesson, _ := restored.Lesson(qref.LessonRef)
	if lesson.ParkedQuiz == nil || len(lesson.ParkedQuiz.Questions) != 1 {
		t.Fatalf("expected parked quiz to survive the snapshot, got %+v", lesson)
	}
	fresh, _ := restored.Lesson(LessonRef{Module: 1, Lesson: 2})
	if !fresh.LessonTypeSelection {
		t.Fatalf("expected type selection flag to survive the snapshot")
	}
}

func TestPayloadRoundTripFromStoredCourse(t *testing.T) {
	c, qref := quizCurriculum(t, QuestionTypeTrueFalse)
	c, _ = mustAddLesson(t, c, 1)

	payload := c.Payload()
	if len(payload) != 1 || len(payload[0].Lessons) != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload[0].Lessons[0].Quiz == nil {
		t.Fatalf("quiz lesson must carry its quiz")
	}

	reopened := FromPayload(payload)
	q, ok := reopened.Question(qref)
	if !ok || len(q.Options) != 2 {
		t.Fatalf("expected question restored, got %+v", q)
	}
	lesson, _ := reopened.Lesson(LessonRef{Module: 1, Lesson: 2})
	if !lesson.LessonTypeSelection {
		t.Fatalf("lesson without type should reopen in type selection")
	}
}
