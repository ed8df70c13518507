package curriculum

import (
	"encoding/json"
	"slices"
)

// Curriculum is an immutable ordered list of modules. Every operation returns
// a new value; only the nodes on the path from the root to the edited node are
// copied and every other subtree is shared with the previous value, so older
// values stay valid for whoever still holds them.
type Curriculum struct {
	modules []Module
}

// New builds a curriculum from caller-owned modules. The input is copied.
func New(modules []Module) Curriculum {
	cloned := make([]Module, 0, len(modules))
	for _, module := range modules {
		cloned = append(cloned, module.clone())
	}
	return Curriculum{modules: cloned}
}

// Seed returns the curriculum an authoring session starts with: one module
// holding one lesson whose type has not been chosen yet.
func Seed() Curriculum {
	return Curriculum{modules: []Module{newModule(1)}}
}

// Len returns the number of modules.
func (c Curriculum) Len() int {
	return len(c.modules)
}

// Modules returns a deep copy of the modules.
func (c Curriculum) Modules() []Module {
	result := make([]Module, 0, len(c.modules))
	for _, module := range c.modules {
		result = append(result, module.clone())
	}
	return result
}

// Module returns a copy of the module at the given position.
func (c Curriculum) Module(position int) (Module, bool) {
	idx := moduleIndex(c.modules, position)
	if idx < 0 {
		return Module{}, false
	}
	return c.modules[idx].clone(), true
}

// Lesson returns a copy of the referenced lesson.
func (c Curriculum) Lesson(ref LessonRef) (Lesson, bool) {
	lesson, ok := c.lesson(ref)
	if !ok {
		return Lesson{}, false
	}
	return lesson.clone(), true
}

// Question returns a copy of the referenced quiz question.
func (c Curriculum) Question(ref QuestionRef) (Question, bool) {
	question, ok := c.question(ref)
	if !ok {
		return Question{}, false
	}
	return question.clone(), true
}

func (c Curriculum) lesson(ref LessonRef) (Lesson, bool) {
	mIdx := moduleIndex(c.modules, ref.Module)
	if mIdx < 0 {
		return Lesson{}, false
	}
	lessons := c.modules[mIdx].Lessons
	lIdx := lessonIndex(lessons, ref.Lesson)
	if lIdx < 0 {
		return Lesson{}, false
	}
	return lessons[lIdx], true
}

func (c Curriculum) question(ref QuestionRef) (Question, bool) {
	lesson, ok := c.lesson(ref.LessonRef)
	if !ok || lesson.Quiz == nil {
		return Question{}, false
	}
	idx := questionIndex(lesson.Quiz.Questions, ref.Question)
	if idx < 0 {
		return Question{}, false
	}
	return lesson.Quiz.Questions[idx], true
}

func (c Curriculum) updateModule(position int, edit func(*Module) error) (Curriculum, error) {
	idx := moduleIndex(c.modules, position)
	if idx < 0 {
		return c, notFound("module %d", position)
	}
	modules := slices.Clone(c.modules)
	module := modules[idx]
	if err := edit(&module); err != nil {
		return c, err
	}
	modules[idx] = module
	return Curriculum{modules: modules}, nil
}

func (c Curriculum) updateLesson(ref LessonRef, edit func(*Lesson) error) (Curriculum, error) {
	return c.updateModule(ref.Module, func(module *Module) error {
		idx := lessonIndex(module.Lessons, ref.Lesson)
		if idx < 0 {
			return notFound("lesson %d in module %d", ref.Lesson, ref.Module)
		}
		lessons := slices.Clone(module.Lessons)
		lesson := lessons[idx]
		if err := edit(&lesson); err != nil {
			return err
		}
		lessons[idx] = lesson
		module.Lessons = lessons
		return nil
	})
}

func (c Curriculum) updateQuiz(ref LessonRef, edit func(*Quiz) error) (Curriculum, error) {
	return c.updateLesson(ref, func(lesson *Lesson) error {
		if lesson.Quiz == nil {
			return ErrNoQuiz
		}
		quiz := *lesson.Quiz
		if err := edit(&quiz); err != nil {
			return err
		}
		lesson.Quiz = &quiz
		return nil
	})
}

func (c Curriculum) updateQuestion(ref QuestionRef, edit func(*Question) error) (Curriculum, error) {
	return c.updateQuiz(ref.LessonRef, func(quiz *Quiz) error {
		idx := questionIndex(quiz.Questions, ref.Question)
		if idx < 0 {
			return notFound("question %d", ref.Question)
		}
		questions := slices.Clone(quiz.Questions)
		question := questions[idx]
		if err := edit(&question); err != nil {
			return err
		}
		questions[idx] = question
		quiz.Questions = questions
		return nil
	})
}

type snapshot struct {
	Modules []Module `json:"modules"`
}

// MarshalJSON writes the raw draft snapshot, UI-only fields included.
func (c Curriculum) MarshalJSON() ([]byte, error) {
	modules := c.modules
	if modules == nil {
		modules = []Module{}
	}
	return json.Marshal(snapshot{Modules: modules})
}

// UnmarshalJSON restores a snapshot written by MarshalJSON.
func (c *Curriculum) UnmarshalJSON(data []byte) error {
	var raw snapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.modules = raw.Modules
	return nil
}

func newModule(position int) Module {
	return Module{
		Position: position,
		Title:    defaultModuleTitle(position),
		Lessons:  []Lesson{newLesson(1)},
	}
}

func newLesson(position int) Lesson {
	return Lesson{
		Position:            position,
		Title:               defaultLessonTitle(position),
		LessonTypeSelection: true,
	}
}

func moduleIndex(modules []Module, position int) int {
	return slices.IndexFunc(modules, func(m Module) bool { return m.Position == position })
}

func lessonIndex(lessons []Lesson, position int) int {
	return slices.IndexFunc(lessons, func(l Lesson) bool { return l.Position == position })
}

func questionIndex(questions []Question, position int) int {
	return slices.IndexFunc(questions, func(q Question) bool { return q.Position == position })
}

func optionIndex(options []Option, position int) int {
	return slices.IndexFunc(options, func(o Option) bool { return o.Position == position })
}

// nextPosition returns max(existing)+1, or 1 for an empty group.
func nextPosition[T any](items []T, position func(T) int) int {
	highest := 0
	for _, item := range items {
		if p := position(item); p > highest {
			highest = p
		}
	}
	return highest + 1
}

func (m Module) clone() Module {
	lessons := make([]Lesson, 0, len(m.Lessons))
	for _, lesson := range m.Lessons {
		lessons = append(lessons, lesson.clone())
	}
	m.Lessons = lessons
	return m
}

func (l Lesson) clone() Lesson {
	if l.Video != nil {
		video := *l.Video
		l.Video = &video
	}
	l.Files = slices.Clone(l.Files)
	l.Quiz = l.Quiz.clone()
	l.ParkedQuiz = l.ParkedQuiz.clone()
	return l
}

func (q *Quiz) clone() *Quiz {
	if q == nil {
		return nil
	}
	quiz := *q
	quiz.Questions = make([]Question, 0, len(q.Questions))
	for _, question := range q.Questions {
		quiz.Questions = append(quiz.Questions, question.clone())
	}
	return &quiz
}

func (q Question) clone() Question {
	q.Options = slices.Clone(q.Options)
	return q
}
