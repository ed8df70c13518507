package curriculum

// LessonPayload is a lesson as sent to the course API. Authoring-only state
// (the type picker flag and any parked quiz) is not part of it.
type LessonPayload struct {
	Position    int          `json:"position"`
	Title       string       `json:"title"`
	Type        ContentType  `json:"type"`
	ContentURL  string       `json:"content_url,omitempty"`
	Video       *Attachment  `json:"video,omitempty"`
	Files       []Attachment `json:"files,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Description string       `json:"description,omitempty"`
	Quiz        *Quiz        `json:"quiz,omitempty"`
}

// ModulePayload is a module as sent to the course API.
type ModulePayload struct {
	Position int             `json:"position"`
	Title    string          `json:"title"`
	Lessons  []LessonPayload `json:"lessons"`
}

// Payload converts the tree into the shape submitted on publish. Only QUIZ
// lessons carry a quiz.
func (c Curriculum) Payload() []ModulePayload {
	modules := make([]ModulePayload, 0, len(c.modules))
	for _, module := range c.modules {
		lessons := make([]LessonPayload, 0, len(module.Lessons))
		for _, lesson := range module.Lessons {
			l := lesson.clone()
			item := LessonPayload{
				Position:    l.Position,
				Title:       l.Title,
				Type:        l.Type,
				ContentURL:  l.ContentURL,
				Video:       l.Video,
				Files:       l.Files,
				Notes:       l.Notes,
				Description: l.Description,
			}
			if l.Type == ContentTypeQuiz {
				item.Quiz = l.Quiz
			}
			lessons = append(lessons, item)
		}
		modules = append(modules, ModulePayload{Position: module.Position, Title: module.Title, Lessons: lessons})
	}
	return modules
}

// FromPayload rebuilds an editable curriculum from a stored course, used when
// an existing course is opened for editing.
func FromPayload(modules []ModulePayload) Curriculum {
	result := make([]Module, 0, len(modules))
	for _, module := range modules {
		lessons := make([]Lesson, 0, len(module.Lessons))
		for _, item := range module.Lessons {
			lesson := Lesson{
				Position:            item.Position,
				Title:               item.Title,
				Type:                item.Type,
				LessonTypeSelection: item.Type == ContentTypeUnset,
				ContentURL:          item.ContentURL,
				Video:               item.Video,
				Files:               item.Files,
				Notes:               item.Notes,
				Description:         item.Description,
			}
			if item.Type == ContentTypeQuiz {
				lesson.Quiz = item.Quiz
				if lesson.Quiz == nil {
					lesson.Quiz = &Quiz{Questions: []Question{}}
				}
			}
			lessons = append(lessons, lesson.clone())
		}
		result = append(result, Module{Position: module.Position, Title: module.Title, Lessons: lessons})
	}
	return Curriculum{modules: result}
}
