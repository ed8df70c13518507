package handlers

import (
	"github.com/gin-gonic/gin"

	"coursehub-backend/internal/curriculum"
	"coursehub-backend/internal/middleware"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/service"
	"coursehub-backend/pkg/response"
)

// CourseDraftHandler drives the course authoring wizard.
type CourseDraftHandler struct {
	drafts *service.CourseDraftService
}

func NewCourseDraftHandler(drafts *service.CourseDraftService) *CourseDraftHandler {
	return &CourseDraftHandler{drafts: drafts}
}

type gotoRequest struct {
	Step string `json:"step" binding:"required"`
}

type draftView struct {
	*models.CourseDraft
	Steps  []string           `json:"steps"`
	Issues []curriculum.Issue `json:"issues"`
}

func (h *CourseDraftHandler) view(draft *models.CourseDraft) draftView {
	return draftView{
		CourseDraft: draft,
		Steps:       h.drafts.Steps(),
		Issues:      draft.Curriculum.Validate(),
	}
}

func (h *CourseDraftHandler) respond(c *gin.Context, draft *models.CourseDraft, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, h.view(draft))
}

func (h *CourseDraftHandler) Start(c *gin.Context) {
	draft, err := h.drafts.Start(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, h.view(draft))
}

// StartFromCourse opens a draft that will update an existing course.
func (h *CourseDraftHandler) StartFromCourse(c *gin.Context) {
	courseID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	draft, err := h.drafts.StartFromCourse(c.Request.Context(), middleware.CurrentActor(c), courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, h.view(draft))
}

func (h *CourseDraftHandler) Get(c *gin.Context) {
	draft, err := h.drafts.Get(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	h.respond(c, draft, err)
}

func (h *CourseDraftHandler) Discard(c *gin.Context) {
	if err := h.drafts.Discard(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Message(c, "draft discarded")
}

func (h *CourseDraftHandler) SaveBasic(c *gin.Context) {
	var req models.CourseBasicInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	draft, err := h.drafts.SaveBasic(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	h.respond(c, draft, err)
}

func (h *CourseDraftHandler) SaveAdvanced(c *gin.Context) {
	var req models.CourseAdvancedInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	draft, err := h.drafts.SaveAdvanced(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	h.respond(c, draft, err)
}

func (h *CourseDraftHandler) SavePublishSettings(c *gin.Context) {
	var req models.CoursePublishSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	draft, err := h.drafts.SavePublish(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req)
	h.respond(c, draft, err)
}

func (h *CourseDraftHandler) Next(c *gin.Context) {
	draft, err := h.drafts.Next(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	h.respond(c, draft, err)
}

func (h *CourseDraftHandler) Back(c *gin.Context) {
	draft, err := h.drafts.Back(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	h.respond(c, draft, err)
}

func (h *CourseDraftHandler) Goto(c *gin.Context) {
	var req gotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	draft, err := h.drafts.Goto(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req.Step)
	h.respond(c, draft, err)
}

// ApplyCurriculum runs one edit from the curriculum editor.
func (h *CourseDraftHandler) ApplyCurriculum(c *gin.Context) {
	var op curriculum.Operation
	if err := c.ShouldBindJSON(&op); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.drafts.ApplyCurriculum(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), op)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *CourseDraftHandler) Publish(c *gin.Context) {
	course, err := h.drafts.Publish(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, course)
}
