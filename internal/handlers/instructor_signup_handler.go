package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coursehub-backend/internal/models"
	"coursehub-backend/internal/service"
	"coursehub-backend/pkg/response"
)

// InstructorSignupHandler drives the anonymous instructor signup wizard.
type InstructorSignupHandler struct {
	signup *service.InstructorService
}

func NewInstructorSignupHandler(signup *service.InstructorService) *InstructorSignupHandler {
	return &InstructorSignupHandler{signup: signup}
}

type signupView struct {
	*models.InstructorSignupDraft
	Steps []string `json:"steps"`
}

// view strips the password hash before the draft leaves the server.
func (h *InstructorSignupHandler) view(draft *models.InstructorSignupDraft) signupView {
	public := *draft
	public.PasswordHash = ""
	return signupView{InstructorSignupDraft: &public, Steps: h.signup.Steps()}
}

func (h *InstructorSignupHandler) respond(c *gin.Context, draft *models.InstructorSignupDraft, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, h.view(draft))
}

func (h *InstructorSignupHandler) Start(c *gin.Context) {
	draft, err := h.signup.Start(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, h.view(draft))
}

func (h *InstructorSignupHandler) Get(c *gin.Context) {
	draft, err := h.signup.Get(c.Request.Context(), c.Param("id"))
	h.respond(c, draft, err)
}

// GetStep returns only the slice of the draft one step edits.
func (h *InstructorSignupHandler) GetStep(c *gin.Context) {
	draft, err := h.signup.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	switch c.Param("step") {
	case models.SignupStepPersonal:
		response.OK(c, draft.Personal)
	case models.SignupStepProfessional:
		response.OK(c, draft.Professional)
	case models.SignupStepCourseIntent:
		response.OK(c, draft.CourseIntent)
	case models.SignupStepAdditional:
		response.OK(c, draft.Additional)
	default:
		response.Fail(c, http.StatusNotFound, "unknown step", nil)
	}
}

// SaveStep stores the payload of one step. Validation happens on next.
func (h *InstructorSignupHandler) SaveStep(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var (
		draft *models.InstructorSignupDraft
		err   error
	)
	switch c.Param("step") {
	case models.SignupStepPersonal:
		var req models.SignupPersonal
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		draft, err = h.signup.SavePersonal(ctx, id, req)
	case models.SignupStepProfessional:
		var req models.SignupProfessional
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		draft, err = h.signup.SaveProfessional(ctx, id, req)
	case models.SignupStepCourseIntent:
		var req models.SignupCourseIntent
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		draft, err = h.signup.SaveCourseIntent(ctx, id, req)
	case models.SignupStepAdditional:
		var req models.SignupAdditional
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		draft, err = h.signup.SaveAdditional(ctx, id, req)
	default:
		response.Fail(c, http.StatusNotFound, "unknown step", nil)
		return
	}
	h.respond(c, draft, err)
}

func (h *InstructorSignupHandler) Next(c *gin.Context) {
	draft, err := h.signup.Next(c.Request.Context(), c.Param("id"))
	h.respond(c, draft, err)
}

func (h *InstructorSignupHandler) Back(c *gin.Context) {
	draft, err := h.signup.Back(c.Request.Context(), c.Param("id"))
	h.respond(c, draft, err)
}

// Submit creates the instructor account and tells the client where to go next.
func (h *InstructorSignupHandler) Submit(c *gin.Context) {
	result, err := h.signup.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, result)
}
