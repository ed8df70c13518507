package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coursehub-backend/internal/middleware"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/service"
	"coursehub-backend/pkg/response"
)

type CourseHandler struct {
	courseService *service.CourseService
}

func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

func (h *CourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}

	courses, err := h.courseService.List(filter)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, courses)
}

func (h *CourseHandler) GetBySlug(c *gin.Context) {
	course, err := h.courseService.GetBySlug(c.Request.Context(), middleware.CurrentActor(c), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, course)
}

// SlugAvailability answers GET /courses/slug-availability?slug=&exclude=.
func (h *CourseHandler) SlugAvailability(c *gin.Context) {
	var excludeID uint
	if raw := c.Query("exclude"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "invalid exclude", nil)
			return
		}
		excludeID = uint(id)
	}

	result, err := h.courseService.CheckSlug(c.Query("slug"), excludeID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, result)
}
