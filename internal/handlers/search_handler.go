package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"coursehub-backend/internal/service"
	"coursehub-backend/pkg/response"
)

// SearchHandler serves the search-as-you-type pickers.
type SearchHandler struct {
	searchService *service.SearchService
}

func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

func (h *SearchHandler) Categories(c *gin.Context) {
	var parentID *uint
	if raw := c.Query("parent_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			badRequest(c, err)
			return
		}
		parent := uint(id)
		parentID = &parent
	}

	categories, err := h.searchService.Categories(c.Request.Context(), c.Query("search"), parentID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, categories)
}

func (h *SearchHandler) Tags(c *gin.Context) {
	tags, err := h.searchService.Tags(c.Request.Context(), c.Query("search"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, tags)
}

func (h *SearchHandler) Instructors(c *gin.Context) {
	instructors, err := h.searchService.Instructors(c.Request.Context(), c.Query("search"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, instructors)
}
