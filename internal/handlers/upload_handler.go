package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coursehub-backend/internal/middleware"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/service"
	"coursehub-backend/pkg/response"
)

type UploadHandler struct {
	uploadService *service.UploadService
	videoService  *service.VideoService
}

func NewUploadHandler(uploadService *service.UploadService, videoService *service.VideoService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, videoService: videoService}
}

// UploadFile stores a document, image or small video. The form carries the
// file under "file" and the kind under "kind" (document by default).
func (h *UploadHandler) UploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "no file uploaded", nil)
		return
	}

	kind := strings.ToLower(strings.TrimSpace(c.PostForm("kind")))
	if kind == "" {
		kind = service.UploadKindDocument
	}

	attachment, err := h.uploadService.UploadFile(c.Request.Context(), kind, file)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, attachment)
}

// CreateVideoUpload hands out resumable upload credentials for the video CDN.
func (h *UploadHandler) CreateVideoUpload(c *gin.Context) {
	var req models.VideoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ticket, err := h.videoService.CreateUpload(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, ticket)
}
