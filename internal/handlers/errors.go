package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"coursehub-backend/internal/curriculum"
	"coursehub-backend/internal/service"
	"coursehub-backend/internal/wizard"
	"coursehub-backend/pkg/logger"
	"coursehub-backend/pkg/response"
)

// writeError maps service errors onto status codes and the error envelope.
// Unknown errors are logged and reported without detail.
func writeError(c *gin.Context, err error) {
	if fields, ok := wizard.AsFieldErrors(err); ok {
		message := "validation failed"
		var stepErr *wizard.StepError
		if errors.As(err, &stepErr) {
			message = "step " + stepErr.Step + " is incomplete"
		}
		response.Fail(c, http.StatusUnprocessableEntity, message, fields)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case service.IsValidationError(err):
		status = http.StatusBadRequest
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, service.ErrDraftNotFound),
		errors.Is(err, curriculum.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrEmailNotVerified):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, curriculum.ErrConfirmationRequired),
		errors.Is(err, wizard.ErrAtLastStep),
		errors.Is(err, wizard.ErrNotTerminal),
		errors.Is(err, wizard.ErrForwardJump):
		status = http.StatusConflict
	case errors.Is(err, curriculum.ErrInvalidValue),
		errors.Is(err, curriculum.ErrNoQuiz),
		errors.Is(err, wizard.ErrUnknownStep),
		errors.Is(err, service.ErrInvalidVerification),
		errors.Is(err, service.ErrInvalidWebhook),
		errors.Is(err, service.ErrUploadEmpty):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUploadTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUploadTypeForbidden):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, service.ErrCheckoutDisabled),
		errors.Is(err, service.ErrVideoUploadDisabled):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).WithError(err).
			WithField("path", c.FullPath()).
			Error("Request failed")
		response.Fail(c, status, "internal server error", nil)
		return
	}
	response.Fail(c, status, err.Error(), nil)
}

// badRequest reports malformed input that never reached a service.
func badRequest(c *gin.Context, err error) {
	response.Fail(c, http.StatusBadRequest, err.Error(), nil)
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.Fail(c, http.StatusBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}
