package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"coursehub-backend/internal/middleware"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/service"
	"coursehub-backend/pkg/logger"
	"coursehub-backend/pkg/response"
)

const maxWebhookBody = 64 << 10

type CartHandler struct {
	cart     *service.CartService
	checkout *service.CheckoutService
}

func NewCartHandler(cart *service.CartService, checkout *service.CheckoutService) *CartHandler {
	return &CartHandler{cart: cart, checkout: checkout}
}

func (h *CartHandler) View(c *gin.Context) {
	view, err := h.cart.View(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, view)
}

func (h *CartHandler) Add(c *gin.Context) {
	var req models.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.cart.Add(c.Request.Context(), middleware.CurrentActor(c), req.CourseID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, view)
}

func (h *CartHandler) Remove(c *gin.Context) {
	courseID, ok := uintParam(c, "courseID")
	if !ok {
		return
	}
	view, err := h.cart.Remove(c.Request.Context(), middleware.CurrentActor(c), courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, view)
}

func (h *CartHandler) Checkout(c *gin.Context) {
	result, err := h.checkout.Checkout(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, result)
}

// Webhook receives Stripe events. The raw body is needed for the signature.
func (h *CartHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "failed to read body", nil)
		return
	}

	if err := h.checkout.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		logger.Warn("Checkout webhook rejected", map[string]interface{}{"error": err.Error()})
		writeError(c, err)
		return
	}
	response.Message(c, "received")
}
