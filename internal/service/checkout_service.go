package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"coursehub-backend/internal/models"
	"coursehub-backend/internal/payments"
	"coursehub-backend/internal/payments/stripe"
	"coursehub-backend/internal/repository"
	"coursehub-backend/pkg/logger"
)

var (
	// ErrCheckoutDisabled is returned when a paid cart cannot be charged.
	ErrCheckoutDisabled = errors.New("course checkout is disabled")
	// ErrInvalidWebhook is returned for webhook calls that fail verification.
	ErrInvalidWebhook = errors.New("invalid webhook signature")
)

// CheckoutConfig defines configuration required to create checkout sessions.
type CheckoutConfig struct {
	SuccessURL    string
	CancelURL     string
	Currency      string
	WebhookSecret string
}

type CheckoutService struct {
	cart       *CartService
	courseRepo repository.CourseRepository
	enrollRepo repository.EnrollmentRepository
	userRepo   repository.UserRepository
	provider   payments.Provider
	config     CheckoutConfig
}

func NewCheckoutService(
	cart *CartService,
	courseRepo repository.CourseRepository,
	enrollRepo repository.EnrollmentRepository,
	userRepo repository.UserRepository,
	provider payments.Provider,
	cfg CheckoutConfig,
) *CheckoutService {
	return &CheckoutService{
		cart:       cart,
		courseRepo: courseRepo,
		enrollRepo: enrollRepo,
		userRepo:   userRepo,
		provider:   provider,
		config: CheckoutConfig{
			SuccessURL:    strings.TrimSpace(cfg.SuccessURL),
			CancelURL:     strings.TrimSpace(cfg.CancelURL),
			Currency:      strings.ToLower(strings.TrimSpace(cfg.Currency)),
			WebhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		},
	}
}

// Enabled reports whether paid courses can be bought.
func (s *CheckoutService) Enabled() bool {
	if s == nil {
		return false
	}
	cfg := s.config
	return s.provider != nil && cfg.SuccessURL != "" && cfg.CancelURL != "" && cfg.Currency != ""
}

// Checkout enrolls the buyer in every free course of the cart right away and
// opens a payment session for the rest.
func (s *CheckoutService) Checkout(ctx context.Context, actor Actor) (*models.CheckoutResponse, error) {
	if s == nil || s.cart == nil || s.enrollRepo == nil {
		return nil, errors.New("checkout service is not configured")
	}

	view, err := s.cart.View(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, newValidationError("cart is empty")
	}

	var free []uint
	var paid []models.CartItem
	for _, item := range view.Items {
		if effectivePrice(item) <= 0 {
			free = append(free, item.CourseID)
		} else {
			paid = append(paid, item)
		}
	}

	if len(paid) > 0 && !s.Enabled() {
		return nil, ErrCheckoutDisabled
	}

	response := &models.CheckoutResponse{}
	if len(free) > 0 {
		enrollments := make([]models.Enrollment, 0, len(free))
		for _, id := range free {
			enrollments = append(enrollments, models.Enrollment{UserID: actor.ID, CourseID: id, Source: models.EnrollmentSourceFree})
		}
		if err := s.enrollRepo.Grant(enrollments); err != nil {
			return nil, err
		}
		if err := s.cart.RemoveCourses(ctx, actor.ID, free); err != nil {
			logger.Warn("Failed to remove free courses from cart", map[string]interface{}{"user_id": actor.ID, "error": err.Error()})
		}
		response.Enrolled = free
		logger.Info("Enrolled in free courses", map[string]interface{}{"user_id": actor.ID, "courses": free})
	}

	if len(paid) == 0 {
		return response, nil
	}

	session, err := s.createSession(ctx, actor, paid)
	if err != nil {
		return nil, err
	}
	response.SessionID = session.ID
	response.CheckoutURL = session.URL
	return response, nil
}

func effectivePrice(item models.CartItem) int64 {
	if item.DiscountPriceCents != nil && *item.DiscountPriceCents < item.PriceCents {
		return *item.DiscountPriceCents
	}
	return item.PriceCents
}

func (s *CheckoutService) createSession(ctx context.Context, actor Actor, items []models.CartItem) (*payments.Session, error) {
	ids := make([]string, 0, len(items))
	lineItems := make([]payments.LineItem, 0, len(items))
	for _, item := range items {
		ids = append(ids, strconv.FormatUint(uint64(item.CourseID), 10))
		lineItems = append(lineItems, payments.LineItem{
			Name:        item.Title,
			AmountCents: effectivePrice(item),
			Quantity:    1,
			Currency:    s.config.Currency,
		})
	}

	params := payments.CheckoutParams{
		Mode:              payments.ModePayment,
		SuccessURL:        s.config.SuccessURL,
		CancelURL:         s.config.CancelURL,
		ClientReferenceID: strconv.FormatUint(uint64(actor.ID), 10),
		Metadata: map[string]string{
			"user_id":    strconv.FormatUint(uint64(actor.ID), 10),
			"course_ids": strings.Join(ids, ","),
		},
		LineItems: lineItems,
	}
	if s.userRepo != nil {
		if user, err := s.userRepo.GetByID(actor.ID); err == nil {
			params.CustomerEmail = user.Email
		}
	}

	session, err := s.provider.CreateCheckoutSession(ctx, params)
	if err != nil {
		logger.Error(err, "Failed to create checkout session with provider", map[string]interface{}{"user_id": actor.ID})
		return nil, err
	}

	logger.Info("Checkout session ready", map[string]interface{}{
		"user_id":    actor.ID,
		"session_id": session.ID,
		"courses":    params.Metadata["course_ids"],
	})
	return session, nil
}

// HandleWebhook verifies a Stripe notification and grants the purchased
// courses. Replays are harmless.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s == nil || s.enrollRepo == nil {
		return errors.New("checkout service is not configured")
	}
	if err := stripe.VerifyWebhookSignature(payload, signature, s.config.WebhookSecret, stripe.DefaultTolerance); err != nil {
		logger.Warn("Rejected checkout webhook", map[string]interface{}{"error": err.Error()})
		return ErrInvalidWebhook
	}

	event, err := stripe.ParseEvent(payload)
	if err != nil {
		return newValidationError("%v", err)
	}
	if event.Type != payments.EventCheckoutCompleted {
		logger.Debug("Ignoring checkout webhook", map[string]interface{}{"event_id": event.ID, "type": event.Type})
		return nil
	}
	if !event.Session.Paid() {
		logger.Info("Checkout completed without payment yet", map[string]interface{}{"session_id": event.Session.ID})
		return nil
	}

	userID, courseIDs, err := parseSessionMetadata(event.Session.Metadata)
	if err != nil {
		return newValidationError("%v", err)
	}

	courses, err := s.courseRepo.GetByIDs(courseIDs)
	if err != nil {
		return err
	}
	enrollments := make([]models.Enrollment, 0, len(courses))
	for _, course := range courses {
		enrollments = append(enrollments, models.Enrollment{
			UserID:         userID,
			CourseID:       course.ID,
			Source:         models.EnrollmentSourceStripe,
			PaidCents:      course.EffectivePriceCents(),
			Currency:       event.Session.Currency,
			PaymentSession: event.Session.ID,
		})
	}
	if err := s.enrollRepo.Grant(enrollments); err != nil {
		return err
	}

	if s.cart != nil {
		if err := s.cart.RemoveCourses(ctx, userID, courseIDs); err != nil {
			logger.Warn("Failed to clear purchased courses from cart", map[string]interface{}{"user_id": userID, "error": err.Error()})
		}
	}

	logger.Info("Checkout completed", map[string]interface{}{
		"session_id": event.Session.ID,
		"user_id":    userID,
		"courses":    courseIDs,
	})
	return nil
}

func parseSessionMetadata(metadata map[string]string) (uint, []uint, error) {
	userID, err := strconv.ParseUint(strings.TrimSpace(metadata["user_id"]), 10, 64)
	if err != nil || userID == 0 {
		return 0, nil, fmt.Errorf("session metadata has no valid user_id")
	}
	var courseIDs []uint
	for _, raw := range strings.Split(metadata["course_ids"], ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return 0, nil, fmt.Errorf("session metadata has invalid course id %q", raw)
		}
		courseIDs = append(courseIDs, uint(id))
	}
	if len(courseIDs) == 0 {
		return 0, nil, fmt.Errorf("session metadata lists no courses")
	}
	return uint(userID), courseIDs, nil
}
