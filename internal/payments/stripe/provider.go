package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"coursehub-backend/internal/payments"
)

const defaultAPIBase = "https://api.stripe.com"

// Provider implements payments.Provider for Stripe Checkout over the REST API.
type Provider struct {
	secretKey string
	client    *resty.Client
}

// NewProvider constructs a Stripe provider. An empty apiBaseURL selects the
// public Stripe endpoint.
func NewProvider(secretKey, apiBaseURL string) (*Provider, error) {
	key := strings.TrimSpace(secretKey)
	if key == "" {
		return nil, errors.New("stripe secret key is required")
	}
	base := strings.TrimRight(strings.TrimSpace(apiBaseURL), "/")
	if base == "" {
		base = defaultAPIBase
	}

	client := resty.New().
		SetBaseURL(base).
		SetTimeout(10*time.Second).
		SetAuthToken(key).
		SetHeader("User-Agent", "coursehub-backend/stripe-checkout")

	return &Provider{secretKey: key, client: client}, nil
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type sessionPayload struct {
	ID                string            `json:"id"`
	URL               string            `json:"url"`
	Status            string            `json:"status"`
	PaymentStatus     string            `json:"payment_status"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	Metadata          map[string]string `json:"metadata"`
	CustomerEmail     string            `json:"customer_email"`
	ClientReferenceID string            `json:"client_reference_id"`
	CustomerDetails   struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

func (p sessionPayload) details() *payments.SessionDetails {
	email := p.CustomerEmail
	if email == "" {
		email = p.CustomerDetails.Email
	}
	return &payments.SessionDetails{
		ID:            p.ID,
		Status:        p.Status,
		PaymentStatus: p.PaymentStatus,
		AmountTotal:   p.AmountTotal,
		Currency:      p.Currency,
		Metadata:      p.Metadata,
		CustomerEmail: email,
	}
}

func buildCheckoutForm(params payments.CheckoutParams) (url.Values, error) {
	if len(params.LineItems) == 0 {
		return nil, errors.New("at least one line item is required")
	}

	form := url.Values{}
	mode := params.Mode
	if mode == "" {
		mode = payments.ModePayment
	}
	form.Set("mode", string(mode))
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)

	if email := strings.TrimSpace(params.CustomerEmail); email != "" {
		form.Set("customer_email", email)
	}
	if ref := strings.TrimSpace(params.ClientReferenceID); ref != "" {
		form.Set("client_reference_id", ref)
	}
	for key, value := range params.Metadata {
		if key == "" || value == "" {
			continue
		}
		form.Set("metadata["+key+"]", value)
	}

	for index, item := range params.LineItems {
		if item.AmountCents <= 0 {
			return nil, fmt.Errorf("line item %q has invalid amount", item.Name)
		}
		currency := strings.ToLower(strings.TrimSpace(item.Currency))
		if currency == "" {
			return nil, fmt.Errorf("line item %q currency is required", item.Name)
		}
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		prefix := fmt.Sprintf("line_items[%d]", index)
		form.Set(prefix+"[quantity]", strconv.FormatInt(quantity, 10))
		form.Set(prefix+"[price_data][currency]", currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.AmountCents, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if desc := strings.TrimSpace(item.Description); desc != "" {
			form.Set(prefix+"[price_data][product_data][description]", desc)
		}
	}
	return form, nil
}

func responseError(resp *resty.Response) error {
	message := ""
	if apiErr, ok := resp.Error().(*stripeError); ok && apiErr != nil {
		message = strings.TrimSpace(apiErr.Error.Message)
	}
	if message == "" {
		message = fmt.Sprintf("stripe returned status %d", resp.StatusCode())
	}
	return errors.New(message)
}

// CreateCheckoutSession creates a Stripe Checkout session for the cart.
func (p *Provider) CreateCheckoutSession(ctx context.Context, params payments.CheckoutParams) (*payments.Session, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("stripe provider is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	form, err := buildCheckoutForm(params)
	if err != nil {
		return nil, err
	}

	var payload sessionPayload
	resp, err := p.client.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		SetResult(&payload).
		SetError(&stripeError{}).
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}
	if payload.ID == "" || payload.URL == "" {
		return nil, errors.New("stripe response missing session details")
	}

	return &payments.Session{ID: payload.ID, URL: payload.URL}, nil
}

// GetCheckoutSession fetches the current state of a session.
func (p *Provider) GetCheckoutSession(ctx context.Context, sessionID string) (*payments.SessionDetails, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("stripe provider is not configured")
	}
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, errors.New("session id is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var payload sessionPayload
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&payload).
		SetError(&stripeError{}).
		Get("/v1/checkout/sessions/{id}")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}
	return payload.details(), nil
}
