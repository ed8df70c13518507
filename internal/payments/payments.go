package payments

import "context"

// Mode represents the type of checkout session that should be created.
type Mode string

const (
	// ModePayment processes a one-time payment.
	ModePayment Mode = "payment"
)

// Event types the checkout webhook reacts to.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// LineItem is one course in a checkout session.
type LineItem struct {
	Name        string
	Description string
	AmountCents int64
	Quantity    int64
	Currency    string
}

// CheckoutParams encapsulates the parameters needed to create a checkout session.
type CheckoutParams struct {
	Mode              Mode
	SuccessURL        string
	CancelURL         string
	CustomerEmail     string
	ClientReferenceID string
	Metadata          map[string]string
	LineItems         []LineItem
}

// Session represents a checkout session created by a payment provider.
type Session struct {
	ID  string
	URL string
}

// SessionDetails is the state of a session as reported by the provider.
type SessionDetails struct {
	ID            string
	Status        string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	Metadata      map[string]string
	CustomerEmail string
}

// Paid reports whether the buyer has been charged.
func (d SessionDetails) Paid() bool {
	return d.PaymentStatus == "paid" || d.PaymentStatus == "no_payment_required"
}

// Event is a verified webhook notification.
type Event struct {
	ID      string
	Type    string
	Session SessionDetails
}

// Provider creates and inspects checkout sessions.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*Session, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*SessionDetails, error)
}
