package payment

import "context"

// Line is one priced cart line sent to the payment provider.
type Line struct {
	Name       string
	UnitAmount int64
	Quantity   int
}

type CreateSessionRequest struct {
	ReferenceID   string
	CustomerEmail string
	Lines         []Line
	Metadata      map[string]string
}

// CheckoutSession is the provider-side session in normalized form.
type CheckoutSession struct {
	ID                string            `json:"id"`
	URL               string            `json:"url"`
	Status            string            `json:"status"`
	PaymentStatus     string            `json:"payment_status"`
	AmountTotal       int64             `json:"amount_total"`
	ClientReferenceID string            `json:"client_reference_id"`
	CustomerEmail     string            `json:"customer_email"`
	Metadata          map[string]string `json:"metadata"`
}

// Paid reports whether the provider considers the session settled.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid" || s.PaymentStatus == "no_payment_required"
}

type Gateway interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*CheckoutSession, error)
	GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}
