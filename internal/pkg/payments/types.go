package payments

// Event types delivered by the payment provider that this service
// handles. Anything else is acknowledged and ignored.
const (
	EventPaymentSucceeded = "payment.succeeded"
)

// Event is the decoded webhook payload from the payment provider.
type Event struct {
	ID        string  `json:"id" validate:"required"`
	Type      string  `json:"type" validate:"required"`
	InvoiceID uint    `json:"invoice_id" validate:"required"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Method    string  `json:"method"`
	Provider  string  `json:"provider"`
}

// Result reports how an event was handled. Skipped is true when the
// event changed nothing: a replayed event id, an unhandled type, or an
// invoice that already left pending.
type Result struct {
	EventID   string `json:"event_id"`
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
	InvoiceID uint   `json:"invoice_id,omitempty"`
}
