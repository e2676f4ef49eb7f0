package settlement

// Outcome status values per settled listing.
const (
	OutcomeSold  = "sold"
	OutcomeEnded = "ended"
	OutcomeError = "error"
)

// No-sale reasons reported to the seller.
const (
	ReasonNoBids        = "no_bids"
	ReasonReserveNotMet = "reserve_not_met"
)

// Result is the per-listing outcome of one settlement batch run.
type Result struct {
	ListingID  uint    `json:"listing_id"`
	Status     string  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
	InvoiceID  uint    `json:"invoice_id,omitempty"`
	SaleAmount float64 `json:"sale_amount,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// BatchResult summarizes one batch run over all candidate listings.
type BatchResult struct {
	Processed int      `json:"processed"`
	Results   []Result `json:"results"`
}
