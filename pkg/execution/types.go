package execution

import (
	"time"

	"github.com/shopspring/decimal"

	"intent-swap/pkg/types"
)

// Status defines the outcome of a single execution
type Status string

const (
	StatusCompleted Status = "completed" // Balances were updated
	StatusFailed    Status = "failed"    // Aborted after the swap was submitted
)

// Request is one route the user chose to execute for an intent.
type Request struct {
	Intent    types.Intent `json:"intent"`
	Route     types.Route  `json:"route"`
	Recipient string       `json:"recipient,omitempty"` // Optional address on the destination chain
}

// Receipt records an executed (or failed) swap.
type Receipt struct {
	ID            string          `json:"id"`
	RouteID       string          `json:"route_id"`
	GiveToken     string          `json:"give_token"`
	GiveAmount    decimal.Decimal `json:"give_amount"`
	WantToken     string          `json:"want_token"`
	ReceiveAmount decimal.Decimal `json:"receive_amount"`
	Fees          decimal.Decimal `json:"fees"`
	Chains        []string        `json:"chains"`
	Steps         []string        `json:"steps"`
	Recipient     string          `json:"recipient,omitempty"`
	Status        Status          `json:"status"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	SubmittedAt   time.Time       `json:"submitted_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// IsCompleted returns true if balances were updated for this receipt
func (r *Receipt) IsCompleted() bool {
	return r.Status == StatusCompleted
}

// Duration is how long the execution took, zero while unfinished.
func (r *Receipt) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.SubmittedAt)
}
