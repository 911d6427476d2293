package server

import (
	"time"

	"github.com/shopspring/decimal"

	"intent-swap/pkg/execution"
	"intent-swap/pkg/solver"
	"intent-swap/pkg/types"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// Error codes
const (
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeInvalidIntent       = "INVALID_INTENT"
	ErrCodeNoRoutes            = "NO_ROUTES"
	ErrCodeRouteNotFound       = "ROUTE_NOT_FOUND"
	ErrCodeWalletNotConnected  = "WALLET_NOT_CONNECTED"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeBelowMinimum        = "BELOW_MINIMUM"
	ErrCodeInvalidAddress      = "INVALID_ADDRESS"
	ErrCodeRequestTimeout      = "REQUEST_TIMEOUT"
	ErrCodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// APIResponse is the envelope every endpoint answers with
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Timestamp int64       `json:"timestamp"`
	RequestID string      `json:"request_id"`
}

// APIError describes a failed request
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ExecuteRequest asks to execute one route of an intent. Without RouteID
// the best route is used.
type ExecuteRequest struct {
	Intent    *types.Intent `json:"intent" binding:"required"`
	RouteID   string        `json:"route_id,omitempty"`
	Recipient string        `json:"recipient,omitempty"`
}

// WalletResponse is the wallet view returned by the wallet endpoints
type WalletResponse struct {
	Connected bool                       `json:"connected"`
	Balances  map[string]decimal.Decimal `json:"balances"`
	ValueUSD  decimal.Decimal            `json:"value_usd"`
}

// ExecuteResponse pairs the receipt with the route it executed
type ExecuteResponse struct {
	Receipt *execution.Receipt `json:"receipt"`
	Route   types.Route        `json:"route"`
}

// MetricsResponse reports service counters
type MetricsResponse struct {
	Solver     *solver.Metrics `json:"solver"`
	Executions int             `json:"executions"`
	Uptime     string          `json:"uptime"`
}

// HealthResponse is returned by /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}
