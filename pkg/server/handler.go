package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"intent-swap/pkg/chain"
	"intent-swap/pkg/execution"
	"intent-swap/pkg/solver"
	"intent-swap/pkg/types"
	"intent-swap/pkg/wallet"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Handler serves the intent swap API
type Handler struct {
	solver    *solver.Solver
	wallet    *wallet.Store
	executor  *execution.Executor
	logger    *logrus.Logger
	startTime time.Time
}

// NewHandler wires the API to its services
func NewHandler(s *solver.Solver, w *wallet.Store, ex *execution.Executor, logger *logrus.Logger) *Handler {
	return &Handler{
		solver:    s,
		wallet:    w,
		executor:  ex,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Solve generates routes for an intent
// POST /api/v1/solve
func (h *Handler) Solve(c *gin.Context) {
	requestID := c.GetString("request_id")
	startTime := time.Now()

	var in types.Intent
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := in.Validate(); err != nil {
		h.writeError(c, err)
		return
	}

	routes, err := h.solver.GenerateRoutes(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	meta := map[string]interface{}{
		"processing_time": time.Since(startTime).Milliseconds(),
		"route_count":     len(routes),
	}
	if len(routes) > 0 {
		meta["best_route"] = routes[0].ID
	}

	h.ok(c, routes, meta)
	h.logger.Debugf("[%s] solved %s -> %s with %d routes", requestID, in.Give.Token, in.Want.Token, len(routes))
}

// Tokens lists the reference price table
// GET /api/v1/tokens
func (h *Handler) Tokens(c *gin.Context) {
	h.ok(c, solver.Tokens(), nil)
}

// Chains lists the supported chains
// GET /api/v1/chains
func (h *Handler) Chains(c *gin.Context) {
	h.ok(c, chain.All(), nil)
}

// Wallet returns connection state and balances
// GET /api/v1/wallet
func (h *Handler) Wallet(c *gin.Context) {
	h.ok(c, h.walletView(), nil)
}

// ConnectWallet simulates connecting the wallet
// POST /api/v1/wallet/connect
func (h *Handler) ConnectWallet(c *gin.Context) {
	if err := h.wallet.Connect(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	h.ok(c, h.walletView(), nil)
}

// DisconnectWallet drops the wallet
// POST /api/v1/wallet/disconnect
func (h *Handler) DisconnectWallet(c *gin.Context) {
	if err := h.wallet.Disconnect(); err != nil {
		h.writeError(c, err)
		return
	}
	h.ok(c, h.walletView(), nil)
}

// Execute regenerates the routes of an intent and executes one of them
// POST /api/v1/execute
func (h *Handler) Execute(c *gin.Context) {
	requestID := c.GetString("request_id")

	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	routes, err := solver.Generate(*req.Intent)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if len(routes) == 0 {
		h.fail(c, http.StatusUnprocessableEntity, ErrCodeNoRoutes, "no route can fill this intent on the preferred chains", nil)
		return
	}

	route := routes[0]
	if req.RouteID != "" {
		found := false
		for _, r := range routes {
			if r.ID == req.RouteID {
				route, found = r, true
				break
			}
		}
		if !found {
			available := make([]string, 0, len(routes))
			for _, r := range routes {
				available = append(available, r.ID)
			}
			h.fail(c, http.StatusNotFound, ErrCodeRouteNotFound, "route "+req.RouteID+" is not available for this intent",
				map[string]interface{}{"available": available})
			return
		}
	}

	receipt, err := h.executor.Execute(c.Request.Context(), execution.Request{
		Intent:    *req.Intent,
		Route:     route,
		Recipient: req.Recipient,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.ok(c, ExecuteResponse{Receipt: receipt, Route: route}, map[string]interface{}{
		"duration_ms": receipt.Duration().Milliseconds(),
	})
	h.logger.Infof("[%s] executed %s as %s", requestID, route.ID, receipt.ID)
}

// Executions lists past executions, newest first
// GET /api/v1/executions
func (h *Handler) Executions(c *gin.Context) {
	history := h.executor.History()
	h.ok(c, history, map[string]interface{}{"count": len(history)})
}

// Metrics reports solver and executor counters
// GET /api/v1/metrics
func (h *Handler) Metrics(c *gin.Context) {
	h.ok(c, MetricsResponse{
		Solver:     h.solver.GetMetrics(),
		Executions: len(h.executor.History()),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
	}, nil)
}

// HealthCheck reports liveness
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

func (h *Handler) walletView() WalletResponse {
	balances := h.wallet.Balances()
	return WalletResponse{
		Connected: h.wallet.IsConnected(),
		Balances:  balances,
		ValueUSD:  solver.PortfolioValue(balances),
	}
}

func (h *Handler) ok(c *gin.Context, data, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success:   true,
		Data:      data,
		Meta:      meta,
		Timestamp: time.Now().Unix(),
		RequestID: c.GetString("request_id"),
	})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.logger.Warnf("[%s] invalid request body: %v", c.GetString("request_id"), err)
	h.fail(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body",
		map[string]interface{}{"error": err.Error()})
}

func (h *Handler) fail(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now().Unix(),
		RequestID: c.GetString("request_id"),
	})
}

// writeError maps service errors to a status and error code.
func (h *Handler) writeError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")
	status, code := classify(err)

	if status >= 500 {
		h.logger.Errorf("[%s] request failed: %v", requestID, err)
		h.fail(c, status, code, "internal server error", nil)
		return
	}

	h.logger.Warnf("[%s] request rejected: %v", requestID, err)
	h.fail(c, status, code, err.Error(), nil)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrInvalidIntent), errors.Is(err, execution.ErrInvalidAmount):
		return http.StatusBadRequest, ErrCodeInvalidIntent
	case errors.Is(err, chain.ErrInvalidAddress), errors.Is(err, chain.ErrUnknownChain):
		return http.StatusBadRequest, ErrCodeInvalidAddress
	case errors.Is(err, wallet.ErrNotConnected):
		return http.StatusConflict, ErrCodeWalletNotConnected
	case errors.Is(err, wallet.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, ErrCodeInsufficientBalance
	case errors.Is(err, execution.ErrBelowMinimum):
		return http.StatusUnprocessableEntity, ErrCodeBelowMinimum
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeRequestTimeout
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}
