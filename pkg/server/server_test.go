package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intent-swap/config"
	"intent-swap/pkg/execution"
	"intent-swap/pkg/logging"
	"intent-swap/pkg/solver"
	"intent-swap/pkg/wallet"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success   bool                   `json:"success"`
	Data      json.RawMessage        `json:"data"`
	Error     *APIError              `json:"error"`
	Meta      map[string]interface{} `json:"meta"`
	RequestID string                 `json:"request_id"`
}

func newTestServer(t *testing.T, rl config.RateLimitConfig) (*Server, *wallet.Store) {
	t.Helper()
	logger := logging.Discard()

	w, err := wallet.NewStore("", 0, logger)
	require.NoError(t, err)

	h := NewHandler(solver.NewSolver(0, logger), w, execution.NewExecutor(w, 0, logger), logger)
	return New(config.ServerConfig{Port: 8080, Environment: "test", RateLimit: rl}, h, logger), w
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Code != http.StatusOK || path != "/health" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, config.RateLimitConfig{})
	rec, _ := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestSolve(t *testing.T) {
	s, _ := newTestServer(t, config.RateLimitConfig{})

	body := `{"give":{"token":"USDC","amount":1000},"want":{"token":"ETH"},
		"preferences":{"maxSlippage":1,"preferredChains":["ethereum","arbitrum","optimism"],
		"privacyLevel":"high","timePreference":"balanced"}}`
	rec, env := do(t, s, http.MethodPost, "/api/v1/solve", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.Success)

	var routes []struct {
		ID              string  `json:"id"`
		ExpectedReceive float64 `json:"expectedReceive"`
		PrivacyScore    int     `json:"privacyScore"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &routes))

	ids := make([]string, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"arbitrum-route", "optimism-route", "ethereum-direct"}, ids)
	assert.InDelta(t, 0.40714, routes[0].ExpectedReceive, 1e-5)
	assert.Equal(t, 85, routes[0].PrivacyScore)
	assert.Equal(t, "arbitrum-route", env.Meta["best_route"])
	assert.EqualValues(t, 3, env.Meta["route_count"])
}

func TestSolve_EmptyChains(t *testing.T) {
	s, _ := newTestServer(t, config.RateLimitConfig{})

	rec, env := do(t, s, http.MethodPost, "/api/v1/solve",
		`{"give":{"token":"ETH","amount":1},"want":{"token":"USDC"},"preferences":{"preferredChains":[]}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestSolve_BadInput(t *testing.T) {
	s, _ := newTestServer(t, config.RateLimitConfig{})

	rec, env := do(t, s, http.MethodPost, "/api/v1/solve", `{"give":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeInvalidRequest, env.Error.Code)

	rec, env = do(t, s, http.MethodPost, "/api/v1/solve", `{"give":{"token":"","amount":1},"want":{"token":"ETH"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeInvalidIntent, env.Error.Code)

	rec, env = do(t, s, http.MethodPost, "/api/v1/solve",
		`{"give":{"token":"ETH","amount":1},"want":{"token":"USDC"},"preferences":{"privacyLevel":"max"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeInvalidIntent, env.Error.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	s, _ := newTestServer(t, config.RateLimitConfig{})

	rec, env := do(t, s, http.MethodGet, "/api/v1/tokens", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tokens []solver.TokenPrice
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	assert.Len(t, tokens, 6)

	rec, env = do(t, s, http.MethodGet, "/api/v1/chains", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var chains []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &chains))
	assert.Len(t, chains, 5)
}

func TestWalletLifecycle(t *testing.T) {
	s, _ := newTestServer(t, config.RateLimitConfig{})

	_, env := do(t, s, http.MethodGet, "/api/v1/wallet", "")
	var view WalletResponse
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.False(t, view.Connected)
	assert.Empty(t, view.Balances)

	rec, env := do(t, s, http.MethodPost, "/api/v1/wallet/connect", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.True(t, view.Connected)
	assert.Equal(t, "5.234", view.Balances["ETH"].String())
	// 5.234*2450 + 1250.5 + 750.25 + 500 + 12.8*145 + 2500*0.65
	assert.Equal(t, "18805.05", view.ValueUSD.StringFixed(2))

	rec, env = do(t, s, http.MethodPost, "/api/v1/wallet/disconnect", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.False(t, view.Connected)
}

func TestExecute(t *testing.T) {
	s, w := newTestServer(t, config.RateLimitConfig{})

	intent := `{"give":{"token":"ETH","amount":1},"want":{"token":"USDC"},
		"preferences":{"preferredChains":["ethereum","arbitrum"]}}`

	rec, env := do(t, s, http.MethodPost, "/api/v1/execute", `{"intent":`+intent+`}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrCodeWalletNotConnected, env.Error.Code)

	require.NoError(t, w.Connect(context.Background()))

	rec, env = do(t, s, http.MethodPost, "/api/v1/execute", `{"intent":`+intent+`,"route_id":"ethereum-direct"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Receipt execution.Receipt `json:"receipt"`
		Route   struct {
			ID string `json:"id"`
		} `json:"route"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "ethereum-direct", resp.Route.ID)
	assert.Equal(t, execution.StatusCompleted, resp.Receipt.Status)
	assert.Equal(t, "4.234", w.Balance("ETH").String())

	// without route_id the best route runs
	rec, env = do(t, s, http.MethodPost, "/api/v1/execute", `{"intent":`+intent+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "arbitrum-route", resp.Route.ID)

	rec, env = do(t, s, http.MethodGet, "/api/v1/executions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []execution.Receipt
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "arbitrum-route", history[0].RouteID)
	assert.Equal(t, "ethereum-direct", history[1].RouteID)
}

func TestExecute_Errors(t *testing.T) {
	s, w := newTestServer(t, config.RateLimitConfig{})
	require.NoError(t, w.Connect(context.Background()))

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing intent", `{}`, http.StatusBadRequest, ErrCodeInvalidRequest},
		{"no routes", `{"intent":{"give":{"token":"ETH","amount":1},"want":{"token":"USDC"},"preferences":{"preferredChains":[]}}}`,
			http.StatusUnprocessableEntity, ErrCodeNoRoutes},
		{"unknown route", `{"intent":{"give":{"token":"ETH","amount":1},"want":{"token":"USDC"}},"route_id":"solana-route"}`,
			http.StatusNotFound, ErrCodeRouteNotFound},
		{"zero amount", `{"intent":{"give":{"token":"ETH","amount":0},"want":{"token":"USDC"}}}`,
			http.StatusBadRequest, ErrCodeInvalidIntent},
		{"over balance", `{"intent":{"give":{"token":"ETH","amount":50},"want":{"token":"USDC"}}}`,
			http.StatusUnprocessableEntity, ErrCodeInsufficientBalance},
		{"below minimum", `{"intent":{"give":{"token":"ETH","amount":1},"want":{"token":"USDC","minAmount":5000}}}`,
			http.StatusUnprocessableEntity, ErrCodeBelowMinimum},
		{"bad recipient", `{"intent":{"give":{"token":"ETH","amount":1},"want":{"token":"USDC"}},"recipient":"nope"}`,
			http.StatusBadRequest, ErrCodeInvalidAddress},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := do(t, s, http.MethodPost, "/api/v1/execute", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
			assert.False(t, env.Success)
		})
	}

	assert.Equal(t, "5.234", w.Balance("ETH").String())
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t, config.RateLimitConfig{})
	do(t, s, http.MethodPost, "/api/v1/solve", `{"give":{"token":"ETH","amount":1},"want":{"token":"USDC"}}`)

	rec, env := do(t, s, http.MethodGet, "/api/v1/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var metrics struct {
		Solver struct {
			TotalRequests  int64 `json:"total_requests"`
			RoutesReturned int64 `json:"routes_returned"`
		} `json:"solver"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &metrics))
	assert.EqualValues(t, 1, metrics.Solver.TotalRequests)
	assert.EqualValues(t, 1, metrics.Solver.RoutesReturned)
}

func TestRequestIDPassthrough(t *testing.T) {
	s, _ := newTestServer(t, config.RateLimitConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tokens", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "req-123", env.RequestID)
}

func TestRateLimit(t *testing.T) {
	s, _ := newTestServer(t, config.RateLimitConfig{Enabled: true, Requests: 2, Per: time.Minute})

	for i := 0; i < 2; i++ {
		rec, _ := do(t, s, http.MethodGet, "/api/v1/chains", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, env := do(t, s, http.MethodGet, "/api/v1/chains", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, ErrCodeRateLimitExceeded, env.Error.Code)

	// health is outside the limited group
	rec, _ = do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), Recovery(logging.Discard()))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, ErrCodeInternalError, env.Error.Code)
}
