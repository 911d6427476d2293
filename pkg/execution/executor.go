// Package execution applies a chosen route to the simulated wallet.
package execution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"intent-swap/pkg/chain"
	"intent-swap/pkg/wallet"
)

// DefaultDelay is the simulated time for a swap to settle.
const DefaultDelay = 2000 * time.Millisecond

var (
	ErrInvalidAmount = errors.New("amount must be greater than 0")
	ErrInvalidRoute  = errors.New("invalid route")
	ErrBelowMinimum  = errors.New("route receives less than the minimum amount")
)

// Wallet is the balance store the executor settles against.
type Wallet interface {
	IsConnected() bool
	Balance(token string) decimal.Decimal
	Swap(give string, giveAmount decimal.Decimal, want string, receiveAmount decimal.Decimal) error
}

// Executor runs swaps one at a time and keeps their receipts.
type Executor struct {
	wallet Wallet
	delay  time.Duration
	logger *logrus.Logger

	mu      sync.Mutex
	histMu  sync.RWMutex
	history []*Receipt
}

// NewExecutor creates an executor settling against w after delay.
func NewExecutor(w Wallet, delay time.Duration, logger *logrus.Logger) *Executor {
	if delay < 0 {
		delay = 0
	}
	return &Executor{
		wallet: w,
		delay:  delay,
		logger: logger,
	}
}

// Execute validates the request against the wallet, waits for the swap to
// settle and moves the balances. Validation failures return before any
// waiting and leave no receipt.
func (e *Executor) Execute(ctx context.Context, req Request) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	giveAmount, receiveAmount, recipient, err := e.validate(req)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		ID:            uuid.New().String(),
		RouteID:       req.Route.ID,
		GiveToken:     req.Intent.Give.Token,
		GiveAmount:    giveAmount,
		WantToken:     req.Intent.Want.Token,
		ReceiveAmount: receiveAmount,
		Fees:          decimal.NewFromFloat(req.Route.Fees),
		Chains:        append([]string(nil), req.Route.Chains...),
		Steps:         append([]string(nil), req.Route.Steps...),
		Recipient:     recipient,
		SubmittedAt:   time.Now(),
	}

	log := e.logger.WithFields(logrus.Fields{
		"execution_id": receipt.ID,
		"route":        receipt.RouteID,
		"give":         receipt.GiveAmount.String() + " " + receipt.GiveToken,
		"receive":      receipt.ReceiveAmount.String() + " " + receipt.WantToken,
	})
	log.Info("executing swap")

	if err := wait(ctx, e.delay); err != nil {
		e.fail(receipt, err)
		log.WithError(err).Warn("swap aborted")
		return receipt, err
	}

	if err := e.wallet.Swap(receipt.GiveToken, giveAmount, receipt.WantToken, receiveAmount); err != nil {
		e.fail(receipt, err)
		log.WithError(err).Error("swap settlement failed")
		return receipt, fmt.Errorf("failed to settle swap: %w", err)
	}

	completed := time.Now()
	receipt.Status = StatusCompleted
	receipt.CompletedAt = &completed
	e.record(receipt)

	log.WithField("duration", receipt.Duration()).Info("swap completed")
	return receipt, nil
}

// History returns all receipts, newest first.
func (e *Executor) History() []Receipt {
	e.histMu.RLock()
	defer e.histMu.RUnlock()

	out := make([]Receipt, 0, len(e.history))
	for i := len(e.history) - 1; i >= 0; i-- {
		out = append(out, *e.history[i])
	}
	return out
}

func (e *Executor) validate(req Request) (decimal.Decimal, decimal.Decimal, string, error) {
	if !e.wallet.IsConnected() {
		return decimal.Zero, decimal.Zero, "", wallet.ErrNotConnected
	}

	if err := req.Intent.Validate(); err != nil {
		return decimal.Zero, decimal.Zero, "", err
	}
	if req.Route.ID == "" {
		return decimal.Zero, decimal.Zero, "", fmt.Errorf("%w: route id is required", ErrInvalidRoute)
	}
	if len(req.Route.Chains) == 0 {
		return decimal.Zero, decimal.Zero, "", fmt.Errorf("%w: route %s touches no chain", ErrInvalidRoute, req.Route.ID)
	}
	if math.IsNaN(req.Route.ExpectedReceive) || math.IsInf(req.Route.ExpectedReceive, 0) || req.Route.ExpectedReceive < 0 {
		return decimal.Zero, decimal.Zero, "", fmt.Errorf("%w: expected receive must be a non-negative number", ErrInvalidRoute)
	}

	if req.Intent.Give.Amount <= 0 {
		return decimal.Zero, decimal.Zero, "", ErrInvalidAmount
	}
	giveAmount := decimal.NewFromFloat(req.Intent.Give.Amount)
	if available := e.wallet.Balance(req.Intent.Give.Token); giveAmount.GreaterThan(available) {
		return decimal.Zero, decimal.Zero, "", fmt.Errorf("%w: have %s %s, need %s",
			wallet.ErrInsufficientBalance, available.String(), req.Intent.Give.Token, giveAmount.String())
	}

	if minAmount := req.Intent.Want.MinAmount; minAmount != nil && req.Route.ExpectedReceive < *minAmount {
		return decimal.Zero, decimal.Zero, "", fmt.Errorf("%w: %s receives %g %s, minimum is %g",
			ErrBelowMinimum, req.Route.ID, req.Route.ExpectedReceive, req.Intent.Want.Token, *minAmount)
	}

	recipient := ""
	if req.Recipient != "" {
		addr, err := chain.ValidateAddress(req.Route.DestinationChain(), req.Recipient)
		if err != nil {
			return decimal.Zero, decimal.Zero, "", err
		}
		recipient = addr
	}

	return giveAmount, decimal.NewFromFloat(req.Route.ExpectedReceive), recipient, nil
}

func (e *Executor) fail(r *Receipt, err error) {
	completed := time.Now()
	r.Status = StatusFailed
	r.ErrorMessage = err.Error()
	r.CompletedAt = &completed
	e.record(r)
}

func (e *Executor) record(r *Receipt) {
	e.histMu.Lock()
	defer e.histMu.Unlock()
	e.history = append(e.history, r)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
