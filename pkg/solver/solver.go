// Package solver turns a trade intent into ranked candidate routes.
//
// There is no pathfinding here: a fixed catalog of route templates is
// filtered by the intent's preferred chains, priced at reference rates and
// sorted by expected output.
package solver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"intent-swap/pkg/types"
)

// DefaultDelay is the simulated solving latency.
const DefaultDelay = 1500 * time.Millisecond

// Generate derives the eligible routes for an intent, best expected output
// first. Routes with equal output keep catalog order.
func Generate(in types.Intent) ([]types.Route, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	prefs := in.ResolvedPreferences()
	routes := make([]types.Route, 0, len(catalog))
	for i := range catalog {
		tpl := &catalog[i]
		if !tpl.Eligible(&in, prefs.PreferredChains) {
			continue
		}
		routes = append(routes, tpl.Build(&in, prefs))
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].ExpectedReceive > routes[j].ExpectedReceive
	})

	return routes, nil
}

// Solver wraps Generate with a simulated network delay and request logging.
type Solver struct {
	delay   time.Duration
	logger  *logrus.Logger
	metrics *Metrics
}

// Metrics counts solver activity
type Metrics struct {
	TotalRequests   int64     `json:"total_requests"`
	FailedRequests  int64     `json:"failed_requests"`
	RoutesReturned  int64     `json:"routes_returned"`
	EmptyResults    int64     `json:"empty_results"`
	LastRequestTime time.Time `json:"last_request_time"`
	mutex           sync.RWMutex
}

// NewSolver creates a solver that waits delay before answering.
func NewSolver(delay time.Duration, logger *logrus.Logger) *Solver {
	if delay < 0 {
		delay = 0
	}
	return &Solver{
		delay:   delay,
		logger:  logger,
		metrics: &Metrics{},
	}
}

// GenerateRoutes waits the configured delay and then runs Generate.
// Cancelling ctx during the wait returns ctx.Err().
func (s *Solver) GenerateRoutes(ctx context.Context, in types.Intent) ([]types.Route, error) {
	startTime := time.Now()

	s.logger.WithFields(logrus.Fields{
		"give":   in.Give.Token,
		"want":   in.Want.Token,
		"amount": in.Give.Amount,
	}).Debug("solving intent")

	for _, symbol := range []string{in.Give.Token, in.Want.Token} {
		if _, known := LookupPrice(symbol); symbol != "" && !known {
			s.logger.Warnf("no reference price for %s, assuming 1", symbol)
		}
	}

	if err := sleep(ctx, s.delay); err != nil {
		s.record(0, err)
		return nil, err
	}

	routes, err := Generate(in)
	s.record(len(routes), err)
	if err != nil {
		return nil, fmt.Errorf("generate routes: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"routes":   len(routes),
		"duration": time.Since(startTime),
	}).Info("intent solved")

	return routes, nil
}

// GetMetrics returns a snapshot of the solver counters.
func (s *Solver) GetMetrics() *Metrics {
	s.metrics.mutex.RLock()
	defer s.metrics.mutex.RUnlock()

	return &Metrics{
		TotalRequests:   s.metrics.TotalRequests,
		FailedRequests:  s.metrics.FailedRequests,
		RoutesReturned:  s.metrics.RoutesReturned,
		EmptyResults:    s.metrics.EmptyResults,
		LastRequestTime: s.metrics.LastRequestTime,
	}
}

func (s *Solver) record(routes int, err error) {
	s.metrics.mutex.Lock()
	defer s.metrics.mutex.Unlock()

	s.metrics.TotalRequests++
	s.metrics.LastRequestTime = time.Now()
	switch {
	case err != nil:
		s.metrics.FailedRequests++
	case routes == 0:
		s.metrics.EmptyResults++
	default:
		s.metrics.RoutesReturned += int64(routes)
	}
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
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
