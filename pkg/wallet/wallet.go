// Package wallet holds the simulated wallet: a balance store that callers
// own and pass around explicitly, persisted to a local JSON file.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultConnectDelay is the simulated wallet connection latency.
const DefaultConnectDelay = 1500 * time.Millisecond

var (
	ErrNotConnected        = errors.New("wallet not connected")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// InitialBalances returns the balances a freshly connected wallet starts with.
func InitialBalances() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"ETH":   decimal.RequireFromString("5.234"),
		"USDC":  decimal.RequireFromString("1250.5"),
		"DAI":   decimal.RequireFromString("750.25"),
		"USDT":  decimal.RequireFromString("500"),
		"SOL":   decimal.RequireFromString("12.8"),
		"MATIC": decimal.RequireFromString("2500"),
	}
}

// EventType identifies what changed in the wallet.
type EventType string

const (
	EventConnected      EventType = "connected"
	EventDisconnected   EventType = "disconnected"
	EventBalanceChanged EventType = "balance_changed"
)

// Event is published to subscribers after every state change
type Event struct {
	Type     EventType                  `json:"type"`
	Token    string                     `json:"token,omitempty"`
	Delta    decimal.Decimal            `json:"delta"`
	Balances map[string]decimal.Decimal `json:"balances"`
	Time     time.Time                  `json:"time"`
}

// Store is the wallet balance store. It is safe for concurrent use.
type Store struct {
	storage      fileStorage
	connectDelay time.Duration
	logger       *logrus.Logger

	mu        sync.RWMutex
	connected bool
	balances  map[string]decimal.Decimal

	subMu       sync.Mutex
	subscribers map[int]chan Event
	nextSubID   int
}

// NewStore opens the wallet persisted at filePath (empty for memory only).
// A previously connected wallet comes back connected with its balances.
func NewStore(filePath string, connectDelay time.Duration, logger *logrus.Logger) (*Store, error) {
	if connectDelay < 0 {
		connectDelay = 0
	}

	s := &Store{
		storage:      fileStorage{filePath: filePath},
		connectDelay: connectDelay,
		logger:       logger,
		balances:     make(map[string]decimal.Decimal),
		subscribers:  make(map[int]chan Event),
	}

	wf, err := s.storage.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if wf != nil && wf.Connected {
		s.connected = true
		s.balances = wf.Balances
	}

	return s, nil
}

// Connect simulates connecting the wallet. Connecting an already connected
// wallet returns immediately.
func (s *Store) Connect(ctx context.Context) error {
	if s.IsConnected() {
		return nil
	}

	if s.connectDelay > 0 {
		timer := time.NewTimer(s.connectDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return nil
	}

	s.balances = InitialBalances()
	s.connected = true
	if err := s.persistLocked(); err != nil {
		s.connected = false
		s.balances = make(map[string]decimal.Decimal)
		s.mu.Unlock()
		return err
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Infof("wallet connected with %d balances", len(snapshot))
	s.publish(Event{Type: EventConnected, Balances: snapshot, Time: time.Now()})
	return nil
}

// Disconnect drops the balances and the persisted wallet file.
func (s *Store) Disconnect() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}

	if err := s.storage.remove(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.connected = false
	s.balances = make(map[string]decimal.Decimal)
	s.mu.Unlock()

	s.logger.Info("wallet disconnected")
	s.publish(Event{Type: EventDisconnected, Balances: map[string]decimal.Decimal{}, Time: time.Now()})
	return nil
}

// IsConnected reports whether the wallet is connected.
func (s *Store) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Balances returns a copy of all balances.
func (s *Store) Balances() map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Balance returns the balance of one token; unknown tokens hold zero.
func (s *Store) Balance(token string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[token]
}

// Tokens returns the held token symbols sorted alphabetically.
func (s *Store) Tokens() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := make([]string, 0, len(s.balances))
	for token := range s.balances {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// Adjust adds delta to a token balance, clamping the result at zero, and
// returns the new balance.
func (s *Store) Adjust(token string, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return decimal.Zero, ErrNotConnected
	}

	prev := s.balances[token]
	next := s.applyLocked(token, delta)
	if err := s.persistLocked(); err != nil {
		s.balances[token] = prev
		s.mu.Unlock()
		return decimal.Zero, err
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(Event{Type: EventBalanceChanged, Token: token, Delta: delta, Balances: snapshot, Time: time.Now()})
	return next, nil
}

// Swap debits giveAmount of give and credits receiveAmount of want as one
// change. It fails without touching balances when give is short.
func (s *Store) Swap(give string, giveAmount decimal.Decimal, want string, receiveAmount decimal.Decimal) error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return ErrNotConnected
	}

	available := s.balances[give]
	if giveAmount.GreaterThan(available) {
		s.mu.Unlock()
		return fmt.Errorf("%w: have %s %s, need %s", ErrInsufficientBalance, available.String(), give, giveAmount.String())
	}

	prevGive, prevWant := s.balances[give], s.balances[want]
	s.applyLocked(give, giveAmount.Neg())
	s.applyLocked(want, receiveAmount)
	if err := s.persistLocked(); err != nil {
		s.balances[give], s.balances[want] = prevGive, prevWant
		s.mu.Unlock()
		return err
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	now := time.Now()
	s.publish(Event{Type: EventBalanceChanged, Token: give, Delta: giveAmount.Neg(), Balances: snapshot, Time: now})
	s.publish(Event{Type: EventBalanceChanged, Token: want, Delta: receiveAmount, Balances: snapshot, Time: now})
	return nil
}

// Subscribe registers a listener for wallet events. Events are dropped for
// a subscriber whose buffer is full. The returned function unsubscribes and
// closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for id, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			s.logger.Debugf("dropping wallet event %s for slow subscriber %d", ev.Type, id)
		}
	}
}

// applyLocked must be called with mu held.
func (s *Store) applyLocked(token string, delta decimal.Decimal) decimal.Decimal {
	next := s.balances[token].Add(delta)
	if next.IsNegative() {
		next = decimal.Zero
	}
	s.balances[token] = next
	return next
}

func (s *Store) snapshotLocked() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.balances))
	for token, amount := range s.balances {
		out[token] = amount
	}
	return out
}

func (s *Store) persistLocked() error {
	return s.storage.save(&walletFile{
		Connected: s.connected,
		Balances:  s.balances,
	})
}
