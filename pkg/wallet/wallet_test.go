package wallet

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intent-swap/pkg/logging"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newConnectedStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallet.json")
	s, err := NewStore(path, 0, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, s.Connect(context.Background()))
	return s, path
}

func TestConnect_SeedsInitialBalances(t *testing.T) {
	s, err := NewStore("", 0, logging.Discard())
	require.NoError(t, err)
	assert.False(t, s.IsConnected())
	assert.Empty(t, s.Balances())

	require.NoError(t, s.Connect(context.Background()))
	assert.True(t, s.IsConnected())
	assert.True(t, s.Balance("ETH").Equal(d("5.234")))
	assert.True(t, s.Balance("USDC").Equal(d("1250.5")))
	assert.True(t, s.Balance("BTC").IsZero())
	assert.Equal(t, []string{"DAI", "ETH", "MATIC", "SOL", "USDC", "USDT"}, s.Tokens())
}

func TestConnect_Cancelled(t *testing.T) {
	s, err := NewStore("", time.Hour, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Connect(ctx), context.Canceled)
	assert.False(t, s.IsConnected())
}

func TestAdjust_ClampsAtZero(t *testing.T) {
	s, _ := newConnectedStore(t)

	got, err := s.Adjust("ETH", d("-1"))
	require.NoError(t, err)
	assert.True(t, got.Equal(d("4.234")))

	got, err = s.Adjust("ETH", d("-100"))
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = s.Adjust("NEW", d("3"))
	require.NoError(t, err)
	assert.True(t, got.Equal(d("3")))
}

func TestAdjust_RequiresConnection(t *testing.T) {
	s, err := NewStore("", 0, logging.Discard())
	require.NoError(t, err)

	_, err = s.Adjust("ETH", d("1"))
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, s.Swap("ETH", d("1"), "USDC", d("2000")), ErrNotConnected)
}

func TestSwap(t *testing.T) {
	s, _ := newConnectedStore(t)

	require.NoError(t, s.Swap("ETH", d("1"), "USDC", d("2442.65")))
	assert.True(t, s.Balance("ETH").Equal(d("4.234")))
	assert.True(t, s.Balance("USDC").Equal(d("3693.15")))

	err := s.Swap("SOL", d("13"), "USDC", d("1"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, s.Balance("SOL").Equal(d("12.8")))
	assert.True(t, s.Balance("USDC").Equal(d("3693.15")))

	// the whole balance may be spent
	require.NoError(t, s.Swap("SOL", d("12.8"), "ETH", d("0.5")))
	assert.True(t, s.Balance("SOL").IsZero())
}

func TestPersistence(t *testing.T) {
	s, path := newConnectedStore(t)
	require.NoError(t, s.Swap("ETH", d("2"), "DAI", d("10")))

	reopened, err := NewStore(path, 0, logging.Discard())
	require.NoError(t, err)
	assert.True(t, reopened.IsConnected())
	assert.True(t, reopened.Balance("ETH").Equal(d("3.234")))
	assert.True(t, reopened.Balance("DAI").Equal(d("760.25")))

	require.NoError(t, reopened.Disconnect())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	again, err := NewStore(path, 0, logging.Discard())
	require.NoError(t, err)
	assert.False(t, again.IsConnected())

	// reconnecting starts from the initial balances
	require.NoError(t, again.Connect(context.Background()))
	assert.True(t, again.Balance("ETH").Equal(d("5.234")))
}

func TestNewStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewStore(path, 0, logging.Discard())
	assert.Error(t, err)
}

func TestBalances_ReturnsCopy(t *testing.T) {
	s, _ := newConnectedStore(t)
	b := s.Balances()
	b["ETH"] = d("999")
	assert.True(t, s.Balance("ETH").Equal(d("5.234")))
}

func TestSubscribe(t *testing.T) {
	s, err := NewStore("", 0, logging.Discard())
	require.NoError(t, err)

	events, unsubscribe := s.Subscribe(8)
	require.NoError(t, s.Connect(context.Background()))
	_, err = s.Adjust("USDT", d("-100"))
	require.NoError(t, err)
	require.NoError(t, s.Disconnect())

	ev := <-events
	assert.Equal(t, EventConnected, ev.Type)
	assert.Len(t, ev.Balances, 6)

	ev = <-events
	assert.Equal(t, EventBalanceChanged, ev.Type)
	assert.Equal(t, "USDT", ev.Token)
	assert.True(t, ev.Delta.Equal(d("-100")))
	assert.True(t, ev.Balances["USDT"].Equal(d("400")))

	ev = <-events
	assert.Equal(t, EventDisconnected, ev.Type)
	assert.Empty(t, ev.Balances)

	unsubscribe()
	unsubscribe()
	_, open := <-events
	assert.False(t, open)
}

func TestSubscribe_SlowSubscriberDoesNotBlock(t *testing.T) {
	s, _ := newConnectedStore(t)
	_, unsubscribe := s.Subscribe(1)
	defer unsubscribe()

	for i := 0; i < 5; i++ {
		_, err := s.Adjust("DAI", d("1"))
		require.NoError(t, err)
	}
	assert.True(t, s.Balance("DAI").Equal(d("755.25")))
}

func TestConcurrentAdjust(t *testing.T) {
	s, _ := newConnectedStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Adjust("MATIC", d("2"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, s.Balance("MATIC").Equal(d("2600")))
}
