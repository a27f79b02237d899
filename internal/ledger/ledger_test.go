package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"crypto_sentinel/internal/analyzer"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func newBuyTrade(t *testing.T, symbol string) Trade {
	t.Helper()
	tr, err := NewTrade(symbol, analyzer.ActionBuy, d("100"), d("101"), d("99.5"), 70, "test", "composite")
	require.NoError(t, err)
	return tr
}

func TestNewTrade_ValidatesPriceOrdering(t *testing.T) {
	// BUY with target below entry.
	_, err := NewTrade("BTCUSDT", analyzer.ActionBuy, d("100"), d("99"), d("98"), 70, "", "s")
	assert.Error(t, err)

	// SELL with stop below entry.
	_, err = NewTrade("BTCUSDT", analyzer.ActionSell, d("100"), d("99"), d("98"), 70, "", "s")
	assert.Error(t, err)

	// HOLD is never persisted.
	_, err = NewTrade("BTCUSDT", analyzer.ActionHold, d("100"), d("101"), d("99"), 70, "", "s")
	assert.Error(t, err)

	// Valid SELL.
	tr, err := NewTrade("BTCUSDT", analyzer.ActionSell, d("100"), d("99"), d("100.5"), 70, "", "s")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, tr.Status)
	assert.NotEmpty(t, tr.ID)
}

func TestNewTrade_DerivesRiskReturn(t *testing.T) {
	tr := newBuyTrade(t, "BTCUSDT")

	assert.True(t, tr.RiskReturn.PotentialGain.Equal(d("1")), "gain = %s", tr.RiskReturn.PotentialGain)
	assert.True(t, tr.RiskReturn.PotentialLoss.Equal(d("0.5")), "loss = %s", tr.RiskReturn.PotentialLoss)
	assert.True(t, tr.RiskReturn.Ratio.Equal(d("2")), "ratio = %s", tr.RiskReturn.Ratio)
}

func TestAppend_MissingFileIsEmptyLedger(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "trades.json"))

	require.NoError(t, s.Append(newBuyTrade(t, "BTCUSDT")))

	all, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "BTCUSDT", all[0].Symbol)
}

func TestAppend_RejectsSecondPendingForSymbol(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "trades.json"))

	require.NoError(t, s.Append(newBuyTrade(t, "BTCUSDT")))
	err := s.Append(newBuyTrade(t, "BTCUSDT"))
	assert.ErrorContains(t, err, "pending trade already exists")

	// A different symbol is fine.
	require.NoError(t, s.Append(newBuyTrade(t, "ETHUSDT")))
}

func TestLoadAll_CorruptFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewStore(path)
	_, err := s.LoadAll()
	assert.ErrorContains(t, err, "corrupt")
}

func TestRoundTrip_SerializationIsLossless(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "trades.json"))

	tr := newBuyTrade(t, "BTCUSDT")
	tr.Complete(ResultWin, d("101"))
	require.NoError(t, s.Append(tr))

	all, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, tr.ID, got.ID)
	assert.Equal(t, tr.Action, got.Action)
	assert.True(t, got.EntryPrice.Equal(tr.EntryPrice))
	assert.True(t, got.TargetPrice.Equal(tr.TargetPrice))
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, ResultWin, got.Result)
	require.NotNil(t, got.ExitPrice)
	assert.True(t, got.ExitPrice.Equal(d("101")))
	require.NotNil(t, got.ActualReturn)
	assert.True(t, got.ActualReturn.Equal(d("1")))
}

func TestStatusInvariants(t *testing.T) {
	pending := newBuyTrade(t, "BTCUSDT")
	assert.Nil(t, pending.ExitPrice)
	assert.Empty(t, pending.Result)

	completed := newBuyTrade(t, "ETHUSDT")
	completed.Complete(ResultLoss, d("99.5"))
	assert.NotNil(t, completed.ExitPrice)
	assert.NotNil(t, completed.ActualReturn)
	assert.Equal(t, ResultLoss, completed.Result)

	expired := newBuyTrade(t, "BNBUSDT")
	expired.Expire()
	assert.Equal(t, StatusCompleted, expired.Status)
	assert.Equal(t, ResultExpired, expired.Result)
	assert.Nil(t, expired.ExitPrice)
}

func TestTrim_KeepsPendingAndRecentCompleted(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "trades.json"))

	symbols := []string{"AUSDT", "BUSDT", "CUSDT", "DUSDT"}
	for _, sym := range symbols[:3] {
		tr := newBuyTrade(t, sym)
		tr.Complete(ResultWin, d("101"))
		require.NoError(t, s.Append(tr))
	}
	require.NoError(t, s.Append(newBuyTrade(t, symbols[3])))

	require.NoError(t, s.Trim(2))

	all, err := s.LoadAll()
	require.NoError(t, err)
	assert.Len(t, all, 3) // 2 most recent completed + 1 pending

	pending, err := s.LoadPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "DUSDT", pending[0].Symbol)
}

func TestMerge_PreservesTradesAppendedAfterSnapshot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "trades.json"))

	btc := newBuyTrade(t, "BTCUSDT")
	require.NoError(t, store.Append(btc))

	// Snapshot taken, then a second trade lands before the merge.
	btc.Complete(ResultWin, d("101"))
	require.NoError(t, store.Append(newBuyTrade(t, "ETHUSDT")))

	require.NoError(t, store.Merge([]Trade{btc}))

	all, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ResultWin, all[0].Result)
	assert.True(t, all[1].IsPending())
}

func TestAppend_ConcurrentWritersLoseNothing(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "trades.json"))

	const n = 8
	trades := make([]Trade, n)
	for i := range trades {
		trades[i] = newBuyTrade(t, fmt.Sprintf("SYM%dUSDT", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Append(trades[i])
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "append %d", i)
	}
	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Len(t, all, n)
}

func TestSellReturnIsMirrored(t *testing.T) {
	tr, err := NewTrade("BTCUSDT", analyzer.ActionSell, d("100"), d("99"), d("100.5"), 70, "", "s")
	require.NoError(t, err)

	tr.Complete(ResultWin, d("99"))
	require.NotNil(t, tr.ActualReturn)
	// Short position gains when price falls.
	assert.True(t, tr.ActualReturn.Equal(d("1")), "return = %s", tr.ActualReturn)
}
