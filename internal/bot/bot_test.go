package bot

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"crypto_sentinel/internal/analyzer"
	"crypto_sentinel/internal/config"
	"crypto_sentinel/internal/ledger"
	"crypto_sentinel/internal/market"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves one fixed price per symbol.
type fakeProvider struct {
	prices map[string]float64
}

func (f *fakeProvider) GetPrice(symbol string) (float64, error) {
	p, ok := f.prices[symbol]
	if !ok {
		return 0, errors.New("unknown symbol")
	}
	return p, nil
}

func (f *fakeProvider) Get24hStats(symbol string) (market.Ticker24h, error) {
	return market.Ticker24h{Symbol: symbol}, nil
}

func (f *fakeProvider) GetKlines(symbol, _ string, limit int) ([]market.Candle, error) {
	p := f.prices[symbol]
	candles := make([]market.Candle, limit)
	for i := range candles {
		candles[i] = market.Candle{Open: p, High: p, Low: p, Close: p, Volume: 1000}
	}
	return candles, nil
}

// fixedAnalyzer always answers the same decision.
type fixedAnalyzer struct{ d analyzer.Decision }

func (a *fixedAnalyzer) Name() string                            { return "fixed" }
func (a *fixedAnalyzer) Analyze(market.Snapshot) analyzer.Decision { return a.d }

// failingExecutor rejects every trade.
type failingExecutor struct{}

func (failingExecutor) Execute(ledger.Trade) error { return errors.New("exchange rejected order") }

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Symbols:       []string{"BTCUSDT"},
		KlineInterval: "1m",
		KlineLimit:    30,
		TargetPct:     decimal.NewFromFloat(1.0),
		StopPct:       decimal.NewFromFloat(0.5),
		LedgerFile:    filepath.Join(t.TempDir(), "trades.json"),
	}
}

func TestCycle_OpensTradeWithDerivedLevels(t *testing.T) {
	cfg := testConfig(t)
	store := ledger.NewStore(cfg.LedgerFile)
	provider := &fakeProvider{prices: map[string]float64{"BTCUSDT": 200}}
	az := &fixedAnalyzer{d: analyzer.Decision{Action: analyzer.ActionBuy, Confidence: 80, Reason: "test"}}

	b := New("test", cfg, provider, az, store, SimulatedExecutor{}, nil)

	trade, err := b.Cycle()
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.True(t, trade.EntryPrice.Equal(decimal.NewFromInt(200)))
	assert.True(t, trade.TargetPrice.Equal(decimal.NewFromInt(202)), "target = %s", trade.TargetPrice)
	assert.True(t, trade.StopPrice.Equal(decimal.NewFromInt(199)), "stop = %s", trade.StopPrice)
	assert.Equal(t, "test", trade.Strategy)

	pending, err := store.LoadPending()
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestCycle_SellLevelsAreMirrored(t *testing.T) {
	cfg := testConfig(t)
	store := ledger.NewStore(cfg.LedgerFile)
	provider := &fakeProvider{prices: map[string]float64{"BTCUSDT": 200}}
	az := &fixedAnalyzer{d: analyzer.Decision{Action: analyzer.ActionSell, Confidence: 80}}

	b := New("test", cfg, provider, az, store, SimulatedExecutor{}, nil)

	trade, err := b.Cycle()
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.True(t, trade.TargetPrice.Equal(decimal.NewFromInt(198)))
	assert.True(t, trade.StopPrice.Equal(decimal.NewFromInt(201)))
}

func TestCycle_HoldIsNoOp(t *testing.T) {
	cfg := testConfig(t)
	store := ledger.NewStore(cfg.LedgerFile)
	provider := &fakeProvider{prices: map[string]float64{"BTCUSDT": 200}}
	az := &fixedAnalyzer{d: analyzer.Decision{Action: analyzer.ActionHold, Confidence: 30}}

	b := New("test", cfg, provider, az, store, SimulatedExecutor{}, nil)

	trade, err := b.Cycle()
	require.NoError(t, err)
	assert.Nil(t, trade)

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCycle_SkipsSymbolWithOpenTrade(t *testing.T) {
	cfg := testConfig(t)
	store := ledger.NewStore(cfg.LedgerFile)
	provider := &fakeProvider{prices: map[string]float64{"BTCUSDT": 200}}
	az := &fixedAnalyzer{d: analyzer.Decision{Action: analyzer.ActionBuy, Confidence: 80}}

	b := New("test", cfg, provider, az, store, SimulatedExecutor{}, nil)

	first, err := b.Cycle()
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := b.Cycle()
	require.NoError(t, err)
	assert.Nil(t, second, "symbol with a pending trade must be skipped")
}

func TestCycle_ExecutionFailureRecordsNothing(t *testing.T) {
	cfg := testConfig(t)
	store := ledger.NewStore(cfg.LedgerFile)
	provider := &fakeProvider{prices: map[string]float64{"BTCUSDT": 200}}
	az := &fixedAnalyzer{d: analyzer.Decision{Action: analyzer.ActionBuy, Confidence: 80}}

	b := New("test", cfg, provider, az, store, failingExecutor{}, nil)

	_, err := b.Cycle()
	require.Error(t, err)

	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCycle_SmartEntryDeadlineIsSet(t *testing.T) {
	cfg := testConfig(t)
	cfg.EntryValidFor = 15 * time.Minute
	store := ledger.NewStore(cfg.LedgerFile)
	provider := &fakeProvider{prices: map[string]float64{"BTCUSDT": 200}}
	az := &fixedAnalyzer{d: analyzer.Decision{Action: analyzer.ActionBuy, Confidence: 80}}

	b := New("test", cfg, provider, az, store, SimulatedExecutor{}, nil)

	trade, err := b.Cycle()
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.NotNil(t, trade.ValidUntil)
}

func TestBuildAnalyzer_RegistryLookup(t *testing.T) {
	cfg := testConfig(t)
	cfg.EMAFastPeriod = 12
	cfg.EMASlowPeriod = 26
	cfg.MinConfidence = 55
	cfg.HighConfidence = 90
	cfg.DeepSeekAPIKey = "test-key"

	for _, name := range StrategyNames() {
		az, err := BuildAnalyzer(name, cfg)
		require.NoError(t, err, "strategy %s", name)
		assert.NotNil(t, az)
	}

	_, err := BuildAnalyzer("nope", cfg)
	assert.Error(t, err)
}

func TestBuildAnalyzer_DeepSeekRequiresKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.DeepSeekAPIKey = ""

	// A keyless standalone deepseek bot would only ever hold; refuse it
	// at startup instead.
	_, err := BuildAnalyzer("deepseek", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEEPSEEK_API_KEY")

	// The composite still builds, it just runs without the AI member.
	cfg.EMAFastPeriod = 12
	cfg.EMASlowPeriod = 26
	az, err := BuildAnalyzer("composite", cfg)
	require.NoError(t, err)
	assert.NotNil(t, az)
}
