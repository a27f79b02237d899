package bot

import (
	"fmt"
	"log"
	"sync"
	"time"

	"crypto_sentinel/internal/analyzer"
	"crypto_sentinel/internal/config"
	"crypto_sentinel/internal/ledger"
	"crypto_sentinel/internal/market"
	"crypto_sentinel/internal/selector"

	"github.com/shopspring/decimal"
)

// Notifier receives human-readable trade event messages.
type Notifier interface {
	Notify(msg string)
}

// Bot is one parameterized trading pipeline: a symbol universe, an
// analyzer, a ledger file, and an executor. Every strategy runs through
// this one type.
type Bot struct {
	Name     string
	cfg      *config.Config
	provider market.Provider
	analyzer analyzer.Analyzer
	store    *ledger.Store
	executor Executor
	notifier Notifier // optional

	// Guards against a slow cycle overlapping the next scheduled tick:
	// a tick that finds the previous cycle running is skipped, not queued.
	cycleMu sync.Mutex
}

// New assembles a bot for the named strategy.
func New(name string, cfg *config.Config, provider market.Provider, az analyzer.Analyzer, store *ledger.Store, executor Executor, notifier Notifier) *Bot {
	return &Bot{
		Name:     name,
		cfg:      cfg,
		provider: provider,
		analyzer: az,
		store:    store,
		executor: executor,
		notifier: notifier,
	}
}

// Cycle runs one full selection pass: analyze the universe, pick at most
// one candidate, execute and record it. A nil-candidate cycle is a normal
// no-op. Returns the opened trade, or nil.
func (b *Bot) Cycle() (*ledger.Trade, error) {
	candidate := selector.Pick(b.cfg.Symbols, b.store.HasPending, b.analyzeSymbol)
	if candidate == nil {
		log.Printf("[%s] No opportunity this cycle", b.Name)
		return nil, nil
	}

	trade, err := b.buildTrade(candidate)
	if err != nil {
		return nil, fmt.Errorf("build trade for %s: %w", candidate.Symbol, err)
	}

	if err := b.executor.Execute(trade); err != nil {
		// Execution failed, nothing recorded: the symbol stays eligible
		// next cycle.
		return nil, err
	}

	if err := b.store.Append(trade); err != nil {
		return nil, fmt.Errorf("record trade: %w", err)
	}

	log.Printf("[%s] Opened %s %s @ %s (target %s, stop %s, confidence %d)",
		b.Name, trade.Action, trade.Symbol, trade.EntryPrice, trade.TargetPrice, trade.StopPrice, trade.Confidence)
	b.notify(fmt.Sprintf("📈 OPENED: %s %s @ %s\nTarget: %s | Stop: %s\nConfidence: %d\n%s",
		trade.Action, trade.Symbol, trade.EntryPrice, trade.TargetPrice, trade.StopPrice, trade.Confidence, trade.Reason))

	return &trade, nil
}

func (b *Bot) analyzeSymbol(symbol string) (market.Snapshot, analyzer.Decision, error) {
	snap, err := market.FetchSnapshot(b.provider, symbol, b.cfg.KlineInterval, b.cfg.KlineLimit)
	if err != nil {
		return market.Snapshot{}, analyzer.Decision{}, err
	}
	return snap, b.analyzer.Analyze(snap), nil
}

// buildTrade derives entry, target and stop from the snapshot price and
// the preset risk percentages.
func (b *Bot) buildTrade(c *selector.Candidate) (ledger.Trade, error) {
	entry := decimal.NewFromFloat(c.Snapshot.Price)
	hundred := decimal.NewFromInt(100)
	targetDelta := entry.Mul(b.cfg.TargetPct).Div(hundred)
	stopDelta := entry.Mul(b.cfg.StopPct).Div(hundred)

	var target, stop decimal.Decimal
	if c.Decision.Action == analyzer.ActionBuy {
		target = entry.Add(targetDelta)
		stop = entry.Sub(stopDelta)
	} else {
		target = entry.Sub(targetDelta)
		stop = entry.Add(stopDelta)
	}

	trade, err := ledger.NewTrade(c.Symbol, c.Decision.Action, entry, target, stop,
		c.Decision.Confidence, c.Decision.Reason, b.Name)
	if err != nil {
		return ledger.Trade{}, err
	}

	if b.cfg.EntryValidFor > 0 {
		deadline := time.Now().Add(b.cfg.EntryValidFor)
		trade.ValidUntil = &deadline
	}
	return trade, nil
}

// Run polls on the configured interval until the stop channel closes.
func (b *Bot) Run(stop <-chan struct{}) {
	b.runGuarded()

	ticker := time.NewTicker(time.Duration(b.cfg.PollIntervalMins) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			log.Printf("[%s] Bot stopping...", b.Name)
			return
		case <-ticker.C:
			b.runGuarded()
		}
	}
}

func (b *Bot) runGuarded() {
	if !b.cycleMu.TryLock() {
		log.Printf("[%s] Previous cycle still running, skipping tick", b.Name)
		return
	}
	defer b.cycleMu.Unlock()

	if _, err := b.Cycle(); err != nil {
		log.Printf("ERROR: [%s] Cycle failed: %v", b.Name, err)
	}
}

func (b *Bot) notify(msg string) {
	if b.notifier != nil {
		b.notifier.Notify(msg)
	}
}
