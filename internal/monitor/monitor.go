package monitor

import (
	"fmt"
	"log"
	"time"

	"crypto_sentinel/internal/analyzer"
	"crypto_sentinel/internal/ledger"
	"crypto_sentinel/internal/market"

	"github.com/shopspring/decimal"
)

// Notifier receives human-readable trade event messages.
type Notifier interface {
	Notify(msg string)
}

// Monitor resolves pending trades against fresh candle history.
type Monitor struct {
	provider market.Provider
	store    *ledger.Store
	archive  *ledger.Archive // optional
	notifier Notifier        // optional
	interval string
	lookback int
	keepLast int
	now      func() time.Time
}

// New builds a monitor over one ledger file. Archive and notifier may be
// nil; keepLast caps the completed trades retained in the ledger file after
// each pass, zero or negative keeps everything.
func New(provider market.Provider, store *ledger.Store, archive *ledger.Archive, notifier Notifier, lookback, keepLast int) *Monitor {
	if lookback <= 0 {
		lookback = 30
	}
	return &Monitor{
		provider: provider,
		store:    store,
		archive:  archive,
		notifier: notifier,
		interval: "1m",
		lookback: lookback,
		keepLast: keepLast,
		now:      time.Now,
	}
}

// Resolve scans candles in chronological order and decides the trade's
// outcome. Within each candle the target check runs before the stop check;
// the first condition encountered in the scanned window wins. It returns
// false when neither level was reached and the trade stays pending.
//
// A move that breaches the target and reverses past the stop inside one
// unfetched gap cannot be detected; resolution is bounded by the polling
// frequency and lookback window, not a completeness guarantee.
func Resolve(t *ledger.Trade, candles []market.Candle) bool {
	for _, c := range candles {
		high := decimal.NewFromFloat(c.High)
		low := decimal.NewFromFloat(c.Low)

		switch t.Action {
		case analyzer.ActionBuy:
			if high.GreaterThanOrEqual(t.TargetPrice) {
				t.Complete(ledger.ResultWin, t.TargetPrice)
				return true
			}
			if low.LessThanOrEqual(t.StopPrice) {
				t.Complete(ledger.ResultLoss, t.StopPrice)
				return true
			}
		case analyzer.ActionSell:
			if low.LessThanOrEqual(t.TargetPrice) {
				t.Complete(ledger.ResultWin, t.TargetPrice)
				return true
			}
			if high.GreaterThanOrEqual(t.StopPrice) {
				t.Complete(ledger.ResultLoss, t.StopPrice)
				return true
			}
		}
	}
	return false
}

// RunOnce makes a full pass over the pending trades: fetch a bounded candle
// window per trade, resolve what it can, merge the resolutions back into the
// ledger, and archive completions. Per-trade fetch errors leave that trade
// pending for the next pass.
func (m *Monitor) RunOnce() error {
	all, err := m.store.LoadAll()
	if err != nil {
		return err
	}

	var resolved []ledger.Trade
	for i := range all {
		t := &all[i]
		if !t.IsPending() {
			continue
		}

		// Smart-entry expiry: past the validity deadline the trade
		// terminates without an outcome.
		if t.ValidUntil != nil && m.now().After(*t.ValidUntil) {
			t.Expire()
			resolved = append(resolved, *t)
			log.Printf("[%s] Trade %s expired (valid until %s)", t.Symbol, t.ID, t.ValidUntil.Format(time.RFC3339))
			m.notify(fmt.Sprintf("⌛ EXPIRED: %s %s, entry window closed", t.Symbol, t.Action))
			continue
		}

		candles, err := m.provider.GetKlines(t.Symbol, m.interval, m.lookback)
		if err != nil {
			log.Printf("ERROR: Fetching candles for %s: %v (will retry next pass)", t.Symbol, err)
			continue
		}

		if Resolve(t, candles) {
			resolved = append(resolved, *t)
			log.Printf("[%s] Trade %s resolved: %s at %s (%s%%)",
				t.Symbol, t.ID, t.Result, t.ExitPrice, t.ActualReturn)
			m.notify(resolutionMessage(t))
		}
	}

	if len(resolved) == 0 {
		return nil
	}

	// Merge by trade ID: the bot may have appended a trade while the
	// candle fetches above were in flight, and it must survive this pass.
	if err := m.store.Merge(resolved); err != nil {
		return fmt.Errorf("persist resolutions: %w", err)
	}

	if m.archive != nil {
		for _, t := range resolved {
			if t.Status != ledger.StatusCompleted || t.ResolvedAt == "" {
				continue
			}
			if err := m.archive.Record(t); err != nil {
				log.Printf("ERROR: Archiving trade %s: %v", t.ID, err)
			}
		}
	}

	if err := m.store.Trim(m.keepLast); err != nil {
		log.Printf("ERROR: Trimming ledger: %v", err)
	}
	return nil
}

// Run polls until the stop channel closes.
func (m *Monitor) Run(intervalMins int, stop <-chan struct{}) {
	if err := m.RunOnce(); err != nil {
		log.Printf("CRITICAL: Monitor pass failed: %v", err)
	}

	ticker := time.NewTicker(time.Duration(intervalMins) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			log.Println("Monitor stopping...")
			return
		case <-ticker.C:
			if err := m.RunOnce(); err != nil {
				log.Printf("CRITICAL: Monitor pass failed: %v", err)
			}
		}
	}
}

func (m *Monitor) notify(msg string) {
	if m.notifier != nil {
		m.notifier.Notify(msg)
	}
}

func resolutionMessage(t *ledger.Trade) string {
	icon := "✅"
	if t.Result == ledger.ResultLoss {
		icon = "❌"
	}
	return fmt.Sprintf("%s %s: %s %s at %s (%s%%)",
		icon, t.Result, t.Symbol, t.Action, t.ExitPrice, t.ActualReturn)
}
