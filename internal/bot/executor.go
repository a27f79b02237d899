package bot

import (
	"fmt"
	"log"

	"crypto_sentinel/internal/ledger"
	"crypto_sentinel/internal/market"

	"github.com/shopspring/decimal"
)

// Executor performs whatever side effect a new decision requires before it
// is recorded. The ledger append itself is the bot's job, not the executor's.
type Executor interface {
	Execute(trade ledger.Trade) error
}

// SimulatedExecutor records paper trades: no exchange interaction at all.
type SimulatedExecutor struct{}

func (SimulatedExecutor) Execute(trade ledger.Trade) error {
	log.Printf("[%s] SIMULATED %s: entry %s, target %s, stop %s",
		trade.Symbol, trade.Action, trade.EntryPrice, trade.TargetPrice, trade.StopPrice)
	return nil
}

// LiveExecutor places a real market order for a fixed quote amount before
// the trade is recorded.
type LiveExecutor struct {
	Placer   market.OrderPlacer
	QuoteQty decimal.Decimal // amount of quote asset per trade
}

func (e *LiveExecutor) Execute(trade ledger.Trade) error {
	if e.Placer == nil {
		return fmt.Errorf("live executor has no order placer")
	}
	if !e.QuoteQty.IsPositive() {
		return fmt.Errorf("live executor quote quantity must be positive")
	}

	orderID, err := e.Placer.PlaceMarketOrder(trade.Symbol, string(trade.Action), e.QuoteQty.String())
	if err != nil {
		return fmt.Errorf("place %s order for %s: %w", trade.Action, trade.Symbol, err)
	}
	log.Printf("[%s] LIVE %s order %s placed for %s quote", trade.Symbol, trade.Action, orderID, e.QuoteQty)
	return nil
}
