package ledger

import (
	"fmt"
	"time"

	"crypto_sentinel/internal/analyzer"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade lifecycle states and outcomes.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"

	ResultWin     = "win"
	ResultLoss    = "loss"
	ResultExpired = "expired"
)

// RiskReturn is derived once at creation and never recomputed.
type RiskReturn struct {
	PotentialGain decimal.Decimal `json:"potential_gain"` // percent
	PotentialLoss decimal.Decimal `json:"potential_loss"` // percent
	Ratio         decimal.Decimal `json:"ratio"`
}

// Trade is one decision and its eventual outcome. A trade is immutable
// once Status is completed.
type Trade struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	Action      analyzer.Action `json:"action"` // BUY or SELL, never HOLD
	EntryPrice  decimal.Decimal `json:"entry_price"`
	TargetPrice decimal.Decimal `json:"target_price"`
	StopPrice   decimal.Decimal `json:"stop_price"`
	Confidence  int             `json:"confidence"`
	Reason      string          `json:"reason,omitempty"`
	Strategy    string          `json:"strategy,omitempty"`
	RiskReturn  RiskReturn      `json:"risk_return"`
	Status      string          `json:"status"`
	Timestamp   string          `json:"timestamp"`

	// Smart-entry validity deadline; nil means the trade never expires.
	ValidUntil *time.Time `json:"valid_until,omitempty"`

	// Set together when the trade completes. Expired trades carry no
	// exit price or return.
	Result       string           `json:"result,omitempty"`
	ExitPrice    *decimal.Decimal `json:"exit_price,omitempty"`
	ActualReturn *decimal.Decimal `json:"actual_return,omitempty"`
	ResolvedAt   string           `json:"resolved_at,omitempty"`
}

// NewTrade builds a pending trade and derives its risk/return numbers.
// Price ordering is validated here: BUY needs stop < entry < target,
// SELL the mirror.
func NewTrade(symbol string, action analyzer.Action, entry, target, stop decimal.Decimal, confidence int, reason, strategy string) (Trade, error) {
	if action != analyzer.ActionBuy && action != analyzer.ActionSell {
		return Trade{}, fmt.Errorf("trade action must be BUY or SELL, got %s", action)
	}
	if !entry.IsPositive() || !target.IsPositive() || !stop.IsPositive() {
		return Trade{}, fmt.Errorf("prices must be positive")
	}

	switch action {
	case analyzer.ActionBuy:
		if !(stop.LessThan(entry) && entry.LessThan(target)) {
			return Trade{}, fmt.Errorf("BUY requires stop < entry < target, got %s / %s / %s", stop, entry, target)
		}
	case analyzer.ActionSell:
		if !(target.LessThan(entry) && entry.LessThan(stop)) {
			return Trade{}, fmt.Errorf("SELL requires target < entry < stop, got %s / %s / %s", target, entry, stop)
		}
	}
	if confidence < 0 || confidence > 100 {
		return Trade{}, fmt.Errorf("confidence %d out of range", confidence)
	}

	hundred := decimal.NewFromInt(100)
	gain := target.Sub(entry).Div(entry).Mul(hundred).Abs()
	loss := entry.Sub(stop).Div(entry).Mul(hundred).Abs()

	ratio := decimal.Zero
	if !loss.IsZero() {
		ratio = gain.Div(loss).Round(2)
	}

	return Trade{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Action:      action,
		EntryPrice:  entry,
		TargetPrice: target,
		StopPrice:   stop,
		Confidence:  confidence,
		Reason:      reason,
		Strategy:    strategy,
		RiskReturn: RiskReturn{
			PotentialGain: gain.Round(4),
			PotentialLoss: loss.Round(4),
			Ratio:         ratio,
		},
		Status:    StatusPending,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Complete marks the trade resolved at exitPrice with the given result.
func (t *Trade) Complete(result string, exitPrice decimal.Decimal) {
	t.Status = StatusCompleted
	t.Result = result
	t.ExitPrice = &exitPrice

	ret := exitPrice.Sub(t.EntryPrice).Div(t.EntryPrice).Mul(decimal.NewFromInt(100))
	if t.Action == analyzer.ActionSell {
		ret = ret.Neg()
	}
	ret = ret.Round(4)
	t.ActualReturn = &ret
	t.ResolvedAt = time.Now().UTC().Format(time.RFC3339)
}

// Expire terminates an unfilled smart-entry trade without an exit price.
func (t *Trade) Expire() {
	t.Status = StatusCompleted
	t.Result = ResultExpired
	t.ResolvedAt = time.Now().UTC().Format(time.RFC3339)
}

// IsPending reports whether the trade still awaits resolution.
func (t *Trade) IsPending() bool {
	return t.Status == StatusPending
}
