package selector

import (
	"log"

	"crypto_sentinel/internal/analyzer"
	"crypto_sentinel/internal/market"
)

// Candidate is a (symbol, decision) pair produced during one selection
// pass. It is ephemeral: discarded as soon as the winner is chosen.
type Candidate struct {
	Symbol   string
	Decision analyzer.Decision
	Snapshot market.Snapshot
}

// AnalyzeFunc fetches market data for a symbol and scores it.
type AnalyzeFunc func(symbol string) (market.Snapshot, analyzer.Decision, error)

// PendingFunc reports whether a symbol already has an open trade.
type PendingFunc func(symbol string) (bool, error)

// Pick walks the symbols in order and returns the highest-confidence
// actionable candidate, or nil when there is no opportunity (a normal
// no-op cycle, not an error).
//
// Rules: a symbol with an open trade is skipped before any fetch; a fetch
// or analysis error excludes that symbol and the loop continues; HOLD
// decisions are never candidates; equal top confidence resolves to the
// first-seen symbol, so the result is deterministic for a given input
// order.
func Pick(symbols []string, hasPending PendingFunc, analyze AnalyzeFunc) *Candidate {
	var best *Candidate

	for _, symbol := range symbols {
		open, err := hasPending(symbol)
		if err != nil {
			log.Printf("ERROR: Pending check for %s: %v", symbol, err)
			continue
		}
		if open {
			log.Printf("[%s] Skipped: trade already open", symbol)
			continue
		}

		snap, decision, err := analyze(symbol)
		if err != nil {
			log.Printf("ERROR: Analysis for %s: %v", symbol, err)
			continue
		}
		if decision.Action == analyzer.ActionHold {
			log.Printf("[%s] HOLD (%d): %s", symbol, decision.Confidence, decision.Reason)
			continue
		}

		log.Printf("[%s] %s (%d): %s", symbol, decision.Action, decision.Confidence, decision.Reason)
		if best == nil || decision.Confidence > best.Decision.Confidence {
			best = &Candidate{Symbol: symbol, Decision: decision, Snapshot: snap}
		}
	}

	return best
}
