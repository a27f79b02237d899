package analyzer

import (
	"fmt"
	"math"

	"crypto_sentinel/internal/market"
)

// Momentum classifies the percent change over a fixed lookback against a
// threshold.
type Momentum struct {
	Lookback       int     // periods, default 5
	Threshold      float64 // percent
	MinConfidence  int
	HighConfidence int
}

func (a *Momentum) Name() string { return "momentum" }

func (a *Momentum) Analyze(snap market.Snapshot) Decision {
	closes := snap.Closes()
	lookback := a.Lookback
	if lookback <= 0 {
		lookback = 5
	}
	if len(closes) <= lookback {
		return Hold(fmt.Sprintf("need %d candles, have %d", lookback+1, len(closes)))
	}

	change := percentChange(closes, lookback)
	score := float64(a.MinConfidence) + (math.Abs(change)-a.Threshold)*20
	confidence := clampConfidence(score, a.MinConfidence, a.HighConfidence)

	switch {
	case change >= a.Threshold:
		return Decision{Action: ActionBuy, Confidence: confidence,
			Reason: fmt.Sprintf("+%.2f%% over %d periods", change, lookback)}
	case change <= -a.Threshold:
		return Decision{Action: ActionSell, Confidence: confidence,
			Reason: fmt.Sprintf("%.2f%% over %d periods", change, lookback)}
	default:
		return Hold(fmt.Sprintf("%.2f%% over %d periods, below %.2f%% threshold", change, lookback, a.Threshold))
	}
}

// MultiPeriodMomentum votes across three windows and requires a majority.
type MultiPeriodMomentum struct {
	Windows        [3]int // default 3/5/10
	Threshold      float64
	MinConfidence  int
	HighConfidence int
}

func (a *MultiPeriodMomentum) Name() string { return "momentum_multi" }

func (a *MultiPeriodMomentum) Analyze(snap market.Snapshot) Decision {
	windows := a.Windows
	if windows == [3]int{} {
		windows = [3]int{3, 5, 10}
	}

	closes := snap.Closes()
	if len(closes) <= windows[2] {
		return Hold(fmt.Sprintf("need %d candles, have %d", windows[2]+1, len(closes)))
	}

	bullish, bearish := 0, 0
	sum := 0.0
	for _, w := range windows {
		change := percentChange(closes, w)
		sum += change
		if change >= a.Threshold {
			bullish++
		} else if change <= -a.Threshold {
			bearish++
		}
	}

	avg := sum / 3
	score := float64(a.MinConfidence) + (math.Abs(avg)-a.Threshold)*15
	confidence := clampConfidence(score, a.MinConfidence, a.HighConfidence)

	switch {
	case bullish >= 2:
		return Decision{Action: ActionBuy, Confidence: confidence,
			Reason: fmt.Sprintf("%d/3 windows bullish, avg %.2f%%", bullish, avg)}
	case bearish >= 2:
		return Decision{Action: ActionSell, Confidence: confidence,
			Reason: fmt.Sprintf("%d/3 windows bearish, avg %.2f%%", bearish, avg)}
	default:
		return Hold("no momentum consensus")
	}
}
