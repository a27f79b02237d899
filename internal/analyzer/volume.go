package analyzer

import (
	"fmt"

	"crypto_sentinel/internal/market"
)

// Volume flags unusually heavy recent volume. Direction comes from the
// short-term price move; volume alone never decides a side.
type Volume struct {
	RecentWindow   int     // default 5
	BaseWindow     int     // default 20
	Multiplier     float64 // recent avg must exceed base avg by this factor
	MinConfidence  int
	HighConfidence int
}

func (a *Volume) Name() string { return "volume" }

func (a *Volume) Analyze(snap market.Snapshot) Decision {
	recentN, baseN := a.RecentWindow, a.BaseWindow
	if recentN <= 0 {
		recentN = 5
	}
	if baseN <= 0 {
		baseN = 20
	}
	if len(snap.Candles) < baseN+recentN {
		return Hold(fmt.Sprintf("need %d candles, have %d", baseN+recentN, len(snap.Candles)))
	}

	candles := snap.Candles
	recent := candles[len(candles)-recentN:]
	base := candles[len(candles)-recentN-baseN : len(candles)-recentN]

	recentAvg := avgVolume(recent)
	baseAvg := avgVolume(base)
	if baseAvg == 0 {
		return Hold("no baseline volume")
	}

	ratio := recentAvg / baseAvg
	if ratio < a.Multiplier {
		return Hold(fmt.Sprintf("volume ratio %.2f below %.2f", ratio, a.Multiplier))
	}

	change := percentChange(snap.Closes(), recentN)
	score := float64(a.MinConfidence) + (ratio-a.Multiplier)*25
	confidence := clampConfidence(score, a.MinConfidence, a.HighConfidence)

	switch {
	case change > 0:
		return Decision{Action: ActionBuy, Confidence: confidence,
			Reason: fmt.Sprintf("volume spike %.2fx with +%.2f%% move", ratio, change)}
	case change < 0:
		return Decision{Action: ActionSell, Confidence: confidence,
			Reason: fmt.Sprintf("volume spike %.2fx with %.2f%% move", ratio, change)}
	default:
		return Hold("volume spike without direction")
	}
}

func avgVolume(candles []market.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range candles {
		sum += c.Volume
	}
	return sum / float64(len(candles))
}
