package analyzer

import (
	"fmt"
	"math"

	"crypto_sentinel/internal/market"
)

// EMA is the fast/slow exponential moving average crossover analyzer.
type EMA struct {
	FastPeriod     int
	SlowPeriod     int
	MinSeparation  float64 // percent, fast vs slow
	MinPriceChange float64 // percent net move over the window
	MinConfidence  int
	HighConfidence int
}

func (a *EMA) Name() string { return "ema" }

// Analyze requires a clear ordering (price above fast above slow for BUY,
// mirrored for SELL) plus minimum EMA separation and a minimum net move
// over the window. Anything less is a HOLD.
func (a *EMA) Analyze(snap market.Snapshot) Decision {
	closes := snap.Closes()
	if len(closes) < a.SlowPeriod {
		return Hold(fmt.Sprintf("need %d candles, have %d", a.SlowPeriod, len(closes)))
	}

	fast := ema(closes, a.FastPeriod)
	slow := ema(closes, a.SlowPeriod)
	lastFast := fast[len(fast)-1]
	lastSlow := slow[len(slow)-1]
	price := closes[len(closes)-1]

	separation := math.Abs(lastFast-lastSlow) / lastSlow * 100
	if separation < a.MinSeparation {
		return Hold(fmt.Sprintf("EMA separation %.3f%% below %.3f%%", separation, a.MinSeparation))
	}

	netChange := percentChange(closes, len(closes)-1)
	priceDist := math.Abs(price-lastFast) / lastFast * 100

	// Raw score grows with separation and with price distance from the
	// fast EMA, then is clamped to the configured band.
	score := float64(a.MinConfidence) + separation*8 + priceDist*4
	confidence := clampConfidence(score, a.MinConfidence, a.HighConfidence)

	if price > lastFast && lastFast > lastSlow && netChange >= a.MinPriceChange {
		return Decision{
			Action:     ActionBuy,
			Confidence: confidence,
			Reason:     fmt.Sprintf("price %.4f > EMA%d %.4f > EMA%d %.4f, +%.2f%% over window", price, a.FastPeriod, lastFast, a.SlowPeriod, lastSlow, netChange),
		}
	}
	if price < lastFast && lastFast < lastSlow && netChange <= -a.MinPriceChange {
		return Decision{
			Action:     ActionSell,
			Confidence: confidence,
			Reason:     fmt.Sprintf("price %.4f < EMA%d %.4f < EMA%d %.4f, %.2f%% over window", price, a.FastPeriod, lastFast, a.SlowPeriod, lastSlow, netChange),
		}
	}

	return Hold("no EMA alignment")
}
