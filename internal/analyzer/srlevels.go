package analyzer

import (
	"fmt"
	"math"

	"crypto_sentinel/internal/market"
)

// SupportResistance finds recurring pivot levels in the candle history and
// trades bounces: price near a strong support in a non-bearish trend is a
// BUY candidate, price near a strong resistance in a non-bullish trend a
// SELL candidate.
type SupportResistance struct {
	NeighborWindow int     // candles on each side a pivot must dominate, default 2
	LevelTolerance float64 // percent band within which pivots merge, default 0.2
	ProximityPct   float64 // percent distance to count as "near", default 0.3
	MinTouches     int     // pivots required for a strong level, default 2
	TrendLookback  int     // periods for the trend filter, default 10
	MinConfidence  int
	HighConfidence int
}

type level struct {
	price   float64
	touches int
}

func (a *SupportResistance) Name() string { return "sr_levels" }

func (a *SupportResistance) Analyze(snap market.Snapshot) Decision {
	neighbor := defaulted(a.NeighborWindow, 2)
	tolerance := defaultedF(a.LevelTolerance, 0.2)
	proximity := defaultedF(a.ProximityPct, 0.3)
	minTouches := defaulted(a.MinTouches, 2)
	trendLookback := defaulted(a.TrendLookback, 10)

	if len(snap.Candles) < 2*neighbor+trendLookback {
		return Hold(fmt.Sprintf("need %d candles, have %d", 2*neighbor+trendLookback, len(snap.Candles)))
	}

	supports := mergeLevels(pivots(snap.Candles, neighbor, false), tolerance)
	resistances := mergeLevels(pivots(snap.Candles, neighbor, true), tolerance)
	price := snap.Price
	trend := percentChange(snap.Closes(), trendLookback)

	if lv := nearest(supports, price, proximity, minTouches); lv != nil && price >= lv.price {
		if trend >= 0 {
			score := float64(a.MinConfidence) + float64(lv.touches)*8 + trend*5
			return Decision{
				Action:     ActionBuy,
				Confidence: clampConfidence(score, a.MinConfidence, a.HighConfidence),
				Reason:     fmt.Sprintf("price %.4f near support %.4f (%d touches), trend %.2f%%", price, lv.price, lv.touches, trend),
			}
		}
		return Hold("near support but trend is bearish")
	}

	if lv := nearest(resistances, price, proximity, minTouches); lv != nil && price <= lv.price {
		if trend <= 0 {
			score := float64(a.MinConfidence) + float64(lv.touches)*8 - trend*5
			return Decision{
				Action:     ActionSell,
				Confidence: clampConfidence(score, a.MinConfidence, a.HighConfidence),
				Reason:     fmt.Sprintf("price %.4f near resistance %.4f (%d touches), trend %.2f%%", price, lv.price, lv.touches, trend),
			}
		}
		return Hold("near resistance but trend is bullish")
	}

	return Hold("no strong level nearby")
}

// pivots returns candle extremes strictly dominating their neighbors within
// the window: highs when top is true, lows otherwise.
func pivots(candles []market.Candle, window int, top bool) []float64 {
	var out []float64
	for i := window; i < len(candles)-window; i++ {
		isPivot := true
		for j := i - window; j <= i+window; j++ {
			if j == i {
				continue
			}
			if top && candles[j].High >= candles[i].High {
				isPivot = false
				break
			}
			if !top && candles[j].Low <= candles[i].Low {
				isPivot = false
				break
			}
		}
		if isPivot {
			if top {
				out = append(out, candles[i].High)
			} else {
				out = append(out, candles[i].Low)
			}
		}
	}
	return out
}

// mergeLevels groups pivots lying within tolerance percent of each other
// into a single level, counting touches.
func mergeLevels(pivots []float64, tolerancePct float64) []level {
	var levels []level
	for _, p := range pivots {
		merged := false
		for i := range levels {
			if math.Abs(p-levels[i].price)/levels[i].price*100 <= tolerancePct {
				// Weighted average keeps the level centered on its touches.
				n := float64(levels[i].touches)
				levels[i].price = (levels[i].price*n + p) / (n + 1)
				levels[i].touches++
				merged = true
				break
			}
		}
		if !merged {
			levels = append(levels, level{price: p, touches: 1})
		}
	}
	return levels
}

// nearest returns the strongest level within proximityPct of price, or nil.
func nearest(levels []level, price, proximityPct float64, minTouches int) *level {
	var best *level
	for i := range levels {
		lv := &levels[i]
		if lv.touches < minTouches {
			continue
		}
		dist := math.Abs(price-lv.price) / price * 100
		if dist > proximityPct {
			continue
		}
		if best == nil || lv.touches > best.touches {
			best = lv
		}
	}
	return best
}

func defaulted(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func defaultedF(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}
