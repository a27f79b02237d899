package analyzer

import "crypto_sentinel/internal/market"

// Action is a trade recommendation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Decision is what every analyzer produces: an action, a 0-100 confidence
// score, and a human-readable reason for the logs.
type Decision struct {
	Action     Action `json:"action"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
}

// Hold builds the neutral decision with a fixed low confidence.
func Hold(reason string) Decision {
	return Decision{Action: ActionHold, Confidence: 30, Reason: reason}
}

// Analyzer maps a market snapshot to a Decision. Implementations are
// stateless and side-effect free so they can be tested with literal series.
type Analyzer interface {
	Name() string
	Analyze(snap market.Snapshot) Decision
}

// ema returns the EMA series for the given period, SMA-seeded at index
// period-1. Entries before the seed are zero and must not be read.
func ema(data []float64, period int) []float64 {
	if len(data) < period {
		return nil
	}

	multiplier := 2.0 / float64(period+1)
	out := make([]float64, len(data))

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	out[period-1] = sum / float64(period)

	for i := period; i < len(data); i++ {
		out[i] = (data[i]-out[i-1])*multiplier + out[i-1]
	}
	return out
}

// percentChange is the percent move from the value lookback periods ago to
// the last value. Returns 0 when the series is too short.
func percentChange(data []float64, lookback int) float64 {
	if len(data) <= lookback || lookback <= 0 {
		return 0
	}
	base := data[len(data)-1-lookback]
	if base == 0 {
		return 0
	}
	return (data[len(data)-1] - base) / base * 100
}

// clampConfidence bounds a raw score to the configured [min, high] band.
func clampConfidence(score float64, min, high int) int {
	if score < float64(min) {
		return min
	}
	if score > float64(high) {
		return high
	}
	return int(score)
}
