package market

import "time"

// Candle is one OHLCV data point. The exchange sends klines as positional
// JSON tuples; they are converted into this struct at the client boundary
// and raw tuples never travel past it.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Ticker24h is the rolling 24 hour statistics for one symbol.
type Ticker24h struct {
	Symbol             string
	LastPrice          float64
	PriceChangePercent float64
	HighPrice          float64
	LowPrice           float64
	QuoteVolume        float64
}

// Snapshot bundles everything an analyzer sees for one symbol in one cycle.
type Snapshot struct {
	Symbol  string
	Price   float64
	Stats   Ticker24h
	Candles []Candle
}

// Closes extracts the close price series in chronological order.
func (s Snapshot) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Provider is the exchange abstraction. Any struct implementing these
// methods satisfies it, which lets tests swap in a fake without touching
// the code that uses the provider.
type Provider interface {
	GetPrice(symbol string) (float64, error)
	Get24hStats(symbol string) (Ticker24h, error)
	GetKlines(symbol, interval string, limit int) ([]Candle, error)
}

// OrderPlacer is the optional trading surface, implemented only by signed
// clients. The simulated executor never needs it.
type OrderPlacer interface {
	PlaceMarketOrder(symbol, side string, quoteQty string) (orderID string, err error)
}

// FetchSnapshot gathers price, stats and candles for one symbol.
func FetchSnapshot(p Provider, symbol, interval string, limit int) (Snapshot, error) {
	price, err := p.GetPrice(symbol)
	if err != nil {
		return Snapshot{}, err
	}
	stats, err := p.Get24hStats(symbol)
	if err != nil {
		return Snapshot{}, err
	}
	candles, err := p.GetKlines(symbol, interval, limit)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Symbol: symbol, Price: price, Stats: stats, Candles: candles}, nil
}
