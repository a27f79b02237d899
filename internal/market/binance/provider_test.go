package binance

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, path, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetPrice(t *testing.T) {
	srv := newTestServer(t, "/api/v3/ticker/price", `{"symbol":"BTCUSDT","price":"65000.50"}`)
	p := NewWithBaseURL(srv.URL, "", "")

	price, err := p.GetPrice("BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 65000.50, price)
}

func TestGet24hStats(t *testing.T) {
	srv := newTestServer(t, "/api/v3/ticker/24hr",
		`{"symbol":"ETHUSDT","lastPrice":"3200.1","priceChangePercent":"-2.35","highPrice":"3300","lowPrice":"3100","quoteVolume":"12345678.9"}`)
	p := NewWithBaseURL(srv.URL, "", "")

	stats, err := p.Get24hStats("ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", stats.Symbol)
	assert.Equal(t, 3200.1, stats.LastPrice)
	assert.Equal(t, -2.35, stats.PriceChangePercent)
	assert.Equal(t, 12345678.9, stats.QuoteVolume)
}

func TestGetKlines_ParsesPositionalTuples(t *testing.T) {
	// openTime, open, high, low, close, volume, closeTime, ...
	body := `[
		[1700000000000, "100.0", "102.5", "99.5", "101.0", "1500.0", 1700000059999, "0", 0, "0", "0", "0"],
		[1700000060000, "101.0", "103.0", "100.0", "102.0", "1750.0", 1700000119999, "0", 0, "0", "0", "0"]
	]`
	srv := newTestServer(t, "/api/v3/klines", body)
	p := NewWithBaseURL(srv.URL, "", "")

	candles, err := p.GetKlines("BTCUSDT", "1m", 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 102.5, candles[0].High)
	assert.Equal(t, 99.5, candles[0].Low)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, 1500.0, candles[0].Volume)
	assert.Equal(t, int64(1700000000000), candles[0].OpenTime.UnixMilli())
	assert.Equal(t, 102.0, candles[1].Close)
}

func TestGetKlines_RejectsMalformedTuple(t *testing.T) {
	srv := newTestServer(t, "/api/v3/klines", `[[1700000000000, "100.0"]]`)
	p := NewWithBaseURL(srv.URL, "", "")

	_, err := p.GetKlines("BTCUSDT", "1m", 1)
	assert.Error(t, err)
}

func TestGetPrice_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	t.Cleanup(srv.Close)
	p := NewWithBaseURL(srv.URL, "", "")

	_, err := p.GetPrice("NOPE")
	assert.ErrorContains(t, err, "binance API error")
}

func TestPlaceMarketOrder_RequiresCredentials(t *testing.T) {
	p := NewWithBaseURL("http://localhost:0", "", "")
	_, err := p.PlaceMarketOrder("BTCUSDT", "BUY", "100")
	assert.Error(t, err)
}

func TestPlaceMarketOrder_SignsRequest(t *testing.T) {
	var gotKey, gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-MBX-APIKEY")
		gotSig = r.URL.Query().Get("signature")
		w.Write([]byte(`{"orderId":42,"status":"FILLED"}`))
	}))
	t.Cleanup(srv.Close)
	p := NewWithBaseURL(srv.URL, "key", "secret")

	id, err := p.PlaceMarketOrder("BTCUSDT", "BUY", "100")
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Equal(t, "key", gotKey)
	assert.NotEmpty(t, gotSig)
}
