package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"crypto_sentinel/internal/analyzer"
	"crypto_sentinel/internal/market"

	"github.com/stretchr/testify/assert"
)

func TestParseRecommendation_ValidJSON(t *testing.T) {
	d := ParseRecommendation(`{"action":"buy","confidence":72,"reason":"breakout above resistance"}`)

	assert.Equal(t, analyzer.ActionBuy, d.Action)
	assert.Equal(t, 72, d.Confidence)
	assert.Equal(t, "breakout above resistance", d.Reason)
}

func TestParseRecommendation_OutOfRangeConfidenceHolds(t *testing.T) {
	d := ParseRecommendation(`{"action":"SELL","confidence":140,"reason":"x"}`)
	assert.Equal(t, analyzer.ActionHold, d.Action)
}

func TestParseRecommendation_UnknownActionFallsBackToKeywords(t *testing.T) {
	d := ParseRecommendation(`{"action":"ACCUMULATE","confidence":60,"reason":"looks bullish here"}`)
	assert.Equal(t, analyzer.ActionBuy, d.Action)
}

func TestParseRecommendation_FreeTextKeywords(t *testing.T) {
	cases := []struct {
		text string
		want analyzer.Action
	}{
		{"This is a STRONG BUY opportunity", analyzer.ActionBuy},
		{"Momentum looks bearish, I would reduce exposure", analyzer.ActionSell},
		{"Strong sell signal on the 4h chart", analyzer.ActionSell},
		{"The outlook is bullish overall", analyzer.ActionBuy},
	}
	for _, tc := range cases {
		d := ParseRecommendation(tc.text)
		assert.Equal(t, tc.want, d.Action, "text: %s", tc.text)
	}
}

func TestParseRecommendation_AmbiguousHolds(t *testing.T) {
	d := ParseRecommendation("The market may go either way, hard to say.")
	assert.Equal(t, analyzer.ActionHold, d.Action)
	assert.Contains(t, d.Reason, "unparseable")
}

func TestAnalyze_MissingKeyDisables(t *testing.T) {
	c := NewClient("")
	d := c.Analyze(market.Snapshot{Symbol: "BTCUSDT"})
	assert.Equal(t, analyzer.ActionHold, d.Action)
}

func TestAnalyze_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"action\":\"SELL\",\"confidence\":65,\"reason\":\"declining volume\"}"}}]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClientWithBaseURL(srv.URL, "test-key")
	d := c.Analyze(market.Snapshot{Symbol: "BTCUSDT", Price: 65000})

	assert.Equal(t, analyzer.ActionSell, d.Action)
	assert.Equal(t, 65, d.Confidence)
}

func TestAnalyze_APIErrorHolds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClientWithBaseURL(srv.URL, "test-key")
	d := c.Analyze(market.Snapshot{Symbol: "BTCUSDT"})
	assert.Equal(t, analyzer.ActionHold, d.Action)
}
