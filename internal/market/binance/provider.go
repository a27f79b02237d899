package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"crypto_sentinel/internal/market"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.binance.com"

// Provider is the Binance REST implementation of market.Provider.
// Public market data needs no credentials; PlaceMarketOrder does.
type Provider struct {
	client    *resty.Client
	apiKey    string
	secretKey string
}

// New creates a Provider against the production endpoint.
func New(apiKey, secretKey string) *Provider {
	return NewWithBaseURL(defaultBaseURL, apiKey, secretKey)
}

// NewWithBaseURL exists so tests can point the client at a local server.
func NewWithBaseURL(baseURL, apiKey, secretKey string) *Provider {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(15 * time.Second)

	return &Provider{
		client:    client,
		apiKey:    apiKey,
		secretKey: secretKey,
	}
}

type priceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// GetPrice fetches the latest traded price for a symbol.
func (p *Provider) GetPrice(symbol string) (float64, error) {
	resp, err := p.client.R().
		SetQueryParam("symbol", symbol).
		Get("/api/v3/ticker/price")
	if err != nil {
		return 0, fmt.Errorf("fetch price for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("binance API error %d: %s", resp.StatusCode(), resp.String())
	}

	var pr priceResponse
	if err := json.Unmarshal(resp.Body(), &pr); err != nil {
		return 0, fmt.Errorf("parse price response: %w", err)
	}
	return strconv.ParseFloat(pr.Price, 64)
}

type statsResponse struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	QuoteVolume        string `json:"quoteVolume"`
}

// Get24hStats fetches the rolling 24h ticker for a symbol.
func (p *Provider) Get24hStats(symbol string) (market.Ticker24h, error) {
	resp, err := p.client.R().
		SetQueryParam("symbol", symbol).
		Get("/api/v3/ticker/24hr")
	if err != nil {
		return market.Ticker24h{}, fmt.Errorf("fetch 24h stats for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return market.Ticker24h{}, fmt.Errorf("binance API error %d: %s", resp.StatusCode(), resp.String())
	}

	var sr statsResponse
	if err := json.Unmarshal(resp.Body(), &sr); err != nil {
		return market.Ticker24h{}, fmt.Errorf("parse 24h stats: %w", err)
	}

	out := market.Ticker24h{Symbol: sr.Symbol}
	out.LastPrice, _ = strconv.ParseFloat(sr.LastPrice, 64)
	out.PriceChangePercent, _ = strconv.ParseFloat(sr.PriceChangePercent, 64)
	out.HighPrice, _ = strconv.ParseFloat(sr.HighPrice, 64)
	out.LowPrice, _ = strconv.ParseFloat(sr.LowPrice, 64)
	out.QuoteVolume, _ = strconv.ParseFloat(sr.QuoteVolume, 64)
	return out, nil
}

// GetKlines fetches up to limit candles for symbol at the given interval.
//
// The wire format is a JSON array of positional tuples:
// [openTime, open, high, low, close, volume, closeTime, ...]
// with prices as strings. Index positions are a format contract with the
// exchange; they are decoded here and nowhere else.
func (p *Provider) GetKlines(symbol, interval string, limit int) ([]market.Candle, error) {
	resp, err := p.client.R().
		SetQueryParams(map[string]string{
			"symbol":   symbol,
			"interval": interval,
			"limit":    strconv.Itoa(limit),
		}).
		Get("/api/v3/klines")
	if err != nil {
		return nil, fmt.Errorf("fetch klines for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("binance API error %d: %s", resp.StatusCode(), resp.String())
	}

	var raw [][]interface{}
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("parse klines: %w", err)
	}

	candles := make([]market.Candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			return nil, fmt.Errorf("malformed kline tuple, %d fields", len(k))
		}
		c, err := parseKline(k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parseKline(k []interface{}) (market.Candle, error) {
	ms, ok := k[0].(float64)
	if !ok {
		return market.Candle{}, fmt.Errorf("kline openTime is %T, want number", k[0])
	}

	var c market.Candle
	c.OpenTime = time.UnixMilli(int64(ms))

	fields := []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
	for i, dst := range fields {
		s, ok := k[i+1].(string)
		if !ok {
			return market.Candle{}, fmt.Errorf("kline field %d is %T, want string", i+1, k[i+1])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("kline field %d: %w", i+1, err)
		}
		*dst = v
	}
	return c, nil
}

type orderResponse struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}

// PlaceMarketOrder submits a signed market order spending quoteQty of the
// quote asset. Side is BUY or SELL.
func (p *Provider) PlaceMarketOrder(symbol, side string, quoteQty string) (string, error) {
	if p.apiKey == "" || p.secretKey == "" {
		return "", fmt.Errorf("order endpoint requires API credentials")
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", side)
	params.Set("type", "MARKET")
	params.Set("quoteOrderQty", quoteQty)
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("signature", p.sign(params.Encode()))

	resp, err := p.client.R().
		SetHeader("X-MBX-APIKEY", p.apiKey).
		SetQueryParamsFromValues(params).
		Post("/api/v3/order")
	if err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("binance API error %d: %s", resp.StatusCode(), resp.String())
	}

	var or orderResponse
	if err := json.Unmarshal(resp.Body(), &or); err != nil {
		return "", fmt.Errorf("parse order response: %w", err)
	}
	return strconv.FormatInt(or.OrderID, 10), nil
}

// sign computes the HMAC-SHA256 of the encoded query string, as the
// exchange requires for authenticated endpoints.
func (p *Provider) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(p.secretKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
