package ai

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"crypto_sentinel/internal/analyzer"
	"crypto_sentinel/internal/market"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.deepseek.com"
	defaultModel   = "deepseek-chat"
)

const systemPrompt = `You are a cryptocurrency market analyst. You receive a JSON
market summary for one symbol. Respond with a single JSON object and nothing
else, in the exact shape:
{"action":"BUY|SELL|HOLD","confidence":<integer 0-100>,"reason":"<one sentence>"}`

// Client consults DeepSeek for a trade recommendation. It implements
// analyzer.Analyzer so the selector treats it like any local analyzer.
//
// The model is asked for a constrained JSON object; anything that does not
// parse into the schema fails closed to HOLD rather than erroring a cycle.
type Client struct {
	client *resty.Client
	apiKey string
	model  string
}

func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(defaultBaseURL, apiKey)
}

// NewClientWithBaseURL exists so tests can point the client at a local server.
func NewClientWithBaseURL(baseURL, apiKey string) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(30 * time.Second)

	return &Client{client: client, apiKey: apiKey, model: defaultModel}
}

func (c *Client) Name() string { return "deepseek" }

// Analyze sends a market summary and parses the structured reply.
func (c *Client) Analyze(snap market.Snapshot) analyzer.Decision {
	if c.apiKey == "" {
		return analyzer.Hold("AI analysis disabled")
	}

	text, err := c.complete(buildPrompt(snap))
	if err != nil {
		log.Printf("AI Error: %v", err)
		return analyzer.Hold(fmt.Sprintf("AI call failed: %v", err))
	}
	return ParseRecommendation(text)
}

func (c *Client) complete(userPrompt string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0.2,
		MaxTokens:      256,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	resp, err := c.client.R().
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("AI API error %d: %s", resp.StatusCode(), resp.String())
	}

	var cr chatResponse
	if err := json.Unmarshal(resp.Body(), &cr); err != nil {
		return "", fmt.Errorf("parse completions response: %w", err)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("AI API error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("no choices in AI response")
	}
	return cr.Choices[0].Message.Content, nil
}

// buildPrompt serializes the snapshot into the user message.
func buildPrompt(snap market.Snapshot) string {
	summary := map[string]interface{}{
		"symbol":                snap.Symbol,
		"last_price":            snap.Price,
		"price_change_24h_pct":  snap.Stats.PriceChangePercent,
		"high_24h":              snap.Stats.HighPrice,
		"low_24h":               snap.Stats.LowPrice,
		"quote_volume_24h":      snap.Stats.QuoteVolume,
		"recent_closes":         tail(snap.Closes(), 30),
		"recent_candle_count":   len(snap.Candles),
	}
	b, _ := json.Marshal(summary)
	return fmt.Sprintf("Recommend BUY, SELL or HOLD for this market data: %s", b)
}

func tail(in []float64, n int) []float64 {
	if len(in) <= n {
		return in
	}
	return in[len(in)-n:]
}

// ParseRecommendation turns model output into a Decision. It tries the JSON
// schema first; on any mismatch it falls back to keyword matching, and on
// ambiguity it holds. The raw text is preserved in the reason so a bad reply
// is visible in the logs.
func ParseRecommendation(text string) analyzer.Decision {
	var rec recommendation
	if err := json.Unmarshal([]byte(text), &rec); err == nil {
		action := analyzer.Action(strings.ToUpper(strings.TrimSpace(rec.Action)))
		switch action {
		case analyzer.ActionBuy, analyzer.ActionSell, analyzer.ActionHold:
			if rec.Confidence < 0 || rec.Confidence > 100 {
				return analyzer.Hold(fmt.Sprintf("AI confidence out of range: %d", rec.Confidence))
			}
			reason := rec.Reason
			if reason == "" {
				reason = "model gave no reason"
			}
			return analyzer.Decision{Action: action, Confidence: rec.Confidence, Reason: reason}
		}
	}

	return keywordFallback(text)
}

// keywordFallback handles models that ignore the schema, preserving the
// original substring-matching behavior.
func keywordFallback(text string) analyzer.Decision {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "strong buy"):
		return analyzer.Decision{Action: analyzer.ActionBuy, Confidence: 80, Reason: truncate(text)}
	case strings.Contains(lower, "strong sell"):
		return analyzer.Decision{Action: analyzer.ActionSell, Confidence: 80, Reason: truncate(text)}
	case strings.Contains(lower, "bullish"), strings.Contains(lower, "buy"):
		return analyzer.Decision{Action: analyzer.ActionBuy, Confidence: 60, Reason: truncate(text)}
	case strings.Contains(lower, "bearish"), strings.Contains(lower, "sell"):
		return analyzer.Decision{Action: analyzer.ActionSell, Confidence: 60, Reason: truncate(text)}
	default:
		return analyzer.Hold("unparseable AI response: " + truncate(text))
	}
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 160 {
		return s[:160] + "..."
	}
	return s
}
