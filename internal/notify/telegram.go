package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
)

// Telegram sends trade event messages to a chat via the Bot API.
// Missing credentials disable it silently; notifications are best-effort
// and never block or fail a trading cycle.
type Telegram struct {
	token   string
	chatID  string
	baseURL string
}

// NewTelegram reads credentials from the environment.
func NewTelegram() *Telegram {
	t := &Telegram{
		token:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		chatID:  os.Getenv("TELEGRAM_CHAT_ID"),
		baseURL: "https://api.telegram.org",
	}
	if !t.enabled() {
		log.Println("Warning: Telegram credentials missing, notifications disabled")
	}
	return t
}

func (t *Telegram) enabled() bool {
	return t.token != "" && t.chatID != ""
}

// Notify posts one message. Failures are logged, never returned.
func (t *Telegram) Notify(text string) {
	if !t.enabled() {
		return
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	payloadBytes, _ := json.Marshal(payload)

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payloadBytes))
	if err != nil {
		log.Printf("Telegram Alert Failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Telegram API Error: Status %s", resp.Status)
	}
}
