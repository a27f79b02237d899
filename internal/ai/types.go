package ai

// recommendation is the JSON schema the model is instructed to return.
type recommendation struct {
	Action     string `json:"action"`     // BUY, SELL or HOLD
	Confidence int    `json:"confidence"` // 0-100
	Reason     string `json:"reason"`
}

// chatRequest is the DeepSeek chat-completions request body.
type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"` // json_object
}

// chatResponse is the subset of the completions response we read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}
