package models

import "encoding/json"

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply from the coach.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ChatErrorResponse is returned for every failed chat turn.
type ChatErrorResponse struct {
	Error   string          `json:"error"`
	Status  int             `json:"status,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// UpstreamMessage is one entry of the completion API's message array.
type UpstreamMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UpstreamPayload is the body posted to an OpenAI-compatible completion API.
type UpstreamPayload struct {
	Model       string            `json:"model"`
	Messages    []UpstreamMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
}

// UpstreamCompletion is the subset of the completion response the gateway reads.
type UpstreamCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const (
	ErrInvalidInputMessage = "Invalid input message."
	ErrInternalServer      = "Internal server error."
	ErrTooManyRequests     = "Too many requests."
)
