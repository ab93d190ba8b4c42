package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"achapi-coach/internal/models"
)

// GroqClient calls an OpenAI-compatible chat completion endpoint.
type GroqClient struct {
	apiURL string
	apiKey string
	model  string
	http   *http.Client
	logger *zap.Logger
}

func NewGroqClient(apiURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) (*GroqClient, error) {
	if apiKey == "" {
		return nil, errors.New("groq: api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroqClient{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

// BuildPayload wraps one message in the fixed persona and sampling parameters.
func (c *GroqClient) BuildPayload(message string) models.UpstreamPayload {
	return models.UpstreamPayload{
		Model: c.model,
		Messages: []models.UpstreamMessage{
			{Role: "system", Content: CoachPersona},
			{Role: "user", Content: message},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	}
}

func (c *GroqClient) Complete(ctx context.Context, message string) (string, error) {
	payload := c.BuildPayload(message)
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", &TransportError{Op: "encode payload", Err: err}
	}

	c.logger.Info("sending to upstream",
		zap.String("provider", "groq"),
		zap.String("model", c.model),
		zap.ByteString("payload", jsonData),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", &TransportError{Op: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &TransportError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: "read response", Err: err}
	}

	// The body is decoded before the status is checked: an unparsable error
	// body is a transport failure, not an upstream error.
	if !json.Valid(body) {
		return "", &TransportError{Op: "decode response", Err: errors.New("upstream body is not JSON")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("upstream error response",
			zap.String("provider", "groq"),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return "", &UpstreamError{Provider: "Groq", Status: resp.StatusCode, Details: json.RawMessage(body)}
	}

	var result models.UpstreamCompletion
	if err := json.Unmarshal(body, &result); err != nil {
		// Valid JSON of the wrong shape (e.g. an array) still has no choices.
		c.logger.Warn("unexpected completion shape", zap.Error(err))
		return NoReplyFallback, nil
	}

	var reply string
	if len(result.Choices) > 0 {
		reply = result.Choices[0].Message.Content
	}
	return replyOrFallback(reply), nil
}
