package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"achapi-coach/internal/models"
)

// ChatClient sends one message to the gateway and returns the coach reply.
type ChatClient interface {
	Send(ctx context.Context, message string) (string, error)
}

// GatewayError is a non-200 answer from the chat gateway.
type GatewayError struct {
	StatusCode int
	Body       models.ChatErrorResponse
}

func (e *GatewayError) Error() string {
	if e.Body.Error != "" {
		return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Body.Error)
	}
	return fmt.Sprintf("gateway returned %d", e.StatusCode)
}

// HTTPClient talks to POST /chat.
type HTTPClient struct {
	endpoint string
	http     *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		endpoint: strings.TrimRight(baseURL, "/") + "/chat",
		http:     &http.Client{},
	}
}

func (c *HTTPClient) Send(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(models.ChatRequest{Message: message})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		gwErr := &GatewayError{StatusCode: resp.StatusCode}
		// The body is informational; a non-JSON error page leaves it empty and
		// the status alone fails the turn.
		_ = json.NewDecoder(resp.Body).Decode(&gwErr.Body)
		return "", gwErr
	}

	var reply models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("decode reply: %w", err)
	}
	return reply.Reply, nil
}

// Close drops idle keep-alive connections to the gateway.
func (c *HTTPClient) Close() {
	c.http.CloseIdleConnections()
}
