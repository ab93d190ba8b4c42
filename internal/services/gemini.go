package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiClient answers coach turns with Gemini instead of Groq. It uses the
// same persona, temperature and token budget.
type GeminiClient struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	name    string
	timeout time.Duration
	logger  *zap.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string, timeout time.Duration, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(Temperature)
	model.SetMaxOutputTokens(MaxTokens)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(CoachPersona)}}

	return &GeminiClient{
		client:  client,
		model:   model,
		name:    modelName,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (g *GeminiClient) Close() {
	g.client.Close()
}

func (g *GeminiClient) Complete(ctx context.Context, message string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.logger.Info("sending to upstream",
		zap.String("provider", "gemini"),
		zap.String("model", g.name),
		zap.String("message", message),
	)

	resp, err := g.model.GenerateContent(ctx, genai.Text(message))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			g.logger.Warn("gemini blocked the reply", zap.Error(err))
			return NoReplyFallback, nil
		}
		mapped := mapGeminiError(err)
		g.logger.Error("upstream call failed", zap.String("provider", "gemini"), zap.Error(mapped))
		return "", mapped
	}

	return replyOrFallback(extractGeminiText(resp)), nil
}

func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

// mapGeminiError keeps HTTP-level API failures as UpstreamError so the gateway
// can pass the status through; everything else is a transport failure.
func mapGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &UpstreamError{Provider: "Gemini", Status: gerr.Code, Details: detailsJSON(gerr.Body, gerr.Message)}
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.HTTPCode()
		if status <= 0 {
			status = http.StatusBadGateway
		}
		return &UpstreamError{Provider: "Gemini", Status: status, Details: detailsJSON("", apiErr.Error())}
	}

	return &TransportError{Op: "gemini generate", Err: err}
}

func detailsJSON(body, message string) json.RawMessage {
	if body != "" && json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	data, _ := json.Marshal(map[string]string{"message": message})
	return data
}
