package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"achapi-coach/internal/middleware"
	"achapi-coach/internal/models"
	"achapi-coach/internal/services"
)

// ChatHandler relays single chat turns to the upstream completion API. It
// keeps no per-conversation state; every turn stands alone.
type ChatHandler struct {
	completer services.Completer
	logger    *zap.Logger
}

func NewChatHandler(completer services.Completer, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		completer: completer,
		logger:    logger,
	}
}

type chatRequestBody struct {
	Message json.RawMessage `json:"message"`
}

// parseMessage accepts any JSON string, including empty and whitespace-only
// ones. Missing, null and non-string values are rejected.
func parseMessage(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var message string
	if err := json.Unmarshal(raw, &message); err != nil {
		return "", false
	}
	return message, true
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid chat body", zap.Error(err), zap.String("request_id", middleware.GetRequestID(r.Context())))
		writeJSON(w, http.StatusBadRequest, errorResp(models.ErrInvalidInputMessage))
		return
	}

	status, body := h.turn(r.Context(), req.Message, middleware.GetRequestID(r.Context()))
	writeJSON(w, status, body)
}

// turn runs one relay turn and returns the HTTP status and wire body.
func (h *ChatHandler) turn(ctx context.Context, raw json.RawMessage, requestID string) (int, interface{}) {
	message, ok := parseMessage(raw)
	if !ok {
		h.logger.Warn("invalid message received",
			zap.ByteString("message", raw),
			zap.String("request_id", requestID),
		)
		return http.StatusBadRequest, errorResp(models.ErrInvalidInputMessage)
	}

	reply, err := h.completer.Complete(ctx, message)
	if err != nil {
		status, body := chatErrorResponse(err)
		h.logger.Error("chat turn failed",
			zap.Error(err),
			zap.Int("upstream_status", body.Status),
			zap.String("request_id", requestID),
		)
		return status, body
	}

	h.logger.Info("chat reply",
		zap.Int("reply_len", len(reply)),
		zap.String("request_id", requestID),
	)
	return http.StatusOK, models.ChatResponse{Reply: reply}
}
