package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"achapi-coach/internal/middleware"
	"achapi-coach/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Stream serves the relay over a WebSocket. Each text frame is a chat request
// and gets exactly one response frame, in order.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	requestID := middleware.GetRequestID(r.Context())
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read failed", zap.Error(err), zap.String("request_id", requestID))
			}
			return
		}

		var body interface{}
		var req chatRequestBody
		if err := json.Unmarshal(data, &req); err != nil {
			body = errorResp(models.ErrInvalidInputMessage)
		} else {
			_, body = h.turn(r.Context(), req.Message, requestID)
		}

		if err := conn.WriteJSON(body); err != nil {
			h.logger.Warn("websocket write failed", zap.Error(err), zap.String("request_id", requestID))
			return
		}
	}
}
