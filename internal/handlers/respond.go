package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"achapi-coach/internal/models"
	"achapi-coach/internal/services"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message string) models.ChatErrorResponse {
	return models.ChatErrorResponse{Error: message}
}

// chatErrorResponse converts a failed turn into its wire form. Upstream errors
// keep the upstream status and body; anything else is reported generically.
func chatErrorResponse(err error) (int, models.ChatErrorResponse) {
	var upErr *services.UpstreamError
	switch {
	case errors.As(err, &upErr):
		return http.StatusInternalServerError, models.ChatErrorResponse{
			Error:   upErr.Label(),
			Status:  upErr.Status,
			Details: upErr.Details,
		}
	default:
		return http.StatusInternalServerError, errorResp(models.ErrInternalServer)
	}
}
