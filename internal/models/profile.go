package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a user's onboarding document. Fields are kept as an open map
// since the onboarding form owns the field catalog.
type Profile struct {
	ID        uuid.UUID              `json:"id"`
	Data      map[string]interface{} `json:"profile"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// PhotoLabels are the progress photo slots a profile accepts.
var PhotoLabels = map[string]bool{
	"front": true,
	"side":  true,
	"back":  true,
}

type PhotoUploadResponse struct {
	URL string `json:"url"`
}
