package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"achapi-coach/internal/models"
	"achapi-coach/internal/repository"
	"achapi-coach/internal/storage"
)

const maxPhotoBytes = 10 * 1024 * 1024

type profileRepository interface {
	Create(ctx context.Context, data map[string]interface{}) (*models.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Merge(ctx context.Context, id uuid.UUID, data map[string]interface{}) (*models.Profile, error)
	SetPhotoURL(ctx context.Context, id uuid.UUID, label, url string) error
}

type ProfileHandler struct {
	profileRepo profileRepository
	photos      storage.PhotoStore
	logger      *zap.Logger
}

func NewProfileHandler(profileRepo profileRepository, photos storage.PhotoStore, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{profileRepo: profileRepo, photos: photos, logger: logger}
}

func decodeObject(r *http.Request) (map[string]interface{}, bool) {
	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
		return nil, false
	}
	return data, true
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeObject(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("Profile must be a JSON object."))
		return
	}

	profile, err := h.profileRepo.Create(r.Context(), data)
	if err != nil {
		h.logger.Error("failed to create profile", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp(models.ErrInternalServer))
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid profile ID."))
		return
	}

	profile, err := h.profileRepo.GetByID(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Merge saves onboarding fields into the profile, creating it when needed.
func (h *ProfileHandler) Merge(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid profile ID."))
		return
	}

	data, ok := decodeObject(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("Profile must be a JSON object."))
		return
	}

	profile, err := h.profileRepo.Merge(r.Context(), id, data)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid profile ID."))
		return
	}

	label := chi.URLParam(r, "label")
	if !models.PhotoLabels[label] {
		writeJSON(w, http.StatusBadRequest, errorResp("Photo label must be front, side or back."))
		return
	}

	if r.ContentLength > maxPhotoBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("Photo exceeds 10MB limit."))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("No file provided."))
		return
	}
	defer file.Close()

	// Read first 512 bytes for magic byte check
	buf := make([]byte, 512)
	n, _ := io.ReadFull(file, buf)
	buf = buf[:n]

	ext, ok := imageExtension(http.DetectContentType(buf))
	if !ok {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("Photo must be a JPEG, PNG, WebP or GIF image."))
		return
	}

	if _, err := h.profileRepo.GetByID(r.Context(), id); err != nil {
		h.writeRepoError(w, err)
		return
	}

	photo, err := h.photos.SavePhoto(r.Context(), id, label, ext, io.MultiReader(bytes.NewReader(buf), file))
	if err != nil {
		h.logger.Error("failed to store photo", zap.Error(err), zap.String("profile_id", id.String()))
		writeJSON(w, http.StatusInternalServerError, errorResp(models.ErrInternalServer))
		return
	}

	if err := h.profileRepo.SetPhotoURL(r.Context(), id, label, photo.URL); err != nil {
		// No profile points at the file; drop it.
		if delErr := h.photos.DeletePhoto(context.WithoutCancel(r.Context()), photo.Key); delErr != nil {
			h.logger.Warn("failed to remove orphaned photo", zap.Error(delErr), zap.String("key", photo.Key))
		}
		h.writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.PhotoUploadResponse{URL: photo.URL})
}

func (h *ProfileHandler) writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrProfileNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("Profile not found."))
		return
	}
	h.logger.Error("profile store failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResp(models.ErrInternalServer))
}

func imageExtension(mime string) (string, bool) {
	switch mime {
	case "image/jpeg":
		return ".jpg", true
	case "image/png":
		return ".png", true
	case "image/webp":
		return ".webp", true
	case "image/gif":
		return ".gif", true
	default:
		return "", false
	}
}
