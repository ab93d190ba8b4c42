package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Photo is a stored progress photo.
type Photo struct {
	Key string
	URL string
}

// PhotoStore persists progress photos under per-user object keys.
type PhotoStore interface {
	SavePhoto(ctx context.Context, userID uuid.UUID, label, ext string, r io.Reader) (Photo, error)
	DeletePhoto(ctx context.Context, key string) error
}

// LocalPhotoStore writes photos below root; they are served back under
// baseURL + "/uploads/".
type LocalPhotoStore struct {
	root    string
	baseURL string
	now     func() time.Time
}

func NewLocalPhotoStore(root, baseURL string) *LocalPhotoStore {
	return &LocalPhotoStore{root: root, baseURL: baseURL, now: time.Now}
}

// ObjectKey is users/<id>/progressPhotos/<label>_<unix millis><ext>.
func ObjectKey(userID uuid.UUID, label string, at time.Time, ext string) string {
	return path.Join("users", userID.String(), "progressPhotos", fmt.Sprintf("%s_%d%s", label, at.UnixMilli(), ext))
}

func (s *LocalPhotoStore) SavePhoto(ctx context.Context, userID uuid.UUID, label, ext string, r io.Reader) (Photo, error) {
	key := ObjectKey(userID, label, s.now(), ext)
	dest := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Photo{}, fmt.Errorf("failed to create photo directory: %w", err)
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Photo{}, fmt.Errorf("failed to create photo file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return Photo{}, fmt.Errorf("failed to write photo: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return Photo{}, fmt.Errorf("failed to write photo: %w", err)
	}

	return Photo{Key: key, URL: s.baseURL + "/uploads/" + key}, nil
}

// DeletePhoto removes a stored photo. Deleting a missing key is not an error.
func (s *LocalPhotoStore) DeletePhoto(ctx context.Context, key string) error {
	dest := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+key)))
	if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}
