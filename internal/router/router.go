package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"achapi-coach/internal/handlers"
	"achapi-coach/internal/middleware"
)

// Options carries the optional pieces of the router. A nil Limiter leaves
// chat routes unthrottled; a nil ProfileHandler leaves profile routes unmounted.
// TrustProxyHeaders rewrites the client address from forwarding headers and
// must only be set behind a proxy that controls them.
type Options struct {
	Limiter           middleware.Limiter
	ProfileHandler    *handlers.ProfileHandler
	StoragePath       string
	TrustProxyHeaders bool
}

// photoFS serves stored photos but never lists a directory.
type photoFS struct {
	root http.FileSystem
}

func (p photoFS) Open(name string) (http.File, error) {
	f, err := p.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

func New(logger *zap.Logger, chatHandler *handlers.ChatHandler, opts Options) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	if opts.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// ──── Chat Routes (public) ────
	r.Group(func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(middleware.RateLimit(opts.Limiter, logger))
		}
		r.Post("/chat", chatHandler.Chat)
		r.Get("/chat/ws", chatHandler.Stream)
	})

	// ──── Profile Routes ────
	if opts.ProfileHandler != nil {
		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", opts.ProfileHandler.Create)
			r.Get("/{id}", opts.ProfileHandler.Get)
			r.Post("/{id}", opts.ProfileHandler.Merge)
			r.Post("/{id}/photos/{label}", opts.ProfileHandler.UploadPhoto)
		})

		fileServer := http.StripPrefix("/uploads/", http.FileServer(photoFS{root: http.Dir(opts.StoragePath)}))
		r.Get("/uploads/*", fileServer.ServeHTTP)
	}

	return r
}
