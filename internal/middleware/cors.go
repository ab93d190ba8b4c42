package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS is deliberately open: any origin may call the relay. Together with the
// unauthenticated /chat route this lets any site spend the upstream quota.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
}
