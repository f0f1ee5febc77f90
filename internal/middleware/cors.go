// Package middleware provides HTTP middleware for the chat API.
package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// CORS returns middleware that handles CORS headers. Credentials are only
// allowed when every origin is explicit, never for a wildcard.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: !slices.Contains(allowedOrigins, "*"),
	})
	return c.Handler
}
