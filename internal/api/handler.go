package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/strefethen/hassbridge-go/internal/apperrors"
)

// Handler adapts handlers that return errors into http.Handler.
type Handler func(w http.ResponseWriter, r *http.Request) error

// ServeHTTP implements http.Handler.
func (handler Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := handler(w, r); err != nil {
		WriteError(w, r, err)
	}
}

// RecovererMiddleware converts panics into 500 responses.
func RecovererMiddleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					log.Error().
						Interface("panic", recovered).
						Str("request_id", GetRequestID(r)).
						Str("path", r.URL.Path).
						Msg("Panic recovered")
					WriteError(w, r, apperrors.NewInternalError("Internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
