package gateway

import (
	"context"
	"net/http"

	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/google/uuid"
)

type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored in the context by
// RequestIDMiddleware. Returns an empty string if no ID is present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}

	return ""
}

// RequestIDConfig configures the request id middleware.
type RequestIDConfig struct {
	// GenerateFunc returns a new unique ID. Defaults to uuid.NewString.
	GenerateFunc func() string

	// TrustIncoming reuses an X-Coscon-Request-ID sent by the client.
	TrustIncoming bool
}

// RequestIDMiddleware returns a middleware that sets X-Coscon-Request-ID on
// the request, the response and the request context.
func RequestIDMiddleware(cfg RequestIDConfig) func(http.Handler) http.Handler {
	generate := cfg.GenerateFunc
	if generate == nil {
		generate = uuid.NewString
	}

	trustIncoming := cfg.TrustIncoming

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if trustIncoming {
				id = r.Header.Get(copsig.HeaderRequestID)
			}

			if id == "" {
				id = generate()
			}

			r.Header.Set(copsig.HeaderRequestID, id)
			w.Header().Set(copsig.HeaderRequestID, id)

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

// RecoveryConfig configures the recovery middleware.
type RecoveryConfig struct {
	// LogFunc is invoked with the request and the recovered value.
	LogFunc func(r *http.Request, v any)
}

// RecoveryMiddleware returns a middleware that turns panics in downstream
// handlers into a 500 envelope.
func RecoveryMiddleware(cfg RecoveryConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if cfg.LogFunc != nil {
						cfg.LogFunc(r, v)
					}

					_ = WriteError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
