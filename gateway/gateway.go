// Package gateway emulates the COP API gateway: it verifies signed requests,
// tags them with a request id and answers in the COP envelope format. It is
// meant for local development and tests, not production traffic.
package gateway

import (
	"net/http"
	"time"

	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/rs/zerolog"
)

// Config configures the emulated gateway.
type Config struct {
	// Secrets resolves api keys to secrets. Required.
	Secrets copsig.SecretResolver

	// MaxSkew is the accepted clock skew of X-Coscon-Date. Zero disables
	// the check.
	MaxSkew time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// GenerateID returns request ids for requests that carry none. Defaults
	// to random UUIDs.
	GenerateID func() string

	// Logger receives verification failures and recovered panics. The zero
	// value discards everything.
	Logger zerolog.Logger
}

// New returns a handler that recovers panics, assigns request ids and
// verifies signatures before passing requests to next.
func New(cfg Config, next http.Handler) (http.Handler, error) {
	logger := cfg.Logger

	verify, err := copsig.Middleware(copsig.MiddlewareConfig{
		Verify: copsig.VerifyConfig{
			Resolver: cfg.Secrets,
			MaxSkew:  cfg.MaxSkew,
			Now:      cfg.Now,
		},
		OnError: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn().
				Err(err).
				Str("request_id", RequestIDFromContext(r.Context())).
				Str("path", r.URL.Path).
				Msg("signature verification failed")

			_ = WriteError(w, http.StatusUnauthorized, "signature verification failed: "+err.Error())
		},
	})
	if err != nil {
		return nil, err
	}

	h := verify(next)
	h = RequestIDMiddleware(RequestIDConfig{GenerateFunc: cfg.GenerateID, TrustIncoming: true})(h)
	h = RecoveryMiddleware(RecoveryConfig{
		LogFunc: func(r *http.Request, v any) {
			logger.Error().
				Interface("panic", v).
				Str("request_id", RequestIDFromContext(r.Context())).
				Msg("handler panicked")
		},
	})(h)

	return h, nil
}
