package pipeline

import (
	"net/http"
	"time"

	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/rs/zerolog"
)

const redacted = "[REDACTED]"

// redactedHeaders are never written to logs.
var redactedHeaders = []string{
	copsig.HeaderAuthorization,
	"Authorization",
	"Proxy-Authorization",
}

// LoggingStage logs every exchange at debug level.
type LoggingStage struct {
	logger zerolog.Logger
}

// NewLoggingStage returns a stage writing to logger.
func NewLoggingStage(logger zerolog.Logger) *LoggingStage {
	return &LoggingStage{logger: logger}
}

// Accept reports true for every request.
func (s *LoggingStage) Accept(_ *http.Request) bool {
	return true
}

// Apply logs the outgoing request and its outcome.
func (s *LoggingStage) Apply(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	log := s.logger.With().
		Str("request_id", RequestID(req)).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Logger()

	log.Debug().Interface("headers", RedactHeaders(req.Header)).Msg("cop request")

	start := time.Now()

	resp, err := next.RoundTrip(req)
	if err != nil {
		log.Debug().Err(err).Dur("duration", time.Since(start)).Msg("cop request failed")
		return nil, err
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Interface("headers", RedactHeaders(resp.Header)).
		Msg("cop response")

	return resp, nil
}

// RedactHeaders returns a copy of h with credentials masked.
func RedactHeaders(h http.Header) http.Header {
	out := h.Clone()
	if out == nil {
		return http.Header{}
	}

	for _, name := range redactedHeaders {
		if out.Get(name) != "" {
			out.Set(name, redacted)
		}
	}

	return out
}
