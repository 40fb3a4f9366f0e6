package gateway

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/coscon/cop-sdk-go/validator"
)

// WriteEnvelope writes env as JSON with the given status.
func WriteEnvelope(w http.ResponseWriter, status int, env validator.Envelope) error {
	w.Header().Set(copsig.HeaderContentType, copsig.ContentTypeJSON)
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(env)
}

// WriteData writes a successful envelope carrying data.
func WriteData(w http.ResponseWriter, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return WriteError(w, http.StatusInternalServerError, err.Error())
	}

	return WriteEnvelope(w, http.StatusOK, validator.Envelope{Code: 0, Message: "success", Data: raw})
}

// WriteError writes an envelope whose code mirrors the HTTP status.
func WriteError(w http.ResponseWriter, status int, message string) error {
	return WriteEnvelope(w, status, validator.Envelope{Code: status, Message: message})
}

// Echo describes a request as seen by the gateway.
type Echo struct {
	Method    string          `json:"method"`
	Path      string          `json:"path"`
	Query     string          `json:"query,omitempty"`
	RequestID string          `json:"requestId"`
	APIKey    string          `json:"apiKey,omitempty"`
	Body      json.RawMessage `json:"body,omitempty"`
}

// EchoHandler answers every request with an envelope describing it. JSON
// bodies are embedded as is, other bodies as a JSON string.
func EchoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			_ = WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		echo := Echo{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			RequestID: RequestIDFromContext(r.Context()),
		}

		if auth, err := copsig.ParseAuthorization(r.Header.Get(copsig.HeaderAuthorization)); err == nil {
			echo.APIKey = auth.Username
		}

		switch {
		case len(body) == 0:
		case json.Valid(body):
			echo.Body = body
		default:
			echo.Body, _ = json.Marshal(string(body))
		}

		_ = WriteData(w, echo)
	})
}
