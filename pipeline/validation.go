package pipeline

import (
	"bytes"
	"io"
	"net/http"

	"github.com/coscon/cop-sdk-go/coperr"
	"github.com/coscon/cop-sdk-go/validator"
)

// ValidationStage checks successful responses with the validator registered
// for the request namespace.
type ValidationStage struct {
	validators *validator.Provider
}

// NewValidationStage returns a stage validating with validators.
func NewValidationStage(validators *validator.Provider) *ValidationStage {
	return &ValidationStage{validators: validators}
}

// Accept reports whether a validator is registered for the request URL.
func (s *ValidationStage) Accept(req *http.Request) bool {
	_, ok := s.validators.Lookup(req.URL.String())
	return ok
}

// Apply forwards req and validates 2xx responses. The body is buffered so
// the validator and the caller both read it in full. A rejected response is
// closed and replaced by a validation error.
func (s *ValidationStage) Apply(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	resp, err := next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}

	v, ok := s.validators.Lookup(req.URL.String())
	if !ok {
		return resp, nil
	}

	requestID := RequestID(req)

	body, err := bufferBody(resp)
	if err != nil {
		return nil, coperr.Transport(err, requestID)
	}

	if !v.Validate(resp) {
		return nil, coperr.Validation(requestID)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))

	return resp, nil
}

// bufferBody reads and closes the response body, then installs a fresh
// reader over the same bytes.
func bufferBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil || resp.Body == http.NoBody {
		resp.Body = http.NoBody
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()

	if err != nil {
		return nil, err
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))

	return body, nil
}
