package pipeline

import (
	"net/http"

	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/google/uuid"
)

// RequestIDStage tags every request with an X-Coscon-Request-ID and echoes
// it on the response. An id already present on the request is kept.
type RequestIDStage struct {
	generate func() string
}

// NewRequestIDStage returns a RequestIDStage. When generate is nil, random
// UUIDs are used.
func NewRequestIDStage(generate func() string) *RequestIDStage {
	if generate == nil {
		generate = uuid.NewString
	}

	return &RequestIDStage{generate: generate}
}

// Accept reports true for every request.
func (s *RequestIDStage) Accept(_ *http.Request) bool {
	return true
}

// Apply sets the request id and copies it to the response when the server
// did not send one back.
func (s *RequestIDStage) Apply(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	id := RequestID(req)
	if id == "" {
		id = s.generate()

		req = req.Clone(req.Context())
		req.Header.Set(copsig.HeaderRequestID, id)
	}

	resp, err := next.RoundTrip(req)
	if err != nil {
		return nil, annotate(err, id)
	}

	if resp.Header == nil {
		resp.Header = make(http.Header)
	}

	if resp.Header.Get(copsig.HeaderRequestID) == "" {
		resp.Header.Set(copsig.HeaderRequestID, id)
	}

	return resp, nil
}
