package pipeline

import (
	"net/http"

	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/coscon/cop-sdk-go/credentials"
)

// SigningStage signs requests addressed to a known namespace.
type SigningStage struct {
	signer *copsig.Signer
	source credentials.Source
}

// NewSigningStage returns a stage signing with signer and credentials from
// source.
func NewSigningStage(signer *copsig.Signer, source credentials.Source) *SigningStage {
	return &SigningStage{signer: signer, source: source}
}

// Accept reports whether the request URL belongs to one of the signer's
// namespaces. Other requests pass unsigned.
func (s *SigningStage) Accept(req *http.Request) bool {
	return s.signer.AcceptRequest(req.URL.String())
}

// Apply signs a clone of req and forwards it. Signing failures abort the
// call before any network I/O.
func (s *SigningStage) Apply(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	signed, err := s.signer.Sign(s.source, req)
	if err != nil {
		return nil, annotate(err, RequestID(req))
	}

	return next.RoundTrip(signed)
}
