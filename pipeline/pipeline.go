// Package pipeline composes the per-request stages of a COP client into an
// http.RoundTripper.
//
// A Stage decides with Accept whether a request concerns it and, if so,
// wraps the rest of the chain in Apply. Requests a stage does not accept
// pass straight to the next stage:
//
//	rt := pipeline.Chain(base,
//	    pipeline.NewRequestIDStage(nil),
//	    pipeline.NewSigningStage(signer, provider),
//	    pipeline.NewValidationStage(validators),
//	)
//	client := &http.Client{Transport: rt}
package pipeline

import (
	"errors"
	"net/http"

	"github.com/coscon/cop-sdk-go/coperr"
	"github.com/coscon/cop-sdk-go/copsig"
)

// Stage is one step of the request pipeline.
type Stage interface {
	// Accept reports whether the stage applies to req.
	Accept(req *http.Request) bool

	// Apply handles req and delegates to next. Like a RoundTripper, it must
	// not modify req; clone it instead.
	Apply(req *http.Request, next http.RoundTripper) (*http.Response, error)
}

// RoundTripperFunc adapts an ordinary function to http.RoundTripper.
type RoundTripperFunc func(req *http.Request) (*http.Response, error)

// RoundTrip calls f(req).
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type link struct {
	stage Stage
	next  http.RoundTripper
}

func (l *link) RoundTrip(req *http.Request) (*http.Response, error) {
	if !l.stage.Accept(req) {
		return l.next.RoundTrip(req)
	}

	return l.stage.Apply(req, l.next)
}

// Chain returns a RoundTripper running stages around base. The first stage
// sees the request first and the response last. Nil stages are skipped.
// When base is nil, a clone of http.DefaultTransport is used.
func Chain(base http.RoundTripper, stages ...Stage) http.RoundTripper {
	rt := base
	if rt == nil {
		rt = http.DefaultTransport.(*http.Transport).Clone()
	}

	for i := len(stages) - 1; i >= 0; i-- {
		if stages[i] == nil {
			continue
		}

		rt = &link{stage: stages[i], next: rt}
	}

	return rt
}

// RequestID returns the X-Coscon-Request-ID of req.
func RequestID(req *http.Request) string {
	return req.Header.Get(copsig.HeaderRequestID)
}

// annotate attaches requestID to SDK errors. Other errors are returned
// unchanged.
func annotate(err error, requestID string) error {
	var copErr *coperr.Error
	if errors.As(err, &copErr) {
		copErr.WithRequestID(requestID)
	}

	return err
}
