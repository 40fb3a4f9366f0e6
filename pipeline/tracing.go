package pipeline

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/coscon/cop-sdk-go/pipeline"

// Span attribute keys.
const (
	AttrRequestID  = "cop.request_id"
	AttrMethod     = "http.request.method"
	AttrURL        = "url.full"
	AttrStatusCode = "http.response.status_code"
)

// TracingStage wraps every exchange in a client span and propagates the
// trace context in the request headers.
type TracingStage struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// NewTracingStage returns a stage tracing with tp. When tp is nil the
// global tracer provider is used.
func NewTracingStage(tp trace.TracerProvider) *TracingStage {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &TracingStage{
		tracer:     tp.Tracer(tracerName),
		propagator: otel.GetTextMapPropagator(),
	}
}

// Accept reports true for every request.
func (s *TracingStage) Accept(_ *http.Request) bool {
	return true
}

// Apply starts a span named after the request method and ends it when the
// response headers arrive.
func (s *TracingStage) Apply(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	ctx, span := s.tracer.Start(req.Context(), "cop "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrMethod, req.Method),
			attribute.String(AttrURL, req.URL.String()),
			attribute.String(AttrRequestID, RequestID(req)),
		),
	)
	defer span.End()

	out := req.Clone(ctx)
	s.propagator.Inject(ctx, propagation.HeaderCarrier(out.Header))

	resp, err := next.RoundTrip(out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(attribute.Int(AttrStatusCode, resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, resp.Status)
	}

	return resp, nil
}
