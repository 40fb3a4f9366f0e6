// Package coperr defines the error kinds reported by the COP SDK.
//
// Every error produced by the SDK is an *Error carrying a Kind. Kinds are
// matched with errors.Is against the exported sentinels:
//
//	if errors.Is(err, coperr.ErrCredentialResolution) {
//	    // no credentials registered for the target namespace
//	}
//
// The original cause, when present, stays reachable through errors.Is and
// errors.As.
package coperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an SDK error.
type Kind int

const (
	// KindConfiguration covers client misuse: overwriting the transport,
	// signer or credentials, and use after close.
	KindConfiguration Kind = iota + 1

	// KindCredentialResolution is reported when no credentials resolve for
	// the target URL of a request.
	KindCredentialResolution

	// KindSigning covers unsupported algorithms, key failures and body
	// read failures while signing.
	KindSigning

	// KindValidation is reported when a response fails its validator.
	KindValidation

	// KindTransport wraps network and I/O failures of the underlying
	// transport and unexpected HTTP statuses.
	KindTransport

	// KindBusiness is a server-reported business error (envelope code != 0).
	KindBusiness
)

var kindNames = map[Kind]string{
	KindConfiguration:        "configuration",
	KindCredentialResolution: "credential resolution",
	KindSigning:              "signing",
	KindValidation:           "validation",
	KindTransport:            "transport",
	KindBusiness:             "business",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Kind sentinels. Every *Error matches exactly one of them with errors.Is.
var (
	ErrConfiguration        = errors.New("cop: configuration error")
	ErrCredentialResolution = errors.New("cop: credential resolution error")
	ErrSigning              = errors.New("cop: signing error")
	ErrValidation           = errors.New("cop: validation error")
	ErrTransport            = errors.New("cop: transport error")
	ErrBusiness             = errors.New("cop: business error")
)

// ErrNotInitialized is returned when a client is used after Close.
var ErrNotInitialized = errors.New("cop: client not initialized")

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindCredentialResolution:
		return ErrCredentialResolution
	case KindSigning:
		return ErrSigning
	case KindValidation:
		return ErrValidation
	case KindTransport:
		return ErrTransport
	case KindBusiness:
		return ErrBusiness
	default:
		return nil
	}
}

// Error is the error type returned by the SDK.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Message is a human-readable description.
	Message string

	// RequestID is the X-Coscon-Request-ID of the failed call, when known.
	RequestID string

	// Code is the business code from the response envelope (KindBusiness)
	// or the HTTP status (KindTransport), when known.
	Code int

	// Cause is the underlying error.
	Cause error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("cop: ")
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)

	if e.Code != 0 {
		fmt.Fprintf(&b, " (code %d)", e.Code)
	}

	if e.RequestID != "" {
		b.WriteString(" [request-id ")
		b.WriteString(e.RequestID)
		b.WriteString("]")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}

	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}

	return errs
}

// WithRequestID sets the request id when it is not already set and returns
// the receiver.
func (e *Error) WithRequestID(id string) *Error {
	if e.RequestID == "" {
		e.RequestID = id
	}

	return e
}

// New returns an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an *Error of the given kind with cause attached.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Configuration returns a KindConfiguration error.
func Configuration(format string, args ...any) *Error {
	return New(KindConfiguration, fmt.Sprintf(format, args...))
}

// NotInitialized returns a KindConfiguration error wrapping
// ErrNotInitialized.
func NotInitialized(what string) *Error {
	return Wrap(KindConfiguration, ErrNotInitialized, what+" is not available")
}

// CredentialResolution returns a KindCredentialResolution error for url.
func CredentialResolution(url string) *Error {
	return New(KindCredentialResolution, "unable to find suitable credentials for "+url)
}

// Signing returns a KindSigning error wrapping cause.
func Signing(cause error, message string) *Error {
	return Wrap(KindSigning, cause, message)
}

// Validation returns a KindValidation error for the given request id.
func Validation(requestID string) *Error {
	return &Error{Kind: KindValidation, Message: "response validation failed", RequestID: requestID}
}

// Transport returns a KindTransport error wrapping cause.
func Transport(cause error, requestID string) *Error {
	return &Error{Kind: KindTransport, Message: "request failed", RequestID: requestID, Cause: cause}
}

// Status returns a KindTransport error for an unexpected HTTP status.
func Status(status int, reason, requestID string) *Error {
	return &Error{
		Kind:      KindTransport,
		Message:   "unexpected http response status: " + reason,
		Code:      status,
		RequestID: requestID,
	}
}

// Business returns a KindBusiness error carrying the envelope code and
// message.
func Business(code int, message, requestID string) *Error {
	return &Error{Kind: KindBusiness, Message: message, Code: code, RequestID: requestID}
}

// KindOf returns the kind of err, or zero when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return 0
}

// RequestIDOf returns the request id attached to err, if any.
func RequestIDOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.RequestID
	}

	return ""
}
