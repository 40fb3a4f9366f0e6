package copsig

import "errors"

// Signing errors. Signer and BuildHeaders return them wrapped in a
// coperr.Error of kind KindSigning.
var (
	// ErrUnsupportedAlgorithm is returned for an unknown algorithm name.
	ErrUnsupportedAlgorithm = errors.New("copsig: unsupported algorithm")

	// ErrInvalidKey is returned when the secret cannot key an HMAC.
	ErrInvalidKey = errors.New("copsig: invalid key material")

	// ErrInsecureRequest is returned when signing a non-HTTPS request
	// without WithInsecure.
	ErrInsecureRequest = errors.New("copsig: unsecure request is not allowed")
)

// Verification errors.
var (
	// ErrNoResolver is returned when VerifyConfig has no SecretResolver.
	ErrNoResolver = errors.New("copsig: secret resolver must not be nil")

	// ErrSignatureNotFound is returned when the authorization header is
	// absent.
	ErrSignatureNotFound = errors.New("copsig: signature not found")

	// ErrMalformedHeader is returned when a signing header cannot be parsed.
	ErrMalformedHeader = errors.New("copsig: malformed signature header")

	// ErrSignatureInvalid is returned when the HMAC does not match.
	ErrSignatureInvalid = errors.New("copsig: signature verification failed")

	// ErrSignatureExpired is returned when the signing date is outside the
	// allowed clock skew.
	ErrSignatureExpired = errors.New("copsig: signature expired")

	// ErrDigestMismatch is returned when X-Coscon-Digest does not match the
	// request body.
	ErrDigestMismatch = errors.New("copsig: content digest mismatch")

	// ErrUnknownAPIKey may be returned by a SecretResolver for an API key it
	// does not know.
	ErrUnknownAPIKey = errors.New("copsig: unknown api key")
)
