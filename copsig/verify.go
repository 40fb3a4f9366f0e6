package copsig

import (
	"bytes"
	"crypto/hmac"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SecretResolver returns the secret of apiKey. The request is provided for
// context, e.g. to pick a key store by host.
type SecretResolver func(r *http.Request, apiKey string) (string, error)

// StaticSecrets returns a SecretResolver backed by a map of api key to
// secret.
func StaticSecrets(secrets map[string]string) SecretResolver {
	return func(_ *http.Request, apiKey string) (string, error) {
		secret, ok := secrets[apiKey]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownAPIKey, apiKey)
		}

		return secret, nil
	}
}

// VerifyConfig configures gateway-side verification of signed requests.
type VerifyConfig struct {
	// Resolver looks up the secret for an api key. Required.
	Resolver SecretResolver

	// MaxSkew is the maximum distance between X-Coscon-Date and now. Zero
	// disables the check.
	MaxSkew time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Authorization is a parsed X-Coscon-Authorization value.
type Authorization struct {
	Username  string
	Algorithm Algorithm
	Headers   string
	Signature []byte
}

// Verify checks the COP signature of an incoming request: the digest must
// match the body and the HMAC over the canonical block must match the
// signature. The body is restored so handlers can read it.
func Verify(r *http.Request, cfg VerifyConfig) error {
	if cfg.Resolver == nil {
		return ErrNoResolver
	}

	raw := r.Header.Get(HeaderAuthorization)
	if raw == "" {
		return ErrSignatureNotFound
	}

	auth, err := ParseAuthorization(raw)
	if err != nil {
		return err
	}

	date := r.Header.Get(HeaderDate)
	nonce := r.Header.Get(HeaderContentMD5)
	digest := r.Header.Get(HeaderDigest)

	if date == "" || nonce == "" || digest == "" {
		return fmt.Errorf("%w: missing signing headers", ErrMalformedHeader)
	}

	if cfg.MaxSkew > 0 {
		signedAt, err := http.ParseTime(date)
		if err != nil {
			return fmt.Errorf("%w: invalid date", ErrMalformedHeader)
		}

		now := time.Now
		if cfg.Now != nil {
			now = cfg.Now
		}

		skew := now().Sub(signedAt)
		if skew < -cfg.MaxSkew || skew > cfg.MaxSkew {
			return ErrSignatureExpired
		}
	}

	body, err := readAndRestoreBody(r)
	if err != nil {
		return err
	}

	if BodyDigest(body) != digest {
		return ErrDigestMismatch
	}

	secret, err := cfg.Resolver(r, auth.Username)
	if err != nil {
		return err
	}

	hashFn, err := auth.Algorithm.newHash()
	if err != nil {
		return err
	}

	block := CanonicalBlock(date, digest, nonce, RequestLine(r.Method, r.URL.EscapedPath(), r.URL.RawQuery))

	mac := hmac.New(hashFn, []byte(secret))
	mac.Write([]byte(block))

	if !hmac.Equal(mac.Sum(nil), auth.Signature) {
		return ErrSignatureInvalid
	}

	return nil
}

// ParseAuthorization parses an X-Coscon-Authorization value of the form
// hmac username="..",algorithm="..",headers="..",signature="..".
func ParseAuthorization(value string) (Authorization, error) {
	var auth Authorization

	scheme, params, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "hmac") {
		return auth, fmt.Errorf("%w: expected hmac scheme", ErrMalformedHeader)
	}

	fields := make(map[string]string, 4)

	for part := range strings.SplitSeq(params, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return auth, fmt.Errorf("%w: invalid parameter %q", ErrMalformedHeader, part)
		}

		if len(val) < 2 || val[0] != '"' || val[len(val)-1] != '"' {
			return auth, fmt.Errorf("%w: parameter %s is not quoted", ErrMalformedHeader, key)
		}

		fields[key] = val[1 : len(val)-1]
	}

	auth.Username = fields["username"]
	if auth.Username == "" {
		return auth, fmt.Errorf("%w: missing username", ErrMalformedHeader)
	}

	alg, err := ParseAlgorithm(fields["algorithm"])
	if err != nil {
		return auth, err
	}

	auth.Algorithm = alg

	auth.Headers = fields["headers"]
	if auth.Headers != SignedHeaders {
		return auth, fmt.Errorf("%w: unexpected signed headers %q", ErrMalformedHeader, auth.Headers)
	}

	sig, err := base64.StdEncoding.DecodeString(fields["signature"])
	if err != nil || len(sig) == 0 {
		return auth, fmt.Errorf("%w: invalid base64 in signature", ErrMalformedHeader)
	}

	auth.Signature = sig

	return auth, nil
}

// readAndRestoreBody reads the entire request body and replaces it with a
// new reader so the body can be consumed again by downstream handlers.
func readAndRestoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}
