package copsig

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coscon/cop-sdk-go/coperr"
	"github.com/coscon/cop-sdk-go/credentials"
	"github.com/coscon/cop-sdk-go/namespace"
)

// Signer signs outgoing COP requests with one algorithm for its lifetime.
type Signer struct {
	algorithm  Algorithm
	namespaces *namespace.Set
	sdkVersion string
	insecure   bool
	now        func() time.Time
	nonce      func() string
}

// Option configures a Signer.
type Option func(*Signer)

// WithNamespaces sets the namespaces whose requests are signed. Defaults to
// namespace.Default().
func WithNamespaces(set *namespace.Set) Option {
	return func(s *Signer) {
		if set != nil {
			s.namespaces = set
		}
	}
}

// WithSDKVersion overrides the User-Agent version token.
func WithSDKVersion(version string) Option {
	return func(s *Signer) {
		if version != "" {
			s.sdkVersion = version
		}
	}
}

// WithInsecure allows signing plain HTTP requests.
func WithInsecure() Option {
	return func(s *Signer) {
		s.insecure = true
	}
}

// WithClock sets the source of the signing date.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithNonceSource sets the source of the per-request nonce.
func WithNonceSource(nonce func() string) Option {
	return func(s *Signer) {
		if nonce != nil {
			s.nonce = nonce
		}
	}
}

// NewSigner returns a Signer for alg. It fails with a signing error when
// alg is not supported.
func NewSigner(alg Algorithm, opts ...Option) (*Signer, error) {
	if !alg.Valid() {
		_, err := alg.newHash()
		return nil, coperr.Signing(err, "unable to create signer")
	}

	s := &Signer{
		algorithm:  alg,
		namespaces: namespace.Default(),
		sdkVersion: SDKVersion,
		now:        time.Now,
		nonce:      NewNonce,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Algorithm returns the signer's algorithm.
func (s *Signer) Algorithm() Algorithm {
	return s.algorithm
}

// Namespaces returns the namespaces whose requests are signed.
func (s *Signer) Namespaces() *namespace.Set {
	return s.namespaces
}

// AcceptRequest reports whether uri belongs to a known namespace and must
// therefore be signed. Requests outside every namespace pass unsigned.
func (s *Signer) AcceptRequest(uri string) bool {
	return s.namespaces.Contains(uri)
}

// Sign returns a signed clone of req. The caller's request headers are not
// modified. Credentials are resolved from src by the full request URL; a
// request without credentials fails before any network I/O.
func (s *Signer) Sign(src credentials.Source, req *http.Request) (*http.Request, error) {
	target := req.URL.String()

	creds, ok := src.Lookup(target)
	if !ok {
		return nil, coperr.CredentialResolution(target)
	}

	if !s.insecure && !strings.EqualFold(req.URL.Scheme, "https") {
		return nil, coperr.Signing(ErrInsecureRequest, "refusing to sign "+target)
	}

	clone, body, err := cloneWithBody(req)
	if err != nil {
		return nil, coperr.Signing(err, "unable to read request body")
	}

	headers, err := BuildHeaders(Input{
		APIKey:      creds.APIKey,
		Secret:      creds.Secret,
		Algorithm:   s.algorithm,
		RequestLine: RequestLine(req.Method, req.URL.EscapedPath(), req.URL.RawQuery),
		Body:        body,
		Date:        s.now(),
		Nonce:       s.nonce(),
	})
	if err != nil {
		return nil, err
	}

	for name, values := range headers {
		clone.Header[name] = values
	}

	clone.Header.Set(HeaderUserAgent, NormalizeUserAgent(clone.Header.Get(HeaderUserAgent), s.sdkVersion))
	clone.Header.Set(HeaderAccept, MIMEApplicationJSON)
	clone.Header.Set(HeaderAcceptCharset, CharsetUTF8)

	return clone, nil
}

// NormalizeUserAgent appends token to current unless current already
// contains it, ignoring case. An empty current becomes token.
func NormalizeUserAgent(current, token string) string {
	if strings.TrimSpace(current) == "" {
		return token
	}

	if strings.Contains(strings.ToUpper(current), strings.ToUpper(token)) {
		return current
	}

	return current + " " + token
}

// cloneWithBody clones req and gives the clone its own re-readable copy of
// the body. When GetBody is available the caller's body is left untouched.
func cloneWithBody(req *http.Request) (*http.Request, []byte, error) {
	clone := req.Clone(req.Context())

	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil, nil
	}

	src := req.Body
	if req.GetBody != nil {
		fresh, err := req.GetBody()
		if err != nil {
			return nil, nil, err
		}

		src = fresh
	}

	body, err := io.ReadAll(src)
	src.Close()

	if err != nil {
		return nil, nil, err
	}

	clone.Body = io.NopCloser(bytes.NewReader(body))
	clone.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	clone.ContentLength = int64(len(body))

	return clone, body, nil
}
