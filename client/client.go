// Package client is the COP API client: it owns one signing and validating
// HTTP transport and exposes GET and POST calls addressed by namespace.
//
// A Client moves through three states. While configured, credentials,
// validators and the signing algorithm are registered. Build creates the
// transport exactly once. Close releases it; every later use fails with
// coperr.ErrNotInitialized.
//
//	c := client.New(client.WithLogger(logger))
//	if err := c.WithCredentials(namespace.PublicPP, apiKey, secret); err != nil {
//	    return err
//	}
//	if err := c.Build(); err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	body, err := c.Get(ctx, namespace.PublicPP, "/info/tracking/6103622780?numberType=bl", nil)
package client

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coscon/cop-sdk-go/config"
	"github.com/coscon/cop-sdk-go/coperr"
	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/coscon/cop-sdk-go/credentials"
	"github.com/coscon/cop-sdk-go/namespace"
	"github.com/coscon/cop-sdk-go/pipeline"
	"github.com/coscon/cop-sdk-go/validator"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// State is the lifecycle state of a Client.
type State int

// Client states.
const (
	StateConfigured State = iota
	StateBuilt
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateBuilt:
		return "built"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client is a COP API client. It is safe for concurrent use once built.
type Client struct {
	mu    sync.RWMutex
	state State

	settings    config.Settings
	logger      zerolog.Logger
	namespaces  *namespace.Set
	credentials *credentials.Provider
	validators  *validator.Provider
	algorithm   copsig.Algorithm
	handler     ResponseHandler

	base      *http.Transport
	tracer    trace.TracerProvider
	now       func() time.Time
	nonce     func() string
	requestID func() string

	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithSettings sets the client settings. Defaults are applied to zero
// fields.
func WithSettings(s config.Settings) Option {
	return func(c *Client) {
		s.ApplyDefaults()
		c.settings = s
		c.algorithm = s.Algorithm
	}
}

// WithLogger sets the logger. Defaults to a disabled logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithNamespaces sets the namespaces the client signs for. Defaults to
// namespace.Default().
func WithNamespaces(set *namespace.Set) Option {
	return func(c *Client) {
		if set != nil {
			c.namespaces = set
		}
	}
}

// WithTransport sets the base transport. Build configures its proxy and
// dial timeout. Defaults to a clone of http.DefaultTransport.
func WithTransport(base *http.Transport) Option {
	return func(c *Client) {
		c.base = base
	}
}

// WithResponseHandler sets the handler used by Get and Post. Defaults to
// DefaultResponseHandler.
func WithResponseHandler(h ResponseHandler) Option {
	return func(c *Client) {
		if h != nil {
			c.handler = h
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Defaults to
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = tp
	}
}

// WithClock sets the source of the signing date.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithNonceSource sets the source of signing nonces.
func WithNonceSource(nonce func() string) Option {
	return func(c *Client) {
		c.nonce = nonce
	}
}

// WithRequestIDSource sets the source of X-Coscon-Request-ID values.
func WithRequestIDSource(id func() string) Option {
	return func(c *Client) {
		if id != nil {
			c.requestID = id
		}
	}
}

// New returns a configured, unbuilt Client.
func New(opts ...Option) *Client {
	c := &Client{
		state:       StateConfigured,
		settings:    config.Default(),
		logger:      zerolog.Nop(),
		namespaces:  namespace.Default(),
		credentials: credentials.NewProvider(),
		validators:  validator.NewProvider(),
		handler:     DefaultResponseHandler,
		requestID:   uuid.NewString,
	}

	c.algorithm = c.settings.Algorithm

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewFromSettings returns a client configured from s: extra namespaces are
// loaded from s.NamespacesFile and s.Credentials are registered.
func NewFromSettings(s config.Settings, opts ...Option) (*Client, error) {
	set := namespace.Default()

	if s.NamespacesFile != "" {
		loaded, err := namespace.LoadSetFile(s.NamespacesFile, true)
		if err != nil {
			return nil, coperr.Wrap(coperr.KindConfiguration, err, "unable to load namespaces")
		}

		set = loaded
	}

	c := New(append([]Option{WithSettings(s), WithNamespaces(set)}, opts...)...)

	for _, cred := range s.Credentials {
		ns, ok := c.namespaces.Lookup(cred.Namespace)
		if !ok {
			return nil, coperr.Configuration("unknown namespace %s", cred.Namespace)
		}

		if err := c.WithCredentials(ns, cred.APIKey, cred.Secret); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// State returns the lifecycle state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// Namespaces returns the namespaces the client signs for.
func (c *Client) Namespaces() *namespace.Set {
	return c.namespaces
}

// Settings returns the client settings.
func (c *Client) Settings() (config.Settings, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state == StateClosed {
		return config.Settings{}, coperr.NotInitialized("client settings")
	}

	return c.settings, nil
}

// Algorithm returns the signing algorithm.
func (c *Client) Algorithm() (copsig.Algorithm, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state == StateClosed {
		return "", coperr.NotInitialized("signing algorithm")
	}

	return c.algorithm, nil
}

// WithCredentials registers the credentials of ns. A namespace takes
// credentials once per client lifetime: a second registration fails even
// with equal values.
func (c *Client) WithCredentials(ns namespace.Namespace, apiKey, secret string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return coperr.NotInitialized("credentials provider")
	}

	if known, ok := c.namespaces.Lookup(ns.Name); !ok || known != ns {
		return coperr.Configuration("namespace %s is not known to the client", ns)
	}

	if apiKey == "" || secret == "" {
		return coperr.Configuration("api key and secret of namespace %s may not be empty", ns)
	}

	if _, exists := c.credentials.Get(ns); exists {
		return coperr.Configuration("unable to overwrite existing credentials for namespace %s", ns)
	}

	if err := c.credentials.Set(ns, credentials.New(ns, apiKey, secret)); err != nil {
		return err
	}

	c.logger.Debug().Str("namespace", ns.Name).Str("api_key", apiKey).Msg("credentials registered")

	return nil
}

// SetValidator registers v for responses from ns.
func (c *Client) SetValidator(ns namespace.Namespace, v validator.Validator) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return coperr.NotInitialized("validator provider")
	}

	if err := c.validators.Set(ns, v); err != nil {
		return err
	}

	c.logger.Debug().Str("namespace", ns.Name).Msg("validator registered")

	return nil
}

// SetAlgorithm sets the signing algorithm. It is only allowed before Build.
func (c *Client) SetAlgorithm(alg copsig.Algorithm) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return coperr.NotInitialized("signer")
	case StateBuilt:
		return coperr.Configuration("unable to overwrite signer of a built client")
	}

	if !alg.Valid() {
		return coperr.Signing(copsig.ErrUnsupportedAlgorithm, "unable to use algorithm "+string(alg))
	}

	c.algorithm = alg

	return nil
}

// Build creates the transport. The signing stage runs before the
// validation stage and both wrap the proxied base transport. Build may be
// called once.
func (c *Client) Build() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return coperr.NotInitialized("client")
	case StateBuilt:
		return coperr.Configuration("unable to overwrite transport")
	}

	signerOpts := []copsig.Option{
		copsig.WithNamespaces(c.namespaces),
		copsig.WithSDKVersion(c.settings.SDKVersion),
		copsig.WithClock(c.now),
		copsig.WithNonceSource(c.nonce),
	}

	if c.settings.AllowInsecure {
		signerOpts = append(signerOpts, copsig.WithInsecure())
	}

	signer, err := copsig.NewSigner(c.algorithm, signerOpts...)
	if err != nil {
		return err
	}

	base, err := c.baseTransport()
	if err != nil {
		return err
	}

	stages := []pipeline.Stage{
		pipeline.NewRequestIDStage(c.requestID),
		pipeline.NewTracingStage(c.tracer),
		pipeline.NewSigningStage(signer, c.credentials),
		pipeline.NewValidationStage(c.validators),
	}

	if c.settings.Debug {
		stages = append(stages, pipeline.NewLoggingStage(c.logger))
	}

	c.httpClient = &http.Client{
		Transport: pipeline.Chain(base, stages...),
		Timeout:   c.settings.Timeout,
	}
	c.state = StateBuilt

	c.logger.Debug().
		Str("algorithm", c.algorithm.Ref()).
		Dur("timeout", c.settings.Timeout).
		Bool("proxy", c.settings.Proxy.Enabled()).
		Int("credentials", c.credentials.Len()).
		Msg("cop client built")

	return nil
}

// baseTransport applies dial timeout and proxy settings to the base
// transport.
func (c *Client) baseTransport() (*http.Transport, error) {
	base := c.base
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	if c.settings.DialTimeout > 0 {
		base.DialContext = (&net.Dialer{
			Timeout:   c.settings.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
	}

	if c.settings.ResponseHeaderTimeout > 0 {
		base.ResponseHeaderTimeout = c.settings.ResponseHeaderTimeout
	}

	proxy, err := ProxyFunc(c.settings.Proxy)
	if err != nil {
		return nil, err
	}

	base.Proxy = proxy

	return base, nil
}

// HTTPClient returns the built http.Client. Requests sent through it are
// signed and validated like those of Get and Post.
func (c *Client) HTTPClient() (*http.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state != StateBuilt {
		return nil, coperr.NotInitialized("transport")
	}

	return c.httpClient, nil
}

// Close releases idle connections and drops all credentials and
// validators. Closing a closed client returns ErrNotInitialized and has no
// other effect.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return coperr.NotInitialized("client")
	}

	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}

	c.httpClient = nil
	c.credentials.Clear()
	c.validators.Clear()
	c.state = StateClosed

	c.logger.Debug().Msg("cop client closed")

	return nil
}
