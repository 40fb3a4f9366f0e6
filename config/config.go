// Package config holds the settings of a COP client and loads them from
// YAML files, .env files and COP_* environment variables.
package config

import (
	"time"

	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/coscon/cop-sdk-go/logging"
)

// Defaults.
const (
	DefaultTimeout               = 30 * time.Second
	DefaultDialTimeout           = 10 * time.Second
	DefaultResponseHeaderTimeout = 0
)

// Settings configures a COP client.
type Settings struct {
	// Algorithm signs every request. Defaults to hmac-sha1.
	Algorithm copsig.Algorithm `yaml:"algorithm" mapstructure:"algorithm" validate:"cop_algorithm"`

	// Timeout bounds a whole call including reading the body.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// DialTimeout bounds establishing a connection.
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout" validate:"gte=0"`

	// ResponseHeaderTimeout bounds waiting for response headers. Zero means
	// no limit beyond Timeout.
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout" mapstructure:"response_header_timeout" validate:"gte=0"`

	// Debug enables per-request logging.
	Debug bool `yaml:"debug" mapstructure:"debug"`

	// AllowInsecure allows signing plain HTTP requests. Meant for local
	// gateway emulation only.
	AllowInsecure bool `yaml:"allow_insecure" mapstructure:"allow_insecure"`

	// UserAgent is sent on every request; the SDK token is appended.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// SDKVersion overrides the SDK token in User-Agent and X-Cop-Client-SDK.
	SDKVersion string `yaml:"sdk_version" mapstructure:"sdk_version"`

	Proxy Proxy `yaml:"proxy" mapstructure:"proxy"`

	// NamespacesFile is a YAML catalog of extra namespaces.
	NamespacesFile string `yaml:"namespaces_file" mapstructure:"namespaces_file" validate:"omitempty,file"`

	Credentials []Credential `yaml:"credentials" mapstructure:"credentials" validate:"dive"`

	Log logging.Config `yaml:"log" mapstructure:"log"`
}

// Proxy configures the outbound HTTP proxy.
type Proxy struct {
	Host     string `yaml:"host" mapstructure:"host" validate:"required_with=Port"`
	Port     int    `yaml:"port" mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Username string `yaml:"username" mapstructure:"username" validate:"required_with=Password"`
	Password string `yaml:"password" mapstructure:"password"`

	// FromEnvironment resolves the proxy from HTTP_PROXY, HTTPS_PROXY and
	// NO_PROXY. Host takes precedence when both are set.
	FromEnvironment bool `yaml:"from_environment" mapstructure:"from_environment"`
}

// Enabled reports whether a proxy is configured.
func (p Proxy) Enabled() bool {
	return p.Host != "" || p.FromEnvironment
}

// Credential binds an api key and secret to a namespace by name.
type Credential struct {
	Namespace string `yaml:"namespace" mapstructure:"namespace" validate:"required"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key" validate:"required"`
	Secret    string `yaml:"secret" mapstructure:"secret" validate:"required"`
}

// Default returns settings with every default applied.
func Default() Settings {
	var s Settings
	s.ApplyDefaults()

	return s
}

// ApplyDefaults fills in zero-value fields and canonicalizes the algorithm
// name.
func (s *Settings) ApplyDefaults() {
	if s.Algorithm == "" {
		s.Algorithm = copsig.DefaultAlgorithm
	} else if alg, err := copsig.ParseAlgorithm(string(s.Algorithm)); err == nil {
		s.Algorithm = alg
	}

	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}

	if s.DialTimeout <= 0 {
		s.DialTimeout = DefaultDialTimeout
	}

	if s.SDKVersion == "" {
		s.SDKVersion = copsig.SDKVersion
	}

	s.Log.ApplyDefaults()
}
