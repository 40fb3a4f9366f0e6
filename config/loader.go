package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/coscon/cop-sdk-go/coperr"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load, e.g.
// COP_PROXY_HOST for proxy.host.
const EnvPrefix = "COP"

// LoaderConfig holds optional file locations.
type LoaderConfig struct {
	ConfigFile string // YAML settings file (optional)
	EnvFile    string // .env file loaded into the environment (optional)
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// keys lists every scalar setting bound to the environment.
var keys = []string{
	"algorithm",
	"timeout",
	"dial_timeout",
	"response_header_timeout",
	"debug",
	"allow_insecure",
	"user_agent",
	"sdk_version",
	"namespaces_file",
	"proxy.host",
	"proxy.port",
	"proxy.username",
	"proxy.password",
	"proxy.from_environment",
	"log.level",
	"log.format",
	"log.output",
	"log.no_color",
	"log.timestamp",
}

// Load reads settings in increasing precedence from defaults, the YAML file,
// the .env file and COP_* environment variables, then validates them.
// Variables already set in the environment win over the .env file.
func Load(opts ...LoaderOption) (Settings, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	v := viper.New()

	defaults := Default()
	v.SetDefault("algorithm", string(defaults.Algorithm))
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("dial_timeout", defaults.DialTimeout)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("log.output", defaults.Log.Output)

	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)

		if err := v.ReadInConfig(); err != nil {
			return Settings{}, coperr.Wrap(coperr.KindConfiguration, err, "unable to read config file "+lc.ConfigFile)
		}
	}

	if lc.EnvFile != "" {
		if err := godotenv.Load(lc.EnvFile); err != nil {
			return Settings{}, coperr.Wrap(coperr.KindConfiguration, err, "unable to load env file "+lc.EnvFile)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Settings{}, coperr.Wrap(coperr.KindConfiguration, err, "unable to bind "+key)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, coperr.Wrap(coperr.KindConfiguration, err, "unable to decode settings")
	}

	s.Credentials = append(s.Credentials, envCredentials()...)
	s.ApplyDefaults()

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// envCredentials reads credentials from COP_CREDENTIALS_<NAMESPACE>_API_KEY
// and COP_CREDENTIALS_<NAMESPACE>_SECRET pairs.
func envCredentials() []Credential {
	const prefix = EnvPrefix + "_CREDENTIALS_"

	secrets := make(map[string]string)
	apiKeys := make(map[string]string)

	var order []string

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}

		rest := strings.TrimPrefix(key, prefix)

		switch {
		case strings.HasSuffix(rest, "_API_KEY"):
			ns := strings.TrimSuffix(rest, "_API_KEY")
			if _, seen := apiKeys[ns]; !seen {
				order = append(order, ns)
			}

			apiKeys[ns] = value
		case strings.HasSuffix(rest, "_SECRET"):
			secrets[strings.TrimSuffix(rest, "_SECRET")] = value
		}
	}

	slices.Sort(order)

	creds := make([]Credential, 0, len(order))
	for _, ns := range order {
		creds = append(creds, Credential{Namespace: ns, APIKey: apiKeys[ns], Secret: secrets[ns]})
	}

	return creds
}

// String describes the settings without secrets.
func (s Settings) String() string {
	names := make([]string, 0, len(s.Credentials))
	for _, c := range s.Credentials {
		names = append(names, c.Namespace)
	}

	return fmt.Sprintf("Settings{algorithm=%s, timeout=%s, debug=%t, proxy=%t, credentials=%v}",
		s.Algorithm, s.Timeout, s.Debug, s.Proxy.Enabled(), names)
}
