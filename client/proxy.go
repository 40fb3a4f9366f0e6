package client

import (
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/coscon/cop-sdk-go/config"
	"github.com/coscon/cop-sdk-go/coperr"
	"golang.org/x/net/http/httpproxy"
)

// ProxyFunc returns the http.Transport proxy function for p, or nil when no
// proxy is configured. Proxy credentials are sent as basic
// Proxy-Authorization.
func ProxyFunc(p config.Proxy) (func(*http.Request) (*url.URL, error), error) {
	if p.Host != "" {
		if p.Port <= 0 || p.Port > 65535 {
			return nil, coperr.Configuration("invalid proxy port %d", p.Port)
		}

		proxyURL := &url.URL{
			Scheme: "http",
			Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		}

		if p.Username != "" {
			proxyURL.User = url.UserPassword(p.Username, p.Password)
		}

		return http.ProxyURL(proxyURL), nil
	}

	if p.FromEnvironment {
		resolve := httpproxy.FromEnvironment().ProxyFunc()

		return func(req *http.Request) (*url.URL, error) {
			return resolve(req.URL)
		}, nil
	}

	return nil, nil
}
