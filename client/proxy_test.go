package client

import (
	"context"
	"encoding/base64"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/coscon/cop-sdk-go/config"
	"github.com/coscon/cop-sdk-go/coperr"
	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/coscon/cop-sdk-go/gateway"
	"github.com/coscon/cop-sdk-go/namespace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyFunc(t *testing.T) {
	target := &http.Request{URL: &url.URL{Scheme: "https", Host: "api.example.com", Path: "/service/x"}}

	t.Run("none", func(t *testing.T) {
		fn, err := ProxyFunc(config.Proxy{})
		require.NoError(t, err)
		assert.Nil(t, fn)
	})

	t.Run("host and port", func(t *testing.T) {
		fn, err := ProxyFunc(config.Proxy{Host: "proxy.local", Port: 3128})
		require.NoError(t, err)

		got, err := fn(target)
		require.NoError(t, err)
		assert.Equal(t, "http://proxy.local:3128", got.String())
		assert.Nil(t, got.User)
	})

	t.Run("credentials", func(t *testing.T) {
		fn, err := ProxyFunc(config.Proxy{Host: "proxy.local", Port: 3128, Username: "alice", Password: "p@ss"})
		require.NoError(t, err)

		got, err := fn(target)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.User.Username())

		password, ok := got.User.Password()
		assert.True(t, ok)
		assert.Equal(t, "p@ss", password)
	})

	t.Run("ipv6 host", func(t *testing.T) {
		fn, err := ProxyFunc(config.Proxy{Host: "::1", Port: 8080})
		require.NoError(t, err)

		got, err := fn(target)
		require.NoError(t, err)
		assert.Equal(t, "[::1]:8080", got.Host)
	})

	t.Run("invalid port", func(t *testing.T) {
		for _, port := range []int{0, -1, 65536} {
			_, err := ProxyFunc(config.Proxy{Host: "proxy.local", Port: port})
			assert.ErrorIs(t, err, coperr.ErrConfiguration, "port %d", port)
		}
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("HTTPS_PROXY", "http://env-proxy.local:8888")
		t.Setenv("https_proxy", "")
		t.Setenv("NO_PROXY", "internal.example.com")
		t.Setenv("no_proxy", "")

		fn, err := ProxyFunc(config.Proxy{FromEnvironment: true})
		require.NoError(t, err)

		got, err := fn(target)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "env-proxy.local:8888", got.Host)

		bypassed, err := fn(&http.Request{URL: &url.URL{Scheme: "https", Host: "internal.example.com"}})
		require.NoError(t, err)
		assert.Nil(t, bypassed)
	})

	t.Run("explicit host wins over environment", func(t *testing.T) {
		t.Setenv("HTTPS_PROXY", "http://env-proxy.local:8888")

		fn, err := ProxyFunc(config.Proxy{Host: "proxy.local", Port: 3128, FromEnvironment: true})
		require.NoError(t, err)

		got, err := fn(target)
		require.NoError(t, err)
		assert.Equal(t, "proxy.local:3128", got.Host)
	})
}

func TestClientThroughProxy(t *testing.T) {
	var (
		mu        sync.Mutex
		proxyAuth string
		proxyHost string
		signed    bool
	)

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		proxyAuth = r.Header.Get("Proxy-Authorization")
		proxyHost = r.URL.Host
		signed = r.Header.Get(copsig.HeaderAuthorization) != ""
		mu.Unlock()

		_ = gateway.WriteData(w, "proxied")
	}))
	defer proxy.Close()

	addr := proxy.Listener.Addr().(*net.TCPAddr)

	s := config.Default()
	s.AllowInsecure = true
	s.Proxy = config.Proxy{
		Host:     addr.IP.String(),
		Port:     addr.Port,
		Username: "alice",
		Password: "secret",
	}

	ns := namespace.Namespace{Name: "COP_PROXIED", RootURL: "http://cop.internal/service"}

	c := New(WithSettings(s), WithNamespaces(namespace.MustSet(ns)))
	require.NoError(t, c.WithCredentials(ns, "k", "s"))
	require.NoError(t, c.Build())
	defer c.Close()

	body, err := c.Get(context.Background(), ns, "/via-proxy", nil)
	require.NoError(t, err)
	assert.Contains(t, body, "proxied")

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("alice:secret")), proxyAuth)
	assert.Equal(t, "cop.internal", proxyHost)
	assert.True(t, signed)
}

func TestDefaultResponseHandler(t *testing.T) {
	t.Run("returns the body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rec.Header().Set(copsig.HeaderRequestID, "req-1")
		_, _ = rec.WriteString("hello")

		body, err := DefaultResponseHandler(rec.Result())
		require.NoError(t, err)
		assert.Equal(t, "hello", body)
	})

	t.Run("accepts any 2xx", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rec.WriteHeader(http.StatusNoContent)

		body, err := DefaultResponseHandler(rec.Result())
		require.NoError(t, err)
		assert.Empty(t, body)
	})

	t.Run("fails other statuses", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rec.Header().Set(copsig.HeaderRequestID, "req-2")
		rec.WriteHeader(http.StatusNotFound)

		_, err := DefaultResponseHandler(rec.Result())
		assert.ErrorIs(t, err, coperr.ErrTransport)

		var copErr *coperr.Error
		require.ErrorAs(t, err, &copErr)
		assert.Equal(t, http.StatusNotFound, copErr.Code)
		assert.Equal(t, "req-2", copErr.RequestID)
	})
}
