package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/coscon/cop-sdk-go/credentials"
	"github.com/coscon/cop-sdk-go/namespace"
	"github.com/coscon/cop-sdk-go/validator"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body []byte) validator.Envelope {
	t.Helper()

	env, err := validator.DecodeEnvelope(body)
	require.NoError(t, err)

	return env
}

func TestGateway(t *testing.T) {
	handler, err := New(Config{
		Secrets: copsig.StaticSecrets(map[string]string{"gw-key": "gw-secret"}),
		MaxSkew: 5 * time.Minute,
	}, EchoHandler())
	require.NoError(t, err)

	ts := httptest.NewTLSServer(handler)
	defer ts.Close()

	ns := namespace.Namespace{Name: "COP_LOCAL", RootURL: ts.URL + "/service"}

	provider := credentials.NewProvider()
	require.NoError(t, provider.Set(ns, credentials.New(ns, "gw-key", "gw-secret")))

	signer, err := copsig.NewSigner(copsig.HmacSHA1, copsig.WithNamespaces(namespace.MustSet(ns)))
	require.NoError(t, err)

	t.Run("echoes signed requests", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ns.URL("/synconhub/search?page=1"), strings.NewReader(`{"a":1}`))
		require.NoError(t, err)
		req.Header.Set(copsig.HeaderRequestID, "req-7")

		signed, err := signer.Sign(provider, req)
		require.NoError(t, err)

		resp, err := ts.Client().Do(signed)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "req-7", resp.Header.Get(copsig.HeaderRequestID))
		assert.Equal(t, copsig.ContentTypeJSON, resp.Header.Get(copsig.HeaderContentType))

		var buf bytes.Buffer
		_, err = buf.ReadFrom(resp.Body)
		require.NoError(t, err)

		env := decode(t, buf.Bytes())
		assert.True(t, env.OK())

		var echo Echo
		require.NoError(t, env.Decode(&echo))

		assert.Equal(t, http.MethodPost, echo.Method)
		assert.Equal(t, "/service/synconhub/search", echo.Path)
		assert.Equal(t, "page=1", echo.Query)
		assert.Equal(t, "req-7", echo.RequestID)
		assert.Equal(t, "gw-key", echo.APIKey)
		assert.JSONEq(t, `{"a":1}`, string(echo.Body))
	})

	t.Run("rejects unsigned requests with an envelope", func(t *testing.T) {
		resp, err := ts.Client().Get(ns.URL("/x"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get(copsig.HeaderRequestID))

		var buf bytes.Buffer
		_, err = buf.ReadFrom(resp.Body)
		require.NoError(t, err)

		env := decode(t, buf.Bytes())
		assert.Equal(t, http.StatusUnauthorized, env.Code)
		assert.Contains(t, env.Message, "signature verification failed")
	})

	t.Run("logs failures", func(t *testing.T) {
		var logs bytes.Buffer

		logged, err := New(Config{
			Secrets: copsig.StaticSecrets(map[string]string{}),
			Logger:  zerolog.New(&logs),
		}, EchoHandler())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/service/x", nil)
		req.Header.Set(copsig.HeaderRequestID, "req-8")

		rec := httptest.NewRecorder()
		logged.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, logs.String(), "signature verification failed")
		assert.Contains(t, logs.String(), "req-8")
	})

	t.Run("requires secrets", func(t *testing.T) {
		_, err := New(Config{}, EchoHandler())
		assert.ErrorIs(t, err, copsig.ErrNoResolver)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string

	inner := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	})

	t.Run("generates", func(t *testing.T) {
		h := RequestIDMiddleware(RequestIDConfig{GenerateFunc: func() string { return "gen-1" }})(inner)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "gen-1", seen)
		assert.Equal(t, "gen-1", rec.Header().Get(copsig.HeaderRequestID))
	})

	t.Run("ignores incoming unless trusted", func(t *testing.T) {
		h := RequestIDMiddleware(RequestIDConfig{GenerateFunc: func() string { return "gen-2" }})(inner)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(copsig.HeaderRequestID, "client-id")

		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "gen-2", seen)
	})

	t.Run("trusts incoming", func(t *testing.T) {
		h := RequestIDMiddleware(RequestIDConfig{TrustIncoming: true})(inner)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(copsig.HeaderRequestID, "client-id")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "client-id", seen)
		assert.Equal(t, "client-id", rec.Header().Get(copsig.HeaderRequestID))
	})

	t.Run("default generator", func(t *testing.T) {
		h := RequestIDMiddleware(RequestIDConfig{})(inner)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, seen, 36)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	var recovered any

	h := RecoveryMiddleware(RecoveryConfig{
		LogFunc: func(_ *http.Request, v any) { recovered = v },
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "boom", recovered)

	env := decode(t, rec.Body.Bytes())
	assert.Equal(t, http.StatusInternalServerError, env.Code)
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteData(rec, map[string]int{"n": 1}))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))

	assert.JSONEq(t, `0`, string(raw["code"]))
	assert.JSONEq(t, `{"n":1}`, string(raw["data"]))
}

func TestEchoHandlerPlainBody(t *testing.T) {
	rec := httptest.NewRecorder()
	EchoHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("plain text")))

	env := decode(t, rec.Body.Bytes())

	var echo Echo
	require.NoError(t, env.Decode(&echo))
	assert.JSONEq(t, `"plain text"`, string(echo.Body))
	assert.Empty(t, echo.APIKey)
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, EchoHandler(), zerolog.Nop())
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("gateway did not shut down")
	}
}
