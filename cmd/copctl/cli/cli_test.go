package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/coscon/cop-sdk-go/gateway"
	"github.com/coscon/cop-sdk-go/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup starts a plain HTTP gateway and writes a settings file pointing a
// COP_LOCAL namespace at it.
func setup(t *testing.T) string {
	t.Helper()

	echo := gateway.EchoHandler()

	handler, err := gateway.New(gateway.Config{
		Secrets: copsig.StaticSecrets(map[string]string{"cli-key": "cli-secret"}),
	}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/service/business" {
			_ = gateway.WriteEnvelope(w, http.StatusOK, validator.Envelope{Code: 4004, Message: "no such booking"})
			return
		}

		echo.ServeHTTP(w, r)
	}))
	require.NoError(t, err)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	dir := t.TempDir()

	catalog := filepath.Join(dir, "namespaces.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(fmt.Sprintf(`namespaces:
  - name: COP_LOCAL
    root_url: %s/service
`, ts.URL)), 0o600))

	settings := filepath.Join(dir, "cop.yaml")
	require.NoError(t, os.WriteFile(settings, []byte(fmt.Sprintf(`allow_insecure: true
namespaces_file: %s
credentials:
  - namespace: COP_LOCAL
    api_key: cli-key
    secret: cli-secret
log:
  output: discard
`, catalog)), 0o600))

	return settings
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := New()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestGetCommand(t *testing.T) {
	settings := setup(t)

	out, err := run(t, "--config", settings, "get", "COP_LOCAL", "/info/tracking/1?numberType=bl", "-H", "X-Tag: one")
	require.NoError(t, err)

	env, err := validator.DecodeEnvelope([]byte(out))
	require.NoError(t, err)

	var echo gateway.Echo
	require.NoError(t, env.Decode(&echo))

	assert.Equal(t, http.MethodGet, echo.Method)
	assert.Equal(t, "/service/info/tracking/1", echo.Path)
	assert.Equal(t, "cli-key", echo.APIKey)
}

func TestPostCommand(t *testing.T) {
	settings := setup(t)

	t.Run("inline data", func(t *testing.T) {
		out, err := run(t, "--config", settings, "post", "COP_LOCAL", "/search", "--envelope", "--data", `{"page":1}`)
		require.NoError(t, err)

		assert.Contains(t, out, `"method": "POST"`)
		assert.Contains(t, out, `"page": 1`)
	})

	t.Run("data file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "query.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"blNo":"42"}`), 0o600))

		out, err := run(t, "--config", settings, "post", "COP_LOCAL", "/search", "--envelope", "-d", "@"+path)
		require.NoError(t, err)
		assert.Contains(t, out, `"blNo": "42"`)
	})
}

func TestBusinessErrorExitCode(t *testing.T) {
	settings := setup(t)

	_, err := run(t, "--config", settings, "get", "COP_LOCAL", "/business", "--envelope")
	require.Error(t, err)

	var ec *exitError
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, ExitBusiness, ec.ExitCode())
	assert.Contains(t, err.Error(), "no such booking")
}

func TestCommandErrors(t *testing.T) {
	settings := setup(t)

	t.Run("unknown namespace", func(t *testing.T) {
		_, err := run(t, "--config", settings, "get", "COP_NOWHERE", "/x")
		assert.ErrorContains(t, err, "unknown namespace")
	})

	t.Run("malformed header", func(t *testing.T) {
		_, err := run(t, "--config", settings, "get", "COP_LOCAL", "/x", "-H", "no-colon")
		assert.ErrorContains(t, err, "invalid header")
	})

	t.Run("missing settings file", func(t *testing.T) {
		_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "namespaces")
		assert.Error(t, err)
	})
}

func TestNamespacesCommand(t *testing.T) {
	settings := setup(t)

	out, err := run(t, "--config", settings, "namespaces")
	require.NoError(t, err)

	assert.Contains(t, out, "COP_PUBLIC_PP")
	assert.Contains(t, out, "COP_LOCAL")

	out, err = run(t, "--config", settings, "namespaces", "--yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "namespaces:")
	assert.Contains(t, out, "root_url: https://api.coscon.com/service")
}
