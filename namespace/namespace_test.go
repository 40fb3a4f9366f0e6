package namespace

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var testNS = Namespace{Name: "TEST", RootURL: "https://pp.example"}

func TestNamespaceMatches(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://pp.example/info/tracking/123", true},
		{"HTTPS://PP.EXAMPLE/info", true},
		{"https://pp.example", true},
		{"https://pp.exampl", false},
		{"https://other.example/info", false},
		{"http://pp.example/info", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, testNS.Matches(tt.url))
		})
	}

	assert.False(t, Namespace{Name: "EMPTY"}.Matches("https://pp.example"))
}

func TestNamespaceValidate(t *testing.T) {
	assert.NoError(t, testNS.Validate())
	assert.ErrorIs(t, Namespace{RootURL: "https://x"}.Validate(), ErrInvalidNamespace)
	assert.ErrorIs(t, Namespace{Name: "X", RootURL: "/relative"}.Validate(), ErrInvalidNamespace)
	assert.ErrorIs(t, Namespace{Name: "X", RootURL: "://bad"}.Validate(), ErrInvalidNamespace)
}

func TestNamespaceURL(t *testing.T) {
	assert.Equal(t, "https://pp.example/info/tracking/1?numberType=bl", testNS.URL("/info/tracking/1?numberType=bl"))
	assert.Equal(t, "TEST", testNS.String())
}

func TestSet(t *testing.T) {
	t.Run("default catalog", func(t *testing.T) {
		s := Default()
		assert.Equal(t, 4, s.Len())

		ns, ok := s.Lookup("COP_PUBLIC_PP")
		require.True(t, ok)
		assert.Equal(t, PublicPP, ns)

		_, ok = s.Lookup("NOPE")
		assert.False(t, ok)
	})

	t.Run("duplicate names rejected", func(t *testing.T) {
		_, err := NewSet(testNS, testNS)
		assert.ErrorIs(t, err, ErrDuplicateNamespace)
	})

	t.Run("invalid namespace rejected", func(t *testing.T) {
		_, err := NewSet(Namespace{Name: "X"})
		assert.ErrorIs(t, err, ErrInvalidNamespace)
	})

	t.Run("match first in order", func(t *testing.T) {
		a := Namespace{Name: "A", RootURL: "https://pp.example/a"}
		b := Namespace{Name: "B", RootURL: "https://pp.example"}
		s := MustSet(a, b)

		ns, ok := s.Match("https://pp.example/a/x")
		require.True(t, ok)
		assert.Equal(t, "A", ns.Name)

		ns, ok = s.Match("https://pp.example/b/x")
		require.True(t, ok)
		assert.Equal(t, "B", ns.Name)

		assert.False(t, s.Contains("https://unrelated.example/"))
	})

	t.Run("with extends", func(t *testing.T) {
		s, err := Default().With(testNS)
		require.NoError(t, err)
		assert.Equal(t, 5, s.Len())
		assert.True(t, s.Contains("https://pp.example/x"))
	})

	t.Run("all returns a copy", func(t *testing.T) {
		s := MustSet(testNS)
		all := s.All()
		all[0].Name = "CHANGED"

		ns, ok := s.Lookup("TEST")
		require.True(t, ok)
		assert.Equal(t, testNS, ns)
	})

	t.Run("nil set", func(t *testing.T) {
		var s *Set
		assert.Equal(t, 0, s.Len())
		assert.False(t, s.Contains("https://pp.example"))
		assert.Nil(t, s.All())
	})

	t.Run("must set panics", func(t *testing.T) {
		assert.Panics(t, func() { MustSet(Namespace{}) })
	})
}

func TestRegistry(t *testing.T) {
	t.Run("get put lookup", func(t *testing.T) {
		r := NewRegistry[string]()

		_, ok := r.Get(testNS)
		assert.False(t, ok)

		r.Put(testNS, "value")

		v, ok := r.Get(testNS)
		require.True(t, ok)
		assert.Equal(t, "value", v)

		v, ok = r.Lookup("https://PP.example/info/tracking/123")
		require.True(t, ok)
		assert.Equal(t, "value", v)

		_, ok = r.Lookup("https://unrelated.example/")
		assert.False(t, ok)
	})

	t.Run("put replaces in place", func(t *testing.T) {
		r := NewRegistry[int]()
		r.Put(testNS, 1)
		r.Put(testNS, 2)

		assert.Equal(t, 1, r.Len())

		v, _ := r.Get(testNS)
		assert.Equal(t, 2, v)
	})

	t.Run("update", func(t *testing.T) {
		r := NewRegistry[int]()

		err := r.Update(testNS, func(cur int, exists bool) (int, bool, error) {
			assert.False(t, exists)
			return 7, true, nil
		})
		require.NoError(t, err)

		want := fmt.Errorf("refused")
		err = r.Update(testNS, func(cur int, exists bool) (int, bool, error) {
			assert.True(t, exists)
			assert.Equal(t, 7, cur)
			return 0, false, want
		})
		assert.ErrorIs(t, err, want)

		v, _ := r.Get(testNS)
		assert.Equal(t, 7, v)
	})

	t.Run("clear", func(t *testing.T) {
		r := NewRegistry[int]()
		r.Put(testNS, 1)
		r.Clear()

		assert.Equal(t, 0, r.Len())
		_, ok := r.Lookup("https://pp.example")
		assert.False(t, ok)
	})

	t.Run("concurrent access", func(t *testing.T) {
		r := NewRegistry[int]()

		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(2)

			go func() {
				defer wg.Done()
				r.Put(Namespace{Name: fmt.Sprintf("NS%d", i), RootURL: fmt.Sprintf("https://ns%d.example", i)}, i)
			}()

			go func() {
				defer wg.Done()
				r.Lookup(fmt.Sprintf("https://ns%d.example/x", i))
			}()
		}
		wg.Wait()

		assert.Equal(t, 50, r.Len())
	})
}

func TestLoadSet(t *testing.T) {
	const catalog = `
namespaces:
  - name: LOCAL
    root_url: https://localhost:8443/service
`

	t.Run("without defaults", func(t *testing.T) {
		s, err := LoadSet(strings.NewReader(catalog), false)
		require.NoError(t, err)
		assert.Equal(t, 1, s.Len())
		assert.True(t, s.Contains("https://localhost:8443/service/x"))
	})

	t.Run("with defaults", func(t *testing.T) {
		s, err := LoadSet(strings.NewReader(catalog), true)
		require.NoError(t, err)
		assert.Equal(t, 5, s.Len())
		assert.Equal(t, "COP_PUBLIC_PP", s.All()[0].Name)
	})

	t.Run("empty document", func(t *testing.T) {
		s, err := LoadSet(strings.NewReader(""), true)
		require.NoError(t, err)
		assert.Equal(t, 4, s.Len())
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		_, err := LoadSet(strings.NewReader("namespaces:\n  - name: X\n    url: https://x\n"), false)
		assert.Error(t, err)
	})

	t.Run("invalid entry rejected", func(t *testing.T) {
		_, err := LoadSet(strings.NewReader("namespaces:\n  - name: X\n"), false)
		assert.ErrorIs(t, err, ErrInvalidNamespace)
	})

	t.Run("marshal round trip", func(t *testing.T) {
		out, err := yaml.Marshal(Default())
		require.NoError(t, err)

		s, err := LoadSet(strings.NewReader(string(out)), false)
		require.NoError(t, err)
		assert.Equal(t, Default().All(), s.All())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSetFile("/nonexistent/namespaces.yml", false)
		assert.Error(t, err)
	})
}
