// Package namespace describes the logical tenants/environments of the COP
// gateway and routes request URLs to them.
//
// A Namespace pairs a name with a root URL. The root URL serves both as the
// dispatch prefix for relative request paths and as the routing key used to
// resolve per-namespace credentials and validators: a URL belongs to a
// namespace when it starts with the namespace root URL, compared
// case-insensitively.
package namespace

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Built-in COP namespaces.
var (
	PublicPP     = Namespace{Name: "COP_PUBLIC_PP", RootURL: "https://api-pp.lines.coscoshipping.com/service"}
	PublicProd   = Namespace{Name: "COP_PUBLIC_PROD", RootURL: "https://api.lines.coscoshipping.com/service"}
	InternalPP   = Namespace{Name: "COP_INTERNAL_PP", RootURL: "https://api-pp.coscon.com/service"}
	InternalProd = Namespace{Name: "COP_INTERNAL_PROD", RootURL: "https://api.coscon.com/service"}
)

var (
	// ErrInvalidNamespace is returned when a namespace has an empty name or
	// an unusable root URL.
	ErrInvalidNamespace = errors.New("namespace: invalid namespace")

	// ErrDuplicateNamespace is returned when a set already holds a
	// namespace with the same name.
	ErrDuplicateNamespace = errors.New("namespace: duplicate namespace")
)

// Namespace is an immutable tenant/environment scope.
type Namespace struct {
	// Name identifies the namespace, e.g. "COP_PUBLIC_PP".
	Name string `yaml:"name"`

	// RootURL is the URL prefix of every endpoint in the namespace.
	RootURL string `yaml:"root_url"`
}

// String returns the namespace name.
func (n Namespace) String() string {
	return n.Name
}

// Matches reports whether rawURL starts with the namespace root URL,
// ignoring case.
func (n Namespace) Matches(rawURL string) bool {
	return n.RootURL != "" && hasPrefixFold(rawURL, n.RootURL)
}

// URL joins the namespace root URL and a relative URI.
func (n Namespace) URL(relativeURI string) string {
	return n.RootURL + relativeURI
}

// Validate checks that the namespace has a name and an absolute root URL.
func (n Namespace) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidNamespace)
	}

	u, err := url.Parse(n.RootURL)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidNamespace, n.Name, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s: root url must be absolute", ErrInvalidNamespace, n.Name)
	}

	return nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
