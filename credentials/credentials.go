// Package credentials holds the API key/secret pairs used to sign COP
// requests, one pair per namespace.
package credentials

import (
	"github.com/coscon/cop-sdk-go/coperr"
	"github.com/coscon/cop-sdk-go/namespace"
)

// Credentials is an API key and secret bound to one namespace. Values are
// immutable and comparable with ==.
type Credentials struct {
	Namespace namespace.Namespace
	APIKey    string
	Secret    string
}

// New returns credentials for ns.
func New(ns namespace.Namespace, apiKey, secret string) Credentials {
	return Credentials{Namespace: ns, APIKey: apiKey, Secret: secret}
}

// String describes the credentials without revealing the secret.
func (c Credentials) String() string {
	return "Credentials{namespace=" + c.Namespace.Name + ", apiKey=" + c.APIKey + ", secret=***}"
}

// GoString is String, so %#v does not leak the secret either.
func (c Credentials) GoString() string {
	return c.String()
}

// Source resolves credentials by request URL.
type Source interface {
	Lookup(rawURL string) (Credentials, bool)
}

// Provider maps namespaces to credentials. It is safe for concurrent use.
type Provider struct {
	reg *namespace.Registry[Credentials]
}

// NewProvider returns an empty Provider.
func NewProvider() *Provider {
	return &Provider{reg: namespace.NewRegistry[Credentials]()}
}

// Set binds creds to ns. Setting credentials equal to the current ones is a
// no-op; replacing different credentials is a configuration error, as is
// binding credentials that belong to another namespace.
func (p *Provider) Set(ns namespace.Namespace, creds Credentials) error {
	if creds.Namespace != ns {
		return coperr.Configuration("credentials of namespace %s may not be bound to %s", creds.Namespace, ns)
	}

	return p.reg.Update(ns, func(current Credentials, exists bool) (Credentials, bool, error) {
		if !exists {
			return creds, true, nil
		}

		if current == creds {
			return current, false, nil
		}

		return current, false, coperr.Configuration("unable to overwrite credentials for namespace %s", ns)
	})
}

// Get returns the credentials bound to ns.
func (p *Provider) Get(ns namespace.Namespace) (Credentials, bool) {
	return p.reg.Get(ns)
}

// Lookup returns the credentials of the namespace whose root URL prefixes
// rawURL, ignoring case.
func (p *Provider) Lookup(rawURL string) (Credentials, bool) {
	return p.reg.Lookup(rawURL)
}

// Len returns the number of bound namespaces.
func (p *Provider) Len() int {
	return p.reg.Len()
}

// Clear drops all credentials.
func (p *Provider) Clear() {
	p.reg.Clear()
}
