// Package validator checks the integrity of COP responses before they reach
// the caller. Validators are registered per namespace and selected by
// response URL.
package validator

import (
	"net/http"

	"github.com/coscon/cop-sdk-go/coperr"
	"github.com/coscon/cop-sdk-go/namespace"
)

// Validator reports whether a response is acceptable. The response body is
// repeatable: a validator may read it fully and the caller still sees the
// whole payload.
type Validator interface {
	Validate(resp *http.Response) bool
}

// Func adapts an ordinary function to the Validator interface.
type Func func(resp *http.Response) bool

// Validate calls f(resp).
func (f Func) Validate(resp *http.Response) bool {
	return f(resp)
}

// Provider maps namespaces to validators. It is safe for concurrent use.
type Provider struct {
	reg *namespace.Registry[Validator]
}

// NewProvider returns an empty Provider.
func NewProvider() *Provider {
	return &Provider{reg: namespace.NewRegistry[Validator]()}
}

// Set registers v for ns, replacing any previous validator.
func (p *Provider) Set(ns namespace.Namespace, v Validator) error {
	if v == nil {
		return coperr.Configuration("nil validator for namespace %s", ns)
	}

	p.reg.Put(ns, v)

	return nil
}

// Get returns the validator registered for ns.
func (p *Provider) Get(ns namespace.Namespace) (Validator, bool) {
	return p.reg.Get(ns)
}

// Lookup returns the validator of the namespace whose root URL prefixes
// rawURL, ignoring case.
func (p *Provider) Lookup(rawURL string) (Validator, bool) {
	return p.reg.Lookup(rawURL)
}

// Len returns the number of registered validators.
func (p *Provider) Len() int {
	return p.reg.Len()
}

// Clear drops all validators.
func (p *Provider) Clear() {
	p.reg.Clear()
}
