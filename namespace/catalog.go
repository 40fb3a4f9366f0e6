package namespace

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Namespaces []Namespace `yaml:"namespaces"`
}

// LoadSet parses a YAML namespace catalog:
//
//	namespaces:
//	  - name: COP_PUBLIC_PP
//	    root_url: https://api-pp.lines.coscoshipping.com/service
//
// When includeDefaults is true the built-in namespaces come first.
func LoadSet(r io.Reader, includeDefaults bool) (*Set, error) {
	var file catalogFile

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("namespace: decode catalog: %w", err)
	}

	if includeDefaults {
		return Default().With(file.Namespaces...)
	}

	return NewSet(file.Namespaces...)
}

// LoadSetFile is LoadSet over the file at path.
func LoadSetFile(path string, includeDefaults bool) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadSet(f, includeDefaults)
}

// MarshalYAML renders the set in the catalog format read by LoadSet.
func (s *Set) MarshalYAML() (any, error) {
	return catalogFile{Namespaces: s.All()}, nil
}
