package copsig

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"
)

// Algorithm identifies the HMAC variant used to sign the canonical block.
// Its value is the wire reference sent in the authorization header.
type Algorithm string

const (
	// HmacSHA1 is HMAC using SHA-1. It is the default COP algorithm.
	HmacSHA1 Algorithm = "hmac-sha1"

	// HmacSHA256 is HMAC using SHA-256.
	HmacSHA256 Algorithm = "hmac-sha256"

	// HmacSHA384 is HMAC using SHA-384.
	HmacSHA384 Algorithm = "hmac-sha384"

	// HmacSHA512 is HMAC using SHA-512.
	HmacSHA512 Algorithm = "hmac-sha512"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = HmacSHA1

type algorithmInfo struct {
	name string
	hash func() hash.Hash
}

var algorithms = map[Algorithm]algorithmInfo{
	HmacSHA1:   {name: "HmacSHA1", hash: sha1.New},
	HmacSHA256: {name: "HmacSHA256", hash: sha256.New},
	HmacSHA384: {name: "HmacSHA384", hash: sha512.New384},
	HmacSHA512: {name: "HmacSHA512", hash: sha512.New},
}

// Algorithms returns the supported algorithms, weakest first.
func Algorithms() []Algorithm {
	return []Algorithm{HmacSHA1, HmacSHA256, HmacSHA384, HmacSHA512}
}

// ParseAlgorithm accepts either the canonical name ("HmacSHA256") or the
// wire reference ("hmac-sha256"), ignoring case.
func ParseAlgorithm(s string) (Algorithm, error) {
	s = strings.TrimSpace(s)

	for alg, info := range algorithms {
		if strings.EqualFold(s, string(alg)) || strings.EqualFold(s, info.name) {
			return alg, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
}

// String returns the wire reference.
func (a Algorithm) String() string {
	return string(a)
}

// Ref returns the wire reference sent in the authorization header.
func (a Algorithm) Ref() string {
	return string(a)
}

// Name returns the canonical algorithm name, e.g. "HmacSHA256".
func (a Algorithm) Name() string {
	return algorithms[a].name
}

// Valid reports whether a is a supported algorithm.
func (a Algorithm) Valid() bool {
	_, ok := algorithms[a]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	return []byte(a), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseAlgorithm.
func (a *Algorithm) UnmarshalText(text []byte) error {
	alg, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}

	*a = alg

	return nil
}

func (a Algorithm) newHash() (func() hash.Hash, error) {
	info, ok := algorithms[a]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
	}

	return info.hash, nil
}
