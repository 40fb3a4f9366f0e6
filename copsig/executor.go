package copsig

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coscon/cop-sdk-go/coperr"
	"github.com/google/uuid"
)

// digestPrefix names the digest algorithm in X-Coscon-Digest. The gateway
// only accepts SHA-256.
const digestPrefix = "SHA-256="

// Input is everything the signing executor needs for one request.
type Input struct {
	// APIKey is sent as the username of the authorization value.
	APIKey string

	// Secret keys the HMAC.
	Secret string

	// Algorithm selects the HMAC variant.
	Algorithm Algorithm

	// RequestLine is "<METHOD> <path>[?<query>] HTTP/1.1".
	RequestLine string

	// Body is the raw request payload; nil for requests without one.
	Body []byte

	// Date is the signing time, rendered in GMT.
	Date time.Time

	// Nonce is the X-Coscon-Content-Md5 value. Use NewNonce.
	Nonce string
}

// BuildHeaders computes the COP signing headers for in. It is a pure
// function of its input: the same input always yields the same headers.
func BuildHeaders(in Input) (http.Header, error) {
	hashFn, err := in.Algorithm.newHash()
	if err != nil {
		return nil, coperr.Signing(err, "unable to initialize hmac")
	}

	if in.Secret == "" {
		return nil, coperr.Signing(fmt.Errorf("%w: secret must not be empty", ErrInvalidKey), "unable to initialize hmac")
	}

	date := FormatDate(in.Date)
	digest := BodyDigest(in.Body)
	block := CanonicalBlock(date, digest, in.Nonce, in.RequestLine)

	mac := hmac.New(hashFn, []byte(in.Secret))
	mac.Write([]byte(block))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	h := make(http.Header, 5)
	h.Set(HeaderDate, date)
	h.Set(HeaderDigest, digest)
	h.Set(HeaderContentMD5, in.Nonce)
	h.Set(HeaderAuthorization, AuthorizationValue(in.APIKey, in.Algorithm, signature))
	h.Set(HeaderHmac, in.Nonce)

	return h, nil
}

// CanonicalBlock assembles the string that is HMAC-signed.
func CanonicalBlock(date, digest, nonce, requestLine string) string {
	var b strings.Builder

	b.WriteString(HeaderDate)
	b.WriteString(": ")
	b.WriteString(date)
	b.WriteString("\n")
	b.WriteString(HeaderDigest)
	b.WriteString(": ")
	b.WriteString(digest)
	b.WriteString("\n")
	b.WriteString(HeaderContentMD5)
	b.WriteString(": ")
	b.WriteString(nonce)
	b.WriteString("\n")
	b.WriteString(requestLine)

	return b.String()
}

// AuthorizationValue renders the X-Coscon-Authorization header value.
func AuthorizationValue(apiKey string, alg Algorithm, signature string) string {
	return `hmac username="` + apiKey +
		`",algorithm="` + alg.Ref() +
		`",headers="` + SignedHeaders +
		`",signature="` + signature + `"`
}

// BodyDigest returns "SHA-256=" followed by the base64 SHA-256 of body.
func BodyDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return digestPrefix + base64.StdEncoding.EncodeToString(sum[:])
}

// FormatDate renders t in the RFC 822 GMT form expected by the gateway,
// e.g. "Mon, 02 Jan 2006 15:04:05 GMT".
func FormatDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// NewNonce returns the lower-case hex MD5 of a fresh random UUID string.
// The nonce is independent of the body; it makes every signature unique.
func NewNonce() string {
	sum := md5.Sum([]byte(uuid.NewString()))
	return hex.EncodeToString(sum[:])
}

// RequestLine renders the signed request line for method and the escaped
// path and raw query of a URL.
func RequestLine(method, escapedPath, rawQuery string) string {
	if escapedPath == "" {
		escapedPath = "/"
	}

	line := strings.ToUpper(method) + " " + escapedPath
	if rawQuery != "" {
		line += "?" + rawQuery
	}

	return line + " " + protocolVersion
}
