package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/coscon/cop-sdk-go/coperr"
)

// ErrNoEnvelope is returned when a body does not carry a code field.
var ErrNoEnvelope = errors.New("validator: body is not a COP envelope")

// Envelope is the generic COP response wrapper. Code 0 means success; any
// other code is a business error reported by the gateway.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// OK reports whether the envelope signals success.
func (e Envelope) OK() bool {
	return e.Code == 0
}

// Err returns a business error for a non-zero code, or nil.
func (e Envelope) Err(requestID string) error {
	if e.OK() {
		return nil
	}

	return coperr.Business(e.Code, e.Message, requestID)
}

// Decode unmarshals the envelope payload into v. A missing payload leaves v
// untouched.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 || bytes.Equal(e.Data, []byte("null")) {
		return nil
	}

	return json.Unmarshal(e.Data, v)
}

// DecodeEnvelope parses body as an Envelope. Bodies without a code field are
// rejected with ErrNoEnvelope.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var probe struct {
		Code *int `json:"code"`
	}

	if err := json.Unmarshal(body, &probe); err != nil {
		return Envelope{}, err
	}

	if probe.Code == nil {
		return Envelope{}, ErrNoEnvelope
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, err
	}

	return env, nil
}

// RequireEnvelope returns a validator accepting only responses whose body is
// a COP envelope. It does not judge the code: business errors are valid
// responses.
func RequireEnvelope() Validator {
	return Func(func(resp *http.Response) bool {
		if resp.Body == nil {
			return false
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}

		_, err = DecodeEnvelope(body)

		return err == nil
	})
}
