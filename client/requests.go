package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/coscon/cop-sdk-go/config"
	"github.com/coscon/cop-sdk-go/coperr"
	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/coscon/cop-sdk-go/namespace"
	"github.com/coscon/cop-sdk-go/validator"
	"golang.org/x/net/http/httpguts"
)

// Get sends a GET to ns and returns the body through the response handler.
// headers are appended to the request and may be nil.
func (c *Client) Get(ctx context.Context, ns namespace.Namespace, relativeURI string, headers http.Header) (string, error) {
	resp, err := c.GetResponse(ctx, ns, relativeURI, headers)
	if err != nil {
		return "", err
	}

	return c.handle(resp)
}

// GetResponse sends a GET to ns and returns the raw response. The caller
// must close the body.
func (c *Client) GetResponse(ctx context.Context, ns namespace.Namespace, relativeURI string, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, ns, relativeURI, nil, headers)
}

// Post sends payload as JSON to ns and returns the body through the
// response handler.
func (c *Client) Post(ctx context.Context, ns namespace.Namespace, relativeURI string, payload []byte, headers http.Header) (string, error) {
	resp, err := c.PostResponse(ctx, ns, relativeURI, payload, headers)
	if err != nil {
		return "", err
	}

	return c.handle(resp)
}

// PostResponse sends payload as JSON to ns and returns the raw response.
// The caller must close the body.
func (c *Client) PostResponse(ctx context.Context, ns namespace.Namespace, relativeURI string, payload []byte, headers http.Header) (*http.Response, error) {
	if payload == nil {
		payload = []byte{}
	}

	return c.Do(ctx, http.MethodPost, ns, relativeURI, payload, headers)
}

// Call sends a request and decodes the COP envelope of the response.
// payload is sent as is when it is a []byte, string or json.RawMessage and
// marshalled to JSON otherwise; nil sends no body. A non-200 status is a
// transport error and a non-zero envelope code a business error, both
// carrying the request id.
func (c *Client) Call(ctx context.Context, method string, ns namespace.Namespace, relativeURI string, payload any, headers http.Header) (validator.Envelope, error) {
	body, err := encodePayload(payload)
	if err != nil {
		return validator.Envelope{}, err
	}

	resp, err := c.Do(ctx, method, ns, relativeURI, body, headers)
	if err != nil {
		return validator.Envelope{}, err
	}
	defer resp.Body.Close()

	requestID := resp.Header.Get(copsig.HeaderRequestID)

	if resp.StatusCode != http.StatusOK {
		return validator.Envelope{}, coperr.Status(resp.StatusCode, resp.Status, requestID)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return validator.Envelope{}, coperr.Transport(err, requestID)
	}

	env, err := validator.DecodeEnvelope(raw)
	if err != nil {
		return validator.Envelope{}, coperr.Wrap(coperr.KindValidation, err, "malformed response envelope").WithRequestID(requestID)
	}

	return env, env.Err(requestID)
}

// Do sends a request with the given method to ns. A nil body sends no
// body; any other body is sent as JSON. The caller must close the response
// body.
func (c *Client) Do(ctx context.Context, method string, ns namespace.Namespace, relativeURI string, body []byte, headers http.Header) (*http.Response, error) {
	hc, settings, err := c.transport()
	if err != nil {
		return nil, err
	}

	if err := validateHeaders(headers); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, ns.URL(relativeURI), reader)
	if err != nil {
		return nil, coperr.Wrap(coperr.KindConfiguration, err, "invalid request")
	}

	requestID := c.requestID()

	req.Header.Set(copsig.HeaderRequestID, requestID)
	req.Header.Set(copsig.HeaderClientSDK, settings.SDKVersion)

	if settings.UserAgent != "" {
		req.Header.Set(copsig.HeaderUserAgent, settings.UserAgent)
	}

	if body != nil {
		req.Header.Set(copsig.HeaderContentType, copsig.ContentTypeJSON)
	}

	for name, values := range headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		var copErr *coperr.Error
		if errors.As(err, &copErr) {
			return nil, copErr.WithRequestID(requestID)
		}

		return nil, coperr.Transport(err, requestID)
	}

	return resp, nil
}

func (c *Client) transport() (*http.Client, config.Settings, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.state {
	case StateClosed:
		return nil, config.Settings{}, coperr.NotInitialized("client")
	case StateConfigured:
		return nil, config.Settings{}, coperr.NotInitialized("transport")
	}

	return c.httpClient, c.settings, nil
}

func (c *Client) handle(resp *http.Response) (string, error) {
	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()

	return handler(resp)
}

// validateHeaders rejects header names and values that cannot be sent on
// the wire.
func validateHeaders(h http.Header) error {
	for name, values := range h {
		if !httpguts.ValidHeaderFieldName(name) {
			return coperr.Configuration("invalid header name %q", name)
		}

		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				return coperr.Configuration("invalid value for header %s", name)
			}
		}
	}

	return nil
}

func encodePayload(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	case json.RawMessage:
		return p, nil
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, coperr.Wrap(coperr.KindConfiguration, err, "unable to encode payload")
		}

		return b, nil
	}
}
