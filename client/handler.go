package client

import (
	"io"
	"net/http"

	"github.com/coscon/cop-sdk-go/coperr"
	"github.com/coscon/cop-sdk-go/copsig"
)

// ResponseHandler turns a response into the string result of Get and Post.
// It owns the response and must close its body.
type ResponseHandler func(resp *http.Response) (string, error)

// DefaultResponseHandler returns the body of 2xx responses. Other statuses
// fail with a transport error carrying the status and the request id.
func DefaultResponseHandler(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	requestID := resp.Header.Get(copsig.HeaderRequestID)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", coperr.Status(resp.StatusCode, resp.Status, requestID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", coperr.Transport(err, requestID)
	}

	return string(body), nil
}
