package httpclient

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response is kept for messages.
const maxErrorBody = 4 << 10

// StatusError describes a non-2xx answer from an external collaborator. The
// raw status and body text are preserved so they can be shown to the buyer.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// ReadStatusError drains and closes resp.Body and returns a StatusError for
// it. Call it only for non-2xx responses.
func ReadStatusError(resp *http.Response, service string) *StatusError {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(body))
	if err != nil && text == "" {
		text = fmt.Sprintf("(failed to read body: %v)", err)
	}
	return &StatusError{Service: service, StatusCode: resp.StatusCode, Body: text}
}

// IsSuccess reports whether the status code is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
