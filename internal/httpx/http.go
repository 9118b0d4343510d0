// Package httpx holds the HTTP plumbing shared by the WebDAV and NAS
// drivers: a client with a bounded timeout and a Basic auth header helper.
package httpx

import (
	"encoding/base64"
	"net/http"
	"time"
)

// DefaultTimeout bounds every driver request; connectivity checks use
// shorter per-call deadlines via context.
const DefaultTimeout = 30 * time.Second

// NewClient returns an *http.Client with the given total timeout.
// A zero timeout falls back to DefaultTimeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// BasicAuth returns the value for an Authorization header, e.g.
// "Basic dXNlcjpwYXNz".
func BasicAuth(username, password string) string {
	credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return "Basic " + credentials
}
