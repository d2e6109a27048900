package session

import (
	"net/http"
	"time"
)

// HeaderTransport carries the session identifier in a request/response
// header. Used by non-browser API clients that cannot hold cookies.
type HeaderTransport struct {
	header string
}

// NewHeaderTransport creates a header-based transport. An empty header
// name falls back to "X-Session-Token".
func NewHeaderTransport(header string) *HeaderTransport {
	if header == "" {
		header = "X-Session-Token"
	}
	return &HeaderTransport{header: header}
}

// GetToken extracts the session identifier from the request header.
func (t *HeaderTransport) GetToken(r *http.Request) (string, error) {
	token := r.Header.Get(t.header)
	if token == "" {
		return "", ErrNotFound
	}
	return token, nil
}

// SetToken writes the session identifier to the response header. The
// ttl is ignored; header clients track expiry from the session payload.
func (t *HeaderTransport) SetToken(w http.ResponseWriter, token string, _ time.Duration) error {
	w.Header().Set(t.header, token)
	return nil
}

// ClearToken removes the header from the response.
func (t *HeaderTransport) ClearToken(w http.ResponseWriter) error {
	w.Header().Del(t.header)
	return nil
}
