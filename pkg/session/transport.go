package session

import (
	"net/http"
	"time"
)

// Transport defines how session identifiers travel between client and
// server.
type Transport interface {
	// GetToken extracts the session identifier from the request.
	GetToken(r *http.Request) (string, error)

	// SetToken sends the session identifier in the response.
	SetToken(w http.ResponseWriter, token string, ttl time.Duration) error

	// ClearToken removes the session identifier from the response.
	ClearToken(w http.ResponseWriter) error
}
