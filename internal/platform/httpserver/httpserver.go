// Package httpserver constructs the dashboard API server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns an http.Server with timeouts suited to the dashboard API:
// requests are short JSON reads and writes, so slow clients get cut off
// rather than holding connections open.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
