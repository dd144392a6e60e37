package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit limits requests per IP to the given number per minute using a
// sliding window. Assessment and processing runs are CPU-bound, so the
// facade bounds how fast one client can queue them.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}
