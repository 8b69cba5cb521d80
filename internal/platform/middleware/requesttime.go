package middleware

import (
	"net/http"
	"time"

	"sponsorhub/pkg/requestcontext"
)

// RequestTime captures the current time at the start of the request so every
// timestamp written while serving it (audit entries, review decisions, job
// enqueue times) agrees on a single "now".
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
