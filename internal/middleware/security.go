package middleware

import "net/http"

const (
	// JSON answers are never rendered, so nothing may load from them.
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// the questionnaire pages draw their charts client side from /api data
	pageCSP = "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; " +
		"connect-src 'self'; frame-ancestors 'self'; base-uri 'self'; form-action 'self'"
)

// SecureHeaders adds security headers, with a Content-Security-Policy chosen
// by whether the path serves data or the static front end.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), interest-cohort=()")
		if isDynamic(r.URL.Path) {
			h.Set("Content-Security-Policy", apiCSP)
			h.Set("X-Frame-Options", "DENY")
		} else {
			h.Set("Content-Security-Policy", pageCSP)
			h.Set("X-Frame-Options", "SAMEORIGIN")
		}
		next.ServeHTTP(w, r)
	})
}
