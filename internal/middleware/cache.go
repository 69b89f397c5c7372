package middleware

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"
)

// assets the questionnaire front end ships with stable content
var cacheableExt = map[string]bool{
	".css": true, ".js": true, ".svg": true, ".png": true,
	".jpg": true, ".ico": true, ".woff": true, ".woff2": true,
}

// isDynamic reports whether path serves data that changes with submissions.
func isDynamic(p string) bool {
	switch p {
	case "/health", "/version", "/metrics":
		return true
	}
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

// CacheControl never lets API answers, exports or operational endpoints be
// stored, since statistics change with every submission. Static assets may be
// cached for assetMaxAge; pages must revalidate so a new build is picked up.
func CacheControl(assetMaxAge time.Duration) func(http.Handler) http.Handler {
	assetPolicy := fmt.Sprintf("public, max-age=%d", int(assetMaxAge.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			switch {
			case isDynamic(r.URL.Path):
				h.Set("Cache-Control", "no-store, max-age=0")
				h.Set("Pragma", "no-cache")
			case assetMaxAge > 0 && cacheableExt[strings.ToLower(path.Ext(r.URL.Path))]:
				h.Set("Cache-Control", assetPolicy)
			default:
				h.Set("Cache-Control", "no-cache")
			}
			next.ServeHTTP(w, r)
		})
	}
}
