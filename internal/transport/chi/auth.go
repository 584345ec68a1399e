package chi

import (
	"net/http"
	"strings"
)

// authExempt lists routes that never require a key: probes and scrapes
// must keep working before any client is configured.
var authExempt = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// BearerAuthMiddleware rejects requests that lack a known Bearer token.
// With no keys configured the middleware disables itself.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make(map[string]bool, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys[k] = true
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authExempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, isBearer := strings.CutPrefix(header, "Bearer ")
			switch {
			case header == "":
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing authorization header")
			case !isBearer:
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "authorization header must use Bearer scheme")
			case !keys[token]:
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid api key")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
