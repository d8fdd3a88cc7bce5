package utils

import (
	"net/http"
	"strings"
)

// ExtractBearerToken pulls the token out of the Authorization header, or from
// the access_token query parameter as a fallback for websocket clients that
// cannot set headers.
func ExtractBearerToken(r *http.Request) string {
	// A non-Bearer Authorization header (proxies inject these) falls through
	// to the query parameter rather than blocking authentication.
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	return r.URL.Query().Get("access_token")
}
