package ws

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Authorize checks the access token of an inbound connection. The token may
// arrive as "Authorization: Bearer <token>" (or "Token <token>") or as the
// access_token query parameter. An empty expected token allows everyone.
func Authorize(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	got := bearer(r.Header.Get("Authorization"))
	if got == "" {
		got = r.URL.Query().Get("access_token")
	}
	if got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

func bearer(header string) string {
	for _, prefix := range []string{"Bearer ", "Token "} {
		if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
	}
	return ""
}
