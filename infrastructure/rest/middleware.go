package rest

import (
	"net/http"
	"strings"
)

// authedHandler receives the verified, normalized identity of the caller.
type authedHandler func(w http.ResponseWriter, r *http.Request, identity string)

// requireAuth extracts and verifies the bearer token, rejecting the request
// before the wrapped handler runs.
func (h *Handler) requireAuth(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			writeError(w, http.StatusUnauthorized, "Invalid or missing token")
			return
		}
		identity, ok := h.auth.VerifyToken(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid or missing token")
			return
		}
		next(w, r, identity)
	})
}
