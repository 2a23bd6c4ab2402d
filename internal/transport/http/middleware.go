package http

import "net/http"

// requireAPIKey guards a handler with the three-level authenticator. The key
// comes from the X-API-Key header, or the api_key query parameter for
// websocket clients that cannot set headers.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if _, ok := s.auth.Authenticate(r.Context(), key); !ok {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
