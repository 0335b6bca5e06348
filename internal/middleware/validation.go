package middleware

import (
	"mime"
	"net/http"
)

// RequireJSON rejects write requests whose body is not declared as JSON.
// Requests without a body pass through so handlers can report the missing
// fields themselves.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		if !isJSONContentType(r.Header.Get("Content-Type")) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnsupportedMediaType)
			_, _ = w.Write([]byte(`{"error":"content type must be application/json","code":"UNSUPPORTED_MEDIA_TYPE"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isJSONContentType(value string) bool {
	if value == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}
