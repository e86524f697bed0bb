package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes a minimal JSON error body without pulling in the
// httputil package, keeping middleware dependency-light.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
