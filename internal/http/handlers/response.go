package handlers

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes j s o n.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes error.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeData wraps a successful payload in the envelope the clients expect.
func writeData(w http.ResponseWriter, status int, payload interface{}) {
	writeJSON(w, status, map[string]interface{}{"success": true, "data": payload})
}
