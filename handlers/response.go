package handlers

import (
	"encoding/json"
	"net/http"
)

// respond writes the JSON envelope used across the API.
func respond(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// respondError writes the {status:false, message} failure envelope.
func respondError(w http.ResponseWriter, code int, message string) {
	respond(w, code, map[string]interface{}{
		"status":  false,
		"message": message,
	})
}
