// Package endpoints contains one file per HTTP route. Every endpoint also
// exposes itself as a CLI command through the api.Endpoint interface.
package endpoints

import (
	"encoding/json"
	"net/http"
)

// NoContextMessage is returned when the corpus has nothing relevant to the
// question. The wording is part of the API contract with the web client.
const NoContextMessage = "Je n'ai pas trouvé d'information pertinente pour répondre à cette question."

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeData writes a success envelope around data.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, SuccessResponse{Success: true, Data: data})
}

// writeError writes a JSON error envelope. detail is for operators and may
// be empty; msg is what the UI shows.
func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: msg, Error: detail})
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
