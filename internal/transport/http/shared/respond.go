// Package shared centralizes JSON response and domain error translation so
// handlers never hand-roll status codes.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "coverdesk/pkg/domain-errors"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError translates a domain error into its HTTP response. Unclassified
// errors are reported as generic internal failures; the message is not leaked.
func WriteError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: string(dErrors.CodeInternal)})
		return
	}
	resp := errorResponse{Error: string(de.Code), Message: de.Message, Fields: de.Fields}
	if de.Code == dErrors.CodeInternal {
		// Internal details stay in the logs.
		resp.Message = ""
	}
	WriteJSON(w, dErrors.HTTPStatus(de.Code), resp)
}
