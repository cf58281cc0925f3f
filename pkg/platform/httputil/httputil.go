// Package httputil writes JSON responses and domain errors.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "kycore/pkg/domain-errors"
)

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Hint        string `json:"hint,omitempty"`
}

// WriteJSON writes v with status. Encoding failures after the header is sent are
// dropped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError answers with the status of err's code. Descriptions of server-side
// failures are not exposed.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorStatus(w, dErrors.ToHTTPStatus(dErrors.CodeOf(err)), err)
}

// WriteErrorStatus is WriteError with an explicit status.
func WriteErrorStatus(w http.ResponseWriter, status int, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	var de *dErrors.Error
	if status < http.StatusInternalServerError && errors.As(err, &de) {
		body.Description = de.Message
		body.Hint = de.Meta["hint"]
	}
	WriteJSON(w, status, body)
}
