// Package httputil centralizes JSON response and error envelope writing so
// every handler produces the same shapes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "collegenet/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the standard error envelope.
// Internal and notify failures omit error_description so store and mailer
// details never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}

	var de *dErrors.Error
	if errors.As(err, &de) && code != dErrors.CodeInternal && code != dErrors.CodeNotifyFailed {
		body["error_description"] = de.Message
	}

	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
