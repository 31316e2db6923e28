// Package response writes JSON bodies and client facing errors.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/dtroode/alumni-connect-server/internal/apierror"
	"github.com/dtroode/alumni-connect-server/internal/logger"
)

// Message is the body of every error and of plain acknowledgements.
type Message struct {
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error renders err as {"message": ...}. Errors that are not an
// *apierror.APIError become a generic 500 and are logged with their cause.
func Error(w http.ResponseWriter, log *logger.Logger, err error) {
	apiErr := apierror.From(err)
	if apiErr.HTTPStatus >= http.StatusInternalServerError && log != nil {
		log.Error("HTTP request failed",
			"code", apiErr.Code,
			"error", err.Error())
	}
	JSON(w, apiErr.HTTPStatus, Message{Message: apiErr.Message})
}
