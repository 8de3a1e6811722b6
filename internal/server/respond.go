package server

import (
	"encoding/json"
	"net/http"

	"github.com/kebapps/pagesmith/internal/core"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends the error message along with its failure kind.
func writeError(w http.ResponseWriter, err error) {
	code := core.CodeOf(err)
	writeJSON(w, statusFor(code), map[string]string{
		"error": err.Error(),
		"code":  string(code),
	})
}

// statusFor maps a pipeline failure kind to the HTTP status it surfaces as.
func statusFor(code core.ErrorCode) int {
	switch code {
	case core.ErrCodeInvalidRequest,
		core.ErrCodeInvalidTemplate,
		core.ErrCodeInvalidConfig,
		core.ErrCodeInvalidProjectID:
		return http.StatusBadRequest
	case core.ErrCodeProjectNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
