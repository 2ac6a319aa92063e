// utils/json.go
package utils

import (
	"encoding/json"
	"net/http"
)

// Stable machine-readable error codes surfaced to API clients.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodePolicyBlocked     = "policy.threshold_exceeded"
	CodeDualSameUser      = "DUAL_APPROVAL_SAME_USER"
	CodeAlreadyApproved   = "ALREADY_APPROVED"
	CodeConflict          = "CONFLICT"
	CodeForbidden         = "FORBIDDEN"
	CodeValidation        = "VALIDATION_FAILED"
	CodeInternal          = "INTERNAL"
)

// ParseJSON parses JSON request body
func ParseJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithErrorCode writes the error envelope with a stable machine code
// alongside the human message.
func RespondWithErrorCode(w http.ResponseWriter, status int, code, message string) {
	RespondWithJSON(w, status, map[string]string{"error": message, "code": code})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
