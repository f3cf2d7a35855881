package utils

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every endpoint answers with.
// Data carries the payload on success; Errors carries per-field messages on a 400.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// ResponseJSON writes the envelope with the given status code.
func ResponseJSON(w http.ResponseWriter, code int, status bool, message string, data, errors any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// the status line is already out, nothing useful to do on a write error
	_ = json.NewEncoder(w).Encode(Response{
		Status:  status,
		Message: message,
		Data:    data,
		Errors:  errors,
	})
}

func ResponseSuccess(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusOK, true, message, data, nil)
}

func ResponseCreated(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusCreated, true, message, data, nil)
}

// ResponseBadRequest covers malformed bodies and validation failures; fields may be nil.
func ResponseBadRequest(w http.ResponseWriter, message string, fields any) {
	ResponseJSON(w, http.StatusBadRequest, false, message, nil, fields)
}

func ResponseUnauthorized(w http.ResponseWriter, message string) {
	responseFailure(w, http.StatusUnauthorized, message)
}

func ResponseForbidden(w http.ResponseWriter, message string) {
	responseFailure(w, http.StatusForbidden, message)
}

// ResponseNotFound is also used for records owned by another user.
func ResponseNotFound(w http.ResponseWriter, message string) {
	responseFailure(w, http.StatusNotFound, message)
}

func ResponseTooManyRequests(w http.ResponseWriter, message string) {
	responseFailure(w, http.StatusTooManyRequests, message)
}

// ResponseInternalError never echoes the underlying error to the client.
func ResponseInternalError(w http.ResponseWriter, message string) {
	responseFailure(w, http.StatusInternalServerError, message)
}

// ResponseServiceUnavailable keeps data so health checks can report per-dependency state.
func ResponseServiceUnavailable(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusServiceUnavailable, false, message, data, nil)
}

func responseFailure(w http.ResponseWriter, code int, message string) {
	ResponseJSON(w, code, false, message, nil, nil)
}
