package api

import (
	"encoding/json"
	"net/http"
)

// Response represents a standard API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// WriteCreated writes a 201 Created response.
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, status int, message string, code ...string) error {
	errInfo := ErrorInfo{
		Message: message,
	}
	if len(code) > 0 {
		errInfo.Code = code[0]
	}

	return WriteJSON(w, status, Response{
		Success: false,
		Error:   &errInfo,
	})
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusNotFound, message, "NOT_FOUND")
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusBadRequest, message, "BAD_REQUEST")
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusInternalServerError, message, "INTERNAL_ERROR")
}

// WriteConflict writes a 409 response carrying the conflicting plan item.
func WriteConflict(w http.ResponseWriter, message string, data interface{}) error {
	return WriteJSON(w, http.StatusConflict, Response{
		Success: false,
		Data:    data,
		Error:   &ErrorInfo{Message: message, Code: "PLAN_CONFLICT"},
	})
}
