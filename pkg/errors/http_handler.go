package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError writes err as a JSON error body. Server faults never expose
// their message.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := AsAppError(err)

	response := ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if appErr.Internal5xx() {
		response = ErrorResponse{
			Code:    appErr.Code,
			Message: "Internal server error",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	return json.NewEncoder(w).Encode(response)
}

func WriteSuccess(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Return error so caller can log - no recovery possible after WriteHeader
		return err
	}
	return nil
}
