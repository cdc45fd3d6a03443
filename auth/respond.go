package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/user/vidstream-go/apperror"
)

// SuccessResponse is the JSON envelope for successful requests.
type SuccessResponse struct {
	StatusCode int    `json:"statusCode" example:"200"`
	Data       any    `json:"data"`
	Message    string `json:"message" example:"success"`
	Success    bool   `json:"success" example:"true"`
}

// WriteJSON writes data wrapped in the success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := SuccessResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// WriteError converts any error to the error envelope. Errors that are not
// AppErrors become generic internal errors so nothing leaks to clients.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred", err)
	}
	if appErr.StatusCode() >= http.StatusInternalServerError {
		log.Printf("error processing %s %s: %v", r.Method, r.URL.Path, appErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	if encErr := json.NewEncoder(w).Encode(appErr.ToResponse()); encErr != nil {
		http.Error(w, `{"statusCode":500,"message":"failed to encode error response","success":false,"errors":[]}`, http.StatusInternalServerError)
	}
}
