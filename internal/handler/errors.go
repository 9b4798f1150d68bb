package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"styleGallery/internal/models"
)

// ErrorResponse - standard error body
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, message string, statusCode int) {
	writeErrorCode(w, message, "", statusCode)
}

func writeErrorCode(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

func writeSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteAppError maps a failure to its HTTP status and a short message.
func WriteAppError(w http.ResponseWriter, err error) {
	status, message, code := describeError(err)
	writeErrorCode(w, message, code, status)
}

func describeError(err error) (int, string, string) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "Something went wrong, please try again", ""
	}

	switch appErr.Code {
	case models.ErrCodeValidation, models.ErrCodeIndexOutOfRange, models.ErrCodeInvalidAction:
		return http.StatusBadRequest, appErr.Message, appErr.Code
	case models.ErrCodeNotFound:
		return http.StatusNotFound, appErr.Message, appErr.Code
	case models.ErrCodeRemoteService:
		return http.StatusBadGateway, "Try-on service unavailable: " + appErr.Message, appErr.Code
	case models.ErrCodeDataCorruption:
		return http.StatusInternalServerError, "Stored posts are damaged and cannot be read", appErr.Code
	case models.ErrCodeStorage:
		return http.StatusInternalServerError, "Could not access saved outfits", appErr.Code
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests, appErr.Message, appErr.Code
	}

	return http.StatusInternalServerError, appErr.Message, appErr.Code
}
