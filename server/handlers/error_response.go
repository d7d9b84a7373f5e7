package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ebogdum/lockservice/auth"
	"github.com/ebogdum/lockservice/core"
	"github.com/ebogdum/lockservice/internal/keyutil"
)

// ErrInvalidRequest marks malformed request bodies or parameters.
var ErrInvalidRequest = errors.New("invalid request")

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    string `json:"code" example:"LOCK_NOT_FOUND"`
	Message string `json:"message" example:"lock not found or expired"`
}

// SendErrorResponse sends a standardized JSON error response. Unknown
// errors use defaultStatusCode.
func SendErrorResponse(w http.ResponseWriter, logger *zap.Logger, err error, defaultStatusCode int) {
	var statusCode int
	var errorCode string

	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, keyutil.ErrInvalidArgument):
		statusCode = http.StatusBadRequest
		errorCode = "INVALID_REQUEST"
	case errors.Is(err, core.ErrLockNotFound):
		statusCode = http.StatusNotFound
		errorCode = "LOCK_NOT_FOUND"
	case errors.Is(err, core.ErrLockHeld):
		statusCode = http.StatusConflict
		errorCode = "LOCK_HELD"
	case errors.Is(err, auth.ErrAuthenticationFailed), errors.Is(err, auth.ErrMissingToken):
		statusCode = http.StatusUnauthorized
		errorCode = "AUTHENTICATION_FAILED"
	default:
		statusCode = defaultStatusCode
		errorCode = "BACKEND_ERROR"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Code:    errorCode,
		Message: err.Error(),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode error response", zap.Error(err))
		fmt.Fprintf(w, "Internal error occurred")
	}

	logger.Info("Error response sent",
		zap.String("error_code", errorCode),
		zap.Int("status_code", statusCode),
		zap.Error(err))
}

// SendJSONResponse sends a 200 JSON response with any data structure
func SendJSONResponse(w http.ResponseWriter, data interface{}) {
	SendJSONResponseWithStatus(w, http.StatusOK, data)
}

// SendJSONResponseWithStatus sends a JSON response with the given status code
func SendJSONResponseWithStatus(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Fprintf(w, `{"code":"INTERNAL_ERROR","message":"failed to encode response"}`)
	}
}
