package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Generic body for failures that must not leak internal detail.
const (
	UnexpectedErrorCode    = "Something went wrong"
	UnexpectedErrorMessage = "An unexpected error occurred."
)

// ErrorResponse is the body of every error reply. Message is usually text
// but carries the field map for validation failures.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message interface{} `json:"message,omitempty"`
}

// RespondWithError sends {error, message} with the given status
func RespondWithError(w http.ResponseWriter, statusCode int, code string, message interface{}) {
	RespondWithJSON(w, statusCode, ErrorResponse{Error: code, Message: message})
}

// RespondWithUnexpectedError sends the generic 500 body
func RespondWithUnexpectedError(w http.ResponseWriter) {
	RespondWithError(w, http.StatusInternalServerError, UnexpectedErrorCode, UnexpectedErrorMessage)
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
						zap.Stack("stack"),
					)

					RespondWithUnexpectedError(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
