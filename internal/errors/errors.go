// Package errors renders API failures as a JSON envelope:
//
//	{"error": {"code": "...", "message": "...", "details": {...}, "request_id": "..."}}
//
// Every helper aborts the gin chain, so guards can use them as well as
// handlers.
package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pesafrisma19/pbbkemang/internal/middleware"
)

// Error code constants for standardized error responses
const (
	ErrNotFound           = "NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrUnauthorized       = "UNAUTHORIZED"
	ErrConflict           = "CONFLICT"
	ErrTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrPayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrDatabaseConnection = "DATABASE_CONNECTION_ERROR"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

type severity int

const (
	warn severity = iota
	fail
)

// respond logs the failure with request context and writes the envelope.
func respond(c *gin.Context, status int, sev severity, logMsg string, detail ErrorDetail, err error) {
	log := middleware.GetLogger(c)
	detail.RequestID = middleware.GetRequestID(c)

	if log != nil {
		fields := map[string]interface{}{
			"message":    detail.Message,
			"request_id": detail.RequestID,
			"path":       c.Request.URL.Path,
		}
		if detail.Details != nil {
			fields["details"] = detail.Details
		}
		if sev == fail {
			fields["method"] = c.Request.Method
			log.Error(logMsg, err, fields)
		} else {
			log.Warn(logMsg, fields)
		}
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: detail})
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, warn, "Resource not found", ErrorDetail{
		Code:    ErrNotFound,
		Message: message,
	}, nil)
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	respond(c, http.StatusBadRequest, warn, "Bad request", ErrorDetail{
		Code:    ErrBadRequest,
		Message: message,
		Details: details,
	}, nil)
}

// Unauthorized returns a 401 response for missing or rejected credentials.
func Unauthorized(c *gin.Context, message string) {
	respond(c, http.StatusUnauthorized, warn, "Unauthorized", ErrorDetail{
		Code:    ErrUnauthorized,
		Message: message,
	}, nil)
}

// Conflict returns a 409 response. title is a short label the UI shows
// above message, e.g. "NIK Sudah Terdaftar".
func Conflict(c *gin.Context, title, message string) {
	respond(c, http.StatusConflict, warn, "Conflict", ErrorDetail{
		Code:    ErrConflict,
		Message: message,
		Details: map[string]interface{}{"title": title},
	}, nil)
}

// TooManyRequests returns a 429 response and sets Retry-After in seconds.
func TooManyRequests(c *gin.Context, retryAfterSeconds string) {
	if retryAfterSeconds != "" {
		c.Header("Retry-After", retryAfterSeconds)
	}
	respond(c, http.StatusTooManyRequests, warn, "Rate limit exceeded", ErrorDetail{
		Code:    ErrTooManyRequests,
		Message: "Terlalu banyak permintaan, coba lagi sebentar lagi",
	}, nil)
}

// PayloadTooLarge returns a 413 response for oversized uploads.
func PayloadTooLarge(c *gin.Context, message string) {
	respond(c, http.StatusRequestEntityTooLarge, warn, "Payload too large", ErrorDetail{
		Code:    ErrPayloadTooLarge,
		Message: message,
	}, nil)
}

// InternalServerError returns a 500 response. err is logged but never
// sent to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	respond(c, http.StatusInternalServerError, fail, "Internal server error", ErrorDetail{
		Code:    ErrInternalServer,
		Message: message,
	}, err)
}

// InternalServerErrorWithDetails is InternalServerError with details the
// client can still use, such as the counters of a partially applied import.
func InternalServerErrorWithDetails(c *gin.Context, message string, err error, details map[string]interface{}) {
	respond(c, http.StatusInternalServerError, fail, "Internal server error", ErrorDetail{
		Code:    ErrInternalServer,
		Message: message,
		Details: details,
	}, err)
}

// ValidationError returns a 400 response listing each invalid field.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, err := range validationErrors {
		details[err.Field()] = formatValidationError(err)
	}

	respond(c, http.StatusBadRequest, warn, "Validation error", ErrorDetail{
		Code:    ErrValidation,
		Message: "Data tidak valid",
		Details: details,
	}, nil)
}

// formatValidationError converts a validator.FieldError to a message for
// village officers.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "Wajib diisi"
	case "min":
		return "Minimal " + err.Param()
	case "max":
		return "Maksimal " + err.Param()
	case "len":
		return "Harus " + err.Param() + " karakter"
	case "gt":
		return "Harus lebih dari " + err.Param()
	case "gte":
		return "Minimal " + err.Param()
	case "lte":
		return "Maksimal " + err.Param()
	case "oneof":
		return "Harus salah satu dari: " + err.Param()
	case "numeric":
		return "Hanya boleh angka"
	case "uuid":
		return "ID tidak valid"
	case "dive":
		return "Isi daftar tidak valid"
	default:
		return "Tidak valid (" + err.Tag() + ")"
	}
}
