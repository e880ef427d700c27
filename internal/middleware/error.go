package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"oeo-pos/internal/domain"

	"go.uber.org/zap"
)

// ErrorResponse represents a structured error response. Msg keeps the short
// message POS clients display.
type ErrorResponse struct {
	Msg   string      `json:"msg"`
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Kind      string                 `json:"kind,omitempty"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithErrorDetails(w, statusCode, "", message, nil)
}

// RespondWithErrorDetails sends a structured error response with additional details
func RespondWithErrorDetails(w http.ResponseWriter, statusCode int, kind domain.Kind, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Msg: message,
		Error: ErrorDetail{
			Code:      http.StatusText(statusCode),
			Kind:      string(kind),
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	json.NewEncoder(w).Encode(response)
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindOutOfStock, domain.KindEmptyCart, domain.KindInvalid:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithDomainError classifies err and writes the matching response.
// Store failures are logged and reported with a generic message.
func RespondWithDomainError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)

	var message string
	switch kind {
	case domain.KindOutOfStock:
		message = "Out of stock"
	case domain.KindEmptyCart:
		message = "Cart empty"
	case domain.KindNotFound:
		message = capitalize(lastSegment(err.Error()))
	case domain.KindInvalid:
		message = capitalize(invalidReason(err.Error()))
	case domain.KindRenderFailure:
		message = "PDF generation failed"
	default:
		message = "internal server error"
	}

	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if tenant, ok := GetTenant(r.Context()); ok {
		fields = append(fields, zap.String("tenant", tenant.String()))
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Debug("Request rejected", fields...)
	}

	var details map[string]interface{}
	if kind == domain.KindOutOfStock || kind == domain.KindInvalid {
		details = map[string]interface{}{"reason": err.Error()}
	}

	RespondWithErrorDetails(w, status, kind, message, details)
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, errs []ValidationError) {
	details := make(map[string]interface{})
	details["validation_errors"] = errs

	RespondWithErrorDetails(w, http.StatusBadRequest, domain.KindInvalid, "validation failed", details)
}

// RespondWithDecodeError reports a request body that failed to decode or validate
func RespondWithDecodeError(w http.ResponseWriter, err error) {
	if errs := FormatValidationErrors(err); len(errs) > 0 {
		RespondWithValidationErrors(w, errs)
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		RespondWithErrorDetails(w, http.StatusBadRequest, domain.KindInvalid, "invalid request body", nil)
	default:
		RespondWithErrorDetails(w, http.StatusBadRequest, domain.KindInvalid, capitalize(err.Error()), nil)
	}
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
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
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

// lastSegment drops the "failed to ...: " prefixes added while wrapping.
func lastSegment(s string) string {
	if i := strings.LastIndex(s, ": "); i >= 0 {
		return s[i+2:]
	}
	return s
}

func invalidReason(s string) string {
	marker := domain.ErrInvalid.Error()
	if i := strings.LastIndex(s, marker+": "); i >= 0 {
		return s[i+len(marker)+2:]
	}
	if strings.HasSuffix(s, ": "+marker) {
		return lastSegment(strings.TrimSuffix(s, ": "+marker))
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
