package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"amcmath/internal/logger"
	"amcmath/internal/security"
	"amcmath/internal/service"
	"amcmath/internal/validation"
)

// APIError is the body of every error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// respondWithError maps err to a status and writes it as a JSON error.
// Server errors are logged with their cause; client errors at warn.
func respondWithError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status, apiErr := classify(err)

	kv := []any{
		"code", apiErr.Code,
		"status", status,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", GetRequestID(r),
	}
	if status >= http.StatusInternalServerError {
		log.Error("api error", append(kv, "error", err)...)
	} else {
		log.Warn("api error", append(kv, "message", apiErr.Message)...)
	}

	writeJSON(w, status, errorResponse{Error: apiErr})
}

func classify(err error) (int, APIError) {
	var fieldErrs validation.FieldErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &fieldErrs):
		return http.StatusBadRequest, APIError{Code: CodeValidation, Message: "validation failed", Details: map[string]string(fieldErrs)}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, APIError{Code: CodeBadRequest, Message: "malformed request body"}
	case errors.Is(err, security.ErrMissingToken), errors.Is(err, security.ErrInvalidToken):
		return http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "authentication required"}
	case errors.Is(err, service.ErrProblemNotFound):
		return http.StatusNotFound, APIError{Code: CodeNotFound, Message: "problem not found"}
	case errors.Is(err, service.ErrPathNotFound):
		return http.StatusNotFound, APIError{Code: CodeNotFound, Message: "path not found"}
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, APIError{Code: CodeTooManyRequests, Message: "too many attempts, slow down"}
	case errors.Is(err, errNotReady):
		return http.StatusServiceUnavailable, APIError{Code: CodeUnavailable, Message: "service not ready"}
	}
	return http.StatusInternalServerError, APIError{Code: CodeInternal, Message: ErrInternalServerError}
}

var (
	errMalformedBody = errors.New("malformed request body")
	errRateLimited   = errors.New("rate limited")
	errNotReady      = errors.New("not ready")
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a single JSON object from the request body
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return err
		}
		return errors.Join(errMalformedBody, err)
	}
	return nil
}
