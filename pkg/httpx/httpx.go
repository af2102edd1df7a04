// Package httpx contains shared helpers for the JSON API surface:
// request decoding, response rendering, and AppError-to-status mapping.
package httpx

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tesseramedia/tessera/pkg/errors"
)

// maxBodyBytes caps request bodies to keep malformed payloads cheap.
const maxBodyBytes = 1 << 20 // 1 MiB

// Decode reads a JSON request body into dst.
func Decode(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(errors.ErrorTypeBadRequest, "invalid JSON body", err)
	}
	return nil
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// errorBody is the generic error response shape.
type errorBody struct {
	Detail string `json:"detail"`
}

// Error maps an application error onto an HTTP response. Validation
// errors render their field-keyed messages as the body, matching the
// shape clients need to correct the request.
func Error(w http.ResponseWriter, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		JSON(w, http.StatusInternalServerError, errorBody{Detail: "internal server error"})
		return
	}

	if appErr.Type == errors.ErrorTypeBadRequest && len(appErr.Fields) > 0 {
		JSON(w, http.StatusBadRequest, appErr.Fields)
		return
	}

	JSON(w, statusFor(appErr.Type), errorBody{Detail: appErr.Message})
}

func statusFor(t errors.ErrorType) int {
	switch t {
	case errors.ErrorTypeBadRequest:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeConflict:
		return http.StatusConflict
	case errors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrorTypeForbidden:
		return http.StatusForbidden
	case errors.ErrorTypeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Deny rejects a request that failed a permission check: 401 for
// anonymous callers, 403 for authenticated ones.
func Deny(w http.ResponseWriter, authenticated bool) {
	if !authenticated {
		JSON(w, http.StatusUnauthorized, errorBody{Detail: "authentication required"})
		return
	}
	JSON(w, http.StatusForbidden, errorBody{Detail: "you do not have permission to perform this action"})
}

// NotFoundHandler renders a JSON 404 for unmatched routes.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusNotFound, errorBody{Detail: "not found"})
	}
}

// MethodNotAllowedHandler renders a JSON 405 for routes that exist but do
// not support the request verb. Full-replacement PUT on reviews, comments,
// titles, and users lands here by design of the route table.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusMethodNotAllowed, errorBody{Detail: "method not allowed"})
	}
}
