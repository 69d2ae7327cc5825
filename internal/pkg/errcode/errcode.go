package errcode

import "net/http"

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrInvalidFile
	ErrUploadFailed
	ErrAIUnavailable
	ErrAIUnsupported
)

func HTTPStatus(code int) int {
	switch code {
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalid, ErrInvalidFile:
		return http.StatusBadRequest
	case ErrConflict:
		return http.StatusConflict
	case ErrTooMany:
		return http.StatusTooManyRequests
	case ErrAIUnavailable:
		return http.StatusServiceUnavailable
	case ErrAIUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// Message is the default text for code when a handler gives none.
func Message(code int) string {
	switch code {
	case ErrAIUnavailable:
		return "ai unavailable"
	case ErrAIUnsupported:
		return "ai feature not supported"
	case ErrInvalidFile:
		return "invalid file"
	case ErrUploadFailed:
		return "upload failed"
	}
	if status := HTTPStatus(code); status != http.StatusInternalServerError || code == ErrInternal {
		return http.StatusText(status)
	}
	return "unknown error"
}
