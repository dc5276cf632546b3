package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound            = errors.New("requested resource not found")
	ErrUnauthorized        = errors.New("unauthorized access")
	ErrBadRequest          = errors.New("bad request")
	ErrConflict            = errors.New("resource conflict") // e.g. submission already recorded
	ErrInternalServer      = errors.New("internal server error")
	ErrMethodNotAllowed    = errors.New("method not allowed")
	ErrMalformedBody       = errors.New("malformed response body")
	ErrMissingSubmissionID = errors.New("response does not contain a submission id")
)

// UpstreamError is a non-2xx answer from the judging backend or the token
// issuer. Its message is what the gateway hands back to the browser.
type UpstreamError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func NewUpstreamError(status int) *UpstreamError {
	return &UpstreamError{
		Message: fmt.Sprintf("Backend returned %d", status),
		Status:  status,
	}
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.Status != 0 {
		return upstreamErr.Status
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrBadRequest) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrMethodNotAllowed) {
		return http.StatusMethodNotAllowed
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // Unique violation
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}
