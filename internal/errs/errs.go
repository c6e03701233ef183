// Package errs defines the error taxonomy shared by the store, the workflow
// engine and the HTTP layer. Failures wrap one of the sentinels so callers
// classify them with errors.Is.
package errs

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks malformed or missing input. Nothing is written.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a violated precondition on entity state, e.g. matching a found case.
	ErrConflict = errors.New("conflict")
	// ErrPersistence marks a storage failure. Partial writes have been rolled back.
	ErrPersistence = errors.New("persistence failure")
	// ErrGenerationSoft marks a text provider failure. It never aborts a state change.
	ErrGenerationSoft = errors.New("text generation failed")
)

// HTTPStatus maps an error to the status code the API reports.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrGenerationSoft):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns a stable short name for logging and API payloads.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrGenerationSoft):
		return "generation"
	default:
		return "internal"
	}
}
