package server

import (
	"fmt"
	"net/http"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrRunInProgress indicates a run is already active
type ErrRunInProgress struct {
	RunID string
}

func (e *ErrRunInProgress) Error() string {
	return fmt.Sprintf("research run %s is still in progress", e.RunID)
}

// ErrNoRun indicates no run has been started yet
type ErrNoRun struct{}

func (e *ErrNoRun) Error() string {
	return "no research run has been started"
}

// ErrRunFailed indicates the run did not succeed, so no report can be compiled
type ErrRunFailed struct {
	RunID   string
	Message string
}

func (e *ErrRunFailed) Error() string {
	return fmt.Sprintf("research run %s failed: %s", e.RunID, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrValidation:
		return http.StatusBadRequest
	case *ErrNoRun:
		return http.StatusNotFound
	case *ErrRunInProgress, *ErrRunFailed:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
