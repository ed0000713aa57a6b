package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/banshee-data/ciefunctions/internal/colorimetry"
	"github.com/banshee-data/ciefunctions/internal/httputil"
	"github.com/banshee-data/ciefunctions/internal/jsonfmt"
	"github.com/banshee-data/ciefunctions/internal/monitoring"
)

// Error is a client-facing failure rendered as the JSON error body.
type Error struct {
	Status     int
	Title      string
	Message    string
	Suggestion string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Message)
}

func unprocessable(title, message, suggestion string) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Title: title, Message: message, Suggestion: suggestion}
}

// writeError renders err. An *Error is reported as is; computation
// failures such as a solver that did not converge become a 500.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		httputil.WriteError(w, apiErr.Status, apiErr.Title, apiErr.Message, apiErr.Suggestion)
		return
	}
	switch {
	case errors.Is(err, colorimetry.ErrNotConverged):
		monitoring.Logf("solver did not converge: %v", err)
	case errors.Is(err, jsonfmt.ErrShapeMismatch):
		monitoring.Logf("serializer shape mismatch: %v", err)
	default:
		monitoring.Logf("computation failed: %v", err)
	}
	httputil.InternalServerError(w)
}
