// Package apperr defines the error kinds shared by the dataset clients, the
// enrichment flow and the capture pipeline. Call sites tag an error with a
// kind via Wrap; callers classify it with errors.Is.
package apperr

import (
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
)

var (
	// ErrConfig reports missing credentials or dataset ids.
	ErrConfig = eris.New("configuration error")
	// ErrRemote reports an upstream call that failed or returned an unusable payload.
	ErrRemote = eris.New("remote dataset error")
	// ErrTimeout reports a wall-clock deadline that elapsed while waiting on upstream.
	ErrTimeout = eris.New("remote dataset timeout")
	// ErrNotFound reports a search that produced no candidates.
	ErrNotFound = eris.New("no candidates found")
	// ErrSelection reports a ranking collaborator that returned no usable selection.
	ErrSelection = eris.New("profile selection failed")
	// ErrBadSelection reports a selected candidate without a profile URL.
	ErrBadSelection = eris.New("selected profile is unusable")
	// ErrExtraction reports an image with no usable identity.
	ErrExtraction = eris.New("extraction failed")
	// ErrEmptySnapshot reports a profile fetch that yielded zero records.
	ErrEmptySnapshot = eris.New("snapshot returned no records")
	// ErrQueueUnavailable reports a queue backend that cannot accept work.
	ErrQueueUnavailable = eris.New("capture queue unavailable")
	// ErrInvalidURL reports a profile URL that cannot be normalized.
	ErrInvalidURL = eris.New("invalid profile URL")
	// ErrEnrichment reports a failed enrichment crew run.
	ErrEnrichment = eris.New("profile enrichment failed")
	// ErrValidation reports caller input that cannot be processed.
	ErrValidation = eris.New("invalid input")
	// ErrJobNotFound reports an unknown capture job or person id.
	ErrJobNotFound = eris.New("resource not found")
)

// Wrap tags a formatted message with kind.
func Wrap(kind error, format string, args ...any) error {
	return eris.Wrapf(kind, format, args...)
}

// Is reports whether err carries the given kind.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}

// HTTPStatus maps an error to the status code the HTTP surface returns.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case Is(err, ErrNotFound), Is(err, ErrJobNotFound):
		return http.StatusNotFound
	case Is(err, ErrExtraction), Is(err, ErrInvalidURL), Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case Is(err, ErrQueueUnavailable):
		return http.StatusServiceUnavailable
	case Is(err, ErrRemote), Is(err, ErrSelection), Is(err, ErrBadSelection),
		Is(err, ErrEmptySnapshot), Is(err, ErrEnrichment):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the response error code for err.
func Code(err error) string {
	switch {
	case Is(err, ErrNotFound), Is(err, ErrJobNotFound):
		return "NOT_FOUND"
	case Is(err, ErrExtraction), Is(err, ErrInvalidURL), Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case Is(err, ErrTimeout):
		return "UPSTREAM_TIMEOUT"
	case Is(err, ErrQueueUnavailable):
		return "QUEUE_UNAVAILABLE"
	case Is(err, ErrConfig):
		return "CONFIG_ERROR"
	case Is(err, ErrRemote), Is(err, ErrSelection), Is(err, ErrBadSelection),
		Is(err, ErrEmptySnapshot), Is(err, ErrEnrichment):
		return "UPSTREAM_ERROR"
	default:
		return "SERVICE_ERROR"
	}
}
