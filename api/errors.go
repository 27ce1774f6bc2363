package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
)

const defaultErrorMessage = "unable to communicate with the server"

// APIError is a non-2xx response from the backend. Message carries the
// backend's `message` (or `detail`) verbatim so business errors such as
// PLAN_LIMIT reach the UI unchanged.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	return fmt.Sprintf("api: %s (%d)", e.Message, e.Status)
}

// Is matches the clinic error sentinels, so callers can test a backend
// failure with errors.Is.
func (e APIError) Is(target error) bool {
	switch target {
	case clinicerrors.ErrPlanLimit:
		return strings.Contains(e.Message, "PLAN_LIMIT")
	case clinicerrors.ErrTimeConflict:
		return strings.Contains(e.Message, "TIME_CONFLICT")
	case clinicerrors.ErrNotFound:
		return e.Status == http.StatusNotFound
	case clinicerrors.ErrInvalidRequest:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	case clinicerrors.ErrInternal:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

// TransportError covers failures where no usable response arrived: the
// request never completed or the body could not be decoded.
type TransportError struct {
	Op    string
	Cause error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("api: %s: %v", e.Op, e.Cause)
}

func (e TransportError) Unwrap() error {
	return e.Cause
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	apiErr := APIError{Status: resp.StatusCode, Message: defaultErrorMessage}
	if !gjson.ValidBytes(data) {
		return apiErr
	}
	for _, field := range []string{"message", "detail"} {
		if v := gjson.GetBytes(data, field); v.Exists() && v.String() != "" {
			apiErr.Message = v.String()
			break
		}
	}
	return apiErr
}

// IsTransport reports whether err is a network or decoding failure rather
// than a response from the backend.
func IsTransport(err error) bool {
	var te TransportError
	return errors.As(err, &te)
}

// StatusOf returns the HTTP status of an APIError, or 0.
func StatusOf(err error) int {
	var ae APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// IsPlanLimit reports a PLAN_LIMIT business error.
func IsPlanLimit(err error) bool {
	return errors.Is(err, clinicerrors.ErrPlanLimit)
}

// IsTimeConflict reports an overlapping appointment.
func IsTimeConflict(err error) bool {
	return errors.Is(err, clinicerrors.ErrTimeConflict)
}
