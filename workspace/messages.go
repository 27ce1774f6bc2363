package workspace

import (
	"github.com/beautyclinic/clinic-web/api"
	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
)

const unknownErrorMessage = "An unknown error occurred."

// Resource names what a failed create was adding.
type Resource string

const (
	ResourcePatient     Resource = "patient"
	ResourceAppointment Resource = "appointment"
)

var planLimitMessages = map[Resource]string{
	ResourcePatient:     "Your plan limit is reached; no more patients can be added.",
	ResourceAppointment: "Your current plan does not allow booking another appointment.",
}

// ErrorMessage is the text shown for a failed workspace call. Backend
// messages pass through verbatim except for plan limits.
func ErrorMessage(err error, resource Resource) string {
	if err == nil {
		return ""
	}
	if api.IsPlanLimit(err) {
		if msg, ok := planLimitMessages[resource]; ok {
			return msg
		}
	}
	var apiErr api.APIError
	if clinicerrors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return unknownErrorMessage
}
