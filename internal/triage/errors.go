package triage

import "errors"

var (
	// ErrEmptySymptoms is returned before any outbound call when the
	// symptom text is blank.
	ErrEmptySymptoms = errors.New("symptom text is required")

	// ErrParseFailure means model output held neither diagnoses nor
	// recommendations.
	ErrParseFailure = errors.New("model output could not be parsed")
)

// AccessDeniedError is returned when the gate refuses the caller.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "access denied: " + e.Reason
}

// IsAccessDenied reports whether err is or wraps an AccessDeniedError and
// returns the gate's reason.
func IsAccessDenied(err error) (string, bool) {
	var ade *AccessDeniedError
	if errors.As(err, &ade) {
		return ade.Reason, true
	}
	return "", false
}
