package session

import "errors"

var (
	// validation
	ErrSkipLimitExceeded = errors.New("skip limit exceeded")

	// business rules
	ErrProgressTooLow = errors.New("progress too low to save")
	ErrAlreadySaved   = errors.New("session already saved today")
	ErrNoPlan         = errors.New("user has no plan")

	// not found
	ErrNoSessionForDate = errors.New("no session for date")
)

// Reason codes reported to clients for rejected submissions.
const (
	ReasonSkipLimit       = "skip_limit"
	ReasonProgressTooLow  = "progress_too_low"
	ReasonAlreadySaved    = "already_saved"
	ReasonNoPlan          = "no_plan"
	ReasonNoSessionForDay = "no_session_for_date"
)

// RejectReason maps an expected outcome error to its reason code.
// Returns false for infrastructure errors.
func RejectReason(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrSkipLimitExceeded):
		return ReasonSkipLimit, true
	case errors.Is(err, ErrProgressTooLow):
		return ReasonProgressTooLow, true
	case errors.Is(err, ErrAlreadySaved):
		return ReasonAlreadySaved, true
	case errors.Is(err, ErrNoPlan):
		return ReasonNoPlan, true
	case errors.Is(err, ErrNoSessionForDate):
		return ReasonNoSessionForDay, true
	default:
		return "", false
	}
}
