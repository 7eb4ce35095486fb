package expenseform

import "errors"

var (
	ErrMissingVerification = errors.New("missing verification token")
	ErrMissingIdentity     = errors.New("missing identity fields")
	ErrNoPricedExpense     = errors.New("no expense with an amount")
	ErrServerRejected      = errors.New("server rejected submission")
	ErrNetwork             = errors.New("network error")
	ErrInvalidPayload      = errors.New("invalid payload")

	// ErrSubmitInFlight is returned by Submit while a previous submission is still being
	// transmitted. The call has no effect.
	ErrSubmitInFlight = errors.New("submission already in progress")
	ErrUnknownField   = errors.New("unknown identity field")
)

type ErrorKind string

const (
	KindMissingVerification ErrorKind = "missing_verification"
	KindMissingIdentity     ErrorKind = "missing_identity"
	KindNoPricedExpense     ErrorKind = "no_priced_expense"
	KindServerRejected      ErrorKind = "server_rejected"
	KindNetwork             ErrorKind = "network_error"
	KindInvalidPayload      ErrorKind = "invalid_payload"
)

const (
	msgMissingVerification = "Please complete the captcha verification."
	msgMissingIdentity     = "Please fill in all required fields."
	msgNoPricedExpense     = "Please add at least one expense with an amount."
	msgServerRejected      = "Submission failed. Please try again."
	msgNetwork             = "Network error. Please check your connection and try again."
	msgInvalidPayload      = "Could not prepare the submission. Please check your attachments and try again."
)

var kindSentinels = map[ErrorKind]error{
	KindMissingVerification: ErrMissingVerification,
	KindMissingIdentity:     ErrMissingIdentity,
	KindNoPricedExpense:     ErrNoPricedExpense,
	KindServerRejected:      ErrServerRejected,
	KindNetwork:             ErrNetwork,
	KindInvalidPayload:      ErrInvalidPayload,
}

// SubmitError is the reason a submission ended in the failed state. Message is meant for the
// submitter; Kind and the wrapped error are for callers.
type SubmitError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

func (e *SubmitError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Local reports whether the failure was detected before contacting the server.
func (e *SubmitError) Local() bool {
	switch e.Kind {
	case KindMissingVerification, KindMissingIdentity, KindNoPricedExpense, KindInvalidPayload:
		return true
	default:
		return false
	}
}

func newSubmitError(kind ErrorKind, message string, err error) *SubmitError {
	return &SubmitError{Kind: kind, Message: message, Err: err}
}
