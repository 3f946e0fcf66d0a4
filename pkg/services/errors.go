package services

import (
	"errors"
	"net/http"
)

// FailureKind classifies why a submission was not relayed.
type FailureKind int

const (
	KindBadRequest FailureKind = iota + 1
	KindServerMisconfigured
	KindSmtpAuthFailure
	KindSmtpSendFailure
	KindInternalError
)

// Messages returned to the browser. None of them carry error details.
const (
	MsgSent          = "Form sent successfully!"
	MsgNoBody        = "No JSON body provided"
	MsgInvalidJSON   = "Invalid JSON format"
	MsgMisconfigured = "Server is not configured to send emails."
	MsgAuthFailure   = "Email authentication failed. Please contact the site administrator."
	MsgSendFailure   = "Failed to send email. Please try again later."
	MsgInternalError = "An internal error occurred."
)

func (k FailureKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindServerMisconfigured:
		return "server_misconfigured"
	case KindSmtpAuthFailure:
		return "smtp_auth_failure"
	case KindSmtpSendFailure:
		return "smtp_send_failure"
	case KindInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the kind onto the response status code.
func (k FailureKind) HTTPStatus() int {
	if k == KindBadRequest {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Failure is the error returned for every submission that was not relayed.
// Message is safe to show to the applicant; Err holds the server-side cause.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return f.Kind.String() + ": " + f.Message + ": " + f.Err.Error()
	}
	return f.Kind.String() + ": " + f.Message
}

func (f *Failure) Unwrap() error { return f.Err }

// NewBadRequest reports a submission the caller must fix.
func NewBadRequest(message string, cause error) *Failure {
	return &Failure{Kind: KindBadRequest, Message: message, Err: cause}
}

// AsFailure extracts the Failure from err. Anything else is reported as an
// internal error so no detail leaks to the caller.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Kind: KindInternalError, Message: MsgInternalError, Err: err}
}
