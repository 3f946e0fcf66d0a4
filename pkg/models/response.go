package models

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the JSON envelope returned by the form endpoint.
type Response struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

// SuccessResponse builds the body sent after the application mail went out.
func SuccessResponse(message, redirect string) Response {
	return Response{Status: StatusSuccess, Message: message, Redirect: redirect}
}

// ErrorResponse builds the body for any rejected or failed submission.
func ErrorResponse(message string) Response {
	return Response{Status: StatusError, Message: message}
}
