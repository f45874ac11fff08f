package carclient

import "errors"

// Validation codes reported before any network call is made.
const (
	CodeEmptyPrompt      = "empty_prompt"
	CodeInvalidImageType = "invalid_image_type"
	CodeImageTooLarge    = "image_too_large"
)

// ErrRequestInFlight is returned when Generate is entered while a previous
// request is still outstanding. At most one request runs at a time.
var ErrRequestInFlight = errors.New("carclient: a request is already in flight")

// ValidationError reports a request rejected locally, before submission.
type ValidationError struct {
	Code string
}

func (e *ValidationError) Error() string {
	switch e.Code {
	case CodeEmptyPrompt:
		return "prompt must not be empty"
	case CodeInvalidImageType:
		return "attachment must be an image"
	case CodeImageTooLarge:
		return "image exceeds the 7 MiB limit"
	default:
		return e.Code
	}
}

// RemoteError reports a failed submission: an HTTP error status from the
// backend or a transport-level failure. The message is what the interface
// shows inline.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}
