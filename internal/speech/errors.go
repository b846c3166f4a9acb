// Package speech wraps the remote speech-to-text service with retry and
// typed failure classification.
package speech

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// FailureKind is the closed set of transcription failure categories the
// orchestrator branches on. Callers switch on the kind, never on message
// text.
type FailureKind string

const (
	KindUnknown            FailureKind = "unknown"
	KindInvalidCredentials FailureKind = "invalid_credentials"
	KindQuotaExceeded      FailureKind = "quota_exceeded"
	KindPayloadTooLarge    FailureKind = "payload_too_large"
	KindUnsupportedFormat  FailureKind = "unsupported_format"
	KindServerError        FailureKind = "server_error"
	KindNoSpeech           FailureKind = "no_speech"
)

// Error is a classified transcription failure.
type Error struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcription %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("transcription %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt could plausibly succeed.
// Quota exhaustion never resolves within a backoff window, so it is
// permanent along with the other client-side failures.
func (e *Error) Retryable() bool {
	return e.Kind == KindServerError || e.Kind == KindUnknown
}

// KindOf extracts the failure kind from any error chain, defaulting to
// KindUnknown for unclassified errors.
func KindOf(err error) FailureKind {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return KindUnknown
}

// classify maps a transport error from the speech API onto a failure kind
// using the HTTP status, never the message text.
func classify(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	return &Error{Kind: KindUnknown, Message: "speech service request failed", Err: err}
}

func classifyStatus(status int, err error) *Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: KindInvalidCredentials, Message: "speech service rejected credentials", Err: err}
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindQuotaExceeded, Message: "speech service quota exhausted", Err: err}
	case status == http.StatusRequestEntityTooLarge:
		return &Error{Kind: KindPayloadTooLarge, Message: "audio payload too large", Err: err}
	case status == http.StatusUnsupportedMediaType || status == http.StatusUnprocessableEntity:
		return &Error{Kind: KindUnsupportedFormat, Message: "audio format not accepted", Err: err}
	case status >= 500:
		return &Error{Kind: KindServerError, Message: "speech service unavailable", Err: err}
	default:
		return &Error{Kind: KindUnknown, Message: "speech service request failed", Err: err}
	}
}
