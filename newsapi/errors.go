package newsapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error. Each kind is one failure class of the service.
type Kind int

const (
	// KindConfiguration is a missing or invalid setting at startup.
	KindConfiguration Kind = iota + 1
	// KindUnavailable is a transport failure: connection error or timeout.
	KindUnavailable
	// KindHTTP is a non-success HTTP status from the provider.
	KindHTTP
	// KindLogical is an HTTP success whose envelope status is not "ok".
	KindLogical
	// KindValidation is a malformed article in an otherwise valid response.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindUnavailable:
		return "provider_unavailable"
	case KindHTTP:
		return "provider_http"
	case KindLogical:
		return "provider_logical"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching on the kind of an *Error.
var (
	ErrConfiguration       = &Error{Kind: KindConfiguration}
	ErrProviderUnavailable = &Error{Kind: KindUnavailable}
	ErrProviderHTTP        = &Error{Kind: KindHTTP}
	ErrProviderLogical     = &Error{Kind: KindLogical}
	ErrValidation          = &Error{Kind: KindValidation}
)

// Error is the single error type returned by this package.
type Error struct {
	Kind Kind
	// Op is the operation or endpoint that failed, e.g. "everything".
	Op string
	// StatusCode is set for KindHTTP.
	StatusCode int
	// Code is the provider's machine-readable error code, when it sent one.
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindConfiguration:
		msg = "news configuration invalid"
	case KindUnavailable:
		msg = "news provider unavailable"
	case KindHTTP:
		msg = fmt.Sprintf("news provider error (%d)", e.StatusCode)
	case KindLogical:
		msg = "news provider rejected request"
	case KindValidation:
		msg = "invalid article"
	default:
		msg = "news error"
	}
	if e.Op != "" {
		msg += " [" + e.Op + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind so errors.Is(err, ErrProviderHTTP) works for
// any status code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.StatusCode == 0 && t.Message == "" && t.Err == nil
}

// ConfigurationError reports an invalid setting.
func ConfigurationError(msg string, err error) *Error {
	return &Error{Kind: KindConfiguration, Message: msg, Err: err}
}

func unavailable(op string, err error) *Error {
	return &Error{Kind: KindUnavailable, Op: op, Err: err}
}

func httpError(op string, status int, code, msg string) *Error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Kind: KindHTTP, Op: op, StatusCode: status, Code: code, Message: msg}
}

func logicalError(op, code, msg string) *Error {
	if msg == "" {
		msg = "failed to fetch news"
	}
	return &Error{Kind: KindLogical, Op: op, Code: code, Message: msg}
}

func validationError(field, msg string) *Error {
	return &Error{Kind: KindValidation, Op: field, Message: msg}
}

// KindOf returns the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Retryable reports whether repeating the call may succeed: transport
// failures, rate limiting and provider-side 5xx.
func Retryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindUnavailable:
		return true
	case KindHTTP:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	default:
		return false
	}
}
