package gemini

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrProtocolViolation  = errors.New("gemini: protocol violation")
	ErrResponseStarted    = fmt.Errorf("%w: response already started", ErrProtocolViolation)
	ErrResponseNotStarted = fmt.Errorf("%w: response not yet started", ErrProtocolViolation)
	ErrMissingMessageType = fmt.Errorf("%w: message has no type defined", ErrProtocolViolation)
	ErrUnknownMessageType = fmt.Errorf("%w: unknown message type", ErrProtocolViolation)

	ErrRequestTooLarge  = errors.New("gemini: request too large")
	ErrMalformedRequest = errors.New("gemini: malformed request")
	ErrProxyRefused     = errors.New("gemini: proxy request refused")

	ErrApplicationPanic = errors.New("gemini: application panic")

	ErrInvalidConfig       = errors.New("gemini: invalid config")
	ErrTLSCertFileRequired = errors.New("gemini: tls cert file required")
	ErrTLSKeyFileRequired  = errors.New("gemini: tls key file required")
)

// RequestError is a rejected request line together with the status sent to the peer.
type RequestError struct {
	Status int
	Meta   string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%d %s: %v", e.Status, e.Meta, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func badRequest(reason string) *RequestError {
	return &RequestError{
		Status: StatusBadRequest,
		Meta:   "Bad Request",
		Err:    fmt.Errorf("%w: %s", ErrMalformedRequest, reason),
	}
}

// Failure is an application error with a named kind. When an application fails
// with a Failure before starting its response, the peer sees "50 <kind>: <message>".
type Failure struct {
	kind    string
	message string
}

func NewFailure(kind, message string) *Failure {
	return &Failure{kind: strings.TrimSpace(kind), message: message}
}

func (f *Failure) Kind() string {
	return f.kind
}

func (f *Failure) Message() string {
	return f.message
}

func (f *Failure) Error() string {
	if f.kind == "" {
		return f.message
	}
	return f.kind + ": " + f.message
}

// PanicError is a recovered application panic. Its kind is "Panic".
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Kind() string {
	return "Panic"
}

func (p *PanicError) Message() string {
	return fmt.Sprint(p.Value)
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("%v: %v\n%s", ErrApplicationPanic, p.Value, p.Stack)
}

func (p *PanicError) Unwrap() error {
	return ErrApplicationPanic
}

type kinded interface {
	error
	Kind() string
}

type messager interface {
	Message() string
}

// ErrorKind returns the kind carried anywhere in err's chain, or "".
func ErrorKind(err error) string {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// Diagnostic renders the status-50 header for an application failure as
// "<kind>: <message>". Errors without a kind are reported under "Error".
func Diagnostic(err error) string {
	if err == nil {
		return "Internal Server Error"
	}
	kind, msg := "Error", err.Error()
	var k kinded
	if errors.As(err, &k) && k.Kind() != "" {
		kind, msg = k.Kind(), k.Error()
		if m, ok := k.(messager); ok {
			msg = m.Message()
		}
	}
	if strings.TrimSpace(msg) == "" {
		return sanitizeHeader(kind)
	}
	return sanitizeHeader(kind + ": " + msg)
}

// sanitizeHeader keeps a header on one line and inside the 1024-byte line budget
// without splitting a UTF-8 sequence.
func sanitizeHeader(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	if len(s) <= MaxRequestLine {
		return s
	}
	cut := MaxRequestLine
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
