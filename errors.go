package redis

import (
	"errors"

	"github.com/pior/redis/resp"
)

// Kind is the closed taxonomy of client failures.
type Kind int

const (
	// KindConnectFailed: the transport could not be established or re-established.
	// Every later call fails until Reconnect succeeds.
	KindConnectFailed Kind = iota + 1

	// KindTransport: an I/O fault on a connection assumed to be open, or a call on a
	// connection known to be closed or broken. Reconnect before retrying.
	KindTransport

	// KindFraming: the server sent bytes that are not a valid reply frame.
	// The connection is out of sync and must not be reused.
	KindFraming

	// KindServer: a well-formed error reply. The connection is fine.
	KindServer

	// KindTypeMismatch: the key holds a value of another type, or the reply shape
	// does not fit the operation. Read operations report it as absent.
	KindTypeMismatch

	// KindUnsupportedType: the generic Get found a key type it cannot decode.
	KindUnsupportedType
)

// String returns the fixed category name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConnectFailed:
		return "connect failed"
	case KindTransport:
		return "io error"
	case KindFraming:
		return "framing error"
	case KindServer:
		return "server error"
	case KindTypeMismatch:
		return "type mismatch"
	case KindUnsupportedType:
		return "field type unknown"
	default:
		return "unknown error"
	}
}

// Defaults used when a failure carries no detail or code.
const (
	DefaultDetail = "not specified"
	DefaultCode   = "unknown"
)

// Error is the structured failure returned by every Client operation.
// It carries enough to render a single diagnostic line.
type Error struct {
	Kind Kind

	// Category is the taxonomy name (Kind.String()).
	Category string

	// Detail is the human readable part: the server message or the I/O error text.
	Detail string

	// Code is the leading token of a server error reply ("ERR", "WRONGTYPE"),
	// or DefaultCode.
	Code string

	// Err is the underlying error, if any.
	Err error
}

func newError(kind Kind, detail, code string, err error) *Error {
	if detail == "" {
		detail = DefaultDetail
	}
	if code == "" {
		code = DefaultCode
	}
	return &Error{
		Kind:     kind,
		Category: kind.String(),
		Detail:   detail,
		Code:     code,
		Err:      err,
	}
}

func (e *Error) Error() string {
	return "redis: " + e.Category + ": " + e.Detail + " (code: " + e.Code + ")"
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is match any *Error of the same Kind, so the sentinels below
// can be used to test for a category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrConnectFailed   = &Error{Kind: KindConnectFailed, Category: KindConnectFailed.String()}
	ErrTransport       = &Error{Kind: KindTransport, Category: KindTransport.String()}
	ErrFraming         = &Error{Kind: KindFraming, Category: KindFraming.String()}
	ErrServer          = &Error{Kind: KindServer, Category: KindServer.String()}
	ErrTypeMismatch    = &Error{Kind: KindTypeMismatch, Category: KindTypeMismatch.String()}
	ErrUnsupportedType = &Error{Kind: KindUnsupportedType, Category: KindUnsupportedType.String()}
)

// knownServerCodes are the error codes of the core server. Any other code comes
// from an extension (module) and is treated like WRONGTYPE.
var knownServerCodes = map[string]bool{
	"ERR":         true,
	"EXECABORT":   true,
	"LOADING":     true,
	"NOSCRIPT":    true,
	"MOVED":       true,
	"ASK":         true,
	"TRYAGAIN":    true,
	"CLUSTERDOWN": true,
	"CROSSSLOT":   true,
	"MASTERDOWN":  true,
	"READONLY":    true,
	"NOTBUSY":     true,
	"BUSY":        true,
	"BUSYKEY":     true,
	"NOAUTH":      true,
	"WRONGPASS":   true,
	"NOPERM":      true,
	"NOPROTO":     true,
	"OOM":         true,
	"MISCONF":     true,
	"NOREPLICAS":  true,
	"UNBLOCKED":   true,
}

// Classify maps any failure into the taxonomy. It returns nil for a nil error
// and returns an existing *Error unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var replyErr *resp.ErrorReply
	if errors.As(err, &replyErr) {
		return classifyErrorReply(replyErr)
	}

	var typeErr *resp.TypeError
	if errors.As(err, &typeErr) {
		return newError(KindTypeMismatch, typeErr.Error(), "", err)
	}

	var parseErr *resp.ParseError
	if errors.As(err, &parseErr) {
		return newError(KindFraming, parseErr.Error(), "", err)
	}

	if errors.Is(err, resp.ErrEmptyCommand) {
		return newError(KindServer, "empty command", resp.CodeGeneric, err)
	}

	if errors.Is(err, ErrConnectionClosed) {
		return newError(KindTransport, "connection closed", "", err)
	}

	// I/O errors, closed transport, context expiry, open circuit breaker
	return newError(KindTransport, err.Error(), "", err)
}

func classifyErrorReply(e *resp.ErrorReply) *Error {
	code := e.Code
	switch {
	case code == resp.CodeWrongType:
		return newError(KindTypeMismatch, e.Message, code, e)
	case code == "" || knownServerCodes[code]:
		return newError(KindServer, e.Message, code, e)
	default:
		// Extension error: unknown code from a module
		return newError(KindTypeMismatch, e.Message, code, e)
	}
}

// KindOf returns the Kind of err, or 0 for nil.
func KindOf(err error) Kind {
	if c := Classify(err); c != nil {
		return c.Kind
	}
	return 0
}

// IsTypeMismatch reports whether err means "no value of the requested type".
func IsTypeMismatch(err error) bool {
	return KindOf(err) == KindTypeMismatch
}
