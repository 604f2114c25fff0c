package resp

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for RESP operations.
// These errors help clients decide whether a connection can be reused after a
// failure (see ShouldCloseConnection).

// ErrEmptyCommand is returned when encoding a command without a name.
var ErrEmptyCommand = errors.New("resp: empty command")

// ErrorReply is an error reply (-) sent by the server.
// The protocol state is still valid: the connection can be REUSED.
//
// Code is the leading upper-case token of the message ("ERR", "WRONGTYPE",
// "NOAUTH", ...). Message is the remainder.
//
// Connection handling: REUSE connection
type ErrorReply struct {
	Code    string
	Message string
}

// ParseErrorReply splits a raw error line into its code and message.
// A line whose first token is not upper-case gets an empty Code.
func ParseErrorReply(line string) *ErrorReply {
	code, msg, found := strings.Cut(line, " ")
	if !isErrorCode(code) {
		return &ErrorReply{Message: line}
	}
	if !found {
		return &ErrorReply{Code: code}
	}
	return &ErrorReply{Code: code, Message: msg}
}

func isErrorCode(token string) bool {
	if token == "" {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < 'A' || c > 'Z') && c != '_' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func (e *ErrorReply) Error() string {
	switch {
	case e.Code == "":
		return e.Message
	case e.Message == "":
		return e.Code
	default:
		return e.Code + " " + e.Message
	}
}

// ShouldCloseConnection returns false - error replies don't corrupt protocol state
func (e *ErrorReply) ShouldCloseConnection() bool {
	return false
}

// TypeError is returned when a reply cannot be coerced into the requested type,
// e.g. asking for an integer from an array reply.
//
// Connection handling: REUSE connection, the frame was fully consumed
type TypeError struct {
	Want string // requested type
	Got  Kind   // actual reply kind
	Err  error  // underlying conversion error, if any
}

func (e *TypeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resp: cannot convert %s reply to %s: %v", e.Got, e.Want, e.Err)
	}
	return fmt.Sprintf("resp: cannot convert %s reply to %s", e.Got, e.Want)
}

// Unwrap returns the underlying error for error chain inspection
func (e *TypeError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns false - coercion happens after the frame was read
func (e *TypeError) ShouldCloseConnection() bool {
	return false
}

// ParseError represents a malformed or truncated reply frame.
// The reader position inside the stream is unknown afterwards.
//
// Common causes:
//   - Unknown type sigil
//   - Line not terminated by CRLF
//   - Negative or unparseable length prefix
//   - Integer outside the signed 64-bit range (wraps strconv.ErrRange)
//   - Stream ended in the middle of a frame (wraps io.ErrUnexpectedEOF)
//
// Connection handling: CLOSE connection, the stream is out of sync
type ParseError struct {
	Message string
	Err     error // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "resp: parse error: " + e.Message + ": " + e.Err.Error()
	}
	return "resp: parse error: " + e.Message
}

// Unwrap returns the underlying error for error chain inspection
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - parse errors indicate a desynchronized stream
func (e *ParseError) ShouldCloseConnection() bool {
	return true
}

// ConnectionError wraps I/O errors from the transport.
//
// Common causes:
//   - Connection reset or closed by the server
//   - Deadline exceeded
//
// Connection handling: Connection is already broken, CLOSE and RECONNECT
type ConnectionError struct {
	Op  string // Operation that failed (read, write, dial)
	Err error  // Underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - connection errors mean connection is broken
func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is implemented by all error types of this package.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err leaves the connection unusable.
//
// Returns true for ParseError, ConnectionError and unknown errors (io.EOF, net errors).
// Returns false for ErrorReply, TypeError and nil.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	// Unknown error type - be conservative and close connection
	return true
}
