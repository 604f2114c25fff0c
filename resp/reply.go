package resp

import (
	"strconv"
	"strings"
)

// Kind is the tag of a decoded Reply.
type Kind uint8

const (
	// KindNil is the null bulk string ($-1) or null array (*-1)
	KindNil Kind = iota
	// KindInteger is a signed 64-bit integer (:)
	KindInteger
	// KindString is a simple (+) or bulk ($) string
	KindString
	// KindArray is an array (*) of nested replies
	KindArray
	// KindError is an error reply (-)
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindError:
		return "error"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Reply represents one decoded reply frame.
// Only the field matching Kind is meaningful.
//
// The zero value is a nil reply.
type Reply struct {
	Kind Kind

	// Str holds the payload of a KindString reply.
	// It is never nil for KindString, even for an empty string.
	Str []byte

	// Int holds the value of a KindInteger reply.
	Int int64

	// Array holds the elements of a KindArray reply. It is never nil for
	// KindArray, even for an empty array.
	Array []Reply

	// Err holds the decoded error of a KindError reply.
	Err *ErrorReply
}

// Constructors, mostly useful in tests and fake servers.

func NilReply() Reply {
	return Reply{Kind: KindNil}
}

func IntReply(n int64) Reply {
	return Reply{Kind: KindInteger, Int: n}
}

func StringReply(s string) Reply {
	return Reply{Kind: KindString, Str: []byte(s)}
}

func ArrayReply(elems ...Reply) Reply {
	if elems == nil {
		elems = []Reply{}
	}
	return Reply{Kind: KindArray, Array: elems}
}

// ErrReply builds an error reply from the full server message, e.g.
// "WRONGTYPE Operation against a key holding the wrong kind of value".
func ErrReply(line string) Reply {
	return Reply{Kind: KindError, Err: ParseErrorReply(line)}
}

// IsNil reports whether the reply is a nil reply.
func (r Reply) IsNil() bool {
	return r.Kind == KindNil
}

// IsError reports whether the reply is an error reply.
func (r Reply) IsError() bool {
	return r.Kind == KindError
}

// AsString coerces a string or integer reply into a string.
func (r Reply) AsString() (string, error) {
	switch r.Kind {
	case KindString:
		return string(r.Str), nil
	case KindInteger:
		return strconv.FormatInt(r.Int, 10), nil
	case KindError:
		return "", r.errorReply()
	default:
		return "", &TypeError{Want: "string", Got: r.Kind}
	}
}

// AsInt coerces an integer reply, or a string reply holding a decimal integer.
func (r Reply) AsInt() (int64, error) {
	switch r.Kind {
	case KindInteger:
		return r.Int, nil
	case KindString:
		n, err := strconv.ParseInt(string(r.Str), 10, 64)
		if err != nil {
			return 0, &TypeError{Want: "integer", Got: r.Kind, Err: err}
		}
		return n, nil
	case KindError:
		return 0, r.errorReply()
	default:
		return 0, &TypeError{Want: "integer", Got: r.Kind}
	}
}

// AsStrings coerces an array of strings into a slice.
// A single string reply is accepted as a one-element sequence.
func (r Reply) AsStrings() ([]string, error) {
	switch r.Kind {
	case KindArray:
		out := make([]string, len(r.Array))
		for i, elem := range r.Array {
			s, err := elem.AsString()
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	case KindString:
		return []string{string(r.Str)}, nil
	case KindError:
		return nil, r.errorReply()
	default:
		return nil, &TypeError{Want: "array", Got: r.Kind}
	}
}

// AsStringMap coerces a flattened array of field/value pairs into a map.
// An odd number of elements is a shape mismatch.
func (r Reply) AsStringMap() (map[string]string, error) {
	switch r.Kind {
	case KindArray:
		if len(r.Array)%2 != 0 {
			return nil, &TypeError{Want: "map", Got: r.Kind}
		}
		out := make(map[string]string, len(r.Array)/2)
		for i := 0; i < len(r.Array); i += 2 {
			k, err := r.Array[i].AsString()
			if err != nil {
				return nil, err
			}
			v, err := r.Array[i+1].AsString()
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case KindError:
		return nil, r.errorReply()
	default:
		return nil, &TypeError{Want: "map", Got: r.Kind}
	}
}

// AsError returns the error carried by an error reply, or nil for any other reply.
func (r Reply) AsError() error {
	if r.Kind != KindError {
		return nil
	}
	return r.errorReply()
}

// errorReply never returns a nil *ErrorReply, so the result is safe to use as an error.
func (r Reply) errorReply() *ErrorReply {
	if r.Err == nil {
		return &ErrorReply{Code: CodeGeneric, Message: "not specified"}
	}
	return r.Err
}

// String renders the reply in a compact, redis-cli like form.
func (r Reply) String() string {
	switch r.Kind {
	case KindNil:
		return "(nil)"
	case KindInteger:
		return "(integer) " + strconv.FormatInt(r.Int, 10)
	case KindString:
		return strconv.Quote(string(r.Str))
	case KindError:
		return "(error) " + r.errorReply().Error()
	case KindArray:
		if len(r.Array) == 0 {
			return "(empty array)"
		}
		parts := make([]string, len(r.Array))
		for i, elem := range r.Array {
			parts[i] = elem.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return r.Kind.String()
	}
}
