package resp

import (
	"bufio"
	"errors"
	"io"
	"strconv"
)

// ReadReply reads and decodes exactly one reply frame from r.
// It blocks until the complete frame, including nested arrays, is available.
//
// Error replies (-) from the server are returned as a Reply of KindError,
// not as a Go error. The caller decides what an error reply means.
//
// Go errors returned indicate I/O or framing failures:
//   - io.EOF: stream closed cleanly before the first byte of the frame
//   - ParseError: malformed or truncated frame, connection should be closed
//   - Other I/O errors: transport failures, connection should be closed
func ReadReply(r *bufio.Reader) (Reply, error) {
	line, err := readLine(r)
	if err != nil {
		return Reply{}, err
	}
	return readFrame(r, line)
}

// readFrame decodes the frame whose header line has already been consumed.
func readFrame(r *bufio.Reader, line []byte) (Reply, error) {
	if len(line) == 0 {
		return Reply{}, &ParseError{Message: "empty line"}
	}

	sigil, payload := line[0], line[1:]

	switch sigil {
	case SigilSimpleString:
		return Reply{Kind: KindString, Str: append([]byte{}, payload...)}, nil

	case SigilError:
		return Reply{Kind: KindError, Err: ParseErrorReply(string(payload))}, nil

	case SigilInteger:
		n, err := parseInt(payload)
		if err != nil {
			return Reply{}, &ParseError{Message: "invalid integer", Err: err}
		}
		return Reply{Kind: KindInteger, Int: n}, nil

	case SigilBulkString:
		return readBulk(r, payload)

	case SigilArray:
		return readArray(r, payload)

	default:
		return Reply{}, &ParseError{Message: "unknown reply type " + strconv.QuoteRune(rune(sigil))}
	}
}

func readBulk(r *bufio.Reader, payload []byte) (Reply, error) {
	size, err := parseLength(payload)
	if err != nil {
		return Reply{}, err
	}
	if size == nilLength {
		return Reply{Kind: KindNil}, nil
	}

	// Read data + CRLF together in single read
	data := make([]byte, size+2)
	if _, err := io.ReadFull(r, data); err != nil {
		return Reply{}, midFrame(err)
	}

	if data[size] != '\r' || data[size+1] != '\n' {
		return Reply{}, &ParseError{Message: "invalid bulk terminator"}
	}

	return Reply{Kind: KindString, Str: data[:size:size]}, nil
}

func readArray(r *bufio.Reader, payload []byte) (Reply, error) {
	size, err := parseLength(payload)
	if err != nil {
		return Reply{}, err
	}
	if size == nilLength {
		return Reply{Kind: KindNil}, nil
	}

	elems := make([]Reply, 0, min(size, maxArrayPrealloc))
	for i := 0; i < size; i++ {
		line, err := readLine(r)
		if err != nil {
			return Reply{}, midFrame(err)
		}
		elem, err := readFrame(r, line)
		if err != nil {
			return Reply{}, err
		}
		elems = append(elems, elem)
	}

	return Reply{Kind: KindArray, Array: elems}, nil
}

// readLine returns the next line without its CRLF terminator.
// The returned slice is only valid until the next read on r.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		// Line exceeds buffer, fall back to ReadBytes (allocates)
		var rest []byte
		buffered := append([]byte{}, line...)
		rest, err = r.ReadBytes('\n')
		line = append(buffered, rest...)
	}
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			return nil, &ParseError{Message: "truncated line", Err: io.ErrUnexpectedEOF}
		}
		return nil, err
	}

	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, &ParseError{Message: "line not terminated by CRLF"}
	}

	return line[:len(line)-2], nil
}

// parseLength parses the length prefix of a bulk string or array.
// -1 is the nil marker, any other negative value is rejected.
func parseLength(payload []byte) (int, error) {
	n, err := parseInt(payload)
	if err != nil {
		return 0, &ParseError{Message: "invalid length", Err: err}
	}
	if n < nilLength {
		return 0, &ParseError{Message: "negative length"}
	}
	if n > MaxBulkLength {
		return 0, &ParseError{Message: "length exceeds maximum"}
	}
	return int(n), nil
}

// parseInt parses a signed decimal integer. Values outside the int64 range
// yield an error wrapping strconv.ErrRange.
func parseInt(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			return 0, numErr.Err
		}
		return 0, err
	}
	return n, nil
}

// midFrame converts an error hit inside a frame: running out of input there
// means the frame was truncated. Other I/O errors are returned unchanged.
func midFrame(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &ParseError{Message: "stream ended mid-frame", Err: io.ErrUnexpectedEOF}
	}
	return err
}
