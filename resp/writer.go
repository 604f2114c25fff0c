package resp

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"sync"
)

// Buffer pool for encoding commands on unbuffered writers
var bufferPool = sync.Pool{
	New: func() any {
		// Typical command is well under 256 bytes
		return bytes.NewBuffer(make([]byte, 0, 256))
	},
}

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func putBuffer(buf *bytes.Buffer) {
	// Don't keep oversized buffers (large values) around
	if buf.Cap() > 64*1024 {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}

// WriteCommand serializes cmd as a RESP array of bulk strings and writes it to w.
// Format: *<argc>\r\n then $<len>\r\n<arg>\r\n for each argument.
//
// When w is a *bufio.Writer the command is written through it and flushed.
// Any other writer receives the whole frame in a single Write call.
func WriteCommand(w io.Writer, cmd Command) error {
	if len(cmd) == 0 || len(cmd[0]) == 0 {
		return ErrEmptyCommand
	}

	// Optimize for bufio.Writer (used by Connection)
	if bw, ok := w.(*bufio.Writer); ok {
		return writeCommandBuffered(bw, cmd)
	}

	// Fallback to bytes.Buffer approach for other writers (tests, etc.)
	buf := getBuffer()
	defer putBuffer(buf)

	buf.Write(AppendCommand(buf.AvailableBuffer(), cmd))
	_, err := w.Write(buf.Bytes())
	return err
}

// writeCommandBuffered writes through bufio.Writer without intermediate copies.
func writeCommandBuffered(bw *bufio.Writer, cmd Command) error {
	bw.Write(appendHeader(bw.AvailableBuffer(), SigilArray, len(cmd)))
	for _, arg := range cmd {
		bw.Write(appendHeader(bw.AvailableBuffer(), SigilBulkString, len(arg)))
		bw.Write(arg)
		bw.WriteString(CRLF)
	}
	return bw.Flush()
}

// AppendCommand appends the wire encoding of cmd to dst and returns the extended slice.
// It does not validate cmd.
func AppendCommand(dst []byte, cmd Command) []byte {
	dst = appendHeader(dst, SigilArray, len(cmd))
	for _, arg := range cmd {
		dst = appendHeader(dst, SigilBulkString, len(arg))
		dst = append(dst, arg...)
		dst = append(dst, CRLF...)
	}
	return dst
}

func appendHeader(dst []byte, sigil byte, n int) []byte {
	dst = append(dst, sigil)
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, CRLF...)
}

// WriteReply serializes a reply. It is the server side of the codec and is used
// by test servers and tools that replay traffic.
func WriteReply(w io.Writer, reply Reply) error {
	buf := getBuffer()
	defer putBuffer(buf)

	buf.Write(AppendReply(buf.AvailableBuffer(), reply))
	_, err := w.Write(buf.Bytes())
	return err
}

// AppendReply appends the wire encoding of reply to dst.
// Nil replies are encoded as the null bulk string ($-1).
func AppendReply(dst []byte, reply Reply) []byte {
	switch reply.Kind {
	case KindInteger:
		dst = append(dst, SigilInteger)
		dst = strconv.AppendInt(dst, reply.Int, 10)
		return append(dst, CRLF...)
	case KindString:
		dst = appendHeader(dst, SigilBulkString, len(reply.Str))
		dst = append(dst, reply.Str...)
		return append(dst, CRLF...)
	case KindArray:
		dst = appendHeader(dst, SigilArray, len(reply.Array))
		for _, elem := range reply.Array {
			dst = AppendReply(dst, elem)
		}
		return dst
	case KindError:
		dst = append(dst, SigilError)
		dst = append(dst, reply.errorReply().Error()...)
		return append(dst, CRLF...)
	default:
		return appendHeader(dst, SigilBulkString, nilLength)
	}
}

// AppendStatus appends a simple string (+) frame, e.g. "+OK\r\n".
func AppendStatus(dst []byte, status string) []byte {
	dst = append(dst, SigilSimpleString)
	dst = append(dst, status...)
	return append(dst, CRLF...)
}
