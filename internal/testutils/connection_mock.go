package testutils

import (
	"bytes"
	"io"
	"net"
	"strings"
	"time"
)

// ConnectionMock is a mock implementation of net.Conn for testing.
// Reads are served from a scripted reply stream, writes are recorded.
// Once the script is consumed, reads return io.EOF as a closed socket would.
type ConnectionMock struct {
	script   string
	readBuf  *bytes.Buffer
	writeBuf *bytes.Buffer
	closed   bool

	// Loop replays the script from the start once it is consumed.
	Loop bool

	// WriteErr, when set, is returned by every Write.
	WriteErr error

	// Deadline is the last deadline set on the connection.
	Deadline time.Time
}

// NewConnectionMock creates a new mock connection with pre-configured reply data,
// e.g. NewConnectionMock("+OK\r\n", "$3\r\nbar\r\n").
func NewConnectionMock(responseData ...string) *ConnectionMock {
	script := strings.Join(responseData, "")
	return &ConnectionMock{
		script:   script,
		readBuf:  bytes.NewBufferString(script),
		writeBuf: &bytes.Buffer{},
	}
}

func (m *ConnectionMock) Read(b []byte) (n int, err error) {
	if m.closed {
		return 0, net.ErrClosed
	}
	if m.readBuf.Len() == 0 {
		if !m.Loop || m.script == "" {
			return 0, io.EOF
		}
		m.readBuf.WriteString(m.script)
	}
	return m.readBuf.Read(b)
}

func (m *ConnectionMock) Write(b []byte) (n int, err error) {
	if m.closed {
		return 0, net.ErrClosed
	}
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	if m.Loop {
		return len(b), nil
	}
	return m.writeBuf.Write(b)
}

func (m *ConnectionMock) Close() error {
	m.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (m *ConnectionMock) IsClosed() bool {
	return m.closed
}

func (m *ConnectionMock) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}

func (m *ConnectionMock) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6379}
}

func (m *ConnectionMock) SetDeadline(t time.Time) error {
	m.Deadline = t
	return nil
}

func (m *ConnectionMock) SetReadDeadline(t time.Time) error  { return nil }
func (m *ConnectionMock) SetWriteDeadline(t time.Time) error { return nil }

// GetWrittenRequest returns the raw command bytes written to the mock connection
func (m *ConnectionMock) GetWrittenRequest() string {
	return m.writeBuf.String()
}
