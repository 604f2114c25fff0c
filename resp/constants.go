package resp

// Protocol delimiters
const (
	// CRLF terminates every line of the RESP protocol
	CRLF = "\r\n"
)

// Type sigils. The first byte of every frame identifies its type.
const (
	SigilSimpleString byte = '+'
	SigilError        byte = '-'
	SigilInteger      byte = ':'
	SigilBulkString   byte = '$'
	SigilArray        byte = '*'
)

// Limits
const (
	// MaxBulkLength is the largest bulk string the reader accepts.
	// Matches the default proto-max-bulk-len of the Redis server (512 MiB).
	MaxBulkLength = 512 * 1024 * 1024

	// maxArrayPrealloc caps the capacity reserved for an array before its
	// elements are actually read, so a hostile length prefix cannot force a
	// huge allocation.
	maxArrayPrealloc = 1024

	// nilLength is the length prefix used by RESP2 for nil bulk strings and arrays
	nilLength = -1
)

// Error codes sent by the server as the leading token of an error reply.
const (
	CodeGeneric   = "ERR"
	CodeWrongType = "WRONGTYPE"
	CodeNoAuth    = "NOAUTH"
	CodeWrongPass = "WRONGPASS"
	CodeNoPerm    = "NOPERM"
)
