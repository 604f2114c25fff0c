// Package resp provides a low-level implementation of the Redis serialization
// protocol (RESP2) for clients.
//
// This package serves as a foundation for the higher-level client in the parent
// package. It focuses on correctness of framing and decoding without imposing
// connection management decisions.
//
// # Core Types
//
// Command and Reply are plain data containers:
//
//   - Command: the argument vector of a request, command name first
//   - Reply: a decoded reply frame, a tagged union over Kind
//     (KindNil, KindInteger, KindString, KindArray, KindError)
//
// # Serialization and Parsing
//
// WriteCommand serializes a command as an array of bulk strings:
//
//	err := resp.WriteCommand(conn, resp.NewCommand("SET", "mykey", "value"))
//
// ReadReply decodes exactly one reply frame, nested arrays included:
//
//	reply, err := resp.ReadReply(bufio.NewReader(conn))
//	if err != nil {
//	    if resp.ShouldCloseConnection(err) {
//	        conn.Close()
//	    }
//	    return err
//	}
//
// Zero-length strings and arrays are valid and distinct from nil replies.
// Simple strings (+OK) and bulk strings both decode to KindString.
//
// # Coercion
//
// Reply values are converted with AsString, AsInt, AsStrings and AsStringMap.
// Each fails explicitly on a shape mismatch with a *TypeError, and coercing an
// error reply always returns its *ErrorReply.
//
//	n, err := reply.AsInt()
//
// # Error Handling
//
// The package defines error types that indicate connection state:
//
//   - ErrorReply: error sent by the server, connection can be REUSED
//   - TypeError: reply shape does not match the request, connection can be REUSED
//   - ParseError: malformed or truncated frame, CLOSE connection
//   - ConnectionError: network/I/O error, connection already broken
//
// Use ShouldCloseConnection to determine error handling strategy.
package resp
