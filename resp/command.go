package resp

import (
	"strconv"
	"strings"
)

// Command is an ordered sequence of arguments, the first being the command name.
// A Command is not modified once built; the Append* helpers return a new slice
// header and are meant to be used only while building it.
type Command [][]byte

// NewCommand creates a command from a name and string arguments.
//
// Usage:
//
//	cmd := NewCommand("SET", "mykey", "value")
//	cmd = NewCommand("DEL", keys...)
func NewCommand(name string, args ...string) Command {
	cmd := make(Command, 0, len(args)+1)
	cmd = append(cmd, []byte(name))
	for _, arg := range args {
		cmd = append(cmd, []byte(arg))
	}
	return cmd
}

// AppendString adds a string argument.
func (c Command) AppendString(arg string) Command {
	return append(c, []byte(arg))
}

// AppendBytes adds a binary argument.
func (c Command) AppendBytes(arg []byte) Command {
	return append(c, arg)
}

// AppendInt adds an integer argument in decimal form.
func (c Command) AppendInt(arg int64) Command {
	return append(c, strconv.AppendInt(nil, arg, 10))
}

// Name returns the upper-cased command name, or "" for an empty command.
func (c Command) Name() string {
	if len(c) == 0 {
		return ""
	}
	return strings.ToUpper(string(c[0]))
}

// Args returns the arguments following the command name.
func (c Command) Args() [][]byte {
	if len(c) == 0 {
		return nil
	}
	return c[1:]
}

// String renders the command for logs and diagnostics, one space between arguments.
func (c Command) String() string {
	var sb strings.Builder
	for i, arg := range c {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.Write(arg)
	}
	return sb.String()
}
