package resp_test

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/pior/redis/resp"
)

func ExampleWriteCommand() {
	var buf bytes.Buffer
	_ = resp.WriteCommand(&buf, resp.NewCommand("SET", "greeting", "hello"))
	fmt.Printf("%q\n", buf.String())
	// Output: "*3\r\n$3\r\nSET\r\n$8\r\ngreeting\r\n$5\r\nhello\r\n"
}

func ExampleReadReply() {
	r := bufio.NewReader(strings.NewReader("*4\r\n$2\r\nf1\r\n$2\r\nv1\r\n$2\r\nf2\r\n$2\r\nv2\r\n"))

	reply, err := resp.ReadReply(r)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fields, err := reply.AsStringMap()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(fields["f1"], fields["f2"])
	// Output: v1 v2
}

func ExampleReply_AsInt() {
	reply, _ := resp.ReadReply(bufio.NewReader(strings.NewReader("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n")))

	_, err := reply.AsInt()
	var replyErr *resp.ErrorReply
	if errors.As(err, &replyErr) {
		fmt.Println(replyErr.Code)
	}
	// Output: WRONGTYPE
}
