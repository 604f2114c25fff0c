package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pior/redis/internal/testutils"
	"github.com/pior/redis/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConnectFailed(t *testing.T) {
	_, err := New(testContext(t), "redis://"+closedAddr(t))
	requireKind(t, err, KindConnectFailed)

	var classified *Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, "connect failed", classified.Category)
	assert.Equal(t, DefaultCode, classified.Code)
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(testContext(t), Config{ReadBufferSize: -1})
	requireKind(t, err, KindConnectFailed)
}

func TestClient_SetGetString(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := testContext(t)

	tests := []struct {
		key   string
		value string
	}{
		{"greeting", "hello"},
		{"empty-value", ""},
		{"", "empty key"},
		{"spaces in key", "line1\r\nline2"},
		{"unicode", "héllo wörld ✓"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			require.NoError(t, client.Set(ctx, tt.key, tt.value))

			value, found, err := client.GetString(ctx, tt.key)
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, tt.value, value)
		})
	}
}

func TestClient_GetStringMissing(t *testing.T) {
	client, _ := newTestClient(t)

	value, found, err := client.GetString(testContext(t), "never-set")
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, value)
}

func TestClient_HashRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := testContext(t)

	require.NoError(t, client.HSet(ctx, "user:1", "name", "ada"))
	require.NoError(t, client.HSet(ctx, "user:1", "lang", "go"))

	fields, found, err := client.HGetAll(ctx, "user:1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, map[string]string{"name": "ada", "lang": "go"}, fields)

	name, found, err := client.HGet(ctx, "user:1", "name")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "ada", name)

	_, found, err = client.HGet(ctx, "user:1", "missing")
	require.NoError(t, err)
	require.False(t, found)

	value, err := client.Get(ctx, "user:1")
	require.NoError(t, err)
	require.True(t, value.Found)
	require.True(t, value.IsHash())
	require.Equal(t, TypeHash, value.Type)
	require.Equal(t, fields, value.Hash)
	require.Empty(t, value.String)
}

func TestClient_HGetAllMissing(t *testing.T) {
	client, _ := newTestClient(t)

	fields, found, err := client.HGetAll(testContext(t), "no-such-hash")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, fields)
}

func TestClient_HGetAllEmptyHash(t *testing.T) {
	client, _ := newMockClient(t, "*0\r\n")

	fields, found, err := client.HGetAll(context.Background(), "h")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, fields)
}

func TestClient_Del(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := testContext(t)

	require.NoError(t, client.Set(ctx, "a", "1"))
	require.NoError(t, client.Set(ctx, "b", "2"))
	require.NoError(t, client.HSet(ctx, "h", "f", "v"))

	n, err := client.Del(ctx, "a", "missing", "h", "other-missing")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	n, err = client.Del(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = client.Del(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestClient_DelWithoutKeys(t *testing.T) {
	client, server := newTestClient(t)

	n, err := client.Del(testContext(t))
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
	require.Empty(t, server.Received())
}

func TestClient_ListOrdering(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := testContext(t)

	require.NoError(t, client.LPush(ctx, "list", "a", "b"))

	values, found, err := client.LPop(ctx, "list", 1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"b"}, values)

	values, found, err = client.LPop(ctx, "list", 5)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"a"}, values)

	_, found, err = client.LPop(ctx, "list", 1)
	require.NoError(t, err)
	require.False(t, found)
}

func TestClient_LPopWithoutCount(t *testing.T) {
	client, server := newTestClient(t)
	ctx := testContext(t)

	require.NoError(t, client.LPush(ctx, "list", "x", "y", "z"))

	values, found, err := client.LPop(ctx, "list", 0)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"z"}, values)

	require.Equal(t, []string{"LPUSH list x y z", "LPOP list"}, server.Received())
}

func TestClient_WrongTypeIsAbsentForReads(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := testContext(t)

	require.NoError(t, client.Set(ctx, "str", "value"))
	require.NoError(t, client.LPush(ctx, "list", "item"))

	_, found, err := client.GetString(ctx, "list")
	require.NoError(t, err)
	require.False(t, found, "GET on a list")

	_, found, err = client.LPop(ctx, "str", 1)
	require.NoError(t, err)
	require.False(t, found, "LPOP on a string")

	_, found, err = client.HGet(ctx, "str", "field")
	require.NoError(t, err)
	require.False(t, found, "HGET on a string")

	_, found, err = client.HGetAll(ctx, "list")
	require.NoError(t, err)
	require.False(t, found, "HGETALL on a list")

	values, found, err := client.LPop(ctx, "list", 1)
	require.NoError(t, err)
	require.True(t, found, "the list is untouched")
	require.Equal(t, []string{"item"}, values)
}

func TestClient_WrongTypeIsAnErrorForWrites(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := testContext(t)

	require.NoError(t, client.Set(ctx, "str", "value"))

	err := client.HSet(ctx, "str", "f", "v")
	requireKind(t, err, KindTypeMismatch)
	require.ErrorIs(t, err, ErrTypeMismatch)

	err = client.LPush(ctx, "str", "v")
	requireKind(t, err, KindTypeMismatch)

	var classified *Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, "WRONGTYPE", classified.Code)
	assert.Equal(t, "Operation against a key holding the wrong kind of value", classified.Detail)
}

func TestClient_ExtensionErrorIsAbsentForReads(t *testing.T) {
	client, _ := newMockClient(t, "-MYMODULE value is not of this type\r\n")

	_, found, err := client.GetString(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestClient_ServerErrorIsNotAbsent(t *testing.T) {
	client, _ := newMockClient(t, "-ERR max number of clients reached\r\n")

	_, found, err := client.GetString(context.Background(), "k")
	requireKind(t, err, KindServer)
	require.False(t, found)
	require.True(t, client.IsOpen(), "server errors keep the connection")
}

func TestClient_Expire(t *testing.T) {
	client, server := newTestClient(t)
	ctx := testContext(t)

	require.NoError(t, client.Set(ctx, "session", "data"))

	n, err := client.Expire(ctx, "session", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	ttl, ok := server.TTL("session")
	require.True(t, ok)
	require.Equal(t, time.Minute, ttl)

	n, err = client.Expire(ctx, "missing", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestTTLSeconds(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want int64
	}{
		{0, 0},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{time.Millisecond, 1},
		{time.Hour, 3600},
		{-time.Second, -1},
	}
	for _, tt := range tests {
		t.Run(tt.ttl.String(), func(t *testing.T) {
			require.Equal(t, tt.want, ttlSeconds(tt.ttl))
		})
	}
}

func TestClient_Keys(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := testContext(t)

	for _, key := range []string{"user:2", "user:1", "order:1"} {
		require.NoError(t, client.Set(ctx, key, "x"))
	}

	keys, err := client.Keys(ctx, "user:*")
	require.NoError(t, err)
	require.Equal(t, []string{"user:1", "user:2"}, keys)

	keys, err = client.Keys(ctx, "nothing:*")
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestClient_Type(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := testContext(t)

	require.NoError(t, client.Set(ctx, "s", "v"))
	require.NoError(t, client.LPush(ctx, "l", "v"))
	require.NoError(t, client.HSet(ctx, "h", "f", "v"))

	tests := []struct {
		key  string
		want KeyType
	}{
		{"s", TypeString},
		{"l", TypeList},
		{"h", TypeHash},
		{"missing", TypeNone},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := client.Type(ctx, tt.key)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestClient_MalformedReplyIsFramingError(t *testing.T) {
	client, server := newTestClient(t)
	ctx := testContext(t)

	require.NoError(t, client.Set(ctx, "k", "v"))
	server.ReplyRaw("GET", "$-5\r\n")

	value, found, err := client.GetString(ctx, "k")
	requireKind(t, err, KindFraming)
	require.ErrorIs(t, err, ErrFraming)
	require.False(t, found)
	require.Empty(t, value)
	require.False(t, client.IsOpen(), "a desynchronized connection is not reused")

	_, _, err = client.GetString(ctx, "k")
	requireKind(t, err, KindTransport)
}

func TestClient_ReconnectAfterBroken(t *testing.T) {
	client, server := newTestClient(t)
	ctx := testContext(t)

	require.NoError(t, client.Set(ctx, "k", "before"))

	server.DropConnections()

	_, _, err := client.GetString(ctx, "k")
	requireKind(t, err, KindTransport)
	require.False(t, client.IsOpen())

	require.NoError(t, client.Reconnect(ctx))
	require.True(t, client.IsOpen())

	require.NoError(t, client.Set(ctx, "k", "after"))
	value, found, err := client.GetString(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "after", value)

	require.Equal(t, uint64(1), client.Stats().Reconnects)
}

func TestClient_ReconnectFailure(t *testing.T) {
	client, server := newTestClient(t)
	ctx := testContext(t)

	require.NoError(t, client.Set(ctx, "k", "v"))
	server.Close()

	err := client.Reconnect(ctx)
	requireKind(t, err, KindConnectFailed)
	require.False(t, client.IsOpen())

	_, _, err = client.GetString(ctx, "k")
	requireKind(t, err, KindTransport)
}

func TestClient_Close(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := testContext(t)

	require.NoError(t, client.Close())
	require.False(t, client.IsOpen())

	err := client.Set(ctx, "k", "v")
	requireKind(t, err, KindTransport)
	require.ErrorIs(t, err, ErrConnectionClosed)

	require.NoError(t, client.Reconnect(ctx))
	require.NoError(t, client.Set(ctx, "k", "v"))
}

func TestClient_IndependentClients(t *testing.T) {
	server := testutils.NewServer(t)
	ctx := testContext(t)

	first, err := New(ctx, server.URL())
	require.NoError(t, err)
	defer first.Close()

	second, err := New(ctx, server.URL())
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.Set(ctx, "shared", "from-first"))
	require.NoError(t, first.Close())

	value, found, err := second.GetString(ctx, "shared")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "from-first", value)
}

func TestClient_Do(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := testContext(t)

	reply, err := client.Do(ctx, "PING")
	require.NoError(t, err)
	require.Equal(t, resp.KindString, reply.Kind)
	require.Equal(t, "PONG", string(reply.Str))

	reply, err = client.Do(ctx, "NOSUCHCOMMAND", "arg")
	requireKind(t, err, KindServer)
	require.True(t, reply.IsError())
	require.Contains(t, err.Error(), "unknown command")
	require.True(t, client.IsOpen())

	_, err = client.Do(ctx)
	requireKind(t, err, KindServer)
}

func TestClient_Expect(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := testContext(t)

	s, err := client.ExpectString(ctx, "SET", "k", "v")
	require.NoError(t, err)
	require.Equal(t, "OK", s)

	n, err := client.ExpectInteger(ctx, "LPUSH", "list", "a", "b")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	values, err := client.ExpectStrings(ctx, "KEYS", "*")
	require.NoError(t, err)
	require.Equal(t, []string{"k", "list"}, values)

	require.NoError(t, client.ExpectNil(ctx, "GET", "missing"))

	err = client.ExpectNil(ctx, "GET", "k")
	requireKind(t, err, KindTypeMismatch)

	_, err = client.ExpectInteger(ctx, "GET", "k")
	requireKind(t, err, KindTypeMismatch)

	_, err = client.ExpectString(ctx, "GET", "missing")
	requireKind(t, err, KindTypeMismatch)
}

func TestClient_Stats(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := testContext(t)

	require.NoError(t, client.Set(ctx, "k", "v"))
	_, _, err := client.GetString(ctx, "k")
	require.NoError(t, err)
	_, _, err = client.GetString(ctx, "missing")
	require.NoError(t, err)
	_, err = client.Del(ctx, "k")
	require.NoError(t, err)
	_, err = client.Do(ctx, "NOSUCHCOMMAND")
	require.Error(t, err)

	stats := client.Stats()
	assert.Equal(t, uint64(5), stats.Commands)
	assert.Equal(t, uint64(1), stats.Sets)
	assert.Equal(t, uint64(2), stats.Gets)
	assert.Equal(t, uint64(1), stats.GetHits)
	assert.Equal(t, uint64(1), stats.Deletes)
	assert.Equal(t, uint64(1), stats.Errors)
}

func TestClient_ContextDeadline(t *testing.T) {
	client, server := newTestClient(t)

	// A bulk header promising more bytes than are sent stalls the reader
	server.ReplyRaw("GET", "$10\r\nabc")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := client.GetString(ctx, "k")
	requireKind(t, err, KindTransport)
	require.False(t, client.IsOpen())
}

func ExampleClient() {
	ctx := context.Background()

	client, err := New(ctx, "redis://localhost:6379/0")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer client.Close()

	if err := client.Set(ctx, "greeting", "hello"); err != nil {
		fmt.Println(err)
		return
	}

	value, found, err := client.GetString(ctx, "greeting")
	if err != nil {
		fmt.Println(err)
		return
	}
	if found {
		fmt.Println(value)
	}
}
