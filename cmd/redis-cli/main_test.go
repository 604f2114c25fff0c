package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pior/redis"
	"github.com/pior/redis/internal/testutils"
)

func TestRun(t *testing.T) {
	server := testutils.NewServer(t)

	input := strings.Join([]string{
		"set greeting hello",
		"get greeting",
		"hset user name ada",
		"get user",
		"lpush jobs a b",
		"lpop jobs 1",
		"type jobs",
		"get jobs",
		"keys *",
		"PING",
		"del greeting missing",
		"get greeting",
		"stats",
		"quit",
		"get never-reached",
	}, "\n")

	var out bytes.Buffer
	err := run(context.Background(), []string{"--url", server.URL()}, strings.NewReader(input), &out)
	require.NoError(t, err)

	output := out.String()
	require.Contains(t, output, `"hello"`)
	require.Contains(t, output, `1) "name" => "ada"`)
	require.Contains(t, output, `1) "b"`)
	require.Contains(t, output, "list\n")
	require.Contains(t, output, "field type unknown")
	require.Contains(t, output, `1) "greeting"`)
	require.Contains(t, output, `"PONG"`)
	require.Contains(t, output, "(integer) 1")
	require.Contains(t, output, "(nil)")
	require.Contains(t, output, "Client Statistics:")
	require.Contains(t, output, "Goodbye!")
	require.NotContains(t, server.Received(), "GET never-reached")
}

func TestRun_ConnectFailed(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"--url", "redis://127.0.0.1:1", "--dial-timeout", "1s"}, strings.NewReader(""), &out)
	require.ErrorIs(t, err, redis.ErrConnectFailed)
}

func TestRun_InvalidFlag(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"--no-such-flag"}, strings.NewReader(""), &out)
	require.Error(t, err)
}

func TestOptions_ConfigFile(t *testing.T) {
	server := testutils.NewServer(t)

	path := filepath.Join(t.TempDir(), "redis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: "+server.URL()+"/2\ndialTimeout: 3s\n"), 0o600))

	opts, err := parseOptions([]string{"--config", path, "--circuit-breaker"}, &bytes.Buffer{})
	require.NoError(t, err)

	config, err := opts.clientConfig()
	require.NoError(t, err)
	require.Equal(t, server.URL()+"/2", config.URL)
	require.Equal(t, 3*time.Second, config.DialTimeout)
	require.NotNil(t, config.NewCircuitBreaker)

	opts, err = parseOptions([]string{"--config", path, "--url", "redis://other:6379"}, &bytes.Buffer{})
	require.NoError(t, err)
	config, err = opts.clientConfig()
	require.NoError(t, err)
	require.Equal(t, "redis://other:6379", config.URL, "flag overrides the file")
}

func TestOptions_Environment(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://from-env:6379")

	opts, err := parseOptions(nil, &bytes.Buffer{})
	require.NoError(t, err)

	config, err := opts.clientConfig()
	require.NoError(t, err)
	require.Equal(t, "redis://from-env:6379", config.URL)
	require.Equal(t, 5*time.Second, config.DialTimeout)
	require.Nil(t, config.NewCircuitBreaker)
}

func TestSession_ReconnectsAfterFailure(t *testing.T) {
	server := testutils.NewServer(t)
	ctx := context.Background()

	client, err := redis.New(ctx, server.URL())
	require.NoError(t, err)
	defer client.Close()

	var out bytes.Buffer
	s := &session{client: client, out: &out, reconnectTimeout: 5 * time.Second}

	require.False(t, s.execute(ctx, "set k v"))
	server.DropConnections()

	require.False(t, s.execute(ctx, "get k"))
	require.Contains(t, out.String(), "io error")
	require.Contains(t, out.String(), "Reconnected")
	require.True(t, client.IsOpen())

	out.Reset()
	require.False(t, s.execute(ctx, "get k"))
	require.Equal(t, "\"v\"\n", out.String())
}

func TestSession_ServerErrorKeepsConnection(t *testing.T) {
	server := testutils.NewServer(t)
	ctx := context.Background()

	client, err := redis.New(ctx, server.URL())
	require.NoError(t, err)
	defer client.Close()

	var out bytes.Buffer
	s := &session{client: client, out: &out, reconnectTimeout: time.Second}

	require.False(t, s.execute(ctx, "NOSUCHCOMMAND"))
	require.Contains(t, out.String(), "server error")
	require.NotContains(t, out.String(), "Reconnected")
	require.Equal(t, uint64(0), client.Stats().Reconnects)
}

func TestSession_Usage(t *testing.T) {
	var out bytes.Buffer
	s := &session{out: &out}

	require.False(t, s.execute(context.Background(), "get"))
	require.Contains(t, out.String(), "usage: get <key>")

	out.Reset()
	require.False(t, s.execute(context.Background(), "   "))
	require.Empty(t, out.String())
}
