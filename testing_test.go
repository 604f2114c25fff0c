package redis

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pior/redis/internal/testutils"
	"github.com/stretchr/testify/require"
)

func newTestClient(t testing.TB, opts ...testutils.ServerOption) (*Client, *testutils.Server) {
	t.Helper()

	server := testutils.NewServer(t, opts...)

	client, err := New(testContext(t), server.URL())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, server
}

// newMockClient returns a client over a scripted connection.
func newMockClient(t testing.TB, responses ...string) (*Client, *testutils.ConnectionMock) {
	t.Helper()
	mock := testutils.NewConnectionMock(responses...)
	return NewClientWithConnection(NewConnection(mock, nil), Config{}), mock
}

func testContext(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func requireKind(t testing.TB, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	var classified *Error
	require.ErrorAs(t, err, &classified, "error should be a *redis.Error")
	require.Equal(t, kind, classified.Kind, "unexpected error kind: %v", err)
}

// closedAddr returns an address nothing listens on.
func closedAddr(t testing.TB) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	return addr
}
