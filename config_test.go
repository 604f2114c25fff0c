package redis

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://cache:6380/4")
	t.Setenv("REDIS_DIAL_TIMEOUT", "1500ms")
	t.Setenv("REDIS_READ_BUFFER_SIZE", "16384")

	config, err := ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, "redis://cache:6380/4", config.URL)
	require.Equal(t, 1500*time.Millisecond, config.DialTimeout)
	require.Equal(t, 16384, config.ReadBufferSize)
	require.Zero(t, config.WriteBufferSize)
	require.Nil(t, config.Dialer)
}

func TestConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("REDIS_DIAL_TIMEOUT", "soon")

	_, err := ConfigFromEnv()
	require.ErrorContains(t, err, "reading environment")
}

func TestConfigFromYAML(t *testing.T) {
	config, err := ConfigFromYAML([]byte(`
url: redis://localhost:6379/2
dialTimeout: 2s
readBufferSize: 8192
writeBufferSize: 4096
`))
	require.NoError(t, err)
	require.Equal(t, Config{
		URL:             "redis://localhost:6379/2",
		DialTimeout:     2 * time.Second,
		ReadBufferSize:  8192,
		WriteBufferSize: 4096,
	}, config)
}

func TestConfigFromYAML_Invalid(t *testing.T) {
	_, err := ConfigFromYAML([]byte("dialTimeout: later"))
	require.ErrorContains(t, err, "invalid dialTimeout")

	_, err = ConfigFromYAML([]byte("url: [unterminated"))
	require.ErrorContains(t, err, "parsing config")
}

func TestConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: unix:///tmp/redis.sock\n"), 0o600))

	config, err := ConfigFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "unix:///tmp/redis.sock", config.URL)

	_, err = ConfigFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestConfig_Defaults(t *testing.T) {
	require.Equal(t, DefaultURL, Config{}.url())
	require.Equal(t, "redis://other", Config{URL: "redis://other"}.url())

	require.NoError(t, Config{}.validate())
	require.Error(t, Config{WriteBufferSize: -1}.validate())
	require.Error(t, Config{DialTimeout: -time.Second}.validate())
}
