package redis

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ghodss/yaml"
	"github.com/kelseyhightower/envconfig"
)

// DefaultURL is used when Config.URL is empty.
const DefaultURL = "redis://127.0.0.1:6379"

// Config holds configuration for a client connection.
type Config struct {
	// URL is the connection string, see ParseURL.
	// Defaults to DefaultURL.
	URL string `json:"url" envconfig:"URL"`

	// DialTimeout bounds connection establishment when no Dialer is given.
	// Zero means no timeout beyond the context passed to the call.
	DialTimeout time.Duration `json:"dialTimeout" envconfig:"DIAL_TIMEOUT"`

	// ReadBufferSize and WriteBufferSize size the transport buffers.
	// Zero uses the bufio default (4096 bytes).
	ReadBufferSize  int `json:"readBufferSize" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int `json:"writeBufferSize" envconfig:"WRITE_BUFFER_SIZE"`

	// Dialer is the net.Dialer used to create connections.
	// If nil, a net.Dialer with DialTimeout is used.
	Dialer *net.Dialer `json:"-" ignored:"true"`

	// NewCircuitBreaker creates a circuit breaker for the server address.
	// Called once when the client is created.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(serverAddr string) CircuitBreaker `json:"-" ignored:"true"`
}

// EnvPrefix is the prefix of the environment variables read by ConfigFromEnv,
// e.g. REDIS_URL, REDIS_DIAL_TIMEOUT.
const EnvPrefix = "REDIS"

// ConfigFromEnv returns configuration derived from environment variables.
func ConfigFromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return Config{}, fmt.Errorf("redis: reading environment: %w", err)
	}
	return c, nil
}

// ConfigFromYAML parses a YAML document:
//
//	url: redis://localhost:6379/2
//	dialTimeout: 2s
//	readBufferSize: 16384
func ConfigFromYAML(data []byte) (Config, error) {
	var raw struct {
		URL             string `json:"url"`
		DialTimeout     string `json:"dialTimeout"`
		ReadBufferSize  int    `json:"readBufferSize"`
		WriteBufferSize int    `json:"writeBufferSize"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("redis: parsing config: %w", err)
	}

	c := Config{
		URL:             raw.URL,
		ReadBufferSize:  raw.ReadBufferSize,
		WriteBufferSize: raw.WriteBufferSize,
	}
	if raw.DialTimeout != "" {
		d, err := time.ParseDuration(raw.DialTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("redis: invalid dialTimeout: %w", err)
		}
		c.DialTimeout = d
	}
	return c, nil
}

// ConfigFromFile reads a YAML config file, see ConfigFromYAML.
func ConfigFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ConfigFromYAML(data)
}

func (c Config) url() string {
	if c.URL == "" {
		return DefaultURL
	}
	return c.URL
}

// validate checks the fields that cannot be checked by ParseURL.
func (c Config) validate() error {
	if c.ReadBufferSize < 0 || c.WriteBufferSize < 0 {
		return fmt.Errorf("redis: buffer sizes must not be negative")
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("redis: dial timeout must not be negative")
	}
	return nil
}
