package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/dapr/kit/logger"
	"github.com/spf13/pflag"

	"github.com/pior/redis"
	"github.com/pior/redis/metrics"
)

var log = logger.NewLogger("redis.cli")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "redis-cli: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	URL              string
	ConfigFile       string
	DialTimeout      time.Duration
	ReconnectTimeout time.Duration
	CircuitBreaker   bool
	MetricsAddr      string
	Logger           logger.Options
	urlSet           bool
}

func parseOptions(args []string, stderr io.Writer) (*options, error) {
	var opts options

	fs := pflag.NewFlagSet("redis-cli", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.URL, "url", "u", redis.DefaultURL, "Server connection string (redis://[user:pass@]host[:port][/db] or unix:///path)")
	fs.StringVarP(&opts.ConfigFile, "config", "c", "", "YAML config file; REDIS_* environment variables are used otherwise")
	fs.DurationVar(&opts.DialTimeout, "dial-timeout", 5*time.Second, "Timeout for establishing the connection")
	fs.DurationVar(&opts.ReconnectTimeout, "reconnect-timeout", 30*time.Second, "How long to retry reconnecting after a connection failure (0 disables)")
	fs.BoolVar(&opts.CircuitBreaker, "circuit-breaker", false, "Guard commands with a circuit breaker")
	fs.StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9121)")

	opts.Logger = logger.DefaultOptions()
	opts.Logger.AttachCmdFlags(fs.StringVar, fs.BoolVar)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.urlSet = fs.Changed("url")

	return &opts, nil
}

// clientConfig merges the config sources: file or environment, then flags.
func (o *options) clientConfig() (redis.Config, error) {
	var (
		config redis.Config
		err    error
	)
	if o.ConfigFile != "" {
		config, err = redis.ConfigFromFile(o.ConfigFile)
	} else {
		config, err = redis.ConfigFromEnv()
	}
	if err != nil {
		return redis.Config{}, err
	}

	if o.urlSet || config.URL == "" {
		config.URL = o.URL
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = o.DialTimeout
	}
	if o.CircuitBreaker {
		config.NewCircuitBreaker = redis.NewCircuitBreakerConfig(1, time.Minute, 10*time.Second)
	}
	return config, nil
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	opts, err := parseOptions(args, out)
	if err != nil {
		return err
	}

	if err := logger.ApplyOptionsToLoggers(&opts.Logger); err != nil {
		return err
	}

	config, err := opts.clientConfig()
	if err != nil {
		return err
	}

	client, err := redis.NewClient(ctx, config)
	if err != nil {
		return err
	}
	defer client.Close()

	log.Debugf("connected to %s", client.Connection().Options())

	if opts.MetricsAddr != "" {
		exporter := metrics.NewExporter(metrics.NewCollector(client, client.Connection().Options().String()))
		go func() {
			if err := exporter.ServeHTTP(opts.MetricsAddr); err != nil {
				log.Errorf("metrics server: %v", err)
			}
		}()
	}

	s := &session{
		client:           client,
		out:              out,
		reconnectTimeout: opts.ReconnectTimeout,
	}
	return s.loop(ctx, in)
}
