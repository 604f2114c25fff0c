package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pior/redis"
)

const helpText = `Commands:
  get <key>                   - Get a string or hash, whatever the key holds
  set <key> <value> [ttl]     - Set a string with optional TTL in seconds
  del <key> [key ...]         - Delete keys
  hset <key> <field> <value>  - Set a hash field
  hget <key> <field>          - Get a hash field
  hgetall <key>               - Get all hash fields
  lpush <key> <value> [...]   - Push values to the head of a list
  lpop <key> [count]          - Pop values from the head of a list
  expire <key> <seconds>      - Set a key timeout
  keys <pattern>              - List keys matching a glob pattern
  type <key>                  - Show the key type
  stats                       - Show client statistics
  reconnect                   - Reconnect to the server
  quit                        - Exit the CLI
Anything else is sent as a raw command, e.g. PING or INCR counter.`

// session runs one line of input at a time on a single client.
type session struct {
	client           *redis.Client
	out              io.Writer
	reconnectTimeout time.Duration
}

func (s *session) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}

		if quit := s.execute(ctx, scanner.Text()); quit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
	}
	return scanner.Err()
}

// execute runs one input line and reports whether the session should end.
func (s *session) execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	start := time.Now()
	err := s.dispatch(ctx, parts)
	duration := time.Since(start)

	if errors.Is(err, errQuit) {
		fmt.Fprintln(s.out, "Goodbye!")
		return true
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v (took %v)\n", err, duration)
		s.reconnectAfter(ctx, err)
	}
	return false
}

var errQuit = errors.New("quit")

type usageError string

func (e usageError) Error() string { return "usage: " + string(e) }

func (s *session) dispatch(ctx context.Context, parts []string) error {
	args := parts[1:]

	switch strings.ToLower(parts[0]) {
	case "get":
		if len(args) != 1 {
			return usageError("get <key>")
		}
		value, err := s.client.Get(ctx, args[0])
		if err != nil {
			return err
		}
		switch {
		case !value.Found:
			fmt.Fprintln(s.out, "(nil)")
		case value.IsHash():
			s.printHash(value.Hash)
		default:
			fmt.Fprintf(s.out, "%q\n", value.String)
		}

	case "set":
		if len(args) < 2 || len(args) > 3 {
			return usageError("set <key> <value> [ttl_seconds]")
		}
		if err := s.client.Set(ctx, args[0], args[1]); err != nil {
			return err
		}
		if len(args) == 3 {
			secs, err := strconv.Atoi(args[2])
			if err != nil {
				return usageError("set <key> <value> [ttl_seconds]")
			}
			if _, err := s.client.Expire(ctx, args[0], time.Duration(secs)*time.Second); err != nil {
				return err
			}
		}
		fmt.Fprintln(s.out, "OK")

	case "del", "delete":
		if len(args) == 0 {
			return usageError("del <key> [key ...]")
		}
		n, err := s.client.Del(ctx, args...)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "(integer) %d\n", n)

	case "hset":
		if len(args) != 3 {
			return usageError("hset <key> <field> <value>")
		}
		if err := s.client.HSet(ctx, args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "OK")

	case "hget":
		if len(args) != 2 {
			return usageError("hget <key> <field>")
		}
		value, found, err := s.client.HGet(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		s.printString(value, found)

	case "hgetall":
		if len(args) != 1 {
			return usageError("hgetall <key>")
		}
		fields, found, err := s.client.HGetAll(ctx, args[0])
		if err != nil {
			return err
		}
		if !found {
			fmt.Fprintln(s.out, "(nil)")
			return nil
		}
		s.printHash(fields)

	case "lpush":
		if len(args) < 2 {
			return usageError("lpush <key> <value> [value ...]")
		}
		if err := s.client.LPush(ctx, args[0], args[1:]...); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "OK")

	case "lpop":
		if len(args) < 1 || len(args) > 2 {
			return usageError("lpop <key> [count]")
		}
		count := 0
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return usageError("lpop <key> [count]")
			}
			count = n
		}
		values, found, err := s.client.LPop(ctx, args[0], count)
		if err != nil {
			return err
		}
		if !found {
			fmt.Fprintln(s.out, "(nil)")
			return nil
		}
		s.printList(values)

	case "expire":
		if len(args) != 2 {
			return usageError("expire <key> <seconds>")
		}
		secs, err := strconv.Atoi(args[1])
		if err != nil {
			return usageError("expire <key> <seconds>")
		}
		n, err := s.client.Expire(ctx, args[0], time.Duration(secs)*time.Second)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "(integer) %d\n", n)

	case "keys":
		if len(args) != 1 {
			return usageError("keys <pattern>")
		}
		keys, err := s.client.Keys(ctx, args[0])
		if err != nil {
			return err
		}
		s.printList(keys)

	case "type":
		if len(args) != 1 {
			return usageError("type <key>")
		}
		keyType, err := s.client.Type(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, keyType)

	case "stats":
		s.printStats()

	case "reconnect":
		if err := s.client.Reconnect(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "OK")

	case "help":
		fmt.Fprintln(s.out, helpText)

	case "quit", "exit":
		return errQuit

	default:
		reply, err := s.client.Do(ctx, parts...)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, reply)
	}

	return nil
}

// reconnectAfter reconnects with exponential backoff after failures that
// leave the connection unusable.
func (s *session) reconnectAfter(ctx context.Context, err error) {
	var classified *redis.Error
	if !errors.As(err, &classified) {
		return
	}
	switch classified.Kind {
	case redis.KindTransport, redis.KindFraming:
	default:
		return
	}
	if s.client.IsOpen() || s.reconnectTimeout <= 0 {
		return
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = s.reconnectTimeout

	err = backoff.RetryNotify(
		func() error {
			return s.client.Reconnect(ctx)
		},
		backoff.WithContext(bo, ctx),
		func(err error, next time.Duration) {
			log.Warnf("reconnect failed: %v, retrying in %s", err, next)
		},
	)
	if err != nil {
		fmt.Fprintf(s.out, "Reconnect failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Reconnected")
}

func (s *session) printString(value string, found bool) {
	if !found {
		fmt.Fprintln(s.out, "(nil)")
		return
	}
	fmt.Fprintf(s.out, "%q\n", value)
}

func (s *session) printList(values []string) {
	if len(values) == 0 {
		fmt.Fprintln(s.out, "(empty list)")
		return
	}
	for i, v := range values {
		fmt.Fprintf(s.out, "%d) %q\n", i+1, v)
	}
}

func (s *session) printHash(fields map[string]string) {
	for i, field := range slices.Sorted(maps.Keys(fields)) {
		fmt.Fprintf(s.out, "%d) %q => %q\n", i+1, field, fields[field])
	}
}

func (s *session) printStats() {
	stats := s.client.Stats()
	fmt.Fprintln(s.out, "Client Statistics:")
	fmt.Fprintf(s.out, "  Commands:   %d\n", stats.Commands)
	fmt.Fprintf(s.out, "  Gets:       %d (hits: %d)\n", stats.Gets, stats.GetHits)
	fmt.Fprintf(s.out, "  Sets:       %d\n", stats.Sets)
	fmt.Fprintf(s.out, "  Deletes:    %d\n", stats.Deletes)
	fmt.Fprintf(s.out, "  Reconnects: %d\n", stats.Reconnects)
	fmt.Fprintf(s.out, "  Errors:     %d\n", stats.Errors)

	if cb := s.client.CircuitBreaker(); cb != nil {
		fmt.Fprintf(s.out, "  Circuit:    %s\n", cb.State())
	}
}
