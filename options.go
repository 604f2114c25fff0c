package redis

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPort is used when the connection string has no port.
const DefaultPort = "6379"

// Options is the parsed form of a connection string.
type Options struct {
	// Network is "tcp" or "unix".
	Network string

	// Addr is host:port for tcp, or the socket path for unix.
	Addr string

	// Username and Password are sent with AUTH after connecting when Password is set.
	// Username is optional (legacy single-password AUTH).
	Username string
	Password string

	// DB is selected with SELECT after connecting when non-zero.
	DB int
}

// ParseURL parses a connection string.
//
// Accepted forms:
//
//	redis://[[user]:password@]host[:port][/db]
//	unix:///path/to/socket[?db=N&password=secret]
//	redis+unix:///path/to/socket[?db=N]
//	host:port
func ParseURL(raw string) (Options, error) {
	if raw == "" {
		return Options{}, fmt.Errorf("redis: empty connection string")
	}

	if !strings.Contains(raw, "://") {
		return parseHostPort(raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Options{}, fmt.Errorf("redis: invalid connection string: %w", err)
	}

	switch u.Scheme {
	case "redis":
		return parseTCPURL(u)
	case "unix", "redis+unix":
		return parseUnixURL(u)
	default:
		return Options{}, fmt.Errorf("redis: unsupported scheme %q", u.Scheme)
	}
}

func parseHostPort(raw string) (Options, error) {
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		// No port given
		host, port = raw, DefaultPort
	}
	if host == "" {
		return Options{}, fmt.Errorf("redis: missing host in %q", raw)
	}
	return Options{Network: "tcp", Addr: net.JoinHostPort(host, port)}, nil
}

func parseTCPURL(u *url.URL) (Options, error) {
	host := u.Hostname()
	if host == "" {
		return Options{}, fmt.Errorf("redis: missing host")
	}
	port := u.Port()
	if port == "" {
		port = DefaultPort
	}

	opts := Options{
		Network: "tcp",
		Addr:    net.JoinHostPort(host, port),
	}
	opts.Username, opts.Password = userinfo(u)

	if path := strings.Trim(u.Path, "/"); path != "" {
		db, err := strconv.Atoi(path)
		if err != nil || db < 0 {
			return Options{}, fmt.Errorf("redis: invalid database %q", path)
		}
		opts.DB = db
	}

	return opts, nil
}

func parseUnixURL(u *url.URL) (Options, error) {
	if u.Path == "" {
		return Options{}, fmt.Errorf("redis: missing socket path")
	}

	opts := Options{
		Network: "unix",
		Addr:    u.Path,
	}
	opts.Username, opts.Password = userinfo(u)

	query := u.Query()
	if pass := query.Get("password"); pass != "" {
		opts.Password = pass
	}
	if user := query.Get("user"); user != "" {
		opts.Username = user
	}
	if db := query.Get("db"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil || n < 0 {
			return Options{}, fmt.Errorf("redis: invalid database %q", db)
		}
		opts.DB = n
	}

	return opts, nil
}

func userinfo(u *url.URL) (username, password string) {
	if u.User == nil {
		return "", ""
	}
	password, _ = u.User.Password()
	return u.User.Username(), password
}

// String renders the options without credentials, for logs.
func (o Options) String() string {
	if o.Network == "unix" {
		return "unix:" + o.Addr
	}
	return o.Addr
}
