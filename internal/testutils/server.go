package testutils

import (
	"bufio"
	"errors"
	"io"
	"net"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pior/redis/resp"
)

const wrongType = "WRONGTYPE Operation against a key holding the wrong kind of value"

// Server is an in-memory RESP server for tests. It speaks enough of the
// protocol to exercise the client: strings, lists, hashes, sets, AUTH and SELECT.
//
// All state is shared between connections and guarded by a mutex.
type Server struct {
	ln       net.Listener
	username string
	password string

	mu       sync.Mutex
	strs     map[string]string
	lists    map[string][]string
	hashes   map[string]map[string]string
	sets     map[string]map[string]struct{}
	ttls     map[string]time.Duration
	conns    map[net.Conn]struct{}
	raw      map[string][]string
	received []string
	db       int
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithPassword requires AUTH before any other command. An empty username
// accepts the legacy single-argument AUTH.
func WithPassword(username, password string) ServerOption {
	return func(s *Server) {
		s.username = username
		s.password = password
	}
}

// NewServer starts a server on a random local port. It is stopped by t.Cleanup.
func NewServer(t testing.TB, opts ...ServerOption) *Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start test server: %v", err)
	}

	s := &Server{
		ln:     ln,
		strs:   map[string]string{},
		lists:  map[string][]string{},
		hashes: map[string]map[string]string{},
		sets:   map[string]map[string]struct{}{},
		ttls:   map[string]time.Duration{},
		conns:  map[net.Conn]struct{}{},
		raw:    map[string][]string{},
	}
	for _, opt := range opts {
		opt(s)
	}

	t.Cleanup(s.Close)

	go s.acceptLoop()

	return s
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// URL returns a redis:// connection string for the server.
func (s *Server) URL() string {
	return "redis://" + s.Addr()
}

// Close stops the listener and closes every connection.
func (s *Server) Close() {
	_ = s.ln.Close()
	s.DropConnections()
}

// DropConnections closes every open client connection, as a server restart would.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}

// ReplyRaw makes the next command named name answer with raw bytes instead of
// being executed. Queued replies for the same name are used in order.
func (s *Server) ReplyRaw(name, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = strings.ToUpper(name)
	s.raw[name] = append(s.raw[name], raw)
}

// Received returns every command received so far, as space separated lines.
func (s *Server) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.received)
}

// SelectedDB returns the database last chosen with SELECT.
func (s *Server) SelectedDB() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// TTL returns the timeout last set with EXPIRE on key.
func (s *Server) TTL(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ttl, ok := s.ttls[key]
	return ttl, ok
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)
	authenticated := s.password == ""

	for {
		request, err := resp.ReadReply(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				_, _ = writer.WriteString("-ERR Protocol error\r\n")
				_ = writer.Flush()
			}
			return
		}

		args, err := request.AsStrings()
		if err != nil || len(args) == 0 {
			_, _ = writer.WriteString("-ERR expected array of bulk strings\r\n")
			_ = writer.Flush()
			continue
		}

		out := s.handle(args, &authenticated)
		if _, err := writer.Write(out); err != nil {
			return
		}
		if err := writer.Flush(); err != nil {
			return
		}
	}
}

func (s *Server) handle(args []string, authenticated *bool) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.ToUpper(args[0])
	args = args[1:]
	s.received = append(s.received, strings.Join(append([]string{name}, args...), " "))

	if queued := s.raw[name]; len(queued) > 0 {
		s.raw[name] = queued[1:]
		return []byte(queued[0])
	}

	if name == "AUTH" {
		return s.auth(args, authenticated)
	}
	if !*authenticated {
		return errorLine("NOAUTH Authentication required.")
	}

	switch name {
	case "PING":
		return resp.AppendStatus(nil, "PONG")

	case "SELECT":
		if len(args) != 1 {
			return wrongArity("select")
		}
		db, err := strconv.Atoi(args[0])
		if err != nil || db < 0 || db > 15 {
			return errorLine("ERR DB index is out of range")
		}
		s.db = db
		return resp.AppendStatus(nil, "OK")

	case "FLUSHALL", "FLUSHDB":
		clear(s.strs)
		clear(s.lists)
		clear(s.hashes)
		clear(s.sets)
		clear(s.ttls)
		return resp.AppendStatus(nil, "OK")

	case "SET":
		if len(args) < 2 {
			return wrongArity("set")
		}
		s.remove(args[0])
		s.strs[args[0]] = args[1]
		return resp.AppendStatus(nil, "OK")

	case "GET":
		if len(args) != 1 {
			return wrongArity("get")
		}
		if s.holdsOther(args[0], "string") {
			return errorLine(wrongType)
		}
		v, ok := s.strs[args[0]]
		if !ok {
			return resp.AppendReply(nil, resp.NilReply())
		}
		return resp.AppendReply(nil, resp.StringReply(v))

	case "DEL":
		if len(args) < 1 {
			return wrongArity("del")
		}
		var removed int64
		for _, key := range args {
			if s.remove(key) {
				removed++
			}
		}
		return resp.AppendReply(nil, resp.IntReply(removed))

	case "TYPE":
		if len(args) != 1 {
			return wrongArity("type")
		}
		return resp.AppendStatus(nil, s.typeOf(args[0]))

	case "EXPIRE":
		if len(args) != 2 {
			return wrongArity("expire")
		}
		secs, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return errorLine("ERR value is not an integer or out of range")
		}
		if s.typeOf(args[0]) == "none" {
			return resp.AppendReply(nil, resp.IntReply(0))
		}
		s.ttls[args[0]] = time.Duration(secs) * time.Second
		return resp.AppendReply(nil, resp.IntReply(1))

	case "KEYS":
		if len(args) != 1 {
			return wrongArity("keys")
		}
		return resp.AppendReply(nil, s.keys(args[0]))

	case "LPUSH", "RPUSH":
		if len(args) < 2 {
			return wrongArity(strings.ToLower(name))
		}
		key := args[0]
		if s.holdsOther(key, "list") {
			return errorLine(wrongType)
		}
		list := s.lists[key]
		for _, v := range args[1:] {
			if name == "LPUSH" {
				list = append([]string{v}, list...)
			} else {
				list = append(list, v)
			}
		}
		s.lists[key] = list
		return resp.AppendReply(nil, resp.IntReply(int64(len(list))))

	case "LPOP":
		if len(args) < 1 || len(args) > 2 {
			return wrongArity("lpop")
		}
		return s.lpop(args)

	case "HSET":
		if len(args) < 3 || len(args)%2 != 1 {
			return wrongArity("hset")
		}
		key := args[0]
		if s.holdsOther(key, "hash") {
			return errorLine(wrongType)
		}
		h := s.hashes[key]
		if h == nil {
			h = map[string]string{}
			s.hashes[key] = h
		}
		var added int64
		for i := 1; i < len(args); i += 2 {
			if _, ok := h[args[i]]; !ok {
				added++
			}
			h[args[i]] = args[i+1]
		}
		return resp.AppendReply(nil, resp.IntReply(added))

	case "HGET":
		if len(args) != 2 {
			return wrongArity("hget")
		}
		if s.holdsOther(args[0], "hash") {
			return errorLine(wrongType)
		}
		v, ok := s.hashes[args[0]][args[1]]
		if !ok {
			return resp.AppendReply(nil, resp.NilReply())
		}
		return resp.AppendReply(nil, resp.StringReply(v))

	case "HGETALL":
		if len(args) != 1 {
			return wrongArity("hgetall")
		}
		if s.holdsOther(args[0], "hash") {
			return errorLine(wrongType)
		}
		h := s.hashes[args[0]]
		fields := make([]string, 0, len(h))
		for f := range h {
			fields = append(fields, f)
		}
		slices.Sort(fields)
		elems := make([]resp.Reply, 0, 2*len(h))
		for _, f := range fields {
			elems = append(elems, resp.StringReply(f), resp.StringReply(h[f]))
		}
		return resp.AppendReply(nil, resp.ArrayReply(elems...))

	case "SADD":
		if len(args) < 2 {
			return wrongArity("sadd")
		}
		key := args[0]
		if s.holdsOther(key, "set") {
			return errorLine(wrongType)
		}
		set := s.sets[key]
		if set == nil {
			set = map[string]struct{}{}
			s.sets[key] = set
		}
		var added int64
		for _, m := range args[1:] {
			if _, ok := set[m]; !ok {
				added++
				set[m] = struct{}{}
			}
		}
		return resp.AppendReply(nil, resp.IntReply(added))

	default:
		return errorLine("ERR unknown command '" + strings.ToLower(name) + "'")
	}
}

func (s *Server) auth(args []string, authenticated *bool) []byte {
	if s.password == "" {
		return errorLine("ERR AUTH <password> called without any password configured for the default user. Are you sure your configuration is correct?")
	}

	var user, pass string
	switch len(args) {
	case 1:
		user, pass = "default", args[0]
	case 2:
		user, pass = args[0], args[1]
	default:
		return wrongArity("auth")
	}

	wantUser := s.username
	if wantUser == "" {
		wantUser = "default"
	}
	if user != wantUser || pass != s.password {
		return errorLine("WRONGPASS invalid username-password pair or user is disabled.")
	}

	*authenticated = true
	return resp.AppendStatus(nil, "OK")
}

func (s *Server) lpop(args []string) []byte {
	key := args[0]
	if s.holdsOther(key, "list") {
		return errorLine(wrongType)
	}

	count := -1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return errorLine("ERR value is out of range, must be positive")
		}
		count = n
	}

	list, ok := s.lists[key]
	if !ok {
		return resp.AppendReply(nil, resp.NilReply())
	}

	if count < 0 {
		head := list[0]
		s.setList(key, list[1:])
		return resp.AppendReply(nil, resp.StringReply(head))
	}

	count = min(count, len(list))
	popped := make([]resp.Reply, count)
	for i := range count {
		popped[i] = resp.StringReply(list[i])
	}
	s.setList(key, list[count:])
	return resp.AppendReply(nil, resp.ArrayReply(popped...))
}

func (s *Server) setList(key string, list []string) {
	if len(list) == 0 {
		delete(s.lists, key)
		return
	}
	s.lists[key] = list
}

func (s *Server) keys(pattern string) resp.Reply {
	var matched []string
	for key := range s.keySet() {
		if ok, _ := path.Match(pattern, key); ok {
			matched = append(matched, key)
		}
	}
	slices.Sort(matched)

	elems := make([]resp.Reply, len(matched))
	for i, key := range matched {
		elems[i] = resp.StringReply(key)
	}
	return resp.ArrayReply(elems...)
}

func (s *Server) keySet() map[string]struct{} {
	all := map[string]struct{}{}
	for k := range s.strs {
		all[k] = struct{}{}
	}
	for k := range s.lists {
		all[k] = struct{}{}
	}
	for k := range s.hashes {
		all[k] = struct{}{}
	}
	for k := range s.sets {
		all[k] = struct{}{}
	}
	return all
}

func (s *Server) typeOf(key string) string {
	if _, ok := s.strs[key]; ok {
		return "string"
	}
	if _, ok := s.lists[key]; ok {
		return "list"
	}
	if _, ok := s.hashes[key]; ok {
		return "hash"
	}
	if _, ok := s.sets[key]; ok {
		return "set"
	}
	return "none"
}

func (s *Server) holdsOther(key, want string) bool {
	t := s.typeOf(key)
	return t != "none" && t != want
}

func (s *Server) remove(key string) bool {
	existed := s.typeOf(key) != "none"
	delete(s.strs, key)
	delete(s.lists, key)
	delete(s.hashes, key)
	delete(s.sets, key)
	delete(s.ttls, key)
	return existed
}

func errorLine(line string) []byte {
	return resp.AppendReply(nil, resp.ErrReply(line))
}

func wrongArity(cmd string) []byte {
	return errorLine("ERR wrong number of arguments for '" + cmd + "' command")
}
