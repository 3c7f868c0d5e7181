package irc

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/eznix86/slashirc/internal/command"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeServer is the far end of a net.Pipe the client dials into.
type fakeServer struct {
	conn net.Conn
	r    *bufio.Reader
}

func newPipe() (client net.Conn, srv *fakeServer) {
	client, server := net.Pipe()
	return client, &fakeServer{conn: server, r: bufio.NewReader(server)}
}

func (s *fakeServer) expect(t *testing.T, want string) {
	t.Helper()
	require.Equal(t, want, s.next(t))
}

// next reads the client's next line.
func (s *fakeServer) next(t *testing.T) string {
	t.Helper()
	require.NoError(t, s.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := s.r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimRight(line, "\r\n")
}

func (s *fakeServer) send(t *testing.T, lines ...string) {
	t.Helper()
	require.NoError(t, s.conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	for _, line := range lines {
		_, err := io.WriteString(s.conn, line+"\r\n")
		require.NoError(t, err)
	}
}

// sync returns once the client has handled every line sent before it.
func (s *fakeServer) sync(t *testing.T) {
	t.Helper()
	s.send(t, "PING :sync")
	s.expect(t, "PONG :sync")
}

// run calls fn, which must write exactly one line, and checks that line.
func (s *fakeServer) run(t *testing.T, want string, fn func() error) {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- fn() }()
	s.expect(t, want)
	require.NoError(t, <-errc)
}

// drain swallows everything the client still writes, until the pipe closes.
func (s *fakeServer) drain() {
	s.conn.SetReadDeadline(time.Time{})
	go io.Copy(io.Discard, s.conn)
}

func (s *fakeServer) close() {
	s.conn.Close()
}

func pipeConfig(client net.Conn) *Config {
	return &Config{
		Nick:     "Twoflower",
		User:     "tourist",
		RealName: "Twoflower of Bes Pelargic",
		Server:   "irc.example.org:6667",
		NewNick:  func(n string) string { return n + "_" },
		Dial: func(string, string) (net.Conn, error) {
			return client, nil
		},
	}
}

// connect registers a Conn against a fresh fake server.
func connect(t *testing.T) (*Conn, *fakeServer) {
	t.Helper()

	client, srv := newPipe()
	c := Client(pipeConfig(client))

	errc := make(chan error, 1)
	go func() { errc <- c.Connect() }()
	srv.expect(t, "NICK Twoflower")
	srv.expect(t, "USER tourist 0 * :Twoflower of Bes Pelargic")
	require.NoError(t, <-errc)

	t.Cleanup(func() {
		srv.drain()
		c.Quit("")
		srv.close()
	})
	return c, srv
}

// connectSession connects a Session to a fresh fake server as Twoflower.
func connectSession(t *testing.T) (*Session, *fakeServer) {
	t.Helper()

	client, srv := newPipe()
	s := NewSession(pipeConfig(client))

	errc := make(chan error, 1)
	go func() {
		errc <- s.Connect("irc.example.org", 6667, command.RegistrationInfo{
			Nick:     "Twoflower",
			User:     "tourist",
			RealName: "Twoflower of Bes Pelargic",
		})
	}()
	srv.expect(t, "NICK Twoflower")
	srv.expect(t, "USER tourist 0 * :Twoflower of Bes Pelargic")
	require.NoError(t, <-errc)

	t.Cleanup(func() {
		srv.drain()
		s.Disconnect()
		srv.close()
	})
	return s, srv
}
