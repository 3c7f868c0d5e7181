// Package irc implements the client side of the IRC protocol needed by the
// slash-command dispatcher: a connection with an event-handler registry, and
// session, channel and CTCP types that satisfy the command package contracts.
package irc

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var (
	ErrNotConnected = errors.New("irc: not connected")
	ErrDisconnected = errors.New("irc: connection closed")
	ErrInvalidLine  = errors.New("irc: line contains CR or LF")
)

// tlsPorts are the ports that are assumed to speak TLS.
var tlsPorts = []int{6697, 7000, 7001, 9999}

// IsTLSPort reports whether port is conventionally a TLS port.
func IsTLSPort(port int) bool {
	return slices.Contains(tlsPorts, port)
}

// Config holds IRC connection configuration
type Config struct {
	Nick      string
	User      string
	RealName  string
	Server    string
	SSL       bool
	SSLConfig *tls.Config
	// NewNick picks another nickname when the server rejects one during
	// registration.
	NewNick func(string) string

	// Dial replaces the TCP/TLS dialer when set.
	Dial func(network, addr string) (net.Conn, error)

	// SendRate and SendBurst throttle outgoing lines. A zero SendRate
	// disables throttling.
	SendRate  rate.Limit
	SendBurst int

	// Version answers CTCP VERSION requests.
	Version string

	Logger *slog.Logger
}

// NewConfig creates a new IRC configuration with defaults
func NewConfig(nick string) *Config {
	return &Config{
		Nick:     nick,
		User:     nick,
		RealName: nick,
		NewNick: func(n string) string {
			return n + "_"
		},
		SendRate:  rate.Every(500 * time.Millisecond),
		SendBurst: 5,
		Version:   DefaultVersion,
	}
}

// HandlerFunc handles one parsed line. Handlers run on the read loop, in
// registration order, and must not wait for further lines.
type HandlerFunc func(*Conn, *Line)

type handler struct {
	id uuid.UUID
	fn HandlerFunc
}

// Conn represents an IRC connection
type Conn struct {
	cfg    *Config
	logger *slog.Logger

	mu          sync.RWMutex
	conn        net.Conn
	connected   bool
	registered  bool
	nick        string
	handlers    map[string][]handler
	debugSendFn func(string) // Callback for debug logging sent messages

	writeMu sync.Mutex
	reader  *bufio.Reader
	writer  *bufio.Writer
	limiter *rate.Limiter

	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once
}

// Client creates a new IRC connection from config
func Client(cfg *Config) *Conn {
	limit, burst := cfg.SendRate, cfg.SendBurst
	if limit == 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Conn{
		cfg:      cfg,
		logger:   logger.With("component", "irc", "server", cfg.Server),
		nick:     cfg.Nick,
		handlers: make(map[string][]handler),
		limiter:  rate.NewLimiter(limit, burst),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// HandleFunc registers a handler for a specific IRC event and returns an id
// for RemoveHandler. Use Wildcard to receive every line.
func (c *Conn) HandleFunc(event string, fn HandlerFunc) uuid.UUID {
	id := uuid.New()

	c.mu.Lock()
	defer c.mu.Unlock()
	// Clip so the read loop's snapshot is never appended to in place.
	c.handlers[event] = append(slices.Clip(c.handlers[event]), handler{id: id, fn: fn})
	return id
}

// RemoveHandler unregisters a handler added with HandleFunc.
func (c *Conn) RemoveHandler(event string, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hs := c.handlers[event]
	idx := slices.IndexFunc(hs, func(h handler) bool { return h.id == id })
	if idx == -1 {
		return
	}
	c.handlers[event] = slices.Delete(slices.Clone(hs), idx, idx+1)
}

// SetDebugSend sets a callback function for debug logging of sent messages
func (c *Conn) SetDebugSend(fn func(string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debugSendFn = fn
}

// Connect establishes connection to the IRC server and registers.
func (c *Conn) Connect() error {
	conn, err := c.dial()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.writer = bufio.NewWriter(conn)
	c.connected = true
	c.mu.Unlock()

	c.logger.Info("connected", "tls", c.cfg.SSL)

	// Send initial IRC handshake (must be after setting connected=true)
	if err := c.write("NICK " + c.cfg.Nick); err == nil {
		err = c.write(fmt.Sprintf("USER %s 0 * :%s", c.cfg.User, c.cfg.RealName))
	}
	if err != nil {
		c.mu.Lock()
		c.connected = false
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
		return fmt.Errorf("register: %w", err)
	}

	go c.readLoop(conn)
	return nil
}

func (c *Conn) dial() (net.Conn, error) {
	if c.cfg.Dial != nil {
		return c.cfg.Dial("tcp", c.cfg.Server)
	}
	if c.cfg.SSL {
		return tls.Dial("tcp", c.cfg.Server, c.cfg.SSLConfig)
	}
	return net.Dial("tcp", c.cfg.Server)
}

// Connected returns whether the connection is active
func (c *Conn) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// CurrentNick returns the nickname the connection is registered (or
// registering) with.
func (c *Conn) CurrentNick() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nick
}

// Done is closed when the read loop exits.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// readLoop continuously reads from the IRC server
func (c *Conn) readLoop(conn net.Conn) {
	defer close(c.done)
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		c.logger.Info("disconnected")
		c.dispatch(&Line{Cmd: DISCONNECTED})
	}()

	var partial string
	for {
		select {
		case <-c.quit:
			return
		default:
		}

		// Set read deadline to allow checking quit channel
		conn.SetReadDeadline(time.Now().Add(1 * time.Second))

		chunk, err := c.reader.ReadString('\n')
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				partial += chunk
				continue
			}
			if !errors.Is(err, net.ErrClosed) {
				c.logger.Debug("read failed", "error", err)
			}
			return
		}

		raw := strings.TrimSpace(partial + chunk)
		partial = ""
		if raw == "" {
			continue
		}
		c.dispatch(ParseLine(raw))
	}
}

// dispatch calls all registered handlers for an event
func (c *Conn) dispatch(line *Line) {
	switch line.Cmd {
	case PING:
		// Some servers send PING without arguments
		pong := "PONG"
		if len(line.Args) > 0 {
			pong = "PONG :" + line.Args[0]
		}
		if err := c.write(pong); err != nil {
			c.logger.Warn("failed to send PONG", "error", err)
		}
	case RPL_WELCOME:
		c.mu.Lock()
		c.registered = true
		if nick := line.Arg(0); nick != "" {
			c.nick = nick
		}
		c.mu.Unlock()
	case ERR_NICKNAMEINUSE:
		c.retryNick(line)
	}

	c.mu.RLock()
	handlers := c.handlers[line.Cmd]
	wildcard := c.handlers[Wildcard]
	c.mu.RUnlock()

	for _, h := range handlers {
		h.fn(c, line)
	}
	for _, h := range wildcard {
		h.fn(c, line)
	}
}

func (c *Conn) retryNick(line *Line) {
	c.mu.Lock()
	if c.registered || c.cfg.NewNick == nil {
		c.mu.Unlock()
		return
	}
	c.nick = c.cfg.NewNick(line.Arg(1))
	nick := c.nick
	c.mu.Unlock()

	c.logger.Info("nickname in use, retrying", "nick", nick)
	if err := c.write("NICK " + nick); err != nil {
		c.logger.Warn("failed to send NICK", "error", err)
	}
}

// Collect sends request and passes every itemEvent line to onItem until
// endEvent arrives, ctx ends or the connection closes. Its handlers are
// removed before it returns.
func (c *Conn) Collect(ctx context.Context, request, itemEvent, endEvent string, onItem func(*Line)) error {
	ended := make(chan struct{})
	var once sync.Once

	itemID := c.HandleFunc(itemEvent, func(_ *Conn, l *Line) { onItem(l) })
	defer c.RemoveHandler(itemEvent, itemID)
	endID := c.HandleFunc(endEvent, func(*Conn, *Line) { once.Do(func() { close(ended) }) })
	defer c.RemoveHandler(endEvent, endID)

	if err := c.sendRaw(ctx, request); err != nil {
		return err
	}

	select {
	case <-ended:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrDisconnected
	}
}

// sendRaw sends a raw IRC command once the flood limiter allows it
func (c *Conn) sendRaw(ctx context.Context, cmd string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	return c.write(cmd)
}

func (c *Conn) write(cmd string) error {
	if strings.ContainsAny(cmd, "\r\n") {
		return ErrInvalidLine
	}

	c.mu.RLock()
	connected, w, debug := c.connected, c.writer, c.debugSendFn
	c.mu.RUnlock()

	if !connected {
		return ErrNotConnected
	}

	// Call debug callback if set
	if debug != nil {
		debug(cmd)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := w.WriteString(cmd + "\r\n"); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Raw sends a raw IRC command
func (c *Conn) Raw(cmd string) error {
	return c.sendRaw(context.Background(), cmd)
}

// Join joins an IRC channel, with a key when one is given.
func (c *Conn) Join(channel, key string) error {
	if key != "" {
		return c.Raw(fmt.Sprintf("JOIN %s %s", channel, key))
	}
	return c.Raw("JOIN " + channel)
}

// Part leaves an IRC channel
func (c *Conn) Part(channel, reason string) error {
	if reason != "" {
		return c.Raw(fmt.Sprintf("PART %s :%s", channel, reason))
	}
	return c.Raw("PART " + channel)
}

// Privmsg sends a PRIVMSG to a target (channel or user)
func (c *Conn) Privmsg(target, message string) error {
	return c.Raw(fmt.Sprintf("PRIVMSG %s :%s", target, message))
}

// Notice sends a NOTICE to a target
func (c *Conn) Notice(target, message string) error {
	return c.Raw(fmt.Sprintf("NOTICE %s :%s", target, message))
}

// Action sends a CTCP ACTION (/me) to a target
func (c *Conn) Action(target, message string) error {
	return c.CTCPRequest(target, CTCPAction, message)
}

// CTCPRequest sends a CTCP request to target over PRIVMSG.
func (c *Conn) CTCPRequest(target, command, args string) error {
	return c.Privmsg(target, ctcpMessage(command, args))
}

// CTCPReply answers a CTCP request over NOTICE.
func (c *Conn) CTCPReply(target, command, args string) error {
	return c.Notice(target, ctcpMessage(command, args))
}

// Nick asks the server for a new nickname
func (c *Conn) Nick(nick string) error {
	return c.Raw("NICK " + nick)
}

// Mode changes modes on a channel or user
func (c *Conn) Mode(target string, args ...string) error {
	return c.Raw(strings.Join(append([]string{"MODE", target}, args...), " "))
}

// Kick removes nick from channel
func (c *Conn) Kick(channel, nick, reason string) error {
	if reason != "" {
		return c.Raw(fmt.Sprintf("KICK %s %s :%s", channel, nick, reason))
	}
	return c.Raw(fmt.Sprintf("KICK %s %s", channel, nick))
}

// Topic sets the channel topic
func (c *Conn) Topic(channel, topic string) error {
	return c.Raw(fmt.Sprintf("TOPIC %s :%s", channel, topic))
}

// Invite invites nick to channel
func (c *Conn) Invite(nick, channel string) error {
	return c.Raw(fmt.Sprintf("INVITE %s %s", nick, channel))
}

// Away marks the connection away with message
func (c *Conn) Away(message string) error {
	return c.Raw("AWAY :" + message)
}

// Back clears the away status
func (c *Conn) Back() error {
	return c.Raw("AWAY")
}

// Quit disconnects from the IRC server with a quit message. Only the first
// call has any effect.
func (c *Conn) Quit(message string) error {
	var err error
	c.quitOnce.Do(func() {
		if message == "" {
			err = c.write("QUIT")
		} else {
			err = c.write("QUIT :" + message)
		}
		if errors.Is(err, ErrNotConnected) {
			err = nil
		}

		close(c.quit)

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		// Wake the read loop instead of waiting out its deadline
		conn.SetReadDeadline(time.Now())

		// Wait for disconnect or timeout
		select {
		case <-c.done:
		case <-time.After(2 * time.Second):
		}
		conn.Close()
	})
	return err
}
