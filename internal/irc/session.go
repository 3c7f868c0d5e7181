package irc

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/eznix86/slashirc/internal/command"
)

// DefaultAwayMessage is sent by /away without a message.
const DefaultAwayMessage = "Away"

// nickPrefixes are the membership prefixes RPL_NAMREPLY puts before a nick.
const nickPrefixes = "~&@%+"

var (
	_ command.SessionControl     = (*Session)(nil)
	_ command.LocalUser          = (*LocalUser)(nil)
	_ command.User               = (*User)(nil)
	_ command.ChannelControl     = (*Channel)(nil)
	_ command.AuxProtocolControl = (*CTCP)(nil)
)

// User is a remote user seen on the network.
type User struct {
	nick string
}

// NickName returns the user's nickname.
func (u *User) NickName() string { return u.nick }

// LocalUser is the user the session is registered as.
type LocalUser struct {
	s *Session

	mu   sync.RWMutex
	nick string
	away bool
}

func (u *LocalUser) NickName() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.nick
}

func (u *LocalUser) IsAway() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.away
}

// SetAway marks the user away. The server's RPL_NOWAWAY flips IsAway.
func (u *LocalUser) SetAway(message string) error {
	if message == "" {
		message = DefaultAwayMessage
	}
	return u.s.with(func(c *Conn) error { return c.Away(message) })
}

func (u *LocalUser) UnsetAway() error {
	return u.s.with(func(c *Conn) error { return c.Back() })
}

func (u *LocalUser) SetModes(modes string) error {
	nick := u.NickName()
	return u.s.with(func(c *Conn) error { return c.Mode(nick, modes) })
}

func (u *LocalUser) set(nick string, away bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.nick, u.away = nick, away
}

func (u *LocalUser) setNick(nick string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.nick = nick
}

func (u *LocalUser) setAway(away bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.away = away
}

type hook struct {
	event string
	fn    HandlerFunc
}

// Session is a reconnectable IRC session. Every Connect builds a new Conn
// from the base config and re-attaches the handlers registered with
// HandleFunc.
type Session struct {
	base   Config
	logger *slog.Logger
	local  *LocalUser
	ctcp   *CTCP

	// listSem and whoSem keep concurrent queries from reading each other's
	// replies.
	listSem chan struct{}
	whoSem  chan struct{}

	mu        sync.RWMutex
	conn      *Conn
	server    string
	reg       command.RegistrationInfo
	users     map[string]*User
	hooks     []hook
	debugSend func(string)
}

// NewSession returns a disconnected session. base supplies everything but
// the nick, user, real name and server, which come from Connect.
func NewSession(base *Config) *Session {
	logger := base.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		base:    *base,
		logger:  logger.With("component", "session"),
		listSem: make(chan struct{}, 1),
		whoSem:  make(chan struct{}, 1),
		users:   make(map[string]*User),
	}
	s.local = &LocalUser{s: s}
	s.ctcp = &CTCP{s: s}
	return s
}

// HandleFunc registers fn on the current connection and every later one.
func (s *Session) HandleFunc(event string, fn HandlerFunc) {
	s.mu.Lock()
	s.hooks = append(s.hooks, hook{event: event, fn: fn})
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		conn.HandleFunc(event, fn)
	}
}

// SetDebugSend logs every line sent on this and later connections.
func (s *Session) SetDebugSend(fn func(string)) {
	s.mu.Lock()
	s.debugSend = fn
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		conn.SetDebugSend(fn)
	}
}

// Server returns the host:port of the last Connect.
func (s *Session) Server() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.server
}

// Connected reports whether the current connection is up.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn != nil && s.conn.Connected()
}

// Connect replaces any current connection with one to host:port. TLS is
// used when the base config asks for it or port is a TLS port.
func (s *Session) Connect(host string, port int, reg command.RegistrationInfo) error {
	cfg := s.base
	cfg.Nick = reg.Nick
	cfg.User = reg.User
	if cfg.User == "" {
		cfg.User = reg.Nick
	}
	cfg.RealName = reg.RealName
	if cfg.RealName == "" {
		cfg.RealName = reg.Nick
	}
	cfg.Server = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.SSL = s.base.SSL || IsTLSPort(port)
	if cfg.SSL {
		tlsCfg := &tls.Config{}
		if s.base.SSLConfig != nil {
			tlsCfg = s.base.SSLConfig.Clone()
		}
		if tlsCfg.ServerName == "" {
			tlsCfg.ServerName = host
		}
		cfg.SSLConfig = tlsCfg
	}

	conn := Client(&cfg)
	s.track(conn)

	s.mu.Lock()
	old := s.conn
	s.conn = conn
	s.server = cfg.Server
	s.reg = reg
	s.users = make(map[string]*User)
	for _, h := range s.hooks {
		conn.HandleFunc(h.event, h.fn)
	}
	if s.debugSend != nil {
		conn.SetDebugSend(s.debugSend)
	}
	s.mu.Unlock()

	s.local.set(reg.Nick, false)

	if old != nil {
		if err := old.Quit(""); err != nil {
			s.logger.Debug("closing previous connection", "error", err)
		}
	}

	s.logger.Info("connecting", "server", cfg.Server, "nick", reg.Nick, "tls", cfg.SSL)
	return conn.Connect()
}

// track keeps the local user and the known-user table current.
func (s *Session) track(conn *Conn) {
	conn.HandleFunc(RPL_WELCOME, func(_ *Conn, l *Line) {
		if nick := l.Arg(0); nick != "" {
			s.local.setNick(nick)
		}
	})
	conn.HandleFunc(RPL_NOWAWAY, func(*Conn, *Line) { s.local.setAway(true) })
	conn.HandleFunc(RPL_UNAWAY, func(*Conn, *Line) { s.local.setAway(false) })
	conn.HandleFunc(NICK, func(_ *Conn, l *Line) {
		to := l.Arg(0)
		if strings.EqualFold(l.Nick, s.local.NickName()) {
			s.local.setNick(to)
		}
		s.forget(l.Nick)
		s.remember(to)
	})
	conn.HandleFunc(RPL_NAMREPLY, func(_ *Conn, l *Line) {
		for _, name := range strings.Fields(l.Arg(len(l.Args) - 1)) {
			s.remember(strings.TrimLeft(name, nickPrefixes))
		}
	})
	conn.HandleFunc(JOIN, func(_ *Conn, l *Line) { s.remember(l.Nick) })
	conn.HandleFunc(ERR_NICKNAMEINUSE, func(c *Conn, _ *Line) {
		// the connection already picked the alternate nick
		s.local.setNick(c.CurrentNick())
	})
	conn.HandleFunc(PRIVMSG, func(c *Conn, l *Line) {
		s.remember(l.Nick)
		s.answerCTCP(c, l)
	})
	conn.HandleFunc(NOTICE, func(_ *Conn, l *Line) { s.remember(l.Nick) })
	conn.HandleFunc(QUIT, func(_ *Conn, l *Line) { s.forget(l.Nick) })
}

func (s *Session) remember(nick string) {
	if nick == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(nick)] = &User{nick: nick}
}

func (s *Session) forget(nick string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, strings.ToLower(nick))
}

// with runs fn on the current connection.
func (s *Session) with(fn func(*Conn) error) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil || !conn.Connected() {
		return ErrNotConnected
	}
	return fn(conn)
}

func (s *Session) SendMessage(targets []string, text string) error {
	return s.with(func(c *Conn) error { return c.Privmsg(strings.Join(targets, ","), text) })
}

func (s *Session) SendNotice(targets []string, text string) error {
	return s.with(func(c *Conn) error { return c.Notice(strings.Join(targets, ","), text) })
}

func (s *Session) JoinChannel(name, key string) error {
	return s.with(func(c *Conn) error { return c.Join(name, key) })
}

func (s *Session) SetNickName(name string) error {
	return s.with(func(c *Conn) error { return c.Nick(name) })
}

func (s *Session) Quit(reason string) error {
	return s.with(func(c *Conn) error { return c.Quit(reason) })
}

func (s *Session) SetChannelModes(channel command.ChannelControl, modes string, params []string) error {
	return s.with(func(c *Conn) error { return c.Mode(channel.Name(), append([]string{modes}, params...)...) })
}

func (s *Session) SendRawMessage(line string) error {
	return s.with(func(c *Conn) error { return c.Raw(line) })
}

// Disconnect closes the current connection, if any.
func (s *Session) Disconnect() error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil {
		return nil
	}
	return conn.Quit("")
}

func (s *Session) RegistrationInfo() command.RegistrationInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg
}

func (s *Session) LocalUser() command.LocalUser { return s.local }

func (s *Session) UserFromNickName(nick string) (command.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[strings.ToLower(nick)]
	if !ok {
		return nil, false
	}
	return u, true
}

// Channel returns a handle for a channel on this session.
func (s *Session) Channel(name string) *Channel {
	return &Channel{s: s, name: name}
}

// CTCP returns the session's CTCP sender.
func (s *Session) CTCP() *CTCP { return s.ctcp }

func acquire(ctx context.Context, sem chan struct{}) (release func(), err error) {
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ListChannels sends LIST and collects RPL_LIST replies up to RPL_LISTEND.
func (s *Session) ListChannels(ctx context.Context, masks []string) ([]command.ChannelInfo, error) {
	release, err := acquire(ctx, s.listSem)
	if err != nil {
		return nil, err
	}
	defer release()

	request := "LIST"
	if len(masks) > 0 {
		request += " " + strings.Join(masks, ",")
	}

	var (
		mu       sync.Mutex
		channels []command.ChannelInfo
	)
	err = s.with(func(c *Conn) error {
		return c.Collect(ctx, request, RPL_LIST, RPL_LISTEND, func(l *Line) {
			// <me> <channel> <visible> :<topic>
			users, _ := strconv.Atoi(l.Arg(2))
			mu.Lock()
			defer mu.Unlock()
			channels = append(channels, command.ChannelInfo{
				Name:             l.Arg(1),
				VisibleUserCount: users,
				Topic:            l.Arg(3),
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	return channels, nil
}

// QueryWho sends WHO and collects RPL_WHOREPLY replies up to RPL_ENDOFWHO.
func (s *Session) QueryWho(ctx context.Context, mask string) ([]command.UserInfo, error) {
	release, err := acquire(ctx, s.whoSem)
	if err != nil {
		return nil, err
	}
	defer release()

	request := "WHO"
	if mask != "" {
		request += " " + mask
	}

	var (
		mu    sync.Mutex
		users []command.UserInfo
	)
	err = s.with(func(c *Conn) error {
		return c.Collect(ctx, request, RPL_WHOREPLY, RPL_ENDOFWHO, func(l *Line) {
			// <me> <channel> <user> <host> <server> <nick> <H|G>[*][@|+] :<hops> <real name>
			mu.Lock()
			defer mu.Unlock()
			users = append(users, command.UserInfo{
				ChannelName: l.Arg(1),
				NickName:    l.Arg(5),
				IsAway:      strings.HasPrefix(l.Arg(6), "G"),
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("who %s: %w", mask, err)
	}

	mu.Lock()
	defer mu.Unlock()
	return users, nil
}
