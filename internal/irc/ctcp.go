package irc

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// CTCP commands the client sends or answers.
const (
	CTCPAction     = "ACTION"
	CTCPPing       = "PING"
	CTCPTime       = "TIME"
	CTCPVersion    = "VERSION"
	CTCPClientInfo = "CLIENTINFO"
)

// DefaultVersion answers CTCP VERSION when Config.Version is empty.
const DefaultVersion = "slashirc"

const ctcpDelim = "\x01"

// ParseCTCP splits a "\x01COMMAND args\x01" message. The closing delimiter
// is optional.
func ParseCTCP(text string) (command, args string, ok bool) {
	if !strings.HasPrefix(text, ctcpDelim) {
		return "", "", false
	}
	body := strings.TrimSuffix(text[1:], ctcpDelim)
	command, args, _ = strings.Cut(body, " ")
	if command == "" {
		return "", "", false
	}
	return strings.ToUpper(command), args, true
}

func ctcpMessage(command, args string) string {
	if args == "" {
		return ctcpDelim + command + ctcpDelim
	}
	return ctcpDelim + command + " " + args + ctcpDelim
}

// PingLatency reads the round trip from a PING reply carrying the
// millisecond timestamp the request was sent with.
func PingLatency(args string, now time.Time) (time.Duration, bool) {
	ms, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return 0, false
	}
	return now.Sub(time.UnixMilli(ms)), true
}

// CTCP sends client-to-client requests over PRIVMSG.
type CTCP struct {
	s *Session
}

// Action sends a CTCP ACTION to each target.
func (p *CTCP) Action(targets []string, text string) error {
	return p.request(targets, CTCPAction, text)
}

// Ping asks each target to echo the current time back.
func (p *CTCP) Ping(targets []string) error {
	return p.request(targets, CTCPPing, strconv.FormatInt(time.Now().UnixMilli(), 10))
}

// Time asks each target for its local time.
func (p *CTCP) Time(targets []string) error {
	return p.request(targets, CTCPTime, "")
}

// Version asks each target which client it runs.
func (p *CTCP) Version(targets []string) error {
	return p.request(targets, CTCPVersion, "")
}

func (p *CTCP) request(targets []string, command, args string) error {
	return p.s.with(func(c *Conn) error {
		var errs []error
		for _, t := range targets {
			if err := c.CTCPRequest(t, command, args); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// answerCTCP replies to the requests every client is expected to handle.
func (s *Session) answerCTCP(c *Conn, l *Line) {
	command, args, ok := ParseCTCP(l.Arg(1))
	if !ok || l.Nick == "" {
		return
	}

	var reply string
	switch command {
	case CTCPPing:
		reply = args
	case CTCPTime:
		reply = time.Now().Format(time.RFC1123Z)
	case CTCPVersion:
		reply = s.base.Version
		if reply == "" {
			reply = DefaultVersion
		}
	case CTCPClientInfo:
		reply = strings.Join([]string{CTCPAction, CTCPClientInfo, CTCPPing, CTCPTime, CTCPVersion}, " ")
	default:
		return
	}

	if err := c.CTCPReply(l.Nick, command, reply); err != nil {
		s.logger.Warn("ctcp reply failed", "command", command, "to", l.Nick, "error", err)
	}
}
