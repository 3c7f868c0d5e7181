package irc

import "strings"

// IRC numerics and commands the client reacts to.
const (
	RPL_WELCOME       = "001"
	RPL_ENDOFWHO      = "315"
	RPL_LIST          = "322"
	RPL_LISTEND       = "323"
	RPL_TOPIC         = "332"
	RPL_UNAWAY        = "305"
	RPL_NOWAWAY       = "306"
	RPL_WHOREPLY      = "352"
	RPL_NAMREPLY      = "353"
	RPL_ENDOFNAMES    = "366"
	ERR_NICKNAMEINUSE = "433"

	PRIVMSG      = "PRIVMSG"
	NOTICE       = "NOTICE"
	JOIN         = "JOIN"
	PART         = "PART"
	QUIT         = "QUIT"
	NICK         = "NICK"
	TOPIC        = "TOPIC"
	PING         = "PING"
	ERROR        = "ERROR"
	DISCONNECTED = "DISCONNECTED"

	// Wildcard receives every line.
	Wildcard = "*"
)

// Line represents a parsed IRC message
type Line struct {
	Nick string
	Src  string
	Cmd  string
	Args []string
	Raw  string
}

// ParseLine parses an IRC protocol line
func ParseLine(raw string) *Line {
	line := &Line{Raw: raw, Args: []string{}}

	// IRCv3 message tags are not used
	if strings.HasPrefix(raw, "@") {
		_, rest, ok := strings.Cut(raw, " ")
		if !ok {
			return line
		}
		raw = strings.TrimLeft(rest, " ")
	}

	// Handle prefix (source)
	if strings.HasPrefix(raw, ":") {
		src, rest, ok := strings.Cut(raw[1:], " ")
		if !ok {
			return line
		}
		line.Src = src

		// Extract nick from source (nick!user@host)
		if idx := strings.Index(src, "!"); idx != -1 {
			line.Nick = src[:idx]
		}

		raw = strings.TrimLeft(rest, " ")
	}

	// Trailing parameter keeps its spaces
	var trailing string
	hasTrailing := false
	if strings.HasPrefix(raw, ":") {
		trailing, raw, hasTrailing = raw[1:], "", true
	} else if idx := strings.Index(raw, " :"); idx != -1 {
		trailing, raw, hasTrailing = raw[idx+2:], raw[:idx], true
	}

	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return line
	}

	line.Cmd = strings.ToUpper(parts[0])
	line.Args = append(line.Args, parts[1:]...)
	if hasTrailing {
		line.Args = append(line.Args, trailing)
	}

	return line
}

// Arg returns argument i, or "" when there are not that many.
func (l *Line) Arg(i int) string {
	if i < 0 || i >= len(l.Args) {
		return ""
	}
	return l.Args[i]
}
