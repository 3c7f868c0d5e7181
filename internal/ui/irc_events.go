package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eznix86/slashirc/internal/irc"
)

// ircMessage represents a typed IRC event message
type ircMessage struct {
	Type      string
	Timestamp string
	Data      map[string]string
}

// IRCEventHandler processes IRC events
type IRCEventHandler func(m *Model, data map[string]string)

func (m *Model) setupIRCHandlers() {
	// Helper to send typed messages
	send := func(msgType string, data map[string]string) {
		m.post(ircMessage{
			Type:      msgType,
			Timestamp: time.Now().Format("15:04"),
			Data:      data,
		})
	}

	// Wildcard handler for debug mode - logs all IRC events
	if m.verbose {
		m.session.HandleFunc(irc.Wildcard, func(_ *irc.Conn, line *irc.Line) {
			msg := fmt.Sprintf("RECV CMD=%s NICK=%s SRC=%s ARGS=%v", line.Cmd, line.Nick, line.Src, line.Args)
			send("DEBUG", map[string]string{"message": msg})
		})

		m.session.SetDebugSend(func(cmd string) {
			send("DEBUG", map[string]string{"message": "SEND " + cmd})
		})
	}

	m.session.HandleFunc(irc.RPL_WELCOME, func(_ *irc.Conn, line *irc.Line) {
		if len(line.Args) > 0 {
			send("WELCOME", map[string]string{"message": strings.Join(line.Args[1:], " ")})
		}
	})

	m.session.HandleFunc(irc.PRIVMSG, func(_ *irc.Conn, line *irc.Line) {
		if len(line.Args) >= 2 {
			send("PRIVMSG", map[string]string{
				"nick":    line.Nick,
				"target":  line.Args[0],
				"message": line.Args[1],
			})
		}
	})

	m.session.HandleFunc(irc.NOTICE, func(_ *irc.Conn, line *irc.Line) {
		if len(line.Args) > 1 {
			sender := line.Nick
			if sender == "" {
				sender = line.Src
			}
			send("NOTICE", map[string]string{
				"sender":  sender,
				"target":  line.Args[0],
				"message": line.Args[1],
			})
		}
	})

	m.session.HandleFunc(irc.JOIN, func(_ *irc.Conn, line *irc.Line) {
		if len(line.Args) >= 1 {
			send("JOIN", map[string]string{"nick": line.Nick, "channel": line.Args[0]})
		}
	})

	m.session.HandleFunc(irc.PART, func(_ *irc.Conn, line *irc.Line) {
		if len(line.Args) >= 1 {
			send("PART", map[string]string{"nick": line.Nick, "channel": line.Args[0]})
		}
	})

	m.session.HandleFunc(irc.QUIT, func(_ *irc.Conn, line *irc.Line) {
		send("QUIT", map[string]string{"nick": line.Nick, "reason": line.Arg(0)})
	})

	m.session.HandleFunc(irc.NICK, func(_ *irc.Conn, line *irc.Line) {
		send("NICK", map[string]string{"nick": line.Nick, "new": line.Arg(0)})
	})

	m.session.HandleFunc(irc.RPL_TOPIC, func(_ *irc.Conn, line *irc.Line) {
		if len(line.Args) >= 3 {
			send("TOPIC", map[string]string{"channel": line.Args[1], "topic": line.Args[2]})
		}
	})

	m.session.HandleFunc(irc.TOPIC, func(_ *irc.Conn, line *irc.Line) {
		if len(line.Args) >= 2 {
			send("TOPIC", map[string]string{"nick": line.Nick, "channel": line.Args[0], "topic": line.Args[1]})
		}
	})

	m.session.HandleFunc(irc.RPL_NAMREPLY, func(_ *irc.Conn, line *irc.Line) {
		if len(line.Args) >= 4 {
			send("NAMES", map[string]string{"channel": line.Args[2], "users": line.Args[3]})
		}
	})

	m.session.HandleFunc(irc.RPL_ENDOFNAMES, func(_ *irc.Conn, line *irc.Line) {
		if len(line.Args) >= 2 {
			send("ENDOFNAMES", map[string]string{"channel": line.Args[1]})
		}
	})

	// Helper for server info messages (002-005, 251-266)
	sendServerInfo := func(_ *irc.Conn, line *irc.Line) {
		if len(line.Args) > 1 {
			send("SERVER_INFO", map[string]string{"message": strings.Join(line.Args[1:], " ")})
		}
	}
	for _, code := range []string{"002", "003", "004", "005", "251", "252", "253", "254", "255", "265", "266"} {
		m.session.HandleFunc(code, sendServerInfo)
	}

	// RPL_MOTDSTART, RPL_MOTD, RPL_ENDOFMOTD
	sendMOTD := func(_ *irc.Conn, line *irc.Line) {
		if len(line.Args) > 1 {
			send("MOTD", map[string]string{"message": line.Args[len(line.Args)-1]})
		}
	}
	for _, code := range []string{"375", "372", "376"} {
		m.session.HandleFunc(code, sendMOTD)
	}

	m.session.HandleFunc(irc.DISCONNECTED, func(*irc.Conn, *irc.Line) {
		send("DISCONNECTED", map[string]string{})
	})

	m.session.HandleFunc(irc.ERROR, func(_ *irc.Conn, line *irc.Line) {
		errMsg := m.text.T("UNKNOWN_ERROR")
		if len(line.Args) > 0 {
			errMsg = strings.Join(line.Args, " ")
		}
		send("ERROR", map[string]string{"message": errMsg})
	})

	for code := range channelErrorKeys {
		m.session.HandleFunc(code, func(_ *irc.Conn, line *irc.Line) {
			if len(line.Args) >= 2 {
				send("ERROR", map[string]string{"code": code, "channel": line.Args[1]})
			}
		})
	}

	// Generic errors that just forward the message
	for _, code := range []string{"433", "451", "477", "482", "489", "520"} {
		m.session.HandleFunc(code, func(_ *irc.Conn, line *irc.Line) {
			if len(line.Args) >= 2 {
				send("ERROR", map[string]string{"message": strings.Join(line.Args[1:], " ")})
			}
		})
	}
}

// channelErrorKeys maps numerics naming a channel or nick to their message.
var channelErrorKeys = map[string]string{
	"401": "ERR_NO_SUCH_NICK",
	"403": "ERR_NO_SUCH_CHANNEL",
	"404": "ERR_CANNOT_SEND",
	"471": "ERR_CHANNEL_FULL",
	"473": "ERR_INVITE_ONLY",
	"474": "ERR_BANNED",
	"475": "ERR_BAD_KEY",
}

func (m *Model) registerIRCEventHandlers() {
	m.ircEventHandlers["WELCOME"] = handleSystemMessage
	m.ircEventHandlers["SERVER_INFO"] = handleSystemMessage
	m.ircEventHandlers["MOTD"] = handleMOTD
	m.ircEventHandlers["NOTICE"] = handleNotice
	m.ircEventHandlers["PRIVMSG"] = handlePrivmsg
	m.ircEventHandlers["JOIN"] = handleJoin
	m.ircEventHandlers["PART"] = handlePart
	m.ircEventHandlers["QUIT"] = handleQuit
	m.ircEventHandlers["NICK"] = handleNick
	m.ircEventHandlers["TOPIC"] = handleTopic
	m.ircEventHandlers["NAMES"] = handleNames
	m.ircEventHandlers["ENDOFNAMES"] = handleEndOfNames
	m.ircEventHandlers["ERROR"] = handleError
	m.ircEventHandlers["DISCONNECTED"] = handleDisconnected
	m.ircEventHandlers["DEBUG"] = handleDebug
}

func (m *Model) handleIRCMessage(msg ircMessage) {
	if handler, ok := m.ircEventHandlers[msg.Type]; ok {
		handler(m, msg.Data)
	}
}

func now() string {
	return time.Now().Format("15:04")
}

// handleSystemMessage handles generic server messages (WELCOME, SERVER_INFO)
func handleSystemMessage(m *Model, data map[string]string) {
	m.server().addMessage(m.fmtSys(now(), data["message"]))
	m.refresh()
}

func handleMOTD(m *Model, data map[string]string) {
	m.server().addMessage(m.fmtMuted(now(), data["message"]))
	m.refresh()
}

func handleNotice(m *Model, data map[string]string) {
	sender, message := data["sender"], data["message"]

	if command, args, ok := irc.ParseCTCP(message); ok {
		m.server().addMessage(m.fmtSys(now(), m.ctcpReply(sender, command, args)))
		m.refresh()
		return
	}

	v := m.findView(data["target"])
	if v == nil {
		v = m.activeView()
	}
	v.addMessage(m.fmtNotice(now(), sender, irc.StripFormatting(message)))
	m.refresh()
}

// ctcpReply describes a CTCP reply; PING replies show the round trip.
func (m *Model) ctcpReply(sender, command, args string) string {
	args = irc.StripFormatting(args)
	if command == irc.CTCPPing {
		if d, ok := irc.PingLatency(args, time.Now()); ok {
			return m.text.T("CTCP_PING_REPLY", sender, strconv.FormatFloat(d.Seconds(), 'f', 2, 64))
		}
	}
	return m.text.T("CTCP_REPLY", sender, command, args)
}

func handlePrivmsg(m *Model, data map[string]string) {
	nick := data["nick"]
	target := data["target"]
	message := data["message"]

	command, args, isCTCP := irc.ParseCTCP(message)
	if isCTCP && command != irc.CTCPAction {
		// answered by the session; just note who asked
		m.server().addMessage(m.fmtMuted(now(), m.text.T("CTCP_REQUEST", nick, command)))
		m.refresh()
		return
	}

	var v *view
	if m.isLocalNick(target) {
		// Private message to us
		v = m.ensureView(nick, queryView)
	} else {
		v = m.findView(target)
		if v == nil {
			v = m.server()
		}
		v.addUser(nick)
	}

	if isCTCP {
		v.addMessage(m.fmtAction(now(), nick, irc.StripFormatting(args)))
	} else {
		v.addMessage(m.fmtMsg(now(), nick, irc.StripFormatting(message)))
	}
	m.refresh()
}

func handleJoin(m *Model, data map[string]string) {
	nick := data["nick"]
	channel := data["channel"]

	var v *view
	if m.isLocalNick(nick) {
		v = m.ensureView(channel, channelView)
		m.activate(v)
	} else {
		v = m.findView(channel)
		if v == nil {
			return
		}
		v.addUser(nick)
	}
	v.addMessage(m.fmtSys(now(), m.text.T("JOINED", nick, channel)))
	m.refresh()
}

func handlePart(m *Model, data map[string]string) {
	nick := data["nick"]
	channel := data["channel"]

	if m.isLocalNick(nick) {
		m.closeView(channel)
		m.server().addMessage(m.fmtSys(now(), m.text.T("LEFT", nick, channel)))
		m.refresh()
		return
	}

	if v := m.findView(channel); v != nil {
		v.removeUser(nick)
		v.addMessage(m.fmtSys(now(), m.text.T("LEFT", nick, channel)))
	}
	m.refresh()
}

func handleQuit(m *Model, data map[string]string) {
	nick := data["nick"]
	reason := data["reason"]

	text := m.text.T("QUIT", nick)
	if reason != "" {
		text = m.text.T("QUIT_REASON", nick, irc.StripFormatting(reason))
	}

	// Show the quit wherever the user was
	for _, v := range m.views {
		if v.removeUser(nick) || (v.kind == queryView && strings.EqualFold(v.name, nick)) {
			v.addMessage(m.fmtSys(now(), text))
		}
	}
	m.refresh()
}

func handleNick(m *Model, data map[string]string) {
	from, to := data["nick"], data["new"]
	text := m.text.T("NICK_CHANGED", from, to)

	for _, v := range m.views {
		renamed := v.renameUser(from, to)
		if v.kind == queryView && strings.EqualFold(v.name, from) {
			v.name = to
			renamed = true
		}
		if renamed || v.kind == serverView {
			v.addMessage(m.fmtSys(now(), text))
		}
	}
	m.refresh()
}

func handleTopic(m *Model, data map[string]string) {
	channel := data["channel"]
	topic := irc.StripFormatting(data["topic"])

	text := m.text.T("TOPIC_IS", channel, topic)
	if nick := data["nick"]; nick != "" {
		text = m.text.T("TOPIC_CHANGED", nick, channel, topic)
	}

	v := m.findView(channel)
	if v == nil {
		v = m.server()
	}
	v.addMessage(m.fmtSys(now(), text))
	m.refresh()
}

func handleNames(m *Model, data map[string]string) {
	v := m.findView(data["channel"])
	if v == nil {
		return
	}
	// 353 can come in multiple messages; wait for 366
	v.pendingNames = append(v.pendingNames, strings.Fields(data["users"])...)
}

func handleEndOfNames(m *Model, data map[string]string) {
	if v := m.findView(data["channel"]); v != nil {
		v.finishNames()
	}
	m.refresh()
}

func handleError(m *Model, data map[string]string) {
	message := data["message"]
	if key, ok := channelErrorKeys[data["code"]]; ok {
		message = m.text.T(key, data["channel"])
	}
	m.activeView().addMessage(m.fmtErr(now(), message))

	// Only close views for targets that don't exist
	switch data["code"] {
	case "401", "403": // ERR_NOSUCHNICK, ERR_NOSUCHCHANNEL
		m.closeView(data["channel"])
	}
	m.refresh()
}

func handleDisconnected(m *Model, _ map[string]string) {
	m.server().addMessage(m.fmtErr(now(), m.text.T("DISCONNECTED")))
	m.refresh()
}

func handleDebug(m *Model, data map[string]string) {
	m.server().addMessage(m.fmtDebug(now(), data["message"]))
	m.refresh()
}
