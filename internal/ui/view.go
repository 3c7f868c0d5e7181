package ui

import (
	"slices"
	"strings"

	"github.com/eznix86/slashirc/internal/command"
)

type viewKind int

const (
	serverView viewKind = iota
	channelView
	queryView
)

// maxMessages caps the scrollback kept per view.
const maxMessages = 500

// view is one conversation: the server, a joined channel or a private query.
// Each view has its own dispatcher so channel-only commands act on the right
// channel.
type view struct {
	name       string
	kind       viewKind
	dispatcher *command.Dispatcher
	messages   []string
	users      []string

	// pendingNames collects RPL_NAMREPLY batches until RPL_ENDOFNAMES.
	pendingNames []string
	unsubscribe  []func()
}

func (v *view) addMessage(msg string) {
	v.messages = append(v.messages, msg)
	if len(v.messages) > maxMessages {
		v.messages = v.messages[len(v.messages)-maxMessages:]
	}
}

func (v *view) clear() {
	v.messages = nil
}

func (v *view) hasUser(nick string) bool {
	return slices.ContainsFunc(v.users, func(u string) bool { return strings.EqualFold(u, nick) })
}

func (v *view) addUser(nick string) {
	if nick == "" || v.hasUser(nick) {
		return
	}
	v.users = append(v.users, nick)
}

func (v *view) removeUser(nick string) bool {
	before := len(v.users)
	v.users = slices.DeleteFunc(v.users, func(u string) bool { return strings.EqualFold(u, nick) })
	return len(v.users) != before
}

func (v *view) renameUser(from, to string) bool {
	idx := slices.IndexFunc(v.users, func(u string) bool { return strings.EqualFold(u, from) })
	if idx == -1 {
		return false
	}
	v.users[idx] = to
	return true
}

// finishNames replaces the user list with the collected names, without
// membership prefixes and duplicates.
func (v *view) finishNames() {
	seen := make(map[string]bool)
	var users []string
	for _, name := range v.pendingNames {
		name = strings.TrimLeft(name, "@+%~&")
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		users = append(users, name)
	}
	v.users = users
	v.pendingNames = nil
}

func (v *view) close() {
	for _, unsubscribe := range v.unsubscribe {
		unsubscribe()
	}
	v.unsubscribe = nil
}
