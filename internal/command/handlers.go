package command

import (
	"context"
	"maps"
	"slices"
	"strings"
)

type commandHandler func(d *Dispatcher, ctx context.Context, content string, display DisplayFunc) error

var commands = map[string]commandHandler{
	"msg":      cmdMsg,
	"notice":   cmdNotice,
	"kick":     cmdKick,
	"ban":      cmdBan,
	"away":     cmdAway,
	"join":     cmdJoin,
	"nick":     cmdNick,
	"quit":     cmdQuit,
	"part":     cmdPart,
	"mode":     cmdMode,
	"me":       cmdMe,
	"topic":    cmdTopic,
	"invite":   cmdInvite,
	"hop":      cmdHop,
	"raw":      cmdRaw,
	"server":   cmdServer,
	"clear":    cmdClear,
	"clearall": cmdClearAll,
	"list":     cmdList,
	"who":      cmdWho,
}

// Verbs returns the known command verbs, sorted.
func Verbs() []string {
	return slices.Sorted(maps.Keys(commands))
}

func cmdMsg(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	target, message := splitFirst(content)
	if target == "" || message == "" {
		return d.ignored("msg", "missing target or message")
	}
	if d.isLocalNick(target) {
		return d.ignored("msg", "target is the local user")
	}

	if err := d.session.SendMessage([]string{target}, message); err != nil {
		return err
	}
	if user, ok := d.session.UserFromNickName(target); ok {
		d.events.Publish(TopicViewUser, Notification{User: user, Text: message})
	}
	return nil
}

func cmdNotice(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	target, notice := splitFirst(content)
	if target == "" || notice == "" {
		return d.ignored("notice", "missing target or notice")
	}
	if d.isLocalNick(target) {
		return d.ignored("notice", "target is the local user")
	}
	return d.session.SendNotice([]string{target}, notice)
}

func cmdKick(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	if d.channel == nil {
		return d.ignored("kick", "no channel")
	}
	target, reason := splitFirst(content)
	if target == "" {
		return d.ignored("kick", "missing target")
	}
	return d.channel.Kick(target, reason)
}

func cmdBan(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	if d.channel == nil {
		return d.ignored("ban", "no channel")
	}
	mask, _ := splitFirst(content)
	if mask == "" {
		return d.ignored("ban", "missing hostmask")
	}
	return d.channel.Ban(mask)
}

func cmdAway(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	local := d.session.LocalUser()
	if local == nil {
		return d.ignored("away", "no local user")
	}
	if local.IsAway() {
		return local.UnsetAway()
	}
	return local.SetAway(content)
}

func cmdJoin(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	name, rest := splitFirst(content)
	if name == "" {
		return d.ignored("join", "missing channel")
	}
	key, _ := splitFirst(rest)
	return d.session.JoinChannel(name, key)
}

func cmdNick(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	nick, _ := splitFirst(content)
	if nick == "" {
		return d.ignored("nick", "missing nickname")
	}
	return d.session.SetNickName(nick)
}

func cmdQuit(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	return d.session.Quit(content)
}

func cmdPart(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	if d.channel == nil {
		return d.ignored("part", "no channel")
	}
	return d.channel.Part(content)
}

// cmdMode applies a single channel mode change to the bound channel, or sets
// user modes when the first word is the local nickname.
func cmdMode(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	change, err := ParseModeChange(content)
	if err == nil && d.channel != nil && strings.EqualFold(change.Channel, d.channel.Name()) {
		return d.session.SetChannelModes(d.channel, change.String(), change.Params())
	}

	fields := strings.Fields(content)
	if len(fields) < 2 {
		return d.ignored("mode", "missing target or modes")
	}
	if !d.isLocalNick(fields[0]) {
		return d.ignored("mode", "target is neither the bound channel nor the local user")
	}
	return d.session.LocalUser().SetModes(fields[1])
}

func cmdMe(d *Dispatcher, _ context.Context, content string, display DisplayFunc) error {
	if d.channel == nil {
		return d.ignored("me", "no channel")
	}
	if content == "" {
		return d.ignored("me", "missing action")
	}

	if err := d.aux.Action([]string{d.channel.Name()}, content); err != nil {
		return err
	}
	if display != nil {
		var source User
		if local := d.session.LocalUser(); local != nil {
			source = local
		}
		display(source, content, DisplayOptions{Timestamp: true})
	}
	return nil
}

func cmdTopic(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	if d.channel == nil {
		return d.ignored("topic", "no channel")
	}
	if content == "" {
		return d.ignored("topic", "missing topic")
	}
	return d.channel.SetTopic(content)
}

func cmdInvite(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	if d.channel == nil {
		return d.ignored("invite", "no channel")
	}
	nick, _ := splitFirst(content)
	if nick == "" {
		return d.ignored("invite", "missing nickname")
	}
	return d.channel.Invite(nick)
}

// cmdHop parts the bound channel, then joins the given channel or rejoins the
// same one.
func cmdHop(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	if d.channel == nil {
		return d.ignored("hop", "no channel")
	}

	next, _ := splitFirst(content)
	if next == "" {
		next = d.channel.Name()
	}

	if err := d.channel.Part(""); err != nil {
		return err
	}
	return d.session.JoinChannel(next, "")
}

func cmdRaw(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	if content == "" {
		return d.ignored("raw", "missing line")
	}
	return d.session.SendRawMessage(content)
}

// cmdServer reconnects to another server. It only works outside channel
// views.
func cmdServer(d *Dispatcher, _ context.Context, content string, _ DisplayFunc) error {
	if d.channel != nil {
		return d.ignored("server", "bound to a channel")
	}
	host, port := ParseServerAddress(content)
	if host == "" {
		return d.ignored("server", "missing host")
	}

	reg := d.session.RegistrationInfo()
	if err := d.session.Disconnect(); err != nil {
		return err
	}
	return d.session.Connect(host, port, reg)
}

func cmdClear(d *Dispatcher, _ context.Context, _ string, _ DisplayFunc) error {
	d.events.Publish(TopicClear, Notification{})
	return nil
}

func cmdClearAll(d *Dispatcher, _ context.Context, _ string, _ DisplayFunc) error {
	d.broadcaster.Publish(TopicClearAll, Notification{})
	return nil
}

// cmdList requests the channel list and shows it as a table, busiest
// channels first. It needs a display and only works outside channel views.
func cmdList(d *Dispatcher, ctx context.Context, content string, display DisplayFunc) error {
	if display == nil {
		return d.ignored("list", "no display")
	}
	if d.channel != nil {
		return d.ignored("list", "bound to a channel")
	}

	q := ParseListQuery(content)
	return d.startQuery(ctx, queryList, display, func(ctx context.Context) (string, error) {
		channels, err := d.session.ListChannels(ctx, q.Masks)
		if err != nil {
			return "", err
		}
		return d.channelTable(q.Apply(channels))
	})
}

func cmdWho(d *Dispatcher, ctx context.Context, content string, display DisplayFunc) error {
	if display == nil {
		return d.ignored("who", "no display")
	}
	if d.channel != nil {
		return d.ignored("who", "bound to a channel")
	}

	mask, _ := splitFirst(content)
	return d.startQuery(ctx, queryWho, display, func(ctx context.Context) (string, error) {
		users, err := d.session.QueryWho(ctx, mask)
		if err != nil {
			return "", err
		}
		return d.userTable(users)
	})
}
