package ui

import (
	"strconv"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eznix86/slashirc/internal/command"
	"github.com/eznix86/slashirc/internal/i18n"
	"github.com/eznix86/slashirc/internal/irc"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()

	m := New(Options{
		Session:      irc.NewSession(irc.NewConfig("Twoflower")),
		Host:         "irc.example.org",
		Port:         6667,
		Registration: command.RegistrationInfo{Nick: "Twoflower"},
		QueryTimeout: time.Second,
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	t.Cleanup(m.Close)
	return m
}

// pump feeds every queued message back into Update.
func pump(m *Model) {
	for {
		select {
		case msg := <-m.msgs:
			m.Update(msg)
		default:
			return
		}
	}
}

func typeLine(m *Model, line string) {
	m.input.SetValue(line)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	pump(m)
}

func ircEvent(m *Model, typ string, data map[string]string) {
	m.Update(ircMessage{Type: typ, Data: data})
}

func text(v *view) string {
	return strings.Join(v.messages, "\n")
}

func joinAnkh(m *Model) *view {
	ircEvent(m, "JOIN", map[string]string{"nick": "Twoflower", "channel": "#ankh"})
	return m.findView("#ankh")
}

func TestNew_ServerView(t *testing.T) {
	m := newTestModel(t)

	require.Len(t, m.views, 1)
	assert.Equal(t, "irc.example.org", m.server().name)
	assert.Nil(t, m.server().dispatcher.Channel())
	assert.Contains(t, text(m.server()), "Connecting to irc.example.org:6667...")
	assert.Contains(t, m.View(), "SERVER")
}

func TestSubmit_PlainTextInServerView(t *testing.T) {
	m := newTestModel(t)

	typeLine(m, "hello")
	assert.Contains(t, text(m.server()), "Not in a channel")
}

func TestSubmit_PlainTextWhileDisconnected(t *testing.T) {
	m := newTestModel(t)
	v := joinAnkh(m)

	typeLine(m, "hello")
	assert.Contains(t, text(v), "Not connected to IRC server")
}

func TestSubmit_UnknownCommand(t *testing.T) {
	m := newTestModel(t)

	typeLine(m, "/frobnicate now")
	assert.Contains(t, text(m.server()), "Unknown command")
}

func TestSubmit_CommandError(t *testing.T) {
	m := newTestModel(t)

	typeLine(m, "/join #ankh")
	assert.Contains(t, text(m.server()), "not connected")
}

func TestSubmit_QueryFailure(t *testing.T) {
	m := newTestModel(t)

	typeLine(m, "/list")
	m.server().dispatcher.Wait()
	pump(m)

	assert.Contains(t, text(m.server()), "/list failed")
}

func TestJoin_OpensChannelView(t *testing.T) {
	m := newTestModel(t)
	v := joinAnkh(m)

	require.NotNil(t, v)
	assert.Equal(t, channelView, v.kind)
	assert.Same(t, v, m.activeView())
	require.NotNil(t, v.dispatcher.Channel())
	assert.Equal(t, "#ankh", v.dispatcher.Channel().Name())
	assert.Contains(t, m.input.Prompt, "[#ankh]")
	assert.Contains(t, text(v), "Twoflower joined #ankh")

	ircEvent(m, "JOIN", map[string]string{"nick": "Rincewind", "channel": "#ankh"})
	assert.Equal(t, []string{"Rincewind"}, v.users)
}

func TestNames_PopulateUsers(t *testing.T) {
	m := newTestModel(t)
	v := joinAnkh(m)

	ircEvent(m, "NAMES", map[string]string{"channel": "#ankh", "users": "@Rincewind +Twoflower"})
	ircEvent(m, "NAMES", map[string]string{"channel": "#ankh", "users": "~Vetinari Rincewind"})
	assert.Empty(t, v.users)

	ircEvent(m, "ENDOFNAMES", map[string]string{"channel": "#ankh"})
	assert.Equal(t, []string{"Rincewind", "Twoflower", "Vetinari"}, v.users)
	assert.Contains(t, m.View(), "3 here")
}

func TestPart_ClosesView(t *testing.T) {
	m := newTestModel(t)
	joinAnkh(m)

	ircEvent(m, "PART", map[string]string{"nick": "Twoflower", "channel": "#ankh"})

	assert.Nil(t, m.findView("#ankh"))
	assert.Same(t, m.server(), m.activeView())
	assert.Equal(t, "> ", m.input.Prompt)
}

func TestClear_OnlyActiveView(t *testing.T) {
	m := newTestModel(t)
	v := joinAnkh(m)
	require.NotEmpty(t, v.messages)

	typeLine(m, "/clear")

	assert.Empty(t, v.messages)
	assert.NotEmpty(t, m.server().messages)
}

func TestClearAll_EveryView(t *testing.T) {
	m := newTestModel(t)
	v := joinAnkh(m)

	typeLine(m, "/clearall")

	assert.Empty(t, v.messages)
	assert.Empty(t, m.server().messages)
}

func TestViewUser_OpensQuery(t *testing.T) {
	m := newTestModel(t)

	m.Update(viewUserMsg{nick: "Rincewind", text: "run!"})

	v := m.findView("rincewind")
	require.NotNil(t, v)
	assert.Equal(t, queryView, v.kind)
	assert.Nil(t, v.dispatcher.Channel())
	assert.Same(t, v, m.activeView())
	assert.Contains(t, text(v), "run!")
}

func TestPrivmsg(t *testing.T) {
	m := newTestModel(t)
	v := joinAnkh(m)

	ircEvent(m, "PRIVMSG", map[string]string{"nick": "Rincewind", "target": "#ankh", "message": "\x01ACTION runs\x01"})
	assert.Contains(t, text(v), "* Rincewind runs")
	assert.Equal(t, []string{"Rincewind"}, v.users)

	ircEvent(m, "PRIVMSG", map[string]string{"nick": "Luggage", "target": "Twoflower", "message": "..."})
	q := m.findView("Luggage")
	require.NotNil(t, q)
	assert.Equal(t, queryView, q.kind)
	assert.Contains(t, text(q), "Luggage")
}

func TestNickAndQuit(t *testing.T) {
	m := newTestModel(t)
	v := joinAnkh(m)
	ircEvent(m, "JOIN", map[string]string{"nick": "Rincewind", "channel": "#ankh"})
	m.Update(viewUserMsg{nick: "Rincewind", text: "hi"})

	ircEvent(m, "NICK", map[string]string{"nick": "Rincewind", "new": "Rinso"})
	assert.Equal(t, []string{"Rinso"}, v.users)
	assert.NotNil(t, m.findView("Rinso"))
	assert.Contains(t, text(v), "Rincewind is now known as Rinso")

	ircEvent(m, "QUIT", map[string]string{"nick": "Rinso", "reason": "running"})
	assert.Empty(t, v.users)
	assert.Contains(t, text(v), "Rinso has quit (running)")
}

func TestDisplay_HTMLTable(t *testing.T) {
	m := newTestModel(t)

	m.Update(displayMsg{
		view: "irc.example.org",
		text: "<table><tr><th>Channel</th><th>Users</th></tr><tr><td>#ankh</td><td>12</td></tr></table>",
		opts: command.DisplayOptions{HTML: true},
	})

	out := text(m.server())
	assert.Contains(t, out, "Channel")
	assert.Contains(t, out, "#ankh")
	assert.Contains(t, out, "12")
	assert.NotContains(t, out, "<td>")
}

func TestDisplay_UnknownViewFallsBackToServer(t *testing.T) {
	m := newTestModel(t)

	m.Update(displayMsg{view: "#gone", text: "late reply", opts: command.DisplayOptions{Timestamp: true}, at: time.Now()})
	assert.Contains(t, text(m.server()), "late reply")
}

func TestHistory(t *testing.T) {
	m := newTestModel(t)
	typeLine(m, "/first")
	typeLine(m, "/second")
	typeLine(m, "/second")
	assert.Equal(t, []string{"/first", "/second"}, m.inputHistory)

	m.input.SetValue("draft")
	up := tea.KeyMsg{Type: tea.KeyUp}
	down := tea.KeyMsg{Type: tea.KeyDown}

	m.Update(up)
	assert.Equal(t, "/second", m.input.Value())
	m.Update(up)
	assert.Equal(t, "/first", m.input.Value())
	m.Update(up)
	assert.Equal(t, "/first", m.input.Value())
	m.Update(down)
	assert.Equal(t, "/second", m.input.Value())
	m.Update(down)
	assert.Equal(t, "draft", m.input.Value())
}

func TestFocusCycle(t *testing.T) {
	m := newTestModel(t)
	tab := tea.KeyMsg{Type: tea.KeyTab}

	m.Update(tab)
	assert.Equal(t, focusChannels, m.currentFocus)
	m.Update(tab)
	assert.Equal(t, focusChat, m.currentFocus)
	// no users sidebar in the server view
	m.Update(tab)
	assert.Equal(t, focusInput, m.currentFocus)
}

func TestChannelsSidebar_SwitchView(t *testing.T) {
	m := newTestModel(t)
	joinAnkh(m)
	require.Equal(t, 1, m.active)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, 0, m.active)
	assert.Equal(t, focusInput, m.currentFocus)
}

func TestHelp(t *testing.T) {
	m := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyF1})
	out := m.View()
	assert.Contains(t, out, "slashirc help")
	assert.Contains(t, out, "/clearall")
}

func TestPrivmsg_StripsFormatting(t *testing.T) {
	m := newTestModel(t)
	v := joinAnkh(m)

	ircEvent(m, "PRIVMSG", map[string]string{"nick": "Rincewind", "target": "#ankh", "message": "\x02run\x02 \x0304,01now\x0f!"})

	out := text(v)
	assert.Contains(t, out, "run now!")
	assert.NotContains(t, out, "\x03")
	assert.NotContains(t, out, "\x02")
}

func TestPrivmsg_CTCPRequestNotShownRaw(t *testing.T) {
	m := newTestModel(t)

	ircEvent(m, "PRIVMSG", map[string]string{"nick": "Rincewind", "target": "Twoflower", "message": "\x01VERSION\x01"})

	assert.Nil(t, m.findView("Rincewind"))
	assert.Contains(t, text(m.server()), "[Rincewind VERSION] requested")
}

func TestNotice_CTCPReplies(t *testing.T) {
	m := newTestModel(t)

	ircEvent(m, "NOTICE", map[string]string{"sender": "Rincewind", "target": "Twoflower", "message": "\x01VERSION Octavo 1.0\x01"})
	assert.Contains(t, text(m.server()), "[Rincewind VERSION reply]: Octavo 1.0")

	sent := time.Now().Add(-1500 * time.Millisecond).UnixMilli()
	ircEvent(m, "NOTICE", map[string]string{"sender": "Rincewind", "target": "Twoflower", "message": "\x01PING " + strconv.FormatInt(sent, 10) + "\x01"})
	assert.Contains(t, text(m.server()), "[Rincewind PING reply]: 1.5")

	ircEvent(m, "NOTICE", map[string]string{"sender": "Rincewind", "target": "Twoflower", "message": "\x01PING garbage\x01"})
	assert.Contains(t, text(m.server()), "[Rincewind PING reply]: garbage")
}

func TestNotice_StripsFormatting(t *testing.T) {
	m := newTestModel(t)

	ircEvent(m, "NOTICE", map[string]string{"sender": "ChanServ", "target": "Twoflower", "message": "\x1fwelcome\x1f back"})
	assert.Contains(t, text(m.server()), "[ChanServ] welcome back")
}

func TestUsersSidebar_CTCPRequest(t *testing.T) {
	m := newTestModel(t)
	joinAnkh(m)
	ircEvent(m, "JOIN", map[string]string{"nick": "Rincewind", "channel": "#ankh"})
	m.setFocus(focusUsers)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("v")})

	assert.Contains(t, text(m.server()), "not connected")
}

func TestTopic(t *testing.T) {
	m := newTestModel(t)
	v := joinAnkh(m)

	ircEvent(m, "TOPIC", map[string]string{"channel": "#ankh", "topic": "\x02Octarine\x02 sightings"})
	assert.Contains(t, text(v), "Topic for #ankh: Octarine sightings")

	ircEvent(m, "TOPIC", map[string]string{"nick": "Vetinari", "channel": "#ankh", "topic": "Order"})
	assert.Contains(t, text(v), "Vetinari changed the topic of #ankh to: Order")
}

func TestError_ChannelNumerics(t *testing.T) {
	m := newTestModel(t)
	joinAnkh(m)

	ircEvent(m, "ERROR", map[string]string{"code": "474", "channel": "#ankh"})
	assert.Contains(t, text(m.findView("#ankh")), "Banned from channel: #ankh")

	ircEvent(m, "ERROR", map[string]string{"code": "403", "channel": "#ankh"})
	assert.Nil(t, m.findView("#ankh"))
}

func TestError_LocalizedChannelNumerics(t *testing.T) {
	da, err := i18n.Load("da")
	require.NoError(t, err)

	m := New(Options{
		Session:      irc.NewSession(irc.NewConfig("Twoflower")),
		Host:         "irc.example.org",
		Port:         6667,
		Registration: command.RegistrationInfo{Nick: "Twoflower"},
		Catalog:      da,
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	t.Cleanup(m.Close)

	ircEvent(m, "ERROR", map[string]string{"code": "475", "channel": "#ankh"})
	assert.Contains(t, text(m.server()), "Forkert kanalnøgle: #ankh")
}
