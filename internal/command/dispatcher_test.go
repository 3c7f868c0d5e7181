package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eznix86/slashirc/internal/event"
	"github.com/eznix86/slashirc/internal/htmltable"
)

func TestIsCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"/cmd", true},
		{"/", true},
		{"A Message", false},
		{"hello /msg", false},
		{"", false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, IsCommand(tc.input), "IsCommand(%q)", tc.input)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		input string
		want  Line
	}{
		{"/msg", Line{Verb: "msg"}},
		{"/msg ", Line{Verb: "msg"}},
		{"/MSG Rincewind hi", Line{Verb: "msg", Content: "Rincewind hi"}},
		{"/topic   spaced out  ", Line{Verb: "topic", Content: "spaced out"}},
		{"/", Line{}},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseLine(tc.input), "ParseLine(%q)", tc.input)
	}
}

func TestHandle_Msg(t *testing.T) {
	h := newHarness(t, "")

	h.handle(t,
		"/msg",
		"/msg ",
		"/msg Twoflower messaging myself",
		"/msg TWOFLOWER messaging myself",
		"/msg twoflower messaging myself",
		"/msg Rincewind",
		"/msg Rincewind Would you like some cheese?",
	)

	assert.Equal(t, []string{`sendMessage [Rincewind] "Would you like some cheese?"`}, h.rec.Calls())
}

func TestHandle_MsgKnownUserPublishesViewUser(t *testing.T) {
	h := newHarness(t, "")
	rincewind := &fakeUser{nick: "Rincewind"}
	h.session.users["rincewind"] = rincewind

	var got []Notification
	h.d.Subscribe(TopicViewUser, func(n Notification) { got = append(got, n) })

	h.handle(t, "/msg Rincewind Would you like some cheese?", "/msg Luggage hello")

	require.Len(t, got, 1)
	assert.Same(t, rincewind, got[0].User)
	assert.Equal(t, "Would you like some cheese?", got[0].Text)
	assert.Equal(t, 2, h.rec.Count("sendMessage"))
}

func TestHandle_Notice(t *testing.T) {
	h := newHarness(t, "")

	h.handle(t,
		"/notice",
		"/notice ",
		"/notice Twoflower noticing myself",
		"/notice Rincewind",
		"/notice Rincewind Would you like some cheese?",
	)

	assert.Equal(t, []string{`sendNotice [Rincewind] "Would you like some cheese?"`}, h.rec.Calls())
}

func TestHandle_Kick(t *testing.T) {
	h := newHarness(t, "#testing")

	h.handle(t, "/kick", "/kick ", "/kick Twoflower", "/kick Twoflower bloody tourist")

	assert.Equal(t, []string{
		`kick #testing Twoflower ""`,
		`kick #testing Twoflower "bloody tourist"`,
	}, h.rec.Calls())
}

func TestHandle_Ban(t *testing.T) {
	h := newHarness(t, "#testing")

	h.handle(t, "/ban", "/ban ", "/ban *!*@localhost")

	assert.Equal(t, []string{"ban #testing *!*@localhost"}, h.rec.Calls())
}

func TestHandle_Away(t *testing.T) {
	h := newHarness(t, "")

	h.handle(t, "/away", "/away gone fishing")
	h.session.local.away = true
	h.handle(t, "/away")

	assert.Equal(t, []string{`setAway ""`, `setAway "gone fishing"`, "unsetAway"}, h.rec.Calls())
}

func TestHandle_Join(t *testing.T) {
	h := newHarness(t, "")

	h.handle(t, "/join", "/join ", "/join #testing", "/join #testing luggage")

	assert.Equal(t, []string{
		`joinChannel #testing ""`,
		`joinChannel #testing "luggage"`,
	}, h.rec.Calls())
}

func TestHandle_Nick(t *testing.T) {
	h := newHarness(t, "")

	h.handle(t, "/nick", "/nick ", "/nick Wizzard")

	assert.Equal(t, []string{"setNickName Wizzard"}, h.rec.Calls())
}

func TestHandle_Quit(t *testing.T) {
	h := newHarness(t, "#testing")

	h.handle(t, "/quit", "/quit Bye cruel world")

	assert.Equal(t, []string{`quit ""`, `quit "Bye cruel world"`}, h.rec.Calls())
}

func TestHandle_Part(t *testing.T) {
	h := newHarness(t, "#testing")

	h.handle(t, "/part", "/part Screw you guys, I'm going home")

	assert.Equal(t, []string{
		`part #testing ""`,
		`part #testing "Screw you guys, I'm going home"`,
	}, h.rec.Calls())
}

func TestHandle_ChannelCommandsNeedChannel(t *testing.T) {
	h := newHarness(t, "")

	h.handle(t,
		"/part",
		"/kick Twoflower",
		"/ban *!*@localhost",
		"/me waves",
		"/topic Ankh-Morpork on Fire!",
		"/invite Twoflower",
		"/hop",
		"/mode #testing +m",
	)

	assert.Empty(t, h.rec.Calls())
	assert.Empty(t, h.screen.Lines())
}

func TestHandle_ChannelMode(t *testing.T) {
	h := newHarness(t, "#testing")

	h.handle(t,
		"/mode",
		"/mode ",
		"/mode #testing",
		"/mode #testing +m",
		"/mode #TESTING +o Twoflower",
		"/mode #elsewhere +m",
		"/mode #testing +ov Twoflower Rincewind",
	)

	assert.Equal(t, []string{
		"setChannelModes #testing +m []",
		`setChannelModes #testing +o ["Twoflower"]`,
	}, h.rec.Calls())
}

func TestHandle_UserMode(t *testing.T) {
	h := newHarness(t, "")

	h.handle(t,
		"/mode Twoflower",
		"/mode Twoflower +i",
		"/mode TWOFLOWER -w",
		"/mode Rincewind +i",
		"/mode #testing +m",
	)

	assert.Equal(t, []string{"setModes +i", "setModes -w"}, h.rec.Calls())
}

func TestHandle_Me(t *testing.T) {
	h := newHarness(t, "#testing")

	h.handle(t, "/me", "/me ", "/me slaps Twoflower around a bit with a large trout")

	assert.Equal(t, []string{`action [#testing] "slaps Twoflower around a bit with a large trout"`}, h.rec.Calls())

	lines := h.screen.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Twoflower", lines[0].source.NickName())
	assert.Equal(t, "slaps Twoflower around a bit with a large trout", lines[0].text)
}

func TestHandle_Topic(t *testing.T) {
	h := newHarness(t, "#testing")

	h.handle(t, "/topic", "/topic ", "/topic Ankh-Morpork on Fire!")

	assert.Equal(t, []string{`setTopic #testing "Ankh-Morpork on Fire!"`}, h.rec.Calls())
}

func TestHandle_Invite(t *testing.T) {
	h := newHarness(t, "#testing")

	h.handle(t, "/invite", "/invite ", "/invite Twoflower")

	assert.Equal(t, []string{"invite #testing Twoflower"}, h.rec.Calls())
}

func TestHandle_Hop(t *testing.T) {
	t.Run("same channel", func(t *testing.T) {
		h := newHarness(t, "#testing")
		h.handle(t, "/hop")
		assert.Equal(t, []string{`part #testing ""`, `joinChannel #testing ""`}, h.rec.Calls())
	})

	t.Run("new channel", func(t *testing.T) {
		h := newHarness(t, "#testing")
		h.handle(t, "/hop #foobar")
		assert.Equal(t, []string{`part #testing ""`, `joinChannel #foobar ""`}, h.rec.Calls())
	})

	t.Run("part failure skips join", func(t *testing.T) {
		h := newHarness(t, "#testing")
		h.channel.err = errors.New("broken pipe")

		err := h.d.Handle(context.Background(), "/hop", nil)

		assert.ErrorIs(t, err, h.channel.err)
		assert.Equal(t, []string{`part #testing ""`}, h.rec.Calls())
	})
}

func TestHandle_Raw(t *testing.T) {
	h := newHarness(t, "")

	h.handle(t, "/raw", "/raw ", "/raw JOIN :#foobar")

	assert.Equal(t, []string{`sendRawMessage "JOIN :#foobar"`}, h.rec.Calls())
}

func TestHandle_Server(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/server irc.quakenet.org", "connect irc.quakenet.org 6667 Twoflower"},
		{"/server irc.quakenet.org:6668", "connect irc.quakenet.org 6668 Twoflower"},
		{"/server 127.0.0.1:6667", "connect 127.0.0.1 6667 Twoflower"},
		{"/server 127.0.0.1:6668", "connect 127.0.0.1 6668 Twoflower"},
		{"/server irc.libera.chat/7000", "connect irc.libera.chat 7000 Twoflower"},
		{"/server irc.quakenet.org:port", "connect irc.quakenet.org 6667 Twoflower"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			h := newHarness(t, "")
			h.handle(t, "/server", "/server ", tc.input)
			assert.Equal(t, []string{"disconnect", tc.want}, h.rec.Calls())
		})
	}
}

func TestHandle_ServerIgnoredInChannel(t *testing.T) {
	h := newHarness(t, "#testing")

	h.handle(t, "/server irc.quakenet.org")

	assert.Empty(t, h.rec.Calls())
}

func TestHandle_Clear(t *testing.T) {
	h := newHarness(t, "#testing")

	cleared := 0
	h.d.Subscribe(TopicClear, func(Notification) { cleared++ })

	h.handle(t, "/clear")

	assert.Equal(t, 1, cleared)
	assert.Empty(t, h.rec.Calls())
}

func TestHandle_ClearAllReachesEveryDispatcher(t *testing.T) {
	bus := event.NewBus[Notification]()
	first := newHarness(t, "#testing", WithBroadcaster(bus))
	second := newHarness(t, "", WithBroadcaster(bus))

	clearedA, clearedB := 0, 0
	unsubscribe := bus.Subscribe(TopicClearAll, func(Notification) { clearedA++ })
	defer unsubscribe()
	bus.Subscribe(TopicClearAll, func(Notification) { clearedB++ })

	// local clear subscribers must not see clearAll
	local := 0
	first.d.Subscribe(TopicClear, func(Notification) { local++ })

	first.handle(t, "/clearall")
	second.handle(t, "/CLEARALL")

	assert.Equal(t, 2, clearedA)
	assert.Equal(t, 2, clearedB)
	assert.Equal(t, 0, local)
}

func TestHandle_ListSortsByUserCount(t *testing.T) {
	h := newHarness(t, "")
	h.session.channels = []ChannelInfo{
		{Name: "#unseen", VisibleUserCount: 27, Topic: "Unseen University"},
		{Name: "#watch", VisibleUserCount: 17, Topic: "City Watch"},
		{Name: "#guild", VisibleUserCount: 37, Topic: "Thieves' Guild"},
	}

	h.handle(t, "/list")
	h.d.Wait()

	assert.Equal(t, []string{"listChannels []"}, h.rec.Calls())

	lines := h.screen.Lines()
	require.Len(t, lines, 1)
	assert.Nil(t, lines[0].source)
	assert.Equal(t, DisplayOptions{Timestamp: false, HTML: true}, lines[0].opts)

	headers, rows, err := htmltable.Parse(lines[0].text)
	require.NoError(t, err)
	assert.Equal(t, []string{"Channel", "Users", "Topic"}, headers)
	assert.Equal(t, [][]string{
		{"#guild", "37", "Thieves' Guild"},
		{"#unseen", "27", "Unseen University"},
		{"#watch", "17", "City Watch"},
	}, rows)
}

func TestHandle_ListBounds(t *testing.T) {
	h := newHarness(t, "")
	h.session.channels = []ChannelInfo{
		{Name: "#unseen", VisibleUserCount: 27},
		{Name: "#watch", VisibleUserCount: 17},
		{Name: "#guild", VisibleUserCount: 37},
	}

	h.handle(t, "/list * -MIN 20 -MAX 27")
	h.d.Wait()

	assert.Equal(t, []string{`listChannels ["*"]`}, h.rec.Calls())

	lines := h.screen.Lines()
	require.Len(t, lines, 1)
	_, rows, err := htmltable.Parse(lines[0].text)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "#unseen", rows[0][0])
}

func TestHandle_ListPreconditions(t *testing.T) {
	t.Run("bound to channel", func(t *testing.T) {
		h := newHarness(t, "#testing")
		h.handle(t, "/list", "/who")
		assert.Empty(t, h.rec.Calls())
	})

	t.Run("no display", func(t *testing.T) {
		h := newHarness(t, "")
		require.NoError(t, h.d.Handle(context.Background(), "/list", nil))
		require.NoError(t, h.d.Handle(context.Background(), "/who", nil))
		assert.Empty(t, h.rec.Calls())
	})
}

func TestHandle_Who(t *testing.T) {
	h := newHarness(t, "")
	h.session.who = []UserInfo{
		{ChannelName: "#unseen", NickName: "Rincewind", IsAway: true},
		{ChannelName: "#unseen", NickName: "Twoflower"},
	}

	h.handle(t, "/who #unseen")
	h.d.Wait()

	assert.Equal(t, []string{`queryWho "#unseen"`}, h.rec.Calls())

	lines := h.screen.Lines()
	require.Len(t, lines, 1)
	assert.True(t, lines[0].opts.HTML)

	headers, rows, err := htmltable.Parse(lines[0].text)
	require.NoError(t, err)
	assert.Equal(t, []string{"Channel", "Nick", "Status"}, headers)
	assert.Equal(t, [][]string{
		{"#unseen", "Rincewind", "Away"},
		{"#unseen", "Twoflower", "Online"},
	}, rows)
}

func TestHandle_QueryInFlightIsRejected(t *testing.T) {
	h := newHarness(t, "")
	h.session.block = make(chan struct{})

	h.handle(t, "/list")

	err := h.d.Handle(context.Background(), "/list", h.screen.display)
	assert.ErrorIs(t, err, ErrQueryInFlight)

	// /who has its own slot
	h.handle(t, "/who")

	close(h.session.block)
	h.d.Wait()

	assert.Equal(t, 1, h.rec.Count("listChannels"))
	assert.Len(t, h.screen.Lines(), 2)

	h.handle(t, "/list")
	h.d.Wait()
	assert.Equal(t, 2, h.rec.Count("listChannels"))
}

func TestHandle_QueryTimeout(t *testing.T) {
	h := newHarness(t, "", WithQueryTimeout(20*time.Millisecond))
	h.session.block = make(chan struct{})

	h.handle(t, "/list")
	h.d.Wait()

	lines := h.screen.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "No reply from the server to /list", lines[0].text)
	assert.False(t, lines[0].opts.HTML)
}

func TestHandle_QueryCanceledByCaller(t *testing.T) {
	h := newHarness(t, "")
	h.session.block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, h.d.Handle(ctx, "/who", h.screen.display))
	cancel()
	h.d.Wait()

	assert.Empty(t, h.screen.Lines())
}

func TestHandle_QueryFailure(t *testing.T) {
	h := newHarness(t, "")
	h.session.queryErr = errors.New("not connected")

	h.handle(t, "/who")
	h.d.Wait()

	lines := h.screen.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "/who failed: not connected", lines[0].text)
}

func TestHandle_CollaboratorErrorsPropagate(t *testing.T) {
	h := newHarness(t, "")
	boom := errors.New("connection reset")
	h.session.err = boom

	err := h.d.Handle(context.Background(), "/join #testing", nil)

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "/join")
}

func TestHandle_UnknownCommand(t *testing.T) {
	h := newHarness(t, "")

	h.handle(t, "/frobnicate now", "/")
	require.NoError(t, h.d.Handle(context.Background(), "/frobnicate", nil))

	lines := h.screen.Lines()
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Nil(t, l.source)
		assert.Equal(t, "Unknown command", l.text)
	}
	assert.Empty(t, h.rec.Calls())
}

func TestHandle_EveryVerbIsSafe(t *testing.T) {
	inputs := []string{
		"/msg Rincewind hi", "/notice Rincewind hi", "/kick Rincewind", "/ban *!*@host",
		"/away", "/join #x", "/nick Wizzard", "/quit", "/part", "/mode #x +m",
		"/me waves", "/topic t", "/invite Rincewind", "/hop", "/raw PING x",
		"/server irc.example.org", "/clear", "/clearall", "/list", "/who", "/unknown",
	}

	for _, scope := range []string{"", "#x"} {
		h := newHarness(t, scope)
		for _, in := range inputs {
			for _, variant := range []string{in, ParseLine(in).Verb, "/" + ParseLine(in).Verb + " "} {
				if !IsCommand(variant) {
					variant = "/" + variant
				}
				assert.NotPanics(t, func() {
					assert.NoError(t, h.d.Handle(context.Background(), variant, h.screen.display))
				}, "scope=%q input=%q", scope, variant)
				h.d.Wait()
			}
		}
	}
}

func TestVerbs(t *testing.T) {
	assert.ElementsMatch(t, []string{
		"msg", "notice", "kick", "ban", "away", "join", "nick", "quit", "part", "mode",
		"me", "topic", "invite", "hop", "raw", "server", "clear", "clearall", "list", "who",
	}, Verbs())
}
