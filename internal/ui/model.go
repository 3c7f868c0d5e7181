// Package ui is the terminal front end: a bubbletea program with one view
// per conversation, each backed by its own slash-command dispatcher.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eznix86/slashirc/internal/command"
	"github.com/eznix86/slashirc/internal/event"
	"github.com/eznix86/slashirc/internal/i18n"
	"github.com/eznix86/slashirc/internal/irc"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusChannels
	focusChat
	focusUsers
)

// Messages marshalled into the bubbletea loop.
type (
	displayMsg struct {
		view   string
		source string
		text   string
		opts   command.DisplayOptions
		at     time.Time
	}
	clearMsg    struct{ view string }
	clearAllMsg struct{}
	viewUserMsg struct{ nick, text string }
	tickMsg     time.Time
)

// Options configures a Model.
type Options struct {
	Session      *irc.Session
	Host         string
	Port         int
	Registration command.RegistrationInfo
	Catalog      *i18n.Catalog
	QueryTimeout time.Duration
	Verbose      bool
	Logger       *slog.Logger
}

// Model is the bubbletea model of the client.
type Model struct {
	width, height int

	channelsView viewport.Model // Left sidebar - views list
	chat         viewport.Model // Center - messages of the active view
	usersView    viewport.Model // Right sidebar - users of the active channel
	input        textinput.Model

	views           []*view
	active          int
	currentTime     time.Time
	currentFocus    focusArea
	selectedViewIdx int
	selectedUserIdx int
	showHelp        bool

	inputHistory []string // Command history
	historyIndex int      // Current position in history (-1 = not browsing)
	historyTemp  string   // Current input while browsing history

	session      *irc.Session
	host         string
	port         int
	reg          command.RegistrationInfo
	bus          *event.Bus[command.Notification]
	text         *i18n.Catalog
	nicks        *command.NickComparer
	queryTimeout time.Duration
	verbose      bool
	logger       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	msgs   chan tea.Msg

	ircEventHandlers map[string]IRCEventHandler
	unsubscribe      func()
}

// New builds the model and registers its IRC handlers on the session. The
// connection is opened by Init.
func New(opts Options) *Model {
	inp := textinput.New()
	inp.Placeholder = "Type a message or /command..."
	inp.Prompt = "> "
	inp.Width = 100
	inp.Focus()

	text := opts.Catalog
	if text == nil {
		text = i18n.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		channelsView:     viewport.New(sidebarWidth, 20),
		chat:             viewport.New(80, 20),
		usersView:        viewport.New(sidebarWidth, 20),
		input:            inp,
		currentTime:      time.Now(),
		currentFocus:     focusInput,
		historyIndex:     -1,
		session:          opts.Session,
		host:             opts.Host,
		port:             opts.Port,
		reg:              opts.Registration,
		bus:              event.NewBus[command.Notification](),
		text:             text,
		nicks:            command.NewNickComparer(text.Language()),
		queryTimeout:     opts.QueryTimeout,
		verbose:          opts.Verbose,
		logger:           logger.With("component", "ui"),
		ctx:              ctx,
		cancel:           cancel,
		msgs:             make(chan tea.Msg, 100),
		ircEventHandlers: make(map[string]IRCEventHandler),
	}

	m.unsubscribe = m.bus.Subscribe(command.TopicClearAll, func(command.Notification) {
		m.post(clearAllMsg{})
	})

	m.ensureView(m.host, serverView)
	m.registerIRCEventHandlers()
	m.setupIRCHandlers()

	m.server().addMessage(m.fmtSys(now(), m.text.T("CONNECTING", m.host, strconv.Itoa(m.port))))
	m.refresh()
	return m
}

// post hands msg to the bubbletea loop. It never blocks, so it is safe to
// call from Update itself.
func (m *Model) post(msg tea.Msg) {
	select {
	case m.msgs <- msg:
	default:
		go func() {
			select {
			case m.msgs <- msg:
			case <-m.ctx.Done():
			}
		}()
	}
}

func waitForMsg(msgs chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-msgs
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) connectIRC() tea.Cmd {
	return func() tea.Msg {
		if err := m.session.Connect(m.host, m.port, m.reg); err != nil {
			return ircMessage{
				Type:      "ERROR",
				Timestamp: now(),
				Data:      map[string]string{"message": err.Error()},
			}
		}
		return nil
	}
}

// Close cancels outstanding queries and waits for them to finish.
func (m *Model) Close() {
	m.cancel()
	for _, v := range m.views {
		v.close()
		v.dispatcher.Wait()
	}
	m.unsubscribe()
}

// ─────────────────────────── VIEWS ───────────────────────────

func (m *Model) newDispatcher(scope command.ChannelControl) *command.Dispatcher {
	return command.New(m.session, m.session.CTCP(), scope,
		command.WithBroadcaster(m.bus),
		command.WithTranslator(m.text),
		command.WithNickComparer(m.nicks),
		command.WithQueryTimeout(m.queryTimeout),
		command.WithLogger(m.logger),
	)
}

func (m *Model) findView(name string) *view {
	for _, v := range m.views {
		if v.kind != serverView && strings.EqualFold(v.name, name) {
			return v
		}
	}
	return nil
}

// ensureView returns the view for name, creating it if needed.
func (m *Model) ensureView(name string, kind viewKind) *view {
	if kind == serverView && len(m.views) > 0 {
		return m.views[0]
	}
	if v := m.findView(name); v != nil {
		return v
	}

	var scope command.ChannelControl
	if kind == channelView {
		scope = m.session.Channel(name)
	}

	v := &view{name: name, kind: kind, dispatcher: m.newDispatcher(scope)}
	v.unsubscribe = append(v.unsubscribe,
		v.dispatcher.Subscribe(command.TopicClear, func(command.Notification) {
			m.post(clearMsg{view: v.name})
		}),
		v.dispatcher.Subscribe(command.TopicViewUser, func(n command.Notification) {
			if n.User != nil {
				m.post(viewUserMsg{nick: n.User.NickName(), text: n.Text})
			}
		}),
	)
	m.views = append(m.views, v)
	return v
}

// closeView drops a channel or query view. The server view stays.
func (m *Model) closeView(name string) {
	idx := slices.IndexFunc(m.views, func(v *view) bool {
		return v.kind != serverView && strings.EqualFold(v.name, name)
	})
	if idx == -1 {
		return
	}

	m.views[idx].close()
	m.views = slices.Delete(m.views, idx, idx+1)

	if m.active >= idx {
		m.active = max(0, m.active-1)
	}
	if m.selectedViewIdx >= len(m.views) {
		m.selectedViewIdx = len(m.views) - 1
	}
	m.updatePrompt()
}

func (m *Model) server() *view {
	return m.views[0]
}

func (m *Model) activeView() *view {
	return m.views[m.active]
}

func (m *Model) viewByKey(name string) *view {
	if v := m.findView(name); v != nil {
		return v
	}
	return m.server()
}

func (m *Model) activate(v *view) {
	idx := slices.Index(m.views, v)
	if idx == -1 {
		return
	}
	m.active = idx
	m.selectedViewIdx = idx
	m.selectedUserIdx = 0
	m.updatePrompt()
}

func (m *Model) updatePrompt() {
	v := m.activeView()
	if v.kind == serverView {
		m.input.Prompt = "> "
		return
	}
	m.input.Prompt = activeStyle.Render("["+v.name+"]") + " > "
}

func (m *Model) localNick() string {
	if nick := m.session.LocalUser().NickName(); nick != "" {
		return nick
	}
	return m.reg.Nick
}

func (m *Model) isLocalNick(nick string) bool {
	return m.nicks.Equal(nick, m.localNick())
}

// ─────────────────────────── INPUT ───────────────────────────

// displayTo returns the display callback for the view called name.
func (m *Model) displayTo(name string) command.DisplayFunc {
	return func(source command.User, text string, opts command.DisplayOptions) {
		msg := displayMsg{view: name, text: text, opts: opts, at: time.Now()}
		if source != nil {
			msg.source = source.NickName()
		}
		m.post(msg)
	}
}

func (m *Model) submit(input string) {
	v := m.activeView()

	if command.IsCommand(input) {
		err := v.dispatcher.Handle(m.ctx, input, m.displayTo(v.name))
		switch {
		case err == nil:
		case errors.Is(err, command.ErrQueryInFlight):
			v.addMessage(m.fmtErr(now(), m.text.T("QUERY_IN_FLIGHT", command.ParseLine(input).Verb)))
		default:
			m.logger.Warn("command failed", "input", input, "error", err)
			v.addMessage(m.fmtErr(now(), err.Error()))
		}
		m.refresh()
		return
	}

	switch {
	case v.kind == serverView:
		v.addMessage(m.fmtErr(now(), m.text.T("NOT_IN_CHANNEL")))
	case !m.session.Connected():
		v.addMessage(m.fmtErr(now(), m.text.T("NOT_CONNECTED")))
	default:
		if err := m.session.SendMessage([]string{v.name}, input); err != nil {
			v.addMessage(m.fmtErr(now(), err.Error()))
			break
		}
		// Most IRC servers don't echo your own messages
		v.addMessage(m.fmtMsg(now(), m.localNick(), input))
	}
	m.refresh()
}

func (m *Model) showDisplay(msg displayMsg) {
	v := m.viewByKey(msg.view)

	ts := noTimestamp
	if msg.opts.Timestamp {
		ts = msg.at.Format("15:04")
	}

	switch {
	case msg.opts.HTML:
		rendered, err := m.renderTable(msg.text)
		if err != nil {
			m.logger.Warn("unreadable table", "error", err)
			v.addMessage(m.fmtErr(ts, err.Error()))
			break
		}
		v.addMessage(rendered)
	case msg.source != "":
		v.addMessage(m.fmtAction(ts, msg.source, msg.text))
	default:
		v.addMessage(m.fmtSys(ts, msg.text))
	}
	m.refresh()
}

func (m *Model) addToHistory(input string) {
	// Avoid duplicates of last command
	if len(m.inputHistory) == 0 || m.inputHistory[len(m.inputHistory)-1] != input {
		m.inputHistory = append(m.inputHistory, input)
		// Keep only last 100 commands
		if len(m.inputHistory) > 100 {
			m.inputHistory = m.inputHistory[1:]
		}
	}
	m.historyIndex = -1
	m.historyTemp = ""
}

// ─────────────────────────── BUBBLETEA ───────────────────────────

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.connectIRC(), waitForMsg(m.msgs))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowResize(msg)
		return m, nil

	case tickMsg:
		m.currentTime = time.Time(msg)
		return m, tickCmd()

	case ircMessage:
		m.handleIRCMessage(msg)
		return m, waitForMsg(m.msgs)

	case displayMsg:
		m.showDisplay(msg)
		return m, waitForMsg(m.msgs)

	case clearMsg:
		m.viewByKey(msg.view).clear()
		m.refresh()
		return m, waitForMsg(m.msgs)

	case clearAllMsg:
		for _, v := range m.views {
			v.clear()
		}
		m.refresh()
		return m, waitForMsg(m.msgs)

	case viewUserMsg:
		v := m.ensureView(msg.nick, queryView)
		m.activate(v)
		v.addMessage(m.fmtMsg(now(), m.localNick(), msg.text))
		m.refresh()
		return m, waitForMsg(m.msgs)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	// Only update input if it's focused
	if m.currentFocus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return m.text.T("LOADING")
	}

	if m.showHelp {
		return m.renderHelp()
	}

	components := []string{
		m.renderSidebarBox(m.channelsView.View(), m.channelsView.Height, m.currentFocus == focusChannels),
		m.renderChatBox(m.chat.View(), m.currentFocus == focusChat),
	}
	if m.hasUsers() {
		components = append(components,
			m.renderSidebarBox(m.usersView.View(), m.usersView.Height, m.currentFocus == focusUsers))
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, components...)
	inputBox := inputBoxStyle.Width(m.width - 2).Render(m.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, row, inputBox, m.renderStatusBar())
}
