// Package command parses slash commands typed into a chat view and routes them
// to the IRC session, the channel the view is bound to, and the CTCP client.
//
// Malformed input never produces an error: commands missing a required
// argument are ignored, and unknown verbs are reported through the display
// callback. Handle only returns errors raised by the collaborators themselves,
// or ErrQueryInFlight.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/language"

	"github.com/eznix86/slashirc/internal/event"
	"github.com/eznix86/slashirc/internal/htmltable"
	"github.com/eznix86/slashirc/internal/i18n"
)

// DefaultQueryTimeout bounds how long /list and /who wait for the server.
const DefaultQueryTimeout = 30 * time.Second

// ErrQueryInFlight is returned when /list or /who is issued while the previous
// one on the same dispatcher is still waiting for its reply.
var ErrQueryInFlight = errors.New("previous query is still waiting for a reply")

// Translator looks up user-visible strings.
type Translator interface {
	T(key string, args ...any) string
}

type query int

const (
	queryList query = iota
	queryWho
	queryCount
)

func (q query) verb() string {
	if q == queryWho {
		return "who"
	}
	return "list"
}

// Dispatcher handles slash commands for one view. A dispatcher without a
// channel works at server/user scope and ignores channel-only commands.
type Dispatcher struct {
	session SessionControl
	aux     AuxProtocolControl
	channel ChannelControl

	events      *event.Bus[Notification]
	broadcaster *event.Bus[Notification]

	text         Translator
	nicks        *NickComparer
	logger       *slog.Logger
	queryTimeout time.Duration

	pending [queryCount]atomic.Bool
	wg      sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBroadcaster sets the bus shared by all dispatchers, used for clearAll.
func WithBroadcaster(b *event.Bus[Notification]) Option {
	return func(d *Dispatcher) { d.broadcaster = b }
}

// WithTranslator sets where user-visible strings come from.
func WithTranslator(t Translator) Option {
	return func(d *Dispatcher) { d.text = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithQueryTimeout bounds the wait for /list and /who replies.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.queryTimeout = timeout }
}

// WithNickComparer sets how nicknames are compared with the local user's.
func WithNickComparer(n *NickComparer) Option {
	return func(d *Dispatcher) { d.nicks = n }
}

// New creates a dispatcher. channel must be a nil interface (not a typed nil
// pointer) for server/user scope.
func New(session SessionControl, aux AuxProtocolControl, channel ChannelControl, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		session:      session,
		aux:          aux,
		channel:      channel,
		events:       event.NewBus[Notification](),
		queryTimeout: DefaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.broadcaster == nil {
		d.broadcaster = event.NewBus[Notification]()
	}
	if d.text == nil {
		d.text = i18n.Default()
	}
	if d.nicks == nil {
		d.nicks = NewNickComparer(language.Und)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.queryTimeout <= 0 {
		d.queryTimeout = DefaultQueryTimeout
	}

	d.logger = d.logger.With("component", "command")
	if channel != nil {
		d.logger = d.logger.With("channel", channel.Name())
	}
	return d
}

// Channel returns the channel this dispatcher is bound to, or nil.
func (d *Dispatcher) Channel() ChannelControl {
	return d.channel
}

// Subscribe registers fn for one of this dispatcher's own events (TopicClear,
// TopicViewUser). clearAll goes to the broadcaster instead.
func (d *Dispatcher) Subscribe(topic string, fn func(Notification)) (unsubscribe func()) {
	return d.events.Subscribe(topic, fn)
}

// Wait blocks until every /list and /who started by this dispatcher has
// delivered its result or given up.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Handle parses text and runs the command. display may be nil.
func (d *Dispatcher) Handle(ctx context.Context, text string, display DisplayFunc) error {
	line := ParseLine(text)

	handler, ok := commands[line.Verb]
	if !ok {
		d.logger.Debug("unknown command", "verb", line.Verb)
		if display != nil {
			display(nil, d.text.T("UNKNOWN_COMMAND"), DisplayOptions{Timestamp: true})
		}
		return nil
	}

	d.logger.Debug("handling command", "verb", line.Verb)
	if err := handler(d, ctx, line.Content, display); err != nil {
		return fmt.Errorf("/%s: %w", line.Verb, err)
	}
	return nil
}

func (d *Dispatcher) ignored(verb, reason string) error {
	d.logger.Debug("command ignored", "verb", verb, "reason", reason)
	return nil
}

func (d *Dispatcher) isLocalNick(nick string) bool {
	local := d.session.LocalUser()
	if local == nil {
		return false
	}
	return d.nicks.Equal(nick, local.NickName())
}

// startQuery runs fn on its own goroutine and hands the rendered table to
// display. At most one query of each kind is outstanding per dispatcher.
func (d *Dispatcher) startQuery(ctx context.Context, q query, display DisplayFunc, fn func(context.Context) (string, error)) error {
	if !d.pending[q].CompareAndSwap(false, true) {
		d.logger.Warn("query rejected", "verb", q.verb(), "reason", "in flight")
		return ErrQueryInFlight
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.pending[q].Store(false)

		ctx, cancel := context.WithTimeout(ctx, d.queryTimeout)
		defer cancel()

		table, err := fn(ctx)
		switch {
		case err == nil:
			display(nil, table, DisplayOptions{HTML: true})
		case errors.Is(err, context.DeadlineExceeded):
			d.logger.Warn("query timed out", "verb", q.verb(), "timeout", d.queryTimeout)
			display(nil, d.text.T("QUERY_TIMED_OUT", q.verb()), DisplayOptions{Timestamp: true})
		case errors.Is(err, context.Canceled):
			d.logger.Debug("query canceled", "verb", q.verb())
		default:
			d.logger.Error("query failed", "verb", q.verb(), "error", err)
			display(nil, d.text.T("QUERY_FAILED", q.verb(), err), DisplayOptions{Timestamp: true})
		}
	}()
	return nil
}

func (d *Dispatcher) channelTable(channels []ChannelInfo) (string, error) {
	rows := make([][]string, 0, len(channels))
	for _, ch := range channels {
		rows = append(rows, []string{ch.Name, strconv.Itoa(ch.VisibleUserCount), ch.Topic})
	}
	return htmltable.Render([]string{d.text.T("CHANNEL"), d.text.T("USERS"), d.text.T("TOPIC")}, rows)
}

func (d *Dispatcher) userTable(users []UserInfo) (string, error) {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		status := d.text.T("ONLINE")
		if u.IsAway {
			status = d.text.T("AWAY")
		}
		rows = append(rows, []string{u.ChannelName, u.NickName, status})
	}
	return htmltable.Render([]string{d.text.T("CHANNEL"), d.text.T("NICK"), d.text.T("STATUS")}, rows)
}
