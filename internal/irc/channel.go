package irc

// Channel is a channel on a Session. It holds no state of its own, so it
// keeps working across reconnects.
type Channel struct {
	s    *Session
	name string
}

func (ch *Channel) Name() string { return ch.name }

func (ch *Channel) Part(reason string) error {
	return ch.s.with(func(c *Conn) error { return c.Part(ch.name, reason) })
}

func (ch *Channel) Kick(target, reason string) error {
	return ch.s.with(func(c *Conn) error { return c.Kick(ch.name, target, reason) })
}

// Ban sets +b for hostmask.
func (ch *Channel) Ban(hostmask string) error {
	return ch.s.with(func(c *Conn) error { return c.Mode(ch.name, "+b", hostmask) })
}

func (ch *Channel) SetTopic(text string) error {
	return ch.s.with(func(c *Conn) error { return c.Topic(ch.name, text) })
}

func (ch *Channel) Invite(nick string) error {
	return ch.s.with(func(c *Conn) error { return c.Invite(nick, ch.name) })
}
