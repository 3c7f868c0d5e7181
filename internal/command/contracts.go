package command

import "context"

// User is anyone the session knows by nickname.
type User interface {
	NickName() string
}

// LocalUser is the user this session is connected as.
type LocalUser interface {
	User
	IsAway() bool
	// SetAway marks the user away; an empty message lets the session choose one.
	SetAway(message string) error
	UnsetAway() error
	SetModes(modes string) error
}

// RegistrationInfo is what a session needs to register on a (new) server.
type RegistrationInfo struct {
	Nick     string
	User     string
	RealName string
}

// ChannelInfo is one RPL_LIST entry.
type ChannelInfo struct {
	Name             string
	VisibleUserCount int
	Topic            string
}

// UserInfo is one RPL_WHOREPLY entry.
type UserInfo struct {
	ChannelName string
	NickName    string
	IsAway      bool
}

// SessionControl is the live connection to an IRC network. Optional string
// arguments (join key, quit reason) are empty when absent.
type SessionControl interface {
	SendMessage(targets []string, text string) error
	SendNotice(targets []string, text string) error
	JoinChannel(name, key string) error
	SetNickName(name string) error
	Quit(reason string) error
	SetChannelModes(channel ChannelControl, modes string, params []string) error
	SendRawMessage(line string) error
	Disconnect() error
	Connect(host string, port int, reg RegistrationInfo) error
	RegistrationInfo() RegistrationInfo

	// ListChannels and QueryWho block until the server's reply is complete or
	// ctx is done.
	ListChannels(ctx context.Context, masks []string) ([]ChannelInfo, error)
	QueryWho(ctx context.Context, mask string) ([]UserInfo, error)

	LocalUser() LocalUser
	UserFromNickName(nick string) (User, bool)
}

// ChannelControl is a joined channel a dispatcher can be bound to.
type ChannelControl interface {
	Name() string
	Part(reason string) error
	Kick(target, reason string) error
	Ban(hostmask string) error
	SetTopic(text string) error
	Invite(nick string) error
}

// AuxProtocolControl carries CTCP requests.
type AuxProtocolControl interface {
	Action(targets []string, text string) error
}

// DisplayOptions controls how a host renders dispatcher output.
type DisplayOptions struct {
	Timestamp bool
	HTML      bool
}

// DisplayFunc shows text to the user. source is nil for system output.
type DisplayFunc func(source User, text string, opts DisplayOptions)

// Notification is the payload of dispatcher events.
type Notification struct {
	User User
	Text string
}

// Event topics.
const (
	TopicClear    = "clear"
	TopicClearAll = "clearAll"
	TopicViewUser = "viewUser"
)
