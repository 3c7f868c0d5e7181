package command

import (
	"errors"
	"strings"
)

const (
	channelPrefixes = "#+!&"
	channelModes    = "pmsintlkqaohv"
)

var (
	ErrModeArguments = errors.New("mode: expected <channel> <+|-><flag> [param]")
	ErrModeChannel   = errors.New("mode: not a channel name")
	ErrModeSign      = errors.New("mode: change must start with + or -")
	ErrModeFlag      = errors.New("mode: unknown channel mode")
	ErrMultipleModes = errors.New("mode: only one mode flag per change")
)

// ModeChange is a single channel mode change such as "#chan +o nick".
type ModeChange struct {
	Channel string
	Sign    byte
	Flag    byte
	Param   string
}

// String returns the sign and flag, e.g. "+o".
func (m ModeChange) String() string {
	return string([]byte{m.Sign, m.Flag})
}

// Params returns the change parameter as a slice, nil when there is none.
func (m ModeChange) Params() []string {
	if m.Param == "" {
		return nil
	}
	return []string{m.Param}
}

// ParseModeChange parses "<channel> <+|-><flag> [param]". Everything after the
// mode token is the parameter.
func ParseModeChange(content string) (ModeChange, error) {
	fields := strings.Fields(content)
	if len(fields) < 2 {
		return ModeChange{}, ErrModeArguments
	}

	channel, modes := fields[0], fields[1]
	if len(channel) < 2 || !strings.ContainsRune(channelPrefixes, rune(channel[0])) {
		return ModeChange{}, ErrModeChannel
	}
	if modes[0] != '+' && modes[0] != '-' {
		return ModeChange{}, ErrModeSign
	}

	flags := modes[1:]
	switch {
	case len(flags) == 0:
		return ModeChange{}, ErrModeArguments
	case len(flags) > 1:
		return ModeChange{}, ErrMultipleModes
	case !strings.ContainsRune(channelModes, rune(flags[0])):
		return ModeChange{}, ErrModeFlag
	}

	return ModeChange{
		Channel: channel,
		Sign:    modes[0],
		Flag:    flags[0],
		Param:   strings.Join(fields[2:], " "),
	}, nil
}
