package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/eznix86/slashirc/internal/irc"
)

// setFocus changes the focus to a new area and updates UI accordingly
func (m *Model) setFocus(newFocus focusArea) {
	if m.currentFocus == newFocus {
		return
	}

	m.currentFocus = newFocus
	if newFocus == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	m.refresh()
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress {
		return nil
	}

	switch msg.Button {
	case tea.MouseButtonLeft:
		// Ignore clicks in status bar and input area
		contentHeight := m.height - 3 - 1
		if msg.Y >= contentHeight {
			return nil
		}

		sidebarTotal := sidebarWidth + sidebarBorder
		switch {
		case msg.X < sidebarTotal:
			m.setFocus(focusChannels)
		case m.hasUsers() && msg.X >= m.width-sidebarTotal:
			m.setFocus(focusUsers)
		default:
			m.setFocus(focusChat)
		}
	case tea.MouseButtonWheelUp:
		m.scroll(-3)
	case tea.MouseButtonWheelDown:
		m.scroll(3)
	}
	return nil
}

func (m *Model) scroll(lines int) {
	switch m.currentFocus {
	case focusChat:
		if lines < 0 {
			m.chat.ScrollUp(-lines)
		} else {
			m.chat.ScrollDown(lines)
		}
	case focusUsers:
		if lines < 0 {
			m.usersView.ScrollUp(-lines)
		} else {
			m.usersView.ScrollDown(lines)
		}
	case focusChannels:
		if lines < 0 {
			m.channelsView.ScrollUp(-lines)
		} else {
			m.channelsView.ScrollDown(lines)
		}
	}
}

// handleKey reports whether it consumed msg; unhandled keys go to the input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()

	switch key {
	case "f1":
		m.showHelp = !m.showHelp
		return nil, true
	case "ctrl+c":
		if m.session.Connected() {
			if err := m.session.Quit("Goodbye!"); err != nil {
				m.logger.Debug("quit failed", "error", err)
			}
		}
		return tea.Quit, true
	case "tab":
		// Cycle focus: input -> views -> chat -> users -> input
		switch m.currentFocus {
		case focusInput:
			m.setFocus(focusChannels)
		case focusChannels:
			m.setFocus(focusChat)
		case focusChat:
			if m.hasUsers() {
				m.setFocus(focusUsers)
			} else {
				m.setFocus(focusInput)
			}
		case focusUsers:
			m.setFocus(focusInput)
		}
		return nil, true
	case "esc":
		m.setFocus(focusInput)
		return nil, true
	}

	switch m.currentFocus {
	case focusInput:
		return m.handleInputKey(key)
	case focusChannels:
		return m.handleChannelsKey(key)
	case focusChat:
		return m.handleChatKey(key)
	case focusUsers:
		return m.handleUsersKey(key)
	}
	return nil, false
}

func (m *Model) handleInputKey(key string) (tea.Cmd, bool) {
	switch key {
	case "up":
		if len(m.inputHistory) == 0 {
			return nil, true
		}
		// Navigate backward in history
		if m.historyIndex == -1 {
			m.historyTemp = m.input.Value()
			m.historyIndex = len(m.inputHistory) - 1
		} else if m.historyIndex > 0 {
			m.historyIndex--
		}
		m.input.SetValue(m.inputHistory[m.historyIndex])
		m.input.CursorEnd()
		return nil, true
	case "down":
		if m.historyIndex == -1 {
			return nil, true
		}
		// Navigate forward in history
		if m.historyIndex < len(m.inputHistory)-1 {
			m.historyIndex++
			m.input.SetValue(m.inputHistory[m.historyIndex])
		} else {
			// Reached the end, restore temp input
			m.historyIndex = -1
			m.input.SetValue(m.historyTemp)
		}
		m.input.CursorEnd()
		return nil, true
	case "enter":
		input := strings.TrimSpace(m.input.Value())
		if input == "" {
			return nil, true
		}
		m.addToHistory(input)
		m.input.SetValue("")
		m.submit(input)
		return nil, true
	}
	return nil, false
}

func (m *Model) handleChannelsKey(key string) (tea.Cmd, bool) {
	switch key {
	case "up", "k":
		if m.selectedViewIdx > 0 {
			m.selectedViewIdx--
		}
		m.refresh()
	case "down", "j":
		if m.selectedViewIdx < len(m.views)-1 {
			m.selectedViewIdx++
		}
		m.refresh()
	case "enter":
		m.activate(m.views[m.selectedViewIdx])
		m.setFocus(focusInput)
		m.refresh()
	}
	return nil, true
}

func (m *Model) handleChatKey(key string) (tea.Cmd, bool) {
	switch key {
	case "up", "k":
		m.chat.ScrollUp(1)
	case "down", "j":
		m.chat.ScrollDown(1)
	case "pgup", "b":
		m.chat.PageUp()
	case "pgdown", "f":
		m.chat.PageDown()
	case "home", "g":
		m.chat.GotoTop()
	case "end", "G":
		m.chat.GotoBottom()
	}
	return nil, true
}

func (m *Model) handleUsersKey(key string) (tea.Cmd, bool) {
	users := m.activeView().users
	switch key {
	case "up", "k":
		if m.selectedUserIdx > 0 {
			m.selectedUserIdx--
		}
		m.usersView.ScrollUp(1)
		m.updateUsersView()
	case "down", "j":
		if m.selectedUserIdx < len(users)-1 {
			m.selectedUserIdx++
		}
		m.usersView.ScrollDown(1)
		m.updateUsersView()
	case "enter":
		// Populate /msg command for the selected user
		if m.selectedUserIdx < len(users) {
			m.input.SetValue("/msg " + users[m.selectedUserIdx] + " ")
			m.input.CursorEnd()
			m.setFocus(focusInput)
		}
	case "p", "t", "v":
		if m.selectedUserIdx < len(users) {
			m.requestCTCP(users[m.selectedUserIdx], ctcpKeys[key])
		}
	}
	return nil, true
}

var ctcpKeys = map[string]string{
	"p": irc.CTCPPing,
	"t": irc.CTCPTime,
	"v": irc.CTCPVersion,
}

// requestCTCP asks nick for a CTCP reply; the reply shows up in the server view.
func (m *Model) requestCTCP(nick, command string) {
	ctcp := m.session.CTCP()
	targets := []string{nick}

	var err error
	switch command {
	case irc.CTCPPing:
		err = ctcp.Ping(targets)
	case irc.CTCPTime:
		err = ctcp.Time(targets)
	case irc.CTCPVersion:
		err = ctcp.Version(targets)
	}

	if err != nil {
		m.server().addMessage(m.fmtErr(now(), err.Error()))
	} else {
		m.server().addMessage(m.fmtMuted(now(), m.text.T("CTCP_SENT", nick, command)))
	}
	m.refresh()
}
