package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eznix86/slashirc/internal/command"
)

// refresh redraws the sidebars and the chat of the active view and
// recalculates the layout.
func (m *Model) refresh() {
	m.updateChannelsView()
	m.updateUsersView()
	m.handleWindowResize(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	m.updateChat()
}

func (m *Model) hasUsers() bool {
	v := m.activeView()
	return v.kind == channelView && len(v.users) > 0
}

func (m *Model) updateChannelsView() {
	var b strings.Builder

	line := func(i int, label string) string {
		switch {
		case i == m.selectedViewIdx && m.currentFocus == focusChannels:
			return selectedStyle.Render("► " + label)
		case i == m.active:
			return activeStyle.Render("• " + label)
		default:
			return "  " + label
		}
	}

	b.WriteString(channelStyle.Render("SERVER") + "\n")
	b.WriteString(line(0, m.server().name) + "\n")

	// Channels first, then private messages
	for _, section := range []struct {
		title string
		kind  viewKind
	}{
		{"CHANNELS", channelView},
		{"MESSAGES", queryView},
	} {
		header := false
		for i, v := range m.views {
			if v.kind != section.kind {
				continue
			}
			if !header {
				b.WriteString("\n" + channelStyle.Render(section.title) + "\n")
				header = true
			}
			b.WriteString(line(i, v.name) + "\n")
		}
	}

	m.channelsView.SetContent(b.String())
}

func (m *Model) updateUsersView() {
	var b strings.Builder

	if m.hasUsers() {
		users := m.activeView().users
		b.WriteString(channelStyle.Render(m.text.T("PEOPLE_HERE", len(users))) + "\n")
		for i, u := range users {
			if i == m.selectedUserIdx && m.currentFocus == focusUsers {
				b.WriteString(selectedStyle.Render("► "+u) + "\n")
			} else {
				b.WriteString("  " + userStyle.Render(u) + "\n")
			}
		}
	}

	m.usersView.SetContent(b.String())
}

func (m *Model) updateChat() {
	m.chat.SetContent(strings.Join(m.activeView().messages, "\n"))
	m.chat.GotoBottom()
}

func (m *Model) handleWindowResize(msg tea.WindowSizeMsg) {
	m.width, m.height = msg.Width, msg.Height

	// Account for input box (1 line + 2 borders = 3 rows) + status bar (1 row)
	inputBoxHeight := 3
	statusBarHeight := 1
	availableHeight := m.height - inputBoxHeight - statusBarHeight

	channelsTotalWidth := sidebarWidth + sidebarBorder
	usersTotalWidth := 0
	if m.hasUsers() {
		usersTotalWidth = sidebarWidth + sidebarBorder
	}

	// Chat panel gets whatever remains
	chatTotalWidth := max(20, m.width-channelsTotalWidth-usersTotalWidth)

	// Set viewport dimensions (content area, excluding borders)
	m.channelsView.Width = sidebarWidth
	m.channelsView.Height = max(1, availableHeight-sidebarBorder)

	m.chat.Width = chatTotalWidth - chatBorder
	m.chat.Height = max(1, availableHeight-chatBorder)

	m.usersView.Width = sidebarWidth
	m.usersView.Height = max(1, availableHeight-sidebarBorder)

	// Set input width (account for borders and prompt)
	m.input.Width = max(1, m.width-6)
}

// renderSidebarBox applies border styling to sidebar content
func (m *Model) renderSidebarBox(content string, height int, focused bool) string {
	if focused {
		return sidebarFocusedStyle.Height(height).Render(content)
	}
	return sidebarBoxStyle.Height(height).Render(content)
}

// renderChatBox applies border styling to chat content
func (m *Model) renderChatBox(content string, focused bool) string {
	style := chatBoxStyle
	if focused {
		style = chatFocusedStyle
	}
	return style.Width(m.chat.Width).Height(m.chat.Height).Render(content)
}

// statusHelpText returns the key hints for the current focus area
func (m *Model) statusHelpText() string {
	hint := func(key, what string) string {
		return statusKeyStyle.Render(key) + " " + what
	}

	var first, second string
	switch m.currentFocus {
	case focusInput:
		first, second = hint("↑↓", "history"), hint("Enter", "send")
	case focusChannels:
		first, second = hint("↑↓", "navigate"), hint("Enter", "open")
	case focusChat:
		first, second = hint("↑↓", "scroll"), hint("PgUp/PgDn", "page")
	case focusUsers:
		first, second = hint("↑↓", "navigate"), hint("Enter", "/msg")+" • "+hint("p/t/v", "ctcp")
	}
	return strings.Join([]string{first, second, hint("Tab", "focus"), hint("F1", "help")}, " • ")
}

func (m *Model) renderStatusBar() string {
	helpText := m.statusHelpText()
	clock := statusTimeStyle.Render(m.currentTime.Format("15:04"))

	// Place help on left, clock on right
	clockWidth := lipgloss.Width(clock)
	helpWidth := max(0, m.width-2-clockWidth)

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.PlaceHorizontal(helpWidth, lipgloss.Left, helpText),
		lipgloss.PlaceHorizontal(clockWidth, lipgloss.Right, clock),
	)
	return lipgloss.NewStyle().Width(m.width).Render(content)
}

// commandUsage is the help line of each slash command.
var commandUsage = map[string]string{
	"msg":      "<nick> <text>       Send a private message",
	"notice":   "<target> <text>     Send a notice",
	"join":     "<channel> [key]     Join a channel",
	"part":     "[reason]            Leave the current channel",
	"hop":      "[channel]           Leave and rejoin",
	"kick":     "<nick> [reason]     Kick from the current channel",
	"ban":      "<mask>              Ban from the current channel",
	"topic":    "<text>              Set the topic",
	"invite":   "<nick>              Invite to the current channel",
	"mode":     "<target> <modes>    Change channel or user modes",
	"me":       "<action>            Send an action",
	"away":     "[message]           Toggle away",
	"nick":     "<nick>              Change nickname",
	"quit":     "[reason]            Disconnect",
	"raw":      "<line>              Send a raw IRC line",
	"server":   "<host[:port]>       Connect to another server",
	"list":     "[masks] [-MIN n] [-MAX n]  List channels",
	"who":      "[mask]              List users",
	"clear":    "                    Clear this view",
	"clearall": "                    Clear every view",
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(channelStyle.Render(m.text.T("HELP_TITLE")) + "\n\n")

	b.WriteString(channelStyle.Render("Navigation:") + "\n" +
		"  Tab           Cycle focus (Input → Views → Chat → Users)\n" +
		"  Esc           Return focus to input\n" +
		"  ↑/↓ or j/k    Scroll chat or move in a sidebar\n" +
		"  PgUp/PgDn     Scroll chat by page\n" +
		"  Home/End      Jump to top/bottom of chat\n" +
		"  Enter         Open the selected view\n" +
		"  p/t/v         CTCP ping/time/version the selected user\n\n")

	b.WriteString(channelStyle.Render("Commands:") + "\n")
	for _, verb := range command.Verbs() {
		fmt.Fprintf(&b, "  /%-9s %s\n", verb, commandUsage[verb])
	}

	b.WriteString("\n" + channelStyle.Render("Other:") + "\n" +
		"  F1            Toggle this help\n" +
		"  Ctrl+C        Quit application\n")

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Width(max(0, m.width-4)).
		Height(max(0, m.height-4))

	return helpBox.Render(b.String())
}
