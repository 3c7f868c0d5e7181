package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#5EEAD4") // teal
	muted  = lipgloss.Color("#9CA3AF")

	// nickColors are handed out to nicks by hash so a nick keeps its colour.
	nickColors = []lipgloss.Color{
		"#EAB308", // yellow
		"#A78BFA", // purple
		"#34D399", // green
		"#60A5FA", // blue
		"#F472B6", // pink
	}

	borderColor   = lipgloss.Color("#374151") // gray separators
	sidebarWidth  = 22
	sidebarBorder = 2 // 1 left + 1 right
	chatBorder    = 2 // 1 left + 1 right

	sidebarBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Width(sidebarWidth)

	sidebarFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(accent).
				Width(sidebarWidth)

	chatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	chatFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(accent)

	channelStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#93C5FD"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(accent).
			Background(lipgloss.Color("235")).
			Bold(true)

	activeStyle = lipgloss.NewStyle().Foreground(accent)

	msgTs   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FDE68A"))
	msgUser = lipgloss.NewStyle().Bold(true)
	msgBody = lipgloss.NewStyle()

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Italic(true)

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C4B5FD")).
			Italic(true)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Foreground(lipgloss.Color("#D1D5DB"))

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB")).
			Bold(true)

	statusTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	debugStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(accent).
				Bold(true).
				Padding(0, 1)

	tableCellStyle = lipgloss.NewStyle().Padding(0, 1)
)
