package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/eznix86/slashirc/internal/htmltable"
)

// noTimestamp keeps columns aligned for lines shown without a time.
const noTimestamp = "     "

func (m *Model) bodyWidth(used int) int {
	return max(20, m.chat.Width-used)
}

func nickStyle(nick string) lipgloss.Style {
	sum := 0
	for i := 0; i < len(nick); i++ {
		sum += int(nick[i])
	}
	return msgUser.Foreground(nickColors[sum%len(nickColors)])
}

func (m *Model) fmtMsg(ts, nick, body string) string {
	// timestamp (5) + space + nick + space
	nickText := nickStyle(nick).Render(nick)
	bodyStyle := msgBody.Width(m.bodyWidth(7 + lipgloss.Width(nickText)))

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		msgTs.Render(ts),
		" ",
		nickText,
		" ",
		bodyStyle.Render(body),
	)
}

func (m *Model) fmtAction(ts, nick, body string) string {
	b := actionStyle.Width(m.bodyWidth(6))
	return lipgloss.JoinHorizontal(lipgloss.Left, msgTs.Render(ts), " ", b.Render("* "+nick+" "+body))
}

func (m *Model) fmtSys(ts, body string) string {
	b := lipgloss.NewStyle().Foreground(accent).Width(m.bodyWidth(6))
	return lipgloss.JoinHorizontal(lipgloss.Left, msgTs.Render(ts), " ", b.Render(body))
}

func (m *Model) fmtMuted(ts, body string) string {
	b := lipgloss.NewStyle().Foreground(muted).Width(m.bodyWidth(6))
	return lipgloss.JoinHorizontal(lipgloss.Left, msgTs.Render(ts), " ", b.Render(body))
}

func (m *Model) fmtNotice(ts, sender, body string) string {
	b := noticeStyle.Width(m.bodyWidth(6))
	return lipgloss.JoinHorizontal(lipgloss.Left, msgTs.Render(ts), " ", b.Render("["+sender+"] "+body))
}

func (m *Model) fmtErr(ts, body string) string {
	b := errorStyle.Width(m.bodyWidth(6))
	return lipgloss.JoinHorizontal(lipgloss.Left, msgTs.Render(ts), " ", b.Render("✗ "+body))
}

func (m *Model) fmtDebug(ts, body string) string {
	// timestamp (5) + space + [debug] (7) + space
	b := debugStyle.Width(m.bodyWidth(14))
	return lipgloss.JoinHorizontal(lipgloss.Left, msgTs.Render(ts), " ", debugStyle.Render("[debug]"), " ", b.Render(body))
}

// renderTable draws an HTML table produced by a /list or /who reply.
func (m *Model) renderTable(src string) (string, error) {
	headers, rows, err := htmltable.Parse(src)
	if err != nil {
		return "", err
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	if m.chat.Width >= 20 {
		t = t.Width(m.chat.Width)
	}
	return t.Render(), nil
}
