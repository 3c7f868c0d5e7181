package irc

import "strings"

// mIRC formatting control codes.
const (
	fmtBold          = '\x02'
	fmtColor         = '\x03'
	fmtHexColor      = '\x04'
	fmtReset         = '\x0f'
	fmtMonospace     = '\x11'
	fmtReverse       = '\x16'
	fmtItalic        = '\x1d'
	fmtStrikethrough = '\x1e'
	fmtUnderline     = '\x1f'
)

// StripFormatting removes mIRC bold, colour, reverse, italic, underline,
// strikethrough, monospace and reset codes from text. Colour codes take
// their foreground and optional background arguments with them.
func StripFormatting(text string) string {
	if !strings.ContainsAny(text, "\x02\x03\x04\x0f\x11\x16\x1d\x1e\x1f") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case fmtBold, fmtReset, fmtMonospace, fmtReverse, fmtItalic, fmtStrikethrough, fmtUnderline:
		case fmtColor:
			i = skipColor(text, i+1, 2, isDigit)
		case fmtHexColor:
			i = skipColor(text, i+1, 6, isHexDigit)
		default:
			b.WriteByte(text[i])
		}
	}
	return b.String()
}

// skipColor skips "fg[,bg]" starting at i, each at most width characters
// accepted by valid, and returns the index of the last byte consumed.
func skipColor(text string, i, width int, valid func(byte) bool) int {
	n := span(text, i, width, valid)
	if n == 0 {
		return i - 1
	}
	i += n
	if i < len(text) && text[i] == ',' {
		if m := span(text, i+1, width, valid); m > 0 {
			i += 1 + m
		}
	}
	return i - 1
}

func span(text string, i, width int, valid func(byte) bool) int {
	n := 0
	for n < width && i+n < len(text) && valid(text[i+n]) {
		n++
	}
	return n
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
