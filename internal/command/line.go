package command

import "strings"

// Line is a slash command split into its verb and argument text.
type Line struct {
	Verb    string
	Content string
}

// IsCommand reports whether text should be handled as a slash command.
func IsCommand(text string) bool {
	return strings.HasPrefix(text, "/")
}

// ParseLine strips the leading slash and splits text at the first space.
// The verb is lower-cased and the content trimmed.
func ParseLine(text string) Line {
	verb, content, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	return Line{
		Verb:    strings.ToLower(verb),
		Content: strings.TrimSpace(content),
	}
}

// splitFirst returns the first space-separated word of s and the trimmed rest.
func splitFirst(s string) (first, rest string) {
	first, rest, _ = strings.Cut(strings.TrimSpace(s), " ")
	return first, strings.TrimSpace(rest)
}
