package transcript

import "strings"

// Markers delimiting injected directives that are not meant for display.
const (
	DirectiveStart = "<system-reminder>"
	DirectiveEnd   = "</system-reminder>"
)

// StripDirectives removes every DirectiveStart...DirectiveEnd span from text,
// markers included. Each start marker is paired with the first end marker
// after it, so payloads may span lines. A start marker with no end marker
// after it is left in place along with everything that follows.
func StripDirectives(text string) string {
	from := 0
	for {
		i := strings.Index(text[from:], DirectiveStart)
		if i < 0 {
			return text
		}
		i += from

		body := i + len(DirectiveStart)
		j := strings.Index(text[body:], DirectiveEnd)
		if j < 0 {
			return text
		}
		end := body + j + len(DirectiveEnd)

		text = text[:i] + text[end:]
		// A marker may now straddle the cut.
		from = max(0, i-len(DirectiveStart)+1)
	}
}

// Sanitize strips directive spans and surrounding whitespace.
func Sanitize(text string) string {
	return strings.TrimSpace(StripDirectives(text))
}
