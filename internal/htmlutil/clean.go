package htmlutil

import (
	"strings"

	"github.com/k3a/html2text"
)

// ToText converts HTML to plain text using a proper HTML parser.
func ToText(s string) string {
	return html2text.HTML2Text(s)
}

// Snippet renders an HTML error page as a single line of at most max
// runes, for log lines and error messages.
func Snippet(s string, max int) string {
	text := strings.Join(strings.Fields(ToText(s)), " ")
	runes := []rune(text)
	if max > 0 && len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return text
}
