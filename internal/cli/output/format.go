package output

import (
	"strings"

	"github.com/leapstack-labs/dbassist/internal/notify"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// FormatHeader returns a markdown heading.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown list item "- **key**: value".
func FormatKeyValue(key, value string) string {
	return "- **" + key + "**: " + value
}

// FormatCodeBlock wraps body in a fenced code block.
func FormatCodeBlock(lang, body string) string {
	return "```" + lang + "\n" + strings.TrimRight(body, "\n") + "\n```"
}

// NotificationLabel returns the title-cased label for a notification kind.
func NotificationLabel(k notify.Kind) string {
	return titleCaser.String(k.String())
}

// Notification writes n in the renderer's mode. Errors go to stderr.
func (r *Renderer) Notification(n notify.Notification) {
	switch n.Kind {
	case notify.Error:
		r.Error(n.Text)
	case notify.Success:
		r.Success(n.Text)
	default:
		if r.EffectiveMode() != ModeText {
			r.Println(NotificationLabel(n.Kind) + ": " + n.Text)
			return
		}
		r.Println(r.styles.Info.Render(n.Text))
	}
}
