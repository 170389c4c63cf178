package render

import (
	"strings"

	"github.com/qanoonbot/qanoonchat/internal/models"
)

// Markdown renders markdown content for terminal display. The result is
// not cached.
func Markdown(content string, opts Options) (string, error) {
	return replies.render(content, opts)
}

// Message renders one finished transcript message. Bot replies are
// markdown and are rendered once per option set; user text is shown as
// typed. Rendering errors fall back to the raw text.
func Message(m models.Message, opts Options) string {
	if !m.IsBot() || m.Text == "" {
		return m.Text
	}
	out, err := replies.reply(m.Text, opts)
	if err != nil {
		return m.Text
	}
	return strings.Trim(out, "\n")
}
