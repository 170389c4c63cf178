package history

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/qanoonbot/qanoonchat/internal/models"
)

// ExportFormat represents the format for exporting saved chats
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ParseExportFormat accepts "markdown", "md" or "json"
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(s) {
	case "markdown", "md":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (use markdown or json)", s)
	}
}

// Extension returns the file extension for the format
func (f ExportFormat) Extension() string {
	if f == ExportFormatJSON {
		return ".json"
	}
	return ".md"
}

// ExportToMarkdown renders a saved chat as Markdown
func ExportToMarkdown(chat models.SavedChat) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(Title(chat))
	sb.WriteString("\n\n")

	sb.WriteString("**Messages:** ")
	sb.WriteString(fmt.Sprintf("%d", len(chat.Messages)))
	sb.WriteString("\n\n---\n\n")

	for i, msg := range chat.Messages {
		sb.WriteString("## ")
		sb.WriteString(msg.Label())
		sb.WriteString("\n\n")
		sb.WriteString(msg.Text)
		sb.WriteString("\n")

		if i < len(chat.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// ExportToJSON renders a saved chat as indented JSON in the wire shape
func ExportToJSON(chat models.SavedChat) ([]byte, error) {
	type exportChat struct {
		Title     string           `json:"title"`
		CreatedAt string           `json:"created_at"`
		Messages  []models.Message `json:"messages"`
	}

	created := chat.RawCreatedAt
	if !chat.CreatedAt.IsZero() {
		created = chat.CreatedAt.Format(time.RFC3339)
	}
	messages := chat.Messages
	if messages == nil {
		messages = []models.Message{}
	}

	return json.MarshalIndent(exportChat{
		Title:     Title(chat),
		CreatedAt: created,
		Messages:  messages,
	}, "", "  ")
}

// Export renders chat in the given format
func Export(chat models.SavedChat, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatJSON:
		return ExportToJSON(chat)
	case ExportFormatMarkdown, "":
		return []byte(ExportToMarkdown(chat)), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// WriteExport renders chat and writes it to path
func WriteExport(chat models.SavedChat, format ExportFormat, path string) error {
	data, err := Export(chat, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
