// Package history lists, searches and exports chats kept by the save endpoint.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/qanoonbot/qanoonchat/internal/models"
)

// TitleLayout formats the creation time in saved chat titles
const TitleLayout = "1/2/2006, 3:04:05 PM"

// Title returns the heading shown for a saved chat, in local time
func Title(chat models.SavedChat) string {
	return "Chat from " + formatCreated(chat, time.Local)
}

func formatCreated(chat models.SavedChat, loc *time.Location) string {
	if chat.CreatedAt.IsZero() {
		if chat.RawCreatedAt != "" {
			return chat.RawCreatedAt
		}
		return "Invalid Date"
	}
	return chat.CreatedAt.In(loc).Format(TitleLayout)
}

// Line formats one message the way saved chat listings show it
func Line(m models.Message) string {
	return m.Label() + ": " + m.Text
}

// Matches reports whether some message of chat contains query, ignoring
// case. A chat without messages never matches, even an empty query.
func Matches(chat models.SavedChat, query string) bool {
	return matchIndex(chat, strings.ToLower(query)) >= 0
}

// matchIndex returns the first message containing the lowered query, or -1
func matchIndex(chat models.SavedChat, queryLower string) int {
	for i, m := range chat.Messages {
		if strings.Contains(strings.ToLower(m.Text), queryLower) {
			return i
		}
	}
	return -1
}

// Matching keeps the chats that match query, in their original order
func Matching(chats []models.SavedChat, query string) []models.SavedChat {
	queryLower := strings.ToLower(query)
	out := make([]models.SavedChat, 0, len(chats))
	for _, chat := range chats {
		if matchIndex(chat, queryLower) >= 0 {
			out = append(out, chat)
		}
	}
	return out
}

// Filter narrows a saved chat listing. An empty query keeps every chat,
// including chats without messages; otherwise it behaves like Matching.
func Filter(chats []models.SavedChat, query string) []models.SavedChat {
	if query == "" {
		return append([]models.SavedChat(nil), chats...)
	}
	return Matching(chats, query)
}

// SearchResult represents a saved chat matching a query
type SearchResult struct {
	Chat         models.SavedChat
	Index        int    // Position in the fetched list
	MatchIndex   int    // First matching message
	MatchSnippet string // Text around the match
}

// Search returns one result per matching chat with a snippet of the first
// matching message
func Search(chats []models.SavedChat, query string) []SearchResult {
	queryLower := strings.ToLower(query)
	var results []SearchResult

	for i, chat := range chats {
		idx := matchIndex(chat, queryLower)
		if idx < 0 {
			continue
		}
		results = append(results, SearchResult{
			Chat:         chat,
			Index:        i,
			MatchIndex:   idx,
			MatchSnippet: extractSnippet(chat.Messages[idx].Text, query, 80),
		})
	}

	return results
}

// EmptyMessage returns the notice for an empty listing
func EmptyMessage(query string) string {
	if query != "" {
		return models.MsgNoMatchingChats
	}
	return models.MsgNoSavedChats
}

// extractSnippet cuts up to maxLen characters around the first occurrence of query
func extractSnippet(content, query string, maxLen int) string {
	runes := []rune(content)
	lower := []rune(strings.ToLower(content))
	q := []rune(strings.ToLower(query))

	idx := -1
	if len(lower) == len(runes) {
		idx = runeIndex(lower, q)
	}
	if idx == -1 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return content
	}

	half := maxLen / 2
	start := idx - half
	end := idx + len(q) + half

	if start < 0 {
		start = 0
		end = maxLen
	}
	if end > len(runes) {
		end = len(runes)
		start = end - maxLen
		if start < 0 {
			start = 0
		}
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet = snippet + "..."
	}
	return snippet
}

func runeIndex(s, sub []rune) int {
	if len(sub) == 0 {
		return 0
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		match := true
		for j := range sub {
			if s[i+j] != sub[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// FormatRelativeTime formats a time as a short relative string like "2h ago"
func FormatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 48*time.Hour:
		return "yesterday"
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	default:
		return t.Local().Format("2006-01-02")
	}
}
