package history

import (
	"strings"
	"testing"
	"time"

	"github.com/qanoonbot/qanoonchat/internal/models"
)

func sampleChats() []models.SavedChat {
	return []models.SavedChat{
		{
			Messages: []models.Message{
				models.UserMessage("What is Contract Law?"),
				models.BotMessage("It is..."),
			},
			CreatedAt: time.Date(2024, 5, 1, 14, 30, 5, 0, time.UTC),
		},
		{
			Messages: []models.Message{
				models.UserMessage("Define tort"),
				models.BotMessage("A civil wrong that causes harm"),
			},
			CreatedAt: time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
		},
		{Messages: []models.Message{}},
	}
}

func TestFormatCreated(t *testing.T) {
	chats := sampleChats()

	if got := formatCreated(chats[0], time.UTC); got != "5/1/2024, 2:30:05 PM" {
		t.Errorf("formatCreated = %q", got)
	}
	if got := formatCreated(models.SavedChat{RawCreatedAt: "last week"}, time.UTC); got != "last week" {
		t.Errorf("raw fallback = %q", got)
	}
	if got := formatCreated(models.SavedChat{}, time.UTC); got != "Invalid Date" {
		t.Errorf("empty fallback = %q", got)
	}
	if !strings.HasPrefix(Title(chats[0]), "Chat from ") {
		t.Errorf("Title = %q", Title(chats[0]))
	}
}

func TestLine(t *testing.T) {
	if got := Line(models.BotMessage("hi")); got != "Bot: hi" {
		t.Errorf("Line = %q", got)
	}
	if got := Line(models.UserMessage("yo")); got != "You: yo" {
		t.Errorf("Line = %q", got)
	}
}

func TestFilter(t *testing.T) {
	chats := sampleChats()

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"empty query keeps all", "", 3},
		{"case insensitive", "contract law", 1},
		{"upper query", "TORT", 1},
		{"matches bot text", "civil wrong", 1},
		{"shared substring", "t", 2},
		{"no match", "habeas corpus", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(chats, tt.query)
			if len(got) != tt.want {
				t.Errorf("Filter(%q) returned %d chats, want %d", tt.query, len(got), tt.want)
			}
			if tt.query == "" {
				return
			}
			for _, chat := range got {
				if !Matches(chat, tt.query) {
					t.Errorf("Filter(%q) kept a non-matching chat", tt.query)
				}
			}
		})
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	chats := sampleChats()
	got := Filter(chats, "")
	for i := range chats {
		if !got[i].CreatedAt.Equal(chats[i].CreatedAt) {
			t.Errorf("order changed at %d", i)
		}
	}
}

func TestSearch(t *testing.T) {
	results := Search(sampleChats(), "wrong")
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Index != 1 || r.MatchIndex != 1 {
		t.Errorf("result = %+v", r)
	}
	if !strings.Contains(r.MatchSnippet, "wrong") {
		t.Errorf("snippet = %q", r.MatchSnippet)
	}
}

func TestSearch_EmptyQuerySkipsEmptyChats(t *testing.T) {
	results := Search(sampleChats(), "")
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if len(r.Chat.Messages) == 0 {
			t.Errorf("chat without messages returned at index %d", r.Index)
		}
		if r.MatchIndex != 0 {
			t.Errorf("MatchIndex = %d, want 0", r.MatchIndex)
		}
	}
}

func TestMatching(t *testing.T) {
	chats := sampleChats()

	if got := Matching(chats, ""); len(got) != 2 {
		t.Errorf("Matching(\"\") returned %d chats, want 2", len(got))
	}
	if got := Filter(chats, ""); len(got) != 3 {
		t.Errorf("Filter(\"\") returned %d chats, want 3", len(got))
	}
	if Matches(chats[2], "") {
		t.Error("chat without messages should not match an empty query")
	}
	if got := Matching(chats, "tort"); len(got) != 1 || got[0].Messages[0].Text != "Define tort" {
		t.Errorf("Matching(tort) = %+v", got)
	}
}

func TestEmptyMessage(t *testing.T) {
	if EmptyMessage("") != "No saved chats available." {
		t.Errorf("EmptyMessage(\"\") = %q", EmptyMessage(""))
	}
	if EmptyMessage("x") != "No matching chats found." {
		t.Errorf("EmptyMessage(\"x\") = %q", EmptyMessage("x"))
	}
}

func TestExtractSnippet(t *testing.T) {
	long := strings.Repeat("a", 100) + "needle" + strings.Repeat("b", 100)

	got := extractSnippet(long, "NEEDLE", 20)
	if !strings.Contains(got, "needle") {
		t.Errorf("snippet missing match: %q", got)
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("snippet should be elided on both sides: %q", got)
	}

	if got := extractSnippet("short", "short", 20); got != "short" {
		t.Errorf("short snippet = %q", got)
	}
	if got := extractSnippet("قانون مدنی ایران", "مدنی", 8); !strings.Contains(got, "مدنی") {
		t.Errorf("unicode snippet = %q", got)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	tests := []struct {
		offset time.Duration
		want   string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{30 * time.Hour, "yesterday"},
		{4 * 24 * time.Hour, "4 days ago"},
	}
	for _, tt := range tests {
		if got := FormatRelativeTime(time.Now().Add(-tt.offset)); got != tt.want {
			t.Errorf("FormatRelativeTime(-%v) = %q, want %q", tt.offset, got, tt.want)
		}
	}
	if FormatRelativeTime(time.Time{}) != "unknown" {
		t.Error("zero time should be unknown")
	}
}
