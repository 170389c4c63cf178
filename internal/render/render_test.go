package render

import (
	"strings"
	"testing"

	"github.com/qanoonbot/qanoonchat/internal/models"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Width != 80 || opts.Style != "dark" {
		t.Errorf("DefaultOptions() = %+v", opts)
	}
	if !opts.EnableEmoji || !opts.PreserveNewLines || !opts.TableWrap {
		t.Errorf("DefaultOptions() disabled a feature: %+v", opts)
	}
	if got := opts.WithWidth(120); got.Width != 120 || got.Style != "dark" {
		t.Errorf("WithWidth(120) = %+v", got)
	}
}

func TestMarkdown(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		contains string
	}{
		{"heading", "# Limitation periods", "Limitation"},
		{"bold", "A contract must be **signed**", "signed"},
		{"list", "- offer\n- acceptance\n- consideration", "acceptance"},
		{"table", "| Claim | Period |\n|---|---|\n| Tort | 6 years |", "Period"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output, err := Markdown(tc.input, DefaultOptions())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(output, tc.contains) {
				t.Errorf("output should contain %q, got: %s", tc.contains, output)
			}
		})
	}
}

func TestMarkdownInvalidStyle(t *testing.T) {
	if _, err := Markdown("# Test", DefaultOptions().WithStyle("nonexistent_style_path")); err == nil {
		t.Error("expected error for invalid style path")
	}
}

func TestMessage(t *testing.T) {
	opts := DefaultOptions()

	user := models.UserMessage("**not rendered**")
	if got := Message(user, opts); got != "**not rendered**" {
		t.Errorf("user message should stay raw, got %q", got)
	}

	bot := models.BotMessage("Contract law is **binding**")
	got := Message(bot, opts)
	if strings.Contains(got, "**") {
		t.Errorf("bot message should be rendered, got %q", got)
	}
	if !strings.Contains(got, "binding") {
		t.Errorf("rendered bot message lost text: %q", got)
	}

	if got := Message(bot, opts.WithStyle("nonexistent_style_path")); got != bot.Text {
		t.Errorf("render failure should fall back to raw text, got %q", got)
	}
}

func TestMessage_RendersReplyOnce(t *testing.T) {
	ClearCache()
	opts := DefaultOptions().WithWidth(61)
	reply := models.BotMessage("A lease needs **notice** in writing")

	first := Message(reply, opts)
	before := Renders()
	for i := 0; i < 5; i++ {
		if got := Message(reply, opts); got != first {
			t.Fatalf("cached output differs: %q vs %q", got, first)
		}
	}
	if Renders() != before {
		t.Errorf("repeated Message rendered %d more times", Renders()-before)
	}
	if CachedReplies() != 1 {
		t.Errorf("CachedReplies() = %d, want 1", CachedReplies())
	}

	// a new width wraps differently, so it is a new entry
	Message(reply, opts.WithWidth(62))
	if Renders() != before+1 || CachedReplies() != 2 {
		t.Errorf("Renders() = %d, CachedReplies() = %d", Renders()-before, CachedReplies())
	}
}

func TestMessage_FailedRenderNotCached(t *testing.T) {
	ClearCache()
	opts := DefaultOptions().WithStyle("nonexistent_style_path")

	Message(models.BotMessage("x"), opts)
	if CachedReplies() != 0 {
		t.Errorf("CachedReplies() = %d after a failed render", CachedReplies())
	}
}

func TestMarkdownIsNotCached(t *testing.T) {
	ClearCache()
	before := Renders()

	for i := 0; i < 2; i++ {
		if _, err := Markdown("same text", DefaultOptions()); err != nil {
			t.Fatal(err)
		}
	}
	if Renders() != before+2 {
		t.Errorf("Markdown rendered %d times, want 2", Renders()-before)
	}
	if CachedReplies() != 0 {
		t.Errorf("CachedReplies() = %d, want 0", CachedReplies())
	}
}

func TestReplyCacheEvictsLeastRecent(t *testing.T) {
	c := newReplyCache(2)
	opts := DefaultOptions()

	for _, text := range []string{"first", "second"} {
		if _, err := c.reply(text, opts); err != nil {
			t.Fatal(err)
		}
	}
	// touch "first" so "second" is the oldest
	if _, err := c.reply("first", opts); err != nil {
		t.Fatal(err)
	}
	if _, err := c.reply("third", opts); err != nil {
		t.Fatal(err)
	}

	if c.recent.Len() != 2 {
		t.Fatalf("cache holds %d replies, want 2", c.recent.Len())
	}
	if _, ok := c.entries[replyKey{opts: opts, text: "second"}]; ok {
		t.Error("least recently used reply was not evicted")
	}
	if _, ok := c.entries[replyKey{opts: opts, text: "first"}]; !ok {
		t.Error("recently used reply was evicted")
	}
	if c.renders != 3 {
		t.Errorf("renders = %d, want 3", c.renders)
	}
}

func TestClearCache(t *testing.T) {
	Message(models.BotMessage("kept for now"), DefaultOptions())
	ClearCache()
	if CachedReplies() != 0 {
		t.Errorf("CachedReplies() = %d after ClearCache", CachedReplies())
	}
}

func TestTUIThemes(t *testing.T) {
	if ResolveTUITheme("light").Name != "light" {
		t.Error("light theme not resolved")
	}
	if ResolveTUITheme("solarized").Name != "dark" {
		t.Error("unknown theme should fall back to dark")
	}
	if _, ok := TUIThemeByName("solarized"); ok {
		t.Error("unknown theme reported as found")
	}
	if len(TUIThemeNames()) != 2 {
		t.Errorf("TUIThemeNames() = %v", TUIThemeNames())
	}
}
