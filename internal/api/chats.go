package api

import (
	"context"
	"fmt"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/qanoonbot/qanoonchat/internal/errors"
	"github.com/qanoonbot/qanoonchat/internal/models"
)

// SaveChatRequest is the body sent to the save endpoint
type SaveChatRequest struct {
	Messages models.Transcript `json:"messages"`
}

// createdAtLayouts are tried in order when parsing created_at
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05",
}

// SaveChat posts the whole transcript to the save endpoint.
// Every call creates a new server-side record.
func (c *Client) SaveChat(ctx context.Context, messages models.Transcript) error {
	if messages == nil {
		messages = models.Transcript{}
	}

	endpoint := c.endpoints.SaveChat
	headers := map[string]string{"X-Request-ID": c.newRequestID()}

	resp, err := c.do(ctx, "save chat", http.MethodPost, endpoint, SaveChatRequest{Messages: messages}, headers)
	if err != nil {
		return err
	}

	if !resp.ok() {
		return statusError("save chat", endpoint, resp)
	}

	return nil
}

// SavedChats fetches every chat stored by the save endpoint, in server order
func (c *Client) SavedChats(ctx context.Context) ([]models.SavedChat, error) {
	endpoint := c.endpoints.SavedChats

	resp, err := c.do(ctx, "get saved chats", http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, err
	}

	if !resp.ok() {
		return nil, statusError("get saved chats", endpoint, resp)
	}

	return parseSavedChats(resp.body)
}

func parseSavedChats(body []byte) ([]models.SavedChat, error) {
	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewParseError("response is not valid JSON", "")
	}

	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, apierrors.NewParseError("saved chats response is not an array", "")
	}

	chats := []models.SavedChat{}
	var parseErr error

	root.ForEach(func(idx, value gjson.Result) bool {
		chat, err := parseSavedChat(value)
		if err != nil {
			parseErr = apierrors.NewParseError(
				fmt.Sprintf("saved chat %d: %s", idx.Int(), err.Message), err.Path)
			return false
		}
		chats = append(chats, chat)
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}

	return chats, nil
}

func parseSavedChat(value gjson.Result) (models.SavedChat, *apierrors.ParseError) {
	if !value.IsObject() {
		return models.SavedChat{}, apierrors.NewParseError("not an object", "")
	}

	list := value.Get(PathChatMessages)
	if !list.IsArray() {
		return models.SavedChat{}, apierrors.NewParseError("messages is not an array", PathChatMessages)
	}

	var chat models.SavedChat
	chat.Messages = []models.Message{}

	var msgErr *apierrors.ParseError
	list.ForEach(func(_, m gjson.Result) bool {
		sender := m.Get(PathMessageSender)
		text := m.Get(PathMessageText)
		if sender.Type != gjson.String || text.Type != gjson.String {
			msgErr = apierrors.NewParseError("message needs string sender and text", PathChatMessages)
			return false
		}
		chat.Messages = append(chat.Messages, models.Message{
			Sender: models.Sender(sender.String()),
			Text:   text.String(),
		})
		return true
	})
	if msgErr != nil {
		return models.SavedChat{}, msgErr
	}

	created := value.Get(PathChatCreatedAt)
	if created.Type != gjson.String {
		return models.SavedChat{}, apierrors.NewParseError("created_at is not a string", PathChatCreatedAt)
	}
	chat.RawCreatedAt = created.String()
	chat.CreatedAt = parseCreatedAt(chat.RawCreatedAt)

	return chat, nil
}

// parseCreatedAt accepts ISO-8601 variants; unknown formats give the zero time
func parseCreatedAt(s string) time.Time {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
