// Package models contains data types and constants for the qanoon chat client.
package models

// Sender identifies who produced a message
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single chat message. Messages are never mutated after creation.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// UserMessage creates a message sent by the user
func UserMessage(text string) Message {
	return Message{Sender: SenderUser, Text: text}
}

// BotMessage creates a message produced by the backend
func BotMessage(text string) Message {
	return Message{Sender: SenderBot, Text: text}
}

// IsBot reports whether the message came from the backend
func (m Message) IsBot() bool {
	return m.Sender == SenderBot
}

// Label returns the display prefix used in saved chat listings
func (m Message) Label() string {
	if m.IsBot() {
		return "Bot"
	}
	return "You"
}

// Transcript is the ordered list of messages exchanged in one session
type Transcript []Message

// Clone returns a copy that shares no backing array with t
func (t Transcript) Clone() Transcript {
	if t == nil {
		return Transcript{}
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Last returns the most recent message from the given sender
func (t Transcript) Last(sender Sender) (Message, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Sender == sender {
			return t[i], true
		}
	}
	return Message{}, false
}
