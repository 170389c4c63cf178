package models

import "time"

// SavedChat is a transcript previously stored by the save endpoint
type SavedChat struct {
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	// RawCreatedAt keeps the server value when it is not RFC 3339
	RawCreatedAt string `json:"-"`
}

// Rule is one entry of the onboarding panel
type Rule struct {
	ID          int
	Title       string
	Description string
}

// OnboardingRules returns the usage rules shown when a chat starts
func OnboardingRules() []Rule {
	return []Rule{
		{ID: 1, Title: "Be Specific", Description: "Be specific with your question"},
		{ID: 2, Title: "Ask One Question At A Time", Description: "Single question will help in get in-depth answers to your question."},
		{ID: 3, Title: "Use Keywords", Description: "Use of keywords will help find your desired topic quickly."},
		{ID: 4, Title: "Provide Context", Description: "Give context to your question for better understanding."},
	}
}
