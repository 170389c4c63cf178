// Package api provides the HTTP client for the qanoon chat backend.
package api

// GJSON paths for extracting values from backend responses.
const (
	// Generation endpoint: {"generated_text": "..."}
	PathGeneratedText = "generated_text"

	// Saved chat object (relative to one array element)
	PathChatMessages  = "messages"
	PathChatCreatedAt = "created_at"

	// Message object (relative to one message)
	PathMessageSender = "sender"
	PathMessageText   = "text"

	// Login / register failure body: {"error": "..."}
	PathAuthError = "error"
)
