package models

// Default backend endpoints
const (
	EndpointGenerate   = "http://127.0.0.1:8000/generate_text/"
	EndpointBackend    = "https://qanoonbots-652bb77e7052.herokuapp.com"
	EndpointSaveChat   = EndpointBackend + "/api/save_chat/"
	EndpointSavedChats = EndpointBackend + "/api/get_saved_chats/"
	EndpointLogin      = EndpointBackend + "/login/"
	EndpointRegister   = EndpointBackend + "/register/"
)

// TranscriptKey is the fixed name of the local transcript entry
const TranscriptKey = "chatMessages"

// Messages shown to the user
const (
	MsgChatSaved       = "Chat saved successfully!"
	MsgNoSavedChats    = "No saved chats available."
	MsgNoMatchingChats = "No matching chats found."
	MsgLoginOK         = "Login successful"
	MsgLoginFailed     = "Login failed"
	MsgSignupOK        = "Signup successful"
	MsgSignupFailed    = "Existing Email or Invalid Email Format Used!"
	MsgInternalError   = "Internal server error"
)

// DefaultHeaders returns the headers sent with every JSON request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}
