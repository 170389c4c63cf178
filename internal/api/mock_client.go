package api

import (
	"context"
	"sync"

	"github.com/qanoonbot/qanoonchat/internal/models"
)

// MockClient is a mock implementation of ChatClientInterface for testing
type MockClient struct {
	mu sync.Mutex

	// Mock return values
	GenerateVal   string
	GenerateErr   error
	SaveErr       error
	SavedChatsVal []models.SavedChat
	SavedChatsErr error
	LoginVal      string
	LoginErr      error
	RegisterVal   string
	RegisterErr   error

	// GenerateFunc, when set, replaces GenerateVal/GenerateErr
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	// Call counters/recorders
	GenerateCalls   int
	LastPrompt      string
	SaveCalls       int
	LastSaved       models.Transcript
	SavedChatsCalls int
	LastEmail       string
}

var _ ChatClientInterface = (*MockClient)(nil)

func (m *MockClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.GenerateCalls++
	m.LastPrompt = prompt
	fn := m.GenerateFunc
	val, err := m.GenerateVal, m.GenerateErr
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return val, err
}

func (m *MockClient) SaveChat(ctx context.Context, messages models.Transcript) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	m.LastSaved = messages.Clone()
	return m.SaveErr
}

func (m *MockClient) SavedChats(ctx context.Context) ([]models.SavedChat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SavedChatsCalls++
	return m.SavedChatsVal, m.SavedChatsErr
}

func (m *MockClient) Login(ctx context.Context, email, password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastEmail = email
	return m.LoginVal, m.LoginErr
}

func (m *MockClient) Register(ctx context.Context, email, password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastEmail = email
	return m.RegisterVal, m.RegisterErr
}

// Calls returns the generate and save call counts
func (m *MockClient) Calls() (generate, save int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GenerateCalls, m.SaveCalls
}
