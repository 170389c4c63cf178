// Package chat holds the conversation state shared by the chat screen and
// the one-shot commands: the transcript, the onboarding flag, the pending
// request and the typing animation of the current reply.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/qanoonbot/qanoonchat/internal/api"
	apierrors "github.com/qanoonbot/qanoonchat/internal/errors"
	"github.com/qanoonbot/qanoonchat/internal/logging"
	"github.com/qanoonbot/qanoonchat/internal/models"
	"github.com/qanoonbot/qanoonchat/internal/storage"
	"github.com/qanoonbot/qanoonchat/internal/typing"
)

// Ticket identifies one accepted submission
type Ticket struct {
	ID     uint64
	Prompt string
}

// Session is the chat core. It is safe for concurrent use; the client is
// called without holding the lock.
type Session struct {
	store  storage.Persister
	client api.ChatClientInterface
	logger *zap.Logger

	mu         sync.Mutex // Protects everything below
	messages   models.Transcript
	onboarding bool
	seq        uint64
	pending    uint64 // ticket waiting for a reply, 0 when none
	anim       *typing.Animation
	closed     bool
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the diagnostic logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logging.OrNop(logger)
	}
}

// NewSession creates a Session with an empty transcript and the onboarding
// panel visible. Call Load to restore the persisted transcript.
func NewSession(store storage.Persister, client api.ChatClientInterface, opts ...Option) *Session {
	s := &Session{
		store:      store,
		client:     client,
		logger:     zap.NewNop(),
		messages:   models.Transcript{},
		onboarding: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the transcript with the persisted one. Failures are logged
// and leave the session empty; the bad entry is overwritten on next append.
func (s *Session) Load() {
	t, err := s.store.Load()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Warn("failed to load transcript, starting empty", zap.Error(err))
		s.messages = models.Transcript{}
		return
	}
	s.messages = t.Clone()
	s.logger.Debug("transcript loaded", zap.Int("messages", len(s.messages)))
}

// Messages returns a copy of the transcript
func (s *Session) Messages() models.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages.Clone()
}

// Append adds m to the transcript and persists the whole transcript
func (s *Session) Append(m models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(m)
}

// appendLocked MUST be called with s.mu held
func (s *Session) appendLocked(m models.Message) {
	s.messages = append(s.messages, m)
	if err := s.store.Save(s.messages); err != nil {
		s.logger.Error("failed to persist transcript",
			zap.Error(err),
			zap.Int("messages", len(s.messages)),
		)
	}
}

// OnboardingVisible reports whether the rules card is shown
func (s *Session) OnboardingVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onboarding
}

// DismissOnboarding hides the rules card for the rest of the session
func (s *Session) DismissOnboarding() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onboarding = false
}

// Busy reports whether a reply is pending or being typed
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busyLocked()
}

func (s *Session) busyLocked() bool {
	return s.pending != 0 || s.anim != nil
}

// Submit accepts one line of user input. Whitespace-only input returns
// ErrEmptyPrompt and changes nothing. While a reply is pending or being
// typed it returns ErrBusy. Otherwise the user message is appended, the
// onboarding card is dismissed and a Ticket for the request is returned.
func (s *Session) Submit(input string) (Ticket, error) {
	prompt := strings.TrimSpace(input)
	if prompt == "" {
		return Ticket{}, apierrors.ErrEmptyPrompt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Ticket{}, apierrors.ErrClosed
	}
	if s.busyLocked() {
		return Ticket{}, apierrors.ErrBusy
	}

	s.seq++
	s.pending = s.seq
	s.onboarding = false
	s.appendLocked(models.UserMessage(prompt))

	return Ticket{ID: s.seq, Prompt: prompt}, nil
}

// Request sends the ticket's prompt to the generation endpoint
func (s *Session) Request(ctx context.Context, t Ticket) (string, error) {
	return s.client.GenerateText(ctx, t.Prompt)
}

// Deliver starts typing reply for t. It returns false when t is stale or
// the session is closed, in which case the reply is dropped. An empty reply
// finishes at once and appends an empty bot message.
func (s *Session) Deliver(t Ticket, reply string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acceptLocked(t) {
		return false
	}

	s.pending = 0
	s.anim = typing.NewAnimation(reply)
	if s.anim.Done() {
		s.finishLocked()
	}
	return true
}

// Fail records that the request for t failed. The user message stays and
// no bot message is added.
func (s *Session) Fail(t Ticket, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acceptLocked(t) {
		return
	}
	s.pending = 0

	fields := []zap.Field{
		zap.Uint64("ticket", t.ID),
		zap.Error(err),
	}
	if status := apierrors.GetHTTPStatus(err); status != 0 {
		fields = append(fields, zap.Int("status", status))
	}
	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		fields = append(fields, zap.String("endpoint", endpoint))
	}

	switch {
	case errors.Is(err, context.Canceled):
		s.logger.Info("generation cancelled", fields...)
	case apierrors.IsNetworkError(err):
		s.logger.Error("generation request failed", fields...)
	case apierrors.IsParseError(err):
		s.logger.Error("generation response malformed", fields...)
	default:
		s.logger.Error("generation failed", fields...)
	}
}

// acceptLocked MUST be called with s.mu held
func (s *Session) acceptLocked(t Ticket) bool {
	if s.closed || t.ID == 0 || t.ID != s.pending {
		s.logger.Debug("dropping stale reply",
			zap.Uint64("ticket", t.ID),
			zap.Uint64("pending", s.pending),
			zap.Bool("closed", s.closed),
		)
		return false
	}
	return true
}

// Typing reports whether a reply is being revealed and its visible prefix
func (s *Session) Typing() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.anim == nil {
		return "", false
	}
	return s.anim.Buffer(), true
}

// Tick reveals one more character of the current reply. It returns the
// visible prefix and whether the reveal is over. On the final character the
// bot message is appended and the typing buffer cleared.
func (s *Session) Tick() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.anim == nil {
		return "", true
	}
	done := s.anim.Step()
	buffer := s.anim.Buffer()
	if done {
		s.finishLocked()
	}
	return buffer, done
}

// Flush completes the current reveal immediately
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.anim != nil {
		s.finishLocked()
	}
}

// finishLocked MUST be called with s.mu held and s.anim set
func (s *Session) finishLocked() {
	s.appendLocked(models.BotMessage(s.anim.Full()))
	s.anim = nil
}

// SaveChat posts the whole transcript to the save endpoint. Failures are
// logged and returned; the transcript is never changed.
func (s *Session) SaveChat(ctx context.Context) error {
	snapshot := s.Messages()

	if err := s.client.SaveChat(ctx, snapshot); err != nil {
		s.logger.Error("failed to save chat",
			zap.Error(err),
			zap.Int("messages", len(snapshot)),
			zap.Int("status", apierrors.GetHTTPStatus(err)),
		)
		return err
	}

	s.logger.Info("chat saved", zap.Int("messages", len(snapshot)))
	return nil
}

// Converse runs one submission to completion: it submits input, waits for
// the reply and types it out with animator, calling onFrame with every
// buffer state. Cancelling ctx during typing flushes the reply into the
// transcript and returns ctx.Err().
func (s *Session) Converse(ctx context.Context, input string, animator *typing.Animator, onFrame func(buffer string)) (string, error) {
	ticket, err := s.Submit(input)
	if err != nil {
		return "", err
	}

	reply, err := s.Request(ctx, ticket)
	if err != nil {
		s.Fail(ticket, err)
		return "", err
	}

	if !s.Deliver(ticket, reply) {
		return "", apierrors.ErrClosed
	}

	onFrame("")
	if _, active := s.Typing(); !active {
		return reply, nil
	}

	err = animator.Drive(ctx, func() bool {
		buffer, done := s.Tick()
		onFrame(buffer)
		return done
	})
	if err != nil {
		s.Flush()
		return reply, err
	}
	return reply, nil
}

// Complete runs one submission without an animation: the reply is appended
// to the transcript as soon as it arrives.
func (s *Session) Complete(ctx context.Context, input string) (string, error) {
	ticket, err := s.Submit(input)
	if err != nil {
		return "", err
	}

	reply, err := s.Request(ctx, ticket)
	if err != nil {
		s.Fail(ticket, err)
		return "", err
	}

	if !s.Deliver(ticket, reply) {
		return "", apierrors.ErrClosed
	}
	s.Flush()
	return reply, nil
}

// Close makes the session drop any reply still in flight and refuse new
// submissions. A reveal already running may still finish.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pending = 0
}
