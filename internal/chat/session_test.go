package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/qanoonbot/qanoonchat/internal/api"
	apierrors "github.com/qanoonbot/qanoonchat/internal/errors"
	"github.com/qanoonbot/qanoonchat/internal/models"
	"github.com/qanoonbot/qanoonchat/internal/storage"
	"github.com/qanoonbot/qanoonchat/internal/typing"
)

type fixture struct {
	session *Session
	store   *storage.MemoryStore
	client  *api.MockClient
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	store := storage.NewMemoryStore()
	client := &api.MockClient{}
	return &fixture{
		session: NewSession(store, client, WithLogger(zap.New(core))),
		store:   store,
		client:  client,
		logs:    logs,
	}
}

// typeOut drives the current reveal to the end, collecting every state
func typeOut(s *Session) []string {
	buffer, ok := s.Typing()
	if !ok {
		return nil
	}
	states := []string{buffer}
	for {
		buffer, done := s.Tick()
		states = append(states, buffer)
		if done {
			return states
		}
	}
}

func TestNewSession_OnboardingVisible(t *testing.T) {
	f := newFixture(t)

	if !f.session.OnboardingVisible() {
		t.Error("onboarding should be visible on start")
	}
	f.session.DismissOnboarding()
	if f.session.OnboardingVisible() {
		t.Error("onboarding should be hidden after dismiss")
	}
	if len(f.session.Messages()) != 0 {
		t.Error("new session should be empty")
	}
}

func TestSubmit_EmptyInputIsNoOp(t *testing.T) {
	for _, input := range []string{"", " ", "\t\n", "   \r\n  "} {
		f := newFixture(t)

		_, err := f.session.Submit(input)
		if !errors.Is(err, apierrors.ErrEmptyPrompt) {
			t.Errorf("Submit(%q) error = %v, want ErrEmptyPrompt", input, err)
		}
		if len(f.session.Messages()) != 0 {
			t.Errorf("Submit(%q) mutated the transcript", input)
		}
		if f.store.Saves() != 0 {
			t.Errorf("Submit(%q) persisted", input)
		}
		if !f.session.OnboardingVisible() {
			t.Errorf("Submit(%q) dismissed onboarding", input)
		}
		if f.session.Busy() {
			t.Errorf("Submit(%q) left the session busy", input)
		}
	}
}

func TestSubmit_AppendsBeforeNetworkResolves(t *testing.T) {
	f := newFixture(t)

	release := make(chan struct{})
	seen := make(chan models.Transcript, 1)
	f.client.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		seen <- f.session.Messages()
		<-release
		return "ok", nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.session.Converse(context.Background(), "  hello  ",
			typing.NewAnimator(time.Millisecond), func(string) {})
		done <- err
	}()

	during := <-seen
	if len(during) != 1 || during[0] != models.UserMessage("hello") {
		t.Errorf("transcript during request = %+v", during)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("Converse failed: %v", err)
	}
	if f.client.LastPrompt != "hello" {
		t.Errorf("prompt = %q, want trimmed", f.client.LastPrompt)
	}
	if generate, _ := f.client.Calls(); generate != 1 {
		t.Errorf("GenerateText called %d times", generate)
	}
}

func TestSubmit_DismissesOnboarding(t *testing.T) {
	f := newFixture(t)

	if _, err := f.session.Submit("question"); err != nil {
		t.Fatal(err)
	}
	if f.session.OnboardingVisible() {
		t.Error("accepted submission should dismiss onboarding")
	}
}

func TestSubmit_BusyWhilePendingAndTyping(t *testing.T) {
	f := newFixture(t)

	ticket, err := f.session.Submit("first")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.session.Submit("second"); !apierrors.IsBusy(err) {
		t.Errorf("Submit while pending = %v, want ErrBusy", err)
	}

	f.session.Deliver(ticket, "abc")
	if _, err := f.session.Submit("third"); !apierrors.IsBusy(err) {
		t.Errorf("Submit while typing = %v, want ErrBusy", err)
	}

	typeOut(f.session)
	if f.session.Busy() {
		t.Error("session still busy after reveal")
	}
	if _, err := f.session.Submit("fourth"); err != nil {
		t.Errorf("Submit after reveal = %v", err)
	}

	got := f.session.Messages()
	want := models.Transcript{
		models.UserMessage("first"),
		models.BotMessage("abc"),
		models.UserMessage("fourth"),
	}
	if len(got) != len(want) {
		t.Fatalf("transcript = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDeliver_NPlusOneStatesAndSingleAppend(t *testing.T) {
	for _, reply := range []string{"It is...", "x", "قانون مدنی"} {
		f := newFixture(t)

		ticket, _ := f.session.Submit("q")
		if !f.session.Deliver(ticket, reply) {
			t.Fatalf("%q: Deliver rejected current ticket", reply)
		}

		states := typeOut(f.session)
		if n := typing.Steps(reply); len(states) != n+1 {
			t.Errorf("%q: %d states, want %d", reply, len(states), n+1)
		}
		if states[0] != "" || states[len(states)-1] != reply {
			t.Errorf("%q: states = %q", reply, states)
		}

		msgs := f.session.Messages()
		bots := 0
		for _, m := range msgs {
			if m.IsBot() {
				bots++
				if m.Text != reply {
					t.Errorf("bot text = %q, want %q", m.Text, reply)
				}
			}
		}
		if bots != 1 {
			t.Errorf("%q: %d bot messages, want 1", reply, bots)
		}
		if buffer, active := f.session.Typing(); active || buffer != "" {
			t.Errorf("typing buffer not cleared: %q", buffer)
		}
	}
}

func TestDeliver_EmptyReply(t *testing.T) {
	f := newFixture(t)

	ticket, _ := f.session.Submit("q")
	f.session.Deliver(ticket, "")

	if _, active := f.session.Typing(); active {
		t.Error("empty reply should finish immediately")
	}
	msgs := f.session.Messages()
	if len(msgs) != 2 || msgs[1] != models.BotMessage("") {
		t.Errorf("transcript = %+v", msgs)
	}
}

func TestFail_NoBotMessageAndLogged(t *testing.T) {
	tests := []struct {
		name string
		err  error
		log  string
	}{
		{"http 500", apierrors.NewAPIError(500, "http://x/generate_text/", "generate failed"), "generation failed"},
		{"network", apierrors.NewNetworkErrorWithEndpoint("generate", "http://x", errors.New("refused")), "generation request failed"},
		{"parse", apierrors.NewParseError("generated_text missing", "generated_text"), "generation response malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.client.GenerateErr = tt.err

			_, err := f.session.Converse(context.Background(), "What is tort?",
				typing.NewAnimator(time.Millisecond), func(string) {})
			if err == nil {
				t.Fatal("expected error")
			}

			msgs := f.session.Messages()
			if len(msgs) != 1 || msgs[0] != models.UserMessage("What is tort?") {
				t.Errorf("transcript = %+v", msgs)
			}
			if f.session.Busy() {
				t.Error("session still busy after failure")
			}
			if f.logs.FilterMessage(tt.log).Len() != 1 {
				t.Errorf("expected %q log entry, got %v", tt.log, f.logs.All())
			}
			if generate, _ := f.client.Calls(); generate != 1 {
				t.Errorf("GenerateText called %d times, want no retry", generate)
			}
		})
	}
}

func TestFail_LogsStatus(t *testing.T) {
	f := newFixture(t)

	ticket, _ := f.session.Submit("q")
	f.session.Fail(ticket, apierrors.NewAPIError(503, "http://x", "down"))

	entries := f.logs.FilterMessage("generation failed").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %v", f.logs.All())
	}
	if got := entries[0].ContextMap()["status"]; got != int64(503) {
		t.Errorf("status field = %v", got)
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Errorf("level = %v", entries[0].Level)
	}
}

func TestClose_DropsStaleReply(t *testing.T) {
	f := newFixture(t)

	ticket, _ := f.session.Submit("q")
	f.session.Close()

	if f.session.Deliver(ticket, "late") {
		t.Error("Deliver after Close should be dropped")
	}
	f.session.Fail(ticket, errors.New("late"))

	msgs := f.session.Messages()
	if len(msgs) != 1 {
		t.Errorf("transcript = %+v", msgs)
	}
	if f.logs.FilterMessage("generation failed").Len() != 0 {
		t.Error("stale failure should not be logged as a generation failure")
	}
	if _, err := f.session.Submit("again"); !errors.Is(err, apierrors.ErrClosed) {
		t.Errorf("Submit after Close = %v, want ErrClosed", err)
	}
}

func TestDeliver_WrongTicketDropped(t *testing.T) {
	f := newFixture(t)

	ticket, _ := f.session.Submit("q")
	if f.session.Deliver(Ticket{ID: ticket.ID + 1}, "other") {
		t.Error("Deliver with unknown ticket should be dropped")
	}
	if !f.session.Busy() {
		t.Error("session should still wait for the real ticket")
	}
	if !f.session.Deliver(ticket, "mine") {
		t.Error("Deliver with current ticket rejected")
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	f := newFixture(t)
	f.client.GenerateVal = "answer"

	if _, err := f.session.Converse(context.Background(), "question",
		typing.NewAnimator(time.Millisecond), func(string) {}); err != nil {
		t.Fatal(err)
	}

	restored := NewSession(f.store, f.client)
	restored.Load()

	got := restored.Messages()
	want := f.session.Messages()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("restored = %+v, want %+v", got, want)
	}
	if !restored.OnboardingVisible() {
		t.Error("onboarding resets on every session start")
	}
}

func TestLoad_CorruptEntryStartsEmpty(t *testing.T) {
	f := newFixture(t)
	f.store.SetRaw([]byte("{broken"))

	f.session.Load()

	if len(f.session.Messages()) != 0 {
		t.Errorf("messages = %+v", f.session.Messages())
	}
	if f.logs.FilterMessage("failed to load transcript, starting empty").Len() != 1 {
		t.Errorf("expected load warning, got %v", f.logs.All())
	}

	f.session.Append(models.UserMessage("fresh"))
	reloaded, err := f.store.Load()
	if err != nil {
		t.Fatalf("corrupt entry not overwritten: %v", err)
	}
	if len(reloaded) != 1 {
		t.Errorf("reloaded = %+v", reloaded)
	}
}

func TestAppend_PersistFailureKeepsMessage(t *testing.T) {
	f := newFixture(t)
	f.store.SaveErr = errors.New("disk full")

	f.session.Append(models.UserMessage("kept"))

	if len(f.session.Messages()) != 1 {
		t.Error("in-memory append should stand")
	}
	if f.logs.FilterMessage("failed to persist transcript").Len() != 1 {
		t.Errorf("expected persist error log, got %v", f.logs.All())
	}
}

func TestAppend_WriteThrough(t *testing.T) {
	f := newFixture(t)

	f.session.Append(models.UserMessage("a"))
	f.session.Append(models.BotMessage("b"))

	if f.store.Saves() != 2 {
		t.Errorf("Saves() = %d, want 2", f.store.Saves())
	}
}

func TestMessages_ReturnsCopy(t *testing.T) {
	f := newFixture(t)
	f.session.Append(models.UserMessage("a"))

	msgs := f.session.Messages()
	msgs[0].Text = "changed"

	if f.session.Messages()[0].Text != "a" {
		t.Error("Messages() exposed internal state")
	}
}

func TestContractLawScenario(t *testing.T) {
	f := newFixture(t)
	f.client.GenerateVal = "It is..."

	var frames []string
	reply, err := f.session.Converse(context.Background(), "What is contract law?",
		typing.NewAnimator(time.Millisecond), func(b string) { frames = append(frames, b) })
	if err != nil {
		t.Fatalf("Converse failed: %v", err)
	}
	if reply != "It is..." {
		t.Errorf("reply = %q", reply)
	}

	want := []string{"", "I", "It", "It ", "It i", "It is", "It is.", "It is..", "It is..."}
	if len(frames) != len(want) {
		t.Fatalf("frames = %q", frames)
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Errorf("frame %d = %q, want %q", i, frames[i], want[i])
		}
	}

	msgs := f.session.Messages()
	if len(msgs) != 2 ||
		msgs[0] != models.UserMessage("What is contract law?") ||
		msgs[1] != models.BotMessage("It is...") {
		t.Errorf("transcript = %+v", msgs)
	}

	persisted, _ := f.store.Load()
	if len(persisted) != 2 || persisted[1] != msgs[1] {
		t.Errorf("persisted = %+v", persisted)
	}
}

func TestConverse_CancelDuringTypingFlushes(t *testing.T) {
	f := newFixture(t)
	f.client.GenerateVal = "abcdef"

	ticker := typing.NewManualTicker()
	animator := typing.NewAnimator(time.Millisecond, typing.WithTicker(ticker.Func()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := f.session.Converse(ctx, "q", animator, func(string) {})
		errCh <- err
	}()

	<-ticker.Started()
	ticker.Tick()
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Converse error = %v, want context.Canceled", err)
	}
	msgs := f.session.Messages()
	if len(msgs) != 2 || msgs[1] != models.BotMessage("abcdef") {
		t.Errorf("transcript = %+v", msgs)
	}
	if f.session.Busy() {
		t.Error("session busy after flush")
	}
}

func TestSaveChat(t *testing.T) {
	f := newFixture(t)
	f.session.Append(models.UserMessage("What is contract law?"))
	f.session.Append(models.BotMessage("It is..."))

	if err := f.session.SaveChat(context.Background()); err != nil {
		t.Fatalf("SaveChat failed: %v", err)
	}
	if len(f.client.LastSaved) != 2 {
		t.Errorf("saved = %+v", f.client.LastSaved)
	}
	if f.logs.FilterMessage("chat saved").Len() != 1 {
		t.Error("expected success log")
	}
}

func TestSaveChat_ServerErrorNoConfirmation(t *testing.T) {
	f := newFixture(t)
	f.session.Append(models.UserMessage("a"))
	f.client.SaveErr = apierrors.NewAPIError(500, "http://x/api/save_chat/", "save chat failed")

	before := f.session.Messages()
	err := f.session.SaveChat(context.Background())

	if apierrors.GetHTTPStatus(err) != 500 {
		t.Fatalf("SaveChat error = %v", err)
	}
	after := f.session.Messages()
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("transcript changed: %+v", after)
	}
	if f.logs.FilterMessage("failed to save chat").Len() != 1 {
		t.Errorf("expected save failure log, got %v", f.logs.All())
	}
	if _, save := f.client.Calls(); save != 1 {
		t.Errorf("SaveChat called %d times, want no retry", save)
	}
}

func TestComplete(t *testing.T) {
	f := newFixture(t)
	f.client.GenerateVal = "It is..."

	reply, err := f.session.Complete(context.Background(), "  What is contract law? ")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply != "It is..." {
		t.Errorf("reply = %q", reply)
	}
	msgs := f.session.Messages()
	if len(msgs) != 2 || msgs[1] != models.BotMessage("It is...") {
		t.Errorf("messages = %+v", msgs)
	}
	if f.session.Busy() {
		t.Error("session should be idle after Complete")
	}
}

func TestComplete_Failure(t *testing.T) {
	f := newFixture(t)
	f.client.GenerateErr = apierrors.NewNetworkError("generate text", errors.New("refused"))

	if _, err := f.session.Complete(context.Background(), "hi"); !apierrors.IsNetworkError(err) {
		t.Fatalf("Complete error = %v", err)
	}
	msgs := f.session.Messages()
	if len(msgs) != 1 || msgs[0] != models.UserMessage("hi") {
		t.Errorf("messages = %+v", msgs)
	}
}
