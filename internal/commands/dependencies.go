package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/qanoonbot/qanoonchat/internal/api"
	"github.com/qanoonbot/qanoonchat/internal/chat"
	"github.com/qanoonbot/qanoonchat/internal/config"
	"github.com/qanoonbot/qanoonchat/internal/logging"
	"github.com/qanoonbot/qanoonchat/internal/storage"
	"github.com/qanoonbot/qanoonchat/internal/tui"
	"github.com/qanoonbot/qanoonchat/internal/typing"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(session *chat.Session, opts tui.Options) error
	RunSavedChats(fetch tui.FetchFunc, opts tui.SavedChatsOptions) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
// Nil fields fall back to the production implementations.
type Dependencies struct {
	// Client is the backend client; built from config when nil.
	Client api.ChatClientInterface

	// Store persists the transcript; a file under the config dir when nil.
	Store storage.Persister

	// Logger is the diagnostic channel; a log file under the config dir when nil.
	Logger *zap.Logger

	// TUI is the terminal user interface.
	TUI TUIInterface

	// Clipboard copies text to the system clipboard.
	Clipboard func(text string) error

	// IsTerminal reports whether w is attached to a terminal.
	IsTerminal func(w io.Writer) bool

	// Ticker drives the typed output of ask.
	Ticker typing.TickerFunc
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(session *chat.Session, opts tui.Options) error {
	return tui.RunChat(session, opts)
}

func (d *DefaultTUI) RunSavedChats(fetch tui.FetchFunc, opts tui.SavedChatsOptions) error {
	return tui.RunSavedChats(fetch, opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI:        &DefaultTUI{},
		Clipboard:  clipboard.WriteAll,
		IsTerminal: isTerminal,
		Ticker:     typing.NewTimeTicker,
	}
}

// isTerminal returns true if w is a file connected to a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (d *Dependencies) tui() TUIInterface {
	if d.TUI == nil {
		return &DefaultTUI{}
	}
	return d.TUI
}

func (d *Dependencies) copyText(text string) error {
	if d.Clipboard == nil {
		return clipboard.WriteAll(text)
	}
	return d.Clipboard(text)
}

func (d *Dependencies) terminal(w io.Writer) bool {
	if d.IsTerminal == nil {
		return isTerminal(w)
	}
	return d.IsTerminal(w)
}

func (d *Dependencies) ticker() typing.TickerFunc {
	if d.Ticker == nil {
		return typing.NewTimeTicker
	}
	return d.Ticker
}

// app is the per-invocation wiring shared by every command
type app struct {
	cfg    config.Config
	logger *zap.Logger
	client api.ChatClientInterface
	store  storage.Persister

	closeLog func()
}

// setup loads the configuration and builds the logger, client and store.
// mirrorLogs copies log lines to stderr when --verbose is set; screens that
// own the terminal pass false.
func (d *Dependencies) setup(mirrorLogs bool) (*app, error) {
	if d == nil {
		d = NewDependencies()
	}

	cfg, cfgErr := config.LoadConfig()

	logger, closeLog := d.Logger, func() {}
	if logger == nil {
		logPath, err := config.GetLogPath()
		if err != nil {
			logPath = ""
		}
		logger, closeLog, err = logging.New(logging.Options{
			Level:    cfg.LogLevel,
			FilePath: logPath,
			Stderr:   verboseFlag && mirrorLogs,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}
	if cfgErr != nil {
		logger.Warn("failed to load config, using defaults", zap.Error(cfgErr))
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		client:   d.Client,
		store:    d.Store,
		closeLog: closeLog,
	}

	if a.client == nil {
		client, err := api.NewClientFromConfig(cfg, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create client: %w", err)
		}
		a.client = client
	}

	if a.store == nil {
		dir, err := config.EnsureConfigDir()
		if err != nil {
			a.close()
			return nil, err
		}
		store, err := storage.NewDefaultFileStore(dir)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to open transcript store: %w", err)
		}
		a.store = store
	}

	return a, nil
}

// newSession creates a chat session over the persisted transcript
func (a *app) newSession() *chat.Session {
	session := chat.NewSession(a.store, a.client, chat.WithLogger(a.logger))
	session.Load()
	return session
}

// close flushes the logger and releases the log file it owns. A logger
// passed in through Dependencies is only flushed.
func (a *app) close() {
	_ = a.logger.Sync()
	if a.closeLog != nil {
		a.closeLog()
	}
}
