package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qanoonbot/qanoonchat/internal/render"
	"github.com/qanoonbot/qanoonchat/internal/tui"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with Qanoon Bot.

The conversation is kept on disk and restored on the next start.
Press Enter to send, Ctrl+S to save the chat to the server,
Esc to dismiss the guidelines and Ctrl+C to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, deps)
		},
	}
}

func runChat(cmd *cobra.Command, deps *Dependencies) error {
	a, err := deps.setup(false)
	if err != nil {
		return err
	}
	defer a.close()

	session := a.newSession()
	defer session.Close()

	tui.UpdateTheme(a.cfg.TUITheme)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts := tui.Options{
		TypingInterval: a.cfg.TypingInterval(),
		Render:         render.OptionsFromConfig(a.cfg.Markdown, 0),
		Clipboard:      deps.copyText,
		Context:        ctx,
	}

	a.logger.Info("chat started", zap.Int("messages", len(session.Messages())))
	if err := deps.tui().RunChat(session, opts); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	return nil
}
