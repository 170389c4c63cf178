package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qanoonbot/qanoonchat/internal/chat"
	apierrors "github.com/qanoonbot/qanoonchat/internal/errors"
	"github.com/qanoonbot/qanoonchat/internal/tui"
	"github.com/qanoonbot/qanoonchat/internal/typing"
)

type askOptions struct {
	output string
	copy   bool
}

// NewAskCmd creates the one-shot question command
func NewAskCmd(deps *Dependencies) *cobra.Command {
	var (
		fileFlag string
		opts     askOptions
	)

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Ask a single question",
		Long: `Send one question to Qanoon Bot and print the reply.

The question and the reply are added to the stored conversation.
On a terminal the reply is typed out; otherwise it is printed at once.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, ok, err := readPrompt(cmd, args, fileFlag)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}
			return runAsk(cmd, deps, prompt, opts)
		},
	}

	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Save reply to file")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the reply to the clipboard")

	return cmd
}

func runAsk(cmd *cobra.Command, deps *Dependencies, prompt string, opts askOptions) error {
	a, err := deps.setup(true)
	if err != nil {
		return err
	}
	defer a.close()

	session := a.newSession()
	defer session.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	typed := deps.terminal(out)

	var reply string
	if typed {
		reply, err = askTyped(ctx, cmd, deps, a, session, prompt)
	} else {
		reply, err = session.Complete(ctx, prompt)
		if err == nil {
			fmt.Fprintln(out, reply)
		}
	}
	if err != nil {
		if errors.Is(err, apierrors.ErrEmptyPrompt) {
			return errors.New("prompt is empty")
		}
		return fmt.Errorf("generation failed: %w", err)
	}

	if opts.copy || a.cfg.CopyToClipboard {
		if err := deps.copyText(reply); err != nil {
			a.logger.Warn("failed to copy reply", zap.Error(err))
			fmt.Fprintln(errOut, warningStyle.Render(fmt.Sprintf("Failed to copy to clipboard: %v", err)))
		} else if typed {
			fmt.Fprintln(errOut, successStyle.Render("✓ Copied to clipboard"))
		}
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(reply), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if typed {
			fmt.Fprintln(errOut, successStyle.Render(fmt.Sprintf("✓ Reply saved to %s", opts.output)))
		}
	}

	return nil
}

// askTyped waits for the reply behind a spinner, then types it out one
// character per tick. An interrupt while typing prints the rest at once.
func askTyped(ctx context.Context, cmd *cobra.Command, deps *Dependencies, a *app, session *chat.Session, prompt string) (string, error) {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	spin := newSpinner(errOut, "Waiting for Qanoon Bot")
	spin.start()

	animator := typing.NewAnimator(a.cfg.TypingInterval(), typing.WithTicker(deps.ticker()))

	printed := 0
	started := false
	reply, err := session.Converse(ctx, prompt, animator, func(buffer string) {
		if !started {
			started = true
			spin.stopWithSuccess("Reply received")
			fmt.Fprintln(out, botLabelStyle.Render("Qanoon Bot"))
		}
		fmt.Fprint(out, buffer[printed:])
		printed = len(buffer)
	})

	if !started {
		spin.stopWithError()
		if err != nil && !errors.Is(err, apierrors.ErrEmptyPrompt) {
			fmt.Fprintln(errOut, tui.FormatError(err))
		}
		return "", err
	}

	if err != nil {
		// interrupted while typing; the reply is already in the transcript
		fmt.Fprint(out, reply[printed:])
		a.logger.Debug("typing interrupted", zap.Error(err))
	}
	if !strings.HasSuffix(reply, "\n") {
		fmt.Fprintln(out)
	}
	return reply, nil
}
