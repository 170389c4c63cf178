// Package commands provides CLI commands for qanoonchat.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qanoonbot/qanoonchat/internal/config"
)

var (
	// Global flags
	verboseFlag   bool
	configDirFlag string

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// NewRootCmd creates the qanoonchat command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}

	var (
		fileFlag   string
		outputFlag string
		copyFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "qanoonchat [prompt]",
		Short: "Terminal client for the Qanoon legal assistant",
		Long: `qanoonchat is a terminal client for the Qanoon Bot legal assistant.
It keeps the conversation on disk, types replies out as they arrive and can
save conversations to the Qanoon backend.

Examples:
  qanoonchat                            Start interactive chat
  qanoonchat "What is contract law?"    Ask a single question
  qanoonchat -f question.md             Read the question from a file
  cat question.md | qanoonchat          Read the question from stdin
  qanoonchat save                       Save the current conversation
  qanoonchat saved --search tenancy     Browse saved conversations`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configDirFlag != "" {
				config.SetConfigDir(configDirFlag)
			}
			if err := config.LoadDotEnv(".env"); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "qanoonchat %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, ok, err := readPrompt(cmd, args, fileFlag)
			if err != nil {
				return err
			}
			if !ok {
				return runChat(cmd, deps)
			}
			return runAsk(cmd, deps, prompt, askOptions{output: outputFlag, copy: copyFlag})
		},
	}

	cmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Mirror diagnostic logs to stderr")
	cmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Configuration directory (default ~/.qanoonchat)")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save reply to file")
	cmd.Flags().BoolVar(&copyFlag, "copy", false, "Copy the reply to the clipboard")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(
		NewChatCmd(deps),
		NewAskCmd(deps),
		NewSaveCmd(deps),
		NewSavedCmd(deps),
		NewSearchCmd(deps),
		NewLoginCmd(deps),
		NewSignupCmd(deps),
		NewClearCmd(deps),
		NewConfigCmd(deps),
	)

	return cmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd(NewDependencies()).Execute(); err != nil {
		os.Exit(1)
	}
}

// readPrompt resolves the prompt from, in order, --file, the argument and
// piped stdin. ok is false when none was given or stdin was empty.
func readPrompt(cmd *cobra.Command, args []string, file string) (string, bool, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if len(args) > 0 {
		return args[0], true, nil
	}

	if hasPipedInput(cmd.InOrStdin()) {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", false, nil
		}
		return string(data), true, nil
	}

	return "", false, nil
}

// hasPipedInput reports whether r carries input that is not an interactive terminal
func hasPipedInput(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
