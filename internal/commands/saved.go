package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qanoonbot/qanoonchat/internal/history"
	"github.com/qanoonbot/qanoonchat/internal/models"
	"github.com/qanoonbot/qanoonchat/internal/tui"
)

type savedOptions struct {
	search string
	json   bool
	plain  bool
	export int
	format string
	output string
}

// NewSavedCmd creates the saved chats command
func NewSavedCmd(deps *Dependencies) *cobra.Command {
	var opts savedOptions

	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Browse chats saved on the server",
		Long: `List the chats previously saved with 'qanoonchat save'.

On a terminal an interactive browser opens. Use --plain or --json for
scriptable output, and --export N to write the N-th listed chat to a file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSaved(cmd, deps, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "Only show chats containing this text")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the chats as JSON")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Print the chats without the interactive browser")
	cmd.Flags().IntVar(&opts.export, "export", 0, "Export the N-th listed chat (1-based)")
	cmd.Flags().StringVar(&opts.format, "format", string(history.ExportFormatMarkdown), "Export format: markdown or json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Export file path (default derived from the chat date)")

	return cmd
}

// NewSearchCmd creates the saved chats search command
func NewSearchCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search chats saved on the server",
		Long: `Print the saved chats where some message contains the query.
Matching ignores case.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.setup(true)
			if err != nil {
				return err
			}
			defer a.close()

			chats := fetchSaved(cmd.Context(), a)
			printSearchResults(cmd.OutOrStdout(), history.Search(chats, args[0]), args[0])
			return nil
		},
	}
}

func runSaved(cmd *cobra.Command, deps *Dependencies, opts savedOptions) error {
	var format history.ExportFormat
	if opts.export > 0 {
		f, err := history.ParseExportFormat(opts.format)
		if err != nil {
			return err
		}
		format = f
	}

	interactive := !opts.json && !opts.plain && opts.export == 0 && deps.terminal(cmd.OutOrStdout())

	a, err := deps.setup(!interactive)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if interactive {
		tui.UpdateTheme(a.cfg.TUITheme)
		fetch := func(ctx context.Context) ([]models.SavedChat, error) {
			return a.client.SavedChats(ctx)
		}
		return deps.tui().RunSavedChats(fetch, tui.SavedChatsOptions{
			Query:   opts.search,
			Logger:  a.logger,
			Context: ctx,
		})
	}

	if opts.json || opts.export > 0 {
		chats, err := a.client.SavedChats(ctx)
		if err != nil {
			a.logger.Error("failed to fetch saved chats", zap.Error(err))
			return fmt.Errorf("failed to fetch saved chats: %w", err)
		}
		chats = history.Filter(chats, opts.search)

		if opts.export > 0 {
			return exportSaved(cmd.OutOrStdout(), chats, opts.export, format, opts.output)
		}
		return printSavedJSON(cmd.OutOrStdout(), chats)
	}

	chats := history.Filter(fetchSaved(ctx, a), opts.search)
	printSavedChats(cmd.OutOrStdout(), chats, opts.search)
	return nil
}

// fetchSaved loads the saved chats. A failure is logged and yields an empty
// list, like the interactive browser does.
func fetchSaved(ctx context.Context, a *app) []models.SavedChat {
	if ctx == nil {
		ctx = context.Background()
	}
	chats, err := a.client.SavedChats(ctx)
	if err != nil {
		a.logger.Error("failed to fetch saved chats", zap.Error(err))
		return nil
	}
	return chats
}

func exportSaved(out io.Writer, chats []models.SavedChat, n int, format history.ExportFormat, path string) error {
	if n > len(chats) {
		return fmt.Errorf("no saved chat #%d (%d listed)", n, len(chats))
	}
	chat := chats[n-1]
	if path == "" {
		path = tui.ExportFileName(chat, format)
	}
	if err := history.WriteExport(chat, format, path); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Fprintf(out, "Exported %s to %s\n", history.Title(chat), abs)
	return nil
}

func printSavedJSON(out io.Writer, chats []models.SavedChat) error {
	if chats == nil {
		chats = []models.SavedChat{}
	}
	data, err := json.MarshalIndent(chats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode chats: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// printSavedChats writes each chat as a title followed by its prefixed messages
func printSavedChats(out io.Writer, chats []models.SavedChat, query string) {
	if len(chats) == 0 {
		fmt.Fprintln(out, history.EmptyMessage(query))
		return
	}

	for i, chat := range chats {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%d. %s\n", i+1, history.Title(chat))
		for _, m := range chat.Messages {
			fmt.Fprintf(out, "   %s\n", history.Line(m))
		}
	}
}

func printSearchResults(out io.Writer, results []history.SearchResult, query string) {
	if len(results) == 0 {
		fmt.Fprintln(out, history.EmptyMessage(query))
		return
	}

	for i, r := range results {
		fmt.Fprintf(out, "%d. %s (%s)\n", i+1, history.Title(r.Chat), history.FormatRelativeTime(r.Chat.CreatedAt))
		if r.MatchIndex >= 0 {
			m := r.Chat.Messages[r.MatchIndex]
			fmt.Fprintf(out, "   %s: %s\n", m.Label(), r.MatchSnippet)
		}
	}
}
