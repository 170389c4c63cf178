package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qanoonbot/qanoonchat/internal/models"
)

// NewSaveCmd creates the save-chat command
func NewSaveCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the current conversation to the server",
		Long: `Send the whole stored conversation to the Qanoon backend.

Every call creates a new saved chat. The local conversation is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if err := session.SaveChat(ctx); err != nil {
				return fmt.Errorf("failed to save chat: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), models.MsgChatSaved)
			return nil
		},
	}
}
