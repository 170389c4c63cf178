package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qanoonbot/qanoonchat/internal/models"
)

// clearer is implemented by stores that can remove their entry
type clearer interface {
	Clear() error
}

// NewClearCmd creates the command that forgets the local conversation
func NewClearCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the locally stored conversation",
		Long: `Delete the conversation kept on this machine.
Chats saved on the server are not affected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.setup(true)
			if err != nil {
				return err
			}
			defer a.close()

			if c, ok := a.store.(clearer); ok {
				err = c.Clear()
			} else {
				err = a.store.Save(models.Transcript{})
			}
			if err != nil {
				return fmt.Errorf("failed to clear conversation: %w", err)
			}

			a.logger.Info("transcript cleared")
			fmt.Fprintln(cmd.OutOrStdout(), "Conversation cleared")
			return nil
		},
	}
}
