package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var titleConversation string

var titleCmd = &cobra.Command{
	Use:   "title [new-title]",
	Short: "Show or override a conversation's display title",
	Long: `Show the display title of a conversation: the custom override when one
is set, otherwise the title derived from the conversation's first message.

Passing an argument sets the override; an empty string reverts to the
derived title.

Examples:
  chatmarks title                       # Show the active conversation's title
  chatmarks title "Rollout plan"        # Override it
  chatmarks title ""                    # Revert to the derived title`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTitle,
}

func init() {
	titleCmd.Flags().StringVarP(&titleConversation, "conversation", "c", "", "conversation id (default: active)")
}

func runTitle(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	conversationID, err := eng.resolveConversation(titleConversation)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if len(args) == 1 {
		return eng.store.SetCustomTitle(ctx, conversationID, args[0])
	}

	custom, err := eng.store.CustomTitle(ctx, conversationID)
	if err != nil {
		return err
	}
	if custom != "" {
		fmt.Println(custom)
		return nil
	}
	fmt.Println(eng.reader.Title(conversationID))
	return nil
}
