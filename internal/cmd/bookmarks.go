package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	bookmarksConversation string
	bookmarkTopic         string
)

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "List and manage message bookmarks",
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarks",
	RunE:  runBookmarksList,
}

var bookmarksSetCmd = &cobra.Command{
	Use:   "set <message-id> <name>",
	Short: "Create or rename a bookmark",
	Args:  cobra.ExactArgs(2),
	RunE:  runBookmarksSet,
}

var bookmarksRmCmd = &cobra.Command{
	Use:   "rm <message-id>",
	Short: "Remove a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookmarksRm,
}

func init() {
	bookmarksCmd.PersistentFlags().StringVarP(&bookmarksConversation, "conversation", "c", "", "conversation id (default: active)")
	bookmarksCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON")
	bookmarksSetCmd.Flags().StringVarP(&bookmarkTopic, "topic", "t", "", "topic id to assign")
	bookmarksCmd.AddCommand(bookmarksListCmd)
	bookmarksCmd.AddCommand(bookmarksSetCmd)
	bookmarksCmd.AddCommand(bookmarksRmCmd)
}

func runBookmarksList(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	conversationID, err := eng.resolveConversation(bookmarksConversation)
	if err != nil {
		return err
	}

	bookmarks, err := eng.store.Bookmarks(context.Background(), conversationID)
	if err != nil {
		return err
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(bookmarks)
	}
	if len(bookmarks) == 0 {
		fmt.Println("No bookmarks.")
		return nil
	}

	messageIDs := make([]string, 0, len(bookmarks))
	for id := range bookmarks {
		messageIDs = append(messageIDs, id)
	}
	sort.Strings(messageIDs)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MESSAGE\tNAME\tTOPIC")
	for _, id := range messageIDs {
		b := bookmarks[id]
		fmt.Fprintf(w, "%s\t%s\t%s\n", id, b.Name, b.TopicID)
	}
	return w.Flush()
}

func runBookmarksSet(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	conversationID, err := eng.resolveConversation(bookmarksConversation)
	if err != nil {
		return err
	}
	return eng.store.SetBookmark(context.Background(), conversationID, args[0], args[1], bookmarkTopic)
}

func runBookmarksRm(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	conversationID, err := eng.resolveConversation(bookmarksConversation)
	if err != nil {
		return err
	}
	return eng.store.SetBookmark(context.Background(), conversationID, args[0], "", "")
}
