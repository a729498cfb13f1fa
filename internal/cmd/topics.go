package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var topicsConversation string

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List and manage a conversation's topics",
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List topics",
	RunE:  runTopicsList,
}

var topicsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a topic",
	Args:  cobra.ExactArgs(1),
	RunE:  runTopicsAdd,
}

var topicsRenameCmd = &cobra.Command{
	Use:   "rename <topic-id> <new-name>",
	Short: "Rename a topic",
	Args:  cobra.ExactArgs(2),
	RunE:  runTopicsRename,
}

var topicsDeleteCmd = &cobra.Command{
	Use:   "delete <topic-id>",
	Short: "Delete a topic, unassigning its bookmarks",
	Args:  cobra.ExactArgs(1),
	RunE:  runTopicsDelete,
}

var topicsCurrentCmd = &cobra.Command{
	Use:   "current [topic-id]",
	Short: "Show or set the current topic (no argument shows, empty string clears)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTopicsCurrent,
}

func init() {
	topicsCmd.PersistentFlags().StringVarP(&topicsConversation, "conversation", "c", "", "conversation id (default: active)")
	topicsCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON")
	topicsCmd.AddCommand(topicsListCmd)
	topicsCmd.AddCommand(topicsAddCmd)
	topicsCmd.AddCommand(topicsRenameCmd)
	topicsCmd.AddCommand(topicsDeleteCmd)
	topicsCmd.AddCommand(topicsCurrentCmd)
}

func runTopicsList(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	conversationID, err := eng.resolveConversation(topicsConversation)
	if err != nil {
		return err
	}

	ctx := context.Background()
	topics, err := eng.store.Topics(ctx, conversationID)
	if err != nil {
		return err
	}
	current, err := eng.store.CurrentTopic(ctx, conversationID)
	if err != nil {
		return err
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(topics)
	}
	if len(topics) == 0 {
		fmt.Println("No topics.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\t")
	for _, t := range topics {
		mark := ""
		if t.ID == current {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, mark)
	}
	return w.Flush()
}

func runTopicsAdd(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	conversationID, err := eng.resolveConversation(topicsConversation)
	if err != nil {
		return err
	}

	topic, err := eng.store.AddTopic(context.Background(), conversationID, args[0])
	if err != nil {
		return err
	}
	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(topic)
	}
	fmt.Printf("Created topic %s (%s)\n", topic.Name, topic.ID)
	return nil
}

func runTopicsRename(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	conversationID, err := eng.resolveConversation(topicsConversation)
	if err != nil {
		return err
	}
	return eng.store.RenameTopic(context.Background(), conversationID, args[0], args[1])
}

func runTopicsDelete(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	conversationID, err := eng.resolveConversation(topicsConversation)
	if err != nil {
		return err
	}
	return eng.store.DeleteTopic(context.Background(), conversationID, args[0])
}

func runTopicsCurrent(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	conversationID, err := eng.resolveConversation(topicsConversation)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if len(args) == 0 {
		current, err := eng.store.CurrentTopic(ctx, conversationID)
		if err != nil {
			return err
		}
		if current == "" {
			fmt.Println("No current topic.")
		} else {
			fmt.Println(current)
		}
		return nil
	}
	return eng.store.SetCurrentTopic(ctx, conversationID, args[0])
}
