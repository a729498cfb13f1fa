package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate topic and bookmark counts",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	topics, bookmarks, err := eng.store.Counts(context.Background())
	if err != nil {
		return err
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]int{
			"topics":    topics,
			"bookmarks": bookmarks,
		})
	}
	fmt.Printf("Topics:    %d\nBookmarks: %d\n", topics, bookmarks)
	return nil
}
