// Package cmd provides the CLI commands for chatmarks.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chatmarks/go-chatmarks/internal/applog"
)

// global flags
var (
	logPath    string
	configPath string
	outputJSON bool
)

// rootCmd is the root command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "chatmarks",
	Short: "Topics and bookmarks for AI chat conversations",
	Long: `chatmarks keeps per-conversation topics and message bookmarks in sync
with a local AI chat application, and serves them to any client that asks.

Running without a subcommand launches the interactive panel.

Commands:
  serve      Start the HTTP/MCP server and the change monitor
  topics     List and manage a conversation's topics
  bookmarks  List and manage message bookmarks
  title      Show or override a conversation's display title
  stats      Show aggregate topic and bookmark counts

Examples:
  chatmarks                       # Launch the panel
  chatmarks serve                 # HTTP API + change stream on :7845
  chatmarks topics list           # Topics of the active conversation
  chatmarks bookmarks set m42 "key decision"`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logPath != "" {
			return applog.Init(logPath)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		applog.Log.Close()
	},
	RunE: runPanel,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "write debug log to file")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.chatmarks/config.json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(panelCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(bookmarksCmd)
	rootCmd.AddCommand(titleCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}
