// chatmarks keeps per-conversation topics and message bookmarks in sync with
// a local AI chat application.
package main

import (
	"os"

	"github.com/chatmarks/go-chatmarks/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
