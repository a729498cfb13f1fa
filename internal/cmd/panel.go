package cmd

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chatmarks/go-chatmarks/internal/applog"
	"github.com/chatmarks/go-chatmarks/internal/panel"
)

var panelOneShot bool

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Launch the interactive topic/bookmark panel",
	Long: `Launch the interactive panel for the active conversation.

The panel tracks conversation changes live: navigating in the chat
application, or new messages arriving, re-renders it automatically.

Examples:
  chatmarks panel                 # Interactive panel
  chatmarks panel --once          # Print the current panel and exit`,
	RunE: runPanel,
}

func init() {
	panelCmd.Flags().BoolVar(&panelOneShot, "once", false, "print the panel once and exit")
}

func runPanel(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	if panelOneShot {
		eng.scheduler.RefreshNow()
		view := eng.scheduler.LastView()
		if view == nil {
			return fmt.Errorf("no panel view available")
		}
		fmt.Print(panel.Render(*view, terminalWidth()))
		return nil
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("panel requires a terminal; use --once for plain output")
	}

	if err := eng.monitor.Start(); err != nil {
		return err
	}

	applog.Log.Info("starting panel")
	model := panel.NewModel(eng.store, eng.reader, eng.scheduler,
		eng.cfg.Settings.TopicPosition, eng.cfg.Settings.AutoTopic)
	p := tea.NewProgram(model, panel.ProgramOptions()...)

	eng.scheduler.AddSink(panel.SendSink(p.Send))
	eng.scheduler.RequestRefresh()

	_, err = p.Run()
	return err
}

func terminalWidth() int {
	for _, fd := range []int{int(os.Stdout.Fd()), int(os.Stderr.Fd())} {
		if term.IsTerminal(fd) {
			if w, _, err := term.GetSize(fd); err == nil && w > 0 {
				return w
			}
		}
	}
	return 80
}
