package panel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"golang.org/x/term"

	"github.com/chatmarks/go-chatmarks/internal/host"
	"github.com/chatmarks/go-chatmarks/internal/marks"
)

// ViewMsg delivers a freshly rendered view to the running program.
type ViewMsg View

// SendSink adapts a program's Send function into a render sink.
type SendSink func(msg tea.Msg)

// Render implements the scheduler's sink contract.
func (s SendSink) Render(v View) { s(ViewMsg(v)) }

// Refresher requests a debounced refresh pass.
type Refresher interface {
	RequestRefresh()
}

// TranscriptSource loads full message bodies for the preview pane.
// Satisfied by *host.Reader.
type TranscriptSource interface {
	Transcript(conversationID string) ([]host.Message, error)
}

type pane int

const (
	paneMessages pane = iota
	paneTopics
)

type editKind int

const (
	editNone editKind = iota
	editAddTopic
	editRenameTopic
	editBookmark
	editTitle
)

// Model is the interactive panel.
type Model struct {
	keys       panelKeyMap
	store      *marks.Store
	refresher  Refresher
	reader     TranscriptSource
	topicsLeft bool
	autoTopic  bool

	view   View
	focus  pane
	msgIdx int
	topIdx int

	editing editKind
	input   textinput.Model

	preview    string
	previewing bool

	status string
	width  int
	height int
}

// NewModel creates the panel model. topicPosition and autoTopic come from the
// stored settings.
func NewModel(store *marks.Store, reader TranscriptSource, refresher Refresher, topicPosition, autoTopic string) Model {
	ti := textinput.New()
	ti.CharLimit = 120
	return Model{
		keys:       defaultPanelKeyMap(),
		store:      store,
		refresher:  refresher,
		reader:     reader,
		topicsLeft: topicPosition == "left",
		autoTopic:  autoTopic != "disabled",
		input:      ti,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ViewMsg:
		m.view = View(msg)
		m.clampCursors()
		m.status = ""
		return m, nil

	case tea.KeyMsg:
		if m.editing != editNone {
			return m.updateEditing(msg)
		}
		if m.previewing {
			return m.updatePreview(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.SwapPane):
		if m.focus == paneMessages {
			m.focus = paneTopics
		} else {
			m.focus = paneMessages
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.move(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.move(1)
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.refresher.RequestRefresh()
		return m, nil

	case key.Matches(msg, m.keys.AddTopic):
		return m.startEdit(editAddTopic, "New topic name", ""), nil

	case key.Matches(msg, m.keys.RenameTopic):
		if g := m.selectedTopic(); g != nil {
			return m.startEdit(editRenameTopic, "Rename topic", g.Name), nil
		}
		return m, nil

	case key.Matches(msg, m.keys.DeleteTopic):
		if g := m.selectedTopic(); g != nil {
			m.runStore("delete topic", func(ctx context.Context) error {
				return m.store.DeleteTopic(ctx, m.view.ConversationID, g.TopicID)
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.SetCurrent):
		if g := m.selectedTopic(); g != nil {
			id := g.TopicID
			if g.Current {
				id = "" // toggling the current topic clears the selection
			}
			m.runStore("set current topic", func(ctx context.Context) error {
				return m.store.SetCurrentTopic(ctx, m.view.ConversationID, id)
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.Bookmark):
		if row := m.selectedMessage(); row != nil {
			return m.startEdit(editBookmark, "Bookmark name (empty removes)", row.Bookmark), nil
		}
		return m, nil

	case key.Matches(msg, m.keys.EditTitle):
		initial := ""
		if m.view.HasCustomTitle {
			initial = m.view.Title
		}
		return m.startEdit(editTitle, "Custom title (empty reverts)", initial), nil

	case key.Matches(msg, m.keys.Preview):
		if row := m.selectedMessage(); row != nil {
			m.openPreview(row.ID)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.commitEdit()
		m.editing = editNone
		return m, nil
	case "esc":
		m.editing = editNone
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Preview):
		m.previewing = false
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) startEdit(kind editKind, placeholder, initial string) Model {
	m.editing = kind
	m.input.Placeholder = placeholder
	m.input.SetValue(initial)
	m.input.CursorEnd()
	m.input.Focus()
	return m
}

func (m *Model) commitEdit() {
	value := strings.TrimSpace(m.input.Value())
	conv := m.view.ConversationID

	switch m.editing {
	case editAddTopic:
		m.runStore("add topic", func(ctx context.Context) error {
			_, err := m.store.AddTopic(ctx, conv, value)
			if errors.Is(err, marks.ErrEmptyName) {
				return errors.New("topic name cannot be empty")
			}
			return err
		})

	case editRenameTopic:
		g := m.selectedTopic()
		if g == nil {
			return
		}
		m.runStore("rename topic", func(ctx context.Context) error {
			return m.store.RenameTopic(ctx, conv, g.TopicID, value)
		})

	case editBookmark:
		row := m.selectedMessage()
		if row == nil {
			return
		}
		topicID := ""
		if m.autoTopic {
			if g := m.view.CurrentGroup(); g != nil {
				topicID = g.TopicID
			}
		}
		m.runStore("set bookmark", func(ctx context.Context) error {
			return m.store.SetBookmark(ctx, conv, row.ID, value, topicID)
		})

	case editTitle:
		m.runStore("set title", func(ctx context.Context) error {
			return m.store.SetCustomTitle(ctx, conv, value)
		})
	}
}

func (m *Model) runStore(op string, fn func(ctx context.Context) error) {
	if m.view.ConversationID == "" {
		m.status = "no conversation open"
		return
	}
	if err := fn(context.Background()); err != nil {
		m.status = fmt.Sprintf("%s: %v", op, err)
	}
}

func (m *Model) openPreview(messageID string) {
	msgs, err := m.reader.Transcript(m.view.ConversationID)
	if err != nil {
		m.status = fmt.Sprintf("preview: %v", err)
		return
	}
	for _, msg := range msgs {
		if msg.ID == messageID {
			m.preview = RenderPreview(msg.Content, m.width)
			m.previewing = true
			return
		}
	}
	m.status = "message no longer in transcript"
}

func (m *Model) move(delta int) {
	if m.focus == paneMessages {
		m.msgIdx += delta
	} else {
		m.topIdx += delta
	}
	m.clampCursors()
}

func (m *Model) clampCursors() {
	m.msgIdx = clamp(m.msgIdx, len(m.view.Messages))
	m.topIdx = clamp(m.topIdx, len(m.view.Groups))
}

func clamp(i, n int) int {
	if n == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m Model) selectedTopic() *TopicGroup {
	if m.topIdx >= len(m.view.Groups) {
		return nil
	}
	g := &m.view.Groups[m.topIdx]
	if g.TopicID == "" {
		return nil // unassigned bucket has no topic operations
	}
	return g
}

func (m Model) selectedMessage() *MessageRow {
	if m.msgIdx >= len(m.view.Messages) {
		return nil
	}
	return &m.view.Messages[m.msgIdx]
}

func (m Model) viewContent() string {
	s := GetStyles()

	if m.previewing {
		return m.preview + "\n" + s.Help.Render("esc: close preview")
	}

	paneWidth := max(30, (m.width-6)/2)
	paneHeight := max(8, m.height-8)

	topics := m.renderTopicsPane(paneWidth)
	messages := m.renderMessagesPane(paneWidth)

	topicsStyle := s.PaneBorder
	messagesStyle := s.PaneBorder
	if m.focus == paneTopics {
		topicsStyle = s.FocusBorder
	} else {
		messagesStyle = s.FocusBorder
	}
	topics = topicsStyle.Width(paneWidth).Height(paneHeight).Render(topics)
	messages = messagesStyle.Width(paneWidth).Height(paneHeight).Render(messages)

	var row string
	if m.topicsLeft {
		row = lipgloss.JoinHorizontal(lipgloss.Top, topics, messages)
	} else {
		row = lipgloss.JoinHorizontal(lipgloss.Top, messages, topics)
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	return header + "\n" + row + "\n" + footer
}

func (m Model) renderHeader() string {
	s := GetStyles()
	title := m.view.Title
	if title == "" {
		title = "No conversation"
	}
	out := s.Title.Render(title)
	if m.view.HasCustomTitle {
		out += " " + s.CustomMark.Render("✎")
	}
	out += "  " + s.Help.Render(fmt.Sprintf("%d topics · %d bookmarks",
		m.view.TopicCount, m.view.BookmarkCount))
	return out
}

func (m Model) renderTopicsPane(width int) string {
	var b strings.Builder
	if len(m.view.Groups) == 0 {
		return GetStyles().Empty.Render("No topics yet (press a)")
	}
	for i, g := range m.view.Groups {
		focused := m.focus == paneTopics && i == m.topIdx
		b.WriteString(renderGroup(g, width, -1, focused))
	}
	return b.String()
}

func (m Model) renderMessagesPane(width int) string {
	if len(m.view.Messages) == 0 {
		return GetStyles().Empty.Render("No messages")
	}
	var b strings.Builder
	for i, row := range m.view.Messages {
		selected := m.focus == paneMessages && i == m.msgIdx
		b.WriteString(renderMessageRow(row, width, selected))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFooter() string {
	s := GetStyles()
	if m.editing != editNone {
		return m.input.View() + "\n" + s.Help.Render("enter: confirm  ·  esc: cancel")
	}
	if m.status != "" {
		return s.StatusBar.Render(m.status)
	}
	return s.Help.Render(
		"a: add topic  r: rename  d: delete  c: current  b: bookmark  t: title  enter: preview  tab: pane  q: quit")
}

func (m Model) View() tea.View {
	v := tea.NewView(m.viewContent())
	v.AltScreen = true
	return v
}

// ProgramOptions returns sizing options for the panel program, probing the
// attached terminal.
func ProgramOptions() []tea.ProgramOption {
	var opts []tea.ProgramOption
	for _, fd := range []int{int(os.Stdout.Fd()), int(os.Stdin.Fd()), int(os.Stderr.Fd())} {
		if term.IsTerminal(fd) {
			w, h, err := term.GetSize(fd)
			if err == nil && w > 0 && h > 0 {
				opts = append(opts, tea.WithWindowSize(w, h))
				break
			}
		}
	}
	return opts
}
