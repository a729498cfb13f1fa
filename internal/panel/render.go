package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Render converts a View into styled terminal text. Used by the one-shot
// CLI output and as the topic pane of the interactive panel.
func Render(v View, width int) string {
	s := GetStyles()
	var b strings.Builder

	title := v.Title
	if title == "" {
		title = "No conversation"
	}
	b.WriteString(s.Title.Render(title))
	if v.HasCustomTitle {
		b.WriteString(" " + s.CustomMark.Render("✎"))
	}
	b.WriteString("\n")
	b.WriteString(s.Help.Render(fmt.Sprintf("%d topics · %d bookmarks", v.TopicCount, v.BookmarkCount)))
	b.WriteString("\n\n")

	if len(v.Groups) == 0 {
		b.WriteString(s.Empty.Render("No topics or bookmarks yet"))
		b.WriteString("\n")
		return b.String()
	}

	for _, g := range v.Groups {
		b.WriteString(renderGroup(g, width, -1, false))
	}
	return b.String()
}

// renderGroup renders one topic group. selected is the index of the
// highlighted bookmark within the group, or -1; focused marks the group
// header itself as the cursor position.
func renderGroup(g TopicGroup, width int, selected int, focused bool) string {
	s := GetStyles()
	var b strings.Builder

	header := g.Name
	switch {
	case focused:
		b.WriteString(s.Selected.Render(" " + header + " "))
	case g.Current:
		b.WriteString(s.TopicActive.Render(header))
	default:
		b.WriteString(s.TopicHeader.Render(header))
	}
	b.WriteString(s.Help.Render(fmt.Sprintf("  (%d)", len(g.Bookmarks))))
	b.WriteString("\n")

	if len(g.Bookmarks) == 0 {
		b.WriteString("  " + s.Empty.Render("empty") + "\n")
	}
	for i, bm := range g.Bookmarks {
		line := "  • " + bm.Name
		if bm.Excerpt != "" {
			line += s.Help.Render(" · " + truncate(bm.Excerpt, width/2))
		}
		switch {
		case i == selected:
			line = s.Selected.Render(line)
		case bm.Missing:
			line = s.Missing.Render(line)
		default:
			line = s.Bookmark.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func renderMessageRow(m MessageRow, width int, selected bool) string {
	s := GetStyles()
	marker := "  "
	if m.Bookmarked {
		marker = s.Marker.Render("🔖") + " "
	}
	prefix := "· "
	style := s.AssistRow
	if m.Author == "user" {
		prefix = "> "
		style = s.UserRow
	}
	line := marker + prefix + truncate(m.Excerpt, width-6)
	if m.Bookmarked && m.Bookmark != "" {
		line += s.Help.Render("  [" + m.Bookmark + "]")
	}
	if selected {
		return s.Selected.Render(line)
	}
	return style.Render(line)
}

// RenderPreview renders a message body as markdown for the preview pane.
// Falls back to the raw text when glamour cannot initialize.
func RenderPreview(content string, width int) string {
	contentWidth := max(20, width-4)
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(contentWidth),
	)
	if err != nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}

func truncate(text string, width int) string {
	if width < 4 {
		width = 4
	}
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}
