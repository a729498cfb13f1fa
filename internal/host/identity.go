package host

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// conversationPath matches the host's conversation navigation shape, e.g.
// "/c/abc-123". Anything else (landing page, settings) yields no id.
var conversationPath = regexp.MustCompile(`^/c/([A-Za-z0-9-]+)`)

// Identity derives the active conversation id from the host's navigation
// location. Every call reads the live location file: the host navigates
// without any reload signal, so cached values would go stale silently.
type Identity struct {
	root string
}

// NewIdentity creates a resolver for the given host root.
func NewIdentity(root string) *Identity {
	return &Identity{root: root}
}

// LocationPath returns the path of the host's location file.
func (id *Identity) LocationPath() string {
	return filepath.Join(id.root, "location")
}

// CurrentID returns the active conversation id, or "" when no conversation
// is open or the location is unreadable. Unreadable is a valid transient
// state, never an error.
func (id *Identity) CurrentID() string {
	data, err := os.ReadFile(id.LocationPath())
	if err != nil {
		return ""
	}
	return ParseConversationID(strings.TrimSpace(string(data)))
}

// ParseConversationID extracts a conversation id from a navigation path.
// Returns "" when the path does not match the conversation shape.
func ParseConversationID(location string) string {
	m := conversationPath.FindStringSubmatch(location)
	if m == nil {
		return ""
	}
	return m[1]
}
