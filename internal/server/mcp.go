package server

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chatmarks/go-chatmarks/internal/applog"
	"github.com/chatmarks/go-chatmarks/internal/marks"
)

var errNoConversation = errors.New("no conversation open and none specified")

// MCPServer exposes the conversation marks over the Model Context Protocol.
type MCPServer struct {
	server     *mcp.Server
	deps       Deps
	allowTools map[string]bool
	denyTools  map[string]bool
}

// NewMCPServer creates a new MCP server with chatmarks tools registered.
func NewMCPServer(deps Deps) *MCPServer {
	applog.Log.Info("creating MCP server")
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "chatmarks",
		Version: "1.0.0",
	}, nil)

	ms := &MCPServer{
		server: server,
		deps:   deps,
	}
	ms.registerTools()
	return ms
}

// SetToolFilters configures which tools are allowed or denied. Call before
// registering the server with a transport.
func (ms *MCPServer) SetToolFilters(allow, deny []string) {
	if len(allow) > 0 {
		ms.allowTools = make(map[string]bool)
		for _, t := range allow {
			ms.allowTools[strings.TrimSpace(t)] = true
		}
	}
	if len(deny) > 0 {
		ms.denyTools = make(map[string]bool)
		for _, t := range deny {
			ms.denyTools[strings.TrimSpace(t)] = true
		}
	}

	// Rebuild with the filters applied.
	ms.server = mcp.NewServer(&mcp.Implementation{
		Name:    "chatmarks",
		Version: "1.0.0",
	}, nil)
	ms.registerTools()
}

func (ms *MCPServer) isToolAllowed(name string) bool {
	if ms.denyTools != nil && ms.denyTools[name] {
		return false
	}
	if ms.allowTools != nil && !ms.allowTools[name] {
		return false
	}
	return true
}

func (ms *MCPServer) registerTools() {
	if ms.isToolAllowed("active_conversation") {
		mcp.AddTool(ms.server, &mcp.Tool{
			Name:        "active_conversation",
			Description: "Get the currently open conversation, its display title, and its panel summary",
		}, ms.handleActiveConversation)
	}

	if ms.isToolAllowed("list_topics") {
		mcp.AddTool(ms.server, &mcp.Tool{
			Name:        "list_topics",
			Description: "List topics and their bookmarks for a conversation (defaults to the active one)",
		}, ms.handleListTopics)
	}

	if ms.isToolAllowed("add_topic") {
		mcp.AddTool(ms.server, &mcp.Tool{
			Name:        "add_topic",
			Description: "Create a topic in a conversation",
		}, ms.handleAddTopic)
	}

	if ms.isToolAllowed("set_bookmark") {
		mcp.AddTool(ms.server, &mcp.Tool{
			Name:        "set_bookmark",
			Description: "Bookmark a message, optionally assigning it to a topic. An empty name removes the bookmark.",
		}, ms.handleSetBookmark)
	}

	if ms.isToolAllowed("get_stats") {
		mcp.AddTool(ms.server, &mcp.Tool{
			Name:        "get_stats",
			Description: "Get aggregate topic and bookmark counts across all conversations",
		}, ms.handleGetStats)
	}
}

// Tool input/output types

type activeConversationInput struct{}

type activeConversationOutput struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title,omitempty"`
	TopicCount     int    `json:"topic_count"`
	BookmarkCount  int    `json:"bookmark_count"`
}

type listTopicsInput struct {
	ConversationID string `json:"conversation_id,omitempty"` // Defaults to the active conversation
}

type topicEntry struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Current   bool     `json:"current,omitempty"`
	Bookmarks []string `json:"bookmarks,omitempty"`
}

type listTopicsOutput struct {
	ConversationID string       `json:"conversation_id"`
	Topics         []topicEntry `json:"topics"`
	Unassigned     []string     `json:"unassigned,omitempty"`
}

type addTopicInput struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Name           string `json:"name"`
}

type addTopicOutput struct {
	Topic marks.Topic `json:"topic"`
}

type setBookmarkInput struct {
	ConversationID string `json:"conversation_id,omitempty"`
	MessageID      string `json:"message_id"`
	Name           string `json:"name"`
	TopicID        string `json:"topic_id,omitempty"`
}

type setBookmarkOutput struct {
	Removed bool `json:"removed,omitempty"`
}

type getStatsInput struct{}

type getStatsOutput struct {
	Topics    int `json:"topics"`
	Bookmarks int `json:"bookmarks"`
}

// resolveConversation falls back to the active conversation when the input
// names none.
func (ms *MCPServer) resolveConversation(id string) string {
	if id != "" {
		return id
	}
	return ms.deps.Identity.CurrentID()
}

func (ms *MCPServer) handleActiveConversation(ctx context.Context, req *mcp.CallToolRequest, _ activeConversationInput) (*mcp.CallToolResult, activeConversationOutput, error) {
	output := activeConversationOutput{
		ConversationID: ms.deps.Identity.CurrentID(),
	}
	if output.ConversationID != "" {
		custom, err := ms.deps.Store.CustomTitle(ctx, output.ConversationID)
		if err != nil {
			return nil, activeConversationOutput{}, err
		}
		output.Title = custom
		if output.Title == "" {
			output.Title = ms.deps.Reader.Title(output.ConversationID)
		}
		topics, err := ms.deps.Store.Topics(ctx, output.ConversationID)
		if err != nil {
			return nil, activeConversationOutput{}, err
		}
		bookmarks, err := ms.deps.Store.Bookmarks(ctx, output.ConversationID)
		if err != nil {
			return nil, activeConversationOutput{}, err
		}
		output.TopicCount = len(topics)
		output.BookmarkCount = len(bookmarks)
	}
	return textResult(output), output, nil
}

func (ms *MCPServer) handleListTopics(ctx context.Context, req *mcp.CallToolRequest, input listTopicsInput) (*mcp.CallToolResult, listTopicsOutput, error) {
	conversationID := ms.resolveConversation(input.ConversationID)
	output := listTopicsOutput{ConversationID: conversationID}
	if conversationID == "" {
		return textResult(output), output, nil
	}

	topics, err := ms.deps.Store.Topics(ctx, conversationID)
	if err != nil {
		return nil, listTopicsOutput{}, err
	}
	bookmarks, err := ms.deps.Store.Bookmarks(ctx, conversationID)
	if err != nil {
		return nil, listTopicsOutput{}, err
	}
	current, err := ms.deps.Store.CurrentTopic(ctx, conversationID)
	if err != nil {
		return nil, listTopicsOutput{}, err
	}

	known := make(map[string]bool, len(topics))
	byTopic := make(map[string][]string)
	for _, t := range topics {
		known[t.ID] = true
	}
	for messageID, b := range bookmarks {
		topicID := b.TopicID
		if !known[topicID] {
			topicID = ""
		}
		byTopic[topicID] = append(byTopic[topicID], b.Name+" ("+messageID+")")
	}

	for _, t := range topics {
		output.Topics = append(output.Topics, topicEntry{
			ID:        t.ID,
			Name:      t.Name,
			Current:   t.ID == current,
			Bookmarks: byTopic[t.ID],
		})
	}
	output.Unassigned = byTopic[""]
	return textResult(output), output, nil
}

func (ms *MCPServer) handleAddTopic(ctx context.Context, req *mcp.CallToolRequest, input addTopicInput) (*mcp.CallToolResult, addTopicOutput, error) {
	conversationID := ms.resolveConversation(input.ConversationID)
	if conversationID == "" {
		return nil, addTopicOutput{}, errNoConversation
	}
	topic, err := ms.deps.Store.AddTopic(ctx, conversationID, input.Name)
	if err != nil {
		return nil, addTopicOutput{}, err
	}
	output := addTopicOutput{Topic: topic}
	return textResult(output), output, nil
}

func (ms *MCPServer) handleSetBookmark(ctx context.Context, req *mcp.CallToolRequest, input setBookmarkInput) (*mcp.CallToolResult, setBookmarkOutput, error) {
	conversationID := ms.resolveConversation(input.ConversationID)
	if conversationID == "" {
		return nil, setBookmarkOutput{}, errNoConversation
	}
	err := ms.deps.Store.SetBookmark(ctx, conversationID, input.MessageID, input.Name, input.TopicID)
	if err != nil {
		return nil, setBookmarkOutput{}, err
	}
	output := setBookmarkOutput{Removed: strings.TrimSpace(input.Name) == ""}
	return textResult(output), output, nil
}

func (ms *MCPServer) handleGetStats(ctx context.Context, req *mcp.CallToolRequest, _ getStatsInput) (*mcp.CallToolResult, getStatsOutput, error) {
	topics, bookmarks, err := ms.deps.Store.Counts(ctx)
	if err != nil {
		return nil, getStatsOutput{}, err
	}
	output := getStatsOutput{Topics: topics, Bookmarks: bookmarks}
	return textResult(output), output, nil
}

// RunStdio serves MCP over stdin/stdout until ctx ends.
func (ms *MCPServer) RunStdio(ctx context.Context) error {
	return ms.server.Run(ctx, &mcp.LoggingTransport{
		Transport: &mcp.StdioTransport{},
		Writer:    os.Stderr,
	})
}

// Server returns the underlying MCP server.
func (ms *MCPServer) Server() *mcp.Server {
	return ms.server
}

func textResult(v any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(v)}},
	}
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
