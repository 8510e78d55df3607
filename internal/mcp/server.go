// Package mcp exposes the scraping conversation as MCP tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// toolEntry pairs a tool definition with a handler factory
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories
var toolRegistry = map[string]toolEntry{
	"scraper_analyze": {
		def:     analyzeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAnalyze },
	},
	"scraper_extract": {
		def:     extractToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExtract },
	},
	"scraper_chat": {
		def:     chatToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleChat },
	},
	"scraper_history": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
	"scraper_fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"scraper_new_session": {
		def:     newSessionToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNewSession },
	},
	"scraper_sessions": {
		def:     sessionsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessions },
	},
	"scraper_delete_session": {
		def:     deleteSessionToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteSession },
	},
}

// AllToolNames returns the registered tool names in sorted order
func AllToolNames() []string {
	return sortedKeys(toolRegistry)
}

// ValidateDisabledTools returns the unknown names among names
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server with the scraper tools registered,
// skipping the disabled ones.
func NewServer(svc Scraper, version string, disabled ...string) *server.MCPServer {
	s := server.NewMCPServer(
		"scraper-llm",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(svc)
	skip := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		skip[name] = true
	}
	for _, name := range AllToolNames() {
		if skip[name] {
			continue
		}
		entry := toolRegistry[name]
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run starts the MCP server using stdio transport
func Run(svc Scraper, version string, disabled ...string) error {
	return server.ServeStdio(NewServer(svc, version, disabled...))
}
