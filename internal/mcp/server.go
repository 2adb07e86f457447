package mcp

import (
	"database/sql"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/seqdex/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"sequence_store": {
		def:     storeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStore },
	},
	"sequence_fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"sequence_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"sequence_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"sequence_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"sequence_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
	"category_list": {
		def:     categoriesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategories },
	},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	names := lo.Keys(toolRegistry)
	slices.Sort(names)
	return names
}

// ValidateDisabledTools returns the names that are not registered tools.
func ValidateDisabledTools(names []string) []string {
	return lo.Filter(names, func(name string, _ int) bool {
		_, ok := toolRegistry[name]
		return !ok
	})
}

// EnabledToolNames returns the sorted tool names left after cfg.DisabledTools.
func EnabledToolNames(cfg *config.Config) []string {
	if cfg == nil {
		return AllToolNames()
	}
	return lo.Without(AllToolNames(), cfg.DisabledTools...)
}

// NewServer creates an MCP server with the enabled seqdex tools registered.
func NewServer(db *sql.DB, cfg *config.Config, logger logrus.FieldLogger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"seqdex",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, logger)
	for _, name := range EnabledToolNames(h.cfg) {
		entry := toolRegistry[name]
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run serves the seqdex tools over stdio until the client disconnects.
func Run(db *sql.DB, cfg *config.Config, logger logrus.FieldLogger, version string) error {
	return server.ServeStdio(NewServer(db, cfg, logger, version))
}
