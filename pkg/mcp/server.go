package mcp

import (
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	dermavision "github.com/unowned-ai/dermavision/pkg"
	"github.com/unowned-ai/dermavision/pkg/analysis"
	"github.com/unowned-ai/dermavision/pkg/journal"
)

// DermavisionMCPServer exposes the journal and the analyzer as MCP tools.
// The caller owns the database behind the repository and closes it.
type DermavisionMCPServer struct {
	mcpServer *server.MCPServer
	repo      *journal.Repository
	analyzer  analysis.Analyzer
	exportDir string
	logger    *zap.Logger
}

type Option func(*DermavisionMCPServer)

// WithExportDir sets where export_journal writes when the caller gives no directory.
func WithExportDir(dir string) Option {
	return func(s *DermavisionMCPServer) {
		s.exportDir = dir
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *DermavisionMCPServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewDermavisionMCPServer builds the server and registers every tool.
func NewDermavisionMCPServer(repo *journal.Repository, analyzer analysis.Analyzer, opts ...Option) *DermavisionMCPServer {
	s := &DermavisionMCPServer{
		mcpServer: server.NewMCPServer(
			"DermaVision MCP Server",
			dermavision.Version,
			server.WithResourceCapabilities(true, true),
			server.WithLogging(),
			server.WithRecovery(),
		),
		repo:      repo,
		analyzer:  analyzer,
		exportDir: ".",
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	RegisterPingTool(s.mcpServer)
	RegisterListEntriesTool(s.mcpServer, repo)
	RegisterGetEntryTool(s.mcpServer, repo)
	RegisterUpdateEntryTool(s.mcpServer, repo)
	RegisterDeleteEntryTool(s.mcpServer, repo)
	RegisterClearJournalTool(s.mcpServer, repo)
	RegisterSearchEntriesTool(s.mcpServer, repo)
	RegisterExportJournalTool(s.mcpServer, repo, s.exportDir, time.Now)
	RegisterAnalyzeImageTool(s.mcpServer, repo, analyzer, s.logger)

	return s
}

// ToolNames lists the registered tools, in registration order.
func ToolNames() []string {
	return []string{
		"ping", "list_entries", "get_entry", "update_entry", "delete_entry",
		"clear_journal", "search_entries", "export_journal", "analyze_image",
	}
}

// Start runs the stdio event loop until stdin closes.
func (s *DermavisionMCPServer) Start() error {
	return server.ServeStdio(s.mcpServer)
}

// MCPRawServer exposes the raw mcp-go server (useful for additional configuration).
func (s *DermavisionMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}
