package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/unowned-ai/dermavision/pkg/analysis"
	"github.com/unowned-ai/dermavision/pkg/journal"
	"github.com/unowned-ai/dermavision/pkg/session"
)

// RegisterPingTool registers the simple ping tool.
func RegisterPingTool(s *server.MCPServer) {
	pingTool := mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong' to check if the DermaVision MCP server is alive."),
	)
	s.AddTool(pingTool, pingHandler)
}

func pingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_dermavision"), nil
}

// RegisterListEntriesTool registers the list_entries tool.
func RegisterListEntriesTool(s *server.MCPServer, repo *journal.Repository) {
	listEntriesTool := mcp.NewTool("list_entries",
		mcp.WithDescription("Lists skin journal entries, most recent first. Images are left out unless requested."),
		mcp.WithBoolean("include_images", mcp.Description("Return full entries including base64 image data.")),
	)
	s.AddTool(listEntriesTool, listEntriesHandler(repo))
}

func listEntriesHandler(repo *journal.Repository) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries := journal.SortNewestFirst(repo.Entries())
		if argBool(request.Params.Arguments, "include_images") {
			return jsonResult(entries, "entries")
		}
		return jsonResult(summarize(entries), "entries")
	}
}

// RegisterGetEntryTool registers the get_entry tool.
func RegisterGetEntryTool(s *server.MCPServer, repo *journal.Repository) {
	getEntryTool := mcp.NewTool("get_entry",
		mcp.WithDescription("Retrieves one journal entry with its full analysis."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Id of the entry.")),
		mcp.WithBoolean("include_image", mcp.Description("Include the base64 image data URL.")),
	)
	s.AddTool(getEntryTool, getEntryHandler(repo))
}

func getEntryHandler(repo *journal.Repository) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := argEntryID(request.Params.Arguments, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		entry, ok := repo.Get(id)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("Entry %d not found.", id)), nil
		}
		if !argBool(request.Params.Arguments, "include_image") {
			entry.ImageDataURL = ""
		}
		return jsonResult(entry, "entry")
	}
}

// RegisterUpdateEntryTool registers the update_entry tool.
func RegisterUpdateEntryTool(s *server.MCPServer, repo *journal.Repository) {
	updateEntryTool := mcp.NewTool("update_entry",
		mcp.WithDescription("Changes the title and/or notes of a journal entry."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Id of the entry to update.")),
		mcp.WithString("title", mcp.Description("Optional new title. Must not be blank.")),
		mcp.WithString("notes", mcp.Description("Optional new notes. An empty string clears them.")),
	)
	s.AddTool(updateEntryTool, updateEntryHandler(repo))
}

func updateEntryHandler(repo *journal.Repository) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := argEntryID(request.Params.Arguments, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var patch journal.EntryPatch
		if title, ok := request.Params.Arguments["title"].(string); ok {
			if strings.TrimSpace(title) == "" {
				return mcp.NewToolResultError("'title' cannot be empty if provided."), nil
			}
			patch.Title = &title
		}
		if notes, ok := request.Params.Arguments["notes"].(string); ok {
			patch.Notes = &notes
		}
		if patch.Title == nil && patch.Notes == nil {
			return mcp.NewToolResultError("No update fields provided (use title or notes)."), nil
		}

		if _, ok := repo.Get(id); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("Entry %d not found.", id)), nil
		}
		if err := repo.Update(ctx, id, patch); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to update entry %d: %v", id, err)), nil
		}

		updated, _ := repo.Get(id)
		updated.ImageDataURL = ""
		return jsonResult(updated, "updated entry")
	}
}

// RegisterDeleteEntryTool registers the delete_entry tool.
func RegisterDeleteEntryTool(s *server.MCPServer, repo *journal.Repository) {
	deleteEntryTool := mcp.NewTool("delete_entry",
		mcp.WithDescription("Deletes a journal entry by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Id of the entry to delete.")),
	)
	s.AddTool(deleteEntryTool, deleteEntryHandler(repo))
}

func deleteEntryHandler(repo *journal.Repository) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := argEntryID(request.Params.Arguments, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if _, ok := repo.Get(id); !ok {
			// Deleting something that is not there is not an error.
			return mcp.NewToolResultText(fmt.Sprintf("Entry %d not found, nothing to delete.", id)), nil
		}
		if err := repo.Remove(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete entry %d: %v", id, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Entry %d deleted successfully.", id)), nil
	}
}

// RegisterClearJournalTool registers the clear_journal tool.
func RegisterClearJournalTool(s *server.MCPServer, repo *journal.Repository) {
	clearTool := mcp.NewTool("clear_journal",
		mcp.WithDescription("Permanently deletes every journal entry. Requires confirm=true."),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true to proceed.")),
	)
	s.AddTool(clearTool, clearJournalHandler(repo))
}

func clearJournalHandler(repo *journal.Repository) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !argBool(request.Params.Arguments, "confirm") {
			return mcp.NewToolResultError("Refusing to clear the journal without confirm=true."), nil
		}
		count := repo.Len()
		if err := repo.ClearAll(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to clear journal: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Journal cleared, %d entries deleted.", count)), nil
	}
}

// RegisterSearchEntriesTool registers the search_entries tool.
func RegisterSearchEntriesTool(s *server.MCPServer, repo *journal.Repository) {
	searchTool := mcp.NewTool("search_entries",
		mcp.WithDescription("Finds entries whose title, notes or detected issues contain the query (case-insensitive)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for, e.g. 'acne'.")),
		mcp.WithBoolean("full", mcp.Description("Return matching entries with their full analysis. Images are still left out.")),
	)
	s.AddTool(searchTool, searchEntriesHandler(repo))
}

func searchEntriesHandler(repo *journal.Repository) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, ok := request.Params.Arguments["query"].(string)
		if !ok || strings.TrimSpace(query) == "" {
			return mcp.NewToolResultError("'query' parameter is required and must be non-empty."), nil
		}
		matches := repo.Search(query)
		if argBool(request.Params.Arguments, "full") {
			return jsonResult(withoutImages(matches), "search results")
		}
		return jsonResult(summarize(matches), "search results")
	}
}

// RegisterExportJournalTool registers the export_journal tool.
func RegisterExportJournalTool(s *server.MCPServer, repo *journal.Repository, defaultDir string, now func() time.Time) {
	exportTool := mcp.NewTool("export_journal",
		mcp.WithDescription("Writes the whole journal as a pretty-printed JSON file and returns its path."),
		mcp.WithString("dir", mcp.Description("Directory to write into. Defaults to the server's export directory.")),
	)
	s.AddTool(exportTool, exportJournalHandler(repo, defaultDir, now))
}

func exportJournalHandler(repo *journal.Repository, defaultDir string, now func() time.Time) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dir, _ := request.Params.Arguments["dir"].(string)
		if dir == "" {
			dir = defaultDir
		}

		artifact, err := journal.Export(repo.Entries(), now())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to export journal: %v", err)), nil
		}
		if artifact == nil {
			return mcp.NewToolResultText("Journal is empty, nothing to export."), nil
		}
		path, err := artifact.WriteFile(dir)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Journal exported to %s", path)), nil
	}
}

// RegisterAnalyzeImageTool registers the analyze_image tool.
func RegisterAnalyzeImageTool(s *server.MCPServer, repo *journal.Repository, analyzer analysis.Analyzer, logger *zap.Logger) {
	analyzeTool := mcp.NewTool("analyze_image",
		mcp.WithDescription("Analyzes a skin photo for dermatological issues with food and over-the-counter recommendations. Optionally saves the result to the journal."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to an image file readable by the server.")),
		mcp.WithBoolean("save", mcp.Description("Save the analysis as a new journal entry.")),
	)
	s.AddTool(analyzeTool, analyzeImageHandler(repo, analyzer, logger))
}

type analyzeResult struct {
	Analysis journal.SkinAnalysis `json:"analysis"`
	Entry    *journal.Entry       `json:"entry,omitempty"`
}

func analyzeImageHandler(repo *journal.Repository, analyzer analysis.Analyzer, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, ok := request.Params.Arguments["path"].(string)
		if !ok || path == "" {
			return mcp.NewToolResultError("'path' parameter is required."), nil
		}

		img, err := analysis.LoadImage(path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		// Each call gets its own session so concurrent calls never share an image.
		sess := session.New(repo, analyzer, logger)
		sess.SetImage(img)
		result, err := sess.Analyze(ctx)
		if err != nil {
			var cfgErr *analysis.ConfigurationError
			if errors.As(err, &cfgErr) {
				return mcp.NewToolResultError(fmt.Sprintf("Server is not configured: %v", err)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("%s (%v)", analysis.UserMessage, err)), nil
		}

		out := analyzeResult{Analysis: result}
		if argBool(request.Params.Arguments, "save") {
			entry, err := sess.Save(ctx)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Analysis succeeded but saving failed: %v", err)), nil
			}
			entry.ImageDataURL = ""
			out.Entry = &entry
		}
		return jsonResult(out, "analysis")
	}
}
