package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/seqdex/internal/config"
	"github.com/hpungsan/seqdex/internal/errors"
	"github.com/hpungsan/seqdex/internal/logging"
	"github.com/hpungsan/seqdex/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	logger logrus.FieldLogger
}

// NewHandlers creates a new Handlers instance. A nil logger discards output.
func NewHandlers(db *sql.DB, cfg *config.Config, logger logrus.FieldLogger) *Handlers {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handlers{db: db, cfg: cfg, logger: logger}
}

// StoreRequest represents the arguments for sequence_store.
type StoreRequest struct {
	Category    string `json:"category"`
	Result      string `json:"result"`
	Description string `json:"description,omitempty"`
	Keys        string `json:"keys,omitempty"`
	RangeStart  *int   `json:"range_start,omitempty"`
	RangeEnd    *int   `json:"range_end,omitempty"`
}

// IDRequest represents the arguments for sequence_fetch and sequence_delete.
type IDRequest struct {
	ID string `json:"id"`
}

// SearchRequest represents the arguments for sequence_search.
type SearchRequest struct {
	Query    string `json:"query,omitempty"`
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// ExportRequest represents the arguments for sequence_export.
type ExportRequest struct {
	Path     string `json:"path,omitempty"`
	Category string `json:"category,omitempty"`
}

// ImportRequest represents the arguments for sequence_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// HandleStore handles sequence_store.
func (h *Handlers) HandleStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StoreRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Store(ctx, h.db, ops.StoreInput{
		Category:    input.Category,
		RangeStart:  input.RangeStart,
		RangeEnd:    input.RangeEnd,
		Result:      input.Result,
		Description: input.Description,
		Keys:        input.Keys,
	})
	if err != nil {
		return h.fail("sequence_store", err), nil
	}

	h.logger.WithFields(logrus.Fields{
		"id":               result.ID,
		"category_id":      result.CategoryID,
		"category_created": result.CategoryCreated,
	}).Info("sequence stored")
	return successResult(result)
}

// HandleFetch handles sequence_fetch.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{ID: input.ID})
	if err != nil {
		return h.fail("sequence_fetch", err), nil
	}
	return successResult(result)
}

// HandleDelete handles sequence_delete.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return h.fail("sequence_delete", err), nil
	}

	h.logger.WithField("id", result.ID).Info("sequence deleted")
	return successResult(result)
}

// HandleSearch handles sequence_search.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Search(ctx, h.db, h.cfg, h.logger, ops.SearchInput{
		Query:    input.Query,
		Category: input.Category,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return h.fail("sequence_search", err), nil
	}
	return successResult(result)
}

// HandleCategories handles category_list.
func (h *Handlers) HandleCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Categories(ctx, h.db, h.logger)
	if err != nil {
		return h.fail("category_list", err), nil
	}
	return successResult(result)
}

// HandleExport handles sequence_export.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		Path:     input.Path,
		Category: input.Category,
	})
	if err != nil {
		return h.fail("sequence_export", err), nil
	}

	h.logger.WithFields(logrus.Fields{
		"path":       result.Path,
		"categories": result.Categories,
		"count":      result.Count,
	}).Info("export written")
	return successResult(result)
}

// HandleImport handles sequence_import.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return h.fail("sequence_import", err), nil
	}

	h.logger.WithFields(logrus.Fields{
		"path":               input.Path,
		"imported":           result.Imported,
		"categories_created": result.CategoriesCreated,
		"skipped":            result.Skipped,
		"errors":             len(result.Errors),
	}).Info("import finished")
	return successResult(result)
}

// fail logs internal errors with their cause before they are masked.
func (h *Handlers) fail(tool string, err error) *mcp.CallToolResult {
	var seqErr *errors.SeqError
	if !stderrors.As(err, &seqErr) || seqErr.Code == errors.ErrInternal {
		h.logger.WithError(err).WithField("tool", tool).Error("tool call failed")
	}
	return errorResult(err)
}

// errorResult creates an MCP error result with IsError set.
// Internal errors are reported without their message or details.
func errorResult(err error) *mcp.CallToolResult {
	errorObj := map[string]any{
		"code":    string(errors.ErrInternal),
		"message": "an internal error occurred",
		"status":  500,
	}

	var seqErr *errors.SeqError
	if stderrors.As(err, &seqErr) && seqErr.Code != errors.ErrInternal {
		errorObj = map[string]any{
			"code":    seqErr.Code,
			"message": seqErr.Message,
			"status":  seqErr.Status,
		}
		if seqErr.Details != nil {
			errorObj["details"] = seqErr.Details
		}
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
