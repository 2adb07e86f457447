package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/hpungsan/seqdex/internal/config"
	"github.com/hpungsan/seqdex/internal/db"
)

// testSetup creates a temporary database and config for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests
	cfg.Locale = "en_US"
	return database, cfg
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// payload decodes the text content of a result.
func payload(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	return out
}

// errorCode returns the error code of a failed result.
func errorCode(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if !result.IsError {
		t.Fatalf("expected error result, got %v", payload(t, result))
	}
	errObj, ok := payload(t, result)["error"].(map[string]any)
	if !ok {
		t.Fatal("error result has no error object")
	}
	code, _ := errObj["code"].(string)
	return code
}

func mustStore(t *testing.T, h *Handlers, args map[string]any) string {
	t.Helper()
	result, err := h.HandleStore(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("HandleStore error: %v", err)
	}
	if result.IsError {
		t.Fatalf("store failed: %v", payload(t, result))
	}
	id, _ := payload(t, result)["id"].(string)
	if id == "" {
		t.Fatal("store returned no id")
	}
	return id
}

func TestHandleStore(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		errorCode string
	}{
		{
			name: "store valid sequence",
			args: map[string]any{
				"category":    "Currency",
				"result":      "€",
				"description": "EURO SIGN",
				"keys":        "Multi_key,C,equal",
			},
		},
		{
			name: "store with range",
			args: map[string]any{
				"category":    "Greek",
				"result":      "α",
				"range_start": 0x370,
				"range_end":   0x3ff,
			},
		},
		{
			name:      "store without category",
			args:      map[string]any{"result": "x"},
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "store without result",
			args:      map[string]any{"category": "Currency"},
			errorCode: "INVALID_RECORD",
		},
		{
			name:      "store with half range",
			args:      map[string]any{"category": "Arrows", "result": "→", "range_start": 0x2190},
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "store with wrong argument type",
			args:      map[string]any{"category": 12, "result": "x"},
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleStore(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("HandleStore error: %v", err)
			}
			if tt.errorCode == "" {
				if result.IsError {
					t.Fatalf("unexpected error: %v", payload(t, result))
				}
				return
			}
			if got := errorCode(t, result); got != tt.errorCode {
				t.Errorf("error code = %q, want %q", got, tt.errorCode)
			}
		})
	}
}

func TestHandleFetchAndDelete(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg, nil)
	ctx := context.Background()

	id := mustStore(t, h, map[string]any{
		"category":    "Currency",
		"result":      "€",
		"description": "EURO SIGN",
		"keys":        "Multi_key,C,equal",
	})

	result, err := h.HandleFetch(ctx, makeRequest(map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("HandleFetch error: %v", err)
	}
	if result.IsError {
		t.Fatalf("fetch failed: %v", payload(t, result))
	}
	item := payload(t, result)
	if item["code_point"] != "U+20AC" {
		t.Errorf("code_point = %v, want U+20AC", item["code_point"])
	}
	if item["category"] != "Currency" {
		t.Errorf("category = %v, want Currency", item["category"])
	}
	if item["general_category"] != "Sc" {
		t.Errorf("general_category = %v, want Sc", item["general_category"])
	}

	result, err = h.HandleDelete(ctx, makeRequest(map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("HandleDelete error: %v", err)
	}
	if deleted, _ := payload(t, result)["deleted"].(bool); !deleted {
		t.Error("expected deleted=true")
	}

	result, _ = h.HandleFetch(ctx, makeRequest(map[string]any{"id": id}))
	if got := errorCode(t, result); got != "NOT_FOUND" {
		t.Errorf("fetch after delete: code = %q, want NOT_FOUND", got)
	}

	result, _ = h.HandleDelete(ctx, makeRequest(nil))
	if got := errorCode(t, result); got != "INVALID_REQUEST" {
		t.Errorf("delete without id: code = %q, want INVALID_REQUEST", got)
	}
}

func TestHandleSearch(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg, nil)
	ctx := context.Background()

	mustStore(t, h, map[string]any{"category": "Currency", "result": "€", "description": "EURO SIGN"})
	mustStore(t, h, map[string]any{"category": "Currency", "result": "£", "description": "POUND SIGN"})
	mustStore(t, h, map[string]any{"category": "Greek", "result": "é", "description": "é acute"})

	tests := []struct {
		name  string
		args  map[string]any
		count int
	}{
		{"all", nil, 3},
		{"text", map[string]any{"query": "sign"}, 2},
		{"accented uppercase", map[string]any{"query": "É"}, 1},
		{"code point", map[string]any{"query": "U+20AC"}, 1},
		{"category", map[string]any{"category": "greek"}, 1},
		{"paged", map[string]any{"limit": 1, "offset": 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleSearch(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("HandleSearch error: %v", err)
			}
			if result.IsError {
				t.Fatalf("search failed: %v", payload(t, result))
			}
			items, _ := payload(t, result)["items"].([]any)
			if len(items) != tt.count {
				t.Errorf("got %d items, want %d", len(items), tt.count)
			}
		})
	}

	result, _ := h.HandleSearch(ctx, makeRequest(map[string]any{"offset": -1}))
	if got := errorCode(t, result); got != "INVALID_REQUEST" {
		t.Errorf("negative offset: code = %q, want INVALID_REQUEST", got)
	}
}

func TestHandleCategories(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg, nil)

	mustStore(t, h, map[string]any{"category": "Currency", "result": "€"})
	mustStore(t, h, map[string]any{"category": "currency", "result": "¥"})

	result, err := h.HandleCategories(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("HandleCategories error: %v", err)
	}
	out := payload(t, result)
	if out["total"] != float64(1) {
		t.Fatalf("total = %v, want 1", out["total"])
	}
	items := out["items"].([]any)
	cat := items[0].(map[string]any)
	if cat["name"] != "Currency" || cat["count"] != float64(2) {
		t.Errorf("unexpected category: %v", cat)
	}
}

func TestHandleExportImport(t *testing.T) {
	database, cfg := testSetup(t)
	logger, hook := logtest.NewNullLogger()
	h := NewHandlers(database, cfg, logger)
	ctx := context.Background()

	id := mustStore(t, h, map[string]any{"category": "Currency", "result": "€"})
	path := filepath.Join(t.TempDir(), "backup.jsonl")

	result, err := h.HandleExport(ctx, makeRequest(map[string]any{"path": path}))
	if err != nil {
		t.Fatalf("HandleExport error: %v", err)
	}
	if result.IsError {
		t.Fatalf("export failed: %v", payload(t, result))
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	// Same ID already stored: error mode reports the collision.
	result, err = h.HandleImport(ctx, makeRequest(map[string]any{"path": path}))
	if err != nil {
		t.Fatalf("HandleImport error: %v", err)
	}
	errs, _ := payload(t, result)["errors"].([]any)
	if len(errs) != 1 {
		t.Fatalf("expected one import error, got %v", errs)
	}
	if code := errs[0].(map[string]any)["code"]; code != "ID_COLLISION" {
		t.Errorf("import error code = %v, want ID_COLLISION", code)
	}

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": path, "mode": "replace"}))
	if imported := payload(t, result)["imported"]; imported != float64(1) {
		t.Errorf("imported = %v, want 1", imported)
	}

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": path, "mode": "merge"}))
	if got := errorCode(t, result); got != "INVALID_REQUEST" {
		t.Errorf("bad mode: code = %q, want INVALID_REQUEST", got)
	}

	result, _ = h.HandleFetch(ctx, makeRequest(map[string]any{"id": id}))
	if result.IsError {
		t.Errorf("sequence lost after replace import: %v", payload(t, result))
	}

	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	for _, want := range []string{"sequence stored", "export written", "import finished"} {
		if !slices.Contains(messages, want) {
			t.Errorf("missing log entry %q in %v", want, messages)
		}
	}
}

func TestErrorResult_HidesInternalDetails(t *testing.T) {
	result := errorResult(os.ErrPermission)
	if !result.IsError {
		t.Fatal("expected IsError")
	}
	errObj := payload(t, result)["error"].(map[string]any)
	if errObj["code"] != "INTERNAL" {
		t.Errorf("code = %v, want INTERNAL", errObj["code"])
	}
	if errObj["message"] != "an internal error occurred" {
		t.Errorf("message leaked: %v", errObj["message"])
	}
	if _, ok := errObj["details"]; ok {
		t.Error("internal error should not carry details")
	}
}

func TestToolRegistry(t *testing.T) {
	names := AllToolNames()
	want := []string{
		"category_list",
		"sequence_delete",
		"sequence_export",
		"sequence_fetch",
		"sequence_import",
		"sequence_search",
		"sequence_store",
	}
	if !slices.Equal(names, want) {
		t.Fatalf("AllToolNames = %v, want %v", names, want)
	}
	for _, name := range names {
		if toolRegistry[name].def.Name != name {
			t.Errorf("tool %q registered with definition %q", name, toolRegistry[name].def.Name)
		}
	}

	unknown := ValidateDisabledTools([]string{"sequence_store", "widget_store", "bogus"})
	if !slices.Equal(unknown, []string{"widget_store", "bogus"}) {
		t.Errorf("ValidateDisabledTools = %v", unknown)
	}

	cfg := config.DefaultConfig()
	cfg.DisabledTools = []string{"sequence_import", "sequence_delete"}
	enabled := EnabledToolNames(cfg)
	if len(enabled) != 5 || slices.Contains(enabled, "sequence_import") || slices.Contains(enabled, "sequence_delete") {
		t.Errorf("EnabledToolNames = %v", enabled)
	}

	if s := NewServer(nil, cfg, nil, "test"); s == nil {
		t.Fatal("NewServer returned nil")
	}
}
