package mcp

import "github.com/mark3labs/mcp-go/mcp"

var storeToolDef = mcp.NewTool("sequence_store",
	mcp.WithDescription("Store a compose sequence under a category. The category is created on first use; names match case-insensitively."),
	mcp.WithString("category", mcp.Required(), mcp.Description("Category name, e.g. \"Currency\"")),
	mcp.WithString("result", mcp.Required(), mcp.Description("Text the sequence produces, e.g. \"€\"")),
	mcp.WithString("description", mcp.Description("Human-readable description, e.g. \"EURO SIGN\"")),
	mcp.WithString("keys", mcp.Description("Comma-separated keysym names, e.g. \"Multi_key,C,equal\"")),
	mcp.WithNumber("range_start", mcp.Description("First code point of the category's block (new categories only)")),
	mcp.WithNumber("range_end", mcp.Description("Last code point of the category's block (new categories only)")),
)

var fetchToolDef = mcp.NewTool("sequence_fetch",
	mcp.WithDescription("Fetch one sequence by ID with its derived code point, general category and friendly key names."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Sequence ID")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var deleteToolDef = mcp.NewTool("sequence_delete",
	mcp.WithDescription("Delete a sequence by ID. Its category is kept."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Sequence ID")),
	mcp.WithDestructiveHintAnnotation(true),
)

var searchToolDef = mcp.NewTool("sequence_search",
	mcp.WithDescription("Search sequences. A sequence matches when any whitespace-separated token does: words are found in the description case-insensitively under the collation locale; numbers (8364, U+20AC, 0x20ac) match the code point. An empty query lists everything in display order."),
	mcp.WithString("query", mcp.Description("Search text")),
	mcp.WithString("category", mcp.Description("Restrict to one category by name")),
	mcp.WithNumber("limit", mcp.Description("Page size (default from config, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Results to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var categoriesToolDef = mcp.NewTool("category_list",
	mcp.WithDescription("List categories with their code point ranges and sequence counts."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var exportToolDef = mcp.NewTool("sequence_export",
	mcp.WithDescription("Export categories and sequences to a JSONL file. Defaults to ~/.seqdex/exports/<category|all>-<timestamp>.jsonl."),
	mcp.WithString("path", mcp.Description("Destination .jsonl path, directly inside an allowed directory")),
	mcp.WithString("category", mcp.Description("Export only this category")),
)

var importToolDef = mcp.NewTool("sequence_import",
	mcp.WithDescription("Import a JSONL export. mode \"error\" aborts the whole import on an ID collision; \"replace\" overwrites and skips bad lines."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path")),
	mcp.WithString("mode", mcp.Enum("error", "replace"), mcp.Description("Collision handling (default: error)")),
)
