package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/seqdex/internal/config"
	"github.com/hpungsan/seqdex/internal/errors"
	"github.com/hpungsan/seqdex/internal/logging"
	"github.com/hpungsan/seqdex/internal/ops"
)

// newCLIApp creates the CLI application with all commands.
// db and cfg may be nil when only help or version output is needed.
func newCLIApp(db *sql.DB, cfg *config.Config, logger logrus.FieldLogger) *cli.App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logging.Discard()
	}

	app := &cli.App{
		Name:    "seqdex",
		Usage:   "Searchable index of compose key sequences",
		Version: Version,
		Commands: []*cli.Command{
			storeCmd(db),
			fetchCmd(db),
			deleteCmd(db),
			searchCmd(db, cfg, logger),
			categoriesCmd(db, logger),
			exportCmd(db, cfg),
			importCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func storeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Store a sequence (result from --result or piped stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Required: true, Usage: "Category name"},
			&cli.StringFlag{Name: "result", Aliases: []string{"r"}, Usage: "Text the sequence produces"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Description"},
			&cli.StringFlag{Name: "keys", Aliases: []string{"k"}, Usage: "Comma-separated keysyms, e.g. Multi_key,C,equal"},
			&cli.IntFlag{Name: "range-start", Usage: "First code point of a new category's block"},
			&cli.IntFlag{Name: "range-end", Usage: "Last code point of a new category's block"},
		},
		Action: func(c *cli.Context) error {
			input := ops.StoreInput{
				Category:    c.String("category"),
				Result:      c.String("result"),
				Description: c.String("description"),
				Keys:        c.String("keys"),
			}

			if !c.IsSet("result") && stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(c, errors.NewInternal(err))
				}
				input.Result = text
			}
			if c.IsSet("range-start") {
				v := c.Int("range-start")
				input.RangeStart = &v
			}
			if c.IsSet("range-end") {
				v := c.Int("range-end")
				input.RangeEnd = &v
			}

			output, err := ops.Store(c.Context, db, input)
			if err != nil {
				return outputError(c, err)
			}
			return outputJSON(c, output)
		},
	}
}

func fetchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a sequence by ID",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Fetch(c.Context, db, ops.FetchInput{ID: c.Args().First()})
			if err != nil {
				return outputError(c, err)
			}
			return outputJSON(c, output)
		},
	}
}

func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a sequence by ID",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(c, err)
			}
			return outputJSON(c, output)
		},
	}
}

func searchCmd(db *sql.DB, cfg *config.Config, logger logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search sequences by text or code point",
		ArgsUsage: "[query...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Restrict to one category"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Page size"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Results to skip"},
			&cli.StringFlag{Name: "locale", Usage: "Collation locale, overrides config"},
		},
		Action: func(c *cli.Context) error {
			searchCfg := cfg
			if locale := c.String("locale"); locale != "" {
				copied := *cfg
				copied.Locale = locale
				searchCfg = &copied
			}

			output, err := ops.Search(c.Context, db, searchCfg, logger, ops.SearchInput{
				Query:    strings.Join(c.Args().Slice(), " "),
				Category: c.String("category"),
				Limit:    c.Int("limit"),
				Offset:   c.Int("offset"),
			})
			if err != nil {
				return outputError(c, err)
			}
			return outputJSON(c, output)
		},
	}
}

func categoriesCmd(db *sql.DB, logger logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List categories with sequence counts",
		Action: func(c *cli.Context) error {
			output, err := ops.Categories(c.Context, db, logger)
			if err != nil {
				return outputError(c, err)
			}
			return outputJSON(c, output)
		},
	}
}

func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export categories and sequences to JSONL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: ~/.seqdex/exports/<category|all>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Export one category"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, db, cfg, ops.ExportInput{
				Path:     c.String("path"),
				Category: c.String("category"),
			})
			if err != nil {
				return outputError(c, err)
			}
			return outputJSON(c, output)
		},
	}
}

func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import categories and sequences from JSONL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Input path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, db, cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(c, err)
			}
			return outputJSON(c, output)
		},
	}
}

// Helper functions

// outputJSON writes v to the app's stdout as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError writes {"error":{...}} to the app's stderr and exits with 1.
func outputError(c *cli.Context, err error) error {
	errorObj := map[string]any{
		"code":    string(errors.ErrInternal),
		"message": err.Error(),
		"status":  500,
	}
	var seqErr *errors.SeqError
	if stderrors.As(err, &seqErr) {
		errorObj["code"] = seqErr.Code
		errorObj["message"] = seqErr.Message
		errorObj["status"] = seqErr.Status
		if seqErr.Code != errors.ErrInternal && seqErr.Details != nil {
			errorObj["details"] = seqErr.Details
		}
	}

	enc := json.NewEncoder(c.App.ErrWriter)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(map[string]any{"error": errorObj})
	return cli.Exit("", 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads stdin, dropping one trailing line break.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	s := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}
