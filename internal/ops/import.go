package ops

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hpungsan/seqdex/internal/config"
	"github.com/hpungsan/seqdex/internal/db"
	"github.com/hpungsan/seqdex/internal/errors"
	"github.com/hpungsan/seqdex/internal/sequence"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite on collision
)

// maxImportLine bounds a single JSONL line.
const maxImportLine = 1 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported          int           `json:"imported"`
	CategoriesCreated int           `json:"categories_created"`
	Skipped           int           `json:"skipped"`
	Errors            []ImportError `json:"errors"`
}

// ImportError describes a line that could not be imported.
type ImportError struct {
	Line    int    `json:"line,omitempty"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importLine struct {
	line int
	rec  ExportRecord
}

type parsedImport struct {
	categories []importLine
	sequences  []importLine
}

// Import loads categories and sequences from a JSONL export file.
// Categories are matched to existing ones by ID, then by name; only missing
// categories are created. Sequence ID collisions abort the whole import in
// error mode and overwrite in replace mode.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace")
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}
	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	parsed, parseErrors := parseExportFile(file)

	if input.Mode == ImportModeError {
		if len(parseErrors) > 0 {
			return &ImportOutput{Errors: parseErrors}, nil
		}
		return importModeError(ctx, database, parsed)
	}
	return importModeReplace(ctx, database, parsed, parseErrors)
}

// parseExportFile reads every line, skipping the header and blank lines.
func parseExportFile(r io.Reader) (*parsedImport, []ImportError) {
	parsed := &parsedImport{}
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec ExportRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if rec.SeqdexExport {
			continue
		}

		if err := validateImportRecord(&rec); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      rec.ID,
				Code:    string(errors.ErrInvalidRecord),
				Message: err.Error(),
			})
			continue
		}

		il := importLine{line: lineNum, rec: rec}
		if rec.Kind == KindCategory {
			parsed.categories = append(parsed.categories, il)
		} else {
			parsed.sequences = append(parsed.sequences, il)
		}
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum + 1,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return parsed, parseErrors
}

func validateImportRecord(rec *ExportRecord) error {
	rec.ID = strings.TrimSpace(rec.ID)
	if rec.ID == "" {
		return fmt.Errorf("missing id field")
	}

	switch rec.Kind {
	case KindCategory:
		if sequence.NormalizeName(rec.Name) == "" {
			return fmt.Errorf("category %s has no name", rec.ID)
		}
		if _, _, err := validateRange(rec.RangeStart, rec.RangeEnd); err != nil {
			return fmt.Errorf("category %s: %s", rec.ID, errMessage(err))
		}
	case KindSequence:
		if rec.CategoryID == "" {
			return fmt.Errorf("sequence %s has no category_id", rec.ID)
		}
		if err := validateResult(rec.Result); err != nil {
			return fmt.Errorf("sequence %s: %s", rec.ID, errMessage(err))
		}
	default:
		return fmt.Errorf("unknown record kind %q", rec.Kind)
	}
	return nil
}

// errMessage returns the message of a SeqError without its code prefix.
func errMessage(err error) string {
	if se, ok := err.(*errors.SeqError); ok {
		return se.Message
	}
	return err.Error()
}

// resolveCategories maps each category ID in the file to a stored
// category ID, creating categories that exist neither by ID nor by name.
func resolveCategories(ctx context.Context, q db.Querier, lines []importLine) (map[string]string, int, error) {
	ids := make(map[string]string, len(lines))
	created := 0

	for _, il := range lines {
		rec := il.rec
		if existing, err := db.GetCategory(ctx, q, rec.ID); err == nil {
			ids[rec.ID] = existing.ID
			continue
		} else if !errors.Is(err, errors.ErrNotFound) {
			return nil, 0, err
		}

		if existing, err := db.GetCategoryByName(ctx, q, rec.Name); err == nil {
			ids[rec.ID] = existing.ID
			continue
		} else if !errors.Is(err, errors.ErrNotFound) {
			return nil, 0, err
		}

		start, end, _ := validateRange(rec.RangeStart, rec.RangeEnd)
		c := &db.Category{
			ID:         rec.ID,
			Name:       strings.TrimSpace(rec.Name),
			RangeStart: start,
			RangeEnd:   end,
			CreatedAt:  rec.CreatedAt,
		}
		if err := db.InsertCategory(ctx, q, c); err != nil {
			return nil, 0, err
		}
		ids[rec.ID] = c.ID
		created++
	}
	return ids, created, nil
}

// categoryFor finds the stored category for a sequence line: one listed in
// the file, or one already in the store.
func categoryFor(ctx context.Context, q db.Querier, ids map[string]string, fileID string) (string, error) {
	if id, ok := ids[fileID]; ok {
		return id, nil
	}
	c, err := db.GetCategory(ctx, q, fileID)
	if err != nil {
		return "", err
	}
	ids[fileID] = c.ID
	return c.ID, nil
}

func toSequence(rec ExportRecord, categoryID string) *db.Sequence {
	return &db.Sequence{
		ID:          rec.ID,
		CategoryID:  categoryID,
		Result:      rec.Result,
		Description: rec.Description,
		Keys:        sequence.ParseKeySequence(rec.Keys),
		CreatedAt:   rec.CreatedAt,
	}
}

// importModeError imports everything in one transaction and stops at the
// first collision or unresolvable category.
func importModeError(ctx context.Context, database *sql.DB, parsed *parsedImport) (*ImportOutput, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	ids, created, err := resolveCategories(ctx, tx, parsed.categories)
	if err != nil {
		return nil, err
	}

	abort := func(il importLine, code, msg string) (*ImportOutput, error) {
		return &ImportOutput{
			Errors: []ImportError{{Line: il.line, ID: il.rec.ID, Code: code, Message: msg}},
		}, nil
	}

	imported := 0
	for _, il := range parsed.sequences {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("import")
		}

		categoryID, err := categoryFor(ctx, tx, ids, il.rec.CategoryID)
		if errors.Is(err, errors.ErrNotFound) {
			return abort(il, "UNKNOWN_CATEGORY", fmt.Sprintf("category %q is not in the file or the store", il.rec.CategoryID))
		}
		if err != nil {
			return nil, err
		}

		_, err = db.GetSequence(ctx, tx, il.rec.ID)
		if err == nil {
			return abort(il, "ID_COLLISION", fmt.Sprintf("sequence with id %q already exists", il.rec.ID))
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}

		if err := db.InsertSequence(ctx, tx, toSequence(il.rec, categoryID)); err != nil {
			if errors.Is(err, errors.ErrAlreadyExists) {
				return abort(il, "ID_COLLISION", fmt.Sprintf("sequence id %q appears more than once", il.rec.ID))
			}
			return nil, err
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &ImportOutput{
		Imported:          imported,
		CategoriesCreated: created,
	}, nil
}

// importModeReplace upserts each sequence, skipping lines that fail.
func importModeReplace(ctx context.Context, database *sql.DB, parsed *parsedImport, parseErrors []ImportError) (*ImportOutput, error) {
	out := &ImportOutput{}
	out.Errors = append(out.Errors, parseErrors...)
	out.Skipped = len(parseErrors)

	ids, created, err := resolveCategories(ctx, database, parsed.categories)
	if err != nil {
		return nil, err
	}
	out.CategoriesCreated = created

	for _, il := range parsed.sequences {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("import")
		}

		categoryID, err := categoryFor(ctx, database, ids, il.rec.CategoryID)
		if err == nil {
			err = db.UpsertSequence(ctx, database, toSequence(il.rec, categoryID))
		}
		if err != nil {
			if errors.Is(err, errors.ErrInternal) {
				return nil, err
			}
			out.Errors = append(out.Errors, ImportError{
				Line:    il.line,
				ID:      il.rec.ID,
				Code:    "SKIPPED",
				Message: err.Error(),
			})
			out.Skipped++
			continue
		}
		out.Imported++
	}

	return out, nil
}
