package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hpungsan/seqdex/internal/config"
	"github.com/hpungsan/seqdex/internal/db"
	"github.com/hpungsan/seqdex/internal/errors"
	"github.com/hpungsan/seqdex/internal/sequence"
)

// Export record kinds.
const (
	KindCategory = "category"
	KindSequence = "sequence"
)

// ExportSchemaVersion is written to the header line of every export.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path     string // optional, default: ~/.seqdex/exports/<category|all>-<timestamp>.jsonl
	Category string // optional category name filter
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Categories int    `json:"categories"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	SeqdexExport  bool   `json:"_seqdex_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// ExportRecord is one category or sequence line of an export file.
// Category lines come before the sequences that reference them.
type ExportRecord struct {
	SeqdexExport bool   `json:"_seqdex_export,omitempty"`
	Kind         string `json:"kind"`
	ID           string `json:"id"`
	CreatedAt    int64  `json:"created_at"`

	// category
	Name       string `json:"name,omitempty"`
	RangeStart *int   `json:"range_start,omitempty"`
	RangeEnd   *int   `json:"range_end,omitempty"`

	// sequence
	CategoryID  string `json:"category_id,omitempty"`
	Result      string `json:"result,omitempty"`
	Description string `json:"description,omitempty"`
	Keys        string `json:"keys,omitempty"`
}

func categoryRecord(c *db.Category) ExportRecord {
	rec := ExportRecord{Kind: KindCategory, ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
	if c.RangeStart >= 0 && c.RangeEnd >= 0 {
		start, end := c.RangeStart, c.RangeEnd
		rec.RangeStart = &start
		rec.RangeEnd = &end
	}
	return rec
}

func sequenceRecord(s *db.Sequence) ExportRecord {
	return ExportRecord{
		Kind:        KindSequence,
		ID:          s.ID,
		CategoryID:  s.CategoryID,
		Result:      s.Result,
		Description: s.Description,
		Keys:        s.Keys.String(),
		CreatedAt:   s.CreatedAt,
	}
}

// Export writes categories and sequences to a JSONL file. The file is
// written under a temporary name and renamed into place, so an existing
// export survives a failed run.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()
	exportedAt := now.Unix()

	var categories []*db.Category
	if name := strings.TrimSpace(input.Category); name != "" {
		c, err := db.GetCategoryByName(ctx, database, name)
		if err != nil {
			return nil, err
		}
		categories = []*db.Category{c}
	} else {
		var err error
		if categories, err = db.ListCategories(ctx, database); err != nil {
			return nil, err
		}
	}

	exportPath := input.Path
	if exportPath == "" {
		var err error
		if exportPath, err = defaultExportPath(input.Category, now); err != nil {
			return nil, err
		}
	}
	// Default paths are validated too: the category name ends up in them.
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	header := ExportHeader{SeqdexExport: true, SchemaVersion: ExportSchemaVersion, ExportedAt: exportedAt}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}
	for _, c := range categories {
		if err := enc.Encode(categoryRecord(c)); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	var categoryID string
	if input.Category != "" && len(categories) == 1 {
		categoryID = categories[0].ID
	}
	rows, err := db.StreamForExport(ctx, database, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("export")
		}

		s, err := db.ScanSequenceRow(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := enc.Encode(sequenceRecord(s)); err != nil {
			return nil, errors.NewInternal(err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := w.Flush(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	// Close before the rename (required on Windows).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would replace the link itself, not write through it.
	if isSymlink(exportPath) {
		return nil, errors.NewInvalidRequest("export path must not be a symlink")
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Categories: len(categories),
		Count:      count,
		ExportedAt: exportedAt,
	}, nil
}

// defaultExportPath returns ~/.seqdex/exports/<category>-<timestamp>.jsonl,
// or all-<timestamp>.jsonl without a category.
func defaultExportPath(category string, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}

	name := "all"
	if norm := sequence.NormalizeName(category); norm != "" {
		name = SanitizeForFilename(norm)
	}
	filename := fmt.Sprintf("%s-%s%s", name, now.Format("2006-01-02T150405"), ExportExt)
	return filepath.Join(dir, filename), nil
}
