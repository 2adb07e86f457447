package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hpungsan/seqdex/internal/db"
	"github.com/hpungsan/seqdex/internal/errors"
	"github.com/hpungsan/seqdex/internal/sequence"
)

// StoreInput contains parameters for the Store operation.
type StoreInput struct {
	Category    string // required; created when missing
	RangeStart  *int   // optional, only used when the category is created
	RangeEnd    *int
	Result      string // required
	Description string
	Keys        string // comma separated key names
}

// StoreOutput contains the result of the Store operation.
type StoreOutput struct {
	ID              string `json:"id"`
	CategoryID      string `json:"category_id"`
	CategoryCreated bool   `json:"category_created"`
}

// Store adds a sequence, creating its category by name if needed.
func Store(ctx context.Context, database *sql.DB, input StoreInput) (*StoreOutput, error) {
	name := strings.TrimSpace(input.Category)
	if sequence.NormalizeName(name) == "" {
		return nil, errors.NewInvalidRequest("category is required")
	}
	if err := validateResult(input.Result); err != nil {
		return nil, err
	}
	start, end, err := validateRange(input.RangeStart, input.RangeEnd)
	if err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	cat, created, err := ensureCategory(ctx, tx, name, start, end, now)
	if err != nil {
		return nil, err
	}

	s := &db.Sequence{
		ID:          id,
		CategoryID:  cat.ID,
		Result:      input.Result,
		Description: strings.TrimSpace(input.Description),
		Keys:        sequence.ParseKeySequence(input.Keys),
		CreatedAt:   now,
	}
	if err := db.InsertSequence(ctx, tx, s); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &StoreOutput{
		ID:              id,
		CategoryID:      cat.ID,
		CategoryCreated: created,
	}, nil
}

// ensureCategory returns the category named name, inserting it when absent.
func ensureCategory(ctx context.Context, q db.Querier, name string, start, end int, now int64) (*db.Category, bool, error) {
	existing, err := db.GetCategoryByName(ctx, q, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, false, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}
	c := &db.Category{
		ID:         id,
		Name:       name,
		RangeStart: start,
		RangeEnd:   end,
		CreatedAt:  now,
	}
	if err := db.InsertCategory(ctx, q, c); err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// validateResult applies the same rules entry construction enforces.
func validateResult(result string) error {
	if result == "" {
		return errors.NewInvalidRecord("result is empty")
	}
	if !utf8.ValidString(result) {
		return errors.NewInvalidRecord("result is not valid UTF-8")
	}
	return nil
}

// validateRange returns -1, -1 when no range is given.
func validateRange(start, end *int) (int, int, error) {
	if start == nil && end == nil {
		return -1, -1, nil
	}
	if start == nil || end == nil {
		return 0, 0, errors.NewInvalidRequest("range_start and range_end must be given together")
	}
	if *start < 0 || *end > utf8.MaxRune || *start > *end {
		return 0, 0, errors.NewInvalidRequest(fmt.Sprintf("invalid code point range %d..%d", *start, *end))
	}
	return *start, *end, nil
}
