package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/seqdex/internal/catalog"
	"github.com/hpungsan/seqdex/internal/db"
	"github.com/hpungsan/seqdex/internal/errors"
	"github.com/hpungsan/seqdex/internal/sequence"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID string
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	SequenceItem
}

// Fetch retrieves a single sequence by ID.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	row, err := db.GetSequence(ctx, database, id)
	if err != nil {
		return nil, err
	}
	catRow, err := db.GetCategory(ctx, database, row.CategoryID)
	if err != nil {
		return nil, err
	}

	cat := catalog.CategoryFromRow(catRow)
	entry, err := sequence.NewEntry(cat, row.Record())
	if err != nil {
		return nil, err
	}

	return &FetchOutput{SequenceItem: itemFromEntry(entry, cat)}, nil
}
