package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/seqdex/internal/db"
	"github.com/hpungsan/seqdex/internal/errors"
)

func TestStore_ReusesCategoryByName(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	first, err := Store(ctx, database, StoreInput{Category: "Greek", Result: "α"})
	require.NoError(t, err)
	require.True(t, first.CategoryCreated)

	second, err := Store(ctx, database, StoreInput{Category: "  GREEK ", Result: "β"})
	require.NoError(t, err)
	assert.False(t, second.CategoryCreated)
	assert.Equal(t, first.CategoryID, second.CategoryID)
	assert.NotEqual(t, first.ID, second.ID)

	cats, err := db.ListCategories(ctx, database)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Greek", cats[0].Name)
}

func TestStore_WithRange(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	out, err := Store(ctx, database, StoreInput{
		Category:   "Latin-1 Supplement",
		RangeStart: intPtr(0x80),
		RangeEnd:   intPtr(0xff),
		Result:     "©",
	})
	require.NoError(t, err)

	cat, err := db.GetCategory(ctx, database, out.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, 0x80, cat.RangeStart)
	assert.Equal(t, 0xff, cat.RangeEnd)
}

func TestStore_Validation(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	tests := []struct {
		name  string
		input StoreInput
		code  errors.ErrorCode
	}{
		{"missing category", StoreInput{Result: "a"}, errors.ErrInvalidRequest},
		{"blank category", StoreInput{Category: "   ", Result: "a"}, errors.ErrInvalidRequest},
		{"empty result", StoreInput{Category: "c"}, errors.ErrInvalidRecord},
		{"invalid utf8", StoreInput{Category: "c", Result: "\xff"}, errors.ErrInvalidRecord},
		{"half range", StoreInput{Category: "c", Result: "a", RangeStart: intPtr(1)}, errors.ErrInvalidRequest},
		{"reversed range", StoreInput{Category: "c", Result: "a", RangeStart: intPtr(10), RangeEnd: intPtr(1)}, errors.ErrInvalidRequest},
		{"range too large", StoreInput{Category: "c", Result: "a", RangeStart: intPtr(0), RangeEnd: intPtr(0x110000)}, errors.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Store(ctx, database, tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}

	n, err := db.CountSequences(ctx, database)
	require.NoError(t, err)
	assert.Zero(t, n)
	cats, err := db.ListCategories(ctx, database)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestFetchDelete_Validation(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	_, err := Fetch(ctx, database, FetchInput{ID: " "})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Delete(ctx, database, DeleteInput{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Delete(ctx, database, DeleteInput{ID: "01MISSING"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestFetch_MultiRuneResult(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	out, err := Store(ctx, database, StoreInput{Category: "Digraphs", Result: "ǅx", Description: "digraph"})
	require.NoError(t, err)

	got, err := Fetch(ctx, database, FetchInput{ID: out.ID})
	require.NoError(t, err)
	assert.False(t, got.SingleRune)
	assert.Equal(t, "U+01C5", got.CodePoint)
	assert.Equal(t, "Lt", got.GeneralCategory)
	assert.NotEmpty(t, got.GeneralCategoryLabel)
}

func TestFormatCodePoint(t *testing.T) {
	assert.Equal(t, "U+0041", FormatCodePoint('A'))
	assert.Equal(t, "U+20AC", FormatCodePoint('€'))
	assert.Equal(t, "U+1F600", FormatCodePoint(0x1F600))
}
