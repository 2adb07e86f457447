package ops

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/seqdex/internal/config"
	"github.com/hpungsan/seqdex/internal/errors"
)

func seedSearchData(t *testing.T, database *sql.DB) {
	t.Helper()
	ctx := context.Background()
	for _, in := range []StoreInput{
		{Category: "Currency", Result: "€", Description: "EURO SIGN", Keys: "Multi_key,C,equal"},
		{Category: "Currency", Result: "£", Description: "POUND SIGN", Keys: "Multi_key,L,minus"},
		{Category: "Greek", Result: "α", Description: "GREEK SMALL LETTER ALPHA"},
		{Category: "Ligatures", Result: "fi", Description: "fi ligature text"},
		{Category: "Empty Later"},
	} {
		if in.Result == "" {
			continue
		}
		_, err := Store(ctx, database, in)
		require.NoError(t, err)
	}
}

func englishConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Locale = "en_US.UTF-8"
	return cfg
}

func TestSearch_EmptyQueryReturnsAllInDisplayOrder(t *testing.T) {
	database := openTestDB(t)
	seedSearchData(t, database)

	out, err := Search(context.Background(), database, englishConfig(), nil, SearchInput{})
	require.NoError(t, err)
	require.Len(t, out.Items, 4)
	assert.Equal(t, 4, out.Pagination.Total)
	assert.False(t, out.Pagination.HasMore)

	var results []string
	for _, item := range out.Items {
		results = append(results, item.Result)
	}
	assert.Equal(t, []string{"fi", "£", "α", "€"}, results)
}

func TestSearch_TextIsCaseInsensitive(t *testing.T) {
	database := openTestDB(t)
	seedSearchData(t, database)

	out, err := Search(context.Background(), database, englishConfig(), nil, SearchInput{Query: "Sign"})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "£", out.Items[0].Result)
	assert.Equal(t, "Currency", out.Items[0].Category)
	assert.Equal(t, "en-US", out.Locale)
}

func TestSearch_NumericTokens(t *testing.T) {
	database := openTestDB(t)
	seedSearchData(t, database)
	ctx := context.Background()

	for _, q := range []string{"945", "U+03B1", "0x3b1"} {
		out, err := Search(ctx, database, englishConfig(), nil, SearchInput{Query: q})
		require.NoError(t, err, q)
		require.Len(t, out.Items, 1, q)
		assert.Equal(t, "α", out.Items[0].Result, q)
	}
}

func TestSearch_NoMatch(t *testing.T) {
	database := openTestDB(t)
	seedSearchData(t, database)

	out, err := Search(context.Background(), database, englishConfig(), nil, SearchInput{Query: "yen 165"})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.NotNil(t, out.Items)
	assert.Zero(t, out.Pagination.Total)
}

func TestSearch_CategoryFilter(t *testing.T) {
	database := openTestDB(t)
	seedSearchData(t, database)
	ctx := context.Background()

	out, err := Search(ctx, database, englishConfig(), nil, SearchInput{Category: "currency"})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)

	_, err = Search(ctx, database, englishConfig(), nil, SearchInput{Category: "nope"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSearch_Pagination(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		_, err := Store(ctx, database, StoreInput{
			Category:    "Letters",
			Result:      string(rune('a' + i)),
			Description: fmt.Sprintf("letter %d", i),
		})
		require.NoError(t, err)
	}

	out, err := Search(ctx, database, englishConfig(), nil, SearchInput{Limit: 3, Offset: 3})
	require.NoError(t, err)
	require.Len(t, out.Items, 3)
	assert.Equal(t, "d", out.Items[0].Result)
	assert.True(t, out.Pagination.HasMore)
	assert.Equal(t, 7, out.Pagination.Total)

	out, err = Search(ctx, database, englishConfig(), nil, SearchInput{Limit: 3, Offset: 6})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.False(t, out.Pagination.HasMore)

	out, err = Search(ctx, database, englishConfig(), nil, SearchInput{Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
}

func TestSearch_HugeOffsetAndLimit(t *testing.T) {
	database := openTestDB(t)
	seedSearchData(t, database)
	ctx := context.Background()

	out, err := Search(ctx, database, englishConfig(), nil, SearchInput{Offset: math.MaxInt})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.False(t, out.Pagination.HasMore)
	assert.Equal(t, 4, out.Pagination.Total)

	out, err = Search(ctx, database, englishConfig(), nil, SearchInput{Offset: 2, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)
	assert.False(t, out.Pagination.HasMore)
}

func TestSearch_Limits(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	cfg := englishConfig()
	cfg.SearchLimit = 10
	out, err := Search(ctx, database, cfg, nil, SearchInput{})
	require.NoError(t, err)
	assert.Equal(t, 10, out.Pagination.Limit)

	out, err = Search(ctx, database, cfg, nil, SearchInput{Limit: 10000})
	require.NoError(t, err)
	assert.Equal(t, MaxSearchLimit, out.Pagination.Limit)

	out, err = Search(ctx, database, nil, nil, SearchInput{})
	require.NoError(t, err)
	assert.Equal(t, DefaultSearchLimit, out.Pagination.Limit)

	_, err = Search(ctx, database, cfg, nil, SearchInput{Offset: -1})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	long := make([]byte, MaxQueryLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = Search(ctx, database, cfg, nil, SearchInput{Query: string(long)})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestSearch_ProcessLocaleWhenUnconfigured(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_COLLATE", "")
	t.Setenv("LANG", "de_DE.UTF-8")
	database := openTestDB(t)
	seedSearchData(t, database)

	out, err := Search(context.Background(), database, config.DefaultConfig(), nil, SearchInput{Query: "alpha"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "de-DE", out.Locale)
}

func TestCategories(t *testing.T) {
	database := openTestDB(t)
	seedSearchData(t, database)
	ctx := context.Background()

	out, err := Categories(ctx, database, nil)
	require.NoError(t, err)
	require.Equal(t, 3, out.Total)

	byName := map[string]CategoryItem{}
	for _, item := range out.Items {
		byName[item.Name] = item
	}
	assert.Equal(t, 2, byName["Currency"].Count)
	assert.Equal(t, 1, byName["Greek"].Count)
	assert.False(t, byName["Currency"].IsEmpty)
	assert.Nil(t, byName["Greek"].RangeStart)
}

func TestCategories_EmptyAfterDeletingAllMembers(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	out, err := Store(ctx, database, StoreInput{Category: "Arrows", Result: "→"})
	require.NoError(t, err)
	_, err = Delete(ctx, database, DeleteInput{ID: out.ID})
	require.NoError(t, err)

	cats, err := Categories(ctx, database, nil)
	require.NoError(t, err)
	require.Len(t, cats.Items, 1)
	assert.Zero(t, cats.Items[0].Count)
	assert.True(t, cats.Items[0].IsEmpty)
}
