package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/seqdex/internal/catalog"
	"github.com/hpungsan/seqdex/internal/config"
	"github.com/hpungsan/seqdex/internal/db"
	"github.com/hpungsan/seqdex/internal/errors"
	"github.com/hpungsan/seqdex/internal/search"
	"github.com/hpungsan/seqdex/internal/sequence"
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query    string // empty matches every sequence
	Category string // optional category name filter
	Limit    int    // default: config search_limit, max: 500
	Offset   int
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items      []SequenceItem `json:"items"`
	Pagination Pagination     `json:"pagination"`
	Locale     string         `json:"locale"`
}

// Search matches the query against every stored sequence and returns one
// page in display order (code point, multi-rune results first).
func Search(ctx context.Context, database *sql.DB, cfg *config.Config, logger logrus.FieldLogger, input SearchInput) (*SearchOutput, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if utf8.RuneCountInString(input.Query) > MaxQueryLength {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("query exceeds maximum length of %d characters", MaxQueryLength))
	}
	if input.Offset < 0 {
		return nil, errors.NewInvalidRequest("offset must not be negative")
	}
	defaultLimit := cfg.SearchLimit
	if defaultLimit <= 0 {
		defaultLimit = DefaultSearchLimit
	}
	limit := clampLimit(input.Limit, defaultLimit, MaxSearchLimit)

	var categoryID sequence.CategoryID
	if name := strings.TrimSpace(input.Category); name != "" {
		row, err := db.GetCategoryByName(ctx, database, name)
		if err != nil {
			return nil, err
		}
		categoryID = sequence.CategoryID(row.ID)
	}

	cat, err := catalog.Load(ctx, database, logger)
	if err != nil {
		return nil, err
	}

	q := search.Parse(input.Query)
	if cfg.Locale != "" {
		q = q.WithLocale(search.ParseLocale(cfg.Locale))
	}

	matched := cat.Filter(q)
	if categoryID != "" {
		matched = lo.Filter(matched, func(e *sequence.Entry, _ int) bool {
			return e.CategoryID() == categoryID
		})
	}

	total := len(matched)
	start := min(input.Offset, total)
	end := start + min(limit, total-start)
	page := matched[start:end]

	items := make([]SequenceItem, 0, len(page))
	for _, e := range page {
		owner, _ := cat.Category(e.CategoryID())
		items = append(items, itemFromEntry(e, owner))
	}

	return &SearchOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  input.Offset,
			HasMore: end < total,
			Total:   total,
		},
		Locale: q.TextMatcher().Locale().String(),
	}, nil
}
