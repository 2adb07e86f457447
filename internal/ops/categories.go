package ops

import (
	"context"
	"database/sql"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/seqdex/internal/catalog"
	"github.com/hpungsan/seqdex/internal/sequence"
)

// CategoryItem describes one category and its membership.
type CategoryItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RangeStart *int   `json:"range_start,omitempty"`
	RangeEnd   *int   `json:"range_end,omitempty"`
	Count      int    `json:"count"`
	IsEmpty    bool   `json:"is_empty"`
}

// CategoriesOutput contains the result of the Categories operation.
type CategoriesOutput struct {
	Items []CategoryItem `json:"items"`
	Total int            `json:"total"`
}

// Categories lists categories in creation order. IsEmpty is the flag the
// loaded entries left behind on each category.
func Categories(ctx context.Context, database *sql.DB, logger logrus.FieldLogger) (*CategoriesOutput, error) {
	cat, err := catalog.Load(ctx, database, logger)
	if err != nil {
		return nil, err
	}

	members := lo.GroupBy(cat.Entries(), func(e *sequence.Entry) sequence.CategoryID {
		return e.CategoryID()
	})

	items := lo.Map(cat.Categories(), func(c *sequence.Category, _ int) CategoryItem {
		item := CategoryItem{
			ID:      string(c.ID()),
			Name:    c.Name(),
			Count:   len(members[c.ID()]),
			IsEmpty: c.IsEmpty(),
		}
		if start, end, ok := c.Range(); ok {
			item.RangeStart = &start
			item.RangeEnd = &end
		}
		return item
	})

	return &CategoriesOutput{Items: items, Total: len(items)}, nil
}
