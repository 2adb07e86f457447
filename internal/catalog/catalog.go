// Package catalog holds the in-memory set of categories and the entries
// built against them, and loads that set from the store.
package catalog

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/seqdex/internal/db"
	"github.com/hpungsan/seqdex/internal/errors"
	"github.com/hpungsan/seqdex/internal/logging"
	"github.com/hpungsan/seqdex/internal/observable"
	"github.com/hpungsan/seqdex/internal/search"
	"github.com/hpungsan/seqdex/internal/sequence"
)

// Catalog owns categories and entries. Entries refer back to their
// category by ID; resolve it with Category.
type Catalog struct {
	mu         sync.RWMutex
	logger     logrus.FieldLogger
	categories map[sequence.CategoryID]*sequence.Category
	order      []sequence.CategoryID
	entries    []*sequence.Entry
}

// New creates an empty catalog. A nil logger discards output.
func New(logger logrus.FieldLogger) *Catalog {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Catalog{
		logger:     logger,
		categories: make(map[sequence.CategoryID]*sequence.Category),
	}
}

// AddCategory registers cat and watches its IsEmpty flag. Adding a second
// category with the same ID fails with ALREADY_EXISTS.
func (c *Catalog) AddCategory(cat *sequence.Category) error {
	if cat == nil {
		return errors.NewInvalidRequest("category is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.categories[cat.ID()]; ok {
		return errors.NewAlreadyExists("category", string(cat.ID()))
	}
	c.categories[cat.ID()] = cat
	c.order = append(c.order, cat.ID())

	log := c.logger.WithFields(logrus.Fields{"category_id": cat.ID(), "category": cat.Name()})
	cat.Subscribe(func(ev observable.Event) {
		log.WithField("property", ev.Property).Debug("category changed")
	})
	return nil
}

// Category resolves a category ID.
func (c *Catalog) Category(id sequence.CategoryID) (*sequence.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.categories[id]
	return cat, ok
}

// Categories returns categories in the order they were added.
func (c *Catalog) Categories() []*sequence.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Map(c.order, func(id sequence.CategoryID, _ int) *sequence.Category {
		return c.categories[id]
	})
}

// Add builds an entry from rec under the given category.
func (c *Catalog) Add(categoryID sequence.CategoryID, rec sequence.Record) (*sequence.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cat, ok := c.categories[categoryID]
	if !ok {
		return nil, errors.NewNotFound("category", string(categoryID))
	}
	entry, err := sequence.NewEntry(cat, rec)
	if err != nil {
		return nil, err
	}
	c.entries = append(c.entries, entry)
	return entry, nil
}

// Entries returns all entries in insertion order.
func (c *Catalog) Entries() []*sequence.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.entries)
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Filter returns the entries matching q in display order.
func (c *Catalog) Filter(q search.Query) []*sequence.Entry {
	matched := lo.Filter(c.Entries(), func(e *sequence.Entry, _ int) bool {
		return e.Matches(q)
	})
	slices.SortStableFunc(matched, sequence.Compare)
	return matched
}

// Load builds a catalog from every stored category and sequence. Stored
// sequences that cannot back an entry are skipped with a warning.
func Load(ctx context.Context, q db.Querier, logger logrus.FieldLogger) (*Catalog, error) {
	c := New(logger)

	cats, err := db.ListCategories(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, row := range cats {
		if err := c.AddCategory(CategoryFromRow(row)); err != nil {
			return nil, err
		}
	}

	seqs, err := db.ListSequences(ctx, q, "")
	if err != nil {
		return nil, err
	}
	skipped := 0
	for _, s := range seqs {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("catalog load")
		}
		if _, err := c.Add(sequence.CategoryID(s.CategoryID), s.Record()); err != nil {
			c.logger.WithError(err).WithField("sequence_id", s.ID).Warn("skipping stored sequence")
			skipped++
		}
	}

	c.logger.WithFields(logrus.Fields{
		"categories": len(cats),
		"entries":    c.Len(),
		"skipped":    skipped,
	}).Debug("catalog loaded")
	return c, nil
}

// CategoryFromRow builds an empty category from a stored row.
func CategoryFromRow(row *db.Category) *sequence.Category {
	id := sequence.CategoryID(row.ID)
	if row.RangeStart >= 0 && row.RangeEnd >= 0 {
		return sequence.NewRangeCategory(id, row.Name, row.RangeStart, row.RangeEnd)
	}
	return sequence.NewCategory(id, row.Name)
}
