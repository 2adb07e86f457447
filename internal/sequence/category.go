package sequence

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/hpungsan/seqdex/internal/observable"
)

// PropertyIsEmpty is the property name announced when a category gains
// its first entry.
const PropertyIsEmpty = "IsEmpty"

// CategoryID identifies a category. Entries refer to their category by ID
// and never own it.
type CategoryID string

// Category groups entries. It starts empty and is marked non-empty by the
// first entry constructed against it; removing entries never resets it.
// Subscribe to observe IsEmpty changes.
type Category struct {
	notifier observable.Notifier

	id         CategoryID
	name       string
	rangeStart int
	rangeEnd   int
	isEmpty    bool
}

// NewCategory creates an empty category without a code point range.
func NewCategory(id CategoryID, name string) *Category {
	return &Category{
		id:         id,
		name:       name,
		rangeStart: -1,
		rangeEnd:   -1,
		isEmpty:    true,
	}
}

// NewRangeCategory creates an empty category covering the code points
// start through end inclusive, such as a Unicode block.
func NewRangeCategory(id CategoryID, name string, start, end int) *Category {
	c := NewCategory(id, name)
	c.rangeStart = start
	c.rangeEnd = end
	return c
}

func (c *Category) ID() CategoryID { return c.id }

func (c *Category) Name() string { return c.name }

// Range returns the code point range, if the category has one.
func (c *Category) Range() (start, end int, ok bool) {
	if c.rangeStart < 0 {
		return -1, -1, false
	}
	return c.rangeStart, c.rangeEnd, true
}

// Subscribe registers h for property changes on c.
func (c *Category) Subscribe(h observable.Handler) observable.SubscriptionID {
	return c.notifier.Subscribe(h)
}

func (c *Category) Unsubscribe(id observable.SubscriptionID) bool {
	return c.notifier.Unsubscribe(id)
}

// IsEmpty reports whether no entry has been constructed against c yet.
func (c *Category) IsEmpty() bool {
	return observable.Load(&c.notifier, &c.isEmpty)
}

// markNonEmpty clears the empty flag; subscribers hear about it only on
// the first call.
func (c *Category) markNonEmpty() bool {
	return observable.SetValue(&c.notifier, &c.isEmpty, false, PropertyIsEmpty, nil)
}

// NormalizeName folds case and collapses whitespace so that "Latin  1"
// and "latin 1" name the same category.
func NormalizeName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}
