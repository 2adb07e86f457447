// Package sequence models compose sequences: the key presses, the category
// they are filed under, and the entry that is matched against searches.
package sequence

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/seqdex/internal/errors"
	"github.com/hpungsan/seqdex/internal/search"
	"github.com/hpungsan/seqdex/internal/unicat"
)

// Record is the raw material of an entry as supplied by a loader.
type Record struct {
	ID          string      `json:"id"`
	Result      string      `json:"result"`
	Description string      `json:"description"`
	Keys        KeySequence `json:"keys"`
}

// Entry is one catalogue sequence. All fields are fixed at construction.
type Entry struct {
	id          string
	result      string
	description string
	keys        KeySequence
	category    CategoryID
}

// NewEntry builds an entry for rec filed under cat and marks cat as
// non-empty. It fails with INVALID_RECORD when cat is nil or the result is
// empty or not valid UTF-8.
func NewEntry(cat *Category, rec Record) (*Entry, error) {
	if cat == nil {
		return nil, errors.NewInvalidRecord("category is required")
	}
	if rec.Result == "" {
		return nil, errors.NewInvalidRecord("result is empty")
	}
	if !utf8.ValidString(rec.Result) {
		return nil, errors.NewInvalidRecord("result is not valid UTF-8")
	}

	e := &Entry{
		id:          rec.ID,
		result:      rec.Result,
		description: rec.Description,
		keys:        slices.Clone(rec.Keys),
		category:    cat.ID(),
	}
	cat.markNonEmpty()
	return e, nil
}

func (e *Entry) ID() string { return e.id }

// Result returns the composed text. It may hold more than one rune.
func (e *Entry) Result() string { return e.result }

func (e *Entry) Description() string { return e.description }

// Keys returns a copy of the key sequence.
func (e *Entry) Keys() KeySequence { return slices.Clone(e.keys) }

// CategoryID returns the ID of the owning category.
func (e *Entry) CategoryID() CategoryID { return e.category }

// CodePoint returns the first rune of the result.
func (e *Entry) CodePoint() rune {
	r, _ := utf8.DecodeRuneInString(e.result)
	return r
}

// SingleRune reports whether the result is exactly one rune.
func (e *Entry) SingleRune() bool {
	return utf8.RuneCountInString(e.result) == 1
}

// GeneralCategory returns the Unicode general category of CodePoint.
func (e *Entry) GeneralCategory() unicat.GeneralCategory {
	return unicat.Of(e.CodePoint())
}

// Matches reports whether e satisfies q. An empty query matches every
// entry. Otherwise any text token found in the description (ignoring case
// under the query's locale) or any numeric token equal to the code point
// is a match.
func (e *Entry) Matches(q search.Query) bool {
	if q.IsEmpty() {
		return true
	}

	if len(q.TextTokens) > 0 {
		tm := q.TextMatcher()
		for _, token := range q.TextTokens {
			if tm.Contains(e.description, token) {
				return true
			}
		}
	}

	cp := int(e.CodePoint())
	for _, n := range q.NumericTokens {
		if n == cp {
			return true
		}
	}
	return false
}

// Compare orders entries for display. If either result is a single rune,
// entries are ordered by code point with multi-rune results first;
// otherwise by result text.
func Compare(a, b *Entry) int {
	if a.SingleRune() || b.SingleRune() {
		return cmp.Compare(sortKey(a), sortKey(b))
	}
	return strings.Compare(a.result, b.result)
}

func sortKey(e *Entry) int {
	if !e.SingleRune() {
		return -1
	}
	return int(e.CodePoint())
}
