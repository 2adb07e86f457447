package ops

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/seqdex/internal/sequence"
)

// Pagination limits
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 500
	MaxQueryLength     = 256
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// SequenceItem is the caller-facing view of one entry.
type SequenceItem struct {
	ID                   string `json:"id"`
	Result               string `json:"result"`
	CodePoint            string `json:"code_point"`
	SingleRune           bool   `json:"single_rune"`
	Description          string `json:"description"`
	Keys                 string `json:"keys"`
	FriendlyKeys         string `json:"friendly_keys"`
	GeneralCategory      string `json:"general_category"`
	GeneralCategoryLabel string `json:"general_category_label"`
	CategoryID           string `json:"category_id"`
	Category             string `json:"category"`
}

func itemFromEntry(e *sequence.Entry, cat *sequence.Category) SequenceItem {
	gc := e.GeneralCategory()
	item := SequenceItem{
		ID:                   e.ID(),
		Result:               e.Result(),
		CodePoint:            FormatCodePoint(e.CodePoint()),
		SingleRune:           e.SingleRune(),
		Description:          e.Description(),
		Keys:                 e.Keys().String(),
		FriendlyKeys:         e.Keys().FriendlyName(),
		GeneralCategory:      gc.String(),
		GeneralCategoryLabel: gc.Label(),
		CategoryID:           string(e.CategoryID()),
	}
	if cat != nil {
		item.Category = cat.Name()
	}
	return item
}

// FormatCodePoint renders r as U+XXXX (at least four hex digits).
func FormatCodePoint(r rune) string {
	return fmt.Sprintf("U+%04X", r)
}

// clampLimit applies the default and maximum to a requested page size.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return limit
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
