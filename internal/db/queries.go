package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/seqdex/internal/errors"
	"github.com/hpungsan/seqdex/internal/sequence"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so every query can run
// inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Category is a stored category row. RangeStart and RangeEnd are -1 when
// the category has no code point range.
type Category struct {
	ID         string
	Name       string
	NameNorm   string
	RangeStart int
	RangeEnd   int
	CreatedAt  int64
}

// Sequence is a stored compose sequence row.
type Sequence struct {
	ID          string
	CategoryID  string
	Result      string
	Description string
	Keys        sequence.KeySequence
	CreatedAt   int64
}

// Record returns the fields an entry is built from.
func (s *Sequence) Record() sequence.Record {
	return sequence.Record{
		ID:          s.ID,
		Result:      s.Result,
		Description: s.Description,
		Keys:        s.Keys,
	}
}

const sequenceColumns = `id, category_id, result, description, keys, created_at`

const categoryColumns = `id, name, name_norm, range_start, range_end, created_at`

// InsertCategory stores a new category. A name that normalizes to an
// existing category's name fails with ALREADY_EXISTS.
func InsertCategory(ctx context.Context, q Querier, c *Category) error {
	if c.NameNorm == "" {
		c.NameNorm = sequence.NormalizeName(c.Name)
	}

	query := `INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, query,
		c.ID, c.Name, c.NameNorm, toNullInt(c.RangeStart), toNullInt(c.RangeEnd), c.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewAlreadyExists("category", c.Name)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetCategory retrieves a category by ID.
func GetCategory(ctx context.Context, q Querier, id string) (*Category, error) {
	row := q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("category", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// GetCategoryByName retrieves a category by name, compared after
// normalization.
func GetCategoryByName(ctx context.Context, q Querier, name string) (*Category, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name_norm = ?`,
		sequence.NormalizeName(name),
	)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("category", name)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// ListCategories returns all categories in creation order.
func ListCategories(ctx context.Context, q Querier) ([]*Category, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// CountByCategory returns the number of stored sequences per category ID.
// Categories without sequences are absent from the map.
func CountByCategory(ctx context.Context, q Querier) (map[string]int, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT category_id, COUNT(*) FROM sequences GROUP BY category_id`,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, errors.NewInternal(err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return counts, nil
}

// InsertSequence stores a new sequence. An existing ID fails with
// ALREADY_EXISTS; an unknown category fails with NOT_FOUND.
func InsertSequence(ctx context.Context, q Querier, s *Sequence) error {
	query := `INSERT INTO sequences (` + sequenceColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, query,
		s.ID, s.CategoryID, s.Result, s.Description, s.Keys.String(), s.CreatedAt,
	)
	if err != nil {
		return sequenceWriteError(err, s)
	}
	return nil
}

// UpsertSequence stores s, overwriting any sequence with the same ID.
func UpsertSequence(ctx context.Context, q Querier, s *Sequence) error {
	query := `
		INSERT INTO sequences (` + sequenceColumns + `) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			result      = excluded.result,
			description = excluded.description,
			keys        = excluded.keys,
			created_at  = excluded.created_at
	`
	_, err := q.ExecContext(ctx, query,
		s.ID, s.CategoryID, s.Result, s.Description, s.Keys.String(), s.CreatedAt,
	)
	if err != nil {
		return sequenceWriteError(err, s)
	}
	return nil
}

func sequenceWriteError(err error, s *Sequence) error {
	switch {
	case isUniqueConstraintError(err):
		return errors.NewAlreadyExists("sequence", s.ID)
	case isForeignKeyError(err):
		return errors.NewNotFound("category", s.CategoryID)
	default:
		return errors.NewInternal(err)
	}
}

// GetSequence retrieves a sequence by ID.
func GetSequence(ctx context.Context, q Querier, id string) (*Sequence, error) {
	row := q.QueryRowContext(ctx, `SELECT `+sequenceColumns+` FROM sequences WHERE id = ?`, id)
	s, err := scanSequence(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("sequence", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return s, nil
}

// DeleteSequence removes a sequence. Its category keeps its non-empty state.
func DeleteSequence(ctx context.Context, q Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM sequences WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("sequence", id)
	}
	return nil
}

// ListSequences returns sequences in creation order, restricted to one
// category when categoryID is non-empty.
func ListSequences(ctx context.Context, q Querier, categoryID string) ([]*Sequence, error) {
	rows, err := StreamForExport(ctx, q, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Sequence
	for rows.Next() {
		s, err := scanSequence(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// CountSequences returns the total number of stored sequences.
func CountSequences(ctx context.Context, q Querier) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM sequences`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// StreamForExport returns a cursor over sequences in creation order,
// restricted to one category when categoryID is non-empty. The caller must
// close the rows and read them with ScanSequenceRow.
func StreamForExport(ctx context.Context, q Querier, categoryID string) (*sql.Rows, error) {
	query := `SELECT ` + sequenceColumns + ` FROM sequences`
	var args []any
	if categoryID != "" {
		query += ` WHERE category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// ScanSequenceRow scans the current row of a StreamForExport cursor.
func ScanSequenceRow(rows *sql.Rows) (*Sequence, error) {
	return scanSequence(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(row scanner) (*Category, error) {
	var (
		c          Category
		rangeStart sql.NullInt64
		rangeEnd   sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.Name, &c.NameNorm, &rangeStart, &rangeEnd, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.RangeStart = fromNullInt(rangeStart)
	c.RangeEnd = fromNullInt(rangeEnd)
	return &c, nil
}

func scanSequence(row scanner) (*Sequence, error) {
	var (
		s    Sequence
		keys string
	)
	err := row.Scan(&s.ID, &s.CategoryID, &s.Result, &s.Description, &keys, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Keys = sequence.ParseKeySequence(keys)
	return &s, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE or
// PRIMARY KEY constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// toNullInt stores negative values (no range) as NULL.
func toNullInt(v int) sql.NullInt64 {
	if v < 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

func fromNullInt(n sql.NullInt64) int {
	if !n.Valid {
		return -1
	}
	return int(n.Int64)
}
