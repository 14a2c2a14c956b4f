// Package grid defines the capability set every backing store of a
// tabular grid must offer, plus the in-memory store and the tracing
// decorator that the concrete stores share.
//
// Rows and columns are 1-based throughout. Cell values are text; a store
// is free to serialize other types to text on read.
package grid

import (
	"context"
	"errors"
	"fmt"

	"gridview/internal/merge"
)

// ErrOutOfRange is returned for a row or column below 1.
var ErrOutOfRange = errors.New("cell position out of range")

// Source is the grid source capability set. Reads past the populated area
// return empty text, not an error. Writes are pending until Commit.
type Source interface {
	// ReadAllRows returns every row as cell text. Rows may differ in length.
	ReadAllRows(ctx context.Context) ([][]string, error)
	ReadCell(ctx context.Context, row, col int) (string, error)
	WriteCell(ctx context.Context, row, col int, value string) error
	// Commit persists all pending writes.
	Commit(ctx context.Context) error
	RowCount(ctx context.Context) (int, error)
	ColumnCount(ctx context.Context) (int, error)
}

// MergeProvider is implemented by sources that know their own merged regions.
type MergeProvider interface {
	MergedRegions(ctx context.Context) ([]merge.Region, error)
}

// Reloader is implemented by sources that cache the backing store and can
// re-read it, discarding uncommitted writes.
type Reloader interface {
	Reload(ctx context.Context) error
}

// CheckPosition returns ErrOutOfRange when row or col is below 1.
func CheckPosition(row, col int) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("%w: row %d, column %d", ErrOutOfRange, row, col)
	}
	return nil
}

// Width returns the length of the widest row.
func Width(rows [][]string) int {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// CloneRows deep-copies rows so callers cannot alias store state.
func CloneRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
