package sheet

import (
	"context"
	"iter"

	"github.com/montanaflynn/stats"

	"gridview/internal/celltext"
	"gridview/internal/grid"
)

// Column is a view of one column, anchored at the row holding its header.
// Row offsets are relative to that row: offset 0 is the header itself and
// offset 1 the first data row.
type Column struct {
	src       grid.Source
	header    string
	column    int
	headerRow int
}

// Header returns the normalized header text the column was resolved from.
func (c *Column) Header() string { return c.header }

// Position returns the 1-based column.
func (c *Column) Position() int { return c.column }

// HeaderRow returns the 1-based row holding the header.
func (c *Column) HeaderRow() int { return c.headerRow }

// Get reads the cell offset rows below the header row.
func (c *Column) Get(ctx context.Context, offset int) (string, error) {
	return c.src.ReadCell(ctx, c.headerRow+offset, c.column)
}

// Set writes the cell offset rows below the header row and commits at once.
func (c *Column) Set(ctx context.Context, offset int, value string) error {
	if err := c.src.WriteCell(ctx, c.headerRow+offset, c.column, value); err != nil {
		return err
	}
	return c.src.Commit(ctx)
}

// Cells yields the column's cell in every row after the header row. Rows
// shorter than the column yield "". With ignoreTotals, rows with any
// "total" or "subtotal" cell are skipped entirely. Each range re-reads the
// grid; a source error is yielded once and ends the sequence.
func (c *Column) Cells(ctx context.Context, ignoreTotals bool) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rows, err := c.src.ReadAllRows(ctx)
		if err != nil {
			yield("", err)
			return
		}
		for i := c.headerRow; i < len(rows); i++ {
			row := rows[i]
			if ignoreTotals && celltext.IsTotalsRow(row) {
				continue
			}
			value := ""
			if c.column-1 < len(row) {
				value = row[c.column-1]
			}
			if !yield(value, nil) {
				return
			}
		}
	}
}

// Materialize collects Cells into a slice.
func (c *Column) Materialize(ctx context.Context, ignoreTotals bool) ([]string, error) {
	var out []string
	for v, err := range c.Cells(ctx, ignoreTotals) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Values returns every data cell, totals rows included.
func (c *Column) Values(ctx context.Context) ([]string, error) {
	return c.Materialize(ctx, false)
}

// Numbers returns the numeric data cells, totals rows excluded. Cells that
// are not numeric literals are dropped.
func (c *Column) Numbers(ctx context.Context) ([]float64, error) {
	var nums []float64
	for v, err := range c.Cells(ctx, true) {
		if err != nil {
			return nil, err
		}
		if n, ok := celltext.ParseNumber(v); ok {
			nums = append(nums, n)
		}
	}
	return nums, nil
}

// Sum adds the column's numeric cells, ignoring totals rows. A column with
// no numbers sums to 0.
func (c *Column) Sum(ctx context.Context) (float64, error) {
	nums, err := c.Numbers(ctx)
	if err != nil {
		return 0, err
	}
	if len(nums) == 0 {
		return 0, nil
	}
	return stats.Sum(nums)
}

// Average is the mean of the column's numeric cells, ignoring totals rows.
// A column with no numbers averages to 0.
func (c *Column) Average(ctx context.Context) (float64, error) {
	nums, err := c.Numbers(ctx)
	if err != nil {
		return 0, err
	}
	if len(nums) == 0 {
		return 0, nil
	}
	return stats.Mean(nums)
}

// Filter returns the data cells for which keep is true.
func (c *Column) Filter(ctx context.Context, keep func(string) bool) ([]string, error) {
	var out []string
	for v, err := range c.Cells(ctx, false) {
		if err != nil {
			return nil, err
		}
		if keep(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// FindRowByValue returns the first full row, other than the grid's first
// row, whose cell in this column equals value after normalization. The
// column's own header row is not consulted.
func (c *Column) FindRowByValue(ctx context.Context, value string) ([]string, bool, error) {
	rows, err := c.src.ReadAllRows(ctx)
	if err != nil {
		return nil, false, err
	}
	want := celltext.Normalize(value)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		cell := ""
		if c.column-1 < len(row) {
			cell = row[c.column-1]
		}
		if celltext.Normalize(cell) == want {
			return append([]string(nil), row...), true, nil
		}
	}
	return nil, false, nil
}

// Map applies transform to every data cell of c.
func Map[T any](ctx context.Context, c *Column, transform func(string) T) ([]T, error) {
	var out []T
	for v, err := range c.Cells(ctx, false) {
		if err != nil {
			return nil, err
		}
		out = append(out, transform(v))
	}
	return out, nil
}

// Fold combines the data cells of c into an accumulator, starting from initial.
func Fold[A any](ctx context.Context, c *Column, initial A, combine func(A, string) A) (A, error) {
	acc := initial
	for v, err := range c.Cells(ctx, false) {
		if err != nil {
			return initial, err
		}
		acc = combine(acc, v)
	}
	return acc, nil
}
