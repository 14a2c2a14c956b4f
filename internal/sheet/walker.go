package sheet

import (
	"context"
	"iter"

	"gridview/internal/celltext"
)

// Cell is one visible, non-blank grid cell. Row and Column are 1-based.
type Cell struct {
	Value  string `json:"value"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
}

// Cells walks the grid in row-major order. Blank rows and blank cells are
// skipped, as is every cell hidden inside a merged region; a region's
// anchor is yielded unless another region covers it. Values are the raw
// cell text. Each range re-reads the grid; a source error is yielded once
// and ends the sequence.
func (ix *Index) Cells(ctx context.Context) iter.Seq2[Cell, error] {
	return func(yield func(Cell, error) bool) {
		rows, err := ix.src.ReadAllRows(ctx)
		if err != nil {
			yield(Cell{}, err)
			return
		}
		for r, row := range rows {
			if celltext.IsBlankRow(row) {
				continue
			}
			for c, value := range row {
				if celltext.IsBlank(value) {
					continue
				}
				if ix.merges.IsCovered(r+1, c+1) && !ix.merges.IsAnchor(r+1, c+1) {
					continue
				}
				if !yield(Cell{Value: value, Row: r + 1, Column: c + 1}, nil) {
					return
				}
			}
		}
	}
}

// ForEach calls fn for every cell Cells yields, stopping at the first error
// from the source or from fn.
func (ix *Index) ForEach(ctx context.Context, fn func(Cell) error) error {
	for cell, err := range ix.Cells(ctx) {
		if err != nil {
			return err
		}
		if err := fn(cell); err != nil {
			return err
		}
	}
	return nil
}

// CollectCells gathers every cell Cells yields.
func (ix *Index) CollectCells(ctx context.Context) ([]Cell, error) {
	var out []Cell
	err := ix.ForEach(ctx, func(c Cell) error {
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
