// Package sheet is a header-indexed, merge-aware view over a grid source.
//
// An Index is built once from a grid.Source and a fixed list of merged
// regions. It maps normalized header text to a column, resolves header
// names to Column accessors, and walks the grid cell by cell, skipping
// blank rows, blank cells and the hidden cells of merged regions.
//
// Building an Index reads the grid once to collect headers; nothing else
// is cached. Every other read goes to the source, so a Column always sees
// the current cell values. Structural edits to the header layout after
// construction are not detected: rebuild the Index to pick them up.
//
// The header map is collected from every row, not a single header row.
// When the same normalized text appears more than once, the last
// occurrence in row-major order wins.
//
// Lookup misses (unknown header, header row not found, value not found)
// are reported as ok == false. Errors returned by the source are passed
// back unchanged.
//
// An Index is not safe for concurrent use.
//
// Example:
//
//	idx, err := sheet.New(ctx, src, regions)
//	if err != nil {
//	    return err
//	}
//	score, ok, err := idx.Resolve(ctx, "Score")
//	if err != nil || !ok {
//	    return err
//	}
//	total, err := score.Sum(ctx)
package sheet
