package sheet

import (
	"context"
	"log/slog"
	"sort"

	"gridview/internal/celltext"
	"gridview/internal/grid"
	"gridview/internal/merge"
)

// Index is the header map plus the merged-region registry over one source.
type Index struct {
	src     grid.Source
	merges  *merge.Registry
	headers map[string]int // normalized text -> 0-based column
	logger  *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for index diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// Header is one entry of the header map. Column is 1-based.
type Header struct {
	Name   string `json:"name"`
	Column int    `json:"column"`
}

// New reads the grid once and builds the header map. regions are copied and
// stay fixed for the life of the Index.
func New(ctx context.Context, src grid.Source, regions []merge.Region, opts ...Option) (*Index, error) {
	registry, err := merge.NewRegistry(regions...)
	if err != nil {
		return nil, err
	}

	ix := &Index{
		src:    src,
		merges: registry,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.logger = ix.logger.With(slog.String("component", "sheet_index"))

	rows, err := src.ReadAllRows(ctx)
	if err != nil {
		return nil, err
	}
	ix.headers = buildHeaderMap(rows)

	ix.logger.DebugContext(ctx, "header map built",
		slog.Int("rows", len(rows)),
		slog.Int("headers", len(ix.headers)),
		slog.Int("merged_regions", registry.Len()),
	)
	return ix, nil
}

// buildHeaderMap records every non-blank cell's normalized text against its
// column, scanning rows in order and cells left to right. Later occurrences
// overwrite earlier ones.
func buildHeaderMap(rows [][]string) map[string]int {
	headers := make(map[string]int)
	for _, row := range rows {
		for col, cell := range row {
			if n := celltext.Normalize(cell); n != "" {
				headers[n] = col
			}
		}
	}
	return headers
}

// Source returns the grid source the Index reads from.
func (ix *Index) Source() grid.Source {
	return ix.src
}

// Merges returns the merged-region registry.
func (ix *Index) Merges() *merge.Registry {
	return ix.merges
}

// Headers lists the header map ordered by column, then name.
func (ix *Index) Headers() []Header {
	out := make([]Header, 0, len(ix.headers))
	for name, col := range ix.headers {
		out = append(out, Header{Name: name, Column: col + 1})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Column != out[j].Column {
			return out[i].Column < out[j].Column
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Lookup returns the 1-based column recorded for name, without touching the
// source.
func (ix *Index) Lookup(name string) (int, bool) {
	col, ok := ix.headers[celltext.Normalize(name)]
	if !ok {
		return 0, false
	}
	return col + 1, true
}

// Resolve returns a Column for the header name. The header row is the first
// row whose cell in the header's column normalizes to the same text; it is
// re-derived on every call. ok is false when the name is not in the header
// map or no row carries it in that column.
func (ix *Index) Resolve(ctx context.Context, name string) (*Column, bool, error) {
	key := celltext.Normalize(name)
	col, ok := ix.headers[key]
	if !ok {
		ix.logger.DebugContext(ctx, "header not in map", slog.String("header", key))
		return nil, false, nil
	}

	rows, err := ix.src.ReadAllRows(ctx)
	if err != nil {
		return nil, false, err
	}

	headerRow := 0
	for i, row := range rows {
		if col < len(row) && celltext.Normalize(row[col]) == key {
			headerRow = i + 1
			break
		}
	}
	if headerRow == 0 {
		ix.logger.DebugContext(ctx, "header row not found",
			slog.String("header", key),
			slog.Int("column", col+1),
		)
		return nil, false, nil
	}

	return &Column{
		src:       ix.src,
		header:    key,
		column:    col + 1,
		headerRow: headerRow,
	}, true, nil
}

// Row reads row r cell by cell across every column of the grid.
func (ix *Index) Row(ctx context.Context, r int) ([]string, error) {
	n, err := ix.src.ColumnCount(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for c := 1; c <= n; c++ {
		v, err := ix.src.ReadCell(ctx, r, c)
		if err != nil {
			return nil, err
		}
		out[c-1] = v
	}
	return out, nil
}
