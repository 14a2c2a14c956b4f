package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"gridview/internal/exporter"
	"gridview/internal/grid"
	"gridview/internal/merge"
	"gridview/internal/sheet"
)

var (
	// ErrHeaderNotFound is returned when a header name resolves to nothing.
	ErrHeaderNotFound = errors.New("header not found")
	// ErrRowNotFound is returned when no row holds the searched value.
	ErrRowNotFound = errors.New("row not found")
)

// Options configures a GridService.
type Options struct {
	// Regions are the configured merged regions.
	Regions []merge.Region
	// SourceMerges appends the regions the source reports itself.
	SourceMerges bool
	Closer       io.Closer
	Logger       *slog.Logger
}

// GridService owns one grid source and the Index over it. The Index is not
// safe for concurrent use, so every call holds mu.
type GridService struct {
	mu           sync.Mutex
	src          grid.Source
	index        *sheet.Index
	regions      []merge.Region
	sourceMerges bool
	closer       io.Closer
	logger       *slog.Logger
}

// New builds the Index over src.
func New(ctx context.Context, src grid.Source, opts Options) (*GridService, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	closer := opts.Closer
	if closer == nil {
		closer = nopCloser{}
	}

	s := &GridService{
		src:          src,
		regions:      append([]merge.Region(nil), opts.Regions...),
		sourceMerges: opts.SourceMerges,
		closer:       closer,
		logger:       logger.With(slog.String("component", "grid_service")),
	}
	if err := s.rebuildLocked(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *GridService) rebuildLocked(ctx context.Context) error {
	regions := append([]merge.Region(nil), s.regions...)
	if s.sourceMerges {
		if mp, ok := s.src.(grid.MergeProvider); ok {
			found, err := mp.MergedRegions(ctx)
			if err != nil {
				return err
			}
			regions = append(regions, found...)
		}
	}

	ix, err := sheet.New(ctx, s.src, regions, sheet.WithLogger(s.logger))
	if err != nil {
		return err
	}
	s.index = ix
	s.logger.InfoContext(ctx, "index built",
		slog.Int("headers", len(ix.Headers())),
		slog.Int("merged_regions", ix.Merges().Len()))
	return nil
}

// Rebuild re-reads the grid and rebuilds the header map, picking up
// structural changes made since the last build.
func (s *GridService) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked(ctx)
}

// Reload re-reads the backing store, dropping uncommitted writes, then
// rebuilds the Index.
func (s *GridService) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.src.(grid.Reloader); ok {
		if err := r.Reload(ctx); err != nil {
			return err
		}
	}
	return s.rebuildLocked(ctx)
}

// Close releases the source.
func (s *GridService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closer.Close()
}

// Headers lists the header map in column order.
func (s *GridService) Headers() []sheet.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Headers()
}

// Cells returns every visible non-blank cell.
func (s *GridService) Cells(ctx context.Context) ([]sheet.Cell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.CollectCells(ctx)
}

// Row returns the full physical row r.
func (s *GridService) Row(ctx context.Context, r int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Row(ctx, r)
}

// Values returns the cells below the header, optionally without totals rows.
func (s *GridService) Values(ctx context.Context, header string, ignoreTotals bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.resolveLocked(ctx, header)
	if err != nil {
		return nil, err
	}
	return col.Materialize(ctx, ignoreTotals)
}

// Sum adds the numeric cells of a column.
func (s *GridService) Sum(ctx context.Context, header string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.resolveLocked(ctx, header)
	if err != nil {
		return 0, err
	}
	return col.Sum(ctx)
}

// Average is the mean of the numeric cells of a column.
func (s *GridService) Average(ctx context.Context, header string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.resolveLocked(ctx, header)
	if err != nil {
		return 0, err
	}
	return col.Average(ctx)
}

// Get reads the cell offset rows below the header.
func (s *GridService) Get(ctx context.Context, header string, offset int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.resolveLocked(ctx, header)
	if err != nil {
		return "", err
	}
	return col.Get(ctx, offset)
}

// Set writes and commits the cell offset rows below the header.
func (s *GridService) Set(ctx context.Context, header string, offset int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.resolveLocked(ctx, header)
	if err != nil {
		return err
	}
	if err := col.Set(ctx, offset, value); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "cell updated",
		slog.String("header", header),
		slog.Int("row", col.HeaderRow()+offset),
		slog.Int("column", col.Position()))
	return nil
}

// FindRow returns the first data row whose cell in the header's column
// matches value.
func (s *GridService) FindRow(ctx context.Context, header, value string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.resolveLocked(ctx, header)
	if err != nil {
		return nil, err
	}
	row, ok, err := col.FindRowByValue(ctx, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q in column %q", ErrRowNotFound, value, header)
	}
	return row, nil
}

// Export materializes several columns side by side, one table row per
// data row. Columns of different lengths are padded with empty cells. All
// headers are resolved before any column is read.
func (s *GridService) Export(ctx context.Context, headers []string, ignoreTotals bool) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bound, err := s.index.Bind(ctx, headers...)
	if errors.Is(err, sheet.ErrInvalidBinding) {
		return nil, fmt.Errorf("%w: %w", ErrHeaderNotFound, err)
	}
	if err != nil {
		return nil, err
	}

	columns := make([][]string, 0, len(headers))
	for _, header := range headers {
		values, err := bound[header].Materialize(ctx, ignoreTotals)
		if err != nil {
			return nil, err
		}
		columns = append(columns, values)
	}
	return exporter.Table(columns), nil
}

func (s *GridService) resolveLocked(ctx context.Context, header string) (*sheet.Column, error) {
	col, ok, err := s.index.Resolve(ctx, header)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrHeaderNotFound, header)
	}
	return col, nil
}
