// Package csvsource is a grid source backed by a CSV file. The file is read
// on Open and on Reload; Commit rewrites it atomically.
package csvsource

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"

	apperrors "gridview/internal/errors"
	"gridview/internal/exporter"
	"gridview/internal/grid"
)

// Source is a CSV-backed grid.Source. Cell reads and writes go to an
// in-memory copy of the file.
type Source struct {
	*grid.Memory
	path   string
	comma  rune
	bom    bool // forced by WithBOM
	hadBOM bool // found on the last load
	logger *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithComma sets the field delimiter. The default is ','.
func WithComma(comma rune) Option {
	return func(s *Source) { s.comma = comma }
}

// WithBOM writes a UTF-8 byte order mark on commit, for Excel. A file that
// already starts with one keeps it without this option.
func WithBOM() Option {
	return func(s *Source) { s.bom = true }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) { s.logger = logger }
}

// Open reads path into a new Source.
func Open(ctx context.Context, path string, opts ...Option) (*Source, error) {
	s := &Source{
		path:   path,
		comma:  ',',
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "csv_source"), slog.String("path", path))

	rows, err := s.load()
	if err != nil {
		return nil, err
	}
	s.Memory = grid.NewMemory(rows)

	s.logger.InfoContext(ctx, "CSV grid loaded", slog.Int("rows", len(rows)))
	return s, nil
}

func (s *Source) load() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewAppError(apperrors.ErrTypeNotFound, "CSV file not found", err).WithContext("path", s.path)
		}
		return nil, apperrors.NewStorageError("failed to open CSV file", err).WithContext("path", s.path)
	}
	defer f.Close()

	body, hadBOM := skipBOM(f)
	r := csv.NewReader(body)
	r.Comma = s.comma
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse CSV file", err).WithContext("path", s.path)
	}
	s.hadBOM = hadBOM
	return rows, nil
}

// Commit rewrites the file atomically from the working grid.
func (s *Source) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows, err := s.Memory.ReadAllRows(ctx)
	if err != nil {
		return err
	}

	if err := exporter.WriteFile(s.path, rows, exporter.WriteOptions{Comma: s.comma, BOMPrefix: s.bom || s.hadBOM}); err != nil {
		return err
	}
	if err := s.Memory.Commit(ctx); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "CSV grid committed", slog.Int("rows", len(rows)))
	return nil
}

// Reload re-reads the file, discarding uncommitted writes.
func (s *Source) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows, err := s.load()
	if err != nil {
		return err
	}
	s.Memory.Replace(rows)
	return nil
}

// Path returns the backing file path.
func (s *Source) Path() string {
	return s.path
}
