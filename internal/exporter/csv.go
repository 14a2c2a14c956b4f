package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperrors "gridview/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV output.
type WriteOptions struct {
	// Headers, when set, are written as the first record.
	Headers []string
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// BOMPrefix writes a UTF-8 byte order mark first.
	BOMPrefix bool
}

// Write writes records to w as CSV.
func Write(w io.Writer, records [][]string, opts WriteOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if opts.Comma != 0 {
		cw.Comma = opts.Comma
	}
	if len(opts.Headers) > 0 {
		if err := cw.Write(opts.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range records {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes records to a temporary file beside path and renames it
// into place, so readers never see a partial file. An existing file keeps
// its permission bits; a new one gets 0644.
func WriteFile(path string, records [][]string, opts WriteOptions) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return apperrors.NewStorageError("failed to create temporary CSV file", err).WithContext("path", path)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("failed to set CSV file mode", err).WithContext("path", path)
	}
	if err := Write(tmp, records, opts); err != nil {
		tmp.Close()
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %d CSV records", len(records)), err).WithContext("path", path)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError("failed to close temporary CSV file", err).WithContext("path", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.NewStorageError("failed to replace CSV file", err).WithContext("path", path)
	}
	return nil
}

// Table lays named columns side by side. Shorter columns are padded with
// empty cells.
func Table(columns [][]string) [][]string {
	height := 0
	for _, col := range columns {
		height = max(height, len(col))
	}

	rows := make([][]string, height)
	for i := range rows {
		row := make([]string, len(columns))
		for j, col := range columns {
			if i < len(col) {
				row[j] = col[i]
			}
		}
		rows[i] = row
	}
	return rows
}
