// Package xlsx is a grid source over one worksheet of an Excel workbook,
// read and written with excelize. Merged regions come from the sheet's
// own merge list.
package xlsx

import (
	"context"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"gridview/internal/celltext"
	apperrors "gridview/internal/errors"
	"gridview/internal/grid"
	"gridview/internal/merge"
)

// Source is a grid.Source over a single worksheet. Writes stay in the
// in-memory workbook until Commit saves it.
type Source struct {
	file   *excelize.File
	path   string
	sheet  string
	logger *slog.Logger
}

// Open opens the workbook at path. An empty sheet selects the active sheet.
func Open(ctx context.Context, path, sheet string, logger *slog.Logger) (*Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("path", path)
	}
	s, err := New(f, path, sheet, logger)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.logger.InfoContext(ctx, "workbook opened")
	return s, nil
}

// New wraps an already open workbook. Commit saves to path.
func New(f *excelize.File, path, sheet string, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError("invalid sheet name", err).WithContext("sheet", sheet)
	}
	if idx == -1 {
		return nil, apperrors.NewNotFoundError("sheet " + sheet).WithContext("path", path)
	}

	return &Source{
		file:  f,
		path:  path,
		sheet: sheet,
		logger: logger.With(
			slog.String("component", "xlsx_source"),
			slog.String("path", path),
			slog.String("sheet", sheet),
		),
	}, nil
}

// Sheet returns the worksheet name.
func (s *Source) Sheet() string {
	return s.sheet
}

func (s *Source) ReadAllRows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.file.GetRows(s.sheet)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read rows", err).WithContext("sheet", s.sheet)
	}
	return rows, nil
}

func (s *Source) ReadCell(ctx context.Context, row, col int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := cellName(row, col)
	if err != nil {
		return "", err
	}
	v, err := s.file.GetCellValue(s.sheet, name)
	if err != nil {
		return "", apperrors.NewStorageError("failed to read cell", err).WithContext("cell", name)
	}
	return v, nil
}

// WriteCell stores numeric literals as numbers and everything else as text.
func (s *Source) WriteCell(ctx context.Context, row, col int, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := cellName(row, col)
	if err != nil {
		return err
	}

	var cellValue interface{} = value
	if n, ok := celltext.ParseNumber(value); ok {
		cellValue = n
	}
	if err := s.file.SetCellValue(s.sheet, name, cellValue); err != nil {
		return apperrors.NewStorageError("failed to write cell", err).WithContext("cell", name)
	}
	return nil
}

// Commit saves the workbook to its path.
func (s *Source) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.file.SaveAs(s.path); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).WithContext("path", s.path)
	}
	s.logger.DebugContext(ctx, "workbook saved")
	return nil
}

func (s *Source) RowCount(ctx context.Context) (int, error) {
	rows, err := s.ReadAllRows(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *Source) ColumnCount(ctx context.Context) (int, error) {
	rows, err := s.ReadAllRows(ctx)
	if err != nil {
		return 0, err
	}
	return grid.Width(rows), nil
}

// MergedRegions returns the worksheet's merged ranges.
func (s *Source) MergedRegions(ctx context.Context) ([]merge.Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cells, err := s.file.GetMergeCells(s.sheet)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read merged cells", err).WithContext("sheet", s.sheet)
	}

	regions := make([]merge.Region, 0, len(cells))
	for _, mc := range cells {
		r, err := merge.ParseRange(mc.GetStartAxis() + ":" + mc.GetEndAxis())
		if err != nil {
			return nil, apperrors.NewParsingError("invalid merged range", err).WithContext("sheet", s.sheet)
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// Reload reopens the workbook from disk, discarding unsaved writes.
func (s *Source) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return apperrors.NewStorageError("failed to reopen workbook", err).WithContext("path", s.path)
	}
	old := s.file
	s.file = f
	if err := old.Close(); err != nil {
		s.logger.WarnContext(ctx, "failed to close previous workbook", slog.String("error", err.Error()))
	}
	return nil
}

// Close releases the workbook.
func (s *Source) Close() error {
	return s.file.Close()
}

func cellName(row, col int) (string, error) {
	if err := grid.CheckPosition(row, col); err != nil {
		return "", err
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", apperrors.NewAppValidationError(err.Error())
	}
	return name, nil
}
