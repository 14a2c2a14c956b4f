// Package gsheets is a grid source over one tab of a Google Sheets
// spreadsheet. The tab is fetched once into a local cell cache; writes are
// batched and sent on Commit.
package gsheets

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "gridview/internal/errors"
	"gridview/internal/grid"
	"gridview/internal/merge"
)

// Value input options accepted by the Sheets API.
const (
	InputRaw         = "RAW"
	InputUserEntered = "USER_ENTERED"
)

// Config selects the spreadsheet tab and tunes API usage.
type Config struct {
	SpreadsheetID     string
	Sheet             string
	ValueInputOption  string
	RequestsPerSecond float64
	Burst             int
}

type cellKey struct {
	row, col int
}

// Source is a Sheets-backed grid.Source.
type Source struct {
	*grid.Memory
	svc     *sheets.Service
	cfg     Config
	limiter *rate.Limiter
	pending map[cellKey]string
	logger  *slog.Logger
}

// NewService builds a Sheets client from service account credentials.
func NewService(ctx context.Context, credentialsJSON []byte, opts ...option.ClientOption) (*sheets.Service, error) {
	if len(credentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create Sheets service", err)
	}
	return svc, nil
}

// Open fetches the configured tab and returns a Source over it.
func Open(ctx context.Context, svc *sheets.Service, cfg Config, logger *slog.Logger) (*Source, error) {
	if cfg.SpreadsheetID == "" {
		return nil, apperrors.NewConfigError("spreadsheet ID is required", nil)
	}
	if cfg.Sheet == "" {
		return nil, apperrors.NewConfigError("sheet name is required", nil)
	}
	if cfg.ValueInputOption == "" {
		cfg.ValueInputOption = InputRaw
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	s := &Source{
		svc:     svc,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		pending: make(map[cellKey]string),
		logger: logger.With(
			slog.String("component", "sheets_source"),
			slog.String("spreadsheet_id", cfg.SpreadsheetID),
			slog.String("sheet", cfg.Sheet),
		),
	}

	rows, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.Memory = grid.NewMemory(rows)

	s.logger.InfoContext(ctx, "sheet fetched", slog.Int("rows", len(rows)))
	return s, nil
}

func (s *Source) fetch(ctx context.Context) ([][]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, quoteSheet(s.cfg.Sheet)).Context(ctx).Do()
	if err != nil {
		return nil, s.apiError("failed to fetch sheet values", err)
	}
	return toText(resp.Values), nil
}

// WriteCell updates the cache and queues the cell for the next Commit.
func (s *Source) WriteCell(ctx context.Context, row, col int, value string) error {
	if err := s.Memory.WriteCell(ctx, row, col, value); err != nil {
		return err
	}
	s.pending[cellKey{row, col}] = value
	return nil
}

// Commit sends every queued cell in one batch update.
func (s *Source) Commit(ctx context.Context) error {
	if len(s.pending) == 0 {
		return s.Memory.Commit(ctx)
	}

	keys := make([]cellKey, 0, len(s.pending))
	for k := range s.pending {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b cellKey) int {
		if c := cmp.Compare(a.row, b.row); c != 0 {
			return c
		}
		return cmp.Compare(a.col, b.col)
	})

	data := make([]*sheets.ValueRange, 0, len(keys))
	for _, k := range keys {
		name, err := excelize.CoordinatesToCellName(k.col, k.row)
		if err != nil {
			return apperrors.NewAppValidationError(err.Error())
		}
		data = append(data, &sheets.ValueRange{
			Range:  quoteSheet(s.cfg.Sheet) + "!" + name,
			Values: [][]interface{}{{s.pending[k]}},
		})
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: s.cfg.ValueInputOption,
		Data:             data,
	}
	if _, err := s.svc.Spreadsheets.Values.BatchUpdate(s.cfg.SpreadsheetID, req).Context(ctx).Do(); err != nil {
		return s.apiError("failed to update sheet values", err)
	}

	s.logger.DebugContext(ctx, "sheet updated", slog.Int("cells", len(keys)))
	clear(s.pending)
	return s.Memory.Commit(ctx)
}

// Reload refetches the tab, discarding queued writes.
func (s *Source) Reload(ctx context.Context) error {
	rows, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	s.Memory.Replace(rows)
	clear(s.pending)
	return nil
}

// MergedRegions returns the tab's merges. The API reports them as 0-based
// half-open ranges.
func (s *Source) MergedRegions(ctx context.Context) ([]merge.Region, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := s.svc.Spreadsheets.Get(s.cfg.SpreadsheetID).
		Ranges(quoteSheet(s.cfg.Sheet)).
		Fields("sheets(properties(title),merges)").
		Context(ctx).Do()
	if err != nil {
		return nil, s.apiError("failed to fetch merged regions", err)
	}

	var regions []merge.Region
	for _, sh := range resp.Sheets {
		if sh.Properties != nil && sh.Properties.Title != s.cfg.Sheet {
			continue
		}
		for _, m := range sh.Merges {
			r := merge.Region{
				StartRow: int(m.StartRowIndex) + 1,
				StartCol: int(m.StartColumnIndex) + 1,
				EndRow:   int(m.EndRowIndex),
				EndCol:   int(m.EndColumnIndex),
			}
			if err := r.Validate(); err != nil {
				return nil, apperrors.NewParsingError("invalid merged range", err).WithContext("sheet", s.cfg.Sheet)
			}
			regions = append(regions, r)
		}
	}
	return regions, nil
}

// PendingCells returns the number of queued cell writes.
func (s *Source) PendingCells() int {
	return len(s.pending)
}

func (s *Source) apiError(msg string, err error) error {
	var gerr *googleapi.Error
	if apperrors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return apperrors.NewAppError(apperrors.ErrTypeNotFound, msg, err).
			WithContext("spreadsheet_id", s.cfg.SpreadsheetID)
	}
	return apperrors.NewNetworkError(msg, err).WithContext("spreadsheet_id", s.cfg.SpreadsheetID)
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toText(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		rows[i] = cells
	}
	return rows
}
