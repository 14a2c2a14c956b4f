package http

import (
	"context"

	"gridview/internal/sheet"
)

// GridServiceInterface is the service surface the handlers use.
type GridServiceInterface interface {
	Headers() []sheet.Header
	Cells(ctx context.Context) ([]sheet.Cell, error)
	Row(ctx context.Context, r int) ([]string, error)
	Values(ctx context.Context, header string, ignoreTotals bool) ([]string, error)
	Sum(ctx context.Context, header string) (float64, error)
	Average(ctx context.Context, header string) (float64, error)
	Get(ctx context.Context, header string, offset int) (string, error)
	Set(ctx context.Context, header string, offset int, value string) error
	FindRow(ctx context.Context, header, value string) ([]string, error)
	Export(ctx context.Context, headers []string, ignoreTotals bool) ([][]string, error)
	Reload(ctx context.Context) error
}
