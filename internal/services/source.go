package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"gridview/internal/config"
	"gridview/internal/csvsource"
	apperrors "gridview/internal/errors"
	"gridview/internal/grid"
	"gridview/internal/gsheets"
	"gridview/internal/xlsx"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenSource opens the grid source named by cfg.Kind. The closer releases
// any file handles the source holds.
func OpenSource(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (grid.Source, io.Closer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Kind {
	case config.SourceMemory, "":
		return grid.NewMemory(nil), nopCloser{}, nil

	case config.SourceCSV:
		src, err := csvsource.Open(ctx, cfg.Path,
			csvsource.WithComma(cfg.CommaRune()),
			csvsource.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}
		return src, nopCloser{}, nil

	case config.SourceXLSX:
		src, err := xlsx.Open(ctx, cfg.Path, cfg.Sheet, logger)
		if err != nil {
			return nil, nil, err
		}
		return src, src, nil

	case config.SourceSheets:
		var creds []byte
		if cfg.CredentialsFile != "" {
			data, err := os.ReadFile(cfg.CredentialsFile)
			if err != nil {
				return nil, nil, apperrors.NewConfigError("failed to read credentials file", err).
					WithContext("path", cfg.CredentialsFile)
			}
			creds = data
		}
		svc, err := gsheets.NewService(ctx, creds)
		if err != nil {
			return nil, nil, err
		}
		src, err := gsheets.Open(ctx, svc, gsheets.Config{
			SpreadsheetID:     cfg.SpreadsheetID,
			Sheet:             cfg.Sheet,
			ValueInputOption:  cfg.ValueInputOption,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return src, nopCloser{}, nil
	}

	return nil, nil, apperrors.NewConfigError(fmt.Sprintf("unknown source kind %q", cfg.Kind), nil)
}

// Open opens the configured source, instruments it and builds the service.
func Open(ctx context.Context, cfg *config.Config, meter metric.Meter, tracer trace.Tracer, logger *slog.Logger) (*GridService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	regions, err := cfg.Regions()
	if err != nil {
		return nil, apperrors.NewConfigError("invalid merged range", err)
	}

	src, closer, err := OpenSource(ctx, cfg.Source, logger)
	if err != nil {
		return nil, err
	}

	instrumented, err := grid.NewInstrumented(src, cfg.Source.Kind, meter, tracer, logger)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to instrument source: %w", err)
	}

	svc, err := New(ctx, instrumented, Options{
		Regions:      regions,
		SourceMerges: cfg.Source.SourceMerges,
		Closer:       closer,
		Logger:       logger,
	})
	if err != nil {
		closer.Close()
		return nil, err
	}
	return svc, nil
}
