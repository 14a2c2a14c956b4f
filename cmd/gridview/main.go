// Command gridview queries and edits a header-indexed grid held in a CSV
// file, an Excel workbook or a Google Sheets tab, or serves it over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"gridview/internal/app"
	"gridview/internal/config"
	"gridview/internal/exporter"
	"gridview/internal/infrastructure"
	"gridview/internal/services"
)

const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitNotFound = 3
)

const usage = `usage: gridview <command> [flags] [args]

commands:
  headers                       list the header map
  cells                         list every visible non-blank cell
  column <header>               list a column's data cells (-ignore-totals)
  sum <header>                  sum a column's numeric cells
  avg <header>                  average a column's numeric cells
  get <header> <offset>         read the cell offset rows below the header
  set <header> <offset> <value> write and commit that cell
  find <header> <value>         print the first row whose cell matches value
  row <n>                       print physical row n
  export <header>...            write columns as CSV (-out, -bom, -ignore-totals)
  serve                         serve the HTTP API
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type commonFlags struct {
	configFile   string
	source       string
	path         string
	sheet        string
	spreadsheet  string
	merge        string
	ignoreTotals bool
	out          string
	bom          bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	command := args[0]

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var f commonFlags
	fs.StringVar(&f.configFile, "config", "", "config file (default $GRIDVIEW_CONFIG or gridview.yaml)")
	fs.StringVar(&f.source, "source", "", "source kind: memory | csv | xlsx | sheets")
	fs.StringVar(&f.path, "path", "", "CSV or workbook path")
	fs.StringVar(&f.sheet, "sheet", "", "worksheet or tab name")
	fs.StringVar(&f.spreadsheet, "spreadsheet", "", "Google Sheets spreadsheet ID")
	fs.StringVar(&f.merge, "merge", "", "comma-separated merged ranges, e.g. F19:F20,E18:F18")
	fs.BoolVar(&f.ignoreTotals, "ignore-totals", false, "skip totals rows (column, export)")
	fs.StringVar(&f.out, "out", "", "export destination file (default stdout)")
	fs.BoolVar(&f.bom, "bom", false, "prefix exported CSV with a UTF-8 byte order mark")
	if err := fs.Parse(args[1:]); err != nil {
		return exitUsage
	}

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(stderr, "gridview: %v\n", err)
		return exitError
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "gridview: failed to initialize logger: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if command == "serve" {
		return serve(ctx, cfg, logger, stderr)
	}

	svc, err := services.Open(ctx, cfg, nil, nil, logger)
	if err != nil {
		fmt.Fprintf(stderr, "gridview: %v\n", err)
		return exitError
	}
	defer svc.Close()

	out, err := dispatch(ctx, svc, command, fs.Args(), f, stdout)
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "gridview: %v\n\n%s", err, usage)
		return exitUsage
	case errors.Is(err, services.ErrHeaderNotFound), errors.Is(err, services.ErrRowNotFound):
		fmt.Fprintf(stderr, "gridview: %v\n", err)
		return exitNotFound
	case err != nil:
		fmt.Fprintf(stderr, "gridview: %v\n", err)
		return exitError
	}

	if out != nil {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(stderr, "gridview: %v\n", err)
			return exitError
		}
	}
	return exitOK
}

func loadConfig(f commonFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configFile != "" {
		cfg, err = config.LoadFile(f.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if f.source != "" {
		cfg.Source.Kind = f.source
	}
	if f.path != "" {
		cfg.Source.Path = f.path
	}
	if f.sheet != "" {
		cfg.Source.Sheet = f.sheet
	}
	if f.spreadsheet != "" {
		cfg.Source.SpreadsheetID = f.spreadsheet
	}
	if f.merge != "" {
		cfg.Source.Merges = append(cfg.Source.Merges, strings.Split(f.merge, ",")...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func dispatch(ctx context.Context, svc *services.GridService, command string, args []string, f commonFlags, stdout io.Writer) (any, error) {
	need := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%w: %s takes %d argument(s), got %d", errUsage, command, n, len(args))
		}
		return nil
	}

	switch command {
	case "headers":
		if err := need(0); err != nil {
			return nil, err
		}
		return svc.Headers(), nil

	case "cells":
		if err := need(0); err != nil {
			return nil, err
		}
		return svc.Cells(ctx)

	case "column":
		if err := need(1); err != nil {
			return nil, err
		}
		return svc.Values(ctx, args[0], f.ignoreTotals)

	case "sum", "avg":
		if err := need(1); err != nil {
			return nil, err
		}
		if command == "sum" {
			return svc.Sum(ctx, args[0])
		}
		return svc.Average(ctx, args[0])

	case "get":
		if err := need(2); err != nil {
			return nil, err
		}
		offset, err := parseInt("offset", args[1])
		if err != nil {
			return nil, err
		}
		return svc.Get(ctx, args[0], offset)

	case "set":
		if err := need(3); err != nil {
			return nil, err
		}
		offset, err := parseInt("offset", args[1])
		if err != nil {
			return nil, err
		}
		return nil, svc.Set(ctx, args[0], offset, args[2])

	case "find":
		if err := need(2); err != nil {
			return nil, err
		}
		return svc.FindRow(ctx, args[0], args[1])

	case "row":
		if err := need(1); err != nil {
			return nil, err
		}
		n, err := parseInt("row", args[0])
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("%w: row must be at least 1", errUsage)
		}
		return svc.Row(ctx, n)

	case "export":
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: export takes at least one header", errUsage)
		}
		table, err := svc.Export(ctx, args, f.ignoreTotals)
		if err != nil {
			return nil, err
		}
		opts := exporter.WriteOptions{Headers: args, BOMPrefix: f.bom}
		if f.out != "" {
			return nil, exporter.WriteFile(f.out, table, opts)
		}
		return nil, exporter.Write(stdout, table, opts)
	}

	return nil, fmt.Errorf("%w: unknown command %q", errUsage, command)
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", errUsage, name, s)
	}
	return n, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer) int {
	application, err := app.NewApplication(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "gridview: %v\n", err)
		return exitError
	}
	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "gridview: %v\n", err)
		return exitError
	}
	return exitOK
}
