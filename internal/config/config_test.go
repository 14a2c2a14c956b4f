package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "gridview/internal/errors"
	"gridview/internal/merge"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gridview.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, SourceMemory, cfg.Source.Kind)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address())
	assert.Equal(t, ',', cfg.Source.CommaRune())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeYAML(t, `
source:
  kind: csv
  path: data/report.csv
  comma: ";"
  merges:
    - F19:F20
    - E18:F18
logging:
  level: debug
server:
  port: 9000
  read_timeout: 5s
`)
	t.Setenv("GRIDVIEW_SERVER_PORT", "9100")
	t.Setenv("GRIDVIEW_SOURCE_SHEET", "Summary")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, SourceCSV, cfg.Source.Kind)
	assert.Equal(t, "data/report.csv", cfg.Source.Path)
	assert.Equal(t, ';', cfg.Source.CommaRune())
	assert.Equal(t, "Summary", cfg.Source.Sheet)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)

	regions, err := cfg.Regions()
	require.NoError(t, err)
	assert.Equal(t, []merge.Region{
		{StartRow: 19, StartCol: 6, EndRow: 20, EndCol: 6},
		{StartRow: 18, StartCol: 5, EndRow: 18, EndCol: 6},
	}, regions)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("GRIDVIEW_SOURCE_KIND", "sheets")
	t.Setenv("GRIDVIEW_SOURCE_SPREADSHEET_ID", "abc123")
	t.Setenv("GRIDVIEW_SOURCE_SHEET", "Sheet1")
	t.Setenv("GRIDVIEW_SOURCE_MERGES", "A1:B1,C3:C4")
	t.Setenv("GRIDVIEW_SERVER_RATE_LIMIT_ENABLED", "false")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.Source.SpreadsheetID)
	assert.Equal(t, []string{"A1:B1", "C3:C4"}, cfg.Source.Merges)
	assert.False(t, cfg.Server.RateLimit.Enabled)
}

func TestLoadUsesConfigEnvVar(t *testing.T) {
	path := writeYAML(t, "server:\n  port: 7000\n")
	t.Setenv("GRIDVIEW_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown kind", func(c *Config) { c.Source.Kind = "parquet" }},
		{"csv without path", func(c *Config) { c.Source.Kind = SourceCSV }},
		{"xlsx without path", func(c *Config) { c.Source.Kind = SourceXLSX }},
		{"sheets without id", func(c *Config) { c.Source.Kind = SourceSheets; c.Source.Sheet = "Sheet1" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"file output without path", func(c *Config) { c.Logging.Output = "file"; c.Logging.FilePath = "" }},
		{"sample ratio above one", func(c *Config) { c.Telemetry.SampleRatio = 2 }},
		{"bad merge", func(c *Config) { c.Source.Merges = []string{"B2:A1:C"} }},
		{"multi-char comma", func(c *Config) { c.Source.Comma = ";;" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	_, err = LoadFile(writeYAML(t, "server: [\n"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}
