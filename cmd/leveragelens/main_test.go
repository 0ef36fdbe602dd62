package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeverageLens/internal/collector"
	"LeverageLens/internal/config"
	"LeverageLens/internal/model"
)

func writeConfig(t *testing.T, dir string) string {
	t.Setenv("LENS_PROVIDER", "")
	t.Setenv("SQLITE_PATH", "")
	path := filepath.Join(dir, "config.yaml")
	body := "pair:\n  base: 0050.TW\n  leveraged: 00631L.TW\n" +
		"data_source:\n  provider: mock\n" +
		"database:\n  sqlite_path: " + filepath.Join(dir, "lens.db") + "\n" +
		"log:\n  level: warn\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"leveragelens"}, args...))
	return out.String(), err
}

func TestAnalyzeAndHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	out, err := run(t, "-c", cfg, "analyze",
		"--variant", "crossing", "--start", "2022-01-01", "--end", "2023-06-30",
		"--align", "1w", "--export", filepath.Join(dir, "rows"), "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "0050.TW vs 00631L.TW")
	assert.Contains(t, out, "SMA crossings (±7 days, consistent)")
	assert.Contains(t, out, "2022-01-03 ~ 2023-06-30")

	info, err := os.Stat(filepath.Join(dir, "rows.json"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	out, err = run(t, "-c", cfg, "history", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "TRIGGER")
	assert.Contains(t, out, "CLI")
	assert.Contains(t, out, "crossing")
}

func TestAnalyze_InvalidFlags(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())

	_, err := run(t, "-c", cfg, "analyze", "--window", "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidRequest))

	_, err = run(t, "-c", cfg, "analyze", "--export", "out.xlsx", "--format", "xlsx", "--variant", "prices")
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestNewFetcher(t *testing.T) {
	cfg := &config.Config{}
	cfg.Pair.Leveraged = "00631L.TW"

	cfg.DataSource.Provider = "mock"
	m, ok := newFetcher(cfg).(*collector.MockFetcher)
	require.True(t, ok)
	assert.Equal(t, 2.0, m.Multiples["00631L.TW"])

	cfg.DataSource.Provider = "rest"
	cfg.DataSource.BaseURL = "http://localhost:9000"
	assert.Equal(t, "rest", newFetcher(cfg).Name())

	cfg.DataSource.Provider = "yahoo"
	assert.Equal(t, "yahoo", newFetcher(cfg).Name())
}
