package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trackline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "game_id", cfg.Columns.GroupColumn)
	assert.Equal(t, "frame_id", cfg.Columns.SequenceColumn)
	assert.Equal(t, []string{"game_id", "play_id"}, cfg.Data.BatchColumns)
	assert.Equal(t, "text", cfg.Report.Format)
}

func TestLoad(t *testing.T) {
	t.Run("without a file uses defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
columns:
  entity_column: player_id
data:
  dir: /srv/tracking
  batch_columns: [game_id]
report:
  format: yaml
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "player_id", cfg.Columns.EntityColumn)
		assert.Equal(t, "game_id", cfg.Columns.GroupColumn)
		assert.Equal(t, "/srv/tracking", cfg.Data.Dir)
		assert.Equal(t, []string{"game_id"}, cfg.Data.BatchColumns)
		assert.Equal(t, "yaml", cfg.Report.Format)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "data:\n  dir: /from/file\n")
		t.Setenv("TRACKLINE_DATA_DIR", "/from/env")
		t.Setenv("TRACKLINE_LOGGING_LEVEL", "debug")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/from/env", cfg.Data.Dir)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		path := writeConfig(t, "report:\n  format: html\nlogging:\n  level: chatty\n")

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `report.format "html"`)
		assert.Contains(t, err.Error(), `logging.level "chatty"`)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Columns.IDColumn = ""
	cfg.Data.BatchColumns = nil
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "columns.id_column is required")
	assert.Contains(t, err.Error(), "data.batch_columns must name at least one column")
	assert.Contains(t, err.Error(), `logging.format "xml"`)
}

func TestGateway(t *testing.T) {
	cfg := Default()
	cfg.Columns.XColumn = "px"
	cfg.Data.QueriesTable = "queries"

	gw := cfg.Gateway()
	assert.Equal(t, "queries", gw.QueriesTable)
	assert.Equal(t, "test_input", gw.ObservationsTable)
	assert.Equal(t, "px", gw.XColumn)
	assert.Equal(t, "id", gw.IDColumn)

	gw.BatchColumns[0] = "changed"
	assert.Equal(t, "game_id", cfg.Data.BatchColumns[0])
}

func TestYAML(t *testing.T) {
	out, err := Default().YAML()
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, *Default(), decoded)
	assert.Contains(t, string(out), "sequence_column: frame_id")
}
