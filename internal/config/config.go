// Package config loads trackline configuration from defaults, an optional
// YAML file and TRACKLINE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/chrisconley/trackline/internal/harness"
	"github.com/chrisconley/trackline/specs"
)

// EnvPrefix prefixes environment overrides, e.g. TRACKLINE_DATA_DIR.
const EnvPrefix = "TRACKLINE"

// Config holds all trackline configuration.
type Config struct {
	Columns specs.ColumnSchemaSpec `mapstructure:"columns" yaml:"columns"`
	Data    DataConfig             `mapstructure:"data" yaml:"data"`
	Logging LoggingConfig          `mapstructure:"logging" yaml:"logging"`
	Report  ReportConfig           `mapstructure:"report" yaml:"report"`
}

// DataConfig locates input and output tables.
type DataConfig struct {
	// Dir is a directory of CSV tables or a SQLite database file.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// QueriesTable holds one row per prediction request.
	QueriesTable string `mapstructure:"queries_table" yaml:"queries_table"`

	// ObservationsTable holds historical observations.
	ObservationsTable string `mapstructure:"observations_table" yaml:"observations_table"`

	// BatchColumns identify one gateway batch.
	BatchColumns []string `mapstructure:"batch_columns" yaml:"batch_columns"`

	// Submission is the candidate CSV read by validate.
	Submission string `mapstructure:"submission" yaml:"submission"`

	// Output is the CSV written by predict.
	Output string `mapstructure:"output" yaml:"output"`
}

// LoggingConfig controls the zerolog logger.
type LoggingConfig struct {
	// Level is a zerolog level name: debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`

	// Format is "console" for human-readable output or "json".
	Format string `mapstructure:"format" yaml:"format"`
}

// ReportConfig controls the final summary.
type ReportConfig struct {
	// Format is "text", "yaml" or "json".
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns a Config matching the competition data layout.
func Default() *Config {
	return &Config{
		Columns: specs.DefaultColumnSchema(),
		Data: DataConfig{
			Dir:               filepath.Join("data", "nfl-big-data-bowl-2026-prediction"),
			QueriesTable:      "test",
			ObservationsTable: "test_input",
			BatchColumns:      []string{"game_id", "play_id"},
			Submission:        "submission.csv",
			Output:            "submission.csv",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Report: ReportConfig{
			Format: "text",
		},
	}
}

// Load reads configuration. With an empty path, trackline.yaml is looked up
// in the working directory and $HOME/.config/trackline, and a missing file is
// not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("trackline")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "trackline"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("columns.group_column", d.Columns.GroupColumn)
	v.SetDefault("columns.subgroup_column", d.Columns.SubgroupColumn)
	v.SetDefault("columns.entity_column", d.Columns.EntityColumn)
	v.SetDefault("columns.sequence_column", d.Columns.SequenceColumn)
	v.SetDefault("columns.x_column", d.Columns.XColumn)
	v.SetDefault("columns.y_column", d.Columns.YColumn)
	v.SetDefault("columns.id_column", d.Columns.IDColumn)

	v.SetDefault("data.dir", d.Data.Dir)
	v.SetDefault("data.queries_table", d.Data.QueriesTable)
	v.SetDefault("data.observations_table", d.Data.ObservationsTable)
	v.SetDefault("data.batch_columns", d.Data.BatchColumns)
	v.SetDefault("data.submission", d.Data.Submission)
	v.SetDefault("data.output", d.Data.Output)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("report.format", d.Report.Format)
}

// Validate rejects configurations that cannot drive a run.
func (c *Config) Validate() error {
	var problems []string

	cols := map[string]string{
		"columns.group_column":    c.Columns.GroupColumn,
		"columns.subgroup_column": c.Columns.SubgroupColumn,
		"columns.entity_column":   c.Columns.EntityColumn,
		"columns.x_column":        c.Columns.XColumn,
		"columns.y_column":        c.Columns.YColumn,
		"columns.id_column":       c.Columns.IDColumn,
		"data.queries_table":      c.Data.QueriesTable,
		"data.observations_table": c.Data.ObservationsTable,
	}
	for _, key := range sortedKeys(cols) {
		if strings.TrimSpace(cols[key]) == "" {
			problems = append(problems, key+" is required")
		}
	}
	if len(c.Data.BatchColumns) == 0 {
		problems = append(problems, "data.batch_columns must name at least one column")
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, fmt.Sprintf("logging.level %q is not a log level", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}
	switch c.Report.Format {
	case "text", "yaml", "json":
	default:
		problems = append(problems, fmt.Sprintf("report.format %q must be text, yaml or json", c.Report.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Gateway returns the local gateway configuration.
func (c *Config) Gateway() harness.Config {
	return harness.Config{
		QueriesTable:      c.Data.QueriesTable,
		ObservationsTable: c.Data.ObservationsTable,
		BatchColumns:      append([]string(nil), c.Data.BatchColumns...),
		IDColumn:          c.Columns.IDColumn,
		XColumn:           c.Columns.XColumn,
		YColumn:           c.Columns.YColumn,
	}
}

// YAML renders the configuration in the format Load reads.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
