// Package config provides unified configuration loading for agentgen.
// It supports loading from YAML files, a .env file and environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gophecy/agentgen/internal/codec"
	"github.com/gophecy/agentgen/internal/constants"
	"github.com/gophecy/agentgen/internal/population"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AgentgenConfig contains all agentgen configuration settings.
type AgentgenConfig struct {
	// Generation holds the defaults used by `agentgen generate`.
	Generation GenerationConfig `json:"generation" yaml:"generation"`

	// History configures the SQLite run history.
	History HistoryConfig `json:"history" yaml:"history"`

	// Mongo configures the optional MongoDB export.
	Mongo MongoConfig `json:"mongo" yaml:"mongo"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// GenerationConfig mirrors population.Options with user-facing relation choices.
type GenerationConfig struct {
	Believers int `json:"believers" yaml:"believers"`
	Sceptics  int `json:"sceptics" yaml:"sceptics"`
	Neutrals  int `json:"neutrals" yaml:"neutrals"`

	// RandomRelations draws every relation independently.
	RandomRelations bool `json:"random_relations" yaml:"random_relations"`

	// Relations holds one choice per category: a menu code "1"-"4" or a name
	// (ennemi, neutre, amis, famille). Unrecognized choices mean neutral.
	Relations RelationsConfig `json:"relations" yaml:"relations"`

	Charisma          population.Distribution `json:"charisma" yaml:"charisma"`
	PersonalParameter population.Distribution `json:"personal_parameter" yaml:"personal_parameter"`

	// Seed makes generation reproducible. 0 picks a time-based seed.
	Seed uint64 `json:"seed" yaml:"seed"`

	// Output is the population file path.
	Output string `json:"output" yaml:"output"`

	// Format is "json" or "yaml". Empty derives it from Output.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// RelationsConfig holds the relation choice of each category.
type RelationsConfig struct {
	Believer string `json:"believer" yaml:"believer"`
	Sceptic  string `json:"sceptic" yaml:"sceptic"`
	Neutral  string `json:"neutral" yaml:"neutral"`
}

// For returns the choice configured for category c.
func (r RelationsConfig) For(c population.Category) string {
	switch c {
	case population.Believer:
		return r.Believer
	case population.Sceptic:
		return r.Sceptic
	default:
		return r.Neutral
	}
}

// HistoryConfig configures the run history database.
type HistoryConfig struct {
	// Enabled records every generated population.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite file. Empty means ~/.agentgen/runs.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// MongoConfig configures the MongoDB export.
type MongoConfig struct {
	// URI is the connection string. Supports ${VAR} syntax for env vars.
	URI string `json:"uri,omitempty" yaml:"uri,omitempty"`

	Database   string `json:"database" yaml:"database"`
	Collection string `json:"collection" yaml:"collection"`

	// Timeout bounds connecting and exporting.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// RedactedURI returns the URI with any password masked.
func (c MongoConfig) RedactedURI() string {
	if c.URI == "" {
		return ""
	}
	u, err := url.Parse(c.URI)
	if err != nil {
		return "(set)"
	}
	return u.Redacted()
}

// String implements fmt.Stringer to prevent accidental credential logging.
func (c MongoConfig) String() string {
	return fmt.Sprintf("MongoConfig{URI:%s, Database:%s, Collection:%s}",
		c.RedactedURI(), c.Database, c.Collection)
}

// LoggingConfig configures agentgen's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the generation trace in ~/.agentgen/trace.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns an AgentgenConfig with sensible defaults.
func Default() *AgentgenConfig {
	opts := population.DefaultOptions()
	return &AgentgenConfig{
		Generation: GenerationConfig{
			Relations: RelationsConfig{
				Believer: "2",
				Sceptic:  "2",
				Neutral:  "2",
			},
			Charisma:          opts.Charisma,
			PersonalParameter: opts.PersonalParameter,
			Output:            constants.DefaultOutputFile,
		},
		History: HistoryConfig{
			Enabled: false,
		},
		Mongo: MongoConfig{
			Database:   "agentgen",
			Collection: "agents",
			Timeout:    10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the per-user agentgen directory (~/.agentgen).
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.AppDirName), nil
}

// DefaultPath returns ~/.agentgen/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from path, or from the default location when
// path is empty, then applies .env and environment variable overrides.
// Order: defaults -> config file -> .env -> environment variables.
// A missing default config file is not an error; a missing explicit one is.
func Load(path string) (*AgentgenConfig, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	} else if defaultPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(defaultPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(defaultPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*AgentgenConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Mongo.URI = expandEnvVars(config.Mongo.URI)

	return config, nil
}

// Save writes the configuration to path as YAML, creating parent directories.
func Save(config *AgentgenConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid. Missing distribution
// parameters are not checked here; flags may still supply them and
// generation reports them as configuration errors.
func (c *AgentgenConfig) Validate() error {
	g := c.Generation
	if g.Believers < 0 || g.Sceptics < 0 || g.Neutrals < 0 {
		return fmt.Errorf("agent counts must be non-negative, got %d/%d/%d", g.Believers, g.Sceptics, g.Neutrals)
	}

	if _, err := population.ParseDistribution(string(g.Charisma.Kind)); err != nil {
		return fmt.Errorf("generation.charisma: %w", err)
	}
	if _, err := population.ParseDistribution(string(g.PersonalParameter.Kind)); err != nil {
		return fmt.Errorf("generation.personal_parameter: %w", err)
	}

	if _, err := codec.ParseFormat(g.Format); err != nil {
		return fmt.Errorf("generation.format: %w", err)
	}

	if c.Mongo.Timeout < 0 {
		return fmt.Errorf("mongo.timeout must be non-negative, got %v", c.Mongo.Timeout)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Options converts the generation settings into population options.
// Relation choices that are not recognized resolve to neutral; their
// categories are returned so the caller can warn about them.
func (g GenerationConfig) Options() (population.Options, []population.Category) {
	opts := population.Options{
		Believers:         g.Believers,
		Sceptics:          g.Sceptics,
		Neutrals:          g.Neutrals,
		RandomRelations:   g.RandomRelations,
		Charisma:          g.Charisma,
		PersonalParameter: g.PersonalParameter,
	}

	var fallbacks []population.Category
	if !g.RandomRelations {
		for _, category := range population.Categories() {
			value, ok := population.ParseRelationChoice(g.Relations.For(category))
			if !ok {
				fallbacks = append(fallbacks, category)
			}
			opts.Relations.Set(category, value)
		}
	}

	return opts, fallbacks
}

// HistoryPath returns the configured history database path or the default.
func (c *AgentgenConfig) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "runs.db"), nil
}

// loadDotEnv loads variables from a .env file without overriding variables
// already set. A missing file is fine.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *AgentgenConfig) {
	if v := os.Getenv("AGENTGEN_OUTPUT"); v != "" {
		config.Generation.Output = v
	}

	if v := os.Getenv("AGENTGEN_FORMAT"); v != "" {
		config.Generation.Format = v
	}

	if v := os.Getenv("AGENTGEN_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Generation.Seed = n
		}
	}

	if v := os.Getenv("AGENTGEN_RANDOM_RELATIONS"); v != "" {
		config.Generation.RandomRelations = v == "true" || v == "1"
	}

	if v := os.Getenv("AGENTGEN_CHARISMA"); v != "" {
		config.Generation.Charisma.Kind = population.DistributionKind(v)
	}

	if v := os.Getenv("AGENTGEN_HISTORY_ENABLED"); v != "" {
		config.History.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("AGENTGEN_HISTORY_PATH"); v != "" {
		config.History.Path = v
	}

	// MONGODB_URI is honored for compatibility with existing deployments.
	if v := os.Getenv("MONGODB_URI"); v != "" {
		config.Mongo.URI = v
	}
	if v := os.Getenv("AGENTGEN_MONGO_URI"); v != "" {
		config.Mongo.URI = v
	}

	if v := os.Getenv("AGENTGEN_MONGO_DATABASE"); v != "" {
		config.Mongo.Database = v
	}

	if v := os.Getenv("AGENTGEN_MONGO_COLLECTION"); v != "" {
		config.Mongo.Collection = v
	}

	if v := os.Getenv("AGENTGEN_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
