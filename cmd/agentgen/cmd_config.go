package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gophecy/agentgen/internal/codec"
	"github.com/gophecy/agentgen/internal/config"
	"github.com/gophecy/agentgen/internal/population"
)

// configKeys lists every key accepted by config get/set, in display order.
var configKeys = []string{
	"generation.believers",
	"generation.sceptics",
	"generation.neutrals",
	"generation.random_relations",
	"generation.relations.believer",
	"generation.relations.sceptic",
	"generation.relations.neutral",
	"generation.charisma.kind",
	"generation.charisma.mean",
	"generation.charisma.std_dev",
	"generation.personal_parameter.kind",
	"generation.personal_parameter.min",
	"generation.personal_parameter.max",
	"generation.personal_parameter.mean",
	"generation.personal_parameter.std_dev",
	"generation.seed",
	"generation.output",
	"generation.format",
	"history.enabled",
	"history.path",
	"mongo.uri",
	"mongo.database",
	"mongo.collection",
	"mongo.timeout",
	"logging.level",
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage agentgen configuration",
		Long: `View and modify agentgen configuration settings.

Configuration is stored in ~/.agentgen/config.yaml (or the file given
with --config). Environment variables (AGENTGEN_*) and a .env file in the
current directory override the file when commands run.

Examples:
  agentgen config list
  agentgen config get generation.output
  agentgen config set generation.believers 10
  agentgen config set generation.relations.sceptic 1
  agentgen config set mongo.uri 'mongodb://localhost:27017'`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if jsonOut {
				values := make(map[string]any, len(configKeys))
				for _, key := range configKeys {
					values[key], _ = getConfigValue(cfg, key)
				}
				return writeJSON(cmd.OutOrStdout(), values)
			}

			path, err := configPath(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration (%s):\n\n", path)
			for _, key := range configKeys {
				value, _ := getConfigValue(cfg, key)
				fmt.Fprintf(cmd.OutOrStdout(), "  %-38s %v\n", key+":", displayValue(value))
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"key": key, "value": value})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, displayValue(value))
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key, value := args[0], args[1]

			path, err := configPath(cmd)
			if err != nil {
				return err
			}

			// Read the file alone so environment overrides are not persisted.
			cfg := config.Default()
			if _, statErr := os.Stat(path); statErr == nil {
				if cfg, err = config.LoadFromFile(path); err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if key == "mongo.uri" {
				value = cfg.Mongo.RedactedURI()
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"status": "updated",
					"key":    key,
					"value":  value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

// configPath returns --config or the default config file path.
func configPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

// getConfigValue retrieves a configuration value by dot-notation key.
// The Mongo URI is returned with its password redacted.
func getConfigValue(cfg *config.AgentgenConfig, key string) (any, bool) {
	g := cfg.Generation
	switch key {
	case "generation.believers":
		return g.Believers, true
	case "generation.sceptics":
		return g.Sceptics, true
	case "generation.neutrals":
		return g.Neutrals, true
	case "generation.random_relations":
		return g.RandomRelations, true
	case "generation.relations.believer":
		return g.Relations.Believer, true
	case "generation.relations.sceptic":
		return g.Relations.Sceptic, true
	case "generation.relations.neutral":
		return g.Relations.Neutral, true
	case "generation.charisma.kind":
		return string(g.Charisma.Kind), true
	case "generation.charisma.mean":
		return g.Charisma.Mean, true
	case "generation.charisma.std_dev":
		return g.Charisma.StdDev, true
	case "generation.personal_parameter.kind":
		return string(g.PersonalParameter.Kind), true
	case "generation.personal_parameter.min":
		return g.PersonalParameter.Min, true
	case "generation.personal_parameter.max":
		return g.PersonalParameter.Max, true
	case "generation.personal_parameter.mean":
		return g.PersonalParameter.Mean, true
	case "generation.personal_parameter.std_dev":
		return g.PersonalParameter.StdDev, true
	case "generation.seed":
		return g.Seed, true
	case "generation.output":
		return g.Output, true
	case "generation.format":
		return g.Format, true
	case "history.enabled":
		return cfg.History.Enabled, true
	case "history.path":
		return cfg.History.Path, true
	case "mongo.uri":
		return cfg.Mongo.RedactedURI(), true
	case "mongo.database":
		return cfg.Mongo.Database, true
	case "mongo.collection":
		return cfg.Mongo.Collection, true
	case "mongo.timeout":
		return cfg.Mongo.Timeout.String(), true
	case "logging.level":
		return cfg.Logging.Level, true
	default:
		return nil, false
	}
}

// setConfigValue sets a configuration value by dot-notation key. An empty
// value clears optional distribution parameters.
func setConfigValue(cfg *config.AgentgenConfig, key, value string) error {
	g := &cfg.Generation
	switch key {
	case "generation.believers", "generation.sceptics", "generation.neutrals":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid count: %s (must be a non-negative integer)", value)
		}
		switch key {
		case "generation.believers":
			g.Believers = n
		case "generation.sceptics":
			g.Sceptics = n
		default:
			g.Neutrals = n
		}
	case "generation.random_relations":
		g.RandomRelations = parseBool(value)
	case "generation.relations.believer", "generation.relations.sceptic", "generation.relations.neutral":
		if _, ok := population.ParseRelationChoice(value); !ok {
			return fmt.Errorf("invalid relation: %s (valid: 1-4, ennemi, neutre, amis, famille)", value)
		}
		switch key {
		case "generation.relations.believer":
			g.Relations.Believer = value
		case "generation.relations.sceptic":
			g.Relations.Sceptic = value
		default:
			g.Relations.Neutral = value
		}
	case "generation.charisma.kind", "generation.personal_parameter.kind":
		kind, err := population.ParseDistribution(value)
		if err != nil {
			return err
		}
		if key == "generation.charisma.kind" {
			g.Charisma.Kind = kind
		} else {
			g.PersonalParameter.Kind = kind
		}
	case "generation.charisma.mean":
		return setParam(&g.Charisma.Mean, value)
	case "generation.charisma.std_dev":
		return setParam(&g.Charisma.StdDev, value)
	case "generation.personal_parameter.min":
		return setParam(&g.PersonalParameter.Min, value)
	case "generation.personal_parameter.max":
		return setParam(&g.PersonalParameter.Max, value)
	case "generation.personal_parameter.mean":
		return setParam(&g.PersonalParameter.Mean, value)
	case "generation.personal_parameter.std_dev":
		return setParam(&g.PersonalParameter.StdDev, value)
	case "generation.seed":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed: %s", value)
		}
		g.Seed = n
	case "generation.output":
		if value == "" {
			return fmt.Errorf("generation.output must not be empty")
		}
		g.Output = value
	case "generation.format":
		if _, err := codec.ParseFormat(value); err != nil {
			return err
		}
		g.Format = value
	case "history.enabled":
		cfg.History.Enabled = parseBool(value)
	case "history.path":
		cfg.History.Path = value
	case "mongo.uri":
		cfg.Mongo.URI = value
	case "mongo.database":
		cfg.Mongo.Database = value
	case "mongo.collection":
		cfg.Mongo.Collection = value
	case "mongo.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %s", value)
		}
		cfg.Mongo.Timeout = d
	case "logging.level":
		cfg.Logging.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func setParam(dst **float64, value string) error {
	if value == "" {
		*dst = nil
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number: %s", value)
	}
	*dst = population.Float(f)
	return nil
}

func parseBool(value string) bool {
	return value == "true" || value == "1" || value == "yes"
}

// displayValue renders unset pointers and empty strings for humans.
func displayValue(v any) any {
	switch x := v.(type) {
	case *float64:
		if x == nil {
			return "(not set)"
		}
		return *x
	case string:
		return valueOrDefault(x, "(not set)")
	}
	return v
}
