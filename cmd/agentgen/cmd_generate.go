package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gophecy/agentgen/internal/codec"
	"github.com/gophecy/agentgen/internal/config"
	"github.com/gophecy/agentgen/internal/logging"
	"github.com/gophecy/agentgen/internal/population"
	"github.com/gophecy/agentgen/internal/sanitize"
	"github.com/gophecy/agentgen/internal/sink"
	"github.com/gophecy/agentgen/internal/store"
)

// generateResult is what generate reports, as text or with --json.
type generateResult struct {
	Count     int      `json:"count"`
	Path      string   `json:"path"`
	Format    string   `json:"format"`
	Seed      uint64   `json:"seed"`
	RunID     string   `json:"run_id,omitempty"`
	Exported  int      `json:"exported,omitempty"`
	Fallbacks []string `json:"fallbacks,omitempty"`
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an agent population and write it to a file",
		Long: `Generate a population of believers, sceptics and neutrals.

Settings come from the config file and environment, then from flags.
With --interactive every setting is asked for on the terminal.

Relation choices: 1 Ennemi (0.75), 2 Pas de lien direct (1.0),
3 Amis (1.25), 4 Famille (1.5). Names are accepted too.

Examples:
  agentgen generate --believers 2 --sceptics 1 --believer-relation 3 --sceptic-relation 1
  agentgen generate --neutrals 50 --random-relations --charisma normal --charisma-mean 0.5 --charisma-stddev 0.1
  agentgen generate --believers 10 --seed 42 --output pop.yaml --record
  agentgen generate --interactive`,
		Args: cobra.NoArgs,
		RunE: runGenerate,
	}

	cmd.Flags().Int("believers", 0, "Number of believer agents")
	cmd.Flags().Int("sceptics", 0, "Number of sceptic agents")
	cmd.Flags().Int("neutrals", 0, "Number of neutral agents")
	cmd.Flags().Bool("random-relations", false, "Draw every relation at random")
	cmd.Flags().String("believer-relation", "", "Relation choice for believers (1-4 or name)")
	cmd.Flags().String("sceptic-relation", "", "Relation choice for sceptics (1-4 or name)")
	cmd.Flags().String("neutral-relation", "", "Relation choice for neutrals (1-4 or name)")
	cmd.Flags().String("charisma", "", "Charisma distribution: uniform or normal")
	cmd.Flags().Float64("charisma-mean", 0, "Mean of normal charisma")
	cmd.Flags().Float64("charisma-stddev", 0, "Standard deviation of normal charisma")
	cmd.Flags().String("personal", "", "Personal parameter distribution: uniform or normal")
	cmd.Flags().Float64("personal-min", 0, "Lower bound of uniform personal parameter")
	cmd.Flags().Float64("personal-max", 0, "Upper bound of uniform personal parameter")
	cmd.Flags().Float64("personal-mean", 0, "Mean of normal personal parameter")
	cmd.Flags().Float64("personal-stddev", 0, "Standard deviation of normal personal parameter")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 picks one from the clock)")
	cmd.Flags().StringP("output", "o", "", "Output file (default agents.json)")
	cmd.Flags().String("format", "", "Output format: json or yaml (default from extension)")
	cmd.Flags().BoolP("interactive", "i", false, "Ask for every setting on the terminal")
	cmd.Flags().Bool("record", false, "Record the run in the history database")
	cmd.Flags().Bool("mongo", false, "Export the population to MongoDB")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, trace := newLogger(cmd, cfg)
	defer trace.Close()

	gen := cfg.Generation
	if err := applyGenerateFlags(cmd, &gen); err != nil {
		return err
	}
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		gen, err = promptGeneration(newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), gen)
		if err != nil {
			return fmt.Errorf("interactive input: %w", err)
		}
	}

	format, err := codec.ParseFormat(gen.Format)
	if err != nil {
		return err
	}
	if format == "" {
		format = codec.FormatFromPath(gen.Output)
	}

	opts, fallbacks := gen.Options()
	for _, c := range fallbacks {
		choice := sanitize.Value(gen.Relations.For(c))
		logger.Warn("unrecognized relation choice, using 1.0", "category", c, "choice", choice)
		trace.Event("relation_fallback", map[string]any{"category": string(c), "choice": choice})
	}

	rng, seed := population.NewRand(gen.Seed)
	logger.Debug("generating population",
		"believers", opts.Believers, "sceptics", opts.Sceptics, "neutrals", opts.Neutrals,
		"charisma", opts.Charisma.String(), "personal_parameter", opts.PersonalParameter.String(),
		"seed", seed)
	trace.Event("run_started", map[string]any{"seed": seed, "total": opts.Total(), "source": "cli"})

	agents, err := population.Generate(opts, rng)
	if err != nil {
		return err
	}
	logAgents(logger, agents)

	path := gen.Output
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := codec.Write(path, agents, format); err != nil {
		return fmt.Errorf("failed to save agents: %w", err)
	}
	trace.Event("run_written", map[string]any{"path": path, "count": len(agents), "format": string(format)})

	result := generateResult{
		Count:  len(agents),
		Path:   path,
		Format: string(format),
		Seed:   seed,
	}
	for _, c := range fallbacks {
		result.Fallbacks = append(result.Fallbacks, string(c))
	}

	ctx := cmd.Context()

	record, _ := cmd.Flags().GetBool("record")
	if record || cfg.History.Enabled {
		runID, err := recordRun(ctx, cfg, store.Run{Seed: seed, Options: opts, OutputPath: absPath(path)}, agents)
		if err != nil {
			return fmt.Errorf("population saved to %s but recording the run failed: %w", path, err)
		}
		result.RunID = runID
		logger.Debug("recorded run", "run_id", runID)
	}

	if useMongo, _ := cmd.Flags().GetBool("mongo"); useMongo {
		runID := result.RunID
		if runID == "" {
			runID = uuid.New().String()
		}
		n, err := exportToMongo(ctx, cfg.Mongo, runID, agents)
		if err != nil {
			return fmt.Errorf("population saved to %s but the Mongo export failed: %w", path, err)
		}
		result.Exported = n
		if result.RunID == "" {
			result.RunID = runID
		}
		logger.Info("exported population", "mongo", cfg.Mongo.String(), "documents", n)
	}

	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generated %d agents and saved to %s\n", result.Count, result.Path)
	if gen.Seed == 0 {
		fmt.Fprintf(out, "Seed: %d\n", seed)
	}
	if result.RunID != "" {
		fmt.Fprintf(out, "Run ID: %s\n", result.RunID)
	}
	if result.Exported > 0 {
		fmt.Fprintf(out, "Exported %d documents to %s.%s\n", result.Exported, cfg.Mongo.Database, cfg.Mongo.Collection)
	}
	return nil
}

// applyGenerateFlags overrides settings with the flags the user set.
func applyGenerateFlags(cmd *cobra.Command, gen *config.GenerationConfig) error {
	flags := cmd.Flags()

	intFlags := map[string]*int{
		"believers": &gen.Believers,
		"sceptics":  &gen.Sceptics,
		"neutrals":  &gen.Neutrals,
	}
	for name, dst := range intFlags {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}

	if flags.Changed("random-relations") {
		gen.RandomRelations, _ = flags.GetBool("random-relations")
	}

	stringFlags := map[string]*string{
		"believer-relation": &gen.Relations.Believer,
		"sceptic-relation":  &gen.Relations.Sceptic,
		"neutral-relation":  &gen.Relations.Neutral,
		"output":            &gen.Output,
		"format":            &gen.Format,
	}
	for name, dst := range stringFlags {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}

	if flags.Changed("charisma") {
		name, _ := flags.GetString("charisma")
		kind, err := population.ParseDistribution(name)
		if err != nil {
			return &population.ConfigError{Field: "charisma", Reason: err.Error()}
		}
		gen.Charisma.Kind = kind
	}
	if flags.Changed("personal") {
		name, _ := flags.GetString("personal")
		kind, err := population.ParseDistribution(name)
		if err != nil {
			return &population.ConfigError{Field: "personal_parameter", Reason: err.Error()}
		}
		gen.PersonalParameter.Kind = kind
	}

	floatFlags := map[string]**float64{
		"charisma-mean":   &gen.Charisma.Mean,
		"charisma-stddev": &gen.Charisma.StdDev,
		"personal-min":    &gen.PersonalParameter.Min,
		"personal-max":    &gen.PersonalParameter.Max,
		"personal-mean":   &gen.PersonalParameter.Mean,
		"personal-stddev": &gen.PersonalParameter.StdDev,
	}
	for name, dst := range floatFlags {
		if flags.Changed(name) {
			v, _ := flags.GetFloat64(name)
			*dst = population.Float(v)
		}
	}

	if flags.Changed("seed") {
		gen.Seed, _ = flags.GetUint64("seed")
	}
	if gen.Output == "" {
		return &population.ConfigError{Field: "output", Reason: "must not be empty"}
	}
	return nil
}

// logAgents writes one trace-level record per agent.
func logAgents(logger *slog.Logger, agents []population.Agent) {
	for _, a := range agents {
		logger.Log(context.Background(), logging.LevelTrace, "agent",
			"id", a.ID,
			"category", a.Category,
			"opinion", a.Opinion,
			"personal_parameter", a.PersonalParameter,
			"sub_type", a.SubType)
	}
}

func recordRun(ctx context.Context, cfg *config.AgentgenConfig, run store.Run, agents []population.Agent) (string, error) {
	dbPath, err := cfg.HistoryPath()
	if err != nil {
		return "", err
	}
	runs, err := store.NewSQLiteRunStore(dbPath)
	if err != nil {
		return "", err
	}
	defer runs.Close()

	saved, err := runs.SaveRun(ctx, run, agents)
	if err != nil {
		return "", err
	}
	return saved.ID, nil
}

func exportToMongo(ctx context.Context, cfg config.MongoConfig, runID string, agents []population.Agent) (int, error) {
	s, err := sink.NewMongoSink(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer s.Close(context.Background())

	return s.Export(ctx, runID, agents)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
