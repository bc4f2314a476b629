package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gophecy/agentgen/internal/codec"
	"github.com/gophecy/agentgen/internal/population"
	"github.com/gophecy/agentgen/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage the history of generated populations",
		Long: `List, show, re-export and delete recorded runs.

Runs are recorded by 'agentgen generate --record' or when history.enabled
is set. A run ID may be abbreviated to any unique prefix.

Examples:
  agentgen runs list
  agentgen runs show 3f2a
  agentgen runs export 3f2a --output copy.yaml
  agentgen runs delete 3f2a`,
	}

	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
		newRunsExportCmd(),
		newRunsDeleteCmd(),
	)
	return cmd
}

// openRunStore opens the history database named by the loaded config.
func openRunStore(cmd *cobra.Command) (*store.SQLiteRunStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	runs, err := store.NewSQLiteRunStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return runs, nil
}

func newRunsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			runs, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runs.Close()

			list, err := runs.ListRuns(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				if list == nil {
					list = []store.Run{}
				}
				return writeJSON(cmd.OutOrStdout(), list)
			}

			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tAGENTS\tB/S/N\tSEED\tOUTPUT")
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d/%d/%d\t%d\t%s\n",
					shortID(r.ID), r.CreatedAt.Local().Format(time.DateTime), r.AgentCount,
					r.Options.Believers, r.Options.Sceptics, r.Options.Neutrals, r.Seed, r.OutputPath)
			}
			return tw.Flush()
		},
	}
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded run and a summary of its population",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			runs, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runs.Close()

			run, err := runs.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			agents, err := runs.LoadAgents(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			summary := population.Summarize(agents)

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"run":     run,
					"summary": summary,
				})
			}

			out := cmd.OutOrStdout()
			o := run.Options
			fmt.Fprintf(out, "Run %s\n", run.ID)
			fmt.Fprintf(out, "  created:            %s\n", run.CreatedAt.Local().Format(time.RFC3339))
			fmt.Fprintf(out, "  seed:               %d\n", run.Seed)
			fmt.Fprintf(out, "  output:             %s\n", valueOrDefault(run.OutputPath, "(none)"))
			fmt.Fprintf(out, "  counts:             %d believers, %d sceptics, %d neutrals\n", o.Believers, o.Sceptics, o.Neutrals)
			if o.RandomRelations {
				fmt.Fprintln(out, "  relations:          random")
			} else {
				fmt.Fprintf(out, "  relations:          believer %.2f, sceptic %.2f, neutral %.2f\n",
					o.Relations.For(population.Believer), o.Relations.For(population.Sceptic), o.Relations.For(population.Neutral))
			}
			fmt.Fprintf(out, "  charisma:           %s\n", o.Charisma)
			fmt.Fprintf(out, "  personal parameter: %s\n", o.PersonalParameter)
			fmt.Fprintln(out)
			printSummary(out, shortID(run.ID), summary)
			return nil
		},
	}
}

func newRunsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a recorded population to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			output, _ := cmd.Flags().GetString("output")
			formatName, _ := cmd.Flags().GetString("format")

			format, err := codec.ParseFormat(formatName)
			if err != nil {
				return err
			}

			runs, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runs.Close()

			agents, err := runs.LoadAgents(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("creating output directory: %w", err)
				}
			}
			if err := codec.Write(output, agents, format); err != nil {
				return fmt.Errorf("failed to export run: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"status": "exported",
					"count":  len(agents),
					"path":   output,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d agents to %s\n", len(agents), output)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file (required)")
	cmd.Flags().String("format", "", "Output format: json or yaml (default from extension)")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			runs, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runs.Close()

			run, err := runs.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := runs.DeleteRun(cmd.Context(), run.ID); err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"status": "deleted", "id": run.ID})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", run.ID)
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func valueOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
