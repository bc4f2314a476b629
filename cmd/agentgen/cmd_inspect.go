package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gophecy/agentgen/internal/codec"
	"github.com/gophecy/agentgen/internal/population"
)

// errIssuesFound makes inspect exit non-zero after printing its report.
var errIssuesFound = errors.New("population has structural issues")

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Check and summarize a population file",
		Long: `Read a JSON or YAML population file, verify its structure and print
a summary. Exits non-zero when any issue is found.

Checks: unique IDs, one charisme and one relation entry per other agent,
no self entries, values within range and rounded to two decimals, and a
known subtype.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			agents, err := codec.Read(args[0])
			if err != nil {
				return err
			}
			issues := population.Check(agents)
			summary := population.Summarize(agents)

			if jsonOut {
				if issues == nil {
					issues = []population.Issue{}
				}
				if err := writeJSON(cmd.OutOrStdout(), map[string]any{
					"path":    args[0],
					"summary": summary,
					"issues":  issues,
					"valid":   len(issues) == 0,
				}); err != nil {
					return err
				}
			} else {
				printSummary(cmd.OutOrStdout(), args[0], summary)
				printIssues(cmd.OutOrStdout(), issues)
			}

			if len(issues) > 0 {
				return fmt.Errorf("%w: %d found", errIssuesFound, len(issues))
			}
			return nil
		},
	}
}

func printSummary(w io.Writer, path string, s population.Summary) {
	fmt.Fprintf(w, "%s: %d agents\n", path, s.Total)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Categories:")
	for _, c := range population.Categories() {
		fmt.Fprintf(w, "  %-10s %d\n", c, s.ByCategory[c])
	}
	fmt.Fprintln(w, "Subtypes:")
	for _, st := range population.SubTypes() {
		fmt.Fprintf(w, "  %-10s %d\n", st, s.BySubType[st])
	}
	if len(s.RelationHistogram) > 0 {
		fmt.Fprintln(w, "Relations:")
		labels := make([]string, 0, len(s.RelationHistogram))
		for label := range s.RelationHistogram {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Fprintf(w, "  %-20s %d\n", label, s.RelationHistogram[label])
		}
	}
	fmt.Fprintln(w, "Means:")
	fmt.Fprintf(w, "  opinion             %.2f\n", s.MeanOpinion)
	fmt.Fprintf(w, "  charisme            %.2f\n", s.MeanCharisme)
	fmt.Fprintf(w, "  personal parameter  %.2f\n", s.MeanPersonalParameter)
}

func printIssues(w io.Writer, issues []population.Issue) {
	fmt.Fprintln(w)
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}
	fmt.Fprintf(w, "%d issue(s):\n", len(issues))
	for _, issue := range issues {
		fmt.Fprintf(w, "  %s\n", issue)
	}
}
