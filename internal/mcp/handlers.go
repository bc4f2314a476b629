package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gophecy/agentgen/internal/codec"
	"github.com/gophecy/agentgen/internal/config"
	"github.com/gophecy/agentgen/internal/constants"
	"github.com/gophecy/agentgen/internal/pathutil"
	"github.com/gophecy/agentgen/internal/population"
	"github.com/gophecy/agentgen/internal/sanitize"
	"github.com/gophecy/agentgen/internal/store"
)

// registerTools registers all agentgen tools with the MCP server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name: "agentgen_generate",
		Description: "Generate a population of believer, sceptic and neutral agents with charisma, " +
			"relations, a personal parameter and a subtype, and write it to a JSON or YAML file",
	}, s.handleGenerate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "agentgen_inspect",
		Description: "Read a population file, check its structure and summarize it",
	}, s.handleInspect)
}

// handleGenerate implements the agentgen_generate tool.
func (s *Server) handleGenerate(ctx context.Context, req *sdk.CallToolRequest, args GenerateInput) (_ *sdk.CallToolResult, _ GenerateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("agentgen_generate", start, retErr, sanitizeToolParams(map[string]any{
			"believers":        args.Believers,
			"sceptics":         args.Sceptics,
			"neutrals":         args.Neutrals,
			"random_relations": args.RandomRelations,
			"charisma":         args.Charisma,
			"personal":         args.Personal,
			"format":           args.Format,
			"seed":             args.Seed,
			"output":           args.Output,
		}))
	}()

	if err := s.limiters.Check("agentgen_generate"); err != nil {
		return nil, GenerateOutput{}, err
	}

	output := args.Output
	if output == "" {
		output = constants.DefaultOutputFile
	}
	path, err := pathutil.ResolveOutputPath(output, s.root, s.allowedDirs)
	if err != nil {
		return nil, GenerateOutput{}, err
	}
	format, err := codec.ParseFormat(args.Format)
	if err != nil {
		return nil, GenerateOutput{}, err
	}

	gen, err := args.generationConfig()
	if err != nil {
		return nil, GenerateOutput{}, err
	}
	opts, fallbacks := gen.Options()
	for _, c := range fallbacks {
		choice := sanitize.Value(gen.Relations.For(c))
		s.logger.Warn("unrecognized relation choice, using 1.0", "category", c, "choice", choice)
		s.trace.Event("relation_fallback", map[string]any{"category": string(c), "choice": choice})
	}

	rng, seed := population.NewRand(args.Seed)
	s.trace.Event("run_started", map[string]any{"seed": seed, "total": opts.Total(), "source": "mcp"})

	agents, err := population.Generate(opts, rng)
	if err != nil {
		return nil, GenerateOutput{}, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, GenerateOutput{}, fmt.Errorf("creating output directory: %w", err)
	}
	if err := codec.Write(path, agents, format); err != nil {
		return nil, GenerateOutput{}, fmt.Errorf("writing %s: %w", pathutil.RedactPath(path), err)
	}
	s.trace.Event("run_written", map[string]any{"path": path, "count": len(agents)})

	out := GenerateOutput{
		Path:    path,
		Count:   len(agents),
		Seed:    seed,
		Summary: population.Summarize(agents),
		Message: fmt.Sprintf("Generated %d agents and saved to %s", len(agents), path),
	}
	for _, c := range fallbacks {
		out.Fallbacks = append(out.Fallbacks, string(c))
	}

	if s.runs != nil {
		run, err := s.runs.SaveRun(ctx, store.Run{Seed: seed, Options: opts, OutputPath: path}, agents)
		if err != nil {
			// The file is already written; history is best effort.
			s.logger.Warn("failed to record run", "error", err)
		} else {
			out.RunID = run.ID
		}
	}

	s.logger.Info("generated population", "count", out.Count, "path", out.Path, "seed", seed)
	return nil, out, nil
}

// handleInspect implements the agentgen_inspect tool.
func (s *Server) handleInspect(ctx context.Context, req *sdk.CallToolRequest, args InspectInput) (_ *sdk.CallToolResult, _ InspectOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("agentgen_inspect", start, retErr, sanitizeToolParams(map[string]any{
			"path": args.Path,
		}))
	}()

	if err := s.limiters.Check("agentgen_inspect"); err != nil {
		return nil, InspectOutput{}, err
	}
	if args.Path == "" {
		return nil, InspectOutput{}, fmt.Errorf("path is required")
	}
	path := args.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	if err := pathutil.ValidatePath(path, s.allowedDirs); err != nil {
		return nil, InspectOutput{}, err
	}

	agents, err := codec.Read(path)
	if err != nil {
		return nil, InspectOutput{}, err
	}

	issues := population.Check(agents)
	out := InspectOutput{
		Path:    path,
		Summary: population.Summarize(agents),
		Valid:   len(issues) == 0,
	}
	for _, issue := range issues {
		out.Issues = append(out.Issues, issue.String())
	}
	return nil, out, nil
}

// generationConfig maps tool arguments onto the same settings the CLI
// reads from the config file. Empty relation choices mean neutral.
func (in GenerateInput) generationConfig() (config.GenerationConfig, error) {
	gen := config.Default().Generation
	gen.Believers = in.Believers
	gen.Sceptics = in.Sceptics
	gen.Neutrals = in.Neutrals
	gen.RandomRelations = in.RandomRelations

	for _, r := range []struct {
		dst *string
		src string
	}{
		{&gen.Relations.Believer, in.BelieverRelation},
		{&gen.Relations.Sceptic, in.ScepticRelation},
		{&gen.Relations.Neutral, in.NeutralRelation},
	} {
		if r.src != "" {
			*r.dst = r.src
		}
	}

	kind, err := population.ParseDistribution(in.Charisma)
	if err != nil {
		return gen, &population.ConfigError{Field: "charisma", Reason: err.Error()}
	}
	gen.Charisma = population.Distribution{Kind: kind, Mean: in.CharismaMean, StdDev: in.CharismaStdDev}

	kind, err = population.ParseDistribution(in.Personal)
	if err != nil {
		return gen, &population.ConfigError{Field: "personal_parameter", Reason: err.Error()}
	}
	if kind == population.Normal {
		gen.PersonalParameter = population.Distribution{Kind: kind, Mean: in.PersonalMean, StdDev: in.PersonalStdDev}
	} else {
		gen.PersonalParameter.Kind = kind
		if in.PersonalMin != nil {
			gen.PersonalParameter.Min = in.PersonalMin
		}
		if in.PersonalMax != nil {
			gen.PersonalParameter.Max = in.PersonalMax
		}
	}
	return gen, nil
}
