package mcp

import "github.com/gophecy/agentgen/internal/population"

// GenerateInput defines the input for the agentgen_generate tool.
type GenerateInput struct {
	Believers int `json:"believers,omitempty" jsonschema:"Number of believer agents (opinion in [2/3, 1])"`
	Sceptics  int `json:"sceptics,omitempty" jsonschema:"Number of sceptic agents (opinion in [0, 1/3])"`
	Neutrals  int `json:"neutrals,omitempty" jsonschema:"Number of neutral agents (opinion in [1/3, 2/3])"`

	RandomRelations  bool   `json:"random_relations,omitempty" jsonschema:"Draw every relation at random instead of one value per category"`
	BelieverRelation string `json:"believer_relation,omitempty" jsonschema:"Relation of believers to peers: 1 Ennemi, 2 Pas de lien direct, 3 Amis, 4 Famille (default 2)"`
	ScepticRelation  string `json:"sceptic_relation,omitempty" jsonschema:"Relation of sceptics to peers, same codes as believer_relation"`
	NeutralRelation  string `json:"neutral_relation,omitempty" jsonschema:"Relation of neutrals to peers, same codes as believer_relation"`

	Charisma       string   `json:"charisma,omitempty" jsonschema:"Charisma distribution: uniform (default) or normal"`
	CharismaMean   *float64 `json:"charisma_mean,omitempty" jsonschema:"Mean of normal charisma"`
	CharismaStdDev *float64 `json:"charisma_std_dev,omitempty" jsonschema:"Standard deviation of normal charisma"`

	Personal       string   `json:"personal,omitempty" jsonschema:"Personal parameter distribution: uniform (default) or normal"`
	PersonalMin    *float64 `json:"personal_min,omitempty" jsonschema:"Lower bound of uniform personal parameter (default 0.1)"`
	PersonalMax    *float64 `json:"personal_max,omitempty" jsonschema:"Upper bound of uniform personal parameter (default 1.5)"`
	PersonalMean   *float64 `json:"personal_mean,omitempty" jsonschema:"Mean of normal personal parameter"`
	PersonalStdDev *float64 `json:"personal_std_dev,omitempty" jsonschema:"Standard deviation of normal personal parameter"`

	Seed   uint64 `json:"seed,omitempty" jsonschema:"Random seed; 0 picks one from the clock"`
	Output string `json:"output,omitempty" jsonschema:"Output file relative to the server root (default agents.json)"`
	Format string `json:"format,omitempty" jsonschema:"Output format: json or yaml (default from the file extension)"`
}

// GenerateOutput defines the output for the agentgen_generate tool.
type GenerateOutput struct {
	Path      string             `json:"path" jsonschema:"Absolute path of the written file"`
	Count     int                `json:"count" jsonschema:"Number of agents generated"`
	Seed      uint64             `json:"seed" jsonschema:"Seed used, for reproducing the population"`
	RunID     string             `json:"run_id,omitempty" jsonschema:"History run ID when history is enabled"`
	Fallbacks []string           `json:"fallbacks,omitempty" jsonschema:"Categories whose relation choice was not recognized and fell back to 1.0"`
	Summary   population.Summary `json:"summary" jsonschema:"Counts and means of the generated population"`
	Message   string             `json:"message" jsonschema:"Human-readable result message"`
}

// InspectInput defines the input for the agentgen_inspect tool.
type InspectInput struct {
	Path string `json:"path" jsonschema:"Population file to inspect, relative to the server root"`
}

// InspectOutput defines the output for the agentgen_inspect tool.
type InspectOutput struct {
	Path    string             `json:"path" jsonschema:"Absolute path of the inspected file"`
	Summary population.Summary `json:"summary" jsonschema:"Counts and means of the population"`
	Issues  []string           `json:"issues,omitempty" jsonschema:"Structural problems found"`
	Valid   bool               `json:"valid" jsonschema:"True when no issues were found"`
}
