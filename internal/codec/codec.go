// Package codec writes populations to files and reads them back.
// Files are either JSON or YAML; both hold a sequence of agent objects with
// the fields id, opinion, charisme, relation, personalParameter and subType.
package codec

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gophecy/agentgen/internal/population"
	"gopkg.in/yaml.v3"
)

// Format is a population file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// indent is the indentation used by both encodings.
const indent = "    "

// ParseFormat maps a format name to a Format. An empty name returns "" so the
// caller can fall back to FormatFromPath.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (valid: json, yaml)", name)
}

// FormatFromPath picks the format implied by a file extension.
// Anything other than .yaml or .yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Marshal encodes agents in the given format. Peer maps are written in agent
// order (Agent2 before Agent10) in both formats, so the same population always
// produces the same bytes.
func Marshal(agents []population.Agent, format Format) ([]byte, error) {
	if agents == nil {
		agents = []population.Agent{}
	}

	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(len(indent))
		if err := enc.Encode(agents); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("closing yaml encoder: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(toJSON(agents), "", indent)
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// jsonAgent is the JSON layout of an agent.
type jsonAgent struct {
	ID                string             `json:"id"`
	Opinion           float64            `json:"opinion"`
	Charisme          peerMap            `json:"charisme"`
	Relation          peerMap            `json:"relation"`
	PersonalParameter float64            `json:"personalParameter"`
	SubType           population.SubType `json:"subType"`
}

func toJSON(agents []population.Agent) []jsonAgent {
	out := make([]jsonAgent, len(agents))
	for i, a := range agents {
		out[i] = jsonAgent{
			ID:                a.ID,
			Opinion:           a.Opinion,
			Charisme:          peerMap(a.Charisme),
			Relation:          peerMap(a.Relation),
			PersonalParameter: a.PersonalParameter,
			SubType:           a.SubType,
		}
	}
	return out
}

// peerMap encodes as a JSON object whose keys follow comparePeerIDs.
type peerMap map[string]float64

func (m peerMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, comparePeerIDs)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// comparePeerIDs orders "Agent<n>" labels by n. Other labels sort after
// them, by plain string order.
func comparePeerIDs(a, b string) int {
	na, okA := agentIndex(a)
	nb, okB := agentIndex(b)
	switch {
	case okA && okB:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}

func agentIndex(id string) (int, bool) {
	digits, ok := strings.CutPrefix(id, "Agent")
	if !ok || digits == "" || digits[0] < '0' || digits[0] > '9' {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Unmarshal decodes a population file body. An empty format sniffs the data:
// a body starting with '[' is JSON, anything else YAML.
func Unmarshal(data []byte, format Format) ([]population.Agent, error) {
	if format == "" {
		format = FormatYAML
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			format = FormatJSON
		}
	}

	var agents []population.Agent
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &agents); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &agents); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	for i := range agents {
		if agents[i].Charisme == nil {
			agents[i].Charisme = map[string]float64{}
		}
		if agents[i].Relation == nil {
			agents[i].Relation = map[string]float64{}
		}
	}
	if agents == nil {
		agents = []population.Agent{}
	}
	return agents, nil
}

// Write encodes agents and stores them at path. The whole file is encoded in
// memory first, then written to a temp file next to path and renamed into
// place, so a failure never leaves a partial population behind. An empty
// format is derived from the path.
func Write(path string, agents []population.Agent, format Format) error {
	if format == "" {
		format = FormatFromPath(path)
	}

	data, err := Marshal(agents, format)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing population: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming population file: %w", err)
	}

	return nil
}

// Read loads a population file. The format comes from the extension for
// .json, .yaml and .yml files and is sniffed otherwise.
func Read(path string) ([]population.Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading population file: %w", err)
	}

	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		format = FormatJSON
	case ".yaml", ".yml":
		format = FormatYAML
	}

	agents, err := Unmarshal(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return agents, nil
}
