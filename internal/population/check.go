package population

import (
	"fmt"
	"math"
	"sort"

	"github.com/gophecy/agentgen/internal/constants"
)

// Issue describes a structural problem found in a population.
type Issue struct {
	AgentID string `json:"agent_id"`
	Field   string `json:"field"`            // "id", "opinion", "charisme", "relation", "personalParameter", "subType"
	RefID   string `json:"ref_id,omitempty"` // peer involved, if any
	Problem string `json:"problem"`          // "duplicate", "self-reference", "missing", "unknown-peer", "out-of-range", "unrounded", "invalid"
}

// String returns a human-readable description of the issue.
func (i Issue) String() string {
	if i.RefID != "" {
		return fmt.Sprintf("%s: %s.%s[%s]", i.Problem, i.AgentID, i.Field, i.RefID)
	}
	return fmt.Sprintf("%s: %s.%s", i.Problem, i.AgentID, i.Field)
}

// Check verifies the invariants every population file must satisfy:
// unique IDs, one charisme and one relation entry per other agent and none
// for the agent itself, values inside their domains and rounded to two
// decimals, and a known subtype. Issues are reported in agent order.
func Check(agents []Agent) []Issue {
	var issues []Issue

	ids := make(map[string]bool, len(agents))
	for _, a := range agents {
		if ids[a.ID] {
			issues = append(issues, Issue{AgentID: a.ID, Field: "id", Problem: "duplicate"})
		}
		ids[a.ID] = true
	}

	for _, a := range agents {
		if a.Opinion < 0 || a.Opinion > 1 {
			issues = append(issues, Issue{AgentID: a.ID, Field: "opinion", Problem: "out-of-range"})
		} else if !rounded(a.Opinion) {
			issues = append(issues, Issue{AgentID: a.ID, Field: "opinion", Problem: "unrounded"})
		}

		issues = append(issues, checkPeers(a.ID, "charisme", a.Charisme, ids, func(v float64) bool {
			return v >= constants.CharismaMin && v <= constants.CharismaMax
		})...)
		issues = append(issues, checkPeers(a.ID, "relation", a.Relation, ids, IsRelationValue)...)

		if !rounded(a.PersonalParameter) {
			issues = append(issues, Issue{AgentID: a.ID, Field: "personalParameter", Problem: "unrounded"})
		}
		if !a.SubType.Valid() {
			issues = append(issues, Issue{AgentID: a.ID, Field: "subType", Problem: "invalid"})
		}
	}

	return issues
}

// checkPeers validates one per-peer map of agent id against the set of all IDs.
func checkPeers(id, field string, values map[string]float64, ids map[string]bool, inDomain func(float64) bool) []Issue {
	var issues []Issue

	peers := make([]string, 0, len(values))
	for peer := range values {
		peers = append(peers, peer)
	}
	sort.Strings(peers)

	for _, peer := range peers {
		v := values[peer]
		switch {
		case peer == id:
			issues = append(issues, Issue{AgentID: id, Field: field, RefID: peer, Problem: "self-reference"})
		case !ids[peer]:
			issues = append(issues, Issue{AgentID: id, Field: field, RefID: peer, Problem: "unknown-peer"})
		case !inDomain(v):
			issues = append(issues, Issue{AgentID: id, Field: field, RefID: peer, Problem: "out-of-range"})
		case !rounded(v):
			issues = append(issues, Issue{AgentID: id, Field: field, RefID: peer, Problem: "unrounded"})
		}
	}

	all := make([]string, 0, len(ids))
	for peer := range ids {
		all = append(all, peer)
	}
	sort.Strings(all)
	for _, peer := range all {
		if peer == id {
			continue
		}
		if _, ok := values[peer]; !ok {
			issues = append(issues, Issue{AgentID: id, Field: field, RefID: peer, Problem: "missing"})
		}
	}

	return issues
}

// rounded reports whether v carries at most two decimal digits.
func rounded(v float64) bool {
	scaled := v * math.Pow10(constants.Precision)
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}
