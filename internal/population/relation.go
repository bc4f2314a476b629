package population

import (
	"github.com/gophecy/agentgen/internal/constants"
	"github.com/gophecy/agentgen/internal/sanitize"
)

// RelationValues returns the relation-strength domain in ascending order.
func RelationValues() []float64 {
	return []float64{
		constants.RelationEnemy,
		constants.RelationNeutral,
		constants.RelationFriend,
		constants.RelationFamily,
	}
}

// IsRelationValue reports whether v belongs to the relation-strength domain.
func IsRelationValue(v float64) bool {
	for _, r := range RelationValues() {
		if v == r {
			return true
		}
	}
	return false
}

// RelationChoice is one of the four named relation options offered to users.
type RelationChoice struct {
	Code  string
	Label string
	Value float64
}

// RelationChoices lists the options in menu order. Codes "1" to "4" are what
// the interactive prompt accepts.
func RelationChoices() []RelationChoice {
	return []RelationChoice{
		{Code: "1", Label: "Ennemi", Value: constants.RelationEnemy},
		{Code: "2", Label: "Pas de lien direct", Value: constants.RelationNeutral},
		{Code: "3", Label: "Amis", Value: constants.RelationFriend},
		{Code: "4", Label: "Famille", Value: constants.RelationFamily},
	}
}

var relationAliases = map[string]float64{
	"1":                  constants.RelationEnemy,
	"ennemi":             constants.RelationEnemy,
	"enemy":              constants.RelationEnemy,
	"2":                  constants.RelationNeutral,
	"neutre":             constants.RelationNeutral,
	"neutral":            constants.RelationNeutral,
	"none":               constants.RelationNeutral,
	"pas de lien direct": constants.RelationNeutral,
	"3":                  constants.RelationFriend,
	"amis":               constants.RelationFriend,
	"ami":                constants.RelationFriend,
	"friend":             constants.RelationFriend,
	"4":                  constants.RelationFamily,
	"famille":            constants.RelationFamily,
	"family":             constants.RelationFamily,
}

// ParseRelationChoice maps a menu code or relation name (case-insensitive) to
// its bond strength. An unrecognized choice yields RelationNeutral with
// ok=false; callers decide whether to warn, it is never an error.
func ParseRelationChoice(choice string) (value float64, ok bool) {
	if v, found := relationAliases[sanitize.Choice(choice)]; found {
		return v, true
	}
	return constants.RelationNeutral, false
}

// CategoryRelations holds the relation value used toward every peer by agents
// of each category when relations are not randomized. A zero field means
// unspecified and resolves to RelationNeutral.
type CategoryRelations struct {
	Believer float64 `json:"believer,omitempty" yaml:"believer,omitempty"`
	Sceptic  float64 `json:"sceptic,omitempty" yaml:"sceptic,omitempty"`
	Neutral  float64 `json:"neutral,omitempty" yaml:"neutral,omitempty"`
}

// For returns the relation value of category c.
func (r CategoryRelations) For(c Category) float64 {
	var v float64
	switch c {
	case Believer:
		v = r.Believer
	case Sceptic:
		v = r.Sceptic
	case Neutral:
		v = r.Neutral
	}
	if v == 0 {
		return constants.RelationNeutral
	}
	return v
}

// Set stores v as the relation value of category c.
func (r *CategoryRelations) Set(c Category, v float64) {
	switch c {
	case Believer:
		r.Believer = v
	case Sceptic:
		r.Sceptic = v
	case Neutral:
		r.Neutral = v
	}
}
