// Package population generates populations of simulated agents for the
// opinion-dynamics simulation and checks their structure.
package population

import (
	"fmt"

	"github.com/gophecy/agentgen/internal/constants"
)

// Category is the opinion camp an agent starts in.
type Category string

const (
	// Believer agents start with an opinion in [2/3, 1].
	Believer Category = "Believer"

	// Sceptic agents start with an opinion in [0, 1/3].
	Sceptic Category = "Sceptic"

	// Neutral agents start with an opinion in [1/3, 2/3].
	Neutral Category = "Neutral"
)

// Categories returns the categories in generation order.
func Categories() []Category {
	return []Category{Believer, Sceptic, Neutral}
}

// Valid returns true if the category is a recognized value.
func (c Category) Valid() bool {
	switch c {
	case Believer, Sceptic, Neutral:
		return true
	}
	return false
}

// OpinionRange returns the closed interval an opinion of this category is drawn from.
func (c Category) OpinionRange() (lo, hi float64) {
	switch c {
	case Believer:
		return constants.BelieverOpinionMin, 1
	case Sceptic:
		return 0, constants.ScepticOpinionMax
	default:
		return constants.ScepticOpinionMax, constants.BelieverOpinionMin
	}
}

// ClassifyOpinion returns the category the simulation assigns to an opinion
// read from a population file: above 2/3 is a believer, above 1/3 is neutral,
// anything else is a sceptic.
func ClassifyOpinion(opinion float64) Category {
	switch {
	case opinion > constants.BelieverOpinionMin:
		return Believer
	case opinion > constants.ScepticOpinionMax:
		return Neutral
	default:
		return Sceptic
	}
}

// SubType is a behavioral tag layered on top of an agent's category.
type SubType string

const (
	SubTypeNone      SubType = "None"
	SubTypePirate    SubType = "Pirate"
	SubTypeConverter SubType = "Converter"
)

// SubTypes returns every subtype. Generation picks among them uniformly.
func SubTypes() []SubType {
	return []SubType{SubTypeNone, SubTypePirate, SubTypeConverter}
}

// Valid returns true if the subtype is a recognized value.
func (s SubType) Valid() bool {
	switch s {
	case SubTypeNone, SubTypePirate, SubTypeConverter:
		return true
	}
	return false
}

// Agent is one simulated entity as written to a population file.
// Field order matches the file layout.
type Agent struct {
	// ID is the sequential label "Agent<i>".
	ID string `json:"id" yaml:"id"`

	// Opinion lies in the sub-interval of [0,1] owned by the agent's category.
	Opinion float64 `json:"opinion" yaml:"opinion"`

	// Charisme maps every other agent's ID to this agent's influence weight
	// toward that peer, in [0,1].
	Charisme map[string]float64 `json:"charisme" yaml:"charisme"`

	// Relation maps every other agent's ID to a bond strength taken from
	// RelationValues.
	Relation map[string]float64 `json:"relation" yaml:"relation"`

	// PersonalParameter is an intrinsic trait independent of social ties.
	PersonalParameter float64 `json:"personalParameter" yaml:"personalParameter"`

	SubType SubType `json:"subType" yaml:"subType"`

	// Category is known for generated agents only; it is not part of the file.
	Category Category `json:"-" yaml:"-"`
}

// AgentID returns the label of the agent at index i.
func AgentID(i int) string {
	return fmt.Sprintf("Agent%d", i)
}
