// Package constants provides named constants used throughout the agentgen codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Relation strengths between two agents. Every relation value written to a
// population file is one of these four.
const (
	// RelationEnemy is the bond strength of agents that oppose each other.
	RelationEnemy = 0.75

	// RelationNeutral is the bond strength when there is no direct link.
	// It is also the fallback for an unrecognized relation choice.
	RelationNeutral = 1.0

	// RelationFriend is the bond strength between friends.
	RelationFriend = 1.25

	// RelationFamily is the bond strength between family members.
	RelationFamily = 1.5
)

// Opinion sub-intervals per category. The three intervals partition [0,1].
const (
	// ScepticOpinionMax is the upper bound of a sceptic's opinion (lower bound is 0).
	ScepticOpinionMax = 1.0 / 3.0

	// BelieverOpinionMin is the lower bound of a believer's opinion (upper bound is 1).
	BelieverOpinionMin = 2.0 / 3.0
)

// Sampling ranges and clip bounds.
const (
	// CharismaMin and CharismaMax bound every charisme value.
	CharismaMin = 0.0
	CharismaMax = 1.0

	// PersonalParameterClipMin and PersonalParameterClipMax bound a personal
	// parameter drawn from a normal distribution.
	PersonalParameterClipMin = 0.0
	PersonalParameterClipMax = 6.0

	// DefaultPersonalParameterMin and DefaultPersonalParameterMax are the
	// uniform bounds used when no personal parameter range is configured.
	DefaultPersonalParameterMin = 0.1
	DefaultPersonalParameterMax = 1.5
)

// Precision is the number of decimal digits kept for every numeric field.
const Precision = 2

// Output defaults
const (
	// DefaultOutputFile is the file written by generate when no output is given.
	DefaultOutputFile = "agents.json"

	// AppDirName is the per-user directory holding config, history and traces.
	AppDirName = ".agentgen"
)
