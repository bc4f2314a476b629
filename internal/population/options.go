package population

import (
	"fmt"
	"math"
	"strings"

	"github.com/gophecy/agentgen/internal/constants"
)

// ConfigError reports a missing or invalid generation parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// DistributionKind selects how a value is sampled.
type DistributionKind string

const (
	Uniform DistributionKind = "uniform"
	Normal  DistributionKind = "normal"
)

// ParseDistribution maps a distribution name (case-insensitive) to its kind.
// An empty name selects Uniform.
func ParseDistribution(name string) (DistributionKind, error) {
	switch DistributionKind(strings.ToLower(strings.TrimSpace(name))) {
	case "", Uniform:
		return Uniform, nil
	case Normal:
		return Normal, nil
	}
	return "", fmt.Errorf("unknown distribution %q (valid: uniform, normal)", name)
}

// Distribution describes a sampling mode and its parameters. Parameters are
// pointers so an absent value can be told apart from zero.
type Distribution struct {
	Kind DistributionKind `json:"kind" yaml:"kind"`

	// Mean and StdDev are required for Normal.
	Mean   *float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	StdDev *float64 `json:"std_dev,omitempty" yaml:"std_dev,omitempty"`

	// Min and Max are required for a uniform personal parameter.
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// UniformDist returns a uniform distribution over [lo, hi].
func UniformDist(lo, hi float64) Distribution {
	return Distribution{Kind: Uniform, Min: Float(lo), Max: Float(hi)}
}

// NormalDist returns a normal distribution with the given mean and standard deviation.
func NormalDist(mean, stdDev float64) Distribution {
	return Distribution{Kind: Normal, Mean: Float(mean), StdDev: Float(stdDev)}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// String renders the distribution for logs, e.g. "normal(mean=0.5, std_dev=0.1)".
func (d Distribution) String() string {
	kind, err := ParseDistribution(string(d.Kind))
	if err != nil {
		return string(d.Kind)
	}
	switch kind {
	case Normal:
		return fmt.Sprintf("normal(mean=%s, std_dev=%s)", fmtParam(d.Mean), fmtParam(d.StdDev))
	default:
		if d.Min == nil && d.Max == nil {
			return "uniform"
		}
		return fmt.Sprintf("uniform(min=%s, max=%s)", fmtParam(d.Min), fmtParam(d.Max))
	}
}

func fmtParam(p *float64) string {
	if p == nil {
		return "?"
	}
	return fmt.Sprintf("%g", *p)
}

// validate checks the distribution. field prefixes error fields;
// needRange makes Min and Max mandatory for uniform sampling.
func (d Distribution) validate(field string, needRange bool) (DistributionKind, error) {
	kind, err := ParseDistribution(string(d.Kind))
	if err != nil {
		return "", &ConfigError{Field: field + ".kind", Reason: err.Error()}
	}

	switch kind {
	case Normal:
		if d.Mean == nil {
			return "", &ConfigError{Field: field + ".mean", Reason: "required for normal distribution"}
		}
		if d.StdDev == nil {
			return "", &ConfigError{Field: field + ".std_dev", Reason: "required for normal distribution"}
		}
		if !finite(*d.Mean) {
			return "", &ConfigError{Field: field + ".mean", Reason: "must be a finite number"}
		}
		if !finite(*d.StdDev) || *d.StdDev < 0 {
			return "", &ConfigError{Field: field + ".std_dev", Reason: fmt.Sprintf("must be a finite non-negative number, got %g", *d.StdDev)}
		}
	case Uniform:
		if !needRange {
			return kind, nil
		}
		if d.Min == nil {
			return "", &ConfigError{Field: field + ".min", Reason: "required for uniform distribution"}
		}
		if d.Max == nil {
			return "", &ConfigError{Field: field + ".max", Reason: "required for uniform distribution"}
		}
		if !finite(*d.Min) || !finite(*d.Max) {
			return "", &ConfigError{Field: field, Reason: "min and max must be finite numbers"}
		}
		if *d.Min > *d.Max {
			return "", &ConfigError{Field: field, Reason: fmt.Sprintf("min %g is greater than max %g", *d.Min, *d.Max)}
		}
		if lo, hi := roundedRange(*d.Min, *d.Max); lo > hi {
			return "", &ConfigError{Field: field, Reason: fmt.Sprintf(
				"no value with %d decimals lies between min %g and max %g", constants.Precision, *d.Min, *d.Max)}
		}
	}
	return kind, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Options is the complete input of a generation pass.
type Options struct {
	// Agent counts per category. Believers come first, then sceptics, then neutrals.
	Believers int `json:"believers" yaml:"believers"`
	Sceptics  int `json:"sceptics" yaml:"sceptics"`
	Neutrals  int `json:"neutrals" yaml:"neutrals"`

	// RandomRelations draws every relation independently from RelationValues.
	// When false, Relations gives one value per category.
	RandomRelations bool              `json:"random_relations" yaml:"random_relations"`
	Relations       CategoryRelations `json:"relations" yaml:"relations"`

	// Charisma is sampled per ordered pair and clipped to [0,1].
	// Uniform charisma ignores Min and Max.
	Charisma Distribution `json:"charisma" yaml:"charisma"`

	// PersonalParameter is sampled per agent. Normal values are clipped to [0,6].
	PersonalParameter Distribution `json:"personal_parameter" yaml:"personal_parameter"`
}

// DefaultOptions returns options with uniform charisma, a uniform personal
// parameter over [0.1, 1.5] and neutral relations, with no agents.
func DefaultOptions() Options {
	return Options{
		Charisma: Distribution{Kind: Uniform},
		PersonalParameter: UniformDist(
			constants.DefaultPersonalParameterMin,
			constants.DefaultPersonalParameterMax,
		),
	}
}

// Total returns the number of agents the options produce.
func (o Options) Total() int {
	return o.Believers + o.Sceptics + o.Neutrals
}

// CategoryAt returns the category of the agent at index i.
func (o Options) CategoryAt(i int) Category {
	switch {
	case i < o.Believers:
		return Believer
	case i < o.Believers+o.Sceptics:
		return Sceptic
	default:
		return Neutral
	}
}

// Validate checks that the options can drive a generation pass.
func (o Options) Validate() error {
	counts := []struct {
		field string
		n     int
	}{
		{"believers", o.Believers},
		{"sceptics", o.Sceptics},
		{"neutrals", o.Neutrals},
	}
	for _, c := range counts {
		if c.n < 0 {
			return &ConfigError{Field: c.field, Reason: fmt.Sprintf("must be non-negative, got %d", c.n)}
		}
	}

	if !o.RandomRelations {
		for _, c := range Categories() {
			if v := o.Relations.For(c); !IsRelationValue(v) {
				return &ConfigError{
					Field:  "relations." + strings.ToLower(string(c)),
					Reason: fmt.Sprintf("%g is not one of 0.75, 1, 1.25, 1.5", v),
				}
			}
		}
	}

	if _, err := o.Charisma.validate("charisma", false); err != nil {
		return err
	}
	if _, err := o.PersonalParameter.validate("personal_parameter", true); err != nil {
		return err
	}
	return nil
}
