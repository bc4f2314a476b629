package population

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestGenerateStructureProperty checks that for any counts, relation choice
// and seed the population has the requested size, a complete peer structure
// and opinions inside their category ranges.
func TestGenerateStructureProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("population structure holds", prop.ForAll(
		func(believers, sceptics, neutrals, relationIdx int, random bool, seed uint64) bool {
			relation := RelationValues()[relationIdx]
			opts := DefaultOptions()
			opts.Believers, opts.Sceptics, opts.Neutrals = believers, sceptics, neutrals
			opts.RandomRelations = random
			opts.Relations = CategoryRelations{Believer: relation, Sceptic: relation}

			agents, err := Generate(opts, testRand(seed))
			if err != nil {
				return false
			}
			if len(agents) != believers+sceptics+neutrals {
				return false
			}
			if len(Check(agents)) != 0 {
				return false
			}

			for _, a := range agents {
				lo, hi := a.Category.OpinionRange()
				if a.Opinion < Round(lo) || a.Opinion > Round(hi) {
					return false
				}
				if len(a.Charisme) != len(agents)-1 || len(a.Relation) != len(agents)-1 {
					return false
				}
				if !a.SubType.Valid() {
					return false
				}
				for _, v := range a.Relation {
					if !IsRelationValue(v) {
						return false
					}
					if !random && v != opts.Relations.For(a.Category) {
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(0, 6),
		gen.IntRange(0, 6),
		gen.IntRange(0, 6),
		gen.IntRange(0, 3),
		gen.Bool(),
		gen.UInt64Range(1, 1<<62),
	))

	properties.TestingRun(t)
}

// TestPersonalParameterRangeProperty checks the personal parameter bounds for
// both sampling modes.
func TestPersonalParameterRangeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("uniform stays in [min,max] after rounding", prop.ForAll(
		func(lo, width float64, seed uint64) bool {
			hi := lo + width
			opts := DefaultOptions()
			opts.Neutrals = 5
			opts.PersonalParameter = UniformDist(lo, hi)

			agents, err := Generate(opts, testRand(seed))
			if err != nil {
				var cfgErr *ConfigError
				rlo, rhi := roundedRange(lo, hi)
				return errors.As(err, &cfgErr) && rlo > rhi
			}
			for _, a := range agents {
				if a.PersonalParameter < lo || a.PersonalParameter > hi {
					return false
				}
				if a.PersonalParameter != Round(a.PersonalParameter) {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0, 3),
		gen.Float64Range(0, 0.05),
		gen.UInt64Range(1, 1<<62),
	))

	properties.Property("normal is clipped to [0,6]", prop.ForAll(
		func(mean, stdDev float64, seed uint64) bool {
			opts := DefaultOptions()
			opts.Sceptics = 5
			opts.PersonalParameter = NormalDist(mean, stdDev)

			agents, err := Generate(opts, testRand(seed))
			if err != nil {
				return false
			}
			for _, a := range agents {
				if a.PersonalParameter < 0 || a.PersonalParameter > 6 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(-10, 10),
		gen.Float64Range(0, 10),
		gen.UInt64Range(1, 1<<62),
	))

	properties.TestingRun(t)
}
