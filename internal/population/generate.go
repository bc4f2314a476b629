package population

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/gophecy/agentgen/internal/constants"
)

// NewRand returns a random source seeded with seed, or with the current time
// when seed is 0. The seed actually used is returned so a run can be replayed.
func NewRand(seed uint64) (*rand.Rand, uint64) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed>>32|seed<<32)), seed
}

// Generate builds the population described by opts, drawing every random
// value from rng. Agents are returned in generation order.
//
// Per agent the draws happen in a fixed order: opinion, charisme toward each
// peer, relation toward each peer, personal parameter, subtype. A given seed
// therefore always yields the same population.
func Generate(opts Options, rng *rand.Rand) ([]Agent, error) {
	if rng == nil {
		return nil, &ConfigError{Field: "rng", Reason: "a random source is required"}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	charisma := newSampler(opts.Charisma, constants.CharismaMin, constants.CharismaMax, false)
	personal := newSampler(opts.PersonalParameter,
		constants.PersonalParameterClipMin, constants.PersonalParameterClipMax, true)
	personalLo, personalHi := personalBounds(opts.PersonalParameter)
	relations := RelationValues()
	subTypes := SubTypes()

	total := opts.Total()
	ids := make([]string, total)
	for i := range ids {
		ids[i] = AgentID(i)
	}

	agents := make([]Agent, 0, total)
	for i := 0; i < total; i++ {
		category := opts.CategoryAt(i)
		lo, hi := category.OpinionRange()

		agent := Agent{
			ID:       ids[i],
			Opinion:  Round(lo + rng.Float64()*(hi-lo)),
			Charisme: make(map[string]float64, total-1),
			Relation: make(map[string]float64, total-1),
			Category: category,
		}

		for j, peer := range ids {
			if j == i {
				continue
			}
			agent.Charisme[peer] = Round(charisma(rng))
		}

		categoryRelation := opts.Relations.For(category)
		for j, peer := range ids {
			if j == i {
				continue
			}
			if opts.RandomRelations {
				agent.Relation[peer] = relations[rng.IntN(len(relations))]
			} else {
				agent.Relation[peer] = categoryRelation
			}
		}

		agent.PersonalParameter = Clip(Round(personal(rng)), personalLo, personalHi)
		agent.SubType = subTypes[rng.IntN(len(subTypes))]

		agents = append(agents, agent)
	}

	return agents, nil
}

// sampler draws one value from a distribution.
type sampler func(rng *rand.Rand) float64

// newSampler builds a sampler for a validated distribution. Normal draws are
// clipped to [clipLo, clipHi]. Uniform draws cover [Min, Max] when useRange
// is set, else [clipLo, clipHi].
func newSampler(d Distribution, clipLo, clipHi float64, useRange bool) sampler {
	kind, _ := ParseDistribution(string(d.Kind))
	if kind == Normal {
		mean, stdDev := *d.Mean, *d.StdDev
		return func(rng *rand.Rand) float64 {
			return Clip(mean+rng.NormFloat64()*stdDev, clipLo, clipHi)
		}
	}

	lo, hi := clipLo, clipHi
	if useRange && d.Min != nil && d.Max != nil {
		lo, hi = *d.Min, *d.Max
	}
	return func(rng *rand.Rand) float64 {
		return lo + rng.Float64()*(hi-lo)
	}
}

// personalBounds returns the range a rounded personal parameter must stay
// in. For uniform sampling that is [min, max] narrowed to two decimals, so
// rounding a draw near a bound cannot step outside it.
func personalBounds(d Distribution) (lo, hi float64) {
	if kind, _ := ParseDistribution(string(d.Kind)); kind == Uniform {
		return roundedRange(*d.Min, *d.Max)
	}
	return constants.PersonalParameterClipMin, constants.PersonalParameterClipMax
}

// roundedRange returns the smallest and largest two-decimal values inside
// [lo, hi]. The result is inverted when there are none.
func roundedRange(lo, hi float64) (float64, float64) {
	const eps = 1e-9
	scale := math.Pow10(constants.Precision)
	return math.Ceil(lo*scale-eps) / scale, math.Floor(hi*scale+eps) / scale
}

// Round rounds v to two decimal digits, halves away from zero.
func Round(v float64) float64 {
	scale := math.Pow10(constants.Precision)
	return math.Round(v*scale) / scale
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
