package binning

import "sort"

// Numerical finds the best value<=threshold split, scanning every
// boundary between consecutive distinct sorted values rather than
// pre-bucketing: correctness, not bucket count, is what the reduction
// formula depends on.
func Numerical(matches []MatchDatum, lambda float64, minNumSamples int) (*CandidateSplit, bool) {
	return scanOrdered(matches, lambda, minNumSamples, false)
}

// Discrete finds the best split over a discrete (integer-valued)
// attribute, honoring its natural order: candidate boundaries are
// consecutive integer prefixes, not arbitrary sets.
func Discrete(matches []MatchDatum, lambda float64, minNumSamples int) (*CandidateSplit, bool) {
	return scanOrdered(matches, lambda, minNumSamples, true)
}

// MatchDatum is the (value, cat, gradient, curvature) tuple a binner
// scans — one per population row, carrying the row's aggregated value for
// the candidate under evaluation. It decouples the binner from the tree
// package, which controls extraction and null filtering once, up front.
type MatchDatum struct {
	Value float64
	Cat   int32
	G, H  float64
}

func scanOrdered(matches []MatchDatum, lambda float64, minNumSamples int, discrete bool) (*CandidateSplit, bool) {
	if len(matches) < minNumSamples {
		return nil, false
	}
	sorted := append([]MatchDatum(nil), matches...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	var totalG, totalH float64
	for _, m := range sorted {
		totalG += m.G
		totalH += m.H
	}

	var best *CandidateSplit
	var sumGLeft, sumHLeft float64
	for i := 0; i < len(sorted)-1; i++ {
		sumGLeft += sorted[i].G
		sumHLeft += sorted[i].H
		if sorted[i].Value == sorted[i+1].Value {
			continue // boundary inside a run of equal values: not a valid threshold
		}
		sumGRight := totalG - sumGLeft
		sumHRight := totalH - sumHLeft
		red := reduction(sumGLeft, sumHLeft, sumGRight, sumHRight, lambda)
		if best == nil || red > best.Reduction {
			best = &CandidateSplit{
				Predicate: Predicate{Kind: kindFor(discrete), Threshold: sorted[i].Value},
				Reduction: red,
				SumGLeft:  sumGLeft, SumHLeft: sumHLeft,
				SumGRight: sumGRight, SumHRight: sumHRight,
			}
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

func kindFor(discrete bool) PredicateKind {
	if discrete {
		return KindDiscreteRange
	}
	return KindThreshold
}
