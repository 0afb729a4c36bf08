// Package binning implements the four binners (numerical, categorical,
// discrete, word) plus the min/max support pass. Each binner scans one
// (value, gradient, curvature) datum per population row — the value being
// the row's aggregated scalar for the candidate under evaluation — and
// returns the single best-reduction split over that attribute.
package binning

import (
	"math"

	"github.com/sqlnet/relboost/matchmaker"
)

// PredicateKind identifies which attribute shape a Predicate tests.
type PredicateKind int

const (
	KindThreshold PredicateKind = iota
	KindCategorySet
	KindDiscreteRange
	KindWordSet
)

// Predicate is the accepted split test for one candidate's winning
// boundary, evaluated against a population row's aggregated value for the
// candidate (for word sets: the union of the row's matched token lists).
// Categories is kept sorted ascending so two Predicates with the same
// left set serialize to identical bytes (the Model artifact must
// re-serialize byte-for-byte).
type Predicate struct {
	Kind       PredicateKind
	Threshold  float64 // KindThreshold: value <= Threshold; KindDiscreteRange: discrete value <= Threshold
	Categories []int32 // KindCategorySet: category ∈ Categories; sorted ascending
	Word       int32   // KindWordSet: word ∈ text
}

// TestFloat evaluates a KindThreshold or KindDiscreteRange predicate.
func (p Predicate) TestFloat(v float64) bool { return v <= p.Threshold }

// TestCategory evaluates a KindCategorySet predicate by binary search over
// the sorted left set.
func (p Predicate) TestCategory(c int32) bool {
	lo, hi := 0, len(p.Categories)
	for lo < hi {
		mid := (lo + hi) / 2
		if p.Categories[mid] < c {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(p.Categories) && p.Categories[lo] == c
}

// TestWords evaluates a KindWordSet predicate against a match's token list.
func (p Predicate) TestWords(words []int32) bool {
	for _, w := range words {
		if w == p.Word {
			return true
		}
	}
	return false
}

// CandidateSplit is the best split found for one (attribute, aggregation)
// candidate: a predicate plus the gradient/curvature sums on each side,
// from which provisional leaf weights and downstream gain comparisons are
// derived.
type CandidateSplit struct {
	Predicate          Predicate
	Reduction          float64
	SumGLeft, SumHLeft   float64
	SumGRight, SumHRight float64
}

// FloatExtractor pulls a numerical/discrete/timestamp-diff value (and a
// null flag) out of one match.
type FloatExtractor func(*matchmaker.Match) (value float64, isNull bool)

// CatExtractor pulls a categorical value out of one match.
type CatExtractor func(*matchmaker.Match) (cat int32, isNull bool)

// WordsExtractor pulls the token list of a match's text attribute.
type WordsExtractor func(*matchmaker.Match) []int32

// The reduction of a boundary is
//   (Σg_left)²/(Σh_left+λ) + (Σg_right)²/(Σh_right+λ) − (Σg_total)²/(Σh_total+λ)
// Bins with Σh+λ < ε are treated as having reduction 0 for that side's
// term, guarding against a near-zero denominator.
const epsilon = 1e-12

func leafGain(sumG, sumH, lambda float64) float64 {
	denom := sumH + lambda
	if denom < epsilon {
		return 0
	}
	return (sumG * sumG) / denom
}

func reduction(gl, hl, gr, hr, lambda float64) float64 {
	total := leafGain(gl+gr, hl+hr, lambda)
	return leafGain(gl, hl, lambda) + leafGain(gr, hr, lambda) - total
}

// MinMax scans matches with extractor value, returning the non-null
// minimum, maximum, and count.
func MinMax(matches []matchmaker.Match, value FloatExtractor) (min, max float64, count int) {
	min, max = math.Inf(1), math.Inf(-1)
	for i := range matches {
		v, isNull := value(&matches[i])
		if isNull || math.IsNaN(v) {
			continue
		}
		count++
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if count == 0 {
		return math.NaN(), math.NaN(), 0
	}
	return min, max, count
}
