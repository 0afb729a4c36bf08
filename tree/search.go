package tree

import (
	"math"
	"sort"

	"github.com/sqlnet/relboost/aggregation"
	"github.com/sqlnet/relboost/binning"
	"github.com/sqlnet/relboost/matchmaker"
	"github.com/sqlnet/relboost/types"
)

// runBinner evaluates one (attribute, aggregation) candidate. The per-row
// aggregated scalar is computed first, then the binner scans one
// (value, gradient, curvature) datum per population row, so two candidates
// on the same column compete on reduction whenever their aggregations
// summarize the rows differently. Rows whose aggregated value is null are
// skipped.
func runBinner(c *Candidate, matches []matchmaker.Match, g, h []float64, lambda float64, minNumSamples int) (*binning.CandidateSplit, bool) {
	if c.Class == ClassText {
		byRow := wordsPerRow(*c, matches)
		rows := sortedWordRows(byRow)
		data := make([]binning.WordDatum, 0, len(rows))
		for _, row := range rows {
			data = append(data, binning.WordDatum{Words: byRow[row], G: g[row], H: h[row]})
		}
		return binning.Word(data, lambda, minNumSamples)
	}

	perRow := aggregatePerRow(*c, matches)
	rows := sortedRows(perRow)

	if splitsOnCategory(*c) {
		data := make([]binning.MatchDatum, 0, len(rows))
		for _, row := range rows {
			v := perRow[row]
			if math.IsNaN(v) {
				continue
			}
			data = append(data, binning.MatchDatum{Cat: int32(v), G: g[row], H: h[row]})
		}
		return binning.Categorical(data, lambda, minNumSamples)
	}

	data := make([]binning.MatchDatum, 0, len(rows))
	for _, row := range rows {
		v := perRow[row]
		if math.IsNaN(v) {
			continue
		}
		data = append(data, binning.MatchDatum{Value: v, G: g[row], H: h[row]})
	}
	if c.Class == ClassDiscrete {
		return binning.Discrete(data, lambda, minNumSamples)
	}
	return binning.Numerical(data, lambda, minNumSamples)
}

// splitsOnCategory reports whether the candidate's aggregated scalar is a
// category id (mode/first/last of a categorical column), making the
// category-set binner the right scan instead of a threshold sweep.
func splitsOnCategory(c Candidate) bool {
	return c.Class == ClassCategorical && aggregation.SplitsOnCategory(c.Aggregation)
}

// aggregatePerRow groups matches by population row and runs the
// candidate's aggregation, yielding the per-row scalar both the split
// search and the leaf-weight fit act on.
func aggregatePerRow(c Candidate, matches []matchmaker.Match) map[int32]float64 {
	byRow := map[int32][]aggregation.Point{}
	for _, m := range matches {
		byRow[m.PopRow] = append(byRow[m.PopRow], pointFor(c, m))
	}
	out := make(map[int32]float64, len(byRow))
	for row, pts := range byRow {
		out[row] = aggregation.Aggregate(c.Aggregation, pts)
	}
	return out
}

// wordsPerRow unions the token lists of every match belonging to one
// population row; a word-set split routes the whole row by whether any of
// its matched texts contains the word.
func wordsPerRow(c Candidate, matches []matchmaker.Match) map[int32][]int32 {
	byRow := map[int32][]int32{}
	for _, m := range matches {
		byRow[m.PopRow] = append(byRow[m.PopRow], c.TextCol.At(int(m.PeriphRow))...)
	}
	return byRow
}

func sortedRows(perRow map[int32]float64) []int32 {
	rows := make([]int32, 0, len(perRow))
	for row := range perRow {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i] < rows[j] })
	return rows
}

func sortedWordRows(byRow map[int32][]int32) []int32 {
	rows := make([]int32, 0, len(byRow))
	for row := range byRow {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i] < rows[j] })
	return rows
}

func pointFor(c Candidate, m matchmaker.Match) aggregation.Point {
	var value, tm float64
	switch c.Class {
	case ClassNumerical, ClassDiscrete:
		if v, ok := extractFloat(c, m); ok {
			value = v
		} else {
			value = math.NaN()
		}
	case ClassCategorical:
		cat := c.CatCol.Int(int(m.PeriphRow))
		if types.IsNullCat(cat) {
			value = math.NaN()
		} else {
			value = float64(cat)
		}
	default:
		value = math.NaN()
	}
	if c.TimeCol != nil {
		tm = c.TimeCol.Float(int(m.PeriphRow))
	}
	return aggregation.Point{Value: value, Time: tm}
}
