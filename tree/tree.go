// Package tree implements the relational decision tree at the heart of the
// feature search. Each internal node carries a condition — an (attribute,
// aggregation) pair plus a split predicate over the per-row aggregated
// value — that routes whole population rows (and with them their matches)
// to its children; each leaf carries an (attribute, aggregation) pair and
// a weight. A leaf's output for a population row is
// aggregation(matches that reached it) * weight, and the summed leaf
// outputs across one tree form that tree's exported feature column.
package tree

import (
	"math"
	"sort"

	"github.com/sqlnet/relboost/aggregation"
	"github.com/sqlnet/relboost/binning"
	"github.com/sqlnet/relboost/lossfunction"
	"github.com/sqlnet/relboost/matchmaker"
	"github.com/sqlnet/relboost/types"
)

// AttrClass says which binner a candidate attribute is scanned with.
type AttrClass int

const (
	ClassNumerical AttrClass = iota
	ClassCategorical
	ClassDiscrete
	ClassText
)

// Candidate is one (peripheral attribute, aggregation) pair considered at
// every node, resolved against the peripheral table once up front by the
// caller (the model layer that owns the DataFrame and join graph) so this
// package never touches dataframe/placeholder directly.
//
// A candidate with PopCol set is a difference pair: its extracted value is
// PopCol[population row] - FloatCol[peripheral row], null when either side
// is null.
type Candidate struct {
	Column      string
	PopColumn   string // "" unless this is a difference-pair candidate
	Class       AttrClass
	Aggregation aggregation.Kind

	FloatCol *types.ColumnView // ClassNumerical / ClassDiscrete
	PopCol   *types.ColumnView // population-side column of a difference pair, indexed by PopRow
	CatCol   *types.ColumnView // ClassCategorical
	TextCol  *types.TextColumn // ClassText
	TimeCol  *types.ColumnView // optional: time for ewma/trend/time_since aggregations
}

// Hyperparams bounds the recursive split search.
type Hyperparams struct {
	MaxDepth      int
	MinNumSamples int
	MinReduction  float64
	RegLambda     float64
}

// Condition is one accepted node's routing test: the named attribute is
// aggregated per population row and the predicate is evaluated against
// that scalar, so the whole row takes one side. Replayed at transform time
// against a fresh peripheral table.
type Condition struct {
	Column      string
	PopColumn   string // set for difference-pair conditions
	Class       AttrClass
	Aggregation aggregation.Kind
	Predicate   binning.Predicate
}

// Node is one tree node: either an internal routing node (Left/Right set,
// IsLeaf false) or a leaf (Aggregation/Weight set, IsLeaf true).
type Node struct {
	IsLeaf bool

	// Internal node fields.
	Condition   Condition
	Left, Right *Node

	// Leaf fields.
	Column      string
	PopColumn   string
	Class       AttrClass
	Aggregation aggregation.Kind
	Weight      float64
}

// Fit grows a tree from matches using candidates re-evaluated at every
// node, searching candidates on the calling goroutine alone. g and h are
// indexed by global population row id (matchmaker.Match.PopRow).
func Fit(matches []matchmaker.Match, g, h []float64, candidates []Candidate, loss lossfunction.Loss, hp Hyperparams) *Node {
	return fitNode(matches, g, h, sortCandidates(candidates), 0, hp, serialSearch)
}

func sortCandidates(candidates []Candidate) []Candidate {
	sorted := append([]Candidate(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Column != sorted[j].Column {
			return sorted[i].Column < sorted[j].Column
		}
		if sorted[i].PopColumn != sorted[j].PopColumn {
			return sorted[i].PopColumn < sorted[j].PopColumn
		}
		return sorted[i].Aggregation < sorted[j].Aggregation
	})
	return sorted
}

type searchResult struct {
	candidate Candidate
	split     *binning.CandidateSplit
}

// searchFunc finds the best-reduction candidate over matches, however it
// chooses to distribute that scan.
type searchFunc func(matches []matchmaker.Match, g, h []float64, candidates []Candidate, hp Hyperparams) *searchResult

// serialSearch scans the (already sorted) candidates in order; a strictly
// greater reduction is required to displace the incumbent, so ties resolve
// to the smallest (column, pop-column, aggregation) triple.
func serialSearch(matches []matchmaker.Match, g, h []float64, candidates []Candidate, hp Hyperparams) *searchResult {
	var best *searchResult
	for i := range candidates {
		c := &candidates[i]
		split, ok := runBinner(c, matches, g, h, hp.RegLambda, hp.MinNumSamples)
		if !ok {
			continue
		}
		if best == nil || split.Reduction > best.split.Reduction {
			best = &searchResult{candidate: *c, split: split}
		}
	}
	return best
}

func fitNode(matches []matchmaker.Match, g, h []float64, candidates []Candidate, depth int, hp Hyperparams, search searchFunc) *Node {
	best := search(matches, g, h, candidates, hp)

	if best == nil {
		return leafFromFallback(matches, g, h, candidates, hp.RegLambda)
	}

	if depth < hp.MaxDepth && best.split.Reduction >= hp.MinReduction {
		leftMatches, rightMatches := partition(best.candidate, best.split.Predicate, matches)
		if distinctRows(leftMatches) >= hp.MinNumSamples && distinctRows(rightMatches) >= hp.MinNumSamples {
			return &Node{
				IsLeaf: false,
				Condition: Condition{
					Column:      best.candidate.Column,
					PopColumn:   best.candidate.PopColumn,
					Class:       best.candidate.Class,
					Aggregation: best.candidate.Aggregation,
					Predicate:   best.split.Predicate,
				},
				Left:  fitNode(leftMatches, g, h, candidates, depth+1, hp, search),
				Right: fitNode(rightMatches, g, h, candidates, depth+1, hp, search),
			}
		}
	}

	return makeLeaf(best.candidate, matches, g, h, hp.RegLambda)
}

// leafFromFallback handles the degenerate case where no candidate produced
// a usable split (e.g. every candidate had fewer than MinNumSamples
// qualifying rows): the node still needs an (attribute, aggregation) to
// serialize as a leaf, so it falls back to the first configured candidate.
// If there are no candidates at all, it returns a flat constant leaf with
// no attribute at all (Column == "").
func leafFromFallback(matches []matchmaker.Match, g, h []float64, candidates []Candidate, lambda float64) *Node {
	if len(candidates) == 0 {
		sumG, sumH := rowSums(matches, g, h)
		return &Node{IsLeaf: true, Weight: lossfunction.OptimalLeafWeight(sumG, sumH, lambda)}
	}
	return makeLeaf(candidates[0], matches, g, h, lambda)
}

func rowSums(matches []matchmaker.Match, g, h []float64) (sumG, sumH float64) {
	seen := map[int32]bool{}
	for _, m := range matches {
		if seen[m.PopRow] {
			continue
		}
		seen[m.PopRow] = true
		sumG += g[m.PopRow]
		sumH += h[m.PopRow]
	}
	return
}

// makeLeaf fits the leaf weight by a Newton step over the per-row
// aggregated value x: Σ(g·x) / Σ(h·x²) takes the place of the flat-leaf
// Σg / Σh, so the leaf's output w·x minimizes the local quadratic
// surrogate.
func makeLeaf(c Candidate, matches []matchmaker.Match, g, h []float64, lambda float64) *Node {
	perRow := aggregatePerRow(c, matches)
	var sumG, sumH float64
	for row, x := range perRow {
		if math.IsNaN(x) {
			continue
		}
		sumG += g[row] * x
		sumH += h[row] * x * x
	}
	return &Node{
		IsLeaf:      true,
		Column:      c.Column,
		PopColumn:   c.PopColumn,
		Class:       c.Class,
		Aggregation: c.Aggregation,
		Weight:      lossfunction.OptimalLeafWeight(sumG, sumH, lambda),
	}
}

func distinctRows(matches []matchmaker.Match) int {
	seen := map[int32]bool{}
	for _, m := range matches {
		seen[m.PopRow] = true
	}
	return len(seen)
}

// partition routes every match by its owning population row: the row's
// aggregated value is tested against the predicate once, and all of the
// row's matches follow it to the same side. Rows whose aggregated value is
// null take the right side.
func partition(c Candidate, p binning.Predicate, matches []matchmaker.Match) (left, right []matchmaker.Match) {
	goLeft := routeLeft(c, p, matches)
	for _, m := range matches {
		if goLeft[m.PopRow] {
			left = append(left, m)
		} else {
			right = append(right, m)
		}
	}
	return left, right
}

func routeLeft(c Candidate, p binning.Predicate, matches []matchmaker.Match) map[int32]bool {
	left := map[int32]bool{}
	if c.Class == ClassText {
		for row, words := range wordsPerRow(c, matches) {
			if p.TestWords(words) {
				left[row] = true
			}
		}
		return left
	}
	onCategory := splitsOnCategory(c)
	for row, v := range aggregatePerRow(c, matches) {
		if math.IsNaN(v) {
			continue
		}
		if onCategory {
			if p.TestCategory(int32(v)) {
				left[row] = true
			}
		} else if p.TestFloat(v) {
			left[row] = true
		}
	}
	return left
}

// extractFloat reads a numerical/discrete candidate's value for one match,
// applying the population-minus-peripheral difference for pair candidates.
func extractFloat(c Candidate, m matchmaker.Match) (float64, bool) {
	v := c.FloatCol.Float(int(m.PeriphRow))
	if types.IsNullFloat(v) {
		return 0, false
	}
	if c.PopCol != nil {
		pv := c.PopCol.Float(int(m.PopRow))
		if types.IsNullFloat(pv) {
			return 0, false
		}
		v = pv - v
	}
	return v, true
}
