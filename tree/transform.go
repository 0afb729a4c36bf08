package tree

import (
	"math"

	"github.com/sqlnet/relboost/aggregation"
	"github.com/sqlnet/relboost/matchmaker"
	"github.com/sqlnet/relboost/types"
)

// Columns resolves a condition/leaf's column name against the tables
// actually being transformed, which may differ in identity (but not shape)
// from the ones the tree was fit against — e.g. scoring a freshly loaded
// DataFrame. One Columns value is shared by an entire tree walk.
type Columns struct {
	Float map[string]*types.ColumnView
	Cat   map[string]*types.ColumnView
	Text  map[string]*types.TextColumn
	// PopFloat holds the population-side columns of difference-pair
	// candidates, indexed by global population row id.
	PopFloat map[string]*types.ColumnView
	Time     *types.ColumnView
}

func (cs Columns) candidateFor(column, popColumn string, class AttrClass, agg aggregation.Kind) Candidate {
	c := Candidate{Column: column, PopColumn: popColumn, Class: class, Aggregation: agg, TimeCol: cs.Time}
	switch class {
	case ClassNumerical, ClassDiscrete:
		c.FloatCol = cs.Float[column]
		if popColumn != "" {
			c.PopCol = cs.PopFloat[popColumn]
		}
	case ClassCategorical:
		c.CatCol = cs.Cat[column]
	case ClassText:
		c.TextCol = cs.Text[column]
	}
	return c
}

// Transform replays the tree's condition chain against matches (built
// fresh for whatever DataFrame is being scored) and sums each leaf's
// aggregate*weight contribution into one output value per population row.
// rows is the full set of population row ids being transformed: a row with
// zero matches reaching a given leaf still contributes that leaf's
// aggregation's empty-group default.
func Transform(node *Node, matches []matchmaker.Match, rows []int32, cols Columns) map[int32]float64 {
	out := make(map[int32]float64, len(rows))
	transformNode(node, matches, rows, cols, out)
	return out
}

// FilterByCondition returns the subset of matches whose owning population
// row takes the named side of cond, resolving cond's columns against cols.
// Used by package feature to replay a flattened leaf's condition chain
// without needing the original recursive *Node tree in hand (e.g. after a
// Model has been unmarshaled and only a feature.Container survives).
func FilterByCondition(cond Condition, matches []matchmaker.Match, cols Columns, wantLeft bool) []matchmaker.Match {
	c := cols.candidateFor(cond.Column, cond.PopColumn, cond.Class, cond.Aggregation)
	left, right := partition(c, cond.Predicate, matches)
	if wantLeft {
		return left
	}
	return right
}

func transformNode(node *Node, matches []matchmaker.Match, rows []int32, cols Columns, out map[int32]float64) {
	if node.IsLeaf {
		if node.Column == "" {
			// Flat constant leaf: no attribute to aggregate, the weight is
			// the row's whole contribution.
			for _, row := range rows {
				out[row] += node.Weight
			}
			return
		}
		c := cols.candidateFor(node.Column, node.PopColumn, node.Class, node.Aggregation)
		perRow := aggregatePerRow(c, matches)
		empty := aggregation.EmptyValue(node.Aggregation)
		for _, row := range rows {
			x, ok := perRow[row]
			if !ok {
				x = empty
			}
			if math.IsNaN(x) {
				continue
			}
			out[row] += x * node.Weight
		}
		return
	}
	c := cols.candidateFor(node.Condition.Column, node.Condition.PopColumn, node.Condition.Class, node.Condition.Aggregation)
	left, right := partition(c, node.Condition.Predicate, matches)
	transformNode(node.Left, left, rows, cols, out)
	transformNode(node.Right, right, rows, cols, out)
}
