// Package feature holds the persisted form of a fitted tree: an ordered
// list of (condition-chain, aggregation) leaves plus their weights — the
// artifact a Model serializes and replays at transform time, decoupled
// from the tree package's recursive Node the fitter itself works with.
package feature

import (
	"math"

	"github.com/sqlnet/relboost/aggregation"
	"github.com/sqlnet/relboost/matchmaker"
	"github.com/sqlnet/relboost/tree"
)

// Step is one edge walked on the way from the tree root to a leaf: the
// condition tested at that node, and which side ("Left" for the tree's
// true branch) the leaf's chain took.
type Step struct {
	Condition tree.Condition
	Left      bool
}

// Leaf is one flattened (condition-chain, aggregation) feature: a
// population row contributes Weight * Aggregate(Column, matches reaching
// this leaf) to the tree's output column.
type Leaf struct {
	Chain       []Step
	Column      string
	PopColumn   string
	Class       tree.AttrClass
	Aggregation aggregation.Kind
	Weight      float64
}

// Container is one fitted tree's exported feature set: every leaf that
// accumulated weight, in left-to-right leaf order.
type Container struct {
	Leaves []Leaf
}

// Flatten walks root and records one Leaf per leaf node. The empty tree
// (root == nil) produces an empty Container.
func Flatten(root *tree.Node) *Container {
	c := &Container{}
	if root == nil {
		return c
	}
	walk(root, nil, c)
	return c
}

func walk(n *tree.Node, chain []Step, c *Container) {
	if n.IsLeaf {
		leaf := Leaf{
			Chain:       append([]Step(nil), chain...),
			Column:      n.Column,
			PopColumn:   n.PopColumn,
			Class:       n.Class,
			Aggregation: n.Aggregation,
			Weight:      n.Weight,
		}
		c.Leaves = append(c.Leaves, leaf)
		return
	}
	walk(n.Left, append(chain, Step{Condition: n.Condition, Left: true}), c)
	walk(n.Right, append(chain, Step{Condition: n.Condition, Left: false}), c)
}

// Transform replays every leaf's condition chain against a fresh set of
// matches (built for whatever DataFrame is being scored) and sums each
// leaf's aggregate*weight contribution into one output value per
// population row named in rows. A row that reaches zero leaves with any
// matches still gets every leaf's empty-group default where applicable.
// It defers to tree.Transform per leaf so the fit-time and
// persisted-model transform paths cannot silently diverge in semantics.
func (c *Container) Transform(matches []matchmaker.Match, rows []int32, cols tree.Columns) map[int32]float64 {
	out := make(map[int32]float64, len(rows))
	for _, leaf := range c.Leaves {
		chainMatches := filterChain(leaf.Chain, matches, cols)
		leafOut := tree.Transform(leafNode(leaf), chainMatches, rows, cols)
		for row, v := range leafOut {
			out[row] += v
		}
	}
	return out
}

func leafNode(l Leaf) *tree.Node {
	return &tree.Node{
		IsLeaf:      true,
		Column:      l.Column,
		PopColumn:   l.PopColumn,
		Class:       l.Class,
		Aggregation: l.Aggregation,
		Weight:      l.Weight,
	}
}

func filterChain(chain []Step, matches []matchmaker.Match, cols tree.Columns) []matchmaker.Match {
	for _, step := range chain {
		matches = tree.FilterByCondition(step.Condition, matches, cols, step.Left)
	}
	return matches
}

// EmptyOutput is the per-row contribution of leaves that reached zero
// matches: a leaf whose aggregation has a NaN empty-group default
// contributes nothing (tree.Transform already skips NaN), and every other
// empty-group default is 0, so the sum is 0 for every Container.
func (c *Container) EmptyOutput() float64 {
	var sum float64
	for _, leaf := range c.Leaves {
		v := aggregation.EmptyValue(leaf.Aggregation)
		if !math.IsNaN(v) {
			sum += v * leaf.Weight
		}
	}
	return sum
}
