package tree

import (
	"math"
	"testing"

	"github.com/sqlnet/relboost/aggregation"
	"github.com/sqlnet/relboost/lossfunction"
	"github.com/sqlnet/relboost/matchmaker"
	"github.com/sqlnet/relboost/pool"
	"github.com/sqlnet/relboost/types"
)

func identityView(col types.Column) *types.ColumnView {
	idx := make([]int32, col.Len())
	for i := range idx {
		idx[i] = int32(i)
	}
	return types.NewColumnView(col, idx)
}

// TestFitReproducesSumExactlyAtDepthZero: a single peripheral value
// column aggregated via sum, max_depth 0, targets equal to the
// aggregation itself should be reproduced by one leaf's weight (~1) via
// the weighted-least-squares leaf fit.
func TestFitReproducesSumExactlyAtDepthZero(t *testing.T) {
	valueCol := identityView(types.NewFloatColumn("v", "", []float64{10, 5, 7}))
	matches := []matchmaker.Match{
		{PopRow: 0, PeriphRow: 0},
		{PopRow: 0, PeriphRow: 1},
		{PopRow: 1, PeriphRow: 2},
	}
	targets := []float64{15, 7, 0}
	loss := lossfunction.SquareLoss{}
	yhat := []float64{0, 0, 0}
	g := make([]float64, 3)
	h := make([]float64, 3)
	for i := range targets {
		g[i] = loss.Gradient(yhat[i], targets[i])
		h[i] = loss.Curvature(yhat[i], targets[i])
	}
	candidates := []Candidate{{Column: "v", Class: ClassNumerical, Aggregation: aggregation.Sum, FloatCol: valueCol}}
	root := Fit(matches, g, h, candidates, loss, Hyperparams{MaxDepth: 0, MinNumSamples: 1, MinReduction: 0, RegLambda: 0})
	if !root.IsLeaf {
		t.Fatal("expected a single leaf at max_depth 0")
	}
	out := Transform(root, matches, []int32{0, 1, 2}, Columns{Float: map[string]*types.ColumnView{"v": valueCol}})
	want := []float64{15, 7, 0}
	for row, w := range want {
		got := out[int32(row)]
		if math.Abs(got-w) > 1e-6 {
			t.Fatalf("row %d: expected %v, got %v", row, w, got)
		}
	}
}

// TestFitSplitsOnCategoricalAttribute: a categorical attribute perfectly
// separating two classes should be found as the accepted split, producing
// strictly ordered leaf outputs. The mode of each row's matched colors is
// the aggregated scalar the category-set split routes on.
func TestFitSplitsOnCategoricalAttribute(t *testing.T) {
	colorCol := identityView(types.NewIntColumn("color", "", []int32{1, 1, 2, 2})) // 1=red,2=blue
	matches := []matchmaker.Match{
		{PopRow: 0, PeriphRow: 0},
		{PopRow: 1, PeriphRow: 1},
		{PopRow: 2, PeriphRow: 2},
		{PopRow: 3, PeriphRow: 3},
	}
	targets := []float64{0, 0, 1, 1}
	loss := lossfunction.CrossEntropyLoss{}
	yhat := []float64{0, 0, 0, 0}
	g := make([]float64, 4)
	h := make([]float64, 4)
	for i := range targets {
		g[i] = loss.Gradient(yhat[i], targets[i])
		h[i] = loss.Curvature(yhat[i], targets[i])
	}
	candidates := []Candidate{{Column: "color", Class: ClassCategorical, Aggregation: aggregation.Mode, CatCol: colorCol}}
	root := Fit(matches, g, h, candidates, loss, Hyperparams{MaxDepth: 2, MinNumSamples: 1, MinReduction: 0, RegLambda: 0.01})
	if root.IsLeaf {
		t.Fatal("expected the root to split on color")
	}
	out := Transform(root, matches, []int32{0, 1, 2, 3}, Columns{Cat: map[string]*types.ColumnView{"color": colorCol}})
	if !(out[2] > out[0] && out[3] > out[1]) {
		t.Fatalf("expected blue rows (2,3) to score higher than red rows (0,1): got %v", out)
	}
}

// TestAggregationsCompeteOnReduction: two candidates on the same column
// whose aggregations summarize the rows differently must produce
// different splits. The values are constant, so avg cannot separate the
// rows while sum (which sees the group sizes) can; the accepted condition
// must carry the sum aggregation.
func TestAggregationsCompeteOnReduction(t *testing.T) {
	valueCol := identityView(types.NewFloatColumn("v", "", []float64{5, 5, 5}))
	matches := []matchmaker.Match{
		{PopRow: 0, PeriphRow: 0},
		{PopRow: 1, PeriphRow: 1},
		{PopRow: 1, PeriphRow: 2},
	}
	g := []float64{1, -1}
	h := []float64{1, 1}
	candidates := []Candidate{
		{Column: "v", Class: ClassNumerical, Aggregation: aggregation.Avg, FloatCol: valueCol},
		{Column: "v", Class: ClassNumerical, Aggregation: aggregation.Sum, FloatCol: valueCol},
	}
	root := Fit(matches, g, h, candidates, lossfunction.SquareLoss{}, Hyperparams{MaxDepth: 1, MinNumSamples: 1})
	if root.IsLeaf {
		t.Fatal("expected a split: sum separates the two rows")
	}
	if root.Condition.Aggregation != aggregation.Sum {
		t.Fatalf("expected the sum candidate to win the search, got %v", root.Condition.Aggregation)
	}
}

// TestFitOnDifferencePairCandidate checks a population-minus-peripheral
// difference candidate: the split threshold and the leaf aggregation both
// act on pop[PopRow] - periph[PeriphRow] rather than the raw peripheral
// value.
func TestFitOnDifferencePairCandidate(t *testing.T) {
	periphCol := identityView(types.NewFloatColumn("price", "usd", []float64{1, 2, 3}))
	popCol := identityView(types.NewFloatColumn("amount", "usd", []float64{10, 4, 3}))
	matches := []matchmaker.Match{
		{PopRow: 0, PeriphRow: 0}, // diff = 10 - 1 = 9
		{PopRow: 1, PeriphRow: 1}, // diff = 4 - 2 = 2
		{PopRow: 2, PeriphRow: 2}, // diff = 3 - 3 = 0
	}
	targets := []float64{9, 2, 0}
	loss := lossfunction.SquareLoss{}
	g := make([]float64, 3)
	h := make([]float64, 3)
	for i := range targets {
		g[i] = loss.Gradient(0, targets[i])
		h[i] = loss.Curvature(0, targets[i])
	}
	candidates := []Candidate{{
		Column: "price", PopColumn: "amount", Class: ClassNumerical,
		Aggregation: aggregation.Sum, FloatCol: periphCol, PopCol: popCol,
	}}
	root := Fit(matches, g, h, candidates, loss, Hyperparams{MaxDepth: 0, MinNumSamples: 1})
	if !root.IsLeaf {
		t.Fatal("expected a single leaf at max_depth 0")
	}
	cols := Columns{
		Float:    map[string]*types.ColumnView{"price": periphCol},
		PopFloat: map[string]*types.ColumnView{"amount": popCol},
	}
	out := Transform(root, matches, []int32{0, 1, 2}, cols)
	for row, want := range targets {
		if math.Abs(out[int32(row)]-want) > 1e-6 {
			t.Fatalf("row %d: expected %v, got %v", row, want, out[int32(row)])
		}
	}
}

// TestFitWithPoolMatchesSerialFit confirms scattering the candidate
// search across worker slots picks the same split as the single-goroutine
// path, for any pool size.
func TestFitWithPoolMatchesSerialFit(t *testing.T) {
	colorCol := identityView(types.NewIntColumn("color", "", []int32{1, 1, 2, 2}))
	sizeCol := identityView(types.NewFloatColumn("size", "", []float64{1, 2, 3, 4}))
	matches := []matchmaker.Match{
		{PopRow: 0, PeriphRow: 0},
		{PopRow: 1, PeriphRow: 1},
		{PopRow: 2, PeriphRow: 2},
		{PopRow: 3, PeriphRow: 3},
	}
	targets := []float64{0, 0, 1, 1}
	loss := lossfunction.CrossEntropyLoss{}
	yhat := []float64{0, 0, 0, 0}
	g := make([]float64, 4)
	h := make([]float64, 4)
	for i := range targets {
		g[i] = loss.Gradient(yhat[i], targets[i])
		h[i] = loss.Curvature(yhat[i], targets[i])
	}
	candidates := []Candidate{
		{Column: "color", Class: ClassCategorical, Aggregation: aggregation.Mode, CatCol: colorCol},
		{Column: "size", Class: ClassNumerical, Aggregation: aggregation.Sum, FloatCol: sizeCol},
	}
	hp := Hyperparams{MaxDepth: 2, MinNumSamples: 1, MinReduction: 0, RegLambda: 0.01}

	want := Fit(matches, g, h, candidates, loss, hp)

	for _, n := range []int{1, 2, 4} {
		p := pool.NewPool(n)
		got := FitWithPool(matches, g, h, candidates, loss, hp, p, nil)
		p.Close()
		if got.IsLeaf != want.IsLeaf || got.Condition.Column != want.Condition.Column {
			t.Fatalf("pool size %d: expected same root split as serial Fit, got leaf=%v column=%q vs want leaf=%v column=%q",
				n, got.IsLeaf, got.Condition.Column, want.IsLeaf, want.Condition.Column)
		}
	}
}
