package feature

import (
	"math"
	"testing"

	"github.com/sqlnet/relboost/aggregation"
	"github.com/sqlnet/relboost/lossfunction"
	"github.com/sqlnet/relboost/matchmaker"
	"github.com/sqlnet/relboost/tree"
	"github.com/sqlnet/relboost/types"
)

func identityView(col types.Column) *types.ColumnView {
	idx := make([]int32, col.Len())
	for i := range idx {
		idx[i] = int32(i)
	}
	return types.NewColumnView(col, idx)
}

// TestFlattenTransformMatchesTreeTransform confirms the flattened
// Container reproduces exactly the same per-row output as walking the
// original *tree.Node directly — the property a persisted Model's
// transform path depends on.
func TestFlattenTransformMatchesTreeTransform(t *testing.T) {
	colorCol := identityView(types.NewIntColumn("color", "", []int32{1, 1, 2, 2}))
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
	candidates := []tree.Candidate{{Column: "color", Class: tree.ClassCategorical, Aggregation: aggregation.Mode, CatCol: colorCol}}
	root := tree.Fit(matches, g, h, candidates, loss, tree.Hyperparams{MaxDepth: 2, MinNumSamples: 1, MinReduction: 0, RegLambda: 0.01})

	cols := tree.Columns{Cat: map[string]*types.ColumnView{"color": colorCol}}
	rows := []int32{0, 1, 2, 3}
	want := tree.Transform(root, matches, rows, cols)

	container := Flatten(root)
	if len(container.Leaves) == 0 {
		t.Fatal("expected at least one leaf")
	}
	got := container.Transform(matches, rows, cols)

	for _, row := range rows {
		if math.Abs(got[row]-want[row]) > 1e-9 {
			t.Fatalf("row %d: container.Transform=%v, tree.Transform=%v", row, got[row], want[row])
		}
	}
}

// TestFlattenSingleLeafRoot covers the depth-0 (no split) case, where
// Flatten must still produce exactly one leaf with an empty chain.
func TestFlattenSingleLeafRoot(t *testing.T) {
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
	candidates := []tree.Candidate{{Column: "v", Class: tree.ClassNumerical, Aggregation: aggregation.Sum, FloatCol: valueCol}}
	root := tree.Fit(matches, g, h, candidates, loss, tree.Hyperparams{MaxDepth: 0, MinNumSamples: 1})

	c := Flatten(root)
	if len(c.Leaves) != 1 {
		t.Fatalf("expected exactly one leaf, got %d", len(c.Leaves))
	}
	if len(c.Leaves[0].Chain) != 0 {
		t.Fatalf("expected an empty chain for a depth-0 leaf, got %d steps", len(c.Leaves[0].Chain))
	}
}
