// Package ensemble implements the gradient-boosting driver that composes
// relational decision trees (package tree) with a loss function (package
// lossfunction), row subsampling, and a shrinkage-scaled update rate per
// tree. Rounds are strictly sequential: one round advances state from the
// previous round's predictions, and an external cancel signal stops the
// loop at a round boundary without corrupting already-committed state.
package ensemble

import (
	"math"
	"math/rand"

	"github.com/sqlnet/relboost/config"
	"github.com/sqlnet/relboost/errs"
	"github.com/sqlnet/relboost/lossfunction"
	"github.com/sqlnet/relboost/matchmaker"
	"github.com/sqlnet/relboost/pool"
	"github.com/sqlnet/relboost/tree"
	"github.com/sqlnet/relboost/types"
)

// Ensemble is a fitted sequence of trees plus their per-tree update rates
// and the base prediction. A canceled Fit returns no Ensemble.
type Ensemble struct {
	LossName string
	Base     float64
	Trees    []*tree.Node
	Rates    []float64
}

// FitInput is everything ensemble.Fit needs about the training data: the
// matches for the peripheral table the candidates were resolved against,
// one target per population row, and the candidate (attribute,
// aggregation) pairs every tree node re-searches. One FitInput covers one
// join-graph edge; mixing match buffers with different PeriphRow spaces
// inside a single node's candidate search is not supported.
type FitInput struct {
	Matches    []matchmaker.Match
	NumRows    int
	Candidates []tree.Candidate
	Targets    []float64
}

// Validation is an optional held-out set used for early stopping.
type Validation struct {
	Matches []matchmaker.Match
	NumRows int
	Targets []float64
}

// Result is the outcome of one Fit call: either a (possibly trailing-
// trimmed) Ensemble, or Canceled=true if a cancellation was observed. A
// user-requested abort is a result, not an error; the partial ensemble is
// discarded.
type Result struct {
	Ensemble *Ensemble
	Canceled bool
}

// Fit runs the sequential boosting loop: resample, compute residuals and
// curvatures, fit one tree, line-search the update rate, apply the
// shrinkage-scaled update. comm may be nil (no cancellation support, e.g.
// in tests); when non-nil its Checkpoint is polled once per round so a
// Cancel() call from another goroutine stops the loop at the next round
// boundary.
func Fit(in FitInput, hp config.Hyperparams, valid *Validation, comm *pool.Communicator) (Result, error) {
	if len(in.Targets) != in.NumRows {
		return Result{}, errs.Validation("ensemble: targets length %d does not match NumRows %d", len(in.Targets), in.NumRows)
	}
	loss := hp.Loss()
	base := loss.BasePrediction(in.Targets)

	yhat := fillNew(in.NumRows, base)
	rng := rand.New(rand.NewSource(hp.Seed))

	ens := &Ensemble{LossName: hp.LossFunction, Base: base}
	cols := buildColumns(in.Candidates)
	rows := rowRange(in.NumRows)

	workers := pool.NewPool(hp.NumThreads)
	defer workers.Close()

	var validYhat []float64
	var validCols tree.Columns
	var validRows []int32
	trackValidation := valid != nil && len(valid.Targets) > 0
	if trackValidation {
		validYhat = fillNew(valid.NumRows, base)
		validCols = cols
		validRows = rowRange(valid.NumRows)
	}

	bestValidLoss := math.Inf(1)
	staleRounds := 0
	trimAt := -1

	treeHP := tree.Hyperparams{
		MaxDepth:      hp.MaxDepth,
		MinNumSamples: hp.MinNumSamples,
		MinReduction:  hp.MinReduction,
		RegLambda:     hp.RegLambda,
	}

	for t := 0; t < hp.NumSubfeatures; t++ {
		if comm != nil && !comm.Checkpoint(true) {
			return Result{Canceled: true}, nil
		}

		sampleMatches, _ := resample(in.Matches, in.NumRows, hp.SamplingFactor, rng)

		g := make([]float64, in.NumRows)
		h := make([]float64, in.NumRows)
		for i := 0; i < in.NumRows; i++ {
			g[i] = loss.Gradient(yhat[i], in.Targets[i])
			h[i] = loss.Curvature(yhat[i], in.Targets[i])
		}

		roundCandidates := sampleCandidates(in.Candidates, hp.NumFeaturesPerNode, rng)
		root := tree.FitWithPool(sampleMatches, g, h, roundCandidates, loss, treeHP, workers, comm)

		delta := transformToSlice(root, in.Matches, rows, cols, in.NumRows)
		eta := loss.LineSearch(yhat, in.Targets, delta)
		rate := hp.Shrinkage * eta
		for i := range yhat {
			yhat[i] += rate * delta[i]
		}

		ens.Trees = append(ens.Trees, root)
		ens.Rates = append(ens.Rates, rate)

		if trackValidation {
			validDelta := transformToSlice(root, valid.Matches, validRows, validCols, valid.NumRows)
			for i := range validYhat {
				validYhat[i] += rate * validDelta[i]
			}
			vLoss := meanLoss(loss, validYhat, valid.Targets)
			if vLoss < bestValidLoss-1e-12 {
				bestValidLoss = vLoss
				staleRounds = 0
				trimAt = -1
			} else {
				staleRounds++
				if trimAt < 0 {
					trimAt = len(ens.Trees) - 1
				}
				if hp.EarlyStoppingRounds > 0 && staleRounds >= hp.EarlyStoppingRounds {
					break
				}
			}
		}
	}

	if trimAt > 0 && trackValidation && hp.EarlyStoppingRounds > 0 {
		ens.Trees = ens.Trees[:trimAt]
		ens.Rates = ens.Rates[:trimAt]
	}

	return Result{Ensemble: ens}, nil
}

// Transform applies a fitted ensemble to fresh matches/rows, returning one
// prediction per population row (base + Σ rate_t · tree_t(row)).
func (e *Ensemble) Transform(matches []matchmaker.Match, numRows int, cols tree.Columns) []float64 {
	rows := rowRange(numRows)
	out := fillNew(numRows, e.Base)
	for t, root := range e.Trees {
		delta := transformToSlice(root, matches, rows, cols, numRows)
		rate := e.Rates[t]
		for i := range out {
			out[i] += rate * delta[i]
		}
	}
	return out
}

// FeatureMatrix returns one raw (unscaled, un-based) column per tree, the
// dense matrix downstream tabular predictors consume.
func (e *Ensemble) FeatureMatrix(matches []matchmaker.Match, numRows int, cols tree.Columns) [][]float64 {
	rows := rowRange(numRows)
	out := make([][]float64, len(e.Trees))
	for t, root := range e.Trees {
		out[t] = transformToSlice(root, matches, rows, cols, numRows)
	}
	return out
}

func transformToSlice(root *tree.Node, matches []matchmaker.Match, rows []int32, cols tree.Columns, n int) []float64 {
	m := tree.Transform(root, matches, rows, cols)
	out := make([]float64, n)
	for row, v := range m {
		out[row] = v
	}
	return out
}

func meanLoss(loss lossfunction.Loss, yhat, targets []float64) float64 {
	var sum float64
	for i := range targets {
		sum += loss.Value(yhat[i], targets[i])
	}
	return sum / float64(len(targets))
}

func rowRange(n int) []int32 {
	rows := make([]int32, n)
	for i := range rows {
		rows[i] = int32(i)
	}
	return rows
}

func fillNew(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// sampleCandidates bounds the candidate set considered by one tree's
// split search to limit, drawing without replacement via the ensemble's
// rng when the full set exceeds it. limit <= 0 means unbounded.
func sampleCandidates(candidates []tree.Candidate, limit int, rng *rand.Rand) []tree.Candidate {
	if limit <= 0 || len(candidates) <= limit {
		return candidates
	}
	shuffled := append([]tree.Candidate(nil), candidates...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:limit]
}

func buildColumns(candidates []tree.Candidate) tree.Columns {
	cols := tree.Columns{
		Float:    map[string]*types.ColumnView{},
		Cat:      map[string]*types.ColumnView{},
		Text:     map[string]*types.TextColumn{},
		PopFloat: map[string]*types.ColumnView{},
	}
	for _, c := range candidates {
		if c.TimeCol != nil && cols.Time == nil {
			cols.Time = c.TimeCol
		}
		if c.PopCol != nil {
			cols.PopFloat[c.PopColumn] = c.PopCol
		}
		switch c.Class {
		case tree.ClassNumerical, tree.ClassDiscrete:
			cols.Float[c.Column] = c.FloatCol
		case tree.ClassCategorical:
			cols.Cat[c.Column] = c.CatCol
		case tree.ClassText:
			cols.Text[c.Column] = c.TextCol
		}
	}
	return cols
}
