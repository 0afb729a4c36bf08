// Package model implements the top-level Fit/Transform API and the Model
// lifecycle (not_fitted -> fitting -> fitted; once fitted the object is
// immutable, a re-fit produces a new object). Fit drives
// placeholder-resolution -> matchmaker -> ensemble for each peripheral
// edge in the join graph; Transform replays the persisted per-edge
// feature containers against fresh DataFrames.
package model

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sqlnet/relboost/aggregation"
	"github.com/sqlnet/relboost/config"
	"github.com/sqlnet/relboost/dataframe"
	"github.com/sqlnet/relboost/ensemble"
	"github.com/sqlnet/relboost/errs"
	"github.com/sqlnet/relboost/feature"
	"github.com/sqlnet/relboost/joinindex"
	"github.com/sqlnet/relboost/logutil"
	"github.com/sqlnet/relboost/matchmaker"
	"github.com/sqlnet/relboost/placeholder"
	"github.com/sqlnet/relboost/pool"
	"github.com/sqlnet/relboost/tree"
	"github.com/sqlnet/relboost/types"
)

// State is a Model's lifecycle stage.
type State int

const (
	NotFitted State = iota
	Fitting
	Fitted
)

func (s State) String() string {
	switch s {
	case NotFitted:
		return "not_fitted"
	case Fitting:
		return "fitting"
	case Fitted:
		return "fitted"
	default:
		return "unknown"
	}
}

// CandidateSpec is a (column, attribute class, aggregation) candidate
// resolved against column *names* rather than live ColumnViews, so it
// survives Marshal/Unmarshal and can be re-bound against a freshly loaded
// DataFrame at Transform time (a fit-time Candidate's pointers are only
// valid for the DataFrame instance the tree was actually fit against).
type CandidateSpec struct {
	Column      string
	PopColumn   string // population-side column of a same-units/timestamp difference pair
	Class       tree.AttrClass
	Aggregation aggregation.Kind
}

// EdgeModel is one placeholder root edge's fitted ensemble, flattened to
// its persisted feature.Container form plus everything needed to
// re-resolve columns against new DataFrames at transform time.
type EdgeModel struct {
	EdgeIndex  int
	Peripheral string
	LossName   string
	Base       float64
	Rates      []float64
	Containers []*feature.Container // one per tree, Containers[t] pairs with Rates[t]

	Candidates  []CandidateSpec
	TimeColumn  string // "" if the edge ignores timestamps
	UpperColumn string // population-side exclusive upper ts bound, "" if none
	Memory      float64
	Horizon     float64
	Subfeatures []SubfeatureModel
}

// Model is a fitted (or not-yet-fitted) relational feature-learning
// artifact: the population and target names, the encoding snapshot at fit
// time, the hyperparameters, and one EdgeModel per root peripheral edge.
// The Placeholder itself and the tables' schemas are not stored: each
// EdgeModel keeps only its peripheral name, timestamp columns and window,
// and Transform takes join-key columns from the DataFrames it is given.
type Model struct {
	RunID      string
	Population string
	Target     string
	Encoding   []string // Encoding.Snapshot() at fit time
	Edges      []EdgeModel
	Hyper      config.Hyperparams

	state State
}

// State reports the Model's current lifecycle stage.
func (m *Model) State() State { return m.state }

// Resolver looks up a peripheral DataFrame by name (same contract as
// placeholder.Resolver).
type Resolver func(name string) (*dataframe.DataFrame, bool)

// Fit trains a Model against population using peripherals resolved
// through resolve, per the join graph ph and hyperparameters hp. encoding
// is the shared, already-populated category encoding the ingest layer
// built (model.Fit never mutates it; only the ingest path inserts new
// categories).
//
// Each root edge of ph fits its own ensemble.Ensemble independently;
// SquareLoss edges after the first are fit against the residual left by
// every prior edge's prediction, so the graph's peripheral tables compose
// additively. CrossEntropyLoss edges do not chain: only the first root
// edge contributes when that loss is configured, since summing partial
// logits across independently re-based ensembles is not a valid
// composition for it.
func Fit(population *dataframe.DataFrame, resolve Resolver, ph *placeholder.Placeholder, hp config.Hyperparams, encoding *types.Encoding) (*Model, error) {
	r, err := FitWithComm(population, resolve, ph, hp, encoding, nil)
	if err != nil {
		return nil, err
	}
	return r.Model, nil
}

// FitResult is the outcome of a cancelable fit: either a fitted Model, or
// Canceled=true when the Communicator's cancel flag was observed mid-fit.
// Cancellation is a result, not an error; the partial model is discarded.
type FitResult struct {
	Model    *Model
	Canceled bool
}

// FitWithComm is Fit plus an externally supplied pool.Communicator whose
// Cancel method stops the boosting loop at the next round boundary. comm
// should be built with one participant (pool.New(1)); Cancel may be called
// from any goroutine.
func FitWithComm(population *dataframe.DataFrame, resolve Resolver, ph *placeholder.Placeholder, hp config.Hyperparams, encoding *types.Encoding, comm *pool.Communicator) (FitResult, error) {
	runID := uuid.New().String()
	log := logutil.With(zap.String("run_id", runID), zap.String("component", "model.Fit"))

	if err := hp.Validate(); err != nil {
		return FitResult{}, err
	}
	phResolver := placeholder.Resolver(resolve)
	if err := ph.Validate(population, phResolver); err != nil {
		return FitResult{}, err
	}
	targets := population.Targets()
	if len(targets) == 0 {
		return FitResult{}, errs.Validation("model: population %q declares no target column", population.Name())
	}
	target := targets[0]
	targetCol, _ := population.Column(target)
	rawTargets := readFloatColumn(targetCol)

	log.Info("fit starting", zap.String("population", population.Name()), zap.Int("rows", population.NRows()), zap.Int("edges", len(ph.Roots())))

	chainable := hp.LossFunction == "SquareLoss"
	cumulative := make([]float64, population.NRows())

	var edges []EdgeModel
	for i, rootIdx := range ph.Roots() {
		if i > 0 && !chainable {
			break
		}
		edge := ph.Node(rootIdx)
		peripheral, ok := resolve(edge.Peripheral)
		if !ok {
			return FitResult{}, errs.Validation("model: unknown peripheral %q", edge.Peripheral)
		}

		em, pred, canceled, err := fitEdge(population, peripheral, resolve, ph, rootIdx, edge, hp, rawTargets, cumulative, encoding, comm, log)
		if err != nil {
			return FitResult{}, err
		}
		if canceled {
			log.Info("fit canceled", zap.Int("edges_fitted", len(edges)))
			return FitResult{Canceled: true}, nil
		}
		edges = append(edges, *em)
		for r, v := range pred {
			cumulative[r] = v
		}
	}

	log.Info("fit complete", zap.Int("edges_fitted", len(edges)))

	return FitResult{Model: &Model{
		RunID:      runID,
		Population: population.Name(),
		Target:     target,
		Encoding:   encoding.Snapshot(),
		Edges:      edges,
		Hyper:      hp,
		state:      Fitted,
	}}, nil
}

// effectiveEdge applies hp's horizon/memory as defaults for an edge that
// does not set its own, so the hyperparameter table's `horizon`/`memory`
// options act on every timestamped edge without the caller repeating them
// per edge in the Placeholder.
func effectiveEdge(edge *placeholder.Edge, hp config.Hyperparams) *placeholder.Edge {
	if edge.TimeStamp == nil {
		return edge
	}
	e := *edge
	if e.Memory <= 0 {
		e.Memory = hp.Memory
	}
	if e.Horizon == 0 {
		e.Horizon = hp.Horizon
	}
	return &e
}

func fitEdge(population, peripheral *dataframe.DataFrame, resolve Resolver, ph *placeholder.Placeholder, rootIdx int, edge *placeholder.Edge, hp config.Hyperparams, rawTargets, cumulative []float64, encoding *types.Encoding, comm *pool.Communicator, log *zap.Logger) (*EdgeModel, map[int]float64, bool, error) {
	edge = effectiveEdge(edge, hp)
	idx := joinindex.New(peripheral, rightKeyColumns(edge))
	if err := idx.RebuildIfNeeded(); err != nil {
		return nil, nil, false, err
	}

	popView := dataframe.Identity(population)
	matchResult, err := matchmaker.MakeMatches(popView, peripheral, idx, edge, nil)
	if err != nil {
		return nil, nil, false, err
	}

	residual := make([]float64, len(rawTargets))
	for i, y := range rawTargets {
		residual[i] = y - cumulative[i]
	}

	peripheralResid := mapResidualToPeripheral(matchResult, population.NRows(), peripheral.NRows(), residual)
	peripheralAugmented, subfeatures, err := fitSubfeatures(peripheral, resolve, ph, rootIdx, peripheralResid, hp, encoding, log)
	if err != nil {
		return nil, nil, false, err
	}

	specs := buildCandidateSpecs(population, peripheralAugmented, edge, hp.AggregationAllowList())
	timeCol := ""
	if edge.TimeStamp != nil {
		timeCol = edge.TimeStamp.Right
	}
	candidates, err := resolveCandidates(population, peripheralAugmented, specs, timeCol)
	if err != nil {
		return nil, nil, false, err
	}

	result, err := ensemble.Fit(ensemble.FitInput{
		Matches:    matchResult.Matches,
		NumRows:    population.NRows(),
		Candidates: candidates,
		Targets:    residual,
	}, hp, nil, comm)
	if err != nil {
		return nil, nil, false, err
	}
	if result.Canceled {
		return nil, nil, true, nil
	}

	log.Info("edge fitted", zap.String("peripheral", peripheral.Name()), zap.Int("trees", len(result.Ensemble.Trees)))

	containers := make([]*feature.Container, len(result.Ensemble.Trees))
	for i, root := range result.Ensemble.Trees {
		containers[i] = feature.Flatten(root)
	}

	cols := ensembleColumns(candidates)
	pred := result.Ensemble.Transform(matchResult.Matches, population.NRows(), cols)
	predMap := make(map[int]float64, len(pred))
	for i, v := range pred {
		predMap[i] = cumulative[i] + v
	}

	upperCol := ""
	if edge.TimeStamp != nil {
		upperCol = edge.TimeStamp.Upper
	}
	em := &EdgeModel{
		EdgeIndex:   rootIdx,
		Peripheral:  edge.Peripheral,
		LossName:    result.Ensemble.LossName,
		Base:        result.Ensemble.Base,
		Rates:       result.Ensemble.Rates,
		Containers:  containers,
		Candidates:  specs,
		TimeColumn:  timeCol,
		UpperColumn: upperCol,
		Memory:      edge.Memory,
		Horizon:     edge.Horizon,
		Subfeatures: subfeatures,
	}
	return em, predMap, false, nil
}

// mapResidualToPeripheral maps the population-row residual down through
// matchResult to a per-peripheral-row pseudo-target: each peripheral row's
// value is the mean residual of every population row it matched, or 0 if
// it matched none. This synthesized target is what a nested subfeature
// model trains against, since a peripheral table carries no label of its
// own.
func mapResidualToPeripheral(matchResult *matchmaker.Result, numPopRows, numPeriphRows int, residual []float64) []float64 {
	sum := make([]float64, numPeriphRows)
	count := make([]int, numPeriphRows)
	for i := 0; i < numPopRows; i++ {
		for _, m := range matchResult.Group(i) {
			sum[m.PeriphRow] += residual[i]
			count[m.PeriphRow]++
		}
	}
	out := make([]float64, numPeriphRows)
	for r := range out {
		if count[r] > 0 {
			out[r] = sum[r] / float64(count[r])
		}
	}
	return out
}

func readFloatColumn(c types.Column) []float64 {
	fc, ok := c.(*types.FloatColumn)
	if !ok {
		return nil
	}
	return fc.Raw()
}

func rightKeyColumns(edge *placeholder.Edge) []string {
	out := make([]string, len(edge.JoinKeys))
	for i, jk := range edge.JoinKeys {
		out[i] = jk.Right
	}
	return out
}
