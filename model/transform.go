package model

import (
	"strconv"

	"github.com/sqlnet/relboost/dataframe"
	"github.com/sqlnet/relboost/errs"
	"github.com/sqlnet/relboost/joinindex"
	"github.com/sqlnet/relboost/matchmaker"
	"github.com/sqlnet/relboost/placeholder"
)

// FeatureMatrix is the output of Transform: one raw (unscaled) column per
// fitted tree across every edge, plus the combined prediction.
type FeatureMatrix struct {
	NumRows int
	// ColumnNames[j] names FeatureMatrix.Columns[j]'s originating
	// (peripheral, tree index) pair, e.g. "orders#3".
	ColumnNames []string
	Columns     [][]float64
	Prediction  []float64
}

// Transform scores population against m's fitted edges, resolving
// peripherals through resolve. Every edge is replayed independently and
// summed the same way Fit accumulated them, so a Model transforms
// identically whether called right after Fit or after a Marshal/Unmarshal
// round trip.
func Transform(m *Model, population *dataframe.DataFrame, resolve Resolver) (*FeatureMatrix, error) {
	n := population.NRows()
	out := &FeatureMatrix{NumRows: n, Prediction: make([]float64, n)}

	for _, edge := range m.Edges {
		// Rebuild just enough of the edge's shape to drive MakeMatches: the
		// persisted EdgeModel already carries everything except the raw
		// join-key/timestamp column names, which Transform's caller's
		// peripheral DataFrame schema still carries (RoleJoinKey/RoleTimeStamp
		// lookups resolve them the same way Validate did at fit time).
		peripheral, ok := resolve(edge.Peripheral)
		if !ok {
			return nil, errs.Validation("model: unknown peripheral %q", edge.Peripheral)
		}
		edgeSpec, err := rebuildEdge(population, peripheral, &edge)
		if err != nil {
			return nil, err
		}

		idx := joinindex.New(peripheral, rightKeyColumns(&edgeSpec))
		if err := idx.RebuildIfNeeded(); err != nil {
			return nil, err
		}
		popView := dataframe.Identity(population)
		matchResult, err := matchmaker.MakeMatches(popView, peripheral, idx, &edgeSpec, nil)
		if err != nil {
			return nil, err
		}

		peripheralAugmented, err := applySubfeatures(peripheral, edge.Subfeatures, resolve)
		if err != nil {
			return nil, err
		}
		candidates, err := resolveCandidates(population, peripheralAugmented, edge.Candidates, edge.TimeColumn)
		if err != nil {
			return nil, err
		}
		cols := ensembleColumns(candidates)
		rows := rowRange(n)

		for t, container := range edge.Containers {
			raw := container.Transform(matchResult.Matches, rows, cols)
			col := make([]float64, n)
			for row := 0; row < n; row++ {
				col[row] = raw[int32(row)]
			}
			out.Columns = append(out.Columns, col)
			out.ColumnNames = append(out.ColumnNames, columnName(edge.Peripheral, t))
			rate := edge.Rates[t]
			for row := 0; row < n; row++ {
				out.Prediction[row] += rate * col[row]
			}
		}
		for row := 0; row < n; row++ {
			out.Prediction[row] += edge.Base
		}
	}

	return out, nil
}

// rebuildEdge reconstructs the placeholder.Edge shape Transform needs to
// drive MakeMatches, inferring the join-key columns from the population
// and peripheral schemas' RoleJoinKey tags (the same columns Validate
// checked at fit time; Transform assumes the caller passes a schema
// compatible with the one the Model was fit against). The timestamp
// window (memory, horizon, upper bound) is restored from the persisted
// EdgeModel so a window the Model was fit under filters transform-time
// matches identically.
func rebuildEdge(population, peripheral *dataframe.DataFrame, em *EdgeModel) (placeholder.Edge, error) {
	leftKeys := population.JoinKeys()
	rightKeys := peripheral.JoinKeys()
	if len(leftKeys) == 0 || len(leftKeys) != len(rightKeys) {
		return placeholder.Edge{}, errs.Validation(
			"model: population %q and peripheral %q have mismatched join-key counts (%d vs %d)",
			population.Name(), peripheral.Name(), len(leftKeys), len(rightKeys))
	}
	pairs := make([]placeholder.JoinKeyPair, len(leftKeys))
	for i := range leftKeys {
		pairs[i] = placeholder.JoinKeyPair{Left: leftKeys[i], Right: rightKeys[i]}
	}
	e := placeholder.Edge{
		Peripheral: peripheral.Name(),
		JoinKeys:   pairs,
		Memory:     em.Memory,
		Horizon:    em.Horizon,
	}
	if em.TimeColumn != "" {
		leftTS, ok := population.TimeStamp()
		if !ok {
			return placeholder.Edge{}, errs.Validation("model: population %q has no time_stamp column but edge requires one", population.Name())
		}
		e.TimeStamp = &placeholder.TimeStamp{Left: leftTS, Right: em.TimeColumn, Upper: em.UpperColumn}
	}
	return e, nil
}

func columnName(peripheral string, treeIdx int) string {
	return peripheral + "#" + strconv.Itoa(treeIdx)
}

func rowRange(n int) []int32 {
	rows := make([]int32, n)
	for i := range rows {
		rows[i] = int32(i)
	}
	return rows
}

