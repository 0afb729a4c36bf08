package model

import (
	"sort"

	"github.com/sqlnet/relboost/aggregation"
	"github.com/sqlnet/relboost/dataframe"
	"github.com/sqlnet/relboost/errs"
	"github.com/sqlnet/relboost/placeholder"
	"github.com/sqlnet/relboost/tree"
	"github.com/sqlnet/relboost/types"
)

// buildCandidateSpecs enumerates every (column, aggregation) pair a
// peripheral table offers: one candidate per attribute column and
// compatible aggregation kind, gated by the configured allow-list (a nil
// allow permits every kind). Join-key, timestamp and unused columns never
// become candidates, and target columns only when the edge sets
// AllowLaggedTargets (then as numerical attributes) — otherwise only the
// four attribute roles (numerical, categorical, discrete, text) do, plus
// two derived families:
//
//   - same-units pairs: a population numerical column and a peripheral
//     numerical column carrying the same non-empty unit label become a
//     difference candidate (population minus peripheral);
//   - the timestamp-diff candidate, generated when the edge carries
//     timestamps on both sides.
//
// Categorical columns only pair with the kinds whose input is a category
// id; time-dependent kinds (ewma, trend, time_since_*, ...) are skipped
// entirely on an edge without timestamps. Text columns yield one candidate
// each: the word binner supplies the conditions, count the leaf
// aggregation (a word id is not summable).
func buildCandidateSpecs(population, peripheral *dataframe.DataFrame, edge *placeholder.Edge, allow map[aggregation.Kind]bool) []CandidateSpec {
	var specs []CandidateSpec

	hasTime := edge != nil && edge.TimeStamp != nil
	permitted := func(k aggregation.Kind) bool {
		if allow != nil && !allow[k] {
			return false
		}
		if !hasTime && aggregation.Describe(k).NeedsSortedByTime {
			return false
		}
		return true
	}

	addNumericLike := func(col, popCol string, class tree.AttrClass) {
		for _, k := range aggregation.All() {
			if !permitted(k) || !aggregation.ApplicableTo(k, aggregation.Numeric) {
				continue
			}
			specs = append(specs, CandidateSpec{Column: col, PopColumn: popCol, Class: class, Aggregation: k})
		}
	}

	for _, col := range peripheral.Numerical() {
		addNumericLike(col, "", tree.ClassNumerical)
	}
	for _, col := range peripheral.Discrete() {
		addNumericLike(col, "", tree.ClassDiscrete)
	}
	if edge != nil && edge.AllowLaggedTargets {
		for _, col := range peripheral.Targets() {
			addNumericLike(col, "", tree.ClassNumerical)
		}
	}
	for _, col := range peripheral.Categorical() {
		for _, k := range aggregation.All() {
			if !permitted(k) || !aggregation.ApplicableTo(k, aggregation.Categorical) {
				continue
			}
			specs = append(specs, CandidateSpec{Column: col, Class: tree.ClassCategorical, Aggregation: k})
		}
	}
	for _, col := range peripheral.Text() {
		if permitted(aggregation.Count) {
			specs = append(specs, CandidateSpec{Column: col, Class: tree.ClassText, Aggregation: aggregation.Count})
		}
	}

	// Same-units pairs, combined pairwise only: a shared non-empty unit
	// label across the two tables is what licenses a difference.
	for _, popName := range population.Numerical() {
		popCol, ok := population.Column(popName)
		if !ok || popCol.Unit() == "" {
			continue
		}
		for _, perName := range peripheral.Numerical() {
			perCol, ok := peripheral.Column(perName)
			if !ok || perCol.Unit() != popCol.Unit() {
				continue
			}
			addNumericLike(perName, popName, tree.ClassNumerical)
		}
	}

	if hasTime {
		addNumericLike(edge.TimeStamp.Right, edge.TimeStamp.Left, tree.ClassNumerical)
	}

	sort.Slice(specs, func(i, j int) bool {
		if specs[i].Column != specs[j].Column {
			return specs[i].Column < specs[j].Column
		}
		if specs[i].PopColumn != specs[j].PopColumn {
			return specs[i].PopColumn < specs[j].PopColumn
		}
		return specs[i].Aggregation < specs[j].Aggregation
	})
	return specs
}

// resolveCandidates rebinds a set of pointer-free CandidateSpecs against
// whatever DataFrames are supplied — the fit-time tables when called from
// Fit, or freshly loaded ones of the same shape when called from
// Transform. A tree.Candidate's ColumnViews are only valid for the
// instance they were built against, so every Fit/Transform call rebuilds
// them rather than reusing the ones captured at fit time.
func resolveCandidates(population, peripheral *dataframe.DataFrame, specs []CandidateSpec, timeColName string) ([]tree.Candidate, error) {
	var timeView *types.ColumnView
	if timeColName != "" {
		tc, ok := peripheral.Column(timeColName)
		if !ok {
			return nil, errs.Validation("model: time column %q missing from peripheral %q", timeColName, peripheral.Name())
		}
		timeView = identityView(tc)
	}

	out := make([]tree.Candidate, len(specs))
	for i, spec := range specs {
		col, ok := peripheral.Column(spec.Column)
		if !ok {
			return nil, errs.Validation("model: candidate column %q missing from peripheral %q", spec.Column, peripheral.Name())
		}
		c := tree.Candidate{Column: spec.Column, PopColumn: spec.PopColumn, Class: spec.Class, Aggregation: spec.Aggregation, TimeCol: timeView}
		switch spec.Class {
		case tree.ClassNumerical, tree.ClassDiscrete:
			c.FloatCol = identityView(col)
			if spec.PopColumn != "" {
				pc, ok := population.Column(spec.PopColumn)
				if !ok {
					return nil, errs.Validation("model: candidate column %q missing from population %q", spec.PopColumn, population.Name())
				}
				c.PopCol = identityView(pc)
			}
		case tree.ClassCategorical:
			c.CatCol = identityView(col)
		case tree.ClassText:
			if tc, ok := col.(*types.TextColumn); ok {
				c.TextCol = tc
			}
		}
		out[i] = c
	}
	return out, nil
}

func identityView(c types.Column) *types.ColumnView {
	idx := make([]int32, c.Len())
	for i := range idx {
		idx[i] = int32(i)
	}
	return types.NewColumnView(c, idx)
}

// ensembleColumns builds the tree.Columns lookup table a fitted
// ensemble's Transform/FeatureMatrix needs, from the same candidates
// resolveCandidates produced.
func ensembleColumns(candidates []tree.Candidate) tree.Columns {
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
