// Package matchmaker pairs population rows with the peripheral rows whose
// join key matches and whose timestamp passes the configured window. It
// offers a bulk builder covering a whole population view and a single-row
// refresh for callers that only need one row's matches recomputed.
package matchmaker

import (
	"github.com/sqlnet/relboost/dataframe"
	"github.com/sqlnet/relboost/joinindex"
	"github.com/sqlnet/relboost/placeholder"
	"github.com/sqlnet/relboost/types"
)

// Match is one (population-row, peripheral-row) pair that passed the
// join-key/timestamp filter.
type Match struct {
	PopRow    int32
	PeriphRow int32
}

// Result is the Matchmaker's output: a flat buffer of matches grouped by
// population row. Matches for view row i live in
// Matches[Offsets[i]:Offsets[i+1]].
type Result struct {
	Matches []Match
	Offsets []int32
}

// Group returns the matches belonging to population view row i.
func (r *Result) Group(i int) []Match {
	return r.Matches[r.Offsets[i]:r.Offsets[i+1]]
}

// MakeMatches builds matches for every row of pop against peripheral,
// using idx (already rebuilt) for the join-key lookup. weights is optional
// (nil means every row has weight 1); a zero-weight population row
// produces no matches but still occupies the row-index space. Matches are
// grouped by population row in ascending row order, and within a group by
// peripheral row in ascending row order.
func MakeMatches(pop *dataframe.View, peripheral *dataframe.DataFrame, idx *joinindex.Index, edge *placeholder.Edge, weights []float64) (*Result, error) {
	n := pop.Len()
	offsets := make([]int32, n+1)
	var matches []Match

	leftKeys, err := resolveKeyColumns(pop, edge)
	if err != nil {
		return nil, err
	}
	tctx, err := resolveTimeColumns(pop, peripheral, edge)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		offsets[i] = int32(len(matches))
		if weights != nil && weights[i] == 0 {
			continue
		}
		keyVals, null := extractKeyVals(leftKeys, i)
		if null {
			continue
		}
		rows := idx.Lookup(keyVals)
		if len(rows) == 0 {
			continue
		}
		if tctx == nil {
			for _, r := range rows {
				matches = append(matches, Match{PopRow: int32(pop.RowOf(i)), PeriphRow: r})
			}
			continue
		}
		tsEff, upperOK, upper, ok := tctx.effectiveForRow(i)
		if !ok {
			continue // null population timestamp: never matches
		}
		for _, r := range rows {
			rt := tctx.right.Float(int(r))
			if types.IsNullFloat(rt) {
				continue
			}
			if rt > tsEff {
				continue
			}
			if tctx.memory > 0 && rt+tctx.memory < tsEff {
				continue
			}
			if upperOK && rt >= upper {
				continue
			}
			matches = append(matches, Match{PopRow: int32(pop.RowOf(i)), PeriphRow: r})
		}
	}
	offsets[n] = int32(len(matches))
	return &Result{Matches: matches, Offsets: offsets}, nil
}

// MakeMatchesForRow overwrites out with the current matches of a single
// population view row, for use during split search when only one row's
// matches need re-filtering rather than a full rebuild.
func MakeMatchesForRow(pop *dataframe.View, peripheral *dataframe.DataFrame, idx *joinindex.Index, edge *placeholder.Edge, row int, out *[]Match) error {
	leftKeys, err := resolveKeyColumns(pop, edge)
	if err != nil {
		return err
	}
	tctx, err := resolveTimeColumns(pop, peripheral, edge)
	if err != nil {
		return err
	}

	*out = (*out)[:0]
	keyVals, null := extractKeyVals(leftKeys, row)
	if null {
		return nil
	}
	rows := idx.Lookup(keyVals)
	if len(rows) == 0 {
		return nil
	}
	popRow := int32(pop.RowOf(row))
	if tctx == nil {
		for _, r := range rows {
			*out = append(*out, Match{PopRow: popRow, PeriphRow: r})
		}
		return nil
	}
	tsEff, upperOK, upper, ok := tctx.effectiveForRow(row)
	if !ok {
		return nil
	}
	for _, r := range rows {
		rt := tctx.right.Float(int(r))
		if types.IsNullFloat(rt) {
			continue
		}
		if rt > tsEff {
			continue
		}
		if tctx.memory > 0 && rt+tctx.memory < tsEff {
			continue
		}
		if upperOK && rt >= upper {
			continue
		}
		*out = append(*out, Match{PopRow: popRow, PeriphRow: r})
	}
	return nil
}

// MakePointers builds index pointers into matches so a caller can reorder
// pointers during split search instead of copying Match structs.
func MakePointers(matches []Match) []*Match {
	out := make([]*Match, len(matches))
	for i := range matches {
		out[i] = &matches[i]
	}
	return out
}

func extractKeyVals(leftKeys []*types.ColumnView, row int) (vals []int32, isNull bool) {
	vals = make([]int32, len(leftKeys))
	for i, c := range leftKeys {
		v := c.Int(row)
		if types.IsNullCat(v) {
			return nil, true
		}
		vals[i] = v
	}
	return vals, false
}

// resolveKeyColumns resolves the edge's left-side (population) join-key
// columns; the right side is resolved once by the joinindex.Index the
// caller already built over the peripheral table.
func resolveKeyColumns(pop *dataframe.View, edge *placeholder.Edge) ([]*types.ColumnView, error) {
	left := make([]*types.ColumnView, len(edge.JoinKeys))
	for i, jk := range edge.JoinKeys {
		cv, ok := pop.Column(jk.Left)
		if !ok {
			return nil, errMissingColumn(jk.Left, pop.Base().Name())
		}
		left[i] = cv
	}
	return left, nil
}

type timeContext struct {
	left    *types.ColumnView
	right   *types.ColumnView
	upper   *types.ColumnView
	memory  float64
	horizon float64
}

func resolveTimeColumns(pop *dataframe.View, peripheral *dataframe.DataFrame, edge *placeholder.Edge) (*timeContext, error) {
	if edge.TimeStamp == nil {
		return nil, nil
	}
	left, ok := pop.Column(edge.TimeStamp.Left)
	if !ok {
		return nil, errMissingColumn(edge.TimeStamp.Left, pop.Base().Name())
	}
	rightCol, ok := peripheral.Column(edge.TimeStamp.Right)
	if !ok {
		return nil, errMissingColumn(edge.TimeStamp.Right, peripheral.Name())
	}
	right := types.NewColumnView(rightCol, identity(peripheral.NRows()))
	var upper *types.ColumnView
	if edge.TimeStamp.Upper != "" {
		u, ok := pop.Column(edge.TimeStamp.Upper)
		if !ok {
			return nil, errMissingColumn(edge.TimeStamp.Upper, pop.Base().Name())
		}
		upper = u
	}
	return &timeContext{left: left, right: right, upper: upper, memory: edge.Memory, horizon: edge.Horizon}, nil
}

func identity(n int) []int32 {
	idx := make([]int32, n)
	for i := range idx {
		idx[i] = int32(i)
	}
	return idx
}

// effectiveForRow returns the row's effective timestamp (raw timestamp
// minus the horizon offset) plus the optional per-row upper bound. ok is
// false when the population timestamp is null; null timestamps never
// match.
func (t *timeContext) effectiveForRow(row int) (tsEff float64, upperOK bool, upper float64, ok bool) {
	v := t.left.Float(row)
	if types.IsNullFloat(v) {
		return 0, false, 0, false
	}
	tsEff = v - t.horizon
	if t.upper != nil {
		u := t.upper.Float(row)
		if !types.IsNullFloat(u) {
			return tsEff, true, u, true
		}
	}
	return tsEff, false, 0, true
}
