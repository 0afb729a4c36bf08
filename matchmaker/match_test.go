package matchmaker

import (
	"testing"

	"github.com/sqlnet/relboost/dataframe"
	"github.com/sqlnet/relboost/joinindex"
	"github.com/sqlnet/relboost/placeholder"
	"github.com/sqlnet/relboost/types"
)

func buildPopPeriph(t *testing.T) (*dataframe.DataFrame, *dataframe.DataFrame) {
	t.Helper()
	popID := types.NewIntColumn("id", "", []int32{1, 2, 3})
	pop, err := dataframe.New("pop", []types.Column{popID}, dataframe.Schema{"id": dataframe.RoleJoinKey})
	if err != nil {
		t.Fatalf("build population: %v", err)
	}
	periphID := types.NewIntColumn("id", "", []int32{1, 1, 2, types.NullCat})
	periph, err := dataframe.New("orders", []types.Column{periphID}, dataframe.Schema{"id": dataframe.RoleJoinKey})
	if err != nil {
		t.Fatalf("build peripheral: %v", err)
	}
	return pop, periph
}

func TestMakeMatchesGroupsByPopulationRow(t *testing.T) {
	pop, periph := buildPopPeriph(t)
	idx := joinindex.New(periph, []string{"id"})
	if err := idx.RebuildIfNeeded(); err != nil {
		t.Fatalf("RebuildIfNeeded: %v", err)
	}
	edge := &placeholder.Edge{JoinKeys: []placeholder.JoinKeyPair{{Left: "id", Right: "id"}}}

	result, err := MakeMatches(dataframe.Identity(pop), periph, idx, edge, nil)
	if err != nil {
		t.Fatalf("MakeMatches: %v", err)
	}
	if len(result.Group(0)) != 2 {
		t.Fatalf("expected population row 0 (id=1) to match 2 peripheral rows, got %d", len(result.Group(0)))
	}
	if len(result.Group(1)) != 1 {
		t.Fatalf("expected population row 1 (id=2) to match 1 peripheral row, got %d", len(result.Group(1)))
	}
	if len(result.Group(2)) != 0 {
		t.Fatalf("expected population row 2 (id=3) to match no peripheral rows, got %d", len(result.Group(2)))
	}
}

func TestMakeMatchesZeroWeightRowProducesNoMatches(t *testing.T) {
	pop, periph := buildPopPeriph(t)
	idx := joinindex.New(periph, []string{"id"})
	if err := idx.RebuildIfNeeded(); err != nil {
		t.Fatalf("RebuildIfNeeded: %v", err)
	}
	edge := &placeholder.Edge{JoinKeys: []placeholder.JoinKeyPair{{Left: "id", Right: "id"}}}
	weights := []float64{0, 1, 1}

	result, err := MakeMatches(dataframe.Identity(pop), periph, idx, edge, weights)
	if err != nil {
		t.Fatalf("MakeMatches: %v", err)
	}
	if len(result.Group(0)) != 0 {
		t.Fatalf("expected a zero-weight row to produce no matches, got %d", len(result.Group(0)))
	}
	if len(result.Offsets) != pop.NRows()+1 {
		t.Fatalf("expected the zero-weight row to still occupy row-index space")
	}
}

func TestMakeMatchesTimestampWindow(t *testing.T) {
	popID := types.NewIntColumn("id", "", []int32{1})
	popTS := types.NewFloatColumn("ts", "", []float64{10})
	pop, err := dataframe.New("pop", []types.Column{popID, popTS}, dataframe.Schema{
		"id": dataframe.RoleJoinKey,
		"ts": dataframe.RoleTimeStamp,
	})
	if err != nil {
		t.Fatalf("build population: %v", err)
	}
	periphID := types.NewIntColumn("id", "", []int32{1, 1, 1})
	periphTS := types.NewFloatColumn("ts", "", []float64{9, 3, 11})
	periph, err := dataframe.New("orders", []types.Column{periphID, periphTS}, dataframe.Schema{
		"id": dataframe.RoleJoinKey,
		"ts": dataframe.RoleTimeStamp,
	})
	if err != nil {
		t.Fatalf("build peripheral: %v", err)
	}

	idx := joinindex.New(periph, []string{"id"})
	if err := idx.RebuildIfNeeded(); err != nil {
		t.Fatalf("RebuildIfNeeded: %v", err)
	}
	edge := &placeholder.Edge{
		JoinKeys:  []placeholder.JoinKeyPair{{Left: "id", Right: "id"}},
		TimeStamp: &placeholder.TimeStamp{Left: "ts", Right: "ts"},
		Memory:    5,
	}

	result, err := MakeMatches(dataframe.Identity(pop), periph, idx, edge, nil)
	if err != nil {
		t.Fatalf("MakeMatches: %v", err)
	}
	// row 0 (ts=9): within [10-5, 10] -> matches. row 1 (ts=3): before the
	// memory window -> excluded. row 2 (ts=11): after population ts -> excluded.
	got := result.Group(0)
	if len(got) != 1 || got[0].PeriphRow != 0 {
		t.Fatalf("expected only peripheral row 0 to match the timestamp window, got %+v", got)
	}
}

// TestMakeMatchesMemoryWindow drives the two-row window scenario: with
// memory=100 and horizon=0, each population row only sees peripheral rows
// inside [ts-100, ts].
func TestMakeMatchesMemoryWindow(t *testing.T) {
	popID := types.NewIntColumn("id", "", []int32{1, 1})
	popTS := types.NewFloatColumn("ts", "", []float64{100, 200})
	pop, err := dataframe.New("pop", []types.Column{popID, popTS}, dataframe.Schema{
		"id": dataframe.RoleJoinKey,
		"ts": dataframe.RoleTimeStamp,
	})
	if err != nil {
		t.Fatalf("build population: %v", err)
	}
	periphID := types.NewIntColumn("id", "", []int32{1, 1, 1})
	periphTS := types.NewFloatColumn("ts", "", []float64{50, 150, 250})
	periph, err := dataframe.New("orders", []types.Column{periphID, periphTS}, dataframe.Schema{
		"id": dataframe.RoleJoinKey,
		"ts": dataframe.RoleTimeStamp,
	})
	if err != nil {
		t.Fatalf("build peripheral: %v", err)
	}

	idx := joinindex.New(periph, []string{"id"})
	if err := idx.RebuildIfNeeded(); err != nil {
		t.Fatalf("RebuildIfNeeded: %v", err)
	}
	edge := &placeholder.Edge{
		JoinKeys:  []placeholder.JoinKeyPair{{Left: "id", Right: "id"}},
		TimeStamp: &placeholder.TimeStamp{Left: "ts", Right: "ts"},
		Memory:    100,
	}

	result, err := MakeMatches(dataframe.Identity(pop), periph, idx, edge, nil)
	if err != nil {
		t.Fatalf("MakeMatches: %v", err)
	}
	if g := result.Group(0); len(g) != 1 || g[0].PeriphRow != 0 {
		t.Fatalf("pop row 0 (ts=100): expected only peripheral ts=50, got %+v", g)
	}
	if g := result.Group(1); len(g) != 1 || g[0].PeriphRow != 1 {
		t.Fatalf("pop row 1 (ts=200): expected only peripheral ts=150, got %+v", g)
	}
}

// TestMakeMatchesNoMemoryBoundKeepsAllPast checks that an edge with
// timestamps but no configured memory accepts every peripheral row at or
// before the population timestamp.
func TestMakeMatchesNoMemoryBoundKeepsAllPast(t *testing.T) {
	popID := types.NewIntColumn("id", "", []int32{1})
	popTS := types.NewFloatColumn("ts", "", []float64{200})
	pop, err := dataframe.New("pop", []types.Column{popID, popTS}, dataframe.Schema{
		"id": dataframe.RoleJoinKey,
		"ts": dataframe.RoleTimeStamp,
	})
	if err != nil {
		t.Fatalf("build population: %v", err)
	}
	periphID := types.NewIntColumn("id", "", []int32{1, 1, 1})
	periphTS := types.NewFloatColumn("ts", "", []float64{1, 150, 250})
	periph, err := dataframe.New("orders", []types.Column{periphID, periphTS}, dataframe.Schema{
		"id": dataframe.RoleJoinKey,
		"ts": dataframe.RoleTimeStamp,
	})
	if err != nil {
		t.Fatalf("build peripheral: %v", err)
	}

	idx := joinindex.New(periph, []string{"id"})
	if err := idx.RebuildIfNeeded(); err != nil {
		t.Fatalf("RebuildIfNeeded: %v", err)
	}
	edge := &placeholder.Edge{
		JoinKeys:  []placeholder.JoinKeyPair{{Left: "id", Right: "id"}},
		TimeStamp: &placeholder.TimeStamp{Left: "ts", Right: "ts"},
	}

	result, err := MakeMatches(dataframe.Identity(pop), periph, idx, edge, nil)
	if err != nil {
		t.Fatalf("MakeMatches: %v", err)
	}
	if g := result.Group(0); len(g) != 2 {
		t.Fatalf("expected both past rows (ts=1, ts=150) to match with no memory bound, got %+v", g)
	}
}

func TestMakeMatchesForRowMatchesMakeMatches(t *testing.T) {
	pop, periph := buildPopPeriph(t)
	idx := joinindex.New(periph, []string{"id"})
	if err := idx.RebuildIfNeeded(); err != nil {
		t.Fatalf("RebuildIfNeeded: %v", err)
	}
	edge := &placeholder.Edge{JoinKeys: []placeholder.JoinKeyPair{{Left: "id", Right: "id"}}}
	popView := dataframe.Identity(pop)

	full, err := MakeMatches(popView, periph, idx, edge, nil)
	if err != nil {
		t.Fatalf("MakeMatches: %v", err)
	}

	var out []Match
	if err := MakeMatchesForRow(popView, periph, idx, edge, 0, &out); err != nil {
		t.Fatalf("MakeMatchesForRow: %v", err)
	}
	if len(out) != len(full.Group(0)) {
		t.Fatalf("expected MakeMatchesForRow to reproduce MakeMatches' group 0, got %d vs %d", len(out), len(full.Group(0)))
	}
}
