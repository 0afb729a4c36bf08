package dataframe

import (
	"testing"
	"time"

	"github.com/sqlnet/relboost/types"
)

func buildSimple(t *testing.T) *DataFrame {
	t.Helper()
	id := types.NewIntColumn("id", "", []int32{0, 1, 2})
	v := types.NewFloatColumn("v", "", []float64{1, 2, 3})
	df, err := New("t", []types.Column{id, v}, Schema{
		"id": RoleJoinKey,
		"v":  RoleNumerical,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return df
}

func TestNewIndexesRolesSorted(t *testing.T) {
	a := types.NewFloatColumn("b_col", "", []float64{1})
	b := types.NewFloatColumn("a_col", "", []float64{1})
	df, err := New("t", []types.Column{a, b}, Schema{
		"b_col": RoleNumerical,
		"a_col": RoleNumerical,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := df.Numerical()
	if len(got) != 2 || got[0] != "a_col" || got[1] != "b_col" {
		t.Fatalf("expected sorted [a_col b_col], got %v", got)
	}
}

func TestNewRejectsMismatchedLength(t *testing.T) {
	a := types.NewFloatColumn("a", "", []float64{1, 2})
	b := types.NewFloatColumn("b", "", []float64{1})
	if _, err := New("t", []types.Column{a, b}, Schema{"a": RoleNumerical, "b": RoleNumerical}); err == nil {
		t.Fatal("expected an error for mismatched column lengths")
	}
}

func TestNewRejectsDuplicateColumnNames(t *testing.T) {
	a := types.NewFloatColumn("a", "", []float64{1})
	a2 := types.NewFloatColumn("a", "", []float64{2})
	if _, err := New("t", []types.Column{a, a2}, Schema{"a": RoleNumerical}); err == nil {
		t.Fatal("expected an error for duplicate column names")
	}
}

func TestNewRejectsSchemaReferencingUnknownColumn(t *testing.T) {
	a := types.NewFloatColumn("a", "", []float64{1})
	if _, err := New("t", []types.Column{a}, Schema{"missing": RoleNumerical}); err == nil {
		t.Fatal("expected an error for a schema entry referencing an unknown column")
	}
}

func TestColumnLookup(t *testing.T) {
	df := buildSimple(t)
	if _, ok := df.Column("v"); !ok {
		t.Fatal("expected column v to be found")
	}
	if _, ok := df.Column("nope"); ok {
		t.Fatal("expected column nope to be missing")
	}
}

func TestRLockTimeoutFailsWhileWriterHolds(t *testing.T) {
	df := buildSimple(t)
	df.Lock()
	defer df.Unlock()

	if err := df.RLockTimeout(10 * time.Millisecond); err == nil {
		t.Fatal("expected RLockTimeout to fail while the write lock is held")
	}
}

func TestRLockSucceedsConcurrentlyWithOtherReaders(t *testing.T) {
	df := buildSimple(t)
	df.RLock()
	defer df.RUnlock()

	if err := df.RLockTimeout(50 * time.Millisecond); err != nil {
		t.Fatalf("expected a second reader to succeed, got %v", err)
	}
	df.RUnlock()
}

func TestViewProjectsRows(t *testing.T) {
	df := buildSimple(t)
	v := NewView(df, []int32{2, 0})
	if v.Len() != 2 || v.RowOf(0) != 2 {
		t.Fatalf("unexpected view: len=%d row0=%d", v.Len(), v.RowOf(0))
	}
	cv, ok := v.Column("v")
	if !ok {
		t.Fatal("expected column v to resolve through the view")
	}
	if cv.Float(0) != 3 || cv.Float(1) != 1 {
		t.Fatalf("unexpected projected values: %v %v", cv.Float(0), cv.Float(1))
	}
}

func TestIdentityViewCoversEveryRowInOrder(t *testing.T) {
	df := buildSimple(t)
	v := Identity(df)
	if v.Len() != df.NRows() {
		t.Fatalf("expected identity view length %d, got %d", df.NRows(), v.Len())
	}
	for i := 0; i < v.Len(); i++ {
		if v.RowOf(i) != int32(i) {
			t.Fatalf("expected identity view row %d to map to %d, got %d", i, i, v.RowOf(i))
		}
	}
}
