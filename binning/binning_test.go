package binning

import "testing"

func TestNumericalFindsSeparatingThreshold(t *testing.T) {
	// Rows with value<=2 have positive gradient, rows with value>2 negative:
	// splitting at 2 should fully separate the two groups.
	data := []MatchDatum{
		{Value: 1, G: 1, H: 1},
		{Value: 2, G: 1, H: 1},
		{Value: 3, G: -1, H: 1},
		{Value: 4, G: -1, H: 1},
	}
	split, ok := Numerical(data, 0, 1)
	if !ok {
		t.Fatal("expected a split")
	}
	if split.Predicate.Threshold != 2 {
		t.Fatalf("expected threshold 2, got %v", split.Predicate.Threshold)
	}
	if split.Reduction <= 0 {
		t.Fatalf("expected positive reduction, got %v", split.Reduction)
	}
}

func TestNumericalBelowMinSamplesReturnsNone(t *testing.T) {
	data := []MatchDatum{{Value: 1, G: 1, H: 1}}
	if _, ok := Numerical(data, 0, 5); ok {
		t.Fatal("expected no split below min_num_samples")
	}
}

func TestNumericalSkipsEqualValueBoundary(t *testing.T) {
	data := []MatchDatum{
		{Value: 1, G: 1, H: 1},
		{Value: 1, G: 1, H: 1},
		{Value: 1, G: -1, H: 1},
	}
	// Every value is identical: there is no valid boundary to split on.
	if _, ok := Numerical(data, 0, 1); ok {
		t.Fatal("expected no split when all values are equal")
	}
}

func TestCategoricalSeparatesTwoGroups(t *testing.T) {
	data := []MatchDatum{
		{Cat: 1, G: 1, H: 1},
		{Cat: 1, G: 1, H: 1},
		{Cat: 2, G: -1, H: 1},
		{Cat: 2, G: -1, H: 1},
	}
	split, ok := Categorical(data, 0, 1)
	if !ok {
		t.Fatal("expected a split")
	}
	if split.Predicate.TestCategory(1) == split.Predicate.TestCategory(2) {
		t.Fatal("expected categories 1 and 2 on opposite sides")
	}
}

func TestWordPicksBestDiscriminatingWord(t *testing.T) {
	data := []WordDatum{
		{Words: []int32{10, 11}, G: 1, H: 1},
		{Words: []int32{10}, G: 1, H: 1},
		{Words: []int32{11}, G: -1, H: 1},
		{Words: []int32{}, G: -1, H: 1},
	}
	split, ok := Word(data, 0, 1)
	if !ok {
		t.Fatal("expected a split")
	}
	if split.Predicate.Word != 10 {
		t.Fatalf("expected word 10 to separate the groups best, got %v", split.Predicate.Word)
	}
}
