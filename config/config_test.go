package config

import "testing"

func TestValidateRejectsUnknownLoss(t *testing.T) {
	hp := Default()
	hp.LossFunction = "NoSuchLoss"
	if err := hp.Validate(); err == nil {
		t.Fatal("expected validation error for unknown loss function")
	}
}

func TestValidateRejectsUnknownAggregation(t *testing.T) {
	hp := Default()
	hp.Aggregations = []string{"sum", "not_a_real_aggregation"}
	if err := hp.Validate(); err == nil {
		t.Fatal("expected validation error for unknown aggregation")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected default hyperparams to validate, got %v", err)
	}
}
