// Package lossfunction implements the two second-order loss surrogates
// (SquareLoss, CrossEntropyLoss) the ensemble boosts against: residuals,
// curvatures, optimal leaf weights and the per-round update-rate line
// search.
package lossfunction

import "math"

// Loss computes the first and second derivative (gradient, curvature) of
// one loss function at the current prediction. The optimal leaf weight and
// partial loss given accumulated (Σg, Σh) are the loss-independent package
// functions OptimalLeafWeight and PartialLoss.
type Loss interface {
	// Name identifies the loss for config/logging.
	Name() string
	// Value returns L(yhat, y) for one pair, used by the validation-loss
	// monitor in the boosting loop.
	Value(yhat, y float64) float64
	// Gradient returns g = ∂L/∂yhat for one (yhat, y) pair.
	Gradient(yhat, y float64) float64
	// Curvature returns h = ∂²L/∂yhat² for one (yhat, y) pair.
	Curvature(yhat, y float64) float64
	// BasePrediction returns the constant yhat_0 the boosting loop starts
	// from, before any tree has been added.
	BasePrediction(targets []float64) float64
	// LineSearch solves for the update rate η minimizing
	// Σ L(yhatOld[i] + η*delta[i], targets[i]).
	LineSearch(yhatOld, targets, delta []float64) float64
}

// OptimalLeafWeight is the generic Newton-step leaf value:
//
//	w* = -Σg / (Σh + λ)
//
// The tree package uses it both as the weight of a flat constant leaf
// (Σg, Σh summed directly over the node's rows) and as the final scaled
// weight of an accepted leaf (Σg, Σh
// replaced by Σ(g·x), Σ(h·x²) where x is the leaf's own aggregation value
// per row) — the formula is the same in both cases, only its inputs
// differ.
func OptimalLeafWeight(sumG, sumH, lambda float64) float64 {
	denom := sumH + lambda
	if denom == 0 {
		return 0
	}
	return -sumG / denom
}

// PartialLoss is the per-leaf loss contribution used to compare candidate
// splits: -0.5 * (Σg)² / (Σh + λ).
func PartialLoss(sumG, sumH, lambda float64) float64 {
	denom := sumH + lambda
	if denom == 0 {
		return 0
	}
	return -0.5 * (sumG * sumG) / denom
}

// SquareLoss is L(yhat, y) = 0.5 (yhat - y)^2.
type SquareLoss struct{}

func (SquareLoss) Name() string { return "SquareLoss" }

func (SquareLoss) Value(yhat, y float64) float64 {
	d := yhat - y
	return 0.5 * d * d
}

func (SquareLoss) Gradient(yhat, y float64) float64 { return yhat - y }

func (SquareLoss) Curvature(yhat, y float64) float64 { return 1.0 }

// BasePrediction is zero for the square loss: the first round's leaf
// weights absorb the target's scale, and a row with no matches then stays
// at a zero prediction instead of inheriting the target mean.
func (SquareLoss) BasePrediction(targets []float64) float64 { return 0 }

// LineSearch has a closed form for square loss: minimizing
// Σ 0.5(yhatOld+η*delta-y)² over η gives η* = Σ((y-yhatOld)·delta) / Σ(delta²).
func (SquareLoss) LineSearch(yhatOld, targets, delta []float64) float64 {
	var num, den float64
	for i := range delta {
		if delta[i] == 0 {
			continue
		}
		num += (targets[i] - yhatOld[i]) * delta[i]
		den += delta[i] * delta[i]
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// CrossEntropyLoss is the logistic-regression loss for binary targets in
// {0, 1}: L(yhat, y) = -y log(sigma(yhat)) - (1-y) log(1-sigma(yhat)).
type CrossEntropyLoss struct{}

func (CrossEntropyLoss) Name() string { return "CrossEntropyLoss" }

func (CrossEntropyLoss) Value(yhat, y float64) float64 {
	const eps = 1e-15
	s := logistic(yhat)
	s = math.Min(math.Max(s, eps), 1-eps)
	return -(y*math.Log(s) + (1-y)*math.Log(1-s))
}

func logistic(yhat float64) float64 {
	return 1.0 / (1.0 + math.Exp(-yhat))
}

func (CrossEntropyLoss) Gradient(yhat, y float64) float64 {
	return logistic(yhat) - y
}

func (CrossEntropyLoss) Curvature(yhat, y float64) float64 {
	s := logistic(yhat)
	return s * (1.0 - s)
}

// BasePrediction returns the log-odds of the target mean, the usual
// cross-entropy boosting intercept; degenerates to 0 for an all-0 or
// all-1 target column rather than ±Inf.
func (CrossEntropyLoss) BasePrediction(targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	var sum float64
	for _, y := range targets {
		sum += y
	}
	p := sum / float64(len(targets))
	if p <= 0 || p >= 1 {
		return 0
	}
	return math.Log(p / (1 - p))
}

// LineSearch has no closed form for cross-entropy; it runs a few rounds
// of Newton's method on η starting from 0, mirroring how the boosting
// loop already has a Newton-step machinery available via
// OptimalLeafWeight (here applied to the 1-D problem of scaling one
// tree's raw output rather than fitting a brand-new leaf).
func (c CrossEntropyLoss) LineSearch(yhatOld, targets, delta []float64) float64 {
	eta := 0.0
	for iter := 0; iter < 12; iter++ {
		var g, h float64
		for i := range delta {
			if delta[i] == 0 {
				continue
			}
			yhat := yhatOld[i] + eta*delta[i]
			s := logistic(yhat)
			g += (s - targets[i]) * delta[i]
			h += s * (1 - s) * delta[i] * delta[i]
		}
		if h == 0 {
			break
		}
		step := g / h
		eta -= step
		if math.Abs(step) < 1e-10 {
			break
		}
	}
	return eta
}

// ByName resolves a loss function by its config string.
func ByName(name string) (Loss, bool) {
	switch name {
	case "SquareLoss":
		return SquareLoss{}, true
	case "CrossEntropyLoss":
		return CrossEntropyLoss{}, true
	default:
		return nil, false
	}
}
