// Package score computes evaluation metrics over predictions: regression
// metrics {rmse, mae, rsquared} or classification metrics {accuracy, auc,
// cross_entropy}, selected by the is_classification flag.
package score

import (
	"math"
	"sort"

	"github.com/sqlnet/relboost/errs"
)

// Result holds whichever subset of metrics applies; unused fields are
// left at their zero value rather than NaN so callers can print the
// struct directly without special-casing the other mode.
type Result struct {
	RMSE         float64
	MAE          float64
	RSquared     float64
	Accuracy     float64
	AUC          float64
	CrossEntropy float64
}

// Score computes regression or classification metrics over yhat vs y,
// matching lengths required. Classification treats y as binary labels in
// {0,1} and yhat as either a score or a probability in [0,1]; AUC ranks by
// yhat so it is scale-invariant either way.
func Score(yhat, y []float64, isClassification bool) (Result, error) {
	if len(yhat) != len(y) {
		return Result{}, errs.Validation("score: yhat and y length mismatch (%d vs %d)", len(yhat), len(y))
	}
	if len(y) == 0 {
		return Result{}, errs.Validation("score: empty input")
	}
	if isClassification {
		return classificationScore(yhat, y), nil
	}
	return regressionScore(yhat, y), nil
}

func regressionScore(yhat, y []float64) Result {
	n := float64(len(y))
	var sumSqErr, sumAbsErr, mean float64
	for _, v := range y {
		mean += v
	}
	mean /= n
	var ssTot float64
	for i := range y {
		err := yhat[i] - y[i]
		sumSqErr += err * err
		sumAbsErr += math.Abs(err)
		d := y[i] - mean
		ssTot += d * d
	}
	r2 := 1.0
	if ssTot > 0 {
		r2 = 1 - sumSqErr/ssTot
	}
	return Result{
		RMSE:     math.Sqrt(sumSqErr / n),
		MAE:      sumAbsErr / n,
		RSquared: r2,
	}
}

func classificationScore(yhat, y []float64) Result {
	n := float64(len(y))
	var correct, ce float64
	for i := range y {
		p := clamp01(yhat[i])
		pred := 0.0
		if p >= 0.5 {
			pred = 1.0
		}
		if pred == y[i] {
			correct++
		}
		ce += crossEntropyTerm(p, y[i])
	}
	return Result{
		Accuracy:     correct / n,
		AUC:          auc(yhat, y),
		CrossEntropy: ce / n,
	}
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func crossEntropyTerm(p, y float64) float64 {
	const eps = 1e-15
	p = math.Min(math.Max(p, eps), 1-eps)
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

// auc computes the area under the ROC curve via the rank-sum (Mann-Whitney
// U) formula, avoiding an explicit threshold sweep.
func auc(yhat, y []float64) float64 {
	type pair struct {
		score float64
		label float64
	}
	pairs := make([]pair, len(y))
	for i := range y {
		pairs[i] = pair{yhat[i], y[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	ranks := make([]float64, len(pairs))
	i := 0
	for i < len(pairs) {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			j++
		}
		avgRank := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[k] = avgRank
		}
		i = j
	}

	var sumRankPos, nPos, nNeg float64
	for i, p := range pairs {
		if p.label == 1 {
			sumRankPos += ranks[i]
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return math.NaN()
	}
	return (sumRankPos - nPos*(nPos+1)/2) / (nPos * nNeg)
}
