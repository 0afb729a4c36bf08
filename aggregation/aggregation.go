// Package aggregation implements the aggregation kinds applied to one
// population row's group of matched peripheral values, producing a single
// scalar feature contribution.
package aggregation

import (
	"math"
	"sort"
)

// Kind identifies one aggregation function.
type Kind int

const (
	Avg Kind = iota
	AvgTimeBetween
	Count
	CountAboveMean
	CountBelowMean
	CountDistinct
	CountDistinctOverCount
	CountMinusCountDistinct
	EWMA1s
	EWMA1m
	EWMA1h
	EWMA1d
	EWMA7d
	EWMA30d
	EWMA90d
	EWMA365d
	EWMATrend1s
	EWMATrend1m
	EWMATrend1h
	EWMATrend1d
	EWMATrend7d
	EWMATrend30d
	EWMATrend90d
	EWMATrend365d
	First
	Kurtosis
	Last
	Max
	Median
	Min
	Mode
	NumMax
	NumMin
	Q1
	Q5
	Q10
	Q25
	Q75
	Q90
	Q95
	Q99
	Skew
	Stddev
	Sum
	TimeSinceFirstMaximum
	TimeSinceFirstMinimum
	TimeSinceLastMaximum
	TimeSinceLastMinimum
	Trend
	Variance
	VariationCoefficient
)

var names = map[Kind]string{
	Avg: "avg", AvgTimeBetween: "avg_time_between", Count: "count",
	CountAboveMean: "count_above_mean", CountBelowMean: "count_below_mean",
	CountDistinct: "count_distinct", CountDistinctOverCount: "count_distinct_over_count",
	CountMinusCountDistinct: "count_minus_count_distinct",
	EWMA1s: "ewma_1s", EWMA1m: "ewma_1m", EWMA1h: "ewma_1h", EWMA1d: "ewma_1d",
	EWMA7d: "ewma_7d", EWMA30d: "ewma_30d", EWMA90d: "ewma_90d", EWMA365d: "ewma_365d",
	EWMATrend1s: "ewma_trend_1s", EWMATrend1m: "ewma_trend_1m", EWMATrend1h: "ewma_trend_1h",
	EWMATrend1d: "ewma_trend_1d", EWMATrend7d: "ewma_trend_7d", EWMATrend30d: "ewma_trend_30d",
	EWMATrend90d: "ewma_trend_90d", EWMATrend365d: "ewma_trend_365d",
	First: "first", Kurtosis: "kurtosis", Last: "last", Max: "max", Median: "median",
	Min: "min", Mode: "mode", NumMax: "num_max", NumMin: "num_min",
	Q1: "q1", Q5: "q5", Q10: "q10", Q25: "q25", Q75: "q75", Q90: "q90", Q95: "q95", Q99: "q99",
	Skew: "skew", Stddev: "stddev", Sum: "sum",
	TimeSinceFirstMaximum: "time_since_first_maximum", TimeSinceFirstMinimum: "time_since_first_minimum",
	TimeSinceLastMaximum: "time_since_last_maximum", TimeSinceLastMinimum: "time_since_last_minimum",
	Trend: "trend", Variance: "var", VariationCoefficient: "variation_coefficient",
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return "unknown"
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, len(names))
	for k, n := range names {
		m[n] = k
	}
	return m
}()

// ByName resolves an aggregation kind by its config string.
func ByName(name string) (Kind, bool) {
	k, ok := byName[name]
	return k, ok
}

// All returns every known aggregation kind, sorted by name so candidate
// generation is reproducible.
func All() []Kind {
	out := make([]Kind, 0, len(names))
	for k := range names {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// zeroDefault lists the additive kinds whose empty-group default is 0
// rather than NaN — counts (nothing to count) and sums (nothing to add)
// have a natural neutral element; location/spread statistics (avg, min,
// stddev, ...) do not, and default to NaN instead.
var zeroDefault = map[Kind]bool{
	Count: true, CountAboveMean: true, CountBelowMean: true, CountDistinct: true,
	CountDistinctOverCount: true, CountMinusCountDistinct: true, NumMax: true, NumMin: true,
	Sum: true,
}

// EmptyValue returns the aggregation's output on a population row with no
// matching peripheral rows.
func EmptyValue(k Kind) float64 {
	if zeroDefault[k] {
		return 0
	}
	return math.NaN()
}

// Point is one matched peripheral row's (value, time) pair, time being the
// peripheral timestamp used by the time-aware aggregations (ewma, trend,
// time_since_*, avg_time_between). Non-time-aware aggregations ignore Time.
type Point struct {
	Value float64
	Time  float64
}

// Aggregate computes kind over pts, filtering out NaN values first (the
// aggregation layer sees already-extracted values; null handling upstream
// in the binner/matchmaker only prevents a match from ever reaching here
// — this filter guards against a genuinely NaN peripheral cell).
func Aggregate(k Kind, pts []Point) float64 {
	vals := make([]float64, 0, len(pts))
	for _, p := range pts {
		if !math.IsNaN(p.Value) {
			vals = append(vals, p.Value)
		}
	}
	if len(vals) == 0 && k != Count && k != CountDistinct {
		return EmptyValue(k)
	}
	switch k {
	case Count:
		return float64(len(pts))
	case Sum:
		return sum(vals)
	case Avg:
		return sum(vals) / float64(len(vals))
	case Min:
		return minOf(vals)
	case Max:
		return maxOf(vals)
	case First:
		return firstByTime(pts, true)
	case Last:
		return firstByTime(pts, false)
	case Median:
		return quantile(vals, 0.5)
	case Q1:
		return quantile(vals, 0.01)
	case Q5:
		return quantile(vals, 0.05)
	case Q10:
		return quantile(vals, 0.10)
	case Q25:
		return quantile(vals, 0.25)
	case Q75:
		return quantile(vals, 0.75)
	case Q90:
		return quantile(vals, 0.90)
	case Q95:
		return quantile(vals, 0.95)
	case Q99:
		return quantile(vals, 0.99)
	case Stddev:
		return math.Sqrt(variance(vals))
	case Variance:
		return variance(vals)
	case VariationCoefficient:
		m := sum(vals) / float64(len(vals))
		if m == 0 {
			return math.NaN()
		}
		return math.Sqrt(variance(vals)) / m
	case Skew:
		return skew(vals)
	case Kurtosis:
		return kurtosis(vals)
	case CountAboveMean:
		m := sum(vals) / float64(len(vals))
		n := 0
		for _, v := range vals {
			if v > m {
				n++
			}
		}
		return float64(n)
	case CountBelowMean:
		m := sum(vals) / float64(len(vals))
		n := 0
		for _, v := range vals {
			if v < m {
				n++
			}
		}
		return float64(n)
	case CountDistinct:
		return float64(len(distinctSet(vals)))
	case CountDistinctOverCount:
		if len(pts) == 0 {
			return 0
		}
		return float64(len(distinctSet(vals))) / float64(len(pts))
	case CountMinusCountDistinct:
		return float64(len(pts)) - float64(len(distinctSet(vals)))
	case Mode:
		return mode(vals)
	case NumMin:
		return countExtreme(vals, minOf(vals))
	case NumMax:
		return countExtreme(vals, maxOf(vals))
	case Trend:
		return trend(pts)
	case AvgTimeBetween:
		return avgTimeBetween(pts)
	case TimeSinceFirstMaximum:
		return timeSinceExtreme(pts, true, true)
	case TimeSinceFirstMinimum:
		return timeSinceExtreme(pts, false, true)
	case TimeSinceLastMaximum:
		return timeSinceExtreme(pts, true, false)
	case TimeSinceLastMinimum:
		return timeSinceExtreme(pts, false, false)
	case EWMA1s:
		return ewma(pts, 1)
	case EWMA1m:
		return ewma(pts, 60)
	case EWMA1h:
		return ewma(pts, 3600)
	case EWMA1d:
		return ewma(pts, 86400)
	case EWMA7d:
		return ewma(pts, 7*86400)
	case EWMA30d:
		return ewma(pts, 30*86400)
	case EWMA90d:
		return ewma(pts, 90*86400)
	case EWMA365d:
		return ewma(pts, 365*86400)
	case EWMATrend1s:
		return ewmaTrend(pts, 1)
	case EWMATrend1m:
		return ewmaTrend(pts, 60)
	case EWMATrend1h:
		return ewmaTrend(pts, 3600)
	case EWMATrend1d:
		return ewmaTrend(pts, 86400)
	case EWMATrend7d:
		return ewmaTrend(pts, 7*86400)
	case EWMATrend30d:
		return ewmaTrend(pts, 30*86400)
	case EWMATrend90d:
		return ewmaTrend(pts, 90*86400)
	case EWMATrend365d:
		return ewmaTrend(pts, 365*86400)
	default:
		return math.NaN()
	}
}

func sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func variance(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := sum(vals) / float64(len(vals))
	var ss float64
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return ss / float64(len(vals)-1)
}

func skew(vals []float64) float64 {
	n := float64(len(vals))
	if n < 3 {
		return math.NaN()
	}
	m := sum(vals) / n
	var m2, m3 float64
	for _, v := range vals {
		d := v - m
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return 0
	}
	return m3 / math.Pow(m2, 1.5)
}

func kurtosis(vals []float64) float64 {
	n := float64(len(vals))
	if n < 4 {
		return math.NaN()
	}
	m := sum(vals) / n
	var m2, m4 float64
	for _, v := range vals {
		d := v - m
		m2 += d * d
		m4 += d * d * d * d
	}
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return 0
	}
	return m4/(m2*m2) - 3.0
}

func quantile(vals []float64, q float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func distinctSet(vals []float64) map[float64]bool {
	m := make(map[float64]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

func mode(vals []float64) float64 {
	counts := map[float64]int{}
	for _, v := range vals {
		counts[v]++
	}
	best := vals[0]
	bestN := 0
	// Deterministic over map iteration: scan sorted keys so ties resolve to
	// the smallest value.
	keys := make([]float64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	for _, k := range keys {
		if counts[k] > bestN {
			bestN = counts[k]
			best = k
		}
	}
	return best
}

func countExtreme(vals []float64, extreme float64) float64 {
	n := 0
	for _, v := range vals {
		if v == extreme {
			n++
		}
	}
	return float64(n)
}

func firstByTime(pts []Point, first bool) float64 {
	var best *Point
	for i := range pts {
		p := &pts[i]
		if math.IsNaN(p.Value) {
			continue
		}
		if best == nil {
			best = p
			continue
		}
		if first && p.Time < best.Time {
			best = p
		}
		if !first && p.Time >= best.Time {
			best = p
		}
	}
	if best == nil {
		return math.NaN()
	}
	return best.Value
}

// trend is the slope of the least-squares fit of value against time.
func trend(pts []Point) float64 {
	var n, sumT, sumV, sumTT, sumTV float64
	for _, p := range pts {
		if math.IsNaN(p.Value) {
			continue
		}
		n++
		sumT += p.Time
		sumV += p.Value
		sumTT += p.Time * p.Time
		sumTV += p.Time * p.Value
	}
	if n < 2 {
		return math.NaN()
	}
	denom := n*sumTT - sumT*sumT
	if denom == 0 {
		return 0
	}
	return (n*sumTV - sumT*sumV) / denom
}

func avgTimeBetween(pts []Point) float64 {
	times := make([]float64, 0, len(pts))
	for _, p := range pts {
		times = append(times, p.Time)
	}
	if len(times) < 2 {
		return math.NaN()
	}
	sort.Float64s(times)
	var total float64
	for i := 1; i < len(times); i++ {
		total += times[i] - times[i-1]
	}
	return total / float64(len(times)-1)
}

func timeSinceExtreme(pts []Point, wantMax, wantFirst bool) float64 {
	var bestV float64
	var bestT float64
	var latestT float64
	found := false
	for _, p := range pts {
		if math.IsNaN(p.Value) {
			continue
		}
		if p.Time > latestT || !found {
			latestT = p.Time
		}
		if !found {
			bestV, bestT = p.Value, p.Time
			found = true
			continue
		}
		better := false
		if wantMax {
			better = p.Value > bestV
		} else {
			better = p.Value < bestV
		}
		if wantFirst {
			if better || (p.Value == bestV && p.Time < bestT) {
				bestV, bestT = p.Value, p.Time
			}
		} else {
			if better || (p.Value == bestV && p.Time >= bestT) {
				bestV, bestT = p.Value, p.Time
			}
		}
	}
	if !found {
		return math.NaN()
	}
	return latestT - bestT
}

// ewma applies an exponentially-weighted moving average over pts ordered
// by Time, with decay halfLifeSeconds.
func ewma(pts []Point, halfLifeSeconds float64) float64 {
	sorted := append([]Point(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	var acc, weightSum float64
	found := false
	var lastT float64
	for _, p := range sorted {
		if math.IsNaN(p.Value) {
			continue
		}
		if !found {
			acc = p.Value
			weightSum = 1
			lastT = p.Time
			found = true
			continue
		}
		dt := p.Time - lastT
		decay := math.Pow(0.5, dt/halfLifeSeconds)
		acc = acc*decay + p.Value
		weightSum = weightSum*decay + 1
		lastT = p.Time
	}
	if !found {
		return math.NaN()
	}
	return acc / weightSum
}

// ewmaTrend is the discrete derivative of the EWMA series at its last
// point, approximating instantaneous trend under exponential decay.
func ewmaTrend(pts []Point, halfLifeSeconds float64) float64 {
	sorted := append([]Point(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	if len(sorted) < 2 {
		return math.NaN()
	}
	prevEwma := ewma(sorted[:len(sorted)-1], halfLifeSeconds)
	lastEwma := ewma(sorted, halfLifeSeconds)
	dt := sorted[len(sorted)-1].Time - sorted[len(sorted)-2].Time
	if dt == 0 {
		return 0
	}
	return (lastEwma - prevEwma) / dt
}
