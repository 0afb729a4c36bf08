package aggregation

// ValueType is the attribute shape an aggregation kind expects its
// Point.Value to carry.
type ValueType int

const (
	// Numeric covers real-valued and discrete (integer-valued numerical)
	// attributes: sum, avg, quantiles, ewma, trend, and friends.
	Numeric ValueType = iota
	// Categorical covers encoded-category attributes: the count family
	// plus mode/first/last, which are meaningful on a raw category id
	// even though summing one would not be.
	Categorical
)

// Descriptor is the static per-kind table driving candidate generation
// and dispatch.
type Descriptor struct {
	Kind Kind
	// ValueType is the attribute shape this kind may be applied to.
	ValueType ValueType
	// NeedsSortedByTime flags the kinds whose semantics depend on
	// processing matches in time order (ewma, ewma_trend, trend,
	// avg_time_between, time_since_*); informational here since Aggregate
	// handles time order internally for every such kind (by sorting on, or
	// comparing, Point.Time) rather than requiring its caller to pre-sort.
	NeedsSortedByTime bool
}

var descriptors = buildDescriptors()

func buildDescriptors() map[Kind]Descriptor {
	categorical := map[Kind]bool{
		Count: true, CountDistinct: true, CountDistinctOverCount: true,
		CountMinusCountDistinct: true, Mode: true, First: true, Last: true,
	}
	sorted := map[Kind]bool{
		AvgTimeBetween: true, Trend: true,
		TimeSinceFirstMaximum: true, TimeSinceFirstMinimum: true,
		TimeSinceLastMaximum: true, TimeSinceLastMinimum: true,
		EWMA1s: true, EWMA1m: true, EWMA1h: true, EWMA1d: true,
		EWMA7d: true, EWMA30d: true, EWMA90d: true, EWMA365d: true,
		EWMATrend1s: true, EWMATrend1m: true, EWMATrend1h: true, EWMATrend1d: true,
		EWMATrend7d: true, EWMATrend30d: true, EWMATrend90d: true, EWMATrend365d: true,
	}
	out := make(map[Kind]Descriptor, len(names))
	for k := range names {
		d := Descriptor{Kind: k, ValueType: Numeric, NeedsSortedByTime: sorted[k]}
		if categorical[k] {
			d.ValueType = Categorical
		}
		out[k] = d
	}
	return out
}

// Describe returns k's static descriptor.
func Describe(k Kind) Descriptor { return descriptors[k] }

// ApplicableTo reports whether kind may be used against a column of the
// given value type. A categorical column only supports the kinds whose
// input is a category id (the count family, mode, first, last); numeric
// and discrete columns support every kind, counts included.
func ApplicableTo(k Kind, vt ValueType) bool {
	if vt == Categorical {
		return Describe(k).ValueType == Categorical
	}
	return true
}

// SplitsOnCategory reports whether kind's aggregated scalar is itself a
// category id when applied to a categorical column, in which case a split
// over it is a set-membership test rather than a threshold.
func SplitsOnCategory(k Kind) bool {
	switch k {
	case Mode, First, Last:
		return true
	}
	return false
}
