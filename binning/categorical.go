package binning

import "sort"

// Categorical finds the best left-set/right-set split over a categorical
// attribute. Distinct categories are ranked by their own Σg/(Σh+λ) ratio
// (the standard "sort categories by mean gradient, then scan prefixes"
// trick from gradient-boosted decision trees), then every prefix of that
// ranking is tried as the left set.
func Categorical(matches []MatchDatum, lambda float64, minNumSamples int) (*CandidateSplit, bool) {
	if len(matches) < minNumSamples {
		return nil, false
	}
	type catStat struct {
		cat  int32
		g, h float64
	}
	byCat := map[int32]*catStat{}
	for _, m := range matches {
		s, ok := byCat[m.Cat]
		if !ok {
			s = &catStat{cat: m.Cat}
			byCat[m.Cat] = s
		}
		s.g += m.G
		s.h += m.H
	}
	if len(byCat) < 2 {
		return nil, false
	}
	stats := make([]*catStat, 0, len(byCat))
	for _, s := range byCat {
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool {
		ri := stats[i].g / (stats[i].h + lambda)
		rj := stats[j].g / (stats[j].h + lambda)
		if ri != rj {
			return ri < rj
		}
		return stats[i].cat < stats[j].cat
	})

	var totalG, totalH float64
	for _, s := range stats {
		totalG += s.g
		totalH += s.h
	}

	var best *CandidateSplit
	var sumGLeft, sumHLeft float64
	leftSet := make([]int32, 0, len(stats))
	for i := 0; i < len(stats)-1; i++ {
		leftSet = append(leftSet, stats[i].cat)
		sumGLeft += stats[i].g
		sumHLeft += stats[i].h
		sumGRight := totalG - sumGLeft
		sumHRight := totalH - sumHLeft
		red := reduction(sumGLeft, sumHLeft, sumGRight, sumHRight, lambda)
		// Ties favor the smaller left set: a later, larger prefix only
		// replaces the incumbent on a strictly greater reduction.
		if best == nil || red > best.Reduction {
			best = &CandidateSplit{
				Predicate: Predicate{Kind: KindCategorySet, Categories: sortedCopy(leftSet)},
				Reduction: red,
				SumGLeft:  sumGLeft, SumHLeft: sumHLeft,
				SumGRight: sumGRight, SumHRight: sumHRight,
			}
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

func sortedCopy(cats []int32) []int32 {
	out := append([]int32(nil), cats...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
