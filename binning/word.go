package binning

import "sort"

// WordDatum is one population row's token list (the union of its matched
// texts) plus the row's gradient and curvature, scanned by Word.
type WordDatum struct {
	Words []int32
	G, H  float64
}

// Word finds the single word id whose presence/absence split gives the
// best reduction: for every distinct word seen, the left set is "rows
// whose text contains this word," the right set is every other row,
// evaluated independently — a one-vs-rest scan rather than an ordered
// sweep, since word ids carry no natural order.
func Word(matches []WordDatum, lambda float64, minNumSamples int) (*CandidateSplit, bool) {
	if len(matches) < minNumSamples {
		return nil, false
	}
	type wordStat struct {
		g, h float64
	}
	byWord := map[int32]*wordStat{}
	var totalG, totalH float64
	for _, m := range matches {
		totalG += m.G
		totalH += m.H
		seen := map[int32]bool{}
		for _, w := range m.Words {
			if seen[w] {
				continue
			}
			seen[w] = true
			s, ok := byWord[w]
			if !ok {
				s = &wordStat{}
				byWord[w] = s
			}
			s.g += m.G
			s.h += m.H
		}
	}
	if len(byWord) == 0 {
		return nil, false
	}
	words := make([]int32, 0, len(byWord))
	for w := range byWord {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool { return words[i] < words[j] })

	var best *CandidateSplit
	for _, w := range words {
		s := byWord[w]
		sumGLeft, sumHLeft := s.g, s.h
		sumGRight, sumHRight := totalG-sumGLeft, totalH-sumHLeft
		red := reduction(sumGLeft, sumHLeft, sumGRight, sumHRight, lambda)
		if best == nil || red > best.Reduction {
			best = &CandidateSplit{
				Predicate: Predicate{Kind: KindWordSet, Word: w},
				Reduction: red,
				SumGLeft:  sumGLeft, SumHLeft: sumHLeft,
				SumGRight: sumGRight, SumHRight: sumHRight,
			}
		}
	}
	return best, true
}
