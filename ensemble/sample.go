package ensemble

import (
	"math/rand"

	"github.com/sqlnet/relboost/matchmaker"
)

// maxSampledRows bounds the expected subsample size per round near
// 20 000 rows · sampling_factor.
const maxSampledRows = 20000

// resample draws a Bernoulli keep-mask over population rows with a rate
// chosen so the expected sampled count stays near maxSampledRows ·
// samplingFactor, then returns the subset of matches whose PopRow was
// kept. samplingFactor <= 0 is treated as 1. Every row is kept (no
// subsampling) whenever numRows <= maxSampledRows · samplingFactor.
func resample(matches []matchmaker.Match, numRows int, samplingFactor float64, rng *rand.Rand) (sampled []matchmaker.Match, keep []bool) {
	keep = make([]bool, numRows)
	if samplingFactor <= 0 {
		samplingFactor = 1
	}
	target := maxSampledRows * samplingFactor
	rate := 1.0
	if float64(numRows) > target && target > 0 {
		rate = target / float64(numRows)
	}
	if rate >= 1 {
		for i := range keep {
			keep[i] = true
		}
		return matches, keep
	}
	for i := range keep {
		keep[i] = rng.Float64() < rate
	}
	sampled = make([]matchmaker.Match, 0, len(matches))
	for _, m := range matches {
		if keep[m.PopRow] {
			sampled = append(sampled, m)
		}
	}
	return sampled, keep
}
