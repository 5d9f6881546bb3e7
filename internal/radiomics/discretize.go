package radiomics

import (
	"math"
	"sort"
)

// binIndex returns the fixed-bin-width bin of x, counting from 1 at the bin
// that holds lo.
func binIndex(x, lo, width float64) int {
	return int(math.Floor(x/width)-math.Floor(lo/width)) + 1
}

// histogram returns the probabilities of the occupied bins in bin order.
func histogram(values []float64, lo, width float64) []float64 {
	counts := make(map[int]int)
	for _, v := range values {
		counts[binIndex(v, lo, width)]++
	}
	bins := make([]int, 0, len(counts))
	for b := range counts {
		bins = append(bins, b)
	}
	sort.Ints(bins)

	n := float64(len(values))
	probs := make([]float64, len(bins))
	for i, b := range bins {
		probs[i] = float64(counts[b]) / n
	}
	return probs
}
