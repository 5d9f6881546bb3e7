package radiomics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const eps = 2.220446049250313e-16

// firstOrderFeatures lists the first-order features in output order.
var firstOrderFeatures = []string{
	"10Percentile",
	"90Percentile",
	"Energy",
	"Entropy",
	"InterquartileRange",
	"Kurtosis",
	"Maximum",
	"Mean",
	"MeanAbsoluteDeviation",
	"Median",
	"Minimum",
	"Range",
	"RobustMeanAbsoluteDeviation",
	"RootMeanSquared",
	"Skewness",
	"StandardDeviation",
	"TotalEnergy",
	"Uniformity",
	"Variance",
}

type firstOrderParams struct {
	binWidth    float64
	shift       float64
	voxelVolume float64
	// binMin anchors discretisation; NaN means the minimum of the values.
	binMin float64
}

// computeFirstOrder evaluates every first-order feature over values.
// values must be non-empty; it is sorted in place.
func computeFirstOrder(values []float64, p firstOrderParams) map[string]float64 {
	sort.Float64s(values)
	n := float64(len(values))

	lo, hi := values[0], values[len(values)-1]
	mean := stat.Mean(values, nil)
	variance := stat.Moment(2, values, nil)

	var energy, mad float64
	for _, v := range values {
		energy += (v + p.shift) * (v + p.shift)
		mad += math.Abs(v - mean)
	}
	mad /= n

	p10 := percentile(values, 0.10)
	p90 := percentile(values, 0.90)

	var robust []float64
	for _, v := range values {
		if v >= p10 && v <= p90 {
			robust = append(robust, v)
		}
	}
	var rmad float64
	if len(robust) > 0 {
		rmean := stat.Mean(robust, nil)
		for _, v := range robust {
			rmad += math.Abs(v - rmean)
		}
		rmad /= float64(len(robust))
	}

	var skewness, kurtosis float64
	if variance != 0 {
		skewness = stat.Moment(3, values, nil) / math.Pow(variance, 1.5)
		kurtosis = stat.Moment(4, values, nil) / (variance * variance)
	}

	binMin := p.binMin
	if math.IsNaN(binMin) {
		binMin = lo
	}
	probs := histogram(values, binMin, p.binWidth)
	var entropy float64
	for _, pr := range probs {
		entropy -= pr * math.Log2(pr+eps)
	}
	uniformity := floats.Dot(probs, probs)

	return map[string]float64{
		"10Percentile":                p10,
		"90Percentile":                p90,
		"Energy":                      energy,
		"Entropy":                     entropy,
		"InterquartileRange":          percentile(values, 0.75) - percentile(values, 0.25),
		"Kurtosis":                    kurtosis,
		"Maximum":                     hi,
		"Mean":                        mean,
		"MeanAbsoluteDeviation":       mad,
		"Median":                      percentile(values, 0.5),
		"Minimum":                     lo,
		"Range":                       hi - lo,
		"RobustMeanAbsoluteDeviation": rmad,
		"RootMeanSquared":             math.Sqrt(energy / n),
		"Skewness":                    skewness,
		"StandardDeviation":           math.Sqrt(variance),
		"TotalEnergy":                 energy * p.voxelVolume,
		"Uniformity":                  uniformity,
		"Variance":                    variance,
	}
}

// percentile interpolates linearly between the closest ranks of sorted,
// the default method of numpy.percentile.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := float64(len(sorted)-1) * q
	fl := math.Floor(h)
	i := int(fl)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-fl)*(sorted[i+1]-sorted[i])
}
