package radiomics

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.9, 3.7},
		{1, 4},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.q); !almostEqual(got, tt.want) {
			t.Errorf("percentile(%v) = %v, want %v", tt.q, got, tt.want)
		}
	}
	if got := percentile([]float64{7}, 0.9); got != 7 {
		t.Errorf("single value percentile = %v, want 7", got)
	}
}

func TestBinIndex(t *testing.T) {
	tests := []struct {
		x, lo, width float64
		want         int
	}{
		{-3, -3, 25, 1},
		{24.9, -3, 25, 2},
		{25, -3, 25, 3},
		{0, 0, 25, 1},
		{49.99, 0, 25, 2},
	}
	for _, tt := range tests {
		if got := binIndex(tt.x, tt.lo, tt.width); got != tt.want {
			t.Errorf("binIndex(%v, %v, %v) = %d, want %d", tt.x, tt.lo, tt.width, got, tt.want)
		}
	}
}

func TestComputeFirstOrder(t *testing.T) {
	values := []float64{5, 3, 1, 4, 2}
	got := computeFirstOrder(values, firstOrderParams{
		binWidth:    1,
		voxelVolume: 2,
		binMin:      math.NaN(),
	})

	want := map[string]float64{
		"Mean":                        3,
		"Median":                      3,
		"Minimum":                     1,
		"Maximum":                     5,
		"Range":                       4,
		"10Percentile":                1.4,
		"90Percentile":                4.6,
		"InterquartileRange":          2,
		"Variance":                    2,
		"StandardDeviation":           math.Sqrt2,
		"MeanAbsoluteDeviation":       1.2,
		"RobustMeanAbsoluteDeviation": 2.0 / 3.0,
		"Energy":                      55,
		"TotalEnergy":                 110,
		"RootMeanSquared":             math.Sqrt(11),
		"Skewness":                    0,
		"Kurtosis":                    1.7,
		"Uniformity":                  0.2,
		"Entropy":                     math.Log2(5),
	}
	for name, w := range want {
		if g := got[name]; !almostEqual(g, w) {
			t.Errorf("%s = %v, want %v", name, g, w)
		}
	}
	if len(got) != len(firstOrderFeatures) {
		t.Errorf("computed %d features, want %d", len(got), len(firstOrderFeatures))
	}
}

func TestComputeFirstOrder_Shift(t *testing.T) {
	got := computeFirstOrder([]float64{-1, 1}, firstOrderParams{binWidth: 25, shift: 2, voxelVolume: 1, binMin: math.NaN()})
	if got["Energy"] != 10 {
		t.Errorf("Energy = %v, want 10", got["Energy"])
	}
	if got["Mean"] != 0 {
		t.Errorf("Mean = %v, shift must not apply", got["Mean"])
	}
}

func TestComputeFirstOrder_Constant(t *testing.T) {
	got := computeFirstOrder([]float64{0}, firstOrderParams{binWidth: 25, voxelVolume: 1, binMin: math.NaN()})
	for _, name := range []string{"Mean", "Variance", "Skewness", "Kurtosis", "Range", "Energy"} {
		if got[name] != 0 {
			t.Errorf("%s = %v, want 0", name, got[name])
		}
	}
	if got["Uniformity"] != 1 {
		t.Errorf("Uniformity = %v, want 1", got["Uniformity"])
	}
	if math.Abs(got["Entropy"]) > 1e-12 {
		t.Errorf("Entropy = %v, want ~0", got["Entropy"])
	}
}
