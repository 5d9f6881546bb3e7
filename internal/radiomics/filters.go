package radiomics

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/bft-labs/radbatch/internal/domain"
)

// filterFunc derives a filtered image from the original.
type filterFunc func(*domain.Volume) *domain.Volume

// filters maps lower-case image type names to their implementation.
var filters = map[string]filterFunc{
	"original":    func(v *domain.Volume) *domain.Volume { return v },
	"square":      squareImage,
	"squareroot":  squareRootImage,
	"logarithm":   logarithmImage,
	"exponential": exponentialImage,
}

func lookupFilter(imageType string) (filterFunc, bool) {
	f, ok := filters[strings.ToLower(imageType)]
	return f, ok
}

func maxAbs(data []float64) float64 {
	var m float64
	for _, v := range data {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

// squareImage computes (c*x)^2 with c = 1/sqrt(max|x|).
func squareImage(v *domain.Volume) *domain.Volume {
	out := domain.NewVolumeLike(v, 0)
	coeff := 1.0
	if m := maxAbs(v.Data); m > 0 {
		coeff = 1 / math.Sqrt(m)
	}
	for i, x := range v.Data {
		out.Data[i] = (coeff * x) * (coeff * x)
	}
	return out
}

// squareRootImage computes sign(x)*sqrt(|x|*max|x|).
func squareRootImage(v *domain.Volume) *domain.Volume {
	out := domain.NewVolumeLike(v, 0)
	coeff := maxAbs(v.Data)
	for i, x := range v.Data {
		switch {
		case x > 0:
			out.Data[i] = math.Sqrt(x * coeff)
		case x < 0:
			out.Data[i] = -math.Sqrt(-x * coeff)
		}
	}
	return out
}

// logarithmImage computes sign(x)*log(|x|+1), rescaled to the original max|x|.
func logarithmImage(v *domain.Volume) *domain.Volume {
	out := domain.NewVolumeLike(v, 0)
	imMax := maxAbs(v.Data)
	for i, x := range v.Data {
		switch {
		case x > 0:
			out.Data[i] = math.Log(x + 1)
		case x < 0:
			out.Data[i] = -math.Log(-(x - 1))
		}
	}
	if m := maxAbs(out.Data); m > 0 {
		scale := imMax / m
		for i := range out.Data {
			out.Data[i] *= scale
		}
	}
	return out
}

// exponentialImage computes exp(c*x) with c = log(max|x|)/max|x|.
func exponentialImage(v *domain.Volume) *domain.Volume {
	out := domain.NewVolumeLike(v, 0)
	var coeff float64
	if m := maxAbs(v.Data); m > 0 {
		coeff = math.Log(m) / m
	}
	for i, x := range v.Data {
		out.Data[i] = math.Exp(coeff * x)
	}
	return out
}

// normalizeImage rescales the image to zero mean and unit standard
// deviation, multiplied by scale.
func normalizeImage(v *domain.Volume, scale float64) *domain.Volume {
	mean := stat.Mean(v.Data, nil)
	std := math.Sqrt(stat.Moment(2, v.Data, nil))

	out := domain.NewVolumeLike(v, 0)
	for i, x := range v.Data {
		if std == 0 {
			out.Data[i] = x - mean
			continue
		}
		out.Data[i] = (x - mean) / std * scale
	}
	return out
}
