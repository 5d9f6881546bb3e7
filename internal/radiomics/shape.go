package radiomics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/bft-labs/radbatch/internal/domain"
)

var errEigen = errors.New("radiomics: covariance eigendecomposition failed")

var shapeFeatures = []string{
	"Elongation",
	"Flatness",
	"LeastAxisLength",
	"MajorAxisLength",
	"MinorAxisLength",
	"VoxelVolume",
}

// computeShape derives voxel-count volume and PCA axis lengths from the
// physical coordinates of the ROI voxels.
func computeShape(vol *domain.Volume, roi []int) (map[string]float64, error) {
	out := map[string]float64{
		"VoxelVolume":     float64(len(roi)) * vol.VoxelVolume(),
		"MajorAxisLength": 0,
		"MinorAxisLength": 0,
		"LeastAxisLength": 0,
		"Elongation":      0,
		"Flatness":        0,
	}
	if len(roi) < 2 {
		return out, nil
	}

	coords := mat.NewDense(len(roi), 3, nil)
	for r, idx := range roi {
		x, y, z := vol.Coord(idx)
		p := vol.Physical(float64(x), float64(y), float64(z))
		coords.SetRow(r, p[:])
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, coords, nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(&cov, false); !ok {
		return nil, errEigen
	}
	vals := eig.Values(nil) // ascending
	for i, v := range vals {
		if v < 0 {
			vals[i] = 0
		}
	}
	least, minor, major := vals[0], vals[1], vals[2]

	out["MajorAxisLength"] = 4 * math.Sqrt(major)
	out["MinorAxisLength"] = 4 * math.Sqrt(minor)
	out["LeastAxisLength"] = 4 * math.Sqrt(least)
	if major > 0 {
		out["Elongation"] = math.Sqrt(minor / major)
		out["Flatness"] = math.Sqrt(least / major)
	}
	return out, nil
}
