package radiomics

import (
	"context"

	"github.com/bft-labs/radbatch/internal/domain"
	"github.com/bft-labs/radbatch/internal/params"
)

// ctxCheckEvery is the number of ROI voxels processed between cancellation checks.
const ctxCheckEvery = 4096

// voxelFirstOrder computes the enabled first-order features in a cubic
// kernel around every ROI voxel and returns one map per feature, in the
// order of names. Voxels outside the ROI hold vs.InitValue.
func voxelFirstOrder(
	ctx context.Context,
	img *domain.Volume,
	inROI []bool,
	roi []int,
	names []string,
	p firstOrderParams,
	vs params.VoxelSettings,
) ([]*domain.Volume, error) {
	maps := make([]*domain.Volume, len(names))
	for i := range maps {
		maps[i] = domain.NewVolumeLike(img, vs.InitValue)
	}

	r := vs.KernelRadius
	side := 2*r + 1
	buf := make([]float64, 0, side*side*side)

	for n, idx := range roi {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		cx, cy, cz := img.Coord(idx)
		buf = buf[:0]
		for z := cz - r; z <= cz+r; z++ {
			if z < 0 || z >= img.Size[2] {
				continue
			}
			for y := cy - r; y <= cy+r; y++ {
				if y < 0 || y >= img.Size[1] {
					continue
				}
				for x := cx - r; x <= cx+r; x++ {
					if x < 0 || x >= img.Size[0] {
						continue
					}
					k := img.Index(x, y, z)
					if vs.MaskedKernel && !inROI[k] {
						continue
					}
					buf = append(buf, img.Data[k])
				}
			}
		}

		feats := computeFirstOrder(buf, p)
		for i, name := range names {
			maps[i].Data[idx] = feats[name]
		}
	}
	return maps, nil
}
