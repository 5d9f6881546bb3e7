package domain

import (
	"fmt"
	"math"
)

// Volume is a 3-D scalar image. Voxels are stored with x varying fastest,
// then y, then z. Geometry follows the LPS convention used by ITK.
type Volume struct {
	// Size is the number of voxels along x, y and z.
	Size [3]int

	// Spacing is the physical voxel size in millimetres.
	Spacing [3]float64

	// Origin is the physical position of voxel (0,0,0).
	Origin [3]float64

	// Direction is the row-major 3x3 direction cosine matrix.
	Direction [9]float64

	// PixelType names the on-disk pixel type the data was decoded from.
	PixelType string

	// Data holds Size[0]*Size[1]*Size[2] voxel values.
	Data []float64
}

// DefaultGeometryTolerance bounds how far image and mask geometry may
// differ before they are treated as different grids.
const DefaultGeometryTolerance = 1e-6

// IdentityDirection is the direction matrix of an axis-aligned volume.
var IdentityDirection = [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}

// NewVolume allocates a zero-filled volume with unit spacing and identity direction.
func NewVolume(nx, ny, nz int) *Volume {
	return &Volume{
		Size:      [3]int{nx, ny, nz},
		Spacing:   [3]float64{1, 1, 1},
		Direction: IdentityDirection,
		PixelType: "float64",
		Data:      make([]float64, nx*ny*nz),
	}
}

// NewVolumeLike allocates a volume with the same geometry as v, filled with fill.
func NewVolumeLike(v *Volume, fill float64) *Volume {
	out := &Volume{
		Size:      v.Size,
		Spacing:   v.Spacing,
		Origin:    v.Origin,
		Direction: v.Direction,
		PixelType: "float64",
		Data:      make([]float64, len(v.Data)),
	}
	if fill != 0 {
		for i := range out.Data {
			out.Data[i] = fill
		}
	}
	return out
}

// Len returns the number of voxels.
func (v *Volume) Len() int {
	return v.Size[0] * v.Size[1] * v.Size[2]
}

// Index returns the linear index of voxel (x, y, z).
func (v *Volume) Index(x, y, z int) int {
	return x + v.Size[0]*(y+v.Size[1]*z)
}

// Coord returns the voxel coordinates of a linear index.
func (v *Volume) Coord(i int) (x, y, z int) {
	x = i % v.Size[0]
	i /= v.Size[0]
	y = i % v.Size[1]
	z = i / v.Size[1]
	return x, y, z
}

// At returns the value at voxel (x, y, z).
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[v.Index(x, y, z)]
}

// Set stores a value at voxel (x, y, z).
func (v *Volume) Set(x, y, z int, val float64) {
	v.Data[v.Index(x, y, z)] = val
}

// VoxelVolume returns the physical volume of one voxel in mm³.
func (v *Volume) VoxelVolume() float64 {
	return v.Spacing[0] * v.Spacing[1] * v.Spacing[2]
}

// Physical maps a continuous index to a physical point:
// origin + direction · (spacing ∘ index).
func (v *Volume) Physical(x, y, z float64) [3]float64 {
	s := [3]float64{x * v.Spacing[0], y * v.Spacing[1], z * v.Spacing[2]}
	var p [3]float64
	for r := 0; r < 3; r++ {
		p[r] = v.Origin[r] + v.Direction[3*r]*s[0] + v.Direction[3*r+1]*s[1] + v.Direction[3*r+2]*s[2]
	}
	return p
}

// Validate checks that the data length matches the declared size.
func (v *Volume) Validate() error {
	for i, n := range v.Size {
		if n <= 0 {
			return fmt.Errorf("volume: dimension %d has size %d", i, n)
		}
	}
	if len(v.Data) != v.Len() {
		return fmt.Errorf("volume: %d voxels for size %v", len(v.Data), v.Size)
	}
	return nil
}

// SameGrid reports whether two volumes have identical voxel dimensions.
func (v *Volume) SameGrid(o *Volume) bool {
	return v.Size == o.Size
}

// CheckGeometry returns an error wrapping ErrGeometryMismatch unless o has
// the size of v and matching spacing, origin and direction. Spacing and
// origin are compared within tol times the first spacing of v, direction
// cosines within tol.
func (v *Volume) CheckGeometry(o *Volume, tol float64) error {
	if !v.SameGrid(o) {
		return fmt.Errorf("%w: size %v vs %v", ErrGeometryMismatch, v.Size, o.Size)
	}
	coordTol := tol * math.Abs(v.Spacing[0])
	for i := 0; i < 3; i++ {
		if math.Abs(v.Spacing[i]-o.Spacing[i]) > coordTol {
			return fmt.Errorf("%w: spacing %v vs %v", ErrGeometryMismatch, v.Spacing, o.Spacing)
		}
	}
	for i := 0; i < 3; i++ {
		if math.Abs(v.Origin[i]-o.Origin[i]) > coordTol {
			return fmt.Errorf("%w: origin %v vs %v", ErrGeometryMismatch, v.Origin, o.Origin)
		}
	}
	for i := range v.Direction {
		if math.Abs(v.Direction[i]-o.Direction[i]) > tol {
			return fmt.Errorf("%w: direction %v vs %v", ErrGeometryMismatch, v.Direction, o.Direction)
		}
	}
	return nil
}

// CountNaN returns the number of voxels holding NaN.
func (v *Volume) CountNaN() int {
	n := 0
	for _, x := range v.Data {
		if math.IsNaN(x) {
			n++
		}
	}
	return n
}
