// Package nifti reads and writes single-file NIfTI-1 volumes (.nii, .nii.gz).
package nifti

import (
	"fmt"
	"math"

	"github.com/bft-labs/radbatch/internal/domain"
)

const (
	headerSize = 348
	dataOffset = 352
)

// NIfTI-1 datatype codes.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
	dtInt8    = 256
	dtUint16  = 512
	dtUint32  = 768
)

// header is the on-disk NIfTI-1 header. Field order and sizes match the
// 348-byte layout so it can be decoded with encoding/binary.
type header struct {
	SizeofHdr     int32
	DataType      [10]byte
	DBName        [18]byte
	Extents       int32
	SessionError  int16
	Regular       byte
	DimInfo       byte
	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XYZTUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32
	Glmin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QoffsetX      float32
	QoffsetY      float32
	QoffsetZ      float32
	SrowX         [4]float32
	SrowY         [4]float32
	SrowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

func pixelType(code int16) (name string, bytes int, err error) {
	switch code {
	case dtUint8:
		return "uint8", 1, nil
	case dtInt8:
		return "int8", 1, nil
	case dtInt16:
		return "int16", 2, nil
	case dtUint16:
		return "uint16", 2, nil
	case dtInt32:
		return "int32", 4, nil
	case dtUint32:
		return "uint32", 4, nil
	case dtFloat32:
		return "float32", 4, nil
	case dtFloat64:
		return "float64", 8, nil
	default:
		return "", 0, fmt.Errorf("%w: nifti datatype %d", domain.ErrUnsupportedFormat, code)
	}
}

// geometry derives LPS spacing, origin and direction from the header.
// The sform wins over the qform; with neither, pixdim and an identity
// orientation are used.
func (h *header) geometry() (spacing, origin [3]float64, direction [9]float64) {
	var a [9]float64 // RAS affine without translation, row-major

	switch {
	case h.SformCode > 0:
		rows := [3][4]float32{h.SrowX, h.SrowY, h.SrowZ}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				a[3*r+c] = float64(rows[r][c])
			}
			origin[r] = float64(rows[r][3])
		}
		for c := 0; c < 3; c++ {
			n := math.Sqrt(a[c]*a[c] + a[3+c]*a[3+c] + a[6+c]*a[6+c])
			spacing[c] = n
			for r := 0; r < 3; r++ {
				if n > 0 {
					direction[3*r+c] = a[3*r+c] / n
				}
			}
		}
	case h.QformCode > 0:
		b, c, d := float64(h.QuaternB), float64(h.QuaternC), float64(h.QuaternD)
		aa := 1 - (b*b + c*c + d*d)
		var qa float64
		if aa < 1e-7 {
			n := math.Sqrt(b*b + c*c + d*d)
			b, c, d = b/n, c/n, d/n
		} else {
			qa = math.Sqrt(aa)
		}
		qfac := 1.0
		if h.Pixdim[0] < 0 {
			qfac = -1
		}
		direction = [9]float64{
			qa*qa + b*b - c*c - d*d, 2 * (b*c - qa*d), 2 * (b*d + qa*c) * qfac,
			2 * (b*c + qa*d), qa*qa + c*c - b*b - d*d, 2 * (c*d - qa*b) * qfac,
			2 * (b*d - qa*c), 2 * (c*d + qa*b), (qa*qa + d*d - c*c - b*b) * qfac,
		}
		origin = [3]float64{float64(h.QoffsetX), float64(h.QoffsetY), float64(h.QoffsetZ)}
		for i := 0; i < 3; i++ {
			spacing[i] = math.Abs(float64(h.Pixdim[i+1]))
		}
	default:
		direction = domain.IdentityDirection
		for i := 0; i < 3; i++ {
			spacing[i] = math.Abs(float64(h.Pixdim[i+1]))
		}
	}

	for i := range spacing {
		if spacing[i] == 0 {
			spacing[i] = 1
		}
	}

	// RAS -> LPS
	for c := 0; c < 3; c++ {
		direction[c] = -direction[c]
		direction[3+c] = -direction[3+c]
	}
	origin[0], origin[1] = -origin[0], -origin[1]
	return spacing, origin, direction
}

// newFloat64Header builds a header describing vol as float64 data with an sform.
func newFloat64Header(vol *domain.Volume) header {
	h := header{
		SizeofHdr: headerSize,
		Regular:   'r',
		Datatype:  dtFloat64,
		Bitpix:    64,
		VoxOffset: dataOffset,
		XYZTUnits: 2, // mm
		QformCode: 0,
		SformCode: 1,
		Magic:     [4]byte{'n', '+', '1', 0},
	}
	h.Dim = [8]int16{3, int16(vol.Size[0]), int16(vol.Size[1]), int16(vol.Size[2]), 1, 1, 1, 1}
	h.Pixdim = [8]float32{1, float32(vol.Spacing[0]), float32(vol.Spacing[1]), float32(vol.Spacing[2]), 0, 0, 0, 0}

	// LPS -> RAS
	var rows [3][4]float32
	for r := 0; r < 3; r++ {
		sign := 1.0
		if r < 2 {
			sign = -1
		}
		for c := 0; c < 3; c++ {
			rows[r][c] = float32(sign * vol.Direction[3*r+c] * vol.Spacing[c])
		}
		rows[r][3] = float32(sign * vol.Origin[r])
	}
	h.SrowX, h.SrowY, h.SrowZ = rows[0], rows[1], rows[2]
	copy(h.Descrip[:], "radbatch feature map")
	return h
}
