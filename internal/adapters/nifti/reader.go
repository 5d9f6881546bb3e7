package nifti

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/bft-labs/radbatch/internal/domain"
)

// Read decodes the volume stored at path. Files ending in .gz are
// decompressed transparently. Only the first 3-D volume of a 4-D series is read.
func Read(path string) (*domain.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("nifti %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	vol, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("nifti %s: %w", path, err)
	}
	return vol, nil
}

// Decode reads an uncompressed single-file NIfTI-1 stream.
func Decode(r io.Reader) (*domain.Volume, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(raw) == headerSize:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(raw) == headerSize:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: not a NIfTI-1 header", domain.ErrUnsupportedFormat)
	}

	var h header
	if err := binary.Read(bytes.NewReader(raw), order, &h); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if h.Magic != [4]byte{'n', '+', '1', 0} {
		return nil, fmt.Errorf("%w: magic %q (only single-file n+1 is supported)", domain.ErrUnsupportedFormat, h.Magic[:3])
	}

	name, size, err := pixelType(h.Datatype)
	if err != nil {
		return nil, err
	}

	ndim := int(h.Dim[0])
	if ndim < 1 || ndim > 7 {
		return nil, fmt.Errorf("%w: dim[0]=%d", domain.ErrUnsupportedFormat, ndim)
	}
	dims := [3]int{1, 1, 1}
	for i := 0; i < 3 && i < ndim; i++ {
		dims[i] = int(h.Dim[i+1])
		if dims[i] <= 0 {
			return nil, fmt.Errorf("%w: dim[%d]=%d", domain.ErrUnsupportedFormat, i+1, dims[i])
		}
	}

	skip := int64(h.VoxOffset) - headerSize
	if skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, fmt.Errorf("skip extensions: %w", err)
		}
	}

	n := dims[0] * dims[1] * dims[2]
	buf := make([]byte, n*size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read voxels: %w", err)
	}

	data := make([]float64, n)
	for i := range data {
		data[i] = decodeVoxel(order, h.Datatype, buf[i*size:(i+1)*size])
	}

	if slope := float64(h.SclSlope); slope != 0 && !math.IsNaN(slope) && (slope != 1 || h.SclInter != 0) {
		inter := float64(h.SclInter)
		for i := range data {
			data[i] = data[i]*slope + inter
		}
	}

	spacing, origin, direction := h.geometry()
	return &domain.Volume{
		Size:      dims,
		Spacing:   spacing,
		Origin:    origin,
		Direction: direction,
		PixelType: name,
		Data:      data,
	}, nil
}

func decodeVoxel(order binary.ByteOrder, dt int16, b []byte) float64 {
	switch dt {
	case dtUint8:
		return float64(b[0])
	case dtInt8:
		return float64(int8(b[0]))
	case dtInt16:
		return float64(int16(order.Uint16(b)))
	case dtUint16:
		return float64(order.Uint16(b))
	case dtInt32:
		return float64(int32(order.Uint32(b)))
	case dtUint32:
		return float64(order.Uint32(b))
	case dtFloat32:
		return float64(math.Float32frombits(order.Uint32(b)))
	case dtFloat64:
		return math.Float64frombits(order.Uint64(b))
	}
	return 0
}
