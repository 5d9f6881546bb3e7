package nifti

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/bft-labs/radbatch/internal/domain"
)

// Write stores vol at path as float64 NIfTI-1, gzip-compressed when the
// path ends in .gz.
func Write(path string, vol *domain.Volume) error {
	if err := vol.Validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(f)
	var w io.Writer = bw
	var gz *gzip.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz = gzip.NewWriter(bw)
		w = gz
	}

	err = Encode(w, vol)
	if gz != nil {
		if cerr := gz.Close(); err == nil {
			err = cerr
		}
	}
	if ferr := bw.Flush(); err == nil {
		err = ferr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("nifti %s: %w", path, err)
	}
	return nil
}

// Encode writes vol as an uncompressed little-endian single-file NIfTI-1 stream.
func Encode(w io.Writer, vol *domain.Volume) error {
	for i, n := range vol.Size {
		if n > math.MaxInt16 {
			return fmt.Errorf("%w: dimension %d too large for NIfTI-1 (%d)", domain.ErrUnsupportedFormat, i, n)
		}
	}

	h := newFloat64Header(vol)
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}
	// empty extension flag
	if _, err := w.Write([]byte{0, 0, 0, 0}); err != nil {
		return err
	}

	buf := make([]byte, 8*len(vol.Data))
	for i, v := range vol.Data {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	_, err := w.Write(buf)
	return err
}
