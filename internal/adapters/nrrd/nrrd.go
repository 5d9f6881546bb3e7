// Package nrrd reads and writes 3-D scalar NRRD volumes in LPS space.
// Files stored in RAS or LAS space are converted to LPS on read.
package nrrd

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/bft-labs/radbatch/internal/domain"
)

// Encoding selects how voxel data is stored after the header.
type Encoding string

const (
	EncodingRaw  Encoding = "raw"
	EncodingGzip Encoding = "gzip"
)

// Write stores vol at path as a double-precision NRRD with the given encoding.
func Write(path string, vol *domain.Volume, enc Encoding) error {
	if err := vol.Validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)

	err = Encode(bw, vol, enc)
	if ferr := bw.Flush(); err == nil {
		err = ferr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("nrrd %s: %w", path, err)
	}
	return nil
}

// Encode writes the header and voxel data of vol.
func Encode(w io.Writer, vol *domain.Volume, enc Encoding) error {
	if enc == "" {
		enc = EncodingRaw
	}
	if enc != EncodingRaw && enc != EncodingGzip {
		return fmt.Errorf("%w: nrrd encoding %q", domain.ErrUnsupportedFormat, enc)
	}

	var hdr strings.Builder
	hdr.WriteString("NRRD0004\n")
	hdr.WriteString("# Complete NRRD file format specification at:\n")
	hdr.WriteString("# http://teem.sourceforge.net/nrrd/format.html\n")
	hdr.WriteString("type: double\n")
	hdr.WriteString("dimension: 3\n")
	hdr.WriteString("space: left-posterior-superior\n")
	fmt.Fprintf(&hdr, "sizes: %d %d %d\n", vol.Size[0], vol.Size[1], vol.Size[2])
	hdr.WriteString("space directions:")
	for c := 0; c < 3; c++ {
		fmt.Fprintf(&hdr, " (%s,%s,%s)",
			formatFloat(vol.Direction[c]*vol.Spacing[c]),
			formatFloat(vol.Direction[3+c]*vol.Spacing[c]),
			formatFloat(vol.Direction[6+c]*vol.Spacing[c]))
	}
	hdr.WriteString("\n")
	hdr.WriteString("kinds: domain domain domain\n")
	hdr.WriteString("endian: little\n")
	fmt.Fprintf(&hdr, "encoding: %s\n", enc)
	fmt.Fprintf(&hdr, "space origin: (%s,%s,%s)\n\n",
		formatFloat(vol.Origin[0]), formatFloat(vol.Origin[1]), formatFloat(vol.Origin[2]))

	if _, err := io.WriteString(w, hdr.String()); err != nil {
		return err
	}

	buf := make([]byte, 8*len(vol.Data))
	for i, v := range vol.Data {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}

	if enc == EncodingGzip {
		gz := gzip.NewWriter(w)
		if _, err := gz.Write(buf); err != nil {
			return err
		}
		return gz.Close()
	}
	_, err := w.Write(buf)
	return err
}

// Read decodes the NRRD volume stored at path. Only attached-header,
// 3-D scalar files with raw or gzip encoding are supported.
func Read(path string) (*domain.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vol, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("nrrd %s: %w", path, err)
	}
	return vol, nil
}

// Decode parses an NRRD stream.
func Decode(r *bufio.Reader) (*domain.Volume, error) {
	magic, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if !strings.HasPrefix(magic, "NRRD000") {
		return nil, fmt.Errorf("%w: not an NRRD file", domain.ErrUnsupportedFormat)
	}

	fields := make(map[string]string)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(strings.TrimPrefix(value, "="))
	}

	if fields["dimension"] != "3" {
		return nil, fmt.Errorf("%w: dimension %q", domain.ErrUnsupportedFormat, fields["dimension"])
	}
	if _, ok := fields["data file"]; ok {
		return nil, fmt.Errorf("%w: detached data files", domain.ErrUnsupportedFormat)
	}

	vol := &domain.Volume{
		Spacing:   [3]float64{1, 1, 1},
		Direction: domain.IdentityDirection,
	}

	sizes := strings.Fields(fields["sizes"])
	if len(sizes) != 3 {
		return nil, fmt.Errorf("%w: sizes %q", domain.ErrUnsupportedFormat, fields["sizes"])
	}
	for i, s := range sizes {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: sizes %q", domain.ErrUnsupportedFormat, fields["sizes"])
		}
		vol.Size[i] = n
	}

	if dirs, ok := fields["space directions"]; ok {
		vecs, err := parseVectors(dirs)
		if err != nil || len(vecs) != 3 {
			return nil, fmt.Errorf("%w: space directions %q", domain.ErrUnsupportedFormat, dirs)
		}
		for c, v := range vecs {
			n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
			if n == 0 {
				continue
			}
			vol.Spacing[c] = n
			for r := 0; r < 3; r++ {
				vol.Direction[3*r+c] = v[r] / n
			}
		}
	} else if sp, ok := fields["spacings"]; ok {
		for i, s := range strings.Fields(sp) {
			if i < 3 {
				if v, err := strconv.ParseFloat(s, 64); err == nil {
					vol.Spacing[i] = v
				}
			}
		}
	}

	if origin, ok := fields["space origin"]; ok {
		vecs, err := parseVectors(origin)
		if err != nil || len(vecs) != 1 {
			return nil, fmt.Errorf("%w: space origin %q", domain.ErrUnsupportedFormat, origin)
		}
		vol.Origin = vecs[0]
	}
	toLPS(vol, fields["space"])

	typeName, size, err := normalizeType(fields["type"])
	if err != nil {
		return nil, err
	}
	vol.PixelType = typeName

	var order binary.ByteOrder = binary.LittleEndian
	if fields["endian"] == "big" {
		order = binary.BigEndian
	}

	var data io.Reader = r
	switch fields["encoding"] {
	case "raw":
	case "gzip", "gz":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		data = gz
	default:
		return nil, fmt.Errorf("%w: encoding %q", domain.ErrUnsupportedFormat, fields["encoding"])
	}

	n := vol.Size[0] * vol.Size[1] * vol.Size[2]
	buf := make([]byte, n*size)
	if _, err := io.ReadFull(data, buf); err != nil {
		return nil, fmt.Errorf("read voxels: %w", err)
	}
	vol.Data = make([]float64, n)
	for i := range vol.Data {
		vol.Data[i] = decodeVoxel(order, typeName, buf[i*size:(i+1)*size])
	}
	return vol, nil
}

// toLPS negates the physical axes of vol that the named space flips
// relative to LPS. Unknown spaces are left alone.
func toLPS(vol *domain.Volume, space string) {
	var flip [2]bool
	switch strings.ToLower(space) {
	case "right-anterior-superior", "ras":
		flip = [2]bool{true, true}
	case "left-anterior-superior", "las":
		flip = [2]bool{false, true}
	default:
		return
	}
	for r, f := range flip {
		if !f {
			continue
		}
		vol.Origin[r] = -vol.Origin[r]
		for c := 0; c < 3; c++ {
			vol.Direction[3*r+c] = -vol.Direction[3*r+c]
		}
	}
}

func normalizeType(t string) (string, int, error) {
	switch strings.ToLower(t) {
	case "uchar", "unsigned char", "uint8", "uint8_t":
		return "uint8", 1, nil
	case "signed char", "int8", "int8_t":
		return "int8", 1, nil
	case "short", "short int", "signed short", "int16", "int16_t":
		return "int16", 2, nil
	case "ushort", "unsigned short", "uint16", "uint16_t":
		return "uint16", 2, nil
	case "int", "signed int", "int32", "int32_t":
		return "int32", 4, nil
	case "uint", "unsigned int", "uint32", "uint32_t":
		return "uint32", 4, nil
	case "float":
		return "float32", 4, nil
	case "double":
		return "float64", 8, nil
	default:
		return "", 0, fmt.Errorf("%w: nrrd type %q", domain.ErrUnsupportedFormat, t)
	}
}

func decodeVoxel(order binary.ByteOrder, t string, b []byte) float64 {
	switch t {
	case "uint8":
		return float64(b[0])
	case "int8":
		return float64(int8(b[0]))
	case "int16":
		return float64(int16(order.Uint16(b)))
	case "uint16":
		return float64(order.Uint16(b))
	case "int32":
		return float64(int32(order.Uint32(b)))
	case "uint32":
		return float64(order.Uint32(b))
	case "float32":
		return float64(math.Float32frombits(order.Uint32(b)))
	case "float64":
		return math.Float64frombits(order.Uint64(b))
	}
	return 0
}

// parseVectors parses "(a,b,c) (d,e,f)" into 3-vectors. "none" entries are skipped.
func parseVectors(s string) ([][3]float64, error) {
	var out [][3]float64
	for _, tok := range strings.Fields(s) {
		if tok == "none" {
			continue
		}
		tok = strings.TrimSuffix(strings.TrimPrefix(tok, "("), ")")
		parts := strings.Split(tok, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("vector %q", tok)
		}
		var v [3]float64
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, err
			}
			v[i] = f
		}
		out = append(out, v)
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
